package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// CachedResponse is an upstream response body stored under its request key.
type CachedResponse struct {
	Key       string `db:"cache_key"`
	Body      []byte `db:"body"`
	CreatedAt int64  `db:"created_at"`
	ExpiresAt int64  `db:"expires_at"`
}

func (r *CachedResponse) Expired(now time.Time) bool {
	return r.ExpiresAt <= now.UnixMilli()
}

type ResponseRepository struct {
	Db *sqlx.DB
}

func (c *ResponseRepository) CreateTables() error {
	schema := `CREATE TABLE IF NOT EXISTS responses (
		cache_key	text NOT NULL PRIMARY KEY,
		body		bytea NOT NULL,
		created_at	bigint NOT NULL,
		expires_at	bigint NOT NULL);
	CREATE INDEX IF NOT EXISTS responses_expires_at_idx ON responses(expires_at);`

	if c.Db.DriverName() == "sqlite3" {
		schema = `CREATE TABLE IF NOT EXISTS responses (
		cache_key	text NOT NULL PRIMARY KEY,
		body		blob NOT NULL,
		created_at	integer NOT NULL,
		expires_at	integer NOT NULL);
	CREATE INDEX IF NOT EXISTS responses_expires_at_idx ON responses(expires_at);`
	}

	// execute a query on the server
	_, err := c.Db.Exec(schema)
	return err
}

// Save inserts the response or replaces the one stored under the same key.
func (c *ResponseRepository) Save(
	ctx context.Context, data *CachedResponse,
) (*CachedResponse, error) {
	insertSql := c.Db.Rebind(`INSERT INTO responses (
		cache_key,
		body,
		created_at,
		expires_at) VALUES (?, ?, ?, ?)
	ON CONFLICT (cache_key) DO UPDATE SET
		body = excluded.body,
		created_at = excluded.created_at,
		expires_at = excluded.expires_at`)
	_, err := c.Db.ExecContext(
		ctx,
		insertSql,
		data.Key,
		data.Body,
		data.CreatedAt,
		data.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// FindByKey returns nil when there is no live response for the key.
func (c *ResponseRepository) FindByKey(
	ctx context.Context, key string, now time.Time,
) (*CachedResponse, error) {
	query := c.Db.Rebind(`SELECT * FROM responses WHERE cache_key = ? AND expires_at > ? LIMIT 1`)
	var p CachedResponse
	err := c.Db.GetContext(ctx, &p, query, key, now.UnixMilli())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (c *ResponseRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := c.Db.Rebind(`DELETE FROM responses WHERE expires_at <= ?`)
	res, err := c.Db.ExecContext(ctx, query, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	slog.Debug("repository: expired responses deleted", "count", deleted)
	return deleted, nil
}

func (c *ResponseRepository) Count(ctx context.Context) (uint64, error) {
	var count uint64
	err := c.Db.GetContext(ctx, &count, `SELECT count(*) FROM responses`)
	if err != nil {
		return 0, err
	}
	return count, nil
}
