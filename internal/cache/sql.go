package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/calindra/moviegraph/internal/repository"
)

// SQL persists responses in the database so they survive restarts.
type SQL struct {
	repository *repository.ResponseRepository
	ttl        time.Duration
	now        func() time.Time
}

func NewSQL(repository *repository.ResponseRepository, ttl time.Duration) *SQL {
	return &SQL{
		repository: repository,
		ttl:        ttl,
		now:        time.Now,
	}
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, bool) {
	value, _, ok := s.GetWithExpiry(ctx, key)
	return value, ok
}

func (s *SQL) GetWithExpiry(ctx context.Context, key string) ([]byte, time.Time, bool) {
	res, err := s.repository.FindByKey(ctx, key, s.now())
	if err != nil {
		slog.Warn("cache: sql lookup failed", "key", key, "error", err)
		return nil, time.Time{}, false
	}
	if res == nil {
		return nil, time.Time{}, false
	}
	return res.Body, time.UnixMilli(res.ExpiresAt), true
}

func (s *SQL) Set(ctx context.Context, key string, value []byte) {
	s.SetUntil(ctx, key, value, s.now().Add(s.ttl))
}

func (s *SQL) SetUntil(ctx context.Context, key string, value []byte, expiresAt time.Time) {
	_, err := s.repository.Save(ctx, &repository.CachedResponse{
		Key:       key,
		Body:      value,
		CreatedAt: s.now().UnixMilli(),
		ExpiresAt: expiresAt.UnixMilli(),
	})
	if err != nil {
		slog.Warn("cache: sql save failed", "key", key, "error", err)
	}
}
