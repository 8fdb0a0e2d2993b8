// Copyright (c) Gabriel de Quadros Ligneul
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// This package contains the moviegraph assembly.
// This is separate from the main package to facilitate testing.
package moviegraph

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/calindra/moviegraph/internal/cache"
	"github.com/calindra/moviegraph/internal/commons"
	"github.com/calindra/moviegraph/internal/graph"
	"github.com/calindra/moviegraph/internal/repository"
	"github.com/calindra/moviegraph/internal/supervisor"
	"github.com/calindra/moviegraph/internal/tmdb"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultHttpPort = 5500
const HttpTimeout = 10 * time.Second
const DefaultLanguage = "en-US"

// Options to moviegraph.
type MovieGraphOpts struct {
	HttpAddress string
	HttpPort    int

	TmdbUrl  string
	ApiKey   string
	Language string

	// Zero disables the response cache.
	CacheTTL     time.Duration
	CacheMaxCost int64

	// One of sqlite, postgres or none.
	DbImplementation string
	// Empty means an in-memory database.
	SqliteFile  string
	PostgresUrl string

	JanitorInterval time.Duration

	// If set, serve the client bundle under /static.
	StaticDir string

	Timeout time.Duration
}

// Create the options struct with default values.
func NewMovieGraphOpts() MovieGraphOpts {
	return MovieGraphOpts{
		HttpAddress:      "127.0.0.1",
		HttpPort:         DefaultHttpPort,
		TmdbUrl:          tmdb.DefaultBaseURL,
		ApiKey:           "",
		Language:         DefaultLanguage,
		CacheTTL:         cache.DefaultTTL,
		CacheMaxCost:     cache.DefaultMaxCost,
		DbImplementation: commons.DbImplementationSqlite,
		SqliteFile:       "",
		PostgresUrl:      "",
		JanitorInterval:  cache.DefaultJanitorInterval,
		StaticDir:        "",
		Timeout:          HttpTimeout,
	}
}

// Create the moviegraph supervisor.
func NewSupervisor(opts MovieGraphOpts) (supervisor.SupervisorWorker, error) {
	var w supervisor.SupervisorWorker
	w.Name = "moviegraph"

	if opts.ApiKey == "" {
		return w, tmdb.ErrMissingAPIKey
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = HttpTimeout
	}

	clientOpts := []tmdb.Option{
		tmdb.WithBaseURL(opts.TmdbUrl),
		tmdb.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	responseCache, janitor, err := newCache(opts)
	if err != nil {
		return w, err
	}
	if responseCache != nil {
		clientOpts = append(clientOpts, tmdb.WithCache(responseCache))
	}
	client := tmdb.NewClient(opts.ApiKey, clientOpts...)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		ErrorMessage: "Request timed out",
		Timeout:      timeout,
	}))
	if err := graph.Register(e, client, opts.Language); err != nil {
		return w, err
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if opts.StaticDir != "" {
		e.Static("/static", opts.StaticDir)
	}

	if janitor != nil {
		w.Workers = append(w.Workers, *janitor)
	}
	w.Workers = append(w.Workers, supervisor.HttpWorker{
		Address: fmt.Sprintf("%v:%v", opts.HttpAddress, opts.HttpPort),
		Handler: e,
	})
	slog.Info("moviegraph: configured",
		"port", opts.HttpPort,
		"tmdb", client.BaseURL(),
		"cache", opts.DbImplementation,
		"cacheTTL", opts.CacheTTL,
	)
	return w, nil
}

// newCache builds the response cache tiers. The janitor is nil when there is
// no persistent tier.
func newCache(opts MovieGraphOpts) (tmdb.Cache, *cache.JanitorWorker, error) {
	if opts.CacheTTL <= 0 {
		return nil, nil, nil
	}
	memory, err := cache.NewMemory(opts.CacheTTL, opts.CacheMaxCost)
	if err != nil {
		return nil, nil, err
	}

	var source string
	switch opts.DbImplementation {
	case commons.DbImplementationNone:
		return memory, nil, nil
	case commons.DbImplementationSqlite:
		source = opts.SqliteFile
		if source == "" {
			source = ":memory:"
		}
	case commons.DbImplementationPostgres:
		source = opts.PostgresUrl
		if source == "" {
			return nil, nil, errors.New("moviegraph: postgres url is required")
		}
	default:
		return nil, nil, fmt.Errorf("moviegraph: unknown db implementation %q", opts.DbImplementation)
	}

	db, err := commons.OpenDB(opts.DbImplementation, source)
	if err != nil {
		return nil, nil, err
	}
	responses := &repository.ResponseRepository{Db: db}
	if err := responses.CreateTables(); err != nil {
		return nil, nil, err
	}
	janitor := &cache.JanitorWorker{
		Repository: responses,
		Interval:   opts.JanitorInterval,
	}
	return cache.NewTiered(memory, cache.NewSQL(responses, opts.CacheTTL)), janitor, nil
}
