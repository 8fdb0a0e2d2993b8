// Copyright (c) Gabriel de Quadros Ligneul
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

package moviegraph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Khan/genqlient/graphql"
	"github.com/calindra/moviegraph/internal/commons"
	"github.com/calindra/moviegraph/internal/graphclient"
	"github.com/calindra/moviegraph/internal/tmdb"
	"github.com/calindra/moviegraph/internal/tmdb/tmdbtest"
	"github.com/stretchr/testify/suite"
)

const testTimeout = 10 * time.Second

type MovieGraphSuite struct {
	suite.Suite
	ctx           context.Context
	timeoutCancel context.CancelFunc
	workerCancel  context.CancelFunc
	workerResult  chan error
	upstream      *tmdbtest.Server
	baseUrl       string
	graphqlClient graphql.Client
}

func TestMovieGraphSuite(t *testing.T) {
	suite.Run(t, new(MovieGraphSuite))
}

//
// Test Cases
//

func (s *MovieGraphSuite) TestNowPlayingIsCached() {
	s.setupTest(s.newOpts())

	for i := 0; i < 2; i++ {
		resp, err := graphclient.NowPlaying(s.ctx, s.graphqlClient, nil, nil)
		s.Require().NoError(err)
		s.Require().Len(resp.NewMovies, 2)
		s.Equal("Fight Club", *resp.NewMovies[0].Title)
	}
	s.Equal(1, s.upstream.Count("/movie/now_playing"))
}

func (s *MovieGraphSuite) TestCacheDisabled() {
	opts := s.newOpts()
	opts.CacheTTL = 0
	s.setupTest(opts)

	for i := 0; i < 2; i++ {
		_, err := graphclient.NowPlaying(s.ctx, s.graphqlClient, nil, nil)
		s.Require().NoError(err)
	}
	s.Equal(2, s.upstream.Count("/movie/now_playing"))
}

func (s *MovieGraphSuite) TestMovieDetailsWithSqliteFile() {
	opts := s.newOpts()
	opts.SqliteFile = filepath.Join(s.T().TempDir(), "cache.sqlite3")
	s.setupTest(opts)

	resp, err := graphclient.MovieDetails(s.ctx, s.graphqlClient, "550", nil)
	s.Require().NoError(err)
	s.Require().NotNil(resp.MovieInfo)
	s.Equal("139 min.", *resp.MovieInfo.Runtime)
	s.Equal("Drama, Thriller", *resp.MovieInfo.Genres)
	s.FileExists(opts.SqliteFile)
}

func (s *MovieGraphSuite) TestHealthAndMetrics() {
	s.setupTest(s.newOpts())
	_, err := graphclient.NowPlaying(s.ctx, s.graphqlClient, nil, nil)
	s.Require().NoError(err)

	status, body := s.get("/healthz")
	s.Equal(http.StatusOK, status)
	s.Equal("ok", body)

	status, body = s.get("/metrics")
	s.Equal(http.StatusOK, status)
	s.Contains(body, "moviegraph_tmdb_requests_total")
	s.Contains(body, "moviegraph_cache_lookups_total")
}

func (s *MovieGraphSuite) TestStaticDir() {
	opts := s.newOpts()
	opts.StaticDir = s.T().TempDir()
	err := os.WriteFile(filepath.Join(opts.StaticDir, "bundle.js"), []byte("console.log(1)"), 0o600)
	s.Require().NoError(err)
	s.setupTest(opts)

	status, body := s.get("/static/bundle.js")
	s.Equal(http.StatusOK, status)
	s.Equal("console.log(1)", body)
}

func (s *MovieGraphSuite) TestInvalidOptions() {
	opts := NewMovieGraphOpts()
	_, err := NewSupervisor(opts)
	s.ErrorIs(err, tmdb.ErrMissingAPIKey)

	opts.ApiKey = tmdbtest.ApiKey
	opts.DbImplementation = "mongodb"
	_, err = NewSupervisor(opts)
	s.ErrorContains(err, "unknown db implementation")

	opts.DbImplementation = commons.DbImplementationPostgres
	_, err = NewSupervisor(opts)
	s.ErrorContains(err, "postgres url is required")
}

//
// Setup and tear down
//

func (s *MovieGraphSuite) newOpts() MovieGraphOpts {
	opts := NewMovieGraphOpts()
	opts.TmdbUrl = s.upstream.URL
	opts.ApiKey = tmdbtest.ApiKey
	return opts
}

func (s *MovieGraphSuite) SetupTest() {
	commons.ConfigureLog(slog.LevelDebug)
	s.upstream = tmdbtest.NewServer()
}

// Start the supervisor with the given options.
// Each test must call it explicitly after adjusting the options.
func (s *MovieGraphSuite) setupTest(opts MovieGraphOpts) {
	port, err := commons.FreePort()
	s.Require().NoError(err)
	opts.HttpPort = port
	s.baseUrl = fmt.Sprintf("http://127.0.0.1:%v", port)

	s.ctx, s.timeoutCancel = context.WithTimeout(context.Background(), testTimeout)
	s.workerResult = make(chan error, 1)

	var workerCtx context.Context
	workerCtx, s.workerCancel = context.WithCancel(s.ctx)

	w, err := NewSupervisor(opts)
	s.Require().NoError(err)

	ready := make(chan struct{}, 1)
	go func() {
		s.workerResult <- w.Start(workerCtx, ready)
	}()
	select {
	case <-s.ctx.Done():
		s.FailNow("context error", s.ctx.Err())
	case err := <-s.workerResult:
		s.FailNow("worker exited before being ready", err)
	case <-ready:
		s.T().Log("moviegraph ready")
	}
	s.graphqlClient = graphql.NewClient(s.baseUrl+"/graphql", nil)
}

func (s *MovieGraphSuite) TearDownTest() {
	if s.workerCancel != nil {
		s.workerCancel()
		select {
		case <-s.ctx.Done():
			s.Fail("context error", s.ctx.Err())
		case err := <-s.workerResult:
			s.ErrorIs(err, context.Canceled)
		}
		s.timeoutCancel()
		s.workerCancel = nil
	}
	s.upstream.Close()
}

func (s *MovieGraphSuite) get(path string) (int, string) {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodGet, s.baseUrl+path, nil)
	s.Require().NoError(err)
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, string(body)
}
