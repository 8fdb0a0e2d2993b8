package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/calindra/moviegraph/internal/commons"
	"github.com/calindra/moviegraph/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.data[key] = value
}

type expiringFakeCache struct {
	*fakeCache
	expiries map[string]time.Time
}

func newExpiringFakeCache() *expiringFakeCache {
	return &expiringFakeCache{fakeCache: newFakeCache(), expiries: map[string]time.Time{}}
}

func (f *expiringFakeCache) GetWithExpiry(ctx context.Context, key string) ([]byte, time.Time, bool) {
	value, ok := f.Get(ctx, key)
	return value, f.expiries[key], ok
}

func (f *expiringFakeCache) SetUntil(ctx context.Context, key string, value []byte, expiresAt time.Time) {
	f.Set(ctx, key, value)
	f.expiries[key] = expiresAt
}

func TestMemorySetGet(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemory(time.Minute, 1<<20)
	require.NoError(t, err)
	defer m.Close()

	_, ok := m.Get(ctx, "/movie/1")
	assert.False(t, ok)

	m.Set(ctx, "/movie/1", []byte(`{"id":1}`))
	m.Wait()
	value, ok := m.Get(ctx, "/movie/1")
	require.True(t, ok)
	assert.Equal(t, `{"id":1}`, string(value))
}

func TestMemoryExpires(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemory(50*time.Millisecond, 1<<20)
	require.NoError(t, err)
	defer m.Close()

	m.Set(ctx, "/movie/1", []byte(`{}`))
	m.Wait()
	time.Sleep(200 * time.Millisecond)
	_, ok := m.Get(ctx, "/movie/1")
	assert.False(t, ok)
}

func TestMemorySetUntil(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemory(time.Minute, 1<<20)
	require.NoError(t, err)
	defer m.Close()

	m.SetUntil(ctx, "/movie/1", []byte(`{}`), time.Now().Add(-time.Second))
	m.SetUntil(ctx, "/movie/2", []byte(`{}`), time.Now().Add(time.Hour))
	m.Wait()
	_, _, ok := m.GetWithExpiry(ctx, "/movie/1")
	assert.False(t, ok)
	_, expiresAt, ok := m.GetWithExpiry(ctx, "/movie/2")
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)
}

func TestTieredBackfillsFasterTiers(t *testing.T) {
	ctx := context.Background()
	fast := newFakeCache()
	slow := newFakeCache()
	slow.data["/movie/1"] = []byte("slow")
	tiered := NewTiered(fast, slow)

	value, ok := tiered.Get(ctx, "/movie/1")
	require.True(t, ok)
	assert.Equal(t, "slow", string(value))
	assert.Equal(t, "slow", string(fast.data["/movie/1"]))
	assert.Equal(t, 0, slow.sets)

	_, ok = tiered.Get(ctx, "/movie/2")
	assert.False(t, ok)
}

func TestTieredWritesAllTiers(t *testing.T) {
	ctx := context.Background()
	fast := newFakeCache()
	slow := newFakeCache()
	tiered := NewTiered(fast, slow)
	tiered.Set(ctx, "/movie/1", []byte("x"))
	assert.Equal(t, "x", string(fast.data["/movie/1"]))
	assert.Equal(t, "x", string(slow.data["/movie/1"]))
}

type SQLCacheSuite struct {
	suite.Suite
	dbFactory  *commons.DbFactory
	repository *repository.ResponseRepository
	now        time.Time
}

func TestSQLCacheSuite(t *testing.T) {
	suite.Run(t, new(SQLCacheSuite))
}

func (s *SQLCacheSuite) SetupTest() {
	commons.ConfigureLog(slog.LevelDebug)
	s.dbFactory = commons.NewDbFactory()
	s.repository = &repository.ResponseRepository{
		Db: s.dbFactory.CreateDb("cache.sqlite3"),
	}
	s.Require().NoError(s.repository.CreateTables())
	s.now = time.UnixMilli(1_700_000_000_000)
}

func (s *SQLCacheSuite) TearDownTest() {
	s.NoError(s.repository.Db.Close())
	s.dbFactory.Cleanup()
}

func (s *SQLCacheSuite) newCache(ttl time.Duration) *SQL {
	c := NewSQL(s.repository, ttl)
	c.now = func() time.Time { return s.now }
	return c
}

func (s *SQLCacheSuite) TestSetGet() {
	ctx := context.Background()
	c := s.newCache(time.Minute)
	_, ok := c.Get(ctx, "/movie/1/videos")
	s.False(ok)
	c.Set(ctx, "/movie/1/videos", []byte(`{"results":[]}`))
	value, ok := c.Get(ctx, "/movie/1/videos")
	s.True(ok)
	s.Equal(`{"results":[]}`, string(value))
}

func (s *SQLCacheSuite) TestExpired() {
	ctx := context.Background()
	c := s.newCache(time.Minute)
	c.Set(ctx, "/movie/1", []byte(`{}`))
	s.now = s.now.Add(2 * time.Minute)
	_, ok := c.Get(ctx, "/movie/1")
	s.False(ok)
}

func (s *SQLCacheSuite) TestTieredBackfillKeepsExpiry() {
	ctx := context.Background()
	slow := s.newCache(time.Minute)
	slow.Set(ctx, "/movie/1", []byte(`{}`))
	expiresAt := s.now.Add(time.Minute)
	s.now = s.now.Add(40 * time.Second)

	fast := newExpiringFakeCache()
	value, ok := NewTiered(fast, slow).Get(ctx, "/movie/1")
	s.Require().True(ok)
	s.Equal(`{}`, string(value))
	s.Equal(expiresAt.UnixMilli(), fast.expiries["/movie/1"].UnixMilli())
}

func (s *SQLCacheSuite) TestMemoryBackfillExpiresWithSlowerTier() {
	ctx := context.Background()
	slow := NewSQL(s.repository, 200*time.Millisecond)
	memory, err := NewMemory(time.Hour, 1<<20)
	s.Require().NoError(err)
	defer memory.Close()

	slow.Set(ctx, "/movie/1", []byte(`{}`))
	_, ok := NewTiered(memory, slow).Get(ctx, "/movie/1")
	s.Require().True(ok)
	memory.Wait()
	_, ok = memory.Get(ctx, "/movie/1")
	s.True(ok)

	time.Sleep(400 * time.Millisecond)
	_, ok = memory.Get(ctx, "/movie/1")
	s.False(ok)
}

func (s *SQLCacheSuite) TestJanitorPurgesExpiredRows() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := s.repository.Save(ctx, &repository.CachedResponse{
		Key:       "/movie/1",
		Body:      []byte(`{}`),
		CreatedAt: 0,
		ExpiresAt: 1,
	})
	s.Require().NoError(err)
	_, err = s.repository.Save(ctx, &repository.CachedResponse{
		Key:       "/movie/2",
		Body:      []byte(`{}`),
		CreatedAt: 0,
		ExpiresAt: time.Now().Add(time.Hour).UnixMilli(),
	})
	s.Require().NoError(err)

	janitor := JanitorWorker{Repository: s.repository, Interval: 10 * time.Millisecond}
	ready := make(chan struct{}, 1)
	result := make(chan error, 1)
	go func() {
		result <- janitor.Start(ctx, ready)
	}()
	<-ready
	s.Eventually(func() bool {
		count, err := s.repository.Count(ctx)
		return err == nil && count == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	err = <-result
	s.True(errors.Is(err, context.Canceled))
}
