package loaders

import (
	"context"
	"net/http"
	"time"

	"github.com/calindra/moviegraph/internal/tmdb"
	"github.com/vikstrous/dataloadgen"
	"golang.org/x/sync/errgroup"
)

type ctxKey string

const (
	LoadersKey = ctxKey("dataLoaders")

	// upper bound of concurrent upstream requests issued by one batch
	maxConcurrentFetches = 8
)

// MovieSource is the part of the movie database used by the loaders.
type MovieSource interface {
	Movie(ctx context.Context, id string, params tmdb.LanguageParams) (*tmdb.Movie, error)
	Videos(ctx context.Context, id string) (*tmdb.VideoList, error)
	Reviews(ctx context.Context, id string) (*tmdb.ReviewList, error)
	Credits(ctx context.Context, id string) (*tmdb.Credits, error)
}

// movieReader reads movie resources from the movie database
type movieReader struct {
	source MovieSource
}

// movieKey identifies movie details in a given language.
type movieKey struct {
	ID       string
	Language string
}

// getMovies implements a batch function that retrieves movie details.
func (m *movieReader) getMovies(ctx context.Context, keys []movieKey) ([]*tmdb.Movie, []error) {
	return fetchAll(ctx, keys, func(ctx context.Context, key movieKey) (*tmdb.Movie, error) {
		return m.source.Movie(ctx, key.ID, tmdb.LanguageParams{Language: key.Language})
	})
}

func (m *movieReader) getVideos(ctx context.Context, ids []string) ([][]tmdb.Video, []error) {
	return fetchAll(ctx, ids, func(ctx context.Context, id string) ([]tmdb.Video, error) {
		list, err := m.source.Videos(ctx, id)
		if err != nil {
			return nil, err
		}
		return list.Results, nil
	})
}

func (m *movieReader) getReviews(ctx context.Context, ids []string) ([][]tmdb.Review, []error) {
	return fetchAll(ctx, ids, func(ctx context.Context, id string) ([]tmdb.Review, error) {
		list, err := m.source.Reviews(ctx, id)
		if err != nil {
			return nil, err
		}
		return list.Results, nil
	})
}

func (m *movieReader) getCredits(ctx context.Context, ids []string) ([]*tmdb.Credits, []error) {
	return fetchAll(ctx, ids, m.source.Credits)
}

// Fetch every key concurrently. One failing key does not cancel the others.
func fetchAll[K comparable, V any](
	ctx context.Context,
	keys []K,
	fetch func(ctx context.Context, key K) (V, error),
) ([]V, []error) {
	values := make([]V, len(keys))
	errs := make([]error, len(keys))
	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			values[i], errs[i] = fetch(ctx, key)
			return nil
		})
	}
	_ = g.Wait()
	return values, errs
}

// Loaders wrap your data loaders to inject via middleware
type Loaders struct {
	MovieLoader  *dataloadgen.Loader[movieKey, *tmdb.Movie]
	VideoLoader  *dataloadgen.Loader[string, []tmdb.Video]
	ReviewLoader *dataloadgen.Loader[string, []tmdb.Review]
	CreditLoader *dataloadgen.Loader[string, *tmdb.Credits]
}

// NewLoaders instantiates data loaders for the middleware
func NewLoaders(source MovieSource) *Loaders {
	mr := &movieReader{source: source}
	return &Loaders{
		MovieLoader:  dataloadgen.NewLoader(mr.getMovies, dataloadgen.WithWait(time.Millisecond)),
		VideoLoader:  dataloadgen.NewLoader(mr.getVideos, dataloadgen.WithWait(time.Millisecond)),
		ReviewLoader: dataloadgen.NewLoader(mr.getReviews, dataloadgen.WithWait(time.Millisecond)),
		CreditLoader: dataloadgen.NewLoader(mr.getCredits, dataloadgen.WithWait(time.Millisecond)),
	}
}

// Middleware injects data loaders into the context
func Middleware(source MovieSource, next http.Handler) http.Handler {
	// return a middleware that injects the loader to the request context
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loader := NewLoaders(source)
		r = r.WithContext(context.WithValue(r.Context(), LoadersKey, loader))
		next.ServeHTTP(w, r)
	})
}

// For returns the dataloader for a given context
func For(ctx context.Context) *Loaders {
	aux := ctx.Value(LoadersKey)
	if aux == nil {
		return nil
	}
	return aux.(*Loaders)
}

// GetMovie returns the movie details, sharing the request with every
// resolver of the same operation asking for the same movie.
func (l *Loaders) GetMovie(ctx context.Context, id string, language string) (*tmdb.Movie, error) {
	return l.MovieLoader.Load(ctx, movieKey{ID: id, Language: language})
}

func (l *Loaders) GetVideos(ctx context.Context, id string) ([]tmdb.Video, error) {
	return l.VideoLoader.Load(ctx, id)
}

func (l *Loaders) GetReviews(ctx context.Context, id string) ([]tmdb.Review, error) {
	return l.ReviewLoader.Load(ctx, id)
}

func (l *Loaders) GetCredits(ctx context.Context, id string) (*tmdb.Credits, error) {
	return l.CreditLoader.Load(ctx, id)
}
