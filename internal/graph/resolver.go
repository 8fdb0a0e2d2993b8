package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/calindra/moviegraph/internal/loaders"
	"github.com/calindra/moviegraph/internal/tmdb"
)

var ErrMissingID = errors.New("id is required")

// MovieDatabase is the upstream API used by the resolvers.
type MovieDatabase interface {
	loaders.MovieSource
	NowPlaying(ctx context.Context, params tmdb.NowPlayingParams) (*tmdb.MovieList, error)
	SearchMovies(ctx context.Context, params tmdb.SearchParams) (*tmdb.MovieList, error)
}

// Resolver is the root of the query type.
type Resolver struct {
	db       MovieDatabase
	language string
}

func NewResolver(db MovieDatabase, language string) *Resolver {
	return &Resolver{db: db, language: language}
}

type idArgs struct {
	ID *string
}

type moviesArgs struct {
	Page     *int32
	Language *string
}

type movieInfoArgs struct {
	ID       *string
	Language *string
}

type searchArgs struct {
	Query    string
	Page     *int32
	Language *string
}

func (r *Resolver) Videos(ctx context.Context, args idArgs) (*[]*videoResolver, error) {
	id, err := requireID(args.ID)
	if err != nil {
		return nil, err
	}
	return r.videos(ctx, id)
}

func (r *Resolver) NewMovies(ctx context.Context, args moviesArgs) (*[]*newMoviesResolver, error) {
	page, err := pageNumber(args.Page)
	if err != nil {
		return nil, err
	}
	list, err := r.db.NowPlaying(ctx, tmdb.NowPlayingParams{
		Language: r.languageOr(args.Language),
		Page:     page,
	})
	if err != nil {
		return nil, err
	}
	return newMovieList(list), nil
}

func (r *Resolver) SearchMovies(ctx context.Context, args searchArgs) (*[]*newMoviesResolver, error) {
	if strings.TrimSpace(args.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	page, err := pageNumber(args.Page)
	if err != nil {
		return nil, err
	}
	list, err := r.db.SearchMovies(ctx, tmdb.SearchParams{
		Query:        args.Query,
		Language:     r.languageOr(args.Language),
		Page:         page,
		IncludeAdult: false,
	})
	if err != nil {
		return nil, err
	}
	return newMovieList(list), nil
}

func (r *Resolver) MovieInfo(ctx context.Context, args movieInfoArgs) (*movieInfoResolver, error) {
	id, err := requireID(args.ID)
	if err != nil {
		return nil, err
	}
	movie, err := r.loaders(ctx).GetMovie(ctx, id, r.languageOr(args.Language))
	if err != nil {
		return nil, err
	}
	return &movieInfoResolver{root: r, id: id, movie: movie}, nil
}

func (r *Resolver) videos(ctx context.Context, id string) (*[]*videoResolver, error) {
	videos, err := r.loaders(ctx).GetVideos(ctx, id)
	if err != nil {
		return nil, err
	}
	resolvers := make([]*videoResolver, 0, len(videos))
	for _, v := range videos {
		resolvers = append(resolvers, &videoResolver{video: v})
	}
	return &resolvers, nil
}

func (r *Resolver) reviews(ctx context.Context, id string) (*[]*movieReviewsResolver, error) {
	reviews, err := r.loaders(ctx).GetReviews(ctx, id)
	if err != nil {
		return nil, err
	}
	resolvers := make([]*movieReviewsResolver, 0, len(reviews))
	for _, review := range reviews {
		resolvers = append(resolvers, &movieReviewsResolver{review: review})
	}
	return &resolvers, nil
}

func (r *Resolver) credits(ctx context.Context, id string) (*[]*movieCreditsResolver, error) {
	credits, err := r.loaders(ctx).GetCredits(ctx, id)
	if err != nil {
		return nil, err
	}
	cast := CastWithProfile(credits.Cast)
	resolvers := make([]*movieCreditsResolver, 0, len(cast))
	for _, member := range cast {
		resolvers = append(resolvers, &movieCreditsResolver{member: member})
	}
	return &resolvers, nil
}

// Loaders come from the http middleware. Direct executions of the schema
// get a set scoped to the call.
func (r *Resolver) loaders(ctx context.Context) *loaders.Loaders {
	if l := loaders.For(ctx); l != nil {
		return l
	}
	return loaders.NewLoaders(r.db)
}

func (r *Resolver) languageOr(language *string) string {
	if language != nil {
		return *language
	}
	return r.language
}

func requireID(id *string) (string, error) {
	if id == nil || strings.TrimSpace(*id) == "" {
		return "", ErrMissingID
	}
	return strings.TrimSpace(*id), nil
}

// The movie database serves pages 1 to 500.
func pageNumber(page *int32) (int, error) {
	if page == nil {
		return 0, nil
	}
	if *page < 1 || *page > 500 {
		return 0, fmt.Errorf("page must be between 1 and 500, got %d", *page)
	}
	return int(*page), nil
}

func newMovieList(list *tmdb.MovieList) *[]*newMoviesResolver {
	resolvers := make([]*newMoviesResolver, 0, len(list.Results))
	for _, movie := range list.Results {
		resolvers = append(resolvers, &newMoviesResolver{movie: movie})
	}
	return &resolvers
}
