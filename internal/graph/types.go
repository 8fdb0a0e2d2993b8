package graph

import (
	"context"
	"strconv"

	"github.com/calindra/moviegraph/internal/tmdb"
)

type newMoviesResolver struct {
	movie tmdb.MovieSummary
}

func (m *newMoviesResolver) ID() *int32 {
	id := int32(m.movie.ID)
	return &id
}

func (m *newMoviesResolver) PosterPath() *string {
	return PosterURL(m.movie.PosterPath)
}

func (m *newMoviesResolver) Title() *string {
	return &m.movie.Title
}

type videoResolver struct {
	video tmdb.Video
}

func (v *videoResolver) ID() *string {
	return &v.video.ID
}

func (v *videoResolver) Key() *string {
	return &v.video.Key
}

func (v *videoResolver) URL() *string {
	url := TrailerURL(v.video.Key)
	return &url
}

type movieReviewsResolver struct {
	review tmdb.Review
}

func (r *movieReviewsResolver) ID() *string {
	return &r.review.ID
}

func (r *movieReviewsResolver) Content() *string {
	return &r.review.Content
}

func (r *movieReviewsResolver) Author() *string {
	return &r.review.Author
}

type movieCreditsResolver struct {
	member tmdb.CastMember
}

func (c *movieCreditsResolver) ID() *string {
	id := strconv.Itoa(c.member.ID)
	return &id
}

func (c *movieCreditsResolver) Character() *string {
	return &c.member.Character
}

func (c *movieCreditsResolver) Name() *string {
	return &c.member.Name
}

func (c *movieCreditsResolver) ProfilePath() *string {
	return c.member.ProfilePath
}

func (c *movieCreditsResolver) Order() *string {
	order := strconv.Itoa(c.member.Order)
	return &order
}

// movieInfoResolver reshapes the movie details.
type movieInfoResolver struct {
	root  *Resolver
	id    string
	movie *tmdb.Movie
}

// Nested lists are fetched for the id answered by the movie database.
func (m *movieInfoResolver) parentID() string {
	if m.movie.ID == 0 {
		return m.id
	}
	return strconv.Itoa(m.movie.ID)
}

func (m *movieInfoResolver) ID() *string {
	id := strconv.Itoa(m.movie.ID)
	return &id
}

func (m *movieInfoResolver) Overview() *string {
	return &m.movie.Overview
}

func (m *movieInfoResolver) Title() *string {
	return &m.movie.Title
}

func (m *movieInfoResolver) PosterPath() *string {
	return m.movie.PosterPath
}

func (m *movieInfoResolver) Genres() *string {
	genres := JoinGenres(m.movie.Genres)
	return &genres
}

func (m *movieInfoResolver) ReleaseDate() *string {
	return &m.movie.ReleaseDate
}

func (m *movieInfoResolver) VoteAverage() *string {
	vote := FormatVoteAverage(m.movie.VoteAverage)
	return &vote
}

func (m *movieInfoResolver) ProductionCompanies() *string {
	companies := JoinCompanies(m.movie.ProductionCompanies)
	return &companies
}

func (m *movieInfoResolver) Runtime() *string {
	return FormatRuntime(m.movie.Runtime)
}

// The id argument is accepted for compatibility and ignored.
func (m *movieInfoResolver) Videos(ctx context.Context, _ idArgs) (*[]*videoResolver, error) {
	return m.root.videos(ctx, m.parentID())
}

func (m *movieInfoResolver) MovieReviews(ctx context.Context, _ idArgs) (*[]*movieReviewsResolver, error) {
	return m.root.reviews(ctx, m.parentID())
}

func (m *movieInfoResolver) MovieCredits(ctx context.Context, _ idArgs) (*[]*movieCreditsResolver, error) {
	return m.root.credits(ctx, m.parentID())
}
