package graph

import (
	"strconv"
	"strings"

	"github.com/calindra/moviegraph/internal/tmdb"
)

const (
	TrailerBaseURL = "https://www.youtube.com/embed/"
	PosterBaseURL  = "https://image.tmdb.org/t/p/w500"
)

func TrailerURL(key string) string {
	return TrailerBaseURL + key
}

// PosterURL returns nil when the movie has no poster.
func PosterURL(path *string) *string {
	if path == nil || *path == "" {
		return nil
	}
	url := PosterBaseURL + *path
	return &url
}

func JoinGenres(genres []tmdb.Genre) string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Name)
	}
	return strings.Join(names, ", ")
}

func JoinCompanies(companies []tmdb.ProductionCompany) string {
	names := make([]string, 0, len(companies))
	for _, c := range companies {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

func FormatRuntime(minutes *int) *string {
	if minutes == nil {
		return nil
	}
	runtime := strconv.Itoa(*minutes) + " min."
	return &runtime
}

func FormatVoteAverage(vote float64) string {
	return strconv.FormatFloat(vote, 'f', -1, 64)
}

// CastWithProfile keeps the cast members that have a profile picture.
func CastWithProfile(cast []tmdb.CastMember) []tmdb.CastMember {
	filtered := make([]tmdb.CastMember, 0, len(cast))
	for _, member := range cast {
		if member.ProfilePath != nil && *member.ProfilePath != "" {
			filtered = append(filtered, member)
		}
	}
	return filtered
}
