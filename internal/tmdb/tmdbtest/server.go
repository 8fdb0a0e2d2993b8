// Package tmdbtest serves canned movie database responses for tests.
package tmdbtest

import (
	"net/http"
	"net/http/httptest"
	"sync"
)

const ApiKey = "tmdbtest-key"

const nowPlaying = `{
	"page": 1,
	"results": [
		{"id": 550, "title": "Fight Club", "poster_path": "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg", "vote_average": 8.4},
		{"id": 13, "title": "Forrest Gump", "poster_path": null, "vote_average": 8.5}
	],
	"total_pages": 1,
	"total_results": 2
}`

const search = `{
	"page": 1,
	"results": [
		{"id": 348, "title": "Alien", "poster_path": "/vfrQk5IPloGg1v9Rzbh2Eg3VGyM.jpg"}
	],
	"total_pages": 1,
	"total_results": 1
}`

const movie = `{
	"id": 550,
	"title": "Fight Club",
	"overview": "A ticking-time-bomb insomniac and a slippery soap salesman channel primal male aggression into a shocking new form of therapy.",
	"poster_path": "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg",
	"release_date": "1999-10-15",
	"vote_average": 8.433,
	"runtime": 139,
	"genres": [{"id": 18, "name": "Drama"}, {"id": 53, "name": "Thriller"}],
	"production_companies": [
		{"id": 508, "name": "Regency Enterprises", "logo_path": null, "origin_country": "US"},
		{"id": 711, "name": "Fox 2000 Pictures", "logo_path": null, "origin_country": "US"}
	]
}`

const videos = `{
	"id": 550,
	"results": [
		{"id": "639d5326be6d88007f170f44", "key": "O-b2VfmmbyA", "name": "Fight Club | #TBT Trailer", "site": "YouTube", "type": "Trailer"}
	]
}`

const reviews = `{
	"id": 550,
	"page": 1,
	"results": [
		{"id": "5b1c13b9c3a36848f2026384", "author": "Goddard", "content": "Pretty awesome movie.  It shows what one crazy person can convince other crazy people to do.", "url": "https://www.themoviedb.org/review/5b1c13b9c3a36848f2026384"}
	],
	"total_pages": 1,
	"total_results": 1
}`

const credits = `{
	"id": 550,
	"cast": [
		{"id": 819, "cast_id": 4, "character": "The Narrator", "name": "Edward Norton", "profile_path": "/8nytsqL59SFJTVYVrN72k6qkGgJ.jpg", "order": 0},
		{"id": 7499, "cast_id": 20, "character": "Extra", "name": "Nobody", "profile_path": null, "order": 1},
		{"id": 287, "cast_id": 5, "character": "Tyler Durden", "name": "Brad Pitt", "profile_path": "/cckcYc2v0yh1tc9QjRelptcOBko.jpg", "order": 2}
	],
	"crew": []
}`

const notFound = `{"success": false, "status_code": 34, "status_message": "The resource you requested could not be found."}`

const invalidKey = `{"success": false, "status_code": 7, "status_message": "Invalid API key: You must be granted a valid key."}`

// Server is a fake movie database counting the requests per path.
type Server struct {
	*httptest.Server
	mu     sync.Mutex
	counts map[string]int
}

func NewServer() *Server {
	s := &Server{counts: map[string]int{}}
	routes := map[string]string{
		"/movie/now_playing": nowPlaying,
		"/search/movie":      search,
		"/movie/550":         movie,
		"/movie/550/videos":  videos,
		"/movie/550/reviews": reviews,
		"/movie/550/credits": credits,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.counts[r.URL.Path]++
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json;charset=utf-8")
		if r.URL.Query().Get("api_key") != ApiKey {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(invalidKey))
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(notFound))
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	return s
}

// Count returns how many requests were received for the path.
func (s *Server) Count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[path]
}
