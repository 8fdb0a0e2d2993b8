package tmdb

// Movie summary as returned by list endpoints (now playing, search).
type MovieSummary struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	PosterPath  *string  `json:"poster_path"`
	Overview    string   `json:"overview"`
	ReleaseDate string   `json:"release_date"`
	VoteAverage float64  `json:"vote_average"`
	GenreIDs    []int    `json:"genre_ids"`
	Adult       bool     `json:"adult"`
	Popularity  *float64 `json:"popularity"`
}

type MovieList struct {
	Page         int            `json:"page"`
	Results      []MovieSummary `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type ProductionCompany struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	LogoPath      *string `json:"logo_path"`
	OriginCountry string  `json:"origin_country"`
}

// Movie details from /movie/{id}.
type Movie struct {
	ID                  int                 `json:"id"`
	Title               string              `json:"title"`
	Overview            string              `json:"overview"`
	PosterPath          *string             `json:"poster_path"`
	ReleaseDate         string              `json:"release_date"`
	VoteAverage         float64             `json:"vote_average"`
	Runtime             *int                `json:"runtime"`
	Genres              []Genre             `json:"genres"`
	ProductionCompanies []ProductionCompany `json:"production_companies"`
}

type Video struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

type VideoList struct {
	ID      int     `json:"id"`
	Results []Video `json:"results"`
}

type Review struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

type ReviewList struct {
	ID           int      `json:"id"`
	Page         int      `json:"page"`
	Results      []Review `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

type CastMember struct {
	ID          int     `json:"id"`
	CastID      int     `json:"cast_id"`
	CreditID    string  `json:"credit_id"`
	Character   string  `json:"character"`
	Name        string  `json:"name"`
	ProfilePath *string `json:"profile_path"`
	Order       int     `json:"order"`
}

type CrewMember struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Job         string  `json:"job"`
	Department  string  `json:"department"`
	ProfilePath *string `json:"profile_path"`
}

type Credits struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// Query parameters for /movie/now_playing.
type NowPlayingParams struct {
	Language string `url:"language,omitempty"`
	Page     int    `url:"page,omitempty"`
	Region   string `url:"region,omitempty"`
}

type LanguageParams struct {
	Language string `url:"language,omitempty"`
}

// Query parameters for /search/movie.
type SearchParams struct {
	Query        string `url:"query"`
	Language     string `url:"language,omitempty"`
	Page         int    `url:"page,omitempty"`
	IncludeAdult bool   `url:"include_adult"`
	Year         int    `url:"year,omitempty"`
}
