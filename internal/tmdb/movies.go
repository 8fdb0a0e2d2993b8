package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// NowPlaying lists the movies currently in theatres.
func (c *Client) NowPlaying(ctx context.Context, params NowPlayingParams) (*MovieList, error) {
	var list MovieList
	if err := c.GetJSON(ctx, "/movie/now_playing", params, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// SearchMovies searches movies by title.
func (c *Client) SearchMovies(ctx context.Context, params SearchParams) (*MovieList, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, fmt.Errorf("tmdb: search: empty query")
	}
	var list MovieList
	if err := c.GetJSON(ctx, "/search/movie", params, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) Movie(ctx context.Context, id string, params LanguageParams) (*Movie, error) {
	path, err := moviePath(id, "")
	if err != nil {
		return nil, err
	}
	var movie Movie
	if err := c.GetJSON(ctx, path, params, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (c *Client) Videos(ctx context.Context, id string) (*VideoList, error) {
	path, err := moviePath(id, "/videos")
	if err != nil {
		return nil, err
	}
	var list VideoList
	if err := c.GetJSON(ctx, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) Reviews(ctx context.Context, id string) (*ReviewList, error) {
	path, err := moviePath(id, "/reviews")
	if err != nil {
		return nil, err
	}
	var list ReviewList
	if err := c.GetJSON(ctx, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) Credits(ctx context.Context, id string) (*Credits, error) {
	path, err := moviePath(id, "/credits")
	if err != nil {
		return nil, err
	}
	var credits Credits
	if err := c.GetJSON(ctx, path, nil, &credits); err != nil {
		return nil, err
	}
	return &credits, nil
}

func moviePath(id string, suffix string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("tmdb: empty movie id")
	}
	return "/movie/" + url.PathEscape(id) + suffix, nil
}
