// Copyright (c) Gabriel de Quadros Ligneul
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// This package contains typed queries against the moviegraph GraphQL API.
// These are the queries issued by the web client when rendering its pages.
package graphclient

import (
	"context"
	"fmt"

	"github.com/Khan/genqlient/graphql"
)

const NowPlayingQuery = `query NowPlaying($page: Int, $language: String) {
	newMovies(page: $page, language: $language) {
		id
		poster_path
		title
	}
}`

const MovieDetailsQuery = `query MovieDetails($id: String, $language: String) {
	movieInfo(id: $id, language: $language) {
		id
		title
		overview
		poster_path
		genres
		release_date
		vote_average
		production_companies
		runtime
		videos {
			id
			key
			url
		}
		movieReviews {
			id
			author
			content
		}
		movieCredits {
			id
			name
			character
			profile_path
			order
		}
	}
}`

const SearchMoviesQuery = `query SearchMovies($query: String!, $page: Int, $language: String) {
	searchMovies(query: $query, page: $page, language: $language) {
		id
		poster_path
		title
	}
}`

type NewMovie struct {
	ID         *int    `json:"id"`
	PosterPath *string `json:"poster_path"`
	Title      *string `json:"title"`
}

type Video struct {
	ID  *string `json:"id"`
	Key *string `json:"key"`
	URL *string `json:"url"`
}

type Review struct {
	ID      *string `json:"id"`
	Author  *string `json:"author"`
	Content *string `json:"content"`
}

type Credit struct {
	ID          *string `json:"id"`
	Name        *string `json:"name"`
	Character   *string `json:"character"`
	ProfilePath *string `json:"profile_path"`
	Order       *string `json:"order"`
}

type MovieInfo struct {
	ID                  *string   `json:"id"`
	Title               *string   `json:"title"`
	Overview            *string   `json:"overview"`
	PosterPath          *string   `json:"poster_path"`
	Genres              *string   `json:"genres"`
	ReleaseDate         *string   `json:"release_date"`
	VoteAverage         *string   `json:"vote_average"`
	ProductionCompanies *string   `json:"production_companies"`
	Runtime             *string   `json:"runtime"`
	Videos              []*Video  `json:"videos"`
	MovieReviews        []*Review `json:"movieReviews"`
	MovieCredits        []*Credit `json:"movieCredits"`
}

type NowPlayingResponse struct {
	NewMovies []*NewMovie `json:"newMovies"`
}

type MovieDetailsResponse struct {
	MovieInfo *MovieInfo `json:"movieInfo"`
}

type SearchMoviesResponse struct {
	SearchMovies []*NewMovie `json:"searchMovies"`
}

type nowPlayingVariables struct {
	Page     *int    `json:"page,omitempty"`
	Language *string `json:"language,omitempty"`
}

type movieDetailsVariables struct {
	ID       string  `json:"id"`
	Language *string `json:"language,omitempty"`
}

type searchMoviesVariables struct {
	Query    string  `json:"query"`
	Page     *int    `json:"page,omitempty"`
	Language *string `json:"language,omitempty"`
}

func NowPlaying(
	ctx context.Context,
	client graphql.Client,
	page *int,
	language *string,
) (*NowPlayingResponse, error) {
	req := &graphql.Request{
		OpName:    "NowPlaying",
		Query:     NowPlayingQuery,
		Variables: &nowPlayingVariables{Page: page, Language: language},
	}
	var data NowPlayingResponse
	if err := execute(ctx, client, req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func MovieDetails(
	ctx context.Context,
	client graphql.Client,
	id string,
	language *string,
) (*MovieDetailsResponse, error) {
	req := &graphql.Request{
		OpName:    "MovieDetails",
		Query:     MovieDetailsQuery,
		Variables: &movieDetailsVariables{ID: id, Language: language},
	}
	var data MovieDetailsResponse
	if err := execute(ctx, client, req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func SearchMovies(
	ctx context.Context,
	client graphql.Client,
	query string,
	page *int,
	language *string,
) (*SearchMoviesResponse, error) {
	req := &graphql.Request{
		OpName:    "SearchMovies",
		Query:     SearchMoviesQuery,
		Variables: &searchMoviesVariables{Query: query, Page: page, Language: language},
	}
	var data SearchMoviesResponse
	if err := execute(ctx, client, req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func execute(ctx context.Context, client graphql.Client, req *graphql.Request, data any) error {
	resp := &graphql.Response{Data: data}
	if err := client.MakeRequest(ctx, req, resp); err != nil {
		return fmt.Errorf("graphclient: %s: %w", req.OpName, err)
	}
	return nil
}
