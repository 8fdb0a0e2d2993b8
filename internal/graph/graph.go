// Copyright (c) Gabriel de Quadros Ligneul
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// This package is responsible for serving the GraphQL movie API.
package graph

import (
	_ "embed"
	"fmt"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/calindra/moviegraph/internal/loaders"
	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/labstack/echo/v4"
)

//go:embed schema.graphqls
var Schema string

const (
	maxDepth       = 8
	maxParallelism = 20
)

// NewSchema parses the schema and binds it to the resolvers.
func NewSchema(db MovieDatabase, language string) (*graphql.Schema, error) {
	schema, err := graphql.ParseSchema(
		Schema,
		NewResolver(db, language),
		graphql.MaxDepth(maxDepth),
		graphql.MaxParallelism(maxParallelism),
	)
	if err != nil {
		return nil, fmt.Errorf("graph: parse schema: %w", err)
	}
	return schema, nil
}

// Register the GraphQL movie API to echo.
func Register(e *echo.Echo, db MovieDatabase, language string) error {
	schema, err := NewSchema(db, language)
	if err != nil {
		return err
	}
	graphqlHandler := loaders.Middleware(db, &relay.Handler{Schema: schema})
	playgroundHandler := playground.Handler("GraphQL", "/graphql")
	e.POST("/graphql", func(c echo.Context) error {
		graphqlHandler.ServeHTTP(c.Response(), c.Request())
		return nil
	})
	e.GET("/graphql", func(c echo.Context) error {
		playgroundHandler.ServeHTTP(c.Response(), c.Request())
		return nil
	})
	return nil
}
