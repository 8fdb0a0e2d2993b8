// Copyright (c) Gabriel de Quadros Ligneul
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// This package wraps the REST API of themoviedb.org.
package tmdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/calindra/moviegraph/internal/metrics"
	"github.com/google/go-querystring/query"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"
	DefaultTimeout = 10 * time.Second
)

// Cache stores successful GET response bodies.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// Client for the movie database API.
// All requests carry the api key in the query string.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      Cache
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithCache enables response caching. A nil cache disables it.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get sends a GET request to path with the given query parameters.
// params may be nil, an url.Values or a struct with `url` tags.
func (c *Client) Get(ctx context.Context, path string, params any) ([]byte, error) {
	return c.get(ctx, path, params, nil)
}

// GetJSON sends a GET request and decodes the response into out.
// Bodies that fail to decode are never cached.
func (c *Client) GetJSON(ctx context.Context, path string, params any, out any) error {
	_, err := c.get(ctx, path, params, func(body []byte) error {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("tmdb: GET %s: decode response: %w", path, err)
		}
		return nil
	})
	return err
}

// get serves path from the cache or the network. When decode is set, a body
// is only returned and cached after it decodes.
func (c *Client) get(
	ctx context.Context, path string, params any, decode func([]byte) error,
) ([]byte, error) {
	values, err := encodeParams(params)
	if err != nil {
		return nil, fmt.Errorf("tmdb: GET %s: encode params: %w", path, err)
	}
	// the api key is added after computing the key so it never reaches the cache
	key := c.buildURL(path, values)
	if c.cache != nil {
		if body, ok := c.cache.Get(ctx, key); ok {
			if decode == nil || decode(body) == nil {
				metrics.CacheLookups.WithLabelValues("hit").Inc()
				slog.Debug("tmdb: cache hit", "path", path)
				return body, nil
			}
			slog.Warn("tmdb: ignoring undecodable cached response", "path", path)
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}
	body, err := c.do(ctx, http.MethodGet, path, values, nil)
	if err != nil {
		return nil, err
	}
	if decode != nil {
		if err := decode(body); err != nil {
			return nil, err
		}
	}
	if c.cache != nil {
		c.cache.Set(ctx, key, body)
	}
	return body, nil
}

func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, url.Values{}, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPut, path, url.Values{}, body)
}

func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodDelete, path, url.Values{}, nil)
}

func (c *Client) do(
	ctx context.Context, method string, path string, values url.Values, payload any,
) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	withKey := url.Values{}
	for k, v := range values {
		withKey[k] = v
	}
	withKey.Set("api_key", c.apiKey)

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("tmdb: %s %s: encode body: %w", method, path, err)
		}
		reqBody = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path, withKey), reqBody)
	if err != nil {
		return nil, fmt.Errorf("tmdb: %s %s: %w", method, path, c.redact(err, path, values))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		err = c.redact(err, path, values)
		metrics.UpstreamRequests.WithLabelValues(method, "error").Inc()
		slog.Error("tmdb: request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("tmdb: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	metrics.UpstreamRequests.WithLabelValues(method, metrics.StatusClass(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tmdb: %s %s: read body: %w", method, path, err)
	}
	slog.Debug("tmdb: request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(method, path, resp.StatusCode, body)
	}
	return body, nil
}

// redact replaces the request url carried by transport errors with one
// without the api key.
func (c *Client) redact(err error, path string, values url.Values) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = c.buildURL(path, values)
	}
	return err
}

func (c *Client) buildURL(path string, values url.Values) string {
	if len(values) == 0 {
		return c.baseURL + path
	}
	return c.baseURL + path + "?" + values.Encode()
}

func encodeParams(params any) (url.Values, error) {
	switch p := params.(type) {
	case nil:
		return url.Values{}, nil
	case url.Values:
		return p, nil
	default:
		return query.Values(params)
	}
}
