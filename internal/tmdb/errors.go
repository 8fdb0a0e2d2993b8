package tmdb

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

var (
	ErrNotFound      = errors.New("tmdb: resource not found")
	ErrMissingAPIKey = errors.New("tmdb: missing api key")
)

// APIError is returned for any non 2xx answer of the movie database.
type APIError struct {
	HTTPStatus int
	Code       int
	Message    string
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tmdb: %s %s: http status %d", e.Method, e.Path, e.HTTPStatus)
	}
	return fmt.Sprintf("tmdb: %s %s: http status %d: %s (code %d)",
		e.Method, e.Path, e.HTTPStatus, e.Message, e.Code)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.HTTPStatus == http.StatusNotFound
}

// Build the error from the response body.
// The movie database answers errors as {"status_code": 7, "status_message": "..."}.
func newAPIError(method string, path string, status int, body []byte) *APIError {
	apiErr := &APIError{
		HTTPStatus: status,
		Method:     method,
		Path:       path,
	}
	if gjson.ValidBytes(body) {
		result := gjson.GetManyBytes(body, "status_code", "status_message")
		apiErr.Code = int(result[0].Int())
		apiErr.Message = result[1].String()
	}
	return apiErr
}
