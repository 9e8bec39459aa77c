package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNotFound matches any APIError with a 404 status.
var ErrNotFound = errors.New("resource not found")

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Method  string
	Path    string
	Reasons []string
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	e := &APIError{Status: status, Method: method, Path: path}
	for _, r := range gjson.GetBytes(body, "errors.#.reason").Array() {
		if s := r.String(); s != "" {
			e.Reasons = append(e.Reasons, s)
		}
	}
	return e
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	if len(e.Reasons) > 0 {
		msg += ": " + strings.Join(e.Reasons, "; ")
	}
	return msg
}

// StatusCode returns the HTTP status of the response.
func (e *APIError) StatusCode() int {
	return e.Status
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}
