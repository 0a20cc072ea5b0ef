package restapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Problem is the RFC 7807 body returned by the backend on errors, including
// the backend's own message and error key extensions.
type Problem struct {
	Type       string `json:"type,omitempty"`
	Title      string `json:"title,omitempty"`
	Status     int    `json:"status,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
	EntityName string `json:"entityName,omitempty"`
	ErrorKey   string `json:"errorKey,omitempty"`
}

// HTTPError reports a non-2xx response.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Problem    *Problem
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("Request failed with status code %d", e.StatusCode)
	if e.Problem == nil {
		return msg
	}
	detail := e.Problem.Detail
	if detail == "" {
		detail = e.Problem.Title
	}
	if detail == "" {
		return msg
	}
	return msg + ": " + detail
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == http.StatusNotFound
}

func newHTTPError(method, path string, resp *http.Response, body []byte) *HTTPError {
	he := &HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode, Status: resp.Status}
	ct := resp.Header.Get("Content-Type")
	if len(body) > 0 && (strings.Contains(ct, "json") || json.Valid(body)) {
		var p Problem
		if err := json.Unmarshal(body, &p); err == nil && (p.Title != "" || p.Detail != "" || p.Message != "") {
			he.Problem = &p
		}
	}
	return he
}
