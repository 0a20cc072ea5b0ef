// Package restapitest provides an in-memory JHipster-style collection backend
// for tests.
package restapitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Request is one call received by the server.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	ContentType string
	Header      http.Header
	Body        []byte
}

// Server serves GET/POST on "/<collection>" and GET/PUT/PATCH/DELETE on
// "/<collection>/<id>" for every registered collection path.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	collections map[string]*collection
	requests    []Request
	failures    []failure
}

type collection struct {
	nextID  int64
	records []map[string]any
}

type failure struct {
	status  int
	problem map[string]any
}

// NewServer starts a server for paths (e.g. "api/entity-as") and closes it
// when the test ends.
func NewServer(t testing.TB, paths ...string) *Server {
	t.Helper()
	s := &Server{collections: make(map[string]*collection)}
	for _, p := range paths {
		s.collections[strings.Trim(p, "/")] = &collection{}
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Seed appends records to a collection, assigning ids to records without one.
func (s *Server) Seed(path string, records ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collections[strings.Trim(path, "/")]
	for _, r := range records {
		c.insert(r)
	}
}

// Records returns a copy of a collection's records in insertion order.
func (s *Server) Records(path string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collections[strings.Trim(path, "/")]
	out := make([]map[string]any, 0, len(c.records))
	for _, r := range c.records {
		out = append(out, copyRecord(r))
	}
	return out
}

// Requests returns the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// FailNext makes the next request answer status with problem as a
// problem+json body (no body when problem is nil).
func (s *Server) FailNext(status int, problem map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{status: status, problem: problem})
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{
		Method:      r.Method,
		Path:        r.URL.Path,
		Query:       r.URL.Query(),
		ContentType: r.Header.Get("Content-Type"),
		Header:      r.Header.Clone(),
		Body:        body,
	})
	if len(s.failures) > 0 {
		f := s.failures[0]
		s.failures = s.failures[1:]
		writeProblem(w, f.status, f.problem)
		return
	}

	path := strings.Trim(r.URL.Path, "/")
	if c, ok := s.collections[path]; ok {
		s.serveCollection(w, r, c, body)
		return
	}
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		writeProblem(w, http.StatusNotFound, map[string]any{"title": "Not Found", "status": 404})
		return
	}
	c, ok := s.collections[path[:idx]]
	id, err := strconv.ParseInt(path[idx+1:], 10, 64)
	if !ok || err != nil {
		writeProblem(w, http.StatusNotFound, map[string]any{"title": "Not Found", "status": 404})
		return
	}
	s.serveItem(w, r, c, id, body)
}

func (s *Server) serveCollection(w http.ResponseWriter, r *http.Request, c *collection, body []byte) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, c.records)
	case http.MethodPost:
		rec, ok := decode(w, body)
		if !ok {
			return
		}
		if rec["id"] != nil {
			writeProblem(w, http.StatusBadRequest, map[string]any{"title": "A new entity cannot already have an ID", "status": 400, "errorKey": "idexists"})
			return
		}
		writeJSON(w, http.StatusCreated, c.insert(rec))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) serveItem(w http.ResponseWriter, r *http.Request, c *collection, id int64, body []byte) {
	i := c.find(id)
	if i < 0 {
		writeProblem(w, http.StatusNotFound, map[string]any{"title": "Not Found", "status": 404, "detail": "404 NOT_FOUND"})
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, c.records[i])
	case http.MethodDelete:
		c.records = append(c.records[:i], c.records[i+1:]...)
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPut, http.MethodPatch:
		rec, ok := decode(w, body)
		if !ok {
			return
		}
		if toInt(rec["id"]) != id {
			writeProblem(w, http.StatusBadRequest, map[string]any{"title": "Invalid ID", "status": 400, "errorKey": "idinvalid"})
			return
		}
		rec["id"] = id
		if r.Method == http.MethodPatch {
			merged := copyRecord(c.records[i])
			for k, v := range rec {
				if v == nil {
					delete(merged, k)
					continue
				}
				merged[k] = v
			}
			rec = merged
		}
		c.records[i] = rec
		writeJSON(w, http.StatusOK, rec)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (c *collection) insert(rec map[string]any) map[string]any {
	rec = copyRecord(rec)
	if id := toInt(rec["id"]); id > 0 {
		if id > c.nextID {
			c.nextID = id
		}
	} else {
		c.nextID++
		rec["id"] = c.nextID
	}
	c.records = append(c.records, rec)
	return rec
}

func (c *collection) find(id int64) int {
	for i, r := range c.records {
		if toInt(r["id"]) == id {
			return i
		}
	}
	return -1
}

func decode(w http.ResponseWriter, body []byte) (map[string]any, bool) {
	var rec map[string]any
	if err := json.Unmarshal(body, &rec); err != nil {
		writeProblem(w, http.StatusBadRequest, map[string]any{"title": "Bad Request", "status": 400, "detail": err.Error()})
		return nil, false
	}
	return rec, true
}

func toInt(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	}
	return 0
}

func copyRecord(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, problem map[string]any) {
	if problem == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem)
}
