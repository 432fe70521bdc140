// Package apitest provides a fake storefront backend for tests.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

const apiPrefix = "/api"

// Request is a recorded call to the fake backend.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   map[string]any
}

// Handler answers a request with a status code and a value encoded as JSON.
// A nil value writes an empty body.
type Handler func(r Request) (int, any)

type Server struct {
	*httptest.Server

	router *mux.Router
	api    *mux.Router

	mu       sync.Mutex
	requests []Request
}

func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{router: mux.NewRouter()}
	s.api = s.router.PathPrefix(apiPrefix).Subrouter()
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.record(r, nil)
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "route not found"})
	})
	s.Server = httptest.NewServer(s.router)
	t.Cleanup(s.Close)

	return s
}

// BaseURL is the API root to configure clients with.
func (s *Server) BaseURL() string {
	return s.URL + apiPrefix + "/"
}

// Handle registers h for method and path, path being relative to the API root.
func (s *Server) Handle(method, path string, h Handler) {
	s.api.HandleFunc("/"+path, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				_ = json.Unmarshal(data, &body)
			}
		}

		req := s.record(r, body)
		status, v := h(req)
		writeJSON(w, status, v)
	}).Methods(method)
}

// Reply returns a Handler that always answers with status and v.
func Reply(status int, v any) Handler {
	return func(Request) (int, any) { return status, v }
}

// Requests returns the recorded requests to path, relative to the API root.
func (s *Server) Requests(path string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Request
	for _, r := range s.requests {
		if r.Path == path {
			out = append(out, r)
		}
	}

	return out
}

func (s *Server) record(r *http.Request, body map[string]any) Request {
	path := r.URL.Path
	if len(path) > len(apiPrefix)+1 {
		path = path[len(apiPrefix)+1:]
	}

	req := Request{
		Method: r.Method,
		Path:   path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	return req
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	if v == nil {
		w.WriteHeader(status)
		return
	}

	if raw, ok := v.(string); ok {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(raw))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
