// Package discoverytest provides an in-memory discovery server for tests.
package discoverytest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/openarcloud/ssd/pkg/ssr"
)

// Request is a request received by the Server
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

// Server is a discovery server backed by a map, served over httptest.
// Writes and producer searches require a bearer token; records posted
// with a token are owned by that token.
type Server struct {
	*httptest.Server

	SubPath string

	mu       sync.Mutex
	records  map[string]map[string]ssr.SSR
	owners   map[string]string
	requests []Request
	failCode int
	failBody string
}

// NewServer starts a server serving the given sub-path (DefaultSubPath
// when empty). Callers must Close it.
func NewServer(subPath string) *Server {
	if subPath == "" {
		subPath = "ssrs"
	}
	s := &Server{
		SubPath: strings.Trim(subPath, "/"),
		records: make(map[string]map[string]ssr.SSR),
		owners:  make(map[string]string),
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.record)

	r.HandleFunc("/{country}/provider/"+s.SubPath, s.requireToken(s.listOwned)).Methods(http.MethodGet)
	r.HandleFunc("/{country}/"+s.SubPath, s.list).Methods(http.MethodGet)
	r.HandleFunc("/{country}/"+s.SubPath, s.requireToken(s.create)).Methods(http.MethodPost)
	r.HandleFunc("/{country}/"+s.SubPath+"/{id}", s.get).Methods(http.MethodGet)
	r.HandleFunc("/{country}/"+s.SubPath+"/{id}", s.requireToken(s.replace)).Methods(http.MethodPut)
	r.HandleFunc("/{country}/"+s.SubPath+"/{id}", s.requireToken(s.remove)).Methods(http.MethodDelete)

	return r
}

// Seed stores records under a country, owned by token
func (s *Server) Seed(country, token string, records ...ssr.SSR) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		s.put(country, rec)
		s.owners[rec.ID] = token
	}
}

// Record returns a stored record
func (s *Server) Record(country, id string) (ssr.SSR, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[country][id]
	return rec, ok
}

// Len returns the number of records stored under a country
func (s *Server) Len(country string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records[country])
}

// Requests returns the requests received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// FailWith answers every following request with status and body. A zero
// status restores normal behaviour.
func (s *Server) FailWith(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCode = status
	s.failBody = body
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		failCode, failBody := s.failCode, s.failBody
		s.mu.Unlock()

		if failCode != 0 {
			http.Error(w, failBody, failCode)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token == r.Header.Get("Authorization") {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		next(w, r, token)
	}
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	country := mux.Vars(r)["country"]
	if r.URL.Query().Get("h3Index") == "" {
		http.Error(w, "h3Index is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	records := s.sorted(country, func(string) bool { return true })
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, records)
}

func (s *Server) listOwned(w http.ResponseWriter, r *http.Request, token string) {
	country := mux.Vars(r)["country"]

	s.mu.Lock()
	records := s.sorted(country, func(id string) bool { return s.owners[id] == token })
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, records)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	s.mu.Lock()
	rec, ok := s.records[vars["country"]][vars["id"]]
	s.mu.Unlock()

	if !ok {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, token string) {
	rec, err := decode(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rec.ID = strings.ReplaceAll(uuid.NewString(), "-", "")[:16]

	s.mu.Lock()
	s.put(mux.Vars(r)["country"], rec)
	s.owners[rec.ID] = token
	s.mu.Unlock()

	w.WriteHeader(http.StatusCreated)
	fmt.Fprint(w, rec.ID)
}

func (s *Server) replace(w http.ResponseWriter, r *http.Request, token string) {
	vars := mux.Vars(r)
	rec, err := decode(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rec.ID = vars["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ownedBy(vars["country"], vars["id"], token, w) {
		return
	}
	s.put(vars["country"], rec)
	fmt.Fprint(w, rec.ID)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request, token string) {
	vars := mux.Vars(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ownedBy(vars["country"], vars["id"], token, w) {
		return
	}
	delete(s.records[vars["country"]], vars["id"])
	delete(s.owners, vars["id"])
	fmt.Fprint(w, "deleted")
}

// ownedBy must be called with s.mu held
func (s *Server) ownedBy(country, id, token string, w http.ResponseWriter) bool {
	if _, ok := s.records[country][id]; !ok {
		http.Error(w, "record not found", http.StatusNotFound)
		return false
	}
	if s.owners[id] != token {
		http.Error(w, "record belongs to another provider", http.StatusForbidden)
		return false
	}
	return true
}

// put must be called with s.mu held
func (s *Server) put(country string, rec ssr.SSR) {
	if s.records[country] == nil {
		s.records[country] = make(map[string]ssr.SSR)
	}
	s.records[country][rec.ID] = rec
}

// sorted must be called with s.mu held
func (s *Server) sorted(country string, keep func(id string) bool) []ssr.SSR {
	records := make([]ssr.SSR, 0, len(s.records[country]))
	for id, rec := range s.records[country] {
		if keep(id) {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}

func decode(r *http.Request) (ssr.SSR, error) {
	var rec ssr.SSR
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		return ssr.SSR{}, fmt.Errorf("invalid SSR: %w", err)
	}
	return rec, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/vnd.oscp+json; version=1.0")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
