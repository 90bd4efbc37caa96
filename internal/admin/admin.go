// Package admin exposes the HTTP surface used to add and remove backends
// from a running pool without a restart.
package admin

import (
	"encoding/json"
	"net/http"

	"github.com/Pneha1234/golb/internal/pool"
)

// API serves the administrative pool-mutation endpoints.
type API struct {
	pool *pool.Pool
}

// NewAPI creates an admin API backed by the given pool.
func NewAPI(p *pool.Pool) *API {
	return &API{pool: p}
}

// Handler returns the mux for the admin routes. It matches the full path
// "/admin/backends", so the caller mounts it without stripping any prefix
// (cmd/balancer mounts it at "/admin/"), and it is expected to be wrapped in
// the auth middleware before being reachable — API itself performs no
// authentication.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/backends", a.handleBackends)
	return mux
}

type backendRequest struct {
	URL string `json:"url"`
}

type backendEntry struct {
	URL     string `json:"url"`
	Healthy bool   `json:"healthy"`
}

func (a *API) handleBackends(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.list(w, r)
	case http.MethodPost:
		a.add(w, r)
	case http.MethodDelete:
		a.remove(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	all := a.pool.SnapshotAll()
	entries := make([]backendEntry, 0, len(all))
	for url, healthy := range all {
		entries = append(entries, backendEntry{URL: url, Healthy: healthy})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (a *API) add(w http.ResponseWriter, r *http.Request) {
	var req backendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		http.Error(w, "request body must be {\"url\": \"http://...\"}", http.StatusBadRequest)
		return
	}

	a.pool.Add(req.URL)
	w.WriteHeader(http.StatusCreated)
}

func (a *API) remove(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		http.Error(w, "missing required query parameter: url", http.StatusBadRequest)
		return
	}

	a.pool.Remove(url)
	w.WriteHeader(http.StatusNoContent)
}
