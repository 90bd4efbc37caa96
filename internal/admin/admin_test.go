package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Pneha1234/golb/internal/pool"
)

func TestListReturnsKnownAndHealthy(t *testing.T) {
	p := pool.New([]string{"http://a", "http://b"})
	p.MarkUnhealthy("http://b")
	api := NewAPI(p)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/backends", nil)
	api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var entries []backendEntry
	if err := json.NewDecoder(rr.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %v, want 2 entries", entries)
	}

	byURL := make(map[string]bool, len(entries))
	for _, e := range entries {
		byURL[e.URL] = e.Healthy
	}
	if healthy, ok := byURL["http://a"]; !ok || !healthy {
		t.Errorf("http://a healthy = %v, ok = %v; want true, true", healthy, ok)
	}
	if healthy, ok := byURL["http://b"]; !ok || healthy {
		t.Errorf("http://b healthy = %v, ok = %v; want false, true", healthy, ok)
	}
}

func TestAddRegistersBackend(t *testing.T) {
	p := pool.New(nil)
	api := NewAPI(p)

	body, _ := json.Marshal(backendRequest{URL: "http://new"})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/backends", bytes.NewReader(body))
	api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rr.Code)
	}
	healthy, ok := p.IsHealthy("http://new")
	if !ok || !healthy {
		t.Errorf("IsHealthy(new) = %v, %v; want true, true", healthy, ok)
	}
}

func TestAddRejectsMalformedBody(t *testing.T) {
	p := pool.New(nil)
	api := NewAPI(p)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/backends", bytes.NewReader([]byte("not json")))
	api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestRemoveDropsBackend(t *testing.T) {
	p := pool.New([]string{"http://a"})
	api := NewAPI(p)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/admin/backends?url=http://a", nil)
	api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}
	if p.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after remove", p.Len())
	}
}

func TestRemoveWithoutURLReturns400(t *testing.T) {
	p := pool.New([]string{"http://a"})
	api := NewAPI(p)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/admin/backends", nil)
	api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestUnsupportedMethodReturns405(t *testing.T) {
	p := pool.New(nil)
	api := NewAPI(p)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/admin/backends", nil)
	api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rr.Code)
	}
}
