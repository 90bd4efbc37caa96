package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthDisabledLetsEverythingThrough(t *testing.T) {
	a := NewAuth(false, nil, "")
	h := a.Middleware()(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/backends", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestAuthRejectsMissingCredentials(t *testing.T) {
	a := NewAuth(true, []string{"abc"}, "secret")
	h := a.Middleware()(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/backends", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestAuthAcceptsValidAPIKey(t *testing.T) {
	a := NewAuth(true, []string{"abc"}, "secret")
	h := a.Middleware()(okHandler())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/backends", nil)
	req.Header.Set("X-API-Key", "abc")
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestAuthRejectsInvalidAPIKey(t *testing.T) {
	a := NewAuth(true, []string{"abc"}, "secret")
	h := a.Middleware()(okHandler())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/backends", nil)
	req.Header.Set("X-API-Key", "wrong")
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestAuthAcceptsValidJWT(t *testing.T) {
	secret := "secret"
	a := NewAuth(true, nil, secret)
	h := a.Middleware()(okHandler())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/backends", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestAuthRejectsNonHMACSigningMethod(t *testing.T) {
	a := NewAuth(true, nil, "secret")
	h := a.Middleware()(okHandler())

	// alg=none token: header/claims are valid base64 JSON, signature empty.
	noneToken := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." +
		"eyJleHAiOjk5OTk5OTk5OTl9."

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/backends", nil)
	req.Header.Set("Authorization", "Bearer "+noneToken)
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 (alg=none must be rejected)", rr.Code)
	}
}
