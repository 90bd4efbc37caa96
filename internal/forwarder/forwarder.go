// Package forwarder implements the per-request backend selection,
// forwarding, retry, and error-mapping logic of the reverse proxy.
package forwarder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/Pneha1234/golb/internal/middleware"
	"github.com/Pneha1234/golb/internal/pool"
)

const (
	msgNoBackends     = "Service Unavailable: No backend servers available"
	msgGatewayTimeout = "Gateway Timeout: Backend server did not respond in time"
	msgCannotConnect  = "Bad Gateway: Cannot connect to backend server"
	msgBackendError   = "Bad Gateway: Error communicating with backend server"
	msgInternalError  = "Internal Server Error"
)

// Config controls the outbound HTTP client used to reach backends.
type Config struct {
	RequestTimeout time.Duration // total per-attempt deadline
	ConnectTimeout time.Duration // dial deadline
}

// SetDefaults fills in zero fields with the documented defaults.
func (c *Config) SetDefaults() {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
}

// Forwarder selects a healthy backend per request, forwards it, and retries
// across the remaining healthy backends on transport failure.
type Forwarder struct {
	pool   *pool.Pool
	client *http.Client
	logger *json.Encoder
}

// New builds a Forwarder with its own outbound HTTP client, configured with
// the given connect and total-request timeouts. Redirects are never
// followed — a 3xx from a backend is relayed to the client as-is.
func New(p *pool.Pool, cfg Config) *Forwarder {
	cfg.SetDefaults()

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	transport := &http.Transport{
		DialContext: dialer.DialContext,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.RequestTimeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &Forwarder{
		pool:   p,
		client: client,
		logger: json.NewEncoder(os.Stdout),
	}
}

// Close releases the Forwarder's outbound connections.
func (f *Forwarder) Close() {
	if t, ok := f.client.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
}

// ServeHTTP implements the public forwarding contract described in the
// request forwarder component design: snapshot the healthy set, cache the
// body once, retry across attempts on transport failure, and relay any
// backend HTTP response — including 5xx — verbatim without retrying it.
func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	snapshot := f.pool.SnapshotHealthy()
	if len(snapshot) == 0 {
		f.writeError(w, http.StatusServiceUnavailable, msgNoBackends)
		return
	}

	body, err := readBody(r)
	if err != nil {
		f.writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	var lastErr error
	attempted := false

	for attempt := 0; attempt < len(snapshot); attempt++ {
		backend, ok := f.pool.Next()
		if !ok {
			break
		}
		attempted = true

		resp, err := f.attempt(r, backend, body)
		if err == nil {
			f.logAttempt(requestID, backend, attempt, "forwarded", resp.StatusCode)
			relay(w, resp)
			return
		}

		lastErr = err
		f.pool.MarkUnhealthy(backend)
		f.logAttempt(requestID, backend, attempt, "transport_error", 0)
	}

	if !attempted {
		f.writeError(w, http.StatusServiceUnavailable, msgNoBackends)
		return
	}

	status, msg := classify(lastErr)
	f.writeError(w, status, msg)
}

// attempt issues one outbound request to backend, carrying the original
// method, headers, and cached body, with redirects disabled.
func (f *Forwarder) attempt(r *http.Request, backend string, body []byte) (*http.Response, error) {
	target := backend + r.URL.RequestURI()

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	outReq, err := http.NewRequestWithContext(r.Context(), r.Method, target, bodyReader)
	if err != nil {
		return nil, err
	}
	outReq.Header = r.Header.Clone()
	if body != nil {
		outReq.ContentLength = int64(len(body))
	}

	return f.client.Do(outReq)
}

// readBody reads the inbound request body at most once so retries replay
// byte-identical content. Returns a nil slice for a bodyless request.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

// relay copies a backend's response to the client verbatim: status,
// headers, and body.
func relay(w http.ResponseWriter, resp *http.Response) {
	defer resp.Body.Close()
	dst := w.Header()
	for k, values := range resp.Header {
		for _, v := range values {
			dst.Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

func (f *Forwarder) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, msg)
}

// classify maps the last transport error observed across all attempts to
// the status/body pair described in the error handling design.
func classify(err error) (int, string) {
	if err == nil {
		return http.StatusServiceUnavailable, msgNoBackends
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return http.StatusGatewayTimeout, msgGatewayTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return http.StatusBadGateway, msgCannotConnect
		}
		return http.StatusBadGateway, msgBackendError
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return http.StatusGatewayTimeout, msgGatewayTimeout
		}
		return http.StatusBadGateway, msgBackendError
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, msgGatewayTimeout
	}

	return http.StatusBadGateway, msgBackendError
}

func (f *Forwarder) logAttempt(requestID, backend string, attempt int, outcome string, status int) {
	line := map[string]any{
		"event":      "forward_attempt",
		"request_id": requestID,
		"backend":    backend,
		"attempt":    attempt,
		"outcome":    outcome,
	}
	if status != 0 {
		line["status"] = status
	}
	_ = f.logger.Encode(line)
}
