// Package pool implements the concurrency-safe backend registry shared by
// the forwarder and the health checker.
package pool

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendsKnown = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gateway_pool_backends_known",
		Help: "Number of backends known to the pool, healthy or not.",
	})
	backendsHealthy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gateway_pool_backends_healthy",
		Help: "Number of backends currently in the round-robin rotation.",
	})
)

// Pool tracks every known backend's health flag and provides round-robin
// selection over the currently-healthy subset.
//
// All mutating operations and all snapshot reads take the same lock, which
// is never held across I/O. Callers that need to issue a request to a
// selected backend must release the lock first — Next already does this.
type Pool struct {
	mu      sync.Mutex
	known   map[string]bool // url -> healthy
	healthy []string        // round-robin ring of healthy urls
	cursor  int
}

// New creates a pool from the given initial backend URLs, all marked
// healthy. Ordering in the list defines the initial ring order.
func New(backends []string) *Pool {
	p := &Pool{
		known:   make(map[string]bool, len(backends)),
		healthy: make([]string, 0, len(backends)),
	}
	for _, url := range backends {
		if p.known[url] {
			continue
		}
		p.known[url] = true
		p.healthy = append(p.healthy, url)
	}
	p.updateMetrics()
	return p
}

// Next returns the next URL in round-robin order from the healthy ring,
// rotating the ring by one position. It returns "", false if the ring is
// empty.
func (p *Pool) Next() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.healthy) == 0 {
		return "", false
	}

	if p.cursor >= len(p.healthy) {
		p.cursor = 0
	}
	url := p.healthy[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.healthy)
	return url, true
}

// MarkUnhealthy flips a known backend's flag to false and drops it from the
// ring. It is a no-op for a URL the pool does not know about.
func (p *Pool) MarkUnhealthy(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.known[url] {
		return
	}
	p.known[url] = false
	p.removeFromRing(url)
	p.updateMetrics()
}

// MarkHealthy flips a backend's flag to true and inserts it at the tail of
// the ring (just behind the cursor, so it is the last one reached in the
// current rotation) if it is not already rotating. Inserting at the tail
// (rather than at the cursor) avoids a thundering herd of retries against a
// just-recovered host.
func (p *Pool) MarkHealthy(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.known[url] = true
	if !p.inRing(url) {
		if p.cursor >= len(p.healthy) {
			p.cursor = 0
		}
		p.healthy = append(p.healthy, "")
		copy(p.healthy[p.cursor+1:], p.healthy[p.cursor:])
		p.healthy[p.cursor] = url
		p.cursor++
	}
	p.updateMetrics()
}

// IsHealthy reports the flag for a known backend. ok is false if the URL is
// unknown to the pool.
func (p *Pool) IsHealthy(url string) (healthy, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	healthy, ok = p.known[url]
	return healthy, ok
}

// SnapshotHealthy returns a read-consistent copy of the healthy ring, in
// rotation order starting from the current cursor.
func (p *Pool) SnapshotHealthy() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := p.cursor
	if start >= len(p.healthy) {
		start = 0
	}
	out := make([]string, 0, len(p.healthy))
	out = append(out, p.healthy[start:]...)
	out = append(out, p.healthy[:start]...)
	return out
}

// SnapshotAll returns a read-consistent copy of the full url->healthy map.
func (p *Pool) SnapshotAll() map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]bool, len(p.known))
	for url, healthy := range p.known {
		out[url] = healthy
	}
	return out
}

// Add registers url as healthy. If url is already known, it is re-marked
// healthy (equivalent to MarkHealthy); otherwise it is inserted fresh.
func (p *Pool) Add(url string) {
	p.MarkHealthy(url)
}

// Remove drops url from both the mapping and the ring entirely. A removed
// backend is no longer "known" — IsHealthy will report ok=false for it.
func (p *Pool) Remove(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.known, url)
	p.removeFromRing(url)
	p.updateMetrics()
}

// Len reports the number of backends currently in the healthy ring.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.healthy)
}

func (p *Pool) inRing(url string) bool {
	for _, u := range p.healthy {
		if u == url {
			return true
		}
	}
	return false
}

// removeFromRing drops url from the ring, keeping the cursor's relative
// position stable so an in-flight rotation doesn't skip or repeat an entry
// any more than an ordinary concurrent Next() call already would.
func (p *Pool) removeFromRing(url string) {
	for i, u := range p.healthy {
		if u != url {
			continue
		}
		p.healthy = append(p.healthy[:i], p.healthy[i+1:]...)
		if p.cursor > i {
			p.cursor--
		}
		return
	}
}

func (p *Pool) updateMetrics() {
	backendsKnown.Set(float64(len(p.known)))
	backendsHealthy.Set(float64(len(p.healthy)))
}
