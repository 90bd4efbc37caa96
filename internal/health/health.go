// Package health runs the background probing task that promotes and
// demotes backends in a pool.Pool after consecutive-success and
// consecutive-failure thresholds are met.
package health

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Pneha1234/golb/internal/pool"
)

var transitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gateway_health_transitions_total",
		Help: "Backend health state transitions observed by the health checker.",
	},
	[]string{"backend", "direction"},
)

// Config holds the health checker's tunables. Zero values are replaced by
// SetDefaults with the documented defaults.
type Config struct {
	Interval           time.Duration
	Timeout            time.Duration
	Path               string
	Method             string
	ExpectedStatus     int
	HealthyThreshold   int
	UnhealthyThreshold int
}

// SetDefaults fills in zero fields with the documented defaults and
// normalizes Path to always have a leading slash.
func (c *Config) SetDefaults() {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Second
	}
	if c.Path == "" {
		c.Path = "/health"
	}
	if !strings.HasPrefix(c.Path, "/") {
		c.Path = "/" + c.Path
	}
	if c.Method == "" {
		c.Method = http.MethodGet
	}
	if c.ExpectedStatus == 0 {
		c.ExpectedStatus = http.StatusOK
	}
	if c.HealthyThreshold < 1 {
		c.HealthyThreshold = 2
	}
	if c.UnhealthyThreshold < 1 {
		c.UnhealthyThreshold = 2
	}
}

// Checker periodically probes every backend known to a pool.Pool and
// promotes/demotes it after the configured hysteresis thresholds.
//
// successCounts and failureCounts are owned by the Checker's background
// goroutine alone; they are never read or written concurrently with
// anything else, so they need no synchronization and must not be moved
// into the pool.
type Checker struct {
	pool   *pool.Pool
	cfg    Config
	logger *log.Logger

	client *http.Client
	cancel context.CancelFunc
	done   chan struct{}

	successCounts map[string]int
	failureCounts map[string]int

	// probeOverride lets tests substitute a stubbed probe outcome without
	// depending on real network timing. Nil in production use.
	probeOverride func(url string) bool
}

// probeFunc installs a stub used in place of the real HTTP probe. It exists
// for tests exercising hysteresis without real sockets.
func (c *Checker) probeFunc(f func(url string) bool) {
	c.probeOverride = f
}

// New creates a Checker for the given pool and configuration. Call Start to
// begin probing.
func New(p *pool.Pool, cfg Config) *Checker {
	cfg.SetDefaults()
	return &Checker{
		pool:          p,
		cfg:           cfg,
		logger:        log.New(os.Stdout, "", 0),
		successCounts: make(map[string]int),
		failureCounts: make(map[string]int),
	}
}

// Start is idempotent: it builds the outbound HTTP client, then spawns the
// background sweep loop. Calling Start again while already running is a
// no-op.
func (c *Checker) Start() {
	if c.cancel != nil {
		return
	}

	c.client = &http.Client{Timeout: c.cfg.Timeout}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.run(ctx)
}

// Stop cancels the background loop, waits for it to exit, and tears down
// the HTTP client. It is idempotent after a successful Stop.
func (c *Checker) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
	c.cancel = nil
	c.client = nil
}

// run is the sweep loop. A panic during a sweep is recovered here so the
// loop exits cleanly — leaving the pool in its last-observed state —
// rather than crashing the process.
func (c *Checker) run(ctx context.Context) {
	defer close(c.done)
	defer func() {
		if r := recover(); r != nil {
			c.logger.Printf(`{"event":"health_checker_panic","detail":%q}`, r)
		}
	}()

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	c.sweep()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep probes every known backend once. A probe failure for one backend
// does not prevent the remaining backends from being checked.
func (c *Checker) sweep() {
	backends := c.pool.SnapshotAll()
	for url := range backends {
		c.checkOne(url)
	}
}

func (c *Checker) checkOne(url string) {
	if c.doProbe(url) {
		c.failureCounts[url] = 0
		c.successCounts[url]++
		if c.successCounts[url] >= c.cfg.HealthyThreshold {
			if healthy, known := c.pool.IsHealthy(url); !known || !healthy {
				c.pool.MarkHealthy(url)
				transitionsTotal.WithLabelValues(url, "promoted").Inc()
				c.logEvent("backend_promoted", url, c.successCounts[url])
				c.successCounts[url] = 0
			}
		}
		return
	}

	c.successCounts[url] = 0
	c.failureCounts[url]++
	if c.failureCounts[url] >= c.cfg.UnhealthyThreshold {
		if healthy, known := c.pool.IsHealthy(url); known && healthy {
			c.pool.MarkUnhealthy(url)
			transitionsTotal.WithLabelValues(url, "demoted").Inc()
			c.logEvent("backend_demoted", url, c.failureCounts[url])
			c.failureCounts[url] = 0
		}
	}
}

// doProbe runs the probe stub if one was installed by a test, otherwise
// the real HTTP probe.
func (c *Checker) doProbe(url string) bool {
	if c.probeOverride != nil {
		return c.probeOverride(url)
	}
	return c.probe(url)
}

// probe issues one HTTP request to url+path and reports success iff the
// response arrives and its status equals the configured expected status.
// Any transport error or timeout is a failure.
func (c *Checker) probe(url string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, c.cfg.Method, url+c.cfg.Path, nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == c.cfg.ExpectedStatus
}

func (c *Checker) logEvent(event, backend string, counter int) {
	line := map[string]any{
		"event":   event,
		"backend": backend,
		"counter": counter,
	}
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(line)
}
