package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "balancer.yml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsForEmptyFile(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want 0.0.0.0", cfg.Host)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if len(cfg.BackendServers) != 3 {
		t.Errorf("BackendServers = %v, want 3 default entries", cfg.BackendServers)
	}
	if cfg.HealthCheck.Path != "/health" {
		t.Errorf("HealthCheck.Path = %q, want /health", cfg.HealthCheck.Path)
	}
	if cfg.HealthCheck.HealthyThreshold != 2 || cfg.HealthCheck.UnhealthyThreshold != 2 {
		t.Errorf("thresholds = %d/%d, want 2/2",
			cfg.HealthCheck.HealthyThreshold, cfg.HealthCheck.UnhealthyThreshold)
	}
	if !cfg.Admin.IsEnabled() {
		t.Errorf("Admin.IsEnabled() = false, want true (default)")
	}
	if cfg.Admin.AuthEnabled {
		t.Errorf("Admin.AuthEnabled = true, want false (default)")
	}
}

func TestLoadRespectsExplicitValues(t *testing.T) {
	path := writeConfig(t, `
lb_host: 127.0.0.1
lb_port: 9090
backend_servers:
  - http://localhost:7001
  - http://localhost:7002
health_check_interval: 1s
health_check_healthy_threshold: 3
admin:
  enabled: false
  auth_enabled: true
  api_keys: ["secret"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Host != "127.0.0.1" || cfg.Port != 9090 {
		t.Errorf("Host/Port = %s:%d, want 127.0.0.1:9090", cfg.Host, cfg.Port)
	}
	if len(cfg.BackendServers) != 2 {
		t.Errorf("BackendServers = %v, want 2 explicit entries", cfg.BackendServers)
	}
	if cfg.HealthCheck.Interval.Duration() != time.Second {
		t.Errorf("HealthCheck.Interval = %v, want 1s", cfg.HealthCheck.Interval.Duration())
	}
	if cfg.HealthCheck.HealthyThreshold != 3 {
		t.Errorf("HealthyThreshold = %d, want 3", cfg.HealthCheck.HealthyThreshold)
	}
	if cfg.Admin.IsEnabled() {
		t.Errorf("Admin.IsEnabled() = true, want false (explicit)")
	}
	if !cfg.Admin.AuthEnabled {
		t.Errorf("Admin.AuthEnabled = false, want true (explicit)")
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("Load() on missing file returned nil error")
	}
}
