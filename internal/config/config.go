// Package config loads the balancer's YAML configuration file into a typed
// Config and fills in the documented defaults for anything left unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// HealthCheckConfig holds the health checker's tunables.
type HealthCheckConfig struct {
	Interval           Duration `yaml:"health_check_interval"`
	Timeout            Duration `yaml:"health_check_timeout"`
	Path               string   `yaml:"health_check_path"`
	Method             string   `yaml:"health_check_method"`
	ExpectedStatus     int      `yaml:"health_check_expected_status"`
	HealthyThreshold   int      `yaml:"health_check_healthy_threshold"`
	UnhealthyThreshold int      `yaml:"health_check_unhealthy_threshold"`
}

// AdminConfig holds the administrative pool-mutation API's settings.
// Enabled is a pointer so an absent `admin:` section in the YAML file can be
// told apart from an explicit `enabled: false` — both unmarshal a plain
// bool to its zero value, which would otherwise always mean "disabled".
type AdminConfig struct {
	Enabled     *bool    `yaml:"enabled"`
	AuthEnabled bool     `yaml:"auth_enabled"`
	APIKeys     []string `yaml:"api_keys"`
	JWTSecret   string   `yaml:"jwt_secret"`
}

// IsEnabled reports whether the admin API should be mounted, applying the
// documented default of true when the field was left unset.
func (a AdminConfig) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// Config is the top-level configuration for the balancer.
type Config struct {
	Host                string            `yaml:"lb_host"`
	Port                int               `yaml:"lb_port"`
	BackendServers      []string          `yaml:"backend_servers"`
	RequestTimeout      Duration          `yaml:"request_timeout"`
	ConnectTimeout      Duration          `yaml:"connect_timeout"`
	HealthCheck         HealthCheckConfig `yaml:",inline"`
	Admin               AdminConfig       `yaml:"admin"`
	ShutdownGracePeriod Duration          `yaml:"shutdown_grace_period"`
}

// Load reads a YAML config file from path and parses it into a Config,
// applying the documented defaults to anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// SetDefaults fills in zero-valued fields with the documented defaults.
func (c *Config) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if len(c.BackendServers) == 0 {
		c.BackendServers = []string{
			"http://localhost:9001",
			"http://localhost:9002",
			"http://localhost:9003",
		}
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = Duration(30 * time.Second)
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = Duration(5 * time.Second)
	}
	if c.HealthCheck.Interval == 0 {
		c.HealthCheck.Interval = Duration(5 * time.Second)
	}
	if c.HealthCheck.Timeout == 0 {
		c.HealthCheck.Timeout = Duration(2 * time.Second)
	}
	if c.HealthCheck.Path == "" {
		c.HealthCheck.Path = "/health"
	}
	if c.HealthCheck.Method == "" {
		c.HealthCheck.Method = "GET"
	}
	if c.HealthCheck.ExpectedStatus == 0 {
		c.HealthCheck.ExpectedStatus = 200
	}
	if c.HealthCheck.HealthyThreshold == 0 {
		c.HealthCheck.HealthyThreshold = 2
	}
	if c.HealthCheck.UnhealthyThreshold == 0 {
		c.HealthCheck.UnhealthyThreshold = 2
	}
	if c.ShutdownGracePeriod == 0 {
		c.ShutdownGracePeriod = Duration(5 * time.Second)
	}
}
