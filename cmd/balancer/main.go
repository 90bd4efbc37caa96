package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/Pneha1234/golb/internal/admin"
	"github.com/Pneha1234/golb/internal/config"
	"github.com/Pneha1234/golb/internal/forwarder"
	"github.com/Pneha1234/golb/internal/health"
	"github.com/Pneha1234/golb/internal/middleware"
	"github.com/Pneha1234/golb/internal/pool"
)

func main() {
	configPath := flag.String("config", "balancer.yml", "path to the balancer's YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if len(cfg.BackendServers) == 0 {
		log.Fatal("no backend_servers configured")
	}

	p := pool.New(cfg.BackendServers)

	checker := health.New(p, health.Config{
		Interval:           cfg.HealthCheck.Interval.Duration(),
		Timeout:            cfg.HealthCheck.Timeout.Duration(),
		Path:               cfg.HealthCheck.Path,
		Method:             cfg.HealthCheck.Method,
		ExpectedStatus:     cfg.HealthCheck.ExpectedStatus,
		HealthyThreshold:   cfg.HealthCheck.HealthyThreshold,
		UnhealthyThreshold: cfg.HealthCheck.UnhealthyThreshold,
	})
	checker.Start()
	defer checker.Stop()

	fwd := forwarder.New(p, forwarder.Config{
		RequestTimeout: cfg.RequestTimeout.Duration(),
		ConnectTimeout: cfg.ConnectTimeout.Duration(),
	})
	defer fwd.Close()

	handler := middleware.Chain(
		fwd,
		middleware.RequestID(),
		middleware.Metrics(),
		middleware.Logging(),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	// "/admin/" is reserved for the administrative API whether or not it is
	// enabled, so an unmatched /admin/* path never falls through to the
	// catch-all proxy route below.
	if cfg.Admin.IsEnabled() {
		auth := middleware.NewAuth(cfg.Admin.AuthEnabled, cfg.Admin.APIKeys, cfg.Admin.JWTSecret)
		adminAPI := admin.NewAPI(p)
		mux.Handle("/admin/", middleware.Chain(adminAPI.Handler(), auth.Middleware()))
	} else {
		mux.HandleFunc("/admin/", http.NotFound)
	}

	mux.Handle("/", handler)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := &http.Server{Addr: addr, Handler: mux}

	serverCtx, stop := context.WithCancel(context.Background())
	defer stop()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("shutting down balancer...")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod.Duration())
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		stop()
	}()

	log.Printf("balancer starting on %s with %d backend(s)", addr, len(cfg.BackendServers))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("HTTP server ListenAndServe: %v", err)
	}

	<-serverCtx.Done()
	log.Println("balancer shutdown complete")
}
