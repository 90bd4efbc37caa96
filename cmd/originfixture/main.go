// Command originfixture is a minimal HTTP origin used as a backend under
// the balancer during manual testing: it echoes who answered and serves a
// configurable health endpoint so reactive eviction and health-check
// recovery can be exercised by hand.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
)

func main() {
	port := flag.Int("port", 9001, "port to run the fixture origin on")
	healthPath := flag.String("health-path", "/health", "path that answers health checks")
	flag.Parse()

	mux := http.NewServeMux()

	mux.HandleFunc(*healthPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[origin:%d] %s %s", *port, r.Method, r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "hello from origin",
			"port":    *port,
			"path":    r.URL.Path,
		})
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("fixture origin starting on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}
