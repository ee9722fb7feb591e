// Package api serves one open CDF file over a read-only REST API.
package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the routes, middleware and metrics for the given reader.
func NewRouter(reader FileReader, config ServerConfig, metrics *Metrics) http.Handler {
	server := NewServer(reader, config, metrics)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Health check (unprotected for probes)
	r.Get("/health", metrics.InstrumentHandler("GET", "/health", server.handleHealth))

	r.Route("/api/v1", func(r chi.Router) {
		if config.APIKey != "" {
			r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(config.APIKey)))
		}

		r.Get("/info", metrics.InstrumentHandler("GET", "/api/v1/info", server.handleInfo))
		r.Get("/variables", metrics.InstrumentHandler("GET", "/api/v1/variables", server.handleListVariables))
		r.Get("/variables/{name}", metrics.InstrumentHandler("GET", "/api/v1/variables/{name}", server.handleGetVariable))
		r.Get("/variables/{name}/data", metrics.InstrumentHandler("GET", "/api/v1/variables/{name}/data", server.handleGetData))
		r.Get("/attributes", metrics.InstrumentHandler("GET", "/api/v1/attributes", server.handleListAttributes))
	})

	return r
}

// StartServer starts the HTTP server with all routes configured
func StartServer(reader FileReader, config ServerConfig) error {
	metrics := NewMetrics()
	router := NewRouter(reader, config, metrics)

	bind := config.Bind
	if bind == "" {
		bind = "127.0.0.1"
	}
	addr := fmt.Sprintf("%s:%d", bind, config.Port)
	fmt.Printf("Serving %s on %s\n", reader.Info().Path, addr)
	fmt.Printf("Metrics available at: http://%s/metrics\n", addr)
	return http.ListenAndServe(addr, router)
}
