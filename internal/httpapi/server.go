// Package httpapi exposes the analysis pipeline over HTTP, for
// deployments that prefer a long-running service over the stdin/stdout
// CLI entry point. It mounts a single analysis endpoint plus a metrics
// endpoint behind the same gorilla middleware stack the reference
// deployment uses for compression, panic recovery, and CORS.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/NetCockpit/nc-analyzer/internal/alertsink"
	"github.com/NetCockpit/nc-analyzer/internal/archiver"
	"github.com/NetCockpit/nc-analyzer/internal/pipeline"
	"github.com/NetCockpit/nc-analyzer/internal/telemetry"
	"github.com/NetCockpit/nc-analyzer/pkg/log"
	"github.com/NetCockpit/nc-analyzer/pkg/schema"
)

// Server wraps an http.Server bound to a pipeline and a metrics
// registry.
type Server struct {
	addr   string
	http   *http.Server
	router *mux.Router
}

// New builds a Server listening on addr, routing POST /v1/analyze
// through pl and exposing GET /metrics from telemetry. Analysis
// requests are rate-limited per process since a single pipeline run
// can walk thousands of metric samples through five detector stages.
// Every alert the pipeline synthesizes is also published through sink
// (a disabled, no-op Sink when alert delivery isn't configured), and
// every completed response is archived through arc (a disabled, no-op
// Archiver when S3 archival isn't configured) — neither ever affects
// the response written back to the caller.
func New(addr string, pl *pipeline.Pipeline, metrics *telemetry.Metrics, sink *alertsink.Sink, arc *archiver.Archiver) *Server {
	limiter := rate.NewLimiter(rate.Limit(50), 100)

	router := mux.NewRouter()
	router.HandleFunc("/v1/analyze", rateLimited(limiter, analyzeHandler(pl, metrics, sink, arc))).Methods(http.MethodPost)
	router.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	router.Use(handlers.CompressHandler)
	router.Use(handlers.RecoveryHandler(handlers.PrintRecoveryStack(true)))
	router.Use(handlers.CORS(
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowedMethods([]string{"GET", "POST"}),
		handlers.AllowedOrigins([]string{"*"}),
	))

	logged := handlers.CombinedLoggingHandler(logWriter{}, router)

	return &Server{
		addr:   addr,
		router: router,
		http: &http.Server{
			Addr:         addr,
			Handler:      logged,
			ReadTimeout:  20 * time.Second,
			WriteTimeout: 20 * time.Second,
		},
	}
}

// ListenAndServe blocks serving HTTP until the server is shut down.
func (s *Server) ListenAndServe() error {
	log.Infof("httpapi: listening on %s", s.addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func analyzeHandler(pl *pipeline.Pipeline, metrics *telemetry.Metrics, sink *alertsink.Sink, arc *archiver.Archiver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req schema.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			metrics.RequestsTotal.WithLabelValues("bad_request").Inc()
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		resp, err := pl.Process(&req)
		metrics.RequestDuration.WithLabelValues().Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.RequestsTotal.WithLabelValues("error").Inc()
			http.Error(w, "analysis failed: "+err.Error(), http.StatusInternalServerError)
			return
		}

		metrics.RequestsTotal.WithLabelValues("ok").Inc()
		if advancedAlerts := resp.AdvancedDetection.Alerts; advancedAlerts != nil {
			for _, alert := range advancedAlerts.Events {
				metrics.AlertsEmitted.WithLabelValues(alert.Severity).Inc()
			}
			if err := sink.Publish(advancedAlerts.Events); err != nil {
				log.Errorf("httpapi: publishing alerts: %v", err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Errorf("httpapi: encoding response: %v", err)
		}

		go func() {
			archiveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := arc.Archive(archiveCtx, uuid.NewString(), resp); err != nil {
				log.Warnf("httpapi: archiving analysis result: %v", err)
			}
		}()
	}
}

func rateLimited(limiter *rate.Limiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, "too many analysis requests", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// logWriter discards the logging handler's default output; requests
// are logged through pkg/log instead so format and level stay
// consistent with the rest of the service.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	log.Debugf("httpapi: %s", string(p))
	return len(p), nil
}
