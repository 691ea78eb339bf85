package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"faxina/internal/log"
)

type appMetrics struct {
	uptime  time.Time
	created int64
	updated int64
	deleted int64
	reports int64
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports whether storage answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, httpStatus, storage := "ready", http.StatusOK, "ok"
	if err := s.payments.Ping(ctx); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).WarnContext(r.Context(), "Readiness check failed",
			log.FieldError, err.Error())
		status, httpStatus, storage = "not_ready", http.StatusServiceUnavailable, "unavailable"
	}

	_ = NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": map[string]any{
			"storage": storage,
			"rate_limiter": map[string]any{
				"active_clients": s.limiter.ActiveClients(),
				"status":         "ok",
			},
		},
	}).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.detector.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()
	traceMetrics := s.tracer.GetMetrics()

	w.WriteHeader(http.StatusOK)

	counter := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s counter\n", name)
		fmt.Fprintf(w, "%s %d\n\n", name, v)
	}

	counter("http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests)
	fmt.Fprintf(w, "# HELP http_response_time_microseconds Mean response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	counter("payments_created_total", "Payments created", atomic.LoadInt64(&s.appMetrics.created))
	counter("payments_updated_total", "Payments updated", atomic.LoadInt64(&s.appMetrics.updated))
	counter("payments_deleted_total", "Payments deleted", atomic.LoadInt64(&s.appMetrics.deleted))
	counter("reports_generated_total", "PDF and WhatsApp reports generated", atomic.LoadInt64(&s.appMetrics.reports))
	counter("rate_limit_hits_total", "Total rate limit hits", rateLimitMetrics.TotalHits)
	counter("suspicious_requests_total", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.appMetrics.uptime).Seconds())
}
