package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleHealth is the liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.start).String(),
	})
}

// handleReady checks templates, the expense backend and every extra check.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)
	fail := func(name string, err error) {
		checks[name] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	if s.templates == nil {
		fail("templates", fmt.Errorf("templates not loaded"))
	} else {
		checks["templates"] = "ok"
	}

	if err := s.api.Ping(ctx); err != nil {
		fail("backend", err)
	} else {
		checks["backend"] = "ok"
	}

	for _, c := range s.checks {
		if err := c.Fn(ctx); err != nil {
			fail(c.Name, err)
			continue
		}
		checks[c.Name] = "ok"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	traceMetrics := s.trace.GetMetrics()
	rateMetrics := s.limiter.GetMetrics()
	apiStats := s.api.Stats()

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_response_time_avg_microseconds", "gauge", "Average response time", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP form_submissions_total Form submissions by outcome\n")
	fmt.Fprintf(w, "# TYPE form_submissions_total counter\n")
	fmt.Fprintf(w, "form_submissions_total{outcome=\"succeeded\"} %d\n", atomic.LoadInt64(&s.metrics.succeeded))
	fmt.Fprintf(w, "form_submissions_total{outcome=\"rejected\"} %d\n", atomic.LoadInt64(&s.metrics.rejected))
	fmt.Fprintf(w, "form_submissions_total{outcome=\"failed\"} %d\n\n", atomic.LoadInt64(&s.metrics.failed))

	metric("panel_toggles_total", "counter", "Panel toggles", atomic.LoadInt64(&s.metrics.toggles))
	metric("template_render_errors_total", "counter", "Failed template renders", atomic.LoadInt64(&s.metrics.renderErrs))
	metric("backend_calls_total", "counter", "Calls to the expense backend", apiStats.Calls)
	metric("backend_failures_total", "counter", "Failed calls to the expense backend", apiStats.Failures)
	metric("rate_limit_hits_total", "counter", "Requests refused by the rate limiter", rateMetrics.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Clients tracked by the rate limiter", rateMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Requests flagged as suspicious", s.detector.SuspiciousRequests())
	if s.sessionCount != nil {
		metric("active_sessions", "gauge", "Sessions held in memory", s.sessionCount())
	}
	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", time.Since(s.metrics.start).Seconds()))
}
