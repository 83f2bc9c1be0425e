package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveUpstream("/analytics/sales/summary", nil)
	metrics.ObserveCache("hit")

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	metrics.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}

	body := rr.Body.String()
	if !strings.Contains(body, "insights_upstream_requests_total") {
		t.Fatalf("expected body to contain insights_upstream_requests_total, got: %s", body)
	}
	if !strings.Contains(body, "insights_cache_events_total{result=\"hit\"} 1") {
		t.Fatalf("expected cache hit counter, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/dashboard/overview")

	req := httptest.NewRequest(http.MethodGet, "/dashboard/overview", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsRR := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(metricsRR, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	metricsBody := metricsRR.Body.String()
	if !strings.Contains(metricsBody, "insights_http_requests_total{code=\"418\",route=\"/dashboard/overview\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, "insights_http_request_duration_seconds_bucket{route=\"/dashboard/overview\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", metricsBody)
	}
}

func TestObserveUpstreamSplitsOutcome(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveUpstream("/analytics/sales/trend", nil)
	metrics.ObserveUpstream("/analytics/sales/trend", errors.New("boom"))

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rr.Body.String()
	if !strings.Contains(body, "insights_upstream_requests_total{endpoint=\"/analytics/sales/trend\",outcome=\"ok\"} 1") {
		t.Fatalf("expected ok counter, got: %s", body)
	}
	if !strings.Contains(body, "insights_upstream_requests_total{endpoint=\"/analytics/sales/trend\",outcome=\"error\"} 1") {
		t.Fatalf("expected error counter, got: %s", body)
	}
}
