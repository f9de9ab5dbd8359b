package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cutoutd/internal/session"
)

func scrape(t *testing.T) []byte {
	t.Helper()
	mrr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(mrr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if mrr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", mrr.Code)
	}
	return mrr.Body.Bytes()
}

// TestMetricsMiddleware_UsesRoutePattern ensures requests are labeled by the
// chi route pattern instead of the raw URL path.
func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	svc := newMockService()
	h := NewMux(svc)
	rr := do(t, h, http.MethodDelete, "/history/some-random-id", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}

	body := scrape(t)
	if !bytes.Contains(body, []byte("cutoutd_http_requests_total")) || !bytes.Contains(body, []byte(`path="/history/{id}"`)) {
		preview := body
		if len(preview) > 400 {
			preview = preview[:400]
		}
		t.Fatalf("expected metrics to contain cutoutd_http_requests_total with '/history/{id}'; got: %q", string(preview))
	}
	if bytes.Contains(body, []byte("some-random-id")) {
		t.Fatalf("raw path leaked into metric labels")
	}
}

func TestMetricsPublisher_TracksSession(t *testing.T) {
	sess := session.New(session.Config{Publisher: MetricsPublisher{}})
	sess.SetDownloadProgress(5, 10)
	sess.SetOriginalImage("A")
	sess.SetResultImage("B")
	sess.Complete()

	body := scrape(t)
	for _, want := range []string{
		`cutoutd_session_phase{phase="done"} 1`,
		`cutoutd_session_phase{phase="idle"} 0`,
		`cutoutd_session_cycles_total{outcome="done"}`,
		`cutoutd_session_history_items 1`,
		`cutoutd_download_bytes{kind="total"} 10`,
	} {
		if !bytes.Contains(body, []byte(want)) {
			t.Fatalf("missing %q in metrics", want)
		}
	}
}
