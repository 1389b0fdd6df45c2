package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObservers(t *testing.T) {
	m := New(nil)
	m.ObserveExport("success")
	m.ObserveExport("success")
	m.ObserveExport("failure")
	m.ObservePass("warmup", 10*time.Millisecond, nil)
	m.ObservePass("capture", 20*time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(m.ExportsTotal.WithLabelValues("success")); got != 2 {
		t.Fatalf("success exports = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ExportsTotal.WithLabelValues("failure")); got != 1 {
		t.Fatalf("failed exports = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.ExportPassDuration); n != 2 {
		t.Fatalf("pass series = %d, want 2", n)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New(nil)
	m.ActiveSessions.Set(3)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "posterqr_active_sessions 3") {
		t.Fatalf("metrics output missing gauge:\n%s", rec.Body.String())
	}
}
