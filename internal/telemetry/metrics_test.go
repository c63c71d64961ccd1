package telemetry

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetricsRegistry_Gathers(t *testing.T) {
	reg := NewMetricsRegistry()
	ObserveRequest(http.MethodGet, "/healthz", http.StatusOK, 5*time.Millisecond)
	CallsTotal.WithLabelValues("received").Inc()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	seen := map[string]bool{}
	for _, mf := range mfs {
		seen[mf.GetName()] = true
	}
	for _, name := range []string{"missedcall_api_request_duration_seconds", "missedcall_calls_total"} {
		if !seen[name] {
			t.Fatalf("expected %s in registry output", name)
		}
	}
	if got := testutil.ToFloat64(CallsTotal.WithLabelValues("received")); got < 1 {
		t.Fatalf("expected counter to be incremented, got %v", got)
	}
}
