package metrics

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestObserveGateway(t *testing.T) {
	before := testutil.ToFloat64(GatewayRequestsTotal.WithLabelValues("pause", "conflict"))
	ObserveGateway("pause", "conflict", 30*time.Millisecond)
	after := testutil.ToFloat64(GatewayRequestsTotal.WithLabelValues("pause", "conflict"))

	if after-before != 1 {
		t.Errorf("counter delta = %v, want 1", after-before)
	}
}

func TestServerServesMetrics(t *testing.T) {
	srv := NewServer("127.0.0.1:0", zerolog.Nop())
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() { _ = srv.Stop() }()

	ObserveGateway("stats", "ok", time.Millisecond)

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "studify_gateway_requests_total") {
		t.Error("/metrics does not expose studify_gateway_requests_total")
	}
}
