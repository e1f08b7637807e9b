package metrics

import (
	"io"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

func TestServeRegistersMetrics(t *testing.T) {
	srv, err := Serve("127.0.0.1:0", zerolog.Nop())
	if err != nil {
		t.Fatalf("Serve error: %v", err)
	}
	defer srv.Close()

	TransfersTotal.WithLabelValues("sent").Inc()
	NextNonce.Set(4)
	PacingSeconds.Observe(30)

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	want := map[string]bool{"transfers_total": false, "transfer_next_nonce": false, "transfer_pacing_seconds": false}
	for _, mf := range mfs {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("%s metric not found", name)
		}
	}

	resp, err := http.Get("http://" + srv.Addr + "/metrics")
	if err != nil {
		t.Fatalf("scrape metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "transfer_next_nonce 4") {
		t.Fatalf("expected next nonce in scrape output")
	}
}

func TestServeReportsBusyAddress(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer busy.Close()

	srv, err := Serve(busy.Addr().String(), zerolog.Nop())
	if err == nil {
		srv.Close()
		t.Fatalf("expected error for address already in use")
	}
}
