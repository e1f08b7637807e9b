package metrics

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	TransfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "transfers_total", Help: "Transfer submission attempts by outcome"},
		[]string{"status"},
	)
	AmountSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "transfer_amount_sent_total", Help: "Native token accepted for submission, in display units"},
	)
	NextNonce = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "transfer_next_nonce", Help: "Local nonce the next transaction will use"},
	)
	PacingSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "transfer_pacing_seconds",
			Help:    "Delays requested between transfers",
			Buckets: []float64{15, 30, 45, 60, 75, 90, 105, 120},
		},
	)
)

func init() {
	prometheus.MustRegister(TransfersTotal, AmountSentTotal, NextNonce, PacingSeconds)
}

// Serve binds addr before returning so a busy port is reported to the caller.
// Errors after startup are logged.
func Serve(addr string, log zerolog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen metrics %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: ln.Addr().String(), Handler: mux}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Msgf("metrics server stopped: %v", err)
		}
	}()
	return srv, nil
}
