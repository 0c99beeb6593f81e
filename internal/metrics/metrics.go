// Package metrics holds the prometheus collectors for studify.
package metrics

import (
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Gateway metrics
	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studify_gateway_requests_total",
			Help: "Total backend session requests by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	GatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studify_gateway_request_duration_seconds",
			Help:    "Backend session request duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	// Lifecycle metrics
	SessionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studify_session_transitions_total",
			Help: "Controller state transitions",
		},
		[]string{"from", "to"},
	)

	SessionsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studify_sessions_completed_total",
			Help: "Sessions ended successfully by kind",
		},
		[]string{"kind"},
	)

	// Cache metrics
	HistoryCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "studify_history_cache_hits_total",
			Help: "History page cache hits",
		},
	)

	HistoryCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "studify_history_cache_misses_total",
			Help: "History page cache misses",
		},
	)
)

func init() {
	prometheus.MustRegister(
		GatewayRequestsTotal,
		GatewayRequestDuration,
		SessionTransitions,
		SessionsCompleted,
		HistoryCacheHits,
		HistoryCacheMisses,
	)
}

// ObserveGateway records one gateway call.
func ObserveGateway(op, outcome string, elapsed time.Duration) {
	GatewayRequestsTotal.WithLabelValues(op, outcome).Inc()
	GatewayRequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Starting metrics server")
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
