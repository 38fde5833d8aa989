package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/robfig/cron/v3"
)

var Logger = logger.GetLogger("server")

// RPCServer ties the database, the command processor and a transport
// together.
type RPCServer struct {
	config    common.ServerConfig
	transport transport.IRPCServerTransport
	metrics   *Metrics
	processor *Processor
}

// NewRPCServer creates a new RPC server
// It takes a config and a transport as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//	)
//
//	if err := s.Serve(ctx); err != nil {
//		panic(err)
//	}
func NewRPCServer(config common.ServerConfig, transport transport.IRPCServerTransport) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	metrics := NewMetrics()
	return &RPCServer{
		config:    config,
		transport: transport,
		metrics:   metrics,
		processor: NewProcessor(db.New(), config.MaxMessageSize, metrics),
	}
}

// Metrics returns the metric set of the server
func (s *RPCServer) Metrics() *Metrics {
	return s.metrics
}

// Serve initializes logging and the side services (metrics endpoint, stats
// reporter) and runs the transport until ctx is cancelled or the process
// receives SIGINT or SIGTERM.
func (s *RPCServer) Serve(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := common.InitLoggers(s.config.Log); err != nil {
		return fmt.Errorf("failed to init loggers: %w", err)
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(s.config.String())

	// Configure the transport layer
	s.transport.RegisterHandler(s.processor.Handle)
	s.metrics.RegisterTransport(s.transport.Stats())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if s.config.MetricsEndpoint != "" {
		srv := s.startMetricsServer()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if s.config.StatsInterval != "" {
		c := cron.New()
		if _, err := c.AddFunc(s.config.StatsInterval, s.reportStats); err != nil {
			return fmt.Errorf("invalid stats interval %q: %w", s.config.StatsInterval, err)
		}
		c.Start()
		defer c.Stop()
	}

	err := s.transport.Listen(ctx, s.config)
	Logger.Infof("rKV server stopped")
	s.reportStats()
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// startMetricsServer serves /metrics and the pprof handlers
func (s *RPCServer) startMetricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	srv := &http.Server{
		Addr:              s.config.MetricsEndpoint,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		Logger.Infof("Starting metrics server on %s", s.config.MetricsEndpoint)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("Metrics server failed: %v", err)
		}
	}()
	return srv
}

// reportStats logs one line with the current counters
func (s *RPCServer) reportStats() {
	stats := s.transport.Stats()
	Logger.Infof("stats: keys=%d active_conns=%d accepted=%d rejected=%d requests=%d protocol_errors=%d bytes_in=%d bytes_out=%d reply_mean=%dB reply_p50=%dB reply_p99=%dB",
		s.metrics.Keys(),
		stats.Active.Value(),
		stats.Accepted.Value(),
		stats.Rejected.Value(),
		stats.Requests.Value(),
		stats.ProtocolErrors.Value(),
		stats.BytesIn.Value(),
		stats.BytesOut.Value(),
		s.metrics.Replies().Mean(),
		s.metrics.Replies().Percentile(50),
		s.metrics.Replies().Percentile(99),
	)
	Logger.Debugf("stats: reply sizes %s", s.metrics.Replies())
}
