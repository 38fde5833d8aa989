package base

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a bound, listening and non-blocking socket and returns
	// its descriptor
	Listen(config common.ServerConfig) (int, error)

	// UpgradeConnection applies protocol-specific options to an accepted
	// descriptor
	UpgradeConnection(fd int, config common.ServerConfig) error

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// ServerTransport implements the core server transport functionality: it
// asks the connector for a listener and runs an EventLoop on it.
type ServerTransport struct {
	connector IServerConnector
	handler   transport.ServerHandleFunc
	stats     *transport.Stats
	addr      atomic.Pointer[string]
}

var _ transport.IRPCServerTransport = (*ServerTransport)(nil)

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport for the connector
func NewBaseServerTransport(connector IServerConnector) *ServerTransport {
	return &ServerTransport{
		connector: connector,
		stats:     transport.NewStats(),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *ServerTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *ServerTransport) Listen(ctx context.Context, config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}

	// Create listener using the connector
	fd, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create %s listener on %s: %w", t.connector.GetName(), config.Endpoint, err)
	}

	loop := NewEventLoop(fd, config, t.handler, t.stats, func(fd int) error {
		return t.connector.UpgradeConnection(fd, config)
	})
	addr := loop.Addr()
	t.addr.Store(&addr)

	Logger.Infof("Starting %s server on %s (max message size %d bytes)", t.connector.GetName(), addr, config.MaxMessageSize)
	return loop.Serve(ctx)
}

func (t *ServerTransport) Stats() *transport.Stats {
	return t.stats
}

// Addr returns the bound listener address, or "" before Listen bound it
func (t *ServerTransport) Addr() string {
	if p := t.addr.Load(); p != nil {
		return *p
	}
	return ""
}
