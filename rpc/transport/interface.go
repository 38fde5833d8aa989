package transport

import (
	"context"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests.
// It is called by a server transport for every complete request with the
// parsed argument list. The argument slices are only valid during the call.
type ServerHandleFunc func(args [][]byte) common.Value

// IRPCServerTransport is the interface for the server side transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers the handler that executes requests
	RegisterHandler(handler ServerHandleFunc)
	// Listen binds the configured endpoint and serves connections until ctx
	// is cancelled or a fatal error occurs
	Listen(ctx context.Context, config common.ServerConfig) error
	// Stats returns the live connection counters of the transport
	Stats() *Stats
}

// Stats holds counters that the transport updates and other goroutines
// (metrics exporter, stats reporter) read concurrently.
type Stats struct {
	Accepted       *xsync.Counter
	Rejected       *xsync.Counter // refused because of the connection cap
	Closed         *xsync.Counter
	Active         *xsync.Counter
	Requests       *xsync.Counter
	ProtocolErrors *xsync.Counter
	BytesIn        *xsync.Counter
	BytesOut       *xsync.Counter
}

// NewStats creates a zeroed set of counters
func NewStats() *Stats {
	return &Stats{
		Accepted:       xsync.NewCounter(),
		Rejected:       xsync.NewCounter(),
		Closed:         xsync.NewCounter(),
		Active:         xsync.NewCounter(),
		Requests:       xsync.NewCounter(),
		ProtocolErrors: xsync.NewCounter(),
		BytesIn:        xsync.NewCounter(),
		BytesOut:       xsync.NewCounter(),
	}
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the client side transport layer
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends one request and returns its reply
	Send(args [][]byte) (common.Value, error)
	// SendBatch pipelines several requests over one connection and returns
	// the replies in request order
	SendBatch(requests [][][]byte) ([]common.Value, error)
	// Close closes all connections
	Close() error
}
