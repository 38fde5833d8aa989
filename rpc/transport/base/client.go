package base

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/serializer"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("transport")

var (
	// ErrRequestTooLarge is returned for requests the server would reject
	ErrRequestTooLarge = errors.New("request exceeds max message size")
	// ErrTransportClosed is returned after Close
	ErrTransportClosed = errors.New("transport is closed")
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientConnection is one connection of the pool. The protocol answers
// requests in order, so a connection serves one caller at a time.
type clientConnection struct {
	endpoint string
	conn     net.Conn // nil until dialed or after a failure
	reader   *bufio.Reader
	wbuf     []byte
	rbuf     []byte
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector      IClientConnector
	config         common.ClientConfig
	maxMessageSize int
	endpoints      []string
	// idle connections per endpoint; taking one from the channel grants
	// exclusive use until it is put back
	pools         *xsync.MapOf[string, chan *clientConnection]
	nextConnIndex atomic.Uint64
	closed        atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
		pools:     xsync.NewMapOf[string, chan *clientConnection](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Close all existing connections
	t.closeConnections()
	t.closed.Store(false)

	t.config = config
	t.endpoints = append([]string(nil), config.Transport.Endpoints...)
	t.maxMessageSize = config.Transport.MaxMessageSize
	if t.maxMessageSize <= 0 {
		t.maxMessageSize = common.DefaultMaxMessageSize
	}

	// Set default value for ConnectionsPerEndpoint
	connectionsPerEP := max(1, config.Transport.ConnectionsPerEndpoint)

	connected := 0
	for _, endpoint := range t.endpoints {
		pool := make(chan *clientConnection, connectionsPerEP)
		for i := 0; i < connectionsPerEP; i++ {
			c := &clientConnection{endpoint: endpoint}

			// Establish the initial connection, failed ones are retried on use
			if err := c.dial(t); err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, connectionsPerEP, err)
			} else {
				connected++
			}
			pool <- c
		}
		t.pools.Store(endpoint, pool)
	}

	// Check if we have at least one connection
	if connected == 0 {
		t.closeConnections()
		return fmt.Errorf("failed to connect to any endpoint")
	}

	Logger.Infof("Connected %d out of %d connections to %d endpoints using %s transport",
		connected, len(t.endpoints)*connectionsPerEP, len(t.endpoints), t.connector.GetName())
	return nil
}

func (t *clientTransport) Send(args [][]byte) (common.Value, error) {
	replies, err := t.SendBatch([][][]byte{args})
	if err != nil {
		return common.Value{}, err
	}
	return replies[0], nil
}

func (t *clientTransport) SendBatch(requests [][][]byte) ([]common.Value, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}
	if len(requests) == 0 {
		return []common.Value{}, nil
	}
	for _, args := range requests {
		if size := serializer.RequestBodySize(args); size > t.maxMessageSize {
			return nil, fmt.Errorf("%w: %d > %d bytes", ErrRequestTooLarge, size, t.maxMessageSize)
		}
	}

	// Retry logic with exponential backoff
	var lastErr error

	// We always try at least once, and up to maxRetries times
	maxRetries := max(1, t.config.Transport.RetryCount)

	// Initial backoff duration in milliseconds
	backoffMs := 50

	for i := 0; i < maxRetries; i++ {
		replies, err := t.roundTrip(t.nextEndpoint(), requests)
		if err == nil {
			return replies, nil
		}
		if errors.Is(err, ErrTransportClosed) {
			return nil, err
		}

		lastErr = err
		Logger.Debugf("Request attempt %d/%d failed: %v", i+1, maxRetries, err)

		if i < maxRetries-1 {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			time.Sleep(time.Duration(jitter) * time.Millisecond)
			backoffMs *= 2
		}
	}

	// All attempts failed
	return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, lastErr)
}

func (t *clientTransport) Close() error {
	t.closed.Store(true)
	t.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// nextEndpoint selects the next endpoint via Round Robin
func (t *clientTransport) nextEndpoint() string {
	if len(t.endpoints) == 1 {
		return t.endpoints[0]
	}
	return t.endpoints[t.nextConnIndex.Add(1)%uint64(len(t.endpoints))]
}

// roundTrip borrows a connection of the endpoint and exchanges the batch
func (t *clientTransport) roundTrip(endpoint string, requests [][][]byte) ([]common.Value, error) {
	pool, ok := t.pools.Load(endpoint)
	if !ok {
		return nil, ErrTransportClosed
	}

	var c *clientConnection
	if timeout := t.config.Timeout(); timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case c = <-pool:
		case <-timer.C:
			return nil, fmt.Errorf("no idle connection to %s within %s", endpoint, timeout)
		}
	} else {
		c = <-pool
	}
	defer t.release(pool, c)

	replies, err := c.exchange(t, requests)
	if err != nil {
		c.close()
	}
	return replies, err
}

// release puts a connection back or closes it if the transport is closed
func (t *clientTransport) release(pool chan *clientConnection, c *clientConnection) {
	if t.closed.Load() {
		c.close()
	}
	pool <- c
}

// closeConnections closes all idle connections and forgets the pools.
// After Close, borrowed connections are closed on release.
func (t *clientTransport) closeConnections() {
	t.pools.Range(func(_ string, pool chan *clientConnection) bool {
		for {
			select {
			case c := <-pool:
				c.close()
			default:
				return true
			}
		}
	})
	t.pools.Clear()
}

// dial establishes the connection to the endpoint
func (c *clientConnection) dial(t *clientTransport) error {
	conn, err := t.connector.Connect(c.endpoint)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}

	// Upgrade the connection with protocol-specific settings
	if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to upgrade connection to %s: %w", c.endpoint, err)
	}

	c.conn = conn
	c.reader = bufio.NewReaderSize(conn, common.HeaderSize+t.maxMessageSize)
	return nil
}

// exchange writes all requests and reads one reply per request. Writing
// runs concurrently with reading so large batches cannot deadlock against
// the server's bounded output buffer.
func (c *clientConnection) exchange(t *clientTransport, requests [][][]byte) ([]common.Value, error) {
	if c.conn == nil {
		if err := c.dial(t); err != nil {
			return nil, err
		}
	}

	if timeout := t.config.Timeout(); timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			return nil, err
		}
	}

	writeErr := make(chan error, 1)
	go func() {
		var err error
		c.wbuf, err = writeRequests(c.conn, c.wbuf, requests)
		writeErr <- err
	}()

	replies := make([]common.Value, len(requests))
	var err error
	for i := range requests {
		replies[i], c.rbuf, err = readResponse(c.reader, c.rbuf, t.maxMessageSize)
		if err != nil {
			// unblock the writer before waiting for it
			_ = c.conn.Close()
			<-writeErr
			return nil, fmt.Errorf("read from %s: %w", c.endpoint, err)
		}
	}
	if err := <-writeErr; err != nil {
		return nil, fmt.Errorf("write to %s: %w", c.endpoint, err)
	}
	return replies, nil
}

// close closes the underlying connection, the next use redials
func (c *clientConnection) close() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
}
