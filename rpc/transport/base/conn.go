package base

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/serializer"
	"github.com/ValentinKolb/rKV/rpc/transport"
)

// ErrFrameTooLarge is the close reason of a connection whose peer declared a
// frame longer than the max message size.
var ErrFrameTooLarge = errors.New("frame exceeds max message size")

// ConnState is the state of a server connection
type ConnState int

const (
	StateReading ConnState = iota // waiting for request bytes
	StateWriting                  // flushing buffered replies
	StateClosing                  // done, the event loop closes and forgets it
)

func (s ConnState) String() string {
	switch s {
	case StateReading:
		return "reading"
	case StateWriting:
		return "writing"
	case StateClosing:
		return "closing"
	default:
		return fmt.Sprintf("ConnState(%d)", int(s))
	}
}

// Conn is the per connection state machine of the server. It owns a bounded
// read buffer and an output buffer, parses pipelined request frames, hands
// them to the handler and queues the framed replies.
//
// Thread-safety: a Conn is driven by the event loop goroutine only.
type Conn struct {
	id     uint64
	remote string
	sock   Socket
	state  ConnState
	err    error // close reason, nil for a clean close

	handler        transport.ServerHandleFunc
	stats          *transport.Stats
	maxMessageSize int

	rbuf []byte // fixed size: one header plus the largest body
	rpos int    // start of unconsumed data
	rlen int    // end of buffered data

	wbuf  []byte
	wsent int

	lastActive time.Time
}

// NewConn creates a connection in StateReading. stats may be nil.
func NewConn(id uint64, sock Socket, remote string, maxMessageSize int, handler transport.ServerHandleFunc, stats *transport.Stats) *Conn {
	frame := common.HeaderSize + maxMessageSize
	if stats == nil {
		stats = transport.NewStats()
	}
	return &Conn{
		id:             id,
		remote:         remote,
		sock:           sock,
		state:          StateReading,
		handler:        handler,
		stats:          stats,
		maxMessageSize: maxMessageSize,
		rbuf:           make([]byte, frame),
		wbuf:           make([]byte, 0, 2*frame),
		lastActive:     time.Now(),
	}
}

// ID returns the connection id assigned by the event loop
func (c *Conn) ID() uint64 { return c.id }

// RemoteAddr returns the peer address used in log messages
func (c *Conn) RemoteAddr() string { return c.remote }

// State returns the current state
func (c *Conn) State() ConnState { return c.state }

// Err returns why the connection entered StateClosing. It is nil for a
// clean close by the peer.
func (c *Conn) Err() error { return c.err }

// LastActive returns the time of the last successful read or write
func (c *Conn) LastActive() time.Time { return c.lastActive }

// Pending returns the number of reply bytes not yet written
func (c *Conn) Pending() int { return len(c.wbuf) - c.wsent }

// Step advances the state machine after the socket became ready
func (c *Conn) Step() {
	switch c.state {
	case StateReading:
		c.handleRead()
	case StateWriting:
		c.handleWrite()
	}
}

// Shutdown moves the connection to StateClosing with the given reason
func (c *Conn) Shutdown(reason error) {
	if c.state == StateClosing {
		return
	}
	c.state = StateClosing
	c.err = reason
}

// Close releases the socket
func (c *Conn) Close() error {
	c.Shutdown(nil)
	return c.sock.Close()
}

// --------------------------------------------------------------------------
// State handlers
// --------------------------------------------------------------------------

// handleRead drains the socket until it would block, processing complete
// frames after every read.
func (c *Conn) handleRead() {
	for c.state == StateReading {
		if c.rlen == len(c.rbuf) {
			// a full buffer always starts with a complete frame
			c.Shutdown(ErrFrameTooLarge)
			return
		}

		n, err := c.sock.Read(c.rbuf[c.rlen:])
		if errors.Is(err, ErrWouldBlock) {
			return
		}
		if errors.Is(err, io.EOF) {
			if c.rlen > c.rpos {
				c.Shutdown(io.ErrUnexpectedEOF)
			} else {
				c.Shutdown(nil)
			}
			return
		}
		if err != nil {
			c.Shutdown(fmt.Errorf("read: %w", err))
			return
		}

		c.rlen += n
		c.stats.BytesIn.Add(int64(n))
		c.lastActive = time.Now()

		c.processFrames()
		if c.state == StateWriting {
			c.handleWrite()
		}
	}
}

// handleWrite flushes the output buffer. Once it is empty the connection
// goes back to reading and serves any frames still buffered.
func (c *Conn) handleWrite() {
	for c.state == StateWriting {
		n, err := c.sock.Write(c.wbuf[c.wsent:])
		if errors.Is(err, ErrWouldBlock) {
			return
		}
		if err != nil {
			c.Shutdown(fmt.Errorf("write: %w", err))
			return
		}

		c.wsent += n
		c.stats.BytesOut.Add(int64(n))
		c.lastActive = time.Now()
		if c.wsent < len(c.wbuf) {
			continue
		}

		c.wbuf = c.wbuf[:0]
		c.wsent = 0
		c.state = StateReading
		c.processFrames()
	}
}

// processFrames executes every complete frame in the read buffer. It stops
// early once the output buffer holds a full size reply, so the output
// stays bounded; the rest is served after the next flush.
func (c *Conn) processFrames() {
	limit := common.HeaderSize + c.maxMessageSize
	for c.state != StateClosing && len(c.wbuf) < limit {
		if !c.processFrame() {
			break
		}
	}

	if c.rpos > 0 {
		c.rlen = copy(c.rbuf, c.rbuf[c.rpos:c.rlen])
		c.rpos = 0
	}
	if c.state == StateReading && len(c.wbuf) > 0 {
		c.state = StateWriting
	}
}

// processFrame parses and executes the frame at rpos. It returns false if
// the buffer holds no complete frame or the connection is closing.
func (c *Conn) processFrame() bool {
	data := c.rbuf[c.rpos:c.rlen]
	bodyLen, ok := serializer.FrameLength(data)
	if !ok {
		return false
	}
	if int(bodyLen) > c.maxMessageSize {
		c.stats.ProtocolErrors.Inc()
		c.Shutdown(fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, bodyLen, c.maxMessageSize))
		return false
	}
	end := common.HeaderSize + int(bodyLen)
	if len(data) < end {
		return false
	}

	args, err := serializer.ParseRequest(data[common.HeaderSize:end], c.maxMessageSize)
	if err != nil {
		c.stats.ProtocolErrors.Inc()
		c.Shutdown(err)
		return false
	}

	reply := c.handler(args)
	c.wbuf = serializer.AppendResponse(c.wbuf, reply)
	c.rpos += end
	c.stats.Requests.Inc()
	return true
}
