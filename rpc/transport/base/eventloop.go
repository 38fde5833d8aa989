package base

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"golang.org/x/sys/unix"
)

var (
	errIdle     = errors.New("idle timeout")
	errStopping = errors.New("server stopping")
)

// UpgradeFunc applies transport specific socket options to an accepted
// descriptor
type UpgradeFunc func(fd int) error

// EventLoop multiplexes all connections of a listener on one goroutine with
// poll(2). Requests are executed inline, so the handler never runs
// concurrently with itself.
type EventLoop struct {
	listenFd int
	addr     string
	config   common.ServerConfig
	handler  transport.ServerHandleFunc
	stats    *transport.Stats
	upgrade  UpgradeFunc

	conns  map[int]*Conn
	nextID uint64

	// reused between cycles
	pollFds   []unix.PollFd
	pollConns []*Conn
}

// NewEventLoop creates a loop on a listening, non-blocking descriptor. The
// loop takes ownership of listenFd. upgrade may be nil.
func NewEventLoop(listenFd int, config common.ServerConfig, handler transport.ServerHandleFunc, stats *transport.Stats, upgrade UpgradeFunc) *EventLoop {
	if stats == nil {
		stats = transport.NewStats()
	}
	addr := config.Endpoint
	if sa, err := unix.Getsockname(listenFd); err == nil {
		addr = sockaddrString(sa)
	}
	return &EventLoop{
		listenFd: listenFd,
		addr:     addr,
		config:   config,
		handler:  handler,
		stats:    stats,
		upgrade:  upgrade,
		conns:    make(map[int]*Conn),
	}
}

// Addr returns the bound address of the listener
func (l *EventLoop) Addr() string { return l.addr }

// Len returns the number of open connections
func (l *EventLoop) Len() int { return len(l.conns) }

// Serve runs the loop until ctx is cancelled. Cancellation is checked once
// per cycle, so the poll timeout bounds the shutdown latency. All
// connections and the listener are closed on return.
func (l *EventLoop) Serve(ctx context.Context) error {
	defer l.shutdown()

	timeout := int(l.config.PollTimeout / time.Millisecond)
	if timeout <= 0 {
		timeout = 1000
	}

	for ctx.Err() == nil {
		if l.config.IdleTimeout > 0 {
			l.closeIdle(time.Now())
		}

		fds := l.buildPollFds()
		if _, err := unix.Poll(fds, timeout); err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("poll: %w", err)
		}

		for i, conn := range l.pollConns {
			revents := fds[i+1].Revents
			if revents == 0 {
				continue
			}
			if revents&unix.POLLNVAL != 0 {
				conn.Shutdown(errors.New("invalid descriptor"))
			} else {
				conn.Step()
			}
			if conn.State() == StateClosing {
				l.closeConn(int(fds[i+1].Fd))
			}
		}

		if fds[0].Revents&unix.POLLIN != 0 {
			l.acceptOne()
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// buildPollFds lists the listener first, then every connection with the
// event matching its state.
func (l *EventLoop) buildPollFds() []unix.PollFd {
	l.pollFds = append(l.pollFds[:0], unix.PollFd{Fd: int32(l.listenFd), Events: unix.POLLIN})
	l.pollConns = l.pollConns[:0]

	for fd, conn := range l.conns {
		events := int16(unix.POLLERR)
		if conn.State() == StateWriting {
			events |= unix.POLLOUT
		} else {
			events |= unix.POLLIN
		}
		l.pollFds = append(l.pollFds, unix.PollFd{Fd: int32(fd), Events: events})
		l.pollConns = append(l.pollConns, conn)
	}
	return l.pollFds
}

// acceptOne accepts a single pending connection
func (l *EventLoop) acceptOne() {
	fd, sa, err := unix.Accept(l.listenFd)
	if err != nil {
		if err != unix.EAGAIN && err != unix.EWOULDBLOCK && err != unix.EINTR {
			Logger.Errorf("Accept error: %v", err)
		}
		return
	}
	remote := sockaddrString(sa)

	if l.config.MaxConnections > 0 && len(l.conns) >= l.config.MaxConnections {
		l.stats.Rejected.Inc()
		Logger.Warningf("Rejected connection from %s, limit of %d connections reached", remote, l.config.MaxConnections)
		_ = unix.Close(fd)
		return
	}

	if err := prepareAccepted(fd); err != nil {
		Logger.Errorf("Failed to set up connection from %s: %v", remote, err)
		_ = unix.Close(fd)
		return
	}
	if l.upgrade != nil {
		if err := l.upgrade(fd); err != nil {
			Logger.Warningf("Failed to apply socket options to %s: %v", remote, err)
		}
	}

	l.nextID++
	conn := NewConn(l.nextID, NewFdSocket(fd), remote, l.config.MaxMessageSize, l.handler, l.stats)
	l.conns[fd] = conn
	l.stats.Accepted.Inc()
	l.stats.Active.Inc()
	Logger.Debugf("Accepted connection %d from %s", conn.ID(), remote)
}

// closeConn closes and forgets the connection on fd
func (l *EventLoop) closeConn(fd int) {
	conn, ok := l.conns[fd]
	if !ok {
		return
	}
	delete(l.conns, fd)
	l.release(conn)
}

// release closes the socket of a connection that is no longer in the map
func (l *EventLoop) release(conn *Conn) {
	reason := conn.Err()
	_ = conn.Close()
	l.stats.Closed.Inc()
	l.stats.Active.Dec()

	switch {
	case reason == nil:
		Logger.Debugf("Connection %d from %s closed by client", conn.ID(), conn.RemoteAddr())
	case errors.Is(reason, io.ErrUnexpectedEOF), errors.Is(reason, errIdle), errors.Is(reason, errStopping):
		Logger.Debugf("Connection %d from %s: %v", conn.ID(), conn.RemoteAddr(), reason)
	default:
		Logger.Warningf("Closing connection %d from %s: %v", conn.ID(), conn.RemoteAddr(), reason)
	}
}

// closeIdle closes connections without activity for longer than the idle
// timeout
func (l *EventLoop) closeIdle(now time.Time) {
	for fd, conn := range l.conns {
		if now.Sub(conn.LastActive()) > l.config.IdleTimeout {
			conn.Shutdown(fmt.Errorf("%w: no activity for %s", errIdle, l.config.IdleTimeout))
			delete(l.conns, fd)
			l.release(conn)
		}
	}
}

// shutdown closes every connection and the listener
func (l *EventLoop) shutdown() {
	for fd, conn := range l.conns {
		conn.Shutdown(errStopping)
		delete(l.conns, fd)
		l.release(conn)
	}
	if err := unix.Close(l.listenFd); err != nil {
		Logger.Warningf("Failed to close listener: %v", err)
	}
	Logger.Infof("Event loop on %s stopped", l.addr)
}
