package tcp

import (
	"fmt"
	"net"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport/base"
	"golang.org/x/sys/unix"
)

// serverConnector implements the IServerConnector interface for TCP sockets
type serverConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IServerConnector)
// --------------------------------------------------------------------------

func (c *serverConnector) GetName() string {
	return "tcp"
}

func (c *serverConnector) Listen(config common.ServerConfig) (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", config.Endpoint)
	if err != nil {
		return -1, fmt.Errorf("invalid endpoint %q: %w", config.Endpoint, err)
	}

	// Build the socket address for the resolved family
	var (
		domain int
		sa     unix.Sockaddr
	)
	if ip4 := addr.IP.To4(); addr.IP == nil || ip4 != nil {
		sa4 := &unix.SockaddrInet4{Port: addr.Port}
		copy(sa4.Addr[:], ip4)
		domain, sa = unix.AF_INET, sa4
	} else {
		sa6 := &unix.SockaddrInet6{Port: addr.Port}
		copy(sa6.Addr[:], addr.IP.To16())
		domain, sa = unix.AF_INET6, sa6
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, fmt.Errorf("failed to create TCP socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return -1, fmt.Errorf("failed to set SO_REUSEADDR: %w", err)
	}
	return base.ListenFd(fd, sa)
}

// UpgradeConnection applies performance optimizations to an accepted TCP
// connection using configuration values from TCPConf and SocketConf
func (c *serverConnector) UpgradeConnection(fd int, config common.ServerConfig) error {
	// Disable Nagle's algorithm (TCPNoDelay) if configured
	if config.TCP.TCPNoDelay {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
			return fmt.Errorf("set TCP_NODELAY: %w", err)
		}
	}

	// Enable TCP keep-alive if configured, probes use the OS interval
	if config.TCP.TCPKeepAliveSec > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); err != nil {
			return fmt.Errorf("set SO_KEEPALIVE: %w", err)
		}
	}

	// Set TCP linger option if configured
	if config.TCP.TCPLingerSec > 0 {
		linger := &unix.Linger{Onoff: 1, Linger: int32(config.TCP.TCPLingerSec)}
		if err := unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, linger); err != nil {
			return fmt.Errorf("set SO_LINGER: %w", err)
		}
	}

	return base.ApplySocketConf(fd, config.Socket)
}

// --------------------------------------------------------------------------
// Server Transport Factory Method
// --------------------------------------------------------------------------

// NewTCPServerTransport creates a new TCP server transport
func NewTCPServerTransport() *base.ServerTransport {
	return base.NewBaseServerTransport(&serverConnector{})
}
