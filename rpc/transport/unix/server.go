package unix

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport/base"
	sysunix "golang.org/x/sys/unix"
)

// serverConnector implements the IServerConnector interface for Unix sockets
type serverConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IServerConnector)
// --------------------------------------------------------------------------

func (c *serverConnector) GetName() string {
	return "unix"
}

func (c *serverConnector) Listen(config common.ServerConfig) (int, error) {
	socketPath := config.Endpoint

	// Remove existing socket file if it exists
	if err := os.RemoveAll(socketPath); err != nil {
		return -1, fmt.Errorf("failed to remove existing socket: %w", err)
	}

	// Create Unix socket listener
	fd, err := sysunix.Socket(sysunix.AF_UNIX, sysunix.SOCK_STREAM, 0)
	if err != nil {
		return -1, fmt.Errorf("failed to create Unix socket: %w", err)
	}
	return base.ListenFd(fd, &sysunix.SockaddrUnix{Name: socketPath})
}

func (c *serverConnector) UpgradeConnection(fd int, config common.ServerConfig) error {
	return base.ApplySocketConf(fd, config.Socket)
}

// --------------------------------------------------------------------------
// Server Transport Factory Method
// --------------------------------------------------------------------------

// NewUnixServerTransport creates a new Unix server transport
func NewUnixServerTransport() *base.ServerTransport {
	return base.NewBaseServerTransport(&serverConnector{})
}
