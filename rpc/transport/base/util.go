package base

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/serializer"
	"golang.org/x/sys/unix"
)

// writeRequests frames every request into buf and writes it to w in one
// call. It returns the (possibly grown) buffer for reuse.
func writeRequests(w io.Writer, buf []byte, requests [][][]byte) ([]byte, error) {
	buf = buf[:0]
	for _, args := range requests {
		buf = serializer.AppendRequest(buf, args)
	}
	_, err := w.Write(buf)
	return buf, err
}

// responseCodec decodes response bodies, which hold exactly one value
var responseCodec = serializer.NewBinarySerializer()

// readResponse reads one response frame and decodes its value. buf is
// used for the body if it is large enough.
func readResponse(r *bufio.Reader, buf []byte, maxMessageSize int) (common.Value, []byte, error) {
	var header [common.HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return common.Value{}, buf, err
	}
	n, _ := serializer.FrameLength(header[:])
	if int(n) > maxMessageSize {
		return common.Value{}, buf, fmt.Errorf("%w: response of %d bytes", ErrFrameTooLarge, n)
	}

	if cap(buf) < int(n) {
		buf = make([]byte, n)
	}
	buf = buf[:n]
	if _, err := io.ReadFull(r, buf); err != nil {
		return common.Value{}, buf, err
	}

	v, err := responseCodec.Deserialize(buf)
	return v, buf, err
}

// prepareAccepted makes an accepted descriptor usable by the event loop
func prepareAccepted(fd int) error {
	if err := unix.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("set non-blocking: %w", err)
	}
	unix.CloseOnExec(fd)
	return nil
}

// ApplySocketConf sets the socket buffer sizes of fd. Zero values keep the
// OS defaults.
func ApplySocketConf(fd int, conf common.SocketConf) error {
	if conf.WriteBufferSize > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, conf.WriteBufferSize); err != nil {
			return fmt.Errorf("set write buffer: %w", err)
		}
	}
	if conf.ReadBufferSize > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, conf.ReadBufferSize); err != nil {
			return fmt.Errorf("set read buffer: %w", err)
		}
	}
	return nil
}

// ListenFd turns a bound socket into a non-blocking listener. The
// descriptor is closed if any step fails.
func ListenFd(fd int, sa unix.Sockaddr) (int, error) {
	fail := func(step string, err error) (int, error) {
		_ = unix.Close(fd)
		return -1, fmt.Errorf("%s: %w", step, err)
	}
	unix.CloseOnExec(fd)
	if err := unix.Bind(fd, sa); err != nil {
		return fail("bind", err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		return fail("listen", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return fail("set non-blocking", err)
	}
	return fd, nil
}

// sockaddrString formats a socket address for logs
func sockaddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	case *unix.SockaddrInet6:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	case *unix.SockaddrUnix:
		if a.Name == "" {
			return "unix"
		}
		return a.Name
	default:
		return "unknown"
	}
}
