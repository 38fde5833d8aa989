package base

import (
	"errors"
	"io"

	"golang.org/x/sys/unix"
)

// ErrWouldBlock is returned by a non-blocking Socket when the operation
// cannot make progress without waiting.
var ErrWouldBlock = errors.New("operation would block")

// Socket is the byte stream a Conn operates on. Implementations must never
// block: Read and Write return ErrWouldBlock instead. A clean end of stream
// is reported by Read as io.EOF.
type Socket interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// fdSocket is a Socket on top of a non-blocking file descriptor
type fdSocket struct {
	fd int
}

// NewFdSocket wraps a non-blocking file descriptor
func NewFdSocket(fd int) Socket {
	return &fdSocket{fd: fd}
}

func (s *fdSocket) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(s.fd, p)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
			return 0, ErrWouldBlock
		case err != nil:
			return 0, err
		case n == 0 && len(p) > 0:
			return 0, io.EOF
		}
		return n, nil
	}
}

func (s *fdSocket) Write(p []byte) (int, error) {
	for {
		n, err := unix.Write(s.fd, p)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
			return 0, ErrWouldBlock
		case err != nil:
			return 0, err
		}
		return n, nil
	}
}

func (s *fdSocket) Close() error {
	return unix.Close(s.fd)
}
