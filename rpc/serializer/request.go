package serializer

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ValentinKolb/rKV/rpc/common"
)

// ErrMalformedRequest is returned when a request body cannot be parsed into
// an argument list. The server closes the connection on this error.
var ErrMalformedRequest = errors.New("malformed request")

// --------------------------------------------------------------------------
// Requests
// --------------------------------------------------------------------------

// RequestBodySize returns the size of a request body (without the frame
// header) carrying args.
func RequestBodySize(args [][]byte) int {
	n := lenSize
	for _, a := range args {
		n += lenSize + len(a)
	}
	return n
}

// AppendRequest appends a complete request frame
// [u32 body len][u32 nargs]{[u32 len][bytes]} to dst.
func AppendRequest(dst []byte, args [][]byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(RequestBodySize(args)))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(args)))
	for _, a := range args {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(a)))
		dst = append(dst, a...)
	}
	return dst
}

// StringArgs converts command line style arguments into request arguments.
func StringArgs(args ...string) [][]byte {
	out := make([][]byte, len(args))
	for i, a := range args {
		out[i] = []byte(a)
	}
	return out
}

// ParseRequest splits a request body into its arguments. The returned
// slices alias body. A declared argument count above maxArgs, a truncated
// argument or trailing bytes after the last argument are rejected.
func ParseRequest(body []byte, maxArgs int) ([][]byte, error) {
	if len(body) < lenSize {
		return nil, fmt.Errorf("%w: missing argument count", ErrMalformedRequest)
	}
	n := binary.LittleEndian.Uint32(body)
	if int64(n) > int64(maxArgs) {
		return nil, fmt.Errorf("%w: %d arguments exceed the limit of %d", ErrMalformedRequest, n, maxArgs)
	}

	args := make([][]byte, 0, n)
	pos := lenSize
	for i := uint32(0); i < n; i++ {
		if len(body)-pos < lenSize {
			return nil, fmt.Errorf("%w: truncated length of argument %d", ErrMalformedRequest, i)
		}
		size := int(binary.LittleEndian.Uint32(body[pos:]))
		pos += lenSize
		if len(body)-pos < size {
			return nil, fmt.Errorf("%w: truncated argument %d", ErrMalformedRequest, i)
		}
		args = append(args, body[pos:pos+size])
		pos += size
	}
	if pos != len(body) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedRequest, len(body)-pos)
	}
	return args, nil
}

// --------------------------------------------------------------------------
// Responses
// --------------------------------------------------------------------------

// AppendResponse appends a complete response frame [u32 len][value] to dst.
func AppendResponse(dst []byte, v common.Value) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(EncodedSize(v)))
	return AppendValue(dst, v)
}

// FrameLength reads the little-endian length prefix of a frame. ok is false
// if fewer than four bytes are available.
func FrameLength(b []byte) (n uint32, ok bool) {
	if len(b) < common.HeaderSize {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}
