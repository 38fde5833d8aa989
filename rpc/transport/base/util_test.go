package base

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/serializer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func responseFrame(body []byte) []byte {
	frame := make([]byte, common.HeaderSize, common.HeaderSize+len(body))
	binary.LittleEndian.PutUint32(frame, uint32(len(body)))
	return append(frame, body...)
}

func TestReadResponse(t *testing.T) {
	want := common.NewArrValue(common.NewStringValue("a"), common.NewDblValue(1))
	body := serializer.AppendValue(nil, want)

	t.Run("Valid", func(t *testing.T) {
		r := bufio.NewReader(bytes.NewReader(responseFrame(body)))
		v, _, err := readResponse(r, nil, 1024)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	})

	t.Run("TrailingBytes", func(t *testing.T) {
		r := bufio.NewReader(bytes.NewReader(responseFrame(append(body, 0))))
		_, _, err := readResponse(r, nil, 1024)
		assert.ErrorIs(t, err, serializer.ErrMalformedValue)
	})

	t.Run("Truncated", func(t *testing.T) {
		r := bufio.NewReader(bytes.NewReader(responseFrame(body[:len(body)-1])))
		_, _, err := readResponse(r, nil, 1024)
		assert.ErrorIs(t, err, serializer.ErrMalformedValue)
	})

	t.Run("TooLarge", func(t *testing.T) {
		r := bufio.NewReader(bytes.NewReader(responseFrame(body)))
		_, _, err := readResponse(r, nil, len(body)-1)
		assert.ErrorIs(t, err, ErrFrameTooLarge)
	})
}
