package client

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/lib/store"
	storetesting "github.com/ValentinKolb/rKV/lib/store/testing"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/server"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/ValentinKolb/rKV/rpc/transport/base"
	"github.com/ValentinKolb/rKV/rpc/transport/tcp"
	"github.com/ValentinKolb/rKV/rpc/transport/unix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testTransport struct {
	name   string
	server func() *base.ServerTransport
	client func() transport.IRPCClientTransport
}

var testTransports = []testTransport{
	{"tcp", tcp.NewTCPServerTransport, tcp.NewTCPClientTransport},
	{"unix", unix.NewUnixServerTransport, unix.NewUnixClientTransport},
}

// startTestServer runs a fresh server until tb ends and returns a connected
// store
func startTestServer(tb testing.TB, tt testTransport) *RPCStore {
	tb.Helper()

	endpoint := "127.0.0.1:0"
	if tt.name == "unix" {
		endpoint = filepath.Join(tb.TempDir(), "rkv.sock")
	}

	config := common.DefaultServerConfig()
	config.Endpoint = endpoint
	config.Transport = tt.name
	config.PollTimeout = 20 * time.Millisecond
	config.Log.Level = "warn"

	srv := tt.server()
	s := server.NewRPCServer(config, srv)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	tb.Cleanup(func() {
		cancel()
		<-done
	})

	deadline := time.Now().Add(5 * time.Second)
	for srv.Addr() == "" {
		if time.Now().After(deadline) {
			tb.Fatalf("server on %s did not start", endpoint)
		}
		time.Sleep(5 * time.Millisecond)
	}

	clientConfig := common.DefaultClientConfig()
	clientConfig.TimeoutSecond = 5
	clientConfig.Transport.Transport = tt.name
	clientConfig.Transport.Endpoints = []string{srv.Addr()}
	clientConfig.Transport.ConnectionsPerEndpoint = 4

	st, err := NewRPCStore(clientConfig, tt.client())
	if err != nil {
		tb.Fatalf("failed to connect: %v", err)
	}
	return st
}

func TestRPCStore(t *testing.T) {
	for _, tt := range testTransports {
		storetesting.RunStoreTests(t, "RPCStore/"+tt.name, func() store.IStore {
			return startTestServer(t, tt)
		})
	}
}

func BenchmarkRPCStore(b *testing.B) {
	for _, tt := range testTransports {
		storetesting.RunStoreBenchmarks(b, "RPCStore/"+tt.name, func() store.IStore {
			return startTestServer(b, tt)
		})
	}
}

func TestErrorMapping(t *testing.T) {
	s := startTestServer(t, testTransports[0])
	defer s.Close()

	require.NoError(t, s.Set("str", []byte("v")))
	_, err := s.ZAdd("str", 1, "a")
	assert.ErrorIs(t, err, store.ErrWrongType)

	var storeErr *store.Error
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, store.RetCWrongType, storeErr.Code)
	assert.Equal(t, "expect zset", storeErr.Msg)

	_, err = s.ZAdd("z", 1, "a")
	require.NoError(t, err)
	_, _, err = s.Get("z")
	assert.ErrorIs(t, err, store.ErrWrongType)

	// a reply above the message size limit
	for i := 0; i < 400; i++ {
		require.NoError(t, s.Set(fmt.Sprintf("key-%05d", i), nil))
	}
	_, err = s.Keys()
	assert.ErrorIs(t, err, store.ErrTooBig)

	// a request above the limit is refused before sending
	err = s.Set("big", make([]byte, common.DefaultMaxMessageSize))
	assert.ErrorIs(t, err, base.ErrRequestTooLarge)
	assert.ErrorIs(t, err, store.NewError(store.RetCInternalError, ""))
}

func TestDo(t *testing.T) {
	s := startTestServer(t, testTransports[0])
	defer s.Close()

	v, err := s.Do("SET", "k", "v")
	require.NoError(t, err)
	assert.True(t, v.IsNil())

	v, err = s.Do("nope")
	require.NoError(t, err)
	assert.ErrorIs(t, v.AsError(), common.ErrUnknownCommand)

	v, err = s.Do("zadd", "z", "not a number", "a")
	require.NoError(t, err)
	assert.ErrorIs(t, v.AsError(), common.ErrExpectFloat)
}

func TestPipeline(t *testing.T) {
	s := startTestServer(t, testTransports[0])
	defer s.Close()

	p := s.Pipeline().
		Set("a", []byte("1")).
		Get("a").
		ZAdd("z", 2, "two").
		ZAdd("z", 1, "one").
		ZScore("z", "two").
		ZQuery("z", 0, "", 0, 10).
		ZRem("z", "one").
		Del("a").
		Do("get", "z")
	require.Equal(t, 9, p.Len())

	replies, err := p.Exec()
	require.NoError(t, err)
	require.Len(t, replies, 9)
	assert.Equal(t, 0, p.Len())

	assert.True(t, replies[0].IsNil())
	assert.Equal(t, "1", string(replies[1].Str))
	assert.EqualValues(t, 1, replies[2].Int)
	assert.EqualValues(t, 1, replies[3].Int)
	assert.Equal(t, 2.0, replies[4].Dbl)

	members, err := Members(replies[5])
	require.NoError(t, err)
	assert.Equal(t, []store.ZMember{{Name: "one", Score: 1}, {Name: "two", Score: 2}}, members)

	assert.EqualValues(t, 1, replies[6].Int)
	assert.EqualValues(t, 1, replies[7].Int)
	assert.ErrorIs(t, replies[8].AsError(), common.ErrExpectString)

	// empty pipelines do not touch the network
	replies, err = s.Pipeline().Exec()
	require.NoError(t, err)
	assert.Empty(t, replies)
}

func TestClosedStore(t *testing.T) {
	s := startTestServer(t, testTransports[0])
	require.NoError(t, s.Close())

	_, _, err := s.Get("k")
	assert.ErrorIs(t, err, base.ErrTransportClosed)
}
