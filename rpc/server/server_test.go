package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/serializer"
	"github.com/ValentinKolb/rKV/rpc/transport/tcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() common.ServerConfig {
	config := common.DefaultServerConfig()
	config.Endpoint = "127.0.0.1:0"
	config.PollTimeout = 20 * time.Millisecond
	config.Log.Level = "warn"
	return config
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	config := testConfig()
	config.Transport = "udp"
	err := NewRPCServer(config, tcp.NewTCPServerTransport()).Serve(context.Background())
	assert.ErrorContains(t, err, "invalid transport")

	config = testConfig()
	config.StatsInterval = "every now and then"
	err = NewRPCServer(config, tcp.NewTCPServerTransport()).Serve(context.Background())
	assert.ErrorContains(t, err, "invalid stats interval")
}

func TestServeEndToEnd(t *testing.T) {
	config := testConfig()
	config.StatsInterval = "@every 1s"

	srv := tcp.NewTCPServerTransport()
	s := NewRPCServer(config, srv)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	require.Eventually(t, func() bool { return srv.Addr() != "" }, 5*time.Second, 5*time.Millisecond)

	client := tcp.NewTCPClientTransport()
	clientConfig := common.DefaultClientConfig()
	clientConfig.Transport.Endpoints = []string{srv.Addr()}
	require.NoError(t, client.Connect(clientConfig))

	replies, err := client.SendBatch([][][]byte{
		serializer.StringArgs("set", "k", "v"),
		serializer.StringArgs("get", "k"),
		serializer.StringArgs("zadd", "k", "1", "a"),
		serializer.StringArgs("GET", "missing"),
	})
	require.NoError(t, err)
	assert.True(t, replies[0].IsNil())
	assert.Equal(t, common.NewStringValue("v"), replies[1])
	assert.ErrorIs(t, replies[2].AsError(), common.ErrExpectZSet)
	assert.True(t, replies[3].IsNil())
	require.NoError(t, client.Close())

	// the exporter sees commands and transport counters
	rec := httptest.NewRecorder()
	s.Metrics().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `rkv_commands_total{cmd="get"} 2`)
	assert.Contains(t, body, `rkv_command_errors_total{code="ERR_TYPE"} 1`)
	assert.Contains(t, body, "rkv_requests_total 4")
	assert.Contains(t, body, "rkv_keys 1")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
