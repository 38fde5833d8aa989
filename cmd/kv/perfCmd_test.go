package kv

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/rpc/client"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/server"
	"github.com/ValentinKolb/rKV/rpc/transport/unix"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startPerfServer runs a server on a unix socket and points rpcStore at it
func startPerfServer(t *testing.T) {
	t.Helper()

	config := common.DefaultServerConfig()
	config.Endpoint = filepath.Join(t.TempDir(), "rkv.sock")
	config.Transport = "unix"
	config.PollTimeout = 20 * time.Millisecond
	config.Log.Level = "warn"

	srv := unix.NewUnixServerTransport()
	s := server.NewRPCServer(config, srv)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	deadline := time.Now().Add(5 * time.Second)
	for srv.Addr() == "" {
		require.False(t, time.Now().After(deadline), "server did not start")
		time.Sleep(5 * time.Millisecond)
	}

	clientConfig := common.DefaultClientConfig()
	clientConfig.TimeoutSecond = 5
	clientConfig.Transport.Transport = "unix"
	clientConfig.Transport.Endpoints = []string{srv.Addr()}
	clientConfig.Transport.ConnectionsPerEndpoint = 2

	st, err := client.NewRPCStore(clientConfig, unix.NewUnixClientTransport())
	require.NoError(t, err)
	rpcStore = st
	t.Cleanup(func() {
		_ = st.Close()
		rpcStore = nil
	})
}

func TestRunPerfAllWorkloads(t *testing.T) {
	startPerfServer(t)

	perfNumThreads = 2
	perfOps = 40
	perfKeySpread = 5
	perfPipeline = 4
	perfSkip = []string{"set-large"}

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	require.NoError(t, runPerf(cmd, nil))

	output := out.String()
	for _, name := range []string{"set", "get", "get-missing", "del", "zadd", "zscore", "zquery", "mixed", "pipeline"} {
		assert.Regexp(t, `(?m)^`+name+` +\d+ ops/sec.*errors 0$`, output)
	}
	assert.Regexp(t, `(?m)^set-large +skipped$`, output)

	// every workload cleans up after itself
	keys, err := rpcStore.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}
