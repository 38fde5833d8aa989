// Package client implements the rKV client. RPCStore provides the
// store.IStore interface on top of a client transport, so code written
// against the embedded store (lstore) works unchanged against a server.
//
// Key Components:
//
//   - NewRPCStore: connects the transport and returns an RPCStore.
//
//   - RPCStore: typed commands (Get, Set, Del, Keys, ZAdd, ZRem, ZScore,
//     ZQuery) plus Do for raw access. ERR replies become *store.Error with
//     the wire error code as return code; transport failures match
//     store.RetCInternalError and the transport's own error.
//
//   - Pipeline: queues commands and sends them in one round trip.
//
// Usage Example:
//
//	config := common.DefaultClientConfig()
//	config.Transport.Endpoints = []string{"localhost:1234"}
//
//	s, err := client.NewRPCStore(config, tcp.NewTCPClientTransport())
//	if err != nil {
//	  log.Fatal(err)
//	}
//	defer s.Close()
//
//	_ = s.Set("greeting", []byte("hello"))
//	_, _ = s.ZAdd("board", 42, "alice")
//	members, _ := s.ZQuery("board", 0, "", 0, 10)
//
//	replies, _ := s.Pipeline().Set("a", []byte("1")).Get("a").Exec()
//
// Thread Safety:
//
//	RPCStore is safe for concurrent use; every call borrows a pooled
//	connection of the transport. A Pipeline belongs to one goroutine.
package client
