// Package server implements the rKV server: the command processor that maps
// requests onto the in-memory database, the metrics collected per command
// and the RPCServer that wires both to a transport.
//
// Key Components:
//
//   - Processor: looks up the command (case-insensitive, exact arity),
//     parses its arguments, calls the database and builds the reply value.
//     Replies larger than the max message size are replaced by a "too big"
//     error; KEYS and ZQUERY stop collecting as soon as the limit is passed.
//
//   - Metrics: VictoriaMetrics counters per command and error code plus
//     gauges over the transport statistics, served on /metrics.
//
//   - RPCServer: validates the configuration, initializes logging, starts
//     the optional metrics endpoint and cron stats reporter and runs the
//     transport until the context is cancelled or a signal arrives.
//
// Supported commands:
//
//	GET key                              STR, NIL if absent
//	SET key value                        NIL
//	DEL key                              INT 1 or 0
//	KEYS                                 ARR of STR
//	ZADD zset score name                 INT 1 added, 0 updated
//	ZREM zset name                       INT 1 or 0, NIL if zset absent
//	ZSCORE zset name                     DBL, NIL if absent
//	ZQUERY zset score name offset limit  ARR [name, score, ...]
//
// Usage Example:
//
//	config := common.DefaultServerConfig()
//	s := server.NewRPCServer(config, tcp.NewTCPServerTransport())
//	if err := s.Serve(context.Background()); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	Processor and the database are used by the transport's event loop
//	goroutine only. Metrics may be read from any goroutine.
package server
