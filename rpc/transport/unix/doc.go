// Package unix implements the rKV transport over Unix domain sockets for
// clients running on the same machine as the server.
//
// This package extends the base transport layer with Unix socket-specific
// connectors while inheriting the event loop, connection pooling and retry
// handling from the base package. The endpoint is the socket path; a stale
// socket file at that path is removed before binding.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets
//
//   - serverConnector: Creates the non-blocking Unix socket listener
package unix
