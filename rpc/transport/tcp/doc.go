// Package tcp implements the TCP transport of the rKV protocol. It provides
// concrete implementations of the base package's connector interfaces.
//
// The server side creates a non-blocking listening socket with
// golang.org/x/sys/unix and hands it to the base event loop; accepted
// descriptors get the configured TCP options (TCP_NODELAY, SO_KEEPALIVE,
// SO_LINGER) and socket buffer sizes. The client side dials with the net
// package and applies the same options through *net.TCPConn.
//
// Key Components:
//
//   - clientConnector: TCP-specific implementation of base.IClientConnector
//
//   - serverConnector: TCP-specific implementation of base.IServerConnector
//
// A listen endpoint with port 0 binds an ephemeral port; the bound address
// is available from ServerTransport.Addr once Listen started.
package tcp
