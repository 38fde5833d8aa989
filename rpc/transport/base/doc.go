// Package base implements the transport core shared by the tcp and unix
// transports. Protocol specific details (creating the listener, socket
// options) are injected through connector interfaces.
//
// Key Components:
//
//   - Conn: the per connection state machine (Reading, Writing, Closing).
//     It reads into a bounded buffer of one header plus the max message
//     size, executes every complete frame (pipelining) and queues the framed
//     replies. Request extraction pauses while a full size reply is waiting
//     to be flushed, so the output buffer stays bounded too.
//
//   - EventLoop: a single goroutine poll(2) loop over the listener and all
//     connections. Each cycle polls, steps every ready connection, closes
//     the ones in Closing and accepts at most one new connection. Idle
//     connections and the connection cap are enforced here.
//
//   - ServerTransport: glue between an IServerConnector and the EventLoop.
//
//   - clientTransport: blocking client built on net.Conn with a pool of
//     connections per endpoint, round robin over endpoints, pipelined
//     batches and retries with exponential backoff.
//
// Thread Safety:
//
//	Conn and EventLoop are confined to the goroutine running Serve; the
//	request handler is therefore never called concurrently. Stats counters
//	may be read from any goroutine. The client transport is safe for
//	concurrent use; each caller borrows a connection exclusively.
package base
