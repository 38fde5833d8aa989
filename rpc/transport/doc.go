// Package transport defines the interfaces of the rKV transport layer. It
// provides a common contract that all transport implementations fulfill, so
// the server and client code stays independent of the socket type.
//
// Key Components:
//
//   - IRPCServerTransport: accepts connections, parses request frames and
//     calls the registered ServerHandleFunc once per request.
//
//   - IRPCClientTransport: connection management and request sending for
//     clients, including pipelined batches.
//
//   - Stats: connection and traffic counters shared with the metrics
//     exporter.
package transport
