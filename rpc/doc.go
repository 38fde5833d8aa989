// Package rpc provides the network layer of rKV. It connects clients to the
// single-threaded server over a length-prefixed binary protocol.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures used across the RPC system, including the
//     reply Value type, error codes, configuration structures, and logging.
//
//   - transport: Network communication with pluggable connectors (TCP, Unix
//     sockets). The server side is a poll based event loop driving one state
//     machine per connection; the client side pools connections and pipelines
//     requests.
//
//   - serializer: The binary request and reply codec used on the wire and a
//     JSON codec for machine readable command line output.
//
//   - client: A store.IStore implementation on top of a client transport, with
//     raw command access and pipelining.
//
//   - server: The command processor executing requests against the database,
//     metrics, and the server lifecycle.
package rpc
