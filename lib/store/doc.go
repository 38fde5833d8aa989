// Package store provides the high-level interface for talking to an rKV
// keyspace, independent of whether the keyspace lives in the same process
// or behind a server.
//
// Key Components:
//
//   - IStore Interface: string commands (Get, Set, Del, Keys) and sorted set
//     commands (ZAdd, ZRem, ZScore, ZQuery). Applications can switch between
//     the embedded and the remote store without code changes.
//
//   - Error System: every failure is an *Error carrying a RetCode. The codes
//     1 to 4 are identical to the error codes of the wire protocol, which lets
//     the client forward server errors without translation. Use errors.Is with
//     the ErrWrongType and ErrTooBig sentinels to test for the common cases.
//
// Implementations:
//
//   - Local Store (lstore): wraps a db.Database behind a mutex. Suitable for
//     embedding rKV into a single process and for tests.
//     Available in the "github.com/ValentinKolb/rKV/lib/store/lstore" package.
//
//   - Remote Store (rpc/client): speaks the binary protocol to an rKV server.
//     Available in the "github.com/ValentinKolb/rKV/rpc/client" package.
//
// The conformance suite in lib/store/testing runs against both.
package store
