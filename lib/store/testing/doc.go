// Package testing provides standardised tests and benchmarks for
// implementations of the store.IStore interface.
//
// The package contains:
//   - RunStoreTests: a conformance suite covering string commands, sorted
//     set commands, the type rules between them and concurrent usage
//   - RunStoreBenchmarks: throughput tests for the common command mixes
//
// The factory passed to both functions must return a new, empty store on
// every call; each sub test closes the store it received.
//
// Example usage:
//
//	factory := func() store.IStore {
//		return lstore.NewLocalStore()
//	}
//
//	testing.RunStoreTests(t, "LocalStore", factory)
//	testing.RunStoreBenchmarks(b, "LocalStore", factory)
package testing
