// Package lstore implements an embedded, in-memory store based on the
// store.IStore interface. It wraps a single db.Database and serializes all
// access with a mutex, so it can be shared between goroutines even though
// the database itself is single-threaded.
//
// Key Features:
//   - Pure in-memory storage without persistence
//   - Same command semantics as the rKV server (type rules, ZQuery windows)
//   - Database errors are translated into *store.Error values
//
// Usage Example:
//
//	s := lstore.NewLocalStore()
//	defer s.Close()
//
//	_ = s.Set("greeting", []byte("hello"))
//	_, _ = s.ZAdd("board", 42, "alice")
//	members, _ := s.ZQuery("board", 0, "", 0, 10)
//
// Close drops every key. The store stays usable afterward and starts empty.
package lstore
