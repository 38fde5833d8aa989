// Package db implements the keyspace of rKV: a single progressive-resizing
// hash index mapping keys to entries, where every entry holds either a
// string value or a sorted set.
//
// Key Components:
//
//   - Entry: one record of the keyspace. The hash link is embedded in the
//     record itself (see package hashindex), so a lookup never allocates
//     and removing a key only unlinks it.
//
//   - Database: the typed command layer (Get, Set, Del, Keys, ZAdd, ZRem,
//     ZScore, ZQuery). It knows nothing about the wire format; the server
//     maps its results and sentinel errors onto protocol values.
//
// Type rules:
//   - Get and the sorted set commands return ErrWrongType when the key
//     holds the other kind of entry.
//   - Set always succeeds and turns a sorted set entry into a string entry.
//   - ZRem and ZScore return ErrNoSuchKey for a missing key, ZQuery treats
//     a missing key as an empty set.
//
// Thread-safety: none. A Database is owned by exactly one goroutine; the
// server guarantees this by executing all commands on its event loop.
//
// Sub-packages:
//   - hashindex: intrusive hash index with incremental rehashing
//   - avl: intrusive order-statistics AVL tree
//   - zset: sorted set built from the two indexes above
//   - util: hash helpers
package db
