// Package zset implements the sorted set value type.
//
// A ZSet combines two intrusive indexes over the same ZNode allocations:
//
//   - a hashindex.Index keyed by member name for O(1) average lookups,
//   - an avl.Tree ordered by (score, name) for range queries.
//
// Updating the score of a member only re-keys its tree node; the hash node
// stays in place because the name is unchanged. Removing a member unlinks it
// from both indexes before it is handed back to the caller.
//
// Range queries are answered by Query(score, name, offset): a tree descent
// finds the first member >= (score, name), then avl.Offset skips offset
// members in O(log n), no matter how large the offset is.
package zset
