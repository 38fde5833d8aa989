// Package hashindex implements the intrusive hash index used as the key table
// of the database and as the member index of sorted sets.
//
// Records embed a Node and insert it into an Index. The index stores only the
// hash code and the chain link of every node; equality is checked with a
// closure passed to each Lookup or Delete call.
//
// Progressive resizing:
//
// An Index owns two tables. Inserts always target the newer table. When the
// newer table's load factor exceeds maxLoadFactor, it becomes the older table
// and a new table of twice the capacity takes its place. From then on every
// mutating call (Insert, Delete) first moves up to rehashWork buckets from the
// older to the newer table. Lookups probe both tables until the older one is
// empty. This spreads the rehash cost over many calls instead of stalling a
// single insert.
//
// Example usage:
//
//	type record struct {
//		key  string
//		node hashindex.Node[*record]
//	}
//
//	var idx hashindex.Index[*record]
//	r := &record{key: "foo"}
//	r.node.Init(util.HashString(r.key), r)
//	idx.Insert(&r.node)
//
//	n := idx.Lookup(util.HashString("foo"), func(o *record) bool { return o.key == "foo" })
package hashindex
