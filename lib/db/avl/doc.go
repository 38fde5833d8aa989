// Package avl implements an intrusive order-statistics AVL tree.
//
// Every node stores its subtree depth and subtree count. The depth keeps the
// tree balanced (the depths of the two children of any node differ by at
// most one), the count answers rank and offset queries in O(log n):
//
//   - Offset(node, k) moves k positions forward or backward in sorted order
//     without restarting from the root.
//   - Tree.Rank(node) returns the position of a node in sorted order.
//
// Nodes are embedded into the owning record, with Node.Item pointing back at
// it, so the tree never allocates. The sorted set (package zset) embeds one
// Node per member, ordered by (score, name).
//
// A balance factor of +-3 can only be reached through a bug in this package;
// the rebalancing walk panics if it ever sees one.
package avl
