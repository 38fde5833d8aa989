package zset

import (
	"errors"

	"github.com/ValentinKolb/rKV/lib/db/avl"
	"github.com/ValentinKolb/rKV/lib/db/hashindex"
	"github.com/ValentinKolb/rKV/lib/db/util"
)

var errIndexMismatch = errors.New("zset: name index and tree disagree on size")

// --------------------------------------------------------------------------
// ZNode (one member of a sorted set)
// --------------------------------------------------------------------------

// ZNode is a sorted set member. It is indexed twice: by name in the hash
// index and by (score, name) in the tree. Both links live inside the node
// itself, so the two indexes always refer to the same allocation.
type ZNode struct {
	Name  string
	Score float64

	tree avl.Node[*ZNode]
	hash hashindex.Node[*ZNode]
}

func newZNode(name string, score float64) *ZNode {
	n := &ZNode{Name: name, Score: score}
	n.tree.Init(n)
	n.hash.Init(util.HashString(name), n)
	return n
}

// Offset returns the member k positions after (k > 0) or before (k < 0)
// this one, or nil if there is none.
func (n *ZNode) Offset(k int64) *ZNode {
	next := avl.Offset(&n.tree, k)
	if next == nil {
		return nil
	}
	return next.Item
}

// less orders members by score, ties broken by byte-wise name comparison.
func less(a, b *ZNode) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Name < b.Name
}

// --------------------------------------------------------------------------
// ZSet
// --------------------------------------------------------------------------

// ZSet is a sorted set: a name -> member hash index combined with an
// order-statistics tree keyed by (score, name).
//
// Thread-safety: ZSet is not safe for concurrent use.
type ZSet struct {
	names hashindex.Index[*ZNode]
	tree  *avl.Tree[*ZNode]
}

// New creates an empty sorted set.
func New() *ZSet {
	return &ZSet{tree: avl.New(less)}
}

// Len returns the number of members.
func (z *ZSet) Len() int {
	return z.names.Len()
}

// Lookup returns the member with the given name or nil.
func (z *ZSet) Lookup(name string) *ZNode {
	if z.tree.Root() == nil {
		return nil
	}
	n := z.names.Lookup(util.HashString(name), nameEq(name))
	if n == nil {
		return nil
	}
	return n.Item
}

// Add inserts a new member or updates the score of an existing one.
// It returns true if the member was inserted and false if it was updated.
func (z *ZSet) Add(name string, score float64) bool {
	if node := z.Lookup(name); node != nil {
		z.update(node, score)
		return false
	}

	node := newZNode(name, score)
	z.names.Insert(&node.hash)
	z.tree.Insert(&node.tree)
	return true
}

// Remove detaches the member with the given name from both indexes and
// returns it, or returns nil if there is no such member.
func (z *ZSet) Remove(name string) *ZNode {
	if z.tree.Root() == nil {
		return nil
	}
	n := z.names.Delete(util.HashString(name), nameEq(name))
	if n == nil {
		return nil
	}
	node := n.Item
	z.tree.Delete(&node.tree)
	return node
}

// Query returns the smallest member that is >= (score, name), moved
// forward by offset positions. It returns nil if no such member exists.
func (z *ZSet) Query(score float64, name string, offset int64) *ZNode {
	key := &ZNode{Score: score, Name: name}
	found := z.tree.Seek(func(n *ZNode) bool { return !less(n, key) })
	if found == nil {
		return nil
	}
	if offset == 0 {
		return found.Item
	}
	return found.Item.Offset(offset)
}

// Rank returns the zero based position of the member in score order.
func (z *ZSet) Rank(node *ZNode) int64 {
	return z.tree.Rank(&node.tree)
}

// Min returns the member with the lowest (score, name) or nil.
func (z *ZSet) Min() *ZNode {
	n := z.tree.Min()
	if n == nil {
		return nil
	}
	return n.Item
}

// Verify checks the structural invariants of the underlying tree and that
// both indexes hold the same number of members.
func (z *ZSet) Verify() error {
	if err := z.tree.Verify(); err != nil {
		return err
	}
	if int64(z.names.Len()) != z.tree.Len() {
		return errIndexMismatch
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// update re-keys a member in the tree. The hash node stays untouched since
// the name does not change.
func (z *ZSet) update(node *ZNode, score float64) {
	if node.Score == score {
		return
	}
	z.tree.Delete(&node.tree)
	node.Score = score
	z.tree.Insert(&node.tree)
}

func nameEq(name string) func(*ZNode) bool {
	return func(n *ZNode) bool { return n.Name == name }
}
