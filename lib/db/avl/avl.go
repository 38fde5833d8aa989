package avl

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Node (embedded into the owning record)
// --------------------------------------------------------------------------

// Node is the intrusive link of an order-statistics tree. Besides the
// usual child and parent pointers every node keeps the depth and the size
// (count) of its subtree; the counts are what make Offset and Rank
// logarithmic.
type Node[T any] struct {
	parent *Node[T]
	left   *Node[T]
	right  *Node[T]
	depth  uint32 // 1 + max(depth(left), depth(right))
	count  uint32 // 1 + count(left) + count(right)
	Item   T
}

// Init resets the node to a detached leaf carrying item.
func (n *Node[T]) Init(item T) {
	*n = Node[T]{depth: 1, count: 1, Item: item}
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node[T]) Count() int64 {
	return int64(count(n))
}

// Depth returns the height of the subtree rooted at n.
func (n *Node[T]) Depth() int {
	return int(depth(n))
}

func depth[T any](n *Node[T]) uint32 {
	if n == nil {
		return 0
	}
	return n.depth
}

func count[T any](n *Node[T]) uint32 {
	if n == nil {
		return 0
	}
	return n.count
}

// update recomputes depth and count from the children.
func (n *Node[T]) update() {
	n.depth = 1 + max(depth(n.left), depth(n.right))
	n.count = 1 + count(n.left) + count(n.right)
}

// --------------------------------------------------------------------------
// Tree
// --------------------------------------------------------------------------

// Tree is an AVL tree ordered by less. Equal items are allowed; they are
// inserted to the right of existing equal items.
//
// Thread-safety: Tree is not safe for concurrent use.
type Tree[T any] struct {
	root *Node[T]
	less func(a, b T) bool
}

// New creates an empty tree ordered by less.
func New[T any](less func(a, b T) bool) *Tree[T] {
	return &Tree[T]{less: less}
}

// Root returns the root node or nil for an empty tree.
func (t *Tree[T]) Root() *Node[T] {
	return t.root
}

// Len returns the number of nodes in the tree.
func (t *Tree[T]) Len() int64 {
	return int64(count(t.root))
}

// Min returns the smallest node or nil.
func (t *Tree[T]) Min() *Node[T] {
	if t.root == nil {
		return nil
	}
	n := t.root
	for n.left != nil {
		n = n.left
	}
	return n
}

// Insert links a detached node (see Node.Init) into the tree and rebalances.
func (t *Tree[T]) Insert(n *Node[T]) {
	var parent *Node[T]
	from := &t.root
	for *from != nil {
		parent = *from
		if t.less(n.Item, parent.Item) {
			from = &parent.left
		} else {
			from = &parent.right
		}
	}
	*from = n
	n.parent = parent
	t.root = fix(n)
}

// Delete unlinks n from the tree and rebalances. n is reset to a detached
// leaf afterward and may be inserted again.
func (t *Tree[T]) Delete(n *Node[T]) {
	t.root = del(n)
	n.Init(n.Item)
}

// Seek returns the first node (in order) for which geq reports true.
// geq must be monotone over the tree order: false for a prefix of the
// nodes and true for the rest.
func (t *Tree[T]) Seek(geq func(T) bool) *Node[T] {
	var found *Node[T]
	for cur := t.root; cur != nil; {
		if geq(cur.Item) {
			found = cur
			cur = cur.left
		} else {
			cur = cur.right
		}
	}
	return found
}

// Rank returns the zero based position of n in the tree order.
func (t *Tree[T]) Rank(n *Node[T]) int64 {
	rank := int64(count(n.left))
	for cur := n; cur.parent != nil; cur = cur.parent {
		if cur.parent.right == cur {
			rank += int64(count(cur.parent.left)) + 1
		}
	}
	return rank
}

// Ascend calls fn for every item in order until fn returns false.
func (t *Tree[T]) Ascend(fn func(T) bool) {
	for n := t.Min(); n != nil; n = Offset(n, 1) {
		if !fn(n.Item) {
			return
		}
	}
}

// --------------------------------------------------------------------------
// Offset
// --------------------------------------------------------------------------

// Offset returns the node k positions after (k > 0) or before (k < 0) n in
// the tree order, or nil if that position is outside the tree. The walk
// uses subtree counts, so it costs O(log n) regardless of |k|.
func Offset[T any](n *Node[T], k int64) *Node[T] {
	var pos int64 // position of n relative to the start node
	for pos != k {
		switch {
		case pos < k && pos+int64(count(n.right)) >= k:
			// target is inside the right subtree
			n = n.right
			pos += int64(count(n.left)) + 1
		case pos > k && pos-int64(count(n.left)) <= k:
			// target is inside the left subtree
			n = n.left
			pos -= int64(count(n.right)) + 1
		default:
			// go to the parent
			parent := n.parent
			if parent == nil {
				return nil
			}
			if parent.right == n {
				pos -= int64(count(n.left)) + 1
			} else {
				pos += int64(count(n.right)) + 1
			}
			n = parent
		}
	}
	return n
}

// --------------------------------------------------------------------------
// Rebalancing
// --------------------------------------------------------------------------

func rotateLeft[T any](n *Node[T]) *Node[T] {
	newRoot := n.right
	inner := newRoot.left
	n.right = inner
	if inner != nil {
		inner.parent = n
	}
	newRoot.parent = n.parent
	newRoot.left = n
	n.parent = newRoot
	n.update()
	newRoot.update()
	return newRoot
}

func rotateRight[T any](n *Node[T]) *Node[T] {
	newRoot := n.left
	inner := newRoot.right
	n.left = inner
	if inner != nil {
		inner.parent = n
	}
	newRoot.parent = n.parent
	newRoot.right = n
	n.parent = newRoot
	n.update()
	newRoot.update()
	return newRoot
}

// fixLeft handles a left subtree that is two levels deeper (LL and LR).
func fixLeft[T any](n *Node[T]) *Node[T] {
	if depth(n.left.left) < depth(n.left.right) {
		n.left = rotateLeft(n.left) // LR -> LL
	}
	return rotateRight(n)
}

// fixRight handles a right subtree that is two levels deeper (RR and RL).
func fixRight[T any](n *Node[T]) *Node[T] {
	if depth(n.right.right) < depth(n.right.left) {
		n.right = rotateRight(n.right) // RL -> RR
	}
	return rotateLeft(n)
}

// fix walks from n up to the root, updating every ancestor and rotating
// where the depths differ by two. It returns the new root.
func fix[T any](n *Node[T]) *Node[T] {
	for {
		n.update()
		l, r := int(depth(n.left)), int(depth(n.right))

		var from **Node[T]
		if p := n.parent; p != nil {
			if p.left == n {
				from = &p.left
			} else {
				from = &p.right
			}
		}

		switch diff := l - r; {
		case diff == 2:
			n = fixLeft(n)
		case diff == -2:
			n = fixRight(n)
		case diff > 2 || diff < -2:
			panic(fmt.Sprintf("avl: balance factor %d out of range", diff))
		}

		if from == nil {
			return n
		}
		*from = n
		n = n.parent
	}
}

// delEasy unlinks a node with at most one child and returns the new root.
func delEasy[T any](n *Node[T]) *Node[T] {
	child := n.left
	if child == nil {
		child = n.right
	}
	parent := n.parent
	if child != nil {
		child.parent = parent
	}
	if parent == nil {
		return child
	}
	if parent.left == n {
		parent.left = child
	} else {
		parent.right = child
	}
	return fix(parent)
}

// del unlinks n and returns the new root. A node with two children is
// replaced by its in-order successor, which is detached first.
func del[T any](n *Node[T]) *Node[T] {
	if n.left == nil || n.right == nil {
		return delEasy(n)
	}

	victim := n.right
	for victim.left != nil {
		victim = victim.left
	}
	root := delEasy(victim)

	// the successor takes over the structural position of n
	victim.left, victim.right, victim.parent = n.left, n.right, n.parent
	victim.depth, victim.count = n.depth, n.count
	if victim.left != nil {
		victim.left.parent = victim
	}
	if victim.right != nil {
		victim.right.parent = victim
	}

	parent := n.parent
	if parent == nil {
		return victim
	}
	if parent.left == n {
		parent.left = victim
	} else {
		parent.right = victim
	}
	return root
}

// --------------------------------------------------------------------------
// Verification
// --------------------------------------------------------------------------

// Verify checks every structural invariant of the tree: parent links,
// depth, count, AVL balance and ordering. It is meant for tests and
// debugging and runs in O(n).
func (t *Tree[T]) Verify() error {
	if t.root != nil && t.root.parent != nil {
		return fmt.Errorf("avl: root has a parent")
	}
	if err := t.verify(t.root); err != nil {
		return err
	}

	var prev *Node[T]
	for n := t.Min(); n != nil; n = Offset(n, 1) {
		if prev != nil && t.less(n.Item, prev.Item) {
			return fmt.Errorf("avl: in-order traversal is not sorted")
		}
		prev = n
	}
	return nil
}

func (t *Tree[T]) verify(n *Node[T]) error {
	if n == nil {
		return nil
	}
	if n.left != nil && n.left.parent != n {
		return fmt.Errorf("avl: broken parent link on left child")
	}
	if n.right != nil && n.right.parent != n {
		return fmt.Errorf("avl: broken parent link on right child")
	}
	if err := t.verify(n.left); err != nil {
		return err
	}
	if err := t.verify(n.right); err != nil {
		return err
	}

	l, r := int(depth(n.left)), int(depth(n.right))
	if l-r > 1 || r-l > 1 {
		return fmt.Errorf("avl: unbalanced node (left depth %d, right depth %d)", l, r)
	}
	if n.depth != 1+max(depth(n.left), depth(n.right)) {
		return fmt.Errorf("avl: wrong depth %d", n.depth)
	}
	if n.count != 1+count(n.left)+count(n.right) {
		return fmt.Errorf("avl: wrong count %d", n.count)
	}
	return nil
}
