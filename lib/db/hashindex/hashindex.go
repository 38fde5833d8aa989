package hashindex

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	initialCapacity = 4   // Number of slots of the first table (power of two)
	maxLoadFactor   = 8   // Average chain length that triggers a resize
	rehashWork      = 128 // Buckets migrated from the old table per mutating call
)

// --------------------------------------------------------------------------
// Node (embedded into the owning record)
// --------------------------------------------------------------------------

// Node is the intrusive link of the hash index. It is never allocated on
// its own: records embed a Node and point Item back at themselves, which
// lets the index hand out the owning record without a second allocation.
type Node[T any] struct {
	next  *Node[T]
	hcode uint64
	Item  T
}

// Init sets the hash code and the back-reference of the node.
// It must be called before the node is inserted.
func (n *Node[T]) Init(hcode uint64, item T) {
	n.next = nil
	n.hcode = hcode
	n.Item = item
}

// HashCode returns the hash code the node is stored under.
func (n *Node[T]) HashCode() uint64 {
	return n.hcode
}

// --------------------------------------------------------------------------
// Table (one of the two live tables)
// --------------------------------------------------------------------------

// table is a chained hash table with a power of two number of slots.
// Invariant: for every node n in slots[i], n.hcode&mask == i.
type table[T any] struct {
	slots []*Node[T]
	mask  uint64
	size  int
}

func newTable[T any](capacity int) table[T] {
	if capacity&(capacity-1) != 0 {
		panic("hashindex: capacity must be a power of two")
	}
	return table[T]{
		slots: make([]*Node[T], capacity),
		mask:  uint64(capacity - 1),
	}
}

func (t *table[T]) insert(node *Node[T]) {
	pos := node.hcode & t.mask
	node.next = t.slots[pos]
	t.slots[pos] = node
	t.size++
}

// lookup returns the address of the link pointing at the matching node,
// so the caller can unlink it without walking the chain again.
func (t *table[T]) lookup(hcode uint64, eq func(T) bool) **Node[T] {
	if t.slots == nil {
		return nil
	}
	from := &t.slots[hcode&t.mask]
	for cur := *from; cur != nil; cur = *from {
		if cur.hcode == hcode && eq(cur.Item) {
			return from
		}
		from = &cur.next
	}
	return nil
}

func (t *table[T]) detach(from **Node[T]) *Node[T] {
	node := *from
	*from = node.next
	node.next = nil
	t.size--
	return node
}

func (t *table[T]) scan(fn func(T) bool) bool {
	if t.size == 0 {
		return true
	}
	for _, head := range t.slots {
		for node := head; node != nil; node = node.next {
			if !fn(node.Item) {
				return false
			}
		}
	}
	return true
}

// --------------------------------------------------------------------------
// Index (two tables, progressive resizing)
// --------------------------------------------------------------------------

// Index is a hash index with incremental rehashing. Inserts always go to
// the newer table; when it gets too full the tables are swapped and every
// following mutating call moves a bounded number of buckets from the older
// table, so no single call ever pays for a full rehash.
//
// The index only knows hash codes and links. Key equality is supplied by
// the caller on every lookup, which lets the same index type serve database
// entries and sorted-set members.
//
// Thread-safety: Index is not safe for concurrent use.
type Index[T any] struct {
	newer      table[T]
	older      table[T]
	migratePos int
}

// Lookup returns the node with the given hash code for which eq reports
// true, or nil. Both tables are probed while a migration is in progress.
func (idx *Index[T]) Lookup(hcode uint64, eq func(T) bool) *Node[T] {
	if from := idx.newer.lookup(hcode, eq); from != nil {
		return *from
	}
	if from := idx.older.lookup(hcode, eq); from != nil {
		return *from
	}
	return nil
}

// Insert adds the node to the index. The caller is responsible for not
// inserting a key twice.
func (idx *Index[T]) Insert(node *Node[T]) {
	idx.migrate()

	if idx.newer.slots == nil {
		idx.newer = newTable[T](initialCapacity)
	}
	idx.newer.insert(node)

	if idx.older.slots == nil {
		threshold := (int(idx.newer.mask) + 1) * maxLoadFactor
		if idx.newer.size >= threshold {
			idx.startResize()
		}
	}
}

// Delete removes and returns the matching node, or nil if there is none.
func (idx *Index[T]) Delete(hcode uint64, eq func(T) bool) *Node[T] {
	idx.migrate()

	if from := idx.newer.lookup(hcode, eq); from != nil {
		return idx.newer.detach(from)
	}
	if from := idx.older.lookup(hcode, eq); from != nil {
		return idx.older.detach(from)
	}
	return nil
}

// Len returns the number of nodes in the index.
func (idx *Index[T]) Len() int {
	return idx.newer.size + idx.older.size
}

// Scan calls fn for every item in the index until fn returns false.
// The order is undefined. fn must not mutate the index.
func (idx *Index[T]) Scan(fn func(T) bool) {
	if !idx.newer.scan(fn) {
		return
	}
	idx.older.scan(fn)
}

// Resizing reports whether a migration between the two tables is in progress.
func (idx *Index[T]) Resizing() bool {
	return idx.older.slots != nil
}

// Capacity returns the number of slots of the newer table.
func (idx *Index[T]) Capacity() int {
	return len(idx.newer.slots)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// startResize makes the current table the older one and allocates a newer
// table of double capacity. No nodes are moved here.
func (idx *Index[T]) startResize() {
	idx.older = idx.newer
	idx.newer = newTable[T](len(idx.older.slots) * 2)
	idx.migratePos = 0
}

// migrate moves up to rehashWork buckets from the older into the newer table.
func (idx *Index[T]) migrate() {
	if idx.older.slots == nil {
		return
	}

	for work := 0; work < rehashWork && idx.older.size > 0; work++ {
		if idx.migratePos >= len(idx.older.slots) {
			break
		}
		node := idx.older.slots[idx.migratePos]
		idx.older.slots[idx.migratePos] = nil
		for node != nil {
			next := node.next
			idx.older.size--
			idx.newer.insert(node)
			node = next
		}
		idx.migratePos++
	}

	if idx.older.size == 0 {
		idx.older = table[T]{}
		idx.migratePos = 0
	}
}
