package avl

import (
	"math/rand"
	"testing"

	"github.com/tidwall/btree"
)

type testItem struct {
	val  int
	node Node[*testItem]
}

func lessItem(a, b *testItem) bool {
	return a.val < b.val
}

// harness keeps the tree under test next to an ordered oracle
type harness struct {
	t      *testing.T
	tree   *Tree[*testItem]
	oracle *btree.BTreeG[int]
	nodes  map[int]*testItem
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:      t,
		tree:   New(lessItem),
		oracle: btree.NewBTreeG(func(a, b int) bool { return a < b }),
		nodes:  make(map[int]*testItem),
	}
}

func (h *harness) add(val int) {
	it := &testItem{val: val}
	it.node.Init(it)
	h.tree.Insert(&it.node)
	h.oracle.Set(val)
	h.nodes[val] = it
}

func (h *harness) del(val int) {
	it := h.nodes[val]
	h.tree.Delete(&it.node)
	h.oracle.Delete(val)
	delete(h.nodes, val)
}

func (h *harness) check() {
	h.t.Helper()
	if err := h.tree.Verify(); err != nil {
		h.t.Fatalf("invariant violated: %v", err)
	}
	if h.tree.Len() != int64(h.oracle.Len()) {
		h.t.Fatalf("tree has %d nodes, oracle %d", h.tree.Len(), h.oracle.Len())
	}

	var got []int
	h.tree.Ascend(func(it *testItem) bool {
		got = append(got, it.val)
		return true
	})
	i := 0
	h.oracle.Scan(func(want int) bool {
		if i >= len(got) || got[i] != want {
			h.t.Fatalf("in-order mismatch at position %d", i)
		}
		i++
		return true
	})
}

func TestEmptyTree(t *testing.T) {
	tree := New(lessItem)

	if tree.Len() != 0 || tree.Root() != nil || tree.Min() != nil {
		t.Fatal("new tree should be empty")
	}
	if err := tree.Verify(); err != nil {
		t.Fatalf("empty tree should verify: %v", err)
	}
	if tree.Seek(func(*testItem) bool { return true }) != nil {
		t.Error("seek on empty tree should return nil")
	}
}

func TestSequentialInsert(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 1000; i++ {
		h.add(i)
		h.check()
	}

	// 1000 nodes fit into an AVL tree of depth <= 1.44*log2(1000) ~ 14
	if d := h.tree.Root().Depth(); d > 14 {
		t.Errorf("tree too deep for 1000 sequential inserts: %d", d)
	}
}

func TestRandomInsertDelete(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	h := newHarness(t)

	for round := 0; round < 3000; round++ {
		val := rnd.Intn(500)
		if _, ok := h.nodes[val]; ok {
			h.del(val)
		} else {
			h.add(val)
		}
		h.check()
	}

	// drain in random order
	for len(h.nodes) > 0 {
		for val := range h.nodes {
			h.del(val)
			h.check()
			break
		}
	}
	if h.tree.Root() != nil {
		t.Error("tree should be empty after deleting every node")
	}
}

func TestDeleteRootAndReinsert(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 64; i++ {
		h.add(i)
	}
	for i := 0; i < 32; i++ {
		root := h.tree.Root().Item
		h.del(root.val)
		h.check()
		h.add(root.val)
		h.check()
	}
}

func TestOffset(t *testing.T) {
	h := newHarness(t)
	const n = 200
	for i := 0; i < n; i++ {
		h.add(i * 10)
	}

	for i := 0; i < n; i++ {
		start := &h.nodes[i*10].node
		for k := int64(-n - 2); k <= n+2; k++ {
			target := int64(i) + k
			got := Offset(start, k)

			if target < 0 || target >= n {
				if got != nil {
					t.Fatalf("offset(%d, %d) should be nil, got %d", i, k, got.Item.val)
				}
				continue
			}

			if got == nil || got.Item.val != int(target)*10 {
				t.Fatalf("offset(%d, %d) returned wrong node", i, k)
			}
			if back := Offset(got, -k); back != start {
				t.Fatalf("offset round trip failed for start %d, k %d", i, k)
			}
		}
	}
}

func TestRank(t *testing.T) {
	h := newHarness(t)
	rnd := rand.New(rand.NewSource(7))
	for _, v := range rnd.Perm(300) {
		h.add(v)
	}
	for v := 0; v < 300; v++ {
		if r := h.tree.Rank(&h.nodes[v].node); r != int64(v) {
			t.Fatalf("rank of %d: got %d", v, r)
		}
	}
}

func TestSeek(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 100; i++ {
		h.add(i * 2)
	}

	cases := []struct {
		key  int
		want int
		none bool
	}{
		{key: -5, want: 0},
		{key: 0, want: 0},
		{key: 1, want: 2},
		{key: 51, want: 52},
		{key: 198, want: 198},
		{key: 199, none: true},
	}

	for _, c := range cases {
		got := h.tree.Seek(func(it *testItem) bool { return it.val >= c.key })
		if c.none {
			if got != nil {
				t.Errorf("seek(%d) should be nil, got %d", c.key, got.Item.val)
			}
			continue
		}
		if got == nil || got.Item.val != c.want {
			t.Errorf("seek(%d) should return %d", c.key, c.want)
		}
	}
}

func TestDuplicateItems(t *testing.T) {
	tree := New(lessItem)
	items := make([]*testItem, 50)
	for i := range items {
		items[i] = &testItem{val: i % 5}
		items[i].node.Init(items[i])
		tree.Insert(&items[i].node)
		if err := tree.Verify(); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < len(items); i += 2 {
		tree.Delete(&items[i].node)
		if err := tree.Verify(); err != nil {
			t.Fatal(err)
		}
	}
	if tree.Len() != 25 {
		t.Errorf("expected 25 nodes, got %d", tree.Len())
	}
}
