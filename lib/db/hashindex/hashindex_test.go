package hashindex

import (
	"strconv"
	"testing"

	"github.com/ValentinKolb/rKV/lib/db/util"
)

type record struct {
	key  string
	node Node[*record]
}

func newRecord(key string) *record {
	r := &record{key: key}
	r.node.Init(util.HashString(key), r)
	return r
}

func keyEq(key string) func(*record) bool {
	return func(r *record) bool { return r.key == key }
}

func lookup(idx *Index[*record], key string) *record {
	n := idx.Lookup(util.HashString(key), keyEq(key))
	if n == nil {
		return nil
	}
	return n.Item
}

func remove(idx *Index[*record], key string) *record {
	n := idx.Delete(util.HashString(key), keyEq(key))
	if n == nil {
		return nil
	}
	return n.Item
}

func TestEmptyIndex(t *testing.T) {
	var idx Index[*record]

	if idx.Len() != 0 {
		t.Errorf("expected empty index, got %d items", idx.Len())
	}
	if lookup(&idx, "missing") != nil {
		t.Error("lookup on empty index should miss")
	}
	if remove(&idx, "missing") != nil {
		t.Error("delete on empty index should miss")
	}

	visited := 0
	idx.Scan(func(*record) bool { visited++; return true })
	if visited != 0 {
		t.Errorf("scan visited %d items on empty index", visited)
	}
}

func TestInsertLookupDelete(t *testing.T) {
	var idx Index[*record]

	a, b := newRecord("a"), newRecord("b")
	idx.Insert(&a.node)
	idx.Insert(&b.node)

	if got := lookup(&idx, "a"); got != a {
		t.Errorf("expected to find record a, got %v", got)
	}
	if got := lookup(&idx, "b"); got != b {
		t.Errorf("expected to find record b, got %v", got)
	}
	if lookup(&idx, "c") != nil {
		t.Error("expected miss for key c")
	}

	if got := remove(&idx, "a"); got != a {
		t.Errorf("expected delete to return record a, got %v", got)
	}
	if lookup(&idx, "a") != nil {
		t.Error("record a still reachable after delete")
	}
	if remove(&idx, "a") != nil {
		t.Error("second delete of a should miss")
	}
	if idx.Len() != 1 {
		t.Errorf("expected 1 item, got %d", idx.Len())
	}
}

func TestResizeKeepsEveryKey(t *testing.T) {
	var idx Index[*record]
	const n = 20000

	sawResize := false
	for i := 0; i < n; i++ {
		r := newRecord("key-" + strconv.Itoa(i))
		idx.Insert(&r.node)
		if idx.Resizing() {
			sawResize = true
		}
		if idx.Len() != i+1 {
			t.Fatalf("expected %d items after insert, got %d", i+1, idx.Len())
		}
	}

	if !sawResize {
		t.Fatal("expected at least one resize")
	}
	if idx.Capacity() <= initialCapacity {
		t.Errorf("expected capacity to grow, got %d", idx.Capacity())
	}

	for i := 0; i < n; i++ {
		key := "key-" + strconv.Itoa(i)
		if r := lookup(&idx, key); r == nil || r.key != key {
			t.Fatalf("key %s not found after resize", key)
		}
	}

	removed := 0
	for i := 0; i < n; i += 3 {
		key := "key-" + strconv.Itoa(i)
		if r := remove(&idx, key); r == nil {
			t.Fatalf("key %s could not be removed", key)
		}
		removed++
	}

	if idx.Len() != n-removed {
		t.Errorf("expected %d items, got %d", n-removed, idx.Len())
	}

	for i := 0; i < n; i++ {
		key := "key-" + strconv.Itoa(i)
		found := lookup(&idx, key) != nil
		if want := i%3 != 0; found != want {
			t.Fatalf("key %s: found=%v, want %v", key, found, want)
		}
	}
}

func TestMigrationIsBounded(t *testing.T) {
	var idx Index[*record]

	// fill until the first resize starts
	i := 0
	for !idx.Resizing() {
		r := newRecord("k" + strconv.Itoa(i))
		idx.Insert(&r.node)
		i++
	}

	older := len(idx.older.slots)
	before := idx.older.size

	// one more mutating call migrates at most rehashWork buckets
	r := newRecord("k" + strconv.Itoa(i))
	idx.Insert(&r.node)

	if idx.Resizing() && idx.migratePos > rehashWork {
		t.Errorf("migrated %d buckets in one call, limit is %d", idx.migratePos, rehashWork)
	}
	if idx.Resizing() && idx.older.size >= before {
		t.Errorf("expected older table to shrink, size %d -> %d", before, idx.older.size)
	}

	// migration finishes within capacity/rehashWork further calls
	calls := 0
	for idx.Resizing() {
		remove(&idx, "does-not-exist")
		calls++
		if calls > older/rehashWork+1 {
			t.Fatalf("migration did not finish after %d calls", calls)
		}
	}
}

func TestScanVisitsBothTables(t *testing.T) {
	var idx Index[*record]

	i := 0
	for !idx.Resizing() {
		r := newRecord("s" + strconv.Itoa(i))
		idx.Insert(&r.node)
		i++
	}

	seen := make(map[string]bool)
	idx.Scan(func(r *record) bool {
		seen[r.key] = true
		return true
	})

	if len(seen) != idx.Len() {
		t.Errorf("scan visited %d distinct keys, index holds %d", len(seen), idx.Len())
	}
	for j := 0; j < i; j++ {
		if !seen["s"+strconv.Itoa(j)] {
			t.Fatalf("scan missed key s%d", j)
		}
	}

	visited := 0
	idx.Scan(func(*record) bool {
		visited++
		return visited < 5
	})
	if visited != 5 {
		t.Errorf("scan should stop when fn returns false, visited %d", visited)
	}
}

func TestCollidingHashCodes(t *testing.T) {
	var idx Index[*record]

	// same hash code, different keys
	a := &record{key: "a"}
	a.node.Init(42, a)
	b := &record{key: "b"}
	b.node.Init(42, b)
	idx.Insert(&a.node)
	idx.Insert(&b.node)

	if n := idx.Lookup(42, keyEq("b")); n == nil || n.Item != b {
		t.Error("expected to find b among colliding nodes")
	}
	if n := idx.Delete(42, keyEq("a")); n == nil || n.Item != a {
		t.Error("expected to delete a among colliding nodes")
	}
	if n := idx.Lookup(42, keyEq("b")); n == nil || n.Item != b {
		t.Error("b lost after deleting a")
	}
}
