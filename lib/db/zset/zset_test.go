package zset

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/btree"
)

// collect walks at most limit members starting at n
func collect(n *ZNode, limit int) []string {
	var out []string
	for n != nil && len(out) < limit {
		out = append(out, n.Name)
		n = n.Offset(1)
	}
	return out
}

func TestAddInsertThenUpdate(t *testing.T) {
	z := New()

	assert.True(t, z.Add("a", 1.5), "first add should insert")
	assert.False(t, z.Add("a", 2.5), "second add should update")

	node := z.Lookup("a")
	require.NotNil(t, node)
	assert.Equal(t, 2.5, node.Score)
	assert.Equal(t, 1, z.Len())
	require.NoError(t, z.Verify())
}

func TestAddSameScoreIsNoop(t *testing.T) {
	z := New()
	z.Add("a", 1)
	before := z.Lookup("a")

	assert.False(t, z.Add("a", 1))
	assert.Same(t, before, z.Lookup("a"))
	require.NoError(t, z.Verify())
}

func TestRemove(t *testing.T) {
	z := New()
	z.Add("a", 1)
	z.Add("b", 2)

	removed := z.Remove("a")
	require.NotNil(t, removed)
	assert.Equal(t, "a", removed.Name)
	assert.Nil(t, z.Lookup("a"))
	assert.Nil(t, z.Remove("a"))
	assert.Nil(t, z.Remove("never-added"))
	assert.Equal(t, 1, z.Len())
	require.NoError(t, z.Verify())

	// removing from an empty set is safe
	empty := New()
	assert.Nil(t, empty.Remove("x"))
	assert.Nil(t, empty.Lookup("x"))
}

func TestQuery(t *testing.T) {
	z := New()
	z.Add("a", 1)
	z.Add("b", 2)
	z.Add("c", 3)

	assert.Equal(t, []string{"a", "b", "c"}, collect(z.Query(0, "", 0), 10))
	assert.Equal(t, []string{"b"}, collect(z.Query(0, "", 1), 1))
	assert.Equal(t, []string{"b", "c"}, collect(z.Query(2, "", 0), 10))
	assert.Equal(t, []string{"c"}, collect(z.Query(2, "b\x00", 0), 10))
	assert.Nil(t, z.Query(3, "d", 0), "nothing is >= (3, d)")
	assert.Nil(t, z.Query(0, "", 3), "offset past the end")
	assert.Equal(t, []string{"a"}, collect(z.Query(2, "", -1), 1), "negative offsets move backward")
	assert.Nil(t, z.Query(1, "a", -1), "offset before the start")
}

func TestTiesAreOrderedByName(t *testing.T) {
	z := New()
	for _, name := range []string{"delta", "alpha", "charlie", "bravo"} {
		z.Add(name, 7)
	}
	z.Add("zulu", 1)

	assert.Equal(t, []string{"zulu", "alpha", "bravo", "charlie", "delta"}, collect(z.Min(), 10))
	assert.Equal(t, []string{"charlie", "delta"}, collect(z.Query(7, "c", 0), 10))
}

func TestRank(t *testing.T) {
	z := New()
	for i := 0; i < 100; i++ {
		z.Add("m"+strconv.Itoa(i), float64(99-i))
	}
	for i := 0; i < 100; i++ {
		node := z.Lookup("m" + strconv.Itoa(i))
		require.NotNil(t, node)
		assert.Equal(t, int64(99-i), z.Rank(node))
	}
}

type oracleItem struct {
	name  string
	score float64
}

func oracleLess(a, b oracleItem) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.name < b.name
}

func TestRandomOperationsMatchOracle(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	z := New()
	oracle := btree.NewBTreeG(oracleLess)
	scores := make(map[string]float64)

	for round := 0; round < 5000; round++ {
		name := "n" + strconv.Itoa(rnd.Intn(300))
		switch rnd.Intn(3) {
		case 0, 1:
			score := float64(rnd.Intn(50))
			old, existed := scores[name]
			inserted := z.Add(name, score)
			require.Equal(t, !existed, inserted)
			if existed {
				oracle.Delete(oracleItem{name, old})
			}
			oracle.Set(oracleItem{name, score})
			scores[name] = score
		case 2:
			old, existed := scores[name]
			removed := z.Remove(name)
			require.Equal(t, existed, removed != nil)
			if existed {
				oracle.Delete(oracleItem{name, old})
				delete(scores, name)
			}
		}
		require.Equal(t, len(scores), z.Len())
	}

	require.NoError(t, z.Verify())

	var want []string
	oracle.Scan(func(it oracleItem) bool {
		want = append(want, it.name)
		return true
	})
	assert.Equal(t, want, collect(z.Min(), len(want)+1))

	// every query position matches the oracle
	for i := 0; i < 200; i++ {
		score := float64(rnd.Intn(55))
		offset := int64(rnd.Intn(20))
		var expected *oracleItem
		skipped := int64(0)
		oracle.Ascend(oracleItem{score: score}, func(it oracleItem) bool {
			if skipped == offset {
				expected = &it
				return false
			}
			skipped++
			return true
		})

		got := z.Query(score, "", offset)
		if expected == nil {
			assert.Nil(t, got)
			continue
		}
		require.NotNil(t, got)
		assert.Equal(t, expected.name, got.Name)
	}
}
