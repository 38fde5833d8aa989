package db

import (
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct {
	name  string
	score float64
}

func query(t *testing.T, d *Database, key string, score float64, name string, offset, limit int64) []pair {
	t.Helper()
	var out []pair
	err := d.ZQuery(key, score, name, offset, limit, func(n string, s float64) bool {
		out = append(out, pair{n, s})
		return true
	})
	require.NoError(t, err)
	return out
}

func TestStringCommands(t *testing.T) {
	d := New()

	t.Run("GetMissing", func(t *testing.T) {
		_, found, err := d.Get("k")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("SetGet", func(t *testing.T) {
		d.Set("k", "v")
		v, found, err := d.Get("k")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "v", v)
	})

	t.Run("Overwrite", func(t *testing.T) {
		d.Set("k", "v2")
		v, _, _ := d.Get("k")
		assert.Equal(t, "v2", v)
		assert.Equal(t, 1, d.Len())
	})

	t.Run("Del", func(t *testing.T) {
		assert.True(t, d.Del("k"))
		assert.False(t, d.Del("k"))
		_, found, _ := d.Get("k")
		assert.False(t, found)
		assert.Equal(t, 0, d.Len())
	})

	t.Run("EmptyValue", func(t *testing.T) {
		d.Set("", "")
		v, found, err := d.Get("")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "", v)
	})
}

func TestTypeRules(t *testing.T) {
	d := New()
	d.Set("str", "x")
	_, err := d.ZAdd("zs", 1, "a")
	require.NoError(t, err)

	_, _, err = d.Get("zs")
	assert.ErrorIs(t, err, ErrWrongType)

	_, err = d.ZAdd("str", 1, "a")
	assert.ErrorIs(t, err, ErrWrongType)
	_, err = d.ZRem("str", "a")
	assert.ErrorIs(t, err, ErrWrongType)
	_, _, err = d.ZScore("str", "a")
	assert.ErrorIs(t, err, ErrWrongType)
	err = d.ZQuery("str", 0, "", 0, 10, func(string, float64) bool { return true })
	assert.ErrorIs(t, err, ErrWrongType)

	// SET converts a sorted set into a string
	d.Set("zs", "now-a-string")
	v, found, err := d.Get("zs")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "now-a-string", v)
	assert.Equal(t, KindString, d.Lookup("zs").Kind)
	assert.Nil(t, d.Lookup("zs").ZSet)

	// DEL removes either kind
	_, _ = d.ZAdd("zs2", 1, "a")
	assert.True(t, d.Del("zs2"))
	assert.Nil(t, d.Lookup("zs2"))
}

func TestSortedSetCommands(t *testing.T) {
	d := New()

	inserted, err := d.ZAdd("z", 1.5, "a")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = d.ZAdd("z", 2.5, "a")
	require.NoError(t, err)
	assert.False(t, inserted)

	score, found, err := d.ZScore("z", "a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2.5, score)

	_, found, err = d.ZScore("z", "nope")
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = d.ZScore("missing", "a")
	assert.ErrorIs(t, err, ErrNoSuchKey)
	_, err = d.ZRem("missing", "a")
	assert.ErrorIs(t, err, ErrNoSuchKey)

	removed, err := d.ZRem("z", "a")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = d.ZRem("z", "a")
	require.NoError(t, err)
	assert.False(t, removed)

	// the empty set stays as a key
	assert.NotNil(t, d.Lookup("z"))
}

func TestZQuery(t *testing.T) {
	d := New()
	for i, name := range []string{"a", "b", "c"} {
		_, err := d.ZAdd("z", float64(i+1), name)
		require.NoError(t, err)
	}

	assert.Equal(t, []pair{{"a", 1}, {"b", 2}, {"c", 3}}, query(t, d, "z", 0, "", 0, 10))
	assert.Equal(t, []pair{{"b", 2}}, query(t, d, "z", 0, "", 1, 1))
	assert.Equal(t, []pair{{"b", 2}, {"c", 3}}, query(t, d, "z", 1, "a\x00", 0, 5))
	assert.Empty(t, query(t, d, "z", 0, "", 0, 0))
	assert.Empty(t, query(t, d, "z", 0, "", 0, -4))
	assert.Empty(t, query(t, d, "z", 10, "", 0, 10))
	assert.Empty(t, query(t, d, "missing", 0, "", 0, 10))
	assert.Equal(t, []pair{{"a", 1}}, query(t, d, "z", 3, "", -2, 1))

	// fn can stop the walk
	calls := 0
	err := d.ZQuery("z", 0, "", 0, 10, func(string, float64) bool {
		calls++
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestKeys(t *testing.T) {
	d := New()
	want := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		key := "key-" + strconv.Itoa(i)
		want = append(want, key)
		if i%2 == 0 {
			d.Set(key, "v")
		} else {
			_, _ = d.ZAdd(key, 1, "m")
		}
	}

	var got []string
	d.Keys(func(k string) bool {
		got = append(got, k)
		return true
	})
	sort.Strings(got)
	sort.Strings(want)
	assert.Equal(t, want, got)

	n := 0
	d.Keys(func(string) bool {
		n++
		return n < 3
	})
	assert.Equal(t, 3, n)
}

func TestManyKeysSurviveResizing(t *testing.T) {
	d := New()
	const n = 50000
	for i := 0; i < n; i++ {
		d.Set(strconv.Itoa(i), strconv.Itoa(i*2))
	}
	require.Equal(t, n, d.Len())
	for i := 0; i < n; i++ {
		v, found, err := d.Get(strconv.Itoa(i))
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, strconv.Itoa(i*2), v)
	}
}
