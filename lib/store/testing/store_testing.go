package testing

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/rKV/lib/store"
)

// StoreFactory is a function that creates a new, empty IStore implementation
type StoreFactory func() store.IStore

// RunStoreTests runs a comprehensive test suite for an IStore implementation.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Del", func(t *testing.T) {
			testDel(t, factory())
		})

		t.Run("Keys", func(t *testing.T) {
			testKeys(t, factory())
		})

		t.Run("TypeRules", func(t *testing.T) {
			testTypeRules(t, factory())
		})

		t.Run("ZAdd&ZScore", func(t *testing.T) {
			testZAddZScore(t, factory())
		})

		t.Run("ZRem", func(t *testing.T) {
			testZRem(t, factory())
		})

		t.Run("ZQuery", func(t *testing.T) {
			testZQuery(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("CollisionHandling", func(t *testing.T) {
			testCollisionHandling(t, factory())
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func mustNoErr(t testing.TB, err error, op string) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error during %s: %v", op, err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, s store.IStore) {
	defer s.Close()

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	mustNoErr(t, s.Set(testKey, testValue1), "Set")

	result, exists, err := s.Get(testKey)
	mustNoErr(t, err, "Get")
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	mustNoErr(t, s.Set(testKey, testValue2), "Set")

	result, exists, err = s.Get(testKey)
	mustNoErr(t, err, "Get")
	if !exists {
		t.Errorf("Expected key %s to exist after overwrite", testKey)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	_, exists, err = s.Get("nonexistent-key")
	mustNoErr(t, err, "Get")
	if exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	// modifying a returned value must not change the stored one
	retrievedValue, _, _ := s.Get(testKey)
	retrievedValue[0] = 'X'
	originalValue, _, _ := s.Get(testKey)
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}
}

func testDel(t *testing.T, s store.IStore) {
	defer s.Close()

	testKey := "delete-test-key"
	mustNoErr(t, s.Set(testKey, []byte("delete-test-value")), "Set")

	deleted, err := s.Del(testKey)
	mustNoErr(t, err, "Del")
	if !deleted {
		t.Errorf("Expected Del to report an existing key")
	}

	_, exists, _ := s.Get(testKey)
	if exists {
		t.Errorf("Expected key %s to not exist after Del", testKey)
	}

	deleted, err = s.Del(testKey)
	mustNoErr(t, err, "Del")
	if deleted {
		t.Errorf("Expected second Del to report a missing key")
	}

	// Del also removes sorted sets
	_, err = s.ZAdd("zset-key", 1, "member")
	mustNoErr(t, err, "ZAdd")
	deleted, err = s.Del("zset-key")
	mustNoErr(t, err, "Del")
	if !deleted {
		t.Errorf("Expected Del to remove a sorted set")
	}
	_, found, _ := s.ZScore("zset-key", "member")
	if found {
		t.Errorf("Expected sorted set to be gone after Del")
	}
}

func testKeys(t *testing.T, s store.IStore) {
	defer s.Close()

	keys, err := s.Keys()
	mustNoErr(t, err, "Keys")
	if len(keys) != 0 {
		t.Fatalf("Expected a new store to have no keys, got %v", keys)
	}

	var expected []string
	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("keys-test-%d", i)
		expected = append(expected, key)
		if i%2 == 0 {
			mustNoErr(t, s.Set(key, []byte("v")), "Set")
		} else {
			_, err := s.ZAdd(key, float64(i), "m")
			mustNoErr(t, err, "ZAdd")
		}
	}

	keys, err = s.Keys()
	mustNoErr(t, err, "Keys")
	sort.Strings(keys)
	sort.Strings(expected)
	if fmt.Sprint(keys) != fmt.Sprint(expected) {
		t.Errorf("Keys mismatch: expected %v, got %v", expected, keys)
	}
}

func testTypeRules(t *testing.T, s store.IStore) {
	defer s.Close()

	mustNoErr(t, s.Set("string-key", []byte("v")), "Set")
	_, err := s.ZAdd("zset-key", 1, "a")
	mustNoErr(t, err, "ZAdd")

	if _, _, err := s.Get("zset-key"); !errors.Is(err, store.ErrWrongType) {
		t.Errorf("Expected wrong type error for Get on sorted set, got %v", err)
	}
	if _, err := s.ZAdd("string-key", 1, "a"); !errors.Is(err, store.ErrWrongType) {
		t.Errorf("Expected wrong type error for ZAdd on string, got %v", err)
	}
	if _, err := s.ZRem("string-key", "a"); !errors.Is(err, store.ErrWrongType) {
		t.Errorf("Expected wrong type error for ZRem on string, got %v", err)
	}
	if _, _, err := s.ZScore("string-key", "a"); !errors.Is(err, store.ErrWrongType) {
		t.Errorf("Expected wrong type error for ZScore on string, got %v", err)
	}
	if _, err := s.ZQuery("string-key", 0, "", 0, 10); !errors.Is(err, store.ErrWrongType) {
		t.Errorf("Expected wrong type error for ZQuery on string, got %v", err)
	}

	// Set converts a sorted set into a string
	mustNoErr(t, s.Set("zset-key", []byte("now a string")), "Set")
	value, exists, err := s.Get("zset-key")
	mustNoErr(t, err, "Get")
	if !exists || string(value) != "now a string" {
		t.Errorf("Expected Set to replace the sorted set, got %q (exists=%v)", value, exists)
	}
}

func testZAddZScore(t *testing.T, s store.IStore) {
	defer s.Close()

	added, err := s.ZAdd("z", 1.5, "a")
	mustNoErr(t, err, "ZAdd")
	if !added {
		t.Errorf("Expected first ZAdd to insert")
	}

	added, err = s.ZAdd("z", 2.5, "a")
	mustNoErr(t, err, "ZAdd")
	if added {
		t.Errorf("Expected second ZAdd to update")
	}

	score, found, err := s.ZScore("z", "a")
	mustNoErr(t, err, "ZScore")
	if !found || score != 2.5 {
		t.Errorf("Expected score 2.5, got %v (found=%v)", score, found)
	}

	_, found, err = s.ZScore("z", "missing-member")
	mustNoErr(t, err, "ZScore")
	if found {
		t.Errorf("Expected missing member to be not found")
	}

	_, found, err = s.ZScore("missing-key", "a")
	mustNoErr(t, err, "ZScore")
	if found {
		t.Errorf("Expected missing key to be not found")
	}

	// negative and fractional scores
	for _, sc := range []float64{-1e9, -0.25, 0, 1e-9, 3.75e12} {
		name := fmt.Sprintf("m%v", sc)
		_, err := s.ZAdd("scores", sc, name)
		mustNoErr(t, err, "ZAdd")
		got, found, err := s.ZScore("scores", name)
		mustNoErr(t, err, "ZScore")
		if !found || got != sc {
			t.Errorf("Expected score %v for %s, got %v", sc, name, got)
		}
	}
}

func testZRem(t *testing.T, s store.IStore) {
	defer s.Close()

	_, err := s.ZAdd("z", 1, "a")
	mustNoErr(t, err, "ZAdd")
	_, err = s.ZAdd("z", 2, "b")
	mustNoErr(t, err, "ZAdd")

	removed, err := s.ZRem("z", "a")
	mustNoErr(t, err, "ZRem")
	if !removed {
		t.Errorf("Expected ZRem to remove an existing member")
	}

	removed, err = s.ZRem("z", "a")
	mustNoErr(t, err, "ZRem")
	if removed {
		t.Errorf("Expected second ZRem to report a missing member")
	}

	removed, err = s.ZRem("missing-key", "a")
	mustNoErr(t, err, "ZRem")
	if removed {
		t.Errorf("Expected ZRem on a missing key to report false")
	}

	members, err := s.ZQuery("z", 0, "", 0, 10)
	mustNoErr(t, err, "ZQuery")
	if len(members) != 1 || members[0].Name != "b" {
		t.Errorf("Expected only member b to remain, got %v", members)
	}
}

func testZQuery(t *testing.T, s store.IStore) {
	defer s.Close()

	for i, name := range []string{"a", "b", "c"} {
		_, err := s.ZAdd("z", float64(i+1), name)
		mustNoErr(t, err, "ZAdd")
	}

	cases := []struct {
		name   string
		score  float64
		member string
		offset int64
		limit  int64
		want   []store.ZMember
	}{
		{"All", 0, "", 0, 10, []store.ZMember{{Name: "a", Score: 1}, {Name: "b", Score: 2}, {Name: "c", Score: 3}}},
		{"OffsetOne", 0, "", 1, 1, []store.ZMember{{Name: "b", Score: 2}}},
		{"SeekByScore", 2, "", 0, 10, []store.ZMember{{Name: "b", Score: 2}, {Name: "c", Score: 3}}},
		{"SeekByName", 2, "b\x00", 0, 10, []store.ZMember{{Name: "c", Score: 3}}},
		{"NegativeOffset", 3, "", -2, 2, []store.ZMember{{Name: "a", Score: 1}, {Name: "b", Score: 2}}},
		{"ZeroLimit", 0, "", 0, 0, nil},
		{"NegativeLimit", 0, "", 0, -1, nil},
		{"PastEnd", 4, "", 0, 10, nil},
		{"OffsetPastEnd", 0, "", 3, 10, nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			members, err := s.ZQuery("z", c.score, c.member, c.offset, c.limit)
			mustNoErr(t, err, "ZQuery")
			if len(members) != len(c.want) {
				t.Fatalf("Expected %v, got %v", c.want, members)
			}
			for i := range members {
				if members[i] != c.want[i] {
					t.Errorf("Expected %v at position %d, got %v", c.want[i], i, members[i])
				}
			}
		})
	}

	members, err := s.ZQuery("missing-key", 0, "", 0, 10)
	mustNoErr(t, err, "ZQuery")
	if len(members) != 0 {
		t.Errorf("Expected empty result for missing key, got %v", members)
	}
}

func testEdgeCases(t *testing.T, s store.IStore) {
	defer s.Close()

	emptyKeyValue := []byte("value for empty key")
	mustNoErr(t, s.Set("", emptyKeyValue), "Set")
	result, exists, err := s.Get("")
	mustNoErr(t, err, "Get")
	if !exists {
		t.Errorf("Empty key not found after Set")
	} else if !bytes.Equal(result, emptyKeyValue) {
		t.Errorf("Value mismatch for empty key")
	}

	mustNoErr(t, s.Set("empty-value-key", nil), "Set")
	result, exists, err = s.Get("empty-value-key")
	mustNoErr(t, err, "Get")
	if !exists {
		t.Errorf("Key for empty value not found after Set")
	} else if len(result) != 0 {
		t.Errorf("Empty value resulted in non-empty value: %v", result)
	}

	binaryValue := make([]byte, 256)
	for i := range binaryValue {
		binaryValue[i] = byte(i)
	}
	mustNoErr(t, s.Set("binary\x00key", binaryValue), "Set")
	result, exists, err = s.Get("binary\x00key")
	mustNoErr(t, err, "Get")
	if !exists || !bytes.Equal(result, binaryValue) {
		t.Errorf("Binary value mismatch")
	}

	// an empty member name is a valid member
	_, err = s.ZAdd("z", 0, "")
	mustNoErr(t, err, "ZAdd")
	_, found, err := s.ZScore("z", "")
	mustNoErr(t, err, "ZScore")
	if !found {
		t.Errorf("Empty member name not found after ZAdd")
	}
}

func testCollisionHandling(t *testing.T, s store.IStore) {
	defer s.Close()

	prefix := "collision-test-"
	numKeys := 1000

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		mustNoErr(t, s.Set(key, []byte(fmt.Sprintf("value-%d", i))), "Set")
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		expectedValue := []byte(fmt.Sprintf("value-%d", i))

		actualValue, exists, err := s.Get(key)
		mustNoErr(t, err, "Get")
		if !exists {
			t.Errorf("Key %s not found", key)
			continue
		}
		if !bytes.Equal(actualValue, expectedValue) {
			t.Errorf("Value for key %s does not match: expected %s, got %s", key, expectedValue, actualValue)
		}
	}

	for i := 0; i < numKeys; i += 2 {
		_, err := s.Del(fmt.Sprintf("%s%d", prefix, i))
		mustNoErr(t, err, "Del")
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		_, exists, _ := s.Get(key)

		if i%2 == 0 && exists {
			t.Errorf("Key %s should be deleted", key)
		} else if i%2 == 1 && !exists {
			t.Errorf("Key %s should still exist", key)
		}
	}
}

func testRealisticUsage(t *testing.T, s store.IStore) {
	defer s.Close()

	numWorkers := 8
	opsPerWorker := 500

	var wg sync.WaitGroup
	var errorCount atomic.Int32
	wg.Add(numWorkers)

	for w := 0; w < numWorkers; w++ {
		go func(workerID int) {
			defer wg.Done()

			for i := 0; i < opsPerWorker; i++ {
				key := fmt.Sprintf("worker-%d-key-%d", workerID, i%50)
				var err error
				switch i % 10 {
				case 0, 1, 2, 3:
					err = s.Set(key, []byte(fmt.Sprintf("value-%d", i)))
				case 4, 5:
					_, _, err = s.Get(key)
				case 6:
					_, err = s.Del(key)
				case 7, 8:
					_, err = s.ZAdd(fmt.Sprintf("worker-%d-board", workerID), float64(i), key)
				case 9:
					_, err = s.ZQuery(fmt.Sprintf("worker-%d-board", workerID), 0, "", 0, 5)
				}
				if err != nil {
					errorCount.Add(1)
				}
			}
		}(w)
	}

	wg.Wait()

	if n := errorCount.Load(); n > 0 {
		t.Fatalf("Test had %d errors during parallel operations", n)
	}

	// ZAdd runs for i%10 in {7, 8}, which hits ten distinct values of i%50
	for w := 0; w < numWorkers; w++ {
		members, err := s.ZQuery(fmt.Sprintf("worker-%d-board", w), 0, "", 0, 100)
		mustNoErr(t, err, "ZQuery")
		if len(members) != 10 {
			t.Errorf("Worker %d: expected 10 members, got %d", w, len(members))
		}
		for i := 1; i < len(members); i++ {
			if members[i-1].Score > members[i].Score {
				t.Errorf("Worker %d: members out of order at %d", w, i)
			}
		}
	}
}
