package util

import "testing"

func TestHashStringIsStable(t *testing.T) {
	for _, s := range []string{"", "a", "key:1", "a much longer key with spaces"} {
		if HashString(s) != HashString(string([]byte(s))) {
			t.Errorf("HashString(%q) is not stable", s)
		}
	}
	// xxhash64 of the empty input with seed 0
	if got := HashString(""); got != 0xef46db3751d8e999 {
		t.Errorf("Expected xxhash64 of empty string, got %x", got)
	}
}

func TestHashStringDistinguishesKeys(t *testing.T) {
	seen := make(map[uint64]string)
	for i := 0; i < 10000; i++ {
		key := "key-" + string(rune('a'+i%26)) + string(rune(i))
		h := HashString(key)
		if other, ok := seen[h]; ok && other != key {
			t.Fatalf("unexpected collision between %q and %q", key, other)
		}
		seen[h] = key
	}
}
