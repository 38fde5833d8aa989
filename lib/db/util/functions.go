package util

import (
	"github.com/cespare/xxhash/v2"
)

// --------------------------------------------------------------------------
// Hash Functions
// --------------------------------------------------------------------------

// HashString returns the 64 bit hash code used to place a key in a hash index.
// It uses xxHash, which is fast and distributes well for short keys.
func HashString(s string) uint64 {
	return xxhash.Sum64String(s)
}
