package testing

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/rKV/lib/store"
)

// RunStoreBenchmarks runs all benchmarks for an IStore implementation
func RunStoreBenchmarks(b *testing.B, name string, factory StoreFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Set", func(b *testing.B) {
			benchmarkSet(b, factory())
		})

		b.Run("SetExisting", func(b *testing.B) {
			benchmarkSetExisting(b, factory())
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory())
		})

		b.Run("ZAdd", func(b *testing.B) {
			benchmarkZAdd(b, factory())
		})

		b.Run("ZQuery", func(b *testing.B) {
			benchmarkZQuery(b, factory())
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for Set operation
func benchmarkSet(b *testing.B, s store.IStore) {
	b.Cleanup(func() {
		s.Close()
	})

	var counter atomic.Int64
	value := []byte("benchmark-value")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			key := fmt.Sprintf("key-%d", counter.Add(1))
			if err := s.Set(key, value); err != nil {
				b.Fatalf("Set failed: %v", err)
			}
		}
	})
}

// Benchmark for overwriting a small set of hot keys
func benchmarkSetExisting(b *testing.B, s store.IStore) {
	b.Cleanup(func() {
		s.Close()
	})

	const numKeys = 1000
	value := []byte("benchmark-value")
	for i := 0; i < numKeys; i++ {
		_ = s.Set(fmt.Sprintf("key-%d", i), value)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_ = s.Set(fmt.Sprintf("key-%d", i%numKeys), value)
			i++
		}
	})
}

// Benchmark for Get operation
func benchmarkGet(b *testing.B, s store.IStore) {
	b.Cleanup(func() {
		s.Close()
	})

	const numKeys = 10_000
	for i := 0; i < numKeys; i++ {
		_ = s.Set(fmt.Sprintf("key-%d", i), []byte(fmt.Sprintf("value-%d", i)))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			_, _, _ = s.Get(fmt.Sprintf("key-%d", rnd.Intn(numKeys)))
		}
	})
}

// Benchmark for ZAdd on a single growing sorted set
func benchmarkZAdd(b *testing.B, s store.IStore) {
	b.Cleanup(func() {
		s.Close()
	})

	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			name := fmt.Sprintf("member-%d", counter.Add(1))
			_, _ = s.ZAdd("bench-zset", rnd.Float64()*1e6, name)
		}
	})
}

// Benchmark for ZQuery windows of ten members
func benchmarkZQuery(b *testing.B, s store.IStore) {
	b.Cleanup(func() {
		s.Close()
	})

	const numMembers = 10_000
	for i := 0; i < numMembers; i++ {
		_, _ = s.ZAdd("bench-zset", float64(i), fmt.Sprintf("member-%d", i))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			_, _ = s.ZQuery("bench-zset", float64(rnd.Intn(numMembers)), "", 0, 10)
		}
	})
}

// Benchmark for a read heavy mix of all commands
func benchmarkMixedUsage(b *testing.B, s store.IStore) {
	b.Cleanup(func() {
		s.Close()
	})

	const numKeys = 1000
	value := []byte("benchmark-value")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			key := fmt.Sprintf("key-%d", rnd.Intn(numKeys))
			switch op := rnd.Intn(10); {
			case op < 5:
				_, _, _ = s.Get(key)
			case op < 7:
				_ = s.Set(key, value)
			case op < 8:
				_, _ = s.Del(key)
			case op < 9:
				_, _ = s.ZAdd("mixed-zset", rnd.Float64(), key)
			default:
				_, _ = s.ZQuery("mixed-zset", rnd.Float64(), "", 0, 5)
			}
		}
	})
}
