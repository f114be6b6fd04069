// Package utils provides shared test helpers for exercising the B+ tree
// engine: a scratch index file path per test and shuffled key
// permutations drawn from the global math/rand source, so they differ
// from run to run, in the same spirit as the reference database's own
// test helpers.
package utils

import (
	"math/rand"
	"os"
	"testing"
)

// Salt is a random value in [1, 1000] drawn once per test binary,
// mirroring the reference test suite's own salt. RandomKeyPermutation does
// not read it.
var Salt int64 = rand.Int63n(1000) + 1

// GetTempIndexFile reserves a unique file name for a test to use as an
// index file. The placeholder file it creates is removed before it
// returns, so nothing exists at the path yet; whatever the test creates
// there is removed once the test completes.
func GetTempIndexFile(t *testing.T) string {
	f, err := os.CreateTemp("", "*.idx")
	if err != nil {
		t.Fatal(err)
	}
	name := f.Name()
	f.Close()
	if err := os.Remove(name); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Remove(name) })
	return name
}

// RandomKeyPermutation returns a permutation of n distinct uint16 keys
// drawn from [0, 65536), suitable for exercising insertion order
// independence.
func RandomKeyPermutation(n int) []uint16 {
	pool := make([]uint16, 65536)
	for i := range pool {
		pool[i] = uint16(i)
	}
	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool[:n]
}
