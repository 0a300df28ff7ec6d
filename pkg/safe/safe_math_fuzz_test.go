package safe

import (
	"testing"
)

// FuzzAdd tests Add with fuzzing.
func FuzzAdd(f *testing.F) {
	// Seed corpus
	f.Add(int64(0), int64(0))
	f.Add(int64(1), int64(2))
	f.Add(int64(-1), int64(1))
	f.Add(int64(9223372036854775807), int64(0))  // MaxInt64
	f.Add(int64(-9223372036854775808), int64(0)) // MinInt64

	f.Fuzz(func(t *testing.T, a, b int64) {
		defer func() { recover() }() // Overflow panic is expected behavior
		_ = Add(a, b)
	})
}

// FuzzSub tests Sub with fuzzing.
func FuzzSub(f *testing.F) {
	f.Add(int64(0), int64(0))
	f.Add(int64(10), int64(5))
	f.Add(int64(-1), int64(-1))
	f.Add(int64(9223372036854775807), int64(0))
	f.Add(int64(-9223372036854775808), int64(0))

	f.Fuzz(func(t *testing.T, a, b int64) {
		defer func() { recover() }()
		_ = Sub(a, b)
	})
}
