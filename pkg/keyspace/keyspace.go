package keyspace

import (
	"errors"
	"math/big"
)

// ErrEndOfSpace is returned by Increment once every value of the counter has
// been produced.
var ErrEndOfSpace = errors.New("end of search space reached")

// Increment advances buf as a little-endian counter. The first byte changes
// fastest; bytes at 0xff are reset to zero and the carry moves to the next one.
// When every byte was 0xff the buffer wraps to all zeros and ErrEndOfSpace is
// returned.
func Increment(buf []byte) error {
	for i := range buf {
		if buf[i] < 0xff {
			buf[i]++
			return nil
		}
		buf[i] = 0
	}
	return ErrEndOfSpace
}

// Assemble returns a copy of template with bytes [start,end) replaced by
// scratch. Neither template nor scratch is modified.
func Assemble(template, scratch []byte, start, end int) []byte {
	candidate := make([]byte, len(template))
	copy(candidate, template)
	copy(candidate[start:end], scratch)
	return candidate
}

// Size returns the number of candidates for a scratch region of n bytes,
// i.e. 2^(8n).
func Size(n int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(8*n))
}

// Enumerate produces every candidate for template with the unknown region
// [start,end), in counter order starting from the all-zero scratch value.
func Enumerate(template []byte, start, end int) [][]byte {
	scratch := make([]byte, end-start)
	candidates := make([][]byte, 0, Size(len(scratch)).Uint64())

	// The all-zero value is taken before the first increment.
	candidates = append(candidates, Assemble(template, scratch, start, end))
	for Increment(scratch) == nil {
		candidates = append(candidates, Assemble(template, scratch, start, end))
	}
	return candidates
}
