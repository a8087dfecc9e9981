package arrivals

import "unicode/utf16"

// xmur3 hashes a seed string into a generator of 32-bit seeds. Characters are
// consumed as UTF-16 code units so browser-side callers hash identically.
func xmur3(s string) func() uint32 {
	units := utf16.Encode([]rune(s))
	h := uint32(1779033703) ^ uint32(len(units))
	for _, c := range units {
		h = (h ^ uint32(c)) * 3432918353
		h = h<<13 | h>>19
	}
	return func() uint32 {
		h = (h ^ h>>16) * 2246822507
		h = (h ^ h>>13) * 3266489909
		h ^= h >> 16
		return h
	}
}

// mulberry32 yields floats in [0,1).
func mulberry32(a uint32) func() float64 {
	return func() float64 {
		a += 0x6D2B79F5
		t := (a ^ a>>15) * (1 | a)
		t ^= t + (t^t>>7)*(61|t)
		return float64(t^t>>14) / 4294967296
	}
}

// seededShuffle returns a Fisher-Yates permutation of items that depends only
// on seed. The input slice is not modified.
func seededShuffle[T any](items []T, seed string) []T {
	rand := mulberry32(xmur3(seed)())
	out := append([]T(nil), items...)
	for i := len(out) - 1; i > 0; i-- {
		j := int(rand() * float64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}
