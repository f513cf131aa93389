package kmerextract

// rollingHashTable is the 21-entry random table the rolling circular hash is
// built from (spec.md §4.3 step 1, Design Notes §9's flagged open question:
// "contains 21 entries but the protein alphabet with 21 symbols plus X may
// index out of bounds if X is not pre-filtered" — callers must filter X
// before indexing, which Extractor.Extract asserts via residue.HasUnknown).
// Seeded from a fixed PRNG sequence at init() time rather than math/rand at
// call time, so the same binary always produces the same scores (spec.md §8
// invariant 2, "idempotent rebuild").
var rollingHashTable [21]uint16

func init() {
	// A small fixed linear-congruential sequence, deterministic across
	// platforms and Go versions (unlike math/rand's algorithm, which is not
	// part of its documented compatibility guarantee for a given seed across
	// releases).
	var x uint32 = 0x2545F491
	for i := range rollingHashTable {
		x = x*1103515245 + 12345
		rollingHashTable[i] = uint16(x >> 16)
	}
}

// rotl16 rotates a 16-bit value left by shift bits.
func rotl16(v uint16, shift uint) uint16 {
	shift &= 15
	return (v << shift) | (v >> (16 - shift))
}

// rollingHash computes the 16-bit circular hash score for a k-mer window,
// and supports O(1) incremental update as the window slides by one residue
// (spec.md §4.3 step 1 "rolling circular hash... updated in O(1) per step
// from a 21-entry random table and a bit-rotation constant").
type rollingHash struct {
	shift uint
	k     int
	value uint16
}

// newRollingHash creates a hash state for a window of size k, rotating by
// hashShift bits per position (spec.md §4.3 parameter `hash_shift`).
func newRollingHash(k int, hashShift uint) *rollingHash {
	return &rollingHash{shift: hashShift, k: k}
}

// Init computes the hash from scratch over window (len(window) == k).
func (h *rollingHash) Init(window []int8) uint16 {
	var v uint16
	for i, r := range window {
		contrib := rotl16(rollingHashTable[int(r)%len(rollingHashTable)], h.shift*uint(i))
		v ^= contrib
	}
	h.value = v
	return v
}

// Roll advances the hash by one position: "leaving" is the residue that
// exits the window, "entering" is the residue that enters it, and "k" is the
// window size (so the entering residue's rotation amount matches its
// position at the trailing edge).
func (h *rollingHash) Roll(leaving, entering int8) uint16 {
	leftContrib := rotl16(rollingHashTable[int(leaving)%len(rollingHashTable)], 0)
	rightContrib := rotl16(rollingHashTable[int(entering)%len(rollingHashTable)], h.shift*uint(h.k-1))
	// Remove the leaving residue's contribution, rotate the whole
	// accumulator right by one position's worth of shift so every remaining
	// residue's contribution keeps the rotation amount implied by its
	// (now-shifted) offset within the window, then add the entering one.
	h.value = rotl16(h.value^leftContrib, 16-h.shift%16) ^ rightContrib
	return h.value
}
