// Package scorematrix defines the black-box substitution-matrix interface
// consumed by the Ungapped Rescore + Banded Aligner (spec.md §1: "Scoring
// matrix construction is consumed as a black-box interface.") and supplies
// two concrete instantiations so the module is runnable standalone: a
// BLOSUM62 matrix for amino acids and an identity matrix for nucleotides.
package scorematrix

// Matrix is the black-box substitution matrix interface. The core never
// constructs one from a matrix file itself; it only calls these methods.
type Matrix interface {
	// Score returns the substitution score between two residue codes, as
	// produced by the residue package (residue.Unknown is never passed in).
	Score(a, b int8) int8
	// Background returns the Karlin-Altschul (lambda, K, log(K)) statistics
	// used by the E-value formula in spec.md §4.5.
	Background() (lambda, k, logK float64)
	// GapOpen and GapExtend return the alphabet's default affine gap costs.
	GapOpen() int
	GapExtend() int
	// Size returns the number of residue codes the matrix covers.
	Size() int
}

type denseMatrix struct {
	size             int
	scores           []int8 // size*size, row-major
	lambda, k, logK  float64
	gapOpen, gapExt  int
}

func (m *denseMatrix) Score(a, b int8) int8 {
	if int(a) < 0 || int(b) < 0 || int(a) >= m.size || int(b) >= m.size {
		return 0
	}
	return m.scores[int(a)*m.size+int(b)]
}

func (m *denseMatrix) Background() (float64, float64, float64) { return m.lambda, m.k, m.logK }
func (m *denseMatrix) GapOpen() int                             { return m.gapOpen }
func (m *denseMatrix) GapExtend() int                           { return m.gapExt }
func (m *denseMatrix) Size() int                                { return m.size }

// blosum62Order is the amino-acid row/column order the table below is laid
// out in; it matches residue.aminoFullOrder's first 20 letters plus X.
const blosum62Order = "ACDEFGHIKLMNPQRSTVWYX"

// blosum62Rows is the standard BLOSUM62 matrix (NCBI's published table),
// with an added all-zero row/column for X (unknown).
var blosum62Rows = [21][21]int8{
	{4, 0, -2, -1, -2, 0, -2, -1, -1, -1, -1, -2, -1, -1, -1, 1, 0, 0, -3, -2, 0},
	{0, 9, -3, -4, -2, -3, -3, -1, -3, -1, -1, -3, -3, -3, -3, -1, -1, -1, -2, -2, 0},
	{-2, -3, 6, 2, -3, -1, -1, -3, -1, -4, -3, 1, -1, 0, -2, 0, -1, -3, -4, -3, 0},
	{-1, -4, 2, 5, -3, -2, 0, -3, 1, -3, -2, 0, -1, 2, 0, 0, -1, -2, -3, -2, 0},
	{-2, -2, -3, -3, 6, -3, -1, 0, -3, 0, 0, -3, -4, -3, -3, -2, -2, -1, 1, 3, 0},
	{0, -3, -1, -2, -3, 6, -2, -4, -2, -4, -3, 0, -2, -2, -2, 0, -2, -3, -2, -3, 0},
	{-2, -3, -1, 0, -1, -2, 8, -3, -1, -3, -2, 1, -2, 0, 0, -1, -2, -3, -2, 2, 0},
	{-1, -1, -3, -3, 0, -4, -3, 4, -3, 2, 1, -3, -3, -3, -3, -2, -1, 3, -3, -1, 0},
	{-1, -3, -1, 1, -3, -2, -1, -3, 5, -2, -1, 0, -1, 1, 2, 0, -1, -2, -3, -2, 0},
	{-1, -1, -4, -3, 0, -4, -3, 2, -2, 4, 2, -3, -3, -2, -2, -2, -1, 1, -2, -1, 0},
	{-1, -1, -3, -2, 0, -3, -2, 1, -1, 2, 5, -2, -2, 0, -1, -1, -1, 1, -1, -1, 0},
	{-2, -3, 1, 0, -3, 0, 1, -3, 0, -3, -2, 6, -2, 0, 0, 1, 0, -3, -4, -2, 0},
	{-1, -3, -1, -1, -4, -2, -2, -3, -1, -3, -2, -2, 7, -1, -2, -1, -1, -2, -4, -3, 0},
	{-1, -3, 0, 2, -3, -2, 0, -3, 1, -2, 0, 0, -1, 5, 1, 0, -1, -2, -2, -1, 0},
	{-1, -3, -2, 0, -3, -2, 0, -3, 2, -2, -1, 0, -2, 1, 5, -1, -1, -3, -3, -2, 0},
	{1, -1, 0, 0, -2, 0, -1, -2, 0, -2, -1, 1, -1, 0, -1, 4, 1, -2, -3, -2, 0},
	{0, -1, -1, -1, -2, -2, -2, -1, -1, -1, -1, 0, -1, -1, -1, 1, 5, 0, -2, -2, 0},
	{0, -1, -3, -2, -1, -3, -3, 3, -2, 1, 1, -3, -2, -2, -3, -2, 0, 4, -3, -1, 0},
	{-3, -2, -4, -3, 1, -2, -2, -3, -3, -2, -1, -4, -4, -2, -3, -3, -2, -3, 11, 2, 0},
	{-2, -2, -3, -2, 3, -3, 2, -1, -2, -1, -1, -2, -3, -1, -2, -2, -2, -1, 2, 7, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
}

// ordered by blosum62Order, matching residue.AminoFull's code assignment
// (A,C,D,E,F,G,H,I,K,L,M,N,P,Q,R,S,T,V,W,Y,X). residue.AminoFull assigns
// codes by aminoFullOrder = "ACDEFGHIKLMNPQRSTVWY", X = residue.Unknown
// (never passed to Score), so the row/column order above lines up directly.

// BLOSUM62 is the standard amino-acid substitution matrix, with
// Karlin-Altschul statistics for ungapped alignment (lambda=0.267, K=0.041,
// as published for BLOSUM62 with default gap costs).
func BLOSUM62() Matrix {
	flat := make([]int8, 21*21)
	for i := 0; i < 21; i++ {
		copy(flat[i*21:(i+1)*21], blosum62Rows[i][:])
	}
	return &denseMatrix{
		size:    21,
		scores:  flat,
		lambda:  0.267,
		k:       0.041,
		logK:    -3.194, // ln(0.041)
		gapOpen: 11,
		gapExt:  1,
	}
}

// NucleotideIdentity is a +match/-mismatch nucleotide scoring matrix, the
// nucleotide analogue of BLOSUM62 used by spec.md §4.5's E-value formula.
func NucleotideIdentity(match, mismatch int8) Matrix {
	const size = 5 // A,C,G,T,N
	flat := make([]int8, size*size)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			if i == 4 || j == 4 { // N never scores positively
				flat[i*size+j] = mismatch
				continue
			}
			if i == j {
				flat[i*size+j] = match
			} else {
				flat[i*size+j] = mismatch
			}
		}
	}
	return &denseMatrix{
		size:    size,
		scores:  flat,
		lambda:  1.33,
		k:       0.621,
		logK:    -0.4762,
		gapOpen: 5,
		gapExt:  2,
	}
}
