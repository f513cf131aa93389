package scorematrix

import "testing"

func TestBLOSUM62Diagonal(t *testing.T) {
	m := BLOSUM62()
	// A vs A (both code 0) should be a positive self-match.
	if s := m.Score(0, 0); s <= 0 {
		t.Fatalf("expected positive self-score, got %d", s)
	}
}

func TestNucleotideIdentity(t *testing.T) {
	m := NucleotideIdentity(2, -3)
	if m.Score(0, 0) != 2 {
		t.Fatalf("expected match score 2, got %d", m.Score(0, 0))
	}
	if m.Score(0, 1) != -3 {
		t.Fatalf("expected mismatch score -3, got %d", m.Score(0, 1))
	}
	if m.Score(4, 0) != -3 {
		t.Fatalf("N should never score positively, got %d", m.Score(4, 0))
	}
}

func TestBackgroundAndGaps(t *testing.T) {
	m := BLOSUM62()
	lambda, k, logK := m.Background()
	if lambda <= 0 || k <= 0 || logK >= 0 {
		t.Fatalf("unexpected background stats: %v %v %v", lambda, k, logK)
	}
	if m.GapOpen() <= 0 || m.GapExtend() <= 0 {
		t.Fatalf("unexpected gap costs: %d %d", m.GapOpen(), m.GapExtend())
	}
}
