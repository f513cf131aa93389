package seqpb

import "testing"

func TestPackUnpackStrand(t *testing.T) {
	cases := []struct {
		key     uint64
		forward bool
	}{
		{0, true},
		{0, false},
		{12345, true},
		{UsableBitsMask, false},
	}
	for _, c := range cases {
		packed := PackStrand(c.key, c.forward)
		key, forward := UnpackStrand(packed)
		if key != c.key || forward != c.forward {
			t.Errorf("PackStrand(%d,%v)=%d, UnpackStrand=(%d,%v)", c.key, c.forward, packed, key, forward)
		}
	}
}

func TestPackStrandPanicsOnHighBit(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range key")
		}
	}()
	PackStrand(StrandBit, true)
}

func TestSort1Less(t *testing.T) {
	a := KmerToken{HashKey: 1, SeqLength: 10, SeqID: 2, Position: 3}
	b := KmerToken{HashKey: 1, SeqLength: 20, SeqID: 1, Position: 0}
	if !Sort1Less(b, a) {
		t.Fatal("longer sequence should sort first within equal hash key")
	}
}

func TestSort1LessGroupsAcrossStrand(t *testing.T) {
	fwd := KmerToken{HashKey: PackStrand(100, true), SeqLength: 10, SeqID: 1, Position: 0}
	rev := KmerToken{HashKey: PackStrand(100, false), SeqLength: 10, SeqID: 2, Position: 0}
	// Same canonical key, opposite strand bit: the strand bit is ignored, so
	// seq_id breaks the tie and exactly one of the two compares Less; the
	// strand bit must not dominate the comparison the way a raw HashKey
	// compare would.
	if Sort1Less(fwd, rev) == Sort1Less(rev, fwd) {
		t.Fatal("expected a strict order between same-key opposite-strand tokens")
	}
	if !Sort1Less(fwd, rev) {
		t.Fatal("expected seq_id tiebreak to order fwd before rev")
	}
}

func TestSentinel(t *testing.T) {
	if !Sentinel().IsSentinel() {
		t.Fatal("Sentinel() must report IsSentinel")
	}
	if (KmerToken{HashKey: 5}).IsSentinel() {
		t.Fatal("ordinary token must not report IsSentinel")
	}
}
