package argloc

import (
	"reflect"
	"testing"
)

func TestPlaceSingle16BitArg(t *testing.T) {
	a := New()
	p := a.Place(2)
	want := Placement{Pieces: []Piece{{Pair: PairHL, Part: PartWhole}}, StackBytes: 0}
	if !reflect.DeepEqual(p, want) {
		t.Fatalf("got %+v, want %+v", p, want)
	}
}

func TestTwo8BitArgsShareAPair(t *testing.T) {
	a := New()
	p1 := a.Place(1)
	p2 := a.Place(1)
	if !reflect.DeepEqual(p1.Pieces, []Piece{{Pair: PairHL, Part: PartLow}}) {
		t.Fatalf("p1 = %+v", p1)
	}
	if !reflect.DeepEqual(p2.Pieces, []Piece{{Pair: PairHL, Part: PartHigh}}) {
		t.Fatalf("p2 = %+v", p2)
	}
}

func TestThreePairsThenStack(t *testing.T) {
	a := New()
	a.Place(2) // HL
	a.Place(2) // DE
	a.Place(2) // BC
	p := a.Place(2)
	if len(p.Pieces) != 0 || p.StackBytes != 2 {
		t.Fatalf("4th 16-bit arg should spill fully to stack, got %+v", p)
	}
}

func TestOddTrailingByteRoundsUpOnStack(t *testing.T) {
	if StackSlotBytes(3) != 4 {
		t.Errorf("StackSlotBytes(3) = %d, want 4", StackSlotBytes(3))
	}
	if StackSlotBytes(2) != 2 {
		t.Errorf("StackSlotBytes(2) = %d, want 2", StackSlotBytes(2))
	}
}

func TestHiddenRetvalConsumesHLFirst(t *testing.T) {
	cp, err := Allocate([]int{2}, true)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if cp.Hidden == nil || !reflect.DeepEqual(cp.Hidden.Pieces, []Piece{{Pair: PairHL, Part: PartWhole}}) {
		t.Fatalf("hidden retval should take HL, got %+v", cp.Hidden)
	}
	if !reflect.DeepEqual(cp.Args[0].Pieces, []Piece{{Pair: PairDE, Part: PartWhole}}) {
		t.Fatalf("first user arg should take DE, got %+v", cp.Args[0])
	}
}

func TestAllocateUnsupportedTooManyStackBytes(t *testing.T) {
	// Exhaust the register pool, then request a huge stack-resident argument.
	argBytes := []int{2, 2, 2, 300}
	_, err := Allocate(argBytes, false)
	if err == nil {
		t.Fatalf("expected Unsupported error for oversized stack area")
	}
}

func TestReturnConventions(t *testing.T) {
	if r := Return(8, false); r.Kind != ReturnA {
		t.Errorf("8-bit return = %+v", r)
	}
	if r := Return(16, false); r.Kind != ReturnPair || r.Pairs[0] != PairHL {
		t.Errorf("16-bit return = %+v", r)
	}
	if r := Return(16, true); r.Kind != ReturnPair || r.Pairs[0] != PairBC {
		t.Errorf("@usr 16-bit return = %+v", r)
	}
	if r := Return(32, false); r.Kind != ReturnPair2 || !reflect.DeepEqual(r.Pairs, []Pair{PairHL, PairDE}) {
		t.Errorf("32-bit return = %+v", r)
	}
	if r := Return(64, false); r.Kind != ReturnHidden {
		t.Errorf("64-bit return = %+v", r)
	}
}
