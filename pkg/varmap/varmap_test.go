package varmap

import (
	"testing"

	"github.com/z80cc/z80cc/pkg/cerr"
	"github.com/z80cc/z80cc/pkg/ir"
)

func TestInsertAndFind(t *testing.T) {
	m := New()
	e, err := m.Insert("%a", 1)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if e.FirstVR != 0 || e.VRCount != 1 {
		t.Fatalf("got %+v", e)
	}
	e2, err := m.Insert("%b", 2)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if e2.FirstVR != 1 || e2.VRCount != 2 {
		t.Fatalf("got %+v", e2)
	}
	if m.NextVR() != 3 {
		t.Fatalf("NextVR = %d, want 3", m.NextVR())
	}
}

func TestFindNotFound(t *testing.T) {
	m := New()
	_, err := m.Find("%nope")
	if !cerr.Is(err, cerr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestDuplicateInsertPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate insert")
		}
	}()
	m := New()
	m.Insert("%a", 1)
	m.Insert("%a", 1)
}

func TestVRCountForBytes(t *testing.T) {
	cases := map[int]int{1: 1, 2: 1, 4: 2, 8: 4}
	for bytes, want := range cases {
		if got := VRCountForBytes(bytes); got != want {
			t.Errorf("VRCountForBytes(%d) = %d, want %d", bytes, got, want)
		}
	}
}

func TestScanAssignsWidthsAndTruthValues(t *testing.T) {
	module := ir.NewModule("m")
	callee := &ir.ProcDecl{Name: "@callee", ReturnType: &ir.IntType{Bits: 32}}
	module.Decls = append(module.Decls, callee)

	proc := &ir.ProcDecl{
		Name:       "@main",
		ReturnType: &ir.IntType{Bits: 16},
		Args:       []ir.Param{{Name: "%a", Type: &ir.IntType{Bits: 16}}},
		Block: ir.LabelledBlock{
			{Instr: &ir.Instruction{Op: ir.OpEq, Dest: "%t", Width: 16, Op1: ir.Var{Name: "%a"}, Op2: ir.Imm{Value: 1}}},
			{Instr: &ir.Instruction{Op: ir.OpCall, Dest: "%c", Label: "@callee"}},
			{Instr: &ir.Instruction{Op: ir.OpAdd, Dest: "%r", Width: 32, Op1: ir.Var{Name: "%c"}, Op2: ir.Var{Name: "%c"}}},
		},
	}

	m, err := Scan(module, proc)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	tEntry, err := m.Find("%t")
	if err != nil || tEntry.VRCount != 1 {
		t.Fatalf("%%t entry = %+v, err=%v; want 1 VR pair (2 bytes)", tEntry, err)
	}
	cEntry, err := m.Find("%c")
	if err != nil || cEntry.VRCount != 2 {
		t.Fatalf("%%c entry = %+v, err=%v; want 2 VR pairs (4 bytes)", cEntry, err)
	}
	rEntry, err := m.Find("%r")
	if err != nil || rEntry.VRCount != 2 {
		t.Fatalf("%%r entry = %+v, err=%v; want 2 VR pairs", rEntry, err)
	}
	aEntry, err := m.Find("%a")
	if err != nil || aEntry.FirstVR != 0 {
		t.Fatalf("%%a should be allocated first (parameter), got %+v err=%v", aEntry, err)
	}
}

func TestScanCallToUnknownProcErrors(t *testing.T) {
	module := ir.NewModule("m")
	proc := &ir.ProcDecl{
		Name: "@main",
		Block: ir.LabelledBlock{
			{Instr: &ir.Instruction{Op: ir.OpCall, Dest: "%c", Label: "@missing"}},
		},
	}
	_, err := Scan(module, proc)
	if !cerr.Is(err, cerr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
