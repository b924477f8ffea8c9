package zic

import "testing"

func TestByteOffsetSingleByte(t *testing.T) {
	sel := ByteOffset(5, 1, 0)
	if sel != (VRSelector{Num: 5, Part: PartByte}) {
		t.Fatalf("got %+v", sel)
	}
}

func TestByteOffsetPairLayout(t *testing.T) {
	cases := []struct {
		i    int
		want VRSelector
	}{
		{0, VRSelector{Num: 5, Part: PartLow}},
		{1, VRSelector{Num: 5, Part: PartHigh}},
		{2, VRSelector{Num: 6, Part: PartLow}},
		{3, VRSelector{Num: 6, Part: PartHigh}},
	}
	for _, c := range cases {
		if got := ByteOffset(5, 4, c.i); got != c.want {
			t.Errorf("ByteOffset(5,4,%d) = %+v, want %+v", c.i, got, c.want)
		}
	}
}

func TestIsVirtual(t *testing.T) {
	if IsVirtual(RegOperand{A}) {
		t.Error("register operand should not be virtual")
	}
	if !IsVirtual(VRByte(VRSelector{Num: 0, Part: PartLow})) {
		t.Error("VR operand should be virtual")
	}
	if !IsVirtual(LocalAddrOperand{Name: "x"}) {
		t.Error("local-address operand should be virtual")
	}
}

func TestInstructionIsVirtual(t *testing.T) {
	phys := Ld(RegOperand{A}, RegOperand{B})
	if phys.IsVirtual() {
		t.Error("ld A,B should not be virtual")
	}
	virt := Ld(RegOperand{A}, VRByte(VRSelector{Num: 0, Part: PartLow}))
	if !virt.IsVirtual() {
		t.Error("ld A,vr0.low should be virtual")
	}
}

func TestEmitterAttachesLabelToFirstInstruction(t *testing.T) {
	e := NewEmitter()
	e.Label("L1")
	e.Emit(Nop())
	e.Emit(Ret())
	block := e.Block()
	if len(block) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(block))
	}
	if block[0].Label != "L1" {
		t.Errorf("label should attach to first instruction, got %q", block[0].Label)
	}
	if block[1].Label != "" {
		t.Errorf("second instruction should carry no label, got %q", block[1].Label)
	}
}

func TestEmitterNoPendingLabel(t *testing.T) {
	e := NewEmitter()
	e.Emit(Nop())
	if e.Block()[0].Label != "" {
		t.Error("instruction emitted with no pending label should have none")
	}
}

func TestLabelledBlockFindLabel(t *testing.T) {
	e := NewEmitter()
	e.Emit(Nop())
	e.Label("loop")
	e.Emit(Jp("loop"))
	block := e.Block()
	idx, ok := block.FindLabel("loop")
	if !ok || idx != 1 {
		t.Fatalf("FindLabel(loop) = %d, %v", idx, ok)
	}
	if _, ok := block.FindLabel("missing"); ok {
		t.Error("FindLabel should not find an absent label")
	}
}

func TestModuleFindProc(t *testing.T) {
	m := NewModule("test")
	p := &Procedure{Name: "_main"}
	m.AddDecl(p)
	m.AddDecl(&DataDecl{Name: "_g"})
	got, ok := m.FindProc("_main")
	if !ok || got != p {
		t.Fatalf("FindProc(_main) = %v, %v", got, ok)
	}
	if _, ok := m.FindProc("_missing"); ok {
		t.Error("FindProc should not find an absent procedure")
	}
}

func TestModuleProcsFiltersDecls(t *testing.T) {
	m := NewModule("test")
	m.AddDecl(&DataDecl{Name: "_g"})
	m.AddDecl(&Procedure{Name: "_f"})
	m.AddDecl(&ExternDecl{Name: "_h"})
	procs := m.Procs()
	if len(procs) != 1 || procs[0].Name != "_f" {
		t.Fatalf("Procs() = %+v", procs)
	}
}
