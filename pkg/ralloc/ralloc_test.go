package ralloc

import (
	"testing"

	"github.com/z80cc/z80cc/pkg/ir"
	"github.com/z80cc/z80cc/pkg/zic"
)

func u16() *ir.IntType { return &ir.IntType{Bits: 16, Signed: false} }

func mustTransform(t *testing.T, proc *zic.Procedure) *zic.Procedure {
	t.Helper()
	module := &zic.Module{Name: "_m", Decls: []zic.Decl{proc}}
	out, err := Transform(module)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	return out.Decls[0].(*zic.Procedure)
}

// TestPrologueAndFrameSize grounds spec §8 scenario S1's closing claim: a
// 3-VR, no-locals procedure gets frame_size = 6 and the exact 6-instruction
// prologue.
func TestPrologueAndFrameSize(t *testing.T) {
	proc := &zic.Procedure{
		Name:    "_add16",
		UsedVRs: 3,
		Block:   zic.LabelledBlock{{Instr: zic.Ret()}},
	}
	proc = mustTransform(t, proc)

	if proc.FrameSize != 6 {
		t.Fatalf("FrameSize = %d, want 6", proc.FrameSize)
	}
	want := []zic.Kind{
		zic.KindPush, zic.KindLd, zic.KindAddIXSP, zic.KindLdSPIX, zic.KindLd, zic.KindAddIXSP,
	}
	if len(proc.Block) < len(want) {
		t.Fatalf("block too short: %d entries", len(proc.Block))
	}
	for i, k := range want {
		if proc.Block[i].Instr.Kind != k {
			t.Errorf("prologue[%d].Kind = %s, want %s", i, proc.Block[i].Instr.Kind, k)
		}
	}
	ix0, ok := proc.Block[1].Instr.Src.(zic.Imm16Operand)
	if !ok || ix0.Value != 0xFFFA { // -6 as a 16-bit two's-complement value
		t.Errorf("prologue[1] src = %v, want imm16 -6", proc.Block[1].Instr.Src)
	}
	ix1, ok := proc.Block[4].Instr.Src.(zic.Imm16Operand)
	if !ok || ix1.Value != uint16(6) {
		t.Errorf("prologue[4] src = %v, want imm16 6", proc.Block[4].Instr.Src)
	}
}

// TestEpilogueBeforeRet checks the epilogue (ld SP,IX; pop IX) is prepended
// immediately before every ret.
func TestEpilogueBeforeRet(t *testing.T) {
	proc := &zic.Procedure{Name: "_f", Block: zic.LabelledBlock{{Instr: zic.Ret()}}}
	proc = mustTransform(t, proc)

	n := len(proc.Block)
	if n < 3 {
		t.Fatalf("block too short: %d", n)
	}
	last3 := proc.Block[n-3:]
	wantKinds := []zic.Kind{zic.KindLdSPIX, zic.KindPop, zic.KindRet}
	for i, k := range wantKinds {
		if last3[i].Instr.Kind != k {
			t.Errorf("tail[%d].Kind = %s, want %s", i, last3[i].Instr.Kind, k)
		}
	}
}

// TestLowerLdVrrVrrMatchesS6 grounds spec §8 scenario S6 against the general
// displacement rule disp() implements (VR n's low byte at -2(n+1), high byte
// at -2(n+1)-1), not the scenario's own prose: `ld VR3, VR5` lowers to
// `ld L,(IX-12); ld H,(IX-13); ld (IX-8),L; ld (IX-9),H`.
func TestLowerLdVrrVrrMatchesS6(t *testing.T) {
	proc := &zic.Procedure{
		Name:    "_f",
		UsedVRs: 6,
		Block: zic.LabelledBlock{
			{Instr: zic.Ld(zic.VRPair(3), zic.VRPair(5))},
			{Instr: zic.Ret()},
		},
	}
	proc = mustTransform(t, proc)

	var got []*zic.Instruction
	for _, e := range proc.Block {
		if e.Instr.Kind == zic.KindLd {
			if _, ok := e.Instr.Dst.(zic.RegOperand); ok {
				got = append(got, e.Instr)
				continue
			}
			if _, ok := e.Instr.Dst.(zic.IndIXOperand); ok {
				if _, ok2 := e.Instr.Src.(zic.RegOperand); ok2 {
					got = append(got, e.Instr)
				}
			}
		}
	}
	if len(got) != 4 {
		t.Fatalf("expected exactly 4 fill/spill ld instructions, got %d", len(got))
	}
	check := func(i int, wantReg zic.Reg8, wantDisp int, fill bool) {
		ins := got[i]
		if fill {
			dst := ins.Dst.(zic.RegOperand)
			src := ins.Src.(zic.IndIXOperand)
			if dst.Reg != wantReg || src.Disp != wantDisp {
				t.Errorf("got[%d] = ld %s,(IX%+d), want ld %s,(IX%+d)", i, dst.Reg, src.Disp, wantReg, wantDisp)
			}
		} else {
			dst := ins.Dst.(zic.IndIXOperand)
			src := ins.Src.(zic.RegOperand)
			if src.Reg != wantReg || dst.Disp != wantDisp {
				t.Errorf("got[%d] = ld (IX%+d),%s, want ld (IX%+d),%s", i, dst.Disp, src.Reg, wantDisp, wantReg)
			}
		}
	}
	check(0, zic.L, -12, true)
	check(1, zic.H, -13, true)
	check(2, zic.L, -8, false)
	check(3, zic.H, -9, false)
}

// TestEntryLabelPrecedesPrologue grounds the calling convention: a call
// instruction targets the procedure's mangled name, so that label must mark
// the prologue's first instruction, not get stranded inside the body where
// isel originally attached it.
func TestEntryLabelPrecedesPrologue(t *testing.T) {
	proc := &zic.Procedure{
		Name: "_f",
		Block: zic.LabelledBlock{
			{Label: "_f", Instr: zic.Ret()},
		},
	}
	proc = mustTransform(t, proc)

	if len(proc.Block) == 0 || proc.Block[0].Label != "_f" {
		t.Fatalf("expected the entry label on the first instruction, got %+v", proc.Block[0])
	}
	if proc.Block[0].Instr.Kind != zic.KindPush {
		t.Errorf("expected the first instruction to be the prologue's push IX, got %s", proc.Block[0].Instr.Kind)
	}
	for _, e := range proc.Block[1:] {
		if e.Label == "_f" {
			t.Errorf("entry label duplicated inside the body at %+v", e)
		}
	}
}

// TestAddVrrVrr grounds the add_vrr_vrr table entry: fill HL (dest), fill
// BC (src), `add HL,BC`, spill HL.
func TestAddVrrVrr(t *testing.T) {
	proc := &zic.Procedure{
		Name:    "_f",
		UsedVRs: 2,
		Block: zic.LabelledBlock{
			{Instr: zic.Add(zic.VRPair(0), zic.VRPair(1))},
			{Instr: zic.Ret()},
		},
	}
	proc = mustTransform(t, proc)

	var addAt = -1
	for i, e := range proc.Block {
		if e.Instr.Kind == zic.KindAdd {
			if _, ok := e.Instr.Dst.(zic.PairOperand); ok {
				addAt = i
			}
		}
	}
	if addAt < 2 {
		t.Fatalf("expected a HL,BC add preceded by at least 2 fills, found at index %d", addAt)
	}
	add := proc.Block[addAt].Instr
	if add.Dst.(zic.PairOperand).Reg != zic.HL || add.Src.(zic.PairOperand).Reg != zic.BC {
		t.Errorf("add = %s,%s, want HL,BC", add.Dst, add.Src)
	}
	spill := proc.Block[addAt+1].Instr
	if spill.Kind != zic.KindLd {
		t.Fatalf("expected a spill ld right after the add, got %s", spill.Kind)
	}
}

// TestArgumentCopyIn grounds spec §4.5's argument copy-in: a two-16-bit-
// argument procedure spills its first argument out of HL (the first slot
// in allocation order HL, DE, BC) and its second out of DE.
func TestArgumentCopyIn(t *testing.T) {
	proc := &zic.Procedure{
		Name:    "_add16",
		Args:    []ir.Param{{Name: "%a", Type: u16()}, {Name: "%b", Type: u16()}},
		UsedVRs: 2,
		Block:   zic.LabelledBlock{{Instr: zic.Ret()}},
	}
	proc = mustTransform(t, proc)

	// VR0 (first arg) spills from HL: ld (IX-2),L; ld (IX-3),H.
	// VR1 (second arg) spills from DE: ld (IX-4),E; ld (IX-5),D.
	wantSpills := []struct {
		disp int
		reg  zic.Reg8
	}{
		{-2, zic.L}, {-3, zic.H}, {-4, zic.E}, {-5, zic.D},
	}
	idx := 0
	for _, e := range proc.Block {
		if idx >= len(wantSpills) {
			break
		}
		ins := e.Instr
		dst, ok := ins.Dst.(zic.IndIXOperand)
		if !ok {
			continue
		}
		src, ok := ins.Src.(zic.RegOperand)
		if !ok {
			continue
		}
		want := wantSpills[idx]
		if dst.Disp != want.disp || src.Reg != want.reg {
			continue
		}
		idx++
	}
	if idx != len(wantSpills) {
		t.Errorf("found %d/%d expected argument copy-in spills in order", idx, len(wantSpills))
	}
}

// TestDisplacementOverflowIsFatal grounds spec §7: a procedure needing more
// VR/local frame space than ±128 bytes can address is a compile error, not
// a silent truncation.
func TestDisplacementOverflowIsFatal(t *testing.T) {
	proc := &zic.Procedure{
		Name:    "_huge",
		UsedVRs: 100, // VR99 high byte sits at -2*100-1 = -201, out of range.
		Block: zic.LabelledBlock{
			{Instr: zic.Ld(zic.VRPair(0), zic.VRPair(99))},
			{Instr: zic.Ret()},
		},
	}
	module := &zic.Module{Name: "_m", Decls: []zic.Decl{proc}}
	if _, err := Transform(module); err == nil {
		t.Fatal("expected an error for an out-of-range frame displacement, got nil")
	}
}

// TestLeaLocalUsesComputedOffset grounds vrr_lvarptr's resolution: once the
// local's frame offset is known, lea rewrites to push IX/pop HL/add the
// offset/spill.
func TestLeaLocalUsesComputedOffset(t *testing.T) {
	proc := &zic.Procedure{
		Name:    "_f",
		UsedVRs: 1,
		Locals:  []zic.LocalDecl{{Name: "v_f_buf", Size: 4}},
		Block: zic.LabelledBlock{
			{Instr: zic.LeaLocal(0, "v_f_buf")},
			{Instr: zic.Ret()},
		},
	}
	proc = mustTransform(t, proc)

	if len(proc.LocalVars) != 1 || proc.LocalVars[0].Name != "v_f_buf" {
		t.Fatalf("LocalVars = %+v, want one entry named v_f_buf", proc.LocalVars)
	}
	var sawPushIX, sawAdd bool
	for _, e := range proc.Block {
		if e.Instr.Kind == zic.KindPush && e.Instr.Dst.(zic.PairOperand).Reg == zic.IX {
			sawPushIX = true
		}
		if e.Instr.Kind == zic.KindAdd {
			if p, ok := e.Instr.Dst.(zic.PairOperand); ok && p.Reg == zic.HL {
				sawAdd = true
			}
		}
	}
	if !sawPushIX {
		t.Error("expected a push IX in the lea lowering")
	}
	if !sawAdd {
		t.Error("expected an add HL,DE in the lea lowering")
	}
}
