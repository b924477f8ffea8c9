package isel

import (
	"testing"

	"github.com/z80cc/z80cc/pkg/ir"
	"github.com/z80cc/z80cc/pkg/zic"
)

func i16() *ir.IntType { return &ir.IntType{Bits: 16, Signed: true} }
func u16() *ir.IntType { return &ir.IntType{Bits: 16, Signed: false} }
func i64() *ir.IntType { return &ir.IntType{Bits: 64, Signed: true} }

func findKind(b zic.LabelledBlock, k zic.Kind) int {
	n := 0
	for _, e := range b {
		if e.Instr != nil && e.Instr.Kind == k {
			n++
		}
	}
	return n
}

// TestTranslateAdd16 grounds spec §8 scenario S1: a 16-bit add of two
// parameters lowers to the native add_vrr_vrr shape, not the general byte
// loop, since both operands are Var and the width is exactly 16 bits.
func TestTranslateAdd16(t *testing.T) {
	proc := &ir.ProcDecl{
		Name:       "@add16",
		Args:       []ir.Param{{Name: "%a", Type: i16()}, {Name: "%b", Type: i16()}},
		ReturnType: i16(),
		Block: ir.LabelledBlock{
			{Instr: &ir.Instruction{Op: ir.OpAdd, Dest: "%r", Width: 16, Op1: ir.Var{Name: "%a"}, Op2: ir.Var{Name: "%b"}}},
			{Instr: &ir.Instruction{Op: ir.OpRetv, Width: 16, Op1: ir.Var{Name: "%r"}}},
		},
	}
	module := &ir.Module{Name: "@m", Decls: []ir.Decl{proc}}

	out, err := Translate(module)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(out.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(out.Decls))
	}
	zp, ok := out.Decls[0].(*zic.Procedure)
	if !ok {
		t.Fatalf("expected *zic.Procedure, got %T", out.Decls[0])
	}
	if zp.UsedVRs != 3 {
		t.Errorf("UsedVRs = %d, want 3 (VR0=a, VR1=b, VR2=r)", zp.UsedVRs)
	}
	if n := findKind(zp.Block, zic.KindAdd); n != 1 {
		t.Errorf("expected exactly 1 add instruction (native add_vrr_vrr), got %d", n)
	}
	if n := findKind(zp.Block, zic.KindAdc); n != 0 {
		t.Errorf("expected no adc instructions in the 16-bit-both-Var fast path, got %d", n)
	}
	last := zp.Block[len(zp.Block)-1]
	if last.Instr.Kind != zic.KindRet {
		t.Errorf("expected ret as the final instruction, got %s", last.Instr.Kind)
	}
}

// TestTranslateRet64HiddenReturn grounds spec §8 scenario S2: a 64-bit
// return writes through the hidden %.retval pointer rather than any
// register.
func TestTranslateRet64HiddenReturn(t *testing.T) {
	proc := &ir.ProcDecl{
		Name:       "@ret64",
		ReturnType: i64(),
		Block: ir.LabelledBlock{
			{Instr: &ir.Instruction{Op: ir.OpImm, Dest: "%v", Width: 64, Op1: ir.Imm{Value: 0x0123456789ABCDEF}}},
			{Instr: &ir.Instruction{Op: ir.OpRetv, Width: 64, Op1: ir.Var{Name: "%v"}}},
		},
	}
	module := &ir.Module{Name: "@m", Decls: []ir.Decl{proc}}

	out, err := Translate(module)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	zp := out.Decls[0].(*zic.Procedure)
	if !zp.HasHiddenRetval {
		t.Errorf("HasHiddenRetval = false, want true for a 64-bit return")
	}
	// %.retval occupies VR0 (it is inserted before any parameter); %v
	// needs 4 VR pairs for its 8 bytes, so UsedVRs must be at least 5.
	if zp.UsedVRs < 5 {
		t.Errorf("UsedVRs = %d, want at least 5 (hidden retval pointer + 8-byte value)", zp.UsedVRs)
	}
	if n := findKind(zp.Block, zic.KindRet); n != 1 {
		t.Errorf("expected exactly 1 ret, got %d", n)
	}
}

// TestTranslateCallPassesArgumentsAndRetrievesReturn exercises lowerCall end
// to end: a caller procedure calling a 16-bit-parameter, 16-bit-returning
// callee.
func TestTranslateCallPassesArgumentsAndRetrievesReturn(t *testing.T) {
	callee := &ir.ProcDecl{
		Name:       "@double",
		Args:       []ir.Param{{Name: "%x", Type: u16()}},
		ReturnType: u16(),
		Block: ir.LabelledBlock{
			{Instr: &ir.Instruction{Op: ir.OpAdd, Dest: "%r", Width: 16, Op1: ir.Var{Name: "%x"}, Op2: ir.Var{Name: "%x"}}},
			{Instr: &ir.Instruction{Op: ir.OpRetv, Width: 16, Op1: ir.Var{Name: "%r"}}},
		},
	}
	caller := &ir.ProcDecl{
		Name:       "@main",
		ReturnType: u16(),
		Block: ir.LabelledBlock{
			{Instr: &ir.Instruction{Op: ir.OpImm, Dest: "%a", Width: 16, Op1: ir.Imm{Value: 21}}},
			{Instr: &ir.Instruction{Op: ir.OpCall, Dest: "%b", Width: 16, Label: "@double", Args: []ir.Operand{ir.Var{Name: "%a"}}}},
			{Instr: &ir.Instruction{Op: ir.OpRetv, Width: 16, Op1: ir.Var{Name: "%b"}}},
		},
	}
	module := &ir.Module{Name: "@m", Decls: []ir.Decl{callee, caller}}

	out, err := Translate(module)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	var mainProc *zic.Procedure
	for _, d := range out.Decls {
		if p, ok := d.(*zic.Procedure); ok && p.Name == "_main" {
			mainProc = p
		}
	}
	if mainProc == nil {
		t.Fatalf("did not find lowered @main procedure")
	}
	if n := findKind(mainProc.Block, zic.KindCall); n != 1 {
		t.Errorf("expected exactly 1 call instruction, got %d", n)
	}
}

// TestLowerRecmbrOffset grounds recmbr: the member offset must be computed
// at selection time from the record layout and folded into an immediate add.
func TestLowerRecmbrOffset(t *testing.T) {
	record := &ir.RecordDecl{
		Name: "point",
		Members: []ir.Member{
			{Name: "x", Type: u16()},
			{Name: "y", Type: u16()},
		},
	}
	proc := &ir.ProcDecl{
		Name: "@memberof",
		Args: []ir.Param{{Name: "%p", Type: &ir.PointerType{Elem: &ir.IdentType{Name: "point", Record: record}}}},
		Block: ir.LabelledBlock{
			{Instr: &ir.Instruction{Op: ir.OpRecmbr, Dest: "%yaddr", Width: 16, Op1: ir.Var{Name: "%p"}, Member: "y", RecordType: record}},
			{Instr: &ir.Instruction{Op: ir.OpRet}},
		},
	}
	module := &ir.Module{Name: "@m", Decls: []ir.Decl{proc}}

	out, err := Translate(module)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	zp := out.Decls[0].(*zic.Procedure)
	var sawOffsetTwo bool
	for _, e := range zp.Block {
		if e.Instr == nil || e.Instr.Kind != zic.KindAdd {
			continue
		}
		if imm, ok := e.Instr.Src.(zic.Imm8Operand); ok && imm.Value == 2 {
			sawOffsetTwo = true
		}
	}
	if !sawOffsetTwo {
		t.Errorf("expected an `add A,2` for member y's offset (x is 2 bytes wide)")
	}
}

// TestLowerPtridxUsesElementSize grounds ptridx: the index is multiplied by
// the pointee's byte size before being added to the base address.
func TestLowerPtridxUsesElementSize(t *testing.T) {
	proc := &ir.ProcDecl{
		Name: "@at",
		Args: []ir.Param{
			{Name: "%base", Type: &ir.PointerType{Elem: u16()}},
			{Name: "%i", Type: u16()},
		},
		Block: ir.LabelledBlock{
			{Instr: &ir.Instruction{Op: ir.OpPtridx, Dest: "%addr", Width: 16, Op1: ir.Var{Name: "%base"}, Op2: ir.Var{Name: "%i"}, ElemType: u16()}},
			{Instr: &ir.Instruction{Op: ir.OpRet}},
		},
	}
	module := &ir.Module{Name: "@m", Decls: []ir.Decl{proc}}

	out, err := Translate(module)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	zp := out.Decls[0].(*zic.Procedure)
	if n := findKind(zp.Block, zic.KindAdd); n == 0 {
		t.Errorf("expected at least one add instruction for base+product")
	}
}

// TestLowerReccopySplitsOversizeRecords grounds reccopy's >0x7FFF-byte
// multi-chunk rule.
func TestLowerReccopySplitsOversizeRecords(t *testing.T) {
	big := &ir.ArrayType{Elem: &ir.IntType{Bits: 8, Signed: false}, Len: 0x8000}
	proc := &ir.ProcDecl{
		Name: "@copybig",
		Args: []ir.Param{
			{Name: "%dst", Type: &ir.PointerType{Elem: big}},
			{Name: "%src", Type: &ir.PointerType{Elem: big}},
		},
		Block: ir.LabelledBlock{
			{Instr: &ir.Instruction{Op: ir.OpReccopy, Op1: ir.Var{Name: "%dst"}, Op2: ir.Var{Name: "%src"}, ElemType: big}},
			{Instr: &ir.Instruction{Op: ir.OpRet}},
		},
	}
	module := &ir.Module{Name: "@m", Decls: []ir.Decl{proc}}

	out, err := Translate(module)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	zp := out.Decls[0].(*zic.Procedure)
	// Two chunks (0x7FFF + 1 byte) means two reload-HL/DE-from-VR loop
	// headers, i.e. two occurrences of KindLd loading HL from a pair VR
	// at the very start of a chunk; simplest robust check is two CondP
	// conditional jumps (one terminating each chunk's countdown).
	n := 0
	for _, e := range zp.Block {
		if e.Instr != nil && e.Instr.Kind == zic.KindJpCc && e.Instr.Cond == zic.CondP {
			n++
		}
	}
	if n != 2 {
		t.Errorf("expected 2 chunks (0x7FFF + 1 byte) for a 0x8000-byte copy, got %d chunk terminators", n)
	}
}

// TestLowerEqualityShortcutsOnFirstMismatch checks the eq
// lowering's byte-loop-then-shortcut shape on a multi-byte comparison.
func TestLowerEqualityShortcutsOnFirstMismatch(t *testing.T) {
	proc := &ir.ProcDecl{
		Name: "@eq16",
		Args: []ir.Param{{Name: "%a", Type: u16()}, {Name: "%b", Type: u16()}},
		Block: ir.LabelledBlock{
			{Instr: &ir.Instruction{Op: ir.OpEq, Dest: "%r", Width: 16, Op1: ir.Var{Name: "%a"}, Op2: ir.Var{Name: "%b"}}},
			{Instr: &ir.Instruction{Op: ir.OpRet}},
		},
	}
	module := &ir.Module{Name: "@m", Decls: []ir.Decl{proc}}

	out, err := Translate(module)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	zp := out.Decls[0].(*zic.Procedure)
	if n := findKind(zp.Block, zic.KindSub); n != 2 {
		t.Errorf("expected 2 sub instructions (one per byte), got %d", n)
	}
}

// TestTranslateExternProcDropsBody grounds the @extern attribute (spec §6
// Inputs): a procedure declared @extern contributes only a name, never a
// selected body, since its definition lives in another translation unit.
func TestTranslateExternProcDropsBody(t *testing.T) {
	proc := &ir.ProcDecl{
		Name:  "@putchar",
		Attrs: map[ir.Attr]bool{ir.AttrExtern: true},
		Args:  []ir.Param{{Name: "%c", Type: u16()}},
		Block: ir.LabelledBlock{
			{Instr: &ir.Instruction{Op: ir.OpRet}},
		},
	}
	module := &ir.Module{Name: "@m", Decls: []ir.Decl{proc}}

	out, err := Translate(module)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(out.Decls) != 1 {
		t.Fatalf("expected one declaration, got %d", len(out.Decls))
	}
	ext, ok := out.Decls[0].(*zic.ExternDecl)
	if !ok {
		t.Fatalf("expected *zic.ExternDecl, got %T", out.Decls[0])
	}
	if ext.Name == "" {
		t.Error("expected a mangled, non-empty extern name")
	}
}
