package pipeline

import (
	"testing"

	"github.com/z80cc/z80cc/pkg/ir"
	"github.com/z80cc/z80cc/pkg/zic"
)

// TestCompileAdd16 runs the S1 scenario end to end: `u16 add(u16 a, u16 b)
// { return a + b; }` must come out of the pipeline fully physical, with no
// VR or local-address operand left anywhere in the body.
func TestCompileAdd16(t *testing.T) {
	u16 := &ir.IntType{Bits: 16, Signed: false}
	proc := &ir.ProcDecl{
		Name:       "@add",
		Args:       []ir.Param{{Name: "%a", Type: u16}, {Name: "%b", Type: u16}},
		ReturnType: u16,
		Block: ir.LabelledBlock{
			{Instr: &ir.Instruction{
				Op: ir.OpAdd, Dest: "%r", Width: 16,
				Op1: ir.Var{Name: "%a"}, Op2: ir.Var{Name: "%b"},
			}},
			{Instr: &ir.Instruction{Op: ir.OpRetv, Width: 16, Op1: ir.Var{Name: "%r"}}},
		},
	}
	module := &ir.Module{Name: "m", Decls: []ir.Decl{proc}}

	out, err := Compile(module)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(out.Decls) != 1 {
		t.Fatalf("expected one declaration, got %d", len(out.Decls))
	}
	p, ok := out.Decls[0].(*zic.Procedure)
	if !ok {
		t.Fatalf("expected *zic.Procedure, got %T", out.Decls[0])
	}
	if p.FrameSize == 0 {
		t.Error("expected a nonzero FrameSize after allocation")
	}
	for _, e := range p.Block {
		if e.Instr == nil {
			continue
		}
		if zic.IsVirtual(e.Instr.Dst) || zic.IsVirtual(e.Instr.Src) {
			t.Fatalf("fully allocated body still references a virtual operand: %+v", e.Instr)
		}
	}
}
