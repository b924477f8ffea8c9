package varmap

import (
	"github.com/z80cc/z80cc/pkg/cerr"
	"github.com/z80cc/z80cc/pkg/ir"
)

// Scan performs the pre-selection scan of spec §4.2: walk every instruction
// in proc's block and, for each one whose destination is a fresh numeric
// variable, record a varmap entry sized by:
//
//	(a) 2 bytes for the truth-valued comparison instructions
//	(b) the called procedure's return-type width, for call
//	(c) the instruction's own Width field, otherwise
//
// Parameters are inserted first, in declaration order, so their VR numbers
// are stable and independent of how the body happens to reference them.
// proc.Locals are deliberately NOT inserted here: a declared local lives in
// the frame's local-variable area (negative IX displacements below the VR
// slots), addressed only through lvarptr, never held directly in a VR the way a
// numeric temporary or parameter is.
func Scan(module *ir.Module, proc *ir.ProcDecl) (*Map, error) {
	m := New()

	if proc.ReturnWidth() == 64 {
		if _, err := m.InsertWidth("%.retval", 2); err != nil {
			return nil, err
		}
	}
	for _, p := range proc.Args {
		if _, err := m.InsertWidth(p.Name, p.Type.Size()); err != nil {
			return nil, err
		}
	}

	for _, entry := range proc.Block {
		inst := entry.Instr
		if inst == nil || inst.Dest == "" {
			continue
		}
		if _, exists := m.entries[inst.Dest]; exists {
			continue
		}
		bytes, err := destWidthBytes(module, inst)
		if err != nil {
			return nil, err
		}
		if _, err := m.InsertWidth(inst.Dest, bytes); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func destWidthBytes(module *ir.Module, inst *ir.Instruction) (int, error) {
	switch {
	case inst.Op.IsTruthValued():
		return 2, nil
	case inst.Op == ir.OpCall:
		callee, ok := module.FindProc(inst.Label)
		if !ok {
			return 0, cerr.New(cerr.NotFound, "call to undeclared procedure %q", inst.Label)
		}
		w := callee.ReturnWidth()
		if w == 0 {
			return 0, nil // void call assigned to no destination in practice
		}
		return w / 8, nil
	default:
		return inst.Width / 8, nil
	}
}
