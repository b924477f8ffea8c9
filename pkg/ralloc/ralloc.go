// Package ralloc is the register allocator (spec §4.5): it rewrites a
// Z80-IC procedure's virtual-register references into physical registers
// and IX-relative stack-frame displacements, using a single, naive policy —
// fill every read, spill every write, never keep a VR resident in a
// register across instructions. It also synthesizes the procedure's
// prologue/epilogue and the argument copy-in that must run directly after
// the prologue.
package ralloc

import (
	"fmt"

	"github.com/z80cc/z80cc/pkg/argloc"
	"github.com/z80cc/z80cc/pkg/cerr"
	"github.com/z80cc/z80cc/pkg/zic"
)

// Transform rewrites every procedure in module in place and returns it,
// leaving DataDecl/ExternDecl declarations untouched.
func Transform(module *zic.Module) (*zic.Module, error) {
	for _, d := range module.Decls {
		proc, ok := d.(*zic.Procedure)
		if !ok {
			continue
		}
		if err := transformProc(proc); err != nil {
			return nil, fmt.Errorf("allocating registers for procedure %q: %w", proc.Name, err)
		}
	}
	return module, nil
}

// allocator is the per-procedure allocation context. Nothing here survives
// past one procedure: the naive policy needs no cross-instruction state
// beyond the frame layout itself.
type allocator struct {
	proc     *zic.Procedure
	localOff map[string]int
}

// transformProc computes proc's frame layout, rewrites every VR/LocalAddr
// reference in its body, and prepends the prologue and argument copy-in
// ahead of the rewritten body.
func transformProc(proc *zic.Procedure) error {
	a := &allocator{proc: proc}
	a.buildLocalOffsets()

	proc.FrameSize = 2*proc.UsedVRs + localVarSize(proc.Locals)

	// isel attaches the procedure's own entry label (its mangled name, the
	// target every caller's call instruction names) to the first
	// instruction of the body. That label has to end up on the prologue's
	// first instruction instead, or a call would jump straight past frame
	// setup and argument copy-in. Lift it off the body before rewriting.
	entryLabel := ""
	src := proc.Block
	if len(src) > 0 && src[0].Label != "" {
		entryLabel = src[0].Label
		stripped := make(zic.LabelledBlock, len(src))
		copy(stripped, src)
		stripped[0] = zic.Entry{Instr: src[0].Instr}
		src = stripped
	}

	body, err := a.rewriteBlock(src)
	if err != nil {
		return err
	}

	copyIn, err := a.argumentCopyIn()
	if err != nil {
		return err
	}

	out := zic.NewEmitter()
	if entryLabel != "" {
		out.Label(entryLabel)
	}
	emitPrologue(out, proc.FrameSize)
	for _, e := range copyIn {
		appendEntry(out, e)
	}
	for _, e := range body {
		appendEntry(out, e)
	}
	proc.Block = out.Block()
	return Verify(proc)
}

func appendEntry(e *zic.Emitter, entry zic.Entry) {
	if entry.Label != "" {
		e.Label(entry.Label)
	}
	e.Emit(entry.Instr)
}

// localVarSize sums the declared sizes of a procedure's locals, the
// "sum of local-variable sizes" term of spec §4.5's frame-size formula.
func localVarSize(locals []zic.LocalDecl) int {
	n := 0
	for _, l := range locals {
		n += l.Size
	}
	return n
}

// emitPrologue emits the exact frame-setup sequence of spec §4.5: save the
// caller's frame pointer, shrink SP by frameSize, then re-point IX at the
// base of the frame so VR and local offsets are negative and incoming
// stack-argument offsets are positive.
func emitPrologue(e *zic.Emitter, frameSize int) {
	e.Emit(zic.Push(zic.IX))
	e.Emit(zic.Ld(zic.PairOperand{Reg: zic.IX}, zic.Imm16Operand{Value: uint16(-frameSize)}))
	e.Emit(zic.AddIXSP())
	e.Emit(zic.LdSPIX())
	e.Emit(zic.Ld(zic.PairOperand{Reg: zic.IX}, zic.Imm16Operand{Value: uint16(frameSize)}))
	e.Emit(zic.AddIXSP())
}

// epilogue returns the frame-teardown sequence prepended before every ret
// the rewritten body contains (spec §4.5).
func epilogue() []*zic.Instruction {
	return []*zic.Instruction{zic.LdSPIX(), zic.Pop(zic.IX)}
}

// disp resolves a VRSelector to its concrete IX-relative displacement
// (spec §4.5's frame layout: VR n's low byte sits at -2(n+1), its high byte
// one byte further from IX at -2(n+1)-1 — confirmed both by the worked
// "(IX-2,IX-3) = VR0 low then high" example and by scenario S6, where VR5
// sits at -12/-13).
func disp(sel zic.VRSelector) int {
	base := -2 * (1 + sel.Num)
	if sel.Part == zic.PartHigh {
		return base - 1
	}
	return base
}

// checkDisp returns cerr.Unsupported if d falls outside the ±128-byte
// window (IX+d) can express (spec §7).
func checkDisp(d int) error {
	if d < -128 || d > 127 {
		return cerr.New(cerr.Unsupported, "frame displacement %d is outside the representable (IX+d) range [-128,127]", d)
	}
	return nil
}

func pairReg(p argloc.Pair) zic.Reg16 {
	switch p {
	case argloc.PairHL:
		return zic.HL
	case argloc.PairDE:
		return zic.DE
	default:
		return zic.BC
	}
}

func pairLowReg(r zic.Reg16) zic.Reg8 {
	switch r {
	case zic.HL:
		return zic.L
	case zic.DE:
		return zic.E
	case zic.BC:
		return zic.C
	default:
		return zic.L
	}
}

func pairHighReg(r zic.Reg16) zic.Reg8 {
	switch r {
	case zic.HL:
		return zic.H
	case zic.DE:
		return zic.D
	case zic.BC:
		return zic.B
	default:
		return zic.H
	}
}
