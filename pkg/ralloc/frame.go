package ralloc

import "github.com/z80cc/z80cc/pkg/zic"

// stackArgBase is the first positive displacement available to a caller's
// stack-resident arguments: +0/+1 hold the caller's saved IX (pushed by
// this procedure's own prologue) and +2/+3 hold the return address, so the
// first stack-resident argument sits immediately above both.
const stackArgBase = 4

// buildLocalOffsets lays out proc's declared locals at decreasing negative
// displacements immediately below (further from IX than) the VR region,
// in declaration order, and records the result on proc.LocalVars for the
// emitter. Spec §4.5's literal frame-layout description ("local variables
// follow after all VRs") and its worked prologue arithmetic (shrinking SP
// by exactly frame_size = 2*used_vrs + local_var_size, i.e. reserving one
// contiguous negative-displacement region for both) agree with each other
// and are authoritative here over §6's looser "positive displacement"
// aside, which this allocator treats as describing incoming stack
// arguments only (see stackArgBase) — those genuinely are positive,
// living in the caller's frame above the return address, not in the
// block this procedure's own prologue reserves.
func (a *allocator) buildLocalOffsets() {
	a.localOff = make(map[string]int, len(a.proc.Locals))
	vrBytes := 2 * a.proc.UsedVRs
	cum := 0
	vars := make([]zic.LocalVar, 0, len(a.proc.Locals))
	for _, l := range a.proc.Locals {
		cum += l.Size
		off := -(vrBytes + cum + 1)
		a.localOff[l.Name] = off
		vars = append(vars, zic.LocalVar{Name: l.Name, Offset: off})
	}
	a.proc.LocalVars = vars
}

// rewriteLeaLocal resolves a KindLeaLocal instruction (spec §4.4.1
// vrr_lvarptr) into the concrete sequence spec §4.5 names for it: copy IX
// into a pair register, add the local's now-known offset, spill the
// result into the destination VR pair. Z80 has no ADD reg,IX form for a
// register other than IX/IY itself, so the IX value is first moved into
// HL via the stack.
func (a *allocator) rewriteLeaLocal(ins *zic.Instruction) ([]*zic.Instruction, error) {
	dst, ok := ins.Dst.(zic.VROperand)
	if !ok || !dst.Pair {
		return nil, unsupportedOperand(ins.Dst, "lea destination")
	}
	local, ok := ins.Src.(zic.LocalAddrOperand)
	if !ok {
		return nil, unsupportedOperand(ins.Src, "lea source")
	}
	off, ok := a.localOff[local.Name]
	if !ok {
		return nil, unsupportedOperand(ins.Src, "lea source names an unknown local")
	}

	out := []*zic.Instruction{
		zic.Push(zic.IX),
		zic.Pop(zic.HL),
		zic.Ld(zic.PairOperand{Reg: zic.DE}, zic.Imm16Operand{Value: uint16(off)}),
		zic.Add(zic.PairOperand{Reg: zic.HL}, zic.PairOperand{Reg: zic.DE}),
	}
	spill, err := a.spillPair(dst.Selector.Num, zic.HL)
	if err != nil {
		return nil, err
	}
	return append(out, spill...), nil
}
