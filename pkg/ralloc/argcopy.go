package ralloc

import (
	"github.com/z80cc/z80cc/pkg/argloc"
	"github.com/z80cc/z80cc/pkg/varmap"
	"github.com/z80cc/z80cc/pkg/zic"
)

// argumentCopyIn emits the code spec §4.5 places directly after the
// prologue: spill every incoming argument out of the ABI locations argloc
// placed it in (physical register pieces, or positive-IX-displacement
// stack slots) into its VR frame slot. It runs the identical argloc
// algorithm the call site used, over this procedure's own argument list,
// so the two sides agree without either one recording the other's
// decisions anywhere.
func (a *allocator) argumentCopyIn() ([]zic.Entry, error) {
	argBytes := make([]int, len(a.proc.Args))
	for i, p := range a.proc.Args {
		argBytes[i] = p.Type.Size()
	}
	cp, err := argloc.Allocate(argBytes, a.proc.HasHiddenRetval)
	if err != nil {
		return nil, err
	}

	var out []*zic.Instruction
	vrCursor := 0
	stackCursor := stackArgBase

	if a.proc.HasHiddenRetval {
		ins, next, err := a.copyInPlacement(vrCursor, 2, *cp.Hidden, stackCursor)
		if err != nil {
			return nil, err
		}
		out = append(out, ins...)
		vrCursor += varmap.VRCountForBytes(2)
		stackCursor = next
	}

	for i, p := range a.proc.Args {
		ins, next, err := a.copyInPlacement(vrCursor, argBytes[i], cp.Args[i], stackCursor)
		if err != nil {
			return nil, err
		}
		out = append(out, ins...)
		vrCursor += varmap.VRCountForBytes(p.Type.Size())
		stackCursor = next
	}
	return wrapInstrs(out), nil
}

// copyInPlacement spills one argument's bytes (vrBase/bytes identify its
// VR slot) out of placement p: register pieces first, in increasing
// byte-offset order, then any stack-resident trailing bytes read from
// ascending positive IX displacements starting at stackBase. It returns
// the next argument's stack-read base (stackBase advanced by this
// argument's word-rounded stack footprint).
func (a *allocator) copyInPlacement(vrBase, bytes int, p argloc.Placement, stackBase int) ([]*zic.Instruction, int, error) {
	var out []*zic.Instruction
	byteIdx := 0
	for _, piece := range p.Pieces {
		switch piece.Part {
		case argloc.PartWhole:
			if byteIdx%2 != 0 {
				// A pair starting on an odd byte straddles two VR pairs.
				reg := pairReg(piece.Pair)
				lowD := disp(zic.ByteOffset(vrBase, bytes, byteIdx))
				highD := disp(zic.ByteOffset(vrBase, bytes, byteIdx+1))
				if err := checkDisp(highD); err != nil {
					return nil, 0, err
				}
				out = append(out, zic.Ld(zic.IndIXOperand{Disp: lowD}, zic.RegOperand{Reg: pairLowReg(reg)}),
					zic.Ld(zic.IndIXOperand{Disp: highD}, zic.RegOperand{Reg: pairHighReg(reg)}))
				byteIdx += 2
				continue
			}
			spill, err := a.spillPair(vrBase+byteIdx/2, pairReg(piece.Pair))
			if err != nil {
				return nil, 0, err
			}
			out = append(out, spill...)
			byteIdx += 2

		case argloc.PartLow, argloc.PartHigh:
			reg := pairLowReg(pairReg(piece.Pair))
			if piece.Part == argloc.PartHigh {
				reg = pairHighReg(pairReg(piece.Pair))
			}
			d := disp(zic.ByteOffset(vrBase, bytes, byteIdx))
			if err := checkDisp(d); err != nil {
				return nil, 0, err
			}
			out = append(out, zic.Ld(zic.IndIXOperand{Disp: d}, zic.RegOperand{Reg: reg}))
			byteIdx++
		}
	}

	for i := 0; i < p.StackBytes; i++ {
		srcD := stackBase + i
		if p.StackBytes%2 != 0 && i > 0 {
			// The caller pushes an odd stack part's lowest byte alone, in a
			// padded word of its own below the others.
			srcD++
		}
		if err := checkDisp(srcD); err != nil {
			return nil, 0, err
		}
		dstD := disp(zic.ByteOffset(vrBase, bytes, byteIdx))
		if err := checkDisp(dstD); err != nil {
			return nil, 0, err
		}
		out = append(out, zic.Ld(zic.RegOperand{Reg: zic.A}, zic.IndIXOperand{Disp: srcD}))
		out = append(out, zic.Ld(zic.IndIXOperand{Disp: dstD}, zic.RegOperand{Reg: zic.A}))
		byteIdx++
	}

	return out, stackBase + argloc.StackSlotBytes(p.StackBytes), nil
}

func wrapInstrs(ins []*zic.Instruction) []zic.Entry {
	out := make([]zic.Entry, len(ins))
	for i, in := range ins {
		out[i] = zic.Entry{Instr: in}
	}
	return out
}
