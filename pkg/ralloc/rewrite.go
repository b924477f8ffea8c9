package ralloc

import (
	"github.com/z80cc/z80cc/pkg/cerr"
	"github.com/z80cc/z80cc/pkg/zic"
)

func unsupportedOperand(op zic.Operand, what string) error {
	return cerr.New(cerr.InvalidArgument, "register allocator: unexpected operand %s for %s", op, what)
}

// fillPair loads the two bytes of VR pair vrNum into physical pair reg,
// low byte into reg's low register, high byte into its high register
// (spec §4.5 ld_r16_vrr).
func (a *allocator) fillPair(reg zic.Reg16, vrNum int) ([]*zic.Instruction, error) {
	lowD := disp(zic.VRSelector{Num: vrNum, Part: zic.PartLow})
	highD := disp(zic.VRSelector{Num: vrNum, Part: zic.PartHigh})
	if err := checkDisp(lowD); err != nil {
		return nil, err
	}
	if err := checkDisp(highD); err != nil {
		return nil, err
	}
	return []*zic.Instruction{
		zic.Ld(zic.RegOperand{Reg: pairLowReg(reg)}, zic.IndIXOperand{Disp: lowD}),
		zic.Ld(zic.RegOperand{Reg: pairHighReg(reg)}, zic.IndIXOperand{Disp: highD}),
	}, nil
}

// spillPair is fillPair's mirror: it writes physical pair reg's two bytes
// into VR pair vrNum's frame slot (spec §4.5 ld_vrr_r16).
func (a *allocator) spillPair(vrNum int, reg zic.Reg16) ([]*zic.Instruction, error) {
	lowD := disp(zic.VRSelector{Num: vrNum, Part: zic.PartLow})
	highD := disp(zic.VRSelector{Num: vrNum, Part: zic.PartHigh})
	if err := checkDisp(lowD); err != nil {
		return nil, err
	}
	if err := checkDisp(highD); err != nil {
		return nil, err
	}
	return []*zic.Instruction{
		zic.Ld(zic.IndIXOperand{Disp: lowD}, zic.RegOperand{Reg: pairLowReg(reg)}),
		zic.Ld(zic.IndIXOperand{Disp: highD}, zic.RegOperand{Reg: pairHighReg(reg)}),
	}, nil
}

// resolveByte rewrites a VR-byte operand into its (IX+d) form, leaving
// every other operand shape untouched.
func resolveByte(op zic.Operand) (zic.Operand, error) {
	v, ok := op.(zic.VROperand)
	if !ok || v.Pair {
		return op, nil
	}
	d := disp(v.Selector)
	if err := checkDisp(d); err != nil {
		return nil, err
	}
	return zic.IndIXOperand{Disp: d}, nil
}

func isMemoryByte(op zic.Operand) bool {
	switch v := op.(type) {
	case zic.VROperand:
		return !v.Pair
	case zic.IndHLOperand, zic.IndDEOperand, zic.IndIXOperand:
		return true
	}
	return false
}

func isVRPair(op zic.Operand) (int, bool) {
	v, ok := op.(zic.VROperand)
	if !ok || !v.Pair {
		return 0, false
	}
	return v.Selector.Num, true
}

// rewriteBlock walks b in order, resolving labels and expanding each
// instruction via rewriteInstruction, and prepends the epilogue sequence
// before every ret the body contains (spec §4.5); a conditional return is
// rejected.
func (a *allocator) rewriteBlock(b zic.LabelledBlock) (zic.LabelledBlock, error) {
	var out zic.LabelledBlock
	for _, entry := range b {
		if entry.Instr == nil {
			out = append(out, entry)
			continue
		}
		expanded, err := a.rewriteInstruction(entry.Instr)
		if err != nil {
			return nil, err
		}
		if len(expanded) == 0 {
			continue
		}
		first := true
		for _, ins := range expanded {
			label := ""
			if first {
				label = entry.Label
				first = false
			}
			out = append(out, zic.Entry{Label: label, Instr: ins})
		}
	}
	return out, nil
}

// rewriteInstruction expands one virtual Z80-IC instruction into one or
// more physical ones. A ret is preceded by the epilogue, so frame teardown
// runs immediately before the return; a retcc is rejected with
// cerr.Unsupported.
func (a *allocator) rewriteInstruction(ins *zic.Instruction) ([]*zic.Instruction, error) {
	switch ins.Kind {
	case zic.KindLeaLocal:
		return a.rewriteLeaLocal(ins)

	case zic.KindLd:
		return a.rewriteLd(ins)

	case zic.KindAdd, zic.KindSbc:
		if vr, ok := isVRPair(ins.Dst); ok {
			return a.rewritePairArith(ins.Kind, vr, ins.Src)
		}
		return a.rewriteByteOp(ins)

	case zic.KindAdc, zic.KindSub, zic.KindAnd, zic.KindOr, zic.KindXor:
		return a.rewriteByteOp(ins)

	case zic.KindInc, zic.KindDec:
		return a.rewriteIncDec(ins)

	case zic.KindRet:
		return append(epilogue(), ins), nil

	case zic.KindRetCc:
		// A conditional return cannot be preceded by an unconditional
		// epilogue; spec §4.5 does not need this shape (ret is always
		// emitted unconditionally by isel), so ralloc never needs to
		// synthesize a conditional epilogue for it.
		return nil, cerr.New(cerr.Unsupported, "register allocator: conditional return is not supported")

	default:
		// Cpl, Neg, shifts/rotates, Bit, Jp, JpCc, Call, Push, Pop,
		// Nop, LdSPIX, AddIXSP never reference a VR or local operand.
		return []*zic.Instruction{ins}, nil
	}
}

// rewriteLd handles every Ld shape spec §4.5 names: the VR-pair forms
// (ld_vrr_vrr, ld_r16_vrr, ld_vrr_r16, ld_vrr_nn) and the byte-level forms,
// where a VR byte substitutes directly for an (IX+d) operand except when
// doing so would produce an illegal memory-to-memory instruction (ld_vr_ihl
// / ld_ihl_vr), which must instead be mediated through A.
func (a *allocator) rewriteLd(ins *zic.Instruction) ([]*zic.Instruction, error) {
	if dstVR, ok := isVRPair(ins.Dst); ok {
		switch src := ins.Src.(type) {
		case zic.VROperand:
			if !src.Pair {
				return nil, unsupportedOperand(ins.Src, "ld_vrr_vrr source")
			}
			fill, err := a.fillPair(zic.HL, src.Selector.Num)
			if err != nil {
				return nil, err
			}
			spill, err := a.spillPair(dstVR, zic.HL)
			if err != nil {
				return nil, err
			}
			return append(fill, spill...), nil

		case zic.PairOperand:
			return a.spillPair(dstVR, src.Reg)

		case zic.Imm16Operand:
			load := zic.Ld(zic.PairOperand{Reg: zic.HL}, src)
			spill, err := a.spillPair(dstVR, zic.HL)
			if err != nil {
				return nil, err
			}
			return append([]*zic.Instruction{load}, spill...), nil

		default:
			return nil, unsupportedOperand(ins.Src, "ld_vrr_* source")
		}
	}

	if srcVR, ok := isVRPair(ins.Src); ok {
		dstPair, ok := ins.Dst.(zic.PairOperand)
		if !ok {
			return nil, unsupportedOperand(ins.Dst, "ld_r16_vrr destination")
		}
		return a.fillPair(dstPair.Reg, srcVR)
	}

	dstMem := isMemoryByte(ins.Dst)
	srcMem := isMemoryByte(ins.Src)
	if dstMem && srcMem {
		src, err := resolveByte(ins.Src)
		if err != nil {
			return nil, err
		}
		dst, err := resolveByte(ins.Dst)
		if err != nil {
			return nil, err
		}
		return []*zic.Instruction{
			zic.Ld(zic.RegOperand{Reg: zic.A}, src),
			zic.Ld(dst, zic.RegOperand{Reg: zic.A}),
		}, nil
	}

	dst, err := resolveByte(ins.Dst)
	if err != nil {
		return nil, err
	}
	src, err := resolveByte(ins.Src)
	if err != nil {
		return nil, err
	}
	return []*zic.Instruction{zic.Ld(dst, src)}, nil
}

// rewriteByteOp handles the 8-bit accumulator ops (add_vr/adc_vr/sub_vr/
// and_vr/or_vr/xor_vr): Dst is always A already, Src substitutes directly
// to (IX+d) when it names a VR byte (spec §4.5 and_vr/or_vr/xor_vr).
func (a *allocator) rewriteByteOp(ins *zic.Instruction) ([]*zic.Instruction, error) {
	src, err := resolveByte(ins.Src)
	if err != nil {
		return nil, err
	}
	return []*zic.Instruction{{Kind: ins.Kind, Dst: ins.Dst, Src: src}}, nil
}

// rewritePairArith handles the native 16-bit add_vrr_vrr/sub_vrr_vrr shape
// (spec §4.5): fill HL with the destination's current value, fill BC with
// the other operand, perform the op on the register pair, spill HL back.
func (a *allocator) rewritePairArith(kind zic.Kind, destVR int, src zic.Operand) ([]*zic.Instruction, error) {
	srcVR, ok := isVRPair(src)
	if !ok {
		return nil, unsupportedOperand(src, "add_vrr_vrr/sub_vrr_vrr source")
	}
	fillDest, err := a.fillPair(zic.HL, destVR)
	if err != nil {
		return nil, err
	}
	fillSrc, err := a.fillPair(zic.BC, srcVR)
	if err != nil {
		return nil, err
	}
	op := &zic.Instruction{Kind: kind, Dst: zic.PairOperand{Reg: zic.HL}, Src: zic.PairOperand{Reg: zic.BC}}
	spill, err := a.spillPair(destVR, zic.HL)
	if err != nil {
		return nil, err
	}
	out := append(fillDest, fillSrc...)
	out = append(out, op)
	return append(out, spill...), nil
}

// rewriteIncDec handles inc/dec of a VR byte (direct (IX+d) substitution,
// since INC/DEC (IX+d) is a real Z80 instruction), a VR pair (fill/op/spill
// through HL, since there is no 16-bit memory-operand INC/DEC), or a
// physical operand (passed through unchanged).
func (a *allocator) rewriteIncDec(ins *zic.Instruction) ([]*zic.Instruction, error) {
	if vr, ok := isVRPair(ins.Dst); ok {
		fill, err := a.fillPair(zic.HL, vr)
		if err != nil {
			return nil, err
		}
		op := &zic.Instruction{Kind: ins.Kind, Dst: zic.PairOperand{Reg: zic.HL}}
		spill, err := a.spillPair(vr, zic.HL)
		if err != nil {
			return nil, err
		}
		out := append(fill, op)
		return append(out, spill...), nil
	}
	dst, err := resolveByte(ins.Dst)
	if err != nil {
		return nil, err
	}
	return []*zic.Instruction{{Kind: ins.Kind, Dst: dst}}, nil
}
