package isel

import (
	"github.com/z80cc/z80cc/pkg/cerr"
	"github.com/z80cc/z80cc/pkg/ir"
	"github.com/z80cc/z80cc/pkg/mangle"
	"github.com/z80cc/z80cc/pkg/varmap"
	"github.com/z80cc/z80cc/pkg/zic"
)

// lowerInstruction dispatches one IR instruction to its Z80-IC lowering
// (spec §4.4.2), appending to c's in-progress block.
func (c *context) lowerInstruction(inst *ir.Instruction) error {
	bytes := inst.Width / 8

	switch inst.Op {
	case ir.OpNop:
		c.emit(zic.Nop())
		return nil

	case ir.OpImm:
		dest, err := c.destVR(inst)
		if err != nil {
			return err
		}
		v, ok := immValue(inst.Op1)
		if !ok {
			return cerr.New(cerr.InvalidArgument, "imm instruction's operand is not an immediate")
		}
		c.vrrConst(dest, bytes, v)
		return nil

	case ir.OpAdd, ir.OpSub:
		return c.lowerAddSub(inst, bytes)

	case ir.OpAnd, ir.OpOr, ir.OpXor:
		return c.lowerBitwise(inst, bytes)

	case ir.OpBNot:
		return c.lowerBNot(inst, bytes)

	case ir.OpNeg:
		dest, err := c.destVR(inst)
		if err != nil {
			return err
		}
		src, err := c.vrBase(inst.Op1)
		if err != nil {
			return err
		}
		c.negVrr(dest, src, bytes)
		return nil

	case ir.OpMul:
		return c.lowerMul(inst, bytes)

	case ir.OpShl, ir.OpShra, ir.OpShrl:
		return c.lowerShift(inst, bytes)

	case ir.OpEq, ir.OpNeq:
		dest, err := c.destVR(inst)
		if err != nil {
			return err
		}
		return c.lowerEquality(dest, bytes, inst.Op1, inst.Op2, inst.Op == ir.OpEq)

	case ir.OpLt, ir.OpLteq, ir.OpGt, ir.OpGteq:
		return c.lowerSignedCompare(inst, bytes)

	case ir.OpLtu, ir.OpLteu, ir.OpGtu, ir.OpGteu:
		return c.lowerUnsignedCompare(inst, bytes)

	case ir.OpTrunc:
		return c.lowerTrunc(inst)

	case ir.OpSgnext, ir.OpZrext:
		return c.lowerExtend(inst)

	case ir.OpJmp:
		c.emit(zic.Jp(mangle.Label(c.proc.Name, inst.Label)))
		return nil

	case ir.OpJnz, ir.OpJz:
		return c.lowerCondJump(inst)

	case ir.OpRet:
		c.emit(zic.Ret())
		return nil

	case ir.OpRetv:
		return c.lowerRetv(inst)

	case ir.OpCall:
		return c.lowerCall(inst)

	case ir.OpLvarptr:
		dest, err := c.destVR(inst)
		if err != nil {
			return err
		}
		v, ok := inst.Op1.(ir.Var)
		if !ok {
			return cerr.New(cerr.InvalidArgument, "lvarptr operand must name a local variable")
		}
		c.vrrLvarptr(dest, mangle.LocalVar(c.proc.Name, v.Name))
		return nil

	case ir.OpVarptr:
		dest, err := c.destVR(inst)
		if err != nil {
			return err
		}
		v, ok := inst.Op1.(ir.Var)
		if !ok {
			return cerr.New(cerr.InvalidArgument, "varptr operand must name a global")
		}
		c.emit(zic.Ld(zic.VRPair(dest), zic.Imm16Operand{Symbol: mangle.Global(v.Name), HasSymbol: true}))
		return nil

	case ir.OpRead:
		dest, err := c.destVR(inst)
		if err != nil {
			return err
		}
		addr, err := c.vrBase(inst.Op1)
		if err != nil {
			return err
		}
		c.readVrr(dest, bytes, addr)
		return nil

	case ir.OpWrite:
		addr, err := c.vrBase(inst.Op1)
		if err != nil {
			return err
		}
		src, err := c.vrBase(inst.Op2)
		if err != nil {
			return err
		}
		c.writeVrr(addr, src, bytes)
		return nil

	case ir.OpRecmbr:
		return c.lowerRecmbr(inst)

	case ir.OpPtridx:
		return c.lowerPtridx(inst)

	case ir.OpReccopy:
		return c.lowerReccopy(inst)

	default:
		return cerr.New(cerr.InvalidArgument, "instruction selector has no lowering for op %s", inst.Op)
	}
}

func (c *context) lowerAddSub(inst *ir.Instruction, bytes int) error {
	dest, err := c.destVR(inst)
	if err != nil {
		return err
	}
	// Special-case the 16-bit, both-operands-in-registers shape with the
	// native pair instruction ralloc's lowering table names (add_vrr_vrr /
	// sub_vrr_vrr): it costs one ADD/SBC HL,ss instead of a two-iteration
	// byte loop through A. Every other shape falls back to the fully
	// general byte loop, since that is the only form that is correct for
	// arbitrary width and for immediate operands.
	if bytes == 2 {
		if a, ok := inst.Op1.(ir.Var); ok {
			if b, ok := inst.Op2.(ir.Var); ok {
				aVR, err := c.vm.Find(a.Name)
				if err != nil {
					return err
				}
				bVR, err := c.vm.Find(b.Name)
				if err != nil {
					return err
				}
				if dest != aVR.FirstVR {
					c.emit(zic.Ld(zic.VRPair(dest), zic.VRPair(aVR.FirstVR)))
				}
				if inst.Op == ir.OpAdd {
					c.emit(zic.Add(zic.VRPair(dest), zic.VRPair(bVR.FirstVR)))
				} else {
					c.emit(zic.AndA())
					c.emit(zic.Sbc(zic.VRPair(dest), zic.VRPair(bVR.FirstVR)))
				}
				return nil
			}
		}
	}
	for i := 0; i < bytes; i++ {
		a, err := c.byteOperand(inst.Op1, bytes, i)
		if err != nil {
			return err
		}
		b, err := c.byteOperand(inst.Op2, bytes, i)
		if err != nil {
			return err
		}
		d := zic.VRByte(zic.ByteOffset(dest, bytes, i))
		c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, a))
		if i == 0 {
			if inst.Op == ir.OpAdd {
				c.emit(zic.Add(zic.RegOperand{Reg: zic.A}, b))
			} else {
				c.emit(zic.Sub(zic.RegOperand{Reg: zic.A}, b))
			}
		} else {
			if inst.Op == ir.OpAdd {
				c.emit(zic.Adc(zic.RegOperand{Reg: zic.A}, b))
			} else {
				c.emit(zic.Sbc(zic.RegOperand{Reg: zic.A}, b))
			}
		}
		c.emit(zic.Ld(d, zic.RegOperand{Reg: zic.A}))
	}
	return nil
}

func (c *context) lowerBitwise(inst *ir.Instruction, bytes int) error {
	dest, err := c.destVR(inst)
	if err != nil {
		return err
	}
	for i := 0; i < bytes; i++ {
		a, err := c.byteOperand(inst.Op1, bytes, i)
		if err != nil {
			return err
		}
		b, err := c.byteOperand(inst.Op2, bytes, i)
		if err != nil {
			return err
		}
		d := zic.VRByte(zic.ByteOffset(dest, bytes, i))
		c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, a))
		switch inst.Op {
		case ir.OpAnd:
			c.emit(zic.And(b))
		case ir.OpOr:
			c.emit(zic.Or(b))
		case ir.OpXor:
			c.emit(zic.Xor(b))
		}
		c.emit(zic.Ld(d, zic.RegOperand{Reg: zic.A}))
	}
	return nil
}

func (c *context) lowerBNot(inst *ir.Instruction, bytes int) error {
	dest, err := c.destVR(inst)
	if err != nil {
		return err
	}
	for i := 0; i < bytes; i++ {
		a, err := c.byteOperand(inst.Op1, bytes, i)
		if err != nil {
			return err
		}
		d := zic.VRByte(zic.ByteOffset(dest, bytes, i))
		c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, a))
		c.emit(zic.Cpl())
		c.emit(zic.Ld(d, zic.RegOperand{Reg: zic.A}))
	}
	return nil
}

func (c *context) lowerMul(inst *ir.Instruction, bytes int) error {
	dest, err := c.destVR(inst)
	if err != nil {
		return err
	}
	vrCount := varmap.VRCountForBytes(bytes)
	t := c.vm.AllocFresh(vrCount)
	u := c.vm.AllocFresh(vrCount)
	counter := c.vm.AllocFresh(1)

	if err := c.copyOperandInto(t, bytes, inst.Op1); err != nil {
		return err
	}
	if err := c.copyOperandInto(u, bytes, inst.Op2); err != nil {
		return err
	}
	c.vrrConst(dest, bytes, 0)
	counterByte := zic.VRByte(zic.VRSelector{Num: counter, Part: zic.PartByte})
	c.emit(zic.Ld(counterByte, zic.Imm8Operand{Value: uint8(inst.Width)}))

	loopLbl := c.newLabel("mulloop")
	carrySetLbl := c.newLabel("mulcarry")
	nextLbl := c.newLabel("mulnext")
	endLbl := c.newLabel("mulend")

	c.label(loopLbl)
	c.vrrShr(u, bytes, false)
	c.emit(zic.JpCc(zic.CondC, carrySetLbl))
	c.emit(zic.Jp(nextLbl))
	c.label(carrySetLbl)
	c.addInto(dest, t, bytes)
	c.label(nextLbl)
	c.vrrShl(t, bytes)
	c.emit(zic.Dec(counterByte))
	c.emit(zic.JpCc(zic.CondNZ, loopLbl))
	c.label(endLbl)
	c.emit(zic.Nop())
	return nil
}

// copyOperandInto materializes op (a variable or an immediate) into a
// fresh scratch VR range, for helpers like mul that need a mutable working
// copy regardless of the operand's original kind.
func (c *context) copyOperandInto(dest, bytes int, op ir.Operand) error {
	if v, ok := immValue(op); ok {
		c.vrrConst(dest, bytes, v)
		return nil
	}
	src, err := c.vrBase(op)
	if err != nil {
		return err
	}
	c.vrrCopy(dest, src, bytes)
	return nil
}

func (c *context) lowerShift(inst *ir.Instruction, bytes int) error {
	dest, err := c.destVR(inst)
	if err != nil {
		return err
	}
	if err := c.copyOperandInto(dest, bytes, inst.Op1); err != nil {
		return err
	}
	counter := c.vm.AllocFresh(1)
	counterByte := zic.VRByte(zic.VRSelector{Num: counter, Part: zic.PartByte})
	countByte, err := c.byteOperand(inst.Op2, widthOf(inst.Op2, bytes), 0)
	if err != nil {
		return err
	}
	c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, countByte))
	c.emit(zic.Ld(counterByte, zic.RegOperand{Reg: zic.A}))

	loopLbl := c.newLabel("shloop")
	endLbl := c.newLabel("shend")
	c.label(loopLbl)
	c.emit(zic.Dec(counterByte))
	c.emit(zic.JpCc(zic.CondM, endLbl))
	switch inst.Op {
	case ir.OpShl:
		c.vrrShl(dest, bytes)
	case ir.OpShra:
		c.vrrShr(dest, bytes, true)
	case ir.OpShrl:
		c.vrrShr(dest, bytes, false)
	}
	c.emit(zic.Jp(loopLbl))
	c.label(endLbl)
	c.emit(zic.Nop())
	return nil
}

// widthOf returns a reasonable byte width to index byte 0 of op when op's
// own width is not separately tracked by the instruction (shift-count
// operands carry no declared width of their own): 1 for an immediate,
// and the instruction's own width for a variable, which is always wide
// enough to contain byte 0.
func widthOf(op ir.Operand, fallback int) int {
	if _, ok := op.(ir.Imm); ok {
		return 1
	}
	return fallback
}

func (c *context) lowerSignedCompare(inst *ir.Instruction, bytes int) error {
	dest, err := c.destVR(inst)
	if err != nil {
		return err
	}
	switch inst.Op {
	case ir.OpLt:
		return c.lowerOrdered(dest, bytes, inst.Op1, inst.Op2, zic.CondM, true)
	case ir.OpLteq:
		return c.lowerOrdered(dest, bytes, inst.Op1, inst.Op2, zic.CondM, false)
	case ir.OpGt:
		return c.lowerOrdered(dest, bytes, inst.Op2, inst.Op1, zic.CondM, true)
	default: // ir.OpGteq
		return c.lowerOrdered(dest, bytes, inst.Op2, inst.Op1, zic.CondM, false)
	}
}

func (c *context) lowerUnsignedCompare(inst *ir.Instruction, bytes int) error {
	dest, err := c.destVR(inst)
	if err != nil {
		return err
	}
	switch inst.Op {
	case ir.OpLtu:
		return c.lowerOrdered(dest, bytes, inst.Op1, inst.Op2, zic.CondC, true)
	case ir.OpLteu:
		return c.lowerOrdered(dest, bytes, inst.Op1, inst.Op2, zic.CondC, false)
	case ir.OpGtu:
		return c.lowerOrdered(dest, bytes, inst.Op2, inst.Op1, zic.CondC, true)
	default: // ir.OpGteu
		return c.lowerOrdered(dest, bytes, inst.Op2, inst.Op1, zic.CondC, false)
	}
}

func (c *context) lowerTrunc(inst *ir.Instruction) error {
	dest, err := c.destVR(inst)
	if err != nil {
		return err
	}
	dbytes := inst.Width / 8
	sbytes := inst.SrcWidth / 8
	if v, ok := immValue(inst.Op1); ok {
		mask := uint64(1)<<(uint(dbytes)*8) - 1
		if dbytes >= 8 {
			mask = ^uint64(0)
		}
		c.vrrConst(dest, dbytes, v&mask)
		return nil
	}
	src, err := c.vrBase(inst.Op1)
	if err != nil {
		return err
	}
	c.vrrCopyIseg(dest, dbytes, src, sbytes)
	return nil
}

func (c *context) lowerExtend(inst *ir.Instruction) error {
	dest, err := c.destVR(inst)
	if err != nil {
		return err
	}
	dbytes := inst.Width / 8
	sbytes := inst.SrcWidth / 8
	signed := inst.Op == ir.OpSgnext
	if v, ok := immValue(inst.Op1); ok {
		var extended uint64
		if signed && sbytes > 0 && sbytes < 8 {
			signBit := uint64(1) << (uint(sbytes)*8 - 1)
			if v&signBit != 0 {
				extended = v | (^uint64(0) << (uint(sbytes) * 8))
			} else {
				extended = v
			}
		} else {
			extended = v
		}
		c.vrrConst(dest, dbytes, extended)
		return nil
	}
	src, err := c.vrBase(inst.Op1)
	if err != nil {
		return err
	}
	c.vrrExtend(dest, dbytes, src, sbytes, signed)
	return nil
}

func (c *context) lowerCondJump(inst *ir.Instruction) error {
	if v, ok := immValue(inst.Op1); ok {
		truthy := v != 0
		if (inst.Op == ir.OpJnz && truthy) || (inst.Op == ir.OpJz && !truthy) {
			c.emit(zic.Jp(mangle.Label(c.proc.Name, inst.Label)))
		} else {
			c.emit(zic.Nop())
		}
		return nil
	}
	high, err := c.byteOperand(inst.Op1, 2, 1)
	if err != nil {
		return err
	}
	low, err := c.byteOperand(inst.Op1, 2, 0)
	if err != nil {
		return err
	}
	c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, high))
	c.emit(zic.Or(low))
	cond := zic.CondNZ
	if inst.Op == ir.OpJz {
		cond = zic.CondZ
	}
	c.emit(zic.JpCc(cond, mangle.Label(c.proc.Name, inst.Label)))
	return nil
}
