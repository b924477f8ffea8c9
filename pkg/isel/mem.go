package isel

import (
	"github.com/z80cc/z80cc/pkg/argloc"
	"github.com/z80cc/z80cc/pkg/cerr"
	"github.com/z80cc/z80cc/pkg/ir"
	"github.com/z80cc/z80cc/pkg/varmap"
	"github.com/z80cc/z80cc/pkg/zic"
)

// lowerRetv implements retv (spec §4.4.2): load the return value into the
// ABI register(s) argloc.Return names, or, for a 64-bit result, write it
// through the caller-supplied hidden pointer held in "%.retval". Frame
// teardown is ralloc's job; this only emits the ret itself.
func (c *context) lowerRetv(inst *ir.Instruction) error {
	ret := argloc.Return(c.proc.ReturnWidth(), c.proc.HasAttr(ir.AttrUsr))
	bytes := inst.Width / 8

	switch ret.Kind {
	case argloc.ReturnA:
		b, err := c.byteOperand(inst.Op1, 1, 0)
		if err != nil {
			return err
		}
		c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, b))

	case argloc.ReturnPair:
		src, err := c.pairWordOperand(inst.Op1, bytes, 0)
		if err != nil {
			return err
		}
		c.emit(zic.Ld(zic.PairOperand{Reg: pairReg(ret.Pairs[0])}, src))

	case argloc.ReturnPair2:
		lo, err := c.pairWordOperand(inst.Op1, bytes, 0)
		if err != nil {
			return err
		}
		hi, err := c.pairWordOperand(inst.Op1, bytes, 1)
		if err != nil {
			return err
		}
		c.emit(zic.Ld(zic.PairOperand{Reg: pairReg(ret.Pairs[0])}, lo))
		c.emit(zic.Ld(zic.PairOperand{Reg: pairReg(ret.Pairs[1])}, hi))

	case argloc.ReturnHidden:
		hidden, err := c.vm.Find("%.retval")
		if err != nil {
			return err
		}
		if v, ok := immValue(inst.Op1); ok {
			tmp := c.vm.AllocFresh(varmap.VRCountForBytes(bytes))
			c.vrrConst(tmp, bytes, v)
			c.writeVrr(hidden.FirstVR, tmp, bytes)
		} else {
			src, err := c.vrBase(inst.Op1)
			if err != nil {
				return err
			}
			c.writeVrr(hidden.FirstVR, src, bytes)
		}

	case argloc.ReturnNone:
		// Nothing to load; fall through to ret.
	}

	c.emit(zic.Ret())
	return nil
}

// pairWordOperand resolves 16-bit word index wi (0 = least significant) of
// op, interpreted as a bytes-wide value, directly as a zic pair operand.
func (c *context) pairWordOperand(op ir.Operand, bytes, wi int) (zic.Operand, error) {
	if v, ok := immValue(op); ok {
		return zic.Imm16Operand{Value: uint16(v >> (16 * uint(wi)))}, nil
	}
	base, err := c.vrBase(op)
	if err != nil {
		return nil, err
	}
	return zic.VRPair(base + wi), nil
}

// lowerRecmbr implements recmbr (spec §4.4.2): the member offset is a
// selection-time constant computed from the record layout, so the lowering
// is a plain 16-bit add of that constant to the base pointer.
func (c *context) lowerRecmbr(inst *ir.Instruction) error {
	dest, err := c.destVR(inst)
	if err != nil {
		return err
	}
	if inst.RecordType == nil {
		return cerr.New(cerr.InvalidArgument, "recmbr instruction carries no record type")
	}
	off, _, ok := inst.RecordType.Offset(inst.Member)
	if !ok {
		return cerr.New(cerr.NotFound, "record %q has no member %q", inst.RecordType.Name, inst.Member)
	}
	base, err := c.vrBase(inst.Op1)
	if err != nil {
		return err
	}
	lowImm := zic.Imm8Operand{Value: uint8(off)}
	highImm := zic.Imm8Operand{Value: uint8(off >> 8)}
	baseLow := zic.VRByte(zic.ByteOffset(base, 2, 0))
	baseHigh := zic.VRByte(zic.ByteOffset(base, 2, 1))
	destLow := zic.VRByte(zic.ByteOffset(dest, 2, 0))
	destHigh := zic.VRByte(zic.ByteOffset(dest, 2, 1))
	c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, baseLow))
	c.emit(zic.Add(zic.RegOperand{Reg: zic.A}, lowImm))
	c.emit(zic.Ld(destLow, zic.RegOperand{Reg: zic.A}))
	c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, baseHigh))
	c.emit(zic.Adc(zic.RegOperand{Reg: zic.A}, highImm))
	c.emit(zic.Ld(destHigh, zic.RegOperand{Reg: zic.A}))
	return nil
}

// lowerPtridx implements ptridx (spec §4.4.2): dest = base + index *
// element_size, the multiplication done by vrr_cmul against the
// compile-time-known element size, the addition a plain 16-bit pointer add.
func (c *context) lowerPtridx(inst *ir.Instruction) error {
	dest, err := c.destVR(inst)
	if err != nil {
		return err
	}
	if inst.ElemType == nil {
		return cerr.New(cerr.InvalidArgument, "ptridx instruction carries no element type")
	}
	bytes := inst.Width / 8
	base, err := c.vrBase(inst.Op1)
	if err != nil {
		return err
	}
	idx := c.vm.AllocFresh(varmap.VRCountForBytes(bytes))
	if err := c.copyOperandInto(idx, bytes, inst.Op2); err != nil {
		return err
	}
	product := c.vm.AllocFresh(varmap.VRCountForBytes(bytes))
	c.vrrCmul(product, uint64(inst.ElemType.Size()), idx, bytes)
	c.addVRs(dest, base, product, bytes)
	return nil
}

// lowerReccopy implements reccopy (spec §4.4.2): a manual byte-copy loop
// through HL/DE, counted down with two 8-bit decrements rather than a 16-bit
// one since DEC rr leaves the flags untouched. A record larger than 0x7FFF
// bytes is copied in successive chunks of at most that size, each one a
// fresh loop with its own HL/DE reload.
//
// Op1 is the destination address, Op2 the source address — the same
// dest-then-src order read/write already use for their single address.
func (c *context) lowerReccopy(inst *ir.Instruction) error {
	if inst.ElemType == nil {
		return cerr.New(cerr.InvalidArgument, "reccopy instruction carries no element type")
	}
	dstBase, err := c.vrBase(inst.Op1)
	if err != nil {
		return err
	}
	srcBase, err := c.vrBase(inst.Op2)
	if err != nil {
		return err
	}

	remaining := inst.ElemType.Size()
	for remaining > 0 {
		chunk := remaining
		if chunk > 0x7FFF {
			chunk = 0x7FFF
		}
		c.emitReccopyChunk(dstBase, srcBase, chunk)
		remaining -= chunk
	}
	return nil
}

func (c *context) emitReccopyChunk(dstAddr, srcAddr, chunk int) {
	count := c.vm.AllocFresh(1)
	c.vrrConst(count, 2, uint64(chunk))
	countLow := zic.VRByte(zic.VRSelector{Num: count, Part: zic.PartLow})
	countHigh := zic.VRByte(zic.VRSelector{Num: count, Part: zic.PartHigh})

	c.emit(zic.Ld(zic.PairOperand{Reg: zic.HL}, zic.VRPair(srcAddr)))
	c.emit(zic.Ld(zic.PairOperand{Reg: zic.DE}, zic.VRPair(dstAddr)))

	loopLbl := c.newLabel("reccopy")
	c.label(loopLbl)
	c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, zic.IndHLOperand{}))
	c.emit(zic.Ld(zic.IndDEOperand{}, zic.RegOperand{Reg: zic.A}))
	c.emit(zic.Inc(zic.PairOperand{Reg: zic.HL}))
	c.emit(zic.Inc(zic.PairOperand{Reg: zic.DE}))
	c.emit(zic.Dec(countLow))
	c.emit(zic.JpCc(zic.CondNZ, loopLbl))
	c.emit(zic.Dec(countHigh))
	c.emit(zic.JpCc(zic.CondP, loopLbl))

	c.emit(zic.Ld(zic.VRPair(srcAddr), zic.PairOperand{Reg: zic.HL}))
	c.emit(zic.Ld(zic.VRPair(dstAddr), zic.PairOperand{Reg: zic.DE}))
}
