package isel

import (
	"github.com/z80cc/z80cc/pkg/varmap"
	"github.com/z80cc/z80cc/pkg/zic"
)

// The functions in this file are the shared multi-byte lowering helpers of
// spec §4.4.1. Each operates purely on VR numbers and byte counts already
// resolved by the caller; none look at the source ir.Instruction.

// vrrConst emits the per-word/per-byte materialization of a literal value
// into dest.
func (c *context) vrrConst(dest, bytes int, value uint64) {
	if bytes == 1 {
		c.emit(zic.Ld(zic.VRByte(zic.ByteOffset(dest, 1, 0)), zic.Imm8Operand{Value: uint8(value)}))
		return
	}
	for w := 0; w < bytes/2; w++ {
		nn := uint16(value >> (16 * uint(w)))
		c.emit(zic.Ld(zic.VRPair(dest+w), zic.Imm16Operand{Value: nn}))
	}
}

// vrrCopy copies bytes bytes from src to dest, byte by byte via A.
func (c *context) vrrCopy(dest, src, bytes int) {
	for i := 0; i < bytes; i++ {
		s := zic.VRByte(zic.ByteOffset(src, bytes, i))
		d := zic.VRByte(zic.ByteOffset(dest, bytes, i))
		c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, s))
		c.emit(zic.Ld(d, zic.RegOperand{Reg: zic.A}))
	}
}

// vrrCopyIseg copies min(dbytes, sbytes) low-significance bytes from src to
// dest, used for truncation.
func (c *context) vrrCopyIseg(dest, dbytes, src, sbytes int) {
	n := dbytes
	if sbytes < n {
		n = sbytes
	}
	for i := 0; i < n; i++ {
		s := zic.VRByte(zic.ByteOffset(src, sbytes, i))
		d := zic.VRByte(zic.ByteOffset(dest, dbytes, i))
		c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, s))
		c.emit(zic.Ld(d, zic.RegOperand{Reg: zic.A}))
	}
}

// vrrExtend copies the low sbytes from src to dest, then fills the
// remaining high-order dest bytes with 0 (zero extension) or the
// sign-propagated fill computed from bit 7 of the top source byte (sign
// extension).
func (c *context) vrrExtend(dest, dbytes, src, sbytes int, signed bool) {
	for i := 0; i < sbytes; i++ {
		s := zic.VRByte(zic.ByteOffset(src, sbytes, i))
		d := zic.VRByte(zic.ByteOffset(dest, dbytes, i))
		c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, s))
		c.emit(zic.Ld(d, zic.RegOperand{Reg: zic.A}))
	}
	if sbytes >= dbytes {
		return
	}
	if !signed {
		for i := sbytes; i < dbytes; i++ {
			d := zic.VRByte(zic.ByteOffset(dest, dbytes, i))
			c.emit(zic.Ld(d, zic.Imm8Operand{Value: 0}))
		}
		return
	}
	// Signed: test bit 7 of the top source byte, then fill with a
	// constant (0x00 or 0xFF) computed once and reused for every
	// remaining byte.
	topSrc := zic.VRByte(zic.ByteOffset(src, sbytes, sbytes-1))
	zeroLbl := c.newLabel("sext0")
	endLbl := c.newLabel("sextend")
	c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, topSrc))
	c.emit(zic.Bit(7, zic.A))
	c.emit(zic.JpCc(zic.CondZ, zeroLbl))
	c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, zic.Imm8Operand{Value: 0xFF}))
	c.emit(zic.Jp(endLbl))
	c.label(zeroLbl)
	c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, zic.Imm8Operand{Value: 0x00}))
	c.label(endLbl)
	c.emit(zic.Nop())
	for i := sbytes; i < dbytes; i++ {
		d := zic.VRByte(zic.ByteOffset(dest, dbytes, i))
		c.emit(zic.Ld(d, zic.RegOperand{Reg: zic.A}))
	}
}

// vrrShl performs one left shift of the full bytes-wide value held in vr:
// sla the least-significant byte, then rl each higher byte, carrying the
// bit shifted out of each byte into the next.
func (c *context) vrrShl(vr, bytes int) {
	for i := 0; i < bytes; i++ {
		b := zic.VRByte(zic.ByteOffset(vr, bytes, i))
		c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, b))
		if i == 0 {
			c.emit(zic.Sla())
		} else {
			c.emit(zic.Rl())
		}
		c.emit(zic.Ld(b, zic.RegOperand{Reg: zic.A}))
	}
}

// vrrShr performs one right shift of the full bytes-wide value held in vr,
// most significant byte first: sra (arithmetic) or srl (logical) on the
// top byte, then rr on each lower byte.
func (c *context) vrrShr(vr, bytes int, arithmetic bool) {
	for i := bytes - 1; i >= 0; i-- {
		b := zic.VRByte(zic.ByteOffset(vr, bytes, i))
		c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, b))
		if i == bytes-1 {
			if arithmetic {
				c.emit(zic.Sra())
			} else {
				c.emit(zic.Srl())
			}
		} else {
			c.emit(zic.Rr())
		}
		c.emit(zic.Ld(b, zic.RegOperand{Reg: zic.A}))
	}
}

// negVrr computes dest = -src over bytes bytes: complement every byte into
// dest, then add 1 (a single inc pair for the 16-bit case, otherwise a
// carry-propagating chain of per-byte increments that stops at the first
// byte whose increment does not wrap to zero).
func (c *context) negVrr(dest, src, bytes int) {
	for i := 0; i < bytes; i++ {
		s := zic.VRByte(zic.ByteOffset(src, bytes, i))
		d := zic.VRByte(zic.ByteOffset(dest, bytes, i))
		c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, s))
		c.emit(zic.Cpl())
		c.emit(zic.Ld(d, zic.RegOperand{Reg: zic.A}))
	}
	if bytes == 2 {
		c.emit(zic.Inc(zic.VRPair(dest)))
		return
	}
	endLbl := c.newLabel("negend")
	for i := 0; i < bytes; i++ {
		d := zic.VRByte(zic.ByteOffset(dest, bytes, i))
		c.emit(zic.Inc(d))
		if i < bytes-1 {
			c.emit(zic.JpCc(zic.CondNZ, endLbl))
		}
	}
	c.label(endLbl)
	c.emit(zic.Nop())
}

// vrrCmul computes dest = src * constFactor via shift-and-add: t starts as
// a copy of src and is shifted left after each bit considered up to the
// highest set bit of constFactor; dest accumulates t wherever that bit is
// set.
func (c *context) vrrCmul(dest int, constFactor uint64, src, bytes int) {
	c.vrrConst(dest, bytes, 0)
	if constFactor == 0 {
		return
	}
	t := c.vm.AllocFresh(varmap.VRCountForBytes(bytes))
	c.vrrCopy(t, src, bytes)
	highBit := 63
	for highBit > 0 && constFactor&(1<<uint(highBit)) == 0 {
		highBit--
	}
	for bit := 0; bit <= highBit; bit++ {
		if constFactor&(1<<uint(bit)) != 0 {
			c.addInto(dest, t, bytes)
		}
		if bit != highBit {
			c.vrrShl(t, bytes)
		}
	}
}

// readVrr loads the bytes-wide value at the address held in addrVR into
// dest, byte by byte through HL.
func (c *context) readVrr(dest, bytes, addrVR int) {
	c.emit(zic.Ld(zic.PairOperand{Reg: zic.HL}, zic.VRPair(addrVR)))
	for i := 0; i < bytes; i++ {
		d := zic.VRByte(zic.ByteOffset(dest, bytes, i))
		c.emit(zic.Ld(d, zic.IndHLOperand{}))
		if i != bytes-1 {
			c.emit(zic.Inc(zic.PairOperand{Reg: zic.HL}))
		}
	}
}

// writeVrr is the mirror of readVrr: it writes the bytes-wide value held
// in src through the address in addrVR.
func (c *context) writeVrr(addrVR, src, bytes int) {
	c.emit(zic.Ld(zic.PairOperand{Reg: zic.HL}, zic.VRPair(addrVR)))
	for i := 0; i < bytes; i++ {
		s := zic.VRByte(zic.ByteOffset(src, bytes, i))
		c.emit(zic.Ld(zic.IndHLOperand{}, s))
		if i != bytes-1 {
			c.emit(zic.Inc(zic.PairOperand{Reg: zic.HL}))
		}
	}
}

// vrrLvarptr emits the synthetic load-effective-address instruction for a
// named local variable; the register allocator resolves its symbolic
// displacement once the local's frame offset is known.
func (c *context) vrrLvarptr(dest int, localName string) {
	c.emit(zic.LeaLocal(dest, localName))
}

// addVRs computes dest = a + b over bytes bytes, byte by byte via A. Unlike
// addInto, dest need not be one of the operands.
func (c *context) addVRs(dest, a, b, bytes int) {
	for i := 0; i < bytes; i++ {
		ab := zic.VRByte(zic.ByteOffset(a, bytes, i))
		bb := zic.VRByte(zic.ByteOffset(b, bytes, i))
		d := zic.VRByte(zic.ByteOffset(dest, bytes, i))
		c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, ab))
		if i == 0 {
			c.emit(zic.Add(zic.RegOperand{Reg: zic.A}, bb))
		} else {
			c.emit(zic.Adc(zic.RegOperand{Reg: zic.A}, bb))
		}
		c.emit(zic.Ld(d, zic.RegOperand{Reg: zic.A}))
	}
}

// addInto adds the bytes-wide value held in src into dest in place (dest
// += src), the byte-loop-via-A shape used by vrr_cmul's accumulation step.
func (c *context) addInto(dest, src, bytes int) {
	for i := 0; i < bytes; i++ {
		s := zic.VRByte(zic.ByteOffset(src, bytes, i))
		d := zic.VRByte(zic.ByteOffset(dest, bytes, i))
		c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, d))
		if i == 0 {
			c.emit(zic.Add(zic.RegOperand{Reg: zic.A}, s))
		} else {
			c.emit(zic.Adc(zic.RegOperand{Reg: zic.A}, s))
		}
		c.emit(zic.Ld(d, zic.RegOperand{Reg: zic.A}))
	}
}
