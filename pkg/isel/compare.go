package isel

import (
	"github.com/z80cc/z80cc/pkg/ir"
	"github.com/z80cc/z80cc/pkg/zic"
)

// lowerEquality implements eq/neq: a byte loop testing each byte
// independently via `sub`; for eq any non-zero difference jumps straight
// to the false branch, for neq any non-zero difference jumps straight to
// the true branch. Unlike the ordered comparisons, no carry chain is
// needed since equality only cares whether any byte differs.
func (c *context) lowerEquality(dest int, bytes int, lhs, rhs ir.Operand, wantEqual bool) error {
	shortcutLbl := c.newLabel("eqshortcut")
	endLbl := c.newLabel("eqend")

	for i := 0; i < bytes; i++ {
		l, err := c.byteOperand(lhs, bytes, i)
		if err != nil {
			return err
		}
		r, err := c.byteOperand(rhs, bytes, i)
		if err != nil {
			return err
		}
		c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, l))
		c.emit(zic.Sub(zic.RegOperand{Reg: zic.A}, r))
		c.emit(zic.JpCc(zic.CondNZ, shortcutLbl))
	}

	// Fell through: every byte matched, i.e. the operands are equal.
	if wantEqual {
		c.vrrConst(dest, 2, 1)
	} else {
		c.vrrConst(dest, 2, 0)
	}
	c.emit(zic.Jp(endLbl))

	c.label(shortcutLbl)
	if wantEqual {
		c.vrrConst(dest, 2, 0)
	} else {
		c.vrrConst(dest, 2, 1)
	}
	c.label(endLbl)
	c.emit(zic.Nop())
	return nil
}

// lowerOrdered implements the ordered comparisons lt/lteq/gt/gteq (signed,
// inspecting SF) and ltu/lteu/gtu/gteu (unsigned, inspecting CF): a
// sub+sbc chain computes lhs-rhs across every byte, then the flag named by
// cond picks which branch is "true" according to minusMeansTrue.
func (c *context) lowerOrdered(dest int, bytes int, lhs, rhs ir.Operand, cond zic.Cond, minusMeansTrue bool) error {
	for i := 0; i < bytes; i++ {
		l, err := c.byteOperand(lhs, bytes, i)
		if err != nil {
			return err
		}
		r, err := c.byteOperand(rhs, bytes, i)
		if err != nil {
			return err
		}
		c.emit(zic.Ld(zic.RegOperand{Reg: zic.A}, l))
		if i == 0 {
			c.emit(zic.Sub(zic.RegOperand{Reg: zic.A}, r))
		} else {
			c.emit(zic.Sbc(zic.RegOperand{Reg: zic.A}, r))
		}
	}

	endLbl := c.newLabel("cmpend")
	if minusMeansTrue {
		trueLbl := c.newLabel("cmptrue")
		c.emit(zic.JpCc(cond, trueLbl))
		c.vrrConst(dest, 2, 0)
		c.emit(zic.Jp(endLbl))
		c.label(trueLbl)
		c.vrrConst(dest, 2, 1)
	} else {
		falseLbl := c.newLabel("cmpfalse")
		c.emit(zic.JpCc(cond, falseLbl))
		c.vrrConst(dest, 2, 1)
		c.emit(zic.Jp(endLbl))
		c.label(falseLbl)
		c.vrrConst(dest, 2, 0)
	}
	c.label(endLbl)
	c.emit(zic.Nop())
	return nil
}
