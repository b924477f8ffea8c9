package isel

import (
	"fmt"

	"github.com/z80cc/z80cc/pkg/argloc"
	"github.com/z80cc/z80cc/pkg/cerr"
	"github.com/z80cc/z80cc/pkg/ir"
	"github.com/z80cc/z80cc/pkg/mangle"
	"github.com/z80cc/z80cc/pkg/varmap"
	"github.com/z80cc/z80cc/pkg/zic"
)

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

func pairLowReg(p argloc.Pair) zic.Reg8 {
	switch p {
	case argloc.PairHL:
		return zic.L
	case argloc.PairDE:
		return zic.E
	default:
		return zic.C
	}
}

func pairHighReg(p argloc.Pair) zic.Reg8 {
	switch p {
	case argloc.PairHL:
		return zic.H
	case argloc.PairDE:
		return zic.D
	default:
		return zic.B
	}
}

// argSource is one call argument's value, abstracted over where its bytes
// come from: a VR range (a real argument, or the synthetic hidden-return
// pointer) or a plain IR operand (letting an immediate argument load
// straight into a register/stack slot without first being materialized
// into a VR).
type argSource struct {
	vrBase  int
	vrValid bool
	operand ir.Operand
	bytes   int
}

func (c *context) argByte(a argSource, i int) (zic.Operand, error) {
	if a.vrValid {
		return zic.VRByte(zic.ByteOffset(a.vrBase, a.bytes, i)), nil
	}
	return c.byteOperand(a.operand, a.bytes, i)
}

// lowerCall implements the call contract of spec §4.4.2: resolve the
// callee, place arguments via argloc, emit argument-setting code in
// reverse call order, call, retrieve the return value, and pop the
// caller's stack-resident argument area.
func (c *context) lowerCall(inst *ir.Instruction) error {
	callee, ok := c.module.FindProc(inst.Label)
	if !ok {
		return cerr.New(cerr.NotFound, "call to undeclared procedure %q", inst.Label)
	}
	if len(inst.Args) != len(callee.Args) {
		return cerr.New(cerr.InvalidArgument, "call to %q passes %d arguments, procedure declares %d", inst.Label, len(inst.Args), len(callee.Args))
	}

	hiddenReturn := callee.ReturnWidth() == 64
	argBytes := make([]int, len(callee.Args))
	for i, p := range callee.Args {
		argBytes[i] = p.Type.Size()
	}
	cp, err := argloc.Allocate(argBytes, hiddenReturn)
	if err != nil {
		return fmt.Errorf("placing arguments for call to %q: %w", inst.Label, err)
	}

	sources := make([]argSource, len(inst.Args))
	for i, a := range inst.Args {
		src := argSource{operand: a, bytes: argBytes[i]}
		if v, ok := a.(ir.Var); ok {
			e, err := c.vm.Find(v.Name)
			if err != nil {
				return err
			}
			src.vrBase, src.vrValid = e.FirstVR, true
		}
		sources[i] = src
	}

	var hiddenSrc argSource
	var hiddenLocal string
	if hiddenReturn {
		hiddenLocal = c.newLocal(8)
		leaVR := c.vm.AllocFresh(varmap.VRCountForBytes(2))
		c.vrrLvarptr(leaVR, hiddenLocal)
		hiddenSrc = argSource{vrBase: leaVR, vrValid: true, bytes: 2}
	}

	// Emit in reverse call order: stack-resident bytes belong to the
	// later arguments (the register pool fills left to right), so
	// walking backwards pushes the stack portion first and leaves
	// HL/DE/BC free right up until the moment each is loaded with its
	// final register-resident argument value.
	for i := len(sources) - 1; i >= 0; i-- {
		if err := c.emitArgPlacement(sources[i], cp.Args[i]); err != nil {
			return err
		}
	}
	if hiddenReturn {
		if err := c.emitArgPlacement(hiddenSrc, *cp.Hidden); err != nil {
			return err
		}
	}

	c.emit(zic.Call(mangle.Proc(inst.Label)))

	if inst.Dest != "" {
		destVR, err := c.destVR(inst)
		if err != nil {
			return err
		}
		ret := argloc.Return(callee.ReturnWidth(), callee.HasAttr(ir.AttrUsr))
		switch ret.Kind {
		case argloc.ReturnA:
			c.emit(zic.Ld(zic.VRByte(zic.ByteOffset(destVR, 1, 0)), zic.RegOperand{Reg: zic.A}))
		case argloc.ReturnPair:
			c.emit(zic.Ld(zic.VRPair(destVR), zic.PairOperand{Reg: pairReg(ret.Pairs[0])}))
		case argloc.ReturnPair2:
			c.emit(zic.Ld(zic.VRPair(destVR), zic.PairOperand{Reg: pairReg(ret.Pairs[0])}))
			c.emit(zic.Ld(zic.VRPair(destVR+1), zic.PairOperand{Reg: pairReg(ret.Pairs[1])}))
		case argloc.ReturnHidden:
			c.readVrr(destVR, 8, hiddenSrc.vrBase)
		}
	}

	for i := 0; i < cp.TotalStackBytes(); i++ {
		c.emit(zic.Inc(zic.PairOperand{Reg: zic.SP}))
	}
	return nil
}

// emitArgPlacement emits the code loading one argument's bytes into its
// placement: stack-resident bytes first (highest word down to a possible
// trailing odd byte), then register pieces in decreasing order.
func (c *context) emitArgPlacement(src argSource, p argloc.Placement) error {
	if p.StackBytes > 0 {
		if err := c.pushStackBytes(src, p.StackBytes); err != nil {
			return err
		}
	}
	for i := len(p.Pieces) - 1; i >= 0; i-- {
		if err := c.loadPiece(src, p, i); err != nil {
			return err
		}
	}
	return nil
}

// pushStackBytes pushes the high-order stackBytes bytes of src (the
// portion argloc spilled once the register pool ran out), highest word
// first, via the HL scratch pair (free at this point in the reverse
// emission order; see lowerCall).
func (c *context) pushStackBytes(src argSource, stackBytes int) error {
	lo := src.bytes - stackBytes
	hi := src.bytes - 1
	idx := hi
	for idx-lo+1 >= 2 {
		low, err := c.argByte(src, idx-1)
		if err != nil {
			return err
		}
		high, err := c.argByte(src, idx)
		if err != nil {
			return err
		}
		c.emit(zic.Ld(zic.RegOperand{Reg: zic.L}, low))
		c.emit(zic.Ld(zic.RegOperand{Reg: zic.H}, high))
		c.emit(zic.Push(zic.HL))
		idx -= 2
	}
	if idx == lo {
		low, err := c.argByte(src, idx)
		if err != nil {
			return err
		}
		c.emit(zic.Ld(zic.RegOperand{Reg: zic.L}, low))
		c.emit(zic.Push(zic.HL)) // H is left undefined, per the calling convention.
	}
	return nil
}

// loadPiece loads the register(s) named by placement piece index pieceIdx
// from src, at the byte offset that piece occupies (computed by summing
// the byte widths of every earlier piece).
func (c *context) loadPiece(src argSource, p argloc.Placement, pieceIdx int) error {
	byteIdx := 0
	for i := 0; i < pieceIdx; i++ {
		if p.Pieces[i].Part == argloc.PartWhole {
			byteIdx += 2
		} else {
			byteIdx++
		}
	}
	piece := p.Pieces[pieceIdx]
	switch piece.Part {
	case argloc.PartWhole:
		if src.vrValid && byteIdx%2 == 0 {
			c.emit(zic.Ld(zic.PairOperand{Reg: pairReg(piece.Pair)}, zic.VRPair(src.vrBase+byteIdx/2)))
			return nil
		}
		if v, ok := immValue(src.operand); ok {
			c.emit(zic.Ld(zic.PairOperand{Reg: pairReg(piece.Pair)}, zic.Imm16Operand{Value: uint16(v >> (8 * uint(byteIdx)))}))
			return nil
		}
		if src.vrValid {
			// A pair starting on an odd byte straddles two VR pairs.
			for k, reg := range []zic.Reg8{pairLowReg(piece.Pair), pairHighReg(piece.Pair)} {
				b, err := c.argByte(src, byteIdx+k)
				if err != nil {
					return err
				}
				c.emit(zic.Ld(zic.RegOperand{Reg: reg}, b))
			}
			return nil
		}
		return cerr.New(cerr.InvalidArgument, "whole-pair argument placement requires a variable or immediate operand")
	case argloc.PartLow:
		b, err := c.argByte(src, byteIdx)
		if err != nil {
			return err
		}
		c.emit(zic.Ld(zic.RegOperand{Reg: pairLowReg(piece.Pair)}, b))
	case argloc.PartHigh:
		b, err := c.argByte(src, byteIdx)
		if err != nil {
			return err
		}
		c.emit(zic.Ld(zic.RegOperand{Reg: pairHighReg(piece.Pair)}, b))
	}
	return nil
}
