package isel

import (
	"github.com/z80cc/z80cc/pkg/cerr"
	"github.com/z80cc/z80cc/pkg/ir"
	"github.com/z80cc/z80cc/pkg/zic"
)

// byteOperand resolves byte i (0 = least significant) of an IR operand
// interpreted as a value `bytes` bytes wide, as a zic operand directly
// usable on the right-hand side of an accumulator op or a load: a VR byte
// for a variable, or a literal for an immediate.
func (c *context) byteOperand(op ir.Operand, bytes, i int) (zic.Operand, error) {
	switch v := op.(type) {
	case ir.Var:
		e, err := c.vm.Find(v.Name)
		if err != nil {
			return nil, err
		}
		return zic.VRByte(zic.ByteOffset(e.FirstVR, bytes, i)), nil
	case ir.Imm:
		return zic.Imm8Operand{Value: uint8(v.Value >> (8 * uint(i)))}, nil
	default:
		return nil, cerr.New(cerr.InvalidArgument, "unsupported operand kind %T at byte position", op)
	}
}

// vrBase resolves a variable operand to its first VR number. It errors on
// an immediate: callers that need a register-resident address or base
// (read/write/recmbr/ptridx/call-argument addressing) never accept a bare
// literal in that position.
func (c *context) vrBase(op ir.Operand) (int, error) {
	v, ok := op.(ir.Var)
	if !ok {
		return 0, cerr.New(cerr.InvalidArgument, "expected a variable operand, got %T", op)
	}
	e, err := c.vm.Find(v.Name)
	if err != nil {
		return 0, err
	}
	return e.FirstVR, nil
}

// destVR resolves inst.Dest's VR entry, which the pre-selection scan
// (pkg/varmap.Scan) guarantees exists for any instruction with a
// non-empty Dest.
func (c *context) destVR(inst *ir.Instruction) (int, error) {
	e, err := c.vm.Find(inst.Dest)
	if err != nil {
		return 0, err
	}
	return e.FirstVR, nil
}

// immValue constant-folds op when it is known to be an immediate,
// reporting ok=false for a variable operand.
func immValue(op ir.Operand) (uint64, bool) {
	imm, ok := op.(ir.Imm)
	if !ok {
		return 0, false
	}
	return imm.Value, true
}
