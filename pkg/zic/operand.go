// Package zic is the Z80 intermediate code model (spec §4.1): a typed,
// constructible representation of every Z80 instruction the back end
// emits, in both its real (physical-register) and virtual
// (virtual-register) forms, plus the procedure/data/module constructs that
// group them. Each instruction is one tagged Instruction value; each
// operand is one tagged Operand value — "tagged variants over virtual
// dispatch" (spec §9): no instruction-kind object hierarchy, just
// exhaustive switches over Kind and type switches over Operand.
package zic

import "fmt"

// Reg8 names one of the seven general 8-bit registers.
type Reg8 int

const (
	A Reg8 = iota
	B
	C
	D
	E
	H
	L
)

func (r Reg8) String() string {
	return [...]string{"A", "B", "C", "D", "E", "H", "L"}[r]
}

// Reg16 names a 16-bit register pair.
type Reg16 int

const (
	BC Reg16 = iota
	DE
	HL
	AF
	SP
	IX
	IY
)

func (r Reg16) String() string {
	return [...]string{"BC", "DE", "HL", "AF", "SP", "IX", "IY"}[r]
}

// Cond names a Z80 condition code for conditional jumps, calls and
// returns.
type Cond int

const (
	CondNone Cond = iota
	CondNZ
	CondZ
	CondNC
	CondC
	CondPO
	CondPE
	CondP
	CondM
)

func (c Cond) String() string {
	return [...]string{"", "NZ", "Z", "NC", "C", "PO", "PE", "P", "M"}[c]
}

// VRPart selects which part of a virtual register an instruction operand
// addresses (spec §3): the whole byte of an 8-bit value, or the low/high
// byte of a 16-bit-or-wider value's pair.
type VRPart int

const (
	PartByte VRPart = iota
	PartLow
	PartHigh
)

func (p VRPart) String() string {
	return [...]string{"byte", "low", "high"}[p]
}

// VRSelector names one virtual register, part-qualified. Two VRSelectors
// with PartLow/PartHigh and the same Num together make up the VR pair Num.
type VRSelector struct {
	Num  int
	Part VRPart
}

func (v VRSelector) String() string {
	return fmt.Sprintf("vr%d.%s", v.Num, v.Part)
}

// ByteOffset maps a byte index (0 = least significant) of a multi-byte
// value into the VRSelector holding it, following the canonical layout
// rule of spec §3: byte i lives in VR-pair offset i/2, part "low" if i is
// even else "high"; a single byte (N=1) lives in part "byte" of the base
// VR.
func ByteOffset(baseVR, totalBytes, i int) VRSelector {
	if totalBytes == 1 {
		return VRSelector{Num: baseVR, Part: PartByte}
	}
	vroff := i / 2
	if i%2 == 0 {
		return VRSelector{Num: baseVR + vroff, Part: PartLow}
	}
	return VRSelector{Num: baseVR + vroff, Part: PartHigh}
}

// Operand is a tagged union of everything an Instruction's Dst/Src can be.
type Operand interface {
	isOperand()
	String() string
}

// RegOperand is a physical 8-bit register.
type RegOperand struct{ Reg Reg8 }

func (RegOperand) isOperand()        {}
func (o RegOperand) String() string { return o.Reg.String() }

// PairOperand is a physical 16-bit register pair.
type PairOperand struct{ Reg Reg16 }

func (PairOperand) isOperand()        {}
func (o PairOperand) String() string { return o.Reg.String() }

// Imm8Operand is an 8-bit immediate constant.
type Imm8Operand struct{ Value uint8 }

func (Imm8Operand) isOperand()        {}
func (o Imm8Operand) String() string { return fmt.Sprintf("%d", o.Value) }

// Imm16Operand is a 16-bit immediate, either a literal Value or a symbolic
// address (a mangled global/procedure name, optionally with an additive
// Offset — used for `ld pair,nn` addressing globals and for pointer-typed
// data-block initializers).
type Imm16Operand struct {
	Value     uint16
	Symbol    string
	Offset    int64
	HasSymbol bool
}

func (Imm16Operand) isOperand() {}
func (o Imm16Operand) String() string {
	if o.HasSymbol {
		if o.Offset != 0 {
			return fmt.Sprintf("%s+%d", o.Symbol, o.Offset)
		}
		return o.Symbol
	}
	return fmt.Sprintf("%d", o.Value)
}

// IndHLOperand is the memory operand (HL).
type IndHLOperand struct{}

func (IndHLOperand) isOperand()        {}
func (IndHLOperand) String() string { return "(HL)" }

// IndIXOperand is the memory operand (IX+d) with a concrete, already
// resolved signed displacement (spec's ±128-byte window).
type IndIXOperand struct{ Disp int }

func (IndIXOperand) isOperand()        {}
func (o IndIXOperand) String() string { return fmt.Sprintf("(IX%+d)", o.Disp) }

// IndDEOperand is the memory operand (DE), used by the manual byte-copy
// loop reccopy lowers to.
type IndDEOperand struct{}

func (IndDEOperand) isOperand()        {}
func (IndDEOperand) String() string { return "(DE)" }

// VROperand is a virtual-register operand: one VR part for an 8-bit access
// (ld_vr_*), or the whole pair for a 16-bit access (ld_vrr_*). Pair is true
// for the latter; when Pair is true, Selector.Part is ignored (the pair is
// identified by Selector.Num alone).
type VROperand struct {
	Selector VRSelector
	Pair     bool
}

func (VROperand) isOperand() {}
func (o VROperand) String() string {
	if o.Pair {
		return fmt.Sprintf("vr%d", o.Selector.Num)
	}
	return o.Selector.String()
}

// VRByte makes an 8-bit virtual-register operand.
func VRByte(sel VRSelector) VROperand { return VROperand{Selector: sel} }

// VRPair makes a 16-bit (whole-pair) virtual-register operand.
func VRPair(num int) VROperand { return VROperand{Selector: VRSelector{Num: num}, Pair: true} }

// LocalAddrOperand names a procedure-local variable whose frame-relative
// address is being computed (the operand of the synthetic
// "load effective address of local" instruction, spec §4.4.1
// vrr_lvarptr). It is resolved away by the register allocator, which
// rewrites the instruction that carries it into concrete arithmetic.
type LocalAddrOperand struct{ Name string }

func (LocalAddrOperand) isOperand()        {}
func (o LocalAddrOperand) String() string { return "$" + o.Name }

// IsVirtual reports whether op is a virtual-register operand, i.e. one the
// register allocator must still rewrite.
func IsVirtual(op Operand) bool {
	switch op.(type) {
	case VROperand, LocalAddrOperand:
		return true
	}
	return false
}
