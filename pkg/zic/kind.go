package zic

// Kind identifies an instruction's operation. The same Kind is shared by
// an instruction's virtual and physical forms — whether an instance is
// "virtual" is determined entirely by whether its operands reference a VR
// (zic.IsVirtual), not by a separate Kind value. This keeps the tagged
// union exhaustive over mnemonics (spec §9) without combinatorial
// duplication between `ld_vr_n` and `ld_r_n`, `ld_vrr_vrr` and the (never
// directly expressible) "ld pair,pair", and so on.
type Kind int

const (
	KindNop Kind = iota

	// Loads. Dst/Src shape determines the concrete form: reg<-reg,
	// reg<-imm8, reg<-(HL), reg<-(IX+d), (IX+d)<-imm8, (IX+d)<-reg,
	// pair<-imm16 (incl. symbolic), pair<-(nn), (nn)<-pair, and every
	// virtual counterpart built from VROperand.
	KindLd

	// Accumulator arithmetic/logic. Dst is always implicitly A for the
	// 8-bit forms; for the 16-bit forms Dst is HL or IX and Src is a pair.
	KindAdd
	KindAdc
	KindSub
	KindSbc
	KindAnd
	KindOr
	KindXor
	KindCpl
	KindNeg

	KindInc
	KindDec

	// Shifts/rotates on a single register (always A in this back end,
	// matching the per-byte byte-loop lowering idiom of spec §4.4.1).
	KindSla
	KindSra
	KindSrl
	KindRl
	KindRr
	KindBit

	// Control flow.
	KindJp
	KindJpCc
	KindCall
	KindRet
	KindRetCc

	// Stack.
	KindPush
	KindPop

	// Frame setup, used only by the register allocator's prologue/epilogue.
	KindLdSPIX
	KindAddIXSP

	// KindLeaLocal is the synthetic "load effective address of a local
	// variable" op (spec §4.4.1 vrr_lvarptr): Dst is a pair/VR-pair
	// operand, Src is a LocalAddrOperand naming the local. It has no
	// direct Z80 encoding; the register allocator rewrites it into a
	// push-IX/pop-pair/add sequence once the local's frame offset is
	// known (spec §4.5).
	KindLeaLocal
)

func (k Kind) String() string {
	switch k {
	case KindNop:
		return "nop"
	case KindLd:
		return "ld"
	case KindAdd:
		return "add"
	case KindAdc:
		return "adc"
	case KindSub:
		return "sub"
	case KindSbc:
		return "sbc"
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	case KindXor:
		return "xor"
	case KindCpl:
		return "cpl"
	case KindNeg:
		return "neg"
	case KindInc:
		return "inc"
	case KindDec:
		return "dec"
	case KindSla:
		return "sla"
	case KindSra:
		return "sra"
	case KindSrl:
		return "srl"
	case KindRl:
		return "rl"
	case KindRr:
		return "rr"
	case KindBit:
		return "bit"
	case KindJp:
		return "jp"
	case KindJpCc:
		return "jp"
	case KindCall:
		return "call"
	case KindRet:
		return "ret"
	case KindRetCc:
		return "ret"
	case KindPush:
		return "push"
	case KindPop:
		return "pop"
	case KindLdSPIX:
		return "ld"
	case KindAddIXSP:
		return "add"
	case KindLeaLocal:
		return "lea"
	default:
		return "?"
	}
}
