package zic

// Instruction is one Z80-IC instruction, real or virtual. Construction
// functions below build a fully-owned Instruction value with no further
// allocation required; since every field is a plain value (not a pointer
// into shared state), there is nothing to release on an error path and no
// partial-construction hazard (spec §5) — a Go value either is built
// completely or the constructor never returns one.
type Instruction struct {
	Kind Kind
	Dst  Operand
	Src  Operand

	Cond Cond // for KindJpCc/KindRetCc

	// Target is the jump label or mangled callee name for KindJp,
	// KindJpCc, and KindCall.
	Target string

	// Bit is the bit index (0-7) for KindBit.
	Bit int
}

// Uses returns ins's non-nil operands, for the register allocator's
// virtual-reference scan.
func (ins *Instruction) Uses() []Operand {
	var ops []Operand
	if ins.Dst != nil {
		ops = append(ops, ins.Dst)
	}
	if ins.Src != nil {
		ops = append(ops, ins.Src)
	}
	return ops
}

// IsVirtual reports whether ins references any VR or local-address
// operand, i.e. whether the register allocator must still rewrite it.
func (ins *Instruction) IsVirtual() bool {
	for _, op := range ins.Uses() {
		if IsVirtual(op) {
			return true
		}
	}
	return false
}

// --- Construction helpers -------------------------------------------------
//
// Dst/Src are deliberately typed as the general Operand interface: the
// same Kind covers every concrete shape the spec §4.1 catalogue lists
// (register, immediate, (HL), (IX+d), a physical pair, or — pre-allocation
// — a VR selector/pair), so one constructor serves both an instruction's
// real and virtual forms. The instruction selector never assumes which
// form it is building; the register allocator is the only reader that
// cares (via IsVirtual).

func Nop() *Instruction { return &Instruction{Kind: KindNop} }

// Ld builds any load: reg<-reg, reg<-imm, reg<-(HL), reg<-(IX+d),
// (IX+d)<-imm, (IX+d)<-reg, pair<-imm16 (incl. symbolic), and every VR
// counterpart of the above (ld_vr_*, ld_vrr_*, ld_r16_vrr, ld_vrr_r16).
func Ld(dst, src Operand) *Instruction { return &Instruction{Kind: KindLd, Dst: dst, Src: src} }

// Add builds `add A,r`/`add A,n` when Dst is A, `add HL,ss`/`add IX,SP`
// when Dst is a pair, or the VR-pair form add_vrr_vrr when Dst is a
// VR-pair operand.
func Add(dst, src Operand) *Instruction { return &Instruction{Kind: KindAdd, Dst: dst, Src: src} }

// Adc builds `adc A,r`/`adc A,n`, the carry-propagating continuation of
// a multi-byte Add.
func Adc(dst, src Operand) *Instruction { return &Instruction{Kind: KindAdc, Dst: dst, Src: src} }

// Sub builds `sub r`/`sub n` (Dst is always implicitly A; spec's Z80
// SUB only ever targets A). The VR-pair subtraction sub_vrr_vrr is built
// with Sbc, not Sub.
func Sub(dst, src Operand) *Instruction { return &Instruction{Kind: KindSub, Dst: dst, Src: src} }

// Sbc builds `sbc A,r`/`sbc A,n`/`sbc HL,ss`, the carry-propagating
// continuation of a multi-byte Sub, or the 16-bit subtract-with-clear-carry
// idiom (spec §4.5 sub_vrr_vrr: "and A" then "sbc HL,BC").
func Sbc(dst, src Operand) *Instruction { return &Instruction{Kind: KindSbc, Dst: dst, Src: src} }

// And/Or/Xor build the corresponding accumulator bitwise op against any
// operand shape (register, immediate, (IX+d), or a VR byte — spec §4.5's
// and_vr/or_vr/xor_vr lower straight to `and/or/xor (IX+d)`).
func And(src Operand) *Instruction { return &Instruction{Kind: KindAnd, Dst: RegOperand{A}, Src: src} }
func Or(src Operand) *Instruction  { return &Instruction{Kind: KindOr, Dst: RegOperand{A}, Src: src} }
func Xor(src Operand) *Instruction { return &Instruction{Kind: KindXor, Dst: RegOperand{A}, Src: src} }

// AndA is `and A,A`, used purely to clear the carry flag ahead of a 16-bit
// Sbc (spec §4.4.2 sub / §4.4.1 helper idiom).
func AndA() *Instruction { return And(RegOperand{A}) }

// Cpl/Neg: A <- ~A / A <- -A (hardware NEG, single byte).
func Cpl() *Instruction { return &Instruction{Kind: KindCpl, Dst: RegOperand{A}} }
func Neg() *Instruction { return &Instruction{Kind: KindNeg, Dst: RegOperand{A}} }

// Inc/Dec: operand += 1 / -= 1, for a register, pair, (IX+d), or VR.
func Inc(dst Operand) *Instruction { return &Instruction{Kind: KindInc, Dst: dst} }
func Dec(dst Operand) *Instruction { return &Instruction{Kind: KindDec, Dst: dst} }

// Sla/Sra/Srl/Rl/Rr: single-register shifts/rotates (always on A, matching
// the per-byte byte-loop lowering idiom of spec §4.4.1).
func Sla() *Instruction { return &Instruction{Kind: KindSla, Dst: RegOperand{A}} }
func Sra() *Instruction { return &Instruction{Kind: KindSra, Dst: RegOperand{A}} }
func Srl() *Instruction { return &Instruction{Kind: KindSrl, Dst: RegOperand{A}} }
func Rl() *Instruction  { return &Instruction{Kind: KindRl, Dst: RegOperand{A}} }
func Rr() *Instruction  { return &Instruction{Kind: KindRr, Dst: RegOperand{A}} }

// Bit: test bit b of register r.
func Bit(b int, r Reg8) *Instruction {
	return &Instruction{Kind: KindBit, Dst: RegOperand{r}, Bit: b}
}

// Jp/JpCc: unconditional/conditional jump to a label.
func Jp(label string) *Instruction { return &Instruction{Kind: KindJp, Target: label} }
func JpCc(cond Cond, label string) *Instruction {
	return &Instruction{Kind: KindJpCc, Cond: cond, Target: label}
}

// Call: call a mangled procedure name.
func Call(name string) *Instruction { return &Instruction{Kind: KindCall, Target: name} }

// Ret/RetCc: unconditional/conditional return.
func Ret() *Instruction            { return &Instruction{Kind: KindRet} }
func RetCc(cond Cond) *Instruction { return &Instruction{Kind: KindRetCc, Cond: cond} }

// Push/Pop: stack push/pop of a 16-bit pair (including AF, IX, IY).
func Push(pair Reg16) *Instruction { return &Instruction{Kind: KindPush, Dst: PairOperand{pair}} }
func Pop(pair Reg16) *Instruction  { return &Instruction{Kind: KindPop, Dst: PairOperand{pair}} }

// LdSPIX: `ld SP,IX`, part of prologue/epilogue frame setup.
func LdSPIX() *Instruction {
	return &Instruction{Kind: KindLdSPIX, Dst: PairOperand{SP}, Src: PairOperand{IX}}
}

// AddIXSP: `add IX,SP`, part of prologue frame setup.
func AddIXSP() *Instruction {
	return &Instruction{Kind: KindAddIXSP, Dst: PairOperand{IX}, Src: PairOperand{SP}}
}

// LeaLocal: VR pair <- address of a named local variable (spec §4.4.1
// vrr_lvarptr). Resolved by the register allocator once the local's frame
// offset is known.
func LeaLocal(dst int, local string) *Instruction {
	return &Instruction{Kind: KindLeaLocal, Dst: VRPair(dst), Src: LocalAddrOperand{Name: local}}
}
