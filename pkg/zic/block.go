package zic

// Entry is one position in a LabelledBlock: an instruction, optionally the
// target of a label. A label attaches to the first instruction emitted for
// a given IR block-entry (spec §4.1/§9) rather than standing alone, so a
// lowering step can never produce a dangling label with nothing under it.
type Entry struct {
	Label string // "" if this position is not a jump target
	Instr *Instruction
}

// LabelledBlock is a procedure's body: a flat, ordered instruction stream
// with interspersed labels, post-selection and (eventually) post-allocation.
type LabelledBlock []Entry

// Emitter accumulates a LabelledBlock across an instruction-selection or
// register-allocation pass. A pending label set with Label is attached to
// the next instruction Emit appends; this is how a selector lowers one IR
// block-entry (label + instruction) without needing to know in advance how
// many Z80-IC instructions that single entry will expand into.
type Emitter struct {
	block   LabelledBlock
	pending string
}

// NewEmitter creates an empty Emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Label arranges for the next instruction appended via Emit to carry label
// l. If a label is already pending (the selector's procedure entry label
// followed by a labelled first block entry, or two labels in a row), the
// pending one is first attached to an emitted nop, so neither is lost.
func (e *Emitter) Label(l string) {
	if e.pending != "" {
		e.Emit(Nop())
	}
	e.pending = l
}

// Emit appends ins, attaching any pending label to it.
func (e *Emitter) Emit(ins *Instruction) {
	e.block = append(e.block, Entry{Label: e.pending, Instr: ins})
	e.pending = ""
}

// Block returns the accumulated LabelledBlock.
func (e *Emitter) Block() LabelledBlock {
	return e.block
}

// FindLabel returns the index of the Entry carrying label l, and whether
// one was found. Used by the register allocator's verification pass to
// confirm every jump target resolves within the final block.
func (b LabelledBlock) FindLabel(l string) (int, bool) {
	for i, e := range b {
		if e.Label == l {
			return i, true
		}
	}
	return 0, false
}
