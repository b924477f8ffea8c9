package zic

import "github.com/z80cc/z80cc/pkg/ir"

// Decl is a top-level Z80-IC declaration: a Procedure, a DataDecl, or an
// ExternDecl.
type Decl interface {
	isDecl()
	DeclName() string
}

// LocalDecl is a pre-allocation local variable: its name and byte size, as
// scanned from the source ir.ProcDecl. The register allocator consumes
// these to build the frame layout and LocalVars below; it does not mutate
// LocalDecl itself.
type LocalDecl struct {
	Name string
	Size int
}

// LocalVar is a post-allocation local variable: its name and its final
// IX-relative frame offset, kept for debug info and for the emitter, which
// needs the mapping even though the register allocator has already
// rewritten every in-body address computation of a local into concrete
// IX-based arithmetic.
type LocalVar struct {
	Name   string
	Offset int
}

// Procedure is one Z80-IC procedure (spec §3): a mangled identifier, an
// ordered labelled block of instructions, and the bookkeeping the
// instruction selector and register allocator hand off between each other.
//
// Before allocation, Block may still reference VR and LocalAddr operands,
// LocalVars is empty, and FrameSize is 0. After allocation, Block is fully
// physical, LocalVars holds each local's resolved frame offset, and
// FrameSize is the total IX-relative frame size the prologue reserves.
type Procedure struct {
	Name   string
	Block  LabelledBlock
	Args   []ir.Param
	Locals []LocalDecl

	// UsedVRs is the number of VR pairs the instruction selector
	// allocated for this procedure (varmap.Map.UsedVRs), i.e. how many
	// 2-byte frame slots the register allocator reserves between IX and
	// the locals.
	UsedVRs int

	// LocalVars and FrameSize are populated by the register allocator.
	LocalVars []LocalVar
	FrameSize int

	// ReturnWidth and Usr mirror the source ir.ProcDecl and are carried
	// through to the JSON output. The instruction selector has already
	// lowered retv by the time they are recorded; the register allocator
	// does not read them.
	ReturnWidth int
	Usr         bool

	// HasHiddenRetval is true for a 64-bit-returning procedure, meaning
	// its first incoming argument is the caller-supplied result pointer.
	HasHiddenRetval bool
}

func (*Procedure) isDecl()            {}
func (p *Procedure) DeclName() string { return p.Name }

// DataDecl is a Z80-IC data-segment declaration: the flattened byte/word
// initializer list of a global variable, already mangled.
type DataDecl struct {
	Name string
	Init []ir.DataItem
}

func (*DataDecl) isDecl()            {}
func (d *DataDecl) DeclName() string { return d.Name }

// ExternDecl declares a symbol defined outside this module; it contributes
// no code or data, only a name the emitter must not expect a definition
// for locally.
type ExternDecl struct {
	Name string
}

func (*ExternDecl) isDecl()            {}
func (e *ExternDecl) DeclName() string { return e.Name }

// Module is a complete Z80-IC translation unit: the output of the
// instruction selector and, after a second pass, of the register
// allocator.
type Module struct {
	Name  string
	Decls []Decl
}

// NewModule creates an empty Module named name.
func NewModule(name string) *Module {
	return &Module{Name: name}
}

// AddDecl appends d to m.
func (m *Module) AddDecl(d Decl) {
	m.Decls = append(m.Decls, d)
}

// Procs returns m's Procedure declarations, in declaration order.
func (m *Module) Procs() []*Procedure {
	var procs []*Procedure
	for _, d := range m.Decls {
		if p, ok := d.(*Procedure); ok {
			procs = append(procs, p)
		}
	}
	return procs
}

// FindProc returns the Procedure named name, if m declares one.
func (m *Module) FindProc(name string) (*Procedure, bool) {
	for _, p := range m.Procs() {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}
