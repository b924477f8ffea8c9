// Package isel is the instruction selector (spec §4.4): it lowers one IR
// module into a Z80-IC module whose instructions still reference virtual
// registers, leaving physical-register assignment to pkg/ralloc.
package isel

import (
	"fmt"

	"github.com/z80cc/z80cc/pkg/ir"
	"github.com/z80cc/z80cc/pkg/mangle"
	"github.com/z80cc/z80cc/pkg/varmap"
	"github.com/z80cc/z80cc/pkg/zic"
)

// context is the per-procedure selection context (spec §3): it owns the
// varmap and the growing instruction stream for exactly one procedure, and
// is discarded once that procedure's Z80-IC output is appended to the
// module. Nothing here is shared across procedures, so two procedures can
// never corrupt each other's VR numbering.
type context struct {
	module *ir.Module
	proc   *ir.ProcDecl

	mangledProc string
	vm          *varmap.Map
	em          *zic.Emitter

	labelSeq int
	localSeq int
	locals   []zic.LocalDecl
}

func newContext(module *ir.Module, proc *ir.ProcDecl, vm *varmap.Map) *context {
	return &context{
		module:      module,
		proc:        proc,
		mangledProc: mangle.Proc(proc.Name),
		vm:          vm,
		em:          zic.NewEmitter(),
	}
}

// newLabel mints a selector-internal label unique within this procedure,
// for the branch targets a comparison, shift, multiply, or negate lowering
// needs but the IR never named. Its "ls_" prefix can never collide with a
// mangled user label, which always mangles to "l_<proc>_<name>".
func (c *context) newLabel(tag string) string {
	c.labelSeq++
	return fmt.Sprintf("ls_%s_%s%d", c.mangledProc, tag, c.labelSeq)
}

func (c *context) emit(ins *zic.Instruction) { c.em.Emit(ins) }
func (c *context) label(l string)            { c.em.Label(l) }

// newLocal declares a fresh, isel-synthesized local variable of the given
// byte size (currently used only for a 64-bit call's hidden return
// buffer) and returns its mangled name, ready to use as a LocalAddrOperand
// target.
func (c *context) newLocal(size int) string {
	c.localSeq++
	mangled := mangle.LocalVar(c.proc.Name, fmt.Sprintf("%%hret%d", c.localSeq))
	c.locals = append(c.locals, zic.LocalDecl{Name: mangled, Size: size})
	return mangled
}
