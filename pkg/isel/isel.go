package isel

import (
	"fmt"

	"github.com/z80cc/z80cc/pkg/ir"
	"github.com/z80cc/z80cc/pkg/mangle"
	"github.com/z80cc/z80cc/pkg/varmap"
	"github.com/z80cc/z80cc/pkg/zic"
)

// Translate lowers an entire IR module into a Z80-IC module (spec §4.4): one
// pkg/varmap scan plus one selection context per procedure, externs and
// globals carried over with their identifiers mangled, type-only
// declarations dropped since they contribute neither code nor data.
func Translate(module *ir.Module) (*zic.Module, error) {
	out := zic.NewModule(mangle.Global(module.Name))
	for _, d := range module.Decls {
		switch decl := d.(type) {
		case *ir.ProcDecl:
			if decl.HasAttr(ir.AttrExtern) {
				// An @extern procedure has no body to select or
				// allocate registers for; it only contributes a name
				// the emitter must not expect a local definition for.
				out.AddDecl(&zic.ExternDecl{Name: mangle.Proc(decl.Name)})
				continue
			}
			proc, err := translateProc(module, decl)
			if err != nil {
				return nil, fmt.Errorf("translating procedure %q: %w", decl.Name, err)
			}
			out.AddDecl(proc)

		case *ir.ExternDecl:
			out.AddDecl(&zic.ExternDecl{Name: mangle.Global(decl.Name)})

		case *ir.VarDecl:
			out.AddDecl(&zic.DataDecl{Name: mangle.Global(decl.Name), Init: mangleDataItems(decl.Init)})

		case *ir.RecordTypeDecl, *ir.TypedefDecl:
			// Type-only; nothing to lower.

		default:
			return nil, fmt.Errorf("translating module: unsupported declaration kind %T", d)
		}
	}
	return out, nil
}

// mangleDataItems rewrites a global initializer's symbol references (pointer
// initializers that name another global) through mangle.Global, leaving
// plain numeric items untouched.
func mangleDataItems(items []ir.DataItem) []ir.DataItem {
	if items == nil {
		return nil
	}
	out := make([]ir.DataItem, len(items))
	for i, it := range items {
		out[i] = it
		if it.HasSymbol {
			out[i].Symbol = mangle.Global(it.Symbol)
		}
	}
	return out
}

// translateProc lowers one procedure: a fresh varmap.Scan seeds the
// parameter (and, for a 64-bit return, hidden-return-pointer) VRs, then
// every block entry is walked in order, each label re-mangled and each
// instruction dispatched to lowerInstruction.
func translateProc(module *ir.Module, proc *ir.ProcDecl) (*zic.Procedure, error) {
	vm, err := varmap.Scan(module, proc)
	if err != nil {
		return nil, err
	}
	c := newContext(module, proc, vm)

	c.label(c.mangledProc)
	for _, entry := range proc.Block {
		if entry.Label != "" {
			c.label(mangle.Label(proc.Name, entry.Label))
		}
		if entry.Instr == nil {
			continue
		}
		if err := c.lowerInstruction(entry.Instr); err != nil {
			return nil, err
		}
	}

	args := make([]ir.Param, len(proc.Args))
	copy(args, proc.Args)

	locals := make([]zic.LocalDecl, 0, len(proc.Locals)+len(c.locals))
	for _, l := range proc.Locals {
		locals = append(locals, zic.LocalDecl{Name: mangle.LocalVar(proc.Name, l.Name), Size: l.Type.Size()})
	}
	locals = append(locals, c.locals...)

	return &zic.Procedure{
		Name:            c.mangledProc,
		Block:           c.em.Block(),
		Args:            args,
		Locals:          locals,
		UsedVRs:         vm.UsedVRs(),
		ReturnWidth:     proc.ReturnWidth(),
		Usr:             proc.HasAttr(ir.AttrUsr),
		HasHiddenRetval: proc.ReturnWidth() == 64,
	}, nil
}
