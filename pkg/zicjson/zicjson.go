// Package zicjson serializes a fully allocated zic.Module for cmd/z80cc's
// two output modes: machine-readable JSON (for a downstream emitter) and a
// human-readable instruction listing (--dump). Like pkg/irjson on the input
// side, it exists because zic.Operand is a tagged interface union that
// encoding/json cannot marshal through without an explicit discriminant.
package zicjson

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/z80cc/z80cc/pkg/zic"
)

// EncodeModule writes m to w as indented JSON.
func EncodeModule(w io.Writer, m *zic.Module) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(fromZIC(m))
}

type wireModule struct {
	Name  string     `json:"name"`
	Decls []wireDecl `json:"decls"`
}

type wireDecl struct {
	Kind string `json:"kind"` // "proc", "data", "extern"
	Name string `json:"name"`

	// proc
	UsedVRs         int             `json:"usedVRs,omitempty"`
	FrameSize       int             `json:"frameSize,omitempty"`
	ReturnWidth     int             `json:"returnWidth,omitempty"`
	Usr             bool            `json:"usr,omitempty"`
	HasHiddenRetval bool            `json:"hasHiddenRetval,omitempty"`
	LocalVars       []wireLocalVar  `json:"localVars,omitempty"`
	Block           []wireEntry     `json:"block,omitempty"`
}

type wireLocalVar struct {
	Name   string `json:"name"`
	Offset int    `json:"offset"`
}

type wireEntry struct {
	Label string      `json:"label,omitempty"`
	Instr *wireInstr  `json:"instr,omitempty"`
}

type wireInstr struct {
	Kind   string       `json:"kind"`
	Dst    *wireOperand `json:"dst,omitempty"`
	Src    *wireOperand `json:"src,omitempty"`
	Cond   string       `json:"cond,omitempty"`
	Target string       `json:"target,omitempty"`
	Bit    int          `json:"bit,omitempty"`
}

type wireOperand struct {
	Text string `json:"text"`
}

func fromZIC(m *zic.Module) *wireModule {
	w := &wireModule{Name: m.Name}
	for _, d := range m.Decls {
		w.Decls = append(w.Decls, declFromZIC(d))
	}
	return w
}

func declFromZIC(d zic.Decl) wireDecl {
	switch v := d.(type) {
	case *zic.Procedure:
		var locals []wireLocalVar
		for _, l := range v.LocalVars {
			locals = append(locals, wireLocalVar{Name: l.Name, Offset: l.Offset})
		}
		return wireDecl{
			Kind:            "proc",
			Name:            v.Name,
			UsedVRs:         v.UsedVRs,
			FrameSize:       v.FrameSize,
			ReturnWidth:     v.ReturnWidth,
			Usr:             v.Usr,
			HasHiddenRetval: v.HasHiddenRetval,
			LocalVars:       locals,
			Block:           blockFromZIC(v.Block),
		}
	case *zic.DataDecl:
		return wireDecl{Kind: "data", Name: v.Name}
	case *zic.ExternDecl:
		return wireDecl{Kind: "extern", Name: v.Name}
	default:
		return wireDecl{Kind: "unknown", Name: d.DeclName()}
	}
}

func blockFromZIC(b zic.LabelledBlock) []wireEntry {
	if b == nil {
		return nil
	}
	out := make([]wireEntry, len(b))
	for i, e := range b {
		var instr *wireInstr
		if e.Instr != nil {
			instr = instrFromZIC(e.Instr)
		}
		out[i] = wireEntry{Label: e.Label, Instr: instr}
	}
	return out
}

func instrFromZIC(ins *zic.Instruction) *wireInstr {
	w := &wireInstr{Kind: ins.Kind.String(), Target: ins.Target, Bit: ins.Bit}
	if ins.Cond != zic.CondNone {
		w.Cond = ins.Cond.String()
	}
	if ins.Dst != nil {
		w.Dst = &wireOperand{Text: ins.Dst.String()}
	}
	if ins.Src != nil {
		w.Src = &wireOperand{Text: ins.Src.String()}
	}
	return w
}

// Dump writes a human-readable listing of m, one instruction per line,
// addressed to a future textual emitter rather than an assembler (operand
// syntax follows each Operand's own String(), not Z80 assembler mnemonics).
func Dump(w io.Writer, m *zic.Module) error {
	for _, d := range m.Decls {
		switch v := d.(type) {
		case *zic.Procedure:
			fmt.Fprintf(w, "proc %s (usedVRs=%d frameSize=%d)\n", v.Name, v.UsedVRs, v.FrameSize)
			for _, e := range v.Block {
				if e.Label != "" {
					fmt.Fprintf(w, "%s:\n", e.Label)
				}
				if e.Instr == nil {
					continue
				}
				if err := dumpInstr(w, e.Instr); err != nil {
					return err
				}
			}
		case *zic.DataDecl:
			fmt.Fprintf(w, "data %s\n", v.Name)
		case *zic.ExternDecl:
			fmt.Fprintf(w, "extern %s\n", v.Name)
		}
	}
	return nil
}

func dumpInstr(w io.Writer, ins *zic.Instruction) error {
	_, err := fmt.Fprintf(w, "    %s%s\n", ins.Kind, operandSuffix(ins))
	return err
}

func operandSuffix(ins *zic.Instruction) string {
	switch {
	case ins.Dst != nil && ins.Src != nil:
		return fmt.Sprintf(" %s, %s", ins.Dst, ins.Src)
	case ins.Dst != nil:
		return fmt.Sprintf(" %s", ins.Dst)
	case ins.Target != "":
		return fmt.Sprintf(" %s", ins.Target)
	default:
		return ""
	}
}
