package irjson

import "fmt"

import "github.com/z80cc/z80cc/pkg/ir"

// toIR converts a decoded wireModule into an ir.Module. Record declarations
// are resolved in two passes so that a record's members (and any
// recmbr/reccopy instruction naming it) can reference the RecordDecl by
// pointer identity, matching how ir.IdentType.Record is documented to work:
// resolved once, up front, never looked up by name again downstream.
func (w *wireModule) toIR() (*ir.Module, error) {
	records := make(map[string]*ir.RecordDecl)
	for _, d := range w.Decls {
		if d.Kind == "record" {
			if _, dup := records[d.Name]; dup {
				return nil, fmt.Errorf("irjson: duplicate record declaration %q", d.Name)
			}
			records[d.Name] = &ir.RecordDecl{Name: d.Name, Union: d.Union}
		}
	}
	for _, d := range w.Decls {
		if d.Kind != "record" {
			continue
		}
		rec := records[d.Name]
		for _, m := range d.Members {
			t, err := m.Type.toIR(records)
			if err != nil {
				return nil, fmt.Errorf("irjson: record %q member %q: %w", d.Name, m.Name, err)
			}
			rec.Members = append(rec.Members, ir.Member{Name: m.Name, Type: t})
		}
	}

	out := &ir.Module{Name: w.Name}
	for _, d := range w.Decls {
		decl, err := d.toIR(records)
		if err != nil {
			return nil, fmt.Errorf("irjson: declaration %q: %w", d.Name, err)
		}
		if decl != nil {
			out.Decls = append(out.Decls, decl)
		}
	}
	return out, nil
}

func (d *wireDecl) toIR(records map[string]*ir.RecordDecl) (ir.Decl, error) {
	switch d.Kind {
	case "record":
		return &ir.RecordTypeDecl{RecordDecl: records[d.Name]}, nil

	case "typedef":
		t, err := d.Type.toIR(records)
		if err != nil {
			return nil, err
		}
		return &ir.TypedefDecl{Name: d.Name, Type: t}, nil

	case "extern":
		t, err := d.Type.toIR(records)
		if err != nil {
			return nil, err
		}
		return &ir.ExternDecl{Name: d.Name, Type: t}, nil

	case "var":
		var t ir.Type
		if d.Type != nil {
			var err error
			t, err = d.Type.toIR(records)
			if err != nil {
				return nil, err
			}
		}
		init, err := toDataItems(d.Init)
		if err != nil {
			return nil, err
		}
		return &ir.VarDecl{Name: d.Name, Type: t, Init: init}, nil

	case "proc":
		return d.toProcIR(records)

	default:
		return nil, fmt.Errorf("unknown declaration kind %q", d.Kind)
	}
}

func (d *wireDecl) toProcIR(records map[string]*ir.RecordDecl) (*ir.ProcDecl, error) {
	var attrs map[ir.Attr]bool
	if len(d.Attrs) > 0 {
		attrs = make(map[ir.Attr]bool, len(d.Attrs))
		for _, a := range d.Attrs {
			attrs[ir.Attr(a)] = true
		}
	}

	args, err := toParams(d.Args, records)
	if err != nil {
		return nil, fmt.Errorf("args: %w", err)
	}
	locals, err := toLocals(d.Locals, records)
	if err != nil {
		return nil, fmt.Errorf("locals: %w", err)
	}

	var retType ir.Type = &ir.VoidType{}
	if d.ReturnType != nil {
		retType, err = d.ReturnType.toIR(records)
		if err != nil {
			return nil, fmt.Errorf("returnType: %w", err)
		}
	}

	block, err := toBlock(d.Block, records)
	if err != nil {
		return nil, fmt.Errorf("block: %w", err)
	}

	return &ir.ProcDecl{
		Name:       d.Name,
		Attrs:      attrs,
		Args:       args,
		Locals:     locals,
		ReturnType: retType,
		Block:      block,
	}, nil
}

func toParams(ws []wireParam, records map[string]*ir.RecordDecl) ([]ir.Param, error) {
	if ws == nil {
		return nil, nil
	}
	out := make([]ir.Param, len(ws))
	for i, p := range ws {
		t, err := p.Type.toIR(records)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		out[i] = ir.Param{Name: p.Name, Type: t}
	}
	return out, nil
}

func toLocals(ws []wireParam, records map[string]*ir.RecordDecl) ([]ir.Local, error) {
	if ws == nil {
		return nil, nil
	}
	out := make([]ir.Local, len(ws))
	for i, p := range ws {
		t, err := p.Type.toIR(records)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		out[i] = ir.Local{Name: p.Name, Type: t}
	}
	return out, nil
}

func (t *wireType) toIR(records map[string]*ir.RecordDecl) (ir.Type, error) {
	if t == nil {
		return &ir.VoidType{}, nil
	}
	switch t.Kind {
	case "int":
		return &ir.IntType{Bits: t.Bits, Signed: t.Signed}, nil
	case "void":
		return &ir.VoidType{}, nil
	case "pointer":
		elem, err := t.Elem.toIR(records)
		if err != nil {
			return nil, err
		}
		return &ir.PointerType{Elem: elem}, nil
	case "array":
		elem, err := t.Elem.toIR(records)
		if err != nil {
			return nil, err
		}
		return &ir.ArrayType{Elem: elem, Len: t.Len}, nil
	case "ident":
		rec, ok := records[t.Name]
		if !ok {
			return nil, fmt.Errorf("ident type references undeclared record %q", t.Name)
		}
		return &ir.IdentType{Name: t.Name, Record: rec}, nil
	default:
		return nil, fmt.Errorf("unknown type kind %q", t.Kind)
	}
}

func toBlock(ws []wireEntry, records map[string]*ir.RecordDecl) (ir.LabelledBlock, error) {
	if ws == nil {
		return nil, nil
	}
	out := make(ir.LabelledBlock, len(ws))
	for i, e := range ws {
		var instr *ir.Instruction
		if e.Instr != nil {
			var err error
			instr, err = e.Instr.toIR(records)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
		}
		out[i] = ir.BlockEntry{Label: e.Label, Instr: instr}
	}
	return out, nil
}

func (w *wireInstr) toIR(records map[string]*ir.RecordDecl) (*ir.Instruction, error) {
	op, ok := opByName[w.Op]
	if !ok {
		return nil, fmt.Errorf("unknown op %q", w.Op)
	}

	var op1, op2 ir.Operand
	var err error
	if w.Op1 != nil {
		if op1, err = w.Op1.toIR(); err != nil {
			return nil, err
		}
	}
	if w.Op2 != nil {
		if op2, err = w.Op2.toIR(); err != nil {
			return nil, err
		}
	}

	var args []ir.Operand
	if w.Args != nil {
		args = make([]ir.Operand, len(w.Args))
		for i, a := range w.Args {
			if args[i], err = a.toIR(); err != nil {
				return nil, fmt.Errorf("args[%d]: %w", i, err)
			}
		}
	}

	var elemType ir.Type
	if w.ElemType != nil {
		if elemType, err = w.ElemType.toIR(records); err != nil {
			return nil, err
		}
	}

	var recordType *ir.RecordDecl
	if w.RecordType != "" {
		var ok bool
		if recordType, ok = records[w.RecordType]; !ok {
			return nil, fmt.Errorf("instruction references undeclared record %q", w.RecordType)
		}
	}

	return &ir.Instruction{
		Op:         op,
		Dest:       w.Dest,
		Width:      w.Width,
		Op1:        op1,
		Op2:        op2,
		Label:      w.Label,
		Args:       args,
		SrcWidth:   w.SrcWidth,
		Member:     w.Member,
		RecordType: recordType,
		ElemType:   elemType,
	}, nil
}

func (w *wireOperand) toIR() (ir.Operand, error) {
	switch w.Kind {
	case "var":
		return ir.Var{Name: w.Name}, nil
	case "imm":
		return ir.Imm{Value: w.Value}, nil
	case "list":
		items := make([]ir.Operand, len(w.Items))
		for i, it := range w.Items {
			v, err := it.toIR()
			if err != nil {
				return nil, fmt.Errorf("items[%d]: %w", i, err)
			}
			items[i] = v
		}
		return ir.List{Items: items}, nil
	default:
		return nil, fmt.Errorf("unknown operand kind %q", w.Kind)
	}
}

func toDataItems(ws []wireDataItem) ([]ir.DataItem, error) {
	if ws == nil {
		return nil, nil
	}
	out := make([]ir.DataItem, len(ws))
	for i, it := range ws {
		out[i] = ir.DataItem{
			Width:     it.Width,
			Value:     it.Value,
			Symbol:    it.Symbol,
			Offset:    it.Offset,
			HasSymbol: it.HasSymbol,
		}
	}
	return out, nil
}
