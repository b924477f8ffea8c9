package irjson

import "github.com/z80cc/z80cc/pkg/ir"

func fromIR(m *ir.Module) *wireModule {
	w := &wireModule{Name: m.Name}
	for _, d := range m.Decls {
		w.Decls = append(w.Decls, declFromIR(d))
	}
	return w
}

func declFromIR(d ir.Decl) wireDecl {
	switch v := d.(type) {
	case *ir.ProcDecl:
		var attrs []string
		for a, on := range v.Attrs {
			if on {
				attrs = append(attrs, string(a))
			}
		}
		return wireDecl{
			Kind:       "proc",
			Name:       v.Name,
			Attrs:      attrs,
			Args:       paramsFromIR(v.Args),
			Locals:     localsFromIR(v.Locals),
			ReturnType: typeFromIR(v.ReturnType),
			Block:      blockFromIR(v.Block),
		}

	case *ir.ExternDecl:
		return wireDecl{Kind: "extern", Name: v.Name, Type: typeFromIR(v.Type)}

	case *ir.VarDecl:
		return wireDecl{Kind: "var", Name: v.Name, Type: typeFromIR(v.Type), Init: dataItemsFromIR(v.Init)}

	case *ir.RecordTypeDecl:
		var members []wireMember
		for _, m := range v.Members {
			members = append(members, wireMember{Name: m.Name, Type: *typeFromIR(m.Type)})
		}
		return wireDecl{Kind: "record", Name: v.Name, Union: v.Union, Members: members}

	case *ir.TypedefDecl:
		return wireDecl{Kind: "typedef", Name: v.Name, Type: typeFromIR(v.Type)}

	default:
		return wireDecl{Kind: "unknown", Name: d.DeclName()}
	}
}

func paramsFromIR(ps []ir.Param) []wireParam {
	if ps == nil {
		return nil
	}
	out := make([]wireParam, len(ps))
	for i, p := range ps {
		out[i] = wireParam{Name: p.Name, Type: *typeFromIR(p.Type)}
	}
	return out
}

func localsFromIR(ls []ir.Local) []wireParam {
	if ls == nil {
		return nil
	}
	out := make([]wireParam, len(ls))
	for i, l := range ls {
		out[i] = wireParam{Name: l.Name, Type: *typeFromIR(l.Type)}
	}
	return out
}

func typeFromIR(t ir.Type) *wireType {
	switch v := t.(type) {
	case nil:
		return nil
	case *ir.IntType:
		return &wireType{Kind: "int", Bits: v.Bits, Signed: v.Signed}
	case *ir.VoidType:
		return &wireType{Kind: "void"}
	case *ir.PointerType:
		return &wireType{Kind: "pointer", Elem: typeFromIR(v.Elem)}
	case *ir.ArrayType:
		return &wireType{Kind: "array", Elem: typeFromIR(v.Elem), Len: v.Len}
	case *ir.IdentType:
		return &wireType{Kind: "ident", Name: v.Name}
	default:
		return &wireType{Kind: "unknown"}
	}
}

func blockFromIR(b ir.LabelledBlock) []wireEntry {
	if b == nil {
		return nil
	}
	out := make([]wireEntry, len(b))
	for i, e := range b {
		var instr *wireInstr
		if e.Instr != nil {
			instr = instrFromIR(e.Instr)
		}
		out[i] = wireEntry{Label: e.Label, Instr: instr}
	}
	return out
}

func instrFromIR(ins *ir.Instruction) *wireInstr {
	w := &wireInstr{
		Op:       ins.Op.String(),
		Dest:     ins.Dest,
		Width:    ins.Width,
		Op1:      operandFromIR(ins.Op1),
		Op2:      operandFromIR(ins.Op2),
		Label:    ins.Label,
		SrcWidth: ins.SrcWidth,
		Member:   ins.Member,
		ElemType: typeFromIR(ins.ElemType),
	}
	if ins.RecordType != nil {
		w.RecordType = ins.RecordType.Name
	}
	if ins.Args != nil {
		w.Args = make([]wireOperand, len(ins.Args))
		for i, a := range ins.Args {
			w.Args[i] = *operandFromIR(a)
		}
	}
	return w
}

func operandFromIR(op ir.Operand) *wireOperand {
	switch v := op.(type) {
	case nil:
		return nil
	case ir.Var:
		return &wireOperand{Kind: "var", Name: v.Name}
	case ir.Imm:
		return &wireOperand{Kind: "imm", Value: v.Value}
	case ir.List:
		items := make([]wireOperand, len(v.Items))
		for i, it := range v.Items {
			items[i] = *operandFromIR(it)
		}
		return &wireOperand{Kind: "list", Items: items}
	default:
		return nil
	}
}

func dataItemsFromIR(items []ir.DataItem) []wireDataItem {
	if items == nil {
		return nil
	}
	out := make([]wireDataItem, len(items))
	for i, it := range items {
		out[i] = wireDataItem{
			Width:     it.Width,
			Value:     it.Value,
			Symbol:    it.Symbol,
			Offset:    it.Offset,
			HasSymbol: it.HasSymbol,
		}
	}
	return out
}
