// Package irjson is the wire format cmd/z80cc reads its input module in
// and writes its output module back out as. Both pkg/ir and pkg/zic model
// their operands and declarations as tagged interface unions ("tagged
// variants over virtual dispatch", spec §9), which encoding/json cannot
// marshal or unmarshal through directly; this package defines the
// explicit-discriminant wire structs and the conversions to and from the
// real types, the same way the teacher keeps its AST's JSON shape separate
// from ast.Node itself rather than tagging the AST types with json:"kind".
package irjson

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/z80cc/z80cc/pkg/ir"
)

// DecodeModule reads an IR module from r.
func DecodeModule(r io.Reader) (*ir.Module, error) {
	var w wireModule
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return nil, fmt.Errorf("irjson: decoding module: %w", err)
	}
	return w.toIR()
}

// EncodeModule writes m to w as indented JSON, the same shape DecodeModule
// reads.
func EncodeModule(w io.Writer, m *ir.Module) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(fromIR(m))
}

type wireModule struct {
	Name  string     `json:"name"`
	Decls []wireDecl `json:"decls"`
}

// wireDecl is a flattened union of every ir.Decl variant, discriminated by
// Kind. Only the fields relevant to that Kind are populated.
type wireDecl struct {
	Kind string `json:"kind"` // "proc", "extern", "var", "record", "typedef"
	Name string `json:"name"`

	// proc
	Attrs      []string     `json:"attrs,omitempty"`
	Args       []wireParam  `json:"args,omitempty"`
	Locals     []wireParam  `json:"locals,omitempty"`
	ReturnType *wireType    `json:"returnType,omitempty"`
	Block      []wireEntry  `json:"block,omitempty"`

	// extern, var, typedef
	Type *wireType `json:"type,omitempty"`

	// var
	Init []wireDataItem `json:"init,omitempty"`

	// record
	Union   bool          `json:"union,omitempty"`
	Members []wireMember  `json:"members,omitempty"`
}

type wireParam struct {
	Name string   `json:"name"`
	Type wireType `json:"type"`
}

type wireMember struct {
	Name string   `json:"name"`
	Type wireType `json:"type"`
}

// wireType is a flattened union of every ir.Type variant.
type wireType struct {
	Kind   string    `json:"kind"` // "int", "void", "pointer", "array", "ident"
	Bits   int       `json:"bits,omitempty"`
	Signed bool      `json:"signed,omitempty"`
	Elem   *wireType `json:"elem,omitempty"`
	Len    int       `json:"len,omitempty"`
	Name   string    `json:"name,omitempty"` // ident: the named record's name
}

type wireEntry struct {
	Label string     `json:"label,omitempty"`
	Instr *wireInstr `json:"instr,omitempty"`
}

type wireInstr struct {
	Op       string        `json:"op"`
	Dest     string        `json:"dest,omitempty"`
	Width    int           `json:"width,omitempty"`
	Op1      *wireOperand  `json:"op1,omitempty"`
	Op2      *wireOperand  `json:"op2,omitempty"`
	Label    string        `json:"label,omitempty"`
	Args     []wireOperand `json:"args,omitempty"`
	SrcWidth int           `json:"srcWidth,omitempty"`
	Member   string        `json:"member,omitempty"`
	// RecordType names the record the instruction's Member/ElemType
	// resolve against (recmbr/reccopy), resolved through the module's
	// record table on decode.
	RecordType string    `json:"recordType,omitempty"`
	ElemType   *wireType `json:"elemType,omitempty"`
}

type wireOperand struct {
	Kind  string        `json:"kind"` // "var", "imm", "list"
	Name  string        `json:"name,omitempty"`
	Value uint64        `json:"value,omitempty"`
	Items []wireOperand `json:"items,omitempty"`
}

type wireDataItem struct {
	Width     int    `json:"width"`
	Value     uint64 `json:"value,omitempty"`
	Symbol    string `json:"symbol,omitempty"`
	Offset    int64  `json:"offset,omitempty"`
	HasSymbol bool   `json:"hasSymbol,omitempty"`
}
