package ir

import "fmt"

// Type is a type expression attached to IR declarations, parameters, locals
// and record members. The front end constructs these; the back end only
// ever calls Size and Signed on them.
type Type interface {
	// Size returns the type's size in bytes.
	Size() int
	String() string
}

// IntType is an integer of Bits bits (always a multiple of 8) that is either
// signed or unsigned.
type IntType struct {
	Bits   int
	Signed bool
}

func (t *IntType) Size() int { return t.Bits / 8 }

func (t *IntType) String() string {
	if t.Signed {
		return fmt.Sprintf("i%d", t.Bits)
	}
	return fmt.Sprintf("u%d", t.Bits)
}

// VoidType is the empty return type of a procedure with no return value.
type VoidType struct{}

func (t *VoidType) Size() int     { return 0 }
func (t *VoidType) String() string { return "void" }

// PointerType is a 16-bit pointer to Elem.
type PointerType struct {
	Elem Type
}

func (t *PointerType) Size() int { return 2 }

func (t *PointerType) String() string { return "*" + t.Elem.String() }

// ArrayType is a fixed-length array of Elem.
type ArrayType struct {
	Elem Type
	Len  int
}

func (t *ArrayType) Size() int { return t.Elem.Size() * t.Len }

func (t *ArrayType) String() string {
	return fmt.Sprintf("[%d]%s", t.Len, t.Elem.String())
}

// IdentType names a record type declared elsewhere in the module (a
// "typedef" over a record, or a direct reference to one). Record is
// resolved by the front end at construction time; the back end never
// performs name lookup on it.
type IdentType struct {
	Name   string
	Record *RecordDecl
}

func (t *IdentType) Size() int {
	if t.Record == nil {
		return 0
	}
	return t.Record.Size()
}

func (t *IdentType) String() string { return t.Name }

// Member is one field of a record type.
type Member struct {
	Name string
	Type Type
}

// RecordDecl declares a struct or union layout. Offset returns the byte
// offset of a named member: the sum of the sizes of preceding members for a
// struct, always 0 for a union.
type RecordDecl struct {
	Name    string
	Union   bool
	Members []Member
}

func (r *RecordDecl) Size() int {
	if r.Union {
		max := 0
		for _, m := range r.Members {
			if s := m.Type.Size(); s > max {
				max = s
			}
		}
		return max
	}
	total := 0
	for _, m := range r.Members {
		total += m.Type.Size()
	}
	return total
}

// Offset returns the byte offset of member name and its type, or ok=false
// if no such member exists.
func (r *RecordDecl) Offset(name string) (offset int, typ Type, ok bool) {
	if r.Union {
		for _, m := range r.Members {
			if m.Name == name {
				return 0, m.Type, true
			}
		}
		return 0, nil, false
	}
	off := 0
	for _, m := range r.Members {
		if m.Name == name {
			return off, m.Type, true
		}
		off += m.Type.Size()
	}
	return 0, nil, false
}
