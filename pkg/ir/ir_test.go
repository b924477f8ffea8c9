package ir

import "testing"

func TestRecordDeclOffsetStruct(t *testing.T) {
	rec := &RecordDecl{
		Name: "S",
		Members: []Member{
			{Name: "a", Type: &IntType{Bits: 32}},
			{Name: "b", Type: &IntType{Bits: 16}},
		},
	}
	off, typ, ok := rec.Offset("b")
	if !ok {
		t.Fatalf("expected member b to be found")
	}
	if off != 4 {
		t.Errorf("offset = %d, want 4", off)
	}
	if typ.Size() != 2 {
		t.Errorf("size = %d, want 2", typ.Size())
	}
	if rec.Size() != 6 {
		t.Errorf("record size = %d, want 6", rec.Size())
	}
}

func TestRecordDeclOffsetUnion(t *testing.T) {
	rec := &RecordDecl{
		Name:  "U",
		Union: true,
		Members: []Member{
			{Name: "a", Type: &IntType{Bits: 8}},
			{Name: "b", Type: &IntType{Bits: 32}},
		},
	}
	off, _, ok := rec.Offset("b")
	if !ok || off != 0 {
		t.Fatalf("union member offset = %d, ok=%v, want 0, true", off, ok)
	}
	if rec.Size() != 4 {
		t.Errorf("union size = %d, want 4", rec.Size())
	}
}

func TestModuleFindProc(t *testing.T) {
	m := NewModule("test")
	p := &ProcDecl{Name: "@foo", ReturnType: &IntType{Bits: 16}}
	m.Decls = append(m.Decls, p)
	got, ok := m.FindProc("@foo")
	if !ok || got != p {
		t.Fatalf("FindProc did not return the inserted procedure")
	}
	if _, ok := m.FindProc("@bar"); ok {
		t.Fatalf("FindProc found a nonexistent procedure")
	}
}

func TestProcDeclReturnWidth(t *testing.T) {
	p := &ProcDecl{ReturnType: &IntType{Bits: 32, Signed: true}}
	if w := p.ReturnWidth(); w != 32 {
		t.Errorf("ReturnWidth = %d, want 32", w)
	}
	void := &ProcDecl{ReturnType: &VoidType{}}
	if w := void.ReturnWidth(); w != 0 {
		t.Errorf("ReturnWidth(void) = %d, want 0", w)
	}
}
