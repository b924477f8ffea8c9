package mangle

import "testing"

func TestGlobal(t *testing.T) {
	if got := Global("@counter"); got != "_counter" {
		t.Errorf("Global = %q, want _counter", got)
	}
}

func TestLabel(t *testing.T) {
	if got := Label("@main", "%L3"); got != "l_main_L3" {
		t.Errorf("Label = %q, want l_main_L3", got)
	}
}

func TestLocalVarPlain(t *testing.T) {
	if got := LocalVar("@main", "%x"); got != "v_main_x" {
		t.Errorf("LocalVar = %q, want v_main_x", got)
	}
}

func TestLocalVarHiddenRetval(t *testing.T) {
	if got := LocalVar("@main", "%@retval"); got != "e_main_retval" {
		t.Errorf("LocalVar = %q, want e_main_retval", got)
	}
}

func TestEmbeddedAtTransliterated(t *testing.T) {
	// A procedure name containing '@' (shouldn't occur in practice, but the
	// rule is unconditional) still gets every '@' replaced.
	if got := Global("@a@b"); got != "_a_b" {
		t.Errorf("Global = %q, want _a_b", got)
	}
}
