// Package mangle implements the bit-exact identifier mangling rules from
// spec §6: translating IR-level globals, labels, and local variables into
// assembly symbols the (external) emitter will print.
package mangle

import "strings"

// transliterate replaces every embedded '@' with '_', per spec §6
// ("Any embedded @ inside the resulting identifier is translated to _").
func transliterate(s string) string {
	return strings.ReplaceAll(s, "@", "_")
}

// Global mangles an IR global identifier "@name" to its assembly symbol.
func Global(name string) string {
	return transliterate("_" + strings.TrimPrefix(name, "@"))
}

// Label mangles a procedure-local label "%L" declared in procedure "@p" to
// its assembly symbol "l_p_L".
func Label(proc, label string) string {
	p := strings.TrimPrefix(proc, "@")
	l := strings.TrimPrefix(label, "%")
	return transliterate("l_" + p + "_" + l)
}

// LocalVar mangles a procedure-local variable "%v" (or "%@v") declared in
// procedure "@p" into its assembly symbol. Names beginning with "%@" use
// the "e_" prefix instead of "v_".
func LocalVar(proc, name string) string {
	p := strings.TrimPrefix(proc, "@")
	prefix := "v_"
	rest := strings.TrimPrefix(name, "%")
	if strings.HasPrefix(name, "%@") {
		prefix = "e_"
		rest = strings.TrimPrefix(rest, "@")
	}
	return transliterate(prefix + p + "_" + rest)
}

// Proc mangles an IR procedure identifier "@p" into its callable assembly
// symbol, identical to Global for the purposes of this back end (a called
// procedure is addressed the same way a global datum is).
func Proc(name string) string {
	return Global(name)
}
