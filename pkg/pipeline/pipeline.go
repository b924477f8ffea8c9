// Package pipeline chains the back end's two stages into the single
// entry point cmd/z80cc calls: instruction selection (pkg/isel) followed
// by register allocation (pkg/ralloc). Keeping this as its own package,
// rather than inlining the two calls in cmd/z80cc, mirrors the teacher's
// own separation of "what a command does" from "how its command-line
// surface is built".
package pipeline

import (
	"fmt"

	"github.com/z80cc/z80cc/pkg/ir"
	"github.com/z80cc/z80cc/pkg/isel"
	"github.com/z80cc/z80cc/pkg/ralloc"
	"github.com/z80cc/z80cc/pkg/zic"
)

// Compile lowers module through instruction selection and register
// allocation and returns the fully physical Z80-IC module ready for
// emission.
func Compile(module *ir.Module) (*zic.Module, error) {
	selected, err := isel.Translate(module)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	allocated, err := ralloc.Transform(selected)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return allocated, nil
}
