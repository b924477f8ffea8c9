package ralloc

import (
	"github.com/z80cc/z80cc/pkg/cerr"
	"github.com/z80cc/z80cc/pkg/zic"
)

// Verify checks the allocator's output invariants (spec §8 property 3):
// every VR reference has been eliminated, and every intra-procedure jump
// target resolves within the final block. It does not re-check
// displacement bounds, since rewriteInstruction already rejects an
// out-of-range one the moment it is computed.
func Verify(proc *zic.Procedure) error {
	for _, e := range proc.Block {
		if e.Instr == nil {
			continue
		}
		if vr, ok := e.Instr.Dst.(zic.VROperand); ok {
			return cerr.New(cerr.InvalidArgument, "register allocator left a VR destination %s unresolved in %q", vr, proc.Name)
		}
		if vr, ok := e.Instr.Src.(zic.VROperand); ok {
			return cerr.New(cerr.InvalidArgument, "register allocator left a VR source %s unresolved in %q", vr, proc.Name)
		}
		switch e.Instr.Kind {
		case zic.KindJp, zic.KindJpCc:
			if _, ok := proc.Block.FindLabel(e.Instr.Target); !ok {
				return cerr.New(cerr.NotFound, "jump target %q does not resolve within %q", e.Instr.Target, proc.Name)
			}
		}
	}
	return nil
}
