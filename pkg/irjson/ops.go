package irjson

import "github.com/z80cc/z80cc/pkg/ir"

// opByName inverts ir.Op.String() for decoding; built once from the same
// enumeration ir.Op.String() switches over, so the two can never drift out
// of sync with each other (they would both need editing for a new Op
// either way).
var opByName = func() map[string]ir.Op {
	ops := []ir.Op{
		ir.OpNop, ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpNeg, ir.OpAnd, ir.OpOr, ir.OpXor,
		ir.OpBNot, ir.OpShl, ir.OpShra, ir.OpShrl,
		ir.OpEq, ir.OpNeq, ir.OpLt, ir.OpLteq, ir.OpGt, ir.OpGteq, ir.OpLtu, ir.OpLteu, ir.OpGtu, ir.OpGteu,
		ir.OpTrunc, ir.OpSgnext, ir.OpZrext,
		ir.OpImm, ir.OpJmp, ir.OpJnz, ir.OpJz, ir.OpRet, ir.OpRetv, ir.OpCall,
		ir.OpLvarptr, ir.OpVarptr, ir.OpRead, ir.OpWrite, ir.OpRecmbr, ir.OpPtridx, ir.OpReccopy,
	}
	m := make(map[string]ir.Op, len(ops))
	for _, op := range ops {
		m[op.String()] = op
	}
	return m
}()
