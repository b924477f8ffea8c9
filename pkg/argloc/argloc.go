// Package argloc implements the argument-location allocator (spec §4.3): a
// deterministic, greedy placement of call arguments into register pieces
// first, then the stack, so that a caller and its callee — running the
// identical algorithm — always agree on where each argument lives.
package argloc

import "github.com/z80cc/z80cc/pkg/cerr"

// Pair names one of the three 16-bit register pairs available to the
// calling convention, in allocation-order priority.
type Pair string

const (
	PairHL Pair = "HL"
	PairDE Pair = "DE"
	PairBC Pair = "BC"
)

var pairOrder = [3]Pair{PairHL, PairDE, PairBC}

// Part selects which half of a pair (or all of it) a Piece occupies.
type Part int

const (
	PartWhole Part = iota
	PartLow
	PartHigh
)

// Piece is one register-resident chunk of an argument's bytes.
type Piece struct {
	Pair Pair
	Part Part
}

// Placement is where one argument's bytes ended up: zero or more register
// Pieces (consumed byte-slot order, lowest-significance first) and a count
// of bytes that spilled to the stack once the register pool ran out.
type Placement struct {
	Pieces     []Piece
	StackBytes int
}

// StackSlotBytes rounds a placement's stack byte count up to a whole
// number of 16-bit slots (spec §4.3: "a trailing odd byte occupies a full
// 16-bit slot; the high half is undefined and must not be read").
func StackSlotBytes(stackBytes int) int {
	if stackBytes%2 != 0 {
		return stackBytes + 1
	}
	return stackBytes
}

// Allocator is the shared byte-slot cursor walked by both the caller and
// the callee when placing a call's arguments, so both sides agree (spec §8
// property 8, "calling convention symmetry"). The register pool is six
// byte slots in fixed order: HL.low, HL.high, DE.low, DE.high, BC.low,
// BC.high.
type Allocator struct {
	pos int // 0..6; 6 means the register pool is exhausted.
}

// New creates an allocator with the full register pool available.
func New() *Allocator {
	return &Allocator{}
}

const poolSize = 6

// Place allocates the next `bytes` bytes of an argument: it consumes a
// whole pair when at least 2 bytes remain and the cursor sits at a pair
// boundary, otherwise one byte at a time (low half of the next pair, or
// the high half completing the pair the cursor is already inside). Once
// the pool is exhausted, all remaining bytes — of this argument and every
// later one, since the cursor never resets — go to the stack.
func (a *Allocator) Place(bytes int) Placement {
	var pieces []Piece
	remaining := bytes
	for remaining > 0 && a.pos < poolSize {
		pair := pairOrder[a.pos/2]
		if remaining >= 2 && a.pos%2 == 0 {
			pieces = append(pieces, Piece{Pair: pair, Part: PartWhole})
			remaining -= 2
			a.pos += 2
			continue
		}
		part := PartLow
		if a.pos%2 == 1 {
			part = PartHigh
		}
		pieces = append(pieces, Piece{Pair: pair, Part: part})
		remaining--
		a.pos++
	}
	return Placement{Pieces: pieces, StackBytes: remaining}
}

// CallPlacement is the full per-call result: the hidden 64-bit return
// address argument's placement (nil unless the callee returns 64 bits),
// and each user argument's placement in call order.
type CallPlacement struct {
	Hidden *Placement
	Args   []Placement
}

// TotalStackBytes returns the word-rounded total bytes the caller must
// reserve on (and clean off of) the stack for this call.
func (c *CallPlacement) TotalStackBytes() int {
	total := 0
	if c.Hidden != nil {
		total += StackSlotBytes(c.Hidden.StackBytes)
	}
	for _, p := range c.Args {
		total += StackSlotBytes(p.StackBytes)
	}
	return total
}

// Allocate places a call's arguments (argBytes, each the argument's width
// in bytes, in call order) using a fresh Allocator, allocating the hidden
// 64-bit-return address argument first when hidden64Return is set (spec
// §4.3 "Hidden-argument rule": it consumes the first available register
// slot, HL, ahead of any user argument).
//
// It returns cerr.Unsupported if the resulting word-rounded stack area
// exceeds 255 bytes (spec §7's "second pass over stack size"); the caller
// removes that area with one inc SP per byte.
func Allocate(argBytes []int, hidden64Return bool) (*CallPlacement, error) {
	a := New()
	result := &CallPlacement{}
	if hidden64Return {
		p := a.Place(2)
		result.Hidden = &p
	}
	result.Args = make([]Placement, len(argBytes))
	for i, b := range argBytes {
		result.Args[i] = a.Place(b)
	}
	if total := result.TotalStackBytes(); total > 255 {
		return nil, cerr.New(cerr.Unsupported, "call argument stack area of %d bytes exceeds the 255-byte caller-cleanup limit", total)
	}
	return result, nil
}

// ReturnKind names which physical location a return value occupies.
type ReturnKind int

const (
	ReturnNone   ReturnKind = iota // void
	ReturnA                       // 8 bits, in A
	ReturnPair                    // 16 bits, in a single pair
	ReturnPair2                   // 32 bits, low word then high word
	ReturnHidden                  // 64 bits, via a caller-supplied hidden pointer
)

// ReturnLoc describes where a procedure's return value lives.
type ReturnLoc struct {
	Kind  ReturnKind
	Pairs []Pair // for ReturnPair/ReturnPair2, low-significance word first
}

// Return computes the return-value convention for a procedure of the
// given return width (bits) and @usr attribute (spec §4.3).
func Return(widthBits int, usr bool) ReturnLoc {
	switch widthBits {
	case 0:
		return ReturnLoc{Kind: ReturnNone}
	case 8:
		return ReturnLoc{Kind: ReturnA}
	case 16:
		if usr {
			return ReturnLoc{Kind: ReturnPair, Pairs: []Pair{PairBC}}
		}
		return ReturnLoc{Kind: ReturnPair, Pairs: []Pair{PairHL}}
	case 32:
		return ReturnLoc{Kind: ReturnPair2, Pairs: []Pair{PairHL, PairDE}}
	case 64:
		return ReturnLoc{Kind: ReturnHidden}
	default:
		return ReturnLoc{Kind: ReturnNone}
	}
}
