// Package varmap implements the per-procedure variable map (spec §4.2): the
// association of an IR variable name with the virtual-register range that
// holds it, and the monotonic cursor that hands out fresh VR numbers during
// instruction selection.
package varmap

import "github.com/z80cc/z80cc/pkg/cerr"

// Entry is one varmap association: name -> (first VR number, VR-pair span).
// VRCount is 1 for an 8-bit value held in a single VR's "byte" part, and the
// number of consecutive VR pairs for anything 16 bits wide or more.
type Entry struct {
	FirstVR int
	VRCount int
}

// Map is the variable map for a single procedure selection. Its zero value
// is not usable; construct with New.
type Map struct {
	entries map[string]Entry
	nextVR  int
}

// New creates an empty variable map with the next-VR cursor at 0, per
// spec §3 ("starting at 0 for each procedure").
func New() *Map {
	return &Map{entries: make(map[string]Entry)}
}

// VRCountForBytes returns the number of VR pairs a value of the given byte
// width occupies: 1 (the single "byte" part) for an 8-bit value, otherwise
// bytes/2 consecutive pairs (spec §3 canonical layout rule).
func VRCountForBytes(bytes int) int {
	if bytes <= 1 {
		return 1
	}
	return bytes / 2
}

// NextVR returns the VR number the next allocation will hand out, without
// consuming it.
func (m *Map) NextVR() int { return m.nextVR }

// Insert allocates vrCount consecutive VR pairs (or a single VR for an
// 8-bit value, when vrCount == 1) and associates name with the first one.
// Re-inserting an already-present name is a programming error (spec §4.2);
// the caller is expected never to do this, so it panics rather than
// returning an error, matching the spec's characterization of the case.
func (m *Map) Insert(name string, vrCount int) (Entry, error) {
	if vrCount < 1 {
		return Entry{}, cerr.New(cerr.InvalidArgument, "varmap: insert %q with non-positive vr_count %d", name, vrCount)
	}
	if _, exists := m.entries[name]; exists {
		panic("varmap: duplicate insert of " + name)
	}
	e := Entry{FirstVR: m.nextVR, VRCount: vrCount}
	m.entries[name] = e
	m.nextVR += vrCount
	return e, nil
}

// InsertWidth is a convenience wrapper computing vrCount from a byte width.
func (m *Map) InsertWidth(name string, bytes int) (Entry, error) {
	return m.Insert(name, VRCountForBytes(bytes))
}

// Find looks up name, returning cerr.NotFound if absent.
func (m *Map) Find(name string) (Entry, error) {
	e, ok := m.entries[name]
	if !ok {
		return Entry{}, cerr.New(cerr.NotFound, "varmap: %q not found", name)
	}
	return e, nil
}

// AllocFresh hands out vrCount consecutive VR pairs not associated with any
// name, for an isel-internal scratch temporary (e.g. the mul/cmul helper's
// running shifted copies). This is the `get_new_vregno(s)` allocator named
// in spec §3's invariants.
func (m *Map) AllocFresh(vrCount int) int {
	vr := m.nextVR
	m.nextVR += vrCount
	return vr
}

// UsedVRs returns the total number of VR numbers handed out so far; this is
// the "used VR count" recorded on the Z80-IC procedure for the register
// allocator (spec §3).
func (m *Map) UsedVRs() int { return m.nextVR }
