// Package piecetable implements the piece-table model (C3) that composes
// the original bytes of a session with its change log, and the segment
// materializer (C4) that walks the model to produce computed-stream bytes.
//
// This package has no knowledge of the change log, undo/redo, viewports, or
// search; it only knows how to apply one change at a time to an ordered
// list of segments and how to read bytes back out. The session package
// builds the higher-level editing model on top of it.
package piecetable

import (
	"fmt"

	"github.com/calvinalkan/omegaedit/internal/change"
)

// ErrOutOfRange is returned by [Model.Apply] when a change's offset does
// not fall within the current computed stream.
var ErrOutOfRange = fmt.Errorf("piecetable: change out of range")

// Segment is one piece-table entry. It projects a run of bytes from a
// Change's payload (or, for serial-0 changes, the backing file) onto a
// contiguous range of the computed stream.
//
// Segments derived from serial 0 are READ segments: materializing them
// reads from the original/checkpoint file. All others are INSERT segments:
// materializing them copies from the Change's payload. A Segment never
// represents a DELETE; deletes manifest only as segment removal and
// offset shifts.
type Segment struct {
	ComputedOffset int64 // where this segment starts in the computed stream
	ComputedLength int64 // how many bytes it contributes
	ChangeOffset   int64 // offset inside the change's payload this segment begins at
	Change         *change.Change
}

// IsRead reports whether this segment reads from the original/checkpoint
// file (serial 0) rather than from a change's payload.
func (s Segment) IsRead() bool { return s.Change.Serial() == 0 }

// end returns the exclusive right boundary of the segment in the computed
// stream.
func (s Segment) end() int64 { return s.ComputedOffset + s.ComputedLength }

// Model is an ordered, gap-free, overlap-free sequence of segments
// projecting the computed stream.
//
// Model is not safe for concurrent use; the session that owns it serializes
// all access.
type Model struct {
	segments []Segment
}

// NewModel constructs a model with a single READ segment spanning
// [0, size) of originChange, the starting state for a freshly opened
// session or checkpoint before any change has been applied.
func NewModel(originChange *change.Change, size int64) *Model {
	m := &Model{}
	if size > 0 {
		m.segments = append(m.segments, Segment{
			ComputedOffset: 0,
			ComputedLength: size,
			ChangeOffset:   0,
			Change:         originChange,
		})
	}

	return m
}

// Segments returns the model's segments in computed-stream order. The
// returned slice must not be mutated by the caller.
func (m *Model) Segments() []Segment { return m.segments }

// Size returns the computed stream size: the sum of every segment's
// ComputedLength.
func (m *Model) Size() int64 {
	var total int64
	for _, s := range m.segments {
		total += s.ComputedLength
	}

	return total
}

// Apply applies a single change to the model, mutating it in place.
//
// ch.Kind() must be [change.Delete] or [change.Insert]; OVERWRITE is never
// applied directly — callers decompose it into a synthetic delete
// followed by an insert before calling Apply.
//
// Returns [ErrOutOfRange] if ch's offset does not fall within the current
// computed stream.
func (m *Model) Apply(ch *change.Change) error {
	offset := ch.Offset()
	length := ch.Length()

	if len(m.segments) == 0 {
		if ch.Kind() == change.Delete {
			return fmt.Errorf("%w: delete on empty model", ErrOutOfRange)
		}

		if offset != 0 {
			return fmt.Errorf("%w: offset %d on empty model", ErrOutOfRange, offset)
		}

		m.segments = append(m.segments, Segment{ComputedOffset: 0, ComputedLength: length, ChangeOffset: 0, Change: ch})

		return nil
	}

	idx, ok := m.findSegment(offset)
	if !ok {
		return fmt.Errorf("%w: offset %d", ErrOutOfRange, offset)
	}

	idx = m.splitAt(idx, offset)

	switch ch.Kind() {
	case change.Insert:
		m.insertAt(idx, ch)
	case change.Delete:
		m.deleteAt(idx, length)
	case change.Overwrite:
		return fmt.Errorf("piecetable: overwrite must be decomposed before Apply")
	default:
		panic(fmt.Sprintf("piecetable: unhandled change kind %v", ch.Kind()))
	}

	return nil
}

// findSegment returns the index of the segment satisfying
// s.ComputedOffset <= offset <= s.end(), or false if offset is out of
// range. When offset equals a segment's right boundary and a following
// segment exists, the earlier segment is preferred; splitAt/insertAt
// advance past it as needed.
func (m *Model) findSegment(offset int64) (int, bool) {
	readOffset := int64(0)

	for i, s := range m.segments {
		if readOffset != s.ComputedOffset {
			panic(fmt.Sprintf("piecetable: continuity violation at segment %d: expected offset %d, got %d", i, readOffset, s.ComputedOffset))
		}

		if offset >= s.ComputedOffset && offset <= s.end() {
			return i, true
		}

		readOffset += s.ComputedLength
	}

	size := m.Size()
	if offset == size {
		return len(m.segments) - 1, true
	}

	return 0, false
}

// splitAt ensures there is a segment boundary exactly at offset, splitting
// segments[idx] if offset falls strictly inside it, and returns the index
// of the segment (existing or new) whose ComputedOffset equals offset, or
// one-past idx if offset equals idx's right boundary and no split is
// needed.
func (m *Model) splitAt(idx int, offset int64) int {
	s := m.segments[idx]

	delta := offset - s.ComputedOffset
	if delta == 0 {
		return idx
	}

	if delta == s.ComputedLength {
		return idx + 1
	}

	// offset falls strictly inside s: clone the tail into a new segment
	// immediately after s, truncate s to the head.
	tail := Segment{
		ComputedOffset: s.ComputedOffset + delta,
		ComputedLength: s.ComputedLength - delta,
		ChangeOffset:   s.ChangeOffset + delta,
		Change:         s.Change,
	}

	m.segments[idx].ComputedLength = delta

	m.segments = append(m.segments, Segment{})
	copy(m.segments[idx+2:], m.segments[idx+1:])
	m.segments[idx+1] = tail

	return idx + 1
}

// insertAt inserts a new INSERT segment for ch at index idx and shifts
// every later segment's ComputedOffset forward by ch's length.
func (m *Model) insertAt(idx int, ch *change.Change) {
	offset := ch.Offset()
	length := ch.Length()

	seg := Segment{ComputedOffset: offset, ComputedLength: length, ChangeOffset: 0, Change: ch}

	m.segments = append(m.segments, Segment{})
	copy(m.segments[idx+1:], m.segments[idx:])
	m.segments[idx] = seg

	for i := idx + 1; i < len(m.segments); i++ {
		m.segments[i].ComputedOffset += length
	}
}

// deleteAt removes length bytes starting at index idx (which splitAt has
// already aligned to a segment boundary), erasing whole segments and
// trimming the front of the first surviving one, then shifts every later
// segment's ComputedOffset back by length.
func (m *Model) deleteAt(idx int, length int64) {
	remaining := length
	i := idx

	for remaining > 0 && i < len(m.segments) {
		s := m.segments[i]
		if remaining >= s.ComputedLength {
			remaining -= s.ComputedLength
			m.segments = append(m.segments[:i], m.segments[i+1:]...)

			continue
		}

		m.segments[i].ComputedLength -= remaining
		m.segments[i].ComputedOffset += remaining - length
		m.segments[i].ChangeOffset += remaining
		remaining = 0
		i++
	}

	for ; i < len(m.segments); i++ {
		m.segments[i].ComputedOffset -= length
	}
}

// CheckContinuity verifies that segments tile [0, Size()) with no gap
// and no overlap. It is exposed for tests and for the session's own
// periodic self-checks; production code paths already maintain the
// invariant by construction.
func (m *Model) CheckContinuity() error {
	offset := int64(0)

	for i, s := range m.segments {
		if s.ComputedOffset != offset {
			return fmt.Errorf("piecetable: continuity violation at segment %d: want offset %d, got %d", i, offset, s.ComputedOffset)
		}

		if s.ComputedLength <= 0 {
			return fmt.Errorf("piecetable: segment %d has non-positive length %d", i, s.ComputedLength)
		}

		if s.ChangeOffset < 0 || s.ChangeOffset+s.ComputedLength > s.Change.Length() {
			return fmt.Errorf("piecetable: segment %d change-offset range out of bounds", i)
		}

		offset += s.ComputedLength
	}

	return nil
}
