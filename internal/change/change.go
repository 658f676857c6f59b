// Package change implements the immutable change record (C1) and its
// payload storage (C2) used by the piece-table model.
//
// A Change describes one user-visible edit: a delete, an insert, or an
// overwrite. Changes are constructed once and never mutated except for
// [Change.FlipSerialSign], which undo/redo uses to mark a change as
// currently undone. Payload bytes are owned by the Change and are shared,
// read-only, by every piece-table segment that references it.
package change

import "fmt"

// Kind identifies what a Change does to the computed stream.
type Kind uint8

const (
	// Delete removes bytes from the computed stream. Has no payload.
	Delete Kind = iota
	// Insert adds bytes to the computed stream at Offset.
	Insert
	// Overwrite replaces Length bytes at Offset with Payload.
	//
	// Overwrite never reaches the piece table directly: the model layer
	// applies it as a synthetic Delete followed by an Insert. A Change of
	// Kind Overwrite exists only in the user-visible change log, never as
	// something a Segment references.
	Overwrite
)

// String renders the kind as a single letter: 'D', 'I', or 'O'.
func (k Kind) String() string {
	switch k {
	case Delete:
		return "D"
	case Insert:
		return "I"
	case Overwrite:
		return "O"
	default:
		return "?"
	}
}

// inlineThreshold is the payload length below which bytes are stored
// inline in the Change rather than on the heap.
const inlineThreshold = 8

// Change is an immutable record of one delete/insert/overwrite.
//
// The zero value is not usable; construct with [NewDelete], [NewInsert], or
// [NewOverwrite]. Change is safe for concurrent reads by multiple goroutines
// once constructed, since nothing mutates it besides FlipSerialSign, and the
// owning session never calls that concurrently with a reader.
type Change struct {
	serial  int64
	kind    Kind
	offset  int64
	length  int64
	payload []byte // nil for Delete
	txBit   bool
}

// NewDelete constructs a DELETE change. length must be > 0.
func NewDelete(serial, offset, length int64, txBit bool) (*Change, error) {
	if length <= 0 {
		return nil, fmt.Errorf("change: delete length must be > 0, got %d", length)
	}

	if offset < 0 {
		return nil, fmt.Errorf("change: offset must be >= 0, got %d", offset)
	}

	return &Change{serial: serial, kind: Delete, offset: offset, length: length, txBit: txBit}, nil
}

// NewInsert constructs an INSERT change. The payload is copied; the caller
// keeps ownership of the bytes passed in.
func NewInsert(serial, offset int64, payload []byte, txBit bool) (*Change, error) {
	return newPayloadChange(serial, Insert, offset, payload, txBit)
}

// NewOverwrite constructs an OVERWRITE change. It is never applied directly
// to a piece table; see [Kind] for how the model decomposes it.
func NewOverwrite(serial, offset int64, payload []byte, txBit bool) (*Change, error) {
	return newPayloadChange(serial, Overwrite, offset, payload, txBit)
}

// NewOrigin constructs the synthetic serial-0 "whole original file" change
// that anchors a model frame's bottom READ segment. Unlike [NewInsert],
// it carries no in-memory payload: READ segments resolve
// bytes from the frame's backing file, not from Change.Bytes(), so storing
// a length-sized copy of a potentially huge file as a "payload" would
// defeat the point of the piece table. Length is still recorded so
// invariant 2 (change_offset + computed_length <= referenced_change.length)
// holds for READ segments the same as it does for INSERT ones.
func NewOrigin(length int64) *Change {
	return &Change{serial: 0, kind: Insert, offset: 0, length: length, payload: nil, txBit: false}
}

func newPayloadChange(serial int64, kind Kind, offset int64, payload []byte, txBit bool) (*Change, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("change: %s payload length must be > 0", kind)
	}

	if offset < 0 {
		return nil, fmt.Errorf("change: offset must be >= 0, got %d", offset)
	}

	stored := store(payload)

	return &Change{serial: serial, kind: kind, offset: offset, length: int64(len(payload)), payload: stored, txBit: txBit}, nil
}

// store copies payload into a new slice. Payloads under inlineThreshold
// bytes and larger payloads are copied identically (there is no separate
// inline representation in a garbage-collected language) but the
// threshold is kept as a documented constant because callers reason
// about the storage-class boundary; see [IsInline].
func store(payload []byte) []byte {
	out := make([]byte, len(payload))
	copy(out, payload)

	return out
}

// IsInline reports whether a payload of this length falls under
// inlineThreshold. Exposed so tests and diagnostics can assert on the
// storage-class boundary without depending on how allocation actually
// happens.
func IsInline(length int64) bool {
	return length < inlineThreshold
}

// Serial returns the change's serial number. Positive while active,
// negative while undone. Serial 0 is reserved for the synthetic
// whole-original-file change created at session open and for synthetic
// deletes generated while decomposing an Overwrite.
func (c *Change) Serial() int64 { return c.serial }

// Offset returns the computed-stream offset the change was submitted at.
func (c *Change) Offset() int64 { return c.offset }

// Length returns the number of bytes the change adds, removes, or replaces.
func (c *Change) Length() int64 { return c.length }

// Kind returns the change's kind.
func (c *Change) Kind() Kind { return c.kind }

// KindChar returns the kind as a single-letter code: 'D', 'I', or 'O'.
func (c *Change) KindChar() byte { return c.kind.String()[0] }

// TransactionBit returns the change's one-bit transaction tag.
func (c *Change) TransactionBit() bool { return c.txBit }

// IsUndone reports whether the change's serial is currently negative.
func (c *Change) IsUndone() bool { return c.serial < 0 }

// Bytes returns the change's payload. Returns nil for DELETE changes.
// The returned slice must not be mutated; it is shared by every segment
// that references this change.
func (c *Change) Bytes() []byte { return c.payload }

// FlipSerialSign negates the change's serial. Used only by undo (to make it
// negative) and redo (to restore it to positive). It is the one mutator on
// an otherwise immutable value.
func (c *Change) FlipSerialSign() { c.serial = -c.serial }

// String renders a debug form: "#<serial> <kind>@<offset>+<length>", with a
// trailing "(undone)" when the serial is negative. Intended for logs and
// the REPL's change inspector, not for parsing.
func (c *Change) String() string {
	suffix := ""
	if c.IsUndone() {
		suffix = " (undone)"
	}

	return fmt.Sprintf("#%d %s@%d+%d%s", c.serial, c.kind, c.offset, c.length, suffix)
}
