package piecetable

import (
	"fmt"
	"io"
)

// ReaderAt is the file abstraction the materializer needs to resolve READ
// segments. [os.File] satisfies it.
type ReaderAt interface {
	ReadAt(p []byte, off int64) (int, error)
}

// Materialize fills up to len(buf) bytes starting at offset of the computed
// stream, walking the model from the segment containing offset. origin
// resolves READ segments (those whose Change.Serial() == 0) to file
// bytes; INSERT segments are copied from the change's own payload.
//
// Returns the number of bytes written. When offset is beyond the computed
// stream size, returns (0, nil). When offset+len(buf) exceeds the computed
// stream size, returns as many bytes as are available, not an error. A
// failure reading a READ segment is returned as a non-nil error, with n
// being the bytes successfully written before the failure.
func Materialize(m *Model, origin ReaderAt, offset int64, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	idx, delta, ok := locate(m, offset)
	if !ok {
		return 0, nil
	}

	written := 0
	readOffset := m.segments[idx].ComputedOffset

	for i := idx; i < len(m.segments) && written < len(buf); i++ {
		s := m.segments[i]

		if s.ComputedOffset != readOffset {
			panic(fmt.Sprintf("piecetable: continuity violation during materialize at segment %d", i))
		}

		amount := s.ComputedLength - delta
		remaining := int64(len(buf) - written)

		if amount > remaining {
			amount = remaining
		}

		if s.IsRead() {
			n, err := origin.ReadAt(buf[written:written+int(amount)], s.ChangeOffset+delta)
			written += n

			if err != nil && !(err == io.EOF && n == int(amount)) {
				return written, fmt.Errorf("piecetable: materialize read segment: %w", err)
			}
		} else {
			src := s.Change.Bytes()
			start := s.ChangeOffset + delta
			copy(buf[written:written+int(amount)], src[start:start+amount])
			written += int(amount)
		}

		readOffset += s.ComputedLength
		delta = 0
	}

	return written, nil
}

// locate finds the segment containing offset and the in-segment delta.
// Returns ok=false when offset is at or beyond the computed stream size.
func locate(m *Model, offset int64) (idx int, delta int64, ok bool) {
	for i, s := range m.segments {
		if offset >= s.ComputedOffset && offset < s.end() {
			return i, offset - s.ComputedOffset, true
		}
	}

	return 0, 0, false
}
