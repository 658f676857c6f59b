package piecetable

import "fmt"

// Chunk is one contiguous run of bytes produced by [VisitRange]: either a
// slice to read from the backing file at FileOffset (IsRead), or an
// in-memory slice already resolved from a change payload.
type Chunk struct {
	IsRead     bool
	FileOffset int64
	Data       []byte // non-nil only when !IsRead
	Length     int64
}

// VisitRange walks the segments covering [offset, offset+length) in order
// and invokes visit once per contiguous chunk, stopping at the first error
// visit returns. It is the streaming counterpart to [Materialize]: callers
// that need to copy a range to a writer (checkpoints, saves) use this
// instead of materializing the whole range into one buffer, since the
// computed stream may be arbitrarily large.
//
// length may exceed the bytes actually available; VisitRange simply stops
// when the model is exhausted, matching [Materialize]'s best-effort
// contract.
func VisitRange(m *Model, offset, length int64, visit func(Chunk) error) error {
	if length <= 0 {
		return nil
	}

	idx, delta, ok := locate(m, offset)
	if !ok {
		return nil
	}

	remaining := length
	readOffset := m.segments[idx].ComputedOffset

	for i := idx; i < len(m.segments) && remaining > 0; i++ {
		s := m.segments[i]

		if s.ComputedOffset != readOffset {
			panic(fmt.Sprintf("piecetable: continuity violation during range walk at segment %d", i))
		}

		amount := s.ComputedLength - delta
		if amount > remaining {
			amount = remaining
		}

		var chunk Chunk

		if s.IsRead() {
			chunk = Chunk{IsRead: true, FileOffset: s.ChangeOffset + delta, Length: amount}
		} else {
			src := s.Change.Bytes()
			start := s.ChangeOffset + delta
			chunk = Chunk{IsRead: false, Data: src[start : start+amount], Length: amount}
		}

		if err := visit(chunk); err != nil {
			return err
		}

		remaining -= amount
		readOffset += s.ComputedLength
		delta = 0
	}

	return nil
}
