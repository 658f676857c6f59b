package omegaedit

import (
	"fmt"
	"io"
	"os"

	atomicfile "github.com/natefinch/atomic"

	"github.com/calvinalkan/omegaedit/internal/piecetable"
)

// ByteTransform is a pure byte-to-byte mapping applied in place over a
// region of the computed stream.
type ByteTransform func(b byte, userData any) byte

// MaskKind selects the boolean operation [Session.ApplyMaskTransform]
// applies between each byte and the repeating mask.
type MaskKind int

const (
	MaskAnd MaskKind = iota
	MaskOr
	MaskXor
)

// ApplyTransform checkpoints the session, then rewrites the new
// checkpoint's backing file in place by applying transform to every byte
// in [offset, offset+length) of the computed stream, leaving bytes outside
// that range untouched. The checkpoint makes the rewrite undoable by
// destroying it with [Session.DestroyLastCheckpoint].
//
// Failure while generating the rewritten file destroys the checkpoint
// again and leaves the session unchanged. Failure replacing the
// checkpoint file on disk is a fatal invariant violation: the in-memory
// model would disagree with the file it reads from.
func (s *Session) ApplyTransform(transform ByteTransform, userData any, offset, length int64) error {
	if s.closed {
		return ErrSessionClosed
	}

	if err := s.CreateCheckpoint(); err != nil {
		return fmt.Errorf("omegaedit: apply transform: %w", err)
	}

	f := s.top()
	size := f.model.Size()

	if length <= 0 || offset+length > size {
		length = size - offset
	}

	tmp, err := os.CreateTemp(s.checkpointDir, ".OmegaEdit-transform.*")
	if err != nil {
		_ = s.DestroyLastCheckpoint()

		return fmt.Errorf("omegaedit: apply transform: create temp file: %w", err)
	}

	tmpPath := tmp.Name()

	if err := transformToFile(f, offset, length, size, transform, userData, tmp); err != nil {
		_ = tmp.Close()
		_ = s.fsys.Remove(tmpPath)
		_ = s.DestroyLastCheckpoint()

		return fmt.Errorf("omegaedit: apply transform: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = s.fsys.Remove(tmpPath)
		_ = s.DestroyLastCheckpoint()

		return fmt.Errorf("omegaedit: apply transform: close temp file: %w", err)
	}

	if err := atomicfile.ReplaceFile(tmpPath, f.originPath); err != nil {
		fatal("apply transform: replacing checkpoint file: %v", err)
	}

	reopened, err := os.Open(f.originPath)
	if err != nil {
		fatal("apply transform: reopening checkpoint file: %v", err)
	}

	_ = f.originFile.Close()
	f.originFile = reopened

	s.dirtyAllViewports()
	s.emit(SessionEvtTransform)

	return nil
}

// transformToFile streams f's computed stream to out, applying transform
// to bytes within [offset, offset+length) and copying the rest verbatim,
// in bounded streamChunkSize pieces so arbitrarily large streams never
// require the whole computed stream in memory at once.
func transformToFile(f *frame, offset, length, size int64, transform ByteTransform, userData any, out io.Writer) error {
	scratch := make([]byte, streamChunkSize)

	var pos int64

	for pos < size {
		n := int64(len(scratch))
		if n > size-pos {
			n = size - pos
		}

		read, err := piecetable.Materialize(f.model, f.originFile, pos, scratch[:n])
		if err != nil {
			return fmt.Errorf("materialize: %w", err)
		}

		if int64(read) == 0 {
			break
		}

		chunk := scratch[:read]
		applyTransformWindow(chunk, pos, offset, offset+length, transform, userData)

		if _, err := out.Write(chunk); err != nil {
			return fmt.Errorf("write: %w", err)
		}

		pos += int64(read)
	}

	return nil
}

// applyTransformWindow mutates chunk in place, transforming only the
// bytes whose absolute stream position falls within [rangeStart, rangeEnd).
func applyTransformWindow(chunk []byte, chunkStart, rangeStart, rangeEnd int64, transform ByteTransform, userData any) {
	for i := range chunk {
		abs := chunkStart + int64(i)
		if abs >= rangeStart && abs < rangeEnd {
			chunk[i] = transform(chunk[i], userData)
		}
	}
}

// ApplyMaskTransform applies a repeating boolean mask against
// [offset, offset+length) of the computed stream. mask is applied
// byte-for-byte, repeating when shorter than length.
func (s *Session) ApplyMaskTransform(mask []byte, kind MaskKind, offset, length int64) error {
	if len(mask) == 0 {
		return fmt.Errorf("omegaedit: apply mask transform: empty mask")
	}

	i := 0

	return s.ApplyTransform(func(b byte, _ any) byte {
		m := mask[i%len(mask)]
		i++

		return maskByte(b, m, kind)
	}, nil, offset, length)
}

func maskByte(b, mask byte, kind MaskKind) byte {
	switch kind {
	case MaskAnd:
		return b & mask
	case MaskOr:
		return b | mask
	case MaskXor:
		return b ^ mask
	default:
		fatal("unhandled mask kind %v", kind)

		return b
	}
}

// dirtyAllViewports marks every viewport dirty and emits
// VIEWPORT_EVT_TRANSFORM, used after [Session.ApplyTransform] replaces the
// checkpoint file out from under the model.
func (s *Session) dirtyAllViewports() {
	for _, v := range s.viewports {
		v.dirty = true
		v.notify(ViewportEvtTransform, nil)
	}
}
