package omegaedit

import (
	"fmt"
	"io"

	"github.com/calvinalkan/omegaedit/internal/piecetable"
)

// streamChunkSize bounds how much is read from a backing file at once when
// copying a range of the computed stream, so checkpoints and saves don't
// require loading arbitrarily large streams into memory.
const streamChunkSize = 1 << 20 // 1 MiB

// copyRange writes [offset, offset+length) of f's computed stream to w,
// walking segments via [piecetable.VisitRange]. Returns the number of
// bytes written.
func copyRange(f *frame, offset, length int64, w io.Writer) (int64, error) {
	var written int64

	scratch := make([]byte, streamChunkSize)

	err := piecetable.VisitRange(f.model, offset, length, func(c piecetable.Chunk) error {
		if c.IsRead {
			remaining := c.Length
			fileOffset := c.FileOffset

			for remaining > 0 {
				n := int64(len(scratch))
				if n > remaining {
					n = remaining
				}

				read, err := f.originFile.ReadAt(scratch[:n], fileOffset)
				if read > 0 {
					out, werr := w.Write(scratch[:read])
					written += int64(out)

					if werr != nil {
						return fmt.Errorf("write: %w", werr)
					}
				}

				if err != nil && err != io.EOF {
					return fmt.Errorf("read origin: %w", err)
				}

				if int64(read) < n {
					return fmt.Errorf("read origin: short read (%d of %d)", read, n)
				}

				remaining -= int64(read)
				fileOffset += int64(read)
			}

			return nil
		}

		out, err := w.Write(c.Data)
		written += int64(out)

		if err != nil {
			return fmt.Errorf("write: %w", err)
		}

		return nil
	})
	if err != nil {
		return written, err
	}

	return written, nil
}
