package omegaedit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/calvinalkan/omegaedit/internal/change"
	"github.com/calvinalkan/omegaedit/internal/piecetable"
	"github.com/calvinalkan/omegaedit/pkg/fs"
)

// CreateCheckpoint flattens the current computed stream to a private file
// in the checkpoint directory and pushes a fresh model frame whose READ
// segment spans it. The active change log is now the new frame's; older
// frames remain reachable (their changes stay inspectable via
// [Session.GetChangeBySerial]) but are never replayed again.
//
// The checkpoint file is written through the session's [fs.AtomicWriter]:
// the flattened stream is streamed into a pipe, written to a hidden temp
// file in the checkpoint directory, fsynced, and renamed into place, the
// same durability discipline the save engine gets from its own rename
// dance.
func (s *Session) CreateCheckpoint() error {
	if s.closed {
		return ErrSessionClosed
	}

	top := s.top()

	s.checkpointSeq++
	name := fmt.Sprintf("%s%d", checkpointPrefix, s.checkpointSeq)
	path := filepath.Join(s.checkpointDir, name)

	size := top.model.Size()

	pr, pw := io.Pipe()

	go func() {
		_, err := copyRange(top, 0, size, pw)
		_ = pw.CloseWithError(err)
	}()

	opts := fs.AtomicWriteOptions{SyncDir: true, Perm: 0o600}
	if err := s.atomic.Write(path, pr, opts); err != nil {
		return fmt.Errorf("omegaedit: create checkpoint: %w", err)
	}

	dst, err := s.fsys.Open(path)
	if err != nil {
		return fmt.Errorf("omegaedit: create checkpoint: reopen: %w", err)
	}

	osFile, ok := dst.(*os.File)
	if !ok {
		_ = dst.Close()
		fatal("create checkpoint: fs.FS.Open did not return an *os.File")
	}

	originChange := change.NewOrigin(size)

	newFrame := &frame{
		model:      piecetable.NewModel(originChange, size),
		origin:     originChange,
		originSize: size,
		originFile: osFile,
		originPath: path,
		adjustment: top.adjustment + int64(len(top.active)),
		bySerial:   make(map[int64]*change.Change),
	}

	s.frames = append(s.frames, newFrame)
	s.emit(SessionEvtCreateCheckpoint)

	return nil
}

// DestroyLastCheckpoint closes and removes the top checkpoint file and
// pops the model stack. Fails with [ErrNoCheckpoint] if the stack has no
// checkpoint frame (only the bottom, session-snapshot frame remains).
func (s *Session) DestroyLastCheckpoint() error {
	if s.closed {
		return ErrSessionClosed
	}

	if len(s.frames) < 2 {
		return ErrNoCheckpoint
	}

	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]

	closeErr := top.originFile.Close()
	removeErr := s.fsys.Remove(top.originPath)

	if closeErr != nil {
		return fmt.Errorf("omegaedit: destroy checkpoint: close: %w", closeErr)
	}

	if removeErr != nil && !os.IsNotExist(removeErr) {
		return fmt.Errorf("omegaedit: destroy checkpoint: remove: %w", removeErr)
	}

	s.emit(SessionEvtDestroyCheckpoint)

	return nil
}
