// Package omegaedit is an in-process library for editing arbitrarily large
// byte streams non-destructively. Edits are recorded as an ordered change
// log; original bytes are never mutated. The library can materialize any
// slice of the computed (post-edit) stream, save a range to a file, and
// stream live viewports that are notified when the edits they overlap
// move, shrink, or rewrite bytes underneath them.
//
// A [Session] owns one piece-table model stack, its change log, its
// viewports, and its search contexts. Sessions are single-threaded
// cooperative: the library does not lock internally, and callers must
// serialize all calls that touch one Session. Independent sessions in
// the same process are fully independent.
package omegaedit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/calvinalkan/omegaedit/internal/change"
	"github.com/calvinalkan/omegaedit/internal/piecetable"
	"github.com/calvinalkan/omegaedit/pkg/fs"
)

// txState is the session's transaction-bit bookkeeping state.
type txState uint8

const (
	txNone txState = iota
	txOpened
	txInProgress
)

// frame is one entry of the model stack. The bottom frame's origin is
// the session snapshot file; every checkpoint
// pushes a new frame whose origin is the checkpoint file. Only the top
// frame is mutable; older frames remain reachable (their changes are still
// inspectable) but are never replayed again once buried under a checkpoint.
type frame struct {
	model      *piecetable.Model
	origin     *change.Change // serial-0 change backing this frame's READ segments
	originSize int64
	originFile *os.File // the snapshot or checkpoint file this frame reads from
	originPath string

	active []*change.Change // active log, ascending serial order
	redo   []*change.Change // redo stack, LIFO

	// adjustment is the total change count accumulated in earlier frames,
	// so ChangeCount stays monotonically increasing across checkpoints.
	adjustment int64

	bySerial map[int64]*change.Change // abs(serial) -> change, for GetChangeBySerial
}

func (f *frame) currentBit() bool {
	if len(f.active) == 0 {
		return false
	}

	return f.active[len(f.active)-1].TransactionBit()
}

// applyToModel applies ch to f.model, decomposing OVERWRITE into a
// synthetic delete+insert pair. The synthetic delete uses serial 0; the
// synthetic insert carries ch's serial, so its segment is an INSERT
// segment that reads ch's payload rather than the origin file. Neither is
// added to the active log.
func applyToModel(f *frame, ch *change.Change) error {
	switch ch.Kind() {
	case change.Delete, change.Insert:
		return f.model.Apply(ch)
	case change.Overwrite:
		synDel, err := change.NewDelete(0, ch.Offset(), ch.Length(), ch.TransactionBit())
		if err != nil {
			return err
		}

		if err := f.model.Apply(synDel); err != nil {
			return err
		}

		synIns, err := change.NewInsert(ch.Serial(), ch.Offset(), ch.Bytes(), ch.TransactionBit())
		if err != nil {
			return err
		}

		return f.model.Apply(synIns)
	default:
		fatal("unhandled change kind %v", ch.Kind())

		return nil
	}
}

// rebuild reinitializes f.model to the origin READ segment and replays
// every surviving active change, in order. This is the undo mechanism:
// O(n) in the number of active changes.
func (f *frame) rebuild() {
	f.model = piecetable.NewModel(f.origin, f.originSize)

	for _, ch := range f.active {
		if err := applyToModel(f, ch); err != nil {
			fatal("replay of change %s failed during rebuild: %v", ch, err)
		}
	}
}

// Session owns a piece-table model stack, its change log, viewports, and
// search contexts for one byte stream.
//
// The zero value is not usable; construct with [Open]. A Session must be
// closed with [Session.Close] to release its snapshot and checkpoint
// files. Session is not safe for concurrent use; callers that need
// multi-threaded access must provide external mutual exclusion.
type Session struct {
	id            uuid.UUID
	path          string // original file path, or "" for an in-memory session
	checkpointDir string

	fsys    fs.FS
	atomic  *fs.AtomicWriter
	dirLock *fs.Lock

	frames []*frame

	viewports []*Viewport
	searches  []*SearchContext

	callback      SessionCallback
	userData      any
	eventInterest SessionEvent

	viewportCallbacksPaused bool
	changesPaused           bool

	txState txState

	checkpointSeq int

	closed bool
}

// OpenOptions configures [Open].
type OpenOptions struct {
	// Callback, if non-nil, observes session events allowed by EventInterest.
	Callback SessionCallback
	// UserData is passed back to Callback unchanged.
	UserData any
	// EventInterest is the session event bitmask the callback should fire
	// for. Pass SessionEvtAll to observe every event, SessionEvtNone (the
	// zero value) to observe none.
	EventInterest SessionEvent
	// CheckpointDir overrides where the snapshot and checkpoint files are
	// created. Resolution order when empty: dirname(path) > os.TempDir() >
	// current directory.
	CheckpointDir string
}

const (
	snapshotPattern  = ".OmegaEdit-orig.*"
	checkpointPrefix = ".OmegaEdit-chk."

	// checkpointDirLockName is the advisory lock file every session holds
	// for its checkpoint directory's lifetime.
	checkpointDirLockName = ".OmegaEdit.lock"
)

// Open creates a session over the file at path. If path is "", the session
// starts empty (as if editing a zero-length file); edits build up an
// entirely in-memory computed stream until the first save.
//
// Open copies path's contents into a private snapshot file inside the
// checkpoint directory and opens that snapshot read-only; the original on
// disk is never read again during editing.
func Open(path string, opts OpenOptions) (*Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}

	checkpointDir, err := resolveCheckpointDir(path, opts.CheckpointDir)
	if err != nil {
		return nil, fmt.Errorf("omegaedit: open: %w", err)
	}

	fsys := fs.NewReal()

	if err := fsys.MkdirAll(checkpointDir, 0o755); err != nil {
		return nil, fmt.Errorf("omegaedit: open: checkpoint dir: %w", err)
	}

	// Guard the checkpoint directory's snapshot-file numbering against two
	// sessions racing to create a snapshot in the same directory at once.
	// The lock is released on Close; it never blocks a session from
	// reading files another session already wrote.
	dirLock, err := fs.NewLocker(fsys).Lock(filepath.Join(checkpointDir, checkpointDirLockName))
	if err != nil {
		return nil, fmt.Errorf("omegaedit: open: lock checkpoint dir: %w", err)
	}

	s := &Session{
		id:            id,
		path:          path,
		checkpointDir: checkpointDir,
		fsys:          fsys,
		atomic:        fs.NewAtomicWriter(fsys),
		dirLock:       dirLock,
		callback:      opts.Callback,
		userData:      opts.UserData,
		eventInterest: opts.EventInterest,
	}

	snapshotFile, snapshotPath, size, err := createSnapshot(fsys, checkpointDir, path)
	if err != nil {
		_ = dirLock.Close()

		return nil, fmt.Errorf("omegaedit: open: %w", err)
	}

	originChange := change.NewOrigin(size)

	f := &frame{
		model:      piecetable.NewModel(originChange, size),
		origin:     originChange,
		originSize: size,
		originFile: snapshotFile,
		originPath: snapshotPath,
		bySerial:   make(map[int64]*change.Change),
	}

	s.frames = append(s.frames, f)
	s.emit(SessionEvtCreate)

	return s, nil
}

// resolveCheckpointDir picks the checkpoint directory: argument >
// dirname(path) > system temp > current dir.
func resolveCheckpointDir(path, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if path != "" {
		dir := filepath.Dir(path)
		if dir != "" {
			return dir, nil
		}
	}

	tmp := os.TempDir()
	if tmp != "" {
		return tmp, nil
	}

	return os.Getwd()
}

// createSnapshot copies path's contents (or creates an empty file when
// path == "") into a new, mode-0600-modulo-umask file in dir, matching the
// ".OmegaEdit-orig.XXXXXX" naming pattern.
func createSnapshot(fsys fs.FS, dir, path string) (*os.File, string, int64, error) {
	dst, err := os.CreateTemp(dir, ".OmegaEdit-orig.*")
	if err != nil {
		return nil, "", 0, fmt.Errorf("create snapshot: %w", err)
	}

	if err := dst.Chmod(0o600); err != nil {
		_ = dst.Close()
		_ = fsys.Remove(dst.Name())

		return nil, "", 0, fmt.Errorf("chmod snapshot: %w", err)
	}

	var size int64

	if path != "" {
		src, err := fsys.Open(path)
		if err != nil {
			_ = dst.Close()
			_ = fsys.Remove(dst.Name())

			return nil, "", 0, fmt.Errorf("open original: %w", err)
		}

		n, err := io.Copy(dst, src)
		_ = src.Close()

		if err != nil {
			_ = dst.Close()
			_ = fsys.Remove(dst.Name())

			return nil, "", 0, fmt.Errorf("copy original: %w", err)
		}

		size = n
	}

	if err := dst.Sync(); err != nil {
		_ = dst.Close()
		_ = fsys.Remove(dst.Name())

		return nil, "", 0, fmt.Errorf("sync snapshot: %w", err)
	}

	if _, err := dst.Seek(0, io.SeekStart); err != nil {
		_ = dst.Close()
		_ = fsys.Remove(dst.Name())

		return nil, "", 0, fmt.Errorf("seek snapshot: %w", err)
	}

	return dst, dst.Name(), size, nil
}

// top returns the active (topmost) model frame.
func (s *Session) top() *frame { return s.frames[len(s.frames)-1] }

// Close destroys all viewports and search contexts, frees all change
// payloads, pops and deletes all checkpoint files, deletes the snapshot
// file, and releases the session. Close is idempotent.
func (s *Session) Close() error {
	if s == nil || s.closed {
		return nil
	}

	s.closed = true

	for _, v := range append([]*Viewport(nil), s.viewports...) {
		v.closed = true
	}

	s.viewports = nil

	for _, sc := range append([]*SearchContext(nil), s.searches...) {
		sc.closed = true
	}

	s.searches = nil

	var firstErr error

	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if err := f.originFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close frame file: %w", err)
		}

		if err := s.fsys.Remove(f.originPath); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = fmt.Errorf("remove frame file: %w", err)
		}
	}

	s.frames = nil

	if s.dirLock != nil {
		if err := s.dirLock.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("release checkpoint dir lock: %w", err)
		}

		s.dirLock = nil
	}

	return firstErr
}

// ID returns the session's UUIDv7 identity, minted at Open.
func (s *Session) ID() uuid.UUID { return s.id }

// FilePath returns the path the session was opened on, or "" for an
// in-memory session.
func (s *Session) FilePath() string { return s.path }

// CheckpointDir returns the directory snapshot and checkpoint files are
// created in.
func (s *Session) CheckpointDir() string { return s.checkpointDir }

// ComputedSize returns the size of the current computed stream.
func (s *Session) ComputedSize() int64 { return s.top().model.Size() }

// ChangeCount returns the number of changes in the active log, including
// the adjustment carried from any earlier, checkpointed frames, so the
// displayed count is monotonically increasing across checkpoints.
func (s *Session) ChangeCount() int64 {
	f := s.top()

	return f.adjustment + int64(len(f.active))
}

// UndoCount returns the number of changes currently undone (on the redo
// stack) in the active frame.
func (s *Session) UndoCount() int64 {
	return int64(len(s.top().redo))
}

// CheckpointCount returns the number of checkpoints currently on the
// model stack.
func (s *Session) CheckpointCount() int64 {
	return int64(len(s.frames) - 1)
}

// TransactionState reports NONE/OPENED/IN_PROGRESS.
func (s *Session) TransactionState() string {
	switch s.txState {
	case txNone:
		return "NONE"
	case txOpened:
		return "OPENED"
	case txInProgress:
		return "IN_PROGRESS"
	default:
		return "UNKNOWN"
	}
}

// LastChange returns the most recently appended change in the active log,
// or nil if the log is empty.
func (s *Session) LastChange() *change.Change {
	f := s.top()
	if len(f.active) == 0 {
		return nil
	}

	return f.active[len(f.active)-1]
}

// LastUndo returns the most recently undone change (top of the redo
// stack), or nil if nothing is undone.
func (s *Session) LastUndo() *change.Change {
	f := s.top()
	if len(f.redo) == 0 {
		return nil
	}

	return f.redo[len(f.redo)-1]
}

// GetChangeBySerial looks up a change by its serial. Positive and negative
// serials are both accepted (the sign only reflects undo state); pass the
// serial exactly as recorded. Checkpointed (older) frames remain
// searchable since their changes stay inspectable. Returns nil if not
// found.
func (s *Session) GetChangeBySerial(serial int64) *change.Change {
	abs := serial
	if abs < 0 {
		abs = -abs
	}

	for i := len(s.frames) - 1; i >= 0; i-- {
		if ch, ok := s.frames[i].bySerial[abs]; ok {
			return ch
		}
	}

	return nil
}

// recordSerial indexes ch by its absolute serial for GetChangeBySerial.
func (f *frame) recordSerial(ch *change.Change) {
	abs := ch.Serial()
	if abs < 0 {
		abs = -abs
	}

	f.bySerial[abs] = ch
}

// SetChangesPaused toggles the changes-paused gate: while true, every edit
// entry point (Delete/InsertBytes/OverwriteBytes/UndoLast/RedoLast) is a
// no-op returning a zero serial and no error. This is independent of
// viewport callback pausing.
func (s *Session) SetChangesPaused(paused bool) {
	if s.changesPaused == paused {
		return
	}

	s.changesPaused = paused

	if paused {
		s.emit(SessionEvtChangesPaused)
	} else {
		s.emit(SessionEvtChangesResumed)
	}
}

// ChangesPaused reports whether edits are currently being refused.
func (s *Session) ChangesPaused() bool { return s.changesPaused }

// PauseViewportCallbacks gates all viewport notification callbacks
// globally until ResumeViewportCallbacks is called.
func (s *Session) PauseViewportCallbacks() { s.viewportCallbacksPaused = true }

// ResumeViewportCallbacks re-enables viewport notification callbacks.
func (s *Session) ResumeViewportCallbacks() { s.viewportCallbacksPaused = false }

