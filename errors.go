package omegaedit

import (
	"errors"
	"fmt"
)

// Argument-range and state errors. Callers classify with errors.Is;
// these are returned alongside a zero serial/negative count rather than
// via panic, since the caller can recover from them.
var (
	// ErrOutOfRange is returned when an edit's offset/length falls outside
	// the computed stream.
	ErrOutOfRange = errors.New("omegaedit: offset out of range")

	// ErrNothingToUndo is returned by UndoLast when the active log is empty.
	ErrNothingToUndo = errors.New("omegaedit: nothing to undo")

	// ErrNothingToRedo is returned by RedoLast when the redo stack is empty.
	ErrNothingToRedo = errors.New("omegaedit: nothing to redo")

	// ErrTransactionAlreadyOpen is returned by BeginTransaction when the
	// session's transaction state is not NONE.
	ErrTransactionAlreadyOpen = errors.New("omegaedit: transaction already open")

	// ErrNoTransaction is returned by EndTransaction when no transaction is open.
	ErrNoTransaction = errors.New("omegaedit: no transaction open")

	// ErrNoCheckpoint is returned by DestroyLastCheckpoint when the model
	// stack has no checkpoint frame to pop.
	ErrNoCheckpoint = errors.New("omegaedit: no checkpoint to destroy")

	// ErrInvalidCapacity is returned when a viewport capacity is <= 0 or
	// exceeds CapacityLimit.
	ErrInvalidCapacity = errors.New("omegaedit: invalid viewport capacity")

	// ErrPatternTooLong is returned by NewSearchContext when the pattern
	// exceeds PatternLimit or the session window it searches.
	ErrPatternTooLong = errors.New("omegaedit: pattern too long")

	// ErrPatternEmpty is returned by NewSearchContext for a zero-length pattern.
	ErrPatternEmpty = errors.New("omegaedit: pattern is empty")

	// ErrOriginalModified is the save-engine sentinel: the on-disk original
	// has a newer mtime than the session's snapshot, and force_overwrite
	// was not set.
	ErrOriginalModified = errors.New("omegaedit: original file modified since session open")

	// ErrRenameExhausted is returned by the save engine when an available
	// collision-free filename could not be found within maxRenameAttempts
	// tries.
	ErrRenameExhausted = errors.New("omegaedit: exhausted rename attempts")

	// ErrSessionClosed is returned by any operation on a Session after Close.
	ErrSessionClosed = errors.New("omegaedit: session is closed")

	// ErrViewportClosed is returned by any operation on a Viewport after Destroy.
	ErrViewportClosed = errors.New("omegaedit: viewport is closed")

	// ErrSearchClosed is returned by any operation on a SearchContext after Destroy.
	ErrSearchClosed = errors.New("omegaedit: search context is closed")
)

// fatal reports an unrecoverable invariant violation: piece-table
// continuity break, unhandled change kind, save write-count mismatch,
// transform atomic-replace failure. These are never the caller's to
// recover from, and continuing would operate on inconsistent state, so
// a panic is the only sound response.
func fatal(format string, args ...any) {
	panic("omegaedit: fatal: " + fmt.Sprintf(format, args...))
}
