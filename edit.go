package omegaedit

import (
	"errors"
	"fmt"

	"github.com/calvinalkan/omegaedit/internal/change"
	"github.com/calvinalkan/omegaedit/internal/piecetable"
)

// Delete removes length bytes starting at offset from the computed stream.
// Returns the change's serial number, or 0 (no error) if changes are
// currently paused.
func (s *Session) Delete(offset, length int64) (int64, error) {
	return s.edit(change.Delete, offset, nil, length)
}

// InsertBytes inserts data at offset of the computed stream. Returns the
// change's serial number, or 0 (no error) if changes are currently paused.
func (s *Session) InsertBytes(offset int64, data []byte) (int64, error) {
	return s.edit(change.Insert, offset, data, int64(len(data)))
}

// OverwriteBytes replaces len(data) bytes at offset with data. Modeled as
// delete(offset, len(data)) followed by insert(offset, data). Returns the
// change's serial number, or 0 (no error) if changes are currently
// paused.
func (s *Session) OverwriteBytes(offset int64, data []byte) (int64, error) {
	return s.edit(change.Overwrite, offset, data, int64(len(data)))
}

// edit is the shared append path for Delete/InsertBytes/OverwriteBytes.
func (s *Session) edit(kind change.Kind, offset int64, payload []byte, length int64) (int64, error) {
	if s.closed {
		return 0, ErrSessionClosed
	}

	if s.changesPaused {
		return 0, nil
	}

	f := s.top()
	serial := f.adjustment + int64(len(f.active)) + 1
	bit := nextTxBit(s.txState, f.currentBit())

	ch, err := newChange(kind, serial, offset, payload, length, bit)
	if err != nil {
		return 0, err
	}

	if err := applyToModel(f, ch); err != nil {
		if errors.Is(err, piecetable.ErrOutOfRange) {
			return 0, fmt.Errorf("%w: %w", ErrOutOfRange, err)
		}

		return 0, fmt.Errorf("omegaedit: %w", err)
	}

	f.active = append(f.active, ch)
	f.redo = f.redo[:0]
	f.recordSerial(ch)

	if s.txState == txOpened {
		s.txState = txInProgress
	}

	s.notifyViewportsForChange(ch, true)
	s.emit(SessionEvtEdit)

	return ch.Serial(), nil
}

func newChange(kind change.Kind, serial, offset int64, payload []byte, length int64, bit bool) (*change.Change, error) {
	switch kind {
	case change.Delete:
		return change.NewDelete(serial, offset, length, bit)
	case change.Insert:
		return change.NewInsert(serial, offset, payload, bit)
	case change.Overwrite:
		return change.NewOverwrite(serial, offset, payload, bit)
	default:
		fatal("unhandled change kind %v", kind)

		return nil, nil
	}
}

// nextTxBit assigns the one-bit transaction tag for a new change.
func nextTxBit(state txState, previousBit bool) bool {
	switch state {
	case txNone, txOpened:
		return !previousBit
	case txInProgress:
		return previousBit
	default:
		return !previousBit
	}
}

// UndoLast pops the top of the active log, rebuilds the model by replay,
// and pushes the (now negative-serial) change onto the redo stack. If the
// next-top active change shares the same transaction bit, it is undone
// too, atomically unwinding the whole transaction. Returns the negative
// serial of the outermost (first) undone change.
func (s *Session) UndoLast() (int64, error) {
	if s.closed {
		return 0, ErrSessionClosed
	}

	if s.changesPaused {
		return 0, nil
	}

	f := s.top()
	if len(f.active) == 0 {
		return 0, ErrNothingToUndo
	}

	var outermost int64

	for i := 0; ; i++ {
		ch := f.active[len(f.active)-1]
		f.active = f.active[:len(f.active)-1]
		ch.FlipSerialSign()
		f.redo = append(f.redo, ch)

		if i == 0 {
			outermost = ch.Serial()
		}

		f.rebuild()
		s.notifyViewportsForChange(ch, false)
		s.emit(SessionEvtUndo)

		if len(f.active) > 0 && f.active[len(f.active)-1].TransactionBit() == ch.TransactionBit() {
			continue
		}

		break
	}

	return outermost, nil
}

// RedoLast pops the top of the redo stack and re-appends it (flipping its
// serial back positive), continuing through same-transaction-bit entries
// the same way UndoLast does. Returns the positive serial of the outermost
// (first) redone change.
func (s *Session) RedoLast() (int64, error) {
	if s.closed {
		return 0, ErrSessionClosed
	}

	if s.changesPaused {
		return 0, nil
	}

	f := s.top()
	if len(f.redo) == 0 {
		return 0, ErrNothingToRedo
	}

	var outermost int64

	for i := 0; ; i++ {
		ch := f.redo[len(f.redo)-1]
		f.redo = f.redo[:len(f.redo)-1]
		ch.FlipSerialSign()

		if err := applyToModel(f, ch); err != nil {
			fatal("redo of change %s failed: %v", ch, err)
		}

		f.active = append(f.active, ch)

		if i == 0 {
			outermost = ch.Serial()
		}

		s.notifyViewportsForChange(ch, true)
		s.emit(SessionEvtEdit)

		if len(f.redo) > 0 && f.redo[len(f.redo)-1].TransactionBit() == ch.TransactionBit() {
			continue
		}

		break
	}

	return outermost, nil
}

// BeginTransaction opens a transaction: the next edit gets a fresh
// transaction bit and every subsequent edit (until EndTransaction) shares
// it, so a single UndoLast call unwinds the whole group. Fails if a
// transaction is already open.
func (s *Session) BeginTransaction() error {
	if s.txState != txNone {
		return ErrTransactionAlreadyOpen
	}

	s.txState = txOpened

	return nil
}

// EndTransaction closes the currently open transaction, returning the
// session's transaction state to NONE.
func (s *Session) EndTransaction() error {
	if s.txState == txNone {
		return ErrNoTransaction
	}

	s.txState = txNone

	return nil
}

// Clear wipes the active log and redo stack of the top frame and
// reinitializes its model to the original READ segment.
func (s *Session) Clear() {
	f := s.top()
	f.active = nil
	f.redo = nil
	f.bySerial = make(map[int64]*change.Change)
	f.rebuild()
	s.txState = txNone

	s.clearViewports()
	s.emit(SessionEvtClear)
}
