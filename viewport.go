package omegaedit

import (
	"fmt"

	"github.com/calvinalkan/omegaedit/internal/change"
	"github.com/calvinalkan/omegaedit/internal/piecetable"
)

// CapacityLimit bounds a viewport's capacity.
const CapacityLimit = 1 << 30

// Viewport is a subscriber-owned window onto the computed stream. Fixed
// viewports stay anchored at their offset; floating viewports shift with
// edits before them.
//
// The zero value is not usable; construct with [Session.CreateViewport].
// Viewport is not safe for concurrent use; see [Session] for the
// single-threaded-per-session contract.
type Viewport struct {
	session *Session

	offset           int64
	capacity         int64
	length           int64
	offsetAdjustment int64
	isFloating       bool

	buffer []byte
	dirty  bool

	eventInterest ViewportEvent
	callback      ViewportCallback
	userData      any

	closed bool
}

// CreateViewport creates a viewport at [offset, offset+capacity) over the
// computed stream. capacity must be in (0, CapacityLimit]. The viewport
// starts dirty; call [Viewport.GetData] to materialize it.
func (s *Session) CreateViewport(offset, capacity int64, isFloating bool, interest ViewportEvent, cb ViewportCallback, userData any) (*Viewport, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	if capacity <= 0 || capacity > CapacityLimit {
		return nil, ErrInvalidCapacity
	}

	v := &Viewport{
		session:          s,
		offset:           offset,
		capacity:         capacity,
		offsetAdjustment: 0,
		isFloating:       isFloating,
		buffer:           make([]byte, 0, capacity),
		dirty:            true,
		eventInterest:    interest,
		callback:         cb,
		userData:         userData,
	}

	s.viewports = append(s.viewports, v)

	s.emit(SessionEvtCreateViewport)
	v.notify(ViewportEvtCreate, nil)

	return v, nil
}

// Destroy unlinks the viewport from its session. After Destroy, every
// method on v returns [ErrViewportClosed].
func (v *Viewport) Destroy() {
	if v.closed {
		return
	}

	v.closed = true

	s := v.session
	for i, other := range s.viewports {
		if other == v {
			s.viewports = append(s.viewports[:i], s.viewports[i+1:]...)

			break
		}
	}

	s.emit(SessionEvtDestroyViewport)
}

// effectiveOffset returns the viewport's current window start, applying
// any accumulated floating adjustment.
func (v *Viewport) effectiveOffset() int64 {
	off := v.offset + v.offsetAdjustment
	if off < 0 {
		off = 0
	}

	return off
}

// Offset returns the viewport's current effective offset.
func (v *Viewport) Offset() int64 { return v.effectiveOffset() }

// Capacity returns the viewport's configured capacity.
func (v *Viewport) Capacity() int64 { return v.capacity }

// IsFloating reports whether the viewport shifts with preceding edits.
func (v *Viewport) IsFloating() bool { return v.isFloating }

// HasChanges reports whether the viewport's buffer does not yet reflect
// the latest model state.
func (v *Viewport) HasChanges() bool { return v.dirty }

// Length returns the number of bytes currently materialized into the
// viewport's buffer. Until GetData is called after a dirtying change,
// this reflects the previous materialization, not the current model.
func (v *Viewport) Length() int64 { return v.length }

// FollowingByteCount returns computed_file_size - (offset + length); it
// may be negative when the viewport sits past EOF.
func (v *Viewport) FollowingByteCount() int64 {
	return v.session.ComputedSize() - (v.effectiveOffset() + v.length)
}

// GetData re-materializes the viewport's buffer from the model if dirty,
// clears the dirty flag, and returns the buffer.
func (v *Viewport) GetData() ([]byte, error) {
	if v.closed {
		return nil, ErrViewportClosed
	}

	if !v.dirty {
		return v.buffer, nil
	}

	f := v.session.top()

	buf := make([]byte, v.capacity)

	n, err := piecetable.Materialize(f.model, f.originFile, v.effectiveOffset(), buf)
	if err != nil {
		return nil, fmt.Errorf("omegaedit: viewport materialize: %w", err)
	}

	v.buffer = buf[:n]
	v.length = int64(n)
	v.dirty = false

	return v.buffer, nil
}

// InSegment reports whether computedOffset currently falls within the
// viewport's effective window.
func (v *Viewport) InSegment(computedOffset int64) bool {
	start := v.effectiveOffset()

	return computedOffset >= start && computedOffset < start+v.capacity
}

// Modify reconfigures the viewport in place.
func (v *Viewport) Modify(offset, capacity int64, isFloating bool) error {
	if v.closed {
		return ErrViewportClosed
	}

	if capacity <= 0 || capacity > CapacityLimit {
		return ErrInvalidCapacity
	}

	v.offset = offset
	v.capacity = capacity
	v.isFloating = isFloating
	v.offsetAdjustment = 0
	v.dirty = true

	v.notify(ViewportEvtModify, nil)

	return nil
}

// SetEventInterest updates the viewport's event-interest mask.
func (v *Viewport) SetEventInterest(interest ViewportEvent) { v.eventInterest = interest }

// notify fires the viewport's callback if evt is in its interest mask and
// session-wide viewport callbacks are not paused.
func (v *Viewport) notify(evt ViewportEvent, ch *change.Change) {
	if v.session.viewportCallbacksPaused {
		return
	}

	if v.callback == nil {
		return
	}

	if v.eventInterest&evt == 0 {
		return
	}

	v.callback(v, evt, ch)
}

// affectsViewport reports whether ch overlaps v's window: for
// INSERT/DELETE, change.offset <= viewport.offset+capacity; for
// OVERWRITE, range intersection. Callers apply the floating adjustment
// for ch before calling this, so v.effectiveOffset() here already
// reflects ch's own shift.
func affectsViewport(v *Viewport, ch *change.Change) bool {
	start := v.effectiveOffset()
	end := start + v.capacity

	switch ch.Kind() {
	case change.Insert, change.Delete:
		return ch.Offset() <= end
	case change.Overwrite:
		chEnd := ch.Offset() + ch.Length()

		return ch.Offset() < end && chEnd > start
	default:
		return false
	}
}

// applyFloatingAdjustment updates a floating viewport's offsetAdjustment
// for a change that precedes its window. The adjustment is a
// path-dependent accumulator: DELETE clamps the *effective* offset to
// zero but does not remember negative debt past that clamp.
func applyFloatingAdjustment(v *Viewport, ch *change.Change) {
	if !v.isFloating {
		return
	}

	switch ch.Kind() {
	case change.Insert:
		if ch.Offset() <= v.offset+v.offsetAdjustment {
			v.offsetAdjustment += ch.Length()
		}
	case change.Delete:
		if ch.Offset() <= v.offset+v.offsetAdjustment {
			before := v.offset + v.offsetAdjustment
			after := before - ch.Length()

			if after < 0 {
				after = 0
			}

			v.offsetAdjustment = after - v.offset
		}
	case change.Overwrite:
		// OVERWRITE never adjusts floating offsets.
	}
}

// notifyViewportsForChange walks every viewport in s, applying floating
// adjustments and dirtying/notifying those affected by ch. positive
// reports whether ch's serial is currently positive (EDIT) or negative
// (UNDO).
func (s *Session) notifyViewportsForChange(ch *change.Change, positive bool) {
	evt := ViewportEvtUndo
	if positive {
		evt = ViewportEvtEdit
	}

	for _, v := range s.viewports {
		if ch.Kind() != change.Overwrite {
			applyFloatingAdjustment(v, ch)
		}

		if !affectsViewport(v, ch) {
			continue
		}

		v.dirty = true
		v.notify(evt, ch)
	}
}

// ClearViewports marks every viewport dirty and emits VIEWPORT_EVT_CLEAR,
// used by [Session.Clear].
func (s *Session) clearViewports() {
	for _, v := range s.viewports {
		v.dirty = true
		v.offsetAdjustment = 0
		v.notify(ViewportEvtClear, nil)
	}
}

// NotifyChangedViewports manually walks the viewport set and emits
// VIEWPORT_EVT_CHANGES for any still-dirty ones.
func (s *Session) NotifyChangedViewports() {
	for _, v := range s.viewports {
		if v.dirty {
			v.notify(ViewportEvtChanges, nil)
		}
	}
}
