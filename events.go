package omegaedit

import "github.com/calvinalkan/omegaedit/internal/change"

// SessionEvent is a bitmask of session-level event codes.
type SessionEvent uint32

const (
	SessionEvtCreate SessionEvent = 1 << iota
	SessionEvtEdit
	SessionEvtUndo
	SessionEvtClear
	SessionEvtTransform
	SessionEvtCreateCheckpoint
	SessionEvtDestroyCheckpoint
	SessionEvtSave
	SessionEvtChangesPaused
	SessionEvtChangesResumed
	SessionEvtCreateViewport
	SessionEvtDestroyViewport
)

// SessionEvtAll and SessionEvtNone are the "~0" / "0" sentinels to
// subscribe to everything, or to nothing.
const (
	SessionEvtAll  SessionEvent = ^SessionEvent(0)
	SessionEvtNone SessionEvent = 0
)

// ViewportEvent is a bitmask of viewport-level event codes.
type ViewportEvent uint32

const (
	ViewportEvtCreate ViewportEvent = 1 << iota
	ViewportEvtEdit
	ViewportEvtUndo
	ViewportEvtClear
	ViewportEvtTransform
	ViewportEvtModify
	ViewportEvtChanges
)

const (
	ViewportEvtAll  ViewportEvent = ^ViewportEvent(0)
	ViewportEvtNone ViewportEvent = 0
)

// SessionCallback observes session-level events. Callbacks fire
// synchronously from the calling goroutine and must not reenter the
// session.
type SessionCallback func(s *Session, evt SessionEvent, userData any)

// ViewportCallback observes viewport-level events. ch is the change that
// triggered the event, or nil for CREATE/CLEAR/MODIFY/CHANGES/TRANSFORM.
type ViewportCallback func(v *Viewport, evt ViewportEvent, ch *change.Change)

// emit invokes the session callback if evt is in the session's interest
// mask. Session-wide pause of viewport callbacks does not affect
// session-level events; only changesPaused / viewport pausing gate
// anything, and neither gates session events themselves.
func (s *Session) emit(evt SessionEvent) {
	if s.callback == nil {
		return
	}

	if s.eventInterest&evt == 0 {
		return
	}

	s.callback(s, evt, s.userData)
}
