package omegaedit

import (
	"fmt"

	"github.com/calvinalkan/omegaedit/internal/piecetable"
)

// PatternLimit bounds search pattern length, fixed at half the viewport
// capacity limit.
const PatternLimit = CapacityLimit / 2

// maxWindow is the largest tile the windowed scan materializes at once,
// twice PatternLimit.
const maxWindow = PatternLimit << 1

// SearchContext holds one substring search over a session's computed
// stream. Many contexts may coexist on one session without mutating each
// other; they are not invalidated by edits, but a match offset may no
// longer be meaningful after the session is edited.
//
// The zero value is not usable; construct with [Session.NewSearchContext]
// or [Session.NewSearchContextString].
type SearchContext struct {
	session *Session

	pattern         []byte // case-folded if caseInsensitive, never reversed
	patternLength   int64
	sessionOffset   int64
	sessionLength   int64
	matchOffset     int64
	caseInsensitive bool
	reverse         bool

	skip *skipTable

	closed bool
}

// NewSearchContext creates a search context for pattern over
// [sessionOffset, sessionOffset+sessionLength) of s's computed stream. A
// sessionLength of 0 means "to the end of the computed stream". Fails with
// [ErrPatternEmpty] if pattern is empty, [ErrPatternTooLong] if its length
// exceeds [PatternLimit] or the search window.
func (s *Session) NewSearchContext(pattern []byte, sessionOffset, sessionLength int64, caseInsensitive, reverse bool) (*SearchContext, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	if len(pattern) == 0 {
		return nil, ErrPatternEmpty
	}

	patternLength := int64(len(pattern))

	computedSize := s.ComputedSize()

	windowLength := sessionLength
	if windowLength == 0 {
		windowLength = computedSize - sessionOffset
	}

	if patternLength > PatternLimit || patternLength > windowLength {
		return nil, ErrPatternTooLong
	}

	folded := make([]byte, patternLength)
	copy(folded, pattern)

	if caseInsensitive {
		toLower(folded)
	}

	sc := &SearchContext{
		session:         s,
		pattern:         folded,
		patternLength:   patternLength,
		sessionOffset:   sessionOffset,
		sessionLength:   windowLength,
		matchOffset:     sessionOffset + windowLength,
		caseInsensitive: caseInsensitive,
		reverse:         reverse,
		skip:            newSkipTable(folded, reverse),
	}

	s.searches = append(s.searches, sc)

	return sc, nil
}

// NewSearchContextString is [Session.NewSearchContext] taking a string
// pattern, for callers that have text rather than raw bytes on hand.
func (s *Session) NewSearchContextString(pattern string, sessionOffset, sessionLength int64, caseInsensitive, reverse bool) (*SearchContext, error) {
	return s.NewSearchContext([]byte(pattern), sessionOffset, sessionLength, caseInsensitive, reverse)
}

// IsReverseSearch reports the context's search direction.
func (sc *SearchContext) IsReverseSearch() bool { return sc.reverse }

// SessionOffset returns the start of the context's search window.
func (sc *SearchContext) SessionOffset() int64 { return sc.sessionOffset }

// SessionLength returns the length of the context's search window.
func (sc *SearchContext) SessionLength() int64 { return sc.sessionLength }

// MatchOffset returns the offset of the most recent match, or the end of
// the search window (in either direction) if exhausted or not yet
// searched.
func (sc *SearchContext) MatchOffset() int64 { return sc.matchOffset }

// PatternLength returns the length of the search pattern in bytes.
func (sc *SearchContext) PatternLength() int64 { return sc.patternLength }

// DestroyContext unlinks the search context from its session.
func (sc *SearchContext) DestroyContext() {
	if sc.closed {
		return
	}

	sc.closed = true

	s := sc.session
	for i, other := range s.searches {
		if other == sc {
			s.searches = append(s.searches[:i], s.searches[i+1:]...)

			break
		}
	}
}

// NextMatch advances the search and reports whether a match was found,
// using tiled windows of up to 2×PatternLimit bytes materialized via the
// piece-table model.
func (sc *SearchContext) NextMatch(advance int64) (bool, error) {
	if sc.closed {
		return false, ErrSearchClosed
	}

	if advance < 0 {
		return false, fmt.Errorf("omegaedit: search: negative advance")
	}

	lastOffset := sc.sessionOffset + sc.sessionLength
	isBegin := sc.matchOffset == lastOffset

	var searchLength int64

	if sc.reverse {
		if isBegin {
			searchLength = sc.sessionLength
		} else {
			searchLength = sc.matchOffset - sc.sessionOffset - advance + 1
			if searchLength < 0 {
				searchLength = 0
			}
		}
	} else {
		if isBegin {
			searchLength = sc.sessionLength
		} else {
			searchLength = sc.sessionLength - (sc.matchOffset - sc.sessionOffset) - advance
		}
	}

	if sc.patternLength > searchLength {
		sc.matchOffset = lastOffset

		return false, nil
	}

	f := sc.session.top()

	windowCapacity := searchLength
	if windowCapacity > maxWindow {
		windowCapacity = maxWindow
	}

	stride := 1 + windowCapacity - sc.patternLength

	var windowOffset int64

	if sc.reverse {
		if isBegin {
			windowOffset = sc.sessionOffset + sc.sessionLength - windowCapacity
		} else {
			windowOffset = sc.matchOffset - windowCapacity - advance + 1
		}
	} else {
		if isBegin {
			windowOffset = sc.sessionOffset
		} else {
			windowOffset = sc.matchOffset + advance
		}
	}

	buf := make([]byte, windowCapacity)

	for {
		n, err := piecetable.Materialize(f.model, f.originFile, windowOffset, buf)
		if err != nil {
			return false, fmt.Errorf("omegaedit: search: %w", err)
		}

		window := buf[:n]

		if sc.caseInsensitive {
			toLower(window)
		}

		if idx := sc.skip.search(window); idx >= 0 {
			sc.matchOffset = windowOffset + idx

			return true, nil
		}

		if int64(n) < windowCapacity {
			break
		}

		searchLength -= stride

		if searchLength < sc.patternLength {
			break
		}

		if sc.reverse {
			windowOffset -= stride
		} else {
			windowOffset += stride
		}
	}

	sc.matchOffset = lastOffset

	return false, nil
}

func toLower(b []byte) {
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
}

// skipTable is a Boyer-Moore-Horspool skip table. Reverse contexts store
// the pattern (and scan windows) reversed, so the same forward scan loop
// finds the rightmost occurrence in the original orientation
//.
type skipTable struct {
	table   [256]int64
	pattern []byte
	reverse bool
}

func newSkipTable(pattern []byte, reverse bool) *skipTable {
	p := pattern
	if reverse {
		p = reverseBytes(pattern)
	}

	n := int64(len(p))

	var table [256]int64

	for i := range table {
		table[i] = n
	}

	for i := int64(0); i < n-1; i++ {
		table[p[i]] = n - 1 - i
	}

	return &skipTable{table: table, pattern: p, reverse: reverse}
}

// search scans data for the table's pattern, returning the match offset in
// data's own orientation, or -1. For a reverse table, data is scanned
// reversed internally and the returned index is converted back so the
// result still indexes into the caller's (unreversed) data.
func (t *skipTable) search(data []byte) int64 {
	d := data
	if t.reverse {
		d = reverseBytes(data)
	}

	n := int64(len(d))
	m := int64(len(t.pattern))

	if m == 0 || m > n {
		return -1
	}

	i := int64(0)

	for i <= n-m {
		j := m - 1

		for j >= 0 && d[i+j] == t.pattern[j] {
			j--
		}

		if j < 0 {
			if t.reverse {
				return n - i - m
			}

			return i
		}

		i += t.table[d[i+m-1]]
	}

	return -1
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))

	for i, c := range b {
		out[len(b)-1-i] = c
	}

	return out
}
