package bengalerrors

import (
	"fmt"
	"sync"
)

// signature is the normalized dedup key spec §4.12 describes: error type,
// code, normalized message, normalized file, line, template, operation —
// with file paths and line numbers replaced by placeholders so two
// occurrences of "the same" error on different pages still collide.
type signature struct {
	errType   string
	code      Code
	message   string
	hasPath   bool
	hasLine   bool
	template  string
	operation string
}

// Session is the per-build error deduplicator: it decides whether a given
// error should be displayed in full or suppressed as a repeat, and tracks
// enough to print a final "N similar errors suppressed" summary.
type Session struct {
	mu          sync.Mutex
	maxDisplay  int
	seen        map[signature]int
	order       []signature
	occurrences map[signature][]*ClassifiedError
}

// NewSession creates a deduplication session. maxDisplay caps how many
// full occurrences of each unique signature are shown; 0 defaults to 2,
// matching the teacher's default.
func NewSession(maxDisplay int) *Session {
	if maxDisplay <= 0 {
		maxDisplay = 2
	}
	return &Session{
		maxDisplay:  maxDisplay,
		seen:        make(map[signature]int),
		occurrences: make(map[signature][]*ClassifiedError),
	}
}

func sigFor(err *ClassifiedError, errType, template, operation string) signature {
	msg := err.Message()
	if len(msg) > 50 {
		msg = msg[:50]
	}
	return signature{
		errType:   errType,
		code:      err.Code(),
		message:   msg,
		hasPath:   err.Path() != "",
		hasLine:   err.Line() > 0,
		template:  template,
		operation: operation,
	}
}

// ShouldDisplay records err under the given type/template/operation tuple
// and reports whether the caller should render it in full (true for the
// first maxDisplay occurrences of each signature, false afterward).
func (s *Session) ShouldDisplay(err *ClassifiedError, errType, template, operation string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig := sigFor(err, errType, template, operation)
	if _, ok := s.seen[sig]; !ok {
		s.order = append(s.order, sig)
	}
	s.seen[sig]++
	s.occurrences[sig] = append(s.occurrences[sig], err)
	return s.seen[sig] <= s.maxDisplay
}

// SuppressedCount returns the total number of occurrences beyond the
// display cap, across all signatures.
func (s *Session) SuppressedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, count := range s.seen {
		if count > s.maxDisplay {
			total += count - s.maxDisplay
		}
	}
	return total
}

// Summary returns one line per signature with suppressed occurrences,
// formatted for the end-of-build report.
func (s *Session) Summary() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lines []string
	for _, sig := range s.order {
		count := s.seen[sig]
		if count <= s.maxDisplay {
			continue
		}
		extra := count - s.maxDisplay
		lines = append(lines, fmt.Sprintf("%s (%s): +%d more occurrence(s)", sig.code, sig.errType, extra))
	}
	return lines
}

// Reset clears the session for a new build.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[signature]int)
	s.occurrences = make(map[signature][]*ClassifiedError)
	s.order = nil
}
