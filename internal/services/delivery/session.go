package delivery

import (
	"sync"
	"time"

	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/enums"
)

// Filter narrows the eligible set by category and a substring search
// over item names and tags.
type Filter struct {
	Category string
	Search   string
}

// Session is one open browsing view's transient state. It is never
// persisted; closing the view discards it. shown and the cursor belong
// to exactly one session; there is no cross-session sharing.
type session struct {
	id     string
	userID int64 // 0 for anonymous viewers

	// drawMu serializes page draws so page N's shown ids commit before
	// page N+1 is computed. stateMu guards the fields and stays cheap,
	// letting a mode/filter switch land while a draw is in flight.
	drawMu  sync.Mutex
	stateMu sync.Mutex

	mode       enums.DisplayMode
	filter     Filter
	shown      map[int64]struct{}
	pageIndex  int
	generation uint64
	lastActive time.Time
}

func newSession(id string, userID int64, now time.Time) *session {
	return &session{
		id:         id,
		userID:     userID,
		mode:       enums.ModeNormal,
		shown:      make(map[int64]struct{}),
		lastActive: now,
	}
}

type drawSnapshot struct {
	mode       enums.DisplayMode
	filter     Filter
	shown      map[int64]struct{}
	generation uint64
}

func (s *session) snapshot() drawSnapshot {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	shown := make(map[int64]struct{}, len(s.shown))
	for id := range s.shown {
		shown[id] = struct{}{}
	}

	return drawSnapshot{
		mode:       s.mode,
		filter:     s.filter,
		shown:      shown,
		generation: s.generation,
	}
}

// commit records drawn ids if the session configuration is still the one
// the draw started under. A draw that lost to a mode/filter switch is
// discarded and reports false.
func (s *session) commit(generation uint64, drawn []int64, now time.Time) (int, bool) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if s.generation != generation {
		return 0, false
	}

	for _, id := range drawn {
		s.shown[id] = struct{}{}
	}
	s.pageIndex++
	s.lastActive = now

	return s.pageIndex, true
}

// reconfigure applies fn to the session fields, discards paging
// progress, and invalidates in-flight draws under one critical section,
// so a commit can never observe the new fields with the old generation.
func (s *session) reconfigure(now time.Time, fn func(*session)) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	fn(s)
	s.shown = make(map[int64]struct{})
	s.pageIndex = 0
	s.generation++
	s.lastActive = now
}

func (s *session) currentGeneration() uint64 {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.generation
}

func (s *session) idleSince() time.Time {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.lastActive
}
