package normalize

import (
	"time"

	ptime "ghloader/internal/platform/time"
)

// State is the month scoped dedup memory of one run
// It is owned by the normalize stage and passed explicitly into every Process call
type State struct {
	scope  time.Time
	events map[string]struct{}
	pushes map[int64]struct{}
	issues map[int64]struct{}
	prs    map[int64]struct{}
	forks  map[int64]struct{}
}

// NewState returns an empty state with no month scope yet
func NewState() *State {
	s := &State{}
	s.clear()
	return s
}

func (s *State) clear() {
	s.events = make(map[string]struct{})
	s.pushes = make(map[int64]struct{})
	s.issues = make(map[int64]struct{})
	s.prs = make(map[int64]struct{})
	s.forks = make(map[int64]struct{})
}

// Scope returns the first day of the month the sets currently describe (zero before the first Enter)
func (s *State) Scope() time.Time { return s.scope }

// Enter moves the scope to day's month and reports whether the sets were cleared
// Entering a day of the current month keeps everything
func (s *State) Enter(day time.Time) bool {
	if !s.scope.IsZero() && ptime.SameMonth(s.scope, day) {
		return false
	}
	y, m, _ := day.UTC().Date()
	fresh := s.scope.IsZero()
	s.scope = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	if fresh {
		return false
	}
	s.Reset()
	return true
}

// Reset forgets every id
func (s *State) Reset() { s.clear() }

// Sizes reports the number of remembered ids per set
func (s *State) Sizes() (events, pushes, issues, prs, forks int) {
	return len(s.events), len(s.pushes), len(s.issues), len(s.prs), len(s.forks)
}

// firstEvent records id and reports whether it was unseen
func (s *State) firstEvent(id string) bool {
	if _, ok := s.events[id]; ok {
		return false
	}
	s.events[id] = struct{}{}
	return true
}

func first(set map[int64]struct{}, id int64) bool {
	if _, ok := set[id]; ok {
		return false
	}
	set[id] = struct{}{}
	return true
}

func (s *State) firstPush(id int64) bool  { return first(s.pushes, id) }
func (s *State) firstIssue(id int64) bool { return first(s.issues, id) }
func (s *State) firstPR(id int64) bool    { return first(s.prs, id) }
func (s *State) firstFork(id int64) bool  { return first(s.forks, id) }
