package matchmaking

import (
	"fmt"
	"sync"

	"github.com/samber/lo"
)

type sessionEntry struct {
	partner ParticipantID
	session *Session
}

// SessionTable maps every paired participant to its session. Both
// participants of a session always have an entry, or neither does.
type SessionTable struct {
	mu      sync.Mutex
	entries map[ParticipantID]sessionEntry
	counter uint64
}

func NewSessionTable() *SessionTable {
	return &SessionTable{entries: make(map[ParticipantID]sessionEntry)}
}

// NextID allocates the next session id ("#0001", "#0002", ...).
func (t *SessionTable) NextID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counter++
	return fmt.Sprintf("#%04d", t.counter)
}

// insert adds both entries of s. Callers coordinating with the queue scope
// go through QueueStore.commitPairing.
func (t *SessionTable) insert(s *Session) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s.ParticipantA == s.ParticipantB {
		return fmt.Errorf("session %s pairs %s with itself", s.ID, s.ParticipantA)
	}
	for _, id := range []ParticipantID{s.ParticipantA, s.ParticipantB} {
		if _, ok := t.entries[id]; ok {
			return fmt.Errorf("%w: %s", ErrAlreadyInSession, id)
		}
	}
	t.entries[s.ParticipantA] = sessionEntry{partner: s.ParticipantB, session: s}
	t.entries[s.ParticipantB] = sessionEntry{partner: s.ParticipantA, session: s}
	return nil
}

// Pop removes id and its partner in one step and returns their session.
func (t *SessionTable) Pop(id ParticipantID) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return Session{}, false
	}
	delete(t.entries, id)
	if pe, ok := t.entries[e.partner]; ok && pe.session == e.session {
		delete(t.entries, e.partner)
	}
	return *e.session, true
}

func (t *SessionTable) Get(id ParticipantID) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return Session{}, false
	}
	return *e.session, true
}

func (t *SessionTable) Partner(id ParticipantID) (ParticipantID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	return e.partner, ok
}

func (t *SessionTable) Has(id ParticipantID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[id]
	return ok
}

// FindBySpace returns the session using the given space.
func (t *SessionTable) FindBySpace(handle SpaceHandle) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range t.entries {
		if e.session.Space == handle {
			return *e.session, true
		}
	}
	return Session{}, false
}

// Snapshot returns one copy of every active session.
func (t *SessionTable) Snapshot() []Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	unique := lo.UniqBy(lo.Values(t.entries), func(e sessionEntry) string {
		return e.session.ID
	})
	return lo.Map(unique, func(e sessionEntry, _ int) Session {
		return *e.session
	})
}

// CountByMode returns the number of active sessions per mode.
func (t *SessionTable) CountByMode() map[Mode]int {
	counts := make(map[Mode]int, len(Modes))
	for _, m := range Modes {
		counts[m] = 0
	}
	for _, s := range t.Snapshot() {
		counts[s.Mode]++
	}
	return counts
}

func (t *SessionTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
