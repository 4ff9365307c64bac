package matchmaking

import (
	"context"
	"log/slog"
)

// Pair is two participants popped together for one mode.
type Pair struct {
	A    ParticipantID
	B    ParticipantID
	Mode Mode
}

// SessionStarter turns a popped pair into a session.
type SessionStarter interface {
	StartSession(ctx context.Context, a, b ParticipantID, mode Mode) (*Session, error)
}

// Matcher drains a mode's queue pairwise in arrival order.
type Matcher struct {
	state   *State
	starter SessionStarter
	log     *slog.Logger
}

func NewMatcher(state *State, starter SessionStarter, log *slog.Logger) *Matcher {
	return &Matcher{state: state, starter: starter, log: log}
}

// Pass runs one pairing pass for mode and returns the number of sessions
// started.
func (m *Matcher) Pass(ctx context.Context, mode Mode) int {
	pairs := m.FindPairs(mode)

	started := 0
	for _, p := range pairs {
		if _, err := m.starter.StartSession(ctx, p.A, p.B, p.Mode); err != nil {
			m.log.Warn("Pairing did not produce a session",
				"mode", p.Mode, "a", p.A, "b", p.B, "error", err)
			continue
		}
		started++
	}
	return started
}

// FindPairs pops every pair it can from the mode's queue within one queue
// scope. Popped pairs are marked as pairing; the caller must start or abort
// a session for each of them.
func (m *Matcher) FindPairs(mode Mode) []Pair {
	q := m.state.Queues
	q.mu.Lock()
	defer q.mu.Unlock()

	var pairs []Pair
	for {
		a, b, ok := q.dequeuePairLocked(mode)
		if !ok {
			break
		}
		aValid, bValid := q.hasRoomLocked(a), q.hasRoomLocked(b)
		if aValid && bValid {
			q.markPairingLocked(mode, a, b)
			pairs = append(pairs, Pair{A: a, B: b, Mode: mode})
			continue
		}
		for _, c := range []struct {
			id    ParticipantID
			valid bool
		}{{a, aValid}, {b, bValid}} {
			if c.valid {
				q.pushLocked(c.id, mode)
				continue
			}
			m.log.Info("Participant no longer valid, removing from queue", "participant", c.id, "mode", mode)
			q.removeLocked(c.id)
		}
	}

	if len(pairs) > 0 {
		m.log.Debug("Pairing pass", "mode", mode, "pairs", len(pairs))
	}
	return pairs
}
