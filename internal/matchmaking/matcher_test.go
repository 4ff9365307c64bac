package matchmaking

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingStarter struct {
	mu    sync.Mutex
	pairs []Pair
	err   error
}

func (r *recordingStarter) StartSession(_ context.Context, a, b ParticipantID, mode Mode) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs = append(r.pairs, Pair{A: a, B: b, Mode: mode})
	if r.err != nil {
		return nil, r.err
	}
	return &Session{ParticipantA: a, ParticipantB: b, Mode: mode}, nil
}

func enqueueAll(t *testing.T, s *State, mode Mode, ids ...ParticipantID) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, s.Queues.Enqueue(id, mode, SpaceHandle(fmt.Sprintf("w-%s", id))))
	}
}

func TestMatcher_PairsInArrivalOrder(t *testing.T) {
	req := require.New(t)
	s := newTestState()
	starter := &recordingStarter{}
	m := NewMatcher(s, starter, testLogger())

	// Given [u1,u2,u3,u4] queued for text
	enqueueAll(t, s, ModeText, "u1", "u2", "u3", "u4")

	// When one pass runs
	started := m.Pass(context.Background(), ModeText)

	// Then (u1,u2) and (u3,u4) are paired, never (u1,u3)
	req.Equal(2, started)
	req.Equal([]Pair{
		{A: "u1", B: "u2", Mode: ModeText},
		{A: "u3", B: "u4", Mode: ModeText},
	}, starter.pairs)
	req.Zero(s.Queues.Depth(ModeText))
}

func TestMatcher_NeverPairsAcrossModes(t *testing.T) {
	req := require.New(t)
	s := newTestState()
	starter := &recordingStarter{}
	m := NewMatcher(s, starter, testLogger())

	enqueueAll(t, s, ModeText, "t1")
	enqueueAll(t, s, ModeVoice, "v1")

	req.Zero(m.Pass(context.Background(), ModeText))
	req.Zero(m.Pass(context.Background(), ModeVoice))
	req.Empty(starter.pairs)
	req.Equal(1, s.Queues.Depth(ModeText))
	req.Equal(1, s.Queues.Depth(ModeVoice))
}

func TestMatcher_DropsParticipantsWithoutWaitingRoom(t *testing.T) {
	req := require.New(t)
	s := newTestState()
	m := NewMatcher(s, &recordingStarter{}, testLogger())

	enqueueAll(t, s, ModeText, "u1", "u2", "u3")
	// Given u1 lost its waiting room without leaving the queue
	s.Queues.takeRooms("u1")

	pairs := m.FindPairs(ModeText)

	// Then u1 is dropped, u2 goes back to the tail and pairs with u3
	req.Equal([]Pair{{A: "u3", B: "u2", Mode: ModeText}}, pairs)
	req.False(s.Queues.Contains("u1"))
	req.True(s.Queues.Pairing("u2"))
	req.True(s.Queues.Pairing("u3"))
	requireConsistent(t, s)
}

func TestMatcher_FailedStartIsNotCounted(t *testing.T) {
	req := require.New(t)
	s := newTestState()
	starter := &recordingStarter{err: ErrSessionCreationFailed}
	m := NewMatcher(s, starter, testLogger())

	enqueueAll(t, s, ModeVoice, "a", "b")

	req.Zero(m.Pass(context.Background(), ModeVoice))
	req.Len(starter.pairs, 1)
}
