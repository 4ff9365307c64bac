package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSpaces is a thread-safe in-memory Spaces used where exact call
// expectations would get in the way.
type fakeSpaces struct {
	mu          sync.Mutex
	next        int
	status      map[SpaceHandle]SpaceStatus
	destroyed   map[SpaceHandle]int
	failSession bool
}

func newFakeSpaces() *fakeSpaces {
	return &fakeSpaces{
		status:    make(map[SpaceHandle]SpaceStatus),
		destroyed: make(map[SpaceHandle]int),
	}
}

func (f *fakeSpaces) ProvisionWaitingSpace(_ context.Context, id ParticipantID, mode Mode) (SpaceHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	h := SpaceHandle(fmt.Sprintf("wait-%s-%d", id, f.next))
	f.status[h] = SpaceActive
	return h, nil
}

func (f *fakeSpaces) ProvisionSessionSpace(_ context.Context, a, b ParticipantID, mode Mode, sessionID string) (SpaceHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSession {
		return "", errors.New("platform unavailable")
	}
	f.next++
	h := SpaceHandle(fmt.Sprintf("%s-%d", mode, f.next))
	f.status[h] = SpaceActive
	return h, nil
}

func (f *fakeSpaces) DestroySpace(_ context.Context, h SpaceHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed[h]++
	delete(f.status, h)
	return nil
}

func (f *fakeSpaces) QuerySpaceStatus(_ context.Context, h SpaceHandle) (SpaceStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.status[h]; ok {
		return s, nil
	}
	return SpaceNotFound, nil
}

func (f *fakeSpaces) setStatus(h SpaceHandle, s SpaceStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[h] = s
}

func (f *fakeSpaces) destroyCounts() map[SpaceHandle]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[SpaceHandle]int, len(f.destroyed))
	for h, n := range f.destroyed {
		out[h] = n
	}
	return out
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[ParticipantID][]Notification
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(map[ParticipantID][]Notification)}
}

func (r *recordingNotifier) Notify(_ context.Context, id ParticipantID, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[id] = append(r.sent[id], n)
	return nil
}

func (r *recordingNotifier) types(id ParticipantID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.sent[id] {
		out = append(out, n.Type)
	}
	return out
}

// requireConsistent checks the cross-structure invariants of s.
func requireConsistent(t *testing.T, s *State) {
	t.Helper()
	q := s.Queues
	q.mu.Lock()
	defer q.mu.Unlock()

	inQueues := make(map[ParticipantID]Mode)
	for mode, queue := range q.queues {
		for _, id := range queue {
			_, dup := inQueues[id]
			require.False(t, dup, "participant %s queued twice", id)
			inQueues[id] = mode
		}
	}
	require.Equal(t, inQueues, q.queued, "membership set differs from queue contents")

	for id := range q.queued {
		require.False(t, s.Sessions.Has(id), "participant %s queued and in session", id)
		_, hasRoom := q.rooms[id]
		require.True(t, hasRoom, "queued participant %s has no waiting room", id)
	}

	s.Sessions.mu.Lock()
	defer s.Sessions.mu.Unlock()
	for id, e := range s.Sessions.entries {
		pe, ok := s.Sessions.entries[e.partner]
		require.True(t, ok, "partner of %s missing", id)
		require.Equal(t, id, pe.partner)
		require.Same(t, e.session, pe.session)
	}
}
