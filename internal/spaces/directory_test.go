package spaces

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pairup-backend/internal/matchmaking"
)

func newTestDirectory() *Directory {
	return NewDirectory(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDirectory_WaitingRoomLifecycle(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	d := newTestDirectory()

	h, err := d.ProvisionWaitingSpace(ctx, "alice", matchmaking.ModeText)
	req.NoError(err)
	req.True(strings.HasPrefix(string(h), "waiting-"))

	status, err := d.QuerySpaceStatus(ctx, h)
	req.NoError(err)
	req.Equal(matchmaking.SpaceActive, status)

	req.NoError(d.DestroySpace(ctx, h))
	req.ErrorIs(d.DestroySpace(ctx, h), ErrNotFound)

	status, err = d.QuerySpaceStatus(ctx, h)
	req.NoError(err)
	req.Equal(matchmaking.SpaceNotFound, status)
}

func TestDirectory_VoiceOccupancy(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	d := newTestDirectory()

	h, err := d.ProvisionSessionSpace(ctx, "a", "b", matchmaking.ModeVoice, "#0042")
	req.NoError(err)
	req.True(strings.HasPrefix(string(h), "voice-0042-"))

	status, _ := d.QuerySpaceStatus(ctx, h)
	req.Equal(matchmaking.SpaceEmpty, status)

	req.NoError(d.Join(h, "a"))
	req.ErrorIs(d.Join(h, "mallory"), ErrNotMember)
	status, _ = d.QuerySpaceStatus(ctx, h)
	req.Equal(matchmaking.SpaceActive, status)

	sp, err := d.Get(h)
	req.NoError(err)
	req.Equal([]matchmaking.ParticipantID{"a"}, sp.Occupants)
	req.Equal("#0042", sp.SessionID)

	d.Part(h, "a")
	d.Part("voice-unknown", "a")
	status, _ = d.QuerySpaceStatus(ctx, h)
	req.Equal(matchmaking.SpaceEmpty, status)
}

func TestDirectory_ArchiveNotifiesCallback(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	d := newTestDirectory()

	closed := make(chan matchmaking.SpaceHandle, 1)
	d.OnClosed(func(_ context.Context, h matchmaking.SpaceHandle) { closed <- h })

	h, err := d.ProvisionSessionSpace(ctx, "a", "b", matchmaking.ModeText, "#0001")
	req.NoError(err)
	req.NoError(d.Archive(ctx, h))

	select {
	case got := <-closed:
		req.Equal(h, got)
	case <-time.After(time.Second):
		req.Fail("archive callback not called")
	}

	status, _ := d.QuerySpaceStatus(ctx, h)
	req.Equal(matchmaking.SpaceArchived, status)
	req.ErrorIs(d.Join(h, "a"), ErrArchived)
	req.ErrorIs(d.Archive(ctx, "text-missing"), ErrNotFound)
}

func TestDirectory_ArchiveEndsSessionThroughManager(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDirectory(log)
	m := matchmaking.NewManager(matchmaking.NewState(log), d, nil, time.Minute, log)
	d.OnClosed(m.SpaceClosed)

	req.NoError(m.Enqueue(ctx, "a", matchmaking.ModeText))
	req.NoError(m.Enqueue(ctx, "b", matchmaking.ModeText))
	req.Equal(1, matchmaking.NewMatcher(m.State(), m, log).Pass(ctx, matchmaking.ModeText))

	sess, ok := m.SessionOf("a")
	req.True(ok)
	req.Equal(1, d.Len())

	req.NoError(d.Archive(ctx, sess.Space))

	_, ok = m.SessionOf("b")
	req.False(ok)
	req.Zero(d.Len())
}
