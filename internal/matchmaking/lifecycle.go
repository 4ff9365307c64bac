package matchmaking

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const defaultCallTimeout = 10 * time.Second

// Manager creates and tears down sessions and queue entries. It is the only
// component that mutates the Session Table.
type Manager struct {
	state         *State
	spaces        Spaces
	notifier      Notifier
	history       HistoryRecorder
	searchTimeout time.Duration
	callTimeout   time.Duration
	now           func() time.Time
	log           *slog.Logger
}

type ManagerOption func(*Manager)

// WithHistory hands every ended session to h.
func WithHistory(h HistoryRecorder) ManagerOption {
	return func(m *Manager) { m.history = h }
}

// WithClock overrides the time source used for session start and end times.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithCallTimeout bounds collaborator calls made from timer callbacks.
func WithCallTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.callTimeout = d }
}

func NewManager(
	state *State,
	spaces Spaces,
	notifier Notifier,
	searchTimeout time.Duration,
	log *slog.Logger,
	opts ...ManagerOption,
) *Manager {
	m := &Manager{
		state:         state,
		spaces:        spaces,
		notifier:      notifier,
		searchTimeout: searchTimeout,
		callTimeout:   defaultCallTimeout,
		now:           time.Now,
		log:           log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) State() *State { return m.state }

func (m *Manager) Stats() Stats { return m.state.Stats() }

func (m *Manager) Partner(id ParticipantID) (ParticipantID, bool) {
	return m.state.Sessions.Partner(id)
}

func (m *Manager) SessionOf(id ParticipantID) (Session, bool) {
	return m.state.SessionOf(id)
}

// Enqueue provisions a waiting room for id and places it in the mode's queue.
// It fails with ErrAlreadyQueued or ErrAlreadyInSession when id is tracked
// elsewhere.
func (m *Manager) Enqueue(ctx context.Context, id ParticipantID, mode Mode) error {
	if id == "" {
		return fmt.Errorf("%w: empty participant id", ErrUnknownParticipant)
	}
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if err := m.state.Queues.Admissible(id); err != nil {
		m.log.Debug("Enqueue refused", "participant", id, "mode", mode, "error", err)
		return err
	}

	room, err := m.spaces.ProvisionWaitingSpace(ctx, id, mode)
	if err != nil {
		m.log.Error("Failed to create waiting room", "participant", id, "mode", mode, "error", err)
		return fmt.Errorf("%w: %w", ErrWaitingRoomFailed, err)
	}

	if err := m.state.Queues.Enqueue(id, mode, room); err != nil {
		// lost a race with a concurrent enqueue or pairing of the same id
		m.destroySpace(ctx, room)
		return err
	}

	deadline := m.state.Timeouts.Register(id, m.searchTimeout, func(id ParticipantID) error {
		return m.expireSearch(id, mode, room)
	})

	stats := m.state.Stats()
	m.notify(ctx, id, Notification{
		Type:     NotifySearching,
		Message:  fmt.Sprintf("Searching for %s partner...", mode),
		Mode:     mode,
		Space:    room,
		Deadline: &deadline,
		Stats:    &stats,
	})
	m.log.Info("Enqueued participant", "participant", id, "mode", mode, "room", room)
	return nil
}

// Leave removes id from whatever it is doing: searching, being paired or
// chatting. Calling it for an idle participant is a no-op.
func (m *Manager) Leave(ctx context.Context, id ParticipantID) {
	m.state.Timeouts.Cancel(id)

	if room, ok := m.state.Queues.Remove(id); ok {
		m.log.Info("Search cancelled", "participant", id)
		m.notify(ctx, id, Notification{Type: NotifySearchCancel, Message: "Search cancelled by user"})
		if room != "" {
			m.destroySpace(ctx, room)
		}
	}
	if m.state.Queues.markLeaving(id) {
		m.log.Info("Leave requested while pairing", "participant", id)
	}
	m.EndSession(ctx, id, ReasonLeft)
}

// Next ends the current session of id, if any, and searches again.
func (m *Manager) Next(ctx context.Context, id ParticipantID, mode Mode) error {
	m.EndSession(ctx, id, ReasonNext)
	return m.Enqueue(ctx, id, mode)
}

// StartSession turns a popped pair into a session. On provisioning failure
// both participants are back to idle and ErrSessionCreationFailed is
// returned.
func (m *Manager) StartSession(ctx context.Context, a, b ParticipantID, mode Mode) (*Session, error) {
	m.log.Info("Starting session", "mode", mode, "a", a, "b", b)

	m.state.Timeouts.Cancel(a)
	m.state.Timeouts.Cancel(b)
	for _, room := range m.state.Queues.takeRooms(a, b) {
		m.destroySpace(ctx, room)
	}

	sess := &Session{
		ID:           m.state.Sessions.NextID(),
		ParticipantA: a,
		ParticipantB: b,
		Mode:         mode,
		StartedAt:    m.now(),
	}

	space, err := m.spaces.ProvisionSessionSpace(ctx, a, b, mode, sess.ID)
	if err != nil {
		m.state.Queues.commitPairing(a, b, nil)
		m.failPairing(ctx, sess, err)
		return nil, fmt.Errorf("%w: %s: %w", ErrSessionCreationFailed, sess.ID, err)
	}
	sess.Space = space

	leaving, err := m.state.Queues.commitPairing(a, b, func() error {
		return m.state.Sessions.insert(sess)
	})
	if err != nil {
		m.destroySpace(ctx, space)
		m.failPairing(ctx, sess, err)
		return nil, fmt.Errorf("%w: %s: %w", ErrSessionCreationFailed, sess.ID, err)
	}

	metricSessionsCreated.WithLabelValues(string(mode)).Inc()
	metricActiveSessions.WithLabelValues(string(mode)).Inc()
	m.log.Info("Started session", "session", sess.ID, "mode", mode, "a", a, "b", b, "space", space)

	msg := "You're now connected! Say hello to your partner"
	if mode == ModeVoice {
		msg = "Private voice channel ready. Join to start talking"
	}
	for _, id := range []ParticipantID{a, b} {
		m.notify(ctx, id, Notification{
			Type:      NotifyMatched,
			Message:   msg,
			SessionID: sess.ID,
			Mode:      mode,
			Space:     space,
		})
	}

	for _, id := range leaving {
		m.EndSession(ctx, id, ReasonLeft)
	}
	out := *sess
	return &out, nil
}

func (m *Manager) failPairing(ctx context.Context, sess *Session, cause error) {
	metricCreationFailures.WithLabelValues(string(sess.Mode)).Inc()
	m.log.Error("Session creation failed",
		"session", sess.ID, "mode", sess.Mode, "a", sess.ParticipantA, "b", sess.ParticipantB, "error", cause)
	for _, id := range []ParticipantID{sess.ParticipantA, sess.ParticipantB} {
		m.notify(ctx, id, Notification{
			Type:    NotifyMatchFailed,
			Message: "Could not start your session, please retry",
			Mode:    sess.Mode,
		})
	}
}

// EndSession tears down the session of id and its partner. It reports
// whether a session was ended; an id without a session is a no-op.
func (m *Manager) EndSession(ctx context.Context, id ParticipantID, reason string) bool {
	sess, ok := m.state.Sessions.Pop(id)
	if !ok {
		return false
	}

	endedAt := m.now()
	metricSessionDuration.Observe(endedAt.Sub(sess.StartedAt).Seconds())
	metricActiveSessions.WithLabelValues(string(sess.Mode)).Dec()
	m.log.Info("Ended session",
		"session", sess.ID, "mode", sess.Mode, "by", id, "reason", reason,
		"duration", endedAt.Sub(sess.StartedAt))

	if reason == ReasonLeft || reason == ReasonNext {
		m.notify(ctx, sess.PartnerOf(id), Notification{
			Type:      NotifyPartnerLeft,
			Message:   "Your partner has left the session",
			SessionID: sess.ID,
			Mode:      sess.Mode,
		})
	} else {
		for _, p := range []ParticipantID{sess.ParticipantA, sess.ParticipantB} {
			m.notify(ctx, p, Notification{
				Type:      NotifySessionEnded,
				Message:   "Session ended: " + reason,
				SessionID: sess.ID,
				Mode:      sess.Mode,
			})
		}
	}

	m.destroySpace(ctx, sess.Space)

	if m.history != nil {
		rec := SessionRecord{
			SessionID:    sess.ID,
			Mode:         sess.Mode,
			ParticipantA: sess.ParticipantA,
			ParticipantB: sess.ParticipantB,
			StartedAt:    sess.StartedAt,
			EndedAt:      endedAt,
			Reason:       reason,
		}
		if err := m.history.RecordSession(ctx, rec); err != nil {
			m.log.Warn("Failed to record session history", "session", sess.ID, "error", err)
		}
	}
	return true
}

// SpaceClosed handles the platform reporting that a space was archived or
// deleted outside of this service.
func (m *Manager) SpaceClosed(ctx context.Context, handle SpaceHandle) {
	if sess, ok := m.state.Sessions.FindBySpace(handle); ok {
		m.EndSession(ctx, sess.ParticipantA, ReasonSpaceArchived)
		return
	}
	if id, ok := m.state.Queues.FindByRoom(handle); ok {
		m.cancelSearch(ctx, id, handle, ReasonSpaceArchived)
	}
}

// cancelSearch runs the manual-cancel path for a participant still owning
// room.
func (m *Manager) cancelSearch(ctx context.Context, id ParticipantID, room SpaceHandle, reason string) bool {
	if !m.state.Queues.RemoveIfRoom(id, room) {
		return false
	}
	m.state.Timeouts.Cancel(id)
	m.log.Info("Search cancelled", "participant", id, "reason", reason)
	m.notify(ctx, id, Notification{Type: NotifySearchCancel, Message: "Search cancelled: " + reason})
	m.destroySpace(ctx, room)
	return true
}

func (m *Manager) expireSearch(id ParticipantID, mode Mode, room SpaceHandle) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.callTimeout)
	defer cancel()

	if !m.state.Queues.RemoveIfRoom(id, room) {
		return nil
	}
	metricSearchTimeouts.WithLabelValues(string(mode)).Inc()
	m.log.Info("Removed participant from queue due to timeout", "participant", id, "mode", mode)
	m.notify(ctx, id, Notification{
		Type:    NotifySearchTimeout,
		Message: "We couldn't find a partner in time. Please try again later!",
		Mode:    mode,
	})
	m.destroySpace(ctx, room)
	return nil
}

// Shutdown ends every session and search. Used on graceful stop.
func (m *Manager) Shutdown(ctx context.Context) {
	m.state.Timeouts.Stop()
	for id, room := range m.state.Queues.WaitingRooms() {
		m.cancelSearch(ctx, id, room, ReasonShutdown)
	}
	for _, sess := range m.state.Sessions.Snapshot() {
		m.EndSession(ctx, sess.ParticipantA, ReasonShutdown)
	}
}

func (m *Manager) destroySpace(ctx context.Context, handle SpaceHandle) {
	if err := m.spaces.DestroySpace(ctx, handle); err != nil {
		metricTeardownFailures.Inc()
		m.log.Warn("Space teardown failed", "space", handle,
			"error", fmt.Errorf("%w: %w", ErrExternalTeardownFailed, err))
	}
}

func (m *Manager) notify(ctx context.Context, id ParticipantID, n Notification) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, id, n); err != nil {
		m.log.Warn("Notification delivery failed", "participant", id, "type", n.Type, "error", err)
	}
}
