package matchmaking

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

// Reaper reconciles tracked state against what the platform reports and
// forces cleanup of abandoned waiting rooms and dead sessions. It never
// touches state directly, only through Manager.
type Reaper struct {
	manager *Manager
	spaces  Spaces
	maxAge  time.Duration
	now     func() time.Time
	log     *slog.Logger
}

func NewReaper(manager *Manager, spaces Spaces, maxAge time.Duration, log *slog.Logger) *Reaper {
	return &Reaper{
		manager: manager,
		spaces:  spaces,
		maxAge:  maxAge,
		now:     time.Now,
		log:     log,
	}
}

// SweepResult counts what a sweep cleaned up.
type SweepResult struct {
	SearchesCancelled int
	SessionsEnded     int
}

// Sweep runs one reconciliation pass. Collaborator failures are logged and
// skip only the affected entry.
func (r *Reaper) Sweep(ctx context.Context) SweepResult {
	var res SweepResult

	for id, room := range r.manager.state.Queues.WaitingRooms() {
		if ctx.Err() != nil {
			return res
		}
		status, err := r.spaces.QuerySpaceStatus(ctx, room)
		if err != nil {
			r.log.Warn("Could not query waiting room", "participant", id, "room", room, "error", err)
			continue
		}
		var reason string
		switch status {
		case SpaceArchived:
			reason = ReasonSpaceArchived
		case SpaceNotFound:
			reason = ReasonSpaceMissing
		default:
			continue
		}
		if r.manager.cancelSearch(ctx, id, room, reason) {
			metricReaperActions.WithLabelValues(reason).Inc()
			res.SearchesCancelled++
		}
	}

	now := r.now()
	expired, live := lo.FilterReject(r.manager.state.Sessions.Snapshot(), func(s Session, _ int) bool {
		return now.Sub(s.StartedAt) > r.maxAge
	})
	for _, s := range expired {
		r.log.Info("Session exceeded max age", "session", s.ID, "age", now.Sub(s.StartedAt))
		res.SessionsEnded += r.end(ctx, s, ReasonExpired)
	}

	for _, s := range live {
		if ctx.Err() != nil {
			return res
		}
		status, err := r.spaces.QuerySpaceStatus(ctx, s.Space)
		if err != nil {
			r.log.Warn("Could not query session space", "session", s.ID, "space", s.Space, "error", err)
			continue
		}
		if reason, dead := sessionDead(s.Mode, status); dead {
			res.SessionsEnded += r.end(ctx, s, reason)
		}
	}

	if res.SearchesCancelled > 0 || res.SessionsEnded > 0 {
		r.log.Info("Stale-state sweep finished",
			"searches_cancelled", res.SearchesCancelled, "sessions_ended", res.SessionsEnded)
	}
	return res
}

func (r *Reaper) end(ctx context.Context, s Session, reason string) int {
	// a session popped since the snapshot was taken belongs to someone else now
	current, ok := r.manager.state.Sessions.Get(s.ParticipantA)
	if !ok || current.ID != s.ID {
		return 0
	}
	if !r.manager.EndSession(ctx, s.ParticipantA, reason) {
		return 0
	}
	metricReaperActions.WithLabelValues(reason).Inc()
	return 1
}

// sessionDead applies the mode-specific liveness rules.
func sessionDead(mode Mode, status SpaceStatus) (string, bool) {
	switch {
	case status == SpaceNotFound:
		return ReasonSpaceMissing, true
	case mode == ModeText && status == SpaceArchived:
		return ReasonSpaceArchived, true
	case mode == ModeVoice && status == SpaceEmpty:
		return ReasonSpaceEmpty, true
	}
	return "", false
}
