package matchmaking

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ExpireFunc runs when a participant's timeout elapses without being
// cancelled.
type ExpireFunc func(id ParticipantID) error

type timeoutHandle struct {
	timer    *time.Timer
	deadline time.Time
}

// TimeoutRegistry keeps at most one pending timeout per participant.
type TimeoutRegistry struct {
	mu      sync.Mutex
	handles map[ParticipantID]*timeoutHandle
	log     *slog.Logger
}

func NewTimeoutRegistry(log *slog.Logger) *TimeoutRegistry {
	return &TimeoutRegistry{
		handles: make(map[ParticipantID]*timeoutHandle),
		log:     log,
	}
}

// Register schedules onExpire for id after d, superseding any pending
// timeout for the same id.
func (r *TimeoutRegistry) Register(id ParticipantID, d time.Duration, onExpire ExpireFunc) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.handles[id]; ok {
		prev.timer.Stop()
		delete(r.handles, id)
	}

	h := &timeoutHandle{deadline: time.Now().Add(d)}
	// The handle is published before the timer can observe it because the
	// callback needs r.mu, which is held until Register returns.
	h.timer = time.AfterFunc(d, func() { r.fire(id, h, onExpire) })
	r.handles[id] = h
	return h.deadline
}

// Cancel stops the pending timeout for id, if any.
func (r *TimeoutRegistry) Cancel(id ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[id]; ok {
		h.timer.Stop()
		delete(r.handles, id)
	}
}

// Pending reports whether id has a live timeout.
func (r *TimeoutRegistry) Pending(id ParticipantID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.handles[id]
	return ok
}

func (r *TimeoutRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Stop cancels every pending timeout.
func (r *TimeoutRegistry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, h := range r.handles {
		h.timer.Stop()
		delete(r.handles, id)
	}
}

func (r *TimeoutRegistry) fire(id ParticipantID, h *timeoutHandle, onExpire ExpireFunc) {
	r.mu.Lock()
	if r.handles[id] != h {
		// cancelled or superseded after the timer went off
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if r.handles[id] == h {
			delete(r.handles, id)
		}
		r.mu.Unlock()
	}()

	if err := r.invoke(id, onExpire); err != nil {
		r.log.Error("Timeout callback failed", "participant", id, "error", err)
	}
}

func (r *TimeoutRegistry) invoke(id ParticipantID, onExpire ExpireFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("timeout callback panic: %v", rec)
		}
	}()
	return onExpire(id)
}
