// Package spaces provides an in-process stand-in for the platform's
// communication spaces: per-participant waiting rooms, private text rooms and
// voice rooms with live occupancy.
package spaces

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pairup-backend/internal/matchmaking"
)

var (
	ErrNotFound  = errors.New("space not found")
	ErrNotMember = errors.New("participant is not a member of the space")
	ErrArchived  = errors.New("space is archived")
)

type Kind string

const (
	KindWaiting Kind = "waiting"
	KindText    Kind = "text"
	KindVoice   Kind = "voice"
)

// Space is a read-only view of a space.
type Space struct {
	Handle    matchmaking.SpaceHandle     `json:"handle"`
	Kind      Kind                        `json:"kind"`
	Mode      matchmaking.Mode            `json:"mode"`
	SessionID string                      `json:"session_id,omitempty"`
	Members   []matchmaking.ParticipantID `json:"members"`
	Occupants []matchmaking.ParticipantID `json:"occupants"`
	Archived  bool                        `json:"archived"`
	CreatedAt time.Time                   `json:"created_at"`
}

type space struct {
	Space
	occupants map[matchmaking.ParticipantID]struct{}
}

// ClosedFunc is told about spaces archived from outside the matchmaking core.
type ClosedFunc func(ctx context.Context, handle matchmaking.SpaceHandle)

// Directory implements matchmaking.Spaces in memory.
type Directory struct {
	mu       sync.RWMutex
	spaces   map[matchmaking.SpaceHandle]*space
	onClosed ClosedFunc
	log      *slog.Logger
}

func NewDirectory(log *slog.Logger) *Directory {
	return &Directory{
		spaces: make(map[matchmaking.SpaceHandle]*space),
		log:    log,
	}
}

// OnClosed registers the callback run by Archive.
func (d *Directory) OnClosed(fn ClosedFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onClosed = fn
}

func (d *Directory) ProvisionWaitingSpace(_ context.Context, id matchmaking.ParticipantID, mode matchmaking.Mode) (matchmaking.SpaceHandle, error) {
	s := d.create(KindWaiting, mode, "", id)
	d.log.Debug("Created waiting room", "space", s, "participant", id, "mode", mode)
	return s, nil
}

func (d *Directory) ProvisionSessionSpace(_ context.Context, a, b matchmaking.ParticipantID, mode matchmaking.Mode, sessionID string) (matchmaking.SpaceHandle, error) {
	kind := KindText
	if mode == matchmaking.ModeVoice {
		kind = KindVoice
	}
	s := d.create(kind, mode, sessionID, a, b)
	d.log.Debug("Created session space", "space", s, "session", sessionID, "mode", mode)
	return s, nil
}

func (d *Directory) create(kind Kind, mode matchmaking.Mode, sessionID string, members ...matchmaking.ParticipantID) matchmaking.SpaceHandle {
	handle := matchmaking.SpaceHandle(fmt.Sprintf("%s-%s", kind, uuid.NewString()[:8]))
	if sessionID != "" {
		handle = matchmaking.SpaceHandle(fmt.Sprintf("%s-%s-%s", kind, strings.TrimPrefix(sessionID, "#"), uuid.NewString()[:8]))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.spaces[handle] = &space{
		Space: Space{
			Handle:    handle,
			Kind:      kind,
			Mode:      mode,
			SessionID: sessionID,
			Members:   members,
			CreatedAt: time.Now(),
		},
		occupants: make(map[matchmaking.ParticipantID]struct{}),
	}
	return handle
}

func (d *Directory) DestroySpace(_ context.Context, handle matchmaking.SpaceHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.spaces[handle]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	delete(d.spaces, handle)
	return nil
}

// QuerySpaceStatus reports archived before empty, so an archived voice room
// is never mistaken for an abandoned one.
func (d *Directory) QuerySpaceStatus(_ context.Context, handle matchmaking.SpaceHandle) (matchmaking.SpaceStatus, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.spaces[handle]
	switch {
	case !ok:
		return matchmaking.SpaceNotFound, nil
	case s.Archived:
		return matchmaking.SpaceArchived, nil
	case s.Kind == KindVoice && len(s.occupants) == 0:
		return matchmaking.SpaceEmpty, nil
	}
	return matchmaking.SpaceActive, nil
}

// Join records id as present in a voice room.
func (d *Directory) Join(handle matchmaking.SpaceHandle, id matchmaking.ParticipantID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.memberSpaceLocked(handle, id)
	if err != nil {
		return err
	}
	s.occupants[id] = struct{}{}
	return nil
}

// Part records id as gone from a voice room. Unknown spaces are ignored.
func (d *Directory) Part(handle matchmaking.SpaceHandle, id matchmaking.ParticipantID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if s, ok := d.spaces[handle]; ok {
		delete(s.occupants, id)
	}
}

// Archive marks a space archived, as a moderator or the platform would, and
// reports it to the OnClosed callback.
func (d *Directory) Archive(ctx context.Context, handle matchmaking.SpaceHandle) error {
	d.mu.Lock()
	s, ok := d.spaces[handle]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	s.Archived = true
	onClosed := d.onClosed
	d.mu.Unlock()

	d.log.Info("Space archived", "space", handle)
	if onClosed != nil {
		onClosed(ctx, handle)
	}
	return nil
}

// Get returns a copy of the space.
func (d *Directory) Get(handle matchmaking.SpaceHandle) (Space, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.spaces[handle]
	if !ok {
		return Space{}, fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	out := s.Space
	out.Members = append([]matchmaking.ParticipantID(nil), s.Members...)
	for id := range s.occupants {
		out.Occupants = append(out.Occupants, id)
	}
	return out, nil
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.spaces)
}

func (d *Directory) memberSpaceLocked(handle matchmaking.SpaceHandle, id matchmaking.ParticipantID) (*space, error) {
	s, ok := d.spaces[handle]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	if s.Archived {
		return nil, fmt.Errorf("%w: %s", ErrArchived, handle)
	}
	for _, m := range s.Members {
		if m == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrNotMember, id, handle)
}
