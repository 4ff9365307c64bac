package matchmaking

import "log/slog"

// State is the single container of shared matchmaking state. Every component
// receives it by reference; nothing is reachable through package globals.
type State struct {
	Queues   *QueueStore
	Sessions *SessionTable
	Timeouts *TimeoutRegistry
}

func NewState(log *slog.Logger) *State {
	sessions := NewSessionTable()
	return &State{
		Queues:   NewQueueStore(sessions),
		Sessions: sessions,
		Timeouts: NewTimeoutRegistry(log),
	}
}

// Stats returns queue depths, active sessions per mode and the number of
// queued participants.
func (s *State) Stats() Stats {
	depths, total := s.Queues.Depths()
	return Stats{
		QueueDepth:     depths,
		ActiveSessions: s.Sessions.CountByMode(),
		TotalQueued:    total,
	}
}

// SessionOf returns the session id is part of.
func (s *State) SessionOf(id ParticipantID) (Session, bool) {
	return s.Sessions.Get(id)
}
