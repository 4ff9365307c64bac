package matchmaking

import (
	"fmt"
	"strings"
	"time"
)

// ParticipantID is the opaque platform user id.
type ParticipantID string

type Mode string

const (
	ModeText  Mode = "text"
	ModeVoice Mode = "voice"
)

// Modes lists every mode in pairing order.
var Modes = []Mode{ModeText, ModeVoice}

func (m Mode) Valid() bool {
	return m == ModeText || m == ModeVoice
}

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeText:
		return ModeText, nil
	case ModeVoice:
		return ModeVoice, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// SpaceHandle references an external communication space (waiting room,
// text room or voice room).
type SpaceHandle string

type SpaceStatus string

const (
	SpaceActive   SpaceStatus = "active"
	SpaceArchived SpaceStatus = "archived"
	SpaceEmpty    SpaceStatus = "empty"
	SpaceNotFound SpaceStatus = "not_found"
)

// Session is one paired interaction. It is immutable once committed.
type Session struct {
	ID           string        `json:"session_id"`
	ParticipantA ParticipantID `json:"participant_a"`
	ParticipantB ParticipantID `json:"participant_b"`
	Mode         Mode          `json:"mode"`
	StartedAt    time.Time     `json:"started_at"`
	Space        SpaceHandle   `json:"space"`
}

// PartnerOf returns the other participant of the session.
func (s Session) PartnerOf(id ParticipantID) ParticipantID {
	if s.ParticipantA == id {
		return s.ParticipantB
	}
	return s.ParticipantA
}

// Reasons a session or a search ended.
const (
	ReasonLeft          = "left"
	ReasonNext          = "next"
	ReasonTimeout       = "timeout"
	ReasonExpired       = "expired"
	ReasonSpaceArchived = "space_archived"
	ReasonSpaceEmpty    = "space_empty"
	ReasonSpaceMissing  = "space_missing"
	ReasonShutdown      = "shutdown"
)

// SessionRecord is handed to the history recorder once a session ended.
type SessionRecord struct {
	SessionID    string        `json:"session_id"`
	Mode         Mode          `json:"mode"`
	ParticipantA ParticipantID `json:"participant_a"`
	ParticipantB ParticipantID `json:"participant_b"`
	StartedAt    time.Time     `json:"started_at"`
	EndedAt      time.Time     `json:"ended_at"`
	Reason       string        `json:"reason"`
}

func (r SessionRecord) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Notification types delivered to participants.
const (
	NotifySearching     = "searching"
	NotifySearchTimeout = "search_timeout"
	NotifySearchCancel  = "search_cancelled"
	NotifyMatched       = "matched"
	NotifyMatchFailed   = "match_failed"
	NotifyPartnerLeft   = "partner_left"
	NotifySessionEnded  = "session_ended"
	NotifyStats         = "stats"
	NotifyMessage       = "message"
)

type Notification struct {
	Type      string      `json:"type"`
	Message   string      `json:"message,omitempty"`
	SessionID string      `json:"session_id,omitempty"`
	Mode      Mode        `json:"mode,omitempty"`
	Space     SpaceHandle `json:"space,omitempty"`
	Deadline  *time.Time  `json:"deadline,omitempty"`
	Stats     *Stats      `json:"stats,omitempty"`
}

// Stats is the observable snapshot exposed to front ends.
type Stats struct {
	QueueDepth     map[Mode]int `json:"queue_depth"`
	ActiveSessions map[Mode]int `json:"active_sessions"`
	TotalQueued    int          `json:"total_queued"`
}
