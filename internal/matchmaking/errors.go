package matchmaking

import "errors"

var (
	ErrAlreadyQueued          = errors.New("participant already queued")
	ErrAlreadyInSession       = errors.New("participant already in a session")
	ErrSessionCreationFailed  = errors.New("session creation failed")
	ErrExternalTeardownFailed = errors.New("external teardown failed")
	ErrUnknownParticipant     = errors.New("unknown participant")
	ErrInvalidMode            = errors.New("invalid mode")
	ErrWaitingRoomFailed      = errors.New("waiting room creation failed")
)
