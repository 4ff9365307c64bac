//go:generate go run go.uber.org/mock/mockgen -source=collaborators.go -destination=mock_collaborators_test.go -package=matchmaking
package matchmaking

import "context"

// Spaces provisions and inspects the platform's communication spaces.
// Implementations own their concurrency; the core never holds a lock while
// calling them.
type Spaces interface {
	ProvisionWaitingSpace(ctx context.Context, id ParticipantID, mode Mode) (SpaceHandle, error)
	ProvisionSessionSpace(ctx context.Context, a, b ParticipantID, mode Mode, sessionID string) (SpaceHandle, error)
	DestroySpace(ctx context.Context, handle SpaceHandle) error
	QuerySpaceStatus(ctx context.Context, handle SpaceHandle) (SpaceStatus, error)
}

// Notifier delivers a notification to a participant. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, id ParticipantID, n Notification) error
}

// HistoryRecorder receives ended sessions.
type HistoryRecorder interface {
	RecordSession(ctx context.Context, rec SessionRecord) error
}
