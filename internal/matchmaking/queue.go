package matchmaking

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// pairingMark tracks a participant popped for pairing whose session is not
// committed yet.
type pairingMark struct {
	mode    Mode
	leaving bool
}

// QueueStore holds the per-mode FIFO queues, the membership set and the
// waiting rooms. Everything here is guarded by mu, the queue scope.
type QueueStore struct {
	mu       sync.Mutex
	queues   map[Mode][]ParticipantID
	queued   map[ParticipantID]Mode
	rooms    map[ParticipantID]SpaceHandle
	pairing  map[ParticipantID]*pairingMark
	sessions *SessionTable
}

func NewQueueStore(sessions *SessionTable) *QueueStore {
	q := &QueueStore{
		queues:   make(map[Mode][]ParticipantID, len(Modes)),
		queued:   make(map[ParticipantID]Mode),
		rooms:    make(map[ParticipantID]SpaceHandle),
		pairing:  make(map[ParticipantID]*pairingMark),
		sessions: sessions,
	}
	for _, m := range Modes {
		q.queues[m] = nil
		q.publishDepth(m)
	}
	return q
}

// Admissible returns the error Enqueue would currently fail with, if any.
func (q *QueueStore) Admissible(id ParticipantID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.admissibleLocked(id)
}

func (q *QueueStore) admissibleLocked(id ParticipantID) error {
	if _, ok := q.queued[id]; ok {
		return ErrAlreadyQueued
	}
	if _, ok := q.pairing[id]; ok {
		return ErrAlreadyInSession
	}
	if q.sessions.Has(id) {
		return ErrAlreadyInSession
	}
	return nil
}

// Enqueue appends id to the mode's queue and records its waiting room.
func (q *QueueStore) Enqueue(id ParticipantID, mode Mode, room SpaceHandle) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.queues[mode]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if err := q.admissibleLocked(id); err != nil {
		return err
	}
	q.queues[mode] = append(q.queues[mode], id)
	q.queued[id] = mode
	q.rooms[id] = room
	q.publishDepth(mode)
	return nil
}

// DequeuePair pops the two oldest entries of the mode's queue.
func (q *QueueStore) DequeuePair(mode Mode) (ParticipantID, ParticipantID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dequeuePairLocked(mode)
}

func (q *QueueStore) dequeuePairLocked(mode Mode) (ParticipantID, ParticipantID, bool) {
	queue := q.queues[mode]
	if len(queue) < 2 {
		return "", "", false
	}
	a, b := queue[0], queue[1]
	q.queues[mode] = slices.Delete(queue, 0, 2)
	delete(q.queued, a)
	delete(q.queued, b)
	q.publishDepth(mode)
	return a, b, true
}

// pushLocked re-appends id at the tail of the mode's queue.
func (q *QueueStore) pushLocked(id ParticipantID, mode Mode) {
	q.queues[mode] = append(q.queues[mode], id)
	q.queued[id] = mode
	q.publishDepth(mode)
}

// Remove drops id from its queue and returns its waiting room. It is a no-op
// for an id that is not queued.
func (q *QueueStore) Remove(id ParticipantID) (SpaceHandle, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(id)
}

// RemoveIfRoom removes id only while it still owns room. A stale timeout or
// sweep therefore never removes a newer queue entry of the same participant.
// Participants already popped for pairing are left alone.
func (q *QueueStore) RemoveIfRoom(id ParticipantID, room SpaceHandle) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.pairing[id]; ok {
		return false
	}
	if current, ok := q.rooms[id]; !ok || current != room {
		return false
	}
	_, ok := q.removeLocked(id)
	return ok
}

func (q *QueueStore) removeLocked(id ParticipantID) (SpaceHandle, bool) {
	mode, queued := q.queued[id]
	if queued {
		q.queues[mode] = slices.DeleteFunc(q.queues[mode], func(other ParticipantID) bool {
			return other == id
		})
		delete(q.queued, id)
		q.publishDepth(mode)
	}
	room, hasRoom := q.rooms[id]
	delete(q.rooms, id)
	return room, queued || hasRoom
}

func (q *QueueStore) hasRoomLocked(id ParticipantID) bool {
	_, ok := q.rooms[id]
	return ok
}

func (q *QueueStore) markPairingLocked(mode Mode, ids ...ParticipantID) {
	for _, id := range ids {
		q.pairing[id] = &pairingMark{mode: mode}
	}
}

// takeRooms detaches the waiting rooms of participants being paired.
func (q *QueueStore) takeRooms(ids ...ParticipantID) []SpaceHandle {
	q.mu.Lock()
	defer q.mu.Unlock()

	var rooms []SpaceHandle
	for _, id := range ids {
		if room, ok := q.rooms[id]; ok {
			rooms = append(rooms, room)
			delete(q.rooms, id)
		}
	}
	return rooms
}

// commitPairing runs commit inside the queue scope and clears the pairing
// marks of a and b, so no observer ever sees them neither pairing nor paired.
// It returns the participants that asked to leave while pairing.
func (q *QueueStore) commitPairing(a, b ParticipantID, commit func() error) ([]ParticipantID, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var err error
	if commit != nil {
		err = commit()
	}
	var leaving []ParticipantID
	for _, id := range []ParticipantID{a, b} {
		if m, ok := q.pairing[id]; ok && m.leaving {
			leaving = append(leaving, id)
		}
		delete(q.pairing, id)
	}
	return leaving, err
}

// markLeaving flags a participant whose pair is being committed. It reports
// whether id was pairing.
func (q *QueueStore) markLeaving(id ParticipantID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	m, ok := q.pairing[id]
	if ok {
		m.leaving = true
	}
	return ok
}

func (q *QueueStore) Contains(id ParticipantID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.queued[id]
	return ok
}

func (q *QueueStore) Pairing(id ParticipantID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.pairing[id]
	return ok
}

func (q *QueueStore) Depth(mode Mode) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queues[mode])
}

// Depths returns the queue depth of every mode and the membership total.
func (q *QueueStore) Depths() (map[Mode]int, int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	depths := make(map[Mode]int, len(q.queues))
	for m, queue := range q.queues {
		depths[m] = len(queue)
	}
	return depths, len(q.queued)
}

// Members returns the queue of mode in arrival order.
func (q *QueueStore) Members(mode Mode) []ParticipantID {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.queues[mode])
}

// WaitingRooms returns a copy of the waiting room map.
func (q *QueueStore) WaitingRooms() map[ParticipantID]SpaceHandle {
	q.mu.Lock()
	defer q.mu.Unlock()
	return maps.Clone(q.rooms)
}

// FindByRoom returns the participant waiting in room.
func (q *QueueStore) FindByRoom(room SpaceHandle) (ParticipantID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for id, r := range q.rooms {
		if r == room {
			return id, true
		}
	}
	return "", false
}

func (q *QueueStore) publishDepth(mode Mode) {
	metricQueueSize.WithLabelValues(string(mode)).Set(float64(len(q.queues[mode])))
}
