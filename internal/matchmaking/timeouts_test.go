package matchmaking

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimeoutRegistry_FiresOnceAndSelfRemoves(t *testing.T) {
	req := require.New(t)
	r := NewTimeoutRegistry(testLogger())

	var calls atomic.Int32
	deadline := r.Register("alice", 20*time.Millisecond, func(id ParticipantID) error {
		req.Equal(ParticipantID("alice"), id)
		calls.Add(1)
		return nil
	})
	req.True(deadline.After(time.Now()))
	req.True(r.Pending("alice"))

	req.Eventually(func() bool { return calls.Load() == 1 && !r.Pending("alice") },
		time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	req.Equal(int32(1), calls.Load())
	req.Equal(0, r.Len())
}

func TestTimeoutRegistry_RegisterSupersedesPrevious(t *testing.T) {
	req := require.New(t)
	r := NewTimeoutRegistry(testLogger())

	var calls atomic.Int32
	var last atomic.Int32
	// Given a rapid sequence of registrations for the same participant
	for i := 1; i <= 10; i++ {
		i := i
		r.Register("bob", 30*time.Millisecond, func(ParticipantID) error {
			calls.Add(1)
			last.Store(int32(i))
			return nil
		})
	}
	req.Equal(1, r.Len())

	// Then only the last callback fires, exactly once
	req.Eventually(func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	req.Equal(int32(1), calls.Load())
	req.Equal(int32(10), last.Load())
}

func TestTimeoutRegistry_CancelPreventsFire(t *testing.T) {
	req := require.New(t)
	r := NewTimeoutRegistry(testLogger())

	var calls atomic.Int32
	r.Register("carol", 20*time.Millisecond, func(ParticipantID) error {
		calls.Add(1)
		return nil
	})
	r.Cancel("carol")
	r.Cancel("carol")
	r.Cancel("nobody")

	time.Sleep(60 * time.Millisecond)
	req.Zero(calls.Load())
	req.False(r.Pending("carol"))
}

func TestTimeoutRegistry_CallbackFailureIsContained(t *testing.T) {
	req := require.New(t)
	r := NewTimeoutRegistry(testLogger())

	var calls atomic.Int32
	r.Register("dave", 10*time.Millisecond, func(ParticipantID) error {
		calls.Add(1)
		return errors.New("boom")
	})
	r.Register("erin", 10*time.Millisecond, func(ParticipantID) error {
		calls.Add(1)
		panic("callback exploded")
	})

	req.Eventually(func() bool { return calls.Load() == 2 && r.Len() == 0 },
		time.Second, 5*time.Millisecond)
}

func TestTimeoutRegistry_InFlightCallbackKeepsFreshRegistration(t *testing.T) {
	req := require.New(t)
	r := NewTimeoutRegistry(testLogger())

	started := make(chan struct{})
	release := make(chan struct{})
	r.Register("frank", 5*time.Millisecond, func(ParticipantID) error {
		close(started)
		<-release
		return nil
	})
	<-started

	// When a new timeout is registered while the old callback still runs
	r.Register("frank", time.Hour, func(ParticipantID) error { return nil })
	close(release)

	// Then the old callback's cleanup leaves the fresh handle alone
	time.Sleep(20 * time.Millisecond)
	req.True(r.Pending("frank"))

	r.Stop()
	req.Equal(0, r.Len())
}
