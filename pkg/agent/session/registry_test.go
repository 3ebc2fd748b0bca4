package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRegistry_SweepLifecycle(t *testing.T) {
	r := NewRegistry(0)

	live := r.Create()
	finishedWatched := r.Create()
	finishedIdle := r.Create()

	sub := finishedWatched.Subscribe()
	require.NoError(t, finishedIdle.End())

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 1, r.Sweep())

	_, ok := r.Get(finishedIdle.ID())
	assert.False(t, ok)
	_, ok = r.Get(live.ID())
	assert.True(t, ok)

	// a finished session stays while its listener is still attached
	require.NoError(t, finishedWatched.End())
	assert.Equal(t, 0, r.Sweep())
	drain(t, sub)
	sub.Detach()
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())

	require.NoError(t, live.End())
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_SweepDropsStaleSessions(t *testing.T) {
	r := NewRegistry(time.Minute)
	s := r.Create()

	now := time.Now()
	r.now = func() time.Time { return now }
	assert.Equal(t, 0, r.Sweep())

	r.now = func() time.Time { return now.Add(2 * time.Minute) }
	assert.Equal(t, 1, r.Sweep())
	_, ok := r.Get(s.ID())
	assert.False(t, ok)
}

func TestRegistry_RunReapsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRegistry(0)
	for i := 0; i < 50; i++ {
		s := r.Create()
		sub := s.Subscribe()
		require.NoError(t, s.EmitBlock(NewTextBlock("t", "x")))
		require.NoError(t, s.End())
		drain(t, sub)
		sub.Detach()
	}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		r.Run(ctx, 5*time.Millisecond)
		close(stopped)
	}()

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	<-stopped
}
