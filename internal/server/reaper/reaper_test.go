package reaper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu    sync.Mutex
	calls []time.Time
	n     int64
	err   error
}

func (f *fakeStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	return f.n, f.err
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSweep_PassesCurrentTime(t *testing.T) {
	store := &fakeStore{n: 4}
	r := New(store, time.Minute, logging.Nop{})
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	n, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.Len(t, store.calls, 1)
	assert.True(t, store.calls[0].Equal(fixed))
}

func TestSweep_Error(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	r := New(store, time.Minute, logging.Nop{})

	_, err := r.Sweep(context.Background())
	assert.Error(t, err)
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	store := &fakeStore{}
	r := New(store, 10*time.Millisecond, logging.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.count() >= 3 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
