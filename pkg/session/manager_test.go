package session_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/feedback"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// SlowLog simulates latency to provoke race conditions if locking is missing.
type SlowLog struct {
	*memory.Log
}

func (s *SlowLog) Append(ctx context.Context, sessionID string, entries ...domain.Entry) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	return s.Log.Append(ctx, sessionID, entries...)
}

func (s *SlowLog) Entries(ctx context.Context, sessionID string) ([]domain.Entry, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	return s.Log.Entries(ctx, sessionID)
}

func TestManager_Locking(t *testing.T) {
	log := &SlowLog{Log: memory.NewLog()}
	manager := session.NewManager(log)
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	concurrentReports := 10

	// Every turn reads the last sequence number before appending. Without
	// serialization two turns would reuse the same number.
	for range concurrentReports {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, manager.Report(ctx, id, domain.LevelInfo, "ping"))
		}()
	}
	wg.Wait()

	entries, err := manager.Entries(ctx, id)
	require.NoError(t, err)
	require.Len(t, entries, concurrentReports)
	seqs := make([]uint64, 0, len(entries))
	for _, e := range entries {
		seqs = append(seqs, e.Seq)
	}
	assert.Equal(t, []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, seqs)
}

func TestManager_TurnCarriesScopelessFeedback(t *testing.T) {
	log := memory.NewLog()
	manager := session.NewManager(log)
	ctx := context.Background()
	id := "carry"

	// Turn 1: a page reports a scope-less and a component message; nothing is rendered.
	err := manager.Turn(ctx, id, func(_ context.Context, store *feedback.Store) error {
		store.ReportScopeless(domain.LevelSuccess, "saved")
		store.Info(tree.NewLeaf("field"), "component message")
		return nil
	})
	require.NoError(t, err)

	entries, err := log.Entries(ctx, id)
	require.NoError(t, err)
	require.Len(t, entries, 1, "only scope-less messages reach the session")
	assert.Equal(t, "saved", entries[0].Text)

	// Turn 2: the message is loaded and rendered, so it is trimmed.
	err = manager.Turn(ctx, id, func(_ context.Context, store *feedback.Store) error {
		msgs := slices.Collect(store.All())
		require.Len(t, msgs, 1)
		assert.True(t, msgs[0].Scopeless())
		msgs[0].MarkRendered()

		// New messages continue the sequence.
		m := store.ReportScopeless(domain.LevelInfo, "next")
		assert.Equal(t, uint64(2), m.Seq)
		return nil
	})
	require.NoError(t, err)

	entries, err = log.Entries(ctx, id)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "next", entries[0].Text)
}

func TestManager_TurnFailureStillPersists(t *testing.T) {
	log := memory.NewLog()
	manager := session.NewManager(log)
	ctx := context.Background()
	errTurn := errors.New("render failed")

	err := manager.Turn(ctx, "s", func(_ context.Context, store *feedback.Store) error {
		store.ReportScopeless(domain.LevelError, "something went wrong")
		return errTurn
	})

	assert.ErrorIs(t, err, errTurn)
	entries, err := log.Entries(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

type failingLog struct {
	ports.SessionLog
	err error
}

func (f failingLog) Entries(context.Context, string) ([]domain.Entry, error) {
	return nil, f.err
}

func TestManager_TurnLoadFailure(t *testing.T) {
	errBackend := errors.New("backend down")
	manager := session.NewManager(failingLog{err: errBackend})

	called := false
	err := manager.Turn(context.Background(), "s", func(context.Context, *feedback.Store) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, errBackend)
	assert.False(t, called)
}

type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	args := m.Called(key, ttl)
	unlock, _ := args.Get(0).(ports.UnlockFunc)
	return unlock, args.Error(1)
}

func TestManager_DistributedLock(t *testing.T) {
	ctx := context.Background()

	t.Run("lock is held around the turn", func(t *testing.T) {
		var unlocked bool
		locker := &mockLocker{}
		locker.On("Lock", "s", 5*time.Second).Return(ports.UnlockFunc(func(context.Context) error {
			unlocked = true
			return errors.New("already expired")
		}), nil)

		manager := session.NewManager(memory.NewLog(), session.WithLocker(locker), session.WithLockTTL(5*time.Second))
		err := manager.Report(ctx, "s", domain.LevelInfo, "hi")

		require.NoError(t, err, "unlock failures are logged, not returned")
		assert.True(t, unlocked)
		locker.AssertExpectations(t)
	})

	t.Run("lock failure aborts the turn", func(t *testing.T) {
		locker := &mockLocker{}
		locker.On("Lock", "s", session.DefaultLockTTL).Return(nil, context.DeadlineExceeded)

		log := memory.NewLog()
		manager := session.NewManager(log, session.WithLocker(locker))
		err := manager.Report(ctx, "s", domain.LevelInfo, "hi")

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		_, err = log.Entries(ctx, "s")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

func TestManager_DeleteAndList(t *testing.T) {
	manager := session.NewManager(memory.NewLog())
	ctx := context.Background()

	require.NoError(t, manager.Report(ctx, "a", domain.LevelInfo, "x"))
	require.NoError(t, manager.Report(ctx, "b", domain.LevelInfo, "y"))

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, manager.Delete(ctx, "a"))
	ids, err = manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}
