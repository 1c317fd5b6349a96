package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionLogContract runs a suite of tests to verify that a SessionLog implementation
// adheres to the defined interface contract.
func RunSessionLogContract(t *testing.T, log SessionLog) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")
	at := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

	entry := func(seq uint64, level domain.Level, text string) domain.Entry {
		return domain.Entry{Seq: seq, Level: level, Text: text, Time: at.Add(time.Duration(seq) * time.Second)}
	}

	t.Run("Append and Entries", func(t *testing.T) {
		defer func() { _ = log.Delete(ctx, sessionID) }()

		require.NoError(t, log.Append(ctx, sessionID, entry(3, domain.LevelError, "third")))
		require.NoError(t, log.Append(ctx, sessionID,
			entry(1, domain.LevelInfo, "first"),
			entry(2, domain.LevelWarning, "second"),
		))

		entries, err := log.Entries(ctx, sessionID)
		require.NoError(t, err, "Entries should not return error")
		require.Len(t, entries, 3)

		for i, want := range []string{"first", "second", "third"} {
			assert.Equal(t, uint64(i+1), entries[i].Seq, "entries are returned in sequence order")
			assert.Equal(t, want, entries[i].Text)
		}
		assert.Equal(t, domain.LevelWarning, entries[1].Level)
		assert.True(t, at.Add(3*time.Second).Equal(entries[2].Time), "time should survive persistence")
	})

	t.Run("Entries Non-Existent", func(t *testing.T) {
		_, err := log.Entries(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Trim", func(t *testing.T) {
		defer func() { _ = log.Delete(ctx, sessionID) }()

		require.NoError(t, log.Append(ctx, sessionID,
			entry(1, domain.LevelInfo, "keep"),
			entry(2, domain.LevelInfo, "drop"),
			entry(3, domain.LevelInfo, "keep too"),
		))

		require.NoError(t, log.Trim(ctx, sessionID, 2, 42), "unknown sequence numbers are ignored")

		entries, err := log.Entries(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, uint64(1), entries[0].Seq)
		assert.Equal(t, uint64(3), entries[1].Seq)

		// Trimming everything may drop the session itself.
		require.NoError(t, log.Trim(ctx, sessionID, 1, 3))
		entries, err = log.Entries(ctx, sessionID)
		if err != nil {
			assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		}
		assert.Empty(t, entries)
	})

	t.Run("Trim Non-Existent", func(t *testing.T) {
		assert.NoError(t, log.Trim(ctx, "non-existent-"+sessionID, 1))
	})

	t.Run("Delete", func(t *testing.T) {
		// Setup
		require.NoError(t, log.Append(ctx, sessionID, entry(1, domain.LevelInfo, "bye")))

		// Delete
		err := log.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		// Verify gone
		_, err = log.Entries(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Entries after Delete should return ErrSessionNotFound")

		assert.NoError(t, log.Delete(ctx, sessionID), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		// Setup: Create 2 sessions
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, log.Append(ctx, id1, entry(1, domain.LevelInfo, "one")))
		require.NoError(t, log.Append(ctx, id2, entry(1, domain.LevelInfo, "two")))

		// Ensure cleanup
		defer func() {
			_ = log.Delete(ctx, id1)
			_ = log.Delete(ctx, id2)
		}()

		// List
		sessions, err := log.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})

	t.Run("Reserved Names", func(t *testing.T) {
		// Ids that adapters may use internally still name ordinary sessions.
		other := sessionID + "-neighbor"
		require.NoError(t, log.Append(ctx, other, entry(1, domain.LevelInfo, "neighbor")))
		defer func() { _ = log.Delete(ctx, other) }()

		for _, id := range []string{"index", "lock"} {
			require.NoError(t, log.Append(ctx, id, entry(1, domain.LevelError, id)), id)

			entries, err := log.Entries(ctx, id)
			require.NoError(t, err, id)
			require.Len(t, entries, 1)
			assert.Equal(t, id, entries[0].Text)

			sessions, err := log.List(ctx)
			require.NoError(t, err)
			assert.Contains(t, sessions, id)
			assert.Contains(t, sessions, other)

			require.NoError(t, log.Delete(ctx, id), id)

			sessions, err = log.List(ctx)
			require.NoError(t, err)
			assert.NotContains(t, sessions, id)
			assert.Contains(t, sessions, other, "deleting %q must not affect other sessions", id)
		}

		entries, err := log.Entries(ctx, other)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "neighbor", entries[0].Text)
	})
}
