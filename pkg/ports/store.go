package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// SessionLog persists the scope-less feedback of a session between turns.
// The runtime treats it as an opaque append-only log keyed by session ID.
type SessionLog interface {
	// Append adds entries to the end of the session log, creating it if needed.
	Append(ctx context.Context, sessionID string, entries ...domain.Entry) error

	// Entries returns the log in sequence order.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Entries(ctx context.Context, sessionID string) ([]domain.Entry, error)

	// Trim drops the entries with the given sequence numbers.
	// Unknown sequence numbers are ignored.
	Trim(ctx context.Context, sessionID string, seqs ...uint64) error

	// Delete removes the whole session log.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all known sessions.
	List(ctx context.Context) ([]string, error)
}
