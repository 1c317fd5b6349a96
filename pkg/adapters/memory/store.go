package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// Log implements ports.SessionLog in memory.
// Safe for concurrent use.
type Log struct {
	data map[string][]domain.Entry
	mu   sync.RWMutex
}

// NewLog creates a new in-memory session log.
func NewLog() *Log {
	return &Log{
		data: make(map[string][]domain.Entry),
	}
}

// Append adds entries, keeping the log in sequence order.
func (l *Log) Append(ctx context.Context, sessionID string, entries ...domain.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	log := append(l.data[sessionID], entries...)
	slices.SortStableFunc(log, func(a, b domain.Entry) int { return cmp.Compare(a.Seq, b.Seq) })
	l.data[sessionID] = log
	return nil
}

// Entries returns a copy of the session log, so callers can't mutate it directly.
func (l *Log) Entries(ctx context.Context, sessionID string) ([]domain.Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	log, ok := l.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return slices.Clone(log), nil
}

// Trim drops the given sequence numbers.
func (l *Log) Trim(ctx context.Context, sessionID string, seqs ...uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	log, ok := l.data[sessionID]
	if !ok {
		return nil
	}
	l.data[sessionID] = slices.DeleteFunc(log, func(e domain.Entry) bool {
		return slices.Contains(seqs, e.Seq)
	})
	return nil
}

// Delete removes the session.
func (l *Log) Delete(ctx context.Context, sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.data, sessionID)
	return nil
}

// List returns known sessions.
func (l *Log) List(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	sessions := make([]string, 0, len(l.data))
	for id := range l.data {
		sessions = append(sessions, id)
	}
	slices.Sort(sessions)
	return sessions, nil
}
