package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/feedback"
	"github.com/aretw0/arbor/pkg/ports"
)

// DefaultLockTTL is how long a distributed turn lock lives if never released.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes the turns of each session and moves scope-less
// feedback between the session log and the per-turn feedback store.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	log ports.SessionLog

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker    ports.DistributedLocker // Optional distributed locker
	lockTTL   time.Duration
	storeOpts []feedback.Option
	logger    *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks (default DefaultLockTTL).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithStoreOptions configures the feedback store created for every turn.
func WithStoreOptions(opts ...feedback.Option) Option {
	return func(m *Manager) {
		m.storeOpts = append(m.storeOpts, opts...)
	}
}

// NewManager creates a session manager over the given log.
func NewManager(log ports.SessionLog, opts ...Option) *Manager {
	m := &Manager{
		log:     log,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Turn runs fn with a fresh feedback store holding the pending scope-less
// messages of the session. When fn returns, rendered messages are trimmed
// from the log and new scope-less messages are appended, even if fn failed.
func (m *Manager) Turn(ctx context.Context, sessionID string, fn func(context.Context, *feedback.Store) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		entries, err := m.log.Entries(ctx, sessionID)
		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to load session log: %w", err)
		}

		store := feedback.NewStore(append([]feedback.Option{feedback.WithLogger(m.logger)}, m.storeOpts...)...)
		store.LoadSession(entries)

		turnErr := fn(ctx, store)

		trimmed := store.Sweep()
		added := store.Flush()
		m.logger.DebugContext(ctx, "session turn finished",
			"session_id", sessionID, "loaded", len(entries), "trimmed", len(trimmed), "added", len(added))

		var persistErr error
		if len(added) > 0 {
			if err := m.log.Append(ctx, sessionID, added...); err != nil {
				persistErr = fmt.Errorf("failed to append session feedback: %w", err)
			}
		}
		if len(trimmed) > 0 {
			if err := m.log.Trim(ctx, sessionID, trimmed...); err != nil {
				persistErr = errors.Join(persistErr, fmt.Errorf("failed to trim session feedback: %w", err))
			}
		}
		return errors.Join(turnErr, persistErr)
	})
}

// Report appends a scope-less message to the session outside of a render.
func (m *Manager) Report(ctx context.Context, sessionID string, level domain.Level, text string) error {
	return m.Turn(ctx, sessionID, func(_ context.Context, store *feedback.Store) error {
		store.ReportScopeless(level, text)
		return nil
	})
}

// Entries returns the pending scope-less messages of the session.
func (m *Manager) Entries(ctx context.Context, sessionID string) ([]domain.Entry, error) {
	var entries []domain.Entry
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		entries, err = m.log.Entries(ctx, sessionID)
		return err
	})
	return entries, err
}

// Delete removes the session log.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.log.Delete(ctx, sessionID)
	})
}

// List delegates to the log.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.log.List(ctx)
}

// Log returns the underlying session log.
func (m *Manager) Log() ports.SessionLog {
	return m.log
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
