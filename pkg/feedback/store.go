package feedback

import (
	"cmp"
	"context"
	"iter"
	"log/slog"
	"slices"
	"time"
	"weak"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
)

// Store is the ordered message sequence of one processing turn.
// It is owned by a single goroutine and performs no locking.
type Store struct {
	seq      uint64
	messages []*Message

	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for report and scoping diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers callbacks fired for every report.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Store) {
		s.hooks = hooks
	}
}

// WithClock overrides the time source used to stamp messages.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadSession merges scope-less entries from the session log. Rendered
// entries are skipped. Sequence numbers continue after the highest loaded one.
func (s *Store) LoadSession(entries []domain.Entry) {
	for _, e := range entries {
		if e.Rendered {
			continue
		}
		s.messages = append(s.messages, &Message{
			Seq:       e.Seq,
			Level:     e.Level,
			Text:      e.Text,
			Time:      e.Time,
			session:   true,
			persisted: true,
		})
	}
	s.seq = max(s.seq, domain.LastSeq(entries))
	slices.SortStableFunc(s.messages, func(a, b *Message) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
}

// Report appends a message against origin. A nil origin reports a
// scope-less message.
func (s *Store) Report(origin tree.Component, level domain.Level, text string) *Message {
	if origin == nil {
		return s.ReportScopeless(level, text)
	}
	n := origin.AsNode()
	m := s.append(level, text)
	m.origin = weak.Make(n)
	m.hasOrigin = true
	m.OriginPath = n.Address()

	s.logger.Debug("feedback reported", "seq", m.Seq, "level", level, "origin", m.OriginPath)
	s.emit(m)
	return m
}

// ReportScopeless appends a session-scoped message with no origin. It is only
// visible to unfenced collectors scoped at the absolute root.
func (s *Store) ReportScopeless(level domain.Level, text string) *Message {
	m := s.append(level, text)
	m.session = true

	s.logger.Debug("session feedback reported", "seq", m.Seq, "level", level)
	s.emit(m)
	return m
}

func (s *Store) append(level domain.Level, text string) *Message {
	s.seq++
	m := &Message{Seq: s.seq, Level: level, Text: text, Time: s.now()}
	s.messages = append(s.messages, m)
	return m
}

func (s *Store) emit(m *Message) {
	if s.hooks.OnReport == nil {
		return
	}
	s.hooks.OnReport(context.Background(), &domain.ReportEvent{
		EventBase: domain.EventBase{Timestamp: m.Time, Type: domain.EventReport},
		Seq:       m.Seq,
		Level:     m.Level,
		Path:      m.OriginPath,
		Scopeless: !m.hasOrigin,
	})
}

// Debug reports a DEBUG message.
func (s *Store) Debug(origin tree.Component, text string) *Message {
	return s.Report(origin, domain.LevelDebug, text)
}

// Info reports an INFO message.
func (s *Store) Info(origin tree.Component, text string) *Message {
	return s.Report(origin, domain.LevelInfo, text)
}

// Success reports a SUCCESS message.
func (s *Store) Success(origin tree.Component, text string) *Message {
	return s.Report(origin, domain.LevelSuccess, text)
}

// Warn reports a WARNING message.
func (s *Store) Warn(origin tree.Component, text string) *Message {
	return s.Report(origin, domain.LevelWarning, text)
}

// Error reports an ERROR message.
func (s *Store) Error(origin tree.Component, text string) *Message {
	return s.Report(origin, domain.LevelError, text)
}

// Fatal reports a FATAL message.
func (s *Store) Fatal(origin tree.Component, text string) *Message {
	return s.Report(origin, domain.LevelFatal, text)
}

// All yields every message in report order.
func (s *Store) All() iter.Seq[*Message] {
	return func(yield func(*Message) bool) {
		for _, m := range s.messages {
			if !yield(m) {
				return
			}
		}
	}
}

// Len returns the number of stored messages.
func (s *Store) Len() int { return len(s.messages) }

// Sweep drops the messages marked as rendered and returns the sequence
// numbers of dropped messages that came from the session log.
func (s *Store) Sweep() []uint64 {
	var trimmed []uint64
	s.messages = slices.DeleteFunc(s.messages, func(m *Message) bool {
		if !m.rendered {
			return false
		}
		if m.persisted {
			trimmed = append(trimmed, m.Seq)
		}
		return true
	})
	s.logger.Debug("feedback swept", "remaining", len(s.messages), "session_trimmed", len(trimmed))
	return trimmed
}

// Flush returns the scope-less messages reported since the last flush that
// still need to reach the session log, and marks them persisted.
func (s *Store) Flush() []domain.Entry {
	var out []domain.Entry
	for _, m := range s.messages {
		if !m.session || m.persisted || m.rendered {
			continue
		}
		m.persisted = true
		out = append(out, m.Entry())
	}
	return out
}
