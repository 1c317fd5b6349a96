package redis

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the adapter.
const DefaultPrefix = "arbor:session:"

// noExpiry is the index score of sessions without TTL (2100-01-01).
const noExpiry = 4102444800

// Log implements ports.SessionLog using Redis.
// Each session is a hash from sequence number to JSON entry, stored under
// prefix+"s:"+sessionID so no session id can collide with the index or lock
// keys; a sorted set at prefix+"index" indexes sessions by expiry.
type Log struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Log)

// WithTTL sets the expiration for sessions. Every append refreshes it.
func WithTTL(ttl time.Duration) Option {
	return func(l *Log) {
		l.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(l *Log) {
		l.prefix = prefix
	}
}

// New creates a new Redis log with options.
func New(address, password string, db int, opts ...Option) *Log {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis log from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Log {
	log := &Log{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(log)
	}

	return log
}

// Client returns the underlying client, e.g. to share it with a Locker.
func (l *Log) Client() *backend.Client {
	return l.client
}

func (l *Log) key(sessionID string) string {
	return l.prefix + "s:" + sessionID
}

func (l *Log) indexKey() string {
	return l.prefix + "index"
}

// Append stores the entries and refreshes the session TTL.
func (l *Log) Append(ctx context.Context, sessionID string, entries ...domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	fields := make([]any, 0, 2*len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal entry %d: %w", e.Seq, err)
		}
		fields = append(fields, strconv.FormatUint(e.Seq, 10), data)
	}

	pipe := l.client.TxPipeline()
	pipe.HSet(ctx, l.key(sessionID), fields...)
	if l.ttl > 0 {
		pipe.Expire(ctx, l.key(sessionID), l.ttl)
	}

	// Score = Now + TTL, so List can prune expired sessions lazily.
	score := float64(time.Now().Add(l.ttl).Unix())
	if l.ttl == 0 {
		score = noExpiry
	}
	pipe.ZAdd(ctx, l.indexKey(), backend.Z{
		Score:  score,
		Member: sessionID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to redis: %w", err)
	}
	return nil
}

// Entries retrieves the session log from Redis.
func (l *Log) Entries(ctx context.Context, sessionID string) ([]domain.Entry, error) {
	raw, err := l.client.HGetAll(ctx, l.key(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	// Redis drops empty hashes, so an empty result means no session.
	if len(raw) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	entries := make([]domain.Entry, 0, len(raw))
	for field, val := range raw {
		var e domain.Entry
		if err := json.Unmarshal([]byte(val), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry %s: %w", field, err)
		}
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b domain.Entry) int { return cmp.Compare(a.Seq, b.Seq) })
	return entries, nil
}

// Trim removes entries; a session trimmed empty leaves the index too.
func (l *Log) Trim(ctx context.Context, sessionID string, seqs ...uint64) error {
	if len(seqs) == 0 {
		return nil
	}
	fields := make([]string, len(seqs))
	for i, seq := range seqs {
		fields[i] = strconv.FormatUint(seq, 10)
	}

	if err := l.client.HDel(ctx, l.key(sessionID), fields...).Err(); err != nil {
		return fmt.Errorf("failed to trim redis log: %w", err)
	}

	remaining, err := l.client.HLen(ctx, l.key(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("failed to count redis log: %w", err)
	}
	if remaining == 0 {
		return l.client.ZRem(ctx, l.indexKey(), sessionID).Err()
	}
	return nil
}

// Delete removes the session.
func (l *Log) Delete(ctx context.Context, sessionID string) error {
	pipe := l.client.Pipeline()

	pipe.Del(ctx, l.key(sessionID))
	pipe.ZRem(ctx, l.indexKey(), sessionID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns active sessions from the index, pruning expired ones first.
func (l *Log) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	err := l.client.ZRemRangeByScore(ctx, l.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	sessions, err := l.client.ZRange(ctx, l.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, nil
}

// Close closes the redis client.
func (l *Log) Close() error {
	return l.client.Close()
}
