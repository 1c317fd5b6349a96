package file

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// Log implements ports.SessionLog using the local filesystem.
// It stores each session as a JSON array of entries in a configured directory.
type Log struct {
	BasePath string
	mu       sync.Mutex
}

// New creates a new Log with the given base path.
// If basePath is empty, it defaults to ".arbor/sessions".
func New(basePath string) *Log {
	if basePath == "" {
		basePath = filepath.Join(".arbor", "sessions")
	}
	return &Log{BasePath: basePath}
}

func (l *Log) path(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("sessionID cannot be empty")
	}
	if strings.ContainsAny(sessionID, `/\`) || sessionID == "." || sessionID == ".." {
		return "", fmt.Errorf("invalid sessionID %q", sessionID)
	}
	return filepath.Join(l.BasePath, sessionID+".json"), nil
}

// Append adds entries to the session file, rewriting it atomically.
func (l *Log) Append(ctx context.Context, sessionID string, entries ...domain.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.read(sessionID)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return err
	}
	current = append(current, entries...)
	slices.SortStableFunc(current, func(a, b domain.Entry) int { return cmp.Compare(a.Seq, b.Seq) })
	return l.write(sessionID, current)
}

// Entries retrieves the session log from its JSON file.
func (l *Log) Entries(ctx context.Context, sessionID string) ([]domain.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read(sessionID)
}

// Trim drops the given sequence numbers. A session left empty keeps its file.
func (l *Log) Trim(ctx context.Context, sessionID string, seqs ...uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.read(sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(current, func(e domain.Entry) bool { return slices.Contains(seqs, e.Seq) })
	return l.write(sessionID, kept)
}

// Delete removes the session file.
func (l *Log) Delete(ctx context.Context, sessionID string) error {
	filePath, err := l.path(sessionID)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	err = os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns all session IDs with a file.
func (l *Log) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var sessions []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		sessions = append(sessions, strings.TrimSuffix(name, ".json"))
	}
	return sessions, nil
}

func (l *Log) read(sessionID string) ([]domain.Entry, error) {
	filePath, err := l.path(sessionID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var entries []domain.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session log: %w", err)
	}
	return entries, nil
}

// write persists the log atomically: temp file in the same directory,
// fsync, then rename over the destination.
func (l *Log) write(sessionID string, entries []domain.Entry) error {
	destPath, err := l.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(l.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	if entries == nil {
		entries = []domain.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session log: %w", err)
	}

	tmpFile, err := os.CreateTemp(l.BasePath, "tmp-"+sessionID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows: os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing session file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to session file: %w", err)
	}
	return nil
}
