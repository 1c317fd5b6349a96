package cli

import "time"

// Options carries the global CLI flags.
type Options struct {
	// Dir is the page repository.
	Dir string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// SessionDir keeps session logs on disk when set.
	SessionDir string
	// RedisAddr keeps session logs in Redis when set; it wins over SessionDir.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// SessionTTL expires idle Redis sessions. Zero keeps them forever.
	SessionTTL time.Duration
	// EncryptionKey is a hex-encoded AES-256 key. When set, persisted
	// message texts are encrypted.
	EncryptionKey string
	// FallbackKeys decrypt entries written before a key rotation.
	FallbackKeys []string
	// Redact lists regular expressions masked in persisted message texts.
	Redact []string
	// Debug logs every lifecycle event.
	Debug bool
}
