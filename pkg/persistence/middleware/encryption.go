package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// EnvelopePrefix marks an encrypted entry text.
const EnvelopePrefix = "enc:v1:"

// ErrNotEncrypted is returned when an entry read through the encryption
// middleware carries plain text.
var ErrNotEncrypted = errors.New("entry is missing encrypted envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new entries.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	ports.SessionLog
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts the text of
// every entry with AES-GCM. Sequence numbers, levels and times stay in the
// clear so backends can order and trim entries.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, errors.New("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.SessionLog) ports.SessionLog {
		return &encryptionMiddleware{SessionLog: next, config: config}
	}, nil
}

func (m *encryptionMiddleware) Append(ctx context.Context, sessionID string, entries ...domain.Entry) error {
	sealed := make([]domain.Entry, len(entries))
	for i, e := range entries {
		ciphertext, err := encrypt([]byte(e.Text), m.config.ActiveKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt entry %d: %w", e.Seq, err)
		}
		e.Text = EnvelopePrefix + base64.StdEncoding.EncodeToString(ciphertext)
		sealed[i] = e
	}
	return m.SessionLog.Append(ctx, sessionID, sealed...)
}

func (m *encryptionMiddleware) Entries(ctx context.Context, sessionID string) ([]domain.Entry, error) {
	entries, err := m.SessionLog.Entries(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for i, e := range entries {
		encoded, ok := strings.CutPrefix(e.Text, EnvelopePrefix)
		if !ok {
			return nil, fmt.Errorf("entry %d: %w", e.Seq, ErrNotEncrypted)
		}
		ciphertext, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode entry %d: %w", e.Seq, err)
		}
		plain, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt entry %d: %w", e.Seq, err)
		}
		entries[i].Text = string(plain)
	}
	return entries, nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
