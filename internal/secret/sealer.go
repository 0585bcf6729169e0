// Package secret seals third-party credentials before they are stored.
package secret

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const sealedPrefix = "v1:"

var (
	// ErrNoKey is returned when a sealed value is opened without a key.
	ErrNoKey = errors.New("secret: value is sealed but no key is configured")
	// ErrMalformed is returned for sealed values that cannot be decoded.
	ErrMalformed = errors.New("secret: malformed sealed value")
)

// Sealer encrypts and decrypts single credential values.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// KeyParams controls passphrase stretching.
type KeyParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	Salt        string
}

// DefaultKeyParams matches the cost used for password hashing elsewhere.
var DefaultKeyParams = KeyParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	Salt:        "standupbot/credentials/v1",
}

// XChaChaSealer seals values with XChaCha20-Poly1305 under a key stretched
// from a passphrase with argon2id.
type XChaChaSealer struct {
	aead cipher.AEAD
}

// NewXChaChaSealer derives a key from passphrase and returns a sealer.
func NewXChaChaSealer(passphrase string, params KeyParams) (*XChaChaSealer, error) {
	if passphrase == "" {
		return nil, errors.New("secret: passphrase is required")
	}
	key := argon2.IDKey([]byte(passphrase), []byte(params.Salt), params.Iterations, params.Memory, params.Parallelism, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("secret: new aead: %w", err)
	}
	return &XChaChaSealer{aead: aead}, nil
}

// Seal encrypts plaintext. Empty values stay empty.
func (s *XChaChaSealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secret: read nonce: %w", err)
	}
	// Stored as nonce || ciphertext.
	payload := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.RawStdEncoding.EncodeToString(payload), nil
}

// Open decrypts a value produced by Seal. Values without the sealed prefix
// predate encryption and are returned unchanged.
func (s *XChaChaSealer) Open(sealed string) (string, error) {
	if !IsSealed(sealed) {
		return sealed, nil
	}
	payload, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(sealed, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(payload) < s.aead.NonceSize() {
		return "", ErrMalformed
	}
	nonce, ciphertext := payload[:s.aead.NonceSize()], payload[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return string(plaintext), nil
}

// IsSealed reports whether value carries the sealed prefix.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, sealedPrefix)
}

// Plaintext stores values as given. It is used when no key is configured.
type Plaintext struct{}

func (Plaintext) Seal(plaintext string) (string, error) { return plaintext, nil }

func (Plaintext) Open(sealed string) (string, error) {
	if IsSealed(sealed) {
		return "", ErrNoKey
	}
	return sealed, nil
}

// New returns an XChaCha sealer for passphrase, or Plaintext when it is empty.
func New(passphrase string) (Sealer, error) {
	if passphrase == "" {
		return Plaintext{}, nil
	}
	return NewXChaChaSealer(passphrase, DefaultKeyParams)
}
