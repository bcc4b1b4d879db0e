// Package mfa handles enrollment secrets. Verification is a stated future
// extension point; only secret generation and at-rest encryption live here.
package mfa

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

const secretBytes = 20

var ErrNoKey = errors.New("mfa encryption key not configured")

// Box encrypts MFA secrets at rest with AES-256-GCM.
type Box struct {
	aead cipher.AEAD
}

// NewBox accepts a 32-byte key, raw or hex encoded. An empty key yields a nil
// Box, which disables enrollment.
func NewBox(key string) (*Box, error) {
	if key == "" {
		return nil, nil
	}

	raw := []byte(key)
	if decoded, err := hex.DecodeString(key); err == nil && len(decoded) == 32 {
		raw = decoded
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("mfa key must be 32 bytes, got %d", len(raw))
	}

	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Box{aead: aead}, nil
}

// NewSecret generates a fresh base32 secret suitable for authenticator apps.
func NewSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}

// Seal encrypts the plaintext secret for storage.
func (b *Box) Seal(plaintext string) (string, error) {
	if b == nil {
		return "", ErrNoKey
	}
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a stored secret.
func (b *Box) Open(encoded string) (string, error) {
	if b == nil {
		return "", ErrNoKey
	}
	sealed, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	if len(sealed) < b.aead.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, ciphertext := sealed[:b.aead.NonceSize()], sealed[b.aead.NonceSize():]
	plaintext, err := b.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
