// Package clientcrypto seals small local secrets (the session token) at rest.
package clientcrypto

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Params
const (
	KeyLen = 32

	sessionInfo = "campus-onboard session v1"
)

// Rand returns n cryptographically secure random bytes.
func Rand(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// LoadOrCreateKey reads the device key at path, creating it (0600) on first use.
func LoadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(key) != KeyLen {
			return nil, fmt.Errorf("key file %s: want %d bytes, got %d", path, KeyLen, len(key))
		}
		return key, nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	key, err = Rand(KeyLen)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, err
	}
	return key, nil
}

// Sealer encrypts with XChaCha20-Poly1305 under a key derived via HKDF-SHA256.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the session sealing key from the device key.
func NewSealer(deviceKey []byte) (*Sealer, error) {
	if len(deviceKey) != KeyLen {
		return nil, fmt.Errorf("device key: want %d bytes, got %d", KeyLen, len(deviceKey))
	}
	sub := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, deviceKey, nil, []byte(sessionInfo)), sub); err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(sub)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal returns nonce||ciphertext bound to aad.
func (s *Sealer) Seal(plaintext, aad []byte) ([]byte, error) {
	nonce, err := Rand(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+s.aead.Overhead())
	out = append(out, nonce...)
	return s.aead.Seal(out, nonce, plaintext, aad), nil
}

// Open reverses Seal with the same aad.
func (s *Sealer) Open(blob, aad []byte) ([]byte, error) {
	if len(blob) < chacha20poly1305.NonceSizeX {
		return nil, errors.New("blob too short")
	}
	nonce := blob[:chacha20poly1305.NonceSizeX]
	ct := blob[chacha20poly1305.NonceSizeX:]
	return s.aead.Open(nil, nonce, ct, aad)
}
