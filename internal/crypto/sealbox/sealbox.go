// Package sealbox encrypts persisted client state at rest.
//
// Every value is sealed with XChaCha20-Poly1305 under a key derived from a
// master key and the storage key name, and the storage key name is bound as
// additional data, so a value moved under another key fails to open.
package sealbox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Params
const (
	KeyLen  = 32
	SaltLen = 16

	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1

	keyFile  = "seal.key"
	saltFile = "seal.salt"
)

var errShort = errors.New("sealed value too short")

// Rand returns n cryptographically secure random bytes.
func Rand(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// DeriveKey derives a master key from passphrase and salt using Argon2id.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, KeyLen)
}

// LoadKey returns the master key kept in dir.
// With a passphrase the key is derived from it and a salt file created on
// first use; without one a random key file is created on first use.
func LoadKey(dir, passphrase string) ([]byte, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if passphrase != "" {
		salt, err := readOrCreate(filepath.Join(dir, saltFile), SaltLen)
		if err != nil {
			return nil, err
		}
		return DeriveKey([]byte(passphrase), salt), nil
	}
	return readOrCreate(filepath.Join(dir, keyFile), KeyLen)
}

func readOrCreate(path string, n int) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err == nil {
		if len(b) != n {
			return nil, fmt.Errorf("%s: want %d bytes, got %d", path, n, len(b))
		}
		return b, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	b, err = Rand(n)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return nil, err
	}
	return b, nil
}

// Box seals and opens values under one master key.
type Box struct {
	master []byte
}

// New returns a Box for a KeyLen-byte master key.
func New(master []byte) (*Box, error) {
	if len(master) != KeyLen {
		return nil, fmt.Errorf("master key: want %d bytes, got %d", KeyLen, len(master))
	}
	return &Box{master: append([]byte(nil), master...)}, nil
}

// deriveKey derives the per-name key via HKDF-SHA256 using name as info.
func (b *Box) deriveKey(name string) ([]byte, error) {
	r := hkdf.New(sha256.New, b.master, nil, []byte(name))
	key := make([]byte, KeyLen)
	_, err := r.Read(key)
	return key, err
}

// Seal encrypts plaintext stored under name and returns it base64 encoded.
func (b *Box) Seal(name string, plaintext []byte) (string, error) {
	key, err := b.deriveKey(name)
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", err
	}
	nonce, err := Rand(chacha20poly1305.NonceSizeX)
	if err != nil {
		return "", err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, plaintext, []byte(name))...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal for the same name.
func (b *Box) Open(name, sealed string) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, err
	}
	if len(blob) < chacha20poly1305.NonceSizeX {
		return nil, errShort
	}
	key, err := b.deriveKey(name)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := blob[:chacha20poly1305.NonceSizeX]
	ct := blob[chacha20poly1305.NonceSizeX:]
	return aead.Open(nil, nonce, ct, []byte(name))
}
