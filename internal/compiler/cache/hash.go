// Package cache provides content-addressed caching of compiled templates.
// Entries are keyed by a hash of the compiler options and the template
// source and hold the serialized codegen handoff.
package cache

import (
	"encoding/hex"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// Hasher computes content hashes for cache keys
type Hasher struct{}

// NewHasher creates a new hasher
func NewHasher() *Hasher {
	return &Hasher{}
}

// HashFile computes a BLAKE2b-256 hash of the file contents
func (h *Hasher) HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashContent computes a BLAKE2b-256 hash of the given content
func (h *Hasher) HashContent(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// HashString computes a BLAKE2b-256 hash of the given string
func (h *Hasher) HashString(content string) string {
	return h.HashContent([]byte(content))
}

// Key is the cache key of source compiled with the options identified by
// fingerprint.
func (h *Hasher) Key(fingerprint, source string) string {
	return h.HashString(fingerprint + "\x00" + source)
}
