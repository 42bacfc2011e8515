// Package hash fingerprints structure set documents.
//
// Run reports record the SHA-256 of the structure set a run started from and
// of the document it saved, so a report can be matched to the exact files it
// describes. A fake implementation is provided for tests.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hasher provides an abstraction for content hashing.
type Hasher interface {
	// HashBytes computes the hash of data.
	HashBytes(data []byte) string
}

// SHA256Hasher implements Hasher using SHA-256.
type SHA256Hasher struct{}

// NewSHA256Hasher creates a new SHA256Hasher.
func NewSHA256Hasher() *SHA256Hasher {
	return &SHA256Hasher{}
}

// HashBytes computes the SHA-256 hash of data as lowercase hex.
func (h *SHA256Hasher) HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FakeHasher implements Hasher with short, readable digests for testing.
// Equal content always yields the same digest.
type FakeHasher struct {
	seen map[string]string
}

// NewFakeHasher creates a new FakeHasher.
func NewFakeHasher() *FakeHasher {
	return &FakeHasher{seen: make(map[string]string)}
}

// HashBytes returns "fakehash-N", numbering distinct contents in the order
// they were first hashed.
func (h *FakeHasher) HashBytes(data []byte) string {
	if d, ok := h.seen[string(data)]; ok {
		return d
	}
	d := fmt.Sprintf("fakehash-%d", len(h.seen)+1)
	h.seen[string(data)] = d
	return d
}
