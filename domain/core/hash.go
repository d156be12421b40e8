package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Fingerprint is a content hash used to spot exact-duplicate claims
// before the consistency pass consults the reasoning collaborator.
type Fingerprint Hash

// ComputeFingerprint hashes an entity, a claim type, and the sorted source
// URLs of its evidence into a stable content fingerprint.
func ComputeFingerprint(entity EntityID, signalType string, sources []string) Fingerprint {
	sorted := make([]string, len(sources))
	copy(sorted, sources)
	sort.Strings(sorted)

	var data strings.Builder
	data.WriteString(entity.String())
	data.WriteString("|")
	data.WriteString(signalType)
	for _, s := range sorted {
		data.WriteString("|")
		data.WriteString(s)
	}

	return Fingerprint(NewHash([]byte(data.String())))
}

// String returns the string representation
func (f Fingerprint) String() string { return Hash(f).String() }
