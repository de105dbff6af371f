package idempotency

import (
	"crypto/sha256"
	"encoding/hex"

	"example.com/actuaryjobs/internal/domain"
)

// Key is the natural key of a job posting.
// Every duplicate check goes through NaturalKeyOf, so the matching policy lives here only.
type Key struct {
	Title   string
	Company string
}

// NaturalKeyOf returns the dedup key for job.
// Title and company are taken exactly as given: no case folding, no trimming.
func NaturalKeyOf(job domain.Job) Key {
	return Key{Title: job.Title, Company: job.Company}
}

// Equal reports whether k and other identify the same posting.
func (k Key) Equal(other Key) bool {
	return k.Title == other.Title && k.Company == other.Company
}

// Digest returns a fixed-length hex SHA-256 of the key, suitable for logs.
func (k Key) Digest() string {
	sum := sha256.Sum256([]byte(k.Title + "\x00" + k.Company))
	return hex.EncodeToString(sum[:])
}
