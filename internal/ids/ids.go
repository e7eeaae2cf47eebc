// Package ids generates and validates the opaque task ID format fixed by
// spec.md §3: ^[prefix]-[a-z0-9]{6,}$, 8-16 characters total. Grounded on
// the teacher's internal/storage/sqlite/ids.go hash-ID generator, simplified
// to the flat (non-hierarchical) ID space and fixed retry budget spec.md
// §4.2 specifies.
package ids

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"
)

const (
	// DefaultLength is the number of lowercase hex characters (from a SHA-256
	// digest) generated after the prefix and separating hyphen.
	DefaultLength = 8
	// MaxCreateAttempts bounds ID-collision retries on create (spec.md §4.2).
	MaxCreateAttempts = 3
)

var idPattern = regexp.MustCompile(`^[a-z0-9]+-[a-z0-9]{6,}$`)

// Valid reports whether id matches the storage-level CHECK constraint's
// regex and the 8-16 character length bound.
func Valid(id string) bool {
	if len(id) < 8 || len(id) > 16 {
		return false
	}
	return idPattern.MatchString(id)
}

// Generate produces a candidate ID deterministically from the task's
// content and a nonce, so retried attempts after a collision produce a
// different candidate without any shared mutable counter.
func Generate(prefix, title, description string, createdAt time.Time, nonce int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d|%d", prefix, title, description, createdAt.UnixNano(), nonce)
	sum := hex.EncodeToString(h.Sum(nil))
	return prefix + "-" + sum[:DefaultLength]
}
