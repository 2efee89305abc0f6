// Package integrity maintains trusted content hashes for chart datasets.
//
// The first successful load of a chart captures its SHA-256 as the trusted
// hash (first-use trust). Every later load of the same chart is classified
// against that record: a match bumps the verification timestamp, a mismatch
// surfaces as an error and never overwrites the stored hash.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Classification is the registry's verdict on a freshly computed dataset hash
type Classification string

const (
	// FirstObservation means no trusted hash existed for the chart yet;
	// the caller must Commit the computed hash to capture trust.
	FirstObservation Classification = "first_observation"
	// Match means the computed hash equals the trusted hash
	Match Classification = "match"
	// Mismatch means the computed hash disagrees with the trusted hash.
	// Terminal: the registry never auto-heals a mismatch.
	Mismatch Classification = "mismatch"
)

// Record is the trusted integrity state of one chart cell
type Record struct {
	ChartID         string     `json:"chart_id"`
	ContentHash     string     `json:"content_hash"` // 64 lowercase hex chars (SHA-256)
	FirstObservedAt time.Time  `json:"first_observed_at"`
	LastVerifiedAt  *time.Time `json:"last_verified_at,omitempty"`
}

// HashDataset computes the SHA-256 of the extracted dataset bytes,
// hex-encoded lowercase. The hash covers the decompressed dataset, not the
// archive container.
func HashDataset(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ValidHash reports whether s is a well-formed content hash:
// exactly 64 lowercase hex characters.
func ValidHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
