// Package integrity hashes protected audit-record fields and detects tampering on read.
//
// Field digests are salted with the record's audit ID and calculation
// timestamp. Both salts are stored in plaintext next to the digests, so the
// scheme detects edits to protected values; it does not stop an attacker who
// can also rewrite the salts and recompute every digest.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Separator joins value, audit ID and timestamp before hashing
const Separator = "|"

func hashBytes(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// FieldHash returns the salted SHA-256 digest of value bound to one record.
func FieldHash(value, auditID string, calculatedAt time.Time) string {
	payload := strings.Join([]string{value, auditID, SaltTimestamp(calculatedAt)}, Separator)
	return hashBytes([]byte(payload))
}

// SaltTimestamp is the canonical text form of calculatedAt used in every digest
func SaltTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// FormatFloat is the canonical text form of a numeric field value
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
