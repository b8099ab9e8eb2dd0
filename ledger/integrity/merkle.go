package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Root aggregation schemes
const (
	SchemeFlat   = "flat"
	SchemeBinary = "binary"
)

// ValidScheme reports whether scheme names a supported root aggregation
func ValidScheme(scheme string) bool {
	return scheme == SchemeFlat || scheme == SchemeBinary
}

// Root computes the record root with the named scheme. An empty scheme is
// flat; an unknown scheme yields "" so that verification fails.
func Root(scheme string, fieldHashes map[string]string) string {
	switch scheme {
	case "", SchemeFlat:
		return RootHash(fieldHashes)
	case SchemeBinary:
		return BinaryRoot(fieldHashes)
	default:
		return ""
	}
}

// RootHash concatenates the field digests in field-name order and hashes the result.
// Single level: enough to detect a changed digest, not to produce inclusion proofs.
func RootHash(fieldHashes map[string]string) string {
	var combined []byte
	for _, name := range sortedNames(fieldHashes) {
		combined = append(combined, fieldHashes[name]...)
	}
	return hashBytes(combined)
}

// BinaryRoot builds a binary Merkle tree over the field digests in field-name
// order, duplicating the last node of odd levels. Returns "" for no fields or
// a digest that is not valid hex.
func BinaryRoot(fieldHashes map[string]string) string {
	names := sortedNames(fieldHashes)
	if len(names) == 0 {
		return ""
	}
	level := make([][]byte, 0, len(names))
	for _, name := range names {
		b, err := hex.DecodeString(fieldHashes[name])
		if err != nil {
			return ""
		}
		level = append(level, b)
	}
	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, hashPair(left, right))
		}
		level = next
	}
	return hex.EncodeToString(level[0])
}

func hashPair(left, right []byte) []byte {
	h := sha256.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
