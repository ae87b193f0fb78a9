package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainQuery = "hyperblame/query/v1"
)

// Query kinds recorded in the results log.
const (
	QueryReattribute = "reattribute"
	QueryLastTouched = "last_touched"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// QueryID computes the content-addressed id of a provenance query.
// Two runs asking the same question (kind, target, ignore set) share a
// QueryID regardless of ignore-set ordering.
func QueryID(kind string, target RevPath, ignore ChangeSet) (string, error) {
	obj := map[string]any{
		"kind":   kind,
		"target": target,
		"ignore": ignore.Sorted(),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("QueryID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainQuery, canonical), nil
}

// MustQueryID is like QueryID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustQueryID(kind string, target RevPath, ignore ChangeSet) string {
	id, err := QueryID(kind, target, ignore)
	if err != nil {
		panic(err)
	}
	return id
}
