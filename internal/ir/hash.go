package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainRecording = "soralvi/recording/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecordingID computes the content-addressed ID of a recording.
//
// The ID covers everything a replay depends on: the algorithm source, the
// pristine array, the cursor keys and the action log. ID and RunID are not
// part of it. Algorithms may draw from math.random, so the same source over
// the same permutation can record different logs; each log gets its own ID.
func RecordingID(rec Recording) (string, error) {
	keys := make([]any, len(rec.Keys))
	for i, k := range rec.Keys {
		keys[i] = k
	}
	actions := make([]any, len(rec.Actions))
	for i, a := range rec.Actions {
		actions[i] = a
	}
	canonical, err := MarshalCanonical(map[string]any{
		"source":  rec.Source,
		"initial": rec.Initial,
		"keys":    keys,
		"actions": actions,
	})
	if err != nil {
		return "", fmt.Errorf("RecordingID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRecording, canonical), nil
}

// MustRecordingID is like RecordingID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRecordingID(rec Recording) string {
	id, err := RecordingID(rec)
	if err != nil {
		panic(err)
	}
	return id
}
