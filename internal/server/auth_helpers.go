package server

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// hashAPIKey creates a SHA256 hash of an API key for storage
func hashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))
	return fmt.Sprintf("%x", hash)
}

// truncateHash returns a truncated hash for display/logging
// Returns first 16 chars + "..." or the full hash if shorter
func truncateHash(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16] + "..."
}

// newAPIKey returns a fresh "hab_live_" key built from two random UUIDs.
func newAPIKey() (string, error) {
	a, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	b, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return apiKeyPrefix + "live_" + strings.ReplaceAll(a.String()+b.String(), "-", ""), nil
}
