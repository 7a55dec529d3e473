package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// APIKeyPrefix marks keys issued by this service.
const APIKeyPrefix = "ytb_"

// apiKeyVisibleChars is how much of the random part is kept as the
// displayable key prefix.
const apiKeyVisibleChars = 8

// APIKeyMaterial is a freshly generated key. Only Hash and Prefix are stored.
type APIKeyMaterial struct {
	Key    string
	Hash   string
	Prefix string
}

// NewAPIKey generates a random API key.
func NewAPIKey() (APIKeyMaterial, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return APIKeyMaterial{}, fmt.Errorf("reading random bytes: %w", err)
	}
	key := APIKeyPrefix + hex.EncodeToString(raw)
	return APIKeyMaterial{
		Key:    key,
		Hash:   HashAPIKey(key),
		Prefix: key[:len(APIKeyPrefix)+apiKeyVisibleChars],
	}, nil
}

// HashAPIKey returns the hex SHA-256 digest under which a key is looked up.
func HashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}
