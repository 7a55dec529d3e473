package domain

import "time"

// BootstrapKeyID identifies requests authenticated with the bootstrap key,
// which is only accepted while no API key exists.
const BootstrapKeyID = "bootstrap"

// APIKey is an administrative bearer credential for the JSON API.
// Only the SHA-256 hash of the key is stored.
type APIKey struct {
	ID         string     `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	KeyHash    string     `json:"-" db:"key_hash"`
	KeyPrefix  string     `json:"key_prefix" db:"key_prefix"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
}

// IsBootstrap reports whether the key is the configured bootstrap key.
func (k *APIKey) IsBootstrap() bool {
	return k != nil && k.ID == BootstrapKeyID
}

// CreateAPIKeyRequest is the request body for creating an API key.
type CreateAPIKeyRequest struct {
	Name string `json:"name"`
}

// CreateAPIKeyResponse is returned when creating an API key.
// The key itself is only shown here.
type CreateAPIKeyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	KeyPrefix string    `json:"key_prefix"`
	CreatedAt time.Time `json:"created_at"`
}
