package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bcnelson/yatube/internal/auth"
	"github.com/bcnelson/yatube/internal/domain"
	"github.com/bcnelson/yatube/internal/storage"
	"github.com/bcnelson/yatube/internal/validation"
)

// KeyService issues and revokes the API keys of the admin API.
type KeyService struct {
	store  storage.Storage
	logger *slog.Logger
	now    func() time.Time
}

// NewKeyService creates a KeyService.
func NewKeyService(store storage.Storage, logger *slog.Logger) *KeyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &KeyService{store: store, logger: logger, now: time.Now}
}

// Issue creates a key named name. The plaintext key is only returned here.
func (s *KeyService) Issue(ctx context.Context, name string) (*domain.CreateAPIKeyResponse, error) {
	name, verrs := validation.ValidateAPIKeyName(name)
	if verrs.HasErrors() {
		return nil, verrs
	}

	material, err := auth.NewAPIKey()
	if err != nil {
		return nil, fmt.Errorf("generating api key: %w", err)
	}
	key := &domain.APIKey{
		ID:        uuid.NewString(),
		Name:      name,
		KeyHash:   material.Hash,
		KeyPrefix: material.Prefix,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateAPIKey(ctx, key); err != nil {
		return nil, fmt.Errorf("storing api key: %w", err)
	}

	s.logger.InfoContext(ctx, "api key issued", "key_id", key.ID, "name", key.Name)
	return &domain.CreateAPIKeyResponse{
		ID:        key.ID,
		Name:      key.Name,
		Key:       material.Key,
		KeyPrefix: key.KeyPrefix,
		CreatedAt: key.CreatedAt,
	}, nil
}

// List returns every key, newest first, without key material.
func (s *KeyService) List(ctx context.Context) ([]*domain.APIKey, error) {
	keys, err := s.store.ListAPIKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	return keys, nil
}

// Revoke deletes the key with the given id. The last remaining key cannot be
// revoked: with no keys left the bootstrap key would be accepted again.
func (s *KeyService) Revoke(ctx context.Context, id string) error {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	keys, err := tx.ListAPIKeys(ctx)
	if err != nil {
		return fmt.Errorf("listing api keys: %w", err)
	}
	found := false
	for _, k := range keys {
		if k.ID == id {
			found = true
			break
		}
	}
	switch {
	case !found:
		return fmt.Errorf("api key %s: %w", id, domain.ErrNotFound)
	case len(keys) == 1:
		return domain.ErrLastAPIKey
	}

	if err := tx.DeleteAPIKey(ctx, id); err != nil {
		return fmt.Errorf("deleting api key %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	s.logger.InfoContext(ctx, "api key revoked", "key_id", id)
	return nil
}
