package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bcnelson/yatube/internal/auth"
	"github.com/bcnelson/yatube/internal/domain"
	"github.com/bcnelson/yatube/internal/storage"
	"github.com/bcnelson/yatube/internal/validation"
)

// maxUsernameAttempts bounds the suffixes tried when a provisioned username
// is already taken.
const maxUsernameAttempts = 100

// UserService manages authors and resolves login credentials to identities.
type UserService struct {
	store  storage.Storage
	logger *slog.Logger
	now    func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(store storage.Storage, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{store: store, logger: logger, now: time.Now}
}

// CreateUser validates the request, hashes the password and stores the user.
func (s *UserService) CreateUser(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error) {
	if errs := validation.ValidateUser(req); errs.HasErrors() {
		return nil, errs
	}

	user := &domain.User{
		Username:  req.Username,
		Email:     req.Email,
		CreatedAt: s.now().UTC(),
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user %q: %w", req.Username, err)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// GetUser returns the user with the given username.
func (s *UserService) GetUser(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("loading user %q: %w", username, err)
	}
	return user, nil
}

// DeleteUser removes the user and, through the author relation, their posts.
// The lookup and the delete run in one transaction.
func (s *UserService) DeleteUser(ctx context.Context, username string) error {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	user, err := tx.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("loading user %q: %w", username, err)
	}
	if err := tx.DeleteUser(ctx, user.ID); err != nil {
		return fmt.Errorf("deleting user %q: %w", username, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	s.logger.InfoContext(ctx, "user deleted", "user_id", user.ID, "username", username)
	return nil
}

// Authenticate checks a username and password. Unknown users, users without
// a password and wrong passwords all yield domain.ErrBadCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("loading user %q: %w", username, err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		s.logger.WarnContext(ctx, "stored password hash is unreadable", "username", username, "error", err)
		return nil, domain.ErrBadCredentials
	}
	if !ok {
		return nil, domain.ErrBadCredentials
	}
	return user, nil
}

// ResolveOIDCUser returns the user registered with email, provisioning one
// when none exists. The new username is preferred when it is valid and free,
// otherwise it is derived from the email with a numeric suffix as needed.
func (s *UserService) ResolveOIDCUser(ctx context.Context, email, preferred string) (*domain.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("loading user by email: %w", err)
	}

	base := preferred
	if validation.ValidateUsername(base) != nil {
		base = validation.UsernameFromEmail(email)
	}
	if base == "" {
		base = "author"
	}

	for i := 1; i <= maxUsernameAttempts; i++ {
		candidate := base
		if i > 1 {
			suffix := strconv.Itoa(i)
			candidate = base[:min(len(base), validation.MaxUsernameLength-len(suffix))] + suffix
		}
		user = &domain.User{Username: candidate, Email: email, CreatedAt: s.now().UTC()}
		err := s.store.CreateUser(ctx, user)
		if err == nil {
			s.logger.InfoContext(ctx, "user provisioned from oidc", "user_id", user.ID, "username", candidate)
			return user, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, fmt.Errorf("provisioning user: %w", err)
		}
	}
	return nil, fmt.Errorf("provisioning user for %s: %w", email, domain.ErrAlreadyExists)
}

// IdentityFor resolves a session user id. A user that no longer exists is
// anonymous.
func (s *UserService) IdentityFor(ctx context.Context, userID int64) Identity {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.ErrorContext(ctx, "failed to load session user", "user_id", userID, "error", err)
		}
		return Anonymous()
	}
	return Identity{UserID: user.ID, Username: user.Username}
}
