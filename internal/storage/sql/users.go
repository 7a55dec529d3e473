package sql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bcnelson/yatube/internal/domain"
)

const userColumns = `id, username, email, password_hash, created_at`

func createUser(ctx context.Context, db dbInterface, user *domain.User) error {
	err := db.GetContext(ctx, &user.ID,
		`INSERT INTO users (username, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	return wrapUniqueError(err)
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	return createUser(ctx, s.db, user)
}

func (t *Tx) CreateUser(ctx context.Context, user *domain.User) error {
	return createUser(ctx, t.tx, user)
}

func getUserWhere(ctx context.Context, db dbInterface, where string, arg any) (*domain.User, error) {
	var user domain.User
	err := db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return getUserWhere(ctx, s.db, `id = $1`, id)
}

func (t *Tx) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return getUserWhere(ctx, t.tx, `id = $1`, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return getUserWhere(ctx, s.db, `username = $1`, username)
}

func (t *Tx) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return getUserWhere(ctx, t.tx, `username = $1`, username)
}

func getUserByEmail(ctx context.Context, db dbInterface, email string) (*domain.User, error) {
	if email == "" {
		return nil, domain.ErrNotFound
	}
	return getUserWhere(ctx, db, `email = $1`, email)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return getUserByEmail(ctx, s.db, email)
}

func (t *Tx) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return getUserByEmail(ctx, t.tx, email)
}

// Posts of the user go with it (ON DELETE CASCADE).
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return execAffectingOne(ctx, s.db, `DELETE FROM users WHERE id = $1`, id)
}

func (t *Tx) DeleteUser(ctx context.Context, id int64) error {
	return execAffectingOne(ctx, t.tx, `DELETE FROM users WHERE id = $1`, id)
}
