package sql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bcnelson/yatube/internal/domain"
)

const groupColumns = `id, title, slug, description`

func createGroup(ctx context.Context, db dbInterface, group *domain.Group) error {
	err := db.GetContext(ctx, &group.ID,
		`INSERT INTO groups (title, slug, description) VALUES ($1, $2, $3) RETURNING id`,
		group.Title, group.Slug, group.Description)
	return wrapUniqueError(err)
}

func (s *Store) CreateGroup(ctx context.Context, group *domain.Group) error {
	return createGroup(ctx, s.db, group)
}

func (t *Tx) CreateGroup(ctx context.Context, group *domain.Group) error {
	return createGroup(ctx, t.tx, group)
}

func getGroupWhere(ctx context.Context, db dbInterface, where string, arg any) (*domain.Group, error) {
	var group domain.Group
	err := db.GetContext(ctx, &group, `SELECT `+groupColumns+` FROM groups WHERE `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (s *Store) GetGroup(ctx context.Context, id int64) (*domain.Group, error) {
	return getGroupWhere(ctx, s.db, `id = $1`, id)
}

func (t *Tx) GetGroup(ctx context.Context, id int64) (*domain.Group, error) {
	return getGroupWhere(ctx, t.tx, `id = $1`, id)
}

func (s *Store) GetGroupBySlug(ctx context.Context, slug string) (*domain.Group, error) {
	return getGroupWhere(ctx, s.db, `slug = $1`, slug)
}

func (t *Tx) GetGroupBySlug(ctx context.Context, slug string) (*domain.Group, error) {
	return getGroupWhere(ctx, t.tx, `slug = $1`, slug)
}

func listGroups(ctx context.Context, db dbInterface) ([]*domain.Group, error) {
	groups := []*domain.Group{}
	err := db.SelectContext(ctx, &groups, `SELECT `+groupColumns+` FROM groups ORDER BY title, id`)
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (s *Store) ListGroups(ctx context.Context) ([]*domain.Group, error) {
	return listGroups(ctx, s.db)
}

func (t *Tx) ListGroups(ctx context.Context) ([]*domain.Group, error) {
	return listGroups(ctx, t.tx)
}

// updateGroup rewrites title and description. The slug stays as created.
func updateGroup(ctx context.Context, db dbInterface, group *domain.Group) error {
	return execAffectingOne(ctx, db,
		`UPDATE groups SET title = $1, description = $2 WHERE id = $3`,
		group.Title, group.Description, group.ID)
}

func (s *Store) UpdateGroup(ctx context.Context, group *domain.Group) error {
	return updateGroup(ctx, s.db, group)
}

func (t *Tx) UpdateGroup(ctx context.Context, group *domain.Group) error {
	return updateGroup(ctx, t.tx, group)
}

// Posts of the group are kept with a NULL group (ON DELETE SET NULL).
func (s *Store) DeleteGroup(ctx context.Context, id int64) error {
	return execAffectingOne(ctx, s.db, `DELETE FROM groups WHERE id = $1`, id)
}

func (t *Tx) DeleteGroup(ctx context.Context, id int64) error {
	return execAffectingOne(ctx, t.tx, `DELETE FROM groups WHERE id = $1`, id)
}
