package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/bcnelson/yatube/internal/domain"
)

const postSelect = `SELECT p.id, p.text, p.pub_date, p.author_id, p.group_id,
	u.username AS author, g.title AS group_title, g.slug AS group_slug
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN groups g ON g.id = p.group_id`

const postOrder = ` ORDER BY p.pub_date DESC, p.id DESC`

// postRow is a post joined with its author and group.
type postRow struct {
	domain.Post
	GroupTitle sql.NullString `db:"group_title"`
	GroupSlug  sql.NullString `db:"group_slug"`
}

func (r *postRow) toDomain() *domain.Post {
	p := r.Post
	if r.GroupSlug.Valid {
		p.Group = &domain.GroupBrief{Title: r.GroupTitle.String, Slug: r.GroupSlug.String}
	}
	return &p
}

func toPosts(rows []postRow) []*domain.Post {
	posts := make([]*domain.Post, 0, len(rows))
	for i := range rows {
		posts = append(posts, rows[i].toDomain())
	}
	return posts
}

// escapeLike escapes LIKE wildcards so the query matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// filterClause builds the WHERE clause for filter. Placeholders start at $1.
func filterClause(filter domain.PostFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.GroupID != 0 {
		args = append(args, filter.GroupID)
		conds = append(conds, fmt.Sprintf("p.group_id = $%d", len(args)))
	}
	if filter.AuthorID != 0 {
		args = append(args, filter.AuthorID)
		conds = append(conds, fmt.Sprintf("p.author_id = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(q))+"%")
		conds = append(conds, fmt.Sprintf(`LOWER(p.text) LIKE $%d ESCAPE '\'`, len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func createPost(ctx context.Context, db dbInterface, post *domain.Post) error {
	return db.GetContext(ctx, &post.ID,
		`INSERT INTO posts (text, pub_date, author_id, group_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		post.Text, post.PubDate, post.AuthorID, post.GroupID)
}

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) error {
	return createPost(ctx, s.db, post)
}

func (t *Tx) CreatePost(ctx context.Context, post *domain.Post) error {
	return createPost(ctx, t.tx, post)
}

func getPost(ctx context.Context, db dbInterface, id int64) (*domain.Post, error) {
	var row postRow
	err := db.GetContext(ctx, &row, postSelect+` WHERE p.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (s *Store) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	return getPost(ctx, s.db, id)
}

func (t *Tx) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	return getPost(ctx, t.tx, id)
}

func listPosts(ctx context.Context, db dbInterface, filter domain.PostFilter) ([]*domain.Post, error) {
	where, args := filterClause(filter)
	var rows []postRow
	if err := db.SelectContext(ctx, &rows, postSelect+where+postOrder, args...); err != nil {
		return nil, err
	}
	return toPosts(rows), nil
}

func (s *Store) ListPosts(ctx context.Context, filter domain.PostFilter) ([]*domain.Post, error) {
	return listPosts(ctx, s.db, filter)
}

func (t *Tx) ListPosts(ctx context.Context, filter domain.PostFilter) ([]*domain.Post, error) {
	return listPosts(ctx, t.tx, filter)
}

func listPostsPage(ctx context.Context, db dbInterface, filter domain.PostFilter, limit, offset int) ([]*domain.Post, error) {
	where, args := filterClause(filter)
	args = append(args, limit, offset)
	query := postSelect + where + postOrder +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var rows []postRow
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return toPosts(rows), nil
}

func (s *Store) ListPostsPage(ctx context.Context, filter domain.PostFilter, limit, offset int) ([]*domain.Post, error) {
	return listPostsPage(ctx, s.db, filter, limit, offset)
}

func (t *Tx) ListPostsPage(ctx context.Context, filter domain.PostFilter, limit, offset int) ([]*domain.Post, error) {
	return listPostsPage(ctx, t.tx, filter, limit, offset)
}

func countPosts(ctx context.Context, db dbInterface, filter domain.PostFilter) (int, error) {
	where, args := filterClause(filter)
	var count int
	err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM posts p`+where, args...)
	return count, err
}

func (s *Store) CountPosts(ctx context.Context, filter domain.PostFilter) (int, error) {
	return countPosts(ctx, s.db, filter)
}

func (t *Tx) CountPosts(ctx context.Context, filter domain.PostFilter) (int, error) {
	return countPosts(ctx, t.tx, filter)
}

// updatePost overwrites text and group. Author and pub_date are not touched.
func updatePost(ctx context.Context, db dbInterface, id int64, patch domain.PostPatch) error {
	return execAffectingOne(ctx, db,
		`UPDATE posts SET text = $1, group_id = $2 WHERE id = $3`,
		patch.Text, patch.GroupID, id)
}

func (s *Store) UpdatePost(ctx context.Context, id int64, patch domain.PostPatch) error {
	return updatePost(ctx, s.db, id, patch)
}

func (t *Tx) UpdatePost(ctx context.Context, id int64, patch domain.PostPatch) error {
	return updatePost(ctx, t.tx, id, patch)
}
