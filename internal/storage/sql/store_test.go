package sql

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bcnelson/yatube/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New("sqlite3", filepath.Join(t.TempDir(), "yatube.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

type fixture struct {
	author *domain.User
	other  *domain.User
	group  *domain.Group
}

func seed(t *testing.T, store *Store) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{
		author: &domain.User{Username: "leo", Email: "leo@example.com", CreatedAt: time.Now().UTC()},
		other:  &domain.User{Username: "anna", CreatedAt: time.Now().UTC()},
		group:  &domain.Group{Title: "Cats", Slug: "cats", Description: "All about cats"},
	}
	require.NoError(t, store.CreateUser(ctx, f.author))
	require.NoError(t, store.CreateUser(ctx, f.other))
	require.NoError(t, store.CreateGroup(ctx, f.group))
	return f
}

func addPost(t *testing.T, store *Store, author int64, group *int64, text string, at time.Time) *domain.Post {
	t.Helper()
	p := &domain.Post{Text: text, PubDate: at, AuthorID: author, GroupID: group}
	require.NoError(t, store.CreatePost(context.Background(), p))
	require.NotZero(t, p.ID)
	return p
}

func TestSQLiteDSNEnablesForeignKeys(t *testing.T) {
	assert.Equal(t, "data/x.db?_foreign_keys=on", sqliteDSN("data/x.db"))
	assert.Equal(t, "data/x.db?cache=shared&_foreign_keys=on", sqliteDSN("data/x.db?cache=shared"))
	assert.Equal(t, "data/x.db?_fk=1", sqliteDSN("data/x.db?_fk=1"))
}

func TestPostsOrderedMostRecentFirst(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		addPost(t, store, f.author.ID, nil, "post", base.Add(time.Duration(i)*time.Hour))
	}

	posts, err := store.ListPosts(ctx, domain.PostFilter{})
	require.NoError(t, err)
	require.Len(t, posts, 5)
	for i := 1; i < len(posts); i++ {
		assert.True(t, posts[i-1].PubDate.After(posts[i].PubDate), "posts must be ordered by pub_date desc")
	}
	assert.Equal(t, "leo", posts[0].Author)
}

func TestListPostsFilters(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)
	ctx := context.Background()

	now := time.Now().UTC()
	addPost(t, store, f.author.ID, &f.group.ID, "cats are great", now)
	addPost(t, store, f.author.ID, nil, "dogs 100% fine", now.Add(time.Second))
	addPost(t, store, f.other.ID, &f.group.ID, "More CATS", now.Add(2*time.Second))

	byGroup, err := store.ListPosts(ctx, domain.PostFilter{GroupID: f.group.ID})
	require.NoError(t, err)
	require.Len(t, byGroup, 2)
	for _, p := range byGroup {
		require.NotNil(t, p.Group)
		assert.Equal(t, "cats", p.Group.Slug)
	}

	byAuthor, err := store.ListPosts(ctx, domain.PostFilter{AuthorID: f.author.ID})
	require.NoError(t, err)
	assert.Len(t, byAuthor, 2)

	search, err := store.ListPosts(ctx, domain.PostFilter{Query: "cats"})
	require.NoError(t, err)
	assert.Len(t, search, 2)

	literal, err := store.ListPosts(ctx, domain.PostFilter{Query: "100%"})
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, "dogs 100% fine", literal[0].Text)

	count, err := store.CountPosts(ctx, domain.PostFilter{GroupID: f.group.ID, AuthorID: f.other.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListPostsPage(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 11; i++ {
		addPost(t, store, f.author.ID, nil, "post", base.Add(time.Duration(i)*time.Minute))
	}

	first, err := store.ListPostsPage(ctx, domain.PostFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, first, 10)

	second, err := store.ListPostsPage(ctx, domain.PostFilter{AuthorID: f.author.ID}, 10, 10)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.True(t, second[0].PubDate.Equal(base), "oldest post ends up on the last page")
}

func TestUpdatePostKeepsAuthorAndPubDate(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)
	ctx := context.Background()

	at := time.Date(2023, 5, 1, 8, 30, 0, 0, time.UTC)
	p := addPost(t, store, f.author.ID, nil, "draft", at)

	require.NoError(t, store.UpdatePost(ctx, p.ID, domain.PostPatch{Text: "final", GroupID: &f.group.ID}))

	got, err := store.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Text)
	require.NotNil(t, got.GroupID)
	assert.Equal(t, f.group.ID, *got.GroupID)
	assert.Equal(t, f.author.ID, got.AuthorID)
	assert.True(t, got.PubDate.Equal(at))

	assert.ErrorIs(t, store.UpdatePost(ctx, 9999, domain.PostPatch{Text: "x"}), domain.ErrNotFound)
}

func TestDeleteGroupKeepsPosts(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)
	ctx := context.Background()

	p := addPost(t, store, f.author.ID, &f.group.ID, "in a group", time.Now().UTC())

	require.NoError(t, store.DeleteGroup(ctx, f.group.ID))

	got, err := store.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GroupID)
	assert.Nil(t, got.Group)
	assert.Equal(t, "in a group", got.Text)
}

func TestDeleteUserCascadesPosts(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)
	ctx := context.Background()

	addPost(t, store, f.author.ID, nil, "one", time.Now().UTC())
	addPost(t, store, f.author.ID, nil, "two", time.Now().UTC())
	keep := addPost(t, store, f.other.ID, nil, "three", time.Now().UTC())

	require.NoError(t, store.DeleteUser(ctx, f.author.ID))

	posts, err := store.ListPosts(ctx, domain.PostFilter{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, keep.ID, posts[0].ID)
}

func TestUniqueConstraints(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)
	ctx := context.Background()

	err := store.CreateGroup(ctx, &domain.Group{Title: "Other cats", Slug: "cats"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	err = store.CreateUser(ctx, &domain.User{Username: "leo", CreatedAt: time.Now().UTC()})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	err = store.CreateUser(ctx, &domain.User{Username: "leo2", Email: "leo@example.com", CreatedAt: time.Now().UTC()})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	// Empty emails do not collide.
	require.NoError(t, store.CreateUser(ctx, &domain.User{Username: "masha", CreatedAt: time.Now().UTC()}))
}

func TestLookupsReturnNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetPost(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetGroupBySlug(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetUserByEmail(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.DeleteGroup(ctx, 42), domain.ErrNotFound)
}

func TestSearchFoldsUnicodeCase(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)
	ctx := context.Background()

	addPost(t, store, f.author.ID, nil, "Привет мир", time.Now().UTC())
	addPost(t, store, f.author.ID, nil, "ÜBER cats", time.Now().UTC())
	addPost(t, store, f.author.ID, nil, "plain ascii", time.Now().UTC())

	count, err := store.CountPosts(ctx, domain.PostFilter{Query: "привет"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	posts, err := store.ListPostsPage(ctx, domain.PostFilter{Query: "über"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "ÜBER cats", posts[0].Text)
}

func TestTransactionRollback(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.CreateGroup(ctx, &domain.Group{Title: "Tmp", Slug: "tmp"}))
	require.NoError(t, tx.Rollback())

	_, err = store.GetGroupBySlug(ctx, "tmp")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
