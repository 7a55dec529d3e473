package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bcnelson/yatube/internal/domain"
	"github.com/bcnelson/yatube/internal/storage"
)

// Store is an in-memory implementation of the storage interface for testing.
// Foreign key policies are taken from domain.Relations.
type Store struct {
	mu sync.RWMutex

	apiKeys map[string]*domain.APIKey
	users   map[int64]*domain.User
	groups  map[int64]*domain.Group
	posts   map[int64]*domain.Post

	nextUserID  int64
	nextGroupID int64
	nextPostID  int64
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		apiKeys: make(map[string]*domain.APIKey),
		users:   make(map[int64]*domain.User),
		groups:  make(map[int64]*domain.Group),
		posts:   make(map[int64]*domain.Post),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return &Tx{Store: s}, nil
}

// Tx is a no-op transaction for the in-memory store. Writes are applied
// immediately and Rollback does not undo them.
type Tx struct {
	*Store
}

func (t *Tx) Commit() error   { return nil }
func (t *Tx) Rollback() error { return nil }
func (t *Tx) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return nil, domain.ErrInvalidInput
}

// ============================================
// API Keys
// ============================================

func (s *Store) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.apiKeys[key.ID]; exists {
		return domain.ErrAlreadyExists
	}
	for _, k := range s.apiKeys {
		if k.KeyHash == key.KeyHash {
			return domain.ErrAlreadyExists
		}
	}
	c := *key
	s.apiKeys[key.ID] = &c
	return nil
}

func (s *Store) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, key := range s.apiKeys {
		if key.KeyHash == keyHash {
			c := *key
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]*domain.APIKey, 0, len(s.apiKeys))
	for _, key := range s.apiKeys {
		c := *key
		keys = append(keys, &c)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})
	return keys, nil
}

func (s *Store) DeleteAPIKey(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.apiKeys[id]; !exists {
		return domain.ErrNotFound
	}
	delete(s.apiKeys, id)
	return nil
}

func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key, exists := s.apiKeys[id]; exists {
		now := time.Now().UTC()
		key.LastUsedAt = &now
	}
	return nil
}

func (s *Store) CountAPIKeys(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.apiKeys), nil
}

// ============================================
// Users
// ============================================

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username || (user.Email != "" && u.Email == user.Email) {
			return domain.ErrAlreadyExists
		}
	}
	s.nextUserID++
	user.ID = s.nextUserID
	c := *user
	s.users[user.ID] = &c
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (s *Store) findUser(match func(*domain.User) bool) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findUser(func(u *domain.User) bool { return u.Username == username })
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, domain.ErrNotFound
	}
	return s.findUser(func(u *domain.User) bool { return u.Email == email })
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.users, id)
	s.applyOnDelete("author_id", id)
	return nil
}

// ============================================
// Groups
// ============================================

func (s *Store) CreateGroup(ctx context.Context, group *domain.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.groups {
		if g.Slug == group.Slug {
			return domain.ErrAlreadyExists
		}
	}
	s.nextGroupID++
	group.ID = s.nextGroupID
	c := *group
	s.groups[group.ID] = &c
	return nil
}

func (s *Store) GetGroup(ctx context.Context, id int64) (*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *g
	return &c, nil
}

func (s *Store) GetGroupBySlug(ctx context.Context, slug string) (*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.groups {
		if g.Slug == slug {
			c := *g
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) ListGroups(ctx context.Context) ([]*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]*domain.Group, 0, len(s.groups))
	for _, g := range s.groups {
		c := *g
		groups = append(groups, &c)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Title != groups[j].Title {
			return groups[i].Title < groups[j].Title
		}
		return groups[i].ID < groups[j].ID
	})
	return groups, nil
}

func (s *Store) UpdateGroup(ctx context.Context, group *domain.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[group.ID]
	if !ok {
		return domain.ErrNotFound
	}
	g.Title = group.Title
	g.Description = group.Description
	return nil
}

func (s *Store) DeleteGroup(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.groups, id)
	s.applyOnDelete("group_id", id)
	return nil
}

// applyOnDelete applies the declared policy of posts.<column> to the posts
// referencing the deleted row. Callers hold the write lock.
func (s *Store) applyOnDelete(column string, id int64) {
	rel, ok := domain.RelationFor("posts", column)
	if !ok {
		return
	}
	for pid, p := range s.posts {
		var refs bool
		switch column {
		case "author_id":
			refs = p.AuthorID == id
		case "group_id":
			refs = p.GroupID != nil && *p.GroupID == id
		}
		if !refs {
			continue
		}
		switch rel.OnDelete {
		case domain.Cascade:
			delete(s.posts, pid)
		case domain.SetNull:
			if column == "group_id" {
				p.GroupID = nil
			}
		}
	}
}

// ============================================
// Posts
// ============================================

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[post.AuthorID]; !ok {
		return domain.ErrInvalidInput
	}
	if post.GroupID != nil {
		if _, ok := s.groups[*post.GroupID]; !ok {
			return domain.ErrInvalidInput
		}
	}
	s.nextPostID++
	post.ID = s.nextPostID
	c := *post
	c.GroupID = copyID(post.GroupID)
	c.Author = ""
	c.Group = nil
	s.posts[post.ID] = &c
	return nil
}

func (s *Store) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.resolve(p), nil
}

// resolve copies p and fills in the author and group. Callers hold a lock.
func (s *Store) resolve(p *domain.Post) *domain.Post {
	c := *p
	c.GroupID = copyID(p.GroupID)
	if u, ok := s.users[p.AuthorID]; ok {
		c.Author = u.Username
	}
	if p.GroupID != nil {
		if g, ok := s.groups[*p.GroupID]; ok {
			c.Group = &domain.GroupBrief{Title: g.Title, Slug: g.Slug}
		}
	}
	return &c
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func matches(p *domain.Post, filter domain.PostFilter) bool {
	if filter.GroupID != 0 && (p.GroupID == nil || *p.GroupID != filter.GroupID) {
		return false
	}
	if filter.AuthorID != 0 && p.AuthorID != filter.AuthorID {
		return false
	}
	if q := strings.TrimSpace(filter.Query); q != "" &&
		!strings.Contains(strings.ToLower(p.Text), strings.ToLower(q)) {
		return false
	}
	return true
}

func (s *Store) ListPosts(ctx context.Context, filter domain.PostFilter) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*domain.Post, 0)
	for _, p := range s.posts {
		if matches(p, filter) {
			posts = append(posts, s.resolve(p))
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].PubDate.Equal(posts[j].PubDate) {
			return posts[i].PubDate.After(posts[j].PubDate)
		}
		return posts[i].ID > posts[j].ID
	})
	return posts, nil
}

func (s *Store) ListPostsPage(ctx context.Context, filter domain.PostFilter, limit, offset int) ([]*domain.Post, error) {
	posts, err := s.ListPosts(ctx, filter)
	if err != nil {
		return nil, err
	}
	if offset >= len(posts) {
		return []*domain.Post{}, nil
	}
	end := min(offset+limit, len(posts))
	return posts[offset:end], nil
}

func (s *Store) CountPosts(ctx context.Context, filter domain.PostFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range s.posts {
		if matches(p, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) UpdatePost(ctx context.Context, id int64, patch domain.PostPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return domain.ErrNotFound
	}
	if patch.GroupID != nil {
		if _, ok := s.groups[*patch.GroupID]; !ok {
			return domain.ErrInvalidInput
		}
	}
	p.Text = patch.Text
	p.GroupID = copyID(patch.GroupID)
	return nil
}
