package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bcnelson/yatube/internal/domain"
	"github.com/bcnelson/yatube/internal/pagination"
	"github.com/bcnelson/yatube/internal/storage"
	"github.com/bcnelson/yatube/internal/validation"
)

// PostPage is one page of a post listing.
type PostPage = pagination.Page[*domain.Post]

// GroupPosts is the listing of one group.
type GroupPosts struct {
	Group *domain.Group
	Page  PostPage
}

// AuthorPosts is the profile listing of one author.
type AuthorPosts struct {
	Author    *domain.User
	PostCount int
	Page      PostPage
}

// PostDetail is a single post with its author's post count.
type PostDetail struct {
	Post            *domain.Post
	AuthorPostCount int
}

// PostService serves the read paths and the authoring workflow.
type PostService struct {
	store    storage.Storage
	pageSize int
	logger   *slog.Logger
	now      func() time.Time
}

// NewPostService creates a new PostService.
func NewPostService(store storage.Storage, pageSize int, logger *slog.Logger) *PostService {
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostService{
		store:    store,
		pageSize: pageSize,
		logger:   logger,
		now:      time.Now,
	}
}

// PageSize returns the number of posts per page.
func (s *PostService) PageSize() int {
	return s.pageSize
}

// page counts the posts matching filter and loads the requested page. Both
// reads run in one transaction so the total agrees with the items.
func (s *PostService) page(ctx context.Context, filter domain.PostFilter, raw string) (PostPage, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return PostPage{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	total, err := tx.CountPosts(ctx, filter)
	if err != nil {
		return PostPage{}, fmt.Errorf("counting posts: %w", err)
	}
	w := pagination.Resolve(total, s.pageSize, raw)
	posts, err := tx.ListPostsPage(ctx, filter, w.Limit(), w.Offset())
	if err != nil {
		return PostPage{}, fmt.Errorf("listing posts: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return PostPage{}, fmt.Errorf("committing transaction: %w", err)
	}
	return pagination.NewPage(w, posts), nil
}

// ListAllPosts returns a page of every post, most recent first.
func (s *PostService) ListAllPosts(ctx context.Context, page string) (PostPage, error) {
	return s.page(ctx, domain.PostFilter{}, page)
}

// ListPostsByGroup returns the group with the given slug and a page of its
// posts. It returns domain.ErrNotFound when no group has that slug.
func (s *PostService) ListPostsByGroup(ctx context.Context, slug, page string) (*GroupPosts, error) {
	group, err := s.store.GetGroupBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("loading group %q: %w", slug, err)
	}
	p, err := s.page(ctx, domain.PostFilter{GroupID: group.ID}, page)
	if err != nil {
		return nil, err
	}
	return &GroupPosts{Group: group, Page: p}, nil
}

// ListPostsByAuthor returns the user with the given username and a page of
// their posts. It returns domain.ErrNotFound when no user has that username.
func (s *PostService) ListPostsByAuthor(ctx context.Context, username, page string) (*AuthorPosts, error) {
	author, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("loading author %q: %w", username, err)
	}
	p, err := s.page(ctx, domain.PostFilter{AuthorID: author.ID}, page)
	if err != nil {
		return nil, err
	}
	return &AuthorPosts{Author: author, PostCount: p.TotalItems, Page: p}, nil
}

// SearchPosts returns a page of posts whose text contains query.
// An empty or blank query matches nothing.
func (s *PostService) SearchPosts(ctx context.Context, query, page string) (PostPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return pagination.NewPage[*domain.Post](pagination.Resolve(0, s.pageSize, page), nil), nil
	}
	return s.page(ctx, domain.PostFilter{Query: query}, page)
}

// GetPost returns the post with the given id or domain.ErrNotFound.
func (s *PostService) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading post %d: %w", id, err)
	}
	return post, nil
}

// PostDetail returns the post with the number of posts of its author.
func (s *PostService) PostDetail(ctx context.Context, id int64) (*PostDetail, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.store.CountPosts(ctx, domain.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return nil, fmt.Errorf("counting posts: %w", err)
	}
	return &PostDetail{Post: post, AuthorPostCount: count}, nil
}

// ListGroups returns every group, for the group selector of the post form.
func (s *PostService) ListGroups(ctx context.Context) ([]*domain.Group, error) {
	return s.store.ListGroups(ctx)
}

// validate runs the field validation and resolves the group reference. An
// unknown group is reported as a validation error on the group field.
func (s *PostService) validate(ctx context.Context, in domain.PostInput) (*validation.PostFields, error) {
	fields, errs := validation.ValidatePost(in)
	if errs.HasErrors() {
		return nil, errs
	}
	if fields.GroupID != nil {
		_, err := s.store.GetGroup(ctx, *fields.GroupID)
		if errors.Is(err, domain.ErrNotFound) {
			errs.Add("group", in.Group, "select a valid group")
			return nil, errs
		}
		if err != nil {
			return nil, fmt.Errorf("loading group %d: %w", *fields.GroupID, err)
		}
	}
	return fields, nil
}

// CreatePost stores a new post authored by who.
//
// Anonymous callers get domain.ErrAuthenticationRequired; invalid input
// yields validation.ValidationErrors. Nothing is stored in either case.
func (s *PostService) CreatePost(ctx context.Context, who Identity, in domain.PostInput) (*domain.Post, error) {
	if !who.IsAuthenticated() {
		return nil, domain.ErrAuthenticationRequired
	}

	fields, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		Text:     fields.Text,
		PubDate:  s.now().UTC(),
		AuthorID: who.UserID,
		GroupID:  fields.GroupID,
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.InfoContext(ctx, "post created", "post_id", post.ID, "author", who.Username)
	return s.GetPost(ctx, post.ID)
}

// authorize loads the post and checks that who may edit it.
func (s *PostService) authorize(ctx context.Context, who Identity, id int64) (*domain.Post, error) {
	if !who.IsAuthenticated() {
		return nil, domain.ErrAuthenticationRequired
	}
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != who.UserID {
		return nil, domain.ErrAuthorizationDenied
	}
	return post, nil
}

// EditForm returns the post for its edit form when who owns it.
func (s *PostService) EditForm(ctx context.Context, who Identity, id int64) (*domain.Post, error) {
	return s.authorize(ctx, who, id)
}

// EditPost overwrites the text and group of a post owned by who.
//
// The author and publication date never change. Concurrent edits of the same
// post are not detected; the last write wins.
func (s *PostService) EditPost(ctx context.Context, who Identity, id int64, in domain.PostInput) (*domain.Post, error) {
	if _, err := s.authorize(ctx, who, id); err != nil {
		return nil, err
	}

	fields, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdatePost(ctx, id, domain.PostPatch{Text: fields.Text, GroupID: fields.GroupID}); err != nil {
		return nil, fmt.Errorf("updating post %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "post edited", "post_id", id, "author", who.Username)
	return s.GetPost(ctx, id)
}
