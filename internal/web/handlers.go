package web

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bcnelson/yatube/internal/domain"
	"github.com/bcnelson/yatube/internal/service"
)

// ListingData holds data for the index and search pages.
type ListingData struct {
	Page  service.PostPage
	Path  string
	Query string
}

// handleIndex renders the feed of every post.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := s.posts.ListAllPosts(r.Context(), r.URL.Query().Get("page"))
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "index", PageData{
		Title:   "Latest posts",
		Active:  "index",
		Content: ListingData{Page: page, Path: "/"},
	})
}

// GroupData holds data for the group page.
type GroupData struct {
	Group *domain.Group
	Page  service.PostPage
	Path  string
}

// handleGroupPosts renders the posts of one group.
func (s *Server) handleGroupPosts(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	gp, err := s.posts.ListPostsByGroup(r.Context(), slug, r.URL.Query().Get("page"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "group_list", PageData{
		Title:   gp.Group.Title,
		Content: GroupData{Group: gp.Group, Page: gp.Page, Path: r.URL.Path},
	})
}

// ProfileData holds data for the profile page.
type ProfileData struct {
	Author    *domain.User
	PostCount int
	Page      service.PostPage
	Path      string
}

// handleProfile renders the posts of one author.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	ap, err := s.posts.ListPostsByAuthor(r.Context(), username, r.URL.Query().Get("page"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "profile", PageData{
		Title:   "Posts by " + ap.Author.Username,
		Content: ProfileData{Author: ap.Author, PostCount: ap.PostCount, Page: ap.Page, Path: r.URL.Path},
	})
}

// PostDetailData holds data for the post page.
type PostDetailData struct {
	Post            *domain.Post
	AuthorPostCount int
	CanEdit         bool
}

// handlePostDetail renders a single post.
func (s *Server) handlePostDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePostID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound)
		return
	}

	detail, err := s.posts.PostDetail(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	who := getIdentity(r.Context())
	s.render(w, r, http.StatusOK, "post_detail", PageData{
		Title: "Post " + detail.Post.String(),
		Content: PostDetailData{
			Post:            detail.Post,
			AuthorPostCount: detail.AuthorPostCount,
			CanEdit:         who.IsAuthenticated() && who.UserID == detail.Post.AuthorID,
		},
	})
}

// handleSearch renders the posts whose text contains the q parameter.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	page, err := s.posts.SearchPosts(r.Context(), q, r.URL.Query().Get("page"))
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "search", PageData{
		Title:   "Search",
		Active:  "search",
		Content: ListingData{Page: page, Path: "/search/", Query: q},
	})
}

// handleError maps service errors to responses.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.renderError(w, r, http.StatusNotFound)
	case errors.Is(err, domain.ErrAuthenticationRequired):
		redirectToLogin(w, r)
	default:
		s.serverError(w, r, err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	s.renderError(w, r, http.StatusInternalServerError)
}

// render renders a full page using the base template. The page is rendered
// into a buffer first so that template errors still produce a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data PageData) {
	tmpl, ok := s.templates[page]
	if !ok {
		http.Error(w, "Template not found: "+page, http.StatusInternalServerError)
		return
	}

	data.User = getIdentity(r.Context())
	data.OIDCEnabled = s.oidc != nil
	if data.Flash == nil {
		if msg := s.sessions.Flash(w, r); msg != "" {
			data.Flash = &FlashMessage{Type: "success", Message: msg}
		}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		s.logger.ErrorContext(r.Context(), "template error", "page", page, "error", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// ErrorData holds data for the error page.
type ErrorData struct {
	Status  int
	Message string
}

// renderError renders the error page with the given status.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int) {
	msg := http.StatusText(status)
	if status == http.StatusNotFound {
		msg = "The page you are looking for does not exist."
	}
	s.render(w, r, status, "error", PageData{
		Title:   http.StatusText(status),
		Content: ErrorData{Status: status, Message: msg},
	})
}
