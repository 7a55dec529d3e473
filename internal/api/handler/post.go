package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bcnelson/yatube/internal/domain"
	"github.com/bcnelson/yatube/internal/service"
)

// PostHandler exposes the post listings read-only.
type PostHandler struct {
	posts *service.PostService
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// List returns a page of posts, most recent first. With q set only posts
// whose text contains q are listed.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		page service.PostPage
		err  error
	)
	if query := q.Get("q"); query != "" {
		page, err = h.posts.SearchPosts(r.Context(), query, q.Get("page"))
	} else {
		page, err = h.posts.ListAllPosts(r.Context(), q.Get("page"))
	}
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &domain.PostResponse{
		Posts:      page.Items,
		Page:       page.Number,
		TotalPages: page.TotalPages,
		TotalPosts: page.TotalItems,
	})
}

// Get gets a post by id.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		handleError(w, domain.ErrNotFound)
		return
	}

	post, err := h.posts.GetPost(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, post)
}
