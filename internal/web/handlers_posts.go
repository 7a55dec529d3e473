package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bcnelson/yatube/internal/domain"
	"github.com/bcnelson/yatube/internal/validation"
)

// PostFormData holds data for the post create/edit form.
type PostFormData struct {
	IsEdit bool
	PostID int64
	Input  domain.PostInput
	Groups []*domain.Group
	Errors map[string][]string
}

// handlePostCreateForm renders an empty post form.
func (s *Server) handlePostCreateForm(w http.ResponseWriter, r *http.Request) {
	s.renderPostForm(w, r, http.StatusOK, PostFormData{})
}

// handlePostCreate creates a post and redirects to the author's profile.
func (s *Server) handlePostCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := s.readPostForm(w, r)
	if !ok {
		return
	}

	who := getIdentity(r.Context())
	_, err := s.posts.CreatePost(r.Context(), who, in)
	if err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			s.renderPostForm(w, r, http.StatusOK, PostFormData{Input: in, Errors: verrs.ByField()})
			return
		}
		s.handleError(w, r, err)
		return
	}

	_ = s.sessions.AddFlash(w, r, "Post published.")
	http.Redirect(w, r, profileURL(who.Username), http.StatusSeeOther)
}

// handlePostEditForm renders the edit form for a post the caller owns.
func (s *Server) handlePostEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePostID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound)
		return
	}

	post, err := s.posts.EditForm(r.Context(), getIdentity(r.Context()), id)
	if err != nil {
		s.handleEditError(w, r, id, err)
		return
	}

	in := domain.PostInput{Text: post.Text}
	if post.GroupID != nil {
		in.Group = strconv.FormatInt(*post.GroupID, 10)
	}
	s.renderPostForm(w, r, http.StatusOK, PostFormData{IsEdit: true, PostID: id, Input: in})
}

// handlePostEdit saves an edit and redirects to the post.
func (s *Server) handlePostEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePostID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound)
		return
	}

	in, ok := s.readPostForm(w, r)
	if !ok {
		return
	}

	_, err := s.posts.EditPost(r.Context(), getIdentity(r.Context()), id, in)
	if err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			s.renderPostForm(w, r, http.StatusOK, PostFormData{IsEdit: true, PostID: id, Input: in, Errors: verrs.ByField()})
			return
		}
		s.handleEditError(w, r, id, err)
		return
	}

	_ = s.sessions.AddFlash(w, r, "Post saved.")
	http.Redirect(w, r, postURL(id), http.StatusSeeOther)
}

// handleEditError sends a caller who does not own the post back to it.
func (s *Server) handleEditError(w http.ResponseWriter, r *http.Request, id int64, err error) {
	if errors.Is(err, domain.ErrAuthorizationDenied) {
		http.Redirect(w, r, postURL(id), http.StatusSeeOther)
		return
	}
	s.handleError(w, r, err)
}

func (s *Server) readPostForm(w http.ResponseWriter, r *http.Request) (domain.PostInput, bool) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return domain.PostInput{}, false
	}
	return domain.PostInput{
		Text:  r.PostFormValue("text"),
		Group: r.PostFormValue("group"),
	}, true
}

func (s *Server) renderPostForm(w http.ResponseWriter, r *http.Request, status int, data PostFormData) {
	groups, err := s.posts.ListGroups(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	data.Groups = groups

	title := "New post"
	if data.IsEdit {
		title = "Edit post"
	}
	s.render(w, r, status, "create_post", PageData{
		Title:   title,
		Active:  "create",
		Content: data,
	})
}
