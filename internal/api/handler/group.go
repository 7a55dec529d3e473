package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bcnelson/yatube/internal/domain"
	"github.com/bcnelson/yatube/internal/pagination"
	"github.com/bcnelson/yatube/internal/storage"
	"github.com/bcnelson/yatube/internal/validation"
)

// GroupHandler handles group endpoints.
type GroupHandler struct {
	store    storage.Storage
	pageSize int
	logger   *slog.Logger
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(store storage.Storage, pageSize int, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{store: store, pageSize: pageSize, logger: logger}
}

// Create creates a new group.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid request body")
		return
	}

	if errs := validation.ValidateGroup(&req); errs.HasErrors() {
		respondValidationErrors(w, errs)
		return
	}

	group := &domain.Group{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
	}

	if err := h.store.CreateGroup(r.Context(), group); err != nil {
		handleError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "group created", "group_id", group.ID, "slug", group.Slug)
	respondJSON(w, http.StatusCreated, group)
}

// List lists groups ordered by title, one page at a time.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.store.ListGroups(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	page := pagination.Paginate(groups, h.pageSize, r.URL.Query().Get("page"))
	respondJSON(w, http.StatusOK, &domain.GroupListResponse{
		Groups:      page.Items,
		Page:        page.Number,
		TotalPages:  page.TotalPages,
		TotalGroups: page.TotalItems,
	})
}

// Get gets a group by slug.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	group, err := h.store.GetGroupBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, group)
}

// Update updates the title and description of a group. The slug is fixed.
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid request body")
		return
	}

	group, err := h.store.GetGroupBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleError(w, err)
		return
	}

	if req.Title != nil {
		if err := validation.ValidateTitle(*req.Title); err != nil {
			respondValidationErrors(w, validation.ValidationErrors{
				validation.NewValidationError("title", *req.Title, err.Error()),
			})
			return
		}
		group.Title = *req.Title
	}
	if req.Description != nil {
		group.Description = *req.Description
	}

	if err := h.store.UpdateGroup(r.Context(), group); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, group)
}

// Delete deletes a group. Its posts remain without a group.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	group, err := h.store.GetGroupBySlug(r.Context(), slug)
	if err != nil {
		handleError(w, err)
		return
	}

	if err := h.store.DeleteGroup(r.Context(), group.ID); err != nil {
		handleError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "group deleted", "group_id", group.ID, "slug", slug)
	w.WriteHeader(http.StatusNoContent)
}
