package httpx

import (
	"errors"
	"net/http"

	"github.com/lodgeworks/lodge-api/internal/domain/model"
	"github.com/lodgeworks/lodge-api/internal/service"
)

// PostHandlers provides HTTP handlers for lodge post operations.
type PostHandlers struct {
	Svc *service.PostService
}

// Create handles POST /api/posts. The author is always the caller.
func (h *PostHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePostRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	post, err := h.Svc.Create(r.Context(), PrincipalFromContext(r.Context()), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, post)
}

// Get handles GET /api/posts/{id}.
func (h *PostHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("post id is required")})
		return
	}

	post, err := h.Svc.GetByID(r.Context(), PrincipalFromContext(r.Context()), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, post)
}

// List handles GET /api/posts.
func (h *PostHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)
	opts := model.PostsListOptions{
		Limit:   limit,
		Offset:  offset,
		LodgeID: trimmedQuery(r, "lodge_id"),
	}
	if published := parseBoolQuery(r, "published"); published != nil {
		opts.PublishedOnly = *published
	}

	posts, err := h.Svc.List(r.Context(), PrincipalFromContext(r.Context()), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, posts)
}

// Update handles PUT /api/posts/{id}.
func (h *PostHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("post id is required")})
		return
	}

	var req model.UpdatePostRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	post, err := h.Svc.Update(r.Context(), PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /api/posts/{id}.
func (h *PostHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("post id is required")})
		return
	}

	ok, err := h.Svc.Delete(r.Context(), PrincipalFromContext(r.Context()), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}
