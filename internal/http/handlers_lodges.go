// Package httpx provides the JSON REST surface for the lodge directory API.
package httpx

import (
	"errors"
	"net/http"

	"github.com/lodgeworks/lodge-api/internal/domain/model"
	"github.com/lodgeworks/lodge-api/internal/service"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// LodgeHandlers provides HTTP handlers for lodge operations.
type LodgeHandlers struct {
	Svc *service.LodgeService
}

// Create handles POST /api/lodges.
func (h *LodgeHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateLodgeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	lodge, err := h.Svc.Create(r.Context(), PrincipalFromContext(r.Context()), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, lodge)
}

// Get handles GET /api/lodges/{id}.
func (h *LodgeHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("lodge id is required")})
		return
	}

	lodge, err := h.Svc.GetByID(r.Context(), PrincipalFromContext(r.Context()), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, lodge)
}

// List handles GET /api/lodges.
func (h *LodgeHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)
	opts := model.LodgesListOptions{
		Limit:    limit,
		Offset:   offset,
		Q:        trimmedQuery(r, "q"),
		District: trimmedQuery(r, "district"),
		IsActive: parseBoolQuery(r, "active"),
	}

	lodges, err := h.Svc.List(r.Context(), PrincipalFromContext(r.Context()), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, lodges)
}

// Update handles PUT /api/lodges/{id}.
func (h *LodgeHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("lodge id is required")})
		return
	}

	var req model.UpdateLodgeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	lodge, err := h.Svc.Update(r.Context(), PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, lodge)
}

// Delete handles DELETE /api/lodges/{id}.
func (h *LodgeHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("lodge id is required")})
		return
	}

	ok, err := h.Svc.Delete(r.Context(), PrincipalFromContext(r.Context()), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}
