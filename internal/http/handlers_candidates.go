package httpx

import (
	"errors"
	"net/http"

	"github.com/lodgeworks/lodge-api/internal/domain/model"
	"github.com/lodgeworks/lodge-api/internal/service"
)

// CandidateHandlers provides HTTP handlers for membership candidate operations.
type CandidateHandlers struct {
	Svc *service.CandidateService
}

// Create handles POST /api/candidates. Any authenticated member may submit.
func (h *CandidateHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCandidateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	candidate, err := h.Svc.Create(r.Context(), PrincipalFromContext(r.Context()), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, candidate)
}

// Get handles GET /api/candidates/{id}.
func (h *CandidateHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("candidate id is required")})
		return
	}

	candidate, err := h.Svc.GetByID(r.Context(), PrincipalFromContext(r.Context()), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, candidate)
}

// List handles GET /api/candidates.
func (h *CandidateHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)
	opts := model.CandidatesListOptions{
		Limit:   limit,
		Offset:  offset,
		LodgeID: trimmedQuery(r, "lodge_id"),
	}
	if s := trimmedQuery(r, "status"); s != nil {
		status := model.CandidateStatus(*s)
		if !status.Valid() {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_request",
				Err:     errors.New("status must be one of: pending, approved, rejected, expired"),
			})
			return
		}
		opts.Status = &status
	}

	candidates, err := h.Svc.List(r.Context(), PrincipalFromContext(r.Context()), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, candidates)
}

// Update handles PUT /api/candidates/{id}. Status changes (approve/reject)
// come through here and are lodge-scoped by the guard.
func (h *CandidateHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("candidate id is required")})
		return
	}

	var req model.UpdateCandidateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	candidate, err := h.Svc.Update(r.Context(), PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, candidate)
}

// Delete handles DELETE /api/candidates/{id}.
func (h *CandidateHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("candidate id is required")})
		return
	}

	ok, err := h.Svc.Delete(r.Context(), PrincipalFromContext(r.Context()), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}
