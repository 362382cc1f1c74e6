package httpx

import (
	"errors"
	"net/http"

	"github.com/lodgeworks/lodge-api/internal/domain/model"
	"github.com/lodgeworks/lodge-api/internal/service"
)

// MemberHandlers provides HTTP handlers for member operations. Members are
// created through candidate approval and the seed tooling, so there is no
// create endpoint here.
type MemberHandlers struct {
	Svc *service.MemberService
}

// Get handles GET /api/members/{id}.
func (h *MemberHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("member id is required")})
		return
	}

	member, err := h.Svc.GetByID(r.Context(), PrincipalFromContext(r.Context()), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, member)
}

// List handles GET /api/members.
func (h *MemberHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)
	opts := model.MembersListOptions{
		Limit:   limit,
		Offset:  offset,
		Q:       trimmedQuery(r, "q"),
		LodgeID: trimmedQuery(r, "lodge_id"),
	}
	if s := trimmedQuery(r, "status"); s != nil {
		status := model.MemberStatus(*s)
		opts.Status = &status
	}

	members, err := h.Svc.List(r.Context(), PrincipalFromContext(r.Context()), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, members)
}

// Update handles PUT /api/members/{id}.
func (h *MemberHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("member id is required")})
		return
	}

	var req model.UpdateMemberRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	member, err := h.Svc.Update(r.Context(), PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, member)
}

// Delete handles DELETE /api/members/{id}.
func (h *MemberHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("member id is required")})
		return
	}

	ok, err := h.Svc.Delete(r.Context(), PrincipalFromContext(r.Context()), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}

// Deactivate handles POST /api/members/{id}/deactivate. Deactivation is the
// soft alternative to deletion and is allowed for admin targets.
func (h *MemberHandlers) Deactivate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("member id is required")})
		return
	}

	ok, err := h.Svc.Deactivate(r.Context(), PrincipalFromContext(r.Context()), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}
