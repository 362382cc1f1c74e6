package httpx

import (
	"errors"
	"net/http"
	"time"

	"github.com/lodgeworks/lodge-api/internal/domain/model"
	"github.com/lodgeworks/lodge-api/internal/service"
)

// EventHandlers provides HTTP handlers for lodge event operations.
type EventHandlers struct {
	Svc *service.EventService
}

// Create handles POST /api/events.
func (h *EventHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	event, err := h.Svc.Create(r.Context(), PrincipalFromContext(r.Context()), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, event)
}

// Get handles GET /api/events/{id}.
func (h *EventHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("event id is required")})
		return
	}

	event, err := h.Svc.GetByID(r.Context(), PrincipalFromContext(r.Context()), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, event)
}

// List handles GET /api/events. The optional "after" filter takes an
// RFC 3339 timestamp and returns only events starting after it.
func (h *EventHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)
	opts := model.EventsListOptions{
		Limit:   limit,
		Offset:  offset,
		LodgeID: trimmedQuery(r, "lodge_id"),
	}
	if after := trimmedQuery(r, "after"); after != nil {
		t, err := time.Parse(time.RFC3339, *after)
		if err != nil {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_request",
				Err:     errors.New("after must be an RFC 3339 timestamp"),
			})
			return
		}
		opts.After = &t
	}

	events, err := h.Svc.List(r.Context(), PrincipalFromContext(r.Context()), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, events)
}

// Update handles PUT /api/events/{id}.
func (h *EventHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("event id is required")})
		return
	}

	var req model.UpdateEventRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	event, err := h.Svc.Update(r.Context(), PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, event)
}

// Delete handles DELETE /api/events/{id}.
func (h *EventHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("event id is required")})
		return
	}

	ok, err := h.Svc.Delete(r.Context(), PrincipalFromContext(r.Context()), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}
