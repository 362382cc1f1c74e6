package service

import (
	"context"
	"errors"

	"github.com/lodgeworks/lodge-api/internal/authz"
	"github.com/lodgeworks/lodge-api/internal/core"
	"github.com/lodgeworks/lodge-api/internal/domain/auth"
	"github.com/lodgeworks/lodge-api/internal/domain/model"
)

// EventServiceOptions groups dependencies for EventService.
type EventServiceOptions struct {
	Guard  *authz.Guard
	Events core.EventRepository
}

// EventService orchestrates lodge calendar entries. Creating and editing
// events is lodge-admin work scoped to the event's lodge; reading is open
// to any member.
type EventService struct {
	guard  *authz.Guard
	events core.EventRepository
}

// NewEventService constructs a new EventService.
func NewEventService(opts EventServiceOptions) (*EventService, error) {
	if opts.Guard == nil {
		return nil, errors.New("Guard is required")
	}
	if opts.Events == nil {
		return nil, errors.New("EventRepository is required")
	}
	return &EventService{guard: opts.Guard, events: opts.Events}, nil
}

// Create creates an event on a lodge calendar.
func (s *EventService) Create(ctx context.Context, p *auth.Principal, req *model.CreateEventRequest) (*model.Event, error) {
	if req == nil {
		return nil, errors.New("create event request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	d := s.guard.Check(p, authz.ActionCreate, authz.Resource{
		Kind:    authz.KindEvent,
		LodgeID: authz.NormalizeLodgeID(req.LodgeID),
	})
	if err := authz.ErrDenied(d); err != nil {
		return nil, err
	}
	return s.events.Create(ctx, req)
}

// GetByID retrieves an event.
func (s *EventService) GetByID(ctx context.Context, p *auth.Principal, id string) (*model.Event, error) {
	d := s.guard.Check(p, authz.ActionRead, authz.Resource{Kind: authz.KindEvent, ID: id})
	if err := authz.ErrDenied(d); err != nil {
		return nil, err
	}
	return s.events.GetByID(ctx, id)
}

// List returns events matching the options.
func (s *EventService) List(ctx context.Context, p *auth.Principal, opts model.EventsListOptions) ([]*model.Event, error) {
	d := s.guard.Check(p, authz.ActionRead, authz.Resource{Kind: authz.KindEvent})
	if err := authz.ErrDenied(d); err != nil {
		return nil, err
	}
	return s.events.List(ctx, opts)
}

// Update edits an event. Scoped to the event's lodge for lodge admins.
func (s *EventService) Update(ctx context.Context, p *auth.Principal, id string, req model.UpdateEventRequest) (*model.Event, error) {
	existing, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := s.guard.Check(p, authz.ActionUpdate, authz.Resource{
		Kind:    authz.KindEvent,
		ID:      id,
		LodgeID: authz.NormalizeLodgeID(existing.LodgeID),
	})
	if err := authz.ErrDenied(d); err != nil {
		return nil, err
	}
	return s.events.Update(ctx, id, req)
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, p *auth.Principal, id string) (bool, error) {
	existing, err := s.events.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	d := s.guard.Check(p, authz.ActionDelete, authz.Resource{
		Kind:    authz.KindEvent,
		ID:      id,
		LodgeID: authz.NormalizeLodgeID(existing.LodgeID),
	})
	if err := authz.ErrDenied(d); err != nil {
		return false, err
	}
	return s.events.Delete(ctx, id)
}
