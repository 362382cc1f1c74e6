//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

// Event is a lodge calendar entry.
type Event struct {
	ID        string     `json:"id"       db:"id"`
	LodgeID   string     `json:"lodge_id" db:"lodge_id"`
	Title     string     `json:"title"    db:"title"`
	Location  *string    `json:"location,omitempty" db:"location"`
	StartsAt  time.Time  `json:"starts_at" db:"starts_at"`
	EndsAt    *time.Time `json:"ends_at,omitempty" db:"ends_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// CreateEventRequest represents parameters to create an Event.
type CreateEventRequest struct {
	LodgeID  string     `json:"lodge_id"`
	Title    string     `json:"title"`
	Location *string    `json:"location,omitempty"`
	StartsAt time.Time  `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}

// UpdateEventRequest represents parameters to update an Event.
type UpdateEventRequest struct {
	Title    *string    `json:"title,omitempty"`
	Location *string    `json:"location,omitempty"`
	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}

// EventsListOptions controls paging and filtering for listing events.
type EventsListOptions struct {
	Limit   int
	Offset  int
	LodgeID *string
	After   *time.Time // only events starting after this instant
}

// Validate validates CreateEventRequest.
func (r *CreateEventRequest) Validate() error {
	if strings.TrimSpace(r.LodgeID) == "" {
		return errors.New("lodge_id is required")
	}
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required and cannot be empty")
	}
	if r.StartsAt.IsZero() {
		return errors.New("starts_at is required")
	}
	if r.EndsAt != nil && r.EndsAt.Before(r.StartsAt) {
		return errors.New("ends_at cannot precede starts_at")
	}
	return nil
}

// Validate validates UpdateEventRequest.
func (r *UpdateEventRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return errors.New("title cannot be empty")
	}
	if r.StartsAt != nil && r.EndsAt != nil && r.EndsAt.Before(*r.StartsAt) {
		return errors.New("ends_at cannot precede starts_at")
	}
	return nil
}
