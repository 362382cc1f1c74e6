package core

import (
	"context"
	"time"

	"github.com/lodgeworks/lodge-api/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// LodgeRepository defines the interface for lodge data operations.
type LodgeRepository interface {
	Create(ctx context.Context, req *model.CreateLodgeRequest) (*model.Lodge, error)
	GetByID(ctx context.Context, id string) (*model.Lodge, error)
	List(ctx context.Context, opts model.LodgesListOptions) ([]*model.Lodge, error)
	Update(ctx context.Context, id string, req model.UpdateLodgeRequest) (*model.Lodge, error)
	// Delete removes a lodge. Implementations refuse the delete while the
	// lodge still has members, mirroring the guard-level rule.
	Delete(ctx context.Context, id string) (bool, error)
	// MemberCount returns the number of members whose primary lodge is id.
	MemberCount(ctx context.Context, id string) (int, error)
}

// MemberRepository defines the interface for member data operations.
type MemberRepository interface {
	Create(ctx context.Context, req *model.CreateMemberRequest) (*model.Member, error)
	GetByID(ctx context.Context, id string) (*model.Member, error)
	// GetByEmail is the login-time lookup tying an IdP identity to a member
	// row. Email comparison is case-insensitive.
	GetByEmail(ctx context.Context, email string) (*model.Member, error)
	List(ctx context.Context, opts model.MembersListOptions) ([]*model.Member, error)
	Update(ctx context.Context, id string, req model.UpdateMemberRequest) (*model.Member, error)
	Delete(ctx context.Context, id string) (bool, error)
	// Deactivate flips a member to inactive without deleting history.
	Deactivate(ctx context.Context, id string) (bool, error)
}

// CandidateRepository defines the interface for candidate data operations.
type CandidateRepository interface {
	Create(ctx context.Context, req *model.CreateCandidateRequest, endDate time.Time) (*model.Candidate, error)
	GetByID(ctx context.Context, id string) (*model.Candidate, error)
	List(ctx context.Context, opts model.CandidatesListOptions) ([]*model.Candidate, error)
	Update(ctx context.Context, id string, req model.UpdateCandidateRequest) (*model.Candidate, error)
	Delete(ctx context.Context, id string) (bool, error)
	// ExpireOverdue marks pending candidates whose end_date has passed as
	// expired, at most batchSize per call, returning the number updated.
	ExpireOverdue(ctx context.Context, now time.Time, batchSize int) (int64, error)
}

// EventRepository defines the interface for lodge event data operations.
type EventRepository interface {
	Create(ctx context.Context, req *model.CreateEventRequest) (*model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, opts model.EventsListOptions) ([]*model.Event, error)
	Update(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	Create(ctx context.Context, authorID string, req *model.CreatePostRequest) (*model.Post, error)
	GetByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, opts model.PostsListOptions) ([]*model.Post, error)
	Update(ctx context.Context, id string, req model.UpdatePostRequest) (*model.Post, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// LodgeReverseLookup finds the lodge whose roster contains a record, or an
// empty string when none does. It is the last-resort lodge resolution
// strategy for legacy records.
type LodgeReverseLookup interface {
	FindLodgeIDByRecordID(ctx context.Context, recordID string) (string, error)
}

// RosterCache caches lodge rosters (record id to lodge id) so reverse
// lookups avoid a table scan per request.
type RosterCache interface {
	GetLodgeForRecord(ctx context.Context, recordID string) (string, bool, error)
	SetLodgeForRecord(ctx context.Context, recordID, lodgeID string) error
	// Invalidate drops the cached association for a record, e.g. after a
	// transfer between lodges.
	Invalidate(ctx context.Context, recordID string) error
}
