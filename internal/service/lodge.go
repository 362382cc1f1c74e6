package service

import (
	"context"
	"errors"

	"github.com/lodgeworks/lodge-api/internal/authz"
	"github.com/lodgeworks/lodge-api/internal/core"
	"github.com/lodgeworks/lodge-api/internal/domain/auth"
	"github.com/lodgeworks/lodge-api/internal/domain/model"
)

// LodgeServiceOptions groups dependencies for LodgeService.
type LodgeServiceOptions struct {
	Guard  *authz.Guard
	Lodges core.LodgeRepository
}

// LodgeService orchestrates lodge CRUD behind the access guard. Every
// mutating operation checks the guard before touching the repository.
type LodgeService struct {
	guard  *authz.Guard
	lodges core.LodgeRepository
}

// NewLodgeService constructs a new LodgeService.
func NewLodgeService(opts LodgeServiceOptions) (*LodgeService, error) {
	if opts.Guard == nil {
		return nil, errors.New("Guard is required")
	}
	if opts.Lodges == nil {
		return nil, errors.New("LodgeRepository is required")
	}
	return &LodgeService{guard: opts.Guard, lodges: opts.Lodges}, nil
}

// Create creates a lodge. District-level authority required.
func (s *LodgeService) Create(ctx context.Context, p *auth.Principal, req *model.CreateLodgeRequest) (*model.Lodge, error) {
	d := s.guard.Check(p, authz.ActionCreate, authz.Resource{Kind: authz.KindLodge})
	if err := authz.ErrDenied(d); err != nil {
		return nil, err
	}
	return s.lodges.Create(ctx, req)
}

// GetByID retrieves a lodge.
func (s *LodgeService) GetByID(ctx context.Context, p *auth.Principal, id string) (*model.Lodge, error) {
	d := s.guard.Check(p, authz.ActionRead, authz.Resource{Kind: authz.KindLodge, ID: id, LodgeID: id})
	if err := authz.ErrDenied(d); err != nil {
		return nil, err
	}
	return s.lodges.GetByID(ctx, id)
}

// List returns lodges matching the options.
func (s *LodgeService) List(ctx context.Context, p *auth.Principal, opts model.LodgesListOptions) ([]*model.Lodge, error) {
	d := s.guard.Check(p, authz.ActionRead, authz.Resource{Kind: authz.KindLodge})
	if err := authz.ErrDenied(d); err != nil {
		return nil, err
	}
	return s.lodges.List(ctx, opts)
}

// Update updates a lodge. A lodge's own admin may update it; other lodges'
// admins may not.
func (s *LodgeService) Update(ctx context.Context, p *auth.Principal, id string, req model.UpdateLodgeRequest) (*model.Lodge, error) {
	d := s.guard.Check(p, authz.ActionUpdate, authz.Resource{Kind: authz.KindLodge, ID: id, LodgeID: id})
	if err := authz.ErrDenied(d); err != nil {
		return nil, err
	}
	return s.lodges.Update(ctx, id, req)
}

// Delete deletes a lodge. Refused while the lodge still has members; the
// guard rules on the live count and the repository re-checks inside its
// transaction.
func (s *LodgeService) Delete(ctx context.Context, p *auth.Principal, id string) (bool, error) {
	count, err := s.lodges.MemberCount(ctx, id)
	if err != nil {
		return false, err
	}
	d := s.guard.Check(p, authz.ActionDelete, authz.Resource{
		Kind:        authz.KindLodge,
		ID:          id,
		LodgeID:     id,
		MemberCount: count,
	})
	if err := authz.ErrDenied(d); err != nil {
		return false, err
	}
	return s.lodges.Delete(ctx, id)
}
