package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lodgeworks/lodge-api/internal/authz"
	"github.com/lodgeworks/lodge-api/internal/core"
	"github.com/lodgeworks/lodge-api/internal/domain/auth"
	"github.com/lodgeworks/lodge-api/internal/domain/model"
)

// CandidateServiceOptions groups dependencies for CandidateService.
type CandidateServiceOptions struct {
	Guard      *authz.Guard
	Candidates core.CandidateRepository
	Resolver   *authz.Resolver
	// Now overrides the clock for tests; nil means time.Now.
	Now func() time.Time
}

// CandidateService orchestrates candidate submission and review. Reads and
// edits are lodge-scoped for lodge-level admins, so every per-record
// operation resolves the candidate's owning lodge before the guard rules.
type CandidateService struct {
	guard      *authz.Guard
	candidates core.CandidateRepository
	resolver   *authz.Resolver
	now        func() time.Time
}

// NewCandidateService constructs a new CandidateService.
func NewCandidateService(opts CandidateServiceOptions) (*CandidateService, error) {
	if opts.Guard == nil {
		return nil, errors.New("Guard is required")
	}
	if opts.Candidates == nil {
		return nil, errors.New("CandidateRepository is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("Resolver is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &CandidateService{
		guard:      opts.Guard,
		candidates: opts.Candidates,
		resolver:   opts.Resolver,
		now:        now,
	}, nil
}

// Create submits a candidate. Any authenticated member may submit; the
// review window closes WindowDays after submission, defaulting to
// model.DefaultCandidateWindowDays.
func (s *CandidateService) Create(ctx context.Context, p *auth.Principal, req *model.CreateCandidateRequest) (*model.Candidate, error) {
	d := s.guard.Check(p, authz.ActionCreate, authz.Resource{Kind: authz.KindCandidate})
	if err := authz.ErrDenied(d); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errors.New("create candidate request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	windowDays := req.WindowDays
	if windowDays == 0 {
		windowDays = model.DefaultCandidateWindowDays
	}
	endDate := s.now().UTC().Add(time.Duration(windowDays) * 24 * time.Hour)
	return s.candidates.Create(ctx, req, endDate)
}

// GetByID retrieves a candidate, enforcing lodge scope for lodge admins.
func (s *CandidateService) GetByID(ctx context.Context, p *auth.Principal, id string) (*model.Candidate, error) {
	cand, lodgeID, err := s.fetchWithLodge(ctx, id)
	if err != nil {
		return nil, err
	}
	d := s.guard.Check(p, authz.ActionRead, authz.Resource{Kind: authz.KindCandidate, ID: id, LodgeID: lodgeID})
	if err := authz.ErrDenied(d); err != nil {
		return nil, err
	}
	return cand, nil
}

// List returns candidates matching the options. Lodge admins with no
// explicit lodge filter are confined to their own lodge.
func (s *CandidateService) List(ctx context.Context, p *auth.Principal, opts model.CandidatesListOptions) ([]*model.Candidate, error) {
	opts = s.scopeListOptions(p, opts)

	lodgeID := ""
	if opts.LodgeID != nil {
		lodgeID = authz.NormalizeLodgeID(*opts.LodgeID)
	}
	d := s.guard.Check(p, authz.ActionRead, authz.Resource{Kind: authz.KindCandidate, LodgeID: lodgeID})
	if err := authz.ErrDenied(d); err != nil {
		return nil, err
	}
	return s.candidates.List(ctx, opts)
}

// Update edits a candidate's details or review status. Lodge admins may
// only act within their own lodge.
func (s *CandidateService) Update(ctx context.Context, p *auth.Principal, id string, req model.UpdateCandidateRequest) (*model.Candidate, error) {
	_, lodgeID, err := s.fetchWithLodge(ctx, id)
	if err != nil {
		return nil, err
	}
	d := s.guard.Check(p, authz.ActionUpdate, authz.Resource{Kind: authz.KindCandidate, ID: id, LodgeID: lodgeID})
	if err := authz.ErrDenied(d); err != nil {
		return nil, err
	}
	return s.candidates.Update(ctx, id, req)
}

// Delete removes a candidate.
func (s *CandidateService) Delete(ctx context.Context, p *auth.Principal, id string) (bool, error) {
	_, lodgeID, err := s.fetchWithLodge(ctx, id)
	if err != nil {
		return false, err
	}
	d := s.guard.Check(p, authz.ActionDelete, authz.Resource{Kind: authz.KindCandidate, ID: id, LodgeID: lodgeID})
	if err := authz.ErrDenied(d); err != nil {
		return false, err
	}
	return s.candidates.Delete(ctx, id)
}

// fetchWithLodge loads a candidate and resolves its owning lodge through
// all the legacy reference shapes. A candidate no strategy can place in a
// lodge surfaces as NO_LODGE_ASSOCIATION rather than a plain 404.
func (s *CandidateService) fetchWithLodge(ctx context.Context, id string) (*model.Candidate, string, error) {
	cand, err := s.candidates.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	ref := authz.LodgeRef{RecordID: cand.ID, LegacyDoc: cand.LegacyDoc}
	if cand.PrimaryLodgeID != nil {
		ref.LodgeID = *cand.PrimaryLodgeID
	}
	lodgeID, err := s.resolver.ResolveLodgeID(ctx, ref)
	if err != nil {
		if errors.Is(err, authz.ErrNoLodgeAssociation) {
			return nil, "", authz.ErrDenied(authz.Deny(authz.ReasonNoLodgeAssociation))
		}
		return nil, "", err
	}
	return cand, lodgeID, nil
}

// scopeListOptions defaults the lodge filter to the caller's own lodge when
// the caller is a lodge-level admin without district authority.
func (s *CandidateService) scopeListOptions(p *auth.Principal, opts model.CandidatesListOptions) model.CandidatesListOptions {
	if p == nil || opts.LodgeID != nil {
		return opts
	}
	if p.EffectiveRole(p.PrimaryLodgeID) != auth.RoleLodgeAdmin {
		return opts
	}
	if lodge := strings.TrimSpace(p.PrimaryLodgeID); lodge != "" {
		opts.LodgeID = &lodge
	}
	return opts
}
