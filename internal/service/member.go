package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lodgeworks/lodge-api/internal/authz"
	"github.com/lodgeworks/lodge-api/internal/core"
	"github.com/lodgeworks/lodge-api/internal/domain/auth"
	"github.com/lodgeworks/lodge-api/internal/domain/model"
)

// MemberServiceOptions groups dependencies for MemberService.
type MemberServiceOptions struct {
	Guard   *authz.Guard
	Members core.MemberRepository
	// Cache optionally invalidates cached roster lookups on lodge transfer.
	Cache core.RosterCache
	// RootLodgeID is the district root lodge; district admins get a role
	// entry there after promotion. Empty disables that assignment.
	RootLodgeID string
	Logger      *slog.Logger
}

// MemberService orchestrates member reads and edits behind the access guard.
// Role edits go through here so the global-role promotion invariant holds:
// after any edit, GlobalRole equals the highest-ranked role across the
// global role and all per-lodge overrides.
type MemberService struct {
	guard       *authz.Guard
	members     core.MemberRepository
	cache       core.RosterCache
	rootLodgeID string
	logger      *slog.Logger
}

// NewMemberService constructs a new MemberService.
func NewMemberService(opts MemberServiceOptions) (*MemberService, error) {
	if opts.Guard == nil {
		return nil, errors.New("Guard is required")
	}
	if opts.Members == nil {
		return nil, errors.New("MemberRepository is required")
	}
	return &MemberService{
		guard:       opts.Guard,
		members:     opts.Members,
		cache:       opts.Cache,
		rootLodgeID: opts.RootLodgeID,
		logger:      opts.Logger,
	}, nil
}

// GetByID retrieves a member.
func (s *MemberService) GetByID(ctx context.Context, p *auth.Principal, id string) (*model.Member, error) {
	d := s.guard.Check(p, authz.ActionRead, authz.Resource{Kind: authz.KindMember, ID: id})
	if err := authz.ErrDenied(d); err != nil {
		return nil, err
	}
	return s.members.GetByID(ctx, id)
}

// List returns members matching the options.
func (s *MemberService) List(ctx context.Context, p *auth.Principal, opts model.MembersListOptions) ([]*model.Member, error) {
	d := s.guard.Check(p, authz.ActionRead, authz.Resource{Kind: authz.KindMember})
	if err := authz.ErrDenied(d); err != nil {
		return nil, err
	}
	return s.members.List(ctx, opts)
}

// Update edits a member. Role fields are rewritten so the promotion
// invariant holds before the row is stored.
func (s *MemberService) Update(ctx context.Context, p *auth.Principal, id string, req model.UpdateMemberRequest) (*model.Member, error) {
	d := s.guard.Check(p, authz.ActionUpdate, authz.Resource{Kind: authz.KindMember, ID: id})
	if err := authz.ErrDenied(d); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.members.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil || req.LodgeRoles != nil {
		s.applyPromotion(&req, existing)
	}

	updated, err := s.members.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	if req.PrimaryLodgeID != nil && !samePrimaryLodge(existing.PrimaryLodgeID, req.PrimaryLodgeID) {
		s.invalidateRoster(ctx, id)
	}
	return updated, nil
}

// Delete removes a member. Admin accounts are refused at the guard; demote
// first, then delete.
func (s *MemberService) Delete(ctx context.Context, p *auth.Principal, id string) (bool, error) {
	existing, err := s.members.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	d := s.guard.Check(p, authz.ActionDelete, authz.Resource{
		Kind:       authz.KindMember,
		ID:         id,
		TargetRole: existing.Principal().HighestRole(),
	})
	if err := authz.ErrDenied(d); err != nil {
		return false, err
	}
	ok, err := s.members.Delete(ctx, id)
	if err == nil && ok {
		s.invalidateRoster(ctx, id)
	}
	return ok, err
}

// Deactivate flips a member to inactive, keeping history intact.
func (s *MemberService) Deactivate(ctx context.Context, p *auth.Principal, id string) (bool, error) {
	d := s.guard.Check(p, authz.ActionUpdate, authz.Resource{Kind: authz.KindMember, ID: id})
	if err := authz.ErrDenied(d); err != nil {
		return false, err
	}
	return s.members.Deactivate(ctx, id)
}

// applyPromotion rewrites the role fields of req so that after the edit the
// global role equals the highest-ranked role anywhere on the member, and the
// matching per-lodge entry exists: DISTRICT_ADMIN in the district root
// lodge, LODGE_ADMIN in the member's primary lodge.
func (s *MemberService) applyPromotion(req *model.UpdateMemberRequest, existing *model.Member) {
	globalRole := existing.Role
	if req.Role != nil {
		globalRole = auth.Normalize(*req.Role)
	}
	lodgeRoles := existing.LodgeRoles
	if req.LodgeRoles != nil {
		lodgeRoles = req.LodgeRoles
	}

	highest := auth.Principal{GlobalRole: globalRole, LodgeRoles: lodgeRoles}.HighestRole()

	promoted := string(highest)
	req.Role = &promoted

	assignLodge := ""
	switch {
	case auth.Rank(highest) >= auth.Rank(auth.RoleDistrictAdmin) && s.rootLodgeID != "":
		assignLodge = s.rootLodgeID
	case highest == auth.RoleLodgeAdmin && existing.PrimaryLodgeID != nil:
		assignLodge = *existing.PrimaryLodgeID
	}
	if assignLodge == "" {
		return
	}
	if auth.Rank(lodgeRoles[assignLodge]) >= auth.Rank(highest) && lodgeRoles[assignLodge] != "" {
		return
	}
	merged := make(map[string]auth.Role, len(lodgeRoles)+1)
	for lodgeID, r := range lodgeRoles {
		merged[lodgeID] = auth.Normalize(string(r))
	}
	merged[assignLodge] = highest
	req.LodgeRoles = merged
}

func (s *MemberService) invalidateRoster(ctx context.Context, memberID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, memberID); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "roster cache invalidation failed",
			"member_id", memberID, "error", err)
	}
}

func samePrimaryLodge(a, b *string) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	default:
		return *a == *b
	}
}
