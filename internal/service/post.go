package service

import (
	"context"
	"errors"

	"github.com/lodgeworks/lodge-api/internal/authz"
	"github.com/lodgeworks/lodge-api/internal/core"
	"github.com/lodgeworks/lodge-api/internal/domain/auth"
	"github.com/lodgeworks/lodge-api/internal/domain/model"
)

// PostServiceOptions groups dependencies for PostService.
type PostServiceOptions struct {
	Guard *authz.Guard
	Posts core.PostRepository
}

// PostService orchestrates lodge bulletin posts. Any member may write a
// post; editing and removal stay with the lodge's admins.
type PostService struct {
	guard *authz.Guard
	posts core.PostRepository
}

// NewPostService constructs a new PostService.
func NewPostService(opts PostServiceOptions) (*PostService, error) {
	if opts.Guard == nil {
		return nil, errors.New("Guard is required")
	}
	if opts.Posts == nil {
		return nil, errors.New("PostRepository is required")
	}
	return &PostService{guard: opts.Guard, posts: opts.Posts}, nil
}

// Create creates a post authored by the caller.
func (s *PostService) Create(ctx context.Context, p *auth.Principal, req *model.CreatePostRequest) (*model.Post, error) {
	d := s.guard.Check(p, authz.ActionCreate, authz.Resource{Kind: authz.KindPost})
	if err := authz.ErrDenied(d); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errors.New("create post request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.posts.Create(ctx, p.ID, req)
}

// GetByID retrieves a post.
func (s *PostService) GetByID(ctx context.Context, p *auth.Principal, id string) (*model.Post, error) {
	d := s.guard.Check(p, authz.ActionRead, authz.Resource{Kind: authz.KindPost, ID: id})
	if err := authz.ErrDenied(d); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, id)
}

// List returns posts matching the options.
func (s *PostService) List(ctx context.Context, p *auth.Principal, opts model.PostsListOptions) ([]*model.Post, error) {
	d := s.guard.Check(p, authz.ActionRead, authz.Resource{Kind: authz.KindPost})
	if err := authz.ErrDenied(d); err != nil {
		return nil, err
	}
	return s.posts.List(ctx, opts)
}

// Update edits a post. Scoped to the post's lodge for lodge admins.
func (s *PostService) Update(ctx context.Context, p *auth.Principal, id string, req model.UpdatePostRequest) (*model.Post, error) {
	existing, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := s.guard.Check(p, authz.ActionUpdate, authz.Resource{
		Kind:    authz.KindPost,
		ID:      id,
		LodgeID: authz.NormalizeLodgeID(existing.LodgeID),
	})
	if err := authz.ErrDenied(d); err != nil {
		return nil, err
	}
	return s.posts.Update(ctx, id, req)
}

// Delete removes a post.
func (s *PostService) Delete(ctx context.Context, p *auth.Principal, id string) (bool, error) {
	existing, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	d := s.guard.Check(p, authz.ActionDelete, authz.Resource{
		Kind:    authz.KindPost,
		ID:      id,
		LodgeID: authz.NormalizeLodgeID(existing.LodgeID),
	})
	if err := authz.ErrDenied(d); err != nil {
		return false, err
	}
	return s.posts.Delete(ctx, id)
}
