// Package devseed populates a development database with a small district
// of lodges, members, candidates, events, and posts.
package devseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lodgeworks/lodge-api/internal/data"
	"github.com/lodgeworks/lodge-api/internal/domain/model"
)

// Services bundles the repositories needed for development seeding.
// Seeding goes through the data layer directly; there is no principal to
// authorize against during bootstrap.
type Services struct {
	DB         *sql.DB
	lodges     *data.LodgeRepo
	members    *data.MemberRepo
	candidates *data.CandidateRepo
	events     *data.EventRepo
	posts      *data.PostRepo
}

// NewServices constructs all required repositories for seeding using the provided DB.
func NewServices(db *sql.DB) Services {
	return Services{
		DB:         db,
		lodges:     data.NewLodgeRepo(db),
		members:    data.NewMemberRepo(db),
		candidates: data.NewCandidateRepo(db),
		events:     data.NewEventRepo(db),
		posts:      data.NewPostRepo(db),
	}
}

// Run executes the full development seeding workflow against the provided DB.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	lodgeIDs, failures := seedLodges(ctx, svcs.lodges, logger)

	memberIDs, memberFailures := seedMembers(ctx, svcs.members, lodgeIDs, logger)
	failures += memberFailures

	failures += seedCandidates(ctx, svcs.candidates, lodgeIDs, logger)
	failures += seedEvents(ctx, svcs.events, lodgeIDs, logger)
	failures += seedPosts(ctx, svcs.posts, lodgeIDs, memberIDs, logger)

	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

func defaultLodges() []model.CreateLodgeRequest {
	return []model.CreateLodgeRequest{
		{Name: "North Ridge Lodge", District: "north"},
		{Name: "Harbor Light Lodge", District: "coastal"},
		{Name: "Stone Valley Lodge", District: "north"},
	}
}

// seedLodges creates the default lodges and returns their ids keyed by name.
func seedLodges(ctx context.Context, repo *data.LodgeRepo, logger *slog.Logger) (map[string]string, int) {
	ids := make(map[string]string)
	failures := 0

	for _, req := range defaultLodges() {
		lodge, created, err := createLodge(ctx, repo, req)
		if err != nil {
			if logger != nil {
				logger.ErrorContext(ctx, "failed to create lodge", "name", req.Name, "error", err)
			}
			failures++
			continue
		}
		ids[req.Name] = lodge.ID
		if logger != nil {
			msg := "lodge already exists"
			if created {
				msg = "created lodge"
			}
			logger.InfoContext(ctx, msg, "name", req.Name, "id", lodge.ID)
		}
	}

	return ids, failures
}

func createLodge(ctx context.Context, repo *data.LodgeRepo, req model.CreateLodgeRequest) (*model.Lodge, bool, error) {
	lodge, err := repo.Create(ctx, &req)
	if err == nil {
		return lodge, true, nil
	}
	if !errors.Is(err, data.ErrLodgeNameExists) {
		return nil, false, err
	}

	existing, findErr := findLodgeByName(ctx, repo, req.Name)
	if findErr != nil {
		return nil, false, findErr
	}
	return existing, false, nil
}

func findLodgeByName(ctx context.Context, repo *data.LodgeRepo, name string) (*model.Lodge, error) {
	q := name
	lodges, err := repo.List(ctx, model.LodgesListOptions{Limit: 10, Q: &q})
	if err != nil {
		return nil, err
	}
	for _, lodge := range lodges {
		if lodge.Name == name {
			return lodge, nil
		}
	}
	return nil, data.ErrLodgeNotFound
}

type seedMember struct {
	Name      string
	Email     string
	Role      string
	LodgeName string
	Position  string
}

func defaultMembers() []seedMember {
	return []seedMember{
		{Name: "Avery Quinn", Email: "avery.quinn@example.org", Role: "DISTRICT_ADMIN", LodgeName: "North Ridge Lodge"},
		{Name: "Jordan Blake", Email: "jordan.blake@example.org", Role: "LODGE_ADMIN", LodgeName: "North Ridge Lodge", Position: "secretary"},
		{Name: "Casey Moreau", Email: "casey.moreau@example.org", Role: "LODGE_ADMIN", LodgeName: "Harbor Light Lodge", Position: "chair"},
		{Name: "Riley Oduya", Email: "riley.oduya@example.org", Role: "LODGE_MEMBER", LodgeName: "Harbor Light Lodge"},
		{Name: "Morgan Petit", Email: "morgan.petit@example.org", Role: "LODGE_MEMBER", LodgeName: "Stone Valley Lodge"},
	}
}

// seedMembers creates the default members and returns their ids keyed by email.
func seedMembers(ctx context.Context, repo *data.MemberRepo, lodgeIDs map[string]string, logger *slog.Logger) (map[string]string, int) {
	ids := make(map[string]string)
	failures := 0

	for _, m := range defaultMembers() {
		lodgeID, ok := lodgeIDs[m.LodgeName]
		if !ok {
			// Lodge create failed earlier; already counted there.
			continue
		}

		req := model.CreateMemberRequest{
			Name:           m.Name,
			Email:          m.Email,
			Role:           m.Role,
			PrimaryLodgeID: &lodgeID,
			LodgeMemberships: []model.LodgeMembership{
				{LodgeID: lodgeID, Position: m.Position},
			},
		}
		member, created, err := createMember(ctx, repo, req)
		if err != nil {
			if logger != nil {
				logger.ErrorContext(ctx, "failed to create member", "email", m.Email, "error", err)
			}
			failures++
			continue
		}
		ids[m.Email] = member.ID
		if logger != nil {
			msg := "member already exists"
			if created {
				msg = "created member"
			}
			logger.InfoContext(ctx, msg, "email", m.Email, "id", member.ID)
		}
	}

	return ids, failures
}

func createMember(ctx context.Context, repo *data.MemberRepo, req model.CreateMemberRequest) (*model.Member, bool, error) {
	member, err := repo.Create(ctx, &req)
	if err == nil {
		return member, true, nil
	}
	if !errors.Is(err, data.ErrMemberEmailExists) {
		return nil, false, err
	}

	existing, findErr := repo.GetByEmail(ctx, req.Email)
	if findErr != nil {
		return nil, false, findErr
	}
	return existing, false, nil
}

func seedCandidates(ctx context.Context, repo *data.CandidateRepo, lodgeIDs map[string]string, logger *slog.Logger) int {
	failures := 0
	now := time.Now().UTC()

	candidates := []struct {
		req     model.CreateCandidateRequest
		endDate time.Time
	}{
		{
			req:     model.CreateCandidateRequest{Name: "Sam Whittaker", Email: "sam.whittaker@example.org", LodgeID: lodgeIDs["North Ridge Lodge"]},
			endDate: now.AddDate(0, 0, model.DefaultCandidateWindowDays),
		},
		{
			req:     model.CreateCandidateRequest{Name: "Dana Kovac", Email: "dana.kovac@example.org", LodgeID: lodgeIDs["Harbor Light Lodge"]},
			endDate: now.AddDate(0, 0, 5),
		},
		{
			// Already past its window; lets the expiry sweeper do visible work in dev.
			req:     model.CreateCandidateRequest{Name: "Lee Fontaine", Email: "lee.fontaine@example.org", LodgeID: lodgeIDs["Stone Valley Lodge"]},
			endDate: now.AddDate(0, 0, -2),
		},
	}

	for _, c := range candidates {
		if c.req.LodgeID == "" {
			continue
		}
		if _, err := repo.Create(ctx, &c.req, c.endDate); err != nil {
			if logger != nil {
				logger.ErrorContext(ctx, "failed to create candidate", "email", c.req.Email, "error", err)
			}
			failures++
			continue
		}
		if logger != nil {
			logger.InfoContext(ctx, "created candidate", "email", c.req.Email)
		}
	}

	return failures
}

func seedEvents(ctx context.Context, repo *data.EventRepo, lodgeIDs map[string]string, logger *slog.Logger) int {
	failures := 0
	now := time.Now().UTC()
	hall := "Main Hall"

	events := []model.CreateEventRequest{
		{LodgeID: lodgeIDs["North Ridge Lodge"], Title: "Monthly Business Meeting", Location: &hall, StartsAt: now.AddDate(0, 0, 7)},
		{LodgeID: lodgeIDs["Harbor Light Lodge"], Title: "Candidate Open House", StartsAt: now.AddDate(0, 0, 14)},
		{LodgeID: lodgeIDs["Stone Valley Lodge"], Title: "District Visitation", StartsAt: now.AddDate(0, 1, 0)},
	}

	for _, req := range events {
		if req.LodgeID == "" {
			continue
		}
		if _, err := repo.Create(ctx, &req); err != nil {
			if logger != nil {
				logger.ErrorContext(ctx, "failed to create event", "title", req.Title, "error", err)
			}
			failures++
			continue
		}
		if logger != nil {
			logger.InfoContext(ctx, "created event", "title", req.Title)
		}
	}

	return failures
}

func seedPosts(ctx context.Context, repo *data.PostRepo, lodgeIDs, memberIDs map[string]string, logger *slog.Logger) int {
	failures := 0

	authorID := memberIDs["jordan.blake@example.org"]
	if authorID == "" {
		for _, id := range memberIDs {
			authorID = id
			break
		}
	}
	if authorID == "" {
		if logger != nil {
			logger.WarnContext(ctx, "no seeded members available; skipping posts")
		}
		return failures
	}

	posts := []model.CreatePostRequest{
		{
			LodgeID: lodgeIDs["North Ridge Lodge"],
			Title:   "Welcome to the new directory",
			Body:    "The district directory is live. Check your lodge roster and report anything out of date to your secretary.",
			Publish: true,
		},
		{
			LodgeID: lodgeIDs["North Ridge Lodge"],
			Title:   "Draft: annual dues reminder",
			Body:    "Dues notices go out next month. This draft stays unpublished until the amounts are confirmed.",
		},
	}

	for _, req := range posts {
		if req.LodgeID == "" {
			continue
		}
		if _, err := repo.Create(ctx, authorID, &req); err != nil {
			if logger != nil {
				logger.ErrorContext(ctx, "failed to create post", "title", req.Title, "error", err)
			}
			failures++
			continue
		}
		if logger != nil {
			logger.InfoContext(ctx, "created post", "title", req.Title)
		}
	}

	return failures
}
