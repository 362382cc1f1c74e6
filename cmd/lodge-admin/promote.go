package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/lodgeworks/lodge-api/internal/authz"
	"github.com/lodgeworks/lodge-api/internal/data"
	"github.com/lodgeworks/lodge-api/internal/domain/auth"
	"github.com/lodgeworks/lodge-api/internal/domain/model"
	"github.com/lodgeworks/lodge-api/internal/service"
)

type promoteOptions struct {
	Timeout time.Duration
	ID      string
	Email   string
	Role    string
	Yes     bool
}

func runPromote(cmdCtx *commandContext, args []string) error {
	opts, err := parsePromoteFlags(args)
	if err != nil {
		return err
	}

	role := auth.Normalize(opts.Role)
	if !validRole(role) {
		return fmt.Errorf("unknown role %q; valid roles: %s, %s, %s, %s",
			opts.Role, auth.RoleSuperAdmin, auth.RoleDistrictAdmin, auth.RoleLodgeAdmin, auth.RoleLodgeMember)
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		members := data.NewMemberRepo(db)

		target, err := findPromoteTarget(ctx, members, opts)
		if err != nil {
			return err
		}

		confirmOpts := promoteConfirmOptions{
			yes:    opts.Yes,
			target: fmt.Sprintf("member %q (%s), currently %s", target.Name, target.Email, target.Role),
			role:   role,
		}
		if confirmErr := confirmAction(confirmOpts, "set role to "+string(role)); confirmErr != nil {
			return confirmErr
		}

		svc, err := service.NewMemberService(service.MemberServiceOptions{
			Guard:       authz.NewGuard(authz.GuardOptions{}),
			Members:     members,
			RootLodgeID: cmdCtx.Config.Services.Authz.RootLodgeID,
			Logger:      cmdCtx.Logger,
		})
		if err != nil {
			return fmt.Errorf("wire member service: %w", err)
		}

		// The operator acts as a platform admin so the edit takes the same
		// path as an API role change, promotion invariant included.
		operator := &auth.Principal{ID: "lodge-admin-cli", GlobalRole: auth.RoleSuperAdmin}
		roleStr := string(role)
		updated, err := svc.Update(ctx, operator, target.ID, model.UpdateMemberRequest{Role: &roleStr})
		if err != nil {
			return fmt.Errorf("update member role: %w", err)
		}

		return printPromoteResult(updated)
	})
}

func parsePromoteFlags(args []string) (promoteOptions, error) {
	fs := flag.NewFlagSet("promote", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := promoteOptions{
		Timeout: time.Minute,
	}

	fs.DurationVar(&opts.Timeout, "timeout", time.Minute, "Maximum duration to wait for the update to complete")
	fs.StringVar(&opts.ID, "id", "", "Member id to update")
	fs.StringVar(&opts.Email, "email", "", "Member email to update")
	fs.StringVar(&opts.Role, "role", "", "Role to assign (case-insensitive)")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return promoteOptions{}, err
	}

	if opts.Timeout <= 0 {
		return promoteOptions{}, errors.New("--timeout must be greater than zero")
	}
	if opts.ID == "" && opts.Email == "" {
		return promoteOptions{}, errors.New("pass --id or --email to select the member")
	}
	if opts.ID != "" && opts.Email != "" {
		return promoteOptions{}, errors.New("--id and --email are mutually exclusive")
	}
	if opts.Role == "" {
		return promoteOptions{}, errors.New("--role is required")
	}

	return opts, nil
}

func validRole(r auth.Role) bool {
	switch r {
	case auth.RoleSuperAdmin, auth.RoleDistrictAdmin, auth.RoleLodgeAdmin, auth.RoleLodgeMember:
		return true
	default:
		return false
	}
}

func findPromoteTarget(ctx context.Context, members *data.MemberRepo, opts promoteOptions) (*model.Member, error) {
	if opts.ID != "" {
		m, err := members.GetByID(ctx, opts.ID)
		if err != nil {
			return nil, fmt.Errorf("look up member %q: %w", opts.ID, err)
		}
		return m, nil
	}
	m, err := members.GetByEmail(ctx, opts.Email)
	if err != nil {
		return nil, fmt.Errorf("look up member %q: %w", opts.Email, err)
	}
	return m, nil
}

type promoteConfirmOptions struct {
	yes    bool
	target string
	role   auth.Role
}

func (p promoteConfirmOptions) IsDryRun() bool { return false }
func (p promoteConfirmOptions) IsYes() bool    { return p.yes }
func (p promoteConfirmOptions) GetWarning() string {
	return "WARNING: role changes take effect on the member's next login."
}
func (p promoteConfirmOptions) GetTarget() string { return p.target }

func printPromoteResult(m *model.Member) error {
	if err := writef(os.Stdout, "Member %s (%s) now has role %s\n", m.Name, m.Email, m.Role); err != nil {
		return fmt.Errorf("print promote result: %w", err)
	}
	if len(m.LodgeRoles) == 0 {
		return nil
	}

	lodgeIDs := make([]string, 0, len(m.LodgeRoles))
	for lodgeID := range m.LodgeRoles {
		lodgeIDs = append(lodgeIDs, lodgeID)
	}
	sort.Strings(lodgeIDs)

	if err := writeln(os.Stdout, "Lodge roles:"); err != nil {
		return fmt.Errorf("print lodge roles header: %w", err)
	}
	for _, lodgeID := range lodgeIDs {
		if err := writef(os.Stdout, "  %s: %s\n", lodgeID, m.LodgeRoles[lodgeID]); err != nil {
			return fmt.Errorf("print lodge role: %w", err)
		}
	}
	return nil
}
