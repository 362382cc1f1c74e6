package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lodgeworks/lodge-api/internal/domain/auth"
	"github.com/lodgeworks/lodge-api/internal/domain/model"

	"github.com/lodgeworks/lodge-api/internal/data/database"
	"github.com/lodgeworks/lodge-api/internal/data/pgxutil"
)

// memberColumnList is the scan order every member query must follow.
// lodge_memberships and lodge_roles are jsonb and need manual decoding,
// so member rows never go through RowToStructByName.
const memberColumnList = `id, name, email, role, primary_lodge_id, lodge_memberships,
	lodge_roles, administered_lodge_ids, status, legacy_doc, created_at, updated_at`

// MemberRepo provides database operations for members.
type MemberRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewMemberRepo creates a new MemberRepo with real time provider.
func NewMemberRepo(db *sql.DB) *MemberRepo {
	return &MemberRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewMemberRepoWithTimeProvider creates a new MemberRepo with a custom time provider (useful for tests).
func NewMemberRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *MemberRepo {
	return &MemberRepo{DB: db, timeProvider: tp}
}

// Create inserts a new member. The global role defaults to LODGE_MEMBER when
// the request leaves it blank.
func (r *MemberRepo) Create(ctx context.Context, req *model.CreateMemberRequest) (*model.Member, error) {
	if req == nil {
		return nil, errors.New("create member request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	role := auth.RoleLodgeMember
	if strings.TrimSpace(req.Role) != "" {
		role = auth.Normalize(req.Role)
	}

	memberships := req.LodgeMemberships
	if memberships == nil {
		memberships = []model.LodgeMembership{}
	}
	membershipsJSON, err := json.Marshal(memberships)
	if err != nil {
		return nil, fmt.Errorf("failed to encode lodge memberships: %w", err)
	}

	createdAt := r.timeProvider.Now().UTC()
	var out *model.Member
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO members (
				name, email, role, primary_lodge_id, lodge_memberships,
				lodge_roles, administered_lodge_ids, status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, '{}'::jsonb, '{}'::text[], $6, $7, $7)
			RETURNING `+memberColumnList,
			strings.TrimSpace(req.Name),
			strings.ToLower(strings.TrimSpace(req.Email)),
			string(role),
			normalizeNullable(req.PrimaryLodgeID),
			membershipsJSON,
			string(model.MemberStatusActive),
			createdAt,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = collectOneMember(rows)
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, false)
	}
	return out, nil
}

// GetByID retrieves a member by ID.
func (r *MemberRepo) GetByID(ctx context.Context, id string) (*model.Member, error) {
	var out *model.Member
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+memberColumnList+` FROM members WHERE id = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = collectOneMember(rows)
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member by ID: %w", err)
	}
	return out, nil
}

// GetByEmail retrieves a member by email, case-insensitively. Emails are
// stored lowercased, so the lookup lowercases its argument instead of
// forcing an ILIKE scan.
func (r *MemberRepo) GetByEmail(ctx context.Context, email string) (*model.Member, error) {
	var out *model.Member
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+memberColumnList+` FROM members WHERE email = $1`,
			strings.ToLower(strings.TrimSpace(email)))
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = collectOneMember(rows)
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member by email: %w", err)
	}
	return out, nil
}

// List retrieves members with optional filters.
func (r *MemberRepo) List(ctx context.Context, opts model.MembersListOptions) ([]*model.Member, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	queryOpts := []database.ListQueryOption{
		database.WithColumns(
			"id", "name", "email", "role", "primary_lodge_id", "lodge_memberships",
			"lodge_roles", "administered_lodge_ids", "status", "legacy_doc",
			"created_at", "updated_at",
		),
		database.WithLimit(limit),
		database.WithOffset(offset),
		database.WithOrderBy("name", sortDirAsc),
	}
	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		q := "%" + strings.TrimSpace(*opts.Q) + "%"
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereRawCond("(name ILIKE $1 OR email ILIKE $1)", q),
		))
	}
	if opts.LodgeID != nil && strings.TrimSpace(*opts.LodgeID) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("primary_lodge_id", database.Equal, strings.TrimSpace(*opts.LodgeID)),
		))
	}
	if opts.Status != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("status", database.Equal, string(*opts.Status)),
		))
	}

	query, args := database.BuildListQuery(database.NewListQueryOptions("members", queryOpts...))

	var out []*model.Member
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = collectMembers(rows)
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return out, nil
}

// Update updates fields of a member.
func (r *MemberRepo) Update(
	ctx context.Context,
	id string,
	req model.UpdateMemberRequest,
) (*model.Member, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out *model.Member
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		setClause, args, err := r.buildUpdateClause(req)
		if err != nil {
			return err
		}
		if setClause == "" {
			rows, qerr := conn.Query(ctx,
				`SELECT `+memberColumnList+` FROM members WHERE id = $1`, id)
			if qerr != nil {
				return qerr
			}
			defer rows.Close()
			out, qerr = collectOneMember(rows)
			return qerr
		}
		args = append(args, id)
		query := "UPDATE members SET " + setClause +
			" WHERE id = $" + strconv.Itoa(len(args)) +
			" RETURNING " + memberColumnList
		rows, qerr := conn.Query(ctx, query, args...)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()
		out, qerr = collectOneMember(rows)
		return qerr
	})
	if err != nil {
		return nil, r.mapWriteErr(err, true)
	}
	return out, nil
}

// buildUpdateClause builds the SQL SET clause and args for updating a member.
func (r *MemberRepo) buildUpdateClause(req model.UpdateMemberRequest) (string, []any, error) {
	setParts := make([]string, 0, 8)
	args := make([]any, 0, 8)
	nextIdx := func() int { return len(args) + 1 }

	if req.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*req.Name))
	}
	if req.Email != nil {
		setParts = append(setParts, fmt.Sprintf("email = $%d", nextIdx()))
		args = append(args, strings.ToLower(strings.TrimSpace(*req.Email)))
	}
	if req.Role != nil {
		setParts = append(setParts, fmt.Sprintf("role = $%d", nextIdx()))
		args = append(args, string(auth.Normalize(*req.Role)))
	}
	if req.PrimaryLodgeID != nil {
		if strings.TrimSpace(*req.PrimaryLodgeID) == "" {
			setParts = append(setParts, "primary_lodge_id = NULL")
		} else {
			setParts = append(setParts, fmt.Sprintf("primary_lodge_id = $%d", nextIdx()))
			args = append(args, strings.TrimSpace(*req.PrimaryLodgeID))
		}
	}
	if req.LodgeMemberships != nil {
		encoded, err := json.Marshal(*req.LodgeMemberships)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode lodge memberships: %w", err)
		}
		setParts = append(setParts, fmt.Sprintf("lodge_memberships = $%d", nextIdx()))
		args = append(args, encoded)
	}
	if req.LodgeRoles != nil {
		normalized := make(map[string]auth.Role, len(req.LodgeRoles))
		for lodgeID, role := range req.LodgeRoles {
			normalized[lodgeID] = auth.Normalize(string(role))
		}
		encoded, err := json.Marshal(normalized)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode lodge roles: %w", err)
		}
		setParts = append(setParts, fmt.Sprintf("lodge_roles = $%d", nextIdx()))
		args = append(args, encoded)
	}
	if req.Status != nil {
		setParts = append(setParts, fmt.Sprintf("status = $%d", nextIdx()))
		args = append(args, string(*req.Status))
	}

	if len(setParts) == 0 {
		return "", nil, nil
	}
	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", nextIdx()))
	args = append(args, r.timeProvider.Now().UTC())
	return strings.Join(setParts, ", "), args, nil
}

// Delete removes a member by ID.
func (r *MemberRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete member: %w", err)
	}
	return rows > 0, nil
}

// Deactivate flips a member to inactive without deleting history.
func (r *MemberRepo) Deactivate(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx,
			`UPDATE members SET status = $1, updated_at = $2 WHERE id = $3`,
			string(model.MemberStatusInactive),
			r.timeProvider.Now().UTC(),
			id,
		)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to deactivate member: %w", err)
	}
	return rows > 0, nil
}

// --- helpers ---

// collectOneMember scans exactly one member row, returning pgx.ErrNoRows
// when the result set is empty.
func collectOneMember(rows pgx.Rows) (*model.Member, error) {
	members, err := collectMembers(rows)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, pgx.ErrNoRows
	}
	return members[0], nil
}

func collectMembers(rows pgx.Rows) ([]*model.Member, error) {
	out := []*model.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// scanMember decodes one row in memberColumnList order.
func scanMember(rows pgx.Rows) (*model.Member, error) {
	var (
		m               model.Member
		membershipsJSON []byte
		rolesJSON       []byte
		legacyDoc       []byte
	)
	if err := rows.Scan(
		&m.ID,
		&m.Name,
		&m.Email,
		&m.Role,
		&m.PrimaryLodgeID,
		&membershipsJSON,
		&rolesJSON,
		&m.AdministeredLodgeIDs,
		&m.Status,
		&legacyDoc,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(membershipsJSON) > 0 {
		if err := json.Unmarshal(membershipsJSON, &m.LodgeMemberships); err != nil {
			return nil, fmt.Errorf("failed to decode lodge memberships: %w", err)
		}
	}
	if len(rolesJSON) > 0 {
		if err := json.Unmarshal(rolesJSON, &m.LodgeRoles); err != nil {
			return nil, fmt.Errorf("failed to decode lodge roles: %w", err)
		}
	}
	if len(legacyDoc) > 0 {
		m.LegacyDoc = json.RawMessage(legacyDoc)
	}
	return &m, nil
}

// normalizeNullable maps nil or blank strings to SQL NULL.
func normalizeNullable(s *string) any {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return strings.TrimSpace(*s)
}

func (r *MemberRepo) mapWriteErr(err error, includeNotFound bool) error {
	if err == nil {
		return nil
	}
	if includeNotFound && errors.Is(err, pgx.ErrNoRows) {
		return ErrMemberNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrMemberEmailExists
	}
	return err
}
