package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lodgeworks/lodge-api/internal/data/database"
	"github.com/lodgeworks/lodge-api/internal/data/pgxutil"
	"github.com/lodgeworks/lodge-api/internal/domain/model"
)

const (
	sortDirAsc  = "ASC"
	sortDirDesc = "DESC"
)

// memberCountExpr derives member_count from the members table at read time.
// Only primary membership counts toward a lodge's roster size.
const memberCountExpr = `(SELECT COUNT(*) FROM members m WHERE m.primary_lodge_id = lodges.id) AS member_count`

// LodgeRepo provides database operations for lodges.
type LodgeRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewLodgeRepo creates a new LodgeRepo with real time provider.
func NewLodgeRepo(db *sql.DB) *LodgeRepo {
	return &LodgeRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewLodgeRepoWithTimeProvider creates a new LodgeRepo with a custom time provider (useful for tests).
func NewLodgeRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *LodgeRepo {
	return &LodgeRepo{DB: db, timeProvider: tp}
}

// Create inserts a new lodge.
func (r *LodgeRepo) Create(ctx context.Context, req *model.CreateLodgeRequest) (*model.Lodge, error) {
	if req == nil {
		return nil, errors.New("create lodge request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Default is_active to true if not specified (matches DB default)
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	createdAt := r.timeProvider.Now().UTC()
	var out model.Lodge
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO lodges (name, district, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			RETURNING id, name, district, is_active, 0 AS member_count, created_at, updated_at
		`,
			strings.TrimSpace(req.Name),
			strings.TrimSpace(req.District),
			isActive,
			createdAt,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Lodge])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, false)
	}
	return &out, nil
}

// GetByID retrieves a lodge by ID.
func (r *LodgeRepo) GetByID(ctx context.Context, id string) (*model.Lodge, error) {
	var lodge model.Lodge
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, lodgeGetByIDQuery, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		lodge, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Lodge])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLodgeNotFound
		}
		return nil, fmt.Errorf("failed to get lodge by ID: %w", err)
	}
	return &lodge, nil
}

// List retrieves lodges with optional filters and sorting.
func (r *LodgeRepo) List(ctx context.Context, opts model.LodgesListOptions) ([]*model.Lodge, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	queryOpts := r.buildLodgeQueryOptions(opts, limit, offset)
	query, args := database.BuildListQuery(queryOpts)

	var rowsOut []model.Lodge
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Lodge])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list lodges: %w", err)
	}
	res := make([]*model.Lodge, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Update updates fields of a lodge.
func (r *LodgeRepo) Update(
	ctx context.Context,
	id string,
	req model.UpdateLodgeRequest,
) (*model.Lodge, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.Lodge
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		setClause, args := r.buildUpdateClause(req)
		if setClause == "" {
			rows, err := conn.Query(ctx, lodgeGetByIDQuery, id)
			if err != nil {
				return err
			}
			defer rows.Close()
			var e error
			out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Lodge])
			return e
		}
		args = append(args, id)
		query := "UPDATE lodges SET " + setClause +
			" WHERE id = $" + strconv.Itoa(len(args)) +
			" RETURNING id, name, district, is_active, " + memberCountExpr + ", created_at, updated_at"
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		var e error
		out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Lodge])
		return e
	})
	if err != nil {
		return nil, r.mapWriteErr(err, true)
	}
	return &out, nil
}

// buildUpdateClause builds the SQL SET clause and args for updating a lodge based on the request.
func (r *LodgeRepo) buildUpdateClause(req model.UpdateLodgeRequest) (string, []any) {
	setParts := make([]string, 0, 4)
	args := make([]any, 0, 4)
	nextIdx := func() int { return len(args) + 1 }

	if req.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*req.Name))
	}
	if req.District != nil {
		setParts = append(setParts, fmt.Sprintf("district = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*req.District))
	}
	if req.IsActive != nil {
		setParts = append(setParts, fmt.Sprintf("is_active = $%d", nextIdx()))
		args = append(args, *req.IsActive)
	}

	if len(setParts) == 0 {
		return "", nil
	}
	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", nextIdx()))
	args = append(args, r.timeProvider.Now().UTC())
	return strings.Join(setParts, ", "), args
}

// Delete deletes a lodge by ID. The delete is refused while the lodge still
// has primary members; history stays intact until members are transferred.
func (r *LodgeRepo) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			var count int
			if err := tx.QueryRow(ctx,
				`SELECT COUNT(*) FROM members WHERE primary_lodge_id = $1`, id,
			).Scan(&count); err != nil {
				return err
			}
			if count > 0 {
				return ErrLodgeHasMembers
			}
			ct, err := tx.Exec(ctx, `DELETE FROM lodges WHERE id = $1`, id)
			if err != nil {
				return err
			}
			deleted = ct.RowsAffected() > 0
			return nil
		},
	})
	if err != nil {
		if errors.Is(err, ErrLodgeHasMembers) {
			return false, ErrLodgeHasMembers
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// A member row snuck in between the count and the delete.
			return false, ErrLodgeHasMembers
		}
		return false, fmt.Errorf("failed to delete lodge: %w", err)
	}
	return deleted, nil
}

// MemberCount returns the number of members whose primary lodge is id.
func (r *LodgeRepo) MemberCount(ctx context.Context, id string) (int, error) {
	var count int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT COUNT(*) FROM members WHERE primary_lodge_id = $1`, id,
		).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count lodge members: %w", err)
	}
	return count, nil
}

// --- helpers ---

const lodgeGetByIDQuery = `
	SELECT id, name, district, is_active,
	       ` + memberCountExpr + `,
	       created_at, updated_at
	FROM lodges
	WHERE id = $1`

// lodgeColumns returns the standard column list for lodge list queries.
func lodgeColumns() []string {
	return []string{
		"id",
		"name",
		"district",
		"is_active",
		memberCountExpr,
		"created_at",
		"updated_at",
	}
}

// buildLodgeQueryOptions builds query options for lodge listing with filters and sorting.
func (r *LodgeRepo) buildLodgeQueryOptions(
	opts model.LodgesListOptions,
	limit, offset int,
) *database.ListQueryOptions {
	queryOpts := []database.ListQueryOption{
		database.WithColumns(lodgeColumns()...),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}

	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("name", database.ILike, "%"+strings.TrimSpace(*opts.Q)+"%"),
		))
	}
	if opts.District != nil && strings.TrimSpace(*opts.District) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("district", database.Equal, strings.TrimSpace(*opts.District)),
		))
	}
	if opts.IsActive != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("is_active", database.Equal, *opts.IsActive),
		))
	}

	queryOpts = append(queryOpts, database.WithOrderBy("name", sortDirAsc))

	return database.NewListQueryOptions("lodges", queryOpts...)
}

func (r *LodgeRepo) mapWriteErr(err error, includeNotFound bool) error {
	if err == nil {
		return nil
	}
	if includeNotFound && errors.Is(err, pgx.ErrNoRows) {
		return ErrLodgeNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrLodgeNameExists
	}
	return err
}
