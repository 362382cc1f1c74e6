package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lodgeworks/lodge-api/internal/domain/model"

	"github.com/lodgeworks/lodge-api/internal/data/database"
	"github.com/lodgeworks/lodge-api/internal/data/pgxutil"
)

// daysLeftExpr derives the remaining review days at read time, floored at
// zero. Matches model.ComputeDaysLeft.
const daysLeftExpr = `GREATEST(0, FLOOR(EXTRACT(EPOCH FROM (end_date - NOW())) / 86400))::int AS days_left`

// CandidateRepo provides database operations for membership candidates.
type CandidateRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewCandidateRepo creates a new CandidateRepo with real time provider.
func NewCandidateRepo(db *sql.DB) *CandidateRepo {
	return &CandidateRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewCandidateRepoWithTimeProvider creates a new CandidateRepo with a custom time provider (useful for tests).
func NewCandidateRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *CandidateRepo {
	return &CandidateRepo{DB: db, timeProvider: tp}
}

// Create inserts a new candidate in pending state. The caller supplies the
// end of the review window; the service layer owns the window policy.
func (r *CandidateRepo) Create(
	ctx context.Context,
	req *model.CreateCandidateRequest,
	endDate time.Time,
) (*model.Candidate, error) {
	if req == nil {
		return nil, errors.New("create candidate request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	submittedAt := r.timeProvider.Now().UTC()
	var out model.Candidate
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO candidates (
				name, email, lodge_id, status, submitted_at, end_date, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $5, $5)
			RETURNING id, name, email, lodge_id, status, submitted_at, end_date,
			          `+daysLeftExpr+`, legacy_doc, created_at, updated_at
		`,
			strings.TrimSpace(req.Name),
			strings.ToLower(strings.TrimSpace(req.Email)),
			strings.TrimSpace(req.LodgeID),
			string(model.CandidateStatusPending),
			submittedAt,
			endDate.UTC(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Candidate])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, false)
	}
	return &out, nil
}

// GetByID retrieves a candidate by ID.
func (r *CandidateRepo) GetByID(ctx context.Context, id string) (*model.Candidate, error) {
	var out model.Candidate
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, candidateGetByIDQuery, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Candidate])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCandidateNotFound
		}
		return nil, fmt.Errorf("failed to get candidate by ID: %w", err)
	}
	return &out, nil
}

// List retrieves candidates with optional filters.
func (r *CandidateRepo) List(
	ctx context.Context,
	opts model.CandidatesListOptions,
) ([]*model.Candidate, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	queryOpts := []database.ListQueryOption{
		database.WithColumns(candidateColumns()...),
		database.WithLimit(limit),
		database.WithOffset(offset),
		database.WithOrderBy("submitted_at", sortDirDesc),
	}
	if opts.LodgeID != nil && strings.TrimSpace(*opts.LodgeID) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("lodge_id", database.Equal, strings.TrimSpace(*opts.LodgeID)),
		))
	}
	if opts.Status != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("status", database.Equal, string(*opts.Status)),
		))
	}

	query, args := database.BuildListQuery(database.NewListQueryOptions("candidates", queryOpts...))

	var rowsOut []model.Candidate
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Candidate])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	res := make([]*model.Candidate, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Update updates fields of a candidate.
func (r *CandidateRepo) Update(
	ctx context.Context,
	id string,
	req model.UpdateCandidateRequest,
) (*model.Candidate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.Candidate
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		setClause, args := r.buildUpdateClause(req)
		if setClause == "" {
			rows, err := conn.Query(ctx, candidateGetByIDQuery, id)
			if err != nil {
				return err
			}
			defer rows.Close()
			var e error
			out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Candidate])
			return e
		}
		args = append(args, id)
		query := "UPDATE candidates SET " + setClause +
			" WHERE id = $" + strconv.Itoa(len(args)) +
			" RETURNING id, name, email, lodge_id, status, submitted_at, end_date, " +
			daysLeftExpr + ", legacy_doc, created_at, updated_at"
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		var e error
		out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Candidate])
		return e
	})
	if err != nil {
		return nil, r.mapWriteErr(err, true)
	}
	return &out, nil
}

func (r *CandidateRepo) buildUpdateClause(req model.UpdateCandidateRequest) (string, []any) {
	setParts := make([]string, 0, 4)
	args := make([]any, 0, 4)
	nextIdx := func() int { return len(args) + 1 }

	if req.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*req.Name))
	}
	if req.Email != nil {
		setParts = append(setParts, fmt.Sprintf("email = $%d", nextIdx()))
		args = append(args, strings.ToLower(strings.TrimSpace(*req.Email)))
	}
	if req.Status != nil {
		setParts = append(setParts, fmt.Sprintf("status = $%d", nextIdx()))
		args = append(args, string(*req.Status))
	}

	if len(setParts) == 0 {
		return "", nil
	}
	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", nextIdx()))
	args = append(args, r.timeProvider.Now().UTC())
	return strings.Join(setParts, ", "), args
}

// Delete removes a candidate by ID.
func (r *CandidateRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM candidates WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete candidate: %w", err)
	}
	return rows > 0, nil
}

// ExpireOverdue marks pending candidates whose review window has closed as
// expired, at most batchSize per call. SKIP LOCKED keeps concurrent expiry
// runners from double-claiming rows.
func (r *CandidateRepo) ExpireOverdue(ctx context.Context, now time.Time, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	var expired int64
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			ct, err := tx.Exec(ctx, `
				UPDATE candidates SET status = $1, updated_at = $2
				WHERE id IN (
					SELECT id FROM candidates
					WHERE status = $3 AND end_date <= $2
					ORDER BY end_date ASC
					LIMIT $4
					FOR UPDATE SKIP LOCKED
				)`,
				string(model.CandidateStatusExpired),
				now.UTC(),
				string(model.CandidateStatusPending),
				batchSize,
			)
			if err != nil {
				return err
			}
			expired = ct.RowsAffected()
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to expire overdue candidates: %w", err)
	}
	return expired, nil
}

// --- helpers ---

const candidateGetByIDQuery = `
	SELECT id, name, email, lodge_id, status, submitted_at, end_date,
	       ` + daysLeftExpr + `,
	       legacy_doc, created_at, updated_at
	FROM candidates
	WHERE id = $1`

func candidateColumns() []string {
	return []string{
		"id",
		"name",
		"email",
		"lodge_id",
		"status",
		"submitted_at",
		"end_date",
		daysLeftExpr,
		"legacy_doc",
		"created_at",
		"updated_at",
	}
}

func (r *CandidateRepo) mapWriteErr(err error, includeNotFound bool) error {
	if err == nil {
		return nil
	}
	if includeNotFound && errors.Is(err, pgx.ErrNoRows) {
		return ErrCandidateNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrLodgeNotFound
	}
	return err
}
