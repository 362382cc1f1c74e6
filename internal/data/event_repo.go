package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lodgeworks/lodge-api/internal/domain/model"

	"github.com/lodgeworks/lodge-api/internal/data/database"
	"github.com/lodgeworks/lodge-api/internal/data/pgxutil"
)

// EventRepo provides database operations for lodge events.
type EventRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewEventRepo creates a new EventRepo with real time provider.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewEventRepoWithTimeProvider creates a new EventRepo with a custom time provider (useful for tests).
func NewEventRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *EventRepo {
	return &EventRepo{DB: db, timeProvider: tp}
}

// Create inserts a new event.
func (r *EventRepo) Create(ctx context.Context, req *model.CreateEventRequest) (*model.Event, error) {
	if req == nil {
		return nil, errors.New("create event request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	createdAt := r.timeProvider.Now().UTC()
	var out model.Event
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO lodge_events (lodge_id, title, location, starts_at, ends_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING id, lodge_id, title, location, starts_at, ends_at, created_at, updated_at
		`,
			strings.TrimSpace(req.LodgeID),
			strings.TrimSpace(req.Title),
			req.Location,
			req.StartsAt.UTC(),
			req.EndsAt,
			createdAt,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Event])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, false)
	}
	return &out, nil
}

// GetByID retrieves an event by ID.
func (r *EventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var out model.Event
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, eventGetByIDQuery, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Event])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event by ID: %w", err)
	}
	return &out, nil
}

// List retrieves events with optional filters.
func (r *EventRepo) List(ctx context.Context, opts model.EventsListOptions) ([]*model.Event, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	queryOpts := []database.ListQueryOption{
		database.WithColumns(
			"id", "lodge_id", "title", "location", "starts_at", "ends_at",
			"created_at", "updated_at",
		),
		database.WithLimit(limit),
		database.WithOffset(offset),
		database.WithOrderBy("starts_at", sortDirAsc),
	}
	if opts.LodgeID != nil && strings.TrimSpace(*opts.LodgeID) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("lodge_id", database.Equal, strings.TrimSpace(*opts.LodgeID)),
		))
	}
	if opts.After != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("starts_at", database.GreaterThan, opts.After.UTC()),
		))
	}

	query, args := database.BuildListQuery(database.NewListQueryOptions("lodge_events", queryOpts...))

	var rowsOut []model.Event
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Event])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	res := make([]*model.Event, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Update updates fields of an event.
func (r *EventRepo) Update(
	ctx context.Context,
	id string,
	req model.UpdateEventRequest,
) (*model.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.Event
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		setClause, args := r.buildUpdateClause(req)
		if setClause == "" {
			rows, err := conn.Query(ctx, eventGetByIDQuery, id)
			if err != nil {
				return err
			}
			defer rows.Close()
			var e error
			out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Event])
			return e
		}
		args = append(args, id)
		query := "UPDATE lodge_events SET " + setClause +
			" WHERE id = $" + strconv.Itoa(len(args)) +
			" RETURNING id, lodge_id, title, location, starts_at, ends_at, created_at, updated_at"
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		var e error
		out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Event])
		return e
	})
	if err != nil {
		return nil, r.mapWriteErr(err, true)
	}
	return &out, nil
}

func (r *EventRepo) buildUpdateClause(req model.UpdateEventRequest) (string, []any) {
	setParts := make([]string, 0, 4)
	args := make([]any, 0, 4)
	nextIdx := func() int { return len(args) + 1 }

	if req.Title != nil {
		setParts = append(setParts, fmt.Sprintf("title = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*req.Title))
	}
	if req.Location != nil {
		if strings.TrimSpace(*req.Location) == "" {
			setParts = append(setParts, "location = NULL")
		} else {
			setParts = append(setParts, fmt.Sprintf("location = $%d", nextIdx()))
			args = append(args, strings.TrimSpace(*req.Location))
		}
	}
	if req.StartsAt != nil {
		setParts = append(setParts, fmt.Sprintf("starts_at = $%d", nextIdx()))
		args = append(args, req.StartsAt.UTC())
	}
	if req.EndsAt != nil {
		setParts = append(setParts, fmt.Sprintf("ends_at = $%d", nextIdx()))
		args = append(args, req.EndsAt.UTC())
	}

	if len(setParts) == 0 {
		return "", nil
	}
	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", nextIdx()))
	args = append(args, r.timeProvider.Now().UTC())
	return strings.Join(setParts, ", "), args
}

// Delete removes an event by ID.
func (r *EventRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM lodge_events WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete event: %w", err)
	}
	return rows > 0, nil
}

// --- helpers ---

const eventGetByIDQuery = `
	SELECT id, lodge_id, title, location, starts_at, ends_at, created_at, updated_at
	FROM lodge_events
	WHERE id = $1`

func (r *EventRepo) mapWriteErr(err error, includeNotFound bool) error {
	if err == nil {
		return nil
	}
	if includeNotFound && errors.Is(err, pgx.ErrNoRows) {
		return ErrEventNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrLodgeNotFound
	}
	return err
}
