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

// PostRepo provides database operations for lodge posts.
type PostRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewPostRepo creates a new PostRepo with real time provider.
func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewPostRepoWithTimeProvider creates a new PostRepo with a custom time provider (useful for tests).
func NewPostRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *PostRepo {
	return &PostRepo{DB: db, timeProvider: tp}
}

// Create inserts a new post on behalf of authorID.
func (r *PostRepo) Create(ctx context.Context, authorID string, req *model.CreatePostRequest) (*model.Post, error) {
	if req == nil {
		return nil, errors.New("create post request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(authorID) == "" {
		return nil, errors.New("author id is required")
	}

	createdAt := r.timeProvider.Now().UTC()
	var publishedAt any
	if req.Publish {
		publishedAt = createdAt
	}

	var out model.Post
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO posts (lodge_id, author_id, title, body, published_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING id, lodge_id, author_id, title, body, published_at, created_at, updated_at
		`,
			strings.TrimSpace(req.LodgeID),
			strings.TrimSpace(authorID),
			strings.TrimSpace(req.Title),
			req.Body,
			publishedAt,
			createdAt,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Post])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, false)
	}
	return &out, nil
}

// GetByID retrieves a post by ID.
func (r *PostRepo) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var out model.Post
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, postGetByIDQuery, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Post])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post by ID: %w", err)
	}
	return &out, nil
}

// List retrieves posts with optional filters.
func (r *PostRepo) List(ctx context.Context, opts model.PostsListOptions) ([]*model.Post, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	queryOpts := []database.ListQueryOption{
		database.WithColumns(
			"id", "lodge_id", "author_id", "title", "body", "published_at",
			"created_at", "updated_at",
		),
		database.WithLimit(limit),
		database.WithOffset(offset),
		database.WithOrderBy("created_at", sortDirDesc),
	}
	if opts.LodgeID != nil && strings.TrimSpace(*opts.LodgeID) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("lodge_id", database.Equal, strings.TrimSpace(*opts.LodgeID)),
		))
	}
	if opts.PublishedOnly {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereRawCond("published_at IS NOT NULL"),
		))
	}

	query, args := database.BuildListQuery(database.NewListQueryOptions("posts", queryOpts...))

	var rowsOut []model.Post
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Post])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	res := make([]*model.Post, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Update updates fields of a post.
func (r *PostRepo) Update(
	ctx context.Context,
	id string,
	req model.UpdatePostRequest,
) (*model.Post, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.Post
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		setClause, args := r.buildUpdateClause(req)
		if setClause == "" {
			rows, err := conn.Query(ctx, postGetByIDQuery, id)
			if err != nil {
				return err
			}
			defer rows.Close()
			var e error
			out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Post])
			return e
		}
		args = append(args, id)
		query := "UPDATE posts SET " + setClause +
			" WHERE id = $" + strconv.Itoa(len(args)) +
			" RETURNING id, lodge_id, author_id, title, body, published_at, created_at, updated_at"
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		var e error
		out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Post])
		return e
	})
	if err != nil {
		return nil, r.mapWriteErr(err, true)
	}
	return &out, nil
}

func (r *PostRepo) buildUpdateClause(req model.UpdatePostRequest) (string, []any) {
	setParts := make([]string, 0, 4)
	args := make([]any, 0, 4)
	nextIdx := func() int { return len(args) + 1 }

	if req.Title != nil {
		setParts = append(setParts, fmt.Sprintf("title = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*req.Title))
	}
	if req.Body != nil {
		setParts = append(setParts, fmt.Sprintf("body = $%d", nextIdx()))
		args = append(args, *req.Body)
	}
	if req.Publish != nil {
		if *req.Publish {
			setParts = append(setParts, fmt.Sprintf("published_at = COALESCE(published_at, $%d)", nextIdx()))
			args = append(args, r.timeProvider.Now().UTC())
		} else {
			setParts = append(setParts, "published_at = NULL")
		}
	}

	if len(setParts) == 0 {
		return "", nil
	}
	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", nextIdx()))
	args = append(args, r.timeProvider.Now().UTC())
	return strings.Join(setParts, ", "), args
}

// Delete removes a post by ID.
func (r *PostRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete post: %w", err)
	}
	return rows > 0, nil
}

// --- helpers ---

const postGetByIDQuery = `
	SELECT id, lodge_id, author_id, title, body, published_at, created_at, updated_at
	FROM posts
	WHERE id = $1`

func (r *PostRepo) mapWriteErr(err error, includeNotFound bool) error {
	if err == nil {
		return nil
	}
	if includeNotFound && errors.Is(err, pgx.ErrNoRows) {
		return ErrPostNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrLodgeNotFound
	}
	return err
}
