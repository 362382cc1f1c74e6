package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lodgeworks/lodge-api/internal/core"
	"github.com/lodgeworks/lodge-api/internal/data/pgxutil"
)

// ReverseLookupRepo resolves the owning lodge for records that carry no
// usable lodge reference of their own. It checks the member and candidate
// tables by primary key first, then falls back to scanning legacy lodge
// rosters for the record id.
type ReverseLookupRepo struct {
	DB *sql.DB
}

// NewReverseLookupRepo creates a new ReverseLookupRepo.
func NewReverseLookupRepo(db *sql.DB) *ReverseLookupRepo {
	return &ReverseLookupRepo{DB: db}
}

// FindLodgeIDByRecordID returns the lodge the record belongs to, or an
// empty string when no table claims it. The resolver decides what a no-hit
// means for the caller.
func (r *ReverseLookupRepo) FindLodgeIDByRecordID(ctx context.Context, recordID string) (string, error) {
	if recordID == "" {
		return "", nil
	}

	var lodgeID string
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, reverseLookupQuery, recordID).Scan(&lodgeID)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to reverse-resolve lodge for record: %w", err)
	}
	return lodgeID, nil
}

// reverseLookupQuery probes, in order of likelihood: a member's primary
// lodge, a candidate's lodge, then any lodge whose imported roster document
// still lists the record id.
const reverseLookupQuery = `
	SELECT lodge_id FROM (
		SELECT primary_lodge_id AS lodge_id, 1 AS priority FROM members
		WHERE id = $1 AND primary_lodge_id IS NOT NULL
		UNION ALL
		SELECT lodge_id, 2 AS priority FROM candidates
		WHERE id = $1 AND lodge_id IS NOT NULL
		UNION ALL
		SELECT id AS lodge_id, 3 AS priority FROM lodges
		WHERE legacy_roster IS NOT NULL AND jsonb_exists(legacy_roster, $1)
	) hits
	ORDER BY priority
	LIMIT 1`

// CachedReverseLookup layers a roster cache over a reverse lookup so
// repeated authorization checks against the same legacy record hit Redis
// instead of the database.
type CachedReverseLookup struct {
	next  core.LodgeReverseLookup
	cache core.RosterCache
}

// NewCachedReverseLookup wraps next with cache.
func NewCachedReverseLookup(next core.LodgeReverseLookup, cache core.RosterCache) *CachedReverseLookup {
	return &CachedReverseLookup{next: next, cache: cache}
}

// FindLodgeIDByRecordID consults the cache before the underlying lookup.
// Cache failures degrade to the uncached path rather than failing the
// authorization check.
func (c *CachedReverseLookup) FindLodgeIDByRecordID(ctx context.Context, recordID string) (string, error) {
	if c.cache != nil {
		if lodgeID, ok, err := c.cache.GetLodgeForRecord(ctx, recordID); err == nil && ok {
			return lodgeID, nil
		}
	}

	lodgeID, err := c.next.FindLodgeIDByRecordID(ctx, recordID)
	if err != nil {
		return "", err
	}
	if c.cache != nil && lodgeID != "" {
		// best effort; a write failure only costs a future lookup
		_ = c.cache.SetLodgeForRecord(ctx, recordID, lodgeID)
	}
	return lodgeID, nil
}
