package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/lodgeworks/lodge-api/internal/domain/model"
	"github.com/lodgeworks/lodge-api/internal/testutil"
)

func TestCandidateRepo_Create_Get_Update_Delete(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewCandidateRepo(db)
		lodge := createTestLodge(t, db)

		// A minute of slack keeps the derived days_left stable across the
		// round trip to the database.
		endDate := time.Now().Add(72*time.Hour + time.Minute)
		c, err := repo.Create(ctx, testutil.NewCandidateRequest(lodge.ID).Build(), endDate)
		require.NoError(t, err)
		require.NotEmpty(t, c.ID)
		assert.Equal(t, model.CandidateStatusPending, c.Status)
		require.NotNil(t, c.PrimaryLodgeID)
		assert.Equal(t, lodge.ID, *c.PrimaryLodgeID)
		assert.Equal(t, 3, c.DaysLeft)
		assert.NotZero(t, c.SubmittedAt)

		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.Name, got.Name)
		assert.Equal(t, 3, got.DaysLeft)

		approved := model.CandidateStatusApproved
		updated, err := repo.Update(ctx, c.ID, model.UpdateCandidateRequest{Status: &approved})
		require.NoError(t, err)
		assert.Equal(t, model.CandidateStatusApproved, updated.Status)

		deleted, err := repo.Delete(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = repo.GetByID(ctx, c.ID)
		assert.ErrorIs(t, err, ErrCandidateNotFound)
	})
}

func TestCandidateRepo_Create_UnknownLodge(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewCandidateRepo(db)
		_, err := repo.Create(context.Background(),
			testutil.NewCandidateRequest("no-such-lodge").Build(),
			time.Now().Add(24*time.Hour))
		assert.ErrorIs(t, err, ErrLodgeNotFound)
	})
}

func TestCandidateRepo_List_Filters(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewCandidateRepo(db)
		lodgeA := createTestLodge(t, db)
		lodgeB := createTestLodge(t, db)

		endDate := time.Now().Add(24 * time.Hour)
		inA, err := repo.Create(ctx, testutil.NewCandidateRequest(lodgeA.ID).Build(), endDate)
		require.NoError(t, err)
		_, err = repo.Create(ctx, testutil.NewCandidateRequest(lodgeB.ID).Build(), endDate)
		require.NoError(t, err)

		byLodge, err := repo.List(ctx, model.CandidatesListOptions{LodgeID: &lodgeA.ID})
		require.NoError(t, err)
		require.Len(t, byLodge, 1)
		assert.Equal(t, inA.ID, byLodge[0].ID)

		pending := model.CandidateStatusPending
		byStatus, err := repo.List(ctx, model.CandidatesListOptions{Status: &pending})
		require.NoError(t, err)
		assert.Len(t, byStatus, 2)
	})
}

func TestCandidateRepo_ExpireOverdue(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewCandidateRepo(db)
		lodge := createTestLodge(t, db)

		overdue, err := repo.Create(ctx, testutil.NewCandidateRequest(lodge.ID).Build(),
			time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Zero(t, overdue.DaysLeft)

		current, err := repo.Create(ctx, testutil.NewCandidateRequest(lodge.ID).Build(),
			time.Now().Add(24*time.Hour))
		require.NoError(t, err)

		// Approved candidates never expire, regardless of end date.
		approvedStatus := model.CandidateStatusApproved
		approved, err := repo.Create(ctx, testutil.NewCandidateRequest(lodge.ID).Build(),
			time.Now().Add(-time.Hour))
		require.NoError(t, err)
		_, err = repo.Update(ctx, approved.ID, model.UpdateCandidateRequest{Status: &approvedStatus})
		require.NoError(t, err)

		n, err := repo.ExpireOverdue(ctx, time.Now(), 100)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := repo.GetByID(ctx, overdue.ID)
		require.NoError(t, err)
		assert.Equal(t, model.CandidateStatusExpired, got.Status)

		stillPending, err := repo.GetByID(ctx, current.ID)
		require.NoError(t, err)
		assert.Equal(t, model.CandidateStatusPending, stillPending.Status)

		stillApproved, err := repo.GetByID(ctx, approved.ID)
		require.NoError(t, err)
		assert.Equal(t, model.CandidateStatusApproved, stillApproved.Status)

		// Second pass finds nothing left to expire.
		n, err = repo.ExpireOverdue(ctx, time.Now(), 100)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestCandidateRepo_ExpireOverdue_BatchLimit(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewCandidateRepo(db)
		lodge := createTestLodge(t, db)

		for range 3 {
			_, err := repo.Create(ctx, testutil.NewCandidateRequest(lodge.ID).Build(),
				time.Now().Add(-time.Hour))
			require.NoError(t, err)
		}

		n, err := repo.ExpireOverdue(ctx, time.Now(), 2)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = repo.ExpireOverdue(ctx, time.Now(), 2)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}
