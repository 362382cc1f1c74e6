package data

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/lodgeworks/lodge-api/internal/domain/model"
	"github.com/lodgeworks/lodge-api/internal/testutil"
)

func createTestLodge(t *testing.T, db *sql.DB) *model.Lodge {
	t.Helper()
	repo := NewLodgeRepo(db)
	lodge, err := repo.Create(context.Background(), testutil.NewLodgeRequest().Build())
	require.NoError(t, err)
	return lodge
}

func createTestMemberIn(t *testing.T, db *sql.DB, lodgeID string) *model.Member {
	t.Helper()
	repo := NewMemberRepo(db)
	m, err := repo.Create(context.Background(),
		testutil.NewMemberRequest().WithPrimaryLodge(lodgeID).Build())
	require.NoError(t, err)
	return m
}

func TestLodgeRepo_Create_Get_List_Update_Delete(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewLodgeRepo(db)

		req := testutil.NewLodgeRequest().WithDistrict("district-3").Build()
		lodge, err := repo.Create(ctx, req)
		require.NoError(t, err)
		require.NotEmpty(t, lodge.ID)
		assert.True(t, lodge.IsActive)
		assert.Equal(t, "district-3", lodge.District)
		assert.Zero(t, lodge.MemberCount)
		assert.NotZero(t, lodge.CreatedAt)

		got, err := repo.GetByID(ctx, lodge.ID)
		require.NoError(t, err)
		assert.Equal(t, lodge.Name, got.Name)

		lst, err := repo.List(ctx, model.LodgesListOptions{Limit: 10})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(lst), 1)

		district := "district-3"
		filtered, err := repo.List(ctx, model.LodgesListOptions{District: &district})
		require.NoError(t, err)
		require.NotEmpty(t, filtered)
		for _, l := range filtered {
			assert.Equal(t, district, l.District)
		}

		updated, err := repo.Update(ctx, lodge.ID, model.UpdateLodgeRequest{
			District: testutil.StringPtr("district-4"),
			IsActive: testutil.BoolPtr(false),
		})
		require.NoError(t, err)
		assert.Equal(t, "district-4", updated.District)
		assert.False(t, updated.IsActive)
		assert.True(t, updated.UpdatedAt.After(lodge.UpdatedAt) || updated.UpdatedAt.Equal(lodge.UpdatedAt))

		deleted, err := repo.Delete(ctx, lodge.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = repo.GetByID(ctx, lodge.ID)
		assert.ErrorIs(t, err, ErrLodgeNotFound)
	})
}

func TestLodgeRepo_Create_DuplicateName(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewLodgeRepo(db)

		name := fmt.Sprintf("dup-lodge-%d", time.Now().UnixNano())
		_, err := repo.Create(ctx, testutil.NewLodgeRequest().WithName(name).Build())
		require.NoError(t, err)

		_, err = repo.Create(ctx, testutil.NewLodgeRequest().WithName(name).Build())
		assert.ErrorIs(t, err, ErrLodgeNameExists)
	})
}

func TestLodgeRepo_Delete_RefusedWhileMembersRemain(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewLodgeRepo(db)

		lodge := createTestLodge(t, db)
		member := createTestMemberIn(t, db, lodge.ID)

		count, err := repo.MemberCount(ctx, lodge.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		got, err := repo.GetByID(ctx, lodge.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.MemberCount)

		_, err = repo.Delete(ctx, lodge.ID)
		assert.ErrorIs(t, err, ErrLodgeHasMembers)

		// Transfer the member out, then the delete goes through.
		memberRepo := NewMemberRepo(db)
		_, err = memberRepo.Update(ctx, member.ID, model.UpdateMemberRequest{
			PrimaryLodgeID: testutil.StringPtr(""),
		})
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, lodge.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
	})
}

func TestLodgeRepo_Delete_Missing(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewLodgeRepo(db)
		deleted, err := repo.Delete(context.Background(), "no-such-lodge")
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}
