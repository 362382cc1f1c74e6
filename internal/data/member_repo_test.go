package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/lodgeworks/lodge-api/internal/domain/auth"
	"github.com/lodgeworks/lodge-api/internal/domain/model"
	"github.com/lodgeworks/lodge-api/internal/testutil"
)

func TestMemberRepo_Create_Defaults(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewMemberRepo(db)

		m, err := repo.Create(ctx, testutil.NewMemberRequest().Build())
		require.NoError(t, err)
		require.NotEmpty(t, m.ID)
		assert.Equal(t, auth.RoleLodgeMember, m.Role)
		assert.Equal(t, model.MemberStatusActive, m.Status)
		assert.Nil(t, m.PrimaryLodgeID)
		assert.Empty(t, m.LodgeMemberships)
	})
}

func TestMemberRepo_Create_NormalizesRoleAndEmail(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewMemberRepo(db)

		req := testutil.NewMemberRequest().
			WithRole("district_admin").
			WithEmail("Mixed.Case@Example.COM").
			Build()
		m, err := repo.Create(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleDistrictAdmin, m.Role)
		assert.Equal(t, "mixed.case@example.com", m.Email)
	})
}

func TestMemberRepo_Create_DuplicateEmail(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewMemberRepo(db)

		first, err := repo.Create(ctx, testutil.NewMemberRequest().Build())
		require.NoError(t, err)

		_, err = repo.Create(ctx, testutil.NewMemberRequest().WithEmail(first.Email).Build())
		assert.ErrorIs(t, err, ErrMemberEmailExists)
	})
}

func TestMemberRepo_Update_RoundTripsJSONColumns(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewMemberRepo(db)
		lodge := createTestLodge(t, db)

		m, err := repo.Create(ctx, testutil.NewMemberRequest().Build())
		require.NoError(t, err)

		memberships := []model.LodgeMembership{
			{LodgeID: lodge.ID, Position: "secretary"},
		}
		updated, err := repo.Update(ctx, m.ID, model.UpdateMemberRequest{
			PrimaryLodgeID:   &lodge.ID,
			LodgeMemberships: &memberships,
			LodgeRoles:       map[string]auth.Role{lodge.ID: "lodge_admin"},
		})
		require.NoError(t, err)
		require.NotNil(t, updated.PrimaryLodgeID)
		assert.Equal(t, lodge.ID, *updated.PrimaryLodgeID)
		require.Len(t, updated.LodgeMemberships, 1)
		assert.Equal(t, "secretary", updated.LodgeMemberships[0].Position)
		// Per-lodge roles are normalized on write.
		assert.Equal(t, auth.RoleLodgeAdmin, updated.LodgeRoles[lodge.ID])

		got, err := repo.GetByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, updated.LodgeMemberships, got.LodgeMemberships)
		assert.Equal(t, updated.LodgeRoles, got.LodgeRoles)
	})
}

func TestMemberRepo_Update_UnknownMember(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewMemberRepo(db)
		_, err := repo.Update(context.Background(), "no-such-member", model.UpdateMemberRequest{
			Name: testutil.StringPtr("renamed"),
		})
		assert.ErrorIs(t, err, ErrMemberNotFound)
	})
}

func TestMemberRepo_List_Filters(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewMemberRepo(db)
		lodge := createTestLodge(t, db)

		inLodge := createTestMemberIn(t, db, lodge.ID)
		outside, err := repo.Create(ctx, testutil.NewMemberRequest().Build())
		require.NoError(t, err)

		byLodge, err := repo.List(ctx, model.MembersListOptions{LodgeID: &lodge.ID})
		require.NoError(t, err)
		require.Len(t, byLodge, 1)
		assert.Equal(t, inLodge.ID, byLodge[0].ID)

		q := outside.Email
		byQuery, err := repo.List(ctx, model.MembersListOptions{Q: &q})
		require.NoError(t, err)
		require.Len(t, byQuery, 1)
		assert.Equal(t, outside.ID, byQuery[0].ID)
	})
}

func TestMemberRepo_DeactivateAndDelete(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewMemberRepo(db)

		m, err := repo.Create(ctx, testutil.NewMemberRequest().Build())
		require.NoError(t, err)

		ok, err := repo.Deactivate(ctx, m.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := repo.GetByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, model.MemberStatusInactive, got.Status)

		deleted, err := repo.Delete(ctx, m.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = repo.GetByID(ctx, m.ID)
		assert.ErrorIs(t, err, ErrMemberNotFound)
	})
}
