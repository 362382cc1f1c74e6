package authroles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/lodgeworks/lodge-api/internal/domain/auth"
)

func newTestMapper() StaticMapper {
	return StaticMapper{
		SuperAdminGroup:    "lodge-platform-admins",
		DistrictAdminGroup: "lodge-district-admins",
		MemberGroup:        "lodge-members",
	}
}

func TestStaticMapper_GlobalRoles(t *testing.T) {
	m := newTestMapper()

	mapping := m.Map([]string{"lodge-members", "lodge-district-admins"})
	assert.Equal(t, domainauth.RoleDistrictAdmin, mapping.GlobalRole)

	mapping = m.Map([]string{"lodge-district-admins", "lodge-platform-admins"})
	assert.Equal(t, domainauth.RoleSuperAdmin, mapping.GlobalRole)
}

func TestStaticMapper_DefaultsToMember(t *testing.T) {
	mapping := newTestMapper().Map([]string{"unrelated-group"})
	assert.Equal(t, domainauth.RoleLodgeMember, mapping.GlobalRole)
	assert.Empty(t, mapping.LodgeRoles)
	assert.Empty(t, mapping.AdministeredLodgeIDs)
}

func TestStaticMapper_LodgeGroups(t *testing.T) {
	mapping := newTestMapper().Map([]string{
		"lodge:lodge-17:admin",
		"lodge:lodge-42:member",
		"lodge:lodge-17:admin", // duplicate grant
	})

	assert.Equal(t, domainauth.RoleLodgeMember, mapping.GlobalRole)
	assert.Equal(t, domainauth.RoleLodgeAdmin, mapping.LodgeRoles["lodge-17"])
	assert.Equal(t, domainauth.RoleLodgeMember, mapping.LodgeRoles["lodge-42"])
	assert.Equal(t, []string{"lodge-17"}, mapping.AdministeredLodgeIDs)
}

func TestStaticMapper_LodgeIDWithColons(t *testing.T) {
	mapping := newTestMapper().Map([]string{"lodge:north:ridge:admin"})
	assert.Equal(t, domainauth.RoleLodgeAdmin, mapping.LodgeRoles["north:ridge"])
}

func TestStaticMapper_MalformedLodgeGroupsIgnored(t *testing.T) {
	mapping := newTestMapper().Map([]string{
		"lodge:",
		"lodge:lodge-17",
		"lodge:lodge-17:owner",
		"lodge::admin",
	})
	assert.Empty(t, mapping.LodgeRoles)
	assert.Empty(t, mapping.AdministeredLodgeIDs)
}

func TestStaticMapper_AdminGroupDoesNotDowngrade(t *testing.T) {
	m := newTestMapper()
	mapping := m.Map([]string{"lodge-platform-admins", "lodge-members"})
	assert.Equal(t, domainauth.RoleSuperAdmin, mapping.GlobalRole)
}
