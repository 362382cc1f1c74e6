// Package authroles maps IdP group claims to application roles.
package authroles

import (
	"strings"

	domainauth "github.com/lodgeworks/lodge-api/internal/domain/auth"
	"github.com/lodgeworks/lodge-api/internal/ports"
)

// Lodge-scoped grants arrive as groups shaped "lodge:<id>:<role>".
const (
	lodgeGroupPrefix = "lodge:"
	lodgeAdminSuffix = "admin"
)

// StaticMapper derives a ports.RoleMapping from the IdP group list using
// fixed group names for the global roles plus the "lodge:<id>:admin"
// convention for per-lodge grants. Groups that match nothing are ignored.
type StaticMapper struct {
	SuperAdminGroup    string
	DistrictAdminGroup string
	MemberGroup        string
}

// Map resolves groups to a RoleMapping. The global role is the highest
// matching global group; unmatched users fall back to LODGE_MEMBER so a
// directory login never yields an empty role.
func (m StaticMapper) Map(groups []string) ports.RoleMapping {
	mapping := ports.RoleMapping{GlobalRole: domainauth.RoleLodgeMember}
	for _, g := range groups {
		switch {
		case m.SuperAdminGroup != "" && g == m.SuperAdminGroup:
			mapping.GlobalRole = promote(mapping.GlobalRole, domainauth.RoleSuperAdmin)
		case m.DistrictAdminGroup != "" && g == m.DistrictAdminGroup:
			mapping.GlobalRole = promote(mapping.GlobalRole, domainauth.RoleDistrictAdmin)
		case m.MemberGroup != "" && g == m.MemberGroup:
			mapping.GlobalRole = promote(mapping.GlobalRole, domainauth.RoleLodgeMember)
		case strings.HasPrefix(g, lodgeGroupPrefix):
			lodgeID, role, ok := parseLodgeGroup(g)
			if !ok {
				continue
			}
			if mapping.LodgeRoles == nil {
				mapping.LodgeRoles = make(map[string]domainauth.Role)
			}
			mapping.LodgeRoles[lodgeID] = promote(mapping.LodgeRoles[lodgeID], role)
			if role == domainauth.RoleLodgeAdmin {
				mapping.AdministeredLodgeIDs = appendUnique(mapping.AdministeredLodgeIDs, lodgeID)
			}
		}
	}
	return mapping
}

// parseLodgeGroup splits "lodge:<id>:<role>" into its lodge id and role.
// The lodge id may itself contain colons; the role is the last segment.
func parseLodgeGroup(g string) (string, domainauth.Role, bool) {
	rest := strings.TrimPrefix(g, lodgeGroupPrefix)
	i := strings.LastIndex(rest, ":")
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	lodgeID := rest[:i]
	switch strings.ToLower(rest[i+1:]) {
	case lodgeAdminSuffix:
		return lodgeID, domainauth.RoleLodgeAdmin, true
	case "member":
		return lodgeID, domainauth.RoleLodgeMember, true
	default:
		return "", "", false
	}
}

func promote(current, candidate domainauth.Role) domainauth.Role {
	if domainauth.Rank(candidate) > domainauth.Rank(current) {
		return candidate
	}
	return current
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
