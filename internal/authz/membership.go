package authz

import (
	"strings"

	"github.com/lodgeworks/lodge-api/internal/domain/auth"
)

// NormalizeLodgeID canonicalizes a lodge identifier for comparison. Legacy
// records carry ids as plain strings, as BSON ObjectId hex, or wrapped in an
// ObjectId("...") literal; comparisons on the raw forms were a recurring bug
// in the old API, so every comparison goes through this.
func NormalizeLodgeID(id string) string {
	s := strings.TrimSpace(id)
	if rest, ok := strings.CutPrefix(s, `ObjectId("`); ok {
		s = strings.TrimSuffix(rest, `")`)
	}
	return strings.ToLower(s)
}

// IsSameLodge reports whether the principal's primary lodge is the target
// lodge, after id normalization on both sides.
func IsSameLodge(p auth.Principal, targetLodgeID string) bool {
	if p.PrimaryLodgeID == "" || targetLodgeID == "" {
		return false
	}
	return NormalizeLodgeID(p.PrimaryLodgeID) == NormalizeLodgeID(targetLodgeID)
}

// IsAdministratorOf reports whether the principal has administrative
// standing over the lodge: district-or-higher global authority, an explicit
// administered-lodge grant, or LODGE_ADMIN effective role in their own
// primary lodge.
func IsAdministratorOf(p auth.Principal, lodgeID string) bool {
	if auth.Rank(p.GlobalRole) >= auth.Rank(auth.RoleDistrictAdmin) {
		return true
	}
	target := NormalizeLodgeID(lodgeID)
	for _, id := range p.AdministeredLodgeIDs {
		if NormalizeLodgeID(id) == target {
			return true
		}
	}
	return IsSameLodge(p, lodgeID) && p.EffectiveRole(lodgeID) == auth.RoleLodgeAdmin
}
