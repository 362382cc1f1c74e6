package auth

import (
	"testing"
	"time"
)

func TestRank_Ordering(t *testing.T) {
	order := []Role{RoleSuperAdmin, RoleDistrictAdmin, RoleLodgeAdmin, RoleLodgeMember}
	for i := 1; i < len(order); i++ {
		if Rank(order[i-1]) <= Rank(order[i]) {
			t.Fatalf("expected %s to outrank %s", order[i-1], order[i])
		}
	}
}

func TestRank_UnknownRanksAsMember(t *testing.T) {
	for _, r := range []Role{"", "VISITOR", "grand-poobah", "null"} {
		if Rank(r) != Rank(RoleLodgeMember) {
			t.Fatalf("role %q: got rank %d, want member rank %d", r, Rank(r), Rank(RoleLodgeMember))
		}
	}
}

func TestRank_CaseInsensitive(t *testing.T) {
	if Rank("lodge_admin") != Rank(RoleLodgeAdmin) {
		t.Fatalf("lowercase input must rank like canonical form")
	}
	if Rank(" super_admin ") != Rank(RoleSuperAdmin) {
		t.Fatalf("padded input must rank like canonical form")
	}
}

func TestPrincipal_EffectiveRole(t *testing.T) {
	p := Principal{
		GlobalRole: RoleLodgeMember,
		LodgeRoles: map[string]Role{"L1": RoleLodgeAdmin},
	}
	if got := p.EffectiveRole("L1"); got != RoleLodgeAdmin {
		t.Fatalf("override lodge: got %s", got)
	}
	if got := p.EffectiveRole("L2"); got != RoleLodgeMember {
		t.Fatalf("other lodge falls back to global: got %s", got)
	}
	if got := p.EffectiveRole(""); got != RoleLodgeMember {
		t.Fatalf("empty lodge falls back to global: got %s", got)
	}
}

func TestPrincipal_EffectiveRole_NormalizesCase(t *testing.T) {
	p := Principal{GlobalRole: "lodge_admin"}
	if got := p.EffectiveRole("L9"); got != RoleLodgeAdmin {
		t.Fatalf("got %s, want canonical %s", got, RoleLodgeAdmin)
	}
}

func TestPrincipal_HighestRole(t *testing.T) {
	p := Principal{
		GlobalRole: RoleLodgeMember,
		LodgeRoles: map[string]Role{
			"L1": RoleLodgeAdmin,
			"L2": "district_admin",
		},
	}
	if got := p.HighestRole(); got != RoleDistrictAdmin {
		t.Fatalf("got %s, want %s", got, RoleDistrictAdmin)
	}
}

func TestPrincipal_HighestRole_UnknownGlobal(t *testing.T) {
	p := Principal{GlobalRole: "MYSTERY"}
	if got := p.HighestRole(); got != RoleLodgeMember {
		t.Fatalf("got %s, want floor %s", got, RoleLodgeMember)
	}
}

func TestIsAdminRole(t *testing.T) {
	for _, r := range []Role{RoleSuperAdmin, RoleDistrictAdmin, RoleLodgeAdmin} {
		if !IsAdminRole(r) {
			t.Fatalf("expected %s to be an admin role", r)
		}
	}
	if IsAdminRole(RoleLodgeMember) || IsAdminRole("UNKNOWN") {
		t.Fatalf("member and unknown roles are not admin roles")
	}
}

func TestSession_Principal(t *testing.T) {
	s := Session{
		UserID:               "u1",
		Role:                 "lodge_admin",
		PrimaryLodgeID:       "L1",
		AdministeredLodgeIDs: []string{"L1", "L3"},
		LodgeRoles:           map[string]Role{"L2": "district_admin"},
		ExpiresAt:            time.Now().Add(time.Hour),
	}
	p := s.Principal()
	if p.ID != "u1" || p.GlobalRole != RoleLodgeAdmin {
		t.Fatalf("unexpected principal: %+v", p)
	}
	if p.LodgeRoles["L2"] != RoleDistrictAdmin {
		t.Fatalf("lodge roles must normalize: %+v", p.LodgeRoles)
	}
	if !p.Administers("L3") || p.Administers("L9") {
		t.Fatalf("administered set mismatch: %+v", p.AdministeredLodgeIDs)
	}
}
