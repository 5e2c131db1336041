// Package authz provides the principal model, the role hierarchy and the
// visibility policy shared by every role-scoped read, plus session token
// issuance and the HTTP middleware that authenticates requests.
package authz

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Role is a position in the sales hierarchy.
type Role string

const (
	RoleDM     Role = "DM"
	RoleAM     Role = "AM"
	RoleSeller Role = "Seller"

	// RoleUnknown labels identities with no account. It is never assigned to
	// a principal.
	RoleUnknown Role = "Unknown"
)

// closure lists the roles whose rows each role may see. DM also sees rows
// with no matching account, so unmapped identities stay visible (labelled
// Unknown) to the top of the hierarchy instead of disappearing.
var closure = map[Role]mapset.Set[Role]{
	RoleDM:     mapset.NewThreadUnsafeSet(RoleDM, RoleAM, RoleSeller, RoleUnknown),
	RoleAM:     mapset.NewThreadUnsafeSet(RoleAM, RoleSeller),
	RoleSeller: mapset.NewThreadUnsafeSet(RoleSeller),
}

// ParseRole accepts exactly the recognized account roles: DM, AM and Seller.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.TrimSpace(s)); r {
	case RoleDM, RoleAM, RoleSeller:
		return r, true
	}
	return "", false
}

// VisibleRoles returns the roles a principal with role r may see. Roles
// outside the hierarchy see nothing.
func VisibleRoles(r Role) mapset.Set[Role] {
	set, ok := closure[r]
	if !ok {
		return mapset.NewThreadUnsafeSet[Role]()
	}
	return set.Clone()
}

// CanSee reports whether viewer may see rows owned by target.
func CanSee(viewer, target Role) bool {
	set, ok := closure[viewer]
	return ok && set.Contains(target)
}
