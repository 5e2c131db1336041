package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"DM", RoleDM, true},
		{" AM ", RoleAM, true},
		{"Seller", RoleSeller, true},
		{"seller", "", false},
		{"Unknown", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRole(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVisibleRolesNested(t *testing.T) {
	dm, am, seller := VisibleRoles(RoleDM), VisibleRoles(RoleAM), VisibleRoles(RoleSeller)

	assert.True(t, dm.IsSuperset(am))
	assert.True(t, am.IsSuperset(seller))
	assert.True(t, dm.Contains(RoleUnknown))
	assert.False(t, am.Contains(RoleDM))
	assert.False(t, am.Contains(RoleUnknown))
	assert.Equal(t, 1, seller.Cardinality())
	assert.Equal(t, 0, VisibleRoles("Admin").Cardinality())
}

func TestVisibleRolesReturnsCopy(t *testing.T) {
	set := VisibleRoles(RoleSeller)
	set.Add(RoleDM)
	assert.False(t, CanSee(RoleSeller, RoleDM))
}

func TestCanSee(t *testing.T) {
	assert.True(t, CanSee(RoleDM, RoleSeller))
	assert.True(t, CanSee(RoleAM, RoleAM))
	assert.False(t, CanSee(RoleSeller, RoleAM))
	assert.False(t, CanSee(RoleUnknown, RoleUnknown))
	assert.False(t, CanSee("", RoleSeller))
}
