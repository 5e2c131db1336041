package payout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipcass/sipcass/pkg/authz"
	"github.com/sipcass/sipcass/pkg/sheet"
)

var testRoles = map[string]authz.Role{
	"1": authz.RoleDM,
	"2": authz.RoleAM,
	"3": authz.RoleSeller,
	"4": authz.RoleSeller,
	"5": authz.RoleAM,
}

func testView() []EmployeeRecord {
	return []EmployeeRecord{
		rec("1", "East", "Yes", "Done", 100),
		rec("2", "east", "Yes", "Done", 200),
		rec("3", "East", "No", "Not yet", 0),
		rec("4", "East", "Yes", "Done", 300),
		rec("5", "West", "Yes", "Done", 400),
		rec("99", "East", "No", "Not yet", 0),
	}
}

func ids(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.EmployeeID
	}
	return out
}

func TestFilterForPrincipalHierarchy(t *testing.T) {
	view := testView()
	dm := FilterForPrincipal(view, testRoles, authz.Principal{EmployeeID: "1", Role: authz.RoleDM, Region: "East"})
	am := FilterForPrincipal(view, testRoles, authz.Principal{EmployeeID: "2", Role: authz.RoleAM, Region: "East"})
	seller := FilterForPrincipal(view, testRoles, authz.Principal{EmployeeID: "3", Role: authz.RoleSeller, Region: "East"})

	assert.ElementsMatch(t, []string{"1", "2", "3", "4", "99"}, ids(dm))
	assert.ElementsMatch(t, []string{"2", "3", "4"}, ids(am))
	assert.ElementsMatch(t, []string{"3"}, ids(seller))

	assert.Subset(t, ids(dm), ids(am))
	assert.Subset(t, ids(am), ids(seller))
}

func TestFilterForPrincipalLabelsUnknown(t *testing.T) {
	rows := FilterForPrincipal(testView(), testRoles, authz.Principal{EmployeeID: "1", Role: authz.RoleDM, Region: "East"})
	for _, r := range rows {
		if r.EmployeeID == "99" {
			assert.Equal(t, authz.RoleUnknown, r.Role)
			return
		}
	}
	t.Fatal("unmapped row not visible to DM")
}

func TestFilterForPrincipalSellerNeverSeesOthers(t *testing.T) {
	view := testView()
	for id, role := range testRoles {
		if role != authz.RoleSeller {
			continue
		}
		rows := FilterForPrincipal(view, testRoles, authz.Principal{EmployeeID: id, Role: role})
		for _, r := range rows {
			assert.Equal(t, id, r.EmployeeID)
		}
	}
}

func TestFilterForPrincipalNoRegionSeesAllRegions(t *testing.T) {
	rows := FilterForPrincipal(testView(), testRoles, authz.Principal{EmployeeID: "1", Role: authz.RoleDM})
	assert.Len(t, rows, 6)
}

func TestFilterForPrincipalUnrecognizedRole(t *testing.T) {
	rows := FilterForPrincipal(testView(), testRoles, authz.Principal{EmployeeID: "1", Role: "Admin"})
	assert.Empty(t, rows)
}

func TestNarrowRegion(t *testing.T) {
	rows := FilterForPrincipal(testView(), testRoles, authz.Principal{EmployeeID: "1", Role: authz.RoleDM})

	assert.Len(t, NarrowRegion(rows, ""), 6)
	assert.Len(t, NarrowRegion(rows, "ALL"), 6)
	assert.ElementsMatch(t, []string{"5"}, ids(NarrowRegion(rows, "west")))
	assert.Empty(t, NarrowRegion(rows, "North"))
}

func TestFilterForPrincipalSellerIDsNeverCollide(t *testing.T) {
	table := sheet.NewTable(RequiredColumns, [][]string{
		{"9007199254740992", "Asha", "East", "0", "0", "500", "Done", "Yes"},
		{"9007199254740993", "Ravi", "East", "0", "0", "0", "Not yet", "No"},
		{"007", "Bond", "East", "0", "0", "70", "Done", "Yes"},
		{"7", "Seven", "East", "0", "0", "0", "Done", "No"},
		{"1E2", "Exp", "East", "0", "0", "10", "Done", "Yes"},
		{"100", "Hundred", "East", "0", "0", "0", "Done", "No"},
	})
	records, issues := RecordsFromTable(table)
	require.Empty(t, issues)

	view := Consolidate([]SourceTable{{Name: "ids.xlsx", UploadedAt: time.Now(), Records: records}})
	require.Len(t, view, 6)

	roles := map[string]authz.Role{}
	for _, r := range view {
		roles[r.EmployeeID] = authz.RoleSeller
	}
	for _, id := range []string{"9007199254740993", "7", "100"} {
		rows := FilterForPrincipal(view, roles, authz.Principal{EmployeeID: id, Role: authz.RoleSeller, Region: "East"})
		require.Len(t, rows, 1, "seller %s", id)
		assert.Equal(t, id, rows[0].EmployeeID)
		assert.False(t, rows[0].IsPaid(), "seller %s sees a colliding paid row", id)
	}
}
