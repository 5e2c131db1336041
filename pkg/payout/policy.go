package payout

import (
	"strings"

	"github.com/sipcass/sipcass/pkg/authz"
)

// Row is a consolidated record labelled with the role of its employee.
type Row struct {
	EmployeeRecord
	Role authz.Role
}

// FilterForPrincipal returns the rows of view that p may see. roles maps
// normalized employee ids to account roles; ids without an account are
// labelled Unknown.
func FilterForPrincipal(view []EmployeeRecord, roles map[string]authz.Role, p authz.Principal) []Row {
	rows := make([]Row, 0, len(view))
	for _, rec := range view {
		role, ok := roles[rec.EmployeeID]
		if !ok {
			role = authz.RoleUnknown
		}
		if p.CanView(rec.EmployeeID, rec.Region, role) {
			rows = append(rows, Row{EmployeeRecord: rec, Role: role})
		}
	}
	return rows
}

// NarrowRegion keeps only rows in region. An empty region or "all" keeps
// everything.
func NarrowRegion(rows []Row, region string) []Row {
	region = strings.TrimSpace(region)
	if region == "" || strings.EqualFold(region, "all") {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if authz.SameRegion(r.Region, region) {
			out = append(out, r)
		}
	}
	return out
}
