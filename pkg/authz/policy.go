package authz

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// integralFraction matches digit ids carrying a zero fraction, the way a
// numeric cell reads back when it was stored as text ("42.0").
var integralFraction = regexp.MustCompile(`^([0-9]+)\.0+$`)

// NormalizeID canonicalizes an employee id: surrounding space is trimmed and
// a zero fraction on an all-digit id is dropped, so " 42 " and "42.0" both
// normalize to "42". Ids are never parsed as numbers; "007", "1E2" and digit
// strings of any length stay distinct.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if m := integralFraction.FindStringSubmatch(id); m != nil {
		return m[1]
	}
	return id
}

// NormalizeRegion folds a region name for case-insensitive comparison.
func NormalizeRegion(region string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(region)))
}

// SameRegion compares two region names after normalization.
func SameRegion(a, b string) bool {
	return NormalizeRegion(a) == NormalizeRegion(b)
}

// CanView applies the row visibility policy for a principal: the region
// filter (skipped for principals without a region), the role hierarchy, and
// the Seller self-restriction. employeeID must already be normalized.
func (p Principal) CanView(employeeID, region string, role Role) bool {
	if p.Region != "" && !SameRegion(p.Region, region) {
		return false
	}
	if !CanSee(p.Role, role) {
		return false
	}
	if p.Role == RoleSeller && employeeID != NormalizeID(p.EmployeeID) {
		return false
	}
	return true
}
