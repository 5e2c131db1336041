// Package payout turns uploaded payout spreadsheets into one consolidated,
// role-filtered view of employee incentive records, and serves summaries,
// listings and payout slips over it.
package payout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sipcass/sipcass/pkg/authz"
	"github.com/sipcass/sipcass/pkg/sheet"
)

// Payout workbook columns.
const (
	ColEmployeeID = "Emp ID"
	ColName       = "Emp Name"
	ColRegion     = "Region"
	ColRevenue    = "Revenue"
	ColGP         = "GP"
	ColPayout     = "SIP Payout Amount"
	ColApproval   = "Approval"
	ColPaid       = "SIP Paid"
)

// RequiredColumns must all be present in a payout upload.
var RequiredColumns = []string{
	ColEmployeeID, ColName, ColRegion, ColRevenue, ColGP, ColPayout, ColApproval, ColPaid,
}

// Literal cell values the aggregates match on. Comparison is exact and
// case-sensitive: "yes" is not paid.
const (
	PaidYes         = "Yes"
	ApprovalPending = "Not yet"
)

// EmployeeRecord is one employee's payout row.
type EmployeeRecord struct {
	EmployeeID   string
	Name         string
	Region       string
	Revenue      decimal.Decimal
	GrossProfit  decimal.Decimal
	PayoutAmount decimal.Decimal
	Approval     string
	Paid         string
}

// IsPaid reports whether the paid flag is exactly "Yes".
func (r EmployeeRecord) IsPaid() bool { return r.Paid == PaidYes }

// IsPending reports whether the approval state is exactly "Not yet".
func (r EmployeeRecord) IsPending() bool { return r.Approval == ApprovalPending }

// RecordsFromTable materializes the rows of a validated payout table. Rows
// without an employee id are dropped and unparseable numbers count as zero;
// both are reported in the returned issues so callers can log them.
func RecordsFromTable(t *sheet.Table) ([]EmployeeRecord, []error) {
	records := make([]EmployeeRecord, 0, t.Len())
	var issues []error

	for i := 0; i < t.Len(); i++ {
		id := authz.NormalizeID(t.String(i, ColEmployeeID))
		if id == "" {
			issues = append(issues, fmt.Errorf("row %d: missing %s", i+2, ColEmployeeID))
			continue
		}

		rec := EmployeeRecord{
			EmployeeID: id,
			Name:       t.String(i, ColName),
			Region:     t.String(i, ColRegion),
			Approval:   t.String(i, ColApproval),
			Paid:       t.String(i, ColPaid),
		}
		for _, f := range []struct {
			col string
			dst *decimal.Decimal
		}{
			{ColRevenue, &rec.Revenue},
			{ColGP, &rec.GrossProfit},
			{ColPayout, &rec.PayoutAmount},
		} {
			v, err := t.Decimal(i, f.col)
			if err != nil {
				issues = append(issues, fmt.Errorf("row %d, column %s: %w", i+2, f.col, err))
			}
			*f.dst = v
		}
		records = append(records, rec)
	}
	return records, issues
}
