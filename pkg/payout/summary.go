package payout

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoData is returned when the caller can see no rows at all.
	ErrNoData = errors.New("no active data available for this region or overall")

	// ErrEmployeeNotFound is returned when the requested employee is absent
	// from the caller's view. It does not distinguish missing from hidden.
	ErrEmployeeNotFound = errors.New("employee not found")
)

// Summary aggregates a filtered view.
type Summary struct {
	PaidTotal        decimal.Decimal
	PendingApprovals int
	SuccessRate      decimal.Decimal
}

// Totals sums the money columns of a filtered view.
type Totals struct {
	Revenue      decimal.Decimal
	GrossProfit  decimal.Decimal
	PayoutAmount decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Summarize computes the paid total, the pending approval count and the
// percentage of paid rows rounded to two places. An empty view yields zeros.
func Summarize(rows []Row) Summary {
	s := Summary{PaidTotal: decimal.Zero, SuccessRate: decimal.Zero}
	paid := 0
	for _, r := range rows {
		if r.IsPaid() {
			paid++
			s.PaidTotal = s.PaidTotal.Add(r.PayoutAmount)
		}
		if r.IsPending() {
			s.PendingApprovals++
		}
	}
	if len(rows) > 0 {
		s.SuccessRate = decimal.NewFromInt(int64(paid)).
			Mul(hundred).
			DivRound(decimal.NewFromInt(int64(len(rows))), 2)
	}
	return s
}

// ComputeTotals sums revenue, gross profit and payout over rows.
func ComputeTotals(rows []Row) Totals {
	t := Totals{Revenue: decimal.Zero, GrossProfit: decimal.Zero, PayoutAmount: decimal.Zero}
	for _, r := range rows {
		t.Revenue = t.Revenue.Add(r.Revenue)
		t.GrossProfit = t.GrossProfit.Add(r.GrossProfit)
		t.PayoutAmount = t.PayoutAmount.Add(r.PayoutAmount)
	}
	return t
}

// FindEmployee returns the row for employeeID, which must be normalized.
func FindEmployee(rows []Row, employeeID string) (Row, error) {
	for _, r := range rows {
		if r.EmployeeID == employeeID {
			return r, nil
		}
	}
	return Row{}, ErrEmployeeNotFound
}
