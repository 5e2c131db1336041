package payout

import "github.com/shopspring/decimal"

// Slip is the field set printed on a payout slip.
type Slip struct {
	EmployeeID   string
	Name         string
	Role         string
	Region       string
	PayoutAmount decimal.Decimal
}

// SlipRenderer lays out a slip as a document.
type SlipRenderer interface {
	RenderSlip(s Slip) ([]byte, error)
}

// SlipFor builds the slip of a filtered row.
func SlipFor(r Row) Slip {
	return Slip{
		EmployeeID:   r.EmployeeID,
		Name:         r.Name,
		Role:         string(r.Role),
		Region:       r.Region,
		PayoutAmount: r.PayoutAmount,
	}
}
