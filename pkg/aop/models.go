// Package aop manages annual operating plan targets: wholesale replacement
// from uploaded workbooks, scoped listing and individual updates.
package aop

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Target is the GORM model for one AOP planning row.
type Target struct {
	ID            uint                `gorm:"primaryKey;column:id"`
	ShipTo        string              `gorm:"column:ship_to;not null"`
	PYActuals     decimal.Decimal     `gorm:"column:py_actuals;type:decimal(20,4);not null"`
	GrowthPercent decimal.NullDecimal `gorm:"column:growth_percent;type:decimal(20,4)"`
	Target        decimal.Decimal     `gorm:"column:target;type:decimal(20,4);not null"`
	EmployeeID    string              `gorm:"column:employee_id;index"`
	Region        string              `gorm:"column:region;index"`
	Comments      string              `gorm:"column:comments"`
	UploadedAt    time.Time           `gorm:"column:uploaded_at;not null"`
}

// TableName returns the GORM table name.
func (Target) TableName() string { return "aop_targets" }

var hundred = decimal.NewFromInt(100)

// ComputeTarget returns py * (1 + growth/100). A missing growth counts as 0.
func ComputeTarget(py decimal.Decimal, growth decimal.NullDecimal) decimal.Decimal {
	g := decimal.Zero
	if growth.Valid {
		g = growth.Decimal
	}
	return py.Mul(hundred.Add(g)).Div(hundred).Round(4)
}

// Recompute refreshes the derived target. Call it after any change to
// PYActuals or GrowthPercent.
func (t *Target) Recompute() {
	t.Target = ComputeTarget(t.PYActuals, t.GrowthPercent)
}

// BeforeSave keeps the stored target consistent with its inputs on every write.
func (t *Target) BeforeSave(*gorm.DB) error {
	t.Recompute()
	return nil
}
