package aop

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sipcass/sipcass/pkg/authz"
	"github.com/sipcass/sipcass/pkg/sheet"
)

// AOP workbook columns. Comments is optional.
const (
	ColShipTo     = "Ship To"
	ColPYActuals  = "PY Actuals"
	ColGrowth     = "Growth %"
	ColEmployeeID = "Emp ID"
	ColRegion     = "Region"
	ColComments   = "Comments"
)

// RequiredColumns must all be present in an AOP upload.
var RequiredColumns = []string{ColShipTo, ColPYActuals, ColGrowth, ColEmployeeID, ColRegion}

// TargetsFromTable materializes the rows of a validated AOP table. Rows
// without a ship-to are dropped; an unparseable prior-year value counts as
// zero and an unparseable growth as missing. Both are reported as issues.
func TargetsFromTable(t *sheet.Table, uploadedAt time.Time) ([]Target, []error) {
	targets := make([]Target, 0, t.Len())
	var issues []error

	for i := 0; i < t.Len(); i++ {
		shipTo := t.String(i, ColShipTo)
		if shipTo == "" {
			issues = append(issues, fmt.Errorf("row %d: missing %s", i+2, ColShipTo))
			continue
		}

		py, err := t.Decimal(i, ColPYActuals)
		if err != nil {
			issues = append(issues, fmt.Errorf("row %d, column %s: %w", i+2, ColPYActuals, err))
		}
		growth, err := parseGrowth(t.String(i, ColGrowth))
		if err != nil {
			issues = append(issues, fmt.Errorf("row %d, column %s: %w", i+2, ColGrowth, err))
		}

		target := Target{
			ShipTo:        shipTo,
			PYActuals:     py,
			GrowthPercent: growth,
			EmployeeID:    authz.NormalizeID(t.String(i, ColEmployeeID)),
			Region:        t.String(i, ColRegion),
			Comments:      t.String(i, ColComments),
			UploadedAt:    uploadedAt,
		}
		target.Recompute()
		targets = append(targets, target)
	}
	return targets, issues
}

// parseGrowth reads a growth percentage such as "10", "10%" or "-2.5". Blank
// and NaN cells are missing.
func parseGrowth(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" || strings.EqualFold(s, "nan") {
		return decimal.NullDecimal{}, nil
	}
	d, err := sheet.ParseNumber(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
