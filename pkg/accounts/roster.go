package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/sipcass/sipcass/pkg/authz"
	"github.com/sipcass/sipcass/pkg/metrics"
	"github.com/sipcass/sipcass/pkg/sheet"
)

// Roster workbook columns.
const (
	ColEmployeeID = "Emp ID"
	ColName       = "Emp Name"
	ColRole       = "Role"
	ColRegion     = "Region"
	ColPassword   = "Password"
)

// RosterColumns must all be present in a roster upload.
var RosterColumns = []string{ColEmployeeID, ColName, ColRole, ColRegion, ColPassword}

// RosterResult reports what a roster import did.
type RosterResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Issues  []string `json:"issues,omitempty"`
}

// ImportRoster upserts one account per roster row in a single transaction.
// Rows with a role other than DM, AM or Seller are skipped. A blank password
// keeps an existing account's password and skips a new account.
func (s *AccountStore) ImportRoster(ctx context.Context, t *sheet.Table) (*RosterResult, error) {
	if err := t.Require(RosterColumns); err != nil {
		return nil, err
	}

	res := &RosterResult{}
	skip := func(row int, format string, args ...any) {
		res.Skipped++
		res.Issues = append(res.Issues, fmt.Sprintf("row %d: ", row+2)+fmt.Sprintf(format, args...))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := 0; i < t.Len(); i++ {
			id := authz.NormalizeID(t.String(i, ColEmployeeID))
			if id == "" {
				skip(i, "missing %s", ColEmployeeID)
				continue
			}
			role, ok := authz.ParseRole(t.String(i, ColRole))
			if !ok {
				skip(i, "unrecognized role %q", t.String(i, ColRole))
				continue
			}

			var existing Account
			err := tx.Where("employee_id = ?", id).First(&existing).Error
			found := err == nil
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("look up account %s: %w", id, err)
			}

			acct := &Account{
				EmployeeID: id,
				Name:       t.String(i, ColName),
				Role:       role,
				Region:     t.String(i, ColRegion),
			}
			if pw := t.String(i, ColPassword); pw != "" {
				hash, err := HashPassword(pw)
				if err != nil {
					return err
				}
				acct.PasswordHash = hash
			} else if found {
				acct.PasswordHash = existing.PasswordHash
			} else {
				skip(i, "new account %s has no password", id)
				continue
			}

			if err := upsert(tx, acct); err != nil {
				return err
			}
			if found {
				res.Updated++
			} else {
				res.Created++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// RosterImporter validates and imports roster workbooks.
type RosterImporter struct {
	store  *AccountStore
	logger *slog.Logger
	// OnImport runs after every successful import, e.g. to drop cached principals.
	OnImport func()
}

// NewRosterImporter creates a RosterImporter.
func NewRosterImporter(store *AccountStore, logger *slog.Logger) *RosterImporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RosterImporter{store: store, logger: logger}
}

// Ingest parses a roster workbook and imports it. Validation errors leave
// the accounts table untouched.
func (ri *RosterImporter) Ingest(ctx context.Context, filename string, data []byte) (*RosterResult, error) {
	table, err := sheet.Parse(filename, data, RosterColumns)
	if err != nil {
		outcome := metrics.OutcomeError
		if sheet.IsValidationError(err) {
			outcome = metrics.OutcomeRejected
		}
		metrics.UploadsTotal.WithLabelValues(metrics.KindRoster, outcome).Inc()
		return nil, err
	}

	res, err := ri.store.ImportRoster(ctx, table)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(metrics.KindRoster, metrics.OutcomeError).Inc()
		return nil, err
	}

	metrics.UploadsTotal.WithLabelValues(metrics.KindRoster, metrics.OutcomeSuccess).Inc()
	metrics.UploadRows.WithLabelValues(metrics.KindRoster).Add(float64(res.Created + res.Updated))
	for _, issue := range res.Issues {
		ri.logger.Warn("roster row skipped", "name", filename, "issue", issue)
	}
	ri.logger.Info("roster imported", "name", filename, "created", res.Created, "updated", res.Updated, "skipped", res.Skipped)
	if ri.OnImport != nil {
		ri.OnImport()
	}
	return res, nil
}
