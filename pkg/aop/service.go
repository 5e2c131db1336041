package aop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sipcass/sipcass/pkg/authz"
	"github.com/sipcass/sipcass/pkg/metrics"
	"github.com/sipcass/sipcass/pkg/sheet"
)

var (
	// ErrTargetNotFound is returned when a target does not exist or is not
	// visible to the caller.
	ErrTargetNotFound = errors.New("target not found")

	// ErrOutOfScope is returned when an update would move a target outside
	// the caller's visibility.
	ErrOutOfScope = errors.New("update would move the target out of your scope")
)

// RoleSource maps normalized employee ids to their account roles.
type RoleSource interface {
	RoleMap(ctx context.Context) (map[string]authz.Role, error)
}

// Patch carries the fields of a partial target update. Nil fields are left
// unchanged.
type Patch struct {
	ShipTo        *string          `json:"ship_to"`
	PYActuals     *decimal.Decimal `json:"py_actuals"`
	GrowthPercent *decimal.Decimal `json:"growth_percent"`
	EmployeeID    *string          `json:"employee_id"`
	Region        *string          `json:"region"`
	Comments      *string          `json:"comments"`
}

// Service ingests AOP workbooks and scopes targets to callers.
type Service struct {
	store  *TargetStore
	roles  RoleSource
	logger *slog.Logger
}

// NewService creates an AOP Service.
func NewService(store *TargetStore, roles RoleSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, roles: roles, logger: logger}
}

// Ingest validates an AOP workbook and replaces every stored target with its
// rows. Validation errors leave the stored targets untouched.
func (s *Service) Ingest(ctx context.Context, filename string, data []byte, uploadedBy string) (int, error) {
	table, err := sheet.Parse(filename, data, RequiredColumns)
	if err != nil {
		outcome := metrics.OutcomeError
		if sheet.IsValidationError(err) {
			outcome = metrics.OutcomeRejected
		}
		metrics.UploadsTotal.WithLabelValues(metrics.KindAOP, outcome).Inc()
		return 0, err
	}

	targets, issues := TargetsFromTable(table, time.Now().UTC())
	for _, issue := range issues {
		s.logger.Warn("aop row issue", "name", filename, "error", issue)
	}

	if err := s.store.ReplaceAll(ctx, targets); err != nil {
		metrics.UploadsTotal.WithLabelValues(metrics.KindAOP, metrics.OutcomeError).Inc()
		return 0, err
	}

	metrics.UploadsTotal.WithLabelValues(metrics.KindAOP, metrics.OutcomeSuccess).Inc()
	metrics.UploadRows.WithLabelValues(metrics.KindAOP).Add(float64(len(targets)))
	s.logger.Info("aop targets replaced", "name", filename, "rows", len(targets), "uploaded_by", uploadedBy)
	return len(targets), nil
}

// VisibleTo returns the targets p may see. Targets are scoped by their
// employee's role and region the same way payout rows are; targets without
// an employee are visible only to DMs.
func (s *Service) VisibleTo(ctx context.Context, p authz.Principal) ([]Target, error) {
	targets, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := s.roles.RoleMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("load account roles: %w", err)
	}

	visible := make([]Target, 0, len(targets))
	for _, t := range targets {
		if canView(p, roles, &t) {
			visible = append(visible, t)
		}
	}
	return visible, nil
}

// Update applies patch to the target with id if p can see it, recomputing the
// derived target.
func (s *Service) Update(ctx context.Context, p authz.Principal, id uint, patch Patch) (*Target, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	roles, err := s.roles.RoleMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("load account roles: %w", err)
	}
	if t == nil || !canView(p, roles, t) {
		return nil, ErrTargetNotFound
	}

	if patch.ShipTo != nil {
		t.ShipTo = *patch.ShipTo
	}
	if patch.PYActuals != nil {
		t.PYActuals = *patch.PYActuals
	}
	if patch.GrowthPercent != nil {
		t.GrowthPercent = decimal.NewNullDecimal(*patch.GrowthPercent)
	}
	if patch.EmployeeID != nil {
		t.EmployeeID = authz.NormalizeID(*patch.EmployeeID)
	}
	if patch.Region != nil {
		t.Region = *patch.Region
	}
	if patch.Comments != nil {
		t.Comments = *patch.Comments
	}
	if !canView(p, roles, t) {
		return nil, ErrOutOfScope
	}

	t.Recompute()
	if err := s.store.Save(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("aop target updated", "id", t.ID, "updated_by", p.EmployeeID)
	return t, nil
}

func canView(p authz.Principal, roles map[string]authz.Role, t *Target) bool {
	role, ok := roles[t.EmployeeID]
	if !ok || t.EmployeeID == "" {
		role = authz.RoleUnknown
	}
	return p.CanView(t.EmployeeID, t.Region, role)
}
