package accounts

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sipcass/sipcass/pkg/authz"
)

// AccountStore provides database operations for accounts.
type AccountStore struct {
	db *gorm.DB
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{db: db}
}

// AutoMigrate creates or updates the accounts table.
func (s *AccountStore) AutoMigrate() error {
	return s.db.AutoMigrate(&Account{})
}

// Get returns the account for employeeID, or nil if none exists.
func (s *AccountStore) Get(ctx context.Context, employeeID string) (*Account, error) {
	var a Account
	err := s.db.WithContext(ctx).Where("employee_id = ?", authz.NormalizeID(employeeID)).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

// Upsert creates a, replacing any account with the same employee id.
func (s *AccountStore) Upsert(ctx context.Context, a *Account) error {
	return upsert(s.db.WithContext(ctx), a)
}

func upsert(tx *gorm.DB, a *Account) error {
	a.EmployeeID = authz.NormalizeID(a.EmployeeID)
	if a.EmployeeID == "" {
		return errors.New("employee id is required")
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "employee_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "role", "region", "password_hash", "updated_at"}),
	}).Create(a).Error; err != nil {
		return fmt.Errorf("upsert account %s: %w", a.EmployeeID, err)
	}
	return nil
}

// List returns every account ordered by employee id.
func (s *AccountStore) List(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := s.db.WithContext(ctx).Order("employee_id").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// RoleMap returns the role of every account keyed by employee id.
func (s *AccountStore) RoleMap(ctx context.Context) (map[string]authz.Role, error) {
	var rows []struct {
		EmployeeID string
		Role       authz.Role
	}
	if err := s.db.WithContext(ctx).Model(&Account{}).Select("employee_id, role").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load account roles: %w", err)
	}
	roles := make(map[string]authz.Role, len(rows))
	for _, r := range rows {
		roles[r.EmployeeID] = r.Role
	}
	return roles, nil
}

// ResolvePrincipal implements authz.PrincipalResolver.
func (s *AccountStore) ResolvePrincipal(ctx context.Context, employeeID string) (authz.Principal, error) {
	a, err := s.Get(ctx, employeeID)
	if err != nil {
		return authz.Principal{}, err
	}
	if a == nil {
		return authz.Principal{}, authz.ErrUnknownPrincipal
	}
	return a.Principal(), nil
}
