// Package accounts stores employee accounts, imports the account roster and
// authenticates logins.
package accounts

import (
	"time"

	"github.com/sipcass/sipcass/pkg/authz"
)

// Account is the GORM model for an employee account.
type Account struct {
	EmployeeID   string     `gorm:"primaryKey;column:employee_id;type:varchar(64)"`
	Name         string     `gorm:"column:name"`
	Role         authz.Role `gorm:"column:role;type:varchar(16);index;not null"`
	Region       string     `gorm:"column:region;index"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

// TableName returns the GORM table name.
func (Account) TableName() string { return "accounts" }

// Principal returns the identity of the account holder.
func (a *Account) Principal() authz.Principal {
	return authz.Principal{
		EmployeeID: a.EmployeeID,
		Name:       a.Name,
		Role:       a.Role,
		Region:     a.Region,
	}
}
