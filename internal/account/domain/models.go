package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const StatusActive = "active"

var ErrNotFound = errors.New("account_not_found")

// Account is owned by the account-management service; payroll only reads it.
type Account struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Code      string       `gorm:"type:text;not null;uniqueIndex"`
	Name      string       `gorm:"type:text;not null"`
	Type      string       `gorm:"type:text;not null"`
	Status    string       `gorm:"type:text;not null;default:active"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Account) TableName() string { return "accounts" }

// IsActive reports whether the account may take part in payroll.
func (a *Account) IsActive() bool {
	return a != nil && a.Status == StatusActive
}

type Repository interface {
	FindByID(ctx context.Context, id snowflake.ID) (*Account, error)
	FindByIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]Account, error)
	FindByCodes(ctx context.Context, codes []string) ([]Account, error)
	WithTx(tx *gorm.DB) Repository
}
