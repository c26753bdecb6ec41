package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// LedgerEntryDirection represents debit or credit postings.
type LedgerEntryDirection string

const (
	LedgerEntryDirectionDebit  LedgerEntryDirection = "debit"
	LedgerEntryDirectionCredit LedgerEntryDirection = "credit"
)

type LedgerSourceType string

const (
	SourceTypePayrollPayslip LedgerSourceType = "payroll_payslip"
	SourceTypeAdjustment     LedgerSourceType = "adjustment"
)

type LedgerAccountCode string

const (
	AccountCodeCash           LedgerAccountCode = "cash"
	AccountCodePayrollExpense LedgerAccountCode = "payroll_expense"
)

// LedgerAccount defines a chart-of-accounts entry of one cooperative account.
type LedgerAccount struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	AccountID snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_ledger_accounts_account_code,priority:1"`
	Code      LedgerAccountCode `gorm:"type:text;not null;uniqueIndex:ux_ledger_accounts_account_code,priority:2"`
	Name      string            `gorm:"type:text;not null"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (LedgerAccount) TableName() string { return "ledger_accounts" }

// LedgerEntry is the immutable header of a financial event; one per source.
type LedgerEntry struct {
	ID          snowflake.ID     `gorm:"primaryKey"`
	AccountID   snowflake.ID     `gorm:"not null;uniqueIndex:ux_ledger_entries_source,priority:1"`
	SourceType  LedgerSourceType `gorm:"type:text;not null;uniqueIndex:ux_ledger_entries_source,priority:2"`
	SourceID    snowflake.ID     `gorm:"not null;uniqueIndex:ux_ledger_entries_source,priority:3"`
	Currency    string           `gorm:"type:text;not null"`
	Description string           `gorm:"type:text"`
	OccurredAt  time.Time        `gorm:"not null"`
	CreatedAt   time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

// LedgerEntryLine is a double-entry posting line.
type LedgerEntryLine struct {
	ID              snowflake.ID         `gorm:"primaryKey"`
	LedgerEntryID   snowflake.ID         `gorm:"not null;index"`
	LedgerAccountID snowflake.ID         `gorm:"not null;index"`
	Direction       LedgerEntryDirection `gorm:"type:text;not null"`
	Amount          decimal.Decimal      `gorm:"type:numeric(18,2);not null"`
	CreatedAt       time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (LedgerEntryLine) TableName() string { return "ledger_entry_lines" }
