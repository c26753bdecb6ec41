package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type RunStatus string

const (
	RunStatusDraft     RunStatus = "draft"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

type PayslipStatus string

const (
	PayslipStatusGenerated PayslipStatus = "generated"
	PayslipStatusPaid      PayslipStatus = "paid"
)

const (
	PeriodStatusDraft   = "draft"
	DeductionTypeCharge = "charge"
)

// PayrollPeriod is a named date range runs may be grouped under.
type PayrollPeriod struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	AccountID snowflake.ID `gorm:"not null;index"`
	Name      string       `gorm:"type:text;not null"`
	StartDate time.Time    `gorm:"type:date;not null"`
	EndDate   time.Time    `gorm:"type:date;not null"`
	Status    string       `gorm:"type:text;not null;default:draft"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PayrollPeriod) TableName() string { return "payroll_periods" }

type PayrollRun struct {
	ID               snowflake.ID    `gorm:"primaryKey"`
	AccountID        snowflake.ID    `gorm:"not null;index"`
	PeriodID         *snowflake.ID   `gorm:"index"`
	Name             *string         `gorm:"type:text"`
	RunDate          time.Time       `gorm:"not null"`
	PeriodStart      time.Time       `gorm:"type:date;not null"`
	PeriodEnd        time.Time       `gorm:"type:date;not null"`
	PaymentTermsDays int             `gorm:"not null;default:15"`
	TotalAmount      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	Status           RunStatus       `gorm:"type:text;not null"`
	CreatedBy        *string         `gorm:"type:text"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PayrollRun) TableName() string { return "payroll_runs" }

// PayrollSupplier enrolls a supplier account in a cooperative's payroll.
type PayrollSupplier struct {
	ID                snowflake.ID `gorm:"primaryKey"`
	AccountID         snowflake.ID `gorm:"not null;uniqueIndex:ux_payroll_suppliers_account_supplier,priority:1"`
	SupplierAccountID snowflake.ID `gorm:"not null;uniqueIndex:ux_payroll_suppliers_account_supplier,priority:2"`
	PaymentTermsDays  int          `gorm:"not null;default:15"`
	IsActive          bool         `gorm:"not null;default:true"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PayrollSupplier) TableName() string { return "payroll_suppliers" }

// PayrollPayslip is one supplier's result within a run. Only the payment
// fields change after creation.
type PayrollPayslip struct {
	ID                snowflake.ID    `gorm:"primaryKey"`
	RunID             snowflake.ID    `gorm:"not null;index"`
	SupplierAccountID snowflake.ID    `gorm:"not null;index"`
	PayrollSupplierID *snowflake.ID   `gorm:"index"`
	GrossAmount       decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	TotalDeductions   decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	NetAmount         decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	MilkSalesCount    int             `gorm:"not null;default:0"`
	PeriodStart       time.Time       `gorm:"type:date;not null"`
	PeriodEnd         time.Time       `gorm:"type:date;not null"`
	Status            PayslipStatus   `gorm:"type:text;not null"`
	PaymentDate       *time.Time
	PaidBy            *string   `gorm:"type:text"`
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PayrollPayslip) TableName() string { return "payroll_payslips" }

// IsPaid reports whether the payslip reached its terminal state.
func (p *PayrollPayslip) IsPaid() bool {
	return p != nil && p.Status == PayslipStatusPaid
}

// PayrollDeduction snapshots a charge as it was posted onto a payslip.
type PayrollDeduction struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	PayslipID     snowflake.ID    `gorm:"not null;index"`
	ChargeID      *snowflake.ID   `gorm:"index"`
	DeductionType string          `gorm:"type:text;not null"`
	Name          string          `gorm:"type:text;not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PayrollDeduction) TableName() string { return "payroll_deductions" }

// RunRow is a run joined with its period name and payslip count.
type RunRow struct {
	PayrollRun
	PeriodName    *string
	PayslipsCount int
}

// PeriodRow is a period with the number of runs linked to it.
type PeriodRow struct {
	PayrollPeriod
	RunsCount int
}

// PayslipRow is a payslip joined with its supplier account.
type PayslipRow struct {
	PayrollPayslip
	SupplierCode string
	SupplierName string
}

// SupplierRow is an enrollment joined with its supplier account.
type SupplierRow struct {
	PayrollSupplier
	SupplierCode   string
	SupplierName   string
	SupplierType   string
	SupplierStatus string
}
