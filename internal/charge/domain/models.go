package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindOneTime   Kind = "one_time"
	KindRecurring Kind = "recurring"
)

type AmountType string

const (
	AmountTypeFixed      AmountType = "fixed"
	AmountTypePercentage AmountType = "percentage"
)

// Recurrence is stored for scheduling callers; resolution treats both values alike.
type Recurrence string

const (
	RecurrenceMonthly    Recurrence = "monthly"
	RecurrencePerPayroll Recurrence = "per_payroll"
)

// Charge is a deduction rule owned by a cooperative account.
type Charge struct {
	ID                  snowflake.ID    `gorm:"primaryKey"`
	AccountID           snowflake.ID    `gorm:"not null;index"`
	Name                string          `gorm:"type:text;not null"`
	Description         *string         `gorm:"type:text"`
	Kind                Kind            `gorm:"type:text;not null"`
	AmountType          AmountType      `gorm:"type:text;not null"`
	Amount              decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Recurrence          *Recurrence     `gorm:"type:text"`
	ApplyToAllSuppliers bool            `gorm:"not null;default:true"`
	EffectiveFrom       *time.Time      `gorm:"type:date"`
	EffectiveTo         *time.Time      `gorm:"type:date"`
	IsActive            bool            `gorm:"not null;default:true"`
	CreatedBy           *string         `gorm:"type:text"`
	CreatedAt           time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Charge) TableName() string { return "charges" }

// ChargeSupplier is one entry of a restricted charge's allow-list.
type ChargeSupplier struct {
	ChargeID          snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	SupplierAccountID snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ChargeSupplier) TableName() string { return "charge_suppliers" }

// ChargeApplication marks a one-time charge as consumed for a supplier. The
// unique pair is the only guard against applying it twice.
type ChargeApplication struct {
	ID                snowflake.ID    `gorm:"primaryKey"`
	ChargeID          snowflake.ID    `gorm:"not null;uniqueIndex:ux_charge_applications_charge_supplier,priority:1"`
	SupplierAccountID snowflake.ID    `gorm:"not null;uniqueIndex:ux_charge_applications_charge_supplier,priority:2"`
	PayslipID         snowflake.ID    `gorm:"not null;index"`
	Amount            decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	CreatedAt         time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ChargeApplication) TableName() string { return "charge_applications" }

// SupplierRef is an allow-list entry resolved against accounts.
type SupplierRef struct {
	ChargeID snowflake.ID `json:"-"`
	ID       snowflake.ID `json:"id"`
	Code     string       `json:"code"`
	Name     string       `json:"name"`
}

// ApplicableCharge is a charge resolved for one supplier and period.
type ApplicableCharge struct {
	ChargeID snowflake.ID    `json:"charge_id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Kind     Kind            `json:"kind"`
}
