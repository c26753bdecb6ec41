package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const StatusAccepted = "accepted"

// MilkSale is recorded by the collection service; payroll only reads accepted sales.
type MilkSale struct {
	ID                snowflake.ID    `gorm:"primaryKey"`
	SupplierAccountID snowflake.ID    `gorm:"not null;index:ix_milk_sales_supplier_customer_sale_at,priority:1"`
	CustomerAccountID snowflake.ID    `gorm:"not null;index:ix_milk_sales_supplier_customer_sale_at,priority:2"`
	Quantity          decimal.Decimal `gorm:"type:numeric(18,3);not null"`
	UnitPrice         decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	SaleAt            time.Time       `gorm:"not null;index:ix_milk_sales_supplier_customer_sale_at,priority:3"`
	Status            string          `gorm:"type:text;not null;default:accepted"`
	CreatedAt         time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (MilkSale) TableName() string { return "milk_sales" }

// Amount is quantity × unit price.
func (m MilkSale) Amount() decimal.Decimal {
	return m.Quantity.Mul(m.UnitPrice)
}

// Window is an inclusive sale_at range.
type Window struct {
	From time.Time
	To   time.Time
}

// DayWindow widens [start, end] to cover both boundary dates completely in UTC.
func DayWindow(start, end time.Time) Window {
	s := start.UTC()
	e := end.UTC()
	return Window{
		From: time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC),
		To:   time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC),
	}
}

// Sum totals the sale amounts.
func Sum(sales []MilkSale) decimal.Decimal {
	total := decimal.Zero
	for _, sale := range sales {
		total = total.Add(sale.Amount())
	}
	return total
}

type Repository interface {
	ListAccepted(ctx context.Context, supplierAccountID, customerAccountID snowflake.ID, window Window) ([]MilkSale, error)
	WithTx(tx *gorm.DB) Repository
}
