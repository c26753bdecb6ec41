package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, charge *Charge) error
	Update(ctx context.Context, charge *Charge) error
	Delete(ctx context.Context, accountID, id snowflake.ID) error
	FindByID(ctx context.Context, accountID, id snowflake.ID) (*Charge, error)
	List(ctx context.Context, accountID snowflake.ID, activeOnly bool) ([]Charge, error)
	// ListActiveOrdered returns active charges oldest first (ties by id).
	ListActiveOrdered(ctx context.Context, accountID snowflake.ID) ([]Charge, error)

	InsertSuppliers(ctx context.Context, chargeID snowflake.ID, supplierIDs []snowflake.ID) error
	DeleteSuppliers(ctx context.Context, chargeID snowflake.ID) error
	ListSuppliers(ctx context.Context, chargeIDs []snowflake.ID) ([]SupplierRef, error)

	AppliedChargeIDs(ctx context.Context, supplierID snowflake.ID, chargeIDs []snowflake.ID) (map[snowflake.ID]struct{}, error)
	CreateApplication(ctx context.Context, app *ChargeApplication) error

	WithTx(tx *gorm.DB) Repository
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, accountID, id snowflake.ID) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, req DeleteRequest) error
}

// Resolver computes which charges apply to a supplier for a period. Resolve
// never writes; callers that post the result record one-time charges through
// RecordApplication inside the same transaction as the payslip.
type Resolver interface {
	Resolve(ctx context.Context, accountID, supplierID snowflake.ID, periodStart, periodEnd time.Time, gross decimal.Decimal) ([]ApplicableCharge, error)
	RecordApplication(ctx context.Context, app ChargeApplication) error
	WithTx(tx *gorm.DB) Resolver
}

type CreateRequest struct {
	AccountID           snowflake.ID
	ActorID             string
	Name                string
	Description         *string
	Kind                Kind
	AmountType          AmountType
	Amount              decimal.Decimal
	Recurrence          *Recurrence
	ApplyToAllSuppliers *bool
	EffectiveFrom       *time.Time
	EffectiveTo         *time.Time
	IsActive            *bool
	SupplierAccountIDs  []snowflake.ID
}

type ListRequest struct {
	AccountID  snowflake.ID
	ActiveOnly bool
}

// UpdateRequest carries a partial update. Nil fields are left untouched; the
// Clear flags null out the effective bounds. A non-nil SupplierAccountIDs
// replaces the allow-list when the merged charge is restricted.
type UpdateRequest struct {
	AccountID           snowflake.ID
	ID                  snowflake.ID
	ActorID             string
	Name                *string
	Description         *string
	Kind                *Kind
	AmountType          *AmountType
	Amount              *decimal.Decimal
	Recurrence          *Recurrence
	ApplyToAllSuppliers *bool
	EffectiveFrom       *time.Time
	ClearEffectiveFrom  bool
	EffectiveTo         *time.Time
	ClearEffectiveTo    bool
	IsActive            *bool
	SupplierAccountIDs  *[]snowflake.ID
}

type DeleteRequest struct {
	AccountID snowflake.ID
	ID        snowflake.ID
	ActorID   string
}

type Response struct {
	ID                  string          `json:"id"`
	AccountID           string          `json:"account_id"`
	Name                string          `json:"name"`
	Description         *string         `json:"description"`
	Kind                Kind            `json:"kind"`
	AmountType          AmountType      `json:"amount_type"`
	Amount              decimal.Decimal `json:"amount"`
	Recurrence          *Recurrence     `json:"recurrence"`
	ApplyToAllSuppliers bool            `json:"apply_to_all_suppliers"`
	EffectiveFrom       *string         `json:"effective_from"`
	EffectiveTo         *string         `json:"effective_to"`
	IsActive            bool            `json:"is_active"`
	CreatedBy           *string         `json:"created_by,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	SelectedSuppliers   []SupplierRef   `json:"selected_suppliers"`
}
