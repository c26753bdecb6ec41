package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	CreatePeriod(ctx context.Context, period *PayrollPeriod) error
	FindPeriod(ctx context.Context, accountID, id snowflake.ID) (*PayrollPeriod, error)
	ListPeriods(ctx context.Context, accountID snowflake.ID) ([]PeriodRow, error)

	CreateRun(ctx context.Context, run *PayrollRun) error
	FindRun(ctx context.Context, accountID, id snowflake.ID) (*RunRow, error)
	ListRuns(ctx context.Context, accountID snowflake.ID, periodID *snowflake.ID) ([]RunRow, error)
	// SumNetAmount totals the net of every payslip stored for the run.
	SumNetAmount(ctx context.Context, runID snowflake.ID) (decimal.Decimal, error)
	CompleteRun(ctx context.Context, id snowflake.ID, total decimal.Decimal, updatedAt time.Time) error
	DeleteRun(ctx context.Context, id snowflake.ID) error

	// UpsertSupplier enrolls the supplier or overwrites an existing
	// enrollment's terms and active flag, returning the stored row.
	UpsertSupplier(ctx context.Context, supplier *PayrollSupplier) (*PayrollSupplier, error)
	// EnrollSupplier enrolls the supplier with the given terms. An existing
	// enrollment keeps its terms and is only re-activated.
	EnrollSupplier(ctx context.Context, supplier *PayrollSupplier) (*PayrollSupplier, error)
	FindSupplier(ctx context.Context, accountID, id snowflake.ID) (*SupplierRow, error)
	UpdateSupplier(ctx context.Context, supplier *PayrollSupplier) error
	// ListActiveSuppliers returns enrollments in enrollment order.
	ListActiveSuppliers(ctx context.Context, accountID snowflake.ID) ([]PayrollSupplier, error)
	ListSupplierRows(ctx context.Context, accountID snowflake.ID, activeOnly bool) ([]SupplierRow, error)

	CreatePayslip(ctx context.Context, payslip *PayrollPayslip) error
	CreateDeductions(ctx context.Context, deductions []PayrollDeduction) error
	FindPayslip(ctx context.Context, runID, id snowflake.ID) (*PayrollPayslip, error)
	// ListPayslips returns payslips in creation order.
	ListPayslips(ctx context.Context, runIDs []snowflake.ID) ([]PayslipRow, error)
	ListRecentPayslips(ctx context.Context, accountID, supplierAccountID snowflake.ID, limit int) ([]PayslipRow, error)
	ListDeductions(ctx context.Context, payslipIDs []snowflake.ID) ([]PayrollDeduction, error)
	// MarkPayslipPaid transitions a generated payslip and reports whether
	// this call performed the transition.
	MarkPayslipPaid(ctx context.Context, id snowflake.ID, paymentDate time.Time, paidBy *string, updatedAt time.Time) (bool, error)

	WithTx(tx *gorm.DB) Repository
}

type Service interface {
	EnsureEnrolled(ctx context.Context, req EnrollRequest) ([]PayrollSupplier, error)
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
	MarkPaid(ctx context.Context, req MarkPaidRequest) (*MarkPaidResult, error)

	ListRuns(ctx context.Context, req ListRunsRequest) ([]RunView, error)
	GetRun(ctx context.Context, accountID, runID snowflake.ID) (*RunView, error)
	ExportRun(ctx context.Context, req ExportRequest) (*ExportFile, error)
	Report(ctx context.Context, req ReportRequest) (*Report, error)

	CreatePeriod(ctx context.Context, req CreatePeriodRequest) (*PeriodView, error)
	ListPeriods(ctx context.Context, accountID snowflake.ID) ([]PeriodView, error)

	CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*SupplierView, error)
	ListSuppliers(ctx context.Context, accountID snowflake.ID) ([]SupplierView, error)
	GetSupplier(ctx context.Context, accountID, id snowflake.ID) (*SupplierView, error)
	UpdateSupplier(ctx context.Context, req UpdateSupplierRequest) (*SupplierView, error)
	DeactivateSupplier(ctx context.Context, accountID, id snowflake.ID, actorID string) error
}

// EnrollRequest resolves the supplier set for a run. Without codes the
// account's active enrollments are used.
type EnrollRequest struct {
	AccountID        snowflake.ID
	SupplierCodes    []string
	PaymentTermsDays int
}

type GenerateRequest struct {
	AccountID        snowflake.ID
	SupplierCodes    []string
	PeriodStart      time.Time
	PeriodEnd        time.Time
	PaymentTermsDays int
	RunName          string
	PeriodID         *snowflake.ID
	CreatedBy        string
}

type GenerateResult struct {
	RunID              string          `json:"run_id"`
	Status             RunStatus       `json:"status"`
	PeriodStart        string          `json:"period_start"`
	PeriodEnd          string          `json:"period_end"`
	SuppliersProcessed int             `json:"suppliers_processed"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	Payslips           []PayslipView   `json:"payslips"`
}

type MarkPaidRequest struct {
	AccountID   snowflake.ID
	RunID       snowflake.ID
	PayslipID   *snowflake.ID
	PaymentDate *time.Time
	PaidBy      string
}

type MarkPaidResult struct {
	Payslip   *PayslipView    `json:"payslip,omitempty"`
	PaidCount int             `json:"paid_count"`
	TotalPaid decimal.Decimal `json:"total_paid"`
}

type ListRunsRequest struct {
	AccountID snowflake.ID
	PeriodID  *snowflake.ID
}

type ExportFormat string

const (
	ExportFormatExcel ExportFormat = "excel"
	ExportFormatPDF   ExportFormat = "pdf"
)

// ExportRequest renders a run. With PayslipID set only that payslip's
// payment advice is rendered, which is PDF only.
type ExportRequest struct {
	AccountID snowflake.ID
	RunID     snowflake.ID
	PayslipID *snowflake.ID
	Format    ExportFormat
}

type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

type ReportRequest struct {
	AccountID snowflake.ID
	PeriodID  *snowflake.ID
}

type Report struct {
	TotalRuns      int             `json:"total_runs"`
	TotalPayroll   decimal.Decimal `json:"total_payroll"`
	TotalSuppliers int             `json:"total_suppliers"`
	Runs           []RunView       `json:"runs"`
}

type CreatePeriodRequest struct {
	AccountID snowflake.ID
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

type CreateSupplierRequest struct {
	AccountID         snowflake.ID
	SupplierAccountID snowflake.ID
	PaymentTermsDays  int
	ActorID           string
}

type UpdateSupplierRequest struct {
	AccountID        snowflake.ID
	ID               snowflake.ID
	PaymentTermsDays *int
	IsActive         *bool
	ActorID          string
}

type RunView struct {
	ID               string          `json:"id"`
	AccountID        string          `json:"account_id"`
	PeriodID         *string         `json:"period_id"`
	PeriodName       string          `json:"period_name"`
	Name             *string         `json:"name"`
	RunDate          time.Time       `json:"run_date"`
	PeriodStart      string          `json:"period_start"`
	PeriodEnd        string          `json:"period_end"`
	PaymentTermsDays int             `json:"payment_terms_days"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Status           RunStatus       `json:"status"`
	PayslipsCount    int             `json:"payslips_count"`
	CreatedBy        *string         `json:"created_by,omitempty"`
	Payslips         []PayslipView   `json:"payslips"`
}

type PayslipView struct {
	ID                string          `json:"id"`
	SupplierAccountID string          `json:"supplier_account_id"`
	Supplier          string          `json:"supplier"`
	SupplierCode      string          `json:"supplier_code"`
	GrossAmount       decimal.Decimal `json:"gross_amount"`
	TotalDeductions   decimal.Decimal `json:"total_deductions"`
	NetAmount         decimal.Decimal `json:"net_amount"`
	MilkSalesCount    int             `json:"milk_sales_count"`
	PeriodStart       string          `json:"period_start"`
	PeriodEnd         string          `json:"period_end"`
	Status            PayslipStatus   `json:"status"`
	PaymentDate       *time.Time      `json:"payment_date,omitempty"`
	PaidBy            *string         `json:"paid_by,omitempty"`
	Deductions        []DeductionView `json:"deductions"`
	Earnings          []EarningView   `json:"earnings,omitempty"`
}

type DeductionView struct {
	ID       string          `json:"id"`
	ChargeID *string         `json:"charge_id"`
	Type     string          `json:"type"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
}

// EarningView is one milk sale counted into a payslip's gross amount.
type EarningView struct {
	ID        string          `json:"id"`
	SaleAt    time.Time       `json:"date"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

type PeriodView struct {
	ID        string `json:"id"`
	Name      string `json:"period_name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
	RunsCount int    `json:"runs_count"`
}

type SupplierView struct {
	ID               string          `json:"id"`
	Supplier         SupplierAccount `json:"supplier"`
	PaymentTermsDays int             `json:"payment_terms_days"`
	IsActive         bool            `json:"is_active"`
	RecentPayslips   []PayslipView   `json:"recent_payslips,omitempty"`
}

type SupplierAccount struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
}
