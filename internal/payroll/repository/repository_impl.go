package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const runSelect = `SELECT r.id, r.account_id, r.period_id, r.name, r.run_date, r.period_start, r.period_end,
	r.payment_terms_days, r.total_amount, r.status, r.created_by, r.created_at, r.updated_at,
	p.name AS period_name,
	(SELECT COUNT(*) FROM payroll_payslips ps WHERE ps.run_id = r.id) AS payslips_count
	FROM payroll_runs r
	LEFT JOIN payroll_periods p ON p.id = r.period_id`

const payslipSelect = `SELECT ps.id, ps.run_id, ps.supplier_account_id, ps.payroll_supplier_id, ps.gross_amount,
	ps.total_deductions, ps.net_amount, ps.milk_sales_count, ps.period_start, ps.period_end, ps.status,
	ps.payment_date, ps.paid_by, ps.created_at, ps.updated_at,
	COALESCE(a.code, '') AS supplier_code,
	COALESCE(a.name, '') AS supplier_name
	FROM payroll_payslips ps
	LEFT JOIN accounts a ON a.id = ps.supplier_account_id`

const supplierSelect = `SELECT s.id, s.account_id, s.supplier_account_id, s.payment_terms_days, s.is_active,
	s.created_at, s.updated_at,
	COALESCE(a.code, '') AS supplier_code,
	COALESCE(a.name, '') AS supplier_name,
	COALESCE(a.type, '') AS supplier_type,
	COALESCE(a.status, '') AS supplier_status
	FROM payroll_suppliers s
	LEFT JOIN accounts a ON a.id = s.supplier_account_id`

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) payrolldomain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) payrolldomain.Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreatePeriod(ctx context.Context, p *payrolldomain.PayrollPeriod) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO payroll_periods (id, account_id, name, start_date, end_date, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.AccountID,
		p.Name,
		p.StartDate,
		p.EndDate,
		p.Status,
		p.CreatedAt,
		p.UpdatedAt,
	).Error
}

func (r *repository) FindPeriod(ctx context.Context, accountID, id snowflake.ID) (*payrolldomain.PayrollPeriod, error) {
	var period payrolldomain.PayrollPeriod
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, account_id, name, start_date, end_date, status, created_at, updated_at
		 FROM payroll_periods
		 WHERE account_id = ? AND id = ?`,
		accountID,
		id,
	).Scan(&period).Error
	if err != nil {
		return nil, err
	}
	if period.ID == 0 {
		return nil, nil
	}
	return &period, nil
}

func (r *repository) ListPeriods(ctx context.Context, accountID snowflake.ID) ([]payrolldomain.PeriodRow, error) {
	var rows []payrolldomain.PeriodRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT p.id, p.account_id, p.name, p.start_date, p.end_date, p.status, p.created_at, p.updated_at,
		 (SELECT COUNT(*) FROM payroll_runs r WHERE r.period_id = p.id) AS runs_count
		 FROM payroll_periods p
		 WHERE p.account_id = ?
		 ORDER BY p.start_date DESC, p.id DESC`,
		accountID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CreateRun(ctx context.Context, run *payrolldomain.PayrollRun) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO payroll_runs (id, account_id, period_id, name, run_date, period_start, period_end,
		 payment_terms_days, total_amount, status, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.AccountID,
		run.PeriodID,
		run.Name,
		run.RunDate,
		run.PeriodStart,
		run.PeriodEnd,
		run.PaymentTermsDays,
		run.TotalAmount,
		run.Status,
		run.CreatedBy,
		run.CreatedAt,
		run.UpdatedAt,
	).Error
}

func (r *repository) FindRun(ctx context.Context, accountID, id snowflake.ID) (*payrolldomain.RunRow, error) {
	var row payrolldomain.RunRow
	err := r.db.WithContext(ctx).Raw(
		runSelect+` WHERE r.account_id = ? AND r.id = ?`,
		accountID,
		id,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *repository) ListRuns(ctx context.Context, accountID snowflake.ID, periodID *snowflake.ID) ([]payrolldomain.RunRow, error) {
	query := runSelect + ` WHERE r.account_id = ?`
	args := []any{accountID}
	if periodID != nil {
		query += ` AND r.period_id = ?`
		args = append(args, *periodID)
	}
	query += ` ORDER BY r.run_date DESC, r.id DESC`

	var rows []payrolldomain.RunRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SumNetAmount(ctx context.Context, runID snowflake.ID) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(net_amount), 0) AS total FROM payroll_payslips WHERE run_id = ?`,
		runID,
	).Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

func (r *repository) CompleteRun(ctx context.Context, id snowflake.ID, total decimal.Decimal, updatedAt time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE payroll_runs SET total_amount = ?, status = ?, updated_at = ? WHERE id = ?`,
		total,
		payrolldomain.RunStatusCompleted,
		updatedAt,
		id,
	).Error
}

func (r *repository) DeleteRun(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Exec(`DELETE FROM payroll_runs WHERE id = ?`, id).Error
}

func (r *repository) UpsertSupplier(ctx context.Context, s *payrolldomain.PayrollSupplier) (*payrolldomain.PayrollSupplier, error) {
	return r.insertSupplier(ctx, s, `payment_terms_days = excluded.payment_terms_days,
		     is_active = excluded.is_active,
		     updated_at = excluded.updated_at`)
}

func (r *repository) EnrollSupplier(ctx context.Context, s *payrolldomain.PayrollSupplier) (*payrolldomain.PayrollSupplier, error) {
	return r.insertSupplier(ctx, s, `is_active = true,
		     updated_at = excluded.updated_at`)
}

func (r *repository) insertSupplier(ctx context.Context, s *payrolldomain.PayrollSupplier, onConflict string) (*payrolldomain.PayrollSupplier, error) {
	err := r.db.WithContext(ctx).Exec(
		`INSERT INTO payroll_suppliers (id, account_id, supplier_account_id, payment_terms_days, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (account_id, supplier_account_id) DO UPDATE
		 SET `+onConflict,
		s.ID,
		s.AccountID,
		s.SupplierAccountID,
		s.PaymentTermsDays,
		s.IsActive,
		s.CreatedAt,
		s.UpdatedAt,
	).Error
	if err != nil {
		return nil, err
	}

	var stored payrolldomain.PayrollSupplier
	err = r.db.WithContext(ctx).Raw(
		`SELECT id, account_id, supplier_account_id, payment_terms_days, is_active, created_at, updated_at
		 FROM payroll_suppliers
		 WHERE account_id = ? AND supplier_account_id = ?`,
		s.AccountID,
		s.SupplierAccountID,
	).Scan(&stored).Error
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *repository) FindSupplier(ctx context.Context, accountID, id snowflake.ID) (*payrolldomain.SupplierRow, error) {
	var row payrolldomain.SupplierRow
	err := r.db.WithContext(ctx).Raw(
		supplierSelect+` WHERE s.account_id = ? AND s.id = ?`,
		accountID,
		id,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *repository) UpdateSupplier(ctx context.Context, s *payrolldomain.PayrollSupplier) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE payroll_suppliers SET payment_terms_days = ?, is_active = ?, updated_at = ?
		 WHERE account_id = ? AND id = ?`,
		s.PaymentTermsDays,
		s.IsActive,
		s.UpdatedAt,
		s.AccountID,
		s.ID,
	).Error
}

func (r *repository) ListActiveSuppliers(ctx context.Context, accountID snowflake.ID) ([]payrolldomain.PayrollSupplier, error) {
	var items []payrolldomain.PayrollSupplier
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, account_id, supplier_account_id, payment_terms_days, is_active, created_at, updated_at
		 FROM payroll_suppliers
		 WHERE account_id = ? AND is_active = ?
		 ORDER BY created_at ASC, id ASC`,
		accountID,
		true,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListSupplierRows(ctx context.Context, accountID snowflake.ID, activeOnly bool) ([]payrolldomain.SupplierRow, error) {
	query := supplierSelect + ` WHERE s.account_id = ?`
	args := []any{accountID}
	if activeOnly {
		query += ` AND s.is_active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY supplier_name ASC, s.id ASC`

	var rows []payrolldomain.SupplierRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CreatePayslip(ctx context.Context, p *payrolldomain.PayrollPayslip) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO payroll_payslips (id, run_id, supplier_account_id, payroll_supplier_id, gross_amount,
		 total_deductions, net_amount, milk_sales_count, period_start, period_end, status, payment_date, paid_by,
		 created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.RunID,
		p.SupplierAccountID,
		p.PayrollSupplierID,
		p.GrossAmount,
		p.TotalDeductions,
		p.NetAmount,
		p.MilkSalesCount,
		p.PeriodStart,
		p.PeriodEnd,
		p.Status,
		p.PaymentDate,
		p.PaidBy,
		p.CreatedAt,
		p.UpdatedAt,
	).Error
}

func (r *repository) CreateDeductions(ctx context.Context, deductions []payrolldomain.PayrollDeduction) error {
	for _, d := range deductions {
		err := r.db.WithContext(ctx).Exec(
			`INSERT INTO payroll_deductions (id, payslip_id, charge_id, deduction_type, name, amount, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			d.ID,
			d.PayslipID,
			d.ChargeID,
			d.DeductionType,
			d.Name,
			d.Amount,
			d.CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) FindPayslip(ctx context.Context, runID, id snowflake.ID) (*payrolldomain.PayrollPayslip, error) {
	var payslip payrolldomain.PayrollPayslip
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, run_id, supplier_account_id, payroll_supplier_id, gross_amount, total_deductions, net_amount,
		 milk_sales_count, period_start, period_end, status, payment_date, paid_by, created_at, updated_at
		 FROM payroll_payslips
		 WHERE run_id = ? AND id = ?`,
		runID,
		id,
	).Scan(&payslip).Error
	if err != nil {
		return nil, err
	}
	if payslip.ID == 0 {
		return nil, nil
	}
	return &payslip, nil
}

func (r *repository) ListPayslips(ctx context.Context, runIDs []snowflake.ID) ([]payrolldomain.PayslipRow, error) {
	if len(runIDs) == 0 {
		return []payrolldomain.PayslipRow{}, nil
	}
	var rows []payrolldomain.PayslipRow
	err := r.db.WithContext(ctx).Raw(
		payslipSelect+` WHERE ps.run_id IN ? ORDER BY ps.created_at ASC, ps.id ASC`,
		runIDs,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListRecentPayslips(ctx context.Context, accountID, supplierAccountID snowflake.ID, limit int) ([]payrolldomain.PayslipRow, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []payrolldomain.PayslipRow
	err := r.db.WithContext(ctx).Raw(
		payslipSelect+`
		 JOIN payroll_runs r ON r.id = ps.run_id
		 WHERE r.account_id = ? AND ps.supplier_account_id = ?
		 ORDER BY ps.created_at DESC, ps.id DESC
		 LIMIT ?`,
		accountID,
		supplierAccountID,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListDeductions(ctx context.Context, payslipIDs []snowflake.ID) ([]payrolldomain.PayrollDeduction, error) {
	if len(payslipIDs) == 0 {
		return []payrolldomain.PayrollDeduction{}, nil
	}
	var items []payrolldomain.PayrollDeduction
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, payslip_id, charge_id, deduction_type, name, amount, created_at
		 FROM payroll_deductions
		 WHERE payslip_id IN ?
		 ORDER BY payslip_id ASC, id ASC`,
		payslipIDs,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) MarkPayslipPaid(ctx context.Context, id snowflake.ID, paymentDate time.Time, paidBy *string, updatedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE payroll_payslips
		 SET status = ?, payment_date = ?, paid_by = ?, updated_at = ?
		 WHERE id = ? AND status <> ?`,
		payrolldomain.PayslipStatusPaid,
		paymentDate,
		paidBy,
		updatedAt,
		id,
		payrolldomain.PayslipStatusPaid,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
