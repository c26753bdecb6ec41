package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/smallbiznis/dairypay/internal/ledger/domain"
	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MarkPaid moves one payslip, or every unpaid payslip of the run, to paid
// and posts the matching ledger expense. Ledger failures never undo the
// payment.
func (s *Service) MarkPaid(ctx context.Context, req payrolldomain.MarkPaidRequest) (*payrolldomain.MarkPaidResult, error) {
	if req.AccountID == 0 {
		return nil, payrolldomain.ErrInvalidAccount
	}
	if req.RunID == 0 {
		return nil, payrolldomain.ErrInvalidID
	}

	run, err := s.repo.FindRun(ctx, req.AccountID, req.RunID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, payrolldomain.ErrRunNotFound
	}

	now := s.clock.Now().UTC()
	paymentDate := now
	if req.PaymentDate != nil && !req.PaymentDate.IsZero() {
		paymentDate = req.PaymentDate.UTC()
	}
	paidBy := optionalString(req.PaidBy)

	if req.PayslipID != nil {
		return s.markOnePaid(ctx, run, *req.PayslipID, paymentDate, paidBy, now, req.PaidBy)
	}

	rows, err := s.repo.ListPayslips(ctx, []snowflake.ID{run.ID})
	if err != nil {
		return nil, err
	}
	pending := make([]payrolldomain.PayslipRow, 0, len(rows))
	for _, row := range rows {
		if !row.IsPaid() {
			pending = append(pending, row)
		}
	}
	if len(pending) == 0 {
		return nil, payrolldomain.ErrNothingToPay
	}

	result := &payrolldomain.MarkPaidResult{TotalPaid: decimal.Zero}
	for _, row := range pending {
		ok, err := s.repo.MarkPayslipPaid(ctx, row.ID, paymentDate, paidBy, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		result.PaidCount++
		result.TotalPaid = result.TotalPaid.Add(row.NetAmount)
		s.postExpense(ctx, run.AccountID, row, paymentDate)
	}

	s.metrics.RecordPayslipsPaid(ctx, result.PaidCount)
	s.audit(ctx, run.AccountID, req.PaidBy, "payroll_run.paid", "payroll_run", run.ID, map[string]any{
		"paid_count":   result.PaidCount,
		"total_paid":   result.TotalPaid.StringFixed(2),
		"payment_date": formatDate(paymentDate),
	})
	return result, nil
}

func (s *Service) markOnePaid(
	ctx context.Context,
	run *payrolldomain.RunRow,
	payslipID snowflake.ID,
	paymentDate time.Time,
	paidBy *string,
	now time.Time,
	actorID string,
) (*payrolldomain.MarkPaidResult, error) {
	payslip, err := s.repo.FindPayslip(ctx, run.ID, payslipID)
	if err != nil {
		return nil, err
	}
	if payslip == nil {
		return nil, payrolldomain.ErrPayslipNotFound
	}
	if payslip.IsPaid() {
		return nil, payrolldomain.ErrPayslipAlreadyPaid
	}

	ok, err := s.repo.MarkPayslipPaid(ctx, payslip.ID, paymentDate, paidBy, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, payrolldomain.ErrPayslipAlreadyPaid
	}
	payslip.Status = payrolldomain.PayslipStatusPaid
	payslip.PaymentDate = &paymentDate
	payslip.PaidBy = paidBy
	payslip.UpdatedAt = now

	row := payrolldomain.PayslipRow{PayrollPayslip: *payslip}
	accounts, err := s.accountRepo.FindByIDs(ctx, []snowflake.ID{payslip.SupplierAccountID})
	if err != nil {
		s.log.Warn("failed to load supplier account for payslip", zap.String("payslip_id", payslip.ID.String()), zap.Error(err))
	} else if account, found := accounts[payslip.SupplierAccountID]; found {
		row.SupplierCode = account.Code
		row.SupplierName = account.Name
	}

	s.postExpense(ctx, run.AccountID, row, paymentDate)
	s.metrics.RecordPayslipsPaid(ctx, 1)
	s.audit(ctx, run.AccountID, actorID, "payroll_payslip.paid", "payroll_payslip", payslip.ID, map[string]any{
		"run_id":       run.ID.String(),
		"net_amount":   payslip.NetAmount.StringFixed(2),
		"payment_date": formatDate(paymentDate),
	})

	deductions, err := s.repo.ListDeductions(ctx, []snowflake.ID{payslip.ID})
	if err != nil {
		return nil, err
	}
	view := toPayslipView(row, deductions)
	return &payrolldomain.MarkPaidResult{
		Payslip:   &view,
		PaidCount: 1,
		TotalPaid: payslip.NetAmount,
	}, nil
}

// postExpense records the payment in the ledger. Zero payslips have nothing
// to post.
func (s *Service) postExpense(ctx context.Context, accountID snowflake.ID, row payrolldomain.PayslipRow, paymentDate time.Time) {
	if !row.NetAmount.IsPositive() {
		return
	}
	supplier := row.SupplierName
	if supplier == "" {
		supplier = row.SupplierAccountID.String()
	}
	err := s.ledgerSvc.PostExpense(ctx, ledgerdomain.ExpenseEntry{
		AccountID:   accountID,
		SourceID:    row.ID,
		Amount:      row.NetAmount,
		Description: fmt.Sprintf("Payroll payment to %s for %s to %s", supplier, formatDate(row.PeriodStart), formatDate(row.PeriodEnd)),
		Date:        paymentDate,
	})
	if err != nil {
		s.metrics.RecordLedgerPostFailure(ctx, string(ledgerdomain.SourceTypePayrollPayslip))
		s.log.Error("failed to post payroll expense",
			zap.String("payslip_id", row.ID.String()),
			zap.String("account_id", accountID.String()),
			zap.Error(err),
		)
	}
}
