package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/dairypay/internal/account/domain"
	chargedomain "github.com/smallbiznis/dairypay/internal/charge/domain"
	milksaledomain "github.com/smallbiznis/dairypay/internal/milksale/domain"
	"github.com/smallbiznis/dairypay/internal/observability/tracing"
	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// generated collects what one run wrote, in processing order. total is
// read back from the stored payslips once they are all written.
type generated struct {
	payslips   []payrolldomain.PayslipView
	total      decimal.Decimal
	applied    []chargedomain.Kind
	skippedNet int
}

func (s *Service) Generate(ctx context.Context, req payrolldomain.GenerateRequest) (*payrolldomain.GenerateResult, error) {
	ctx, span := s.tracer.Start(ctx, "payroll.generate")
	defer span.End()
	span.SetAttributes(tracing.SafeAttributes(
		attribute.String("account_id", req.AccountID.String()),
		attribute.Int("supplier_codes", len(req.SupplierCodes)),
	)...)

	started := s.clock.Now()
	result, err := s.generate(ctx, req)
	status := string(payrolldomain.RunStatusCompleted)
	if err != nil {
		status = string(payrolldomain.RunStatusFailed)
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, tracing.SafeError(err).Error())
	}
	s.metrics.RecordPayrollRun(ctx, status, s.clock.Now().Sub(started))
	return result, err
}

func (s *Service) generate(ctx context.Context, req payrolldomain.GenerateRequest) (*payrolldomain.GenerateResult, error) {
	if req.AccountID == 0 {
		return nil, payrolldomain.ErrInvalidAccount
	}
	if req.PeriodStart.IsZero() || req.PeriodEnd.IsZero() {
		return nil, payrolldomain.ErrInvalidPeriod
	}
	periodStart := truncateDay(req.PeriodStart)
	periodEnd := truncateDay(req.PeriodEnd)
	if periodEnd.Before(periodStart) {
		return nil, payrolldomain.ErrInvalidPeriod
	}
	terms, err := s.paymentTerms(req.PaymentTermsDays)
	if err != nil {
		return nil, err
	}
	if req.PeriodID != nil {
		period, err := s.repo.FindPeriod(ctx, req.AccountID, *req.PeriodID)
		if err != nil {
			return nil, err
		}
		if period == nil {
			return nil, payrolldomain.ErrInvalidPeriodID
		}
	}

	now := s.clock.Now().UTC()
	run := &payrolldomain.PayrollRun{
		ID:               s.genID.Generate(),
		AccountID:        req.AccountID,
		PeriodID:         req.PeriodID,
		Name:             optionalString(req.RunName),
		RunDate:          now,
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
		PaymentTermsDays: terms,
		TotalAmount:      decimal.Zero,
		Status:           payrolldomain.RunStatusDraft,
		CreatedBy:        optionalString(req.CreatedBy),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	enrollments, err := s.EnsureEnrolled(ctx, payrolldomain.EnrollRequest{
		AccountID:        req.AccountID,
		SupplierCodes:    req.SupplierCodes,
		PaymentTermsDays: terms,
	})
	if err != nil {
		s.discardRun(ctx, run.ID)
		return nil, err
	}
	if len(enrollments) == 0 {
		s.discardRun(ctx, run.ID)
		return nil, payrolldomain.ErrNoActiveSuppliers
	}

	supplierIDs := make([]snowflake.ID, 0, len(enrollments))
	for _, enrollment := range enrollments {
		supplierIDs = append(supplierIDs, enrollment.SupplierAccountID)
	}
	accounts, err := s.accountRepo.FindByIDs(ctx, supplierIDs)
	if err != nil {
		s.discardRun(ctx, run.ID)
		return nil, err
	}

	var out generated
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		out, txErr = s.processSuppliers(ctx, tx, run, enrollments, accounts)
		if txErr != nil {
			return txErr
		}
		repo := s.repo.WithTx(tx)
		total, txErr := repo.SumNetAmount(ctx, run.ID)
		if txErr != nil {
			return txErr
		}
		out.total = total
		return repo.CompleteRun(ctx, run.ID, total, s.clock.Now().UTC())
	})
	if err != nil {
		s.log.Warn("payroll generation failed",
			zap.String("run_id", run.ID.String()),
			zap.String("account_id", req.AccountID.String()),
			zap.Error(err),
		)
		s.discardRun(ctx, run.ID)
		return nil, err
	}

	s.metrics.RecordPayslipsGenerated(ctx, len(out.payslips))
	for _, kind := range out.applied {
		s.metrics.RecordChargeApplication(ctx, string(kind))
	}
	s.log.Info("payroll run generated",
		zap.String("run_id", run.ID.String()),
		zap.Int("payslips", len(out.payslips)),
		zap.Int("skipped_non_positive", out.skippedNet),
		zap.String("total_amount", out.total.StringFixed(2)),
	)
	s.audit(ctx, req.AccountID, req.CreatedBy, "payroll_run.generated", "payroll_run", run.ID, map[string]any{
		"period_start":        formatDate(periodStart),
		"period_end":          formatDate(periodEnd),
		"suppliers_processed": len(out.payslips),
		"total_amount":        out.total.StringFixed(2),
	})

	return &payrolldomain.GenerateResult{
		RunID:              run.ID.String(),
		Status:             payrolldomain.RunStatusCompleted,
		PeriodStart:        formatDate(periodStart),
		PeriodEnd:          formatDate(periodEnd),
		SuppliersProcessed: len(out.payslips),
		TotalAmount:        out.total,
		Payslips:           out.payslips,
	}, nil
}

// processSuppliers writes every payslip of the run through tx, one supplier at a time.
func (s *Service) processSuppliers(
	ctx context.Context,
	tx *gorm.DB,
	run *payrolldomain.PayrollRun,
	enrollments []payrolldomain.PayrollSupplier,
	accounts map[snowflake.ID]accountdomain.Account,
) (generated, error) {
	repo := s.repo.WithTx(tx)
	sales := s.salesRepo.WithTx(tx)
	resolver := s.resolver.WithTx(tx)
	window := milksaledomain.DayWindow(run.PeriodStart, run.PeriodEnd)

	out := generated{payslips: []payrolldomain.PayslipView{}}
	for i := range enrollments {
		enrollment := enrollments[i]
		account, ok := accounts[enrollment.SupplierAccountID]
		if !ok || !account.IsActive() {
			s.log.Debug("skipping ineligible supplier", zap.String("supplier_account_id", enrollment.SupplierAccountID.String()))
			continue
		}

		rows, err := sales.ListAccepted(ctx, enrollment.SupplierAccountID, run.AccountID, window)
		if err != nil {
			return out, err
		}
		gross := milksaledomain.Sum(rows).Round(2)

		var applicable []chargedomain.ApplicableCharge
		totalDeductions := decimal.Zero
		if len(rows) > 0 {
			applicable, err = resolver.Resolve(ctx, run.AccountID, enrollment.SupplierAccountID, run.PeriodStart, run.PeriodEnd, gross)
			if err != nil {
				return out, err
			}
			totalDeductions = chargedomain.Total(applicable)
			if !gross.Sub(totalDeductions).IsPositive() {
				out.skippedNet++
				continue
			}
		}

		now := s.clock.Now().UTC()
		payslip := &payrolldomain.PayrollPayslip{
			ID:                s.genID.Generate(),
			RunID:             run.ID,
			SupplierAccountID: enrollment.SupplierAccountID,
			PayrollSupplierID: &enrollment.ID,
			GrossAmount:       gross,
			TotalDeductions:   totalDeductions,
			NetAmount:         gross.Sub(totalDeductions),
			MilkSalesCount:    len(rows),
			PeriodStart:       run.PeriodStart,
			PeriodEnd:         run.PeriodEnd,
			Status:            payrolldomain.PayslipStatusGenerated,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := repo.CreatePayslip(ctx, payslip); err != nil {
			return out, err
		}

		deductions := make([]payrolldomain.PayrollDeduction, 0, len(applicable))
		for _, charge := range applicable {
			chargeID := charge.ChargeID
			deductions = append(deductions, payrolldomain.PayrollDeduction{
				ID:            s.genID.Generate(),
				PayslipID:     payslip.ID,
				ChargeID:      &chargeID,
				DeductionType: payrolldomain.DeductionTypeCharge,
				Name:          charge.Name,
				Amount:        charge.Amount,
				CreatedAt:     now,
			})

			if charge.Kind == chargedomain.KindOneTime {
				err := resolver.RecordApplication(ctx, chargedomain.ChargeApplication{
					ID:                s.genID.Generate(),
					ChargeID:          charge.ChargeID,
					SupplierAccountID: enrollment.SupplierAccountID,
					PayslipID:         payslip.ID,
					Amount:            charge.Amount,
					CreatedAt:         now,
				})
				if err != nil {
					if errors.Is(err, chargedomain.ErrAlreadyApplied) {
						return out, fmt.Errorf("supplier %s charge %s: %w", account.Code, charge.ChargeID, err)
					}
					return out, err
				}
			}
			out.applied = append(out.applied, charge.Kind)
		}
		if err := repo.CreateDeductions(ctx, deductions); err != nil {
			return out, err
		}

		out.payslips = append(out.payslips, toPayslipView(payrolldomain.PayslipRow{
			PayrollPayslip: *payslip,
			SupplierCode:   account.Code,
			SupplierName:   account.Name,
		}, deductions))
	}
	return out, nil
}

// discardRun removes a draft header after a failed generation. Errors are
// logged only.
func (s *Service) discardRun(ctx context.Context, runID snowflake.ID) {
	if err := s.repo.DeleteRun(context.WithoutCancel(ctx), runID); err != nil {
		s.log.Warn("failed to delete draft payroll run", zap.String("run_id", runID.String()), zap.Error(err))
	}
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
