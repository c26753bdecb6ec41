package service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	milksaledomain "github.com/smallbiznis/dairypay/internal/milksale/domain"
	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
	"github.com/shopspring/decimal"
)

const flexibleRunName = "Flexible Run"

func (s *Service) ListRuns(ctx context.Context, req payrolldomain.ListRunsRequest) ([]payrolldomain.RunView, error) {
	if req.AccountID == 0 {
		return nil, payrolldomain.ErrInvalidAccount
	}
	rows, err := s.repo.ListRuns(ctx, req.AccountID, req.PeriodID)
	if err != nil {
		return nil, err
	}
	return s.buildRunViews(ctx, rows)
}

// GetRun returns the run with each payslip's deductions and counted milk sales.
func (s *Service) GetRun(ctx context.Context, accountID, runID snowflake.ID) (*payrolldomain.RunView, error) {
	if accountID == 0 {
		return nil, payrolldomain.ErrInvalidAccount
	}
	if runID == 0 {
		return nil, payrolldomain.ErrInvalidID
	}
	row, err := s.repo.FindRun(ctx, accountID, runID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, payrolldomain.ErrRunNotFound
	}

	views, err := s.buildRunViews(ctx, []payrolldomain.RunRow{*row})
	if err != nil {
		return nil, err
	}
	view := views[0]

	window := milksaledomain.DayWindow(row.PeriodStart, row.PeriodEnd)
	for i := range view.Payslips {
		supplierID, err := snowflake.ParseString(view.Payslips[i].SupplierAccountID)
		if err != nil {
			return nil, err
		}
		sales, err := s.salesRepo.ListAccepted(ctx, supplierID, accountID, window)
		if err != nil {
			return nil, err
		}
		earnings := make([]payrolldomain.EarningView, 0, len(sales))
		for _, sale := range sales {
			earnings = append(earnings, payrolldomain.EarningView{
				ID:        sale.ID.String(),
				SaleAt:    sale.SaleAt,
				Quantity:  sale.Quantity,
				UnitPrice: sale.UnitPrice,
				Amount:    sale.Amount(),
			})
		}
		view.Payslips[i].Earnings = earnings
	}
	return &view, nil
}

func (s *Service) Report(ctx context.Context, req payrolldomain.ReportRequest) (*payrolldomain.Report, error) {
	runs, err := s.ListRuns(ctx, payrolldomain.ListRunsRequest{AccountID: req.AccountID, PeriodID: req.PeriodID})
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	suppliers := make(map[string]struct{})
	for _, run := range runs {
		total = total.Add(run.TotalAmount)
		for _, payslip := range run.Payslips {
			suppliers[payslip.SupplierAccountID] = struct{}{}
		}
	}
	return &payrolldomain.Report{
		TotalRuns:      len(runs),
		TotalPayroll:   total,
		TotalSuppliers: len(suppliers),
		Runs:           runs,
	}, nil
}

func (s *Service) ExportRun(ctx context.Context, req payrolldomain.ExportRequest) (*payrolldomain.ExportFile, error) {
	if req.Format != payrolldomain.ExportFormatExcel && req.Format != payrolldomain.ExportFormatPDF {
		return nil, payrolldomain.ErrInvalidExportFormat
	}
	run, err := s.GetRun(ctx, req.AccountID, req.RunID)
	if err != nil {
		return nil, err
	}

	var (
		reader      io.Reader
		contentType string
		ext         string
		filename    string
	)
	switch {
	case req.PayslipID != nil:
		if req.Format != payrolldomain.ExportFormatPDF {
			return nil, payrolldomain.ErrInvalidExportFormat
		}
		payslip, found := findPayslipView(run.Payslips, req.PayslipID.String())
		if !found {
			return nil, payrolldomain.ErrPayslipNotFound
		}
		reader, err = s.pdf.PayslipAdvice(ctx, *run, payslip)
		contentType = "application/pdf"
		ext = "pdf"
		filename = exportFilename("payslip", payslip.SupplierCode, run.PeriodStart, payslip.ID, ext)
	case req.Format == payrolldomain.ExportFormatPDF:
		reader, err = s.pdf.RunStatement(ctx, *run)
		contentType = "application/pdf"
		ext = "pdf"
	default:
		reader, err = s.excel.RunWorkbook(ctx, *run)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		ext = "xlsx"
	}
	if filename == "" {
		filename = exportFilename("payroll", runLabel(run), run.PeriodStart, run.ID, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("render payroll run: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	return &payrolldomain.ExportFile{
		Filename:    filename,
		ContentType: contentType,
		Content:     buf.Bytes(),
	}, nil
}

func (s *Service) buildRunViews(ctx context.Context, rows []payrolldomain.RunRow) ([]payrolldomain.RunView, error) {
	runIDs := make([]snowflake.ID, 0, len(rows))
	for _, row := range rows {
		runIDs = append(runIDs, row.ID)
	}
	payslips, err := s.repo.ListPayslips(ctx, runIDs)
	if err != nil {
		return nil, err
	}
	payslipIDs := make([]snowflake.ID, 0, len(payslips))
	for _, payslip := range payslips {
		payslipIDs = append(payslipIDs, payslip.ID)
	}
	deductions, err := s.repo.ListDeductions(ctx, payslipIDs)
	if err != nil {
		return nil, err
	}

	deductionsByPayslip := make(map[snowflake.ID][]payrolldomain.PayrollDeduction, len(payslips))
	for _, d := range deductions {
		deductionsByPayslip[d.PayslipID] = append(deductionsByPayslip[d.PayslipID], d)
	}
	payslipsByRun := make(map[snowflake.ID][]payrolldomain.PayslipView, len(rows))
	for _, payslip := range payslips {
		payslipsByRun[payslip.RunID] = append(payslipsByRun[payslip.RunID], toPayslipView(payslip, deductionsByPayslip[payslip.ID]))
	}

	views := make([]payrolldomain.RunView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toRunView(row, payslipsByRun[row.ID]))
	}
	return views, nil
}

func toRunView(row payrolldomain.RunRow, payslips []payrolldomain.PayslipView) payrolldomain.RunView {
	if payslips == nil {
		payslips = []payrolldomain.PayslipView{}
	}
	periodName := flexibleRunName
	if row.PeriodName != nil && *row.PeriodName != "" {
		periodName = *row.PeriodName
	}
	return payrolldomain.RunView{
		ID:               row.ID.String(),
		AccountID:        row.AccountID.String(),
		PeriodID:         optionalID(row.PeriodID),
		PeriodName:       periodName,
		Name:             row.Name,
		RunDate:          row.RunDate,
		PeriodStart:      formatDate(row.PeriodStart),
		PeriodEnd:        formatDate(row.PeriodEnd),
		PaymentTermsDays: row.PaymentTermsDays,
		TotalAmount:      row.TotalAmount,
		Status:           row.Status,
		PayslipsCount:    row.PayslipsCount,
		CreatedBy:        row.CreatedBy,
		Payslips:         payslips,
	}
}

func toPayslipView(row payrolldomain.PayslipRow, deductions []payrolldomain.PayrollDeduction) payrolldomain.PayslipView {
	items := make([]payrolldomain.DeductionView, 0, len(deductions))
	for _, d := range deductions {
		items = append(items, payrolldomain.DeductionView{
			ID:       d.ID.String(),
			ChargeID: optionalID(d.ChargeID),
			Type:     d.DeductionType,
			Name:     d.Name,
			Amount:   d.Amount,
		})
	}
	return payrolldomain.PayslipView{
		ID:                row.ID.String(),
		SupplierAccountID: row.SupplierAccountID.String(),
		Supplier:          row.SupplierName,
		SupplierCode:      row.SupplierCode,
		GrossAmount:       row.GrossAmount,
		TotalDeductions:   row.TotalDeductions,
		NetAmount:         row.NetAmount,
		MilkSalesCount:    row.MilkSalesCount,
		PeriodStart:       formatDate(row.PeriodStart),
		PeriodEnd:         formatDate(row.PeriodEnd),
		Status:            row.Status,
		PaymentDate:       row.PaymentDate,
		PaidBy:            row.PaidBy,
		Deductions:        items,
	}
}

func findPayslipView(payslips []payrolldomain.PayslipView, id string) (payrolldomain.PayslipView, bool) {
	for _, payslip := range payslips {
		if payslip.ID == id {
			return payslip, true
		}
	}
	return payrolldomain.PayslipView{}, false
}

// exportFilename slugs the label into the name and falls back to the id
// when the label has nothing usable.
func exportFilename(prefix, label, periodStart, id, ext string) string {
	if slugged := slug.Make(label); slugged != "" {
		return fmt.Sprintf("%s-%s-%s.%s", prefix, slugged, periodStart, ext)
	}
	return fmt.Sprintf("%s-%s-%s.%s", prefix, periodStart, id, ext)
}

func runLabel(run *payrolldomain.RunView) string {
	if run.Name != nil {
		return *run.Name
	}
	return run.PeriodName
}
