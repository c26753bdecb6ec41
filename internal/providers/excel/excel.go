package excel

import (
	"bytes"
	"context"
	"fmt"
	"io"

	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
	"github.com/xuri/excelize/v2"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.excel",
	fx.Provide(New),
)

const (
	payslipSheet   = "Payslips"
	deductionSheet = "Deductions"
)

var payslipHeaders = []string{
	"Supplier code", "Supplier", "Milk sales", "Gross amount", "Deductions", "Net amount",
	"Period start", "Period end", "Status", "Payment date",
}

var deductionHeaders = []string{"Supplier code", "Supplier", "Deduction", "Type", "Amount"}

// Provider renders payroll runs as spreadsheets.
type Provider interface {
	RunWorkbook(ctx context.Context, run payrolldomain.RunView) (io.Reader, error)
}

type ExcelProvider struct{}

func New() Provider {
	return &ExcelProvider{}
}

// RunWorkbook writes one row per payslip and a second sheet with every deduction.
func (p *ExcelProvider) RunWorkbook(ctx context.Context, run payrolldomain.RunView) (io.Reader, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", payslipSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(deductionSheet); err != nil {
		return nil, err
	}

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}

	if err := writeHeader(f, payslipSheet, payslipHeaders, boldStyle); err != nil {
		return nil, err
	}
	if err := writeHeader(f, deductionSheet, deductionHeaders, boldStyle); err != nil {
		return nil, err
	}

	row := 2
	deductionRow := 2
	for _, payslip := range run.Payslips {
		paymentDate := ""
		if payslip.PaymentDate != nil {
			paymentDate = payslip.PaymentDate.UTC().Format("2006-01-02")
		}
		values := []any{
			payslip.SupplierCode,
			payslip.Supplier,
			payslip.MilkSalesCount,
			payslip.GrossAmount.InexactFloat64(),
			payslip.TotalDeductions.InexactFloat64(),
			payslip.NetAmount.InexactFloat64(),
			payslip.PeriodStart,
			payslip.PeriodEnd,
			string(payslip.Status),
			paymentDate,
		}
		if err := f.SetSheetRow(payslipSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(payslipSheet, fmt.Sprintf("D%d", row), fmt.Sprintf("F%d", row), amountStyle); err != nil {
			return nil, err
		}
		row++

		for _, deduction := range payslip.Deductions {
			values := []any{
				payslip.SupplierCode,
				payslip.Supplier,
				deduction.Name,
				deduction.Type,
				deduction.Amount.InexactFloat64(),
			}
			if err := f.SetSheetRow(deductionSheet, fmt.Sprintf("A%d", deductionRow), &values); err != nil {
				return nil, err
			}
			deductionRow++
		}
	}

	totalCell := fmt.Sprintf("F%d", row)
	if err := f.SetCellValue(payslipSheet, fmt.Sprintf("E%d", row), "Total"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(payslipSheet, totalCell, run.TotalAmount.InexactFloat64()); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(payslipSheet, fmt.Sprintf("E%d", row), totalCell, boldStyle); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		cell := col + "1"
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}
