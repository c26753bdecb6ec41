package excel

import (
	"context"
	"testing"
	"time"

	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestRunWorkbookWritesPayslipsAndDeductions(t *testing.T) {
	run := payrolldomain.RunView{
		ID:          "1",
		PeriodName:  "Flexible Run",
		PeriodStart: "2025-01-01",
		PeriodEnd:   "2025-01-15",
		RunDate:     time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC),
		TotalAmount: decimal.RequireFromString("46495"),
		Payslips: []payrolldomain.PayslipView{{
			ID:              "2",
			Supplier:        "Supplier One",
			SupplierCode:    "A_S1",
			GrossAmount:     decimal.RequireFromString("46995"),
			TotalDeductions: decimal.RequireFromString("500"),
			NetAmount:       decimal.RequireFromString("46495"),
			MilkSalesCount:  3,
			PeriodStart:     "2025-01-01",
			PeriodEnd:       "2025-01-15",
			Status:          payrolldomain.PayslipStatusGenerated,
			Deductions: []payrolldomain.DeductionView{
				{ID: "3", Type: "charge", Name: "Monthly fee", Amount: decimal.RequireFromString("500")},
			},
		}},
	}

	reader, err := New().RunWorkbook(context.Background(), run)
	require.NoError(t, err)

	f, err := excelize.OpenReader(reader)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(payslipSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Supplier code", header)

	code, err := f.GetCellValue(payslipSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "A_S1", code)

	total, err := f.GetCellValue(payslipSheet, "E3")
	require.NoError(t, err)
	assert.Equal(t, "Total", total)

	deduction, err := f.GetCellValue(deductionSheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, "Monthly fee", deduction)
}
