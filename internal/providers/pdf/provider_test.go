package pdf

import (
	"context"
	"io"
	"testing"
	"time"

	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRun() payrolldomain.RunView {
	paid := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	return payrolldomain.RunView{
		ID:          "1",
		PeriodName:  "January A",
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
			PeriodStart:     "2025-01-01",
			PeriodEnd:       "2025-01-15",
			Status:          payrolldomain.PayslipStatusPaid,
			PaymentDate:     &paid,
			Deductions: []payrolldomain.DeductionView{
				{ID: "3", Type: "charge", Name: "Monthly fee", Amount: decimal.RequireFromString("500")},
			},
		}},
	}
}

func TestRunStatementProducesPDF(t *testing.T) {
	reader, err := New().RunStatement(context.Background(), sampleRun())
	require.NoError(t, err)

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.True(t, len(content) > 4)
	assert.Equal(t, "%PDF", string(content[:4]))
}

func TestPayslipAdviceProducesPDF(t *testing.T) {
	run := sampleRun()
	reader, err := New().PayslipAdvice(context.Background(), run, run.Payslips[0])
	require.NoError(t, err)

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(content[:4]))
}

func TestSupplierLabel(t *testing.T) {
	assert.Equal(t, "Supplier One (A_S1)", supplierLabel(payrolldomain.PayslipView{Supplier: "Supplier One", SupplierCode: "A_S1"}))
	assert.Equal(t, "42", supplierLabel(payrolldomain.PayslipView{SupplierAccountID: "42"}))
}
