package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
)

// PayslipAdvice renders one supplier's payslip with its deduction breakdown.
func (p *PDFProvider) PayslipAdvice(ctx context.Context, run payrolldomain.RunView, payslip payrolldomain.PayslipView) (io.Reader, error) {
	m := newDocument()

	m.AddRow(12,
		text.NewCol(12, "Payment advice", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	paid := "Not paid"
	if payslip.PaymentDate != nil {
		paid = "Paid on " + payslip.PaymentDate.UTC().Format("2006-01-02")
	}
	m.AddRow(20,
		col.New(6).Add(
			text.New("Supplier: "+supplierLabel(payslip), props.Text{Top: 0}),
			text.New("Period: "+payslip.PeriodStart+" to "+payslip.PeriodEnd, props.Text{Top: 4}),
			text.New(fmt.Sprintf("Milk sales: %d", payslip.MilkSalesCount), props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New("Run: "+run.PeriodName, props.Text{Align: align.Right}),
			text.New(paid, props.Text{Top: 4, Align: align.Right}),
		),
	)

	m.AddRow(10,
		text.NewCol(8, "Description", headerText),
		text.NewCol(4, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))
	m.AddRow(8,
		text.NewCol(8, "Milk deliveries", cellText),
		text.NewCol(4, payslip.GrossAmount.StringFixed(2), amountText),
	)
	for _, deduction := range payslip.Deductions {
		m.AddRow(8,
			text.NewCol(8, "Less: "+deduction.Name, cellText),
			text.NewCol(4, "-"+deduction.Amount.StringFixed(2), amountText),
		)
	}

	m.AddRow(2, line.NewCol(12))
	m.AddRow(10,
		col.New(6),
		text.NewCol(2, "Net pay", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, payslip.NetAmount.StringFixed(2), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
