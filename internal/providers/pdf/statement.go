package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
)

var (
	headerText = props.Text{Style: fontstyle.Bold, Size: 9}
	cellText   = props.Text{Size: 9}
	amountText = props.Text{Size: 9, Align: align.Right}
)

// RunStatement lists every payslip of the run with its amounts.
func (p *PDFProvider) RunStatement(ctx context.Context, run payrolldomain.RunView) (io.Reader, error) {
	m := newDocument()

	title := run.PeriodName
	if run.Name != nil && *run.Name != "" {
		title = *run.Name
	}
	m.AddRow(12,
		text.NewCol(12, "Payroll statement", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(20,
		col.New(6).Add(
			text.New("Run: "+title, props.Text{Top: 0}),
			text.New("Period: "+run.PeriodStart+" to "+run.PeriodEnd, props.Text{Top: 4}),
			text.New(fmt.Sprintf("Payment terms: %d days", run.PaymentTermsDays), props.Text{Top: 8}),
			text.New("Status: "+string(run.Status), props.Text{Top: 12}),
		),
		col.New(6).Add(
			text.New("Run date: "+run.RunDate.UTC().Format("2006-01-02"), props.Text{Align: align.Right}),
			text.New(fmt.Sprintf("Payslips: %d", len(run.Payslips)), props.Text{Top: 4, Align: align.Right}),
		),
	)

	m.AddRow(10,
		text.NewCol(3, "Supplier", headerText),
		text.NewCol(1, "Sales", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Gross", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Deductions", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Net", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Status", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, payslip := range run.Payslips {
		m.AddRow(8,
			text.NewCol(3, supplierLabel(payslip), cellText),
			text.NewCol(1, fmt.Sprintf("%d", payslip.MilkSalesCount), amountText),
			text.NewCol(2, payslip.GrossAmount.StringFixed(2), amountText),
			text.NewCol(2, payslip.TotalDeductions.StringFixed(2), amountText),
			text.NewCol(2, payslip.NetAmount.StringFixed(2), amountText),
			text.NewCol(2, string(payslip.Status), amountText),
		)
	}

	m.AddRow(2, line.NewCol(12))
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, run.TotalAmount.StringFixed(2), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}

func newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	return maroto.New(cfg)
}

func supplierLabel(payslip payrolldomain.PayslipView) string {
	switch {
	case payslip.Supplier != "" && payslip.SupplierCode != "":
		return payslip.Supplier + " (" + payslip.SupplierCode + ")"
	case payslip.Supplier != "":
		return payslip.Supplier
	default:
		return payslip.SupplierAccountID
	}
}
