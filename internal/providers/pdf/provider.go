package pdf

import (
	"context"
	"io"

	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

// Provider renders payroll documents as PDF.
type Provider interface {
	RunStatement(ctx context.Context, run payrolldomain.RunView) (io.Reader, error)
	PayslipAdvice(ctx context.Context, run payrolldomain.RunView, payslip payrolldomain.PayslipView) (io.Reader, error)
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}
