package providers

import (
	"github.com/smallbiznis/dairypay/internal/providers/excel"
	"github.com/smallbiznis/dairypay/internal/providers/pdf"
	"go.uber.org/fx"
)

// Module provides the payroll document renderers.
var Module = fx.Module("providers",
	pdf.Module,
	excel.Module,
)
