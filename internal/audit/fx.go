package audit

import (
	"github.com/smallbiznis/dairypay/internal/audit/repository"
	"github.com/smallbiznis/dairypay/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
