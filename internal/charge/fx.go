package charge

import (
	"github.com/smallbiznis/dairypay/internal/charge/repository"
	"github.com/smallbiznis/dairypay/internal/charge/service"
	"go.uber.org/fx"
)

var Module = fx.Module("charge.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(service.NewResolver),
)
