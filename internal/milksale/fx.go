package milksale

import (
	"github.com/smallbiznis/dairypay/internal/milksale/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("milksale.repository",
	fx.Provide(repository.NewRepository),
)
