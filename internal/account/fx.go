package account

import (
	"github.com/smallbiznis/dairypay/internal/account/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("account.repository",
	fx.Provide(repository.NewRepository),
)
