package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dairypay/internal/clock"
	"github.com/smallbiznis/dairypay/internal/config"
	"github.com/smallbiznis/dairypay/internal/migration"
	"github.com/smallbiznis/dairypay/internal/observability"
	"github.com/smallbiznis/dairypay/internal/server"
	"github.com/smallbiznis/dairypay/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

// RegisterSnowflake builds the id generator for the configured node.
func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
