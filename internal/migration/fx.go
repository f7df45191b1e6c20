package migration

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/flowdesk/internal/clock"
	"github.com/smallbiznis/flowdesk/internal/config"
	"github.com/smallbiznis/flowdesk/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, invoicing *config.InvoicingConfigHolder, node *snowflake.Node, c clock.Clock, log *zap.Logger) error {
		if err := Migrate(conn, cfg.DBType); err != nil {
			return err
		}
		created, err := seed.EnsureDefaultProfile(context.Background(), conn, node, c, invoicing.Get())
		if err != nil {
			return err
		}
		if created {
			log.Info("seed.default_profile_created")
		}
		return nil
	}),
)
