package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/flowdesk/internal/analytics"
	"github.com/smallbiznis/flowdesk/internal/client"
	"github.com/smallbiznis/flowdesk/internal/clock"
	"github.com/smallbiznis/flowdesk/internal/config"
	"github.com/smallbiznis/flowdesk/internal/draft"
	"github.com/smallbiznis/flowdesk/internal/export"
	"github.com/smallbiznis/flowdesk/internal/invoice"
	"github.com/smallbiznis/flowdesk/internal/migration"
	"github.com/smallbiznis/flowdesk/internal/observability"
	"github.com/smallbiznis/flowdesk/internal/profile"
	"github.com/smallbiznis/flowdesk/internal/providers"
	"github.com/smallbiznis/flowdesk/internal/scheduler"
	"github.com/smallbiznis/flowdesk/internal/server"
	"github.com/smallbiznis/flowdesk/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		clock.Module,
		db.Module,
		migration.Module,
		providers.Module,

		// Functional Domains
		client.Module,
		invoice.Module,
		profile.Module,
		analytics.Module,
		draft.Module,
		export.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
