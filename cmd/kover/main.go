package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/koverhq/kover/internal/config"
	"github.com/koverhq/kover/internal/logger"
	"github.com/koverhq/kover/internal/migration"
	"github.com/koverhq/kover/internal/server"
	"github.com/koverhq/kover/pkg/db"
	"github.com/koverhq/kover/pkg/telemetry"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		telemetry.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
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
