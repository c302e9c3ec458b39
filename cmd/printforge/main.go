package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/printforge/printforge/internal/config"
	"github.com/printforge/printforge/internal/logger"
	"github.com/printforge/printforge/internal/migration"
	"github.com/printforge/printforge/internal/seed"
	"github.com/printforge/printforge/internal/server"
	"github.com/printforge/printforge/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		server.Module,

		// Schema and fixtures
		migration.Module,
		seed.Module,
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
