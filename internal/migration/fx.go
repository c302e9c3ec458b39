package migration

import (
	"github.com/printforge/printforge/internal/config"
	extradomain "github.com/printforge/printforge/internal/extra/domain"
	filamentdomain "github.com/printforge/printforge/internal/filament/domain"
	jobdomain "github.com/printforge/printforge/internal/job/domain"
	piecedomain "github.com/printforge/printforge/internal/piece/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// The SQL migrations target postgres. Other dialects (sqlite for
		// local dev, mysql) take the schema from the models instead.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(
				&filamentdomain.Filament{},
				&jobdomain.Job{},
				&piecedomain.Piece{},
				&piecedomain.ConsumptionRecord{},
				&extradomain.ExtraCatalogEntry{},
				&extradomain.ExtraApplied{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
