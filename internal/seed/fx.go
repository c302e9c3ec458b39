package seed

import (
	"github.com/printforge/printforge/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("seed",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if !cfg.SeedEnabled {
			return nil
		}
		return EnsureStarterData(conn)
	}),
)
