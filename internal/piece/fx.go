package piece

import (
	"github.com/printforge/printforge/internal/piece/service"
	"go.uber.org/fx"
)

var Module = fx.Module("piece.service",
	fx.Provide(service.NewService),
)
