package extra

import (
	"github.com/printforge/printforge/internal/extra/service"
	"go.uber.org/fx"
)

var Module = fx.Module("extra.service",
	fx.Provide(service.NewService),
)
