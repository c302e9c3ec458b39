package filament

import (
	filamentdomain "github.com/printforge/printforge/internal/filament/domain"
	"github.com/printforge/printforge/internal/filament/service"
	"go.uber.org/fx"
)

func provideService(s *service.Service) filamentdomain.Service { return s }
func provideLedger(s *service.Service) filamentdomain.Ledger   { return s }

var Module = fx.Module("filament.service",
	fx.Provide(
		service.New,
		provideService,
		provideLedger,
	),
)
