package reporting

import (
	"github.com/printforge/printforge/internal/reporting/domain"
	"github.com/printforge/printforge/internal/reporting/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reporting.service",
	fx.Provide(
		service.New,
		provideService,
	),
)

func provideService(s *service.Service) domain.Service { return s }
