package quote

import (
	"github.com/printforge/printforge/internal/quote/domain"
	"github.com/printforge/printforge/internal/quote/service"
	"go.uber.org/fx"
)

var Module = fx.Module("quote.service",
	fx.Provide(
		service.New,
		provideService,
	),
)

func provideService(s *service.Service) domain.Service { return s }
