package job

import (
	jobdomain "github.com/printforge/printforge/internal/job/domain"
	"github.com/printforge/printforge/internal/job/service"
	"go.uber.org/fx"
)

func provideService(s *service.Service) jobdomain.Service     { return s }
func provideEvaluator(s *service.Service) jobdomain.Evaluator { return s }

var Module = fx.Module("job.service",
	fx.Provide(
		service.New,
		provideService,
		provideEvaluator,
	),
)
