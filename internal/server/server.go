package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/printforge/printforge/internal/cache"
	"github.com/printforge/printforge/internal/clock"
	"github.com/printforge/printforge/internal/config"
	"github.com/printforge/printforge/internal/extra"
	extradomain "github.com/printforge/printforge/internal/extra/domain"
	"github.com/printforge/printforge/internal/filament"
	filamentdomain "github.com/printforge/printforge/internal/filament/domain"
	"github.com/printforge/printforge/internal/job"
	jobdomain "github.com/printforge/printforge/internal/job/domain"
	"github.com/printforge/printforge/internal/logger"
	"github.com/printforge/printforge/internal/metrics"
	"github.com/printforge/printforge/internal/piece"
	piecedomain "github.com/printforge/printforge/internal/piece/domain"
	"github.com/printforge/printforge/internal/providers/pdf"
	"github.com/printforge/printforge/internal/quote"
	quotedomain "github.com/printforge/printforge/internal/quote/domain"
	"github.com/printforge/printforge/internal/reporting"
	reportingdomain "github.com/printforge/printforge/internal/reporting/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	clock.Module,
	cache.Module,
	metrics.Module,
	fx.Provide(registerGin),
	filament.Module,
	piece.Module,
	job.Module,
	extra.Module,
	reporting.Module,
	pdf.Module,
	quote.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, registry *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return r
}

func registerGin(log *zap.Logger, registry *prometheus.Registry) *gin.Engine {
	return NewEngine(log, registry)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	genID  *snowflake.Node

	filamentSvc  filamentdomain.Service
	jobSvc       jobdomain.Service
	pieceSvc     piecedomain.Service
	extraSvc     extradomain.Service
	reportingSvc reportingdomain.Service
	quoteSvc     quotedomain.Service
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	DB    *gorm.DB
	GenID *snowflake.Node

	FilamentSvc  filamentdomain.Service
	JobSvc       jobdomain.Service
	PieceSvc     piecedomain.Service
	ExtraSvc     extradomain.Service
	ReportingSvc reportingdomain.Service
	QuoteSvc     quotedomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine: p.Gin,
		cfg:    p.Cfg,
		db:     p.DB,
		genID:  p.GenID,

		filamentSvc:  p.FilamentSvc,
		jobSvc:       p.JobSvc,
		pieceSvc:     p.PieceSvc,
		extraSvc:     p.ExtraSvc,
		reportingSvc: p.ReportingSvc,
		quoteSvc:     p.QuoteSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Filaments --------
	api.GET("/filaments", s.ListFilaments)
	api.POST("/filaments", s.CreateFilament)
	api.GET("/filaments/:id", s.GetFilamentByID)
	api.PATCH("/filaments/:id", s.UpdateFilament)
	api.DELETE("/filaments/:id", s.DeleteFilament)
	api.POST("/filaments/:id/restock", s.RestockFilament)

	// -------- Jobs --------
	api.GET("/jobs", s.ListJobs)
	api.POST("/jobs", s.CreateJob)
	api.GET("/jobs/:id", s.GetJobByID)
	api.PATCH("/jobs/:id", s.UpdateJob)
	api.DELETE("/jobs/:id", s.DeleteJob)
	api.POST("/jobs/:id/approve", s.ApproveJob)
	api.POST("/jobs/:id/deliver", s.DeliverJob)
	api.POST("/jobs/:id/cancel", s.CancelJob)
	api.POST("/jobs/:id/payment-state", s.SetJobPaymentState)
	api.GET("/jobs/:id/pieces", s.ListJobPieces)
	api.GET("/jobs/:id/extras", s.ListJobExtras)
	api.GET("/jobs/:id/totals", s.GetJobTotals)
	api.GET("/jobs/:id/quote.pdf", s.RenderJobQuote)

	// -------- Pieces --------
	api.POST("/pieces", s.CreatePiece)
	api.GET("/pieces/:id", s.GetPieceByID)
	api.PATCH("/pieces/:id", s.UpdatePiece)
	api.DELETE("/pieces/:id", s.DeletePiece)
	api.POST("/pieces/:id/state", s.SetPieceProductionState)

	// -------- Extras --------
	api.GET("/extras/catalog", s.ListExtraCatalog)
	api.POST("/extras/catalog", s.CreateExtraCatalogEntry)
	api.GET("/extras/catalog/:id", s.GetExtraCatalogEntry)
	api.PATCH("/extras/catalog/:id", s.UpdateExtraCatalogEntry)
	api.DELETE("/extras/catalog/:id", s.DeleteExtraCatalogEntry)
	api.POST("/extras", s.ApplyExtra)
	api.PATCH("/extras/:id", s.UpdateAppliedExtra)
	api.DELETE("/extras/:id", s.RemoveExtra)

	// -------- Reporting --------
	api.GET("/reports/period", s.GetPeriodTotals)
}
