package service

import (
	"context"
	"io"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/printforge/printforge/internal/cache"
	"github.com/printforge/printforge/internal/clock"
	"github.com/printforge/printforge/internal/config"
	extradomain "github.com/printforge/printforge/internal/extra/domain"
	filamentdomain "github.com/printforge/printforge/internal/filament/domain"
	jobdomain "github.com/printforge/printforge/internal/job/domain"
	piecedomain "github.com/printforge/printforge/internal/piece/domain"
	"github.com/printforge/printforge/internal/providers/pdf"
	"github.com/printforge/printforge/internal/quote/domain"
	reportingdomain "github.com/printforge/printforge/internal/reporting/domain"
	"github.com/printforge/printforge/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "Jan 2, 2006"

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Cfg       config.Config
	Names     cache.NameResolverCache
	PDF       pdf.Provider
	Reporting reportingdomain.Service
}

type Service struct {
	log       *zap.Logger
	clock     clock.Clock
	cfg       config.Config
	names     cache.NameResolverCache
	pdf       pdf.Provider
	reporting reportingdomain.Service

	jobrepo      repository.Repository[jobdomain.Job]
	piecerepo    repository.Repository[piecedomain.Piece]
	extrarepo    repository.Repository[extradomain.ExtraApplied]
	catalogrepo  repository.Repository[extradomain.ExtraCatalogEntry]
	filamentrepo repository.Repository[filamentdomain.Filament]
}

func New(p ServiceParam) *Service {
	return &Service{
		log:       p.Log.Named("quote.service"),
		clock:     p.Clock,
		cfg:       p.Cfg,
		names:     p.Names,
		pdf:       p.PDF,
		reporting: p.Reporting,

		jobrepo:      repository.ProvideStore[jobdomain.Job](p.DB),
		piecerepo:    repository.ProvideStore[piecedomain.Piece](p.DB),
		extrarepo:    repository.ProvideStore[extradomain.ExtraApplied](p.DB),
		catalogrepo:  repository.ProvideStore[extradomain.ExtraCatalogEntry](p.DB),
		filamentrepo: repository.ProvideStore[filamentdomain.Filament](p.DB),
	}
}

// Snapshot gathers everything needed to render one job's quote. All money is
// formatted here, at the presentation edge; stored values stay exact.
func (s *Service) Snapshot(ctx context.Context, jobID string) (pdf.QuoteData, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(jobID))
	if err != nil || parsed == 0 {
		return pdf.QuoteData{}, domain.ErrInvalidID
	}

	job, err := s.jobrepo.FindOne(ctx, &jobdomain.Job{ID: parsed})
	if err != nil {
		return pdf.QuoteData{}, err
	}
	if job == nil {
		return pdf.QuoteData{}, jobdomain.ErrNotFound
	}

	pieces, err := s.piecerepo.Find(ctx, &piecedomain.Piece{JobID: job.ID})
	if err != nil {
		return pdf.QuoteData{}, err
	}
	extras, err := s.extrarepo.Find(ctx, &extradomain.ExtraApplied{JobID: job.ID})
	if err != nil {
		return pdf.QuoteData{}, err
	}
	totals, err := s.reporting.JobTotals(ctx, jobID)
	if err != nil {
		return pdf.QuoteData{}, err
	}

	data := pdf.QuoteData{
		ShopName:  s.cfg.ShopName,
		ShopEmail: s.cfg.ShopEmail,

		QuoteNumber: job.ID.String(),
		IssueDate:   s.clock.Now().Format(dateLayout),

		ClientName:  job.ClientName,
		ClientEmail: job.ClientEmail,
		JobTitle:    job.Title,
		JobStatus:   string(job.Status),

		PiecesSubtotal: money(totals.PiecesRevenue),
		ExtrasSubtotal: money(totals.ExtrasRevenue),
		Total:          money(totals.GrossRevenue),
	}
	if job.DueAt != nil {
		data.DueDate = job.DueAt.Format(dateLayout)
	}
	if totals.RevenueOverridden {
		data.Notes = "This job was cancelled; the total reflects the amount collected."
	}

	for _, piece := range pieces {
		data.Pieces = append(data.Pieces, pdf.QuotePiece{
			Name:      piece.Name,
			Material:  s.filamentName(ctx, piece.FilamentID),
			Qty:       piece.Quantity,
			UnitPrice: money(piece.UnitFinalPrice),
			Amount:    money(piece.LineRevenue),
		})
	}
	for _, extra := range extras {
		if !extra.CountsAsRevenue {
			continue
		}
		data.Extras = append(data.Extras, pdf.QuoteExtra{
			Name:      s.extraName(ctx, extra.CatalogEntryID),
			Qty:       extra.Quantity,
			UnitPrice: money(extra.UnitPrice),
			Amount:    money(extra.Subtotal),
		})
	}

	return data, nil
}

func (s *Service) RenderQuote(ctx context.Context, jobID string) (io.Reader, error) {
	data, err := s.Snapshot(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return s.pdf.GenerateQuote(ctx, data)
}

func (s *Service) filamentName(ctx context.Context, id snowflake.ID) string {
	key := id.String()
	if name, ok := s.names.GetFilamentName(key); ok {
		return name
	}
	record, err := s.filamentrepo.FindOne(ctx, &filamentdomain.Filament{ID: id})
	if err != nil || record == nil {
		s.log.Warn("unresolved filament name", zap.String("filament_id", key))
		return "unknown"
	}
	name := record.DisplayName()
	s.names.SetFilamentName(key, name)
	return name
}

func (s *Service) extraName(ctx context.Context, id snowflake.ID) string {
	key := id.String()
	if name, ok := s.names.GetExtraName(key); ok {
		return name
	}
	record, err := s.catalogrepo.FindOne(ctx, &extradomain.ExtraCatalogEntry{ID: id})
	if err != nil || record == nil {
		s.log.Warn("unresolved extra name", zap.String("catalog_entry_id", key))
		return "unknown"
	}
	s.names.SetExtraName(key, record.Name)
	return record.Name
}

func money(v decimal.Decimal) string {
	return "$" + v.StringFixed(2)
}
