package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	extradomain "github.com/printforge/printforge/internal/extra/domain"
	jobdomain "github.com/printforge/printforge/internal/job/domain"
	piecedomain "github.com/printforge/printforge/internal/piece/domain"
	"github.com/printforge/printforge/internal/reporting/domain"
	"github.com/printforge/printforge/pkg/db/option"
	"github.com/printforge/printforge/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	log *zap.Logger

	jobrepo   repository.Repository[jobdomain.Job]
	piecerepo repository.Repository[piecedomain.Piece]
	extrarepo repository.Repository[extradomain.ExtraApplied]
}

func New(p ServiceParam) *Service {
	return &Service{
		log:       p.Log.Named("reporting.service"),
		jobrepo:   repository.ProvideStore[jobdomain.Job](p.DB),
		piecerepo: repository.ProvideStore[piecedomain.Piece](p.DB),
		extrarepo: repository.ProvideStore[extradomain.ExtraApplied](p.DB),
	}
}

func (s *Service) JobTotals(ctx context.Context, jobID string) (domain.JobTotals, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(jobID))
	if err != nil || parsed == 0 {
		return domain.JobTotals{}, domain.ErrInvalidJob
	}

	job, err := s.jobrepo.FindOne(ctx, &jobdomain.Job{ID: parsed})
	if err != nil {
		return domain.JobTotals{}, err
	}
	if job == nil {
		return domain.JobTotals{}, jobdomain.ErrNotFound
	}

	return s.totalsFor(ctx, job)
}

func (s *Service) PeriodTotals(ctx context.Context, from, to time.Time) (domain.PeriodTotals, error) {
	if !to.After(from) {
		return domain.PeriodTotals{}, domain.ErrInvalidPeriod
	}

	jobs, err := s.jobrepo.Find(ctx, &jobdomain.Job{},
		option.ApplyOperator(option.Condition{Field: "created_at", Operator: option.GTE, Value: from}),
		option.ApplyOperator(option.Condition{Field: "created_at", Operator: option.LT, Value: to}),
	)
	if err != nil {
		return domain.PeriodTotals{}, err
	}

	out := domain.PeriodTotals{
		From:         from,
		To:           to,
		JobCount:     len(jobs),
		GrossRevenue: decimal.Zero,
		GrossCost:    decimal.Zero,
		Margin:       decimal.Zero,
		ByStatus:     map[string]int{},
	}

	for _, job := range jobs {
		totals, err := s.totalsFor(ctx, job)
		if err != nil {
			return domain.PeriodTotals{}, err
		}
		out.GrossRevenue = out.GrossRevenue.Add(totals.GrossRevenue)
		out.GrossCost = out.GrossCost.Add(totals.GrossCost)
		out.ByStatus[string(job.Status)]++
	}
	out.Margin = out.GrossRevenue.Sub(out.GrossCost)

	return out, nil
}

// totalsFor folds a job's pieces and extras into one rollup. Derived money
// fields are read as persisted; nothing here recomputes a quote.
func (s *Service) totalsFor(ctx context.Context, job *jobdomain.Job) (domain.JobTotals, error) {
	pieces, err := s.piecerepo.Find(ctx, &piecedomain.Piece{JobID: job.ID})
	if err != nil {
		return domain.JobTotals{}, err
	}
	extras, err := s.extrarepo.Find(ctx, &extradomain.ExtraApplied{JobID: job.ID})
	if err != nil {
		return domain.JobTotals{}, err
	}

	totals := domain.JobTotals{
		JobID:         job.ID,
		Status:        string(job.Status),
		PiecesRevenue: decimal.Zero,
		PiecesCost:    decimal.Zero,
		ExtrasRevenue: decimal.Zero,
		ExtrasCost:    decimal.Zero,
	}

	for _, piece := range pieces {
		totals.PiecesRevenue = totals.PiecesRevenue.Add(piece.LineRevenue)
		totals.PiecesCost = totals.PiecesCost.Add(piece.LineCost)
	}
	for _, extra := range extras {
		if extra.CountsAsRevenue {
			totals.ExtrasRevenue = totals.ExtrasRevenue.Add(extra.Subtotal)
		}
		if extra.CountsAsCost {
			totals.ExtrasCost = totals.ExtrasCost.Add(extra.Subtotal)
		}
	}

	totals.GrossRevenue = totals.PiecesRevenue.Add(totals.ExtrasRevenue)
	totals.GrossCost = totals.PiecesCost.Add(totals.ExtrasCost)

	// A cancelled job bills whatever was actually collected, not the quoted
	// sum. Cost already incurred stays on the books.
	if job.Status.Cancelled() {
		totals.GrossRevenue = job.CollectedAmount
		totals.RevenueOverridden = true
	}

	totals.Margin = totals.GrossRevenue.Sub(totals.GrossCost)

	return totals, nil
}
