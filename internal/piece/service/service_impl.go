package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/printforge/printforge/internal/clock"
	"github.com/printforge/printforge/internal/config"
	"github.com/printforge/printforge/internal/costing"
	filamentdomain "github.com/printforge/printforge/internal/filament/domain"
	jobdomain "github.com/printforge/printforge/internal/job/domain"
	"github.com/printforge/printforge/internal/metrics"
	piecedomain "github.com/printforge/printforge/internal/piece/domain"
	"github.com/printforge/printforge/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Cfg       config.Config
	Ledger    filamentdomain.Ledger
	Evaluator jobdomain.Evaluator
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	rates     config.Rates
	ledger    filamentdomain.Ledger
	evaluator jobdomain.Evaluator
	obs       *metrics.Metrics

	repo     repository.Repository[piecedomain.Piece]
	consrepo repository.Repository[piecedomain.ConsumptionRecord]
	jobrepo  repository.Repository[jobdomain.Job]
}

func NewService(p ServiceParam) piecedomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("piece.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		rates:     p.Cfg.Rates,
		ledger:    p.Ledger,
		evaluator: p.Evaluator,
		obs:       p.Metrics,

		repo:     repository.ProvideStore[piecedomain.Piece](p.DB),
		consrepo: repository.ProvideStore[piecedomain.ConsumptionRecord](p.DB),
		jobrepo:  repository.ProvideStore[jobdomain.Job](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req piecedomain.CreatePieceRequest) (piecedomain.Piece, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return piecedomain.Piece{}, piecedomain.ErrInvalidName
	}
	if req.Quantity < 1 {
		return piecedomain.Piece{}, piecedomain.ErrInvalidQuantity
	}
	if req.GramsPerUnit.IsNegative() {
		return piecedomain.Piece{}, piecedomain.ErrInvalidGrams
	}
	if req.BasePricePerUnit.IsNegative() {
		return piecedomain.Piece{}, piecedomain.ErrInvalidBasePrice
	}

	jobID, err := snowflake.ParseString(strings.TrimSpace(req.JobID))
	if err != nil || jobID == 0 {
		return piecedomain.Piece{}, piecedomain.ErrInvalidJob
	}
	job, err := s.jobrepo.FindOne(ctx, &jobdomain.Job{ID: jobID})
	if err != nil {
		return piecedomain.Piece{}, err
	}
	if job == nil {
		return piecedomain.Piece{}, piecedomain.ErrInvalidJob
	}

	filamentID, err := snowflake.ParseString(strings.TrimSpace(req.FilamentID))
	if err != nil || filamentID == 0 {
		return piecedomain.Piece{}, piecedomain.ErrInvalidFilament
	}

	pricePerGram, err := s.ledger.PricePerGram(ctx, filamentID)
	if err != nil {
		return piecedomain.Piece{}, err
	}

	printRate := s.rates.PrintHourRate
	if req.PrintHourRate != nil {
		printRate = *req.PrintHourRate
	}
	modelingRate := s.rates.ModelingHourRate
	if req.ModelingHourRate != nil {
		modelingRate = *req.ModelingHourRate
	}

	breakdown, err := costing.Compute(costing.Inputs{
		GramsPerUnit:      req.GramsPerUnit,
		PricePerGram:      pricePerGram,
		PrintHoursPerUnit: req.PrintHoursPerUnit,
		PrintHourRate:     printRate,
		ModelingHours:     req.ModelingHours,
		ModelingHourRate:  modelingRate,
		UnitCount:         req.Quantity,
		BasePricePerUnit:  req.BasePricePerUnit,
	})
	if err != nil {
		return piecedomain.Piece{}, err
	}

	now := s.clock.Now()
	record := piecedomain.Piece{
		ID:          s.genID.Generate(),
		JobID:       jobID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Quantity:    req.Quantity,

		FilamentID:   filamentID,
		GramsPerUnit: req.GramsPerUnit,
		PricePerGram: pricePerGram,
		MaterialCost: breakdown.MaterialCost,

		PrintHoursPerUnit: req.PrintHoursPerUnit,
		PrintHourRate:     printRate,
		ModelingHours:     req.ModelingHours,
		ModelingHourRate:  modelingRate,

		BasePricePerUnit:      req.BasePricePerUnit,
		AmortizedModelingCost: breakdown.AmortizedModelingCost,
		UnitProductionCost:    breakdown.UnitProductionCost,
		UnitFinalPrice:        breakdown.UnitFinalPrice,
		UnitMargin:            breakdown.UnitMargin,
		LineRevenue:           breakdown.LineRevenue,
		LineCost:              breakdown.LineCost,

		ProductionState: piecedomain.ProductionStateNotPrinted,

		CreatedAt: now,
		UpdatedAt: now,
	}

	totalGrams := record.TotalGrams()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTrx(tx).Create(ctx, &record); err != nil {
			return err
		}
		return s.consrepo.WithTrx(tx).Create(ctx, &piecedomain.ConsumptionRecord{
			ID:                s.genID.Generate(),
			PieceID:           record.ID,
			FilamentID:        filamentID,
			TotalGrams:        totalGrams,
			CostAtConsumption: totalGrams.Mul(pricePerGram),
			CreatedAt:         now,
		})
	})
	if err != nil {
		return piecedomain.Piece{}, err
	}

	if err := s.ledger.ApplyDelta(ctx, filamentID, totalGrams.Neg()); err != nil {
		return piecedomain.Piece{}, err
	}

	return record, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (piecedomain.Piece, error) {
	record, err := s.getByID(ctx, id)
	if err != nil {
		return piecedomain.Piece{}, err
	}
	return *record, nil
}

func (s *Service) ListByJob(ctx context.Context, jobID string) ([]piecedomain.Piece, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(jobID))
	if err != nil || parsed == 0 {
		return nil, piecedomain.ErrInvalidJob
	}

	records, err := s.repo.Find(ctx, &piecedomain.Piece{JobID: parsed})
	if err != nil {
		return nil, err
	}

	result := make([]piecedomain.Piece, 0, len(records))
	for _, record := range records {
		result = append(result, *record)
	}
	return result, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	record, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}

	// Restore the full held mass before the piece disappears. A filament that
	// was deleted out from under the piece has no balance left to restore;
	// that is logged, not fatal, so the piece does not become undeletable.
	if err := s.ledger.ApplyDelta(ctx, record.FilamentID, record.TotalGrams()); err != nil {
		if !errors.Is(err, filamentdomain.ErrNotFound) {
			return err
		}
		s.log.Warn("skipping mass restoration for missing filament",
			zap.String("piece_id", record.ID.String()),
			zap.String("filament_id", record.FilamentID.String()),
		)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.consrepo.WithTrx(tx).DeleteWhere(ctx, &piecedomain.ConsumptionRecord{PieceID: record.ID}); err != nil {
			return err
		}
		return s.repo.WithTrx(tx).Delete(ctx, record.ID.String())
	})
}

func (s *Service) SetProductionState(ctx context.Context, id string, state piecedomain.ProductionState) (piecedomain.Piece, error) {
	if !state.Valid() {
		return piecedomain.Piece{}, piecedomain.ErrInvalidProduction
	}

	record, err := s.getByID(ctx, id)
	if err != nil {
		return piecedomain.Piece{}, err
	}

	if record.ProductionState != state {
		updates := map[string]any{
			"production_state": state,
			"updated_at":       s.clock.Now(),
		}
		if err := s.repo.Update(ctx, record.ID.String(), updates); err != nil {
			return piecedomain.Piece{}, err
		}
		record.ProductionState = state

		if err := s.evaluator.EvaluateAfterPieceChange(ctx, record.JobID); err != nil {
			return piecedomain.Piece{}, err
		}
	}

	return *record, nil
}

func (s *Service) getByID(ctx context.Context, id string) (*piecedomain.Piece, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return nil, piecedomain.ErrInvalidID
	}

	record, err := s.repo.FindOne(ctx, &piecedomain.Piece{ID: parsed})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, piecedomain.ErrNotFound
	}
	return record, nil
}

func decimalOr(v *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if v != nil {
		return *v
	}
	return fallback
}
