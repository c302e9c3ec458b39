package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/printforge/printforge/internal/clock"
	filamentdomain "github.com/printforge/printforge/internal/filament/domain"
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

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	obs   *metrics.Metrics

	repo      repository.Repository[filamentdomain.Filament]
	piecerepo repository.Repository[piecedomain.Piece]
}

func New(p ServiceParam) *Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("filament.service"),
		genID: p.GenID,
		clock: p.Clock,
		obs:   p.Metrics,

		repo:      repository.ProvideStore[filamentdomain.Filament](p.DB),
		piecerepo: repository.ProvideStore[piecedomain.Piece](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req filamentdomain.CreateFilamentRequest) (filamentdomain.Filament, error) {
	material := strings.TrimSpace(req.Material)
	if material == "" {
		return filamentdomain.Filament{}, filamentdomain.ErrInvalidMaterial
	}
	if req.CoilPrice.IsNegative() {
		return filamentdomain.Filament{}, filamentdomain.ErrInvalidCoilPrice
	}
	if !req.CoilGrams.IsPositive() {
		return filamentdomain.Filament{}, filamentdomain.ErrInvalidCoilGrams
	}

	now := s.clock.Now()
	record := filamentdomain.Filament{
		ID:             s.genID.Generate(),
		Material:       material,
		Color:          strings.TrimSpace(req.Color),
		CoilPrice:      req.CoilPrice,
		CoilGrams:      req.CoilGrams,
		PricePerGram:   req.CoilPrice.Div(req.CoilGrams),
		AvailableGrams: req.AvailableGrams,
		Metadata:       req.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, &record); err != nil {
		return filamentdomain.Filament{}, err
	}

	return record, nil
}

func (s *Service) Update(ctx context.Context, id string, req filamentdomain.UpdateFilamentRequest) (filamentdomain.Filament, error) {
	existing, err := s.getByID(ctx, id)
	if err != nil {
		return filamentdomain.Filament{}, err
	}

	if req.Material != nil {
		material := strings.TrimSpace(*req.Material)
		if material == "" {
			return filamentdomain.Filament{}, filamentdomain.ErrInvalidMaterial
		}
		existing.Material = material
	}
	if req.Color != nil {
		existing.Color = strings.TrimSpace(*req.Color)
	}
	if req.CoilPrice != nil {
		if req.CoilPrice.IsNegative() {
			return filamentdomain.Filament{}, filamentdomain.ErrInvalidCoilPrice
		}
		existing.CoilPrice = *req.CoilPrice
	}
	if req.CoilGrams != nil {
		if !req.CoilGrams.IsPositive() {
			return filamentdomain.Filament{}, filamentdomain.ErrInvalidCoilGrams
		}
		existing.CoilGrams = *req.CoilGrams
	}

	// Price per gram tracks the last purchase. Pieces saved earlier keep their
	// own snapshot, so this never rewrites historical quotes.
	existing.PricePerGram = existing.CoilPrice.Div(existing.CoilGrams)
	existing.UpdatedAt = s.clock.Now()

	updates := map[string]any{
		"material":       existing.Material,
		"color":          existing.Color,
		"coil_price":     existing.CoilPrice,
		"coil_grams":     existing.CoilGrams,
		"price_per_gram": existing.PricePerGram,
		"updated_at":     existing.UpdatedAt,
	}
	if err := s.repo.Update(ctx, existing.ID.String(), updates); err != nil {
		return filamentdomain.Filament{}, err
	}

	return *existing, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (filamentdomain.Filament, error) {
	record, err := s.getByID(ctx, id)
	if err != nil {
		return filamentdomain.Filament{}, err
	}
	return *record, nil
}

func (s *Service) List(ctx context.Context, req filamentdomain.ListFilamentRequest) ([]filamentdomain.Filament, error) {
	filter := &filamentdomain.Filament{
		Material: strings.TrimSpace(req.Material),
		Color:    strings.TrimSpace(req.Color),
	}

	records, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := make([]filamentdomain.Filament, 0, len(records))
	for _, record := range records {
		result = append(result, *record)
	}
	return result, nil
}

func (s *Service) Restock(ctx context.Context, id string, grams decimal.Decimal) (filamentdomain.Filament, error) {
	if !grams.IsPositive() {
		return filamentdomain.Filament{}, filamentdomain.ErrInvalidRestock
	}

	filamentID, err := parseID(id)
	if err != nil {
		return filamentdomain.Filament{}, err
	}

	if err := s.ApplyDelta(ctx, filamentID, grams); err != nil {
		return filamentdomain.Filament{}, err
	}

	return s.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	record, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}

	live, err := s.piecerepo.Count(ctx, &piecedomain.Piece{FilamentID: record.ID})
	if err != nil {
		return err
	}
	if live > 0 {
		return filamentdomain.ErrStillReferenced
	}

	return s.repo.Delete(ctx, record.ID.String())
}

func (s *Service) getByID(ctx context.Context, id string) (*filamentdomain.Filament, error) {
	filamentID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.FindOne(ctx, &filamentdomain.Filament{ID: filamentID})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, filamentdomain.ErrNotFound
	}
	return record, nil
}

func parseID(id string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return 0, filamentdomain.ErrInvalidID
	}
	return parsed, nil
}
