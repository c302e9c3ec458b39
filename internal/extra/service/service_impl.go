package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/printforge/printforge/internal/clock"
	extradomain "github.com/printforge/printforge/internal/extra/domain"
	jobdomain "github.com/printforge/printforge/internal/job/domain"
	piecedomain "github.com/printforge/printforge/internal/piece/domain"
	"github.com/printforge/printforge/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	catalogrepo repository.Repository[extradomain.ExtraCatalogEntry]
	appliedrepo repository.Repository[extradomain.ExtraApplied]
	jobrepo     repository.Repository[jobdomain.Job]
	piecerepo   repository.Repository[piecedomain.Piece]
}

func NewService(p ServiceParam) extradomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("extra.service"),
		genID: p.GenID,
		clock: p.Clock,

		catalogrepo: repository.ProvideStore[extradomain.ExtraCatalogEntry](p.DB),
		appliedrepo: repository.ProvideStore[extradomain.ExtraApplied](p.DB),
		jobrepo:     repository.ProvideStore[jobdomain.Job](p.DB),
		piecerepo:   repository.ProvideStore[piecedomain.Piece](p.DB),
	}
}

func (s *Service) CreateCatalogEntry(ctx context.Context, req extradomain.CreateCatalogEntryRequest) (extradomain.ExtraCatalogEntry, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return extradomain.ExtraCatalogEntry{}, extradomain.ErrInvalidName
	}
	if req.UnitPrice.IsNegative() {
		return extradomain.ExtraCatalogEntry{}, extradomain.ErrInvalidUnitPrice
	}
	scope := req.Scope
	if scope == "" {
		scope = extradomain.ScopeJob
	}
	if !scope.Valid() {
		return extradomain.ExtraCatalogEntry{}, extradomain.ErrInvalidScope
	}

	now := s.clock.Now()
	record := extradomain.ExtraCatalogEntry{
		ID:        s.genID.Generate(),
		Name:      name,
		UnitPrice: req.UnitPrice,
		Scope:     scope,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.catalogrepo.Create(ctx, &record); err != nil {
		return extradomain.ExtraCatalogEntry{}, err
	}
	return record, nil
}

func (s *Service) UpdateCatalogEntry(ctx context.Context, id string, req extradomain.UpdateCatalogEntryRequest) (extradomain.ExtraCatalogEntry, error) {
	existing, err := s.getCatalogEntry(ctx, id)
	if err != nil {
		return extradomain.ExtraCatalogEntry{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return extradomain.ExtraCatalogEntry{}, extradomain.ErrInvalidName
		}
		existing.Name = name
	}
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return extradomain.ExtraCatalogEntry{}, extradomain.ErrInvalidUnitPrice
		}
		existing.UnitPrice = *req.UnitPrice
	}
	if req.Scope != nil {
		if !req.Scope.Valid() {
			return extradomain.ExtraCatalogEntry{}, extradomain.ErrInvalidScope
		}
		existing.Scope = *req.Scope
	}
	existing.UpdatedAt = s.clock.Now()

	updates := map[string]any{
		"name":       existing.Name,
		"unit_price": existing.UnitPrice,
		"scope":      existing.Scope,
		"updated_at": existing.UpdatedAt,
	}
	if err := s.catalogrepo.Update(ctx, existing.ID.String(), updates); err != nil {
		return extradomain.ExtraCatalogEntry{}, err
	}
	return *existing, nil
}

func (s *Service) ListCatalog(ctx context.Context) ([]extradomain.ExtraCatalogEntry, error) {
	records, err := s.catalogrepo.Find(ctx, &extradomain.ExtraCatalogEntry{})
	if err != nil {
		return nil, err
	}

	result := make([]extradomain.ExtraCatalogEntry, 0, len(records))
	for _, record := range records {
		result = append(result, *record)
	}
	return result, nil
}

func (s *Service) GetCatalogEntry(ctx context.Context, id string) (extradomain.ExtraCatalogEntry, error) {
	record, err := s.getCatalogEntry(ctx, id)
	if err != nil {
		return extradomain.ExtraCatalogEntry{}, err
	}
	return *record, nil
}

func (s *Service) DeleteCatalogEntry(ctx context.Context, id string) error {
	record, err := s.getCatalogEntry(ctx, id)
	if err != nil {
		return err
	}
	return s.catalogrepo.Delete(ctx, record.ID.String())
}

// Apply attaches a catalog extra to a job, snapshotting its current unit
// price so later catalog edits never change an existing quote.
func (s *Service) Apply(ctx context.Context, req extradomain.ApplyExtraRequest) (extradomain.ExtraApplied, error) {
	if req.Quantity < 1 {
		return extradomain.ExtraApplied{}, extradomain.ErrInvalidQuantity
	}

	entry, err := s.getCatalogEntry(ctx, req.CatalogEntryID)
	if err != nil {
		return extradomain.ExtraApplied{}, err
	}

	jobID, err := snowflake.ParseString(strings.TrimSpace(req.JobID))
	if err != nil || jobID == 0 {
		return extradomain.ExtraApplied{}, extradomain.ErrInvalidJob
	}
	job, err := s.jobrepo.FindOne(ctx, &jobdomain.Job{ID: jobID})
	if err != nil {
		return extradomain.ExtraApplied{}, err
	}
	if job == nil {
		return extradomain.ExtraApplied{}, extradomain.ErrInvalidJob
	}

	var pieceID *snowflake.ID
	if entry.Scope == extradomain.ScopePiece {
		if strings.TrimSpace(req.PieceID) == "" {
			return extradomain.ExtraApplied{}, extradomain.ErrPieceScopeRequired
		}
	}
	if strings.TrimSpace(req.PieceID) != "" {
		parsed, err := snowflake.ParseString(strings.TrimSpace(req.PieceID))
		if err != nil || parsed == 0 {
			return extradomain.ExtraApplied{}, extradomain.ErrInvalidPiece
		}
		piece, err := s.piecerepo.FindOne(ctx, &piecedomain.Piece{ID: parsed})
		if err != nil {
			return extradomain.ExtraApplied{}, err
		}
		if piece == nil || piece.JobID != jobID {
			return extradomain.ExtraApplied{}, extradomain.ErrInvalidPiece
		}
		pieceID = &parsed
	}

	record := extradomain.ExtraApplied{
		ID:              s.genID.Generate(),
		JobID:           jobID,
		PieceID:         pieceID,
		CatalogEntryID:  entry.ID,
		Quantity:        req.Quantity,
		UnitPrice:       entry.UnitPrice,
		Subtotal:        entry.UnitPrice.Mul(decimal.NewFromInt(req.Quantity)),
		CountsAsRevenue: req.CountsAsRevenue,
		CountsAsCost:    req.CountsAsCost,
		CreatedAt:       s.clock.Now(),
	}

	if err := s.appliedrepo.Create(ctx, &record); err != nil {
		return extradomain.ExtraApplied{}, err
	}
	return record, nil
}

// UpdateApplied changes the quantity or accounting flags of an applied extra.
// The unit price snapshot taken at apply time is never revised here.
func (s *Service) UpdateApplied(ctx context.Context, id string, req extradomain.UpdateAppliedRequest) (extradomain.ExtraApplied, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return extradomain.ExtraApplied{}, extradomain.ErrInvalidID
	}

	existing, err := s.appliedrepo.FindOne(ctx, &extradomain.ExtraApplied{ID: parsed})
	if err != nil {
		return extradomain.ExtraApplied{}, err
	}
	if existing == nil {
		return extradomain.ExtraApplied{}, extradomain.ErrAppliedNotFound
	}

	if req.Quantity != nil {
		if *req.Quantity < 1 {
			return extradomain.ExtraApplied{}, extradomain.ErrInvalidQuantity
		}
		existing.Quantity = *req.Quantity
		existing.Subtotal = existing.UnitPrice.Mul(decimal.NewFromInt(existing.Quantity))
	}
	if req.CountsAsRevenue != nil {
		existing.CountsAsRevenue = *req.CountsAsRevenue
	}
	if req.CountsAsCost != nil {
		existing.CountsAsCost = *req.CountsAsCost
	}

	updates := map[string]any{
		"quantity":          existing.Quantity,
		"subtotal":          existing.Subtotal,
		"counts_as_revenue": existing.CountsAsRevenue,
		"counts_as_cost":    existing.CountsAsCost,
	}
	if err := s.appliedrepo.Update(ctx, existing.ID.String(), updates); err != nil {
		return extradomain.ExtraApplied{}, err
	}
	return *existing, nil
}

func (s *Service) ListByJob(ctx context.Context, jobID string) ([]extradomain.ExtraApplied, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(jobID))
	if err != nil || parsed == 0 {
		return nil, extradomain.ErrInvalidJob
	}

	records, err := s.appliedrepo.Find(ctx, &extradomain.ExtraApplied{JobID: parsed})
	if err != nil {
		return nil, err
	}

	result := make([]extradomain.ExtraApplied, 0, len(records))
	for _, record := range records {
		result = append(result, *record)
	}
	return result, nil
}

func (s *Service) Remove(ctx context.Context, id string) error {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return extradomain.ErrInvalidID
	}

	record, err := s.appliedrepo.FindOne(ctx, &extradomain.ExtraApplied{ID: parsed})
	if err != nil {
		return err
	}
	if record == nil {
		return extradomain.ErrAppliedNotFound
	}

	return s.appliedrepo.Delete(ctx, record.ID.String())
}

func (s *Service) getCatalogEntry(ctx context.Context, id string) (*extradomain.ExtraCatalogEntry, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return nil, extradomain.ErrInvalidID
	}

	record, err := s.catalogrepo.FindOne(ctx, &extradomain.ExtraCatalogEntry{ID: parsed})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, extradomain.ErrCatalogNotFound
	}
	return record, nil
}
