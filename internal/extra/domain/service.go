package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type CreateCatalogEntryRequest struct {
	Name      string
	UnitPrice decimal.Decimal
	Scope     Scope
}

type UpdateCatalogEntryRequest struct {
	Name      *string
	UnitPrice *decimal.Decimal
	Scope     *Scope
}

type UpdateAppliedRequest struct {
	Quantity        *int64
	CountsAsRevenue *bool
	CountsAsCost    *bool
}

type ApplyExtraRequest struct {
	JobID           string
	PieceID         string
	CatalogEntryID  string
	Quantity        int64
	CountsAsRevenue bool
	CountsAsCost    bool
}

// Service manages the extras catalog and extras applied to jobs.
type Service interface {
	CreateCatalogEntry(ctx context.Context, req CreateCatalogEntryRequest) (ExtraCatalogEntry, error)
	UpdateCatalogEntry(ctx context.Context, id string, req UpdateCatalogEntryRequest) (ExtraCatalogEntry, error)
	ListCatalog(ctx context.Context) ([]ExtraCatalogEntry, error)
	GetCatalogEntry(ctx context.Context, id string) (ExtraCatalogEntry, error)
	DeleteCatalogEntry(ctx context.Context, id string) error

	Apply(ctx context.Context, req ApplyExtraRequest) (ExtraApplied, error)
	UpdateApplied(ctx context.Context, id string, req UpdateAppliedRequest) (ExtraApplied, error)
	ListByJob(ctx context.Context, jobID string) ([]ExtraApplied, error)
	Remove(ctx context.Context, id string) error
}

var (
	ErrCatalogNotFound    = errors.New("extra_catalog_entry_not_found")
	ErrAppliedNotFound    = errors.New("applied_extra_not_found")
	ErrInvalidID          = errors.New("invalid_extra_id")
	ErrInvalidName        = errors.New("invalid_extra_name")
	ErrInvalidUnitPrice   = errors.New("invalid_extra_unit_price")
	ErrInvalidScope       = errors.New("invalid_extra_scope")
	ErrInvalidQuantity    = errors.New("invalid_extra_quantity")
	ErrInvalidJob         = errors.New("invalid_job_reference")
	ErrInvalidPiece       = errors.New("invalid_piece_reference")
	ErrPieceScopeRequired = errors.New("piece_reference_required")
)
