package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateFilamentRequest struct {
	Material       string
	Color          string
	CoilPrice      decimal.Decimal
	CoilGrams      decimal.Decimal
	AvailableGrams decimal.Decimal
	Metadata       map[string]any
}

type UpdateFilamentRequest struct {
	Material  *string
	Color     *string
	CoilPrice *decimal.Decimal
	CoilGrams *decimal.Decimal
}

type ListFilamentRequest struct {
	Material string
	Color    string
}

// Service manages filament records.
type Service interface {
	Create(ctx context.Context, req CreateFilamentRequest) (Filament, error)
	Update(ctx context.Context, id string, req UpdateFilamentRequest) (Filament, error)
	GetByID(ctx context.Context, id string) (Filament, error)
	List(ctx context.Context, req ListFilamentRequest) ([]Filament, error)
	Restock(ctx context.Context, id string, grams decimal.Decimal) (Filament, error)
	Delete(ctx context.Context, id string) error
}

// Ledger applies signed mass deltas to a filament's available balance. A
// single ApplyDelta call either fully applies or fully does not; it never
// blocks on a negative resulting balance.
type Ledger interface {
	ApplyDelta(ctx context.Context, filamentID snowflake.ID, grams decimal.Decimal) error
	PricePerGram(ctx context.Context, filamentID snowflake.ID) (decimal.Decimal, error)
	AvailableGrams(ctx context.Context, filamentID snowflake.ID) (decimal.Decimal, error)
}

var (
	ErrNotFound         = errors.New("filament_not_found")
	ErrInvalidID        = errors.New("invalid_filament_id")
	ErrInvalidMaterial  = errors.New("invalid_material")
	ErrInvalidCoilPrice = errors.New("invalid_coil_price")
	ErrInvalidCoilGrams = errors.New("invalid_coil_grams")
	ErrInvalidRestock   = errors.New("invalid_restock_amount")
	ErrStillReferenced  = errors.New("filament_still_referenced")
)
