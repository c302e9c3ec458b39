package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreatePieceRequest struct {
	JobID             string
	Name              string
	Description       string
	Quantity          int64
	FilamentID        string
	GramsPerUnit      decimal.Decimal
	PrintHoursPerUnit decimal.Decimal
	PrintHourRate     *decimal.Decimal
	ModelingHours     decimal.Decimal
	ModelingHourRate  *decimal.Decimal
	BasePricePerUnit  decimal.Decimal
}

type UpdatePieceRequest struct {
	Name              *string
	Description       *string
	Quantity          *int64
	FilamentID        *string
	GramsPerUnit      *decimal.Decimal
	PrintHoursPerUnit *decimal.Decimal
	PrintHourRate     *decimal.Decimal
	ModelingHours     *decimal.Decimal
	ModelingHourRate  *decimal.Decimal
	BasePricePerUnit  *decimal.Decimal
}

// Service keeps a piece's persisted cost fields, its consumption record and
// the filament ledger mutually consistent across create, update and delete.
// It has no opinion on workflow lock-down: pieces of delivered or cancelled
// jobs may still be edited here.
type Service interface {
	Create(ctx context.Context, req CreatePieceRequest) (Piece, error)
	Update(ctx context.Context, id string, req UpdatePieceRequest) (Piece, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Piece, error)
	ListByJob(ctx context.Context, jobID string) ([]Piece, error)
	SetProductionState(ctx context.Context, id string, state ProductionState) (Piece, error)
}

var (
	ErrNotFound          = errors.New("piece_not_found")
	ErrInvalidID         = errors.New("invalid_piece_id")
	ErrInvalidJob        = errors.New("invalid_job_reference")
	ErrInvalidFilament   = errors.New("invalid_filament_reference")
	ErrInvalidName       = errors.New("invalid_piece_name")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInvalidGrams      = errors.New("invalid_grams_per_unit")
	ErrInvalidBasePrice  = errors.New("invalid_base_price")
	ErrInvalidProduction = errors.New("invalid_production_state")
)

// ReconciliationLeg identifies which half of a material-reassignment edit a
// ledger failure belongs to.
type ReconciliationLeg string

const (
	LegRestoreOld ReconciliationLeg = "restore_old"
	LegConsumeNew ReconciliationLeg = "consume_new"
)

// PartialReconciliationError reports that one ledger leg of a reassignment
// succeeded and the other failed. Automatic rollback of the first leg is not
// guaranteed, so the error must reach an operator rather than be swallowed.
type PartialReconciliationError struct {
	Leg        ReconciliationLeg
	FilamentID snowflake.ID
	Err        error
}

func (e *PartialReconciliationError) Error() string {
	return fmt.Sprintf("partial reconciliation: leg %s on filament %s: %v", e.Leg, e.FilamentID, e.Err)
}

func (e *PartialReconciliationError) Unwrap() error { return e.Err }
