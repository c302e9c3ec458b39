package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/printforge/printforge/internal/costing"
	piecedomain "github.com/printforge/printforge/internal/piece/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Update re-derives every cost field from the edited inputs, settles the
// inventory ledger for the mass difference and replaces the consumption
// record. Saving identical inputs twice nets a zero ledger delta.
func (s *Service) Update(ctx context.Context, id string, req piecedomain.UpdatePieceRequest) (piecedomain.Piece, error) {
	existing, err := s.getByID(ctx, id)
	if err != nil {
		return piecedomain.Piece{}, err
	}

	oldFilamentID := existing.FilamentID
	oldTotalGrams := existing.TotalGrams()

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return piecedomain.Piece{}, piecedomain.ErrInvalidName
		}
		existing.Name = name
	}
	if req.Description != nil {
		existing.Description = strings.TrimSpace(*req.Description)
	}
	if req.Quantity != nil {
		// Quantity >= 1 is a precondition, never silently coerced.
		if *req.Quantity < 1 {
			return piecedomain.Piece{}, piecedomain.ErrInvalidQuantity
		}
		existing.Quantity = *req.Quantity
	}
	if req.GramsPerUnit != nil {
		if req.GramsPerUnit.IsNegative() {
			return piecedomain.Piece{}, piecedomain.ErrInvalidGrams
		}
		existing.GramsPerUnit = *req.GramsPerUnit
	}
	if req.BasePricePerUnit != nil {
		if req.BasePricePerUnit.IsNegative() {
			return piecedomain.Piece{}, piecedomain.ErrInvalidBasePrice
		}
		existing.BasePricePerUnit = *req.BasePricePerUnit
	}
	if req.FilamentID != nil {
		parsed, err := snowflake.ParseString(strings.TrimSpace(*req.FilamentID))
		if err != nil || parsed == 0 {
			return piecedomain.Piece{}, piecedomain.ErrInvalidFilament
		}
		existing.FilamentID = parsed
	}

	existing.PrintHoursPerUnit = decimalOr(req.PrintHoursPerUnit, existing.PrintHoursPerUnit)
	existing.PrintHourRate = decimalOr(req.PrintHourRate, existing.PrintHourRate)
	// The entered modeling-hours total is authoritative for this save; the
	// amortized per-unit value in the response is what the operator reviews.
	existing.ModelingHours = decimalOr(req.ModelingHours, existing.ModelingHours)
	existing.ModelingHourRate = decimalOr(req.ModelingHourRate, existing.ModelingHourRate)

	// Price per gram is re-snapshotted at save time from the (possibly new)
	// filament, then frozen again until the next save.
	pricePerGram, err := s.ledger.PricePerGram(ctx, existing.FilamentID)
	if err != nil {
		return piecedomain.Piece{}, err
	}
	existing.PricePerGram = pricePerGram

	breakdown, err := costing.Compute(costing.Inputs{
		GramsPerUnit:      existing.GramsPerUnit,
		PricePerGram:      existing.PricePerGram,
		PrintHoursPerUnit: existing.PrintHoursPerUnit,
		PrintHourRate:     existing.PrintHourRate,
		ModelingHours:     existing.ModelingHours,
		ModelingHourRate:  existing.ModelingHourRate,
		UnitCount:         existing.Quantity,
		BasePricePerUnit:  existing.BasePricePerUnit,
	})
	if err != nil {
		return piecedomain.Piece{}, err
	}

	existing.MaterialCost = breakdown.MaterialCost
	existing.AmortizedModelingCost = breakdown.AmortizedModelingCost
	existing.UnitProductionCost = breakdown.UnitProductionCost
	existing.UnitFinalPrice = breakdown.UnitFinalPrice
	existing.UnitMargin = breakdown.UnitMargin
	existing.LineRevenue = breakdown.LineRevenue
	existing.LineCost = breakdown.LineCost
	existing.UpdatedAt = s.clock.Now()

	newTotalGrams := existing.TotalGrams()

	if err := s.settleLedger(ctx, oldFilamentID, existing.FilamentID, oldTotalGrams, newTotalGrams); err != nil {
		return piecedomain.Piece{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"name":                    existing.Name,
			"description":             existing.Description,
			"quantity":                existing.Quantity,
			"filament_id":             existing.FilamentID,
			"grams_per_unit":          existing.GramsPerUnit,
			"price_per_gram":          existing.PricePerGram,
			"material_cost":           existing.MaterialCost,
			"print_hours_per_unit":    existing.PrintHoursPerUnit,
			"print_hour_rate":         existing.PrintHourRate,
			"modeling_hours":          existing.ModelingHours,
			"modeling_hour_rate":      existing.ModelingHourRate,
			"base_price_per_unit":     existing.BasePricePerUnit,
			"amortized_modeling_cost": existing.AmortizedModelingCost,
			"unit_production_cost":    existing.UnitProductionCost,
			"unit_final_price":        existing.UnitFinalPrice,
			"unit_margin":             existing.UnitMargin,
			"line_revenue":            existing.LineRevenue,
			"line_cost":               existing.LineCost,
			"updated_at":              existing.UpdatedAt,
		}
		if err := s.repo.WithTrx(tx).Update(ctx, existing.ID.String(), updates); err != nil {
			return err
		}

		// The consumption record is a snapshot, not a history: replace it.
		if err := s.consrepo.WithTrx(tx).DeleteWhere(ctx, &piecedomain.ConsumptionRecord{PieceID: existing.ID}); err != nil {
			return err
		}
		return s.consrepo.WithTrx(tx).Create(ctx, &piecedomain.ConsumptionRecord{
			ID:                s.genID.Generate(),
			PieceID:           existing.ID,
			FilamentID:        existing.FilamentID,
			TotalGrams:        newTotalGrams,
			CostAtConsumption: newTotalGrams.Mul(existing.PricePerGram),
			CreatedAt:         existing.UpdatedAt,
		})
	})
	if err != nil {
		return piecedomain.Piece{}, err
	}

	return *existing, nil
}

// settleLedger moves held mass from the pre-edit state to the post-edit
// state. Same filament: one net delta, so no intermediate balance is ever
// visible. Reassignment: restore the old holding in full, then take the new
// one, in that order; both legs are attempted even if the first fails, and a
// single-leg failure is surfaced as a PartialReconciliationError so an
// operator can reconcile by hand.
func (s *Service) settleLedger(ctx context.Context, oldFilamentID, newFilamentID snowflake.ID, oldTotal, newTotal decimal.Decimal) error {
	if oldFilamentID == newFilamentID {
		return s.ledger.ApplyDelta(ctx, oldFilamentID, oldTotal.Sub(newTotal))
	}

	restoreErr := s.ledger.ApplyDelta(ctx, oldFilamentID, oldTotal)
	consumeErr := s.ledger.ApplyDelta(ctx, newFilamentID, newTotal.Neg())

	switch {
	case restoreErr == nil && consumeErr == nil:
		return nil
	case restoreErr != nil && consumeErr != nil:
		return fmt.Errorf("both reassignment legs failed: restore %s: %v; consume %s: %w",
			oldFilamentID, restoreErr, newFilamentID, consumeErr)
	case restoreErr != nil:
		s.reportPartial(piecedomain.LegRestoreOld, oldFilamentID, restoreErr)
		return &piecedomain.PartialReconciliationError{
			Leg:        piecedomain.LegRestoreOld,
			FilamentID: oldFilamentID,
			Err:        restoreErr,
		}
	default:
		s.reportPartial(piecedomain.LegConsumeNew, newFilamentID, consumeErr)
		return &piecedomain.PartialReconciliationError{
			Leg:        piecedomain.LegConsumeNew,
			FilamentID: newFilamentID,
			Err:        consumeErr,
		}
	}
}

func (s *Service) reportPartial(leg piecedomain.ReconciliationLeg, filamentID snowflake.ID, err error) {
	s.log.Error("partial ledger reconciliation",
		zap.String("leg", string(leg)),
		zap.String("filament_id", filamentID.String()),
		zap.Error(err),
	)
	if s.obs != nil {
		s.obs.ReconciliationFailures.WithLabelValues(string(leg)).Inc()
	}
}
