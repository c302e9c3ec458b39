package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	filamentdomain "github.com/printforge/printforge/internal/filament/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ApplyDelta adds (positive) or removes (negative) grams from a filament's
// available balance in one statement, so concurrent callers never observe an
// interleaved read-modify-write. A negative resulting balance is allowed; it
// flags over-commitment and is reported, not blocked.
func (s *Service) ApplyDelta(ctx context.Context, filamentID snowflake.ID, grams decimal.Decimal) error {
	if filamentID == 0 {
		return filamentdomain.ErrInvalidID
	}
	if grams.IsZero() {
		return nil
	}

	result := s.db.WithContext(ctx).Exec(
		`UPDATE filaments SET available_grams = available_grams + ?, updated_at = ? WHERE id = ?`,
		grams,
		s.clock.Now(),
		filamentID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return filamentdomain.ErrNotFound
	}

	if s.obs != nil {
		direction := "restore"
		if grams.IsNegative() {
			direction = "consume"
		}
		s.obs.LedgerDeltas.WithLabelValues(direction).Inc()
	}

	balance, err := s.AvailableGrams(ctx, filamentID)
	if err == nil && balance.IsNegative() {
		s.log.Warn("filament balance went negative",
			zap.String("filament_id", filamentID.String()),
			zap.String("available_grams", balance.String()),
		)
		if s.obs != nil {
			s.obs.NegativeBalances.Inc()
		}
	}

	return nil
}

// PricePerGram returns the filament's current price per gram.
func (s *Service) PricePerGram(ctx context.Context, filamentID snowflake.ID) (decimal.Decimal, error) {
	record, err := s.getByID(ctx, filamentID.String())
	if err != nil {
		return decimal.Zero, err
	}
	return record.PricePerGram, nil
}

// AvailableGrams returns the filament's current ledger balance.
func (s *Service) AvailableGrams(ctx context.Context, filamentID snowflake.ID) (decimal.Decimal, error) {
	record, err := s.getByID(ctx, filamentID.String())
	if err != nil {
		return decimal.Zero, err
	}
	return record.AvailableGrams, nil
}
