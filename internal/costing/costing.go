// Package costing turns raw piece inputs (mass, time, rates, quantity) into
// unit and line money values. It is pure: no state, no persistence, decimal
// arithmetic throughout, rounding left to the presentation layer.
package costing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidUnitCount rejects computations over fewer than one unit. The
// modeling amortization divides by unit count, so zero is an input error
// rather than a divide that yields infinity.
var ErrInvalidUnitCount = errors.New("invalid_unit_count")

// Inputs are the raw values a piece is costed from. ModelingHours is the
// total entered for the whole line, not per unit.
type Inputs struct {
	GramsPerUnit      decimal.Decimal
	PricePerGram      decimal.Decimal
	PrintHoursPerUnit decimal.Decimal
	PrintHourRate     decimal.Decimal
	ModelingHours     decimal.Decimal
	ModelingHourRate  decimal.Decimal
	UnitCount         int64
	BasePricePerUnit  decimal.Decimal
}

// Breakdown is the full set of derived values for one piece line.
type Breakdown struct {
	MaterialCost          decimal.Decimal
	MachineCost           decimal.Decimal
	ModelingCostTotal     decimal.Decimal
	AmortizedModelingCost decimal.Decimal
	UnitProductionCost    decimal.Decimal
	UnitFinalPrice        decimal.Decimal
	UnitMargin            decimal.Decimal
	LineRevenue           decimal.Decimal
	LineCost              decimal.Decimal
}

// PriceBand is an advisory range for the base price, derived from print time.
// It is never persisted as authoritative.
type PriceBand struct {
	Low  decimal.Decimal
	High decimal.Decimal
}

// Compute derives every output from the current inputs. Nothing is retained
// between calls.
func Compute(in Inputs) (Breakdown, error) {
	if in.UnitCount < 1 {
		return Breakdown{}, ErrInvalidUnitCount
	}

	units := decimal.NewFromInt(in.UnitCount)

	materialCost := in.GramsPerUnit.Mul(in.PricePerGram)
	machineCost := in.PrintHoursPerUnit.Mul(in.PrintHourRate)
	modelingTotal := in.ModelingHours.Mul(in.ModelingHourRate)
	amortized := modelingTotal.Div(units)

	unitCost := materialCost.Add(machineCost).Add(amortized)
	unitPrice := in.BasePricePerUnit.Add(amortized)

	// Modeling cost is excluded from margin: it is charged back in full via
	// the final price, not profited from.
	unitMargin := in.BasePricePerUnit.Sub(materialCost.Add(machineCost))

	// Line totals recompose the undivided modeling total so the division above
	// cannot leak rounding error into aggregates.
	lineRevenue := in.BasePricePerUnit.Mul(units).Add(modelingTotal)
	lineCost := materialCost.Add(machineCost).Mul(units).Add(modelingTotal)

	return Breakdown{
		MaterialCost:          materialCost,
		MachineCost:           machineCost,
		ModelingCostTotal:     modelingTotal,
		AmortizedModelingCost: amortized,
		UnitProductionCost:    unitCost,
		UnitFinalPrice:        unitPrice,
		UnitMargin:            unitMargin,
		LineRevenue:           lineRevenue,
		LineCost:              lineCost,
	}, nil
}

// SuggestedPriceBand returns the advisory [1x, 2x] print-hours band.
func SuggestedPriceBand(printHoursPerUnit decimal.Decimal) PriceBand {
	return PriceBand{
		Low:  printHoursPerUnit,
		High: printHoursPerUnit.Mul(decimal.NewFromInt(2)),
	}
}

// TotalGrams is the mass a line consumes from inventory.
func TotalGrams(gramsPerUnit decimal.Decimal, unitCount int64) decimal.Decimal {
	return gramsPerUnit.Mul(decimal.NewFromInt(unitCount))
}
