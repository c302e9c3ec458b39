package costing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestCompute_ReferenceScenario(t *testing.T) {
	// 20g units at $0.05/g, 2h print at $0.50/h, 1h modeling at $8.00
	// amortized over 5 units, base price $10.
	out, err := Compute(Inputs{
		GramsPerUnit:      d("20"),
		PricePerGram:      d("0.05"),
		PrintHoursPerUnit: d("2"),
		PrintHourRate:     d("0.50"),
		ModelingHours:     d("1"),
		ModelingHourRate:  d("8.00"),
		UnitCount:         5,
		BasePricePerUnit:  d("10"),
	})
	assert.NoError(t, err)

	assert.True(t, out.MaterialCost.Equal(d("1.00")), "materialCost = %s", out.MaterialCost)
	assert.True(t, out.MachineCost.Equal(d("1.00")), "machineCost = %s", out.MachineCost)
	assert.True(t, out.AmortizedModelingCost.Equal(d("1.60")), "amortized = %s", out.AmortizedModelingCost)
	assert.True(t, out.UnitProductionCost.Equal(d("3.60")), "unitCost = %s", out.UnitProductionCost)
	assert.True(t, out.UnitFinalPrice.Equal(d("11.60")), "unitPrice = %s", out.UnitFinalPrice)
	assert.True(t, out.UnitMargin.Equal(d("8.00")), "unitMargin = %s", out.UnitMargin)
	assert.True(t, out.LineRevenue.Equal(d("58.00")), "lineRevenue = %s", out.LineRevenue)
	assert.True(t, out.LineCost.Equal(d("18.00")), "lineCost = %s", out.LineCost)
}

func TestCompute_RejectsUnitCountBelowOne(t *testing.T) {
	for _, count := range []int64{0, -1} {
		_, err := Compute(Inputs{UnitCount: count})
		assert.ErrorIs(t, err, ErrInvalidUnitCount)
	}
}

func TestCompute_FinalPriceMinusAmortizedEqualsBasePrice(t *testing.T) {
	cases := []Inputs{
		{GramsPerUnit: d("12.5"), PricePerGram: d("0.031"), PrintHoursPerUnit: d("1.75"), PrintHourRate: d("0.45"), ModelingHours: d("3"), ModelingHourRate: d("7.25"), UnitCount: 7, BasePricePerUnit: d("15.99")},
		{ModelingHours: d("1"), ModelingHourRate: d("8"), UnitCount: 3, BasePricePerUnit: d("0.01")},
		{UnitCount: 1},
	}
	for _, in := range cases {
		out, err := Compute(in)
		assert.NoError(t, err)
		assert.True(t, out.UnitFinalPrice.Sub(out.AmortizedModelingCost).Equal(in.BasePricePerUnit),
			"unitFinalPrice-amortized = %s, base = %s", out.UnitFinalPrice.Sub(out.AmortizedModelingCost), in.BasePricePerUnit)
	}
}

func TestCompute_MarginExcludesModeling(t *testing.T) {
	out, err := Compute(Inputs{
		GramsPerUnit:      d("10"),
		PricePerGram:      d("0.10"),
		PrintHoursPerUnit: d("1"),
		PrintHourRate:     d("1"),
		ModelingHours:     d("100"),
		ModelingHourRate:  d("50"),
		UnitCount:         2,
		BasePricePerUnit:  d("5"),
	})
	assert.NoError(t, err)
	// margin = 5 - (1 + 1), untouched by the 5000 in modeling cost
	assert.True(t, out.UnitMargin.Equal(d("3")), "unitMargin = %s", out.UnitMargin)
}

func TestCompute_NoRoundingBetweenChainedSteps(t *testing.T) {
	// 1/3-style amortization must survive into the line totals exactly.
	out, err := Compute(Inputs{
		ModelingHours:    d("1"),
		ModelingHourRate: d("1"),
		UnitCount:        3,
		BasePricePerUnit: d("0"),
	})
	assert.NoError(t, err)
	// 3 units at (1/3) each recompose to exactly 1.
	assert.True(t, out.LineRevenue.Equal(d("1")), "lineRevenue = %s", out.LineRevenue)
	assert.True(t, out.LineCost.Equal(d("1")), "lineCost = %s", out.LineCost)
}

func TestSuggestedPriceBand(t *testing.T) {
	band := SuggestedPriceBand(d("2.5"))
	assert.True(t, band.Low.Equal(d("2.5")))
	assert.True(t, band.High.Equal(d("5")))
}

func TestTotalGrams(t *testing.T) {
	assert.True(t, TotalGrams(d("20"), 5).Equal(d("100")))
	assert.True(t, TotalGrams(d("0.5"), 3).Equal(d("1.5")))
}
