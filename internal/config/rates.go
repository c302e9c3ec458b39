package config

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Rates carries the shop's default hourly rates. Pieces snapshot whichever
// rate is in force at save time, so changing these never rewrites history.
type Rates struct {
	PrintHourRate    decimal.Decimal
	ModelingHourRate decimal.Decimal
}

func loadRates() Rates {
	return Rates{
		PrintHourRate:    getenvDecimal("RATE_PRINT_HOUR", "0.50"),
		ModelingHourRate: getenvDecimal("RATE_MODELING_HOUR", "8.00"),
	}
}

func getenvDecimal(key, fallback string) decimal.Decimal {
	raw := strings.TrimSpace(getenv(key, fallback))
	d, err := decimal.NewFromString(raw)
	if err != nil {
		d, _ = decimal.NewFromString(fallback)
	}
	return d
}
