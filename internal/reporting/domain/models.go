// Package domain contains read-only rollup shapes for financial reporting.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// JobTotals is the financial rollup for one job. For cancelled and partially
// cancelled jobs GrossRevenue is the operator-entered collected amount while
// cost still accrues from pieces and extras already incurred: cancellation
// stops billing, it does not un-incur committed cost.
type JobTotals struct {
	JobID             snowflake.ID    `json:"job_id"`
	Status            string          `json:"status"`
	PiecesRevenue     decimal.Decimal `json:"pieces_revenue"`
	PiecesCost        decimal.Decimal `json:"pieces_cost"`
	ExtrasRevenue     decimal.Decimal `json:"extras_revenue"`
	ExtrasCost        decimal.Decimal `json:"extras_cost"`
	GrossRevenue      decimal.Decimal `json:"gross_revenue"`
	GrossCost         decimal.Decimal `json:"gross_cost"`
	Margin            decimal.Decimal `json:"margin"`
	RevenueOverridden bool            `json:"revenue_overridden"`
}

// PeriodTotals rolls JobTotals up over a creation-time window.
type PeriodTotals struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	JobCount     int             `json:"job_count"`
	GrossRevenue decimal.Decimal `json:"gross_revenue"`
	GrossCost    decimal.Decimal `json:"gross_cost"`
	Margin       decimal.Decimal `json:"margin"`
	ByStatus     map[string]int  `json:"by_status"`
}

// Service is a read-only aggregator over persisted jobs, pieces and extras.
// It never mutates what it reads.
type Service interface {
	JobTotals(ctx context.Context, jobID string) (JobTotals, error)
	PeriodTotals(ctx context.Context, from, to time.Time) (PeriodTotals, error)
}

var (
	ErrInvalidJob    = errors.New("invalid_job_reference")
	ErrInvalidPeriod = errors.New("invalid_reporting_period")
)
