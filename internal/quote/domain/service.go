// Package domain contains the contract for quote document assembly.
package domain

import (
	"context"
	"errors"
	"io"

	"github.com/printforge/printforge/internal/providers/pdf"
)

// Service assembles a job's persisted pricing into a rendered quote. The
// snapshot is built from stored figures only; nothing is repriced here.
type Service interface {
	Snapshot(ctx context.Context, jobID string) (pdf.QuoteData, error)
	RenderQuote(ctx context.Context, jobID string) (io.Reader, error)
}

var ErrInvalidID = errors.New("invalid_job_id")
