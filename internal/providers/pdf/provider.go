// Package pdf renders printable documents from assembled snapshots. The
// provider only formats what it is given; pricing and rollups happen upstream.
package pdf

import (
	"context"
	"io"

	"go.uber.org/fx"
)

type Provider interface {
	GenerateQuote(ctx context.Context, data QuoteData) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateQuote(ctx context.Context, data QuoteData) (io.Reader, error) {
	return nil, nil
}

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)
