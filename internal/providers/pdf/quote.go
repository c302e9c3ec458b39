package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// QuoteData is a fully formatted snapshot of one job quote. Money fields are
// pre-rendered strings so the renderer never rounds or converts anything.
type QuoteData struct {
	ShopName  string
	ShopEmail string

	QuoteNumber string
	IssueDate   string
	DueDate     string

	ClientName  string
	ClientEmail string
	JobTitle    string
	JobStatus   string

	Pieces []QuotePiece
	Extras []QuoteExtra

	PiecesSubtotal string
	ExtrasSubtotal string
	Total          string
	Notes          string
}

type QuotePiece struct {
	Name      string
	Material  string
	Qty       int64
	UnitPrice string
	Amount    string
}

type QuoteExtra struct {
	Name      string
	Qty       int64
	UnitPrice string
	Amount    string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateQuote(ctx context.Context, data QuoteData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(15,
		text.NewCol(12, "Quote", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	// Quote Meta
	m.AddRow(20,
		col.New(6).Add(
			text.New("Quote number: "+data.QuoteNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+data.IssueDate, props.Text{Top: 4}),
			text.New("Due date: "+data.DueDate, props.Text{Top: 8}),
			text.New("Status: "+data.JobStatus, props.Text{Top: 12}),
		),
		col.New(6),
	)

	// Addresses
	m.AddRow(30,
		col.New(6).Add(
			text.New(data.ShopName, props.Text{Style: fontstyle.Bold}),
			text.New(data.ShopEmail, props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New("Prepared for", props.Text{Style: fontstyle.Bold}),
			text.New(data.ClientName, props.Text{Top: 5}),
			text.New(data.ClientEmail, props.Text{Top: 9}),
		),
	)

	m.AddRow(12,
		text.NewCol(12, data.JobTitle, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   2,
		}),
	)

	// Pieces Table
	m.AddRow(10,
		text.NewCol(4, "Piece", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Material", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, piece := range data.Pieces {
		m.AddRow(10,
			text.NewCol(4, piece.Name, props.Text{Size: 9}),
			text.NewCol(2, piece.Material, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", piece.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, piece.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, piece.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	if len(data.Extras) > 0 {
		m.AddRow(10,
			text.NewCol(6, "Extras", props.Text{Style: fontstyle.Bold, Size: 9, Top: 2}),
			text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2}),
			text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2}),
			text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2}),
		)
		for _, extra := range data.Extras {
			m.AddRow(10,
				text.NewCol(6, extra.Name, props.Text{Size: 9}),
				text.NewCol(2, fmt.Sprintf("%d", extra.Qty), props.Text{Size: 9, Align: align.Right}),
				text.NewCol(2, extra.UnitPrice, props.Text{Size: 9, Align: align.Right}),
				text.NewCol(2, extra.Amount, props.Text{Size: 9, Align: align.Right}),
			)
		}
	}

	// Footer Totals
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Pieces", props.Text{Size: 9}),
		text.NewCol(2, data.PiecesSubtotal, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Extras", props.Text{Size: 9}),
		text.NewCol(2, data.ExtrasSubtotal, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, data.Total, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	if data.Notes != "" {
		m.AddRow(20,
			text.NewCol(12, data.Notes, props.Text{Size: 8, Top: 4}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
