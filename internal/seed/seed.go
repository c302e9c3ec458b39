// Package seed populates a fresh database with a starter filament shelf and
// extras catalog so local environments are usable immediately.
package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	extradomain "github.com/printforge/printforge/internal/extra/domain"
	filamentdomain "github.com/printforge/printforge/internal/filament/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type starterFilament struct {
	Material  string
	Color     string
	CoilPrice string
	CoilGrams string
}

type starterExtra struct {
	Name      string
	UnitPrice string
	Scope     extradomain.Scope
}

var starterFilaments = []starterFilament{
	{Material: "PLA", Color: "black", CoilPrice: "22.00", CoilGrams: "1000"},
	{Material: "PLA", Color: "white", CoilPrice: "22.00", CoilGrams: "1000"},
	{Material: "PETG", Color: "clear", CoilPrice: "26.00", CoilGrams: "1000"},
}

var starterExtras = []starterExtra{
	{Name: "Shipping", UnitPrice: "8.00", Scope: extradomain.ScopeJob},
	{Name: "Rush fee", UnitPrice: "15.00", Scope: extradomain.ScopeJob},
	{Name: "Paint finish", UnitPrice: "5.00", Scope: extradomain.ScopePiece},
}

// EnsureStarterData inserts the starter records if their tables are empty.
// It never touches tables that already hold data.
func EnsureStarterData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureFilaments(ctx, tx, node); err != nil {
			return err
		}
		return ensureExtras(ctx, tx, node)
	})
}

func ensureFilaments(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&filamentdomain.Filament{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, f := range starterFilaments {
		coilPrice, err := decimal.NewFromString(f.CoilPrice)
		if err != nil {
			return err
		}
		coilGrams, err := decimal.NewFromString(f.CoilGrams)
		if err != nil {
			return err
		}
		record := filamentdomain.Filament{
			ID:           node.Generate(),
			Material:     f.Material,
			Color:        f.Color,
			CoilPrice:    coilPrice,
			CoilGrams:    coilGrams,
			PricePerGram: coilPrice.Div(coilGrams),
		}
		if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureExtras(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&extradomain.ExtraCatalogEntry{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, e := range starterExtras {
		unitPrice, err := decimal.NewFromString(e.UnitPrice)
		if err != nil {
			return err
		}
		record := extradomain.ExtraCatalogEntry{
			ID:        node.Generate(),
			Name:      e.Name,
			UnitPrice: unitPrice,
			Scope:     e.Scope,
		}
		if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
			return err
		}
	}
	return nil
}
