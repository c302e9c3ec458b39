// Package domain contains persistence models and contracts for filament inventory.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Filament is a shared raw-material coil tracked by mass. AvailableGrams is a
// ledger balance: it only ever moves through Ledger.ApplyDelta, never through
// a raw overwrite. A negative balance signals over-commitment and is allowed.
type Filament struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	Material       string            `gorm:"type:text;not null;index" json:"material"`
	Color          string            `gorm:"type:text;not null" json:"color"`
	CoilPrice      decimal.Decimal   `gorm:"type:numeric;not null;default:0" json:"coil_price"`
	CoilGrams      decimal.Decimal   `gorm:"type:numeric;not null;default:0" json:"coil_grams"`
	PricePerGram   decimal.Decimal   `gorm:"type:numeric;not null;default:0" json:"price_per_gram"`
	AvailableGrams decimal.Decimal   `gorm:"type:numeric;not null;default:0" json:"available_grams"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Filament) TableName() string { return "filaments" }

// DisplayName is the label shown on quotes and the production board.
func (f Filament) DisplayName() string {
	if f.Color == "" {
		return f.Material
	}
	return f.Material + " " + f.Color
}
