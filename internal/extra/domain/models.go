// Package domain contains persistence models for ancillary charges and costs.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Scope says whether a catalog entry applies to a whole job or to one piece.
type Scope string

const (
	ScopeJob   Scope = "job"
	ScopePiece Scope = "piece"
)

func (s Scope) Valid() bool {
	return s == ScopeJob || s == ScopePiece
}

// ExtraCatalogEntry is the reusable definition of an extra.
type ExtraCatalogEntry struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"type:text;not null" json:"name"`
	UnitPrice decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"unit_price"`
	Scope     Scope           `gorm:"type:text;not null;default:'job'" json:"scope"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (ExtraCatalogEntry) TableName() string { return "extra_catalog_entries" }

// ExtraApplied is an extra attached to a job, optionally pinned to one piece.
// The unit price is snapshotted at apply time. Revenue and cost flags are
// independent: a pass-through shipping charge may be a cost without being
// billed, and a cancellation fee may be revenue without being a cost.
type ExtraApplied struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	JobID           snowflake.ID    `gorm:"not null;index" json:"job_id"`
	PieceID         *snowflake.ID   `gorm:"index" json:"piece_id,omitempty"`
	CatalogEntryID  snowflake.ID    `gorm:"not null;index" json:"catalog_entry_id"`
	Quantity        int64           `gorm:"not null;default:1" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"unit_price"`
	Subtotal        decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"subtotal"`
	CountsAsRevenue bool            `gorm:"not null;default:true" json:"counts_as_revenue"`
	CountsAsCost    bool            `gorm:"not null;default:false" json:"counts_as_cost"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ExtraApplied) TableName() string { return "extras_applied" }
