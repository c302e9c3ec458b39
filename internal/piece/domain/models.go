// Package domain contains persistence models and contracts for job pieces.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// ProductionState is a piece's physical-fabrication progress. It is
// independent of the owning job's commercial status.
type ProductionState string

const (
	ProductionStateNotPrinted ProductionState = "not_printed"
	ProductionStatePrinted    ProductionState = "printed"
	ProductionStatePackaged   ProductionState = "packaged"
)

// Valid reports whether the state is one of the known board columns.
func (s ProductionState) Valid() bool {
	switch s {
	case ProductionStateNotPrinted, ProductionStatePrinted, ProductionStatePackaged:
		return true
	default:
		return false
	}
}

// Started reports whether fabrication has begun (printed or packaged).
func (s ProductionState) Started() bool {
	return s == ProductionStatePrinted || s == ProductionStatePackaged
}

// Piece is a priced, quantified line item consuming filament. PricePerGram is
// snapshotted at save time so later filament price changes never rewrite a
// historical quote; all derived money fields are recomputed on every save.
type Piece struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	JobID       snowflake.ID `gorm:"not null;index" json:"job_id"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	Quantity    int64        `gorm:"not null" json:"quantity"`

	FilamentID   snowflake.ID    `gorm:"not null;index" json:"filament_id"`
	GramsPerUnit decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"grams_per_unit"`
	PricePerGram decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"price_per_gram"`
	MaterialCost decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"material_cost"`

	PrintHoursPerUnit decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"print_hours_per_unit"`
	PrintHourRate     decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"print_hour_rate"`
	ModelingHours     decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"modeling_hours"`
	ModelingHourRate  decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"modeling_hour_rate"`

	BasePricePerUnit      decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"base_price_per_unit"`
	AmortizedModelingCost decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"amortized_modeling_cost"`
	UnitProductionCost    decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"unit_production_cost"`
	UnitFinalPrice        decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"unit_final_price"`
	UnitMargin            decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"unit_margin"`
	LineRevenue           decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"line_revenue"`
	LineCost              decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"line_cost"`

	ProductionState ProductionState `gorm:"type:text;not null;default:'not_printed'" json:"production_state"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Piece) TableName() string { return "pieces" }

// TotalGrams is the mass this line holds against its filament.
func (p Piece) TotalGrams() decimal.Decimal {
	return p.GramsPerUnit.Mul(decimal.NewFromInt(p.Quantity))
}

// ConsumptionRecord is the audit snapshot tying a piece to the mass it holds
// on a filament. It is fully replaced (delete then insert) on every save, so
// it always mirrors the current piece rather than accumulating history.
type ConsumptionRecord struct {
	ID                snowflake.ID    `gorm:"primaryKey" json:"id"`
	PieceID           snowflake.ID    `gorm:"not null;index" json:"piece_id"`
	FilamentID        snowflake.ID    `gorm:"not null;index" json:"filament_id"`
	TotalGrams        decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"total_grams"`
	CostAtConsumption decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"cost_at_consumption"`
	CreatedAt         time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ConsumptionRecord) TableName() string { return "consumption_records" }
