// Package domain contains persistence models and contracts for production jobs.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Status is a job's commercial lifecycle state.
//
// quoted → approved → {in_production → ready} → delivered, with cancelled and
// partially_cancelled reachable from any non-terminal state. Transitions into
// in_production and ready are derived from piece production states once the
// job is approved; everything else is an explicit operator action.
type Status string

const (
	StatusQuoted             Status = "quoted"
	StatusApproved           Status = "approved"
	StatusInProduction       Status = "in_production"
	StatusReady              Status = "ready"
	StatusDelivered          Status = "delivered"
	StatusCancelled          Status = "cancelled"
	StatusPartiallyCancelled Status = "partially_cancelled"
)

// Terminal reports whether no further transition may leave the state.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Cancelled reports whether the job was cancelled in full or in part.
func (s Status) Cancelled() bool {
	return s == StatusCancelled || s == StatusPartiallyCancelled
}

// AutoEvaluable reports whether piece movement may advance this status.
func (s Status) AutoEvaluable() bool {
	return s == StatusApproved || s == StatusInProduction
}

// PaymentState tracks money collected against the job.
type PaymentState string

const (
	PaymentStateUnpaid  PaymentState = "unpaid"
	PaymentStateDeposit PaymentState = "deposit"
	PaymentStatePaid    PaymentState = "paid"
)

func (s PaymentState) Valid() bool {
	switch s {
	case PaymentStateUnpaid, PaymentStateDeposit, PaymentStatePaid:
		return true
	default:
		return false
	}
}

// Job owns its pieces and job-level extras. CollectedAmount is only set by
// cancellation and overrides revenue in financial rollups.
type Job struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	ClientName  string       `gorm:"type:text;not null" json:"client_name"`
	ClientEmail string       `gorm:"type:text" json:"client_email,omitempty"`
	Title       string       `gorm:"type:text;not null" json:"title"`

	Status          Status            `gorm:"type:text;not null;default:'quoted';index" json:"status"`
	PaymentState    PaymentState      `gorm:"type:text;not null;default:'unpaid'" json:"payment_state"`
	CollectedAmount decimal.Decimal   `gorm:"type:numeric;not null;default:0" json:"collected_amount"`
	RequestedAt     *time.Time        `gorm:"" json:"requested_at,omitempty"`
	DueAt           *time.Time        `gorm:"" json:"due_at,omitempty"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Job) TableName() string { return "jobs" }
