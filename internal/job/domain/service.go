package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/printforge/printforge/pkg/db/pagination"
	"github.com/shopspring/decimal"
)

type CreateJobRequest struct {
	ClientName  string
	ClientEmail string
	Title       string
	RequestedAt *time.Time
	DueAt       *time.Time
	Metadata    map[string]any
}

type UpdateJobRequest struct {
	ClientName  *string
	ClientEmail *string
	Title       *string
	RequestedAt *time.Time
	DueAt       *time.Time
}

type ListJobRequest struct {
	PageToken   string
	PageSize    int
	Status      *Status
	ClientName  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListJobResponse struct {
	pagination.PageInfo
	Jobs []Job `json:"jobs"`
}

type CancelJobRequest struct {
	CollectedAmount decimal.Decimal
	Partial         bool
}

// Service manages jobs and their operator-driven status transitions.
type Service interface {
	Create(ctx context.Context, req CreateJobRequest) (Job, error)
	Update(ctx context.Context, id string, req UpdateJobRequest) (Job, error)
	GetByID(ctx context.Context, id string) (Job, error)
	List(ctx context.Context, req ListJobRequest) (ListJobResponse, error)
	Delete(ctx context.Context, id string) error

	Approve(ctx context.Context, id string) (Job, error)
	MarkDelivered(ctx context.Context, id string) (Job, error)
	Cancel(ctx context.Context, id string, req CancelJobRequest) (Job, error)
	SetPaymentState(ctx context.Context, id string, state PaymentState) (Job, error)
}

// Evaluator advances a job's status from its pieces' production states. It
// never regresses a status and only acts on approved or in-production jobs.
type Evaluator interface {
	EvaluateAfterPieceChange(ctx context.Context, jobID snowflake.ID) error
}

var (
	ErrNotFound            = errors.New("job_not_found")
	ErrInvalidID           = errors.New("invalid_job_id")
	ErrInvalidClient       = errors.New("invalid_client_name")
	ErrInvalidTitle        = errors.New("invalid_job_title")
	ErrInvalidPaymentState = errors.New("invalid_payment_state")
	ErrInvalidCollected    = errors.New("invalid_collected_amount")
	ErrInvalidTransition   = errors.New("invalid_status_transition")
	ErrJobTerminal         = errors.New("job_in_terminal_status")
)
