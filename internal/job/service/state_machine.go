package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	jobdomain "github.com/printforge/printforge/internal/job/domain"
	piecedomain "github.com/printforge/printforge/internal/piece/domain"
	"go.uber.org/zap"
)

// Approve moves a quoted job into approved, arming automatic evaluation.
func (s *Service) Approve(ctx context.Context, id string) (jobdomain.Job, error) {
	record, err := s.getByID(ctx, id)
	if err != nil {
		return jobdomain.Job{}, err
	}

	if record.Status != jobdomain.StatusQuoted {
		return jobdomain.Job{}, jobdomain.ErrInvalidTransition
	}

	if err := s.setStatus(ctx, record, jobdomain.StatusApproved); err != nil {
		return jobdomain.Job{}, err
	}
	return *record, nil
}

// MarkDelivered closes out a ready job.
func (s *Service) MarkDelivered(ctx context.Context, id string) (jobdomain.Job, error) {
	record, err := s.getByID(ctx, id)
	if err != nil {
		return jobdomain.Job{}, err
	}

	if record.Status != jobdomain.StatusReady {
		return jobdomain.Job{}, jobdomain.ErrInvalidTransition
	}

	if err := s.setStatus(ctx, record, jobdomain.StatusDelivered); err != nil {
		return jobdomain.Job{}, err
	}
	return *record, nil
}

// Cancel is an explicit operator action carrying the amount actually
// collected. Cost already incurred by pieces and extras keeps accruing in
// rollups; only billing stops.
func (s *Service) Cancel(ctx context.Context, id string, req jobdomain.CancelJobRequest) (jobdomain.Job, error) {
	record, err := s.getByID(ctx, id)
	if err != nil {
		return jobdomain.Job{}, err
	}

	if record.Status.Terminal() {
		return jobdomain.Job{}, jobdomain.ErrJobTerminal
	}
	if req.CollectedAmount.IsNegative() {
		return jobdomain.Job{}, jobdomain.ErrInvalidCollected
	}

	target := jobdomain.StatusCancelled
	if req.Partial {
		target = jobdomain.StatusPartiallyCancelled
	}

	record.CollectedAmount = req.CollectedAmount
	record.Status = target
	record.UpdatedAt = s.clock.Now()

	updates := map[string]any{
		"status":           record.Status,
		"collected_amount": record.CollectedAmount,
		"updated_at":       record.UpdatedAt,
	}
	if err := s.repo.Update(ctx, record.ID.String(), updates); err != nil {
		return jobdomain.Job{}, err
	}

	return *record, nil
}

// SetPaymentState records money collected against the job.
func (s *Service) SetPaymentState(ctx context.Context, id string, state jobdomain.PaymentState) (jobdomain.Job, error) {
	if !state.Valid() {
		return jobdomain.Job{}, jobdomain.ErrInvalidPaymentState
	}

	record, err := s.getByID(ctx, id)
	if err != nil {
		return jobdomain.Job{}, err
	}

	record.PaymentState = state
	record.UpdatedAt = s.clock.Now()

	updates := map[string]any{
		"payment_state": record.PaymentState,
		"updated_at":    record.UpdatedAt,
	}
	if err := s.repo.Update(ctx, record.ID.String(), updates); err != nil {
		return jobdomain.Job{}, err
	}

	return *record, nil
}

// EvaluateAfterPieceChange derives the job status from its pieces' production
// states. It only ever advances: approved → in_production once any piece has
// started, and approved/in_production → ready once every piece is printed or
// packaged. Jobs in any other status are operator-controlled and untouched.
func (s *Service) EvaluateAfterPieceChange(ctx context.Context, jobID snowflake.ID) error {
	if jobID == 0 {
		return jobdomain.ErrInvalidID
	}

	record, err := s.repo.FindOne(ctx, &jobdomain.Job{ID: jobID})
	if err != nil {
		return err
	}
	if record == nil {
		return jobdomain.ErrNotFound
	}
	if !record.Status.AutoEvaluable() {
		return nil
	}

	pieces, err := s.piecerepo.Find(ctx, &piecedomain.Piece{JobID: record.ID})
	if err != nil {
		return err
	}
	if len(pieces) == 0 {
		return nil
	}

	anyStarted := false
	allDone := true
	for _, piece := range pieces {
		if piece.ProductionState.Started() {
			anyStarted = true
		} else {
			allDone = false
		}
	}

	var target jobdomain.Status
	switch {
	case allDone:
		target = jobdomain.StatusReady
	case record.Status == jobdomain.StatusApproved && anyStarted:
		target = jobdomain.StatusInProduction
	default:
		return nil
	}

	if target == record.Status {
		return nil
	}

	if err := s.setStatus(ctx, record, target); err != nil {
		return err
	}

	s.log.Info("job status advanced from production board",
		zap.String("job_id", record.ID.String()),
		zap.String("status", string(target)),
	)
	if s.obs != nil {
		s.obs.JobStatusAutoTransition.WithLabelValues(string(target)).Inc()
	}
	return nil
}

func (s *Service) setStatus(ctx context.Context, record *jobdomain.Job, target jobdomain.Status) error {
	record.Status = target
	record.UpdatedAt = s.clock.Now()

	updates := map[string]any{
		"status":     record.Status,
		"updated_at": record.UpdatedAt,
	}
	return s.repo.Update(ctx, record.ID.String(), updates)
}
