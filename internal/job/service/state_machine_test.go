package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/printforge/printforge/internal/clock"
	extradomain "github.com/printforge/printforge/internal/extra/domain"
	filamentdomain "github.com/printforge/printforge/internal/filament/domain"
	filamentservice "github.com/printforge/printforge/internal/filament/service"
	jobdomain "github.com/printforge/printforge/internal/job/domain"
	piecedomain "github.com/printforge/printforge/internal/piece/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type jobFixture struct {
	svc    *Service
	ledger *filamentservice.Service
	db     *gorm.DB
	node   *snowflake.Node
	clk    *clock.FakeClock
}

func setupJobService(t *testing.T) *jobFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&filamentdomain.Filament{},
		&jobdomain.Job{},
		&piecedomain.Piece{},
		&piecedomain.ConsumptionRecord{},
		&extradomain.ExtraApplied{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	ledger := filamentservice.New(filamentservice.ServiceParam{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: clk,
	})

	svc := New(ServiceParam{
		DB:     db,
		Log:    log,
		GenID:  node,
		Clock:  clk,
		Ledger: ledger,
	})

	return &jobFixture{svc: svc, ledger: ledger, db: db, node: node, clk: clk}
}

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

func (f *jobFixture) createJob(t *testing.T) jobdomain.Job {
	t.Helper()
	job, err := f.svc.Create(context.Background(), jobdomain.CreateJobRequest{
		ClientName: "Dana",
		Title:      "terrain set",
	})
	require.NoError(t, err)
	return job
}

func (f *jobFixture) addPiece(t *testing.T, jobID snowflake.ID, state piecedomain.ProductionState) piecedomain.Piece {
	t.Helper()
	piece := piecedomain.Piece{
		ID:              f.node.Generate(),
		JobID:           jobID,
		Name:            "part",
		Quantity:        1,
		FilamentID:      f.node.Generate(),
		GramsPerUnit:    d(t, "10"),
		ProductionState: state,
		CreatedAt:       f.clk.Now(),
		UpdatedAt:       f.clk.Now(),
	}
	require.NoError(t, f.db.Create(&piece).Error)
	return piece
}

func TestApproveOnlyFromQuoted(t *testing.T) {
	f := setupJobService(t)
	ctx := context.Background()

	job := f.createJob(t)
	approved, err := f.svc.Approve(ctx, job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, jobdomain.StatusApproved, approved.Status)

	_, err = f.svc.Approve(ctx, job.ID.String())
	assert.ErrorIs(t, err, jobdomain.ErrInvalidTransition)
}

func TestEvaluateAdvancesThroughProduction(t *testing.T) {
	f := setupJobService(t)
	ctx := context.Background()

	job := f.createJob(t)
	first := f.addPiece(t, job.ID, piecedomain.ProductionStateNotPrinted)
	second := f.addPiece(t, job.ID, piecedomain.ProductionStateNotPrinted)

	_, err := f.svc.Approve(ctx, job.ID.String())
	require.NoError(t, err)

	// One piece starts printing: approved → in_production.
	require.NoError(t, f.db.Model(&piecedomain.Piece{}).Where("id = ?", first.ID).
		Update("production_state", piecedomain.ProductionStatePrinted).Error)
	require.NoError(t, f.svc.EvaluateAfterPieceChange(ctx, job.ID))

	current, err := f.svc.GetByID(ctx, job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, jobdomain.StatusInProduction, current.Status)

	// Both pieces packaged: in_production → ready.
	require.NoError(t, f.db.Model(&piecedomain.Piece{}).Where("id IN ?", []snowflake.ID{first.ID, second.ID}).
		Update("production_state", piecedomain.ProductionStatePackaged).Error)
	require.NoError(t, f.svc.EvaluateAfterPieceChange(ctx, job.ID))

	current, err = f.svc.GetByID(ctx, job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, jobdomain.StatusReady, current.Status)

	delivered, err := f.svc.MarkDelivered(ctx, job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, jobdomain.StatusDelivered, delivered.Status)
}

func TestEvaluateSkipsQuotedAndNeverRegresses(t *testing.T) {
	f := setupJobService(t)
	ctx := context.Background()

	job := f.createJob(t)
	piece := f.addPiece(t, job.ID, piecedomain.ProductionStatePackaged)

	// Quoted jobs are never advanced by piece movement.
	require.NoError(t, f.svc.EvaluateAfterPieceChange(ctx, job.ID))
	current, err := f.svc.GetByID(ctx, job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, jobdomain.StatusQuoted, current.Status)

	_, err = f.svc.Approve(ctx, job.ID.String())
	require.NoError(t, err)
	require.NoError(t, f.svc.EvaluateAfterPieceChange(ctx, job.ID))
	current, err = f.svc.GetByID(ctx, job.ID.String())
	require.NoError(t, err)
	require.Equal(t, jobdomain.StatusReady, current.Status)

	// A piece reverting on the board never pulls the job back.
	require.NoError(t, f.db.Model(&piecedomain.Piece{}).Where("id = ?", piece.ID).
		Update("production_state", piecedomain.ProductionStateNotPrinted).Error)
	require.NoError(t, f.svc.EvaluateAfterPieceChange(ctx, job.ID))
	current, err = f.svc.GetByID(ctx, job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, jobdomain.StatusReady, current.Status)
}

func TestEvaluateIgnoresEmptyJob(t *testing.T) {
	f := setupJobService(t)
	ctx := context.Background()

	job := f.createJob(t)
	_, err := f.svc.Approve(ctx, job.ID.String())
	require.NoError(t, err)

	// No pieces: the job must not jump straight to ready.
	require.NoError(t, f.svc.EvaluateAfterPieceChange(ctx, job.ID))
	current, err := f.svc.GetByID(ctx, job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, jobdomain.StatusApproved, current.Status)
}

func TestCancelRecordsCollectedAmount(t *testing.T) {
	f := setupJobService(t)
	ctx := context.Background()

	job := f.createJob(t)
	cancelled, err := f.svc.Cancel(ctx, job.ID.String(), jobdomain.CancelJobRequest{
		CollectedAmount: d(t, "25.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, jobdomain.StatusCancelled, cancelled.Status)
	assert.True(t, cancelled.CollectedAmount.Equal(d(t, "25.00")))

	_, err = f.svc.Cancel(ctx, job.ID.String(), jobdomain.CancelJobRequest{})
	assert.ErrorIs(t, err, jobdomain.ErrJobTerminal)
}

func TestPartialCancelStaysEditable(t *testing.T) {
	f := setupJobService(t)
	ctx := context.Background()

	job := f.createJob(t)
	partial, err := f.svc.Cancel(ctx, job.ID.String(), jobdomain.CancelJobRequest{
		CollectedAmount: d(t, "10.00"),
		Partial:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, jobdomain.StatusPartiallyCancelled, partial.Status)

	// Partial cancellation is not terminal; a full cancel may follow.
	full, err := f.svc.Cancel(ctx, job.ID.String(), jobdomain.CancelJobRequest{
		CollectedAmount: d(t, "10.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, jobdomain.StatusCancelled, full.Status)
}

func TestCancelRejectsNegativeCollected(t *testing.T) {
	f := setupJobService(t)

	job := f.createJob(t)
	_, err := f.svc.Cancel(context.Background(), job.ID.String(), jobdomain.CancelJobRequest{
		CollectedAmount: d(t, "-1"),
	})
	assert.ErrorIs(t, err, jobdomain.ErrInvalidCollected)
}

func TestDeleteRestoresPieceMass(t *testing.T) {
	f := setupJobService(t)
	ctx := context.Background()

	filament, err := f.ledger.Create(ctx, filamentdomain.CreateFilamentRequest{
		Material:       "PLA",
		CoilPrice:      d(t, "20.00"),
		CoilGrams:      d(t, "1000"),
		AvailableGrams: d(t, "900"),
	})
	require.NoError(t, err)

	job := f.createJob(t)
	piece := piecedomain.Piece{
		ID:           f.node.Generate(),
		JobID:        job.ID,
		Name:         "part",
		Quantity:     2,
		FilamentID:   filament.ID,
		GramsPerUnit: d(t, "50"),
		CreatedAt:    f.clk.Now(),
		UpdatedAt:    f.clk.Now(),
	}
	require.NoError(t, f.db.Create(&piece).Error)

	require.NoError(t, f.svc.Delete(ctx, job.ID.String()))

	balance, err := f.ledger.AvailableGrams(ctx, filament.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(d(t, "1000")), "got %s", balance)

	var count int64
	require.NoError(t, f.db.Model(&piecedomain.Piece{}).Where("job_id = ?", job.ID).Count(&count).Error)
	assert.Zero(t, count)

	_, err = f.svc.GetByID(ctx, job.ID.String())
	assert.ErrorIs(t, err, jobdomain.ErrNotFound)
}

func TestSetPaymentState(t *testing.T) {
	f := setupJobService(t)
	ctx := context.Background()

	job := f.createJob(t)
	updated, err := f.svc.SetPaymentState(ctx, job.ID.String(), jobdomain.PaymentStateDeposit)
	require.NoError(t, err)
	assert.Equal(t, jobdomain.PaymentStateDeposit, updated.PaymentState)

	_, err = f.svc.SetPaymentState(ctx, job.ID.String(), jobdomain.PaymentState("invoiced"))
	assert.ErrorIs(t, err, jobdomain.ErrInvalidPaymentState)
}
