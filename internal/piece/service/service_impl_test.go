package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/printforge/printforge/internal/clock"
	"github.com/printforge/printforge/internal/config"
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

type evaluatorStub struct {
	mu    sync.Mutex
	calls []snowflake.ID
}

func (e *evaluatorStub) EvaluateAfterPieceChange(ctx context.Context, jobID snowflake.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, jobID)
	return nil
}

func (e *evaluatorStub) Calls() []snowflake.ID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]snowflake.ID(nil), e.calls...)
}

type pieceFixture struct {
	svc      piecedomain.Service
	ledger   *filamentservice.Service
	eval     *evaluatorStub
	db       *gorm.DB
	node     *snowflake.Node
	jobID    snowflake.ID
	filament filamentdomain.Filament
}

func setupPieceService(t *testing.T) *pieceFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&filamentdomain.Filament{},
		&jobdomain.Job{},
		&piecedomain.Piece{},
		&piecedomain.ConsumptionRecord{},
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

	filament, err := ledger.Create(context.Background(), filamentdomain.CreateFilamentRequest{
		Material:       "PLA",
		Color:          "black",
		CoilPrice:      d(t, "20.00"),
		CoilGrams:      d(t, "1000"),
		AvailableGrams: d(t, "1000"),
	})
	require.NoError(t, err)

	jobID := node.Generate()
	require.NoError(t, db.Create(&jobdomain.Job{
		ID:         jobID,
		ClientName: "Dana",
		Title:      "terrain set",
		Status:     jobdomain.StatusQuoted,
		CreatedAt:  clk.Now(),
		UpdatedAt:  clk.Now(),
	}).Error)

	eval := &evaluatorStub{}
	svc := NewService(ServiceParam{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: clk,
		Cfg: config.Config{Rates: config.Rates{
			PrintHourRate:    d(t, "0.50"),
			ModelingHourRate: d(t, "8.00"),
		}},
		Ledger:    ledger,
		Evaluator: eval,
	})

	return &pieceFixture{
		svc:      svc,
		ledger:   ledger,
		eval:     eval,
		db:       db,
		node:     node,
		jobID:    jobID,
		filament: filament,
	}
}

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

func (f *pieceFixture) balance(t *testing.T, id snowflake.ID) decimal.Decimal {
	t.Helper()
	balance, err := f.ledger.AvailableGrams(context.Background(), id)
	require.NoError(t, err)
	return balance
}

func TestCreateConsumesMass(t *testing.T) {
	f := setupPieceService(t)
	ctx := context.Background()

	piece, err := f.svc.Create(ctx, piecedomain.CreatePieceRequest{
		JobID:            f.jobID.String(),
		Name:             "tower",
		Quantity:         2,
		FilamentID:       f.filament.ID.String(),
		GramsPerUnit:     d(t, "30"),
		BasePricePerUnit: d(t, "10.00"),
	})
	require.NoError(t, err)

	assert.True(t, f.balance(t, f.filament.ID).Equal(d(t, "940")))
	assert.True(t, piece.PricePerGram.Equal(d(t, "0.02")), "got %s", piece.PricePerGram)

	var records []piecedomain.ConsumptionRecord
	require.NoError(t, f.db.Where("piece_id = ?", piece.ID).Find(&records).Error)
	require.Len(t, records, 1)
	assert.True(t, records[0].TotalGrams.Equal(d(t, "60")))
}

func TestResaveIdenticalInputsNetsZeroDelta(t *testing.T) {
	f := setupPieceService(t)
	ctx := context.Background()

	piece, err := f.svc.Create(ctx, piecedomain.CreatePieceRequest{
		JobID:        f.jobID.String(),
		Name:         "tower",
		Quantity:     2,
		FilamentID:   f.filament.ID.String(),
		GramsPerUnit: d(t, "30"),
	})
	require.NoError(t, err)
	require.True(t, f.balance(t, f.filament.ID).Equal(d(t, "940")))

	same := d(t, "30")
	_, err = f.svc.Update(ctx, piece.ID.String(), piecedomain.UpdatePieceRequest{
		GramsPerUnit: &same,
	})
	require.NoError(t, err)

	assert.True(t, f.balance(t, f.filament.ID).Equal(d(t, "940")), "re-save must not move the ledger")
}

func TestUpdateSettlesNetDeltaOnSameFilament(t *testing.T) {
	f := setupPieceService(t)
	ctx := context.Background()

	piece, err := f.svc.Create(ctx, piecedomain.CreatePieceRequest{
		JobID:        f.jobID.String(),
		Name:         "tower",
		Quantity:     2,
		FilamentID:   f.filament.ID.String(),
		GramsPerUnit: d(t, "30"),
	})
	require.NoError(t, err)

	smaller := d(t, "20")
	_, err = f.svc.Update(ctx, piece.ID.String(), piecedomain.UpdatePieceRequest{
		GramsPerUnit: &smaller,
	})
	require.NoError(t, err)

	// 1000 - 60 + 20 = 960
	assert.True(t, f.balance(t, f.filament.ID).Equal(d(t, "960")))
}

func TestUpdateReassignsFilamentBothLegs(t *testing.T) {
	f := setupPieceService(t)
	ctx := context.Background()

	other, err := f.ledger.Create(ctx, filamentdomain.CreateFilamentRequest{
		Material:       "PETG",
		CoilPrice:      d(t, "26.00"),
		CoilGrams:      d(t, "1000"),
		AvailableGrams: d(t, "500"),
	})
	require.NoError(t, err)

	piece, err := f.svc.Create(ctx, piecedomain.CreatePieceRequest{
		JobID:        f.jobID.String(),
		Name:         "tower",
		Quantity:     2,
		FilamentID:   f.filament.ID.String(),
		GramsPerUnit: d(t, "50"),
	})
	require.NoError(t, err)
	require.True(t, f.balance(t, f.filament.ID).Equal(d(t, "900")))

	otherID := other.ID.String()
	grams := d(t, "20")
	updated, err := f.svc.Update(ctx, piece.ID.String(), piecedomain.UpdatePieceRequest{
		FilamentID:   &otherID,
		GramsPerUnit: &grams,
	})
	require.NoError(t, err)

	assert.True(t, f.balance(t, f.filament.ID).Equal(d(t, "1000")), "old filament restored in full")
	assert.True(t, f.balance(t, other.ID).Equal(d(t, "460")), "new filament consumed")
	assert.True(t, updated.PricePerGram.Equal(d(t, "0.026")), "price re-snapshotted from new filament, got %s", updated.PricePerGram)
}

func TestUpdateReassignmentReportsPartialFailure(t *testing.T) {
	f := setupPieceService(t)
	ctx := context.Background()

	other, err := f.ledger.Create(ctx, filamentdomain.CreateFilamentRequest{
		Material:       "PETG",
		CoilPrice:      d(t, "26.00"),
		CoilGrams:      d(t, "1000"),
		AvailableGrams: d(t, "500"),
	})
	require.NoError(t, err)

	piece, err := f.svc.Create(ctx, piecedomain.CreatePieceRequest{
		JobID:        f.jobID.String(),
		Name:         "tower",
		Quantity:     1,
		FilamentID:   f.filament.ID.String(),
		GramsPerUnit: d(t, "50"),
	})
	require.NoError(t, err)

	// Yank the old filament out from under the piece so the restore leg has
	// nothing to write to.
	require.NoError(t, f.db.Delete(&filamentdomain.Filament{}, "id = ?", f.filament.ID).Error)

	otherID := other.ID.String()
	_, err = f.svc.Update(ctx, piece.ID.String(), piecedomain.UpdatePieceRequest{
		FilamentID: &otherID,
	})
	require.Error(t, err)

	var partial *piecedomain.PartialReconciliationError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, piecedomain.LegRestoreOld, partial.Leg)
	assert.Equal(t, f.filament.ID, partial.FilamentID)

	// The consume leg still ran.
	assert.True(t, f.balance(t, other.ID).Equal(d(t, "450")))
}

func TestUpdateRejectsZeroQuantity(t *testing.T) {
	f := setupPieceService(t)
	ctx := context.Background()

	piece, err := f.svc.Create(ctx, piecedomain.CreatePieceRequest{
		JobID:        f.jobID.String(),
		Name:         "tower",
		Quantity:     2,
		FilamentID:   f.filament.ID.String(),
		GramsPerUnit: d(t, "30"),
	})
	require.NoError(t, err)

	zero := int64(0)
	_, err = f.svc.Update(ctx, piece.ID.String(), piecedomain.UpdatePieceRequest{
		Quantity: &zero,
	})
	assert.ErrorIs(t, err, piecedomain.ErrInvalidQuantity)

	// The rejected edit must not have touched the ledger.
	assert.True(t, f.balance(t, f.filament.ID).Equal(d(t, "940")))
}

func TestDeleteRestoresHeldMass(t *testing.T) {
	f := setupPieceService(t)
	ctx := context.Background()

	piece, err := f.svc.Create(ctx, piecedomain.CreatePieceRequest{
		JobID:        f.jobID.String(),
		Name:         "tower",
		Quantity:     3,
		FilamentID:   f.filament.ID.String(),
		GramsPerUnit: d(t, "25"),
	})
	require.NoError(t, err)
	require.True(t, f.balance(t, f.filament.ID).Equal(d(t, "925")))

	require.NoError(t, f.svc.Delete(ctx, piece.ID.String()))
	assert.True(t, f.balance(t, f.filament.ID).Equal(d(t, "1000")))

	var count int64
	require.NoError(t, f.db.Model(&piecedomain.ConsumptionRecord{}).Where("piece_id = ?", piece.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteToleratesMissingFilament(t *testing.T) {
	f := setupPieceService(t)
	ctx := context.Background()

	piece, err := f.svc.Create(ctx, piecedomain.CreatePieceRequest{
		JobID:        f.jobID.String(),
		Name:         "tower",
		Quantity:     1,
		FilamentID:   f.filament.ID.String(),
		GramsPerUnit: d(t, "25"),
	})
	require.NoError(t, err)

	require.NoError(t, f.db.Delete(&filamentdomain.Filament{}, "id = ?", f.filament.ID).Error)

	assert.NoError(t, f.svc.Delete(ctx, piece.ID.String()))
}

func TestSetProductionStateNotifiesEvaluator(t *testing.T) {
	f := setupPieceService(t)
	ctx := context.Background()

	piece, err := f.svc.Create(ctx, piecedomain.CreatePieceRequest{
		JobID:        f.jobID.String(),
		Name:         "tower",
		Quantity:     1,
		FilamentID:   f.filament.ID.String(),
		GramsPerUnit: d(t, "25"),
	})
	require.NoError(t, err)

	updated, err := f.svc.SetProductionState(ctx, piece.ID.String(), piecedomain.ProductionStatePrinted)
	require.NoError(t, err)
	assert.Equal(t, piecedomain.ProductionStatePrinted, updated.ProductionState)
	assert.Equal(t, []snowflake.ID{f.jobID}, f.eval.Calls())

	// Setting the same state again is a no-op.
	_, err = f.svc.SetProductionState(ctx, piece.ID.String(), piecedomain.ProductionStatePrinted)
	require.NoError(t, err)
	assert.Len(t, f.eval.Calls(), 1)

	_, err = f.svc.SetProductionState(ctx, piece.ID.String(), piecedomain.ProductionState("shipped"))
	assert.ErrorIs(t, err, piecedomain.ErrInvalidProduction)
}
