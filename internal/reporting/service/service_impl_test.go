package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	extradomain "github.com/printforge/printforge/internal/extra/domain"
	jobdomain "github.com/printforge/printforge/internal/job/domain"
	piecedomain "github.com/printforge/printforge/internal/piece/domain"
	"github.com/printforge/printforge/internal/reporting/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type reportingFixture struct {
	svc  *Service
	db   *gorm.DB
	node *snowflake.Node
}

func setupReportingService(t *testing.T) *reportingFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&jobdomain.Job{},
		&piecedomain.Piece{},
		&extradomain.ExtraApplied{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(ServiceParam{
		DB:  db,
		Log: zap.NewNop(),
	})

	return &reportingFixture{svc: svc, db: db, node: node}
}

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

func (f *reportingFixture) createJob(t *testing.T, status jobdomain.Status, collected string, createdAt time.Time) jobdomain.Job {
	t.Helper()
	job := jobdomain.Job{
		ID:              f.node.Generate(),
		ClientName:      "Dana",
		Title:           "terrain set",
		Status:          status,
		PaymentState:    jobdomain.PaymentStateUnpaid,
		CollectedAmount: d(t, collected),
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
	require.NoError(t, f.db.Create(&job).Error)
	return job
}

func (f *reportingFixture) addPiece(t *testing.T, jobID snowflake.ID, lineRevenue, lineCost string) {
	t.Helper()
	require.NoError(t, f.db.Create(&piecedomain.Piece{
		ID:          f.node.Generate(),
		JobID:       jobID,
		Name:        "part",
		Quantity:    1,
		FilamentID:  f.node.Generate(),
		LineRevenue: d(t, lineRevenue),
		LineCost:    d(t, lineCost),
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}).Error)
}

func (f *reportingFixture) addExtra(t *testing.T, jobID snowflake.ID, subtotal string, revenue, cost bool) {
	t.Helper()
	require.NoError(t, f.db.Create(&extradomain.ExtraApplied{
		ID:              f.node.Generate(),
		JobID:           jobID,
		CatalogEntryID:  f.node.Generate(),
		Quantity:        1,
		UnitPrice:       d(t, subtotal),
		Subtotal:        d(t, subtotal),
		CountsAsRevenue: revenue,
		CountsAsCost:    cost,
		CreatedAt:       time.Now().UTC(),
	}).Error)
}

func TestJobTotalsFoldsPiecesAndExtras(t *testing.T) {
	f := setupReportingService(t)
	ctx := context.Background()

	job := f.createJob(t, jobdomain.StatusApproved, "0", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	f.addPiece(t, job.ID, "58.00", "18.00")
	f.addPiece(t, job.ID, "11.60", "3.60")
	f.addExtra(t, job.ID, "8.00", true, false)  // billed shipping
	f.addExtra(t, job.ID, "4.50", false, true)  // pass-through cost

	totals, err := f.svc.JobTotals(ctx, job.ID.String())
	require.NoError(t, err)

	assert.True(t, totals.PiecesRevenue.Equal(d(t, "69.60")), "got %s", totals.PiecesRevenue)
	assert.True(t, totals.PiecesCost.Equal(d(t, "21.60")), "got %s", totals.PiecesCost)
	assert.True(t, totals.ExtrasRevenue.Equal(d(t, "8.00")))
	assert.True(t, totals.ExtrasCost.Equal(d(t, "4.50")))
	assert.True(t, totals.GrossRevenue.Equal(d(t, "77.60")))
	assert.True(t, totals.GrossCost.Equal(d(t, "26.10")))
	assert.True(t, totals.Margin.Equal(d(t, "51.50")))
	assert.False(t, totals.RevenueOverridden)
}

func TestJobTotalsCancelledBillsCollectedAmount(t *testing.T) {
	f := setupReportingService(t)
	ctx := context.Background()

	job := f.createJob(t, jobdomain.StatusCancelled, "25.00", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	f.addPiece(t, job.ID, "58.00", "18.00")

	totals, err := f.svc.JobTotals(ctx, job.ID.String())
	require.NoError(t, err)

	// Billing stops at what was collected; incurred cost stays on the books.
	assert.True(t, totals.GrossRevenue.Equal(d(t, "25.00")))
	assert.True(t, totals.GrossCost.Equal(d(t, "18.00")))
	assert.True(t, totals.Margin.Equal(d(t, "7.00")))
	assert.True(t, totals.RevenueOverridden)
}

func TestJobTotalsPartiallyCancelled(t *testing.T) {
	f := setupReportingService(t)
	ctx := context.Background()

	job := f.createJob(t, jobdomain.StatusPartiallyCancelled, "40.00", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	f.addPiece(t, job.ID, "58.00", "18.00")

	totals, err := f.svc.JobTotals(ctx, job.ID.String())
	require.NoError(t, err)
	assert.True(t, totals.GrossRevenue.Equal(d(t, "40.00")))
	assert.True(t, totals.RevenueOverridden)
}

func TestJobTotalsUnknownJob(t *testing.T) {
	f := setupReportingService(t)

	_, err := f.svc.JobTotals(context.Background(), f.node.Generate().String())
	assert.ErrorIs(t, err, jobdomain.ErrNotFound)

	_, err = f.svc.JobTotals(context.Background(), "not-a-number")
	assert.ErrorIs(t, err, domain.ErrInvalidJob)
}

func TestPeriodTotalsRollsUpWindow(t *testing.T) {
	f := setupReportingService(t)
	ctx := context.Background()

	inWindow := f.createJob(t, jobdomain.StatusDelivered, "0", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	f.addPiece(t, inWindow.ID, "100.00", "30.00")

	cancelled := f.createJob(t, jobdomain.StatusCancelled, "20.00", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	f.addPiece(t, cancelled.ID, "50.00", "10.00")

	outside := f.createJob(t, jobdomain.StatusDelivered, "0", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	f.addPiece(t, outside.ID, "999.00", "1.00")

	totals, err := f.svc.PeriodTotals(ctx,
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	assert.Equal(t, 2, totals.JobCount)
	assert.True(t, totals.GrossRevenue.Equal(d(t, "120.00")), "got %s", totals.GrossRevenue)
	assert.True(t, totals.GrossCost.Equal(d(t, "40.00")))
	assert.True(t, totals.Margin.Equal(d(t, "80.00")))
	assert.Equal(t, 1, totals.ByStatus[string(jobdomain.StatusDelivered)])
	assert.Equal(t, 1, totals.ByStatus[string(jobdomain.StatusCancelled)])
}

func TestPeriodTotalsRejectsInvertedWindow(t *testing.T) {
	f := setupReportingService(t)

	_, err := f.svc.PeriodTotals(context.Background(),
		time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}
