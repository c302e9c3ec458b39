package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/printforge/printforge/internal/clock"
	filamentdomain "github.com/printforge/printforge/internal/filament/domain"
	piecedomain "github.com/printforge/printforge/internal/piece/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupFilamentService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&filamentdomain.Filament{}, &piecedomain.Piece{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
	})
	return svc, db
}

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

func TestCreateDerivesPricePerGram(t *testing.T) {
	svc, _ := setupFilamentService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, filamentdomain.CreateFilamentRequest{
		Material:       "PLA",
		Color:          "black",
		CoilPrice:      d(t, "20.00"),
		CoilGrams:      d(t, "1000"),
		AvailableGrams: d(t, "1000"),
	})
	require.NoError(t, err)
	assert.True(t, created.PricePerGram.Equal(d(t, "0.02")), "got %s", created.PricePerGram)
}

func TestApplyDeltaConsumesAndRestores(t *testing.T) {
	svc, _ := setupFilamentService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, filamentdomain.CreateFilamentRequest{
		Material:       "PETG",
		CoilPrice:      d(t, "26.00"),
		CoilGrams:      d(t, "1000"),
		AvailableGrams: d(t, "500"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.ApplyDelta(ctx, created.ID, d(t, "-120.5")))
	balance, err := svc.AvailableGrams(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(d(t, "379.5")), "got %s", balance)

	require.NoError(t, svc.ApplyDelta(ctx, created.ID, d(t, "120.5")))
	balance, err = svc.AvailableGrams(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(d(t, "500")), "got %s", balance)
}

func TestApplyDeltaUnknownFilament(t *testing.T) {
	svc, _ := setupFilamentService(t)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	err = svc.ApplyDelta(context.Background(), node.Generate(), d(t, "-10"))
	assert.ErrorIs(t, err, filamentdomain.ErrNotFound)
}

func TestApplyDeltaAllowsNegativeBalance(t *testing.T) {
	svc, _ := setupFilamentService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, filamentdomain.CreateFilamentRequest{
		Material:       "PLA",
		CoilPrice:      d(t, "22.00"),
		CoilGrams:      d(t, "1000"),
		AvailableGrams: d(t, "50"),
	})
	require.NoError(t, err)

	// Over-commitment is recorded, not rejected.
	require.NoError(t, svc.ApplyDelta(ctx, created.ID, d(t, "-80")))
	balance, err := svc.AvailableGrams(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(d(t, "-30")), "got %s", balance)
}

func TestRestockRejectsNonPositive(t *testing.T) {
	svc, _ := setupFilamentService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, filamentdomain.CreateFilamentRequest{
		Material:  "PLA",
		CoilPrice: d(t, "22.00"),
		CoilGrams: d(t, "1000"),
	})
	require.NoError(t, err)

	_, err = svc.Restock(ctx, created.ID.String(), d(t, "0"))
	assert.ErrorIs(t, err, filamentdomain.ErrInvalidRestock)

	_, err = svc.Restock(ctx, created.ID.String(), d(t, "-5"))
	assert.ErrorIs(t, err, filamentdomain.ErrInvalidRestock)
}

func TestUpdateRederivesPricePerGram(t *testing.T) {
	svc, _ := setupFilamentService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, filamentdomain.CreateFilamentRequest{
		Material:  "PLA",
		CoilPrice: d(t, "20.00"),
		CoilGrams: d(t, "1000"),
	})
	require.NoError(t, err)

	newPrice := d(t, "25.00")
	updated, err := svc.Update(ctx, created.ID.String(), filamentdomain.UpdateFilamentRequest{
		CoilPrice: &newPrice,
	})
	require.NoError(t, err)
	assert.True(t, updated.PricePerGram.Equal(d(t, "0.025")), "got %s", updated.PricePerGram)
}

func TestDeleteBlockedWhileReferenced(t *testing.T) {
	svc, db := setupFilamentService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, filamentdomain.CreateFilamentRequest{
		Material:  "PLA",
		CoilPrice: d(t, "22.00"),
		CoilGrams: d(t, "1000"),
	})
	require.NoError(t, err)

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	require.NoError(t, db.Create(&piecedomain.Piece{
		ID:         node.Generate(),
		JobID:      node.Generate(),
		Name:       "bracket",
		Quantity:   1,
		FilamentID: created.ID,
	}).Error)

	err = svc.Delete(ctx, created.ID.String())
	assert.ErrorIs(t, err, filamentdomain.ErrStillReferenced)
}
