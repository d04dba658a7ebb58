package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quartermaster/internal/models"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := InitDB("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewGormStore(db)
}

func TestDeleteItemFreesCode(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateItem(ctx, &models.Item{
		Code: "CAM-1", Name: "Camera", Total: 2, Available: 2,
		Status: models.ItemStatusAvailable,
	}))
	require.NoError(t, store.DeleteItem(ctx, "CAM-1"))

	item, err := store.ItemByCode(ctx, "CAM-1")
	require.NoError(t, err)
	assert.Nil(t, item)

	// The code must be free for re-registration after a full removal.
	require.NoError(t, store.CreateItem(ctx, &models.Item{
		Code: "CAM-1", Name: "Camera", Total: 1, Available: 1,
		Status: models.ItemStatusAvailable,
	}))

	item, err = store.ItemByCode(ctx, "CAM-1")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, 1, item.Total)
}

func TestOpenLoanCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateLoan(ctx, &models.Loan{ItemCode: "A-1", Quantity: 1, Status: models.LoanStatusOngoing}))
	require.NoError(t, store.CreateLoan(ctx, &models.Loan{ItemCode: "A-1", Quantity: 1, Status: models.LoanStatusReturned}))
	require.NoError(t, store.CreateLoan(ctx, &models.Loan{ItemCode: "B-1", Quantity: 2, Status: models.LoanStatusOngoing}))

	count, err := store.OpenLoanCount(ctx, "A-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
