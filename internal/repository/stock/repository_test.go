package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/sistemact/internal/database/databasetest"
	"github.com/Additional-Code/sistemact/internal/entity"
)

func TestIncomingStockLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(databasetest.NewSQLite(t))

	item := &entity.IncomingStock{Barcode: "7790001", SKU: "R-1", Article: "Remera lisa", Quantity: 12}
	require.NoError(t, repo.Create(ctx, item))

	item.Checked = true
	item.Quantity = 10
	require.NoError(t, repo.Update(ctx, item))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.Checked)
	assert.Equal(t, 10, got.Quantity)

	n, err := repo.DeleteMany(ctx, []int64{item.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	n, err = repo.DeleteMany(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
