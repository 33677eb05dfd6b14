package credential

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/sistemact/internal/database/databasetest"
	"github.com/Additional-Code/sistemact/internal/entity"
)

func TestUpsertReplacesExistingAccount(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(databasetest.NewSQLite(t))

	first := &entity.Credential{Platform: "tiendanube", AccountID: "123", AccessToken: "old", TokenType: "bearer"}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &entity.Credential{Platform: "tiendanube", AccountID: "123", AccessToken: "new", Scope: "read_orders"}
	require.NoError(t, repo.Upsert(ctx, second))

	count, err := repo.CountForAccount(ctx, "tiendanube", "123")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := repo.ForAccount(ctx, "tiendanube", "123")
	require.NoError(t, err)
	assert.Equal(t, "new", got.AccessToken)
	assert.Equal(t, "read_orders", got.Scope)
	assert.Equal(t, first.ID, got.ID)
}

func TestLatestPicksNewestIssued(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(databasetest.NewSQLite(t))

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, &entity.Credential{Platform: "mercadolibre", AccountID: "a", AccessToken: "a", IssuedAt: base}))
	require.NoError(t, repo.Upsert(ctx, &entity.Credential{Platform: "mercadolibre", AccountID: "b", AccessToken: "b", IssuedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Upsert(ctx, &entity.Credential{Platform: "tiendanube", AccountID: "c", AccessToken: "c", IssuedAt: base.Add(2 * time.Hour)}))

	got, err := repo.Latest(ctx, "mercadolibre")
	require.NoError(t, err)
	assert.Equal(t, "b", got.AccountID)
}

func TestMissingCredential(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(databasetest.NewSQLite(t))

	_, err := repo.Latest(ctx, "tiendanube")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = repo.ForAccount(ctx, "tiendanube", "x")
	require.ErrorIs(t, err, ErrNotFound)
}
