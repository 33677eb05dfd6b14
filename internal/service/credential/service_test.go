package credential

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/sistemact/internal/cache"
	"github.com/Additional-Code/sistemact/internal/database/databasetest"
	"github.com/Additional-Code/sistemact/internal/entity"
	repo "github.com/Additional-Code/sistemact/internal/repository/credential"
	"github.com/Additional-Code/sistemact/pkg/errorbank"
)

func newService(t *testing.T) (*Service, *cache.MemoryStore) {
	t.Helper()
	store := cache.NewMemoryStore(time.Minute)
	return &Service{
		repo:     repo.NewRepository(databasetest.NewSQLite(t)),
		cache:    store,
		cacheTTL: time.Minute,
		logger:   zap.NewNop(),
	}, store
}

func cred(account, token string, issued time.Time) *entity.Credential {
	return &entity.Credential{Platform: "tiendanube", AccountID: account, AccessToken: token, IssuedAt: issued}
}

func TestLatestNotFound(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Latest(context.Background(), "tiendanube")
	require.True(t, errorbank.Is(err, errorbank.KindNotFound))
}

func TestUpsertReplacesAccountAndInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, svc.Upsert(ctx, cred("777", "old", t0)))
	got, err := svc.Latest(ctx, "tiendanube")
	require.NoError(t, err)
	assert.Equal(t, "old", got.AccessToken)

	_, err = store.Get(ctx, cache.LatestCredentialKey("tiendanube"))
	require.NoError(t, err, "latest credential should be cached")

	require.NoError(t, svc.Upsert(ctx, cred("777", "new", t0.Add(time.Hour))))
	_, err = store.Get(ctx, cache.LatestCredentialKey("tiendanube"))
	require.ErrorIs(t, err, cache.ErrCacheMiss)

	got, err = svc.Latest(ctx, "tiendanube")
	require.NoError(t, err)
	assert.Equal(t, "new", got.AccessToken)

	n, err := svc.repo.CountForAccount(ctx, "tiendanube", "777")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLatestPicksNewestAccount(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, svc.Upsert(ctx, cred("1", "a", t0)))
	require.NoError(t, svc.Upsert(ctx, cred("2", "b", t0.Add(time.Minute))))

	got, err := svc.Latest(ctx, "tiendanube")
	require.NoError(t, err)
	assert.Equal(t, "2", got.AccountID)

	acct, err := svc.ForAccount(ctx, "tiendanube", "1")
	require.NoError(t, err)
	assert.Equal(t, "a", acct.AccessToken)

	_, err = svc.ForAccount(ctx, "tiendanube", "3")
	require.True(t, errorbank.Is(err, errorbank.KindNotFound))
}

func TestUpsertValidates(t *testing.T) {
	svc, _ := newService(t)
	err := svc.Upsert(context.Background(), &entity.Credential{Platform: "tiendanube"})
	require.True(t, errorbank.Is(err, errorbank.KindBadRequest))
}
