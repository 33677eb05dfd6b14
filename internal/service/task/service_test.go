package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/sistemact/internal/database/databasetest"
	"github.com/Additional-Code/sistemact/internal/entity"
	repo "github.com/Additional-Code/sistemact/internal/repository/task"
	"github.com/Additional-Code/sistemact/pkg/errorbank"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(repo.NewRepository(databasetest.NewSQLite(t)), zap.NewNop())
}

func TestCreateDefaultsPriority(t *testing.T) {
	svc := newService(t)
	task := &entity.Task{Description: "  Reponer cajas  "}

	require.NoError(t, svc.Create(context.Background(), task))
	assert.NotZero(t, task.ID)
	assert.Equal(t, "Reponer cajas", task.Description)
	assert.Equal(t, PriorityMedium, task.Priority)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc := newService(t)

	err := svc.Create(context.Background(), &entity.Task{})
	require.True(t, errorbank.Is(err, errorbank.KindBadRequest))

	err = svc.Create(context.Background(), &entity.Task{Description: "x", Priority: "urgente"})
	require.True(t, errorbank.Is(err, errorbank.KindBadRequest))
}

func TestUpdateAndDeleteMany(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	a := &entity.Task{Description: "a"}
	b := &entity.Task{Description: "b", Priority: "ALTA"}
	require.NoError(t, svc.Create(ctx, a))
	require.NoError(t, svc.Create(ctx, b))

	updated, err := svc.Update(ctx, a.ID, &entity.Task{Description: "a2", Priority: PriorityLow, Completed: true})
	require.NoError(t, err)
	assert.Equal(t, "a2", updated.Description)
	assert.True(t, updated.Completed)
	assert.False(t, updated.CreatedAt.IsZero())

	_, err = svc.Update(ctx, 999, &entity.Task{Description: "x"})
	require.True(t, errorbank.Is(err, errorbank.KindNotFound))

	n, err := svc.DeleteMany(ctx, []int64{a.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	tasks, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	_, err = svc.DeleteMany(ctx, nil)
	require.True(t, errorbank.Is(err, errorbank.KindBadRequest))
}
