package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"leave-balance-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecomputeWithoutSessions(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	summary, err := env.summaries.Recompute(user.ID, testBase)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.TotalLeaveMinutes)
	assert.Equal(t, 0, summary.TotalExtraWorkMinutes)
	assert.Equal(t, 0, summary.PendingMinutes)
}

func TestRecomputeCapsLeaveMinutes(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	_, err := env.leaves.StartLeave(user.ID, testBase, 60, "дела")
	require.NoError(t, err)

	// Пересидел: 200 минут при лимите 150
	_, err = env.leaves.EndLeave(user.ID, testBase.Add(200*time.Minute))
	require.NoError(t, err)

	summary, err := env.summaries.GetForDay(user.ID, testBase)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, 200, summary.TotalLeaveMinutes)
	assert.Equal(t, testCapMinutes, summary.PendingMinutes)
}

func TestExtraWorkReducesPending(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	_, err := env.leaves.StartLeave(user.ID, testBase, 60, "дела")
	require.NoError(t, err)
	_, err = env.leaves.EndLeave(user.ID, testBase.Add(200*time.Minute))
	require.NoError(t, err)

	workStart := testBase.Add(210 * time.Minute)
	_, err = env.work.StartWork(user.ID, workStart, "")
	require.NoError(t, err)
	_, err = env.work.EndWork(user.ID, workStart.Add(100*time.Minute), "доделал отчет")
	require.NoError(t, err)

	summary, err := env.summaries.GetForDay(user.ID, testBase)
	require.NoError(t, err)
	assert.Equal(t, 50, summary.PendingMinutes)

	// Переработка сверх долга не уводит баланс в минус
	workStart = testBase.Add(320 * time.Minute)
	_, err = env.work.StartWork(user.ID, workStart, "")
	require.NoError(t, err)
	_, err = env.work.EndWork(user.ID, workStart.Add(120*time.Minute), "еще задачи")
	require.NoError(t, err)

	summary, err = env.summaries.GetForDay(user.ID, testBase)
	require.NoError(t, err)
	assert.Equal(t, 220, summary.TotalExtraWorkMinutes)
	assert.Equal(t, 0, summary.PendingMinutes)
}

func TestAddShortfallAccumulates(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	summary, err := env.summaries.AddShortfall(user.ID, testBase, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, summary.ShortfallMinutes)
	assert.Equal(t, 30, summary.PendingMinutes)

	summary, err = env.summaries.AddShortfall(user.ID, testBase, 15)
	require.NoError(t, err)
	assert.Equal(t, 45, summary.ShortfallMinutes)
	assert.Equal(t, 45, summary.PendingMinutes)

	// Пересчет из сессий не затирает накопленный недобор
	summary, err = env.summaries.Recompute(user.ID, testBase)
	require.NoError(t, err)
	assert.Equal(t, 45, summary.ShortfallMinutes)
	assert.Equal(t, 45, summary.PendingMinutes)
}

func TestAddShortfallRejectsNonPositive(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	_, err := env.summaries.AddShortfall(user.ID, testBase, 0)
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = env.summaries.AddShortfall(user.ID, testBase, -10)
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestUpsertConcurrentFirstWrite(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	// Первые записи сводки за одну дату наперегонки: все проходят,
	// строка остается одна
	const writers = 4

	var wg sync.WaitGroup
	results := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.summaries.Recompute(user.ID, testBase)
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	for err := range results {
		require.NoError(t, err)
	}

	summaries, err := env.summaryRepo.GetByDate(testBase)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, user.ID, summaries[0].UserID)
}

func TestRecomputeIdempotent(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	_, err := env.leaves.StartLeave(user.ID, testBase, 30, "обед")
	require.NoError(t, err)
	_, err = env.leaves.EndLeave(user.ID, testBase.Add(45*time.Minute))
	require.NoError(t, err)

	first, err := env.summaries.Recompute(user.ID, testBase)
	require.NoError(t, err)

	second, err := env.summaries.Recompute(user.ID, testBase)
	require.NoError(t, err)

	assert.Equal(t, first.TotalLeaveMinutes, second.TotalLeaveMinutes)
	assert.Equal(t, first.TotalExtraWorkMinutes, second.TotalExtraWorkMinutes)
	assert.Equal(t, first.ShortfallMinutes, second.ShortfallMinutes)
	assert.Equal(t, first.PendingMinutes, second.PendingMinutes)
}
