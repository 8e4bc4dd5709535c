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

func TestStartLeaveRejectsSecondActive(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	_, err := env.leaves.StartLeave(user.ID, testBase, 60, "дела")
	require.NoError(t, err)

	_, err = env.leaves.StartLeave(user.ID, testBase.Add(5*time.Minute), 30, "еще дела")
	assert.True(t, errors.Is(err, models.ErrConflict))
}

func TestStartLeaveValidation(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	_, err := env.leaves.StartLeave(user.ID, testBase, 0, "дела")
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = env.leaves.StartLeave(user.ID, testBase, -30, "дела")
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestEndLeaveWithoutActive(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	_, err := env.leaves.EndLeave(user.ID, testBase)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestEndThenStartAgain(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	_, err := env.leaves.StartLeave(user.ID, testBase, 30, "обед")
	require.NoError(t, err)
	_, err = env.leaves.EndLeave(user.ID, testBase.Add(35*time.Minute))
	require.NoError(t, err)

	// После закрытия новая отлучка в тот же день разрешена
	session, err := env.leaves.StartLeave(user.ID, testBase.Add(60*time.Minute), 45, "аптека")
	require.NoError(t, err)
	assert.True(t, session.IsActive())
}

func TestConcurrentStartSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	const workers = 8

	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.leaves.StartLeave(user.ID, testBase, 60, "гонка")
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	successes := 0
	conflicts := 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, models.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
}

func TestExtendLeave(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	session, err := env.leaves.StartLeave(user.ID, testBase, 60, "дела")
	require.NoError(t, err)

	require.NoError(t, env.leaves.ExtendLeave(session.ID, 30))

	active, err := env.leaves.GetActiveSession(user.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 90, active.PlannedMinutes)

	// Закрытую отлучку продлить нельзя
	_, err = env.leaves.EndLeave(user.ID, testBase.Add(90*time.Minute))
	require.NoError(t, err)

	err = env.leaves.ExtendLeave(session.ID, 30)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestLeaveSessionHistory(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	for i := 0; i < 3; i++ {
		start := testBase.Add(time.Duration(i) * 2 * time.Hour)
		_, err := env.leaves.StartLeave(user.ID, start, 30, "дела")
		require.NoError(t, err)
		_, err = env.leaves.EndLeave(user.ID, start.Add(30*time.Minute))
		require.NoError(t, err)
	}

	history, err := env.leaves.GetSessionHistory(user.ID, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Новые сессии идут первыми
	assert.True(t, history[0].StartTime.After(history[1].StartTime))
}

func TestEndLeaveRecomputesSummary(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	_, err := env.leaves.StartLeave(user.ID, testBase, 60, "к врачу")
	require.NoError(t, err)

	session, err := env.leaves.EndLeave(user.ID, testBase.Add(65*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 65, session.ActualMinutes)
	assert.False(t, session.HalfDay)
	assert.Equal(t, models.StatusCompleted, session.Status)

	summary, err := env.summaries.GetForDay(user.ID, testBase)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 65, summary.PendingMinutes)
}

func TestLeaveOverCapMarksHalfDay(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	_, err := env.leaves.StartLeave(user.ID, testBase, 60, "дела")
	require.NoError(t, err)

	session, err := env.leaves.EndLeave(user.ID, testBase.Add(200*time.Minute))
	require.NoError(t, err)

	assert.True(t, session.HalfDay)

	// Компенсируемая часть ограничена лимитом
	summary, err := env.summaries.GetForDay(user.ID, testBase)
	require.NoError(t, err)
	assert.Equal(t, testCapMinutes, summary.PendingMinutes)
}
