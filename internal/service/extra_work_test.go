package service

import (
	"errors"
	"testing"
	"time"

	"leave-balance-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartWorkRejectsSecondActive(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	_, err := env.work.StartWork(user.ID, testBase, "")
	require.NoError(t, err)

	_, err = env.work.StartWork(user.ID, testBase.Add(5*time.Minute), "")
	assert.True(t, errors.Is(err, models.ErrConflict))
}

func TestEndWorkWithoutActive(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	_, err := env.work.EndWork(user.ID, testBase, "описание")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestExtraWorkHistory(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	_, err := env.work.StartWork(user.ID, testBase, "")
	require.NoError(t, err)
	_, err = env.work.EndWork(user.ID, testBase.Add(45*time.Minute), "задачи")
	require.NoError(t, err)

	history, err := env.work.GetSessionHistory(user.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 45, history[0].DurationMinutes)
}

func TestEndWorkRecomputesSummary(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	_, err := env.summaries.AddShortfall(user.ID, testBase, 90)
	require.NoError(t, err)

	_, err = env.work.StartWork(user.ID, testBase, "погашение долга")
	require.NoError(t, err)

	session, err := env.work.EndWork(user.ID, testBase.Add(60*time.Minute), "разобрал тикеты")
	require.NoError(t, err)

	assert.Equal(t, 60, session.DurationMinutes)
	assert.Equal(t, "разобрал тикеты", session.WorkDescription)
	assert.Equal(t, models.StatusCompleted, session.Status)

	summary, err := env.summaries.GetForDay(user.ID, testBase)
	require.NoError(t, err)
	assert.Equal(t, 30, summary.PendingMinutes)
}
