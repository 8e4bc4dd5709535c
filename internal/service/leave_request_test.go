package service

import (
	"errors"
	"testing"
	"time"

	"leave-balance-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitIntermediateValidation(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	_, err := env.requests.SubmitIntermediate(user.ID, testBase, 0, "дела", "Иванов")
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = env.requests.SubmitIntermediate(user.ID, testBase, 120, "дела", "")
	assert.True(t, errors.Is(err, models.ErrValidation))

	// Та же верхняя граница, что и у прямого старта отлучки
	_, err = env.requests.SubmitIntermediate(user.ID, testBase, models.MaxLeaveMinutes+60, "дела", "Иванов")
	assert.True(t, errors.Is(err, models.ErrValidation))

	request, err := env.requests.SubmitIntermediate(user.ID, testBase, 120, "дела", "Иванов")
	require.NoError(t, err)
	assert.True(t, request.IsPending())
	require.NotNil(t, request.ExpectedReturn)
	assert.Equal(t, testBase.Add(120*time.Minute), *request.ExpectedReturn)
}

func TestSubmitPlannedCountsWorkingDays(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	// Понедельник - пятница
	start := time.Date(2026, time.August, 17, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.August, 21, 0, 0, 0, 0, time.UTC)

	request, err := env.requests.SubmitPlanned(user.ID, start, end, "отпуск", "Петрова")
	require.NoError(t, err)
	assert.Equal(t, 5, request.DayCount)

	// Период только из выходных не дает рабочих дней
	saturday := time.Date(2026, time.August, 22, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, time.August, 23, 0, 0, 0, 0, time.UTC)

	_, err = env.requests.SubmitPlanned(user.ID, saturday, sunday, "отпуск", "Петрова")
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = env.requests.SubmitPlanned(user.ID, end, start, "отпуск", "Петрова")
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestSubmitShortfallComputesMinutes(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	// Ранний уход: норма 18:00, ушел в 17:30 - недобор 30 минут
	request, err := env.requests.SubmitShortfall(user.ID, models.RequestTypeEarlyLogout, "18:00", "17:30", "семья")
	require.NoError(t, err)
	assert.Equal(t, 30, request.ShortfallMinutes)

	// Поздний приход: норма 09:00, пришел в 09:45 - недобор 45 минут
	request, err = env.requests.SubmitShortfall(user.ID, models.RequestTypeLateLogin, "09:00", "09:45", "")
	require.NoError(t, err)
	assert.Equal(t, 45, request.ShortfallMinutes)
}

func TestSubmitShortfallRejectsNonPositive(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	// Ушел позже нормы - недобора нет
	_, err := env.requests.SubmitShortfall(user.ID, models.RequestTypeEarlyLogout, "18:00", "18:30", "")
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = env.requests.SubmitShortfall(user.ID, models.RequestTypeEarlyLogout, "18:00", "18:00", "")
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = env.requests.SubmitShortfall(user.ID, "unknown", "18:00", "17:00", "")
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = env.requests.SubmitShortfall(user.ID, models.RequestTypeEarlyLogout, "25:99", "17:00", "")
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestDecideApproveShortfallAppliesOnce(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	request, err := env.requests.SubmitShortfall(user.ID, models.RequestTypeEarlyLogout, "18:00", "17:30", "")
	require.NoError(t, err)

	decided, err := env.requests.Decide(request.ID, true, 555, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, decided.Status)
	assert.Equal(t, int64(555), decided.ApproverID)

	summary, err := env.summaries.GetForDay(user.ID, time.Now())
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 30, summary.PendingMinutes)

	// Повторное нажатие кнопки: заявка уже обработана, эффект не дублируется
	_, err = env.requests.Decide(request.ID, true, 555, time.Now())
	assert.True(t, errors.Is(err, models.ErrAlreadyDecided))

	summary, err = env.summaries.GetForDay(user.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 30, summary.PendingMinutes)
}

func TestDecideDenyHasNoSideEffects(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	request, err := env.requests.SubmitShortfall(user.ID, models.RequestTypeEarlyLogout, "18:00", "17:00", "")
	require.NoError(t, err)

	decided, err := env.requests.Decide(request.ID, false, 555, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusDenied, decided.Status)

	summary, err := env.summaries.GetForDay(user.ID, time.Now())
	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestDecideApproveIntermediateStartsLeave(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 100)

	request, err := env.requests.SubmitIntermediate(user.ID, testBase, 90, "дела", "Иванов")
	require.NoError(t, err)

	decidedAt := time.Now()
	_, err = env.requests.Decide(request.ID, true, 555, decidedAt)
	require.NoError(t, err)

	session, err := env.leaves.GetActiveSession(user.ID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, 90, session.PlannedMinutes)

	// Вторая одобренная заявка упирается в активную отлучку
	second, err := env.requests.SubmitIntermediate(user.ID, testBase, 30, "еще", "Иванов")
	require.NoError(t, err)

	decided, err := env.requests.Decide(second.ID, true, 555, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConflict))
	// Статус заявки уже переведен, конфликт - в побочном эффекте
	assert.Equal(t, models.RequestStatusApproved, decided.Status)
}

func TestDecideUnknownRequest(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.requests.Decide(9999, true, 555, time.Now())
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestPendingRequestsPerUser(t *testing.T) {
	env := newTestEnv(t)
	first := env.createUser(t, 100)
	second := env.createUser(t, 200)

	_, err := env.requests.SubmitIntermediate(first.ID, testBase, 60, "дела", "Иванов")
	require.NoError(t, err)
	_, err = env.requests.SubmitShortfall(first.ID, models.RequestTypeLateLogin, "09:00", "09:30", "")
	require.NoError(t, err)
	_, err = env.requests.SubmitIntermediate(second.ID, testBase, 60, "дела", "Иванов")
	require.NoError(t, err)

	pending, err := env.requests.GetPendingByUser(first.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	all, err := env.requests.GetPending()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
