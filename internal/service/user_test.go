package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateLazyRegistration(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.users.GetOrCreate(100, "ivan", "Иван", "Иванов")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "Иван", user.FirstName)

	again, err := env.users.GetOrCreate(100, "ivan", "Иван", "Иванов")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
}

func TestGetOrCreateDefaultsFirstName(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.users.GetOrCreate(100, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "Сотрудник", user.FirstName)
}

func TestGetOrCreateUpdatesOnRename(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.users.GetOrCreate(100, "ivan", "Иван", "")
	require.NoError(t, err)

	renamed, err := env.users.GetOrCreate(100, "vanya", "Ваня", "Иванов")
	require.NoError(t, err)

	assert.Equal(t, user.ID, renamed.ID)
	assert.Equal(t, "vanya", renamed.Username)
	assert.Equal(t, "Ваня", renamed.FirstName)
	assert.Equal(t, "Иванов", renamed.LastName)
}

func TestInitializeAdmin(t *testing.T) {
	env := newTestEnv(t)

	// Нулевой chatID - админ не задан, это не ошибка
	require.NoError(t, env.users.InitializeAdmin(0))

	require.NoError(t, env.users.InitializeAdmin(777))

	isAdmin, err := env.users.IsAdmin(777)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	// Существующий пользователь повышается до админа
	_, err = env.users.GetOrCreate(100, "ivan", "Иван", "")
	require.NoError(t, err)
	require.NoError(t, env.users.InitializeAdmin(100))

	isAdmin, err = env.users.IsAdmin(100)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	isAdmin, err = env.users.IsAdmin(999)
	require.NoError(t, err)
	assert.False(t, isAdmin)
}
