package service

import (
	"sync"
	"testing"
	"time"

	"leave-balance-bot/internal/models"
	"leave-balance-bot/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testCapMinutes = 150

// Понедельник, чтобы расчет рабочих дней не задевал выходные
var testBase = time.Date(2026, time.August, 17, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	userRepo    repository.UserRepository
	leaveRepo   repository.LeaveSessionRepository
	workRepo    repository.ExtraWorkSessionRepository
	summaryRepo repository.DailySummaryRepository
	requestRepo repository.LeaveRequestRepository

	users     *UserService
	summaries *DailySummaryService
	leaves    *LeaveSessionService
	work      *ExtraWorkService
	requests  *LeaveRequestService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// In-memory база существует в рамках одного соединения
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	userRepo, err := repository.NewGormUserRepository(db)
	require.NoError(t, err)

	leaveRepo, err := repository.NewGormLeaveSessionRepository(db)
	require.NoError(t, err)

	workRepo, err := repository.NewGormExtraWorkSessionRepository(db)
	require.NoError(t, err)

	summaryRepo, err := repository.NewGormDailySummaryRepository(db)
	require.NoError(t, err)

	requestRepo, err := repository.NewGormLeaveRequestRepository(db)
	require.NoError(t, err)

	summaries := NewDailySummaryService(summaryRepo, leaveRepo, workRepo, testCapMinutes)
	leaves := NewLeaveSessionService(leaveRepo, summaries, testCapMinutes)

	return &testEnv{
		userRepo:    userRepo,
		leaveRepo:   leaveRepo,
		workRepo:    workRepo,
		summaryRepo: summaryRepo,
		requestRepo: requestRepo,
		users:       NewUserService(userRepo),
		summaries:   summaries,
		leaves:      leaves,
		work:        NewExtraWorkService(workRepo, summaries),
		requests:    NewLeaveRequestService(requestRepo, leaves, summaries),
	}
}

func (e *testEnv) createUser(t *testing.T, chatID int64) *models.User {
	t.Helper()

	user := &models.User{
		ChatID:    chatID,
		FirstName: "Тест",
		Role:      models.RoleClient,
	}
	require.NoError(t, e.userRepo.Create(user))
	return user
}

// fakeNotifier записывает отправленные уведомления для проверок
type fakeNotifier struct {
	mu       sync.Mutex
	messages []fakeMessage
}

type fakeMessage struct {
	ChatID int64
	Text   string
}

func (f *fakeNotifier) Send(chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, fakeMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakeNotifier) countFor(chatID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, msg := range f.messages {
		if msg.ChatID == chatID {
			n++
		}
	}
	return n
}

func (f *fakeNotifier) last() fakeMessage {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.messages) == 0 {
		return fakeMessage{}
	}
	return f.messages[len(f.messages)-1]
}
