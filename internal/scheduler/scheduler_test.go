package scheduler

import (
	"sync"
	"testing"
	"time"

	"leave-balance-bot/internal/models"
	"leave-balance-bot/internal/repository"
	"leave-balance-bot/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *recordingNotifier) Send(chatID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.count++
	return nil
}

func (n *recordingNotifier) sent() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

func newTestScheduler(t *testing.T, notifier *recordingNotifier) (*Scheduler, *service.LeaveSessionService, uint) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
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

	user := &models.User{ChatID: 100, FirstName: "Тест"}
	require.NoError(t, userRepo.Create(user))

	summaries := service.NewDailySummaryService(summaryRepo, leaveRepo, workRepo, 150)
	leaves := service.NewLeaveSessionService(leaveRepo, summaries, 150)

	reconciler := service.NewReconcilerService(
		leaveRepo, workRepo, summaryRepo, requestRepo,
		leaves, notifier,
		150, 6, 30, 500,
	)

	return New(reconciler, time.Hour), leaves, user.ID
}

func TestSchedulerRunsImmediateTick(t *testing.T) {
	notifier := &recordingNotifier{}
	sched, leaves, userID := newTestScheduler(t, notifier)

	// Просроченная отлучка: первый проход при старте должен напомнить
	_, err := leaves.StartLeave(userID, time.Now().Add(-100*time.Minute), 30, "дела")
	require.NoError(t, err)

	sched.Start()
	sched.Stop()

	assert.GreaterOrEqual(t, notifier.sent(), 1)
}

func TestSchedulerStartStopGuards(t *testing.T) {
	notifier := &recordingNotifier{}
	sched, _, _ := newTestScheduler(t, notifier)

	// Повторный Start не запускает второй цикл, повторный Stop - no-op
	sched.Start()
	sched.Start()
	sched.Stop()
	sched.Stop()
}
