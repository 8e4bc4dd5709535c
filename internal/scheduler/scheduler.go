package scheduler

import (
	"sync"
	"time"

	"leave-balance-bot/internal/service"

	"github.com/sirupsen/logrus"
)

// Scheduler запускает проходы сверки по тикеру
type Scheduler struct {
	reconciler   *service.ReconcilerService
	tickInterval time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	logger *logrus.Logger
}

func New(reconciler *service.ReconcilerService, tickInterval time.Duration) *Scheduler {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &Scheduler{
		reconciler:   reconciler,
		tickInterval: tickInterval,
		logger:       logger,
	}
}

// Start запускает фоновый цикл сверки
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.tickInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run()

	s.logger.WithField("interval", s.tickInterval.String()).Info("Reconciliation scheduler started")
}

// Stop останавливает цикл и дожидается завершения текущего прохода
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}

	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil

	s.logger.Info("Reconciliation scheduler stopped")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	// Первый проход сразу при старте
	s.reconciler.Tick(time.Now())

	for {
		select {
		case <-s.ticker.C:
			s.reconciler.Tick(time.Now())
		case <-s.stop:
			return
		}
	}
}
