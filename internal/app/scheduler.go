package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SlotCompleter закрывает прошедшие занятия (service.SlotService)
type SlotCompleter interface {
	CompleteFinishedSlots(ctx context.Context) (int, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	completer SlotCompleter
	interval  time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
	stopOnce  sync.Once
	started   bool
	done      chan struct{}
}

// NewScheduler создаёт планировщик. interval - период закрытия прошедших слотов.
func NewScheduler(completer SlotCompleter, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		completer: completer,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))
	s.started = true
	go s.runCompletionTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт завершения текущего прохода
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	if s.started {
		<-s.done
	}
}

func (s *Scheduler) runCompletionTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.completeSlots(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.completeSlots(ctx)
		case <-s.stopChan:
			s.logger.Info("Slot completion task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Slot completion task cancelled")
			return
		}
	}
}

func (s *Scheduler) completeSlots(ctx context.Context) {
	n, err := s.completer.CompleteFinishedSlots(ctx)
	if err != nil {
		s.logger.Error("Failed to complete finished slots", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("Finished slots completed", zap.Int("count", n))
	}
}
