package sentinel

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shaiso/Flotilla/internal/domain"
	"github.com/shaiso/Flotilla/internal/mq"
	"github.com/shaiso/Flotilla/internal/repo"
)

// Service — фоновая часть sentinel: слушает jobs.completed и
// возвращает исполнителей в STANDBY.
type Service struct {
	mexRepo   *repo.MExRepo
	publisher *mq.Publisher
	conn      *mq.Connection

	consumer *mq.Consumer

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Service.
type Config struct {
	MExRepo   *repo.MExRepo
	Publisher *mq.Publisher
	Conn      *mq.Connection
	Logger    *slog.Logger
}

// New создаёт новый Service.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		mexRepo:   cfg.MExRepo,
		publisher: cfg.Publisher,
		conn:      cfg.Conn,
		logger:    logger,
	}
}

// Start запускает consumer jobs.completed.
func (s *Service) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	s.consumer = mq.NewConsumer(s.conn, s.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueJobsCompleted),
		Handler:  s.handleJobCompleted,
		Prefetch: 10,
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("jobs consumer error", "error", err)
		}
	}()

	s.logger.Info("sentinel service started")
	return nil
}

// Stop останавливает Service.
func (s *Service) Stop() {
	s.logger.Info("stopping sentinel service...")

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	if s.consumer != nil {
		s.consumer.Stop()
	}

	s.wg.Wait()

	s.logger.Info("sentinel service stopped")
}

// handleJobCompleted обрабатывает завершение job: исполнитель
// возвращается в STANDBY независимо от исхода job'а.
func (s *Service) handleJobCompleted(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.JobCompletedPayload](&delivery.Message)
	if err != nil {
		s.logger.Error("failed to parse job.completed payload", "error", err)
		return nil
	}

	s.logger.Info("job completed, releasing executor",
		"job_id", payload.JobID,
		"mex_id", payload.MExID,
		"status", payload.Status,
	)

	if err := s.mexRepo.Release(ctx, payload.MExID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Исполнитель снят с учёта, пока работал — не повод
			// гонять сообщение по кругу.
			s.logger.Warn("executor not found on release", "mex_id", payload.MExID)
			return nil
		}
		return err
	}

	if err := s.publisher.PublishFleetUpdated(ctx, mq.FleetUpdatedPayload{
		MExID:  payload.MExID,
		Status: domain.MExStatusStandby,
	}); err != nil {
		// Исполнитель уже освобождён в БД; диспетчер подхватит его
		// фоновым проходом аллокации.
		s.logger.Warn("failed to publish fleet.updated",
			"mex_id", payload.MExID,
			"error", err,
		)
	}

	return nil
}
