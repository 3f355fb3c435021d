package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Flotilla/internal/domain"
	"github.com/shaiso/Flotilla/internal/repo"
)

// orderNamespace — namespace для детерминированных id заказов.
// Один schedule и одно время срабатывания дают один и тот же id,
// поэтому повторная подача после рестарта не плодит дубликаты.
var orderNamespace = uuid.MustParse("8c7f2f1e-5a31-4b6a-9c80-3f6f0a1d2b45")

// OrderPublisher публикует заказы в очередь.
type OrderPublisher interface {
	PublishOrderIncoming(ctx context.Context, order domain.Order) error
}

// Scheduler — планировщик, подающий заказы по расписаниям.
type Scheduler struct {
	scheduleRepo *repo.ScheduleRepo
	publisher    OrderPublisher
	logger       *slog.Logger
	batchSize    int
}

// Config — конфигурация Scheduler.
type Config struct {
	ScheduleRepo *repo.ScheduleRepo
	Publisher    OrderPublisher
	Logger       *slog.Logger
	BatchSize    int // количество schedules за один тик (default: 100)
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		scheduleRepo: cfg.ScheduleRepo,
		publisher:    cfg.Publisher,
		logger:       logger,
		batchSize:    batchSize,
	}
}

// Tick выполняет один тик планировщика.
//
// 1. Находит due schedules (enabled=true, next_due_at <= now)
// 2. Для каждого schedule публикует заказ в orders.incoming
// 3. Обновляет next_due_at
//
// Ошибки одного schedule не блокируют обработку остальных.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := time.Now()

	schedules, err := s.scheduleRepo.ListDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due schedules: %w", err)
	}

	if len(schedules) == 0 {
		return nil
	}

	s.logger.Debug("found due schedules", "count", len(schedules))

	var processed int
	for i := range schedules {
		sched := &schedules[i]

		if err := s.processSchedule(ctx, sched, now); err != nil {
			s.logger.Error("failed to process schedule",
				"schedule_id", sched.ID,
				"schedule_name", sched.Name,
				"error", err,
			)
			// Продолжаем обработку остальных
			continue
		}
		processed++
	}

	s.logger.Info("scheduler tick completed",
		"due", len(schedules),
		"processed", processed,
	)

	return nil
}

// processSchedule подаёт заказ по одному schedule.
func (s *Scheduler) processSchedule(ctx context.Context, sched *domain.Schedule, now time.Time) error {
	// Детерминированный id: "{schedule_id}_{next_due_at_unix}".
	// Диспетчер дедуплицирует заказы по id, поэтому повторная
	// публикация того же срабатывания безопасна.
	seed := fmt.Sprintf("%s_%d", sched.ID, sched.NextDueAt.Unix())
	orderID := uuid.NewSHA1(orderNamespace, []byte(seed)).String()

	o := domain.Order{
		ID:        orderID,
		Keyword:   sched.Keyword,
		Priority:  sched.Priority,
		Args:      sched.Args,
		MExID:     sched.MExID,
		CreatedAt: now,
	}

	if err := s.publisher.PublishOrderIncoming(ctx, o); err != nil {
		// next_due_at не трогаем: следующий тик попробует снова.
		return fmt.Errorf("publish order: %w", err)
	}

	s.logger.Info("published order from schedule",
		"order_id", orderID,
		"schedule_id", sched.ID,
		"schedule_name", sched.Name,
		"keyword", sched.Keyword,
	)

	// Вычисляем следующее время подачи.
	nextDue, err := CalculateNextDue(sched, now)
	if err != nil {
		// Schedule некорректный — лучше не трогать next_due_at
		s.logger.Error("failed to calculate next due",
			"schedule_id", sched.ID,
			"error", err,
		)
		return nil
	}

	sched.RecordOrder(orderID, nextDue)
	if err := s.scheduleRepo.Update(ctx, sched); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}

	return nil
}
