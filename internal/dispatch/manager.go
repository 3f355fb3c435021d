package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Flotilla/internal/domain"
	"github.com/shaiso/Flotilla/internal/mq"
	"github.com/shaiso/Flotilla/internal/order"
	"github.com/shaiso/Flotilla/internal/telemetry"
)

// Default configuration values.
const defaultPollInterval = 10 * time.Second

// TaskBuilder собирает task list по заказу.
type TaskBuilder interface {
	Build(o domain.Order) ([]domain.Task, error)
}

// CompletionPublisher публикует события завершения jobs.
type CompletionPublisher interface {
	PublishJobCompleted(ctx context.Context, payload mq.JobCompletedPayload) error
}

// Manager управляет жизненным циклом jobs.
//
// Manager — центральный компонент диспетчера, который:
//   - Принимает новые заказы из очереди RabbitMQ (event-driven)
//   - Собирает из заказа job с task list
//   - Гоняет проходы аллокации: по событиям флота, по завершению jobs
//     и по таймеру (polling fallback)
//   - Публикует события jobs.completed для sentinel
type Manager struct {
	allocator *Allocator
	refiner   *Refiner
	builder   TaskBuilder

	// MQ
	publisher CompletionPublisher
	conn      *mq.Connection

	// Jobs — все принятые jobs (jobID → job); pending — очередь
	// на аллокацию в порядке поступления.
	jobs    map[string]*domain.Job
	pending []*domain.Job
	mu      sync.RWMutex

	// kick будит цикл аллокации; буфер 1 схлопывает серию поводов
	// в один проход.
	kick chan struct{}

	// Consumers
	orderConsumer *mq.Consumer
	fleetConsumer *mq.Consumer

	// Configuration
	pollInterval time.Duration

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Manager.
type Config struct {
	Allocator *Allocator
	Refiner   *Refiner
	Builder   TaskBuilder

	// MQ
	Publisher CompletionPublisher
	Conn      *mq.Connection

	// PollInterval — интервал фонового прохода аллокации (default: 10s).
	PollInterval time.Duration

	// Logger
	Logger *slog.Logger
}

// NewManager создаёт новый Manager.
func NewManager(cfg Config) *Manager {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		allocator:    cfg.Allocator,
		refiner:      cfg.Refiner,
		builder:      cfg.Builder,
		publisher:    cfg.Publisher,
		conn:         cfg.Conn,
		jobs:         make(map[string]*domain.Job),
		kick:         make(chan struct{}, 1),
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Start запускает Manager.
//
// Запускает:
//   - Consumer для orders.incoming
//   - Consumer для fleet.updates
//   - Цикл аллокации
func (m *Manager) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel

	m.logger.Info("starting dispatch manager",
		"poll_interval", m.pollInterval,
	)

	m.orderConsumer = mq.NewConsumer(m.conn, m.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueOrdersIncoming),
		Handler:  m.handleOrderIncoming,
		Prefetch: 10,
	})

	m.fleetConsumer = mq.NewConsumer(m.conn, m.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueFleetUpdates),
		Handler:  m.handleFleetUpdated,
		Prefetch: 10,
	})

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.orderConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error("order consumer error", "error", err)
		}
	}()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.fleetConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error("fleet consumer error", "error", err)
		}
	}()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.allocLoop(ctx)
	}()

	m.logger.Info("dispatch manager started")
	return nil
}

// Stop останавливает Manager.
func (m *Manager) Stop() {
	m.logger.Info("stopping dispatch manager...")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.orderConsumer != nil {
		m.orderConsumer.Stop()
	}
	if m.fleetConsumer != nil {
		m.fleetConsumer.Stop()
	}

	m.wg.Wait()

	m.logger.Info("dispatch manager stopped",
		"jobs", len(m.jobs),
		"pending", len(m.pending),
	)
}

// SubmitOrder принимает заказ: собирает task list, создаёт job и ставит
// его в очередь на аллокацию.
func (m *Manager) SubmitOrder(ctx context.Context, o domain.Order) (*domain.Job, error) {
	if err := order.Validate(&o); err != nil {
		telemetry.OrdersRejected.Inc()
		return nil, err
	}

	// Дедупликация по id заказа: повторная подача (redelivery из
	// очереди, повтор тика планировщика) возвращает существующий job.
	m.mu.RLock()
	existing, ok := m.jobs[o.ID]
	m.mu.RUnlock()
	if ok {
		m.logger.Debug("duplicate order, returning existing job", "job_id", o.ID)
		return existing, nil
	}

	tasks, err := m.builder.Build(o)
	if err != nil {
		telemetry.OrdersRejected.Inc()
		return nil, err
	}

	job := domain.NewJob(domain.JobConfig{
		ID:         o.ID,
		Keyword:    o.Keyword,
		Priority:   o.Priority,
		MExID:      o.MExID,
		Completion: m.onJobCompleted,
		Logger:     m.logger,
	})
	job.AddTasks(tasks)

	m.mu.Lock()
	// Повторная проверка под write-lock: два конкурентных Submit с одним
	// id не должны поставить job в очередь дважды.
	if existing, ok := m.jobs[o.ID]; ok {
		m.mu.Unlock()
		m.logger.Debug("duplicate order, returning existing job", "job_id", o.ID)
		return existing, nil
	}
	m.jobs[job.ID()] = job
	m.pending = append(m.pending, job)
	telemetry.JobsPending.Set(float64(len(m.pending)))
	m.mu.Unlock()

	telemetry.OrdersReceived.Inc()

	m.logger.Info("order accepted",
		"job_id", job.ID(),
		"keyword", o.Keyword,
		"priority", job.Priority(),
		"tasks", job.TaskCount(),
		"requested_mex", o.MExID,
	)

	m.kickAlloc()
	return job, nil
}

// Job возвращает job по id.
func (m *Manager) Job(jobID string) (*domain.Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	return job, ok
}

// Jobs возвращает снапшот всех jobs.
func (m *Manager) Jobs() []*domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*domain.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// PendingCount возвращает длину очереди на аллокацию.
func (m *Manager) PendingCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pending)
}

// handleOrderIncoming обрабатывает событие о новом заказе.
func (m *Manager) handleOrderIncoming(ctx context.Context, delivery *mq.Delivery) error {
	o, err := mq.ParsePayload[domain.Order](&delivery.Message)
	if err != nil {
		// Повторная доставка не исправит payload.
		m.logger.Error("failed to parse order.incoming payload", "error", err)
		return nil
	}

	m.logger.Debug("received order.incoming event",
		"order_id", o.ID,
		"keyword", o.Keyword,
	)

	if _, err := m.SubmitOrder(ctx, o); err != nil {
		if errors.Is(err, order.ErrUnknownKeyword) ||
			errors.Is(err, order.ErrUnsupportedKeyword) ||
			errors.Is(err, order.ErrUnknownLocation) ||
			errors.Is(err, order.ErrBadArgCount) {
			m.logger.Warn("rejecting order", "order_id", o.ID, "reason", err)
			return nil
		}
		m.logger.Error("failed to submit order", "order_id", o.ID, "error", err)
		return err
	}

	return nil
}

// handleFleetUpdated обрабатывает событие об изменении состояния флота.
// Любое изменение — повод попробовать аллокацию ещё раз.
func (m *Manager) handleFleetUpdated(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.FleetUpdatedPayload](&delivery.Message)
	if err != nil {
		m.logger.Error("failed to parse fleet.updated payload", "error", err)
		return nil
	}

	m.logger.Debug("received fleet.updated event",
		"mex_id", payload.MExID,
		"status", payload.Status,
	)

	m.kickAlloc()
	return nil
}

// onJobCompleted — callback завершения job.
//
// Вызывается из job вне его мьютекса. Публикует jobs.completed
// (sentinel вернёт исполнителя в STANDBY) и будит цикл аллокации.
func (m *Manager) onJobCompleted(jobID, mexID string) {
	m.mu.Lock()
	job := m.jobs[jobID]
	m.removePendingLocked(jobID)
	m.mu.Unlock()

	if job == nil {
		m.logger.Error("completion callback for unknown job", "job_id", jobID)
		return
	}

	status := job.Status()
	telemetry.JobsCompleted.WithLabelValues(string(status)).Inc()
	m.logger.Info("job completed",
		"job_id", jobID,
		"mex_id", mexID,
		"status", status,
	)

	if m.publisher != nil && mexID != "" {
		err := m.publisher.PublishJobCompleted(context.Background(), mq.JobCompletedPayload{
			JobID:  jobID,
			MExID:  mexID,
			Status: status,
		})
		if err != nil {
			m.logger.Error("failed to publish job.completed",
				"job_id", jobID,
				"error", err,
			)
		}
	}

	m.kickAlloc()
}

// kickAlloc будит цикл аллокации, не блокируясь.
func (m *Manager) kickAlloc() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// allocLoop — цикл аллокации: просыпается по kick и по таймеру.
func (m *Manager) allocLoop(ctx context.Context) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	// Первый проход сразу при старте (подхватываем jobs, принятые
	// пока диспетчер был выключен и доставленные заново).
	m.allocatePass(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.kick:
			m.allocatePass(ctx)
		case <-ticker.C:
			m.allocatePass(ctx)
		}
	}
}

// allocatePass выполняет проходы аллокации, пока они дают назначения.
//
// Каждый вызов Allocate назначает не более одного job и берёт свежий
// снапшот флота, поэтому проходы повторяются до первого промаха.
func (m *Manager) allocatePass(ctx context.Context) {
	telemetry.AllocationPasses.Inc()

	for {
		m.mu.RLock()
		pending := make([]*domain.Job, len(m.pending))
		copy(pending, m.pending)
		m.mu.RUnlock()

		if len(pending) == 0 {
			return
		}

		alloc, err := m.allocator.Allocate(ctx, pending)
		if err != nil {
			// Реестр недоступен или отклонил назначение; jobs остались
			// PENDING, следующий повод или таймер повторит проход.
			m.logger.Error("allocation pass failed", "error", err)
			return
		}
		if alloc == nil {
			return
		}

		m.mu.Lock()
		m.removePendingLocked(alloc.Job.ID())
		m.mu.Unlock()

		telemetry.AllocationAssignments.Inc()

		if err := m.refiner.Refine(ctx, alloc); err != nil {
			// Job уже ABORTED, callback завершения отработал.
			m.logger.Error("failed to refine allocation",
				"job_id", alloc.Job.ID(),
				"mex_id", alloc.MExID,
				"error", err,
			)
		}
	}
}

// removePendingLocked убирает job из очереди на аллокацию.
// Вызывается только под m.mu.
func (m *Manager) removePendingLocked(jobID string) {
	for i, job := range m.pending {
		if job.ID() == jobID {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			telemetry.JobsPending.Set(float64(len(m.pending)))
			return
		}
	}
}
