package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/shaiso/Flotilla/internal/domain"
	"github.com/shaiso/Flotilla/internal/mq"
	"github.com/shaiso/Flotilla/internal/nav"
	"github.com/shaiso/Flotilla/internal/sentinel"
)

// Default configuration values.
const (
	defaultSpeed    = 1.0 // м/с
	defaultPrefetch = 1
)

// FleetRegistry — часть API реестра, нужная агенту.
type FleetRegistry interface {
	Register(ctx context.Context, id string, pose domain.Pose) (*domain.MobileExecutor, error)
	UpdatePose(ctx context.Context, id string, pose domain.Pose) error
}

// ResultPublisher публикует результаты навигации.
type ResultPublisher interface {
	PublishNavResult(ctx context.Context, payload mq.NavResultPayload) error
}

// Agent — симулятор бортового агента одного исполнителя.
//
// Цели выполняются строго последовательно: prefetch очереди равен
// единице, робот не умеет ехать в два места сразу.
type Agent struct {
	mexID string
	pose  domain.Pose

	conn      *mq.Connection
	publisher ResultPublisher
	registry  FleetRegistry

	consumer *mq.Consumer

	speed float64

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex
}

// Config — конфигурация Agent.
type Config struct {
	// MExID — идентификатор исполнителя, например "rdg01".
	MExID string

	// InitialPose — стартовая поза на карте.
	InitialPose domain.Pose

	// MQ
	Conn      *mq.Connection
	Publisher ResultPublisher

	// Registry — клиент реестра флота.
	Registry FleetRegistry

	// Speed — симулируемая скорость по прямой, м/с (default: 1.0).
	Speed float64

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Agent.
func New(cfg Config) *Agent {
	speed := cfg.Speed
	if speed <= 0 {
		speed = defaultSpeed
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Agent{
		mexID:     cfg.MExID,
		pose:      cfg.InitialPose,
		conn:      cfg.Conn,
		publisher: cfg.Publisher,
		registry:  cfg.Registry,
		speed:     speed,
		logger:    logger.With("mex_id", cfg.MExID),
	}
}

// Start регистрирует исполнителя в реестре и запускает consumer
// персональной очереди целей.
func (a *Agent) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.cancelFunc = cancel

	if _, err := a.registry.Register(ctx, a.mexID, a.pose); err != nil {
		cancel()
		return fmt.Errorf("register executor: %w", err)
	}
	a.logger.Info("registered with fleet registry")

	if err := mq.SetupGoalQueue(a.conn, a.mexID); err != nil {
		cancel()
		return fmt.Errorf("setup goal queue: %w", err)
	}

	a.consumer = mq.NewConsumer(a.conn, a.logger, mq.ConsumerConfig{
		Queue:    string(mq.GoalQueueName(a.mexID)),
		Handler:  a.handleNavGoal,
		Prefetch: defaultPrefetch,
	})

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("goal consumer error", "error", err)
		}
	}()

	a.logger.Info("agent started", "speed", a.speed)
	return nil
}

// Stop останавливает Agent.
func (a *Agent) Stop() {
	a.logger.Info("stopping agent...")

	if a.cancelFunc != nil {
		a.cancelFunc()
	}
	if a.consumer != nil {
		a.consumer.Stop()
	}

	a.wg.Wait()

	a.logger.Info("agent stopped")
}

// Pose возвращает текущую позу исполнителя.
func (a *Agent) Pose() domain.Pose {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pose
}

// handleNavGoal обрабатывает навигационную цель: подтверждает приём,
// симулирует путь, отчитывается результатом.
func (a *Agent) handleNavGoal(ctx context.Context, delivery *mq.Delivery) error {
	goal, err := mq.ParsePayload[mq.NavGoalPayload](&delivery.Message)
	if err != nil {
		a.logger.Error("failed to parse nav goal payload", "error", err)
		return nil
	}

	if goal.MExID != a.mexID {
		// Чужая цель в персональной очереди — ошибка маршрутизации.
		a.logger.Warn("goal for another executor, dropping",
			"goal_id", goal.GoalID,
			"target_mex", goal.MExID,
		)
		return nil
	}

	a.logger.Info("nav goal accepted",
		"goal_id", goal.GoalID,
		"x", goal.Target.X,
		"y", goal.Target.Y,
	)

	if err := a.publishResult(ctx, goal.GoalID, nav.GoalStatusActive); err != nil {
		a.logger.Warn("failed to publish progress", "goal_id", goal.GoalID, "error", err)
	}

	if err := a.travel(ctx, goal.Target); err != nil {
		// Агент останавливают посреди пути: цель возвращается в
		// очередь и будет выполнена после рестарта.
		return err
	}

	a.mu.Lock()
	a.pose = goal.Target
	a.mu.Unlock()

	if err := a.registry.UpdatePose(ctx, a.mexID, goal.Target); err != nil {
		a.logger.Warn("failed to report pose", "goal_id", goal.GoalID, "error", err)
	}

	if err := a.publishResult(ctx, goal.GoalID, nav.GoalStatusSucceeded); err != nil {
		// Без терминального результата диспетчер будет ждать вечно —
		// пусть цель вернётся в очередь и доедет заново.
		return fmt.Errorf("publish terminal result: %w", err)
	}

	a.logger.Info("nav goal reached", "goal_id", goal.GoalID)
	return nil
}

// travel симулирует путь до цели: время — расстояние по прямой,
// делённое на скорость.
func (a *Agent) travel(ctx context.Context, target domain.Pose) error {
	a.mu.Lock()
	from := a.pose
	a.mu.Unlock()

	dist := math.Hypot(target.X-from.X, target.Y-from.Y)
	duration := time.Duration(dist / a.speed * float64(time.Second))

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (a *Agent) publishResult(ctx context.Context, goalID string, status nav.GoalStatus) error {
	return a.publisher.PublishNavResult(ctx, mq.NavResultPayload{
		MExID:  a.mexID,
		GoalID: goalID,
		Code:   int(status),
	})
}

var _ FleetRegistry = (*sentinel.Client)(nil)
