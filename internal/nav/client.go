package nav

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shaiso/Flotilla/internal/domain"
	"github.com/shaiso/Flotilla/internal/mq"
)

// ResultHandler — обработчик статуса навигационной цели.
// Вызывается на каждый nav.result для исполнителя, на которого
// оформлена подписка.
type ResultHandler func(goalID string, code GoalStatus)

// Client — клиент навигационного коллаборатора.
//
// Публикует цели в flotilla.nav и маршрутизирует результаты из
// nav.results по подпискам. Подписка ведётся по id исполнителя:
// у одного MEx в каждый момент не больше одной активной навигационной
// task (job выполняет tasks строго последовательно), поэтому ключа
// лучше не придумаешь.
type Client struct {
	publisher *mq.Publisher
	conn      *mq.Connection
	logger    *slog.Logger

	mu       sync.RWMutex
	handlers map[string]ResultHandler

	consumer *mq.Consumer
}

// NewClient создаёт навигационный клиент.
func NewClient(conn *mq.Connection, publisher *mq.Publisher, logger *slog.Logger) *Client {
	return &Client{
		publisher: publisher,
		conn:      conn,
		logger:    logger,
		handlers:  make(map[string]ResultHandler),
	}
}

// Start запускает consumer очереди nav.results.
// Блокирует до отмены контекста.
func (c *Client) Start(ctx context.Context) error {
	c.consumer = mq.NewConsumer(c.conn, c.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueNavResults),
		Handler:  c.handleResult,
		Prefetch: 10,
	})
	return c.consumer.Start(ctx)
}

// Stop останавливает consumer.
func (c *Client) Stop() {
	if c.consumer != nil {
		c.consumer.Stop()
	}
}

// SendGoal публикует навигационную цель для исполнителя.
func (c *Client) SendGoal(ctx context.Context, mexID, goalID string, target domain.Pose) error {
	err := c.publisher.PublishNavGoal(ctx, mq.NavGoalPayload{
		MExID:  mexID,
		GoalID: goalID,
		Target: target,
	})
	if err != nil {
		return fmt.Errorf("send goal: %w", err)
	}

	c.logger.Info("nav goal sent",
		"mex_id", mexID,
		"goal_id", goalID,
		"x", target.X,
		"y", target.Y,
	)
	return nil
}

// Subscribe регистрирует обработчик результатов для исполнителя.
// Повторная подписка заменяет предыдущий обработчик.
func (c *Client) Subscribe(mexID string, handler ResultHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[mexID] = handler
}

// Unsubscribe снимает подписку исполнителя.
func (c *Client) Unsubscribe(mexID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, mexID)
}

// handleResult маршрутизирует nav.result подписчику.
func (c *Client) handleResult(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.NavResultPayload](&delivery.Message)
	if err != nil {
		c.logger.Error("failed to parse nav.result payload", "error", err)
		return nil // некорректное сообщение не имеет смысла возвращать в очередь
	}

	c.mu.RLock()
	handler, ok := c.handlers[payload.MExID]
	c.mu.RUnlock()

	if !ok {
		// Результат для исполнителя без активной навигационной task —
		// запоздавший сигнал, игнорируем.
		c.logger.Debug("nav result without subscriber",
			"mex_id", payload.MExID,
			"goal_id", payload.GoalID,
			"code", payload.Code,
		)
		return nil
	}

	handler(payload.GoalID, GoalStatus(payload.Code))
	return nil
}
