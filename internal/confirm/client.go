package confirm

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shaiso/Flotilla/internal/mq"
)

// InputHandler — обработчик ввода погрузки для одного исполнителя.
type InputHandler func(code InputCode)

// Client маршрутизирует сообщения очереди load.input по подпискам.
//
// Подписка ведётся по id исполнителя: ввод адресуется каналу
// конкретного MEx (ключ input.<mex_id>), и в каждый момент у MEx
// не больше одной task, ждущей подтверждения.
type Client struct {
	conn   *mq.Connection
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string]InputHandler

	consumer *mq.Consumer
}

// NewClient создаёт клиент ввода погрузки.
func NewClient(conn *mq.Connection, logger *slog.Logger) *Client {
	return &Client{
		conn:     conn,
		logger:   logger,
		handlers: make(map[string]InputHandler),
	}
}

// Start запускает consumer очереди load.input.
// Блокирует до отмены контекста.
func (c *Client) Start(ctx context.Context) error {
	c.consumer = mq.NewConsumer(c.conn, c.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueLoadInput),
		Handler:  c.handleInput,
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

// Subscribe регистрирует обработчик ввода для исполнителя.
func (c *Client) Subscribe(mexID string, handler InputHandler) {
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

// handleInput маршрутизирует ввод подписчику.
func (c *Client) handleInput(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.LoadInputPayload](&delivery.Message)
	if err != nil {
		c.logger.Error("failed to parse load.input payload", "error", err)
		return nil
	}

	c.mu.RLock()
	handler, ok := c.handlers[payload.MExID]
	c.mu.RUnlock()

	if !ok {
		// Никто не ждёт погрузку этого исполнителя.
		c.logger.Debug("load input without subscriber",
			"mex_id", payload.MExID,
			"code", payload.Code,
		)
		return nil
	}

	handler(InputCode(payload.Code))
	return nil
}
