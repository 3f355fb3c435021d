package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Flotilla/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeOrderIncoming MessageType = "order.incoming"
	MessageTypeJobCompleted  MessageType = "job.completed"
	MessageTypeFleetUpdated  MessageType = "fleet.updated"
	MessageTypeNavGoal       MessageType = "nav.goal"
	MessageTypeNavResult     MessageType = "nav.result"
	MessageTypeLoadInput     MessageType = "load.input"
)

// Message — конверт сообщения.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// JobCompletedPayload — payload события завершения job.
// Потребитель: Sentinel (возвращает MEx в STANDBY).
type JobCompletedPayload struct {
	JobID  string           `json:"job_id"`
	MExID  string           `json:"mex_id"`
	Status domain.JobStatus `json:"status"`
}

// FleetUpdatedPayload — payload события изменения состояния флота.
// Потребитель: Dispatcher (повод для нового прохода аллокации).
type FleetUpdatedPayload struct {
	MExID  string           `json:"mex_id"`
	Status domain.MExStatus `json:"status"`
}

// NavGoalPayload — навигационная цель для исполнителя.
// Потребитель: Agent исполнителя.
type NavGoalPayload struct {
	MExID  string      `json:"mex_id"`
	GoalID string      `json:"goal_id"`
	Target domain.Pose `json:"target"`
}

// NavResultPayload — статус выполнения навигационной цели.
// Code — нативный код навигационного стека (см. internal/nav).
// Потребитель: Dispatcher.
type NavResultPayload struct {
	MExID  string `json:"mex_id"`
	GoalID string `json:"goal_id"`
	Code   int    `json:"code"`
}

// LoadInputPayload — ввод оператора/системы о погрузке исполнителя.
// Code — нативный код ввода (см. internal/confirm).
// Потребитель: Dispatcher.
type LoadInputPayload struct {
	MExID string `json:"mex_id"`
	Code  int    `json:"code"`
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{conn: conn, logger: logger}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msgType MessageType, payload any) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch := p.conn.Channel()
	if ch == nil {
		return fmt.Errorf("no channel available")
	}

	err = ch.PublishWithContext(
		ctx,
		string(exchange),
		string(routingKey),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
			MessageId:    msg.ID,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
	}

	p.logger.Debug("published message",
		"exchange", exchange,
		"routing_key", routingKey,
		"message_id", msg.ID,
		"type", msgType,
	)
	return nil
}

// PublishOrderIncoming публикует новый заказ.
// Потребитель: Dispatcher.
func (p *Publisher) PublishOrderIncoming(ctx context.Context, order domain.Order) error {
	return p.Publish(ctx, ExchangeOrders, RoutingKeyIncoming, MessageTypeOrderIncoming, order)
}

// PublishJobCompleted публикует событие завершения job.
// Потребитель: Sentinel.
func (p *Publisher) PublishJobCompleted(ctx context.Context, payload JobCompletedPayload) error {
	return p.Publish(ctx, ExchangeJobs, RoutingKeyCompleted, MessageTypeJobCompleted, payload)
}

// PublishFleetUpdated публикует событие изменения состояния флота.
// Потребитель: Dispatcher.
func (p *Publisher) PublishFleetUpdated(ctx context.Context, payload FleetUpdatedPayload) error {
	return p.Publish(ctx, ExchangeFleet, RoutingKeyUpdated, MessageTypeFleetUpdated, payload)
}

// PublishNavGoal публикует навигационную цель.
// Потребитель: Agent исполнителя payload.MExID.
func (p *Publisher) PublishNavGoal(ctx context.Context, payload NavGoalPayload) error {
	return p.Publish(ctx, ExchangeNav, GoalRoutingKey(payload.MExID), MessageTypeNavGoal, payload)
}

// PublishNavResult публикует статус навигационной цели.
// Потребитель: Dispatcher.
func (p *Publisher) PublishNavResult(ctx context.Context, payload NavResultPayload) error {
	return p.Publish(ctx, ExchangeNav, ResultRoutingKey(payload.MExID), MessageTypeNavResult, payload)
}

// PublishLoadInput публикует ввод погрузки.
// Потребитель: Dispatcher.
func (p *Publisher) PublishLoadInput(ctx context.Context, payload LoadInputPayload) error {
	return p.Publish(ctx, ExchangeLoad, InputRoutingKey(payload.MExID), MessageTypeLoadInput, payload)
}
