package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	// ExchangeOrders — входящие заказы (direct).
	ExchangeOrders Exchange = "flotilla.orders"

	// ExchangeJobs — события жизненного цикла jobs (direct).
	ExchangeJobs Exchange = "flotilla.jobs"

	// ExchangeFleet — изменения состояния флота от sentinel (direct).
	ExchangeFleet Exchange = "flotilla.fleet"

	// ExchangeNav — навигационные цели и результаты (topic,
	// ключи goal.<mex_id> / result.<mex_id>).
	ExchangeNav Exchange = "flotilla.nav"

	// ExchangeLoad — ввод подтверждения погрузки (topic,
	// ключи input.<mex_id>).
	ExchangeLoad Exchange = "flotilla.load"

	// ExchangeDLQ — мёртвые сообщения.
	ExchangeDLQ Exchange = "flotilla.dlq"
)

// Queues — имена общих очередей.
// Очереди целей nav.goals.<mex_id> объявляются агентами самостоятельно,
// см. SetupGoalQueue.
const (
	QueueOrdersIncoming Queue = "orders.incoming"
	QueueJobsCompleted  Queue = "jobs.completed"
	QueueFleetUpdates   Queue = "fleet.updates"
	QueueNavResults     Queue = "nav.results"
	QueueLoadInput      Queue = "load.input"
	QueueDLQOrders      Queue = "dlq.orders"
)

// Routing keys.
const (
	RoutingKeyIncoming  RoutingKey = "incoming"
	RoutingKeyCompleted RoutingKey = "completed"
	RoutingKeyUpdated   RoutingKey = "updated"
	RoutingKeyDLQOrders RoutingKey = "orders"
)

// GoalRoutingKey возвращает ключ маршрутизации навигационной цели
// для конкретного исполнителя.
func GoalRoutingKey(mexID string) RoutingKey {
	return RoutingKey("goal." + mexID)
}

// ResultRoutingKey возвращает ключ маршрутизации результата навигации.
func ResultRoutingKey(mexID string) RoutingKey {
	return RoutingKey("result." + mexID)
}

// InputRoutingKey возвращает ключ маршрутизации ввода погрузки.
func InputRoutingKey(mexID string) RoutingKey {
	return RoutingKey("input." + mexID)
}

// GoalQueueName возвращает имя очереди целей исполнителя.
func GoalQueueName(mexID string) Queue {
	return Queue("nav.goals." + mexID)
}

// SetupTopology объявляет общие обменники, очереди и привязки.
// Идемпотентно: повторное объявление существующих сущностей безопасно.
func SetupTopology(ctx context.Context, conn *Connection) error {
	ch := conn.Channel()
	if ch == nil {
		return fmt.Errorf("no channel available")
	}

	if err := declareExchanges(ch); err != nil {
		return err
	}
	if err := declareQueues(ch); err != nil {
		return err
	}
	return bindQueues(ch)
}

// SetupGoalQueue объявляет персональную очередь целей для исполнителя
// и привязывает её к обменнику навигации. Вызывается агентом при старте.
func SetupGoalQueue(conn *Connection, mexID string) error {
	ch := conn.Channel()
	if ch == nil {
		return fmt.Errorf("no channel available")
	}

	queue := string(GoalQueueName(mexID))
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}

	err := ch.QueueBind(queue, string(GoalRoutingKey(mexID)), string(ExchangeNav), false, nil)
	if err != nil {
		return fmt.Errorf("bind queue %s: %w", queue, err)
	}
	return nil
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeOrders, "direct"},
		{ExchangeJobs, "direct"},
		{ExchangeFleet, "direct"},
		{ExchangeNav, "topic"},
		{ExchangeLoad, "topic"},
		{ExchangeDLQ, "direct"},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

// declareQueues создаёт общие очереди.
func declareQueues(ch *amqp.Channel) error {
	// Некорректные заказы уходят в DLQ для ручного разбора.
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQOrders),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		{QueueOrdersIncoming, dlqArgs},
		{QueueJobsCompleted, nil},
		{QueueFleetUpdates, nil},
		{QueueNavResults, nil},
		{QueueLoadInput, nil},
		{QueueDLQOrders, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает общие очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueOrdersIncoming, RoutingKeyIncoming, ExchangeOrders},
		{QueueJobsCompleted, RoutingKeyCompleted, ExchangeJobs},
		{QueueFleetUpdates, RoutingKeyUpdated, ExchangeFleet},
		{QueueNavResults, "result.*", ExchangeNav},
		{QueueLoadInput, "input.*", ExchangeLoad},
		{QueueDLQOrders, RoutingKeyDLQOrders, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Flotilla RabbitMQ Topology:

    flotilla.orders (direct)
    └── orders.incoming [routing: incoming]
            Consumer: Dispatcher
            DLQ: dlq.orders

    flotilla.jobs (direct)
    └── jobs.completed [routing: completed]
            Consumer: Sentinel

    flotilla.fleet (direct)
    └── fleet.updates [routing: updated]
            Consumer: Dispatcher

    flotilla.nav (topic)
    ├── nav.goals.<mex_id> [routing: goal.<mex_id>]
    │       Consumer: Agent <mex_id>
    └── nav.results [routing: result.*]
            Consumer: Dispatcher

    flotilla.load (topic)
    └── load.input [routing: input.*]
            Consumer: Dispatcher

    flotilla.dlq (direct)
    └── dlq.orders [routing: orders]
            Manual processing
  `
}
