// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений
//   - consumer.go   — потребление сообщений
//
// Типы сообщений:
//   - order.incoming — новый заказ для диспетчера
//   - job.completed  — job достиг терминального статуса
//   - fleet.updated  — изменилось состояние исполнителя в реестре
//   - nav.goal       — навигационная цель для агента исполнителя
//   - nav.result     — статус выполнения цели от агента
//   - load.input     — ввод подтверждения погрузки
//
// Exchanges:
//   - flotilla.orders — заказы
//   - flotilla.jobs   — события jobs
//   - flotilla.fleet  — события флота
//   - flotilla.nav    — навигация (topic)
//   - flotilla.load   — ввод погрузки (topic)
//   - flotilla.dlq    — dead letter queue
package mq
