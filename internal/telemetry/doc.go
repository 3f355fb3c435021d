// Package telemetry обеспечивает наблюдаемость сервисов Flotilla.
//
// Включает:
//   - logging.go — structured logging через slog с атрибутами
//     домена (job_id, mex_id, order_id)
//   - metrics.go — Prometheus метрики диспетчера (заказы, job'ы,
//     проходы аллокации)
//
// Все бинарники используют единый формат логирования и отдают
// метрики на /metrics.
package telemetry
