// Package api содержит HTTP API диспетчера.
//
// Структура:
//   - handler.go          — Handler с DI (manager, репозитории, publisher)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - order_handler.go    — приём заказов и таблица локаций
//   - job_handler.go      — чтение jobs
//   - mex_handler.go      — проксирование ввода погрузки исполнителю
//   - schedule_handler.go — CRUD расписаний повторяющихся заказов
//
// API предоставляет REST endpoints для подачи заказов, наблюдения за
// jobs и управления расписаниями.
package api
