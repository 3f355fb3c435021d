// Package sentinel реализует реестр мобильных исполнителей.
//
// Sentinel — авторитетный источник состояния флота. Он хранит
// исполнителей в Postgres, обслуживает HTTP API для регистрации и
// назначений, потребляет jobs.completed (возврат исполнителя в
// STANDBY) и публикует fleet.updated на каждое изменение состояния.
//
// Структура:
//   - service.go  — Service: consumer jobs.completed, публикация fleet.updated
//   - handlers.go — HTTP API реестра
//   - client.go   — HTTP-клиент реестра для диспетчера
package sentinel
