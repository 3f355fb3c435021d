// Package cli реализует инструмент командной строки Flotilla.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Flotilla по HTTP.
// Работает с двумя сервисами: диспетчером (orders, jobs, schedules,
// ввод погрузки) и sentinel (реестр флота). Внутренние пакеты системы
// не импортируются.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для API диспетчера и реестра. Инкапсулирует все
// HTTP-запросы, парсинг ответов (DataResponse, ListResponse,
// ErrorResponse) и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080", "http://localhost:8081")
//	jobs, err := client.ListJobs("")
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: flotilla job list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - order: submit, locations
//   - job: list, show
//   - mex: list, show, register, status, delete
//   - load: confirm, abort
//   - schedule: list, create, show, update, delete, enable, disable
//
// Каждая группа создаётся через фабричную функцию (NewOrderCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
