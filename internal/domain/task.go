package domain

import "context"

// TaskResult — типизированное сообщение о состоянии task,
// доставляемое владеющему job.
//
// Index — позиция task в task list job'а, привязывается при Start.
// Терминальный статус приходит ровно один раз за запуск; статус ACTIVE —
// информационный сигнал (например, промежуточный ввод оператора) и не
// означает завершения.
type TaskResult struct {
	Index  int        `json:"index"`
	Status TaskStatus `json:"status"`
}

// ReportFunc — канал доставки TaskResult от task к владеющему job.
//
// Передаётся task'е при Start. Реализация task обязана вызвать report
// не более одного раза с терминальным статусом; промежуточные сигналы
// передаются со статусом ACTIVE и могут повторяться.
type ReportFunc func(TaskResult)

// Task — единица работы внутри job.
//
// Закрытое множество вариантов живёт в internal/tasks:
//   - Move — перемещение MEx к целевой позе
//   - AwaitLoad — ожидание подтверждения погрузки от оператора/системы
//
// Контракт:
//   - Start привязывает MEx id, индекс и report, переводит task из
//     PENDING в ACTIVE и инициирует асинхронное действие. Start не
//     блокирует: результат приходит позже через report. Повторный
//     Start уже запущенной task — ошибка вызывающего, поведение не
//     определено.
//   - Status возвращает текущий статус; для незапущенной task — PENDING.
type Task interface {
	Start(ctx context.Context, mexID string, index int, report ReportFunc) error
	Status() TaskStatus
}
