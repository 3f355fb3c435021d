package tasks

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shaiso/Flotilla/internal/confirm"
	"github.com/shaiso/Flotilla/internal/domain"
)

// InputSource — то, что AwaitLoad нужно от клиента ввода погрузки.
type InputSource interface {
	Subscribe(mexID string, handler confirm.InputHandler)
	Unsubscribe(mexID string)
}

// AwaitLoad — task ожидания подтверждения погрузки.
//
// При старте подписывается на канал ввода исполнителя. Не терминальный
// ввод пересылается job'у как информационный TaskResult со статусом
// ACTIVE; первый терминальный ввод снимает подписку и репортится
// ровно один раз.
type AwaitLoad struct {
	input  InputSource
	logger *slog.Logger

	mu       sync.Mutex
	status   domain.TaskStatus
	mexID    string
	index    int
	report   domain.ReportFunc
	reported bool
}

// NewAwaitLoad создаёт task ожидания погрузки.
func NewAwaitLoad(input InputSource, logger *slog.Logger) *AwaitLoad {
	if logger == nil {
		logger = slog.Default()
	}
	return &AwaitLoad{
		input:  input,
		logger: logger,
		status: domain.TaskStatusPending,
	}
}

// Start привязывает идентичность и подписывается на ввод погрузки.
func (a *AwaitLoad) Start(ctx context.Context, mexID string, index int, report domain.ReportFunc) error {
	a.mu.Lock()
	a.mexID = mexID
	a.index = index
	a.report = report
	a.status = domain.TaskStatusActive
	a.mu.Unlock()

	a.input.Subscribe(mexID, a.onInput)

	a.logger.Info("awaiting load completion input",
		"mex_id", mexID,
		"task_index", index,
	)
	return nil
}

// Status возвращает текущий статус task.
func (a *AwaitLoad) Status() domain.TaskStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// onInput обрабатывает ввод оператора/системы.
func (a *AwaitLoad) onInput(code confirm.InputCode) {
	status, terminal := confirm.MapInputCode(code)

	a.mu.Lock()

	if !terminal {
		// Информационный сигнал: погрузка ещё идёт.
		index, report := a.index, a.report
		a.mu.Unlock()
		report(domain.TaskResult{Index: index, Status: domain.TaskStatusActive})
		return
	}

	if a.reported {
		a.mu.Unlock()
		return
	}
	a.reported = true
	a.status = status
	mexID, index, report := a.mexID, a.index, a.report
	a.mu.Unlock()

	// Терминальный ввод — подписка больше не нужна.
	a.input.Unsubscribe(mexID)

	a.logger.Info("load completion input received",
		"mex_id", mexID,
		"task_index", index,
		"status", status,
		"code", int(code),
	)
	report(domain.TaskResult{Index: index, Status: status})
}
