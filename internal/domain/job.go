package domain

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Ошибки жизненного цикла job.
var (
	// ErrNoTasks — попытка запустить job с пустым task list.
	ErrNoTasks = errors.New("job has no tasks")
)

// JobCompletionFunc — callback завершения job.
//
// Вызывается ровно один раз, когда job достигает терминального статуса
// (SUCCEEDED или ABORTED), с id job'а и id назначенного MEx.
// Единственный канал, по которому результат job'а уходит наружу.
type JobCompletionFunc func(jobID, mexID string)

// Job — заказ-наряд для одного мобильного исполнителя.
//
// Job владеет упорядоченным списком tasks и выполняет их строго
// последовательно: task i+1 не стартует, пока не принят терминальный
// результат task i. Ровно одна task активна в каждый момент.
//
// Все мутации состояния защищены мьютексом на уровне экземпляра:
// результат task'и может приходить одновременно с проходом аллокатора.
type Job struct {
	id         string
	keyword    OrderKeyword
	priority   JobPriority
	completion JobCompletionFunc
	logger     *slog.Logger

	mu      sync.Mutex
	mexID   string
	status  JobStatus
	tasks   []Task
	current int // индекс текущей task; -1 пока job не стартовал
	done    bool
}

// JobConfig — параметры создания Job.
type JobConfig struct {
	// ID — уникальный идентификатор job, назначается приёмом заказов.
	ID string

	// Keyword — ключевое слово заказа, из которого собран job.
	// Информационное поле, на поведение ядра не влияет.
	Keyword OrderKeyword

	// Priority — приоритет job (данные для внешних потребителей).
	Priority JobPriority

	// MExID — опциональный заранее запрошенный исполнитель.
	// Не меняет статус: job остаётся PENDING до прохода аллокатора.
	MExID string

	// Completion — callback завершения (обязательный).
	Completion JobCompletionFunc

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger
}

// NewJob создаёт Job в статусе PENDING с пустым task list.
func NewJob(cfg JobConfig) *Job {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	priority := cfg.Priority
	if priority == "" {
		priority = JobPriorityLow
	}

	return &Job{
		id:         cfg.ID,
		keyword:    cfg.Keyword,
		priority:   priority,
		completion: cfg.Completion,
		logger:     logger.With("job_id", cfg.ID),
		mexID:      cfg.MExID,
		status:     JobStatusPending,
		current:    -1,
	}
}

// ID возвращает идентификатор job.
func (j *Job) ID() string { return j.id }

// Keyword возвращает ключевое слово заказа.
func (j *Job) Keyword() OrderKeyword { return j.keyword }

// Priority возвращает приоритет job.
func (j *Job) Priority() JobPriority { return j.priority }

// MExID возвращает id назначенного (или заранее запрошенного) MEx.
func (j *Job) MExID() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.mexID
}

// Status возвращает текущий статус job.
func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// TaskCount возвращает количество tasks в job.
func (j *Job) TaskCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.tasks)
}

// CurrentTask возвращает индекс текущей task.
// ok == false, пока job не начал выполнение.
func (j *Job) CurrentTask() (int, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.current < 0 {
		return 0, false
	}
	return j.current, true
}

// AddTask добавляет task в конец task list.
//
// Task list мутируется только пока job PENDING; после выхода из PENDING
// список зафиксирован, попытка добавления логируется и игнорируется.
func (j *Job) AddTask(task Task) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status != JobStatusPending {
		j.logger.Warn("task list is frozen, ignoring AddTask", "status", j.status)
		return
	}
	j.tasks = append(j.tasks, task)
}

// AddTasks добавляет несколько tasks, сохраняя порядок.
func (j *Job) AddTasks(tasks []Task) {
	for _, task := range tasks {
		j.AddTask(task)
	}
}

// AssignMEx привязывает MEx к job и переводит его в ASSIGNED.
//
// Разрешено только из PENDING или ASSIGNED (переназначение до старта
// допустимо). Из любого другого статуса — молчаливый no-op: вызывающие
// могут легитимно гоняться, это не ошибка.
func (j *Job) AssignMEx(mexID string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status != JobStatusPending && j.status != JobStatusAssigned {
		j.logger.Debug("ignoring AssignMEx", "status", j.status, "mex_id", mexID)
		return
	}

	j.mexID = mexID
	j.status = JobStatusAssigned
}

// Start запускает выполнение job: первая task в списке стартует,
// статус становится ACTIVE.
//
// Разрешено только из ASSIGNED. Любой другой исходный статус — no-op
// с info-логом, не ошибка: повторный вызов Start допускается и просто
// не имеет эффекта.
//
// Ошибка старта первой task переводит job в ABORTED (callback
// завершения при этом срабатывает) и возвращается вызывающему.
func (j *Job) Start(ctx context.Context) error {
	j.mu.Lock()

	if j.status != JobStatusAssigned {
		j.logger.Info("job status is not ASSIGNED, cannot start", "status", j.status)
		j.mu.Unlock()
		return nil
	}

	if len(j.tasks) == 0 {
		j.logger.Error("job has no tasks, aborting")
		fire := j.finalizeLocked(JobStatusAborted)
		j.mu.Unlock()
		j.fireCompletion(fire)
		return ErrNoTasks
	}

	j.status = JobStatusActive
	j.current = 0

	if err := j.tasks[0].Start(ctx, j.mexID, 0, j.report); err != nil {
		j.logger.Error("failed to start first task", "error", err)
		fire := j.finalizeLocked(JobStatusAborted)
		j.mu.Unlock()
		j.fireCompletion(fire)
		return err
	}

	j.logger.Info("job started", "mex_id", j.mexID, "tasks", len(j.tasks))
	j.mu.Unlock()
	return nil
}

// report — ReportFunc, привязываемый к task'ам этого job.
//
// Доставка результата идёт без контекста вызова task'и; для старта
// следующей task используется context.Background() — запуск не должен
// отменяться вместе с контекстом доставившего сообщения.
func (j *Job) report(res TaskResult) {
	j.HandleTaskResult(context.Background(), res)
}

// HandleTaskResult обрабатывает сообщение о состоянии task.
//
// Результат принимается только если job ACTIVE и индекс совпадает с
// текущей task. Несовпадение индекса — нарушение протокола: сигнал от
// task'и, которую job уже прошёл; логируется и игнорируется, статус job
// не меняется.
//
// Переходы:
//   - SUCCEEDED, остались tasks  → старт следующей, job остаётся ACTIVE
//   - SUCCEEDED, последняя task  → job SUCCEEDED, callback завершения
//   - CANCELLED или ABORTED      → job ABORTED, callback завершения
//   - ACTIVE                     → информационный сигнал, без перехода
func (j *Job) HandleTaskResult(ctx context.Context, res TaskResult) {
	j.mu.Lock()

	if j.status != JobStatusActive {
		j.logger.Warn("task result for non-active job, ignoring",
			"status", j.status,
			"task_index", res.Index,
			"task_status", res.Status,
		)
		j.mu.Unlock()
		return
	}

	if res.Index != j.current {
		j.logger.Warn("mismatch between task result index and job's current task",
			"task_index", res.Index,
			"current", j.current,
			"task_status", res.Status,
		)
		j.mu.Unlock()
		return
	}

	fire := false

	switch res.Status {
	case TaskStatusSucceeded:
		if j.current+1 < len(j.tasks) {
			j.current++
			next := j.tasks[j.current]
			if err := next.Start(ctx, j.mexID, j.current, j.report); err != nil {
				j.logger.Error("failed to start next task",
					"task_index", j.current,
					"error", err,
				)
				fire = j.finalizeLocked(JobStatusAborted)
				break
			}
			j.logger.Info("task succeeded, next task started", "task_index", j.current)
		} else {
			// Конец task list — job выполнен.
			fire = j.finalizeLocked(JobStatusSucceeded)
		}

	case TaskStatusCancelled, TaskStatusAborted:
		j.logger.Warn("task reached non-success terminal status",
			"task_index", res.Index,
			"task_status", res.Status,
		)
		fire = j.finalizeLocked(JobStatusAborted)

	case TaskStatusActive:
		// Информационный сигнал, task всё ещё выполняется.
		j.logger.Debug("task progress", "task_index", res.Index)

	default:
		j.logger.Warn("unexpected task status in result, ignoring",
			"task_index", res.Index,
			"task_status", res.Status,
		)
	}

	j.mu.Unlock()
	j.fireCompletion(fire)
}

// finalizeLocked переводит job в терминальный статус.
// Возвращает true, если callback завершения ещё не вызывался.
// Вызывается только под j.mu.
func (j *Job) finalizeLocked(status JobStatus) bool {
	j.status = status
	j.logger.Info("job finished",
		"status", status,
		"mex_id", j.mexID,
		"tasks", len(j.tasks),
		"current", j.current,
	)

	if j.done {
		return false
	}
	j.done = true
	return true
}

// fireCompletion вызывает callback завершения вне мьютекса:
// владелец коллекции jobs имеет право дергать методы job из callback.
func (j *Job) fireCompletion(fire bool) {
	if !fire || j.completion == nil {
		return
	}
	j.completion(j.id, j.mexID)
}
