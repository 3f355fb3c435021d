package domain

// JobStatus — статус жизненного цикла job.
//
// Жизненный цикл:
//
//	PENDING → ASSIGNED → ACTIVE → SUCCEEDED
//	                            ↘ ABORTED
type JobStatus string

const (
	// JobStatusPending — job создан и ждёт назначения исполнителя.
	JobStatusPending JobStatus = "PENDING"

	// JobStatusAssigned — job привязан к MEx, но выполнение ещё не началось.
	JobStatusAssigned JobStatus = "ASSIGNED"

	// JobStatusActive — job выполняется, ровно одна task активна.
	JobStatusActive JobStatus = "ACTIVE"

	// JobStatusSucceeded — все tasks завершились успешно.
	JobStatusSucceeded JobStatus = "SUCCEEDED"

	// JobStatusAborted — одна из tasks была отменена или упала.
	JobStatusAborted JobStatus = "ABORTED"
)

// IsTerminal возвращает true, если статус финальный (job завершён).
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusAborted:
		return true
	default:
		return false
	}
}

// TaskStatus — статус выполнения task.
//
// Жизненный цикл:
//
//	PENDING → ACTIVE → SUCCEEDED
//	                 ↘ CANCELLED
//	                 ↘ ABORTED
//
// Терминальные статусы «липкие»: после SUCCEEDED/CANCELLED/ABORTED
// переходов больше не бывает.
type TaskStatus string

const (
	// TaskStatusPending — task создана, Start ещё не вызывался.
	TaskStatusPending TaskStatus = "PENDING"

	// TaskStatusActive — task запущена и ждёт терминального события.
	TaskStatusActive TaskStatus = "ACTIVE"

	// TaskStatusCancelled — действие task было отменено извне.
	TaskStatusCancelled TaskStatus = "CANCELLED"

	// TaskStatusSucceeded — task завершилась успешно.
	TaskStatusSucceeded TaskStatus = "SUCCEEDED"

	// TaskStatusAborted — task завершилась с ошибкой.
	TaskStatusAborted TaskStatus = "ABORTED"
)

// IsTerminal возвращает true, если статус финальный.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCancelled, TaskStatusSucceeded, TaskStatusAborted:
		return true
	default:
		return false
	}
}

// MExStatus — статус мобильного исполнителя (MEx) в реестре.
//
// Ядро диспетчера двигает MEx только вперёд:
// STANDBY → ASSIGNED → EXECUTING_TASK. Возврат в STANDBY — зона
// ответственности sentinel, по событию завершения job.
type MExStatus string

const (
	// MExStatusStandby — исполнитель свободен и готов принять job.
	MExStatusStandby MExStatus = "STANDBY"

	// MExStatusAssigned — исполнителю назначен job, выполнение не началось.
	MExStatusAssigned MExStatus = "ASSIGNED"

	// MExStatusExecutingTask — исполнитель выполняет task назначенного job.
	MExStatusExecutingTask MExStatus = "EXECUTING_TASK"

	// MExStatusCharging — исполнитель на зарядке, недоступен для назначений.
	MExStatusCharging MExStatus = "CHARGING"

	// MExStatusUnavailable — исполнитель отключён оператором.
	MExStatusUnavailable MExStatus = "UNAVAILABLE"

	// MExStatusError — исполнитель в аварийном состоянии.
	MExStatusError MExStatus = "ERROR"
)

// ValidMExStatus проверяет, что строка — известный статус MEx.
func ValidMExStatus(s string) bool {
	switch MExStatus(s) {
	case MExStatusStandby, MExStatusAssigned, MExStatusExecutingTask,
		MExStatusCharging, MExStatusUnavailable, MExStatusError:
		return true
	default:
		return false
	}
}

// JobPriority — приоритет job.
//
// Приоритет переносится как данные для внешних потребителей (например,
// упорядочивание очереди на стороне приёма заказов); сам аллокатор
// сканирует очередь строго в порядке поступления.
type JobPriority string

const (
	JobPriorityLow      JobPriority = "LOW"
	JobPriorityMedium   JobPriority = "MEDIUM"
	JobPriorityHigh     JobPriority = "HIGH"
	JobPriorityCritical JobPriority = "CRITICAL"
)

// ParseJobPriority парсит строку в JobPriority.
// Неизвестные значения превращаются в LOW.
func ParseJobPriority(s string) JobPriority {
	switch JobPriority(s) {
	case JobPriorityLow, JobPriorityMedium, JobPriorityHigh, JobPriorityCritical:
		return JobPriority(s)
	default:
		return JobPriorityLow
	}
}
