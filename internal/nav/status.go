package nav

import "github.com/shaiso/Flotilla/internal/domain"

// GoalStatus — нативный код статуса навигационного стека.
//
// Набор кодов совместим с actionlib GoalStatus: агент (или настоящий
// навигационный стек за ним) отчитывается этими кодами, а ядро видит
// только TaskStatus после MapGoalStatus.
type GoalStatus int

const (
	GoalStatusPending    GoalStatus = 0
	GoalStatusActive     GoalStatus = 1
	GoalStatusPreempted  GoalStatus = 2
	GoalStatusSucceeded  GoalStatus = 3
	GoalStatusAborted    GoalStatus = 4
	GoalStatusRejected   GoalStatus = 5
	GoalStatusPreempting GoalStatus = 6
	GoalStatusRecalling  GoalStatus = 7
	GoalStatusRecalled   GoalStatus = 8
	GoalStatusLost       GoalStatus = 9
)

// MapGoalStatus отображает нативный код навигации в TaskStatus.
//
// Отображение тотально: каждый код даёт пару (статус, терминальность).
//   - SUCCEEDED                    → SUCCEEDED (терминальный)
//   - PREEMPTED, RECALLED          → CANCELLED (терминальный)
//   - ABORTED, REJECTED, LOST      → ABORTED (терминальный)
//   - PENDING, ACTIVE, PREEMPTING,
//     RECALLING и неизвестные коды → ACTIVE (не терминальный)
//
// Неизвестный код трактуется как промежуточный сигнал: новый код
// навигационного стека не должен ложно обрывать task.
func MapGoalStatus(code GoalStatus) (domain.TaskStatus, bool) {
	switch code {
	case GoalStatusSucceeded:
		return domain.TaskStatusSucceeded, true
	case GoalStatusPreempted, GoalStatusRecalled:
		return domain.TaskStatusCancelled, true
	case GoalStatusAborted, GoalStatusRejected, GoalStatusLost:
		return domain.TaskStatusAborted, true
	default:
		return domain.TaskStatusActive, false
	}
}
