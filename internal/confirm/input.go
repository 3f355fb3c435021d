// Package confirm доставляет ввод подтверждения погрузки от оператора
// или внешней системы к task'ам AwaitLoad.
package confirm

import "github.com/shaiso/Flotilla/internal/domain"

// InputCode — нативный код ввода погрузки.
type InputCode int

const (
	// InputPending — погрузка ещё не началась.
	InputPending InputCode = 0

	// InputActive — погрузка идёт.
	InputActive InputCode = 1

	// InputCancelled — погрузка отменена оператором.
	InputCancelled InputCode = 2

	// InputSucceeded — погрузка завершена успешно.
	InputSucceeded InputCode = 3

	// InputAborted — погрузка прервана из-за ошибки.
	InputAborted InputCode = 4
)

// MapInputCode отображает код ввода в TaskStatus.
//
// Отображение тотально:
//   - SUCCEEDED → SUCCEEDED (терминальный)
//   - CANCELLED → CANCELLED (терминальный)
//   - ABORTED   → ABORTED (терминальный)
//   - PENDING, ACTIVE и неизвестные коды → ACTIVE (не терминальный)
func MapInputCode(code InputCode) (domain.TaskStatus, bool) {
	switch code {
	case InputSucceeded:
		return domain.TaskStatusSucceeded, true
	case InputCancelled:
		return domain.TaskStatusCancelled, true
	case InputAborted:
		return domain.TaskStatusAborted, true
	default:
		return domain.TaskStatusActive, false
	}
}
