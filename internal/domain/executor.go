package domain

import "time"

// MobileExecutor — мобильный исполнитель (MEx): робот или другая
// подвижная единица, выполняющая jobs.
//
// Авторитетный список исполнителей принадлежит sentinel'у; диспетчер
// работает с короткоживущим снапшотом на один цикл аллокации и
// выбрасывает его между циклами, чтобы не опираться на устаревшую
// доступность.
type MobileExecutor struct {
	// ID — уникальный идентификатор исполнителя, например "rdg01".
	ID string `json:"id"`

	// Status — текущий статус исполнителя.
	Status MExStatus `json:"status"`

	// JobID — id назначенного job (пустая строка, если job нет).
	JobID string `json:"job_id,omitempty"`

	// Pose — последняя известная поза исполнителя на карте.
	Pose Pose `json:"pose"`

	// RegisteredAt — время регистрации в реестре.
	RegisteredAt time.Time `json:"registered_at"`

	// UpdatedAt — время последнего изменения статуса.
	UpdatedAt time.Time `json:"updated_at"`
}

// Available возвращает true, если исполнителю можно назначить job.
func (m *MobileExecutor) Available() bool {
	return m.Status == MExStatusStandby
}

// Pose — поза на карте: координаты и курс (yaw, радианы).
type Pose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}
