package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule — расписание автоматической подачи заказа.
//
// Позволяет подавать повторяющиеся заказы (например, челночный
// TRANSPORT между складом и сборкой):
// - По cron-выражению: "0 9 * * *" (каждый день в 9:00)
// - По интервалу: каждые N секунд
//
// Scheduler проверяет next_due_at и публикует заказ в orders.incoming,
// когда время подошло.
type Schedule struct {
	// ID — уникальный идентификатор schedule.
	ID uuid.UUID `json:"id"`

	// Name — имя расписания для удобства.
	Name string `json:"name,omitempty"`

	// Keyword — ключевое слово подаваемого заказа.
	Keyword OrderKeyword `json:"keyword"`

	// Args — аргументы-локации заказа.
	Args []string `json:"args"`

	// Priority — приоритет создаваемых jobs.
	Priority JobPriority `json:"priority"`

	// MExID — опционально закреплённый исполнитель для заказов
	// этого расписания.
	MExID string `json:"mex_id,omitempty"`

	// CronExpr — cron-выражение.
	// Формат: "минуты часы дни месяцы дни_недели"
	// Если задан CronExpr, IntervalSec игнорируется.
	CronExpr string `json:"cron_expr,omitempty"`

	// IntervalSec — интервал в секундах между подачами.
	// Используется если CronExpr не задан.
	IntervalSec int `json:"interval_sec,omitempty"`

	// Timezone — часовой пояс для вычисления времени.
	// По умолчанию: "UTC".
	Timezone string `json:"timezone"`

	// Enabled — флаг активности расписания.
	Enabled bool `json:"enabled"`

	// NextDueAt — время следующей подачи.
	// После подачи заказа Scheduler вычисляет новое NextDueAt.
	NextDueAt *time.Time `json:"next_due_at,omitempty"`

	// LastOrderAt — время последней подачи.
	LastOrderAt *time.Time `json:"last_order_at,omitempty"`

	// LastOrderID — ID последнего поданного заказа.
	LastOrderID string `json:"last_order_id,omitempty"`

	// CreatedAt — время создания schedule.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего обновления.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsCron возвращает true, если расписание использует cron-выражение.
func (s *Schedule) IsCron() bool {
	return s.CronExpr != ""
}

// IsInterval возвращает true, если расписание использует интервал.
func (s *Schedule) IsInterval() bool {
	return s.CronExpr == "" && s.IntervalSec > 0
}

// IsDue проверяет, пора ли подавать заказ.
func (s *Schedule) IsDue(now time.Time) bool {
	if !s.Enabled {
		return false
	}
	if s.NextDueAt == nil {
		return false
	}
	return now.After(*s.NextDueAt) || now.Equal(*s.NextDueAt)
}

// RecordOrder записывает информацию о поданном заказе.
func (s *Schedule) RecordOrder(orderID string, nextDue time.Time) {
	now := time.Now()
	s.LastOrderAt = &now
	s.LastOrderID = orderID
	s.NextDueAt = &nextDue
	s.UpdatedAt = now
}
