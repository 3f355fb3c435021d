package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Flotilla/internal/domain"
)

// Order DTOs

// CreateOrderRequest — запрос на подачу заказа.
//
// Заказ подаётся либо текстом ("transport high storage assembly"),
// либо структурированными полями. Text имеет приоритет.
type CreateOrderRequest struct {
	Text     string   `json:"text,omitempty"`
	Keyword  string   `json:"keyword,omitempty"`
	Priority string   `json:"priority,omitempty"`
	Args     []string `json:"args,omitempty"`
	MExID    string   `json:"mex_id,omitempty"`
}

// Job DTOs

// JobResponse — ответ с job.
type JobResponse struct {
	ID          string `json:"id"`
	Keyword     string `json:"keyword"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	MExID       string `json:"mex_id,omitempty"`
	Tasks       int    `json:"tasks"`
	CurrentTask *int   `json:"current_task,omitempty"`
}

// JobFromDomain конвертирует domain.Job в JobResponse.
func JobFromDomain(j *domain.Job) JobResponse {
	resp := JobResponse{
		ID:       j.ID(),
		Keyword:  string(j.Keyword()),
		Priority: string(j.Priority()),
		Status:   string(j.Status()),
		MExID:    j.MExID(),
		Tasks:    j.TaskCount(),
	}
	if current, ok := j.CurrentTask(); ok {
		resp.CurrentTask = &current
	}
	return resp
}

// Location DTOs

// LocationResponse — именованная локация с позой.
type LocationResponse struct {
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// Load input DTOs

// LoadInputRequest — ввод о погрузке исполнителя.
type LoadInputRequest struct {
	Code int `json:"code"`
}

// Schedule DTOs

// CreateScheduleRequest — запрос на создание schedule.
type CreateScheduleRequest struct {
	Name        string   `json:"name"`
	Keyword     string   `json:"keyword"`
	Args        []string `json:"args"`
	Priority    string   `json:"priority,omitempty"`
	MExID       string   `json:"mex_id,omitempty"`
	CronExpr    string   `json:"cron_expr,omitempty"`
	IntervalSec int      `json:"interval_sec,omitempty"`
	Timezone    string   `json:"timezone,omitempty"`
	Enabled     bool     `json:"enabled"`
}

// UpdateScheduleRequest — запрос на обновление schedule.
type UpdateScheduleRequest struct {
	Name        *string   `json:"name,omitempty"`
	Keyword     *string   `json:"keyword,omitempty"`
	Args        *[]string `json:"args,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	MExID       *string   `json:"mex_id,omitempty"`
	CronExpr    *string   `json:"cron_expr,omitempty"`
	IntervalSec *int      `json:"interval_sec,omitempty"`
	Timezone    *string   `json:"timezone,omitempty"`
}

// SetEnabledRequest — запрос на включение/выключение.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// ScheduleResponse — ответ с schedule.
type ScheduleResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Keyword     string     `json:"keyword"`
	Args        []string   `json:"args"`
	Priority    string     `json:"priority"`
	MExID       string     `json:"mex_id,omitempty"`
	CronExpr    string     `json:"cron_expr,omitempty"`
	IntervalSec int        `json:"interval_sec,omitempty"`
	Timezone    string     `json:"timezone"`
	Enabled     bool       `json:"enabled"`
	NextDueAt   *time.Time `json:"next_due_at,omitempty"`
	LastOrderAt *time.Time `json:"last_order_at,omitempty"`
	LastOrderID string     `json:"last_order_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ScheduleFromDomain конвертирует domain.Schedule в ScheduleResponse.
func ScheduleFromDomain(s *domain.Schedule) ScheduleResponse {
	if s == nil {
		return ScheduleResponse{}
	}
	return ScheduleResponse{
		ID:          s.ID,
		Name:        s.Name,
		Keyword:     string(s.Keyword),
		Args:        s.Args,
		Priority:    string(s.Priority),
		MExID:       s.MExID,
		CronExpr:    s.CronExpr,
		IntervalSec: s.IntervalSec,
		Timezone:    s.Timezone,
		Enabled:     s.Enabled,
		NextDueAt:   s.NextDueAt,
		LastOrderAt: s.LastOrderAt,
		LastOrderID: s.LastOrderID,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
