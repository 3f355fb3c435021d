package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/shaiso/Flotilla/internal/domain"
	"github.com/shaiso/Flotilla/internal/nav"
)

// NavSender — то, что Move нужно от навигационного клиента.
type NavSender interface {
	SendGoal(ctx context.Context, mexID, goalID string, target domain.Pose) error
	Subscribe(mexID string, handler nav.ResultHandler)
	Unsubscribe(mexID string)
}

// Move — task перемещения исполнителя к целевой позе.
//
// При старте подписывается на результаты навигации исполнителя и
// публикует цель. Промежуточные статусы (в пути) не репортятся job'у;
// первый терминальный статус снимает подписку и уходит через report
// ровно один раз. Результаты с чужим goal id игнорируются —
// это запоздавшие сигналы от предыдущей цели исполнителя.
type Move struct {
	nav    NavSender
	target domain.Pose
	logger *slog.Logger

	mu       sync.Mutex
	status   domain.TaskStatus
	mexID    string
	index    int
	goalID   string
	report   domain.ReportFunc
	reported bool
}

// NewMove создаёт task перемещения к целевой позе.
func NewMove(navClient NavSender, target domain.Pose, logger *slog.Logger) *Move {
	if logger == nil {
		logger = slog.Default()
	}
	return &Move{
		nav:    navClient,
		target: target,
		logger: logger,
		status: domain.TaskStatusPending,
	}
}

// Start привязывает идентичность, подписывается на результаты и
// публикует навигационную цель.
func (m *Move) Start(ctx context.Context, mexID string, index int, report domain.ReportFunc) error {
	m.mu.Lock()
	m.mexID = mexID
	m.index = index
	m.report = report
	m.goalID = uuid.New().String()
	m.status = domain.TaskStatusActive
	goalID := m.goalID
	m.mu.Unlock()

	m.nav.Subscribe(mexID, m.onResult)

	if err := m.nav.SendGoal(ctx, mexID, goalID, m.target); err != nil {
		m.nav.Unsubscribe(mexID)
		m.mu.Lock()
		m.status = domain.TaskStatusPending
		m.mu.Unlock()
		return fmt.Errorf("start move task: %w", err)
	}

	m.logger.Info("move task started",
		"mex_id", mexID,
		"task_index", index,
		"goal_id", goalID,
	)
	return nil
}

// Status возвращает текущий статус task.
func (m *Move) Status() domain.TaskStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// onResult обрабатывает статус навигационной цели.
func (m *Move) onResult(goalID string, code nav.GoalStatus) {
	m.mu.Lock()

	if goalID != m.goalID {
		m.logger.Debug("nav result for stale goal, ignoring",
			"mex_id", m.mexID,
			"goal_id", goalID,
			"current_goal_id", m.goalID,
		)
		m.mu.Unlock()
		return
	}

	status, terminal := nav.MapGoalStatus(code)
	if !terminal {
		// Промежуточный сигнал навигации job'у не репортим.
		m.mu.Unlock()
		return
	}

	if m.reported {
		m.mu.Unlock()
		return
	}
	m.reported = true
	m.status = status
	mexID, index, report := m.mexID, m.index, m.report
	m.mu.Unlock()

	m.nav.Unsubscribe(mexID)

	m.logger.Info("move task finished",
		"mex_id", mexID,
		"task_index", index,
		"status", status,
		"code", int(code),
	)
	report(domain.TaskResult{Index: index, Status: status})
}
