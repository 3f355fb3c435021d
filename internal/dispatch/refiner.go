package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Flotilla/internal/domain"
)

// Refiner доводит назначенный job до выполнения.
type Refiner struct {
	registry Registry
	logger   *slog.Logger
}

// NewRefiner создаёт Refiner.
func NewRefiner(registry Registry, logger *slog.Logger) *Refiner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refiner{registry: registry, logger: logger}
}

// Refine стартует назначенный job и переводит исполнителя в
// EXECUTING_TASK.
//
// Ошибка старта возвращается вызывающему; job к этому моменту уже
// ABORTED, и его callback завершения отработал — откатывать нечего.
//
// Ошибка смены статуса в реестре не откатывает выполнение: job уже
// работает, а реестр догонит состояние по событию jobs.completed.
func (r *Refiner) Refine(ctx context.Context, alloc *Allocation) error {
	if err := alloc.Job.Start(ctx); err != nil {
		return fmt.Errorf("start job %s: %w", alloc.Job.ID(), err)
	}

	if err := r.registry.ChangeStatus(ctx, alloc.MExID, domain.MExStatusExecutingTask); err != nil {
		r.logger.Warn("failed to mark executor as executing",
			"mex_id", alloc.MExID,
			"job_id", alloc.Job.ID(),
			"error", err,
		)
	}

	return nil
}
