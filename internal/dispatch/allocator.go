package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Flotilla/internal/domain"
)

// Registry — то, что dispatch нужно от реестра исполнителей (sentinel).
type Registry interface {
	// ListMExs возвращает снапшот всего флота.
	ListMExs(ctx context.Context) ([]domain.MobileExecutor, error)

	// AssignJob закрепляет job за исполнителем и переводит его в ASSIGNED.
	AssignJob(ctx context.Context, mexID, jobID string) error

	// ChangeStatus меняет статус исполнителя.
	ChangeStatus(ctx context.Context, mexID string, status domain.MExStatus) error
}

// Allocation — результат одного прохода аллокации.
type Allocation struct {
	Job   *domain.Job
	MExID string
}

// Allocator подбирает исполнителей для ожидающих jobs.
//
// За один вызов Allocate выполняется не более одного назначения.
// Снапшот флота запрашивается заново на каждый вызов и не
// переживает его.
type Allocator struct {
	registry Registry
	logger   *slog.Logger
}

// NewAllocator создаёт Allocator.
func NewAllocator(registry Registry, logger *slog.Logger) *Allocator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Allocator{registry: registry, logger: logger}
}

// Allocate пытается назначить исполнителя первому PENDING job из списка.
//
// Список pending обходится по порядку; jobs не в PENDING пропускаются.
// Обработка останавливается на первом PENDING job: если для него нет
// подходящего исполнителя, jobs дальше по списку не рассматриваются —
// очередь строго FIFO, поздние заказы не обгоняют ранние.
//
// Возвращает (nil, nil), когда назначать нечего или некому: пустой
// список, ни одного PENDING job, нет свободного исполнителя. Это
// штатный исход прохода, не ошибка.
//
// Реестр уведомляется ДО локальной мутации job: если AssignJob
// завершился ошибкой, job остаётся PENDING и будет подобран следующим
// проходом, а вызывающему возвращается ошибка.
func (a *Allocator) Allocate(ctx context.Context, pending []*domain.Job) (*Allocation, error) {
	job := firstPending(pending)
	if job == nil {
		return nil, nil
	}

	fleet, err := a.registry.ListMExs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistryList, err)
	}

	mex := pickMEx(fleet, job.MExID())
	if mex == nil {
		a.logger.Debug("no executor available",
			"job_id", job.ID(),
			"requested_mex", job.MExID(),
			"fleet_size", len(fleet),
		)
		return nil, nil
	}

	if err := a.registry.AssignJob(ctx, mex.ID, job.ID()); err != nil {
		return nil, fmt.Errorf("%w: mex %s, job %s: %v", ErrRegistryAssign, mex.ID, job.ID(), err)
	}

	job.AssignMEx(mex.ID)

	a.logger.Info("job allocated",
		"job_id", job.ID(),
		"mex_id", mex.ID,
	)
	return &Allocation{Job: job, MExID: mex.ID}, nil
}

// firstPending возвращает первый job в статусе PENDING.
func firstPending(jobs []*domain.Job) *domain.Job {
	for _, job := range jobs {
		if job.Status() == domain.JobStatusPending {
			return job
		}
	}
	return nil
}

// pickMEx выбирает исполнителя для job.
//
// Если заказ заранее запросил конкретного исполнителя, подходит только
// он; занятость запрошенного исполнителя означает miss, а не замену.
// Иначе берётся первый свободный исполнитель в порядке снапшота.
func pickMEx(fleet []domain.MobileExecutor, requested string) *domain.MobileExecutor {
	for i := range fleet {
		mex := &fleet[i]
		if requested != "" && mex.ID != requested {
			continue
		}
		if mex.Available() {
			return mex
		}
		if requested != "" {
			return nil
		}
	}
	return nil
}
