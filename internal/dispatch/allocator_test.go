package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/shaiso/Flotilla/internal/domain"
)

// fakeRegistry — реестр-заглушка. Поле jobs позволяет заглянуть в
// статус job ровно в момент вызова AssignJob.
type fakeRegistry struct {
	fleet     []domain.MobileExecutor
	jobs      map[string]*domain.Job
	listErr   error
	assignErr error
	statusErr error

	assigns       []assignCall
	statusChanges []statusCall
}

type assignCall struct {
	mexID string
	jobID string
	// Статус job в момент вызова: реестр должен уведомляться
	// раньше локальной мутации.
	jobStatusAtCall domain.JobStatus
}

type statusCall struct {
	mexID  string
	status domain.MExStatus
}

func (r *fakeRegistry) ListMExs(_ context.Context) ([]domain.MobileExecutor, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	fleet := make([]domain.MobileExecutor, len(r.fleet))
	copy(fleet, r.fleet)
	return fleet, nil
}

func (r *fakeRegistry) AssignJob(_ context.Context, mexID, jobID string) error {
	if r.assignErr != nil {
		return r.assignErr
	}
	status := domain.JobStatus("")
	if r.jobs != nil {
		if job, ok := r.jobs[jobID]; ok {
			status = job.Status()
		}
	}
	r.assigns = append(r.assigns, assignCall{mexID, jobID, status})
	for i := range r.fleet {
		if r.fleet[i].ID == mexID {
			r.fleet[i].Status = domain.MExStatusAssigned
			r.fleet[i].JobID = jobID
		}
	}
	return nil
}

func (r *fakeRegistry) ChangeStatus(_ context.Context, mexID string, status domain.MExStatus) error {
	if r.statusErr != nil {
		return r.statusErr
	}
	r.statusChanges = append(r.statusChanges, statusCall{mexID, status})
	for i := range r.fleet {
		if r.fleet[i].ID == mexID {
			r.fleet[i].Status = status
		}
	}
	return nil
}

var _ Registry = (*fakeRegistry)(nil)

func standbyMEx(id string) domain.MobileExecutor {
	return domain.MobileExecutor{ID: id, Status: domain.MExStatusStandby}
}

func busyMEx(id, jobID string) domain.MobileExecutor {
	return domain.MobileExecutor{ID: id, Status: domain.MExStatusExecutingTask, JobID: jobID}
}

func pendingJob(id string) *domain.Job {
	return domain.NewJob(domain.JobConfig{ID: id, Completion: func(string, string) {}})
}

func TestAllocate_EmptyQueue(t *testing.T) {
	reg := &fakeRegistry{fleet: []domain.MobileExecutor{standbyMEx("rdg01")}}
	alloc := NewAllocator(reg, nil)

	got, err := alloc.Allocate(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected no allocation, got %+v", got)
	}
}

func TestAllocate_FirstAvailableMEx(t *testing.T) {
	reg := &fakeRegistry{fleet: []domain.MobileExecutor{
		busyMEx("rdg01", "other"),
		standbyMEx("rdg02"),
		standbyMEx("rdg03"),
	}}
	alloc := NewAllocator(reg, nil)
	job := pendingJob("job001")

	got, err := alloc.Allocate(context.Background(), []*domain.Job{job})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected allocation")
	}
	if got.MExID != "rdg02" {
		t.Errorf("expected rdg02, got %s", got.MExID)
	}
	if job.Status() != domain.JobStatusAssigned {
		t.Errorf("expected ASSIGNED, got %s", job.Status())
	}
	if job.MExID() != "rdg02" {
		t.Errorf("expected job bound to rdg02, got %s", job.MExID())
	}
	if len(reg.assigns) != 1 || reg.assigns[0].jobID != "job001" {
		t.Errorf("unexpected assign calls: %+v", reg.assigns)
	}
}

func TestAllocate_RegistryNotifiedBeforeMutation(t *testing.T) {
	job := pendingJob("job001")
	reg := &fakeRegistry{
		fleet: []domain.MobileExecutor{standbyMEx("rdg01")},
		jobs:  map[string]*domain.Job{"job001": job},
	}
	alloc := NewAllocator(reg, nil)

	if _, err := alloc.Allocate(context.Background(), []*domain.Job{job}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reg.assigns) != 1 {
		t.Fatalf("expected 1 assign call, got %d", len(reg.assigns))
	}
	if reg.assigns[0].jobStatusAtCall != domain.JobStatusPending {
		t.Errorf("registry must be notified while job is still PENDING, saw %s",
			reg.assigns[0].jobStatusAtCall)
	}
}

func TestAllocate_FleetBusy(t *testing.T) {
	reg := &fakeRegistry{fleet: []domain.MobileExecutor{
		busyMEx("rdg01", "jobA"),
		busyMEx("rdg02", "jobB"),
	}}
	alloc := NewAllocator(reg, nil)
	job := pendingJob("job001")

	got, err := alloc.Allocate(context.Background(), []*domain.Job{job})
	if err != nil {
		t.Fatalf("fleet busy is not an error, got: %v", err)
	}
	if got != nil {
		t.Errorf("expected miss, got %+v", got)
	}
	if job.Status() != domain.JobStatusPending {
		t.Errorf("job must stay PENDING, got %s", job.Status())
	}
}

func TestAllocate_RequestedMEx(t *testing.T) {
	reg := &fakeRegistry{fleet: []domain.MobileExecutor{
		standbyMEx("rdg01"),
		standbyMEx("rdg02"),
	}}
	alloc := NewAllocator(reg, nil)
	job := domain.NewJob(domain.JobConfig{
		ID:         "job001",
		MExID:      "rdg02",
		Completion: func(string, string) {},
	})

	got, err := alloc.Allocate(context.Background(), []*domain.Job{job})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.MExID != "rdg02" {
		t.Fatalf("expected rdg02 for pre-requested job, got %+v", got)
	}
}

func TestAllocate_RequestedMExBusy(t *testing.T) {
	// rdg01 свободен, но заказ запросил занятого rdg02 — замена
	// не допускается.
	reg := &fakeRegistry{fleet: []domain.MobileExecutor{
		standbyMEx("rdg01"),
		busyMEx("rdg02", "other"),
	}}
	alloc := NewAllocator(reg, nil)
	job := domain.NewJob(domain.JobConfig{
		ID:         "job001",
		MExID:      "rdg02",
		Completion: func(string, string) {},
	})

	got, err := alloc.Allocate(context.Background(), []*domain.Job{job})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected miss, got %+v", got)
	}
	if job.Status() != domain.JobStatusPending {
		t.Errorf("job must stay PENDING, got %s", job.Status())
	}
}

func TestAllocate_StopsOnFirstPendingJob(t *testing.T) {
	// Первый PENDING job требует занятого исполнителя; второй мог бы
	// получить свободного, но очередь FIFO — поздние заказы не
	// обгоняют ранние.
	reg := &fakeRegistry{fleet: []domain.MobileExecutor{
		standbyMEx("rdg01"),
		busyMEx("rdg02", "other"),
	}}
	alloc := NewAllocator(reg, nil)
	first := domain.NewJob(domain.JobConfig{
		ID:         "job001",
		MExID:      "rdg02",
		Completion: func(string, string) {},
	})
	second := pendingJob("job002")

	got, err := alloc.Allocate(context.Background(), []*domain.Job{first, second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected miss, got %+v", got)
	}
	if second.Status() != domain.JobStatusPending {
		t.Errorf("second job must not be allocated, got %s", second.Status())
	}
}

func TestAllocate_SkipsNonPendingJobs(t *testing.T) {
	reg := &fakeRegistry{fleet: []domain.MobileExecutor{standbyMEx("rdg01")}}
	alloc := NewAllocator(reg, nil)

	assigned := pendingJob("job001")
	assigned.AssignMEx("rdg09")
	pending := pendingJob("job002")

	got, err := alloc.Allocate(context.Background(), []*domain.Job{assigned, pending})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Job.ID() != "job002" {
		t.Fatalf("expected job002 allocated, got %+v", got)
	}
}

func TestAllocate_SingleAssignmentPerCall(t *testing.T) {
	reg := &fakeRegistry{fleet: []domain.MobileExecutor{
		standbyMEx("rdg01"),
		standbyMEx("rdg02"),
	}}
	alloc := NewAllocator(reg, nil)
	jobs := []*domain.Job{pendingJob("job001"), pendingJob("job002")}

	got, err := alloc.Allocate(context.Background(), jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Job.ID() != "job001" {
		t.Fatalf("expected job001 allocated, got %+v", got)
	}
	if jobs[1].Status() != domain.JobStatusPending {
		t.Errorf("second job must wait for the next pass, got %s", jobs[1].Status())
	}
	if len(reg.assigns) != 1 {
		t.Errorf("expected 1 assign call, got %d", len(reg.assigns))
	}
}

func TestAllocate_ListFailure(t *testing.T) {
	reg := &fakeRegistry{listErr: errors.New("sentinel down")}
	alloc := NewAllocator(reg, nil)
	job := pendingJob("job001")

	_, err := alloc.Allocate(context.Background(), []*domain.Job{job})
	if !errors.Is(err, ErrRegistryList) {
		t.Fatalf("expected ErrRegistryList, got %v", err)
	}
	if job.Status() != domain.JobStatusPending {
		t.Errorf("job must stay PENDING after registry failure, got %s", job.Status())
	}
}

func TestAllocate_AssignFailure(t *testing.T) {
	reg := &fakeRegistry{
		fleet:     []domain.MobileExecutor{standbyMEx("rdg01")},
		assignErr: errors.New("conflict"),
	}
	alloc := NewAllocator(reg, nil)
	job := pendingJob("job001")

	_, err := alloc.Allocate(context.Background(), []*domain.Job{job})
	if !errors.Is(err, ErrRegistryAssign) {
		t.Fatalf("expected ErrRegistryAssign, got %v", err)
	}
	// Реестр отклонил — локальная мутация не должна была случиться.
	if job.Status() != domain.JobStatusPending {
		t.Errorf("job must stay PENDING, got %s", job.Status())
	}
	if job.MExID() != "" {
		t.Errorf("job must not be bound to an executor, got %s", job.MExID())
	}
}
