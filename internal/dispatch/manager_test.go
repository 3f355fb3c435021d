package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shaiso/Flotilla/internal/domain"
	"github.com/shaiso/Flotilla/internal/mq"
	"github.com/shaiso/Flotilla/internal/order"
)

// fakeTask — task-заглушка: запоминает report и позволяет доставить
// терминальный результат из теста.
type fakeTask struct {
	status  domain.TaskStatus
	started bool
	mexID   string
	index   int
	report  domain.ReportFunc
}

func (t *fakeTask) Start(_ context.Context, mexID string, index int, report domain.ReportFunc) error {
	t.started = true
	t.mexID = mexID
	t.index = index
	t.report = report
	t.status = domain.TaskStatusActive
	return nil
}

func (t *fakeTask) Status() domain.TaskStatus { return t.status }

func (t *fakeTask) finish(status domain.TaskStatus) {
	t.status = status
	t.report(domain.TaskResult{Index: t.index, Status: status})
}

// fakeBuilder выдаёт n свежих fakeTask на каждый заказ.
type fakeBuilder struct {
	n     int
	err   error
	built [][]*fakeTask
}

func (b *fakeBuilder) Build(_ domain.Order) ([]domain.Task, error) {
	if b.err != nil {
		return nil, b.err
	}
	set := make([]*fakeTask, b.n)
	tasks := make([]domain.Task, b.n)
	for i := range set {
		ft := &fakeTask{status: domain.TaskStatusPending}
		set[i] = ft
		tasks[i] = ft
	}
	b.built = append(b.built, set)
	return tasks, nil
}

// completedRecorder записывает публикации jobs.completed.
type completedRecorder struct {
	payloads []mq.JobCompletedPayload
}

func (r *completedRecorder) PublishJobCompleted(_ context.Context, p mq.JobCompletedPayload) error {
	r.payloads = append(r.payloads, p)
	return nil
}

func newTestManager(reg *fakeRegistry, builder TaskBuilder, pub CompletionPublisher) *Manager {
	return NewManager(Config{
		Allocator: NewAllocator(reg, nil),
		Refiner:   NewRefiner(reg, nil),
		Builder:   builder,
		Publisher: pub,
	})
}

func moveOrder(id string) domain.Order {
	return domain.Order{
		ID:      id,
		Keyword: domain.OrderKeywordMove,
		Args:    []string{"charging"},
	}
}

func TestSubmitOrder(t *testing.T) {
	reg := &fakeRegistry{}
	builder := &fakeBuilder{n: 2}
	m := newTestManager(reg, builder, &completedRecorder{})

	job, err := m.SubmitOrder(context.Background(), moveOrder("job001"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status() != domain.JobStatusPending {
		t.Errorf("expected PENDING, got %s", job.Status())
	}
	if job.TaskCount() != 2 {
		t.Errorf("expected 2 tasks, got %d", job.TaskCount())
	}
	if m.PendingCount() != 1 {
		t.Errorf("expected 1 pending job, got %d", m.PendingCount())
	}
	if got, ok := m.Job("job001"); !ok || got != job {
		t.Error("job must be registered in the collection")
	}

	// Приём заказа будит цикл аллокации.
	select {
	case <-m.kick:
	default:
		t.Error("expected allocation kick after order submit")
	}
}

func TestSubmitOrder_DuplicateID(t *testing.T) {
	m := newTestManager(&fakeRegistry{}, &fakeBuilder{n: 1}, &completedRecorder{})

	first, err := m.SubmitOrder(context.Background(), moveOrder("job001"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := m.SubmitOrder(context.Background(), moveOrder("job001"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Error("duplicate order must return the existing job")
	}
	if m.PendingCount() != 1 {
		t.Errorf("duplicate order must not enqueue twice, pending: %d", m.PendingCount())
	}
}

func TestSubmitOrder_ConcurrentDuplicateID(t *testing.T) {
	m := newTestManager(&fakeRegistry{}, &fakeBuilder{n: 1}, &completedRecorder{})

	const submitters = 8
	jobs := make([]*domain.Job, submitters)
	errs := make([]error, submitters)

	var wg sync.WaitGroup
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jobs[i], errs[i] = m.SubmitOrder(context.Background(), moveOrder("job001"))
		}(i)
	}
	wg.Wait()

	for i := 0; i < submitters; i++ {
		if errs[i] != nil {
			t.Fatalf("unexpected error: %v", errs[i])
		}
		if jobs[i] != jobs[0] {
			t.Fatal("all submitters must get the same job")
		}
	}
	if m.PendingCount() != 1 {
		t.Errorf("concurrent duplicates must not enqueue twice, pending: %d", m.PendingCount())
	}
}

func TestSubmitOrder_GeneratesID(t *testing.T) {
	m := newTestManager(&fakeRegistry{}, &fakeBuilder{n: 1}, &completedRecorder{})

	o := moveOrder("")
	job, err := m.SubmitOrder(context.Background(), o)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.ID() == "" {
		t.Error("expected generated job id")
	}
}

func TestSubmitOrder_InvalidOrder(t *testing.T) {
	m := newTestManager(&fakeRegistry{}, &fakeBuilder{n: 1}, &completedRecorder{})

	o := domain.Order{Keyword: "PATROL", Args: []string{"charging"}}
	if _, err := m.SubmitOrder(context.Background(), o); !errors.Is(err, order.ErrUnknownKeyword) {
		t.Fatalf("expected ErrUnknownKeyword, got %v", err)
	}
	if m.PendingCount() != 0 {
		t.Errorf("rejected order must not enqueue a job, pending: %d", m.PendingCount())
	}
}

func TestAllocatePass_StartsJob(t *testing.T) {
	reg := &fakeRegistry{fleet: []domain.MobileExecutor{standbyMEx("rdg01")}}
	builder := &fakeBuilder{n: 2}
	m := newTestManager(reg, builder, &completedRecorder{})

	job, err := m.SubmitOrder(context.Background(), moveOrder("job001"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.allocatePass(context.Background())

	if job.Status() != domain.JobStatusActive {
		t.Fatalf("expected ACTIVE, got %s", job.Status())
	}
	if m.PendingCount() != 0 {
		t.Errorf("allocated job must leave the pending queue, got %d", m.PendingCount())
	}

	first := builder.built[0][0]
	if !first.started || first.mexID != "rdg01" || first.index != 0 {
		t.Errorf("first task not started correctly: %+v", first)
	}
	if builder.built[0][1].started {
		t.Error("second task must not start before the first finishes")
	}

	if len(reg.statusChanges) != 1 || reg.statusChanges[0].status != domain.MExStatusExecutingTask {
		t.Errorf("expected EXECUTING_TASK status change, got %+v", reg.statusChanges)
	}
}

func TestJobRoundTrip(t *testing.T) {
	// Два заказа, один исполнитель: второй job ждёт, пока первый
	// не завершится и исполнитель не вернётся в STANDBY.
	reg := &fakeRegistry{fleet: []domain.MobileExecutor{standbyMEx("rdg01")}}
	builder := &fakeBuilder{n: 2}
	pub := &completedRecorder{}
	m := newTestManager(reg, builder, pub)

	first, err := m.SubmitOrder(context.Background(), moveOrder("job001"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := m.SubmitOrder(context.Background(), moveOrder("job002"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.allocatePass(context.Background())

	if first.Status() != domain.JobStatusActive {
		t.Fatalf("expected first job ACTIVE, got %s", first.Status())
	}
	if second.Status() != domain.JobStatusPending {
		t.Fatalf("expected second job PENDING, got %s", second.Status())
	}

	// Выполняем tasks первого job.
	builder.built[0][0].finish(domain.TaskStatusSucceeded)
	if !builder.built[0][1].started {
		t.Fatal("second task must start after the first succeeds")
	}
	builder.built[0][1].finish(domain.TaskStatusSucceeded)

	if first.Status() != domain.JobStatusSucceeded {
		t.Fatalf("expected first job SUCCEEDED, got %s", first.Status())
	}

	if len(pub.payloads) != 1 {
		t.Fatalf("expected 1 jobs.completed event, got %d", len(pub.payloads))
	}
	got := pub.payloads[0]
	if got.JobID != "job001" || got.MExID != "rdg01" || got.Status != domain.JobStatusSucceeded {
		t.Errorf("unexpected jobs.completed payload: %+v", got)
	}

	// Sentinel, получив jobs.completed, возвращает исполнителя
	// в STANDBY и публикует fleet.updated; здесь делаем это руками.
	reg.fleet[0].Status = domain.MExStatusStandby
	reg.fleet[0].JobID = ""

	m.allocatePass(context.Background())

	if second.Status() != domain.JobStatusActive {
		t.Fatalf("expected second job ACTIVE after executor freed, got %s", second.Status())
	}
}

func TestAllocatePass_TaskFailureAbortsJob(t *testing.T) {
	reg := &fakeRegistry{fleet: []domain.MobileExecutor{standbyMEx("rdg01")}}
	builder := &fakeBuilder{n: 1}
	pub := &completedRecorder{}
	m := newTestManager(reg, builder, pub)

	job, err := m.SubmitOrder(context.Background(), moveOrder("job001"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.allocatePass(context.Background())
	builder.built[0][0].finish(domain.TaskStatusAborted)

	if job.Status() != domain.JobStatusAborted {
		t.Fatalf("expected ABORTED, got %s", job.Status())
	}
	if len(pub.payloads) != 1 || pub.payloads[0].Status != domain.JobStatusAborted {
		t.Errorf("unexpected jobs.completed payloads: %+v", pub.payloads)
	}
}

func TestAllocatePass_EmptyTaskListAborts(t *testing.T) {
	reg := &fakeRegistry{fleet: []domain.MobileExecutor{standbyMEx("rdg01")}}
	pub := &completedRecorder{}
	m := newTestManager(reg, &fakeBuilder{n: 0}, pub)

	job, err := m.SubmitOrder(context.Background(), moveOrder("job001"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.allocatePass(context.Background())

	if job.Status() != domain.JobStatusAborted {
		t.Fatalf("expected ABORTED, got %s", job.Status())
	}
	// Sentinel должен узнать о развале даже не начавшегося job,
	// иначе исполнитель застрянет в ASSIGNED.
	if len(pub.payloads) != 1 || pub.payloads[0].Status != domain.JobStatusAborted {
		t.Errorf("unexpected jobs.completed payloads: %+v", pub.payloads)
	}
}

func TestAllocatePass_RegistryDown(t *testing.T) {
	reg := &fakeRegistry{listErr: errors.New("sentinel down")}
	m := newTestManager(reg, &fakeBuilder{n: 1}, &completedRecorder{})

	job, err := m.SubmitOrder(context.Background(), moveOrder("job001"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.allocatePass(context.Background())

	if job.Status() != domain.JobStatusPending {
		t.Errorf("job must stay PENDING while registry is down, got %s", job.Status())
	}
	if m.PendingCount() != 1 {
		t.Errorf("job must stay in the pending queue, got %d", m.PendingCount())
	}
}

func TestHandleOrderIncoming(t *testing.T) {
	reg := &fakeRegistry{}
	m := newTestManager(reg, &fakeBuilder{n: 1}, &completedRecorder{})

	delivery := &mq.Delivery{Message: mq.Message{
		Type: mq.MessageTypeOrderIncoming,
		Payload: map[string]any{
			"id":      "job001",
			"keyword": "MOVE",
			"args":    []any{"charging"},
		},
	}}

	if err := m.handleOrderIncoming(context.Background(), delivery); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.Job("job001"); !ok {
		t.Error("expected job created from incoming order")
	}
}

func TestHandleOrderIncoming_InvalidOrderDropped(t *testing.T) {
	m := newTestManager(&fakeRegistry{}, &fakeBuilder{n: 1}, &completedRecorder{})

	delivery := &mq.Delivery{Message: mq.Message{
		Type: mq.MessageTypeOrderIncoming,
		Payload: map[string]any{
			"id":      "job001",
			"keyword": "FOLLOW",
			"args":    []any{"rdg02"},
		},
	}}

	// Некорректный заказ не должен зациклить redelivery.
	if err := m.handleOrderIncoming(context.Background(), delivery); err != nil {
		t.Fatalf("invalid order must be dropped, not redelivered: %v", err)
	}
	if m.PendingCount() != 0 {
		t.Errorf("invalid order must not enqueue a job, pending: %d", m.PendingCount())
	}
}

func TestHandleFleetUpdated_Kicks(t *testing.T) {
	m := newTestManager(&fakeRegistry{}, &fakeBuilder{n: 1}, &completedRecorder{})

	delivery := &mq.Delivery{Message: mq.Message{
		Type: mq.MessageTypeFleetUpdated,
		Payload: map[string]any{
			"mex_id": "rdg01",
			"status": "STANDBY",
		},
	}}

	if err := m.handleFleetUpdated(context.Background(), delivery); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-m.kick:
	default:
		t.Error("expected allocation kick after fleet update")
	}
}
