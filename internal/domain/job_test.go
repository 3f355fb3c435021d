package domain

import (
	"context"
	"errors"
	"testing"
)

// fakeTask — task-заглушка: запоминает параметры Start и позволяет
// тесту вручную доставлять результаты через сохранённый report.
type fakeTask struct {
	started  bool
	mexID    string
	index    int
	report   ReportFunc
	startErr error
	status   TaskStatus
}

func (f *fakeTask) Start(_ context.Context, mexID string, index int, report ReportFunc) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	f.mexID = mexID
	f.index = index
	f.report = report
	f.status = TaskStatusActive
	return nil
}

func (f *fakeTask) Status() TaskStatus {
	if f.status == "" {
		return TaskStatusPending
	}
	return f.status
}

// finish доставляет job'у терминальный результат от имени этой task.
func (f *fakeTask) finish(status TaskStatus) {
	f.status = status
	f.report(TaskResult{Index: f.index, Status: status})
}

type completionRecorder struct {
	calls int
	jobID string
	mexID string
}

func (c *completionRecorder) fn() JobCompletionFunc {
	return func(jobID, mexID string) {
		c.calls++
		c.jobID = jobID
		c.mexID = mexID
	}
}

func newTestJob(t *testing.T, rec *completionRecorder, tasks ...*fakeTask) *Job {
	t.Helper()
	job := NewJob(JobConfig{
		ID:         "job001",
		Keyword:    OrderKeywordTransport,
		Completion: rec.fn(),
	})
	for _, task := range tasks {
		job.AddTask(task)
	}
	return job
}

func TestNewJob_Defaults(t *testing.T) {
	job := NewJob(JobConfig{ID: "job001", Keyword: OrderKeywordMove})

	if job.Status() != JobStatusPending {
		t.Errorf("expected PENDING, got %s", job.Status())
	}
	if job.Priority() != JobPriorityLow {
		t.Errorf("expected default priority LOW, got %s", job.Priority())
	}
	if _, ok := job.CurrentTask(); ok {
		t.Error("current task should be unset for a pending job")
	}
}

func TestJob_AssignMEx(t *testing.T) {
	rec := &completionRecorder{}
	job := newTestJob(t, rec, &fakeTask{})

	job.AssignMEx("rdg01")
	if job.Status() != JobStatusAssigned {
		t.Errorf("expected ASSIGNED, got %s", job.Status())
	}
	if job.MExID() != "rdg01" {
		t.Errorf("expected rdg01, got %s", job.MExID())
	}

	// Переназначение до старта допустимо.
	job.AssignMEx("rdg02")
	if job.MExID() != "rdg02" {
		t.Errorf("expected rdg02 after re-assignment, got %s", job.MExID())
	}
}

func TestJob_AssignMEx_IgnoredWhenActive(t *testing.T) {
	rec := &completionRecorder{}
	task := &fakeTask{}
	job := newTestJob(t, rec, task)

	job.AssignMEx("rdg01")
	if err := job.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	job.AssignMEx("rdg99")
	if job.MExID() != "rdg01" {
		t.Errorf("active job must keep its MEx, got %s", job.MExID())
	}
	if job.Status() != JobStatusActive {
		t.Errorf("expected ACTIVE, got %s", job.Status())
	}
}

func TestJob_Start_RequiresAssigned(t *testing.T) {
	rec := &completionRecorder{}
	task := &fakeTask{}
	job := newTestJob(t, rec, task)

	// PENDING → Start игнорируется.
	if err := job.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status() != JobStatusPending {
		t.Errorf("expected PENDING, got %s", job.Status())
	}
	if task.started {
		t.Error("task must not start for a pending job")
	}
}

func TestJob_Start_DoubleStartIsNoop(t *testing.T) {
	rec := &completionRecorder{}
	t0, t1 := &fakeTask{}, &fakeTask{}
	job := newTestJob(t, rec, t0, t1)

	job.AssignMEx("rdg01")
	if err := job.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := job.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error on second start: %v", err)
	}

	idx, ok := job.CurrentTask()
	if !ok || idx != 0 {
		t.Errorf("expected current task 0, got %d (ok=%v)", idx, ok)
	}
	if t1.started {
		t.Error("second task must not start on double Start")
	}
}

func TestJob_Start_BindsTaskIdentity(t *testing.T) {
	rec := &completionRecorder{}
	task := &fakeTask{}
	job := newTestJob(t, rec, task)

	job.AssignMEx("rdg01")
	if err := job.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !task.started {
		t.Fatal("first task should be started")
	}
	if task.mexID != "rdg01" {
		t.Errorf("expected mex rdg01, got %s", task.mexID)
	}
	if task.index != 0 {
		t.Errorf("expected index 0, got %d", task.index)
	}
}

func TestJob_Start_EmptyTaskList(t *testing.T) {
	rec := &completionRecorder{}
	job := newTestJob(t, rec)

	job.AssignMEx("rdg01")
	err := job.Start(context.Background())
	if !errors.Is(err, ErrNoTasks) {
		t.Fatalf("expected ErrNoTasks, got %v", err)
	}
	if job.Status() != JobStatusAborted {
		t.Errorf("expected ABORTED, got %s", job.Status())
	}
	if rec.calls != 1 {
		t.Errorf("completion callback should fire once, got %d", rec.calls)
	}
}

func TestJob_AddTask_FrozenAfterPending(t *testing.T) {
	rec := &completionRecorder{}
	task := &fakeTask{}
	job := newTestJob(t, rec, task)

	job.AssignMEx("rdg01")
	job.AddTask(&fakeTask{})

	if job.TaskCount() != 1 {
		t.Errorf("task list must be frozen after PENDING, got %d tasks", job.TaskCount())
	}
}

// Round-trip: N tasks, N успешных результатов в порядке индексов →
// SUCCEEDED, callback ровно один раз с исходными job id и mex id.
func TestJob_RoundTrip_AllTasksSucceed(t *testing.T) {
	rec := &completionRecorder{}
	tasks := []*fakeTask{{}, {}, {}}
	job := newTestJob(t, rec, tasks[0], tasks[1], tasks[2])

	job.AssignMEx("rdg01")
	if err := job.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, task := range tasks {
		if !task.started {
			t.Fatalf("task %d should be started", i)
		}
		// Следующая task не стартует раньше терминального результата текущей.
		if i+1 < len(tasks) && tasks[i+1].started {
			t.Fatalf("task %d started before task %d finished", i+1, i)
		}
		task.finish(TaskStatusSucceeded)
	}

	if job.Status() != JobStatusSucceeded {
		t.Errorf("expected SUCCEEDED, got %s", job.Status())
	}
	if rec.calls != 1 {
		t.Errorf("completion callback should fire exactly once, got %d", rec.calls)
	}
	if rec.jobID != "job001" || rec.mexID != "rdg01" {
		t.Errorf("callback got (%s, %s), want (job001, rdg01)", rec.jobID, rec.mexID)
	}
}

// Scenario: первая task успешна, вторая падает → job ABORTED,
// callback ровно один раз.
func TestJob_SecondTaskAborted(t *testing.T) {
	rec := &completionRecorder{}
	t0, t1 := &fakeTask{}, &fakeTask{}
	job := newTestJob(t, rec, t0, t1)

	job.AssignMEx("rdg01")
	if err := job.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t0.finish(TaskStatusSucceeded)
	if job.Status() != JobStatusActive {
		t.Errorf("expected ACTIVE after first task, got %s", job.Status())
	}
	if !t1.started {
		t.Fatal("second task should be started")
	}

	t1.finish(TaskStatusAborted)
	if job.Status() != JobStatusAborted {
		t.Errorf("expected ABORTED, got %s", job.Status())
	}
	if rec.calls != 1 {
		t.Errorf("completion callback should fire once, got %d", rec.calls)
	}
}

func TestJob_TaskCancelledAbortsJob(t *testing.T) {
	rec := &completionRecorder{}
	task := &fakeTask{}
	job := newTestJob(t, rec, task)

	job.AssignMEx("rdg01")
	if err := job.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task.finish(TaskStatusCancelled)
	if job.Status() != JobStatusAborted {
		t.Errorf("expected ABORTED, got %s", job.Status())
	}
}

// Scenario: результат со статусом ACTIVE — информационный, job не меняется.
func TestJob_ActiveResultIsInformational(t *testing.T) {
	rec := &completionRecorder{}
	task := &fakeTask{}
	job := newTestJob(t, rec, task)

	job.AssignMEx("rdg01")
	if err := job.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	job.HandleTaskResult(context.Background(), TaskResult{Index: 0, Status: TaskStatusActive})

	if job.Status() != JobStatusActive {
		t.Errorf("expected ACTIVE, got %s", job.Status())
	}
	idx, _ := job.CurrentTask()
	if idx != 0 {
		t.Errorf("current task must stay 0, got %d", idx)
	}
	if rec.calls != 0 {
		t.Errorf("completion callback must not fire, got %d calls", rec.calls)
	}
}

// Несовпадение индекса — устаревший сигнал, статус job не меняется.
func TestJob_IndexMismatchIgnored(t *testing.T) {
	rec := &completionRecorder{}
	t0, t1 := &fakeTask{}, &fakeTask{}
	job := newTestJob(t, rec, t0, t1)

	job.AssignMEx("rdg01")
	if err := job.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t0.finish(TaskStatusSucceeded)

	// Запоздавший дубликат от task 0 — job уже на task 1.
	job.HandleTaskResult(context.Background(), TaskResult{Index: 0, Status: TaskStatusAborted})

	if job.Status() != JobStatusActive {
		t.Errorf("stale result must not alter job status, got %s", job.Status())
	}
	if rec.calls != 0 {
		t.Errorf("completion callback must not fire, got %d calls", rec.calls)
	}

	t1.finish(TaskStatusSucceeded)
	if job.Status() != JobStatusSucceeded {
		t.Errorf("expected SUCCEEDED, got %s", job.Status())
	}
}

func TestJob_ResultAfterTerminalIgnored(t *testing.T) {
	rec := &completionRecorder{}
	task := &fakeTask{}
	job := newTestJob(t, rec, task)

	job.AssignMEx("rdg01")
	if err := job.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task.finish(TaskStatusSucceeded)
	job.HandleTaskResult(context.Background(), TaskResult{Index: 0, Status: TaskStatusAborted})

	if job.Status() != JobStatusSucceeded {
		t.Errorf("terminal status must be sticky, got %s", job.Status())
	}
	if rec.calls != 1 {
		t.Errorf("completion callback should fire exactly once, got %d", rec.calls)
	}
}

// Ошибка старта следующей task переводит job в ABORTED.
func TestJob_NextTaskStartFailureAborts(t *testing.T) {
	rec := &completionRecorder{}
	t0 := &fakeTask{}
	t1 := &fakeTask{startErr: errors.New("nav offline")}
	job := newTestJob(t, rec, t0, t1)

	job.AssignMEx("rdg01")
	if err := job.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t0.finish(TaskStatusSucceeded)

	if job.Status() != JobStatusAborted {
		t.Errorf("expected ABORTED, got %s", job.Status())
	}
	if rec.calls != 1 {
		t.Errorf("completion callback should fire once, got %d", rec.calls)
	}
}

func TestTaskStatus_IsTerminal(t *testing.T) {
	terminal := []TaskStatus{TaskStatusCancelled, TaskStatusSucceeded, TaskStatusAborted}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []TaskStatus{TaskStatusPending, TaskStatusActive} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestJobStatus_IsTerminal(t *testing.T) {
	if !JobStatusSucceeded.IsTerminal() || !JobStatusAborted.IsTerminal() {
		t.Error("SUCCEEDED and ABORTED should be terminal")
	}
	for _, s := range []JobStatus{JobStatusPending, JobStatusAssigned, JobStatusActive} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
