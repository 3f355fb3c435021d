package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/shaiso/Flotilla/internal/confirm"
	"github.com/shaiso/Flotilla/internal/domain"
	"github.com/shaiso/Flotilla/internal/nav"
	"github.com/shaiso/Flotilla/internal/order"
)

// --- fakes ---

// fakeNav — навигационный клиент-заглушка.
type fakeNav struct {
	handlers map[string]nav.ResultHandler
	goals    []sentGoal
	sendErr  error
}

type sentGoal struct {
	mexID  string
	goalID string
	target domain.Pose
}

func newFakeNav() *fakeNav {
	return &fakeNav{handlers: make(map[string]nav.ResultHandler)}
}

func (f *fakeNav) SendGoal(_ context.Context, mexID, goalID string, target domain.Pose) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.goals = append(f.goals, sentGoal{mexID, goalID, target})
	return nil
}

func (f *fakeNav) Subscribe(mexID string, h nav.ResultHandler)  { f.handlers[mexID] = h }
func (f *fakeNav) Unsubscribe(mexID string)                     { delete(f.handlers, mexID) }
func (f *fakeNav) deliver(mexID string, goalID string, code nav.GoalStatus) {
	if h, ok := f.handlers[mexID]; ok {
		h(goalID, code)
	}
}

// fakeInput — источник ввода погрузки.
type fakeInput struct {
	handlers map[string]confirm.InputHandler
}

func newFakeInput() *fakeInput {
	return &fakeInput{handlers: make(map[string]confirm.InputHandler)}
}

func (f *fakeInput) Subscribe(mexID string, h confirm.InputHandler) { f.handlers[mexID] = h }
func (f *fakeInput) Unsubscribe(mexID string)                       { delete(f.handlers, mexID) }
func (f *fakeInput) deliver(mexID string, code confirm.InputCode) {
	if h, ok := f.handlers[mexID]; ok {
		h(code)
	}
}

type resultSink struct {
	results []domain.TaskResult
}

func (s *resultSink) report(res domain.TaskResult) {
	s.results = append(s.results, res)
}

// --- Move ---

func TestMove_SuccessfulGoal(t *testing.T) {
	fn := newFakeNav()
	sink := &resultSink{}
	target := domain.Pose{X: 1.5, Y: -2.0, Theta: 0.5}
	move := NewMove(fn, target, nil)

	if move.Status() != domain.TaskStatusPending {
		t.Errorf("expected PENDING before start, got %s", move.Status())
	}

	if err := move.Start(context.Background(), "rdg01", 0, sink.report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if move.Status() != domain.TaskStatusActive {
		t.Errorf("expected ACTIVE, got %s", move.Status())
	}
	if len(fn.goals) != 1 {
		t.Fatalf("expected 1 goal sent, got %d", len(fn.goals))
	}
	if fn.goals[0].mexID != "rdg01" || fn.goals[0].target != target {
		t.Errorf("unexpected goal: %+v", fn.goals[0])
	}

	goalID := fn.goals[0].goalID

	// Промежуточный статус — без report.
	fn.deliver("rdg01", goalID, nav.GoalStatusActive)
	if len(sink.results) != 0 {
		t.Fatalf("progress must not be reported, got %v", sink.results)
	}

	fn.deliver("rdg01", goalID, nav.GoalStatusSucceeded)
	if len(sink.results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(sink.results))
	}
	if sink.results[0] != (domain.TaskResult{Index: 0, Status: domain.TaskStatusSucceeded}) {
		t.Errorf("unexpected result: %+v", sink.results[0])
	}
	if move.Status() != domain.TaskStatusSucceeded {
		t.Errorf("expected SUCCEEDED, got %s", move.Status())
	}

	// Подписка снята после терминального результата.
	if _, ok := fn.handlers["rdg01"]; ok {
		t.Error("move must unsubscribe after terminal result")
	}
}

func TestMove_AbortedGoal(t *testing.T) {
	fn := newFakeNav()
	sink := &resultSink{}
	move := NewMove(fn, domain.Pose{}, nil)

	if err := move.Start(context.Background(), "rdg01", 2, sink.report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fn.deliver("rdg01", fn.goals[0].goalID, nav.GoalStatusAborted)

	if len(sink.results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(sink.results))
	}
	if sink.results[0].Index != 2 || sink.results[0].Status != domain.TaskStatusAborted {
		t.Errorf("unexpected result: %+v", sink.results[0])
	}
}

func TestMove_StaleGoalIgnored(t *testing.T) {
	fn := newFakeNav()
	sink := &resultSink{}
	move := NewMove(fn, domain.Pose{}, nil)

	if err := move.Start(context.Background(), "rdg01", 0, sink.report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Результат от предыдущей цели исполнителя.
	fn.deliver("rdg01", "stale-goal-id", nav.GoalStatusSucceeded)
	if len(sink.results) != 0 {
		t.Fatalf("stale goal result must be ignored, got %v", sink.results)
	}
	if move.Status() != domain.TaskStatusActive {
		t.Errorf("expected ACTIVE, got %s", move.Status())
	}
}

func TestMove_SendGoalFailure(t *testing.T) {
	fn := newFakeNav()
	fn.sendErr = errors.New("mq down")
	sink := &resultSink{}
	move := NewMove(fn, domain.Pose{}, nil)

	err := move.Start(context.Background(), "rdg01", 0, sink.report)
	if err == nil {
		t.Fatal("expected error")
	}
	if move.Status() != domain.TaskStatusPending {
		t.Errorf("failed start should leave task PENDING, got %s", move.Status())
	}
	if _, ok := fn.handlers["rdg01"]; ok {
		t.Error("failed start must not leave a subscription")
	}
}

// --- AwaitLoad ---

func TestAwaitLoad_Succeeded(t *testing.T) {
	fi := newFakeInput()
	sink := &resultSink{}
	task := NewAwaitLoad(fi, nil)

	if err := task.Start(context.Background(), "rdg01", 1, sink.report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Status() != domain.TaskStatusActive {
		t.Errorf("expected ACTIVE, got %s", task.Status())
	}

	// Не терминальный ввод пересылается как информационный ACTIVE.
	fi.deliver("rdg01", confirm.InputActive)
	if len(sink.results) != 1 {
		t.Fatalf("expected 1 informational result, got %d", len(sink.results))
	}
	if sink.results[0].Status != domain.TaskStatusActive {
		t.Errorf("expected ACTIVE result, got %s", sink.results[0].Status)
	}

	fi.deliver("rdg01", confirm.InputSucceeded)
	if len(sink.results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(sink.results))
	}
	last := sink.results[1]
	if last.Index != 1 || last.Status != domain.TaskStatusSucceeded {
		t.Errorf("unexpected result: %+v", last)
	}

	// После терминального ввода подписки быть не должно.
	if _, ok := fi.handlers["rdg01"]; ok {
		t.Error("await load must unsubscribe after terminal input")
	}

	// Повторный терминальный ввод (до снятия подписки где-то в пути)
	// не даёт второго терминального report.
	task.onInput(confirm.InputAborted)
	if len(sink.results) != 2 {
		t.Errorf("terminal report must fire once, got %d results", len(sink.results))
	}
}

func TestAwaitLoad_Cancelled(t *testing.T) {
	fi := newFakeInput()
	sink := &resultSink{}
	task := NewAwaitLoad(fi, nil)

	if err := task.Start(context.Background(), "rdg01", 0, sink.report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fi.deliver("rdg01", confirm.InputCancelled)

	if task.Status() != domain.TaskStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", task.Status())
	}
	if len(sink.results) != 1 || sink.results[0].Status != domain.TaskStatusCancelled {
		t.Errorf("unexpected results: %v", sink.results)
	}
}

// --- Builder ---

func TestBuilder_Transport(t *testing.T) {
	b := &Builder{Nav: newFakeNav(), Input: newFakeInput()}
	o := domain.Order{
		Keyword: domain.OrderKeywordTransport,
		Args:    []string{"storage", "assembly"},
	}

	tasks, err := b.Build(o)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	if _, ok := tasks[0].(*Move); !ok {
		t.Errorf("task 0 should be Move, got %T", tasks[0])
	}
	if _, ok := tasks[1].(*AwaitLoad); !ok {
		t.Errorf("task 1 should be AwaitLoad, got %T", tasks[1])
	}
	if _, ok := tasks[2].(*Move); !ok {
		t.Errorf("task 2 should be Move, got %T", tasks[2])
	}
}

func TestBuilder_Move(t *testing.T) {
	b := &Builder{Nav: newFakeNav(), Input: newFakeInput()}
	o := domain.Order{
		Keyword: domain.OrderKeywordMove,
		Args:    []string{"charging"},
	}

	tasks, err := b.Build(o)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
}

func TestBuilder_UnsupportedKeyword(t *testing.T) {
	b := &Builder{Nav: newFakeNav(), Input: newFakeInput()}
	o := domain.Order{
		Keyword: domain.OrderKeywordFollow,
		Args:    []string{"rdg01"},
	}

	if _, err := b.Build(o); !errors.Is(err, order.ErrUnsupportedKeyword) {
		t.Errorf("expected ErrUnsupportedKeyword, got %v", err)
	}
}

func TestBuilder_UnknownLocation(t *testing.T) {
	b := &Builder{Nav: newFakeNav(), Input: newFakeInput()}
	o := domain.Order{
		Keyword: domain.OrderKeywordMove,
		Args:    []string{"atlantis"},
	}

	if _, err := b.Build(o); !errors.Is(err, order.ErrUnknownLocation) {
		t.Errorf("expected ErrUnknownLocation, got %v", err)
	}
}
