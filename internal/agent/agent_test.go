package agent

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/shaiso/Flotilla/internal/domain"
	"github.com/shaiso/Flotilla/internal/mq"
	"github.com/shaiso/Flotilla/internal/nav"
)

type fakePublisher struct {
	results []mq.NavResultPayload
	err     error
}

func (p *fakePublisher) PublishNavResult(_ context.Context, payload mq.NavResultPayload) error {
	if p.err != nil {
		return p.err
	}
	p.results = append(p.results, payload)
	return nil
}

type fakeFleetRegistry struct {
	registered bool
	poses      []domain.Pose
}

func (r *fakeFleetRegistry) Register(_ context.Context, id string, pose domain.Pose) (*domain.MobileExecutor, error) {
	r.registered = true
	return &domain.MobileExecutor{ID: id, Status: domain.MExStatusStandby, Pose: pose}, nil
}

func (r *fakeFleetRegistry) UpdatePose(_ context.Context, _ string, pose domain.Pose) error {
	r.poses = append(r.poses, pose)
	return nil
}

func newTestAgent(pub ResultPublisher, reg FleetRegistry) *Agent {
	return New(Config{
		MExID:     "rdg01",
		Publisher: pub,
		Registry:  reg,
		Speed:     10000, // мгновенное прибытие
		Logger:    slog.Default(),
	})
}

func goalDelivery(mexID, goalID string) *mq.Delivery {
	return &mq.Delivery{
		Message: mq.Message{
			Type: mq.MessageTypeNavGoal,
			Payload: map[string]any{
				"mex_id":  mexID,
				"goal_id": goalID,
				"target":  map[string]any{"x": 1.5, "y": -2.0, "theta": 0.0},
			},
		},
	}
}

func TestHandleNavGoal(t *testing.T) {
	pub := &fakePublisher{}
	reg := &fakeFleetRegistry{}
	a := newTestAgent(pub, reg)

	if err := a.handleNavGoal(context.Background(), goalDelivery("rdg01", "goal-1")); err != nil {
		t.Fatalf("handleNavGoal: %v", err)
	}

	if len(pub.results) != 2 {
		t.Fatalf("expected 2 nav results, got %d", len(pub.results))
	}
	if pub.results[0].Code != int(nav.GoalStatusActive) {
		t.Errorf("first result code = %d, want ACTIVE", pub.results[0].Code)
	}
	if pub.results[1].Code != int(nav.GoalStatusSucceeded) {
		t.Errorf("second result code = %d, want SUCCEEDED", pub.results[1].Code)
	}
	if pub.results[1].GoalID != "goal-1" {
		t.Errorf("goal id = %q, want goal-1", pub.results[1].GoalID)
	}

	pose := a.Pose()
	if pose.X != 1.5 || pose.Y != -2.0 {
		t.Errorf("pose = %+v, expected target pose", pose)
	}
	if len(reg.poses) != 1 {
		t.Errorf("expected 1 pose report, got %d", len(reg.poses))
	}
}

func TestHandleNavGoal_ForeignGoalDropped(t *testing.T) {
	pub := &fakePublisher{}
	a := newTestAgent(pub, &fakeFleetRegistry{})

	if err := a.handleNavGoal(context.Background(), goalDelivery("rdg02", "goal-1")); err != nil {
		t.Fatalf("foreign goal should be dropped, got error: %v", err)
	}
	if len(pub.results) != 0 {
		t.Errorf("expected no results for foreign goal, got %d", len(pub.results))
	}
}

func TestHandleNavGoal_TerminalPublishFailureRequeues(t *testing.T) {
	pub := &fakePublisher{err: errors.New("mq down")}
	a := newTestAgent(pub, &fakeFleetRegistry{})

	err := a.handleNavGoal(context.Background(), goalDelivery("rdg01", "goal-1"))
	if err == nil {
		t.Fatal("expected error so the goal is requeued")
	}
}

func TestHandleNavGoal_CancelledMidTravel(t *testing.T) {
	pub := &fakePublisher{}
	reg := &fakeFleetRegistry{}
	a := newTestAgent(pub, reg)
	a.speed = 0.001 // до цели ехать долго

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.handleNavGoal(ctx, goalDelivery("rdg01", "goal-1"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(reg.poses) != 0 {
		t.Errorf("pose must not be reported for an unfinished goal")
	}
}
