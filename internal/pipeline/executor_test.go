package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"blockmate/internal/logger"
	"blockmate/internal/parser"
	"blockmate/internal/world"
)

func TestMain(m *testing.M) {
	logger.InitDiscard()
	m.Run()
}

// fakeAgent records every capability call and answers from a script.
type fakeAgent struct {
	mu sync.Mutex

	state      *world.GameState
	moveOK     bool
	breakOK    bool
	gatherGot  int
	clearCalls int

	calls []string
	moves []world.Vec3
}

func newFakeAgent() *fakeAgent {
	return &fakeAgent{
		state: &world.GameState{
			Position: world.Vec3{X: 10, Y: 64, Z: 20},
			Health:   20,
			Food:     20,
		},
		moveOK:    true,
		breakOK:   true,
		gatherGot: 1,
	}
}

func (f *fakeAgent) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeAgent) CurrentState(_ context.Context) *world.GameState {
	f.record("state")
	return f.state
}

func (f *fakeAgent) MoveTo(_ context.Context, x, y, z float64) bool {
	f.record("move_to")
	f.mu.Lock()
	f.moves = append(f.moves, world.Vec3{X: x, Y: y, Z: z})
	f.mu.Unlock()
	return f.moveOK
}

func (f *fakeAgent) BreakBlock(_ context.Context, _ string) bool {
	f.record("break_block")
	return f.breakOK
}

func (f *fakeAgent) GatherItem(_ context.Context, _ string, _ int) int {
	f.record("gather")
	return f.gatherGot
}

func (f *fakeAgent) SendChat(_ context.Context, _ string) {
	f.record("chat")
}

func (f *fakeAgent) IsAlive() bool { return f.state != nil }

func (f *fakeAgent) ClearGoal() {
	f.mu.Lock()
	f.clearCalls++
	f.mu.Unlock()
}

func (f *fakeAgent) dispatchCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		if c != "state" {
			out = append(out, c)
		}
	}
	return out
}

// fakePlanner returns a scripted plan for every instruction.
type fakePlanner struct {
	plan       *parser.Plan
	suggestion string
	parseDelay time.Duration
}

func (f *fakePlanner) Parse(_ context.Context, _ string, _ *world.GameState) *parser.Plan {
	if f.parseDelay > 0 {
		time.Sleep(f.parseDelay)
	}
	return f.plan
}

func (f *fakePlanner) Suggest(_ context.Context, _ string, _ *world.GameState) (string, error) {
	return f.suggestion, nil
}

func chatPlan(n int) *parser.Plan {
	p := &parser.Plan{Reasoning: "test plan"}
	for i := 0; i < n; i++ {
		p.Actions = append(p.Actions, parser.Action{
			Kind:   parser.KindChat,
			Params: map[string]any{"message": "hi"},
		})
	}
	return p
}

func newTestExecutor(agent *fakeAgent, plan *parser.Plan) *Executor {
	return NewExecutor(agent, &fakePlanner{plan: plan}, Config{ActionGap: time.Millisecond})
}

func TestExecuteCommandDispatchesAllActionsInOrder(t *testing.T) {
	agent := newFakeAgent()
	plan := &parser.Plan{
		Reasoning: "mixed plan",
		Actions: []parser.Action{
			{Kind: parser.KindChat, Params: map[string]any{"message": "hi"}},
			{Kind: parser.KindMine, Params: map[string]any{"block": "stone"}},
			{Kind: parser.KindCollect, Params: map[string]any{"item": "cobblestone", "amount": 1}},
		},
	}
	exec := newTestExecutor(agent, plan)

	cm, err := exec.ExecuteCommand(context.Background(), "do three things")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cm.Actions) != 3 {
		t.Fatalf("expected 3 dispatched actions, got %d", len(cm.Actions))
	}

	want := []string{"chat", "break_block", "gather"}
	got := agent.dispatchCalls()
	if len(got) != len(want) {
		t.Fatalf("dispatch calls: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dispatch order: got %v, want %v", got, want)
			break
		}
	}
	if !cm.Succeeded {
		t.Error("command with all actions succeeding must report success")
	}
}

func TestExecuteCommandSingleFlight(t *testing.T) {
	agent := newFakeAgent()
	planner := &fakePlanner{plan: chatPlan(1), parseDelay: 50 * time.Millisecond}
	exec := NewExecutor(agent, planner, Config{ActionGap: time.Millisecond})

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		exec.ExecuteCommand(context.Background(), "slow command")
		close(done)
	}()
	<-started
	time.Sleep(10 * time.Millisecond) // let the first command take the latch

	cm, err := exec.ExecuteCommand(context.Background(), "second command")
	if err != ErrBusy {
		t.Fatalf("expected ErrBusy, got cm=%v err=%v", cm, err)
	}
	if cm != nil {
		t.Error("rejected command must not return metrics")
	}
	<-done

	// Only the first command's single chat dispatch may have happened.
	if calls := agent.dispatchCalls(); len(calls) != 1 {
		t.Errorf("expected 1 dispatch, got %v", calls)
	}

	// The latch is free again afterwards.
	if _, err := exec.ExecuteCommand(context.Background(), "third command"); err != nil {
		t.Errorf("latch was not released: %v", err)
	}
}

func TestExecuteCommandPartialSuccessPolicy(t *testing.T) {
	testCases := []struct {
		name            string
		plan            *parser.Plan
		breakOK         bool
		expectSucceeded bool
		expectCount     int
	}{
		{
			name: "one success among failures reports overall success",
			plan: &parser.Plan{Actions: []parser.Action{
				{Kind: parser.KindMine, Params: map[string]any{"block": "stone"}},
				{Kind: parser.KindPlace, Params: map[string]any{"block": "torch"}},
				{Kind: parser.KindCraft, Params: map[string]any{"item": "stick"}},
			}},
			breakOK:         true,
			expectSucceeded: true,
			expectCount:     1,
		},
		{
			name: "all failures report overall failure",
			plan: &parser.Plan{Actions: []parser.Action{
				{Kind: parser.KindMine, Params: map[string]any{"block": "stone"}},
				{Kind: parser.KindPlace, Params: map[string]any{"block": "torch"}},
			}},
			breakOK:         false,
			expectSucceeded: false,
			expectCount:     0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			agent := newFakeAgent()
			agent.breakOK = tc.breakOK
			exec := newTestExecutor(agent, tc.plan)

			cm, err := exec.ExecuteCommand(context.Background(), "mixed outcome")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cm.Succeeded != tc.expectSucceeded {
				t.Errorf("Succeeded = %v, want %v", cm.Succeeded, tc.expectSucceeded)
			}
			if cm.SuccessCount != tc.expectCount {
				t.Errorf("SuccessCount = %d, want %d", cm.SuccessCount, tc.expectCount)
			}
			// A failed action never aborts the rest of the plan.
			if len(cm.Actions) != len(tc.plan.Actions) {
				t.Errorf("dispatched %d actions, want %d", len(cm.Actions), len(tc.plan.Actions))
			}
		})
	}
}

func TestExecuteCommandZeroActionsDispatchesNothing(t *testing.T) {
	agent := newFakeAgent()
	exec := newTestExecutor(agent, &parser.Plan{Reasoning: "could not understand"})

	cm, err := exec.ExecuteCommand(context.Background(), "何か叫んで")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cm.Succeeded {
		t.Error("zero-action command must not report success")
	}
	if calls := agent.dispatchCalls(); len(calls) != 0 {
		t.Errorf("expected no dispatches, got %v", calls)
	}
	if cm.Reason != "could not understand" {
		t.Errorf("plan reasoning should explain the skip, got %q", cm.Reason)
	}
}

func TestExecuteCommandNoStateAborts(t *testing.T) {
	agent := newFakeAgent()
	agent.state = nil
	exec := newTestExecutor(agent, chatPlan(1))

	cm, err := exec.ExecuteCommand(context.Background(), "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cm.Succeeded {
		t.Error("command without world state must fail")
	}
	if calls := agent.dispatchCalls(); len(calls) != 0 {
		t.Errorf("expected no dispatches, got %v", calls)
	}
}

func TestMoveRelativeResolvesAgainstCurrentPosition(t *testing.T) {
	agent := newFakeAgent() // position (10, 64, 20)
	plan := &parser.Plan{Actions: []parser.Action{
		{Kind: parser.KindMoveRelative, Params: map[string]any{"x": 3.0, "y": 0.0, "z": 0.0}},
	}}
	exec := newTestExecutor(agent, plan)

	cm, err := exec.ExecuteCommand(context.Background(), "walk 3 forward")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cm.Succeeded {
		t.Fatal("move should have succeeded")
	}
	if len(agent.moves) != 1 {
		t.Fatalf("expected one move, got %d", len(agent.moves))
	}
	want := world.Vec3{X: 13, Y: 64, Z: 20}
	if agent.moves[0] != want {
		t.Errorf("move target = %+v, want %+v", agent.moves[0], want)
	}
}

func TestDispatchValidatesParameters(t *testing.T) {
	testCases := []struct {
		name   string
		action parser.Action
	}{
		{
			name:   "move with non-numeric coordinate",
			action: parser.Action{Kind: parser.KindMove, Params: map[string]any{"x": "ten", "y": 64.0, "z": 20.0}},
		},
		{
			name:   "mine with empty block type",
			action: parser.Action{Kind: parser.KindMine, Params: map[string]any{"block": ""}},
		},
		{
			name:   "chat with empty message",
			action: parser.Action{Kind: parser.KindChat, Params: map[string]any{"message": ""}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			agent := newFakeAgent()
			exec := newTestExecutor(agent, &parser.Plan{Actions: []parser.Action{tc.action}})

			cm, err := exec.ExecuteCommand(context.Background(), "invalid input")
			if err != nil {
				t.Fatalf("validation failures must not surface as errors: %v", err)
			}
			if cm.Succeeded {
				t.Error("invalid action must fail")
			}
			if calls := agent.dispatchCalls(); len(calls) != 0 {
				t.Errorf("invalid action must fail fast without touching the agent, got %v", calls)
			}
		})
	}
}

func TestCollectDefaultsAndLeniency(t *testing.T) {
	agent := newFakeAgent()
	agent.gatherGot = 2 // fewer than requested, but at least one
	plan := &parser.Plan{Actions: []parser.Action{
		{Kind: parser.KindCollect, Params: map[string]any{"item": "iron_ore", "amount": 5}},
	}}
	exec := newTestExecutor(agent, plan)

	cm, err := exec.ExecuteCommand(context.Background(), "collect 5 iron")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cm.Succeeded {
		t.Error("collecting at least one item counts as success")
	}

	agent2 := newFakeAgent()
	agent2.gatherGot = 0
	exec2 := newTestExecutor(agent2, plan)
	cm2, _ := exec2.ExecuteCommand(context.Background(), "collect 5 iron")
	if cm2.Succeeded {
		t.Error("collecting nothing must fail")
	}
}

func TestEmergencyStopIsIdempotent(t *testing.T) {
	agent := newFakeAgent()
	exec := newTestExecutor(agent, chatPlan(1))

	exec.EmergencyStop()
	first := exec.Status()
	exec.EmergencyStop()
	second := exec.Status()

	if first.IsExecuting || second.IsExecuting {
		t.Error("emergency stop must leave the executor idle")
	}
	if first != second {
		t.Errorf("emergency stop is not idempotent: %+v vs %+v", first, second)
	}
	if agent.clearCalls != 2 {
		t.Errorf("each stop clears the movement goal, got %d calls", agent.clearCalls)
	}
}

func TestHistoryRecordsCompletedCommands(t *testing.T) {
	agent := newFakeAgent()
	exec := newTestExecutor(agent, chatPlan(2))

	for i := 0; i < 3; i++ {
		if _, err := exec.ExecuteCommand(context.Background(), "greet twice"); err != nil {
			t.Fatalf("command %d: %v", i, err)
		}
	}

	status := exec.Status()
	if status.HistoryCount != 3 {
		t.Errorf("history count = %d, want 3", status.HistoryCount)
	}
	if status.QueueLength != 0 {
		t.Errorf("queue length must always be zero, got %d", status.QueueLength)
	}

	recent := exec.History(2)
	if len(recent) != 2 {
		t.Fatalf("History(2) returned %d entries", len(recent))
	}
	if recent[0].SuccessCount != 2 || len(recent[0].Actions) != 2 {
		t.Errorf("unexpected entry: %+v", recent[0])
	}
}

func TestHistoryLogBounded(t *testing.T) {
	h := newHistoryLog(3)
	for i := 0; i < 5; i++ {
		h.append(HistoryEntry{Input: string(rune('a' + i))})
	}
	if h.count() != 3 {
		t.Fatalf("bounded log holds %d entries, want 3", h.count())
	}
	recent := h.recent(0)
	if len(recent) != 3 || recent[0].Input != "e" || recent[2].Input != "c" {
		t.Errorf("unexpected recent view: %+v", recent)
	}
}

func TestConsultNextActionIsAdvisoryOnly(t *testing.T) {
	agent := newFakeAgent()
	planner := &fakePlanner{plan: chatPlan(1), suggestion: "mine the stone ahead"}
	exec := NewExecutor(agent, planner, Config{ActionGap: time.Millisecond})

	suggestion, err := exec.ConsultNextAction(context.Background(), "get stone")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if suggestion != "mine the stone ahead" {
		t.Errorf("suggestion = %q", suggestion)
	}
	if calls := agent.dispatchCalls(); len(calls) != 0 {
		t.Errorf("consulting must not dispatch anything, got %v", calls)
	}
}
