package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"blockmate/internal/logger"
	"blockmate/internal/metrics"
	"blockmate/internal/parser"
	"blockmate/internal/world"
)

// ErrBusy is returned when a command arrives while another one is still
// executing. The caller must retry later; commands are never queued.
var ErrBusy = errors.New("pipeline: a command is already executing")

// Agent is the world-control capability the pipeline dispatches to.
// Implemented by world.Client; faked in tests.
type Agent interface {
	CurrentState(ctx context.Context) *world.GameState
	MoveTo(ctx context.Context, x, y, z float64) bool
	BreakBlock(ctx context.Context, blockType string) bool
	GatherItem(ctx context.Context, itemType string, amount int) int
	SendChat(ctx context.Context, text string)
	IsAlive() bool
	ClearGoal()
}

// Parser turns one instruction plus a state snapshot into a plan. Must be
// total: never nil, never an error (failures degrade to a fallback plan).
type Parser interface {
	Parse(ctx context.Context, instruction string, state *world.GameState) *parser.Plan
	Suggest(ctx context.Context, goal string, state *world.GameState) (string, error)
}

const (
	defaultActionGap   = 1000 * time.Millisecond
	defaultHistorySize = 100
)

// Config tunes the executor. Zero values select the defaults; tests shrink
// ActionGap to keep runs fast.
type Config struct {
	ActionGap    time.Duration
	HistoryLimit int
}

// Status is derived on demand, never stored. QueueLength is always zero:
// admission is a single-slot gate, not a queue.
type Status struct {
	IsExecuting  bool `json:"is_executing"`
	QueueLength  int  `json:"queue_length"`
	HistoryCount int  `json:"history_count"`
}

// Executor drives one command at a time through parse, validation and
// sequential dispatch. The single-flight guard is a boolean latch: a command
// arriving while one is active is rejected outright.
type Executor struct {
	agent     Agent
	parser    Parser
	actionGap time.Duration

	executing atomic.Bool

	histMu  sync.Mutex
	history *historyLog
}

func NewExecutor(agent Agent, p Parser, cfg Config) *Executor {
	gap := cfg.ActionGap
	if gap <= 0 {
		gap = defaultActionGap
	}
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = defaultHistorySize
	}
	return &Executor{
		agent:     agent,
		parser:    p,
		actionGap: gap,
		history:   newHistoryLog(limit),
	}
}

// ExecuteCommand runs one instruction end to end: snapshot, parse, dispatch
// each action in plan order, record history. Returns ErrBusy without side
// effects when another command is in flight. The returned metrics report
// Succeeded = at least one action succeeded.
func (e *Executor) ExecuteCommand(ctx context.Context, input string) (cm *metrics.CommandMetrics, err error) {
	if !e.executing.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer e.executing.Store(false)

	cm = &metrics.CommandMetrics{
		CommandID: uuid.New().String()[:8],
		Input:     input,
		Start:     time.Now(),
	}
	defer cm.Finalize()

	// Nothing past the command boundary may take the process down.
	defer func() {
		if rec := recover(); rec != nil {
			logger.Log.Printf("[pipeline] panic while executing %q: %v", input, rec)
			cm.Reason = fmt.Sprintf("internal error: %v", rec)
			err = nil
		}
	}()

	state := e.agent.CurrentState(ctx)
	if state == nil {
		cm.Reason = "agent not connected: no world state available"
		logger.Log.Printf("[pipeline] %s aborted: %s", cm.CommandID, cm.Reason)
		return cm, nil
	}

	plan := e.parser.Parse(ctx, input, state)
	if plan == nil || len(plan.Actions) == 0 {
		cm.Reason = "nothing to do"
		if plan != nil && plan.Reasoning != "" {
			cm.Reason = plan.Reasoning
		}
		logger.Log.Printf("[pipeline] %s produced no actions: %s", cm.CommandID, cm.Reason)
		return cm, nil
	}

	cm.Reason = plan.Reasoning
	logger.Log.Printf("[pipeline] %s executing %d action(s) for %q", cm.CommandID, len(plan.Actions), input)

	for i, action := range plan.Actions {
		am := metrics.ActionMetrics{Kind: string(action.Kind), Start: time.Now()}
		dispatchErr := e.dispatch(ctx, action)
		am.End = time.Now()
		am.DurationMs = am.End.Sub(am.Start).Milliseconds()
		am.Success = dispatchErr == nil
		if dispatchErr != nil {
			am.Err = dispatchErr.Error()
			logger.Log.Printf("[pipeline] %s action %d (%s) failed: %v", cm.CommandID, i+1, action.Kind, dispatchErr)
		}
		cm.Actions = append(cm.Actions, am)

		// Quiescence gap: let world-state effects settle before the next
		// action queries state. Not applied after the last action.
		if i < len(plan.Actions)-1 {
			select {
			case <-time.After(e.actionGap):
			case <-ctx.Done():
				cm.Reason = "cancelled"
				e.record(input, plan.Actions, cm)
				return cm, nil
			}
		}
	}

	e.record(input, plan.Actions, cm)
	return cm, nil
}

func (e *Executor) record(input string, actions []parser.Action, cm *metrics.CommandMetrics) {
	success := 0
	for _, a := range cm.Actions {
		if a.Success {
			success++
		}
	}
	e.histMu.Lock()
	e.history.append(HistoryEntry{
		Input:        input,
		Actions:      actions,
		SuccessCount: success,
		Timestamp:    time.Now(),
	})
	e.histMu.Unlock()
}

// dispatch routes one action to the matching agent capability. A parameter
// validation failure fails the action fast without touching the agent.
func (e *Executor) dispatch(ctx context.Context, action parser.Action) error {
	switch action.Kind {
	case parser.KindMove:
		x, okX := numParam(action.Params, "x")
		y, okY := numParam(action.Params, "y")
		z, okZ := numParam(action.Params, "z")
		if !okX || !okY || !okZ {
			return fmt.Errorf("move requires numeric x, y, z coordinates")
		}
		if !e.agent.MoveTo(ctx, x, y, z) {
			return fmt.Errorf("could not reach (%.1f, %.1f, %.1f)", x, y, z)
		}
		return nil

	case parser.KindMoveRelative:
		dx, okX := numParam(action.Params, "x")
		dy, okY := numParam(action.Params, "y")
		dz, okZ := numParam(action.Params, "z")
		if !okX || !okY || !okZ {
			return fmt.Errorf("relative move requires numeric x, y, z deltas")
		}
		// Resolve against a fresh position; the previous action may have
		// moved the bot.
		state := e.agent.CurrentState(ctx)
		if state == nil {
			return fmt.Errorf("relative move: current position unavailable")
		}
		target := state.Position.Add(world.Vec3{X: dx, Y: dy, Z: dz})
		if !e.agent.MoveTo(ctx, target.X, target.Y, target.Z) {
			return fmt.Errorf("could not reach (%.1f, %.1f, %.1f)", target.X, target.Y, target.Z)
		}
		return nil

	case parser.KindMine:
		block, _ := action.Params["block"].(string)
		if block == "" {
			return fmt.Errorf("mine requires a block type")
		}
		if !e.agent.BreakBlock(ctx, block) {
			return fmt.Errorf("no %s block found or break failed", block)
		}
		return nil

	case parser.KindCollect:
		item, _ := action.Params["item"].(string)
		if item == "" {
			return fmt.Errorf("collect requires an item type")
		}
		amount := intParam(action.Params, "amount")
		if amount <= 0 {
			amount = 1
		}
		got := e.agent.GatherItem(ctx, item, amount)
		if got < 1 {
			return fmt.Errorf("collected none of %s", item)
		}
		if got < amount {
			logger.Log.Printf("[pipeline] collected %d/%d of %s", got, amount, item)
		}
		return nil

	case parser.KindChat:
		msg, _ := action.Params["message"].(string)
		if msg == "" {
			return fmt.Errorf("chat requires a message")
		}
		e.agent.SendChat(ctx, msg)
		return nil

	case parser.KindPlace, parser.KindCraft:
		return fmt.Errorf("%s is not implemented", action.Kind)

	default:
		return fmt.Errorf("unknown action kind: %s", action.Kind)
	}
}

// EmergencyStop drops the execution latch and clears any pending movement
// goal. Idempotent; safe to call when idle.
func (e *Executor) EmergencyStop() {
	e.executing.Store(false)
	e.agent.ClearGoal()
	logger.Log.Printf("[pipeline] emergency stop")
}

// Status derives the executor state on demand.
func (e *Executor) Status() Status {
	e.histMu.Lock()
	count := e.history.count()
	e.histMu.Unlock()
	return Status{
		IsExecuting:  e.executing.Load(),
		QueueLength:  0,
		HistoryCount: count,
	}
}

// History returns up to n completed commands, most recent first.
func (e *Executor) History(n int) []HistoryEntry {
	e.histMu.Lock()
	defer e.histMu.Unlock()
	return e.history.recent(n)
}

// Preview parses an instruction without executing it. Does not take the
// execution latch; nothing is dispatched.
func (e *Executor) Preview(ctx context.Context, input string) (*parser.Plan, error) {
	state := e.agent.CurrentState(ctx)
	if state == nil {
		return nil, fmt.Errorf("agent not connected: no world state available")
	}
	return e.parser.Parse(ctx, input, state), nil
}

// ConsultNextAction asks the parser for a single free-text suggestion toward
// a goal. Purely informational; nothing is dispatched.
func (e *Executor) ConsultNextAction(ctx context.Context, goal string) (string, error) {
	state := e.agent.CurrentState(ctx)
	if state == nil {
		return "", fmt.Errorf("agent not connected: no world state available")
	}
	return e.parser.Suggest(ctx, goal, state)
}

func numParam(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func intParam(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
