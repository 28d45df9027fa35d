package graph

import (
	"context"
	"fmt"
	"time"

	"overseer/internal/metrics"
	"overseer/internal/plan"
	"overseer/internal/worker"
)

const defaultMaxTurns = 32

// Engine owns the node wiring for one conversation graph. It is
// stateless between calls; all conversation state lives in State.
type Engine struct {
	planner    *Planner
	supervisor *Supervisor
	evaluator  *Evaluator
	workers    *worker.Registry

	// MaxTurns bounds supervision turns per conversation so a blocked
	// or failing plan cannot loop forever.
	MaxTurns int
}

func NewEngine(r Reasoner, workers *worker.Registry) *Engine {
	return &Engine{
		planner:    &Planner{Reasoner: r, Workers: workers},
		supervisor: &Supervisor{Reasoner: r, Workers: workers},
		evaluator:  &Evaluator{},
		workers:    workers,
		MaxTurns:   defaultMaxTurns,
	}
}

// SetClassifier swaps the evaluator's success/failure policy.
func (e *Engine) SetClassifier(c Classifier) { e.evaluator.Classifier = c }

// IsTerminal reports whether a plan needs no further supervision.
func (e *Engine) IsTerminal(p *plan.Plan) bool { return p.IsTerminal() }

// invocationNode adapts one worker invocation to the node interface so
// it runs under the same execution bridge as every other node.
type invocationNode struct {
	workers *worker.Registry
	target  string
}

func (n *invocationNode) Name() string { return "worker:" + n.target }

func (n *invocationNode) Run(ctx context.Context, st State) (State, error) {
	delta, res := n.workers.Invoke(ctx, n.target, st.Messages)
	st = st.Append(delta...)
	st.LastInvocation = &res
	return st, nil
}

// Advance runs one full cycle: planner (while no plan exists) or
// supervisor, and after a delegation also the handoff, the worker and
// the evaluator, ending where the supervisor would be re-entered.
// done is true once the graph reached its terminal edge.
func (e *Engine) Advance(ctx context.Context, st State, mm *metrics.ConversationMetrics) (out State, done bool, err error) {
	turn := metrics.TurnMetrics{Start: time.Now()}
	if mm != nil {
		turn.Turn = len(mm.Turns) + 1
		defer func() {
			turn.End = time.Now()
			turn.Finalize()
			mm.Turns = append(mm.Turns, turn)
		}()
	}

	if st.Plan == nil && !st.Planned {
		st, err = e.step(ctx, e.planner, st, &turn)
		return st, false, err
	}

	st, err = e.step(ctx, e.supervisor, st, &turn)
	if err != nil {
		return st, false, err
	}

	switch target := Route(st, e.workers); target.Kind {
	case ToEnd:
		return st, true, nil

	case ToHandoff:
		call, _ := st.Last().FirstToolCall()
		transfer, herr := e.workers.Handoff(call)
		if herr != nil {
			// The router vetted the target; failure here means the
			// registry changed under us.
			st.LastErr = herr.Error()
			return st, false, nil
		}
		st = st.Append(transfer.Messages...)

		inv := &invocationNode{workers: e.workers, target: transfer.Goto}
		st, err = e.step(ctx, inv, st, &turn)
		if err != nil {
			return st, false, err
		}
		st, err = e.step(ctx, e.evaluator, st, &turn)
		return st, false, err

	default:
		// A blocked conversation (planning never produced a plan) and
		// a failed or errored plan both stop once the supervisor has
		// issued its status report instead of delegating again.
		if st.Plan == nil && len(st.Last().ToolCalls) == 0 {
			return st, true, nil
		}
		if st.Plan != nil && st.Plan.IsTerminal() && st.Plan.Status != plan.PlanCompleted && len(st.Last().ToolCalls) == 0 {
			return st, true, nil
		}
		return st, false, nil
	}
}

// step runs one node through the bridge and records its timing. Node
// errors land in the conversation error field, never above it.
func (e *Engine) step(ctx context.Context, n Node, st State, turn *metrics.TurnMetrics) (State, error) {
	nm := metrics.NodeMetrics{Node: n.Name(), Start: time.Now()}
	out, err := RunSync(ctx, n, st)
	nm.End = time.Now()
	nm.DurationMs = nm.End.Sub(nm.Start).Milliseconds()

	if err != nil {
		if ctx.Err() != nil {
			// Cancellation propagates so the driver can stop cleanly.
			nm.Err = err.Error()
			turn.Nodes = append(turn.Nodes, nm)
			return out, err
		}
		out = st
		out.LastErr = err.Error()
		nm.Err = err.Error()
		err = nil
	} else if out.LastErr != "" {
		nm.Err = out.LastErr
	}
	turn.Nodes = append(turn.Nodes, nm)
	return out, err
}

// Run drives Advance until the graph terminates, the turn budget runs
// out, or the context is cancelled.
func (e *Engine) Run(ctx context.Context, st State, mm *metrics.ConversationMetrics) (State, error) {
	maxTurns := e.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}

	for i := 0; i < maxTurns; i++ {
		var done bool
		var err error
		st, done, err = e.Advance(ctx, st, mm)
		if err != nil {
			return st, err
		}
		if done {
			if mm != nil {
				mm.Succeeded = st.Plan != nil && st.Plan.Status == plan.PlanCompleted
			}
			return st, nil
		}
	}
	st.LastErr = fmt.Sprintf("conversation exceeded the %d-turn budget", maxTurns)
	return st, fmt.Errorf("%s", st.LastErr)
}
