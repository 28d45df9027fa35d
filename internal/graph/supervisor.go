package graph

import (
	"context"
	"fmt"

	"overseer/internal/directive"
	"overseer/internal/logger"
	"overseer/internal/message"
	"overseer/internal/plan"
	"overseer/internal/worker"
)

// Supervisor is re-entered every turn while the plan is non-terminal.
// It asks the reasoner for exactly one next action and applies it:
// either a PLAN_UPDATE directive or a delegation tool call.
type Supervisor struct {
	Reasoner Reasoner
	Workers  *worker.Registry
}

func (s *Supervisor) Name() string { return "supervisor" }

func (s *Supervisor) Run(ctx context.Context, st State) (State, error) {
	prompt := make([]message.Message, 0, len(st.Messages)+1)
	prompt = append(prompt, message.Message{
		Role:    message.RoleSystem,
		Content: buildSupervisorPrompt(st.Plan, s.Workers),
	})
	prompt = append(prompt, st.Messages...)

	reply, err := s.Reasoner.Invoke(ctx, prompt)
	if err != nil {
		errText := fmt.Sprintf("supervisor: reasoner invocation failed: %v", err)
		st = st.Append(message.Assistant("The supervisor could not reach its reasoner: " + err.Error()))
		st.LastErr = errText
		return st, nil
	}

	d, perr := directive.Parse(reply.Content)
	hasDirective := d != nil || perr != nil

	// A reply carrying both a directive and a delegation is a protocol
	// violation: the directive takes precedence, the delegation is
	// dropped.
	if hasDirective && len(reply.ToolCalls) > 0 {
		logger.Printf("[Supervisor] protocol violation: directive and delegation in one reply, ignoring delegation")
		reply.ToolCalls = nil
	}

	st = st.Append(reply)

	if perr != nil {
		st.LastErr = perr.Error()
		return st, nil
	}
	if d != nil {
		var np *plan.Plan
		var out directive.Outcome
		if d.Kind == directive.KindCreatePlan {
			// Same path as the planner, so numeric dependencies get
			// rewritten to generated task ids here too.
			np, out = applyCreatePlan(d)
		} else {
			np, out = directive.Apply(st.Plan, d)
		}
		if out.Err != "" {
			st.LastErr = out.Err
			return st, nil
		}
		// Starting a task also routes it: the evaluator relies on the
		// current-task pointer after the worker responds.
		if d.Kind == directive.KindUpdateTask && d.Update.Status != nil && *d.Update.Status == string(plan.TaskInProgress) {
			if cur, cerr := plan.SetCurrentTask(*np, d.Update.ByID); cerr == nil {
				np = &cur
			}
		}
		st.Plan = np
		st.LastErr = ""
		logger.Printf("[Supervisor] applied %s", d)
		return st, nil
	}

	// No directive: the reply is a delegation, a final answer, or a
	// status report. The router decides what happens next.
	st.LastErr = ""
	if st.Plan == nil {
		// Nothing to supervise and no plan was created: report the
		// blocked state instead of spinning.
		st.LastErr = "supervisor: no plan exists and the reply did not create one"
	}
	return st, nil
}
