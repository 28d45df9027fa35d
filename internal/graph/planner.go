package graph

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"overseer/internal/directive"
	"overseer/internal/logger"
	"overseer/internal/message"
	"overseer/internal/plan"
	"overseer/internal/worker"
)

// Planner runs once per conversation, while no plan exists, and turns
// the user's request into the initial plan via a CREATE_PLAN directive.
type Planner struct {
	Reasoner Reasoner
	Workers  *worker.Registry
	Now      func() time.Time // nil means time.Now
}

func (p *Planner) Name() string { return "planner" }

func (p *Planner) Run(ctx context.Context, st State) (State, error) {
	if st.Plan != nil {
		return st, nil
	}
	st.Planned = true

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	goal, ok := message.FirstUser(st.Messages)
	if !ok {
		st.LastErr = "planner: conversation has no user request"
		return st, nil
	}

	prompt := []message.Message{
		{Role: message.RoleSystem, Content: buildPlannerPrompt(p.Workers, now())},
		message.User(goal),
	}
	reply, err := p.Reasoner.Invoke(ctx, prompt)
	if err != nil {
		st.LastErr = fmt.Sprintf("planner: reasoner invocation failed: %v", err)
		return st, nil
	}

	if len(reply.ToolCalls) > 0 {
		// Protocol violation, but not fatal to the turn.
		logger.Printf("[Planner] protocol violation: reply carries %d tool call(s)", len(reply.ToolCalls))
		reply.ToolCalls = nil
	}

	d, err := directive.ParseCreatePlan(reply.Content)
	if err != nil {
		st.LastErr = fmt.Sprintf("planner: %v", err)
		return st, nil
	}

	np, out := applyCreatePlan(d)
	if !out.Applied {
		st.LastErr = fmt.Sprintf("planner: %s", out.Err)
		return st, nil
	}

	st = st.Append(reply)
	st.Plan = np
	st.LastErr = ""
	logger.Printf("[Planner] plan %q created with %d task(s)", np.Title, len(np.Tasks))
	return st, nil
}

// applyCreatePlan turns a CREATE_PLAN directive into a plan, resolving
// the positional dependency convention. Every node that creates a plan
// must go through here, or numeric dependencies would dangle. New tasks
// always start pending regardless of what the reasoner supplied;
// AddTasks guarantees that by construction.
func applyCreatePlan(d *directive.Directive) (*plan.Plan, directive.Outcome) {
	resolvePositionalDeps(d.Tasks)
	np, out := directive.Apply(nil, d)
	if !out.Applied {
		return nil, out
	}
	fixed := rewriteDeps(*np)
	return &fixed, out
}

// The reasoner references dependencies by 1-based task position since
// task ids do not exist until the plan is applied. Mark them here and
// rewrite to real ids after creation.
func resolvePositionalDeps(specs []plan.TaskSpec) {
	for i := range specs {
		for j, dep := range specs[i].Dependencies {
			if _, err := strconv.Atoi(dep); err == nil {
				specs[i].Dependencies[j] = "#" + dep
			}
		}
	}
}

func rewriteDeps(p plan.Plan) plan.Plan {
	out := p.Clone()
	for i := range out.Tasks {
		for j, dep := range out.Tasks[i].Dependencies {
			if len(dep) > 1 && dep[0] == '#' {
				if pos, err := strconv.Atoi(dep[1:]); err == nil && pos >= 1 && pos <= len(out.Tasks) {
					out.Tasks[i].Dependencies[j] = out.Tasks[pos-1].ID
				}
			}
		}
	}
	return out
}
