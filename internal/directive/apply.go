package directive

import (
	"fmt"
	"strings"

	"overseer/internal/plan"
)

// Outcome distinguishes "a mutator ran" from "no directive present"
// and "directive failed".
type Outcome struct {
	Applied bool
	Err     string
}

// Words that count as evidence when the reasoner closes a task as
// completed. Without one, the close is downgraded to pending_review so
// tasks cannot be self-graded shut.
var successKeywords = []string{
	"successful",
	"success",
	"completed",
	"complete",
	"passed",
	"met requirements",
	"looks good",
	"verified",
	"done",
}

func hasSuccessEvidence(evaluation string) bool {
	e := strings.ToLower(evaluation)
	for _, kw := range successKeywords {
		if strings.Contains(e, kw) {
			return true
		}
	}
	return false
}

// Apply dispatches a parsed directive to the plan mutators. The input
// plan is never mutated: on failure the caller's value is returned
// untouched alongside the error outcome.
func Apply(p *plan.Plan, d *Directive) (*plan.Plan, Outcome) {
	if d == nil {
		return p, Outcome{}
	}

	if d.Kind == KindCreatePlan {
		np := plan.CreatePlan(d.Title, d.Description)
		if len(d.Tasks) > 0 {
			np = plan.AddTasks(np, d.Tasks)
		}
		return &np, Outcome{Applied: true}
	}

	if p == nil {
		return nil, Outcome{Err: fmt.Sprintf("%s: no active plan", d.Kind)}
	}

	switch d.Kind {
	case KindAddTasks:
		np := plan.AddTasks(*p, d.Tasks)
		return &np, Outcome{Applied: true}

	case KindUpdateTask:
		np, err := plan.UpdateTask(*p, d.Update.ByID, buildUpdate(d.Update))
		if err != nil {
			return p, Outcome{Err: err.Error()}
		}
		return &np, Outcome{Applied: true}

	case KindSetCurrent:
		np, err := plan.SetCurrentTask(*p, d.TaskID)
		if err != nil {
			return p, Outcome{Err: err.Error()}
		}
		return &np, Outcome{Applied: true}

	case KindFinishPlan:
		np := plan.FinishPlan(*p)
		return &np, Outcome{Applied: true}
	}

	return p, Outcome{Err: fmt.Sprintf("unknown plan command: %s", d.Kind)}
}

// buildUpdate converts wire arguments into a TaskUpdate, downgrading an
// unevidenced completion to pending_review.
func buildUpdate(args UpdateArgs) plan.TaskUpdate {
	var upd plan.TaskUpdate

	if args.Status != nil {
		st := plan.TaskStatus(strings.TrimSpace(strings.ToLower(*args.Status)))
		if st == plan.TaskCompleted {
			eval := ""
			if args.Evaluation != nil {
				eval = *args.Evaluation
			}
			if !hasSuccessEvidence(eval) {
				st = plan.TaskPendingReview
			}
		}
		upd.Status = &st
	}
	upd.Evaluation = args.Evaluation
	upd.Notes = args.Notes
	upd.Agent = args.Agent
	upd.Result = args.Result
	upd.Description = args.Description
	return upd
}

// Interpret runs Parse then Apply on assistant text. Absence of a
// directive is not an error; a malformed or failing directive leaves
// the plan at its snapshot and reports the failure.
func Interpret(p *plan.Plan, text string) (*plan.Plan, Outcome) {
	d, err := Parse(text)
	if err != nil {
		return p, Outcome{Err: err.Error()}
	}
	if d == nil {
		return p, Outcome{}
	}
	return Apply(p, d)
}
