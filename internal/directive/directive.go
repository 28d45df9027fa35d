// Package directive implements the PLAN_UPDATE command protocol through
// which the reasoner mutates the plan. Commands arrive embedded in
// assistant free text and are parsed into a tagged Directive value, then
// dispatched to the plan mutators.
package directive

import (
	"encoding/json"
	"fmt"
	"strings"

	"overseer/internal/plan"
)

type Kind string

const (
	KindCreatePlan Kind = "CREATE_PLAN"
	KindAddTasks   Kind = "ADD_TASKS"
	KindUpdateTask Kind = "UPDATE_TASK"
	KindSetCurrent Kind = "SET_CURRENT"
	KindFinishPlan Kind = "FINISH_PLAN"
)

var knownKinds = map[Kind]struct{}{
	KindCreatePlan: {},
	KindAddTasks:   {},
	KindUpdateTask: {},
	KindSetCurrent: {},
	KindFinishPlan: {},
}

// UpdateArgs carries UPDATE_TASK fields. Nil pointers mean the field
// was not supplied.
type UpdateArgs struct {
	ByID        string  `json:"by_id"`
	Status      *string `json:"status"`
	Evaluation  *string `json:"evaluation"`
	Notes       *string `json:"notes"`
	Agent       *string `json:"agent"`
	Result      *string `json:"result"`
	Description *string `json:"description"`
}

// Directive is one parsed PLAN_UPDATE command.
type Directive struct {
	Kind        Kind
	Title       string
	Description string
	Tasks       []plan.TaskSpec
	Update      UpdateArgs
	TaskID      string
}

// taskSpec tolerates both {"description": ...} objects and bare strings
// in a tasks list.
type taskSpec plan.TaskSpec

func (t *taskSpec) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Description = s
		return nil
	}
	var obj struct {
		Description  string   `json:"description"`
		Agent        string   `json:"agent"`
		Dependencies []string `json:"dependencies"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("task spec must be a string or an object: %w", err)
	}
	t.Description = obj.Description
	t.Agent = obj.Agent
	t.Dependencies = obj.Dependencies
	return nil
}

func toSpecs(in []taskSpec) []plan.TaskSpec {
	out := make([]plan.TaskSpec, len(in))
	for i, s := range in {
		out[i] = plan.TaskSpec(s)
	}
	return out
}

func (d *Directive) String() string {
	if d == nil {
		return "<none>"
	}
	switch d.Kind {
	case KindUpdateTask:
		return fmt.Sprintf("%s by_id=%s", d.Kind, d.Update.ByID)
	case KindSetCurrent:
		return fmt.Sprintf("%s task_id=%s", d.Kind, d.TaskID)
	case KindCreatePlan:
		return fmt.Sprintf("%s title=%q tasks=%d", d.Kind, d.Title, len(d.Tasks))
	case KindAddTasks:
		return fmt.Sprintf("%s tasks=%d", d.Kind, len(d.Tasks))
	default:
		return string(d.Kind)
	}
}

// ValidTaskStatus reports whether s names a task status the protocol
// may request.
func ValidTaskStatus(s string) bool {
	switch plan.TaskStatus(strings.TrimSpace(strings.ToLower(s))) {
	case plan.TaskPending, plan.TaskReady, plan.TaskInProgress, plan.TaskCompleted,
		plan.TaskFailed, plan.TaskSkipped, plan.TaskPendingReview, plan.TaskRevisionNeeded:
		return true
	}
	return false
}
