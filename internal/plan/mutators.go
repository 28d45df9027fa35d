package plan

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrTaskNotFound = fmt.Errorf("task not found")

func newTaskID() string {
	return uuid.New().String()[:8]
}

// CreatePlan returns a fresh plan in the planning state with no tasks.
func CreatePlan(title, description string) Plan {
	now := time.Now()
	return Plan{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Status:      PlanPlanning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AddTasks appends one pending task per spec. Specs with an empty
// description are skipped. A plan still in planning advances to ready.
func AddTasks(p Plan, specs []TaskSpec) Plan {
	out := p.Clone()
	now := time.Now()
	for _, s := range specs {
		desc := strings.TrimSpace(s.Description)
		if desc == "" {
			continue
		}
		out.Tasks = append(out.Tasks, Task{
			ID:           newTaskID(),
			Description:  desc,
			Status:       TaskPending,
			Agent:        strings.TrimSpace(s.Agent),
			Dependencies: append([]string(nil), s.Dependencies...),
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	out.UpdatedAt = now
	if out.Status == PlanPlanning && len(out.Tasks) > 0 {
		out.Status = PlanReady
	}
	return Recompute(out)
}

// UpdateTask applies the supplied fields to the task with the given id.
// Timestamps advance only when a field actually changes.
func UpdateTask(p Plan, id string, upd TaskUpdate) (Plan, error) {
	out := p.Clone()
	idx := indexOf(out, id)
	if idx < 0 {
		return p, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	t := &out.Tasks[idx]
	now := time.Now()
	changed := false

	if upd.Description != nil && strings.TrimSpace(*upd.Description) != "" && *upd.Description != t.Description {
		t.Description = strings.TrimSpace(*upd.Description)
		changed = true
	}
	if upd.Agent != nil && *upd.Agent != t.Agent {
		t.Agent = *upd.Agent
		changed = true
	}
	if upd.Notes != nil && *upd.Notes != t.Notes {
		t.Notes = *upd.Notes
		changed = true
	}
	if upd.Evaluation != nil && *upd.Evaluation != t.Evaluation {
		t.Evaluation = *upd.Evaluation
		changed = true
	}
	if upd.Result != nil && *upd.Result != t.Result {
		t.Result = *upd.Result
		changed = true
	}
	if upd.Dependencies != nil {
		t.Dependencies = append([]string(nil), upd.Dependencies...)
		changed = true
	}
	if upd.Status != nil && *upd.Status != t.Status {
		t.Status = *upd.Status
		if t.Status == TaskCompleted && t.CompletedAt == nil {
			at := now
			t.CompletedAt = &at
		}
		changed = true
	}

	if changed {
		t.UpdatedAt = now
		out.UpdatedAt = now
	}
	return Recompute(out), nil
}

// SetCurrentTask points the plan at the task being supervised. An empty
// id clears the pointer.
func SetCurrentTask(p Plan, id string) (Plan, error) {
	out := p.Clone()
	if id != "" && indexOf(out, id) < 0 {
		return p, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	out.CurrentTaskID = id
	out.UpdatedAt = time.Now()
	return out, nil
}

// GetTask returns the task with the given id, or nil.
func GetTask(p Plan, id string) *Task {
	if idx := indexOf(p, id); idx >= 0 {
		t := p.Tasks[idx]
		return &t
	}
	return nil
}

// NextPendingTask returns the earliest-inserted pending task whose
// dependencies are all completed, or nil. A dependency on an unknown id
// never counts as satisfied.
func NextPendingTask(p Plan) *Task {
	for i := range p.Tasks {
		t := p.Tasks[i]
		if t.Status != TaskPending {
			continue
		}
		if depsCompleted(p, t.Dependencies) {
			out := t
			return &out
		}
	}
	return nil
}

// FinishPlan forces the plan to completed. Calling it on an already
// completed plan is a no-op.
func FinishPlan(p Plan) Plan {
	if p.Status == PlanCompleted {
		return p
	}
	out := p.Clone()
	now := time.Now()
	out.Status = PlanCompleted
	out.UpdatedAt = now
	if out.CompletedAt == nil {
		out.CompletedAt = &now
	}
	return out
}

// Recompute derives the plan status from its tasks. A terminal status
// is never overwritten.
func Recompute(p Plan) Plan {
	if terminal(p.Status) {
		return p
	}
	out := p
	switch {
	case len(out.Tasks) == 0:
		return out
	case anyStatus(out, TaskFailed):
		out.Status = PlanFailed
	case allCompleted(out):
		out.Status = PlanCompleted
		if out.CompletedAt == nil {
			now := time.Now()
			out.CompletedAt = &now
		}
	case anyStatus(out, TaskInProgress) || anyStatus(out, TaskPendingReview):
		out.Status = PlanExecuting
	default:
		out.Status = PlanReady
	}
	return out
}

func indexOf(p Plan, id string) int {
	for i := range p.Tasks {
		if p.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func depsCompleted(p Plan, deps []string) bool {
	for _, d := range deps {
		idx := indexOf(p, d)
		if idx < 0 || p.Tasks[idx].Status != TaskCompleted {
			return false
		}
	}
	return true
}

func anyStatus(p Plan, s TaskStatus) bool {
	for i := range p.Tasks {
		if p.Tasks[i].Status == s {
			return true
		}
	}
	return false
}

func allCompleted(p Plan) bool {
	for i := range p.Tasks {
		switch p.Tasks[i].Status {
		case TaskCompleted, TaskSkipped:
		default:
			return false
		}
	}
	return true
}
