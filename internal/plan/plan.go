package plan

import "time"

type TaskStatus string

const (
	TaskPending        TaskStatus = "pending"
	TaskReady          TaskStatus = "ready"
	TaskInProgress     TaskStatus = "in_progress"
	TaskCompleted      TaskStatus = "completed"
	TaskFailed         TaskStatus = "failed"
	TaskSkipped        TaskStatus = "skipped"
	TaskPendingReview  TaskStatus = "pending_review"
	TaskRevisionNeeded TaskStatus = "revision_needed"
)

type PlanStatus string

const (
	PlanNotStarted PlanStatus = "not_started"
	PlanPlanning   PlanStatus = "planning"
	PlanReady      PlanStatus = "ready"
	PlanExecuting  PlanStatus = "executing"
	PlanCompleted  PlanStatus = "completed"
	PlanFailed     PlanStatus = "failed"
	PlanError      PlanStatus = "error"
)

// Task is one unit of delegable work inside a Plan.
type Task struct {
	ID           string     `json:"id"`
	Description  string     `json:"description"`
	Status       TaskStatus `json:"status"`
	Agent        string     `json:"agent,omitempty"`
	Dependencies []string   `json:"dependencies,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Evaluation   string     `json:"evaluation,omitempty"`
	Result       string     `json:"result,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Plan is the decomposition of one user request into ordered tasks.
// Insertion order of Tasks is significant: it breaks ties when the
// next runnable task is selected.
type Plan struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        PlanStatus `json:"status"`
	Tasks         []Task     `json:"tasks"`
	CurrentTaskID string     `json:"current_task_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// TaskSpec describes a task to be appended by AddTasks.
type TaskSpec struct {
	Description  string   `json:"description"`
	Agent        string   `json:"agent,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// TaskUpdate carries the fields UpdateTask may change. Nil pointers
// leave the current value untouched.
type TaskUpdate struct {
	Status       *TaskStatus
	Description  *string
	Agent        *string
	Notes        *string
	Evaluation   *string
	Result       *string
	Dependencies []string
}

func terminal(s PlanStatus) bool {
	return s == PlanCompleted || s == PlanFailed || s == PlanError
}

// IsTerminal reports whether the plan has reached a final status.
func (p *Plan) IsTerminal() bool {
	return p != nil && terminal(p.Status)
}

// Clone returns a deep copy. Mutators operate on clones so a failed
// mutation never leaks into the caller's value.
func (p Plan) Clone() Plan {
	out := p
	out.Tasks = make([]Task, len(p.Tasks))
	for i, t := range p.Tasks {
		ct := t
		if len(t.Dependencies) > 0 {
			ct.Dependencies = append([]string(nil), t.Dependencies...)
		}
		if t.CompletedAt != nil {
			at := *t.CompletedAt
			ct.CompletedAt = &at
		}
		out.Tasks[i] = ct
	}
	if p.CompletedAt != nil {
		at := *p.CompletedAt
		out.CompletedAt = &at
	}
	return out
}
