package graph

import (
	"context"
	"fmt"
	"strings"

	"overseer/internal/message"
	"overseer/internal/plan"
	"overseer/internal/worker"
)

// Classifier decides whether a worker's reply counts as success. It is
// a replaceable policy: keyword matching is a heuristic, not a
// semantic guarantee.
type Classifier interface {
	Classify(m message.Message) (ok bool, reason string)
}

// KeywordClassifier fails a reply that is empty, not from the
// assistant role, or contains a failure keyword.
type KeywordClassifier struct {
	FailureKeywords []string
}

// Default failure markers, including a few localized equivalents.
var defaultFailureKeywords = []string{
	"error",
	"fail",
	"unable to",
	"cannot",
	"exception",
	"timed out",
	"lỗi",
	"không thể",
}

func (c KeywordClassifier) Classify(m message.Message) (bool, string) {
	if m.Empty() {
		return false, "worker reply was empty"
	}
	if !m.IsAssistant() {
		return false, fmt.Sprintf("worker reply has unexpected role %q", m.Role)
	}
	keywords := c.FailureKeywords
	if len(keywords) == 0 {
		keywords = defaultFailureKeywords
	}
	lower := strings.ToLower(m.Content)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return false, fmt.Sprintf("worker reply contains failure keyword %q", kw)
		}
	}
	return true, "worker reply reported no failures"
}

const maxResultNote = 1000

// Evaluator runs after every worker invocation: it classifies the
// reply, closes the task accordingly, and clears the current-task
// pointer. It never emits conversation messages.
type Evaluator struct {
	Classifier Classifier // nil means KeywordClassifier{}
}

func (e *Evaluator) Name() string { return "evaluator" }

func (e *Evaluator) Run(ctx context.Context, st State) (State, error) {
	if st.Plan == nil {
		st.LastErr = "evaluator: no active plan"
		return st, nil
	}

	taskID, err := currentTask(*st.Plan)
	if err != nil {
		st.LastErr = fmt.Sprintf("evaluator: %v", err)
		return st, nil
	}

	reply := st.Last()
	cls := e.Classifier
	if cls == nil {
		cls = KeywordClassifier{}
	}
	ok, reason := cls.Classify(reply)

	status := plan.TaskCompleted
	if !ok {
		status = plan.TaskFailed
	}

	workerName := reply.Name
	if workerName == "" && st.LastInvocation != nil {
		workerName = st.LastInvocation.Worker
	}
	evaluation := fmt.Sprintf("agent %q result marked %s: %s", workerName, status, reason)
	notes := worker.TruncateContent(reply.Content, maxResultNote)

	np, err := plan.UpdateTask(*st.Plan, taskID, plan.TaskUpdate{
		Status:     &status,
		Evaluation: &evaluation,
		Notes:      &notes,
	})
	if err != nil {
		st.LastErr = fmt.Sprintf("evaluator: %v", err)
		return st, nil
	}
	np, err = plan.SetCurrentTask(np, "")
	if err != nil {
		st.LastErr = fmt.Sprintf("evaluator: %v", err)
		return st, nil
	}

	st.Plan = &np
	st.LastErr = ""
	st.LastInvocation = nil
	return st, nil
}

// currentTask prefers the plan's pointer; without one it requires a
// single in_progress task and refuses to guess between several.
func currentTask(p plan.Plan) (string, error) {
	if p.CurrentTaskID != "" {
		if plan.GetTask(p, p.CurrentTaskID) == nil {
			return "", fmt.Errorf("current task %s not found", p.CurrentTaskID)
		}
		return p.CurrentTaskID, nil
	}
	var ids []string
	for _, t := range p.Tasks {
		if t.Status == plan.TaskInProgress {
			ids = append(ids, t.ID)
		}
	}
	switch len(ids) {
	case 1:
		return ids[0], nil
	case 0:
		return "", fmt.Errorf("no task is in progress")
	default:
		return "", fmt.Errorf("ambiguous current task: %d tasks in progress", len(ids))
	}
}
