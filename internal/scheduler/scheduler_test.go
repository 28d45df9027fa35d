package scheduler

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"overseer/internal/graph"
	"overseer/internal/message"
	"overseer/internal/worker"
)

// stepReasoner replays one scripted step per call.
type stepReasoner struct {
	steps []func(msgs []message.Message) (message.Message, error)
	calls int
}

func (r *stepReasoner) Invoke(_ context.Context, msgs []message.Message) (message.Message, error) {
	if r.calls >= len(r.steps) {
		return message.Assistant("no further actions"), nil
	}
	step := r.steps[r.calls]
	r.calls++
	return step(msgs)
}

// blockingReasoner plans once, then parks every supervision call on
// the conversation context so cancellation is observable.
type blockingReasoner struct {
	started chan struct{}
	calls   int
}

func (r *blockingReasoner) Invoke(ctx context.Context, _ []message.Message) (message.Message, error) {
	r.calls++
	if r.calls == 1 {
		return message.Assistant(planReply), nil
	}
	select {
	case r.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return message.Message{}, ctx.Err()
}

var taskIDRe = regexp.MustCompile(`"id":"([^"]+)"`)

// currentTaskID digs the task id out of the plan snapshot the
// supervisor prompt embeds.
func currentTaskID(msgs []message.Message) string {
	if len(msgs) == 0 {
		return ""
	}
	m := taskIDRe.FindStringSubmatch(msgs[0].Content)
	if m == nil {
		return ""
	}
	return m[1]
}

const planReply = `PLAN_UPDATE: CREATE_PLAN {"title": "Find X", "description": "", "tasks": [{"description": "research the value of X", "agent": "researcher"}]}`

func successSteps() []func(msgs []message.Message) (message.Message, error) {
	return []func(msgs []message.Message) (message.Message, error){
		func(_ []message.Message) (message.Message, error) {
			return message.Assistant(planReply), nil
		},
		func(msgs []message.Message) (message.Message, error) {
			return message.Assistant(fmt.Sprintf(`PLAN_UPDATE: UPDATE_TASK {"by_id": %q, "status": "in_progress"}`, currentTaskID(msgs))), nil
		},
		func(msgs []message.Message) (message.Message, error) {
			return message.Message{
				Role:    message.RoleAssistant,
				Content: "delegating",
				ToolCalls: []message.ToolCall{{
					ID:   "c1",
					Name: "transfer_to_researcher",
					Args: map[string]any{"task_id": currentTaskID(msgs), "instruction": "find X"},
				}},
			}, nil
		},
		func(_ []message.Message) (message.Message, error) {
			return message.Assistant("X is 42."), nil
		},
	}
}

func echoRegistry(t *testing.T, reply string) *worker.Registry {
	t.Helper()
	reg := worker.NewRegistry()
	err := reg.Register(worker.Definition{
		Name: "researcher",
		Mode: worker.OutputLastMessage,
		Cap: worker.CapabilityFunc(func(_ context.Context, _ []message.Message) ([]message.Message, error) {
			return []message.Message{message.Assistant(reply)}, nil
		}),
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return reg
}

func collect(t *testing.T, s *Scheduler, n int) []Result {
	t.Helper()
	var out []Result
	timeout := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case r := <-s.Results():
			out = append(out, r)
		case <-timeout:
			t.Fatalf("timed out after %d of %d results", len(out), n)
		}
	}
	return out
}

func TestSchedulerRunsConversation(t *testing.T) {
	e := graph.NewEngine(&stepReasoner{steps: successSteps()}, echoRegistry(t, "X = 42"))
	s := New(e, 1)
	s.Start(context.Background())
	defer s.Shutdown()

	id := s.Submit("What is X?")
	res := collect(t, s, 1)[0]

	if res.ConversationID != id {
		t.Errorf("result id = %q, want %q", res.ConversationID, id)
	}
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if res.FinalAnswer != "X is 42." {
		t.Errorf("final answer = %q", res.FinalAnswer)
	}
	if !strings.Contains(res.PlanJSON, `"status":"completed"`) {
		t.Errorf("plan json = %s", res.PlanJSON)
	}
	if res.Metrics == nil || !res.Metrics.Succeeded {
		t.Error("metrics missing or not marked succeeded")
	}
}

func TestSchedulerReportsFailure(t *testing.T) {
	steps := successSteps()
	steps[3] = func(_ []message.Message) (message.Message, error) {
		return message.Assistant("The research failed, the plan cannot be completed."), nil
	}
	e := graph.NewEngine(&stepReasoner{steps: steps}, echoRegistry(t, "Error: TimeoutError"))
	s := New(e, 1)
	s.Start(context.Background())
	defer s.Shutdown()

	s.Submit("What is X?")
	res := collect(t, s, 1)[0]

	if res.Error == "" {
		t.Fatal("failed conversation must carry an error")
	}
	if res.Metrics != nil && res.Metrics.Succeeded {
		t.Error("metrics must not report success")
	}
	if !strings.Contains(res.PlanJSON, `"status":"failed"`) {
		t.Errorf("plan json = %s", res.PlanJSON)
	}
}

func TestSchedulerCancel(t *testing.T) {
	blocking := &blockingReasoner{started: make(chan struct{}, 1)}

	e := graph.NewEngine(blocking, echoRegistry(t, "unused"))
	s := New(e, 1)
	s.Start(context.Background())
	defer s.Shutdown()

	id := s.Submit("What is X?")
	select {
	case <-blocking.started:
	case <-time.After(5 * time.Second):
		t.Fatal("conversation never started")
	}
	if err := s.Cancel(strings.ToUpper(id)); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	res := collect(t, s, 1)[0]
	if !strings.Contains(res.Error, "cancelled") {
		t.Errorf("result error = %q, want cancellation", res.Error)
	}
}

func TestCancelWithoutRunningConversation(t *testing.T) {
	s := New(graph.NewEngine(&stepReasoner{}, worker.NewRegistry()), 1)
	if err := s.Cancel("nope"); err == nil {
		t.Error("Cancel must fail when nothing is running")
	}
	if _, err := s.CancelMostRecent(); err == nil {
		t.Error("CancelMostRecent must fail when nothing is running")
	}
}
