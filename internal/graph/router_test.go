package graph

import (
	"context"
	"testing"

	"overseer/internal/message"
	"overseer/internal/plan"
	"overseer/internal/worker"
)

func testRegistry(t *testing.T, names ...string) *worker.Registry {
	t.Helper()
	reg := worker.NewRegistry()
	for _, n := range names {
		err := reg.Register(worker.Definition{
			Name: n,
			Mode: worker.OutputLastMessage,
			Cap: worker.CapabilityFunc(func(_ context.Context, _ []message.Message) ([]message.Message, error) {
				return []message.Message{message.Assistant("ok")}, nil
			}),
		})
		if err != nil {
			t.Fatalf("Register(%q): %v", n, err)
		}
	}
	return reg
}

func TestRoute(t *testing.T) {
	workers := testRegistry(t, "researcher")

	completed := plan.CreatePlan("p", "")
	completed.Status = plan.PlanCompleted

	executing := plan.CreatePlan("p", "")
	executing.Status = plan.PlanExecuting

	cases := []struct {
		name string
		st   State
		want Target
	}{
		{
			name: "non-assistant last message re-enters supervisor",
			st:   NewState("goal"),
			want: Target{Kind: ToSupervisor},
		},
		{
			name: "known delegation target hands off",
			st: NewState("goal").Append(message.Message{
				Role:      message.RoleAssistant,
				ToolCalls: []message.ToolCall{{ID: "c1", Name: "transfer_to_researcher"}},
			}),
			want: Target{Kind: ToHandoff, Worker: "researcher"},
		},
		{
			name: "unknown delegation target re-enters supervisor",
			st: NewState("goal").Append(message.Message{
				Role:      message.RoleAssistant,
				ToolCalls: []message.ToolCall{{ID: "c1", Name: "transfer_to_ghost"}},
			}),
			want: Target{Kind: ToSupervisor},
		},
		{
			name: "completed plan ends the graph",
			st: func() State {
				st := NewState("goal").Append(message.Assistant("all done"))
				st.Plan = &completed
				return st
			}(),
			want: Target{Kind: ToEnd},
		},
		{
			name: "executing plan loops back",
			st: func() State {
				st := NewState("goal").Append(message.Assistant("working on it"))
				st.Plan = &executing
				return st
			}(),
			want: Target{Kind: ToSupervisor},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Route(tc.st, workers)
			if got != tc.want {
				t.Errorf("Route() = %+v, want %+v", got, tc.want)
			}
		})
	}
}
