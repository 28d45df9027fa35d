package directive

import (
	"reflect"
	"testing"

	"overseer/internal/plan"
)

func seedPlan(t *testing.T) *plan.Plan {
	t.Helper()
	p := plan.CreatePlan("digest", "summarize the news")
	p = plan.AddTasks(p, []plan.TaskSpec{
		{Description: "fetch headlines", Agent: "researcher"},
		{Description: "write digest", Agent: "reporter"},
	})
	return &p
}

func TestInterpretCreatePlan(t *testing.T) {
	p, out := Interpret(nil, `PLAN_UPDATE: CREATE_PLAN {"title": "digest", "tasks": [{"description": "fetch"}, {"description": "write"}]}`)
	if !out.Applied || out.Err != "" {
		t.Fatalf("outcome = %+v", out)
	}
	if p == nil || len(p.Tasks) != 2 || p.Status != plan.PlanReady {
		t.Fatalf("plan not created properly: %+v", p)
	}
	for _, task := range p.Tasks {
		if task.Status != plan.TaskPending {
			t.Errorf("new task status = %s, want pending", task.Status)
		}
	}
}

func TestInterpretNoDirective(t *testing.T) {
	p := seedPlan(t)
	got, out := Interpret(p, "I will think about the next step.")
	if out.Applied || out.Err != "" {
		t.Errorf("outcome = %+v, want neither applied nor error", out)
	}
	if got != p {
		t.Error("plan pointer must be unchanged when no directive is present")
	}
}

func TestInterpretMalformedLeavesPlanIntact(t *testing.T) {
	p := seedPlan(t)
	snapshot := p.Clone()

	got, out := Interpret(p, `PLAN_UPDATE: UPDATE_TASK {"by_id": "x1", "status":`)
	if out.Applied {
		t.Error("malformed directive must not apply")
	}
	if out.Err == "" {
		t.Error("malformed directive must surface an error")
	}
	if !reflect.DeepEqual(*got, snapshot) {
		t.Error("plan mutated by a failed directive")
	}
}

func TestInterpretUnknownTask(t *testing.T) {
	p := seedPlan(t)
	snapshot := p.Clone()

	got, out := Interpret(p, `PLAN_UPDATE: UPDATE_TASK {"by_id": "missing", "status": "in_progress"}`)
	if out.Applied || out.Err == "" {
		t.Fatalf("outcome = %+v", out)
	}
	if !reflect.DeepEqual(*got, snapshot) {
		t.Error("plan mutated despite unknown task id")
	}
}

func TestStatusValidationDowngrade(t *testing.T) {
	testCases := []struct {
		name       string
		evaluation string
		expected   plan.TaskStatus
	}{
		{"no evidence", "something went wrong", plan.TaskPendingReview},
		{"empty evaluation", "", plan.TaskPendingReview},
		{"explicit success", "all assertions passed", plan.TaskCompleted},
		{"met requirements", "output met requirements", plan.TaskCompleted},
		{"case insensitive", "LOOKS GOOD to me", plan.TaskCompleted},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := seedPlan(t)
			id := p.Tasks[0].ID
			d := &Directive{
				Kind: KindUpdateTask,
				Update: UpdateArgs{
					ByID:       id,
					Status:     strPtr("completed"),
					Evaluation: &tc.evaluation,
				},
			}
			got, out := Apply(p, d)
			if !out.Applied {
				t.Fatalf("outcome = %+v", out)
			}
			task := plan.GetTask(*got, id)
			if task.Status != tc.expected {
				t.Errorf("task status = %s, want %s", task.Status, tc.expected)
			}
		})
	}
}

func TestApplyWithoutPlan(t *testing.T) {
	for _, d := range []*Directive{
		{Kind: KindAddTasks, Tasks: []plan.TaskSpec{{Description: "x"}}},
		{Kind: KindUpdateTask, Update: UpdateArgs{ByID: "a"}},
		{Kind: KindSetCurrent, TaskID: "a"},
		{Kind: KindFinishPlan},
	} {
		_, out := Apply(nil, d)
		if out.Applied || out.Err == "" {
			t.Errorf("%s on nil plan: outcome = %+v", d.Kind, out)
		}
	}
}

func TestApplyFinishPlan(t *testing.T) {
	p := seedPlan(t)
	got, out := Apply(p, &Directive{Kind: KindFinishPlan})
	if !out.Applied || got.Status != plan.PlanCompleted || got.CompletedAt == nil {
		t.Fatalf("finish failed: %+v %+v", out, got.Status)
	}
}

func strPtr(s string) *string { return &s }
