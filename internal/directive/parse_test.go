package directive

import (
	"strings"
	"testing"
)

func TestParseStrictJSON(t *testing.T) {
	testCases := []struct {
		name  string
		text  string
		check func(t *testing.T, d *Directive)
	}{
		{
			name: "create plan with tasks",
			text: "Setting up the work.\nPLAN_UPDATE: CREATE_PLAN {\"title\": \"research\", \"description\": \"find facts\", \"tasks\": [{\"description\": \"search X\", \"agent\": \"researcher\"}]}",
			check: func(t *testing.T, d *Directive) {
				if d.Kind != KindCreatePlan || d.Title != "research" {
					t.Errorf("bad directive: %+v", d)
				}
				if len(d.Tasks) != 1 || d.Tasks[0].Agent != "researcher" {
					t.Errorf("tasks not decoded: %+v", d.Tasks)
				}
			},
		},
		{
			name: "update task",
			text: `PLAN_UPDATE: UPDATE_TASK {"by_id": "ab12cd34", "status": "in_progress", "notes": "starting"}`,
			check: func(t *testing.T, d *Directive) {
				if d.Kind != KindUpdateTask || d.Update.ByID != "ab12cd34" {
					t.Errorf("bad directive: %+v", d)
				}
				if d.Update.Status == nil || *d.Update.Status != "in_progress" {
					t.Error("status not decoded")
				}
				if d.Update.Evaluation != nil {
					t.Error("absent field must stay nil")
				}
			},
		},
		{
			name: "multi-line json",
			text: "PLAN_UPDATE: ADD_TASKS {\n  \"tasks\": [\n    {\"description\": \"one\"},\n    {\"description\": \"two\", \"dependencies\": [\"ab12\"]}\n  ]\n}",
			check: func(t *testing.T, d *Directive) {
				if len(d.Tasks) != 2 || d.Tasks[1].Dependencies[0] != "ab12" {
					t.Errorf("tasks not decoded: %+v", d.Tasks)
				}
			},
		},
		{
			name: "set current clear",
			text: `PLAN_UPDATE: SET_CURRENT {"task_id": ""}`,
			check: func(t *testing.T, d *Directive) {
				if d.Kind != KindSetCurrent || d.TaskID != "" {
					t.Errorf("bad directive: %+v", d)
				}
			},
		},
		{
			name: "finish plan without args",
			text: "All done now.\nPLAN_UPDATE: FINISH_PLAN",
			check: func(t *testing.T, d *Directive) {
				if d.Kind != KindFinishPlan {
					t.Errorf("bad directive: %+v", d)
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Parse(tc.text)
			if err != nil {
				t.Fatalf("unexpected parse error: %v", err)
			}
			if d == nil {
				t.Fatal("expected a directive")
			}
			tc.check(t, d)
		})
	}
}

func TestParseTolerantPairs(t *testing.T) {
	testCases := []struct {
		name  string
		text  string
		check func(t *testing.T, d *Directive)
	}{
		{
			name: "quoted key=value update",
			text: `PLAN_UPDATE: UPDATE_TASK by_id="ab12" status="completed" evaluation="all checks passed"`,
			check: func(t *testing.T, d *Directive) {
				if d.Update.ByID != "ab12" {
					t.Errorf("by_id = %q", d.Update.ByID)
				}
				if d.Update.Evaluation == nil || *d.Update.Evaluation != "all checks passed" {
					t.Error("evaluation not decoded")
				}
			},
		},
		{
			name: "tasks literal list",
			text: `PLAN_UPDATE: ADD_TASKS tasks=[{"description": "search", "agent": "researcher"}, "write it up"]`,
			check: func(t *testing.T, d *Directive) {
				if len(d.Tasks) != 2 {
					t.Fatalf("expected 2 tasks, got %d", len(d.Tasks))
				}
				if d.Tasks[1].Description != "write it up" {
					t.Errorf("bare string task not accepted: %+v", d.Tasks[1])
				}
			},
		},
		{
			name: "create plan pairs",
			text: `PLAN_UPDATE: CREATE_PLAN title="news digest" description="summarize today" tasks=["fetch headlines"]`,
			check: func(t *testing.T, d *Directive) {
				if d.Title != "news digest" || len(d.Tasks) != 1 {
					t.Errorf("bad directive: %+v", d)
				}
			},
		},
		{
			name: "bare token value",
			text: `PLAN_UPDATE: SET_CURRENT task_id=ab12cd34`,
			check: func(t *testing.T, d *Directive) {
				if d.TaskID != "ab12cd34" {
					t.Errorf("task_id = %q", d.TaskID)
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Parse(tc.text)
			if err != nil {
				t.Fatalf("unexpected parse error: %v", err)
			}
			if d == nil {
				t.Fatal("expected a directive")
			}
			tc.check(t, d)
		})
	}
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{"unknown command", `PLAN_UPDATE: DROP_PLAN {"title": "x"}`},
		{"malformed json", `PLAN_UPDATE: CREATE_PLAN {"title": "x"`},
		{"missing title", `PLAN_UPDATE: CREATE_PLAN {"description": "x"}`},
		{"missing by_id", `PLAN_UPDATE: UPDATE_TASK {"status": "completed"}`},
		{"unknown status", `PLAN_UPDATE: UPDATE_TASK {"by_id": "a", "status": "paused"}`},
		{"empty tasks", `PLAN_UPDATE: ADD_TASKS {}`},
		{"broken pairs", `PLAN_UPDATE: UPDATE_TASK by_id="ab12" status="unterminated`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Parse(tc.text)
			if err == nil {
				t.Fatalf("expected error, got directive %+v", d)
			}
		})
	}
}

func TestParseNoDirective(t *testing.T) {
	for _, text := range []string{
		"",
		"Just thinking out loud about the plan.",
		"The PLAN_UPDATE protocol is described elsewhere.", // not at line start with colon+command
	} {
		d, err := Parse(text)
		if err != nil {
			t.Errorf("text %q: unexpected error %v", text, err)
		}
		if d != nil {
			t.Errorf("text %q: unexpected directive %+v", text, d)
		}
	}
}

func TestParseCreatePlanRestriction(t *testing.T) {
	if _, err := ParseCreatePlan(`PLAN_UPDATE: FINISH_PLAN`); err == nil {
		t.Error("planner parser must reject non-CREATE_PLAN commands")
	}
	if _, err := ParseCreatePlan("no directive here"); err == nil {
		t.Error("planner parser requires a directive")
	}
	d, err := ParseCreatePlan(`PLAN_UPDATE: CREATE_PLAN {"title": "t", "tasks": ["a"]}`)
	if err != nil || d.Title != "t" {
		t.Errorf("valid CREATE_PLAN rejected: %v", err)
	}
}

func TestParsePicksFirstDirective(t *testing.T) {
	text := "PLAN_UPDATE: FINISH_PLAN\nPLAN_UPDATE: SET_CURRENT task_id=zz"
	d, err := Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	if d.Kind != KindFinishPlan {
		t.Errorf("expected first directive to win, got %s", d.Kind)
	}
	if !strings.Contains(text, "SET_CURRENT") {
		t.Fatal("sanity")
	}
}
