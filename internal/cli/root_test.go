package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"overseer/internal/plan"
)

func TestFormatPlanResult(t *testing.T) {
	p := plan.CreatePlan("Find X", "Determine the value of X")
	p = plan.AddTasks(p, []plan.TaskSpec{{Description: "research X", Agent: "researcher"}})
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	out := formatPlanResult(string(raw))
	if !strings.Contains(out, "Plan: Find X [ready]") {
		t.Errorf("output missing plan header:\n%s", out)
	}
	if !strings.Contains(out, "research X") {
		t.Errorf("output missing task row:\n%s", out)
	}
	if !strings.Contains(out, "agent: researcher") {
		t.Errorf("output missing agent:\n%s", out)
	}
}

func TestFormatPlanResultSkipsUnusable(t *testing.T) {
	if got := formatPlanResult(""); got != "" {
		t.Errorf("empty plan rendered %q", got)
	}
	if got := formatPlanResult("{not json"); got != "" {
		t.Errorf("malformed plan rendered %q", got)
	}
}

func TestPromptFor(t *testing.T) {
	if got := promptFor(0); got != "overseer> " {
		t.Errorf("idle prompt = %q", got)
	}
	if got := promptFor(2); got != "overseer [2 running]> " {
		t.Errorf("busy prompt = %q", got)
	}
}
