package display

import (
	"fmt"
	"strings"

	"overseer/internal/plan"
)

const maxFieldLength = 100

func FormatPlan(p *plan.Plan) string {
	if p == nil {
		return "No plan."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Plan: %s [%s]\n", p.Title, p.Status))
	if p.Description != "" {
		sb.WriteString(p.Description + "\n")
	}
	sb.WriteString("--------------------------------------------------\n")

	for i, t := range p.Tasks {
		marker := " "
		if t.ID == p.CurrentTaskID {
			marker = ">"
		}
		sb.WriteString(fmt.Sprintf("%s %d. [%s] %s (ID: %s", marker, i+1, t.Status, formatValueForDisplay(t.Description), t.ID))
		if t.Agent != "" {
			sb.WriteString(", agent: " + t.Agent)
		}
		sb.WriteString(")\n")
		if len(t.Dependencies) > 0 {
			sb.WriteString(fmt.Sprintf("     depends on: %s\n", strings.Join(t.Dependencies, ", ")))
		}
		if t.Evaluation != "" {
			sb.WriteString("     evaluation: " + formatValueForDisplay(t.Evaluation) + "\n")
		}
	}
	sb.WriteString("--------------------------------------------------")
	return sb.String()
}

func formatValueForDisplay(value any) string {
	s := fmt.Sprintf("%v", value)
	s = strings.ReplaceAll(s, "\n", "\\n")

	if len(s) > maxFieldLength {
		return s[:maxFieldLength] + "..."
	}
	return s
}
