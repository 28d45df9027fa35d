package display

import (
	"fmt"
	"strings"

	"overseer/internal/metrics"
)

func FormatConversationMetrics(mm *metrics.ConversationMetrics) string {
	if mm == nil {
		return "No metrics available."
	}
	var sb strings.Builder
	sb.WriteString("Conversation metrics:\n")
	sb.WriteString(fmt.Sprintf("- Total: %d ms  (success=%v)\n", mm.DurationMs, mm.Succeeded))
	for _, t := range mm.Turns {
		sb.WriteString(fmt.Sprintf("  Turn %d: %d ms\n", t.Turn, t.DurationMs))
		for _, n := range t.Nodes {
			status := "ok"
			if n.Err != "" {
				status = "err"
			}
			sb.WriteString(fmt.Sprintf("    - %-20s %5d ms  [%s]\n", n.Node, n.DurationMs, status))
		}
	}
	return sb.String()
}
