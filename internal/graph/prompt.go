package graph

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"overseer/internal/plan"
	"overseer/internal/worker"
)

// Instruction for the one-shot planning call.
func buildPlannerPrompt(workers *worker.Registry, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("You are an expert task planner for a team of specialist agents. Decompose the user's request into an ordered list of delegable tasks.\n")
	sb.WriteString(fmt.Sprintf("Current date: %s\n\n", now.Format("2006-01-02")))

	sb.WriteString(workers.Catalog())
	sb.WriteString("\n")

	sb.WriteString("Respond with EXACTLY ONE directive line and nothing else:\n")
	sb.WriteString("PLAN_UPDATE: CREATE_PLAN {\"title\": \"<short title>\", \"description\": \"<one sentence>\", \"tasks\": [{\"description\": \"<what to do>\", \"agent\": \"<agent name>\", \"dependencies\": []}]}\n\n")

	sb.WriteString("RULES:\n")
	sb.WriteString("- Every task description must be a single concrete deliverable.\n")
	sb.WriteString("- Suggest the best-suited agent for each task using the names above.\n")
	sb.WriteString("- Use dependencies only when one task needs another task's output. Dependencies are positions: reference earlier tasks by their list index starting at 1.\n")
	sb.WriteString("- Do NOT call any tool. Do NOT add commentary around the directive.\n")

	return sb.String()
}

// Workflow instruction the supervisor sends on every turn.
func buildSupervisorPrompt(p *plan.Plan, workers *worker.Registry) string {
	var sb strings.Builder

	sb.WriteString("You are the supervisor of a team of specialist agents. Inspect the plan and the conversation, then take EXACTLY ONE action this turn.\n\n")

	if p == nil {
		sb.WriteString("CURRENT PLAN: none\n\n")
	} else {
		snapshot, _ := json.Marshal(p)
		sb.WriteString("CURRENT PLAN:\n")
		sb.Write(snapshot)
		sb.WriteString("\n\n")
	}

	sb.WriteString(workers.Catalog())
	sb.WriteString("\n")

	sb.WriteString("ACTIONS, in strict priority order (pick the FIRST that applies):\n")
	sb.WriteString("1. No plan exists and the request needs decomposition -> emit PLAN_UPDATE: CREATE_PLAN {\"title\": \"<short title>\", \"description\": \"<one sentence>\", \"tasks\": [{\"description\": \"<what to do>\", \"agent\": \"<agent name>\", \"dependencies\": []}]}. Dependencies are positions: reference earlier tasks by their list index starting at 1.\n")
	sb.WriteString("2. The last message is an agent's reply to a task that was in_progress -> judge it and emit PLAN_UPDATE: UPDATE_TASK {\"by_id\": \"<task id>\", \"status\": \"completed\"|\"failed\"|\"revision_needed\", \"evaluation\": \"<verdict>\", \"notes\": \"<details>\"}.\n")
	sb.WriteString("3. All tasks are completed but the plan is not -> emit PLAN_UPDATE: FINISH_PLAN.\n")
	sb.WriteString("4. No task is in_progress and a pending task has all dependencies completed -> emit PLAN_UPDATE: UPDATE_TASK {\"by_id\": \"<that task id>\", \"status\": \"in_progress\"}.\n")
	sb.WriteString("5. A task is in_progress -> delegate it: call the transfer tool for its agent with {\"task_id\": \"<id>\", \"instruction\": \"<what the agent must do>\"}.\n")
	sb.WriteString("6. The plan is completed -> reply with the final answer for the user, no directive and no tool call.\n")
	sb.WriteString("7. Nothing above applies (blocked dependencies, failed plan) -> reply with a short status report, no directive and no tool call.\n\n")

	sb.WriteString("HARD RULES:\n")
	sb.WriteString("- One action per turn. NEVER combine a PLAN_UPDATE directive with a tool call.\n")
	sb.WriteString("- Directives must be a single line starting with 'PLAN_UPDATE: '.\n")
	sb.WriteString("- Address tasks ONLY by their exact id from the plan snapshot.\n")
	sb.WriteString("- When closing a task as completed, the evaluation must state the evidence of success.\n")

	return sb.String()
}
