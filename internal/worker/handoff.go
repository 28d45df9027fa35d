package worker

import (
	"fmt"
	"strings"

	"overseer/internal/message"
)

const toolPrefix = "transfer_to_"

// ToolName synthesizes the delegation primitive name for a worker:
// lower-cased, internal whitespace collapsed to underscores.
func ToolName(workerName string) string {
	return toolPrefix + normalize(workerName)
}

func normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), "_")
}

// Resolve maps a delegation call name back to the registered worker.
func (r *Registry) Resolve(toolName string) (Definition, bool) {
	if !strings.HasPrefix(toolName, toolPrefix) {
		return Definition{}, false
	}
	target := strings.TrimPrefix(toolName, toolPrefix)
	for _, name := range r.order {
		if normalize(name) == target {
			return r.defs[name], true
		}
	}
	return Definition{}, false
}

// Transfer is the control-transfer instruction a handoff produces: run
// the named worker next, with the confirmation appended to history.
type Transfer struct {
	Goto     string
	Messages []message.Message
}

// Handoff executes a delegation call: it validates the target and
// builds the confirmation message referencing the originating call.
// No routing other than Transfer.Goto is legal from here.
func (r *Registry) Handoff(call message.ToolCall) (Transfer, error) {
	def, ok := r.Resolve(call.Name)
	if !ok {
		return Transfer{}, fmt.Errorf("unknown delegation target: %s", call.Name)
	}
	confirmation := message.Agent(def.Name,
		fmt.Sprintf("Transferring control to agent '%s'.", def.Name))
	confirmation.ToolCallID = call.ID
	return Transfer{
		Goto:     def.Name,
		Messages: []message.Message{confirmation},
	}, nil
}
