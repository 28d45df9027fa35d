// Package builtin provides the workers shipped with the default
// registry: a web researcher and a report writer.
package builtin

import (
	"fmt"
	"strings"

	"overseer/internal/message"
	"overseer/internal/worker"
)

// Register installs the builtin workers. model overrides the reasoner
// model used by the reporter; empty means the backend default.
func Register(reg *worker.Registry, model string) error {
	defs := []worker.Definition{
		{
			Name:        "web_researcher",
			Description: "fetches the web pages named in the instruction and extracts their title, readable text and links",
			Mode:        worker.OutputLastMessage,
			Cap:         NewWebResearcher(),
		},
		{
			Name:        "reporter",
			Description: "writes the final report or summary from the results gathered so far",
			Mode:        worker.OutputLastMessage,
			Cap:         &Reporter{Model: model},
		},
	}
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return fmt.Errorf("register builtin %s: %w", def.Name, err)
		}
	}
	return nil
}

// instructionFor recovers the instruction for a worker from the most
// recent delegation to it, falling back to the original user request.
func instructionFor(workerName string, msgs []message.Message) string {
	tool := worker.ToolName(workerName)
	for i := len(msgs) - 1; i >= 0; i-- {
		for _, call := range msgs[i].ToolCalls {
			if call.Name != tool {
				continue
			}
			if inst, ok := call.Args["instruction"].(string); ok && strings.TrimSpace(inst) != "" {
				return inst
			}
		}
	}
	if goal, ok := message.FirstUser(msgs); ok {
		return goal
	}
	return ""
}
