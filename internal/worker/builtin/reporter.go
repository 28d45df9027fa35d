package builtin

import (
	"context"
	"fmt"
	"strings"

	"overseer/internal/message"
	"overseer/internal/reasoner"
)

const reporterName = "reporter"

// Reporter turns the material gathered by earlier workers into the
// deliverable the instruction asks for. It runs a plain text
// generation, not the structured supervision call.
type Reporter struct {
	Model string
}

func (r *Reporter) Invoke(ctx context.Context, msgs []message.Message) ([]message.Message, error) {
	instruction := instructionFor(reporterName, msgs)
	if strings.TrimSpace(instruction) == "" {
		return nil, fmt.Errorf("no instruction to report on")
	}

	out, err := reasoner.Generate(ctx, r.prompt(instruction, msgs), r.Model)
	if err != nil {
		return nil, fmt.Errorf("reporter generation: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return nil, fmt.Errorf("reporter produced no text")
	}
	return []message.Message{message.Assistant(strings.TrimSpace(out))}, nil
}

func (r *Reporter) prompt(instruction string, msgs []message.Message) string {
	var sb strings.Builder
	sb.WriteString("You are a precise technical writer. Produce the deliverable described below using ONLY the gathered material.\n\n")
	sb.WriteString("DELIVERABLE:\n" + instruction + "\n\n")

	sb.WriteString("GATHERED MATERIAL:\n")
	var any bool
	for _, m := range msgs {
		// Prior worker output arrives as named assistant messages.
		if m.Role == message.RoleAssistant && m.Name != "" && strings.TrimSpace(m.Content) != "" {
			sb.WriteString(fmt.Sprintf("--- from %s ---\n%s\n", m.Name, m.Content))
			any = true
		}
	}
	if !any {
		if goal, ok := message.FirstUser(msgs); ok {
			sb.WriteString("(no prior worker output; the original request follows)\n" + goal + "\n")
		}
	}
	sb.WriteString("\nWrite the deliverable directly. No preamble.")
	return sb.String()
}
