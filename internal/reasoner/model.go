package reasoner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"overseer/internal/message"
	"overseer/internal/worker"
)

// envelope is the one reply shape every backend is asked to produce.
// Exactly one of plan_update and handoff should be set; reply alone is
// a final answer or status report.
type envelope struct {
	Reply      string       `json:"reply"`
	PlanUpdate string       `json:"plan_update,omitempty"`
	Handoff    *handoffCall `json:"handoff,omitempty"`
}

type handoffCall struct {
	Agent       string `json:"agent"`
	TaskID      string `json:"task_id,omitempty"`
	Instruction string `json:"instruction,omitempty"`
}

// envelopeSchema constrains backends that honor response schemas.
var envelopeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"reply": map[string]any{
			"type":        "string",
			"description": "free-text reply shown in the conversation",
		},
		"plan_update": map[string]any{
			"type":        "string",
			"description": "a single PLAN_UPDATE directive line, or empty",
		},
		"handoff": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"agent":       map[string]any{"type": "string"},
				"task_id":     map[string]any{"type": "string"},
				"instruction": map[string]any{"type": "string"},
			},
			"required": []string{"agent"},
		},
	},
	"required": []string{"reply"},
}

type generateFunc func(ctx context.Context, prompt, model string, schema any) (string, error)

// Model adapts the active provider to the graph's reasoner interface.
type Model struct {
	model string
	gen   generateFunc
}

func New(model string) *Model {
	return &Model{model: model, gen: GenerateJSON}
}

func (m *Model) Invoke(ctx context.Context, msgs []message.Message) (message.Message, error) {
	gen := m.gen
	if gen == nil {
		gen = GenerateJSON
	}
	raw, err := gen(ctx, buildPrompt(msgs), m.model, envelopeSchema)
	if err != nil {
		return message.Message{}, err
	}
	env, err := decodeEnvelope(raw)
	if err != nil {
		return message.Message{}, err
	}
	return env.toMessage(), nil
}

// buildPrompt flattens the structured history into a role-tagged
// transcript plus the reply contract. The leading system message stays
// on top untouched.
func buildPrompt(msgs []message.Message) string {
	var sb strings.Builder

	rest := msgs
	if len(rest) > 0 && rest[0].Role == message.RoleSystem {
		sb.WriteString(rest[0].Content)
		sb.WriteString("\n\n")
		rest = rest[1:]
	}

	if len(rest) > 0 {
		sb.WriteString("CONVERSATION SO FAR:\n")
		for _, msg := range rest {
			label := string(msg.Role)
			if msg.Name != "" {
				label = label + " " + msg.Name
			}
			sb.WriteString(fmt.Sprintf("[%s] %s\n", label, msg.Content))
			for _, call := range msg.ToolCalls {
				args, _ := json.Marshal(call.Args)
				sb.WriteString(fmt.Sprintf("[%s -> %s] %s\n", label, call.Name, args))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(`Respond with a single JSON object:
{"reply": "<your message>", "plan_update": "<one PLAN_UPDATE line or empty>", "handoff": {"agent": "<agent name>", "task_id": "<task id>", "instruction": "<what the agent must do>"}}
Omit plan_update when you issue no directive. Omit handoff when you delegate nothing. Never set both.`)

	return sb.String()
}

// decodeEnvelope tolerates code fences and leading prose around the
// JSON object; local models add both despite instructions.
func decodeEnvelope(raw string) (envelope, error) {
	text := strings.TrimSpace(raw)
	if i := strings.Index(text, "{"); i > 0 {
		text = text[i:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	var env envelope
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&env); err != nil {
		return envelope{}, fmt.Errorf("reasoner reply is not valid JSON: %w", err)
	}
	if strings.TrimSpace(env.Reply) == "" && env.PlanUpdate == "" && env.Handoff == nil {
		return envelope{}, fmt.Errorf("reasoner reply is empty")
	}
	return env, nil
}

const directivePrefix = "PLAN_UPDATE:"

// toMessage renders the envelope as an assistant turn: the directive
// joins the content on its own line, the handoff becomes a tool call.
func (e envelope) toMessage() message.Message {
	content := strings.TrimSpace(e.Reply)

	if d := strings.TrimSpace(e.PlanUpdate); d != "" {
		if !strings.HasPrefix(d, directivePrefix) {
			d = directivePrefix + " " + d
		}
		if content != "" {
			content += "\n"
		}
		content += d
	}

	out := message.Assistant(content)
	if e.Handoff != nil && strings.TrimSpace(e.Handoff.Agent) != "" {
		out.ToolCalls = []message.ToolCall{{
			ID:   uuid.New().String()[:8],
			Name: worker.ToolName(e.Handoff.Agent),
			Args: map[string]any{
				"task_id":     e.Handoff.TaskID,
				"instruction": e.Handoff.Instruction,
			},
		}}
	}
	return out
}
