package worker

import (
	"context"
	"fmt"
	"strings"

	"overseer/internal/message"
)

// Result is the short summary of one invocation, kept for the
// evaluator.
type Result struct {
	Worker  string
	Content string
}

// Invoke runs the named worker against the conversation and returns
// the messages to append. Failures never propagate: they are converted
// into a synthetic assistant message naming the worker and the error.
func (r *Registry) Invoke(ctx context.Context, name string, msgs []message.Message) ([]message.Message, Result) {
	def, ok := r.Get(name)
	if !ok {
		return errorDelta(name, fmt.Errorf("worker is not registered"))
	}

	out, err := safeInvoke(ctx, def.Cap, msgs)
	if err != nil {
		return errorDelta(name, err)
	}
	if len(out) == 0 {
		return errorDelta(name, fmt.Errorf("worker returned no messages"))
	}

	switch def.Mode {
	case OutputLastMessage:
		last := out[len(out)-1]
		last.Role = message.RoleAssistant
		last.Name = name
		return []message.Message{last}, Result{Worker: name, Content: last.Content}

	case OutputFullHistory:
		delta := make([]message.Message, len(out))
		for i, m := range out {
			if m.Name == "" {
				m.Name = name
			}
			delta[i] = m
		}
		final := delta[len(delta)-1]
		return delta, Result{Worker: name, Content: final.Content}

	default:
		return errorDelta(name, fmt.Errorf("unsupported output mode %q", def.Mode))
	}
}

// safeInvoke shields the node from worker panics.
func safeInvoke(ctx context.Context, c Capability, msgs []message.Message) (out []message.Message, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return c.Invoke(ctx, msgs)
}

func errorDelta(name string, err error) ([]message.Message, Result) {
	content := fmt.Sprintf("Error executing agent '%s': %v", name, err)
	m := message.Assistant(content)
	m.Name = name
	return []message.Message{m}, Result{Worker: name, Content: content}
}

// TruncateContent bounds free-text annotations copied into the plan.
func TruncateContent(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
