// Package graph wires the planning, supervision, delegation and
// evaluation nodes into the execution graph that drives one
// conversation from user request to final answer.
package graph

import (
	"context"

	"overseer/internal/message"
	"overseer/internal/plan"
	"overseer/internal/worker"
)

// Reasoner is the controlling model behind the planner and supervisor
// nodes. Implementations live outside the graph.
type Reasoner interface {
	Invoke(ctx context.Context, msgs []message.Message) (message.Message, error)
}

// State is the conversation state threaded through every node: the
// append-only history, the current plan (nil before planning), the
// most recent node error, and the last worker invocation summary.
type State struct {
	Messages       []message.Message
	Plan           *plan.Plan
	LastErr        string
	LastInvocation *worker.Result

	// Planned records that the one-shot planner already ran, so a
	// failed planning call falls through to the supervisor instead of
	// re-running the planner forever.
	Planned bool
}

// NewState seeds a conversation from the user's request.
func NewState(goal string) State {
	return State{Messages: []message.Message{message.User(goal)}}
}

// Append returns a copy of the state with messages added. History is
// never mutated in place so snapshots held by callers stay valid.
func (s State) Append(msgs ...message.Message) State {
	out := s
	out.Messages = make([]message.Message, 0, len(s.Messages)+len(msgs))
	out.Messages = append(out.Messages, s.Messages...)
	out.Messages = append(out.Messages, msgs...)
	return out
}

// Last returns the final message of the history.
func (s State) Last() message.Message {
	return message.Last(s.Messages)
}
