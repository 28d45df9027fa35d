package graph

import (
	"overseer/internal/logger"
	"overseer/internal/plan"
	"overseer/internal/worker"
)

type TargetKind int

const (
	// ToSupervisor loops back for another supervision turn.
	ToSupervisor TargetKind = iota
	// ToHandoff transfers control to the named worker.
	ToHandoff
	// ToEnd terminates the graph.
	ToEnd
)

// Target is the routing decision taken after a supervisor turn.
type Target struct {
	Kind   TargetKind
	Worker string
}

// Route is a pure function of the last message and the plan. Unknown
// or malformed delegation targets are logged and re-enter the
// supervisor; they are never fatal.
func Route(st State, workers *worker.Registry) Target {
	last := st.Last()

	if !last.IsAssistant() {
		return Target{Kind: ToSupervisor}
	}

	if call, ok := last.FirstToolCall(); ok {
		if def, ok := workers.Resolve(call.Name); ok {
			return Target{Kind: ToHandoff, Worker: def.Name}
		}
		logger.Printf("[Router] routing anomaly: unknown delegation target %q", call.Name)
		return Target{Kind: ToSupervisor}
	}

	if st.Plan != nil && st.Plan.Status == plan.PlanCompleted {
		return Target{Kind: ToEnd}
	}
	return Target{Kind: ToSupervisor}
}
