package graph

import (
	"context"
	"fmt"
)

// Node is one step of the execution graph. Node logic is written once
// against this interface; the bridge below provides both the
// cooperative and the blocking entry points.
type Node interface {
	Name() string
	Run(ctx context.Context, st State) (State, error)
}

// NodeResult is what a cooperatively scheduled node delivers.
type NodeResult struct {
	State State
	Err   error
}

// Go is the cooperative entry point: the node runs in its own
// goroutine and delivers exactly one result. Panics are converted into
// the standard error-plus-unchanged-state shape instead of escaping.
func Go(ctx context.Context, n Node, st State) <-chan NodeResult {
	ch := make(chan NodeResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- NodeResult{State: st, Err: fmt.Errorf("node %s panicked: %v", n.Name(), rec)}
			}
		}()
		out, err := n.Run(ctx, st)
		ch <- NodeResult{State: out, Err: err}
	}()
	return ch
}

// RunSync drives the cooperative entry point to completion for
// blocking callers. Cancellation returns the input state untouched.
func RunSync(ctx context.Context, n Node, st State) (State, error) {
	select {
	case res := <-Go(ctx, n, st):
		return res.State, res.Err
	case <-ctx.Done():
		return st, fmt.Errorf("node %s: %w", n.Name(), ctx.Err())
	}
}
