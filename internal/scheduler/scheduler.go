// Package scheduler queues conversations and drives each one through
// the planning graph, a bounded number at a time.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"overseer/internal/graph"
	"overseer/internal/logger"
	"overseer/internal/message"
	"overseer/internal/metrics"
)

const (
	StatusPending   = "PENDING"
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
)

type Conversation struct {
	ID    string
	Goal  string
	State string
}

const defaultConcurrency = 2

type Scheduler struct {
	engine  *graph.Engine
	queue   chan *Conversation
	results chan Result
	group   errgroup.Group

	mu      sync.Mutex
	running map[string]context.CancelFunc
	order   []string // ids in start order, most recent last
}

func New(e *graph.Engine, concurrency int) *Scheduler {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	s := &Scheduler{
		engine:  e,
		queue:   make(chan *Conversation, 100),
		results: make(chan Result, 100),
		running: make(map[string]context.CancelFunc),
	}
	s.group.SetLimit(concurrency)
	return s
}

// Start launches the dispatch loop. ctx cancellation stops every
// running conversation; Shutdown stops intake and waits for the rest.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		for conv := range s.queue {
			conv := conv
			s.group.Go(func() error {
				s.run(ctx, conv)
				return nil
			})
		}
		_ = s.group.Wait()
		close(s.results)
	}()
}

// Submit enqueues a goal and returns the conversation id.
func (s *Scheduler) Submit(goal string) string {
	conv := &Conversation{
		ID:    uuid.New().String()[:8],
		Goal:  goal,
		State: StatusPending,
	}
	s.queue <- conv
	logger.Printf("[Scheduler] queued conversation %s: %s", conv.ID, conv.Goal)
	return conv.ID
}

// Results delivers one Result per finished conversation. The channel
// closes after Shutdown.
func (s *Scheduler) Results() <-chan Result { return s.results }

// Shutdown stops intake and blocks until running conversations finish.
func (s *Scheduler) Shutdown() {
	close(s.queue)
	_ = s.group.Wait()
}

// Cancel stops the running conversation with the given id.
func (s *Scheduler) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for running, cancel := range s.running {
		if strings.EqualFold(running, id) {
			cancel()
			return nil
		}
	}
	return fmt.Errorf("conversation %s is not running", id)
}

// CancelMostRecent stops the most recently started conversation and
// returns its id.
func (s *Scheduler) CancelMostRecent() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.order) - 1; i >= 0; i-- {
		if cancel, ok := s.running[s.order[i]]; ok {
			cancel()
			return s.order[i], nil
		}
	}
	return "", fmt.Errorf("no conversation is currently running")
}

func (s *Scheduler) run(ctx context.Context, conv *Conversation) {
	logger.Printf("[Scheduler] starting conversation %s: %s", conv.ID, conv.Goal)
	conv.State = StatusRunning

	convCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.running[conv.ID] = cancel
	s.order = append(s.order, conv.ID)
	s.mu.Unlock()
	defer func() {
		cancel()
		s.mu.Lock()
		delete(s.running, conv.ID)
		s.mu.Unlock()
	}()

	mm := &metrics.ConversationMetrics{ConversationID: conv.ID, Start: time.Now()}
	st, err := s.engine.Run(convCtx, graph.NewState(conv.Goal), mm)
	mm.Finalize()

	result := Result{
		ConversationID: conv.ID,
		Goal:           conv.Goal,
		Metrics:        mm,
	}
	if st.Plan != nil {
		if b, merr := json.Marshal(st.Plan); merr == nil {
			result.PlanJSON = string(b)
		}
	}
	if last := st.Last(); last.Role == message.RoleAssistant {
		result.FinalAnswer = last.Content
	}

	switch {
	case err != nil && (errors.Is(err, context.Canceled) || convCtx.Err() != nil):
		conv.State = StatusCancelled
		result.Error = "conversation cancelled"
		logger.Printf("[Scheduler] conversation %s CANCELLED", conv.ID)
	case err != nil:
		conv.State = StatusFailed
		result.Error = err.Error()
		logger.Printf("[Scheduler] conversation %s FAILED: %v", conv.ID, err)
	case mm.Succeeded:
		conv.State = StatusSucceeded
		logger.Printf("[Scheduler] conversation %s SUCCEEDED", conv.ID)
	default:
		conv.State = StatusFailed
		if result.Error == "" {
			result.Error = st.LastErr
		}
		if result.Error == "" {
			result.Error = "plan did not complete"
		}
		logger.Printf("[Scheduler] conversation %s did not complete: %s", conv.ID, result.Error)
	}

	s.results <- result
}
