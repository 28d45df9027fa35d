// Package cli hosts the interactive shell: goals typed at the prompt
// become conversations, results print above it as they finish.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"overseer/internal/display"
	"overseer/internal/graph"
	"overseer/internal/listener"
	"overseer/internal/logger"
	"overseer/internal/plan"
	"overseer/internal/reasoner"
	"overseer/internal/scheduler"
	"overseer/internal/worker"
	"overseer/internal/worker/builtin"
)

// Options configure the shell before Execute.
type Options struct {
	Model       string
	Concurrency int
	MaxTurns    int
	ShowMetrics bool
}

var opts Options

// SetOptions must run before Execute.
func SetOptions(o Options) { opts = o }

// active counts conversations submitted but not yet reported, shared
// between the input loop and the result printer.
var active atomic.Int64

func promptFor(running int64) string {
	if running > 0 {
		return fmt.Sprintf("overseer [%d running]> ", running)
	}
	return "overseer> "
}

func refreshPrompt() { listener.SetPrompt(promptFor(active.Load())) }

// formatPlanResult renders the finished plan's task table. A result
// without a decodable plan renders as nothing.
func formatPlanResult(planJSON string) string {
	if planJSON == "" {
		return ""
	}
	var p plan.Plan
	if err := json.Unmarshal([]byte(planJSON), &p); err != nil {
		return ""
	}
	return display.FormatPlan(&p)
}

func printResults(s *scheduler.Scheduler) {
	for result := range s.Results() {
		if result.Error != "" {
			listener.AsyncPrintln(fmt.Sprintf("[Conversation %s FAILED] %s", result.ConversationID, result.Error))
		} else {
			listener.AsyncPrintln(fmt.Sprintf("[Conversation %s SUCCEEDED]", result.ConversationID))
		}
		if result.FinalAnswer != "" {
			listener.AsyncPrintln(result.FinalAnswer)
		}
		if table := formatPlanResult(result.PlanJSON); table != "" {
			listener.AsyncPrintln(table)
		}
		if opts.ShowMetrics && result.Metrics != nil {
			listener.AsyncPrintln(display.FormatConversationMetrics(result.Metrics))
		}
		active.Add(-1)
		refreshPrompt()
	}
}

var rootCmd = &cobra.Command{
	Use:   "overseer",
	Short: "A supervised multi-agent task runner",
	Long:  `Overseer plans your request into tasks, delegates them to specialist agents in the background, and reports the final answer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := listener.Init(); err != nil {
			return fmt.Errorf("init terminal input: %w", err)
		}
		defer listener.Close()
		refreshPrompt()

		registry := worker.NewRegistry()
		if err := builtin.Register(registry, opts.Model); err != nil {
			return fmt.Errorf("register builtin agents: %w", err)
		}

		engine := graph.NewEngine(reasoner.New(opts.Model), registry)
		if opts.MaxTurns > 0 {
			engine.MaxTurns = opts.MaxTurns
		}

		ctx, stop := context.WithCancel(context.Background())
		defer stop()

		sched := scheduler.New(engine, opts.Concurrency)
		sched.Start(ctx)
		go printResults(sched)

		// Graceful shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-c
			fmt.Println("\nGoodbye!")
			stop()
			os.Exit(0)
		}()

		listener.AsyncPrintln("Hello! Describe a goal and I will plan and run it. (type 'exit' or press Ctrl+C to quit)")

		for {
			inputText := listener.GetInput()
			lower := strings.ToLower(strings.TrimSpace(inputText))

			switch {
			case lower == "exit":
				fmt.Println("Goodbye!")
				stop()
				sched.Shutdown()
				return nil

			case lower == "":
				continue

			case lower == "cancel":
				id, err := sched.CancelMostRecent()
				if err != nil {
					listener.AsyncPrintln(fmt.Sprintf("[Cancel] %v", err))
					continue
				}
				listener.AsyncPrintln(fmt.Sprintf("[Cancel] stopping conversation %s", id))

			case strings.HasPrefix(lower, "cancel "):
				id := strings.TrimSpace(inputText[len("cancel "):])
				if err := sched.Cancel(id); err != nil {
					listener.AsyncPrintln(fmt.Sprintf("[Cancel] %v", err))
					continue
				}
				listener.AsyncPrintln(fmt.Sprintf("[Cancel] stopping conversation %s", id))

			default:
				id := sched.Submit(inputText)
				active.Add(1)
				refreshPrompt()
				logger.Printf("[CLI] submitted conversation %s: %q", id, inputText)
				listener.AsyncPrintln(fmt.Sprintf("[Conversation %s started] working in the background...", id))
			}
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
