// Package scheduler fires schedule events into the trigger service on cron
// boundaries. Cron timing lives entirely here, upstream of the engine: the
// engine's schedule triggers only match an already-fired schedule event.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mailflow/mailflow/internal/store"
	"github.com/mailflow/mailflow/pkg/schema"
)

// EventSink receives fired schedule events. Satisfied by *trigger.Service.
type EventSink interface {
	EvaluateAndTrigger(ctx context.Context, userID, connectionID string, kind schema.EventKind, email *schema.EmailSnapshot, labelChange *schema.LabelChange) (*schema.TriggerOutcome, error)
}

// Runner executes the pending executions a fired event created. Satisfied by
// *engine.Executor; may be nil to only create pending records.
type Runner interface {
	Execute(ctx context.Context, executionID string) (*schema.ExecutionResult, error)
}

const tickInterval = 60 * time.Second

// Scheduler polls active workflows for due schedule triggers and fires one
// schedule event per user connection per due boundary.
type Scheduler struct {
	store  store.Store
	sink   EventSink
	runner Runner
	parser cron.Parser
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// nextMu guards next: workflow ID to its next due fire time.
	nextMu sync.Mutex
	next   map[string]time.Time
}

// NewScheduler creates a Scheduler. Standard five-field cron expressions.
func NewScheduler(s store.Store, sink EventSink, runner Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:  s,
		sink:   sink,
		runner: runner,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		logger: logger,
		next:   make(map[string]time.Time),
	}
}

// Start launches the background polling loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}

	schedCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(schedCtx)
	s.logger.Info("scheduler started")
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	// Run an initial tick immediately to seed next-fire times.
	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// connectionKey identifies one user connection; schedule events fire at
// connection granularity because the trigger service fans them out across
// all of the connection's enabled workflows.
type connectionKey struct {
	userID       string
	connectionID string
}

// Tick scans active workflows and fires every connection with a due schedule
// trigger. Exported for tests; the background loop calls it once a minute.
func (s *Scheduler) Tick(ctx context.Context) {
	workflows, err := s.store.ListActiveWorkflows(ctx)
	if err != nil {
		s.logger.Error("failed to list active workflows", slog.Any("error", err))
		return
	}

	now := time.Now().UTC()
	due := make(map[connectionKey]bool)
	seen := make(map[string]bool)

	s.nextMu.Lock()
	for _, wf := range workflows {
		expr := scheduleCron(wf.Nodes)
		if expr == "" {
			continue
		}
		schedule, err := s.parser.Parse(expr)
		if err != nil {
			s.logger.Warn("invalid cron expression",
				slog.String("workflow_id", wf.ID), slog.String("cron", expr))
			continue
		}
		seen[wf.ID] = true

		next, ok := s.next[wf.ID]
		if !ok {
			// First sight: schedule ahead rather than firing on startup.
			s.next[wf.ID] = schedule.Next(now)
			continue
		}
		if !next.After(now) {
			due[connectionKey{wf.UserID, wf.ConnectionID}] = true
			s.next[wf.ID] = schedule.Next(now)
		}
	}
	// Drop deleted or deactivated workflows.
	for id := range s.next {
		if !seen[id] {
			delete(s.next, id)
		}
	}
	s.nextMu.Unlock()

	for key := range due {
		s.fire(ctx, key)
	}
}

// scheduleCron returns the cron expression of the first enabled schedule
// trigger, or "" when the workflow has none.
func scheduleCron(nodes []schema.WorkflowNode) string {
	for _, n := range nodes {
		if n.Disabled || n.Category != schema.CategoryTrigger || n.Type != schema.TriggerSchedule {
			continue
		}
		expr, _ := n.Parameters["cron"].(string)
		return expr
	}
	return ""
}

// fire pushes one schedule event through the trigger service and runs any
// executions it created. Failures are logged, never propagated into the loop.
func (s *Scheduler) fire(ctx context.Context, key connectionKey) {
	outcome, err := s.sink.EvaluateAndTrigger(ctx, key.userID, key.connectionID, schema.EventSchedule, nil, nil)
	if err != nil {
		s.logger.Error("schedule event dispatch failed",
			slog.String("user_id", key.userID),
			slog.String("connection_id", key.connectionID),
			slog.Any("error", err))
		return
	}

	for _, we := range outcome.Errors {
		s.logger.Warn("schedule trigger evaluation failed",
			slog.String("workflow_id", we.WorkflowID),
			slog.String("error", we.Error))
	}

	if s.runner == nil {
		return
	}
	for _, tw := range outcome.TriggeredWorkflows {
		if _, err := s.runner.Execute(ctx, tw.ExecutionID); err != nil {
			s.logger.Error("scheduled execution failed",
				slog.String("workflow_id", tw.WorkflowID),
				slog.String("execution_id", tw.ExecutionID),
				slog.Any("error", err))
		}
	}
}

// NextRun computes the next fire time for a cron expression.
func (s *Scheduler) NextRun(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := s.parser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}
	return schedule.Next(from), nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return nil
	}

	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	s.logger.Info("scheduler stopped")
	return nil
}
