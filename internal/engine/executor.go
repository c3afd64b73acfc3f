// Package engine orchestrates full workflow runs: branch-following traversal
// from the matched trigger node, concurrent sibling fan-out, and the
// execution-status lifecycle over persisted records.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mailflow/mailflow/internal/action"
	"github.com/mailflow/mailflow/internal/condition"
	"github.com/mailflow/mailflow/internal/logging"
	"github.com/mailflow/mailflow/internal/store"
	"github.com/mailflow/mailflow/internal/trigger"
	"github.com/mailflow/mailflow/pkg/schema"
)

// Executor runs persisted executions to completion. It composes the trigger,
// condition, and action components per node visited; the graph itself is
// trusted to have been validated at save time.
type Executor struct {
	store      store.Store
	conditions *condition.Evaluator
	actions    *action.Executor
	envVars    map[string]string
	logger     *slog.Logger
}

// NewExecutor creates an Executor. envVars backs {{$env.*}} interpolation in
// notification messages and may be nil.
func NewExecutor(s store.Store, conditions *condition.Evaluator, actions *action.Executor, envVars map[string]string, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		store:      s,
		conditions: conditions,
		actions:    actions,
		envVars:    envVars,
		logger:     logger,
	}
}

// runState is the shared mutable state of one traversal. The mutex guards
// visited, results, path, and fatalErr so concurrent branches keep the
// at-most-once-per-node guarantee.
type runState struct {
	nodes        map[string]*schema.WorkflowNode
	connections  schema.Connections
	trigger      *schema.TriggerContext
	connectionID string
	threadID     string
	dryRun       bool
	recordPath   bool

	mu       sync.Mutex
	visited  map[string]bool
	results  map[string]*schema.NodeResult
	path     []string
	fatalErr error

	wg sync.WaitGroup
}

// visit marks the node visited and returns false when another branch got
// there first. Pre-order path recording happens here, at entry.
func (r *runState) visit(nodeID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.visited[nodeID] {
		return false
	}
	r.visited[nodeID] = true
	if r.recordPath {
		r.path = append(r.path, nodeID)
	}
	return true
}

func (r *runState) record(nodeID string, result *schema.NodeResult) {
	r.mu.Lock()
	r.results[nodeID] = result
	r.mu.Unlock()
}

// setFatal records the first run-ending error; later ones are dropped.
func (r *runState) setFatal(err error) {
	r.mu.Lock()
	if r.fatalErr == nil {
		r.fatalErr = err
	}
	r.mu.Unlock()
}

func (r *runState) fatal() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fatalErr
}

// Execute runs one persisted execution to a terminal status. Re-invoking on an
// already-terminal record performs no work and returns with Skipped set, so
// retrying delivery of the same execution ID is always safe.
//
// Per-node failures (label not found, non-2xx webhook) end only their own
// branch; a run-fatal error aborts the whole run with status failed, keeping
// whatever partial node results were already collected.
func (e *Executor) Execute(ctx context.Context, executionID string) (*schema.ExecutionResult, error) {
	ex, err := e.store.GetExecution(ctx, executionID)
	if err != nil {
		return nil, err
	}

	if ex.Status.Terminal() {
		return &schema.ExecutionResult{
			ExecutionID: ex.ID,
			Status:      ex.Status,
			Success:     ex.Status == schema.ExecutionCompleted,
			Skipped:     true,
			NodeResults: ex.NodeResults,
			Error:       ex.Error,
		}, nil
	}

	ctx = logging.WithExecutionID(logging.WithWorkflowID(ctx, ex.WorkflowID), ex.ID)

	wf, err := e.store.GetWorkflow(ctx, ex.WorkflowID)
	if err != nil {
		return e.finishRun(ctx, ex.ID, nil, schema.NewErrorf(schema.ErrCodeStore, "load workflow: %s", err.Error()).WithCause(err)), nil
	}

	now := time.Now().UTC()
	running := schema.ExecutionRunning
	if err := e.store.UpdateExecution(ctx, ex.ID, store.ExecutionUpdate{
		Status:    &running,
		StartedAt: &now,
	}); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeStore, "mark execution running: %s", err.Error()).WithCause(err)
	}

	run := newRunState(wf.Nodes, wf.Connections, ex.TriggerContext, wf.ConnectionID, ex.ThreadID, false)

	start := startNode(wf.Nodes, ex.TriggerContext)
	if start == nil {
		return e.finishRun(ctx, ex.ID, run, schema.NewError(schema.ErrCodeExecution, "workflow has no trigger node")), nil
	}

	e.logger.InfoContext(ctx, "execution started", slog.String("trigger_node", start.ID))
	e.walk(ctx, run, start)
	run.wg.Wait()

	result := e.finishRun(ctx, ex.ID, run, run.fatal())
	e.logger.InfoContext(ctx, "execution finished",
		slog.String("status", string(result.Status)),
		slog.Int("nodes_executed", len(result.NodeResults)))
	return result, nil
}

func newRunState(nodes []schema.WorkflowNode, connections schema.Connections, trig *schema.TriggerContext, connectionID, threadID string, dryRun bool) *runState {
	byID := make(map[string]*schema.WorkflowNode, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}
	return &runState{
		nodes:        byID,
		connections:  connections,
		trigger:      trig,
		connectionID: connectionID,
		threadID:     threadID,
		dryRun:       dryRun,
		recordPath:   dryRun,
		visited:      make(map[string]bool),
		results:      make(map[string]*schema.NodeResult),
	}
}

// startNode picks the trigger to walk from: the first trigger matching the
// context, or the first trigger in definition order when none re-matches
// (the workflow may have been edited between triggering and execution).
func startNode(nodes []schema.WorkflowNode, trig *schema.TriggerContext) *schema.WorkflowNode {
	triggers := trigger.Triggers(nodes)
	if matched := trigger.FirstMatch(triggers, trig); matched != nil {
		return matched
	}
	for _, t := range triggers {
		if !t.Disabled {
			return t
		}
	}
	return nil
}

// walk executes one node and recurses into the targets of the selected output
// port, fanning sibling targets out on goroutines that share this run's
// visited set and result map.
func (e *Executor) walk(ctx context.Context, run *runState, node *schema.WorkflowNode) {
	if err := ctx.Err(); err != nil {
		run.setFatal(err)
		return
	}
	if run.fatal() != nil {
		return
	}
	if !run.visit(node.ID) {
		// Another branch reached this node first; joins are silently skipped.
		return
	}
	if node.Disabled {
		return
	}

	nodeCtx := logging.WithNodeID(ctx, node.ID)
	followIndex := 0

	switch node.Category {
	case schema.CategoryTrigger:
		run.record(node.ID, &schema.NodeResult{Executed: true, Passed: true})

	case schema.CategoryCondition:
		res := e.conditions.EvaluateAsync(nodeCtx, node, run.trigger, run.connectionID)
		run.record(node.ID, &schema.NodeResult{
			Executed:    true,
			Passed:      res.Passed,
			OutputIndex: res.OutputIndex,
			Category:    res.Category,
		})
		if res.OutputIndex == nil {
			if !res.Passed {
				return
			}
		} else {
			followIndex = *res.OutputIndex
		}

	case schema.CategoryAction:
		actx := action.Context{
			ThreadID: run.threadID,
			Trigger:  run.trigger,
			EnvVars:  e.envVars,
			DryRun:   run.dryRun,
		}
		res := e.actions.Execute(nodeCtx, node.Type, actx, node.Parameters)
		run.record(node.ID, &schema.NodeResult{
			Executed:     true,
			Passed:       res.Success,
			Error:        res.Error,
			ActionOutput: res.Output,
		})
		if !res.Success {
			e.logger.WarnContext(nodeCtx, "action node failed", slog.String("error", res.Error))
			return
		}

	default:
		run.record(node.ID, &schema.NodeResult{Error: "unknown node category"})
		return
	}

	for _, target := range run.connections.Port(node.ID, followIndex) {
		next, ok := run.nodes[target.Node]
		if !ok {
			continue
		}
		run.wg.Add(1)
		go func(n *schema.WorkflowNode) {
			defer run.wg.Done()
			e.walk(ctx, run, n)
		}(next)
	}
}

// finishRun finalizes the execution record and builds the result. Persisting
// the terminal status is best-effort: the in-memory result is returned even
// when the store write fails.
func (e *Executor) finishRun(ctx context.Context, executionID string, run *runState, runErr error) *schema.ExecutionResult {
	result := &schema.ExecutionResult{
		ExecutionID: executionID,
		Status:      schema.ExecutionCompleted,
		Success:     true,
	}
	if run != nil {
		run.mu.Lock()
		result.NodeResults = run.results
		run.mu.Unlock()
	}
	if runErr != nil {
		result.Status = schema.ExecutionFailed
		result.Success = false
		result.Error = runErr.Error()
	}

	now := time.Now().UTC()
	update := store.ExecutionUpdate{
		Status:      &result.Status,
		NodeResults: result.NodeResults,
		CompletedAt: &now,
	}
	if result.Error != "" {
		update.Error = &result.Error
	}
	if err := e.store.UpdateExecution(ctx, executionID, update); err != nil {
		e.logger.ErrorContext(ctx, "persist execution result failed", slog.Any("error", err))
	}
	return result
}
