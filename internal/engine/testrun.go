package engine

import (
	"context"

	"github.com/mailflow/mailflow/pkg/schema"
)

// TestWorkflow dry-runs a workflow graph against a trigger context without
// touching persistence. Every action is forced into dry-run mode, so no mail
// modification or notification collaborator is ever called. The traversal is
// otherwise identical to Execute, with one addition: the result carries the
// pre-order node visitation path for UI highlighting.
//
// The nodes and connections may come from an unsaved editor draft; the
// connectionID is only consulted for AI classification and may be empty.
func (e *Executor) TestWorkflow(ctx context.Context, nodes []schema.WorkflowNode, connections schema.Connections, trig *schema.TriggerContext, connectionID string) *schema.TestResult {
	run := newRunState(nodes, connections, trig, connectionID, threadIDFrom(trig), true)

	start := startNode(nodes, trig)
	if start == nil {
		return &schema.TestResult{
			NodeResults:   run.results,
			ExecutionPath: []string{},
			Error:         "workflow has no trigger node",
		}
	}

	e.walk(ctx, run, start)
	run.wg.Wait()

	result := &schema.TestResult{
		Success:       true,
		NodeResults:   run.results,
		ExecutionPath: run.path,
	}
	if err := run.fatal(); err != nil {
		result.Success = false
		result.Error = err.Error()
	}
	return result
}

func threadIDFrom(trig *schema.TriggerContext) string {
	if trig == nil || trig.Email == nil {
		return ""
	}
	return trig.Email.ThreadID
}
