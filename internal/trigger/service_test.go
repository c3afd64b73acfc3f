package trigger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailflow/mailflow/internal/store"
	"github.com/mailflow/mailflow/pkg/schema"
)

func newWorkflow(id, userID string, active bool, trigType string, params map[string]any) *store.Workflow {
	return &store.Workflow{
		ID:           id,
		UserID:       userID,
		ConnectionID: "conn-1",
		Name:         id,
		Active:       active,
		Nodes: []schema.WorkflowNode{
			{ID: id + "-t", Category: schema.CategoryTrigger, Type: trigType, Parameters: params},
		},
		Connections: schema.Connections{},
	}
}

func TestEvaluateAndTrigger_CreatesPendingExecutions(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.CreateWorkflow(ctx, newWorkflow("wf-match", "u1", true, schema.TriggerEmailReceived, nil)))
	require.NoError(t, st.CreateWorkflow(ctx, newWorkflow("wf-filtered", "u1", true, schema.TriggerEmailReceived,
		map[string]any{"folder": "archive"})))
	require.NoError(t, st.CreateWorkflow(ctx, newWorkflow("wf-inactive", "u1", false, schema.TriggerEmailReceived, nil)))
	require.NoError(t, st.CreateWorkflow(ctx, newWorkflow("wf-other-user", "u2", true, schema.TriggerEmailReceived, nil)))

	svc := NewService(st, nil)
	email := &schema.EmailSnapshot{ThreadID: "th-42", Subject: "Hi", Labels: []string{"INBOX"}}

	outcome, err := svc.EvaluateAndTrigger(ctx, "u1", "conn-1", schema.EventEmailReceived, email, nil)
	require.NoError(t, err)
	require.Len(t, outcome.TriggeredWorkflows, 1)
	assert.Empty(t, outcome.Errors)
	assert.Equal(t, "wf-match", outcome.TriggeredWorkflows[0].WorkflowID)

	ex, err := st.GetExecution(ctx, outcome.TriggeredWorkflows[0].ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, schema.ExecutionPending, ex.Status)
	assert.Equal(t, "th-42", ex.ThreadID)
	require.NotNil(t, ex.TriggerContext)
	assert.Equal(t, schema.EventEmailReceived, ex.TriggerContext.Kind)
}

func TestEvaluateAndTrigger_ScheduleEvent(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.CreateWorkflow(ctx, newWorkflow("wf-sched", "u1", true, schema.TriggerSchedule,
		map[string]any{"cron": "0 * * * *"})))

	svc := NewService(st, nil)
	outcome, err := svc.EvaluateAndTrigger(ctx, "u1", "conn-1", schema.EventSchedule, nil, nil)
	require.NoError(t, err)
	require.Len(t, outcome.TriggeredWorkflows, 1)

	ex, err := st.GetExecution(ctx, outcome.TriggeredWorkflows[0].ExecutionID)
	require.NoError(t, err)
	assert.Empty(t, ex.ThreadID)
	require.NotNil(t, ex.TriggerContext.Schedule)
	assert.False(t, ex.TriggerContext.Schedule.FiredAt.IsZero())
}

// failingStore fails execution creation for one workflow ID.
type failingStore struct {
	store.Store
	failFor string
}

func (f *failingStore) CreateExecution(ctx context.Context, ex *store.Execution) error {
	if ex.WorkflowID == f.failFor {
		return errors.New("disk full")
	}
	return f.Store.CreateExecution(ctx, ex)
}

func TestEvaluateAndTrigger_PartialFailureIsolation(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, mem.CreateWorkflow(ctx, newWorkflow("wf-a", "u1", true, schema.TriggerEmailReceived, nil)))
	require.NoError(t, mem.CreateWorkflow(ctx, newWorkflow("wf-b", "u1", true, schema.TriggerEmailReceived, nil)))

	svc := NewService(&failingStore{Store: mem, failFor: "wf-a"}, nil)
	email := &schema.EmailSnapshot{ThreadID: "th-1", Labels: []string{"INBOX"}}

	outcome, err := svc.EvaluateAndTrigger(ctx, "u1", "conn-1", schema.EventEmailReceived, email, nil)
	require.NoError(t, err)

	// wf-a's failure is captured; wf-b still triggers.
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, "wf-a", outcome.Errors[0].WorkflowID)
	assert.Contains(t, outcome.Errors[0].Error, "disk full")

	require.Len(t, outcome.TriggeredWorkflows, 1)
	assert.Equal(t, "wf-b", outcome.TriggeredWorkflows[0].WorkflowID)
}

func TestEvaluateAndTrigger_NoMatches(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewService(st, nil)

	outcome, err := svc.EvaluateAndTrigger(context.Background(), "u1", "conn-1",
		schema.EventEmailReceived, &schema.EmailSnapshot{ThreadID: "th"}, nil)
	require.NoError(t, err)
	assert.Empty(t, outcome.TriggeredWorkflows)
	assert.Empty(t, outcome.Errors)
}
