package trigger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mailflow/mailflow/internal/logging"
	"github.com/mailflow/mailflow/internal/store"
	"github.com/mailflow/mailflow/pkg/schema"
)

// Service fans an inbound event out across all enabled workflows of a user
// connection and creates pending execution records for those that match.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

// NewService creates a Service.
func NewService(s store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, logger: logger}
}

// EvaluateAndTrigger evaluates the inbound event against every enabled
// workflow of the user/connection. On first trigger match a pending
// execution record is created. One workflow's evaluation or creation failure
// is captured per-workflow and never prevents evaluating the rest.
func (s *Service) EvaluateAndTrigger(ctx context.Context, userID, connectionID string, kind schema.EventKind, email *schema.EmailSnapshot, labelChange *schema.LabelChange) (*schema.TriggerOutcome, error) {
	trig := &schema.TriggerContext{Kind: kind, Email: email, LabelChange: labelChange}
	if kind == schema.EventSchedule {
		trig.Schedule = &schema.ScheduleEvent{FiredAt: time.Now().UTC()}
	}

	workflows, err := s.store.ListEnabledWorkflows(ctx, userID, connectionID)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeStore, "list enabled workflows: %s", err.Error()).WithCause(err)
	}

	outcome := &schema.TriggerOutcome{}
	for _, wf := range workflows {
		executionID, wfErr := s.triggerWorkflow(ctx, wf, trig)
		if wfErr != nil {
			s.logger.WarnContext(ctx, "workflow trigger evaluation failed",
				slog.String("workflow_id", wf.ID), slog.Any("error", wfErr))
			outcome.Errors = append(outcome.Errors, schema.WorkflowError{
				WorkflowID: wf.ID,
				Error:      wfErr.Error(),
			})
			continue
		}
		if executionID == "" {
			continue
		}
		outcome.TriggeredWorkflows = append(outcome.TriggeredWorkflows, schema.TriggeredWorkflow{
			WorkflowID:  wf.ID,
			ExecutionID: executionID,
		})
	}
	return outcome, nil
}

// triggerWorkflow evaluates one workflow's triggers and, on first match,
// creates a pending execution referencing the workflow, thread and context.
// Returns "" when no trigger matched.
func (s *Service) triggerWorkflow(ctx context.Context, wf *store.Workflow, trig *schema.TriggerContext) (string, error) {
	matched := FirstMatch(Triggers(wf.Nodes), trig)
	if matched == nil {
		return "", nil
	}

	execution := &store.Execution{
		ID:             uuid.NewString(),
		WorkflowID:     wf.ID,
		Status:         schema.ExecutionPending,
		TriggerContext: trig,
		CreatedAt:      time.Now().UTC(),
	}
	if trig.Email != nil {
		execution.ThreadID = trig.Email.ThreadID
	}

	execCtx := logging.WithWorkflowID(ctx, wf.ID)
	if err := s.store.CreateExecution(execCtx, execution); err != nil {
		return "", schema.NewErrorf(schema.ErrCodeStore, "create execution: %s", err.Error()).WithCause(err)
	}

	s.logger.InfoContext(execCtx, "workflow triggered",
		slog.String("execution_id", execution.ID),
		slog.String("trigger_node", matched.ID),
		slog.String("event_kind", string(trig.Kind)))
	return execution.ID, nil
}
