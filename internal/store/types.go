package store

import (
	"time"

	"github.com/mailflow/mailflow/pkg/schema"
)

// Workflow is the persisted representation of a user-owned workflow graph.
// Nodes are stored pre-resolved (internal category/type pairs); the wire
// definition is translated once at save time.
type Workflow struct {
	ID           string                   `json:"id"`
	UserID       string                   `json:"user_id"`
	ConnectionID string                   `json:"connection_id"`
	Name         string                   `json:"name"`
	Description  string                   `json:"description,omitempty"`
	Active       bool                     `json:"active"`
	Nodes        []schema.WorkflowNode    `json:"nodes"`
	Connections  schema.Connections       `json:"connections"`
	Settings     *schema.WorkflowSettings `json:"settings,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// Execution is one concrete run of a workflow against one trigger context.
// The status field follows pending → running → completed|failed; terminal
// records are never mutated again.
type Execution struct {
	ID             string                        `json:"id"`
	WorkflowID     string                        `json:"workflow_id"`
	ThreadID       string                        `json:"thread_id,omitempty"`
	Status         schema.ExecutionStatus        `json:"status"`
	TriggerContext *schema.TriggerContext        `json:"trigger_context,omitempty"`
	NodeResults    map[string]*schema.NodeResult `json:"node_results,omitempty"`
	Error          string                        `json:"error,omitempty"`
	CreatedAt      time.Time                     `json:"created_at"`
	StartedAt      *time.Time                    `json:"started_at,omitempty"`
	CompletedAt    *time.Time                    `json:"completed_at,omitempty"`
}

// ExecutionUpdate specifies mutable fields of an execution record.
type ExecutionUpdate struct {
	Status      *schema.ExecutionStatus       `json:"status,omitempty"`
	NodeResults map[string]*schema.NodeResult `json:"node_results,omitempty"`
	Error       *string                       `json:"error,omitempty"`
	StartedAt   *time.Time                    `json:"started_at,omitempty"`
	CompletedAt *time.Time                    `json:"completed_at,omitempty"`
}

// ExecutionFilter specifies criteria for listing executions.
type ExecutionFilter struct {
	WorkflowID string                  `json:"workflow_id,omitempty"`
	Status     *schema.ExecutionStatus `json:"status,omitempty"`
	Limit      int                     `json:"limit,omitempty"`
}
