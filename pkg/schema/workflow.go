package schema

// NodeCategory classifies a workflow node by its role in the graph.
type NodeCategory string

const (
	CategoryTrigger   NodeCategory = "trigger"
	CategoryCondition NodeCategory = "condition"
	CategoryAction    NodeCategory = "action"
	CategoryUnknown   NodeCategory = "unknown"
)

// Trigger subtypes.
const (
	TriggerEmailReceived = "email_received"
	TriggerEmailLabeled  = "email_labeled"
	TriggerSchedule      = "schedule"
)

// Condition subtypes.
const (
	ConditionSenderMatch      = "sender_match"
	ConditionSubjectMatch     = "subject_match"
	ConditionLabelMatch       = "label_match"
	ConditionKeywordMatch     = "keyword_match"
	ConditionExpression       = "expression"
	ConditionAIClassification = "ai_classification"
)

// Action subtypes.
const (
	ActionMarkRead         = "mark_read"
	ActionMarkUnread       = "mark_unread"
	ActionArchive          = "archive"
	ActionAddLabel         = "add_label"
	ActionRemoveLabel      = "remove_label"
	ActionSendNotification = "send_notification"
	ActionGenerateDraft    = "generate_draft"
	ActionRunSkill         = "run_skill"
)

// WorkflowNode is one resolved graph step. Nodes are authored externally
// (editor UI) and are read-only to the engine.
type WorkflowNode struct {
	ID         string         `json:"id"`
	Name       string         `json:"name,omitempty"`
	Category   NodeCategory   `json:"category"`
	Type       string         `json:"nodeType"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Disabled   bool           `json:"disabled,omitempty"`
}

// ConnectionTarget is one edge endpoint: the target node and its input index.
type ConnectionTarget struct {
	Node  string `json:"node"`
	Index int    `json:"index"`
}

// NodeConnections holds the ordered output ports of one source node.
// Port 0 is the default; conditions with multi-output routing (classification
// categories plus the trailing "other" port) use higher indexes.
type NodeConnections struct {
	Main [][]ConnectionTarget `json:"main"`
}

// Connections maps a source node ID to its output ports.
type Connections map[string]NodeConnections

// Port returns the targets of the given output port, or nil when the node has
// no connections or the index is out of range.
func (c Connections) Port(sourceID string, index int) []ConnectionTarget {
	nc, ok := c[sourceID]
	if !ok || index < 0 || index >= len(nc.Main) {
		return nil
	}
	return nc.Main[index]
}

// NodeDefinition is the wire representation of a node as exchanged with the
// editor: the type is a vendor-qualified string resolved through the static
// node-type table at load time.
type NodeDefinition struct {
	ID          string         `json:"id"`
	Name        string         `json:"name,omitempty"`
	Type        string         `json:"type"`
	TypeVersion float64        `json:"typeVersion,omitempty"`
	Position    []float64      `json:"position,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Disabled    bool           `json:"disabled,omitempty"`
}

// WorkflowSettings carries execution options enforced by the calling layer.
type WorkflowSettings struct {
	ExecutionTimeout string `json:"executionTimeout,omitempty"`
}

// WorkflowDefinition is the JSON-serializable workflow exchange format.
type WorkflowDefinition struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Active      bool              `json:"active,omitempty"`
	Nodes       []NodeDefinition  `json:"nodes"`
	Connections Connections       `json:"connections"`
	Settings    *WorkflowSettings `json:"settings,omitempty"`
}

// ExecutionStatus is the lifecycle state of one execution record.
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "pending"
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
)

// Terminal reports whether the status is final. Terminal records are
// immutable; re-executing one is a no-op.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionCompleted || s == ExecutionFailed
}
