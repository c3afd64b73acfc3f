package schema

// ConditionResult is the outcome of evaluating one condition node.
// OutputIndex nil means "no explicit port": ordinary pass/fail conditions do
// not branch, while routing conditions (ai_classification) always set it.
type ConditionResult struct {
	Passed      bool   `json:"passed"`
	OutputIndex *int   `json:"outputIndex,omitempty"`
	Category    string `json:"category,omitempty"`
}

// ActionResult is the uniform outcome contract of one action execution.
// Actions never raise; every failure path lands in Error.
type ActionResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Output  any    `json:"output,omitempty"`
	DryRun  bool   `json:"dryRun,omitempty"`
}

// NodeResult records what happened at one node during a run, keyed by node ID
// in the execution's result map.
type NodeResult struct {
	Executed     bool   `json:"executed"`
	Passed       bool   `json:"passed"`
	Error        string `json:"error,omitempty"`
	OutputIndex  *int   `json:"outputIndex,omitempty"`
	Category     string `json:"category,omitempty"`
	ActionOutput any    `json:"actionOutput,omitempty"`
}

// ExecutionResult is returned by the executor with the final run outcome.
// Skipped is set when the execution record was already terminal and the
// invocation performed no work.
type ExecutionResult struct {
	ExecutionID string                 `json:"executionId"`
	Status      ExecutionStatus        `json:"status"`
	Success     bool                   `json:"success"`
	Skipped     bool                   `json:"skipped,omitempty"`
	NodeResults map[string]*NodeResult `json:"nodeResults,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// TestResult is the outcome of a dry-run test execution. ExecutionPath is the
// pre-order node visitation sequence, used for UI highlighting only.
type TestResult struct {
	Success       bool                   `json:"success"`
	NodeResults   map[string]*NodeResult `json:"nodeResults"`
	ExecutionPath []string               `json:"executionPath"`
	Error         string                 `json:"error,omitempty"`
}

// TriggerOutcome reports one fan-out pass of an inbound event across a user's
// enabled workflows.
type TriggerOutcome struct {
	TriggeredWorkflows []TriggeredWorkflow `json:"triggeredWorkflows"`
	Errors             []WorkflowError     `json:"errors,omitempty"`
}

// TriggeredWorkflow names one workflow that matched and the pending execution
// created for it.
type TriggeredWorkflow struct {
	WorkflowID  string `json:"workflowId"`
	ExecutionID string `json:"executionId"`
}

// WorkflowError is a per-workflow failure captured during trigger fan-out.
type WorkflowError struct {
	WorkflowID string `json:"workflowId"`
	Error      string `json:"error"`
}
