// Package action performs (or simulates, in dry-run) the side effect of an
// action node. Every outcome is reported through the uniform ActionResult
// contract; actions never raise.
package action

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mailflow/mailflow/internal/mail"
	"github.com/mailflow/mailflow/pkg/schema"
)

// Context carries the per-run data an action needs: the thread being
// processed, the trigger snapshot for message interpolation, environment
// variables, and the dry-run flag that backs test mode.
type Context struct {
	ThreadID string
	Trigger  *schema.TriggerContext
	EnvVars  map[string]string
	DryRun   bool
}

// Executor executes action nodes against an injected mail driver and
// outbound HTTP for notification transports.
type Executor struct {
	driver mail.Driver
	http   *http.Client
	logger *slog.Logger
}

const notifyTimeout = 15 * time.Second

// NewExecutor creates an Executor. httpClient may be nil for a default
// client with a notification timeout.
func NewExecutor(driver mail.Driver, httpClient *http.Client, logger *slog.Logger) *Executor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: notifyTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{driver: driver, http: httpClient, logger: logger}
}

// Execute performs the side effect of one action node. Dry-run short-circuits
// before any side effect with a descriptive no-op result. All failure paths
// are captured in the result; Execute never returns a Go error.
func (e *Executor) Execute(ctx context.Context, actionType string, actx Context, params map[string]any) *schema.ActionResult {
	if actx.DryRun {
		return &schema.ActionResult{
			Success: true,
			DryRun:  true,
			Output:  fmt.Sprintf("dry run: would execute %s", actionType),
		}
	}

	switch actionType {
	case schema.ActionMarkRead:
		return e.modifyThread(ctx, actx, mail.ThreadModification{RemoveLabels: []string{mail.LabelUnread}}, "marked as read")
	case schema.ActionMarkUnread:
		return e.modifyThread(ctx, actx, mail.ThreadModification{AddLabels: []string{mail.LabelUnread}}, "marked as unread")
	case schema.ActionArchive:
		return e.modifyThread(ctx, actx, mail.ThreadModification{RemoveLabels: []string{mail.LabelInbox}}, "archived")
	case schema.ActionAddLabel:
		return e.applyLabel(ctx, actx, params, true)
	case schema.ActionRemoveLabel:
		return e.applyLabel(ctx, actx, params, false)
	case schema.ActionSendNotification:
		return e.sendNotification(ctx, actx, params)
	case schema.ActionGenerateDraft:
		return failure("draft generation is not implemented yet")
	case schema.ActionRunSkill:
		return failure("skill execution is not implemented yet")
	default:
		return failure(fmt.Sprintf("unknown action type %q", actionType))
	}
}

func (e *Executor) modifyThread(ctx context.Context, actx Context, mod mail.ThreadModification, desc string) *schema.ActionResult {
	if e.driver == nil {
		return failure("no mail driver configured")
	}
	if err := e.driver.ModifyThread(ctx, actx.ThreadID, mod); err != nil {
		return failure(fmt.Sprintf("modify thread: %v", err))
	}
	return &schema.ActionResult{Success: true, Output: desc}
}

// applyLabel resolves a label name to its provider ID case-insensitively,
// then adds or removes it. A label that does not exist is a normal per-node
// failure, not fatal to the run.
func (e *Executor) applyLabel(ctx context.Context, actx Context, params map[string]any, add bool) *schema.ActionResult {
	if e.driver == nil {
		return failure("no mail driver configured")
	}
	name := stringParam(params, "label")
	if name == "" {
		return failure("missing required parameter 'label'")
	}

	labels, err := e.driver.GetLabels(ctx)
	if err != nil {
		return failure(fmt.Sprintf("list labels: %v", err))
	}

	var labelID string
	for _, l := range labels {
		if strings.EqualFold(l.Name, name) {
			labelID = l.ID
			break
		}
	}
	if labelID == "" {
		return failure(fmt.Sprintf("label %q not found", name))
	}

	mod := mail.ThreadModification{}
	desc := "added label " + name
	if add {
		mod.AddLabels = []string{labelID}
	} else {
		mod.RemoveLabels = []string{labelID}
		desc = "removed label " + name
	}
	if err := e.driver.ModifyThread(ctx, actx.ThreadID, mod); err != nil {
		return failure(fmt.Sprintf("modify thread: %v", err))
	}
	return &schema.ActionResult{Success: true, Output: desc}
}

func failure(message string) *schema.ActionResult {
	return &schema.ActionResult{Success: false, Error: message}
}

// --- parameter helpers ---

func stringParam(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func mapParam(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}
