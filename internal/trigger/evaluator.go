// Package trigger matches trigger nodes against inbound mail events and fans
// events out across a user's enabled workflows.
package trigger

import (
	"strings"

	"github.com/mailflow/mailflow/pkg/schema"
)

// Evaluate reports whether a trigger node matches the inbound event context.
// Pure and stateless: disabled nodes and event-kind mismatches short-circuit
// to false, and absent filter parameters act as wildcards.
func Evaluate(node *schema.WorkflowNode, trig *schema.TriggerContext) bool {
	if node == nil || trig == nil || node.Disabled || node.Category != schema.CategoryTrigger {
		return false
	}

	switch node.Type {
	case schema.TriggerEmailReceived:
		if trig.Kind != schema.EventEmailReceived {
			return false
		}
		folder := stringParam(node.Parameters, "folder")
		if folder == "" {
			return true
		}
		if trig.Email == nil {
			return false
		}
		for _, label := range trig.Email.Labels {
			if strings.EqualFold(label, folder) {
				return true
			}
		}
		return false

	case schema.TriggerEmailLabeled:
		if trig.Kind != schema.EventEmailLabeled {
			return false
		}
		label := stringParam(node.Parameters, "label")
		action := stringParam(node.Parameters, "action")
		if label == "" && action == "" {
			return true
		}
		if trig.LabelChange == nil {
			return false
		}
		if label != "" && !strings.EqualFold(label, trig.LabelChange.Label) {
			return false
		}
		if action != "" && action != trig.LabelChange.Action {
			return false
		}
		return true

	case schema.TriggerSchedule:
		// Cron timing is evaluated upstream; the engine only matches the
		// already-fired schedule event.
		return trig.Kind == schema.EventSchedule

	default:
		return false
	}
}

// FirstMatch returns the first trigger in array order that matches the
// context, or nil. First-match-wins: later matching triggers are ignored.
func FirstMatch(triggers []*schema.WorkflowNode, trig *schema.TriggerContext) *schema.WorkflowNode {
	for _, t := range triggers {
		if Evaluate(t, trig) {
			return t
		}
	}
	return nil
}

// Triggers extracts the trigger nodes of a workflow in definition order.
func Triggers(nodes []schema.WorkflowNode) []*schema.WorkflowNode {
	var out []*schema.WorkflowNode
	for i := range nodes {
		if nodes[i].Category == schema.CategoryTrigger {
			out = append(out, &nodes[i])
		}
	}
	return out
}

func stringParam(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
