package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailflow/mailflow/pkg/schema"
)

func triggerNode(id, trigType string, params map[string]any) *schema.WorkflowNode {
	return &schema.WorkflowNode{
		ID:         id,
		Category:   schema.CategoryTrigger,
		Type:       trigType,
		Parameters: params,
	}
}

func receivedContext(labels ...string) *schema.TriggerContext {
	return &schema.TriggerContext{
		Kind:  schema.EventEmailReceived,
		Email: &schema.EmailSnapshot{ThreadID: "th-1", Labels: labels},
	}
}

func TestEvaluate_EmailReceived(t *testing.T) {
	// No folder filter: match-all.
	node := triggerNode("t1", schema.TriggerEmailReceived, nil)
	assert.True(t, Evaluate(node, receivedContext()))

	// Folder filter matches case-insensitively against thread labels.
	node = triggerNode("t1", schema.TriggerEmailReceived, map[string]any{"folder": "inbox"})
	assert.True(t, Evaluate(node, receivedContext("INBOX", "work")))
	assert.False(t, Evaluate(node, receivedContext("archive")))
	assert.False(t, Evaluate(node, receivedContext()))
}

func TestEvaluate_EmailLabeled(t *testing.T) {
	ctx := &schema.TriggerContext{
		Kind:        schema.EventEmailLabeled,
		LabelChange: &schema.LabelChange{Label: "Receipts", Action: "added"},
	}

	// Absent filter fields act as wildcards.
	assert.True(t, Evaluate(triggerNode("t", schema.TriggerEmailLabeled, nil), ctx))
	assert.True(t, Evaluate(triggerNode("t", schema.TriggerEmailLabeled,
		map[string]any{"label": "receipts"}), ctx))
	assert.True(t, Evaluate(triggerNode("t", schema.TriggerEmailLabeled,
		map[string]any{"label": "Receipts", "action": "added"}), ctx))

	assert.False(t, Evaluate(triggerNode("t", schema.TriggerEmailLabeled,
		map[string]any{"label": "Other"}), ctx))
	assert.False(t, Evaluate(triggerNode("t", schema.TriggerEmailLabeled,
		map[string]any{"action": "removed"}), ctx))
}

func TestEvaluate_Schedule(t *testing.T) {
	node := triggerNode("t", schema.TriggerSchedule, map[string]any{"cron": "0 9 * * *"})
	assert.True(t, Evaluate(node, &schema.TriggerContext{Kind: schema.EventSchedule}))
	assert.False(t, Evaluate(node, receivedContext()))
}

func TestEvaluate_ShortCircuits(t *testing.T) {
	ctx := receivedContext()

	disabled := triggerNode("t", schema.TriggerEmailReceived, nil)
	disabled.Disabled = true
	assert.False(t, Evaluate(disabled, ctx))

	// Kind mismatch.
	labeled := triggerNode("t", schema.TriggerEmailLabeled, nil)
	assert.False(t, Evaluate(labeled, ctx))

	// Non-trigger category.
	cond := &schema.WorkflowNode{ID: "c", Category: schema.CategoryCondition, Type: schema.ConditionSenderMatch}
	assert.False(t, Evaluate(cond, ctx))

	assert.False(t, Evaluate(nil, ctx))
	assert.False(t, Evaluate(triggerNode("t", schema.TriggerEmailReceived, nil), nil))
}

func TestFirstMatch(t *testing.T) {
	ctx := receivedContext("INBOX")
	first := triggerNode("first", schema.TriggerEmailReceived, map[string]any{"folder": "archive"})
	second := triggerNode("second", schema.TriggerEmailReceived, nil)
	third := triggerNode("third", schema.TriggerEmailReceived, nil)

	// First-match-wins: third also matches but second comes first.
	matched := FirstMatch([]*schema.WorkflowNode{first, second, third}, ctx)
	require.NotNil(t, matched)
	assert.Equal(t, "second", matched.ID)

	assert.Nil(t, FirstMatch([]*schema.WorkflowNode{first}, ctx))
	assert.Nil(t, FirstMatch(nil, ctx))
}

func TestTriggers(t *testing.T) {
	nodes := []schema.WorkflowNode{
		{ID: "t1", Category: schema.CategoryTrigger, Type: schema.TriggerEmailReceived},
		{ID: "c1", Category: schema.CategoryCondition},
		{ID: "t2", Category: schema.CategoryTrigger, Type: schema.TriggerSchedule},
	}

	triggers := Triggers(nodes)
	require.Len(t, triggers, 2)
	assert.Equal(t, "t1", triggers[0].ID)
	assert.Equal(t, "t2", triggers[1].ID)
}
