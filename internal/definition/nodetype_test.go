package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailflow/mailflow/pkg/schema"
)

func TestParseNodeType(t *testing.T) {
	tests := []struct {
		vendorType   string
		wantCategory schema.NodeCategory
		wantType     string
	}{
		{"mailflow-nodes-base.emailReceivedTrigger", schema.CategoryTrigger, schema.TriggerEmailReceived},
		{"mailflow-nodes-base.emailLabeledTrigger", schema.CategoryTrigger, schema.TriggerEmailLabeled},
		{"mailflow-nodes-base.scheduleTrigger", schema.CategoryTrigger, schema.TriggerSchedule},
		{"mailflow-nodes-base.senderMatch", schema.CategoryCondition, schema.ConditionSenderMatch},
		{"mailflow-nodes-base.subjectMatch", schema.CategoryCondition, schema.ConditionSubjectMatch},
		{"mailflow-nodes-base.labelMatch", schema.CategoryCondition, schema.ConditionLabelMatch},
		{"mailflow-nodes-base.keywordMatch", schema.CategoryCondition, schema.ConditionKeywordMatch},
		{"mailflow-nodes-base.expression", schema.CategoryCondition, schema.ConditionExpression},
		{"mailflow-nodes-base.aiClassification", schema.CategoryCondition, schema.ConditionAIClassification},
		{"mailflow-nodes-base.markRead", schema.CategoryAction, schema.ActionMarkRead},
		{"mailflow-nodes-base.markUnread", schema.CategoryAction, schema.ActionMarkUnread},
		{"mailflow-nodes-base.archive", schema.CategoryAction, schema.ActionArchive},
		{"mailflow-nodes-base.addLabel", schema.CategoryAction, schema.ActionAddLabel},
		{"mailflow-nodes-base.removeLabel", schema.CategoryAction, schema.ActionRemoveLabel},
		{"mailflow-nodes-base.sendNotification", schema.CategoryAction, schema.ActionSendNotification},
		{"mailflow-nodes-base.generateDraft", schema.CategoryAction, schema.ActionGenerateDraft},
		{"mailflow-nodes-base.runSkill", schema.CategoryAction, schema.ActionRunSkill},
	}

	for _, tt := range tests {
		t.Run(tt.vendorType, func(t *testing.T) {
			category, nodeType := ParseNodeType(tt.vendorType)
			assert.Equal(t, tt.wantCategory, category)
			assert.Equal(t, tt.wantType, nodeType)
		})
	}
}

func TestParseNodeType_Unknown(t *testing.T) {
	category, nodeType := ParseNodeType("mailflow-nodes-base.teleport")
	assert.Equal(t, schema.CategoryUnknown, category)
	assert.Equal(t, "mailflow-nodes-base.teleport", nodeType)

	category, _ = ParseNodeType("")
	assert.Equal(t, schema.CategoryUnknown, category)
}

func TestResolveNodes(t *testing.T) {
	defs := []schema.NodeDefinition{
		{ID: "t1", Name: "When mail arrives", Type: "mailflow-nodes-base.emailReceivedTrigger"},
		{ID: "c1", Type: "mailflow-nodes-base.senderMatch", Parameters: map[string]any{"pattern": "*@example.com"}},
		{ID: "x1", Type: "vendor.unknownThing", Disabled: true},
	}

	nodes := ResolveNodes(defs)
	require.Len(t, nodes, 3)

	assert.Equal(t, "t1", nodes[0].ID)
	assert.Equal(t, "When mail arrives", nodes[0].Name)
	assert.Equal(t, schema.CategoryTrigger, nodes[0].Category)
	assert.Equal(t, schema.TriggerEmailReceived, nodes[0].Type)

	assert.Equal(t, schema.CategoryCondition, nodes[1].Category)
	assert.Equal(t, schema.ConditionSenderMatch, nodes[1].Type)
	assert.Equal(t, "*@example.com", nodes[1].Parameters["pattern"])

	assert.Equal(t, schema.CategoryUnknown, nodes[2].Category)
	assert.True(t, nodes[2].Disabled)
}
