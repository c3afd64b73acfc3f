package definition

import "github.com/mailflow/mailflow/pkg/schema"

// nodeKind is one entry of the static node-type table.
type nodeKind struct {
	Category schema.NodeCategory
	Type     string
}

// nodeTypeTable maps vendor-qualified editor type strings to internal
// {category, type} pairs. The table is the interop contract with the editor:
// entries must stay stable across releases.
var nodeTypeTable = map[string]nodeKind{
	"mailflow-nodes-base.emailReceivedTrigger": {schema.CategoryTrigger, schema.TriggerEmailReceived},
	"mailflow-nodes-base.emailLabeledTrigger":  {schema.CategoryTrigger, schema.TriggerEmailLabeled},
	"mailflow-nodes-base.scheduleTrigger":      {schema.CategoryTrigger, schema.TriggerSchedule},

	"mailflow-nodes-base.senderMatch":      {schema.CategoryCondition, schema.ConditionSenderMatch},
	"mailflow-nodes-base.subjectMatch":     {schema.CategoryCondition, schema.ConditionSubjectMatch},
	"mailflow-nodes-base.labelMatch":       {schema.CategoryCondition, schema.ConditionLabelMatch},
	"mailflow-nodes-base.keywordMatch":     {schema.CategoryCondition, schema.ConditionKeywordMatch},
	"mailflow-nodes-base.expression":       {schema.CategoryCondition, schema.ConditionExpression},
	"mailflow-nodes-base.aiClassification": {schema.CategoryCondition, schema.ConditionAIClassification},

	"mailflow-nodes-base.markRead":         {schema.CategoryAction, schema.ActionMarkRead},
	"mailflow-nodes-base.markUnread":       {schema.CategoryAction, schema.ActionMarkUnread},
	"mailflow-nodes-base.archive":          {schema.CategoryAction, schema.ActionArchive},
	"mailflow-nodes-base.addLabel":         {schema.CategoryAction, schema.ActionAddLabel},
	"mailflow-nodes-base.removeLabel":      {schema.CategoryAction, schema.ActionRemoveLabel},
	"mailflow-nodes-base.sendNotification": {schema.CategoryAction, schema.ActionSendNotification},
	"mailflow-nodes-base.generateDraft":    {schema.CategoryAction, schema.ActionGenerateDraft},
	"mailflow-nodes-base.runSkill":         {schema.CategoryAction, schema.ActionRunSkill},
}

// ParseNodeType resolves a vendor-qualified type string to its internal
// category and subtype. Unmapped input yields CategoryUnknown rather than an
// error so callers can surface a clear diagnostic instead of crashing.
func ParseNodeType(vendorType string) (schema.NodeCategory, string) {
	kind, ok := nodeTypeTable[vendorType]
	if !ok {
		return schema.CategoryUnknown, vendorType
	}
	return kind.Category, kind.Type
}

// ResolveNodes translates wire node definitions into internal workflow nodes,
// resolving each vendor-qualified type once at load time.
func ResolveNodes(defs []schema.NodeDefinition) []schema.WorkflowNode {
	nodes := make([]schema.WorkflowNode, len(defs))
	for i, def := range defs {
		category, nodeType := ParseNodeType(def.Type)
		nodes[i] = schema.WorkflowNode{
			ID:         def.ID,
			Name:       def.Name,
			Category:   category,
			Type:       nodeType,
			Parameters: def.Parameters,
			Disabled:   def.Disabled,
		}
	}
	return nodes
}
