package validation

import (
	"github.com/mailflow/mailflow/pkg/schema"
)

func parameterKey(category schema.NodeCategory, nodeType string) string {
	return string(category) + "/" + nodeType
}

// parameterSchemas maps a category/type pair to the JSON Schema its
// parameters must satisfy. Additional properties are tolerated everywhere:
// the editor stores UI-only keys (colors, collapsed state) alongside the
// engine-visible ones.
var parameterSchemas = map[string]string{
	parameterKey(schema.CategoryTrigger, schema.TriggerEmailReceived): `{
	  "type": "object",
	  "properties": {
	    "folder": { "type": "string" }
	  }
	}`,

	parameterKey(schema.CategoryTrigger, schema.TriggerEmailLabeled): `{
	  "type": "object",
	  "properties": {
	    "label": { "type": "string" },
	    "action": { "type": "string", "enum": ["added", "removed"] }
	  }
	}`,

	parameterKey(schema.CategoryTrigger, schema.TriggerSchedule): `{
	  "type": "object",
	  "properties": {
	    "cron": { "type": "string" }
	  }
	}`,

	parameterKey(schema.CategoryCondition, schema.ConditionSenderMatch): `{
	  "type": "object",
	  "required": ["pattern"],
	  "properties": {
	    "pattern": { "type": "string", "minLength": 1 }
	  }
	}`,

	parameterKey(schema.CategoryCondition, schema.ConditionSubjectMatch): `{
	  "type": "object",
	  "required": ["pattern"],
	  "properties": {
	    "pattern": { "type": "string", "minLength": 1 }
	  }
	}`,

	parameterKey(schema.CategoryCondition, schema.ConditionLabelMatch): `{
	  "type": "object",
	  "required": ["labels"],
	  "properties": {
	    "labels": {
	      "type": "array",
	      "minItems": 1,
	      "items": { "type": "string" }
	    },
	    "mode": { "type": "string", "enum": ["any", "all"] }
	  }
	}`,

	parameterKey(schema.CategoryCondition, schema.ConditionKeywordMatch): `{
	  "type": "object",
	  "required": ["keywords"],
	  "properties": {
	    "keywords": {
	      "type": "array",
	      "minItems": 1,
	      "items": { "type": "string" }
	    },
	    "location": { "type": "string", "enum": ["subject", "body", "both"] }
	  }
	}`,

	parameterKey(schema.CategoryCondition, schema.ConditionExpression): `{
	  "type": "object",
	  "required": ["expression"],
	  "properties": {
	    "expression": { "type": "string", "minLength": 1 }
	  }
	}`,

	parameterKey(schema.CategoryCondition, schema.ConditionAIClassification): `{
	  "type": "object",
	  "required": ["categories"],
	  "properties": {
	    "categories": {
	      "type": "array",
	      "minItems": 1,
	      "items": { "type": "string", "minLength": 1 }
	    }
	  }
	}`,

	parameterKey(schema.CategoryAction, schema.ActionAddLabel): `{
	  "type": "object",
	  "required": ["label"],
	  "properties": {
	    "label": { "type": "string", "minLength": 1 }
	  }
	}`,

	parameterKey(schema.CategoryAction, schema.ActionRemoveLabel): `{
	  "type": "object",
	  "required": ["label"],
	  "properties": {
	    "label": { "type": "string", "minLength": 1 }
	  }
	}`,

	parameterKey(schema.CategoryAction, schema.ActionSendNotification): `{
	  "type": "object",
	  "required": ["provider"],
	  "properties": {
	    "provider": { "type": "string", "enum": ["webhook", "slack", "telegram"] },
	    "config": { "type": "object" },
	    "message": { "type": "string" }
	  }
	}`,

	parameterKey(schema.CategoryAction, schema.ActionRunSkill): `{
	  "type": "object",
	  "required": ["skillId"],
	  "properties": {
	    "skillId": { "type": "string", "minLength": 1 }
	  }
	}`,
}
