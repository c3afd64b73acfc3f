// Package validation checks workflow definitions at save time: the wire shape
// against a JSON Schema, and each node's parameters against a per-nodeType
// schema. Graph-structure validation (triggers, dangling edges, orphans)
// lives in the definition package; this layer only validates shapes.
package validation

import "github.com/mailflow/mailflow/pkg/schema"

// Validator checks workflow definitions for correctness before saving.
// Uses JSON Schema Draft 2020-12.
type Validator interface {
	ValidateDefinition(def *schema.WorkflowDefinition) error
	ValidateParameters(category schema.NodeCategory, nodeType string, params map[string]any) error
}
