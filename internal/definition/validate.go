package definition

import (
	"fmt"

	"github.com/mailflow/mailflow/pkg/schema"
)

// Validate checks graph well-formedness without mutating or executing
// anything. Errors: no trigger node, connection targets referencing missing
// node IDs, unknown node categories, and active non-trigger nodes unreachable
// from any trigger. Warnings: connection sources referencing missing node
// IDs. Disabled nodes are excluded from the reachability check.
func Validate(nodes []schema.WorkflowNode, conns schema.Connections) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	byID := make(map[string]*schema.WorkflowNode, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	var triggerIDs []string
	for _, n := range nodes {
		if n.Category == schema.CategoryUnknown {
			result.AddError(n.ID, schema.ErrCodeValidation,
				fmt.Sprintf("node %q has unknown type %q", n.ID, n.Type))
		}
		if n.Category == schema.CategoryTrigger {
			triggerIDs = append(triggerIDs, n.ID)
		}
	}

	if len(triggerIDs) == 0 {
		result.AddError("/", schema.ErrCodeValidation, "workflow must have at least one trigger node")
	}

	for sourceID, nc := range conns {
		if _, ok := byID[sourceID]; !ok {
			result.AddWarning(sourceID, schema.ErrCodeValidation,
				fmt.Sprintf("connection source %q does not exist", sourceID))
		}
		for _, port := range nc.Main {
			for _, target := range port {
				if _, ok := byID[target.Node]; !ok {
					result.AddError(sourceID, schema.ErrCodeValidation,
						fmt.Sprintf("connection from %q targets missing node %q", sourceID, target.Node))
				}
			}
		}
	}

	// Orphan check: BFS forward from all triggers over every port, then flag
	// active non-trigger nodes the walk never reached.
	reached := make(map[string]bool, len(nodes))
	queue := append([]string(nil), triggerIDs...)
	for _, id := range queue {
		reached[id] = true
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, port := range conns[id].Main {
			for _, target := range port {
				if reached[target.Node] {
					continue
				}
				reached[target.Node] = true
				queue = append(queue, target.Node)
			}
		}
	}

	for _, n := range nodes {
		if n.Disabled || n.Category == schema.CategoryTrigger {
			continue
		}
		if !reached[n.ID] {
			result.AddError(n.ID, schema.ErrCodeValidation,
				fmt.Sprintf("node %q is not reachable from any trigger", n.ID))
		}
	}

	return result
}
