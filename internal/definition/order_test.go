package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailflow/mailflow/pkg/schema"
)

func conn(targets ...string) []schema.ConnectionTarget {
	out := make([]schema.ConnectionTarget, len(targets))
	for i, tgt := range targets {
		out[i] = schema.ConnectionTarget{Node: tgt}
	}
	return out
}

// assertTopological checks that every node appears after all of its in-edge
// sources, over active nodes only.
func assertTopological(t *testing.T, order []string, nodes []schema.WorkflowNode, conns schema.Connections) {
	t.Helper()

	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}
	active := make(map[string]bool)
	for _, n := range nodes {
		if !n.Disabled {
			active[n.ID] = true
		}
	}

	for sourceID, nc := range conns {
		if !active[sourceID] {
			continue
		}
		for _, port := range nc.Main {
			for _, target := range port {
				if !active[target.Node] {
					continue
				}
				srcPos, ok := position[sourceID]
				require.True(t, ok, "source %s missing from order", sourceID)
				tgtPos, ok := position[target.Node]
				require.True(t, ok, "target %s missing from order", target.Node)
				assert.Less(t, srcPos, tgtPos, "%s must precede %s", sourceID, target.Node)
			}
		}
	}
}

func TestExecutionOrder_Linear(t *testing.T) {
	nodes := []schema.WorkflowNode{
		{ID: "trigger", Category: schema.CategoryTrigger},
		{ID: "cond", Category: schema.CategoryCondition},
		{ID: "act", Category: schema.CategoryAction},
	}
	conns := schema.Connections{
		"trigger": {Main: [][]schema.ConnectionTarget{conn("cond")}},
		"cond":    {Main: [][]schema.ConnectionTarget{conn("act")}},
	}

	order := ExecutionOrder(nodes, conns)
	assert.Equal(t, []string{"trigger", "cond", "act"}, order)
}

func TestExecutionOrder_Diamond(t *testing.T) {
	nodes := []schema.WorkflowNode{
		{ID: "t", Category: schema.CategoryTrigger},
		{ID: "a", Category: schema.CategoryAction},
		{ID: "b", Category: schema.CategoryAction},
		{ID: "join", Category: schema.CategoryAction},
	}
	conns := schema.Connections{
		"t": {Main: [][]schema.ConnectionTarget{conn("a", "b")}},
		"a": {Main: [][]schema.ConnectionTarget{conn("join")}},
		"b": {Main: [][]schema.ConnectionTarget{conn("join")}},
	}

	order := ExecutionOrder(nodes, conns)
	require.Len(t, order, 4)
	assertTopological(t, order, nodes, conns)
	assert.Equal(t, "t", order[0])
	assert.Equal(t, "join", order[3])
}

func TestExecutionOrder_DisabledNodesExcluded(t *testing.T) {
	nodes := []schema.WorkflowNode{
		{ID: "t", Category: schema.CategoryTrigger},
		{ID: "off", Category: schema.CategoryAction, Disabled: true},
		{ID: "act", Category: schema.CategoryAction},
	}
	conns := schema.Connections{
		"t":   {Main: [][]schema.ConnectionTarget{conn("off", "act")}},
		"off": {Main: [][]schema.ConnectionTarget{conn("act")}},
	}

	order := ExecutionOrder(nodes, conns)
	assert.Equal(t, []string{"t", "act"}, order)
}

func TestExecutionOrder_MultiplePortsRespected(t *testing.T) {
	nodes := []schema.WorkflowNode{
		{ID: "t", Category: schema.CategoryTrigger},
		{ID: "classify", Category: schema.CategoryCondition},
		{ID: "promo", Category: schema.CategoryAction},
		{ID: "news", Category: schema.CategoryAction},
		{ID: "other", Category: schema.CategoryAction},
	}
	conns := schema.Connections{
		"t": {Main: [][]schema.ConnectionTarget{conn("classify")}},
		"classify": {Main: [][]schema.ConnectionTarget{
			conn("promo"),
			conn("news"),
			conn("other"),
		}},
	}

	order := ExecutionOrder(nodes, conns)
	require.Len(t, order, 5)
	assertTopological(t, order, nodes, conns)
}

func TestExecutionOrder_DanglingTargetIgnored(t *testing.T) {
	nodes := []schema.WorkflowNode{
		{ID: "t", Category: schema.CategoryTrigger},
	}
	conns := schema.Connections{
		"t": {Main: [][]schema.ConnectionTarget{conn("ghost")}},
	}

	order := ExecutionOrder(nodes, conns)
	assert.Equal(t, []string{"t"}, order)
}

func TestExecutionOrder_Empty(t *testing.T) {
	assert.Empty(t, ExecutionOrder(nil, nil))
}
