package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailflow/mailflow/pkg/schema"
)

func TestValidate_ValidWorkflow(t *testing.T) {
	nodes := []schema.WorkflowNode{
		{ID: "t", Category: schema.CategoryTrigger, Type: schema.TriggerEmailReceived},
		{ID: "c", Category: schema.CategoryCondition, Type: schema.ConditionSenderMatch},
		{ID: "a", Category: schema.CategoryAction, Type: schema.ActionMarkRead},
	}
	conns := schema.Connections{
		"t": {Main: [][]schema.ConnectionTarget{conn("c")}},
		"c": {Main: [][]schema.ConnectionTarget{conn("a")}},
	}

	result := Validate(nodes, conns)
	assert.True(t, result.Valid())
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidate_NoTrigger(t *testing.T) {
	// The missing-trigger error must not depend on node ordering.
	orderings := [][]schema.WorkflowNode{
		{
			{ID: "c", Category: schema.CategoryCondition},
			{ID: "a", Category: schema.CategoryAction},
		},
		{
			{ID: "a", Category: schema.CategoryAction},
			{ID: "c", Category: schema.CategoryCondition},
		},
	}

	for _, nodes := range orderings {
		result := Validate(nodes, nil)
		assert.False(t, result.Valid())

		found := false
		for _, issue := range result.Errors {
			if issue.Message == "workflow must have at least one trigger node" {
				found = true
			}
		}
		assert.True(t, found, "missing trigger error not reported")
	}
}

func TestValidate_DanglingTarget(t *testing.T) {
	nodes := []schema.WorkflowNode{
		{ID: "t", Category: schema.CategoryTrigger},
	}
	conns := schema.Connections{
		"t": {Main: [][]schema.ConnectionTarget{conn("ghost")}},
	}

	result := Validate(nodes, conns)
	require.False(t, result.Valid())
	assert.Contains(t, result.Errors[0].Message, `targets missing node "ghost"`)
}

func TestValidate_DanglingSourceIsWarning(t *testing.T) {
	nodes := []schema.WorkflowNode{
		{ID: "t", Category: schema.CategoryTrigger},
		{ID: "a", Category: schema.CategoryAction},
	}
	conns := schema.Connections{
		"t":     {Main: [][]schema.ConnectionTarget{conn("a")}},
		"ghost": {Main: [][]schema.ConnectionTarget{conn("a")}},
	}

	result := Validate(nodes, conns)
	assert.True(t, result.Valid())
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, `"ghost" does not exist`)
}

func TestValidate_OrphanNode(t *testing.T) {
	nodes := []schema.WorkflowNode{
		{ID: "t", Category: schema.CategoryTrigger},
		{ID: "island", Category: schema.CategoryAction},
	}

	result := Validate(nodes, schema.Connections{})
	require.False(t, result.Valid())
	assert.Contains(t, result.Errors[0].Message, "not reachable from any trigger")
	assert.Equal(t, "island", result.Errors[0].Path)
}

func TestValidate_DisabledNodeNotOrphan(t *testing.T) {
	nodes := []schema.WorkflowNode{
		{ID: "t", Category: schema.CategoryTrigger},
		{ID: "off", Category: schema.CategoryAction, Disabled: true},
	}

	result := Validate(nodes, schema.Connections{})
	assert.True(t, result.Valid())
}

func TestValidate_UnknownCategory(t *testing.T) {
	nodes := []schema.WorkflowNode{
		{ID: "t", Category: schema.CategoryTrigger},
		{ID: "x", Category: schema.CategoryUnknown, Type: "vendor.mystery"},
	}
	conns := schema.Connections{
		"t": {Main: [][]schema.ConnectionTarget{conn("x")}},
	}

	result := Validate(nodes, conns)
	require.False(t, result.Valid())
	assert.Contains(t, result.Errors[0].Message, `unknown type "vendor.mystery"`)
}

func TestValidate_MultiPortReachability(t *testing.T) {
	// Nodes hanging off a secondary classification port are still reachable.
	nodes := []schema.WorkflowNode{
		{ID: "t", Category: schema.CategoryTrigger},
		{ID: "classify", Category: schema.CategoryCondition},
		{ID: "other", Category: schema.CategoryAction},
	}
	conns := schema.Connections{
		"t": {Main: [][]schema.ConnectionTarget{conn("classify")}},
		"classify": {Main: [][]schema.ConnectionTarget{
			nil,
			conn("other"),
		}},
	}

	result := Validate(nodes, conns)
	assert.True(t, result.Valid())
}
