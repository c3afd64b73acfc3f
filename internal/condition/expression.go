package condition

import (
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/mailflow/mailflow/pkg/schema"
)

// exprCache caches compiled programs so repeated evaluations of the same
// expression (every matching event) skip recompilation.
var exprCache = struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}{cache: make(map[string]*vm.Program)}

// evalExpression evaluates an expression condition against the trigger
// snapshot. The environment exposes subject, from, snippet, labels and kind
// as top-level variables. Anything other than a boolean true result,
// including compile and runtime errors, evaluates to false.
func evalExpression(expression string, trig *schema.TriggerContext) bool {
	if expression == "" {
		return false
	}

	env := map[string]any{
		"kind":    string(trig.Kind),
		"subject": emailSubject(trig),
		"from":    emailFrom(trig),
		"snippet": emailSnippet(trig),
		"labels":  emailLabels(trig),
	}

	prg, err := compileExpression(expression)
	if err != nil {
		return false
	}

	out, err := vm.Run(prg, env)
	if err != nil {
		return false
	}
	passed, ok := out.(bool)
	return ok && passed
}

func compileExpression(expression string) (*vm.Program, error) {
	exprCache.mu.RLock()
	prg, ok := exprCache.cache[expression]
	exprCache.mu.RUnlock()
	if ok {
		return prg, nil
	}

	exprCache.mu.Lock()
	defer exprCache.mu.Unlock()
	if prg, ok := exprCache.cache[expression]; ok {
		return prg, nil
	}

	prg, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	exprCache.cache[expression] = prg
	return prg, nil
}

func emailLabels(trig *schema.TriggerContext) []string {
	if trig == nil || trig.Email == nil {
		return nil
	}
	return trig.Email.Labels
}
