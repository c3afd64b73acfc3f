// Package condition evaluates condition nodes against a trigger context:
// synchronous pattern/label/keyword/expression checks plus the asynchronous
// AI-classification condition used for multi-output routing.
package condition

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mailflow/mailflow/internal/ai"
	"github.com/mailflow/mailflow/pkg/schema"
)

// Evaluator evaluates condition nodes. The AI resolver is only consulted for
// ai_classification nodes; it may be nil, in which case classification
// degrades to the "other" route.
type Evaluator struct {
	resolver ai.Resolver
	logger   *slog.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(resolver ai.Resolver, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{resolver: resolver, logger: logger}
}

// Evaluate runs a synchronous condition and returns a bare pass/fail.
// Missing required parameters and unknown condition types evaluate to false.
func (e *Evaluator) Evaluate(node *schema.WorkflowNode, trig *schema.TriggerContext) bool {
	if node == nil || trig == nil {
		return false
	}

	switch node.Type {
	case schema.ConditionSenderMatch:
		return matchGlob(stringParam(node.Parameters, "pattern"), emailFrom(trig))
	case schema.ConditionSubjectMatch:
		return matchGlob(stringParam(node.Parameters, "pattern"), emailSubject(trig))
	case schema.ConditionLabelMatch:
		return matchLabels(node.Parameters, trig)
	case schema.ConditionKeywordMatch:
		return matchKeywords(node.Parameters, trig)
	case schema.ConditionExpression:
		return evalExpression(stringParam(node.Parameters, "expression"), trig)
	default:
		return false
	}
}

// EvaluateAsync evaluates any condition node, including ai_classification.
// Synchronous conditions are wrapped as {Passed, OutputIndex: 0 when passed,
// nil when failed}; classification handles its own routing and never fails.
func (e *Evaluator) EvaluateAsync(ctx context.Context, node *schema.WorkflowNode, trig *schema.TriggerContext, connectionID string) *schema.ConditionResult {
	if node != nil && node.Type == schema.ConditionAIClassification {
		return e.classify(ctx, node, trig, connectionID)
	}

	passed := e.Evaluate(node, trig)
	result := &schema.ConditionResult{Passed: passed}
	if passed {
		zero := 0
		result.OutputIndex = &zero
	}
	return result
}

// classifySystemPrompt constrains the completion to a single category name.
const classifySystemPrompt = "You are an email classifier. You will be given an email and a list of " +
	"category names. Respond with exactly one of the category names, or \"other\" if none apply. " +
	"Respond with the category name only, no explanation."

// classify routes an email to one of the node's category ports. The result
// always reports Passed=true: classification only redirects the run, and any
// resolver or call failure falls through to the trailing "other" port.
func (e *Evaluator) classify(ctx context.Context, node *schema.WorkflowNode, trig *schema.TriggerContext, connectionID string) *schema.ConditionResult {
	categories := stringSliceParam(node.Parameters, "categories")
	otherIndex := len(categories)

	other := func(reason string, err error) *schema.ConditionResult {
		if err != nil {
			e.logger.WarnContext(ctx, "ai classification degraded to other",
				slog.String("node_id", node.ID), slog.String("reason", reason), slog.Any("error", err))
		}
		return &schema.ConditionResult{Passed: true, OutputIndex: &otherIndex, Category: "other"}
	}

	if len(categories) == 0 || e.resolver == nil {
		return other("", nil)
	}

	completer, err := e.resolver(ctx, connectionID)
	if err != nil {
		return other("resolver", err)
	}

	prompt := fmt.Sprintf("Categories: %s\n\nSubject: %s\nFrom: %s\nBody: %s",
		strings.Join(categories, ", "), emailSubject(trig), emailFrom(trig), emailSnippet(trig))

	raw, err := completer.Complete(ctx, classifySystemPrompt, prompt)
	if err != nil {
		return other("completion", err)
	}

	answer := strings.ToLower(strings.TrimSpace(raw))
	for i, category := range categories {
		if strings.EqualFold(answer, category) {
			idx := i
			return &schema.ConditionResult{Passed: true, OutputIndex: &idx, Category: category}
		}
	}
	return other("", nil)
}

// --- synchronous matchers ---

// matchGlob compiles a glob pattern into an anchored case-insensitive regex
// and matches the whole value. Metacharacters are escaped before the `*`
// substitution; changing that order would change pattern semantics.
func matchGlob(pattern, value string) bool {
	if pattern == "" {
		return false
	}
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, `.*`)
	re, err := regexp.Compile(`(?i)^` + escaped + `$`)
	if err != nil {
		return false
	}
	return re.MatchString(value)
}

// matchLabels checks case-insensitive membership of the configured labels in
// the thread's labels. mode "any" (default) requires one hit, "all" requires
// every configured label present.
func matchLabels(params map[string]any, trig *schema.TriggerContext) bool {
	wanted := stringSliceParam(params, "labels")
	if len(wanted) == 0 || trig.Email == nil {
		return false
	}

	have := make(map[string]bool, len(trig.Email.Labels))
	for _, l := range trig.Email.Labels {
		have[strings.ToLower(l)] = true
	}

	mode := stringParam(params, "mode")
	if mode == "all" {
		for _, w := range wanted {
			if !have[strings.ToLower(w)] {
				return false
			}
		}
		return true
	}
	for _, w := range wanted {
		if have[strings.ToLower(w)] {
			return true
		}
	}
	return false
}

// matchKeywords searches case-insensitively for any keyword in the subject,
// the body snippet, or both, per the location parameter.
func matchKeywords(params map[string]any, trig *schema.TriggerContext) bool {
	keywords := stringSliceParam(params, "keywords")
	if len(keywords) == 0 || trig.Email == nil {
		return false
	}

	var haystack string
	switch stringParam(params, "location") {
	case "subject":
		haystack = emailSubject(trig)
	case "body":
		haystack = emailSnippet(trig)
	default:
		haystack = emailSubject(trig) + "\n" + emailSnippet(trig)
	}
	haystack = strings.ToLower(haystack)

	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// --- trigger snapshot accessors ---

func emailFrom(trig *schema.TriggerContext) string {
	if trig == nil || trig.Email == nil {
		return ""
	}
	return trig.Email.From
}

func emailSubject(trig *schema.TriggerContext) string {
	if trig == nil || trig.Email == nil {
		return ""
	}
	return trig.Email.Subject
}

func emailSnippet(trig *schema.TriggerContext) string {
	if trig == nil || trig.Email == nil {
		return ""
	}
	return trig.Email.Snippet
}

// --- parameter helpers ---

func stringParam(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func stringSliceParam(m map[string]any, key string) []string {
	if m == nil {
		return nil
	}
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
