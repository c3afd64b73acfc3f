package definition

import (
	"regexp"
	"strings"
	"time"

	"github.com/mailflow/mailflow/pkg/schema"
)

// tokenPattern matches {{$<source>.<field>}} references in message templates.
var tokenPattern = regexp.MustCompile(`\{\{\$(\w+)\.(\w+)\}\}`)

// Interpolate replaces {{$trigger.<field>}} and {{$env.<NAME>}} tokens in a
// message template. Unknown source tags and missing fields or env vars
// resolve to the empty string; interpolation never fails.
func Interpolate(template string, trig *schema.TriggerContext, env map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(template, func(token string) string {
		parts := tokenPattern.FindStringSubmatch(token)
		source, field := parts[1], parts[2]

		switch source {
		case "trigger":
			return triggerField(trig, field)
		case "env":
			return env[field]
		default:
			return ""
		}
	})
}

func triggerField(trig *schema.TriggerContext, field string) string {
	if trig == nil {
		return ""
	}

	switch field {
	case "kind":
		return string(trig.Kind)
	case "label":
		if trig.LabelChange != nil {
			return trig.LabelChange.Label
		}
		return ""
	}

	if trig.Email == nil {
		return ""
	}
	switch field {
	case "threadId":
		return trig.Email.ThreadID
	case "subject":
		return trig.Email.Subject
	case "from", "sender":
		return trig.Email.From
	case "snippet":
		return trig.Email.Snippet
	case "labels":
		return strings.Join(trig.Email.Labels, ", ")
	case "receivedAt":
		if trig.Email.ReceivedAt.IsZero() {
			return ""
		}
		return trig.Email.ReceivedAt.Format(time.RFC3339)
	default:
		return ""
	}
}
