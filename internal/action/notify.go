package action

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mailflow/mailflow/internal/definition"
	"github.com/mailflow/mailflow/pkg/schema"
)

// sendNotification dispatches a message to a webhook, Slack, or Telegram
// transport. The message body goes through template interpolation first. Any
// non-success HTTP response is reported as a failed result, never raised.
func (e *Executor) sendNotification(ctx context.Context, actx Context, params map[string]any) *schema.ActionResult {
	provider := stringParam(params, "provider")
	config := mapParam(params, "config")
	message := definition.Interpolate(stringParam(params, "message"), actx.Trigger, actx.EnvVars)

	switch provider {
	case "webhook":
		endpoint := stringParam(config, "url")
		if endpoint == "" {
			return failure("webhook notification requires config.url")
		}
		return e.postJSON(ctx, endpoint, map[string]any{"message": message})

	case "slack":
		endpoint := stringParam(config, "webhookUrl")
		if endpoint == "" {
			return failure("slack notification requires config.webhookUrl")
		}
		return e.postJSON(ctx, endpoint, map[string]any{"text": message})

	case "telegram":
		token := stringParam(config, "botToken")
		chatID := stringParam(config, "chatId")
		if token == "" || chatID == "" {
			return failure("telegram notification requires config.botToken and config.chatId")
		}
		endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", url.PathEscape(token))
		return e.postJSON(ctx, endpoint, map[string]any{"chat_id": chatID, "text": message})

	default:
		return failure(fmt.Sprintf("unknown notification provider %q", provider))
	}
}

func (e *Executor) postJSON(ctx context.Context, endpoint string, payload map[string]any) *schema.ActionResult {
	body, err := json.Marshal(payload)
	if err != nil {
		return failure(fmt.Sprintf("marshal notification payload: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return failure(fmt.Sprintf("create notification request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return failure(fmt.Sprintf("notification request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failure(fmt.Sprintf("notification endpoint returned %d", resp.StatusCode))
	}
	return &schema.ActionResult{Success: true, Output: fmt.Sprintf("notification sent (%d)", resp.StatusCode)}
}
