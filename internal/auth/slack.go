package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"janus/internal/models"
)

const slackBotTokenPrefix = "xoxb-"

// SlackValidator authenticates Slack event deliveries. The bot token proves
// the workspace installation; the acting user comes from the event payload.
type SlackValidator struct {
	signingSecret string
}

func NewSlackValidator(signingSecret string) *SlackValidator {
	return &SlackValidator{signingSecret: signingSecret}
}

func (v *SlackValidator) SourceType() string {
	return "slack"
}

func (v *SlackValidator) ValidateCredentialFormat(creds *models.SourceCredentials) error {
	if creds.SourceType != v.SourceType() {
		return fmt.Errorf("source type mismatch: %s", creds.SourceType)
	}
	token := creds.StringCredential("bot_token")
	if token == "" {
		return fmt.Errorf("missing bot_token credential")
	}
	if !strings.HasPrefix(token, slackBotTokenPrefix) {
		return fmt.Errorf("bot token has invalid prefix")
	}
	if v.signingSecret != "" {
		if secret := creds.StringCredential("signing_secret"); secret != v.signingSecret {
			return fmt.Errorf("signing secret mismatch")
		}
	}
	if creds.Expired(time.Now().UTC()) {
		return fmt.Errorf("credentials expired")
	}
	return nil
}

func (v *SlackValidator) ExtractUserIdentity(_ context.Context, creds *models.SourceCredentials, requestContext map[string]interface{}) (string, error) {
	// Slack events carry the user inside the event payload, not the token.
	if event, ok := requestContext["event"].(map[string]interface{}); ok {
		if userID, ok := event["user"].(string); ok && userID != "" {
			return userID, nil
		}
	}
	if userID, ok := requestContext["user_id"].(string); ok && userID != "" {
		return userID, nil
	}
	if userID := creds.StringCredential("user_id"); userID != "" {
		return userID, nil
	}
	return "", fmt.Errorf("no user in slack event payload")
}
