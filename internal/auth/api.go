package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"janus/internal/models"
)

const defaultAPIKeyPrefix = "jk_"

// minimum key length after the prefix; keys shorter than this are noise
const minAPIKeyLength = 16

// APIValidator validates direct REST API credentials. API callers present a
// bearer-style key plus an explicit user_id; the key authenticates the
// integration, the user_id names the acting user.
type APIValidator struct {
	keyPrefix string
}

func NewAPIValidator(keyPrefix string) *APIValidator {
	if keyPrefix == "" {
		keyPrefix = defaultAPIKeyPrefix
	}
	return &APIValidator{keyPrefix: keyPrefix}
}

func (v *APIValidator) SourceType() string {
	return "api"
}

func (v *APIValidator) ValidateCredentialFormat(creds *models.SourceCredentials) error {
	if creds.SourceType != v.SourceType() {
		return fmt.Errorf("source type mismatch: %s", creds.SourceType)
	}
	key := creds.StringCredential("api_key")
	if key == "" {
		return fmt.Errorf("missing api_key credential")
	}
	if !strings.HasPrefix(key, v.keyPrefix) {
		return fmt.Errorf("api key has invalid prefix")
	}
	if len(key) < len(v.keyPrefix)+minAPIKeyLength {
		return fmt.Errorf("api key too short")
	}
	if creds.Expired(time.Now().UTC()) {
		return fmt.Errorf("credentials expired")
	}
	return nil
}

func (v *APIValidator) ExtractUserIdentity(_ context.Context, creds *models.SourceCredentials, requestContext map[string]interface{}) (string, error) {
	if userID := creds.StringCredential("user_id"); userID != "" {
		return userID, nil
	}
	if userID, ok := requestContext["user_id"].(string); ok && userID != "" {
		return userID, nil
	}
	return "", fmt.Errorf("no user identity in credentials or request context")
}
