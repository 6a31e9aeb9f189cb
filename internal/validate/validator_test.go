package validate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"janus/internal/common/config"
	stageerrors "janus/internal/common/errors"
	"janus/internal/common/logger"
	"janus/internal/models"
)

func testAuthContext() *models.AuthContext {
	return &models.AuthContext{
		UserID:             "user-1",
		SourceType:         "api",
		SourceID:           "rest",
		GrantedPermissions: []string{"chat"},
		AuthenticatedAt:    time.Now().UTC(),
	}
}

func newAPIValidator(t *testing.T) *Validator {
	t.Helper()
	return NewValidator(
		NewAPIFormatValidator(),
		NewSafetyValidator(config.DefaultSafetyLimits()),
		logger.NewTestLogger(t),
	)
}

func TestValidator_Validate_PlainString(t *testing.T) {
	v := newAPIValidator(t)

	validated, err := v.Validate(context.Background(), "hello there", testAuthContext())

	require.NoError(t, err)
	assert.Equal(t, "hello there", validated.Text())
	assert.Equal(t, models.ContentTypeText, validated.ContentType)
	assert.Equal(t, 11, validated.InputSizeBytes)
	assert.Equal(t, 1.0, validated.ValidationConfidence)
	assert.Equal(t, "en", validated.DetectedLanguage)
}

func TestValidator_Validate_CommandDetection(t *testing.T) {
	v := newAPIValidator(t)

	validated, err := v.Validate(context.Background(), map[string]interface{}{"text": "/help"}, testAuthContext())

	require.NoError(t, err)
	assert.Equal(t, models.ContentTypeCommand, validated.ContentType)
}

func TestValidator_Validate_OversizedTextRejected(t *testing.T) {
	limits := config.DefaultSafetyLimits()
	v := NewValidator(NewAPIFormatValidator(), NewSafetyValidator(limits), logger.NewTestLogger(t))

	big := strings.Repeat("a", limits.MaxTextLength+1)
	_, err := v.Validate(context.Background(), map[string]interface{}{"text": big}, testAuthContext())

	require.Error(t, err)
	var valErr *stageerrors.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "safety", valErr.ValidationStage)
	assert.NotEmpty(t, valErr.SuggestedFix)
}

func TestValidator_Validate_RequiresAuthContext(t *testing.T) {
	v := newAPIValidator(t)

	_, err := v.Validate(context.Background(), "hello", nil)
	assert.Error(t, err)
}

func TestValidator_Validate_Deterministic(t *testing.T) {
	// Validating the same input twice yields identical results apart from
	// timing.
	v := newAPIValidator(t)
	raw := map[string]interface{}{"text": "hello world"}

	first, err := v.Validate(context.Background(), raw, testAuthContext())
	require.NoError(t, err)
	second, err := v.Validate(context.Background(), raw, testAuthContext())
	require.NoError(t, err)

	assert.Equal(t, first.NormalizedInput, second.NormalizedInput)
	assert.Equal(t, first.ContentType, second.ContentType)
	assert.Equal(t, first.InputSizeBytes, second.InputSizeBytes)
	assert.Equal(t, first.ValidationConfidence, second.ValidationConfidence)
}

func TestWebhookFormatValidator(t *testing.T) {
	v, err := NewWebhookFormatValidator()
	require.NoError(t, err)

	t.Run("valid payload", func(t *testing.T) {
		payload, err := v.ValidateFormat(map[string]interface{}{
			"event": "push",
			"text":  "deploy finished",
		})
		require.NoError(t, err)
		assert.Equal(t, "push", payload["event"])
	})

	t.Run("missing event field", func(t *testing.T) {
		_, err := v.ValidateFormat(map[string]interface{}{"text": "no event"})
		require.Error(t, err)

		var valErr *stageerrors.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, "format", valErr.ValidationStage)
		assert.NotEmpty(t, valErr.FieldErrors)
	})

	t.Run("json string payload is decoded", func(t *testing.T) {
		payload, err := v.ValidateFormat(`{"event":"push"}`)
		require.NoError(t, err)
		assert.Equal(t, "push", payload["event"])
	})

	t.Run("invalid json string rejected", func(t *testing.T) {
		_, err := v.ValidateFormat(`{not json`)
		assert.Error(t, err)
	})
}

func TestSlackFormatValidator(t *testing.T) {
	v := NewSlackFormatValidator()

	t.Run("event envelope flattened", func(t *testing.T) {
		payload, err := v.ValidateFormat(map[string]interface{}{
			"team_id": "T123",
			"event": map[string]interface{}{
				"type": "message",
				"user": "U123",
				"text": "hello",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "hello", payload["text"])
		assert.Equal(t, "T123", payload["team_id"])
	})

	t.Run("missing event object", func(t *testing.T) {
		_, err := v.ValidateFormat(map[string]interface{}{"team_id": "T123"})
		assert.Error(t, err)
	})

	t.Run("missing event type", func(t *testing.T) {
		_, err := v.ValidateFormat(map[string]interface{}{
			"event": map[string]interface{}{"user": "U123"},
		})
		assert.Error(t, err)
	})
}

func TestSafetyValidator_AttachmentLimit(t *testing.T) {
	limits := config.SafetyLimits{MaxTextLength: 100, MaxTotalSize: 10000, MaxAttachments: 2}
	v := NewSafetyValidator(limits)

	attachments := []interface{}{1, 2, 3}
	_, err := v.Check(map[string]interface{}{"attachments": attachments}, 50)
	assert.Error(t, err)

	report, err := v.Check(map[string]interface{}{"attachments": attachments[:2]}, 50)
	require.NoError(t, err)
	assert.Contains(t, report.ChecksPassed, "attachment_count")
}

func TestSafetyValidator_WarningsLowerScore(t *testing.T) {
	v := NewSafetyValidator(config.DefaultSafetyLimits())

	report, err := v.Check(map[string]interface{}{"text": "null\x00byte"}, 9)
	require.NoError(t, err)
	assert.Less(t, report.Score, 1.0)
	assert.NotEmpty(t, report.Warnings)
}
