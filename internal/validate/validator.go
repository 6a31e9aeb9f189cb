package validate

import (
	"context"
	"time"

	stageerrors "janus/internal/common/errors"
	"janus/internal/common/logger"
	"janus/internal/models"
)

// Validator composes format validation and safety checking into the second
// pipeline stage. Validation is deterministic: the same raw input always
// produces the same ValidatedInput modulo timing.
type Validator struct {
	format FormatValidator
	safety *SafetyValidator
	logger logger.Logger
}

func NewValidator(format FormatValidator, safety *SafetyValidator, log logger.Logger) *Validator {
	return &Validator{
		format: format,
		safety: safety,
		logger: log.WithFields(map[string]interface{}{"sourceType": format.SourceType()}),
	}
}

// SourceType returns the source type this validator handles.
func (v *Validator) SourceType() string {
	return v.format.SourceType()
}

// Validate runs format validation then safety checks, and normalizes the
// input. The auth context gates validation: only authenticated requests
// reach this stage.
func (v *Validator) Validate(ctx context.Context, raw interface{}, authCtx *models.AuthContext) (*models.ValidatedInput, error) {
	start := time.Now()

	if authCtx == nil {
		return nil, stageerrors.NewFormatValidationError(
			"validation requires an authenticated context", nil, "authenticate before validating",
		)
	}

	normalized, err := v.format.ValidateFormat(raw)
	if err != nil {
		v.logger.Debug("format validation rejected input", map[string]interface{}{
			"userId": authCtx.UserID,
			"cause":  err.Error(),
		})
		return nil, err
	}

	sizeBytes := InputSizeBytes(raw)

	report, err := v.safety.Check(normalized, sizeBytes)
	if err != nil {
		v.logger.Debug("safety check rejected input", map[string]interface{}{
			"userId":    authCtx.UserID,
			"sizeBytes": sizeBytes,
			"cause":     err.Error(),
		})
		return nil, err
	}

	// Classification runs on the normalized form so source envelopes (for
	// example Slack's event wrapper) do not hide the actual message.
	contentType := DetectContentType(normalized)
	text := ExtractText(normalized)

	validated := &models.ValidatedInput{
		RawInput:             raw,
		NormalizedInput:      normalized,
		ValidationConfidence: report.Score,
		ValidationWarnings:   report.Warnings,
		DetectedLanguage:     DetectLanguage(text),
		ContentType:          contentType,
		InputSizeBytes:       sizeBytes,
		ProcessingTimeMS:     time.Since(start).Milliseconds(),
	}

	v.logger.Debug("input validated", map[string]interface{}{
		"userId":      authCtx.UserID,
		"contentType": contentType,
		"sizeBytes":   sizeBytes,
		"confidence":  report.Score,
		"warnings":    len(report.Warnings),
	})

	return validated, nil
}

// HealthCheck reports the status of each validation component.
func (v *Validator) HealthCheck(_ context.Context) map[string]bool {
	return map[string]bool{
		"format_validator": v.format != nil,
		"safety_validator": v.safety != nil,
	}
}
