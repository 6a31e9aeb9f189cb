package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"janus/internal/common/config"
	stageerrors "janus/internal/common/errors"
)

// SafetyReport summarizes the safety checks applied to one input.
type SafetyReport struct {
	Score        float64  `json:"score"`
	ChecksPassed []string `json:"checks_passed"`
	Warnings     []string `json:"warnings"`
	SizeBytes    int      `json:"size_bytes"`
}

// SafetyValidator enforces size and content limits on authenticated input.
// Limits come from configuration so operators can tune them per deployment.
type SafetyValidator struct {
	limits config.SafetyLimits
}

func NewSafetyValidator(limits config.SafetyLimits) *SafetyValidator {
	return &SafetyValidator{limits: limits}
}

// Check runs all safety checks on the payload. A hard limit violation returns
// a *stageerrors.ValidationError; soft findings only lower the score and add
// warnings.
func (v *SafetyValidator) Check(payload map[string]interface{}, sizeBytes int) (*SafetyReport, error) {
	report := &SafetyReport{
		Score:        1.0,
		ChecksPassed: []string{},
		Warnings:     []string{},
		SizeBytes:    sizeBytes,
	}

	if sizeBytes > v.limits.MaxTotalSize {
		return nil, stageerrors.NewSafetyValidationError(
			fmt.Sprintf("input size %d bytes exceeds limit of %d", sizeBytes, v.limits.MaxTotalSize),
			map[string]string{"input": "payload too large"},
			fmt.Sprintf("reduce the payload below %d bytes", v.limits.MaxTotalSize),
		)
	}
	report.ChecksPassed = append(report.ChecksPassed, "total_size")

	if text, ok := payload["text"].(string); ok {
		if utf8.RuneCountInString(text) > v.limits.MaxTextLength {
			return nil, stageerrors.NewSafetyValidationError(
				fmt.Sprintf("text length exceeds limit of %d characters", v.limits.MaxTextLength),
				map[string]string{"text": "text too long"},
				fmt.Sprintf("shorten the message below %d characters", v.limits.MaxTextLength),
			)
		}
		report.ChecksPassed = append(report.ChecksPassed, "text_length")

		if !utf8.ValidString(text) {
			report.Score -= 0.2
			report.Warnings = append(report.Warnings, "text contains invalid utf-8 sequences")
		}
		if strings.ContainsRune(text, '\x00') {
			report.Score -= 0.3
			report.Warnings = append(report.Warnings, "text contains null bytes")
		}
	}

	if attachments, ok := payload["attachments"].([]interface{}); ok {
		if len(attachments) > v.limits.MaxAttachments {
			return nil, stageerrors.NewSafetyValidationError(
				fmt.Sprintf("attachment count %d exceeds limit of %d", len(attachments), v.limits.MaxAttachments),
				map[string]string{"attachments": "too many attachments"},
				fmt.Sprintf("send at most %d attachments", v.limits.MaxAttachments),
			)
		}
		report.ChecksPassed = append(report.ChecksPassed, "attachment_count")
	}

	if report.Score < 0 {
		report.Score = 0
	}
	return report, nil
}
