// Package errors provides the structured error taxonomy for the input pipeline.
package errors

import (
	"fmt"
	"time"
)

// Stable error type tags. Callers route on these, never on message text.
const (
	TypeAuthentication = "authentication_error"
	TypeValidation     = "validation_error"
	TypeProcessing     = "processing_error"
	TypeCapability     = "capability_error"
	TypePipeline       = "pipeline_error"
)

// StageError is implemented by every error kind a pipeline stage can return.
type StageError interface {
	error
	ErrorType() string
}

// ==========================
// 1. Authentication
// ==========================

// AuthenticationError reports a credential, identity, or permission failure.
// It is always fatal to the current run; a request is never partially
// authenticated.
type AuthenticationError struct {
	Message          string    `json:"message"`
	FailureReason    string    `json:"auth_failure_reason"`
	RetryPossible    bool      `json:"retry_possible"`
	CredentialSource string    `json:"credential_source,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s: %s", TypeAuthentication, e.Message)
}

func (e *AuthenticationError) ErrorType() string { return TypeAuthentication }

// NewAuthenticationError creates a non-retryable authentication error with the
// uniform external message. Internal detail belongs in logs, not here: callers
// must not be able to distinguish a bad credential from an unknown user.
func NewAuthenticationError(reason, credentialSource string) *AuthenticationError {
	return &AuthenticationError{
		Message:          "authentication failed",
		FailureReason:    reason,
		RetryPossible:    false,
		CredentialSource: credentialSource,
		Timestamp:        time.Now().UTC(),
	}
}

// NewAuthenticationUnavailableError creates a retryable authentication error
// for transient collaborator failures (permission store down, identity service
// unreachable).
func NewAuthenticationUnavailableError(credentialSource string) *AuthenticationError {
	return &AuthenticationError{
		Message:          "authentication temporarily unavailable",
		FailureReason:    "auth_backend_unavailable",
		RetryPossible:    true,
		CredentialSource: credentialSource,
		Timestamp:        time.Now().UTC(),
	}
}

// ==========================
// 2. Validation
// ==========================

// ValidationError reports a format or safety failure. The raw input is never
// mutated on this path, so the caller can preserve it for audit.
type ValidationError struct {
	Message         string            `json:"message"`
	ValidationStage string            `json:"validation_stage"` // "format" or "safety"
	FieldErrors     map[string]string `json:"field_errors,omitempty"`
	SuggestedFix    string            `json:"suggested_fix,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s[%s]: %s", TypeValidation, e.ValidationStage, e.Message)
}

func (e *ValidationError) ErrorType() string { return TypeValidation }

// NewFormatValidationError creates a format-stage validation error.
func NewFormatValidationError(message string, fieldErrors map[string]string, suggestedFix string) *ValidationError {
	return &ValidationError{
		Message:         message,
		ValidationStage: "format",
		FieldErrors:     fieldErrors,
		SuggestedFix:    suggestedFix,
		Timestamp:       time.Now().UTC(),
	}
}

// NewSafetyValidationError creates a safety-stage validation error.
func NewSafetyValidationError(message string, fieldErrors map[string]string, suggestedFix string) *ValidationError {
	return &ValidationError{
		Message:         message,
		ValidationStage: "safety",
		FieldErrors:     fieldErrors,
		SuggestedFix:    suggestedFix,
		Timestamp:       time.Now().UTC(),
	}
}

// ==========================
// 3. Processing
// ==========================

// ProcessingError reports a normalization or event-build failure.
type ProcessingError struct {
	Message         string    `json:"message"`
	ProcessingStage string    `json:"processing_stage"` // "normalization", "event_creation", "text_extraction"
	ContentType     string    `json:"content_type,omitempty"`
	OriginalFormat  string    `json:"original_format,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s[%s]: %s", TypeProcessing, e.ProcessingStage, e.Message)
}

func (e *ProcessingError) ErrorType() string { return TypeProcessing }

// NewProcessingError creates a processing error for the given stage.
func NewProcessingError(stage, message, contentType, originalFormat string) *ProcessingError {
	return &ProcessingError{
		Message:         message,
		ProcessingStage: stage,
		ContentType:     contentType,
		OriginalFormat:  originalFormat,
		Timestamp:       time.Now().UTC(),
	}
}

// NewTextExtractionError creates a processing error for content that cannot be
// reduced to text.
func NewTextExtractionError(formatType string) *ProcessingError {
	return &ProcessingError{
		Message:         fmt.Sprintf("cannot extract text from format: %s", formatType),
		ProcessingStage: "text_extraction",
		ContentType:     formatType,
		OriginalFormat:  formatType,
		Timestamp:       time.Now().UTC(),
	}
}

// ==========================
// 4. Capability
// ==========================

// CapabilityError reports a registry-level mismatch. It is used for provider
// routing decisions, not on the per-request critical path.
type CapabilityError struct {
	Message               string    `json:"message"`
	MissingCapability     string    `json:"missing_capability,omitempty"`
	AvailableCapabilities []string  `json:"available_capabilities,omitempty"`
	SuggestedAlternative  string    `json:"suggested_alternative,omitempty"`
	Timestamp             time.Time `json:"timestamp"`
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s: %s", TypeCapability, e.Message)
}

func (e *CapabilityError) ErrorType() string { return TypeCapability }

// NewCapabilityError creates a capability error.
func NewCapabilityError(message, missing string, available []string, suggestedAlternative string) *CapabilityError {
	return &CapabilityError{
		Message:               message,
		MissingCapability:     missing,
		AvailableCapabilities: available,
		SuggestedAlternative:  suggestedAlternative,
		Timestamp:             time.Now().UTC(),
	}
}

// ==========================
// 5. Pipeline
// ==========================

// PipelineError wraps whichever stage error occurred, preserving the original
// for diagnostics.
type PipelineError struct {
	Message         string                 `json:"message"`
	FailedStage     string                 `json:"failed_stage"` // "authentication", "validation", "processing"
	PipelineContext map[string]interface{} `json:"pipeline_context,omitempty"`
	StageErrors     []StageError           `json:"stage_errors,omitempty"`
	Timestamp       time.Time              `json:"timestamp"`
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s[%s]: %s", TypePipeline, e.FailedStage, e.Message)
}

func (e *PipelineError) ErrorType() string { return TypePipeline }

// Unwrap exposes the first stage error for errors.Is / errors.As chains.
func (e *PipelineError) Unwrap() error {
	if len(e.StageErrors) == 0 {
		return nil
	}
	return e.StageErrors[0]
}

// NewPipelineError wraps a stage error with pipeline context.
func NewPipelineError(failedStage, pipelineID string, stageErr error) *PipelineError {
	msg := fmt.Sprintf("%s failed", failedStage)
	var stageErrs []StageError
	if stageErr != nil {
		msg = fmt.Sprintf("%s failed: %s", failedStage, stageErr.Error())
		if se, ok := stageErr.(StageError); ok {
			stageErrs = []StageError{se}
		}
	}
	return &PipelineError{
		Message:     msg,
		FailedStage: failedStage,
		PipelineContext: map[string]interface{}{
			"pipeline_id": pipelineID,
		},
		StageErrors: stageErrs,
		Timestamp:   time.Now().UTC(),
	}
}

// NewPipelinePanicError converts a recovered panic at a stage boundary into a
// well-formed pipeline error so the pipeline always returns a result.
func NewPipelinePanicError(failedStage, pipelineID string, recovered interface{}) *PipelineError {
	return &PipelineError{
		Message:     fmt.Sprintf("%s stage failed: %v", failedStage, recovered),
		FailedStage: failedStage,
		PipelineContext: map[string]interface{}{
			"pipeline_id": pipelineID,
			"panic":       fmt.Sprint(recovered),
		},
		Timestamp: time.Now().UTC(),
	}
}
