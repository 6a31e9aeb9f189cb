// Package models holds the data contracts between the input pipeline stages.
package models

import (
	"time"

	"janus/internal/events"
)

// Permission strings are hierarchical by naming convention, not by type: a
// trailing ".*" matches every permission sharing its prefix. Common values:
const (
	PermChat            = "chat"
	PermToolsAll        = "tools.*"
	PermToolsCalculator = "tools.calculator"
	PermToolsTime       = "tools.time"
	PermToolsEcho       = "tools.echo"
	PermMemoryRead      = "memory.read"
	PermMemoryWrite     = "memory.write"
	PermMemoryDelete    = "memory.delete"
	PermAdminHealth     = "admin.health"
	PermAdminMetrics    = "admin.metrics"
)

// SourceCredentials are the credentials presented by an input source, built by
// the transport adapter and consumed once per request. Treated as immutable
// after construction.
type SourceCredentials struct {
	SourceType  string                 `json:"source_type"`
	SourceID    string                 `json:"source_id"`
	Credentials map[string]interface{} `json:"credentials"`

	// Permissions granted BY this credential source. Final permissions are
	// the intersection with the user's resolved permissions.
	CredentialPermissions []string `json:"credential_permissions,omitempty"`

	ExpiresAt *time.Time             `json:"expires_at,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Expired reports whether the credential has an expiry in the past.
func (c *SourceCredentials) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// StringCredential returns a string-valued credential field, or "" when absent.
func (c *SourceCredentials) StringCredential(key string) string {
	if c.Credentials == nil {
		return ""
	}
	s, _ := c.Credentials[key].(string)
	return s
}

// AuthContext is the result of authentication: who the caller is and what
// they are allowed to do. It never contains the raw credentials and is not
// persisted beyond the pipeline run.
type AuthContext struct {
	UserID     string `json:"user_id"`
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`

	// Final computed permissions: credential permissions (wildcards expanded)
	// intersected with the user's resolved permissions. Sorted, deduplicated.
	GrantedPermissions []string `json:"granted_permissions"`

	SessionID       string                 `json:"session_id,omitempty"`
	AuthenticatedAt time.Time              `json:"authenticated_at"`
	ExpiresAt       *time.Time             `json:"expires_at,omitempty"`
	AuthMetadata    map[string]interface{} `json:"auth_metadata,omitempty"`
}

// HasPermission reports whether the permission was granted. Exact match only:
// wildcard expansion happens during authentication, not here.
func (a *AuthContext) HasPermission(perm string) bool {
	for _, p := range a.GrantedPermissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Content types stamped on validated input.
const (
	ContentTypeText        = "text"
	ContentTypeCommand     = "command"
	ContentTypeAttachments = "text_with_attachments"
	ContentTypeFileUpload  = "file_upload"
	ContentTypeUnknown     = "unknown"
)

// ValidatedInput is input proven structurally sound and safe. It carries no
// permission decisions: permission enforcement happens at execution time, by
// the caller, never here.
type ValidatedInput struct {
	// Original input preserved verbatim for debugging and audit.
	RawInput interface{} `json:"raw_input"`

	NormalizedInput map[string]interface{} `json:"normalized_input"`

	ValidationConfidence float64  `json:"validation_confidence"`
	ValidationWarnings   []string `json:"validation_warnings,omitempty"`
	DetectedLanguage     string   `json:"detected_language,omitempty"`
	ContentType          string   `json:"content_type"`
	InputSizeBytes       int      `json:"input_size_bytes"`
	ProcessingTimeMS     int64    `json:"processing_time_ms"`
}

// Text returns the normalized text field, or "" when absent.
func (v *ValidatedInput) Text() string {
	if v.NormalizedInput == nil {
		return ""
	}
	s, _ := v.NormalizedInput["text"].(string)
	return s
}

// ProcessingContext aggregates everything the processing stage needs to turn
// validated input into an event. Built fresh per request; ProcessingSteps is
// the append-only log of completed stage names.
type ProcessingContext struct {
	AuthContext    *AuthContext    `json:"auth_context"`
	ValidatedInput *ValidatedInput `json:"validated_input"`

	PipelineStartTime time.Time `json:"pipeline_start_time"`
	ProcessingSteps   []string  `json:"processing_steps"`

	TargetEventType string `json:"target_event_type,omitempty"`
	StreamID        string `json:"stream_id,omitempty"`
	ThreadID        string `json:"thread_id,omitempty"`

	AdapterContext map[string]interface{} `json:"adapter_context,omitempty"`
}

// NewProcessingContext builds the context handed to the processing stage.
func NewProcessingContext(auth *AuthContext, input *ValidatedInput, adapterContext map[string]interface{}) *ProcessingContext {
	if adapterContext == nil {
		adapterContext = map[string]interface{}{}
	}
	return &ProcessingContext{
		AuthContext:       auth,
		ValidatedInput:    input,
		PipelineStartTime: events.Now(),
		ProcessingSteps:   []string{"authentication", "validation"},
		AdapterContext:    adapterContext,
	}
}

// AddStep appends a completed step name to the processing log.
func (p *ProcessingContext) AddStep(step string) {
	p.ProcessingSteps = append(p.ProcessingSteps, step)
}

// InputCapability is a named feature a provider advertises. Registered once
// per provider at startup and queried read-only afterward.
type InputCapability struct {
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	Version      string                 `json:"version"`
	Parameters   map[string]interface{} `json:"parameters,omitempty"`
	Required     bool                   `json:"required"`
	Experimental bool                   `json:"experimental"`
	Dependencies []string               `json:"dependencies,omitempty"`
}
