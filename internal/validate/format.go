package validate

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	stageerrors "janus/internal/common/errors"
	"janus/internal/common/validation"
)

// FormatValidator checks that raw input matches the structural expectations
// of its source. Implementations return *stageerrors.ValidationError on
// rejection so field-level details reach the caller.
type FormatValidator interface {
	SourceType() string
	ValidateFormat(raw interface{}) (map[string]interface{}, error)
}

// APIFormatValidator validates direct API message payloads. API clients send
// either a bare string or a JSON object with at least a "text" field.
type APIFormatValidator struct {
	schema validation.JSONSchema
}

func NewAPIFormatValidator() *APIFormatValidator {
	return &APIFormatValidator{
		schema: validation.JSONSchema{
			Type: "object",
			Properties: map[string]validation.Property{
				"text": {
					Type:      "string",
					MaxLength: validation.IntPtr(100000),
				},
				"attachments": {Type: "array"},
				"file":        {Type: "object"},
				"metadata":    {Type: "object"},
				"stream_id":   {Type: "string"},
				"thread_id":   {Type: "string"},
			},
			AdditionalProperties: true,
		},
	}
}

func (v *APIFormatValidator) SourceType() string {
	return "api"
}

func (v *APIFormatValidator) ValidateFormat(raw interface{}) (map[string]interface{}, error) {
	switch payload := raw.(type) {
	case string:
		return map[string]interface{}{"text": payload}, nil
	case map[string]interface{}:
		result := validation.ValidateInput(payload, v.schema)
		if !result.Valid {
			return nil, stageerrors.NewFormatValidationError(
				fmt.Sprintf("api payload rejected: %d field error(s)", len(result.Errors)),
				result.FieldErrorMap(),
				"send a JSON object with a text field or a plain string",
			)
		}
		return payload, nil
	default:
		return nil, stageerrors.NewFormatValidationError(
			fmt.Sprintf("unsupported api payload type %T", raw),
			nil,
			"send a JSON object or a plain string",
		)
	}
}

// webhookSchema is the JSON Schema applied to webhook deliveries. Webhooks
// are machine-generated so the contract is stricter than the API surface.
const webhookSchema = `{
	"type": "object",
	"properties": {
		"event": {"type": "string", "minLength": 1},
		"text": {"type": "string"},
		"payload": {"type": "object"},
		"attachments": {"type": "array"},
		"timestamp": {"type": ["string", "number"]}
	},
	"required": ["event"],
	"additionalProperties": true
}`

// WebhookFormatValidator validates webhook payloads against a JSON Schema.
type WebhookFormatValidator struct {
	schema *gojsonschema.Schema
}

func NewWebhookFormatValidator() (*WebhookFormatValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(webhookSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling webhook schema: %w", err)
	}
	return &WebhookFormatValidator{schema: schema}, nil
}

func (v *WebhookFormatValidator) SourceType() string {
	return "webhook"
}

func (v *WebhookFormatValidator) ValidateFormat(raw interface{}) (map[string]interface{}, error) {
	payload, err := coerceToMap(raw)
	if err != nil {
		return nil, stageerrors.NewFormatValidationError(
			err.Error(), nil, "send a JSON object with an event field",
		)
	}

	result, err := v.schema.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		return nil, stageerrors.NewFormatValidationError(
			fmt.Sprintf("webhook payload could not be checked: %v", err),
			nil, "send a well-formed JSON object",
		)
	}
	if !result.Valid() {
		fieldErrors := make(map[string]string, len(result.Errors()))
		for _, desc := range result.Errors() {
			fieldErrors[desc.Field()] = desc.Description()
		}
		return nil, stageerrors.NewFormatValidationError(
			fmt.Sprintf("webhook payload rejected: %d field error(s)", len(fieldErrors)),
			fieldErrors,
			"include an event field naming the webhook event",
		)
	}
	return payload, nil
}

// SlackFormatValidator validates Slack event payloads. Slack wraps the actual
// message inside an "event" object.
type SlackFormatValidator struct{}

func NewSlackFormatValidator() *SlackFormatValidator {
	return &SlackFormatValidator{}
}

func (v *SlackFormatValidator) SourceType() string {
	return "slack"
}

func (v *SlackFormatValidator) ValidateFormat(raw interface{}) (map[string]interface{}, error) {
	payload, err := coerceToMap(raw)
	if err != nil {
		return nil, stageerrors.NewFormatValidationError(
			err.Error(), nil, "send a Slack event callback payload",
		)
	}

	event, ok := payload["event"].(map[string]interface{})
	if !ok {
		return nil, stageerrors.NewFormatValidationError(
			"slack payload missing event object",
			map[string]string{"event": "required object is missing"},
			"send the full event_callback envelope",
		)
	}
	if _, ok := event["type"].(string); !ok {
		return nil, stageerrors.NewFormatValidationError(
			"slack event missing type",
			map[string]string{"event.type": "required string is missing"},
			"include the event type field",
		)
	}

	// Flatten the envelope so downstream stages see a uniform shape.
	flattened := map[string]interface{}{
		"event": event,
	}
	if text, ok := event["text"].(string); ok {
		flattened["text"] = text
	}
	if files, ok := event["files"]; ok {
		flattened["attachments"] = files
	}
	if teamID, ok := payload["team_id"]; ok {
		flattened["team_id"] = teamID
	}
	return flattened, nil
}

func coerceToMap(raw interface{}) (map[string]interface{}, error) {
	switch payload := raw.(type) {
	case map[string]interface{}:
		return payload, nil
	case string:
		var decoded map[string]interface{}
		if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
			return nil, fmt.Errorf("payload is not valid JSON: %v", err)
		}
		return decoded, nil
	case []byte:
		var decoded map[string]interface{}
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, fmt.Errorf("payload is not valid JSON: %v", err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("unsupported payload type %T", raw)
	}
}
