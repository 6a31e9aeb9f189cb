package process

import (
	"context"

	"janus/internal/common/logger"
	"janus/internal/events"
	"janus/internal/models"
)

// Processor runs the final pipeline stage: normalize content, then build the
// outgoing event.
type Processor struct {
	normalizer ContentNormalizer
	builder    *EventBuilder
	logger     logger.Logger
}

func NewProcessor(normalizer ContentNormalizer, log logger.Logger) *Processor {
	return &Processor{
		normalizer: normalizer,
		builder:    NewEventBuilder(),
		logger:     log,
	}
}

// Process converts the validated input carried by the processing context into
// a JanusEvent. Errors are *stageerrors.ProcessingError values.
func (p *Processor) Process(_ context.Context, procCtx *models.ProcessingContext) (*events.JanusEvent, error) {
	content, err := p.normalizer.Normalize(procCtx.ValidatedInput)
	if err != nil {
		p.logger.Debug("content normalization failed", map[string]interface{}{
			"userId":      procCtx.AuthContext.UserID,
			"contentType": procCtx.ValidatedInput.ContentType,
			"cause":       err.Error(),
		})
		return nil, err
	}

	procCtx.AddStep("normalization")

	event := p.builder.Build(content, procCtx)
	procCtx.AddStep("event_construction")

	p.logger.Debug("event built", map[string]interface{}{
		"eventId":   event.EventID,
		"eventType": event.EventType,
		"streamId":  event.StreamID,
		"userId":    event.Context.UserID,
	})

	return event, nil
}

// HealthCheck reports processor component status.
func (p *Processor) HealthCheck(_ context.Context) map[string]bool {
	return map[string]bool{
		"normalizer":    p.normalizer != nil,
		"event_builder": p.builder != nil,
	}
}
