// Package pipeline chains authentication, validation, and processing into a
// single fail-fast run per input.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	stageerrors "janus/internal/common/errors"
	"janus/internal/common/logger"
	"janus/internal/common/metrics"
	"janus/internal/common/observability"
	"janus/internal/events"
	"janus/internal/models"
)

const (
	StageAuthentication = "authentication"
	StageValidation     = "validation"
	StageProcessing     = "processing"
)

// Authenticator is the first pipeline stage.
type Authenticator interface {
	SourceType() string
	Authenticate(ctx context.Context, creds *models.SourceCredentials, requestContext map[string]interface{}) (*models.AuthContext, error)
	HealthCheck(ctx context.Context) bool
}

// Validator is the second pipeline stage.
type Validator interface {
	Validate(ctx context.Context, raw interface{}, authCtx *models.AuthContext) (*models.ValidatedInput, error)
	HealthCheck(ctx context.Context) map[string]bool
}

// Processor is the third pipeline stage.
type Processor interface {
	Process(ctx context.Context, procCtx *models.ProcessingContext) (*events.JanusEvent, error)
	HealthCheck(ctx context.Context) map[string]bool
}

// Pipeline runs the three stages in fixed order for one source type. Stages
// never run out of order and a stage failure stops the run immediately.
type Pipeline struct {
	authenticator Authenticator
	validator     Validator
	processor     Processor
	pipelineID    string
	logger        logger.Logger
	obs           *observability.Observability
}

func New(authenticator Authenticator, validator Validator, processor Processor, pipelineID string, log logger.Logger, obs *observability.Observability) *Pipeline {
	if pipelineID == "" {
		pipelineID = fmt.Sprintf("pipeline-%s-%d", authenticator.SourceType(), time.Now().Unix())
	}
	return &Pipeline{
		authenticator: authenticator,
		validator:     validator,
		processor:     processor,
		pipelineID:    pipelineID,
		logger:        log.WithFields(map[string]interface{}{"pipelineId": pipelineID}),
		obs:           obs,
	}
}

// SourceType returns the source type this pipeline serves.
func (p *Pipeline) SourceType() string {
	return p.authenticator.SourceType()
}

// Process runs one input through all three stages. The returned result is
// always finalized, whether the run succeeded, failed, or panicked.
func (p *Pipeline) Process(ctx context.Context, raw interface{}, creds *models.SourceCredentials, requestContext map[string]interface{}) *PipelineResult {
	sourceType := p.SourceType()
	result := newPipelineResult(p.pipelineID, sourceType)

	metrics.PipelineRunsActive.WithLabelValues(sourceType).Inc()
	defer metrics.PipelineRunsActive.WithLabelValues(sourceType).Dec()

	if requestContext == nil {
		requestContext = map[string]interface{}{}
	}

	p.run(ctx, raw, creds, requestContext, result)

	result.MarkCompleted()
	p.recordOutcome(ctx, result)
	return result
}

func (p *Pipeline) run(ctx context.Context, raw interface{}, creds *models.SourceCredentials, requestContext map[string]interface{}, result *PipelineResult) {
	authCtx, err := p.authenticate(ctx, creds, requestContext, result)
	if err != nil {
		result.Error = p.wrapStageError(StageAuthentication, err)
		return
	}
	result.markStageCompleted(StageAuthentication)

	validated, err := p.validate(ctx, raw, authCtx, result)
	if err != nil {
		result.Error = p.wrapStageError(StageValidation, err)
		return
	}
	result.markStageCompleted(StageValidation)

	adapterCtx, _ := requestContext["adapter_context"].(map[string]interface{})
	procCtx := models.NewProcessingContext(authCtx, validated, adapterCtx)
	procCtx.PipelineStartTime = result.StartedAt
	if streamID, ok := requestContext["stream_id"].(string); ok {
		procCtx.StreamID = streamID
	}
	if threadID, ok := requestContext["thread_id"].(string); ok {
		procCtx.ThreadID = threadID
	}
	if eventType, ok := requestContext["target_event_type"].(string); ok {
		procCtx.TargetEventType = eventType
	}
	result.ProcessingContext = procCtx

	event, err := p.process(ctx, procCtx, result)
	if err != nil {
		result.Error = p.wrapStageError(StageProcessing, err)
		return
	}
	result.markStageCompleted(StageProcessing)

	result.Event = event
	result.Success = true
}

// wrapStageError leaves already-wrapped pipeline errors (panics) alone.
func (p *Pipeline) wrapStageError(stage string, err error) error {
	var pipeErr *stageerrors.PipelineError
	if errors.As(err, &pipeErr) {
		return pipeErr
	}
	return stageerrors.NewPipelineError(stage, p.pipelineID, err)
}

func (p *Pipeline) authenticate(ctx context.Context, creds *models.SourceCredentials, requestContext map[string]interface{}, result *PipelineResult) (authCtx *models.AuthContext, err error) {
	started := time.Now()
	defer func() {
		result.recordStage(StageAuthentication, started)
		metrics.PipelineStageDuration.WithLabelValues(p.SourceType(), StageAuthentication).Observe(time.Since(started).Seconds())
		if recovered := recover(); recovered != nil {
			p.logger.Error("authentication stage panicked", map[string]interface{}{"panic": fmt.Sprint(recovered)})
			authCtx, err = nil, stageerrors.NewPipelinePanicError(StageAuthentication, p.pipelineID, recovered)
		}
	}()
	return p.authenticator.Authenticate(ctx, creds, requestContext)
}

func (p *Pipeline) validate(ctx context.Context, raw interface{}, authCtx *models.AuthContext, result *PipelineResult) (validated *models.ValidatedInput, err error) {
	started := time.Now()
	defer func() {
		result.recordStage(StageValidation, started)
		metrics.PipelineStageDuration.WithLabelValues(p.SourceType(), StageValidation).Observe(time.Since(started).Seconds())
		if recovered := recover(); recovered != nil {
			p.logger.Error("validation stage panicked", map[string]interface{}{"panic": fmt.Sprint(recovered)})
			validated, err = nil, stageerrors.NewPipelinePanicError(StageValidation, p.pipelineID, recovered)
		}
	}()
	return p.validator.Validate(ctx, raw, authCtx)
}

func (p *Pipeline) process(ctx context.Context, procCtx *models.ProcessingContext, result *PipelineResult) (event *events.JanusEvent, err error) {
	started := time.Now()
	defer func() {
		result.recordStage(StageProcessing, started)
		metrics.PipelineStageDuration.WithLabelValues(p.SourceType(), StageProcessing).Observe(time.Since(started).Seconds())
		if recovered := recover(); recovered != nil {
			p.logger.Error("processing stage panicked", map[string]interface{}{"panic": fmt.Sprint(recovered)})
			event, err = nil, stageerrors.NewPipelinePanicError(StageProcessing, p.pipelineID, recovered)
		}
	}()
	return p.processor.Process(ctx, procCtx)
}

func (p *Pipeline) recordOutcome(ctx context.Context, result *PipelineResult) {
	sourceType := p.SourceType()
	if result.Success {
		metrics.PipelineRunsCompleted.WithLabelValues(sourceType).Inc()
		if p.obs != nil {
			p.obs.RecordRun(ctx, sourceType, "success")
			p.obs.RecordRunDuration(ctx, time.Duration(result.TotalProcessingTimeMS)*time.Millisecond, sourceType)
		}
		p.logger.Info("pipeline run completed", map[string]interface{}{
			"sourceType": sourceType,
			"totalMs":    result.TotalProcessingTimeMS,
			"eventId":    result.Event.EventID,
		})
		return
	}

	failedStage := "unknown"
	var pipeErr *stageerrors.PipelineError
	if errors.As(result.Error, &pipeErr) {
		failedStage = pipeErr.FailedStage
	}
	metrics.PipelineRunsFailed.WithLabelValues(sourceType, failedStage).Inc()
	if p.obs != nil {
		p.obs.RecordRun(ctx, sourceType, "failure")
	}
	p.logger.Warn("pipeline run failed", map[string]interface{}{
		"sourceType":  sourceType,
		"failedStage": failedStage,
		"totalMs":     result.TotalProcessingTimeMS,
		"stagesDone":  result.StagesCompleted,
		"error":       result.Error.Error(),
	})
}

// Info describes the pipeline composition for diagnostics endpoints.
func (p *Pipeline) Info() map[string]interface{} {
	return map[string]interface{}{
		"pipeline_id": p.pipelineID,
		"source_type": p.SourceType(),
		"stages":      []string{StageAuthentication, StageValidation, StageProcessing},
	}
}

// HealthCheck aggregates stage health. A panicking component reports false
// instead of taking the endpoint down.
func (p *Pipeline) HealthCheck(ctx context.Context) (healthy bool, components map[string]bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			p.logger.Error("health check panicked", map[string]interface{}{"panic": fmt.Sprint(recovered)})
			healthy = false
		}
	}()

	components = map[string]bool{
		"authenticator": p.authenticator.HealthCheck(ctx),
	}
	for name, ok := range p.validator.HealthCheck(ctx) {
		components["validator."+name] = ok
	}
	for name, ok := range p.processor.HealthCheck(ctx) {
		components["processor."+name] = ok
	}

	healthy = true
	for _, ok := range components {
		if !ok {
			healthy = false
			break
		}
	}
	return healthy, components
}
