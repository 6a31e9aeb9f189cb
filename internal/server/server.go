// Package server exposes the input pipelines over HTTP.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"janus/internal/audit"
	"janus/internal/bus"
	"janus/internal/capability"
	"janus/internal/common/logger"
	"janus/internal/models"
	"janus/internal/pipeline"
)

const maxBodyBytes = 2 << 20

// defaultScopes is the credential-side permission grant when the transport
// does not narrow it. Wildcards cover each permission family, so the
// intersection with user permissions yields exactly what the user holds.
var defaultScopes = []string{"chat", "tools.*", "memory.*", "admin.*"}

// Server routes inbound requests to the pipeline for their source type and
// publishes resulting events.
type Server struct {
	pipelines map[string]*pipeline.Pipeline
	publisher bus.Publisher
	recorder  audit.Recorder
	registry  *capability.Registry
	sigHeader string
	logger    logger.Logger
	http      *http.Server
}

type Options struct {
	Addr            string
	SignatureHeader string
	Pipelines       []*pipeline.Pipeline
	Publisher       bus.Publisher
	Recorder        audit.Recorder
	Registry        *capability.Registry
	Logger          logger.Logger
}

func New(opts Options) *Server {
	s := &Server{
		pipelines: make(map[string]*pipeline.Pipeline),
		publisher: opts.Publisher,
		recorder:  opts.Recorder,
		registry:  opts.Registry,
		sigHeader: opts.SignatureHeader,
		logger:    opts.Logger,
	}
	if s.sigHeader == "" {
		s.sigHeader = "X-Janus-Signature"
	}
	for _, p := range opts.Pipelines {
		s.pipelines[p.SourceType()] = p
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/messages", s.handleMessage)
	mux.HandleFunc("POST /v1/webhooks/{source_id}", s.handleWebhook)
	mux.HandleFunc("POST /v1/slack/events", s.handleSlackEvent)
	mux.HandleFunc("GET /v1/capabilities", s.handleCapabilities)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", map[string]interface{}{"addr": s.http.Addr})
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// messageRequest is the direct API envelope.
type messageRequest struct {
	APIKey  string                 `json:"api_key"`
	UserID  string                 `json:"user_id"`
	Input   json.RawMessage        `json:"input"`
	Scopes  []string               `json:"scopes,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipelines["api"]
	if !ok {
		s.writeError(w, http.StatusNotFound, "api source is not enabled")
		return
	}

	var req messageRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}

	var raw interface{}
	if len(req.Input) > 0 {
		if err := json.Unmarshal(req.Input, &raw); err != nil {
			s.writeError(w, http.StatusBadRequest, "input is not valid JSON")
			return
		}
	}

	// Scopes narrow the credential grant; intersection with user
	// permissions means self-asserted scopes can only restrict, never widen.
	scopes := req.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}
	creds := &models.SourceCredentials{
		SourceType: "api",
		SourceID:   "rest",
		Credentials: map[string]interface{}{
			"api_key": req.APIKey,
			"user_id": req.UserID,
		},
		CredentialPermissions: scopes,
	}

	s.runPipeline(w, r, p, raw, creds, req.Context)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipelines["webhook"]
	if !ok {
		s.writeError(w, http.StatusNotFound, "webhook source is not enabled")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}

	creds := &models.SourceCredentials{
		SourceType: "webhook",
		SourceID:   r.PathValue("source_id"),
		Credentials: map[string]interface{}{
			"signature": r.Header.Get(s.sigHeader),
			"body":      string(body),
		},
		CredentialPermissions: defaultScopes,
	}

	s.runPipeline(w, r, p, payload, creds, nil)
}

func (s *Server) handleSlackEvent(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipelines["slack"]
	if !ok {
		s.writeError(w, http.StatusNotFound, "slack source is not enabled")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}

	// Slack URL verification handshake replies with the challenge directly.
	if payload["type"] == "url_verification" {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"challenge": payload["challenge"]})
		return
	}

	teamID, _ := payload["team_id"].(string)
	creds := &models.SourceCredentials{
		SourceType: "slack",
		SourceID:   teamID,
		Credentials: map[string]interface{}{
			"bot_token":      r.Header.Get("X-Slack-Bot-Token"),
			"signing_secret": r.Header.Get("X-Slack-Signing-Secret"),
		},
		CredentialPermissions: defaultScopes,
	}

	requestContext := map[string]interface{}{}
	if event, ok := payload["event"].(map[string]interface{}); ok {
		requestContext["event"] = event
	}

	s.runPipeline(w, r, p, payload, creds, requestContext)
}

func (s *Server) runPipeline(w http.ResponseWriter, r *http.Request, p *pipeline.Pipeline, raw interface{}, creds *models.SourceCredentials, requestContext map[string]interface{}) {
	result := p.Process(r.Context(), raw, creds, requestContext)

	if s.recorder != nil {
		s.recorder.RecordRun(r.Context(), result)
	}

	if !result.Success {
		// Failure responses stay generic; detail is in logs and audit only.
		s.writeError(w, statusForFailure(result), "input could not be processed")
		return
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(r.Context(), result.Event); err != nil {
			s.logger.Error("event publish failed", map[string]interface{}{
				"eventId": result.Event.EventID,
				"error":   err.Error(),
			})
			s.writeError(w, http.StatusBadGateway, "event could not be delivered")
			return
		}
	}

	s.writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"event_id":                 result.Event.EventID,
		"stream_id":                result.Event.StreamID,
		"event_type":               result.Event.EventType,
		"trace_id":                 result.Event.TraceID,
		"total_processing_time_ms": result.TotalProcessingTimeMS,
	})
}

func statusForFailure(result *pipeline.PipelineResult) int {
	if len(result.StagesCompleted) == 0 {
		return http.StatusUnauthorized
	}
	switch result.StagesCompleted[len(result.StagesCompleted)-1] {
	case pipeline.StageAuthentication:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleCapabilities(w http.ResponseWriter, _ *http.Request) {
	if s.registry == nil {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"capabilities": map[string][]string{}})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"capabilities": s.registry.SystemCapabilities(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	overall := true
	components := map[string]interface{}{}
	for sourceType, p := range s.pipelines {
		healthy, parts := p.HealthCheck(r.Context())
		if !healthy {
			overall = false
		}
		components[sourceType] = parts
	}

	status := http.StatusOK
	state := "healthy"
	if !overall {
		status = http.StatusServiceUnavailable
		state = "unhealthy"
	}
	s.writeJSON(w, status, map[string]interface{}{
		"status":     state,
		"components": components,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{"error": message})
}
