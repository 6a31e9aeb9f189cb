package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"janus/internal/common/logger"
	"janus/internal/pipeline"
)

// ElasticsearchRecorder indexes run records into Elasticsearch so operators
// can query pipeline history.
type ElasticsearchRecorder struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewElasticsearchRecorder(client *elasticsearch.Client, index string, log logger.Logger) *ElasticsearchRecorder {
	if index == "" {
		index = "janus-pipeline-audit"
	}
	return &ElasticsearchRecorder{
		client: client,
		index:  index,
		logger: log,
	}
}

func (r *ElasticsearchRecorder) RecordRun(ctx context.Context, result *pipeline.PipelineResult) {
	rec := buildRecord(result)

	body, err := json.Marshal(rec)
	if err != nil {
		r.logger.Error("audit record marshal failed", map[string]interface{}{
			"pipelineId": rec.PipelineID,
			"error":      err.Error(),
		})
		return
	}

	indexCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	docID := fmt.Sprintf("%s-%d", rec.PipelineID, rec.StartedAt.UnixNano())
	res, err := r.client.Index(
		r.index,
		bytes.NewReader(body),
		r.client.Index.WithContext(indexCtx),
		r.client.Index.WithDocumentID(docID),
	)
	if err != nil {
		r.logger.Error("audit record index failed", map[string]interface{}{
			"pipelineId": rec.PipelineID,
			"error":      err.Error(),
		})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		r.logger.Error("audit record rejected by elasticsearch", map[string]interface{}{
			"pipelineId": rec.PipelineID,
			"status":     res.StatusCode,
		})
	}
}

func (r *ElasticsearchRecorder) Close() error { return nil }
