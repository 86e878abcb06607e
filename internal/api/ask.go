package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopquery/shopquery/internal/pipeline"
)

type askRequest struct {
	Question string `json:"question"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASK_NOT_CONFIGURED", "question pipeline is not configured", false, nil)
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}
	if req.Question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	payload, err := deps.Pipeline.Ask(r.Context(), req.Question)
	if err != nil {
		status, code, retryable := mapPipelineError(err)
		writeError(r.Context(), w, status, code, err.Error(), retryable, nil)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// mapPipelineError translates stage outcomes onto HTTP statuses. Unknown
// errors are treated as internal.
func mapPipelineError(err error) (status int, code string, retryable bool) {
	var stageErr *pipeline.Error
	if !errors.As(err, &stageErr) {
		return http.StatusInternalServerError, "INTERNAL", true
	}
	switch stageErr.Outcome {
	case pipeline.OutcomeBadQuestion:
		return http.StatusBadRequest, "INVALID_QUESTION", false
	case pipeline.OutcomeEmptyKnowledge:
		return http.StatusServiceUnavailable, "KNOWLEDGE_BASE_EMPTY", true
	case pipeline.OutcomeEmbeddingFailed:
		return http.StatusBadGateway, "EMBEDDING_FAILED", true
	case pipeline.OutcomeGenerationTimeout:
		return http.StatusGatewayTimeout, "GENERATION_TIMEOUT", true
	case pipeline.OutcomeGenerationFailed:
		return http.StatusBadGateway, "GENERATION_FAILED", true
	case pipeline.OutcomeInvalidSQL:
		return http.StatusUnprocessableEntity, "SQL_REJECTED", false
	case pipeline.OutcomeExecutionFailed:
		return http.StatusUnprocessableEntity, "QUERY_FAILED", false
	default:
		return http.StatusInternalServerError, "INTERNAL", true
	}
}
