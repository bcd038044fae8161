// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	service "github.com/okian/cvranker/internal/app"
)

// MatchingDependencies defines the interface for score orchestration.
type MatchingDependencies interface {
	GenerateScores(ctx context.Context, jobID string) (service.BatchResult, error)
	StartBatch(ctx context.Context, jobID string) (string, error)
	BatchStatus(ctx context.Context, batchID string) (service.Batch, error)
}

// MatchingsHandler handles score generation requests.
type MatchingsHandler struct {
	deps MatchingDependencies
}

// NewMatchingsHandler creates a new matchings handler.
func NewMatchingsHandler(deps MatchingDependencies) *MatchingsHandler {
	return &MatchingsHandler{deps: deps}
}

type batchStartedResponse struct {
	BatchID string `json:"batch_id"`
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
}

// HandleGenerate handles POST /matchings/{jobID} requests. By default the
// call waits for the batch and returns its result; with ?wait=false the
// batch runs in the background and a batch id is returned instead.
func (h *MatchingsHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	const op = "api.generate_scores"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/matchings/")
	if jobID == "" || strings.Contains(jobID, "/") {
		http.NotFound(w, r)
		return
	}

	if r.URL.Query().Get("wait") == "false" {
		batchID, err := h.deps.StartBatch(r.Context(), jobID)
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		writeJSON(w, http.StatusAccepted, batchStartedResponse{
			BatchID: batchID,
			JobID:   jobID,
			Status:  string(service.BatchRunning),
		})
		return
	}

	result, err := h.deps.GenerateScores(r.Context(), jobID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleBatchStatus handles GET /matchings/batches/{batchID} requests.
func (h *MatchingsHandler) HandleBatchStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.batch_status"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	batchID := strings.TrimPrefix(r.URL.Path, "/matchings/batches/")
	if batchID == "" || strings.Contains(batchID, "/") {
		http.NotFound(w, r)
		return
	}

	batch, err := h.deps.BatchStatus(r.Context(), batchID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}
