// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/cvranker/internal/app"
	"github.com/okian/cvranker/internal/domain/model"
)

// JobDependencies defines the interface for job operations.
type JobDependencies interface {
	CreateJob(ctx context.Context, name, description string) (model.Job, error)
	GetJob(ctx context.Context, id string) (model.Job, error)
	ListJobs(ctx context.Context) ([]model.Job, error)
	UpdateJob(ctx context.Context, id string, upd service.JobUpdate) (model.Job, error)
	DeleteJob(ctx context.Context, id string) error
	ExtractRequirements(ctx context.Context, jobID string) (model.Job, error)
	CVsByJob(ctx context.Context, jobID string) ([]model.CV, error)
}

// JobsHandler handles job requests.
type JobsHandler struct {
	deps JobDependencies
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps JobDependencies) *JobsHandler {
	return &JobsHandler{deps: deps}
}

// jobRequest mirrors the request schema for POST /jobs and PUT /jobs/{id}.
type jobRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (j jobRequest) validateCreate() error {
	switch {
	case j.Name == nil || strings.TrimSpace(*j.Name) == "":
		return errors.New("missing name")
	case j.Description == nil || strings.TrimSpace(*j.Description) == "":
		return errors.New("missing description")
	}
	return nil
}

func (j jobRequest) status() (*model.JobStatus, error) {
	if j.Status == nil {
		return nil, nil
	}
	switch model.JobStatus(*j.Status) {
	case model.JobOpen, model.JobClosed:
		s := model.JobStatus(*j.Status)
		return &s, nil
	default:
		return nil, errors.New("invalid status; must be open or closed")
	}
}

// HandleCollection handles GET /jobs and POST /jobs requests.
func (h *JobsHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	const op = "api.jobs"
	switch r.Method {
	case http.MethodGet:
		jobs, err := h.deps.ListJobs(r.Context())
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, jobs)
	case http.MethodPost:
		var req jobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := req.validateCreate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		job, err := h.deps.CreateJob(r.Context(), *req.Name, *req.Description)
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		writeJSON(w, http.StatusCreated, job)
	default:
		http.NotFound(w, r)
	}
}

// HandleItem handles /jobs/{id}, /jobs/{id}/extract and /jobs/{id}/cvs.
func (h *JobsHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	const op = "api.job"

	rest := strings.TrimPrefix(r.URL.Path, "/jobs/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		job, err := h.deps.GetJob(r.Context(), id)
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, job)

	case sub == "" && r.Method == http.MethodPut:
		var req jobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		status, err := req.status()
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		job, err := h.deps.UpdateJob(r.Context(), id, service.JobUpdate{
			Name:        req.Name,
			Description: req.Description,
			Status:      status,
		})
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, job)

	case sub == "" && r.Method == http.MethodDelete:
		if err := h.deps.DeleteJob(r.Context(), id); err != nil {
			writeServiceError(w, op, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case sub == "extract" && r.Method == http.MethodPost:
		job, err := h.deps.ExtractRequirements(r.Context(), id)
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, job)

	case sub == "cvs" && r.Method == http.MethodGet:
		cvs, err := h.deps.CVsByJob(r.Context(), id)
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, cvs)

	default:
		http.NotFound(w, r)
	}
}
