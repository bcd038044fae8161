// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/cvranker/internal/domain/model"
)

// CVDependencies defines the interface for CV operations.
type CVDependencies interface {
	UploadCV(ctx context.Context, jobID, filename, text string) (model.CV, error)
	GetCV(ctx context.Context, id string) (model.CV, error)
	ListCVs(ctx context.Context) ([]model.CV, error)
	DeleteCV(ctx context.Context, id string) error
	DissociateCV(ctx context.Context, id string) (model.CV, error)
}

// CVsHandler handles CV requests.
type CVsHandler struct {
	deps CVDependencies
}

// NewCVsHandler creates a new CVs handler.
func NewCVsHandler(deps CVDependencies) *CVsHandler {
	return &CVsHandler{deps: deps}
}

// cvUploadRequest mirrors the request schema for POST /cvs.
type cvUploadRequest struct {
	JobID    string `json:"job_id"`
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

func (c cvUploadRequest) validate() error {
	switch {
	case strings.TrimSpace(c.JobID) == "":
		return errors.New("missing job_id")
	case strings.TrimSpace(c.Filename) == "":
		return errors.New("missing filename")
	case strings.TrimSpace(c.Text) == "":
		return errors.New("missing text")
	}
	return nil
}

// HandleCollection handles GET /cvs and POST /cvs requests.
func (h *CVsHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	const op = "api.cvs"
	switch r.Method {
	case http.MethodGet:
		cvs, err := h.deps.ListCVs(r.Context())
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, cvs)
	case http.MethodPost:
		var req cvUploadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		cv, err := h.deps.UploadCV(r.Context(), req.JobID, req.Filename, req.Text)
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		writeJSON(w, http.StatusCreated, cv)
	default:
		http.NotFound(w, r)
	}
}

// HandleItem handles /cvs/{id} and /cvs/{id}/dissociate.
func (h *CVsHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	const op = "api.cv"

	rest := strings.TrimPrefix(r.URL.Path, "/cvs/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		cv, err := h.deps.GetCV(r.Context(), id)
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, cv)

	case sub == "" && r.Method == http.MethodDelete:
		if err := h.deps.DeleteCV(r.Context(), id); err != nil {
			writeServiceError(w, op, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case sub == "dissociate" && r.Method == http.MethodPost:
		cv, err := h.deps.DissociateCV(r.Context(), id)
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, cv)

	default:
		http.NotFound(w, r)
	}
}
