// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// DashboardHandler serves the dashboard aggregates. Every endpoint reads a
// single consistent snapshot, so the figures in one response agree.
type DashboardHandler struct {
	agg Aggregates
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(agg Aggregates) *DashboardHandler {
	return &DashboardHandler{agg: agg}
}

type countJobsResponse struct {
	TotalJobs int `json:"total_jobs"`
}

// HandleCountJobs handles GET /dashboard/count-jobs requests.
func (h *DashboardHandler) HandleCountJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, countJobsResponse{TotalJobs: h.agg.CountJobs(r.Context())})
}

// HandleCVsPerJob handles GET /dashboard/cvs-per-job requests.
func (h *DashboardHandler) HandleCVsPerJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.agg.CVsPerJob(r.Context()))
}

// HandleBestCVPerJob handles GET /dashboard/best-cv-per-job requests.
func (h *DashboardHandler) HandleBestCVPerJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.agg.BestCVPerJob(r.Context()))
}

// HandleJobAverageScore handles GET /dashboard/job-average-score requests.
func (h *DashboardHandler) HandleJobAverageScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.agg.JobAverageScore(r.Context()))
}

// HandleCandidateFitRadar handles GET /dashboard/candidate-fit-radar/{jobID}.
func (h *DashboardHandler) HandleCandidateFitRadar(w http.ResponseWriter, r *http.Request) {
	const op = "api.candidate_fit_radar"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/dashboard/candidate-fit-radar/")
	if jobID == "" || strings.Contains(jobID, "/") {
		http.NotFound(w, r)
		return
	}

	entries, err := h.agg.CandidateFitRadar(r.Context(), jobID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
