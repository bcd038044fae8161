// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/cvranker/internal/adapters/repository"
	"github.com/okian/cvranker/internal/analytics"
	service "github.com/okian/cvranker/internal/app"
	"github.com/okian/cvranker/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Job lifecycle.
	CreateJob(ctx context.Context, name, description string) (model.Job, error)
	GetJob(ctx context.Context, id string) (model.Job, error)
	ListJobs(ctx context.Context) ([]model.Job, error)
	UpdateJob(ctx context.Context, id string, upd service.JobUpdate) (model.Job, error)
	DeleteJob(ctx context.Context, id string) error
	ExtractRequirements(ctx context.Context, jobID string) (model.Job, error)

	// CV lifecycle.
	UploadCV(ctx context.Context, jobID, filename, text string) (model.CV, error)
	GetCV(ctx context.Context, id string) (model.CV, error)
	ListCVs(ctx context.Context) ([]model.CV, error)
	CVsByJob(ctx context.Context, jobID string) ([]model.CV, error)
	DeleteCV(ctx context.Context, id string) error
	DissociateCV(ctx context.Context, id string) (model.CV, error)

	// Score orchestration.
	GenerateScores(ctx context.Context, jobID string) (service.BatchResult, error)
	StartBatch(ctx context.Context, jobID string) (string, error)
	BatchStatus(ctx context.Context, batchID string) (service.Batch, error)
}

// Aggregates is the dashboard read side.
type Aggregates interface {
	CountJobs(ctx context.Context) int
	CVsPerJob(ctx context.Context) []analytics.JobCVCount
	BestCVPerJob(ctx context.Context) []analytics.BestCV
	JobAverageScore(ctx context.Context) []analytics.JobAverage
	CandidateFitRadar(ctx context.Context, jobID string) ([]analytics.RadarEntry, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	jobsHandler      *JobsHandler
	cvsHandler       *CVsHandler
	matchingsHandler *MatchingsHandler
	dashboardHandler *DashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, agg Aggregates, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		jobsHandler:      NewJobsHandler(deps),
		cvsHandler:       NewCVsHandler(deps),
		matchingsHandler: NewMatchingsHandler(deps),
		dashboardHandler: NewDashboardHandler(agg),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/jobs", MetricsMiddleware(s.jobsHandler.HandleCollection, "jobs"))
	mux.HandleFunc("/jobs/", MetricsMiddleware(s.jobsHandler.HandleItem, "job"))
	mux.HandleFunc("/cvs", MetricsMiddleware(s.cvsHandler.HandleCollection, "cvs"))
	mux.HandleFunc("/cvs/", MetricsMiddleware(s.cvsHandler.HandleItem, "cv"))
	mux.HandleFunc("/matchings/batches/", MetricsMiddleware(s.matchingsHandler.HandleBatchStatus, "batch_status"))
	mux.HandleFunc("/matchings/", MetricsMiddleware(s.matchingsHandler.HandleGenerate, "matchings"))
	mux.HandleFunc("/dashboard/count-jobs", MetricsMiddleware(s.dashboardHandler.HandleCountJobs, "dashboard_count_jobs"))
	mux.HandleFunc("/dashboard/cvs-per-job", MetricsMiddleware(s.dashboardHandler.HandleCVsPerJob, "dashboard_cvs_per_job"))
	mux.HandleFunc("/dashboard/best-cv-per-job", MetricsMiddleware(s.dashboardHandler.HandleBestCVPerJob, "dashboard_best_cv"))
	mux.HandleFunc("/dashboard/job-average-score", MetricsMiddleware(s.dashboardHandler.HandleJobAverageScore, "dashboard_job_average"))
	mux.HandleFunc("/dashboard/candidate-fit-radar/", MetricsMiddleware(s.dashboardHandler.HandleCandidateFitRadar, "dashboard_fit_radar"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service and repository errors to HTTP codes.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrJobNotFound),
		errors.Is(err, repository.ErrCVNotFound),
		errors.Is(err, service.ErrBatchNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrBatchInFlight):
		writeError(w, http.StatusConflict, "conflict", WrapKind(op, ErrConflict, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
