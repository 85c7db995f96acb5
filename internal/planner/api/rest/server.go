package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mkovacev/gridplan/internal/metrics"
	"github.com/mkovacev/gridplan/internal/planner/core"
	"github.com/mkovacev/gridplan/internal/shared/logging"
)

const defaultListLimit = 10

// API serves the planning endpoints on top of a PlanService.
type API struct {
	service core.PlanService
	logger  logging.Logger
}

func NewAPI(service core.PlanService, logger logging.Logger) *API {
	return &API{
		service: service,
		logger:  logger,
	}
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/plans", a.createPlan)
	mux.HandleFunc("GET /api/plans", a.listPlans)
	mux.HandleFunc("GET /api/plans/{id}", a.getPlan)
	mux.HandleFunc("GET /api/plans/{id}/jobs", a.getPlanJobs)
	mux.HandleFunc("GET /health", a.health)
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) createPlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validateCreatePlanRequest(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	plan, err := a.service.BuildPlan(req.ToPlanRequest())
	if err != nil {
		a.respondError(w, planErrorStatus(err), "planning failed", err.Error())
		return
	}

	mergeDepth := 0
	if plan.Merge != nil {
		mergeDepth = plan.Merge.Depth()
	}
	resp := CreatePlanResponse{
		PlanID:     plan.ID.String(),
		Status:     string(plan.Status),
		CreatedAt:  plan.CreatedAt,
		NumJobs:    plan.NumJobs(),
		MergeDepth: mergeDepth,
		Links: Links{
			Self: fmt.Sprintf("/api/plans/%s", plan.ID),
			Jobs: fmt.Sprintf("/api/plans/%s/jobs", plan.ID),
		},
	}
	a.respondJSON(w, http.StatusCreated, resp)
}

// getPlan handles GET /api/plans/{id}
func (a *API) getPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := a.parsePlanID(w, r)
	if !ok {
		return
	}

	plan, err := a.service.GetPlan(id)
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, "lookup failed", err.Error())
		return
	}
	if plan == nil {
		a.respondError(w, http.StatusNotFound, "plan not found", "")
		return
	}

	a.respondJSON(w, http.StatusOK, ToGetPlanResponse(plan))
}

// listPlans handles GET /api/plans with a status filter and pagination
func (a *API) listPlans(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := core.PlanFilter{Limit: defaultListLimit}
	if status := query.Get("status"); status != "" {
		s := core.PlanStatus(status)
		filter.Status = &s
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			filter.Limit = l
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filter.Offset = o
		}
	}

	plans, total, err := a.service.GetPlans(filter)
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, "listing failed", err.Error())
		return
	}

	summaries := make([]PlanSummary, 0, len(plans))
	for _, plan := range plans {
		summaries = append(summaries, ToPlanSummary(plan))
	}

	var nextOffset *int
	if end := filter.Offset + len(summaries); end < total {
		nextOffset = &end
	}

	a.respondJSON(w, http.StatusOK, ListPlansResponse{
		Plans:      summaries,
		Total:      total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
		NextOffset: nextOffset,
	})
}

// getPlanJobs handles GET /api/plans/{id}/jobs
func (a *API) getPlanJobs(w http.ResponseWriter, r *http.Request) {
	id, ok := a.parsePlanID(w, r)
	if !ok {
		return
	}

	plan, err := a.service.GetPlan(id)
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, "lookup failed", err.Error())
		return
	}
	if plan == nil {
		a.respondError(w, http.StatusNotFound, "plan not found", "")
		return
	}

	jobs := make([]JobInfo, 0, len(plan.Jobs))
	for _, job := range plan.Jobs {
		jobs = append(jobs, ToJobInfo(job, plan.OutputBase))
	}
	a.respondJSON(w, http.StatusOK, GetJobsResponse{Jobs: jobs})
}

func (a *API) parsePlanID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid plan ID", err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func validateCreatePlanRequest(req *CreatePlanRequest) error {
	if req.Name == "" {
		return fmt.Errorf("plan name is required")
	}

	if len(req.Dataset.Files) == 0 {
		return fmt.Errorf("at least one input file is required")
	}

	if req.Split.Mode == "" {
		return fmt.Errorf("split mode is required")
	}

	if req.Split.UnitsPerJob <= 0 {
		return fmt.Errorf("unitsPerJob must be greater than 0")
	}

	if req.GroupSize < 0 || req.GroupSize == 1 {
		return fmt.Errorf("groupSize must be 0 (no merge) or at least 2")
	}

	return nil
}

// planErrorStatus maps planning failures to 422: the request was well-formed
// but the dataset and policy cannot produce a plan.
func planErrorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrEmptyDataset),
		errors.Is(err, core.ErrShapeMismatch),
		errors.Is(err, core.ErrNothingToPartition),
		errors.Is(err, core.ErrNoOutputsToMerge),
		errors.Is(err, core.ErrInvalidPolicy),
		errors.Is(err, core.ErrInvalidGroupSize):
		return http.StatusUnprocessableEntity
	}
	var unresolved *core.UnresolvedLumiError
	if errors.As(err, &unresolved) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (a *API) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (a *API) respondError(w http.ResponseWriter, statusCode int, error string, message string) {
	resp := ErrorResponse{
		Error:   error,
		Message: message,
		Code:    statusCode,
	}
	a.respondJSON(w, statusCode, resp)
}

const (
	readTimeout  = 15 * time.Second
	writeTimeout = 15 * time.Second
	idleTimeout  = 60 * time.Second
)

// NewServer wires the API, an optional metrics endpoint, and the standard
// middleware chain into an http.Server.
func NewServer(addr string, service core.PlanService, m *metrics.PlannerMetrics, logger logging.Logger) *http.Server {
	api := NewAPI(service, logger)
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	handler := ChainMiddleware(
		mux,
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
	)

	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}
