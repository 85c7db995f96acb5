package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/mkovacev/gridplan/internal/metrics"
	"github.com/mkovacev/gridplan/internal/planner/core"
	"github.com/mkovacev/gridplan/internal/shared/logging"
)

const DefaultOutputBase = "output.root"

type planService struct {
	store   core.PlanStore
	metrics *metrics.PlannerMetrics
	logger  logging.Logger
}

// NewPlanService builds the planning orchestrator. The metrics handle may be
// nil when no endpoint is exposed (CLI usage).
func NewPlanService(store core.PlanStore, m *metrics.PlannerMetrics, logger logging.Logger) core.PlanService {
	return &planService{
		store:   store,
		metrics: m,
		logger:  logger,
	}
}

// BuildPlan partitions the dataset, builds the submission graph and, when a
// group size is given, the merge tree over the per-job outputs. Planning
// errors are fatal to the request: nothing is stored on failure.
//
// Plan ids are fresh per call, but the graph itself is a pure function of the
// dataset and policy: re-planning identical inputs reproduces every node id,
// edge, and job slice, which is what makes resubmission after a partial
// failure safe.
func (s *planService) BuildPlan(req core.PlanRequest) (*core.Plan, error) {
	jobs, err := core.Partition(req.Dataset, req.Policy)
	if err != nil {
		s.countFailure()
		return nil, err
	}

	graph, err := core.Build(jobs)
	if err != nil {
		s.countFailure()
		return nil, err
	}

	outputBase := req.OutputBase
	if outputBase == "" {
		outputBase = DefaultOutputBase
	}

	plan := &core.Plan{
		ID:         uuid.New(),
		Name:       req.Name,
		Status:     core.PlanStatusPlanned,
		Policy:     req.Policy,
		GroupSize:  req.GroupSize,
		Jobs:       jobs,
		Graph:      graph,
		OutputBase: outputBase,
		CreatedAt:  time.Now().UTC(),
	}

	if req.GroupSize > 0 {
		tree, err := core.PlanMerge(plan.LeafOutputs(), req.GroupSize)
		if err != nil {
			s.countFailure()
			return nil, err
		}
		plan.Merge = tree
	}

	if err := s.store.SavePlan(plan); err != nil {
		return nil, err
	}

	s.countSuccess(plan)

	mergeDepth := 0
	if plan.Merge != nil {
		mergeDepth = plan.Merge.Depth()
	}
	s.logger.Info("Plan built",
		"plan_id", plan.ID.String(),
		"name", plan.Name,
		"split_mode", string(req.Policy.Mode),
		"num_jobs", len(jobs),
		"merge_depth", mergeDepth,
	)

	return plan, nil
}

func (s *planService) GetPlan(id uuid.UUID) (*core.Plan, error) {
	return s.store.GetPlanByID(id)
}

func (s *planService) GetPlans(filter core.PlanFilter) ([]*core.Plan, int, error) {
	return s.store.GetPlans(filter)
}

func (s *planService) GetJobs(planID uuid.UUID) ([]core.JobSpec, error) {
	plan, err := s.store.GetPlanByID(planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, nil
	}
	return plan.Jobs, nil
}

func (s *planService) countFailure() {
	if s.metrics != nil {
		s.metrics.PlanFailures.Inc()
	}
}

func (s *planService) countSuccess(plan *core.Plan) {
	if s.metrics == nil {
		return
	}
	s.metrics.PlansBuilt.Inc()
	s.metrics.JobsPlanned.Add(float64(len(plan.Jobs)))
	if plan.Merge != nil {
		for _, level := range plan.Merge.Levels {
			s.metrics.MergeNodesPlanned.Add(float64(len(level)))
		}
		s.metrics.MergeDepth.Set(float64(plan.Merge.Depth()))
	}
}
