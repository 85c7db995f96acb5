package core

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PlanStatus string

const (
	PlanStatusPlanned   PlanStatus = "PLANNED"
	PlanStatusRunning   PlanStatus = "RUNNING"
	PlanStatusCompleted PlanStatus = "COMPLETED"
	PlanStatusFailed    PlanStatus = "FAILED"
)

// Plan is one planned submission: the partitioned jobs, their fan-out graph,
// and (optionally) the merge tree reducing their outputs. The graph and jobs
// are immutable once built; only status and error fields change afterwards.
type Plan struct {
	ID        uuid.UUID
	Name      string
	Status    PlanStatus
	Policy    SplitPolicy
	GroupSize int

	Jobs  []JobSpec
	Graph *Graph
	Merge *MergeTree

	OutputBase string

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time

	Errors []PlanError
}

// PlanError records one failed graph node.
type PlanError struct {
	NodeID    string
	ExitCode  int
	Timestamp time.Time
}

// NumJobs returns the number of planned compute jobs.
func (p *Plan) NumJobs() int {
	return len(p.Jobs)
}

// LeafOutputs returns the per-job output ids in job index order. These are
// the level-0 inputs of the merge tree.
func (p *Plan) LeafOutputs() []string {
	outputs := make([]string, 0, len(p.Jobs))
	for _, job := range p.Jobs {
		outputs = append(outputs, OutputName(p.OutputBase, job.OutputSuffix))
	}
	return outputs
}

// OutputName inserts a job's suffix before the base name's extension:
// OutputName("output.root", "_3") is "output_3.root".
func OutputName(base, suffix string) string {
	ext := path.Ext(base)
	return strings.TrimSuffix(base, ext) + suffix + ext
}

// PlanRequest carries everything BuildPlan needs. GroupSize zero disables
// merge planning.
type PlanRequest struct {
	Name       string
	Dataset    *Dataset
	Policy     SplitPolicy
	GroupSize  int
	OutputBase string
}

// PlanFilter narrows plan listings.
type PlanFilter struct {
	Status *PlanStatus
	Limit  int
	Offset int
}

// PlanStore persists plans.
type PlanStore interface {
	SavePlan(plan *Plan) error
	UpdatePlan(plan *Plan) error
	GetPlanByID(id uuid.UUID) (*Plan, error)
	GetPlans(filter PlanFilter) ([]*Plan, int, error)
}

// PlanService builds and serves plans.
type PlanService interface {
	BuildPlan(req PlanRequest) (*Plan, error)
	GetPlan(id uuid.UUID) (*Plan, error)
	GetPlans(filter PlanFilter) ([]*Plan, int, error)
	GetJobs(planID uuid.UUID) ([]JobSpec, error)
}
