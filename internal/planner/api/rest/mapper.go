package rest

import (
	"github.com/mkovacev/gridplan/internal/planner/core"
)

func (req *CreatePlanRequest) ToPlanRequest() core.PlanRequest {
	lumis := make([]core.LumiRange, 0, len(req.Dataset.Lumis))
	for _, l := range req.Dataset.Lumis {
		lumis = append(lumis, core.LumiRange{
			Run:       l.Run,
			Start:     l.Start,
			End:       l.End,
			FileIndex: l.File,
		})
	}

	return core.PlanRequest{
		Name:    req.Name,
		Dataset: core.NewDataset(req.Dataset.Files, req.Dataset.Secondary, lumis),
		Policy: core.SplitPolicy{
			Mode:        core.SplitMode(req.Split.Mode),
			UnitsPerJob: req.Split.UnitsPerJob,
			TotalUnits: func() int {
				if req.Split.TotalUnits == nil {
					return -1
				}
				return *req.Split.TotalUnits
			}(),
		},
		GroupSize:  req.GroupSize,
		OutputBase: req.OutputBase,
	}
}

func ToGetPlanResponse(plan *core.Plan) GetPlanResponse {
	errors := make([]ErrorInfo, 0, len(plan.Errors))
	for _, e := range plan.Errors {
		errors = append(errors, ErrorInfo{
			NodeID:    e.NodeID,
			ExitCode:  e.ExitCode,
			Timestamp: e.Timestamp,
		})
	}

	totalUnits := plan.Policy.TotalUnits
	resp := GetPlanResponse{
		PlanID: plan.ID.String(),
		Name:   plan.Name,
		Status: string(plan.Status),
		Split: SplitConfig{
			Mode:        string(plan.Policy.Mode),
			UnitsPerJob: plan.Policy.UnitsPerJob,
			TotalUnits:  &totalUnits,
		},
		GroupSize: plan.GroupSize,
		NumJobs:   plan.NumJobs(),
		Timestamps: TimestampsInfo{
			Created:   plan.CreatedAt,
			Started:   plan.StartedAt,
			Completed: plan.CompletedAt,
		},
		Errors: errors,
	}

	if plan.Merge != nil {
		numNodes := 0
		for _, level := range plan.Merge.Levels {
			numNodes += len(level)
		}
		resp.Merge = &MergeInfo{
			GroupSize: plan.Merge.GroupSize,
			LeafCount: plan.Merge.LeafCount,
			Depth:     plan.Merge.Depth(),
			NumNodes:  numNodes,
			Result:    plan.Merge.Result,
		}
	}

	return resp
}

func ToPlanSummary(plan *core.Plan) PlanSummary {
	return PlanSummary{
		PlanID:      plan.ID.String(),
		Name:        plan.Name,
		Status:      string(plan.Status),
		NumJobs:     plan.NumJobs(),
		CreatedAt:   plan.CreatedAt,
		CompletedAt: plan.CompletedAt,
	}
}

func ToJobInfo(job core.JobSpec, outputBase string) JobInfo {
	return JobInfo{
		Index:     job.Index,
		NodeID:    core.JobNodeID(job.Index),
		Output:    core.OutputName(outputBase, job.OutputSuffix),
		Files:     job.PrimarySlice,
		Secondary: job.SecondarySlice,
		NumLumis:  len(job.LumiSlice),
	}
}
