package rest

import (
	"time"
)

type CreatePlanRequest struct {
	Name       string        `json:"name"`
	Dataset    DatasetConfig `json:"dataset"`
	Split      SplitConfig   `json:"split"`
	GroupSize  int           `json:"groupSize,omitempty"`
	OutputBase string        `json:"outputBase,omitempty"`
}

type DatasetConfig struct {
	Files     []string    `json:"files"`
	Secondary []string    `json:"secondary,omitempty"`
	Lumis     []LumiEntry `json:"lumis,omitempty"`
}

// LumiEntry is one luminosity section range of one input file. File is the
// zero-based index of the file the range belongs to.
type LumiEntry struct {
	Run   int64 `json:"run"`
	Start int64 `json:"start"`
	End   int64 `json:"end"`
	File  int   `json:"file"`
}

type SplitConfig struct {
	Mode        string `json:"mode"` // "FILES" or "LUMIS"
	UnitsPerJob int    `json:"unitsPerJob"`
	TotalUnits  *int   `json:"totalUnits,omitempty"` // absent or negative means all
}

type CreatePlanResponse struct {
	PlanID     string    `json:"plan_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	NumJobs    int       `json:"num_jobs"`
	MergeDepth int       `json:"merge_depth"`
	Links      Links     `json:"links"`
}

type Links struct {
	Self string `json:"self"`
	Jobs string `json:"jobs"`
}

type GetPlanResponse struct {
	PlanID     string         `json:"plan_id"`
	Name       string         `json:"name"`
	Status     string         `json:"status"`
	Split      SplitConfig    `json:"split"`
	GroupSize  int            `json:"group_size"`
	NumJobs    int            `json:"num_jobs"`
	Merge      *MergeInfo     `json:"merge,omitempty"`
	Timestamps TimestampsInfo `json:"timestamps"`
	Errors     []ErrorInfo    `json:"errors"`
}

type MergeInfo struct {
	GroupSize int    `json:"group_size"`
	LeafCount int    `json:"leaf_count"`
	Depth     int    `json:"depth"`
	NumNodes  int    `json:"num_nodes"`
	Result    string `json:"result"`
}

type TimestampsInfo struct {
	Created   time.Time  `json:"created"`
	Started   *time.Time `json:"started"`
	Completed *time.Time `json:"completed"`
}

type ErrorInfo struct {
	NodeID    string    `json:"node_id"`
	ExitCode  int       `json:"exit_code"`
	Timestamp time.Time `json:"timestamp"`
}

type ListPlansResponse struct {
	Plans      []PlanSummary `json:"plans"`
	Total      int           `json:"total"`
	Limit      int           `json:"limit"`
	Offset     int           `json:"offset"`
	NextOffset *int          `json:"next_offset,omitempty"`
}

type PlanSummary struct {
	PlanID      string     `json:"plan_id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	NumJobs     int        `json:"num_jobs"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type GetJobsResponse struct {
	Jobs []JobInfo `json:"jobs"`
}

type JobInfo struct {
	Index     int      `json:"index"`
	NodeID    string   `json:"node_id"`
	Output    string   `json:"output"`
	Files     []string `json:"files"`
	Secondary []string `json:"secondary,omitempty"`
	NumLumis  int      `json:"num_lumis"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
