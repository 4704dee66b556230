package schedule

import (
	"fmt"
	"time"

	"taskflow/core/internal/task"
)

// version is the orchestrator's own schema version, surfaced in result
// metadata for callers that persist results across releases.
const version = "1.0"

// ResultMetadata carries bookkeeping about one orchestration run.
type ResultMetadata struct {
	OrchestrationTime time.Duration
	Strategy          task.SchedulingStrategy
	Goal              task.OptimizationGoal
	Version           string
}

// OrchestrationResult is the output of Orchestrate (§4.H step 11).
type OrchestrationResult struct {
	Tasks               []*task.Task
	CriticalPath        []string
	TotalDuration       float64
	ParallelGroups      []task.ParallelGroup
	ResourceUtilization []ResourceUtilization
	RiskAssessment      RiskAssessment
	Recommendations     []string
	Metadata            ResultMetadata
}

// Orchestrate runs the ten-step pipeline of §4.H over tasks using cfg.
//
// CPM is computed unconditionally because every later step (parallel
// grouping buckets by earliest start, total duration reads earliest
// finish) depends on its node times; cfg.EnableCriticalPath instead gates
// whether the critical path is surfaced in the result and whether strict
// mode's negative-float check applies, not whether CPM itself runs.
func Orchestrate(tasks []*task.Task, cfg task.OrchestrationConfig) (*OrchestrationResult, error) {
	start := time.Now()

	g, err := NewGraph(tasks)
	if err != nil {
		return nil, err
	}
	if err := g.ValidateAcyclic(); err != nil {
		return nil, err
	}

	cpm, err := RunCPM(g, cfg.StrictMode && cfg.EnableCriticalPath)
	if err != nil {
		return nil, err
	}

	ordered := Order(cfg.SchedulingStrategy, tasks, cpm.Times)

	var groups []task.ParallelGroup
	if cfg.EnableParallelOptimization {
		maxParallel := cfg.MaxParallelTasks
		if maxParallel < 1 {
			maxParallel = 1
		}
		groups = FindParallelGroups(tasks, cpm.Times, maxParallel)
	}

	var resources []ResourceUtilization
	if cfg.EnableResourceLeveling {
		resources = ComputeResourceUtilization(tasks)
	}

	risk := RiskAssessment{}
	if cfg.EnableRiskAnalysis {
		risk = AnalyzeRisk(tasks, cpm.Times, resources)
	}

	var criticalPath []string
	if cfg.EnableCriticalPath {
		criticalPath = cpm.CriticalPath
	}

	totalDuration := 0.0
	for _, sinkID := range g.Sinks() {
		if cpm.Times[sinkID].EarliestFinish > totalDuration {
			totalDuration = cpm.Times[sinkID].EarliestFinish
		}
	}

	recommendations := buildRecommendations(tasks, cpm, groups, resources)

	return &OrchestrationResult{
		Tasks:               ordered,
		CriticalPath:        criticalPath,
		TotalDuration:        totalDuration,
		ParallelGroups:       groups,
		ResourceUtilization:  resources,
		RiskAssessment:       risk,
		Recommendations:      recommendations,
		Metadata: ResultMetadata{
			OrchestrationTime: time.Since(start),
			Strategy:          cfg.SchedulingStrategy,
			Goal:              cfg.OptimizationGoal,
			Version:           version,
		},
	}, nil
}

// UpdateTaskTimeInfo derives a per-task TimeInfo from the graph's CPM state
// and returns a new slice of tasks carrying it, leaving the input untouched
// per the ownership rule in §3 ("timeInfo patch... returned as a new
// value").
func UpdateTaskTimeInfo(tasks []*task.Task) ([]*task.Task, error) {
	g, err := NewGraph(tasks)
	if err != nil {
		return nil, err
	}
	if err := g.ValidateAcyclic(); err != nil {
		return nil, err
	}
	cpm, err := RunCPM(g, false)
	if err != nil {
		return nil, err
	}

	out := make([]*task.Task, len(tasks))
	for i, t := range tasks {
		nt := cpm.Times[t.ID]
		cp := *t
		cp.TimeInfo = &task.TimeInfo{
			EarliestStart:  nt.EarliestStart,
			LatestStart:    nt.LatestStart,
			EarliestFinish: nt.EarliestFinish,
			LatestFinish:   nt.LatestFinish,
			TotalFloat:     nt.TotalFloat,
			FreeFloat:      nt.FreeFloat,
			IsCritical:     nt.IsCritical,
		}
		out[i] = &cp
	}
	return out, nil
}

func buildRecommendations(tasks []*task.Task, cpm *CPMResult, groups []task.ParallelGroup, resources []ResourceUtilization) []string {
	var recs []string
	if len(tasks) == 0 {
		return recs
	}

	criticalRatio := float64(len(cpm.CriticalPath)) / float64(len(tasks))
	if criticalRatio > 0.3 {
		recs = append(recs, fmt.Sprintf("%.0f%% of tasks are on the critical path; consider splitting or fast-tracking the largest of them.", criticalRatio*100))
	}

	if len(groups) > 0 {
		recs = append(recs, fmt.Sprintf("%d parallel execution group(s) identified; assign distinct owners to exploit them.", len(groups)))
	} else {
		recs = append(recs, "No parallelizable groups found; the schedule is effectively sequential.")
	}

	overAllocated := 0
	underAllocated := 0
	for _, r := range resources {
		if r.OverAllocated {
			overAllocated++
		} else if r.TotalCapacity > 0 && r.UtilizationRatio < 0.5 {
			underAllocated++
		}
	}
	if overAllocated > 0 {
		recs = append(recs, fmt.Sprintf("%d resource(s) are over-allocated; rebalance before the plan starts.", overAllocated))
	}
	if underAllocated > 0 {
		recs = append(recs, fmt.Sprintf("%d resource(s) are under 50%% utilized; they may absorb additional scope.", underAllocated))
	}

	longTasks := 0
	for _, t := range tasks {
		if Duration(t) > 40 {
			longTasks++
		}
	}
	if longTasks > 0 {
		recs = append(recs, fmt.Sprintf("%d task(s) exceed 40 hours; break them into smaller units to reduce schedule risk.", longTasks))
	}

	return recs
}
