// Package task defines the data model shared by the dependency graph, CPM
// engine, parallel-group finder, risk analyzer, and orchestrator facade.
package task

import "time"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
	StatusFailed     Status = "failed"
	StatusBlocked    Status = "blocked"
	StatusOnHold     Status = "on_hold"
	StatusReview     Status = "review"
	StatusTodo       Status = "todo"
)

// Priority is the urgency of a task, used by the priority_first strategy and
// smart routing heuristics.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Ordinal returns priority_first's DESC sort key: critical=4 .. low=1. An
// unrecognized priority sorts as 0 (lowest).
func (p Priority) Ordinal() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Type categorizes the kind of work a task represents.
type Type string

const (
	TypeFeature    Type = "feature"
	TypeBugFix     Type = "bug_fix"
	TypeRefactor   Type = "refactor"
	TypeTest       Type = "test"
	TypeDocument   Type = "document"
	TypeAnalysis   Type = "analysis"
	TypeDesign     Type = "design"
	TypeDeployment Type = "deployment"
	TypeResearch   Type = "research"
)

// DependencyType is the CPM precedence relation between a predecessor and a
// successor task.
type DependencyType string

const (
	FinishToStart  DependencyType = "finish_to_start"
	StartToStart   DependencyType = "start_to_start"
	FinishToFinish DependencyType = "finish_to_finish"
	StartToFinish  DependencyType = "start_to_finish"
)

// ResourceType classifies a ResourceRequirement.
type ResourceType string

const (
	ResourceHuman     ResourceType = "human"
	ResourceEquipment ResourceType = "equipment"
	ResourceMaterial  ResourceType = "material"
	ResourceSoftware  ResourceType = "software"
	ResourceBudget    ResourceType = "budget"
)

// RiskCategory classifies a RiskFactor.
type RiskCategory string

const (
	RiskTechnical     RiskCategory = "technical"
	RiskResource      RiskCategory = "resource"
	RiskSchedule      RiskCategory = "schedule"
	RiskQuality       RiskCategory = "quality"
	RiskExternal      RiskCategory = "external"
	RiskCommunication RiskCategory = "communication"
)

// Dependency is a typed edge between two tasks.
type Dependency struct {
	ID            string
	PredecessorID string
	SuccessorID   string
	Type          DependencyType
	Lag           float64 // hours, may be negative
	Description   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TimeInfo is the CPM output attached to a task after scheduling.
type TimeInfo struct {
	EarliestStart  float64
	LatestStart    float64
	EarliestFinish float64
	LatestFinish   float64
	TotalFloat     float64
	FreeFloat      float64
	IsCritical     bool

	// EstimatedDuration overrides EstimatedHours as the CPM duration input
	// when set; see cpm.Duration.
	EstimatedDuration *float64
}

// ResourceRequirement is a resource a task consumes.
type ResourceRequirement struct {
	ID           string
	Name         string
	Type         ResourceType
	Quantity     float64
	Availability float64
}

// OrchestrationMetadata carries AI-derived or user-supplied scheduling hints.
type OrchestrationMetadata struct {
	Parallelizable *bool // nil means "not explicitly false"
	Complexity     float64
	RequiresReview *bool
}

// Task is a unit of work in a plan.
type Task struct {
	ID          string
	Name        string
	Description string
	Status      Status
	Priority    Priority
	Type        Type

	// Dependencies is the legacy id list, equivalent to FS edges with lag 0.
	Dependencies []string
	// DependencyRelations is the structured edge list; it augments/overrides
	// the legacy Dependencies when both name the same predecessor.
	DependencyRelations []Dependency

	EstimatedHours float64
	ActualHours    *float64
	Assignee       string
	Tags           []string

	CreatedAt   *time.Time
	UpdatedAt   *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	DueDate     *time.Time

	ResourceRequirements  []ResourceRequirement
	OrchestrationMetadata *OrchestrationMetadata
	TimeInfo              *TimeInfo

	// ParentID/SubtaskIDs record hierarchical decomposition when a task was
	// split into subtasks. Advisory only: CPM/graph semantics only ever see
	// ordinary Dependency edges, never the hierarchy.
	ParentID   *string
	SubtaskIDs []string
	Notes      []string
}

// Parallelizable reports whether the task may run in parallel with others,
// per §4.F: true unless OrchestrationMetadata explicitly says false.
func (t *Task) Parallelizable() bool {
	if t.OrchestrationMetadata == nil || t.OrchestrationMetadata.Parallelizable == nil {
		return true
	}
	return *t.OrchestrationMetadata.Parallelizable
}

// RequiresReview reports whether the task explicitly requires review. A nil
// metadata or nil field is treated as "not explicitly false" for the
// purposes of §4.G's quality-review-risk factor — see risk.go.
func (t *Task) RequiresReview() (value bool, explicit bool) {
	if t.OrchestrationMetadata == nil || t.OrchestrationMetadata.RequiresReview == nil {
		return true, false
	}
	return *t.OrchestrationMetadata.RequiresReview, true
}

// Complexity returns the AI-derived complexity score (0..10), or 0 if unset.
func (t *Task) Complexity() float64 {
	if t.OrchestrationMetadata == nil {
		return 0
	}
	return t.OrchestrationMetadata.Complexity
}

// ParallelGroup is a set of tasks the parallel-group finder judged safe to
// run concurrently.
type ParallelGroup struct {
	TaskIDs           []string
	Duration          float64
	RequiredResources []string
	ConflictRisk      float64
}

// RiskFactor is a single identified project risk.
type RiskFactor struct {
	ID              string
	Name            string
	Description     string
	Probability     float64 // 0..1
	Impact          float64 // 1..10
	AffectedTaskIDs []string
	Category        RiskCategory
}

// RiskScore computes probability × impact, clipped to [0, 10].
func (r RiskFactor) RiskScore() float64 {
	score := r.Probability * r.Impact
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

// SchedulingStrategy selects the ordering produced by the strategy layer.
type SchedulingStrategy string

const (
	StrategyCriticalPath     SchedulingStrategy = "critical_path"
	StrategyPriorityFirst    SchedulingStrategy = "priority_first"
	StrategyShortestFirst    SchedulingStrategy = "shortest_first"
	StrategyLongestFirst     SchedulingStrategy = "longest_first"
	StrategyEarlyStart       SchedulingStrategy = "early_start"
	StrategyResourceLeveling SchedulingStrategy = "resource_leveling"
	StrategyLateStart        SchedulingStrategy = "late_start"
)

// OptimizationGoal is an advisory label carried through to recommendations.
type OptimizationGoal string

const (
	GoalMinimizeDuration OptimizationGoal = "minimize_duration"
	GoalMinimizeCost     OptimizationGoal = "minimize_cost"
	GoalMaximizeQuality  OptimizationGoal = "maximize_quality"
	GoalBalanced         OptimizationGoal = "balanced"
)

// OrchestrationConfig controls which orchestration phases run and how.
type OrchestrationConfig struct {
	EnableCriticalPath         bool
	EnableParallelOptimization bool
	EnableResourceLeveling     bool
	EnableRiskAnalysis         bool
	SchedulingStrategy         SchedulingStrategy
	OptimizationGoal           OptimizationGoal
	MaxParallelTasks           int
	WorkingHoursPerDay         float64
	WorkingDaysPerWeek         float64
	BufferPercentage           float64
	// StrictMode turns infeasible-schedule/negative-float conditions into
	// fatal errors instead of advisory flags (§4.J, §7 SchedulingError).
	StrictMode bool
}

// DefaultOrchestrationConfig returns a config with every optimization phase
// enabled and conservative defaults, matching a plain "no preset" run.
func DefaultOrchestrationConfig() OrchestrationConfig {
	return OrchestrationConfig{
		EnableCriticalPath:         true,
		EnableParallelOptimization: true,
		EnableResourceLeveling:     true,
		EnableRiskAnalysis:         true,
		SchedulingStrategy:         StrategyCriticalPath,
		OptimizationGoal:           GoalBalanced,
		MaxParallelTasks:           5,
		WorkingHoursPerDay:         8,
		WorkingDaysPerWeek:         5,
		BufferPercentage:           0.1,
	}
}
