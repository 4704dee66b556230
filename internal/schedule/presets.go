package schedule

import (
	"os"

	"gopkg.in/yaml.v3"

	"taskflow/core/internal/task"
)

// PresetName identifies one of the eight named orchestration presets
// (§4.H "Presets").
type PresetName string

const (
	PresetAgileSprint     PresetName = "agile_sprint"
	PresetWaterfall       PresetName = "waterfall"
	PresetCriticalChain   PresetName = "critical_chain"
	PresetLeanStartup     PresetName = "lean_startup"
	PresetRapidPrototype  PresetName = "rapid_prototype"
	PresetEnterprise      PresetName = "enterprise"
	PresetResearch        PresetName = "research"
	PresetMaintenance     PresetName = "maintenance"
)

// basePresets returns each preset's fixed partial configuration, built on
// top of task.DefaultOrchestrationConfig().
func basePresets() map[PresetName]task.OrchestrationConfig {
	d := task.DefaultOrchestrationConfig()

	agile := d
	agile.SchedulingStrategy = task.StrategyPriorityFirst
	agile.OptimizationGoal = task.GoalBalanced
	agile.MaxParallelTasks = 3
	agile.BufferPercentage = 0.15

	waterfall := d
	waterfall.SchedulingStrategy = task.StrategyCriticalPath
	waterfall.OptimizationGoal = task.GoalMaximizeQuality
	waterfall.MaxParallelTasks = 2
	waterfall.EnableParallelOptimization = false
	waterfall.BufferPercentage = 0.2

	criticalChain := d
	criticalChain.SchedulingStrategy = task.StrategyCriticalPath
	criticalChain.OptimizationGoal = task.GoalMinimizeDuration
	criticalChain.MaxParallelTasks = 4
	criticalChain.EnableResourceLeveling = true
	criticalChain.BufferPercentage = 0.25

	leanStartup := d
	leanStartup.SchedulingStrategy = task.StrategyShortestFirst
	leanStartup.OptimizationGoal = task.GoalMinimizeDuration
	leanStartup.MaxParallelTasks = 5
	leanStartup.BufferPercentage = 0.05

	rapidPrototype := d
	rapidPrototype.SchedulingStrategy = task.StrategyShortestFirst
	rapidPrototype.OptimizationGoal = task.GoalMinimizeDuration
	rapidPrototype.MaxParallelTasks = 8
	rapidPrototype.EnableRiskAnalysis = false
	rapidPrototype.BufferPercentage = 0.0

	enterprise := d
	enterprise.SchedulingStrategy = task.StrategyCriticalPath
	enterprise.OptimizationGoal = task.GoalMaximizeQuality
	enterprise.MaxParallelTasks = 10
	enterprise.EnableResourceLeveling = true
	enterprise.BufferPercentage = 0.3

	research := d
	research.SchedulingStrategy = task.StrategyEarlyStart
	research.OptimizationGoal = task.GoalMaximizeQuality
	research.MaxParallelTasks = 3
	research.BufferPercentage = 0.4

	maintenance := d
	maintenance.SchedulingStrategy = task.StrategyPriorityFirst
	maintenance.OptimizationGoal = task.GoalBalanced
	maintenance.MaxParallelTasks = 4
	maintenance.EnableCriticalPath = false
	maintenance.BufferPercentage = 0.1

	return map[PresetName]task.OrchestrationConfig{
		PresetAgileSprint:    agile,
		PresetWaterfall:      waterfall,
		PresetCriticalChain:  criticalChain,
		PresetLeanStartup:    leanStartup,
		PresetRapidPrototype: rapidPrototype,
		PresetEnterprise:     enterprise,
		PresetResearch:       research,
		PresetMaintenance:    maintenance,
	}
}

// ConfigOverride is a partial OrchestrationConfig, loadable from YAML, whose
// non-nil fields replace the matching field of a base preset.
type ConfigOverride struct {
	EnableCriticalPath         *bool    `yaml:"enable_critical_path,omitempty"`
	EnableParallelOptimization *bool   `yaml:"enable_parallel_optimization,omitempty"`
	EnableResourceLeveling     *bool    `yaml:"enable_resource_leveling,omitempty"`
	EnableRiskAnalysis         *bool    `yaml:"enable_risk_analysis,omitempty"`
	SchedulingStrategy         *string  `yaml:"scheduling_strategy,omitempty"`
	OptimizationGoal           *string  `yaml:"optimization_goal,omitempty"`
	MaxParallelTasks           *int     `yaml:"max_parallel_tasks,omitempty"`
	WorkingHoursPerDay         *float64 `yaml:"working_hours_per_day,omitempty"`
	WorkingDaysPerWeek         *float64 `yaml:"working_days_per_week,omitempty"`
	BufferPercentage           *float64 `yaml:"buffer_percentage,omitempty"`
	StrictMode                 *bool    `yaml:"strict_mode,omitempty"`
}

// Resolve returns the configuration for preset, with override's non-nil
// fields applied on top of the preset's fixed base.
func Resolve(preset PresetName, override *ConfigOverride) task.OrchestrationConfig {
	cfg, ok := basePresets()[preset]
	if !ok {
		cfg = task.DefaultOrchestrationConfig()
	}
	if override == nil {
		return cfg
	}
	if override.EnableCriticalPath != nil {
		cfg.EnableCriticalPath = *override.EnableCriticalPath
	}
	if override.EnableParallelOptimization != nil {
		cfg.EnableParallelOptimization = *override.EnableParallelOptimization
	}
	if override.EnableResourceLeveling != nil {
		cfg.EnableResourceLeveling = *override.EnableResourceLeveling
	}
	if override.EnableRiskAnalysis != nil {
		cfg.EnableRiskAnalysis = *override.EnableRiskAnalysis
	}
	if override.SchedulingStrategy != nil {
		cfg.SchedulingStrategy = task.SchedulingStrategy(*override.SchedulingStrategy)
	}
	if override.OptimizationGoal != nil {
		cfg.OptimizationGoal = task.OptimizationGoal(*override.OptimizationGoal)
	}
	if override.MaxParallelTasks != nil {
		cfg.MaxParallelTasks = *override.MaxParallelTasks
	}
	if override.WorkingHoursPerDay != nil {
		cfg.WorkingHoursPerDay = *override.WorkingHoursPerDay
	}
	if override.WorkingDaysPerWeek != nil {
		cfg.WorkingDaysPerWeek = *override.WorkingDaysPerWeek
	}
	if override.BufferPercentage != nil {
		cfg.BufferPercentage = *override.BufferPercentage
	}
	if override.StrictMode != nil {
		cfg.StrictMode = *override.StrictMode
	}
	return cfg
}

// LoadOverridesFile reads a YAML document mapping preset names to
// ConfigOverride fragments, the way the teacher loads provider configs from
// file-sourced YAML.
func LoadOverridesFile(path string) (map[PresetName]ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]ConfigOverride
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[PresetName]ConfigOverride, len(raw))
	for k, v := range raw {
		out[PresetName(k)] = v
	}
	return out, nil
}

// Characteristics describes a project's shape for RecommendPreset.
type Characteristics struct {
	TeamSize          int
	DurationWeeks     float64
	HighUncertainty   bool
	QualityCritical   bool
	TimeConstrained   bool
	BudgetConstrained bool
	Experimental      bool
	Regulated         bool
	IsMaintenance     bool
}

// RecommendPreset maps project characteristics to a preset via a fixed rule
// cascade, evaluated top to bottom; the first matching rule wins (§4.H).
func RecommendPreset(c Characteristics) PresetName {
	switch {
	case c.IsMaintenance:
		return PresetMaintenance
	case c.Regulated || (c.QualityCritical && c.TeamSize > 15):
		return PresetEnterprise
	case c.Experimental && c.HighUncertainty:
		return PresetResearch
	case c.TimeConstrained && !c.QualityCritical:
		return PresetRapidPrototype
	case c.BudgetConstrained && c.HighUncertainty:
		return PresetLeanStartup
	case c.TeamSize > 20 || c.DurationWeeks > 26:
		return PresetWaterfall
	case c.QualityCritical && c.TimeConstrained:
		return PresetCriticalChain
	case c.DurationWeeks <= 2 && c.TeamSize <= 10:
		return PresetAgileSprint
	default:
		return PresetAgileSprint
	}
}
