package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"

	"taskflow/core/internal/task"
)

func TestResolve_AppliesOverrideOnTopOfPreset(t *testing.T) {
	base := Resolve(PresetAgileSprint, nil)
	require.Equal(t, task.StrategyPriorityFirst, base.SchedulingStrategy)

	five := 5
	override := &ConfigOverride{MaxParallelTasks: &five}
	overridden := Resolve(PresetAgileSprint, override)
	require.Equal(t, 5, overridden.MaxParallelTasks)
	require.Equal(t, base.SchedulingStrategy, overridden.SchedulingStrategy)
}

func TestResolve_UnknownPresetFallsBackToDefault(t *testing.T) {
	cfg := Resolve(PresetName("does_not_exist"), nil)
	require.Equal(t, task.DefaultOrchestrationConfig(), cfg)
}

func TestRecommendPreset_Cascade(t *testing.T) {
	cases := []struct {
		name string
		c    Characteristics
		want PresetName
	}{
		{"maintenance flag wins first", Characteristics{IsMaintenance: true, Regulated: true}, PresetMaintenance},
		{"regulated goes enterprise", Characteristics{Regulated: true}, PresetEnterprise},
		{"experimental and uncertain goes research", Characteristics{Experimental: true, HighUncertainty: true}, PresetResearch},
		{"time constrained non-critical goes rapid prototype", Characteristics{TimeConstrained: true}, PresetRapidPrototype},
		{"budget constrained and uncertain goes lean startup", Characteristics{BudgetConstrained: true, HighUncertainty: true}, PresetLeanStartup},
		{"large team goes waterfall", Characteristics{TeamSize: 25}, PresetWaterfall},
		{"quality critical and time constrained goes critical chain", Characteristics{QualityCritical: true, TimeConstrained: true}, PresetCriticalChain},
		{"small short team goes agile sprint", Characteristics{TeamSize: 5, DurationWeeks: 2}, PresetAgileSprint},
		{"default falls back to agile sprint", Characteristics{TeamSize: 15, DurationWeeks: 10}, PresetAgileSprint},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, RecommendPreset(tc.c))
		})
	}
}
