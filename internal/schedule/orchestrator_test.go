package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"

	"taskflow/core/internal/task"
)

func TestOrchestrate_TrivialChain(t *testing.T) {
	a := hoursTask("A", 1)
	b := hoursTask("B", 2)
	c := hoursTask("C", 3)
	b.DependencyRelations = []task.Dependency{fsEdge("A", "B")}
	c.DependencyRelations = []task.Dependency{fsEdge("B", "C")}

	cfg := task.DefaultOrchestrationConfig()
	cfg.SchedulingStrategy = task.StrategyCriticalPath

	result, err := Orchestrate([]*task.Task{a, b, c}, cfg)
	require.NoError(t, err)
	require.Equal(t, 6.0, result.TotalDuration)
	require.ElementsMatch(t, []string{"A", "B", "C"}, result.CriticalPath)
	require.Empty(t, result.ParallelGroups)
	require.Equal(t, "1.0", result.Metadata.Version)
}

// Acyclic precondition (§8 property 1): orchestrate returns without error
// iff the implied edge set is acyclic.
func TestOrchestrate_CycleIsRejected(t *testing.T) {
	a := hoursTask("A", 1)
	b := hoursTask("B", 1)
	a.DependencyRelations = []task.Dependency{fsEdge("B", "A")}
	b.DependencyRelations = []task.Dependency{fsEdge("A", "B")}

	cfg := task.DefaultOrchestrationConfig()
	_, err := Orchestrate([]*task.Task{a, b}, cfg)
	require.Error(t, err)
}

func TestOrchestrate_EmptyTaskSetSucceeds(t *testing.T) {
	cfg := task.DefaultOrchestrationConfig()
	result, err := Orchestrate(nil, cfg)
	require.NoError(t, err)
	require.Equal(t, 0.0, result.TotalDuration)
	require.Empty(t, result.Tasks)
}

func TestOrchestrate_DisablingPhasesSkipsOutputs(t *testing.T) {
	a := hoursTask("A", 1)
	b := hoursTask("B", 1)
	b.Dependencies = []string{"A"}

	cfg := task.DefaultOrchestrationConfig()
	cfg.EnableCriticalPath = false
	cfg.EnableParallelOptimization = false
	cfg.EnableResourceLeveling = false
	cfg.EnableRiskAnalysis = false

	result, err := Orchestrate([]*task.Task{a, b}, cfg)
	require.NoError(t, err)
	require.Empty(t, result.CriticalPath)
	require.Empty(t, result.ParallelGroups)
	require.Empty(t, result.ResourceUtilization)
	require.Empty(t, result.RiskAssessment.RiskFactors)
}

func TestUpdateTaskTimeInfo_PatchesWithoutMutatingInput(t *testing.T) {
	a := hoursTask("A", 1)
	b := hoursTask("B", 2)
	b.Dependencies = []string{"A"}
	require.Nil(t, a.TimeInfo)

	patched, err := UpdateTaskTimeInfo([]*task.Task{a, b})
	require.NoError(t, err)
	require.Nil(t, a.TimeInfo, "input task must be left untouched")
	require.NotNil(t, patched[0].TimeInfo)
	require.Equal(t, 0.0, patched[0].TimeInfo.EarliestStart)
	require.Equal(t, 1.0, patched[1].TimeInfo.EarliestStart)
}
