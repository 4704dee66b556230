package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"

	"taskflow/core/internal/task"
)

func hoursTask(id string, hours float64) *task.Task {
	return &task.Task{ID: id, Priority: task.PriorityMedium, EstimatedHours: hours}
}

func fsEdge(from, to string) task.Dependency {
	return task.Dependency{PredecessorID: from, SuccessorID: to, Type: task.FinishToStart}
}

// S1 — trivial chain.
func TestRunCPM_TrivialChain(t *testing.T) {
	a := hoursTask("A", 1)
	b := hoursTask("B", 2)
	c := hoursTask("C", 3)
	b.DependencyRelations = []task.Dependency{fsEdge("A", "B")}
	c.DependencyRelations = []task.Dependency{fsEdge("B", "C")}

	g, err := NewGraph([]*task.Task{a, b, c})
	require.NoError(t, err)
	require.NoError(t, g.ValidateAcyclic())

	result, err := RunCPM(g, true)
	require.NoError(t, err)

	require.Equal(t, 0.0, result.Times["A"].EarliestStart)
	require.Equal(t, 1.0, result.Times["B"].EarliestStart)
	require.Equal(t, 3.0, result.Times["C"].EarliestStart)
	require.Equal(t, 1.0, result.Times["A"].EarliestFinish)
	require.Equal(t, 3.0, result.Times["B"].EarliestFinish)
	require.Equal(t, 6.0, result.Times["C"].EarliestFinish)
	require.Equal(t, 6.0, result.ProjectFinish)
	require.ElementsMatch(t, []string{"A", "B", "C"}, result.CriticalPath)
}

// S2 — fan-out with float.
func TestRunCPM_FanOutWithFloat(t *testing.T) {
	a := hoursTask("A", 4)
	b := hoursTask("B", 1)
	c := hoursTask("C", 2)
	d := hoursTask("D", 1)
	b.DependencyRelations = []task.Dependency{fsEdge("A", "B")}
	c.DependencyRelations = []task.Dependency{fsEdge("A", "C")}
	d.DependencyRelations = []task.Dependency{fsEdge("B", "D"), fsEdge("C", "D")}

	g, err := NewGraph([]*task.Task{a, b, c, d})
	require.NoError(t, err)
	require.NoError(t, g.ValidateAcyclic())

	result, err := RunCPM(g, true)
	require.NoError(t, err)

	require.Equal(t, 6.0, result.Times["D"].EarliestStart)
	require.InDelta(t, 1.0, result.Times["B"].TotalFloat, epsilon)
	require.InDelta(t, 0.0, result.Times["C"].TotalFloat, epsilon)
	require.ElementsMatch(t, []string{"A", "C", "D"}, result.CriticalPath)
}

// S3 — start-to-start with lag.
func TestRunCPM_StartToStartLag(t *testing.T) {
	a := hoursTask("A", 10)
	b := hoursTask("B", 5)
	b.DependencyRelations = []task.Dependency{{PredecessorID: "A", SuccessorID: "B", Type: task.StartToStart, Lag: 3}}

	g, err := NewGraph([]*task.Task{a, b})
	require.NoError(t, err)
	result, err := RunCPM(g, true)
	require.NoError(t, err)

	require.Equal(t, 3.0, result.Times["B"].EarliestStart)
	require.Equal(t, 8.0, result.Times["B"].EarliestFinish)
	require.Equal(t, 10.0, result.ProjectFinish)
}

// S4 — cycle detection.
func TestValidateAcyclic_DetectsCycle(t *testing.T) {
	a := hoursTask("A", 1)
	b := hoursTask("B", 1)
	a.DependencyRelations = []task.Dependency{fsEdge("B", "A")}
	b.DependencyRelations = []task.Dependency{fsEdge("A", "B")}

	g, err := NewGraph([]*task.Task{a, b})
	require.NoError(t, err)

	err = g.ValidateAcyclic()
	require.Error(t, err)
	var cycleErr interface{ Error() string }
	require.ErrorAs(t, err, &cycleErr)
}

// CPM consistency (§8 property 3): every node satisfies EF==ES+duration,
// LF==LS+duration, totalFloat==LS-ES, and (in a feasible graph) totalFloat>=0.
func TestRunCPM_ConsistencyInvariants(t *testing.T) {
	a := hoursTask("A", 4)
	b := hoursTask("B", 1)
	c := hoursTask("C", 2)
	d := hoursTask("D", 1)
	b.DependencyRelations = []task.Dependency{fsEdge("A", "B")}
	c.DependencyRelations = []task.Dependency{fsEdge("A", "C")}
	d.DependencyRelations = []task.Dependency{fsEdge("B", "D"), fsEdge("C", "D")}

	g, err := NewGraph([]*task.Task{a, b, c, d})
	require.NoError(t, err)
	result, err := RunCPM(g, true)
	require.NoError(t, err)

	dur := map[string]float64{"A": 4, "B": 1, "C": 2, "D": 1}
	for id, nt := range result.Times {
		require.InDelta(t, nt.EarliestStart+dur[id], nt.EarliestFinish, epsilon)
		require.InDelta(t, nt.LatestStart+dur[id], nt.LatestFinish, epsilon)
		require.InDelta(t, nt.LatestStart-nt.EarliestStart, nt.TotalFloat, epsilon)
		require.GreaterOrEqual(t, nt.TotalFloat, -epsilon)
		require.Equal(t, nt.TotalFloat <= epsilon && nt.TotalFloat >= -epsilon, nt.IsCritical)
	}
}
