package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"

	"taskflow/core/internal/task"
)

// Topological order property (§8 property 2): in critical_path ordering,
// every task appears at or before every task with a larger ES.
func TestOrder_CriticalPathRespectsEarliestStart(t *testing.T) {
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

	ordered := Order(task.StrategyCriticalPath, []*task.Task{a, b, c, d}, result.Times)
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			esI := result.Times[ordered[i].ID].EarliestStart
			esJ := result.Times[ordered[j].ID].EarliestStart
			require.LessOrEqual(t, esI, esJ)
		}
	}
	// A and D are unambiguous anchors: A has no predecessors, D is the sink.
	require.Equal(t, "A", ordered[0].ID)
	require.Equal(t, "D", ordered[len(ordered)-1].ID)
}

func TestOrder_PriorityFirstDescending(t *testing.T) {
	low := hoursTask("low", 1)
	low.Priority = task.PriorityLow
	high := hoursTask("high", 1)
	high.Priority = task.PriorityHigh
	critical := hoursTask("critical", 1)
	critical.Priority = task.PriorityCritical

	times := map[string]*NodeTimes{
		"low":      {},
		"high":     {},
		"critical": {},
	}
	ordered := Order(task.StrategyPriorityFirst, []*task.Task{low, high, critical}, times)
	require.Equal(t, []string{"critical", "high", "low"}, []string{ordered[0].ID, ordered[1].ID, ordered[2].ID})
}

func TestOrder_ShortestAndLongestFirst(t *testing.T) {
	small := hoursTask("small", 1)
	big := hoursTask("big", 10)
	times := map[string]*NodeTimes{"small": {}, "big": {}}

	shortest := Order(task.StrategyShortestFirst, []*task.Task{big, small}, times)
	require.Equal(t, "small", shortest[0].ID)

	longest := Order(task.StrategyLongestFirst, []*task.Task{small, big}, times)
	require.Equal(t, "big", longest[0].ID)
}

func TestOrder_TieBreakIsDeterministic(t *testing.T) {
	b := hoursTask("b", 1)
	a := hoursTask("a", 1)
	times := map[string]*NodeTimes{"a": {}, "b": {}}
	ordered := Order(task.StrategyEarlyStart, []*task.Task{b, a}, times)
	require.Equal(t, "a", ordered[0].ID)
}
