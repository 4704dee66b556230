package schedule

import (
	"sort"

	"taskflow/core/internal/task"
)

// Order produces the task ordering for strategy over tasks, given their CPM
// times (§4.I). The graph itself is untouched; ordering is advisory only.
// resource_leveling and late_start intentionally alias critical_path per
// §9's guidance against inventing distinct logic for them.
func Order(strategy task.SchedulingStrategy, tasks []*task.Task, times map[string]*NodeTimes) []*task.Task {
	ordered := append([]*task.Task(nil), tasks...)

	less := func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		ta, tb := times[a.ID], times[b.ID]

		switch strategy {
		case task.StrategyCriticalPath, task.StrategyResourceLeveling, task.StrategyLateStart:
			if ta.EarliestStart != tb.EarliestStart {
				return ta.EarliestStart < tb.EarliestStart
			}
			if ta.IsCritical != tb.IsCritical {
				return ta.IsCritical // critical first among equal ES
			}
			if ta.TotalFloat != tb.TotalFloat {
				return ta.TotalFloat < tb.TotalFloat
			}
		case task.StrategyPriorityFirst:
			if a.Priority.Ordinal() != b.Priority.Ordinal() {
				return a.Priority.Ordinal() > b.Priority.Ordinal() // DESC
			}
			if ta.EarliestStart != tb.EarliestStart {
				return ta.EarliestStart < tb.EarliestStart
			}
		case task.StrategyShortestFirst:
			da, db := Duration(a), Duration(b)
			if da != db {
				return da < db
			}
		case task.StrategyLongestFirst:
			da, db := Duration(a), Duration(b)
			if da != db {
				return da > db
			}
		case task.StrategyEarlyStart:
			if ta.EarliestStart != tb.EarliestStart {
				return ta.EarliestStart < tb.EarliestStart
			}
		}

		// Universal tie-break (§4.E): smaller totalFloat, then smaller
		// priority ordinal, then id lexicographically.
		if ta.TotalFloat != tb.TotalFloat {
			return ta.TotalFloat < tb.TotalFloat
		}
		if a.Priority.Ordinal() != b.Priority.Ordinal() {
			return a.Priority.Ordinal() < b.Priority.Ordinal()
		}
		return a.ID < b.ID
	}

	sort.SliceStable(ordered, less)
	return ordered
}
