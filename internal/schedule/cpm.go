package schedule

import (
	"math"
	"sort"

	"taskflow/core/internal/errs"
	"taskflow/core/internal/task"
)

// epsilon bounds the tolerance for "totalFloat == 0" and "totalFloat >= 0"
// comparisons per §3/§4.E/§4.J.
const epsilon = 1e-6

// Duration resolves a task's CPM duration: timeInfo.estimatedDuration if
// set, else estimatedHours, else a default of 8 hours (§4.E).
func Duration(t *task.Task) float64 {
	if t.TimeInfo != nil && t.TimeInfo.EstimatedDuration != nil {
		return *t.TimeInfo.EstimatedDuration
	}
	if t.EstimatedHours > 0 {
		return t.EstimatedHours
	}
	return 8
}

// NodeTimes holds the CPM result for one task.
type NodeTimes struct {
	EarliestStart  float64
	EarliestFinish float64
	LatestStart    float64
	LatestFinish   float64
	TotalFloat     float64
	FreeFloat      float64
	IsCritical     bool
}

// CPMResult is the full schedule computed over a Graph.
type CPMResult struct {
	Times         map[string]*NodeTimes
	ProjectFinish float64
	CriticalPath  []string // task ids with isCritical, in topological order
}

// RunCPM executes the forward and backward passes over g (§4.E) and returns
// per-task times plus the overall project finish and critical path. When
// strict is true, any node with totalFloat < -epsilon yields a
// SchedulingError instead of an advisory flag (§4.J).
func RunCPM(g *Graph, strict bool) (*CPMResult, error) {
	ids := g.TaskIDs()
	dur := make(map[string]float64, len(ids))
	for _, id := range ids {
		dur[id] = Duration(g.Task(id))
	}

	order, err := topologicalOrder(g)
	if err != nil {
		return nil, err
	}

	es := make(map[string]float64, len(ids))
	ef := make(map[string]float64, len(ids))

	// Forward pass: Kahn-style traversal seeded at sources, pushing
	// ES/EF constraints onto successors as each node is finalized (§4.E).
	for _, id := range order {
		if g.InDegree(id) == 0 {
			es[id] = 0
		}
		ef[id] = es[id] + dur[id]

		for succID, e := range g.Successors(id) {
			candidate := forwardCandidate(e.typ, es[id], ef[id], dur[succID], e.lag)
			if candidate > es[succID] {
				es[succID] = candidate
			}
		}
	}
	// A second, dependency-respecting pass recomputes EF now that every
	// node's ES has received every predecessor's contribution (the push
	// loop above only guarantees a node's ES is final once all of its
	// predecessors, which precede it in topological order, have run).
	for _, id := range order {
		ef[id] = es[id] + dur[id]
	}

	projectFinish := 0.0
	for _, id := range order {
		if ef[id] > projectFinish {
			projectFinish = ef[id]
		}
	}

	ls := make(map[string]float64, len(ids))
	lf := make(map[string]float64, len(ids))
	sinkSet := make(map[string]bool)
	for _, sinkID := range g.Sinks() {
		sinkSet[sinkID] = true
		lf[sinkID] = projectFinish
		ls[sinkID] = lf[sinkID] - dur[sinkID]
	}
	for _, id := range order {
		if !sinkSet[id] {
			lf[id] = math.Inf(1)
		}
	}

	// Backward pass: reverse-topological traversal, pushing LS/LF
	// constraints onto predecessors as each node is finalized (§4.E). A
	// node's lf is final by the time this loop reaches it, since every
	// successor (later in topological order) has already pushed its
	// contribution; ls must therefore be derived here, before pushing to
	// predecessors, not in a trailing pass.
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		if !sinkSet[id] {
			ls[id] = lf[id] - dur[id]
		}
		for predID, e := range g.Predecessors(id) {
			candidate := backwardCandidate(e.typ, ls[id], lf[id], dur[predID], e.lag)
			if candidate < lf[predID] {
				lf[predID] = candidate
			}
		}
	}

	result := &CPMResult{Times: make(map[string]*NodeTimes, len(ids)), ProjectFinish: projectFinish}
	for _, id := range order {
		totalFloat := ls[id] - es[id]
		freeFloat := totalFloat
		if !sinkSet[id] {
			minSuccES := math.Inf(1)
			for succID := range g.Successors(id) {
				if es[succID] < minSuccES {
					minSuccES = es[succID]
				}
			}
			if !math.IsInf(minSuccES, 1) {
				freeFloat = minSuccES - ef[id]
			}
		}
		if strict && totalFloat < -epsilon {
			return nil, &errs.SchedulingError{TaskID: id, Float: totalFloat}
		}
		nt := &NodeTimes{
			EarliestStart:  es[id],
			EarliestFinish: ef[id],
			LatestStart:    ls[id],
			LatestFinish:   lf[id],
			TotalFloat:     totalFloat,
			FreeFloat:      freeFloat,
			IsCritical:     math.Abs(totalFloat) <= epsilon,
		}
		result.Times[id] = nt
		if nt.IsCritical {
			result.CriticalPath = append(result.CriticalPath, id)
		}
	}
	return result, nil
}

func forwardCandidate(typ task.DependencyType, esPred, efPred, durSucc, lag float64) float64 {
	switch typ {
	case task.FinishToStart:
		return efPred + lag
	case task.StartToStart:
		return esPred + lag
	case task.FinishToFinish:
		return efPred - durSucc + lag
	case task.StartToFinish:
		return esPred - durSucc + lag
	default:
		return efPred + lag
	}
}

func backwardCandidate(typ task.DependencyType, lsSucc, lfSucc, durPred, lag float64) float64 {
	switch typ {
	case task.FinishToStart:
		return lsSucc - lag
	case task.StartToStart:
		return lsSucc + durPred - lag
	case task.FinishToFinish:
		return lfSucc - lag
	case task.StartToFinish:
		return lfSucc + durPred - lag
	default:
		return lsSucc - lag
	}
}

// topologicalOrder performs Kahn's algorithm over g, breaking ties among
// simultaneously-ready nodes lexicographically by id for determinism.
func topologicalOrder(g *Graph) ([]string, error) {
	ids := g.TaskIDs()
	remaining := make(map[string]int, len(ids))
	for _, id := range ids {
		remaining[id] = g.InDegree(id)
	}

	var ready []string
	for _, id := range ids {
		if remaining[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(ids))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		var newlyReady []string
		for succID := range g.Successors(id) {
			remaining[succID]--
			if remaining[succID] == 0 {
				newlyReady = append(newlyReady, succID)
			}
		}
		sort.Strings(newlyReady)
		ready = append(ready, newlyReady...)
		sort.Strings(ready)
	}

	if len(order) != len(ids) {
		for _, id := range ids {
			if remaining[id] > 0 {
				return nil, &errs.CycleError{TaskID: id}
			}
		}
		return nil, &errs.CycleError{TaskID: ids[0]}
	}
	return order, nil
}
