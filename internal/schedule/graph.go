// Package schedule implements the deterministic task orchestration engine:
// dependency graph construction, CPM scheduling, parallel-group finding,
// risk analysis, ordering strategies, and the orchestrator facade that ties
// them together.
package schedule

import (
	"fmt"
	"sort"

	"taskflow/core/internal/errs"
	"taskflow/core/internal/task"
)

// edge is a resolved dependency pointing from a predecessor node to a
// successor node, carrying the CPM-relevant type and lag.
type edge struct {
	to  string
	typ task.DependencyType
	lag float64
}

// node mirrors one task inside the graph, tracking degree and adjacency the
// way the teacher's DAG scheduler tracks in-degree/graph maps, generalized
// to typed edges carrying lag.
type node struct {
	id           string
	t            *task.Task
	outEdges     []edge            // successors reached from this node
	inEdges      map[string]edge   // predecessor id -> edge used to reach this node
	inDegree     int
	outDegree    int
	predecessors map[string]struct{}
	successors   map[string]struct{}
}

// Graph is the dependency graph over one task set, built fresh for each
// orchestration call (§5: the task graph is private to its call).
type Graph struct {
	nodes map[string]*node
	order []string // insertion order, used to keep iteration deterministic
}

// NewGraph builds a Graph from tasks, wiring edges from two sources in
// order: legacy Dependencies (FS, lag 0) first, then explicit
// DependencyRelations, which augment or override the legacy edge between
// the same predecessor/successor pair (§4.D).
func NewGraph(tasks []*task.Task) (*Graph, error) {
	g := &Graph{nodes: make(map[string]*node, len(tasks))}
	for _, t := range tasks {
		if t.ID == "" {
			return nil, &errs.ValidationError{Field: "id", Message: "task id must not be empty"}
		}
		if _, exists := g.nodes[t.ID]; exists {
			return nil, &errs.ValidationError{Field: "id", Message: fmt.Sprintf("duplicate task id %q", t.ID)}
		}
		g.nodes[t.ID] = &node{
			id:           t.ID,
			t:            t,
			inEdges:      make(map[string]edge),
			predecessors: make(map[string]struct{}),
			successors:   make(map[string]struct{}),
		}
		g.order = append(g.order, t.ID)
	}

	for _, t := range tasks {
		for _, depID := range t.Dependencies {
			if err := g.addEdge(depID, t.ID, task.FinishToStart, 0); err != nil {
				return nil, err
			}
		}
	}
	for _, t := range tasks {
		for _, dep := range t.DependencyRelations {
			if dep.PredecessorID == dep.SuccessorID {
				return nil, &errs.ValidationError{Field: "dependencyRelations", Message: fmt.Sprintf("task %q cannot depend on itself", dep.PredecessorID)}
			}
			if err := g.addEdge(dep.PredecessorID, dep.SuccessorID, dep.Type, dep.Lag); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

func (g *Graph) addEdge(predID, succID string, typ task.DependencyType, lag float64) error {
	pred, ok := g.nodes[predID]
	if !ok {
		return &errs.ValidationError{Field: "predecessorId", Message: fmt.Sprintf("unknown task %q", predID)}
	}
	succ, ok := g.nodes[succID]
	if !ok {
		return &errs.ValidationError{Field: "successorId", Message: fmt.Sprintf("unknown task %q", succID)}
	}

	// An edge already recorded for this (predecessor, successor) pair is
	// overridden in place rather than duplicated, so later sources augment
	// earlier ones instead of stacking degree counts.
	if existing, ok := succ.inEdges[predID]; ok {
		for i, e := range pred.outEdges {
			if e.to == succID && e == existing {
				pred.outEdges[i] = edge{to: succID, typ: typ, lag: lag}
				break
			}
		}
		succ.inEdges[predID] = edge{to: succID, typ: typ, lag: lag}
		return nil
	}

	pred.outEdges = append(pred.outEdges, edge{to: succID, typ: typ, lag: lag})
	succ.inEdges[predID] = edge{to: succID, typ: typ, lag: lag}
	pred.outDegree++
	succ.inDegree++
	pred.successors[succID] = struct{}{}
	succ.predecessors[predID] = struct{}{}
	return nil
}

// ValidateAcyclic runs DFS with a recursion stack over the graph; any back
// edge is reported as a CycleError naming one task on the cycle (§4.D).
func (g *Graph) ValidateAcyclic() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))

	var visit func(id string) error
	visit = func(id string) error {
		color[id] = gray
		n := g.nodes[id]
		for _, e := range n.outEdges {
			switch color[e.to] {
			case gray:
				return &errs.CycleError{TaskID: e.to}
			case white:
				if err := visit(e.to); err != nil {
					return err
				}
			}
		}
		color[id] = black
		return nil
	}

	for _, id := range g.order {
		if color[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// TaskIDs returns task ids in the graph's insertion order.
func (g *Graph) TaskIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Sources returns ids with in-degree zero, sorted lexicographically.
func (g *Graph) Sources() []string {
	var out []string
	for _, id := range g.order {
		if g.nodes[id].inDegree == 0 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Sinks returns ids with out-degree zero, sorted lexicographically.
func (g *Graph) Sinks() []string {
	var out []string
	for _, id := range g.order {
		if g.nodes[id].outDegree == 0 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Successors returns the outgoing edges of id, keyed by successor id.
func (g *Graph) Successors(id string) map[string]edge {
	out := make(map[string]edge, len(g.nodes[id].outEdges))
	for _, e := range g.nodes[id].outEdges {
		out[e.to] = e
	}
	return out
}

// Predecessors returns the incoming edges of id, keyed by predecessor id.
func (g *Graph) Predecessors(id string) map[string]edge {
	return g.nodes[id].inEdges
}

// InDegree and OutDegree expose raw degree counts. InDegree seeds the
// Kahn-style queue that fixes the CPM traversal order.
func (g *Graph) InDegree(id string) int  { return g.nodes[id].inDegree }
func (g *Graph) OutDegree(id string) int { return g.nodes[id].outDegree }

// Task returns the task backing node id.
func (g *Graph) Task(id string) *task.Task { return g.nodes[id].t }

// HasTask reports whether id is a node in the graph.
func (g *Graph) HasTask(id string) bool {
	_, ok := g.nodes[id]
	return ok
}
