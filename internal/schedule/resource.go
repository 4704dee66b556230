package schedule

import (
	"sort"

	"taskflow/core/internal/task"
)

// ResourceUtilization is the resource-leveling output for one named
// resource, aggregated across every task that requires it (§4.H step 7).
type ResourceUtilization struct {
	ResourceName      string
	Type              task.ResourceType
	AllocatedCapacity float64
	TotalCapacity     float64
	UtilizationRatio  float64 // AllocatedCapacity / TotalCapacity, 0 if TotalCapacity is 0
	OverAllocated     bool
}

// ComputeResourceUtilization aggregates ResourceRequirements across tasks by
// resource name, summing requested quantity as allocated capacity against
// the largest declared availability as total capacity.
func ComputeResourceUtilization(tasks []*task.Task) []ResourceUtilization {
	type agg struct {
		typ       task.ResourceType
		allocated float64
		total     float64
	}
	byName := make(map[string]*agg)
	var order []string

	for _, t := range tasks {
		for _, rr := range t.ResourceRequirements {
			a, ok := byName[rr.Name]
			if !ok {
				a = &agg{typ: rr.Type}
				byName[rr.Name] = a
				order = append(order, rr.Name)
			}
			a.allocated += rr.Quantity
			if rr.Availability > a.total {
				a.total = rr.Availability
			}
		}
	}

	sort.Strings(order)
	out := make([]ResourceUtilization, 0, len(order))
	for _, name := range order {
		a := byName[name]
		ratio := 0.0
		if a.total > 0 {
			ratio = a.allocated / a.total
		}
		out = append(out, ResourceUtilization{
			ResourceName:      name,
			Type:              a.typ,
			AllocatedCapacity: a.allocated,
			TotalCapacity:     a.total,
			UtilizationRatio:  ratio,
			OverAllocated:     a.allocated > a.total,
		})
	}
	return out
}
