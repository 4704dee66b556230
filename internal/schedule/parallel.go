package schedule

import (
	"sort"

	"taskflow/core/internal/task"
)

// FindParallelGroups buckets tasks by identical earliest start and greedily
// assembles resource-conflict-free groups within each bucket (§4.F). times
// must already hold CPM results for every id in tasks.
func FindParallelGroups(tasks []*task.Task, times map[string]*NodeTimes, maxParallelTasks int) []task.ParallelGroup {
	byID := make(map[string]*task.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	buckets := make(map[float64][]string)
	for id, nt := range times {
		buckets[nt.EarliestStart] = append(buckets[nt.EarliestStart], id)
	}
	var esValues []float64
	for es := range buckets {
		esValues = append(esValues, es)
	}
	sort.Float64s(esValues)

	var groups []task.ParallelGroup
	for _, es := range esValues {
		ids := buckets[es]
		sort.Strings(ids)

		var current []string
		humanResources := make(map[string]bool)

		flush := func() {
			if len(current) >= 2 && len(current) <= maxParallelTasks {
				groups = append(groups, buildGroup(current, byID, times))
			}
			current = nil
			humanResources = make(map[string]bool)
		}

		for _, id := range ids {
			t := byID[id]
			if !t.Parallelizable() {
				continue
			}
			if hasResourceConflict(t, humanResources) {
				// This task can't join the in-progress group; close it out
				// and start a fresh candidate set with this task alone.
				flush()
			}
			current = append(current, id)
			for _, rr := range t.ResourceRequirements {
				if rr.Type == task.ResourceHuman {
					humanResources[rr.Name] = true
				}
			}
		}
		flush()
	}
	return groups
}

func hasResourceConflict(t *task.Task, taken map[string]bool) bool {
	for _, rr := range t.ResourceRequirements {
		if rr.Type == task.ResourceHuman && taken[rr.Name] {
			return true
		}
	}
	return false
}

func buildGroup(ids []string, byID map[string]*task.Task, times map[string]*NodeTimes) task.ParallelGroup {
	maxDur := 0.0
	resourceSet := make(map[string]bool)
	var resources []string
	tagCounts := make(map[string]int)
	typeCounts := make(map[task.Type]int)
	totalTagSlots := 0

	for _, id := range ids {
		t := byID[id]
		if times[id] != nil {
			dur := times[id].EarliestFinish - times[id].EarliestStart
			if dur > maxDur {
				maxDur = dur
			}
		}
		for _, rr := range t.ResourceRequirements {
			if !resourceSet[rr.Name] {
				resourceSet[rr.Name] = true
				resources = append(resources, rr.Name)
			}
		}
		for _, tag := range t.Tags {
			tagCounts[tag]++
			totalTagSlots++
		}
		typeCounts[t.Type]++
	}
	sort.Strings(resources)

	sharedTags := 0
	for _, c := range tagCounts {
		if c > 1 {
			sharedTags += c
		}
	}
	sharedFraction := 0.0
	if totalTagSlots > 0 {
		sharedFraction = float64(sharedTags) / float64(totalTagSlots)
	}

	majority := 0
	for _, c := range typeCounts {
		if c > majority {
			majority = c
		}
	}
	typeHomogeneity := float64(majority) / float64(len(ids))

	conflictRisk := 0.5*sharedFraction + 0.5*typeHomogeneity
	if conflictRisk > 1 {
		conflictRisk = 1
	}
	if conflictRisk < 0 {
		conflictRisk = 0
	}

	return task.ParallelGroup{
		TaskIDs:           append([]string(nil), ids...),
		Duration:          maxDur,
		RequiredResources: resources,
		ConflictRisk:      conflictRisk,
	}
}
