package schedule

import (
	"fmt"

	"taskflow/core/internal/task"
)

// RiskAssessment is the output of the risk analyzer (§4.G).
type RiskAssessment struct {
	OverallRiskLevel      float64
	RiskFactors           []task.RiskFactor
	MitigationSuggestions []string
	ContingencyPlans      []string
}

// contingencyThreshold gates emission of a contingency plan per risk factor.
const contingencyThreshold = 4.0

// AnalyzeRisk evaluates the five deterministic factor producers of §4.G
// against tasks and their CPM times, and rolls them up into a RiskAssessment.
func AnalyzeRisk(tasks []*task.Task, times map[string]*NodeTimes, resources []ResourceUtilization) RiskAssessment {
	var factors []task.RiskFactor

	if f, ok := criticalPathRisk(tasks, times); ok {
		factors = append(factors, f)
	}
	if f, ok := longDurationRisk(tasks); ok {
		factors = append(factors, f)
	}
	if f, ok := resourceOverallocationRisk(resources); ok {
		factors = append(factors, f)
	}
	if f, ok := technicalComplexityRisk(tasks); ok {
		factors = append(factors, f)
	}
	if f, ok := qualityReviewRisk(tasks); ok {
		factors = append(factors, f)
	}

	var sum float64
	var mitigations, contingencies []string
	for _, f := range factors {
		sum += f.RiskScore()
		mitigations = append(mitigations, mitigationText(f.Category))
		if f.RiskScore() > contingencyThreshold {
			contingencies = append(contingencies, contingencyText(f.Category))
		}
	}

	overall := 0.0
	if len(factors) > 0 {
		overall = sum / float64(len(factors))
	}

	return RiskAssessment{
		OverallRiskLevel:      overall,
		RiskFactors:           factors,
		MitigationSuggestions: mitigations,
		ContingencyPlans:      contingencies,
	}
}

func criticalPathRisk(tasks []*task.Task, times map[string]*NodeTimes) (task.RiskFactor, bool) {
	if len(tasks) == 0 {
		return task.RiskFactor{}, false
	}
	critical := 0
	var affected []string
	for _, t := range tasks {
		if nt, ok := times[t.ID]; ok && nt.IsCritical {
			critical++
			affected = append(affected, t.ID)
		}
	}
	if float64(critical)/float64(len(tasks)) <= 0.3 {
		return task.RiskFactor{}, false
	}
	return task.RiskFactor{
		ID:              "critical-path-risk",
		Name:            "Critical path overexposure",
		Description:     fmt.Sprintf("%d of %d tasks (%.0f%%) sit on the critical path", critical, len(tasks), 100*float64(critical)/float64(len(tasks))),
		Probability:     0.7,
		Impact:          8,
		AffectedTaskIDs: affected,
		Category:        task.RiskSchedule,
	}, true
}

func longDurationRisk(tasks []*task.Task) (task.RiskFactor, bool) {
	var affected []string
	for _, t := range tasks {
		if Duration(t) > 40 {
			affected = append(affected, t.ID)
		}
	}
	if len(affected) == 0 {
		return task.RiskFactor{}, false
	}
	return task.RiskFactor{
		ID:              "long-duration-risk",
		Name:            "Long-running tasks",
		Description:     fmt.Sprintf("%d task(s) exceed 40 hours of estimated duration", len(affected)),
		Probability:     0.5,
		Impact:          6,
		AffectedTaskIDs: affected,
		Category:        task.RiskSchedule,
	}, true
}

func resourceOverallocationRisk(resources []ResourceUtilization) (task.RiskFactor, bool) {
	var affected []string
	for _, r := range resources {
		if r.OverAllocated {
			affected = append(affected, r.ResourceName)
		}
	}
	if len(affected) == 0 {
		return task.RiskFactor{}, false
	}
	return task.RiskFactor{
		ID:              "resource-overallocation-risk",
		Name:            "Resource overallocation",
		Description:     fmt.Sprintf("%d resource(s) are allocated beyond their capacity", len(affected)),
		Probability:     0.8,
		Impact:          7,
		AffectedTaskIDs: affected,
		Category:        task.RiskResource,
	}, true
}

func technicalComplexityRisk(tasks []*task.Task) (task.RiskFactor, bool) {
	var affected []string
	for _, t := range tasks {
		if t.Complexity() > 7 {
			affected = append(affected, t.ID)
		}
	}
	if len(affected) == 0 {
		return task.RiskFactor{}, false
	}
	return task.RiskFactor{
		ID:              "technical-complexity-risk",
		Name:            "High technical complexity",
		Description:     fmt.Sprintf("%d task(s) score above 7 on complexity", len(affected)),
		Probability:     0.6,
		Impact:          7,
		AffectedTaskIDs: affected,
		Category:        task.RiskTechnical,
	}, true
}

func qualityReviewRisk(tasks []*task.Task) (task.RiskFactor, bool) {
	if len(tasks) == 0 {
		return task.RiskFactor{}, false
	}
	var affected []string
	for _, t := range tasks {
		if value, explicit := t.RequiresReview(); explicit && !value {
			affected = append(affected, t.ID)
		}
	}
	if float64(len(affected))/float64(len(tasks)) <= 0.5 {
		return task.RiskFactor{}, false
	}
	return task.RiskFactor{
		ID:              "quality-review-risk",
		Name:            "Insufficient review coverage",
		Description:     fmt.Sprintf("%d of %d tasks explicitly skip review", len(affected), len(tasks)),
		Probability:     0.4,
		Impact:          6,
		AffectedTaskIDs: affected,
		Category:        task.RiskQuality,
	}, true
}

func mitigationText(category task.RiskCategory) string {
	switch category {
	case task.RiskSchedule:
		return "Add schedule buffer and monitor critical-path tasks daily; consider fast-tracking or crashing the longest activities."
	case task.RiskResource:
		return "Rebalance resource assignments or bring in additional capacity before the overallocated window begins."
	case task.RiskTechnical:
		return "Pair high-complexity tasks with a senior reviewer and timebox a spike before committing to estimates."
	case task.RiskQuality:
		return "Require review sign-off on any task currently marked to skip it."
	case task.RiskExternal:
		return "Track external dependencies explicitly and maintain a fallback vendor or data source."
	case task.RiskCommunication:
		return "Add a recurring sync between the affected owners and document decisions in a shared log."
	default:
		return "Monitor the affected tasks and reassess at the next checkpoint."
	}
}

func contingencyText(category task.RiskCategory) string {
	switch category {
	case task.RiskSchedule:
		return "If the critical path slips, reallocate slack from non-critical tasks or negotiate scope reduction."
	case task.RiskResource:
		return "If overallocation persists, escalate for temporary contractor support or delay non-critical consumers."
	case task.RiskTechnical:
		return "If complexity blocks progress, split the task and re-estimate the remainder independently."
	case task.RiskQuality:
		return "If defects surface post-release, fast-track a review pass on the skipped tasks before the next milestone."
	case task.RiskExternal:
		return "If the external dependency fails, switch to the documented fallback and notify stakeholders."
	case task.RiskCommunication:
		return "If miscommunication causes rework, convene the affected owners for a joint resolution session."
	default:
		return "Reassess scope and timeline with stakeholders."
	}
}
