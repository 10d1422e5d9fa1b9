package inspection

import (
	"sort"

	domain "factory-qc-backend/internal/domain/inspection"
	"factory-qc-backend/internal/domain/template"
)

// Verdict is the deterministic rollup of persisted checkpoint results.
// Recomputing it on identical rows yields an identical value, which is what
// makes replayed submissions safe.
type Verdict struct {
	Inspection domain.Status
	Sections   map[string]domain.SectionStatus // keyed by section id
}

// ComputeVerdict folds checkpoint results into section statuses and the
// inspection verdict. majorFailThreshold is the template policy: a section
// fails once its major fail/issue count exceeds it (default 0, zero
// tolerance). Sections with pending checkpoints report pending/in_progress
// and keep the inspection verdict non-terminal.
func ComputeVerdict(rows []domain.CheckpointResult, majorFailThreshold int) Verdict {
	bySection := make(map[string][]domain.CheckpointResult)
	order := make([]string, 0)
	for _, r := range rows {
		if _, seen := bySection[r.SectionID]; !seen {
			order = append(order, r.SectionID)
		}
		bySection[r.SectionID] = append(bySection[r.SectionID], r)
	}
	sort.Strings(order)

	v := Verdict{Sections: make(map[string]domain.SectionStatus, len(bySection))}
	allTerminal := true
	anyRecorded := false
	anyFailed := false
	for _, sid := range order {
		st := SectionVerdict(bySection[sid], majorFailThreshold)
		v.Sections[sid] = st
		switch st {
		case domain.SectionFailed:
			anyFailed = true
			anyRecorded = true
		case domain.SectionPassed:
			anyRecorded = true
		case domain.SectionInProgress:
			allTerminal = false
			anyRecorded = true
		default:
			allTerminal = false
		}
	}

	switch {
	case !allTerminal && !anyRecorded:
		v.Inspection = domain.StatusOpen
	case !allTerminal:
		v.Inspection = domain.StatusInProgress
	case anyFailed:
		v.Inspection = domain.StatusFailed
	default:
		v.Inspection = domain.StatusPassed
	}
	return v
}

// SectionVerdict applies severity precedence to one section's rows:
// a critical fail short-circuits to failed; major fail/issue beyond the
// threshold fails; minor and na never fail a section alone.
func SectionVerdict(rows []domain.CheckpointResult, majorFailThreshold int) domain.SectionStatus {
	majors := 0
	terminal := 0
	recorded := 0
	for _, r := range rows {
		if r.Status.Terminal() {
			terminal++
			recorded++
		}
		if r.Status == domain.CheckpointFail && r.Severity == template.SeverityCritical {
			return domain.SectionFailed
		}
		if r.Status.Failing() && r.Severity == template.SeverityMajor {
			majors++
		}
	}
	if majors > majorFailThreshold {
		return domain.SectionFailed
	}
	if terminal == len(rows) {
		return domain.SectionPassed
	}
	if recorded == 0 {
		return domain.SectionPending
	}
	return domain.SectionInProgress
}

// PhotoGateViolations returns the codes of fail/issue checkpoints whose
// completed-photo count has not reached min_photos_if_issue. Checked at
// finalize, not at write time, so offline photo uploads can lag results.
func PhotoGateViolations(rows []domain.CheckpointResult, completed map[string]int) []string {
	var out []string
	for _, r := range rows {
		if !r.Status.Failing() || !r.PhotoRequiredIfIssue {
			continue
		}
		need := r.MinPhotosIfIssue
		if need == 0 {
			need = 1
		}
		if completed[r.ResultID] < need {
			out = append(out, r.Code)
		}
	}
	return out
}
