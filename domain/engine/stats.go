package engine

import (
	"somaticfilter/domain/core"
)

// RunStatistics is the process-wide accumulator for one filtering
// invocation. It is updated exactly once per record, in stream order, and
// never read concurrently. A caller that stops feeding records simply
// finalizes whatever was counted up to that point.
type RunStatistics struct {
	RunID       core.RunID `json:"run_id"`
	TotalSeen   int        `json:"total_seen"`
	TotalPassed int        `json:"total_passed"`
	Flagged     int        `json:"flagged"`
	// FailuresByCriterion tallies, per metric, how many records listed it
	// as a failing criterion. Used for post-run diagnostics such as
	// identifying the limiting criterion of a run.
	FailuresByCriterion map[string]int `json:"failures_by_criterion"`
}

// NewRunStatistics starts a fresh accumulator for one run
func NewRunStatistics() *RunStatistics {
	return &RunStatistics{
		RunID:               core.NewRunID(),
		FailuresByCriterion: make(map[string]int),
	}
}

// Observe folds one record's verdict into the run counts
func (s *RunStatistics) Observe(v RecordVerdict) {
	s.TotalSeen++
	switch v.Status {
	case StatusPass:
		s.TotalPassed++
	case StatusReview:
		s.Flagged++
	}
	for _, metric := range v.FailingCriteria {
		s.FailuresByCriterion[metric]++
	}
}
