package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sort"

	"somaticfilter/domain/criteria"
	"somaticfilter/domain/engine"
	"somaticfilter/ports"
)

// FilterService drives one filtering run: it streams records from the
// reader, judges each against the rule set, hands every record and its
// verdict to the writer, and accumulates run statistics. Records are
// processed strictly one at a time, in stream order.
type FilterService struct {
	reader ports.RecordReader
	writer ports.RecordWriter
}

// FilterResult is the outcome of a completed run
type FilterResult struct {
	Stats *engine.RunStatistics
}

// NewFilterService creates a filter service over a record stream
func NewFilterService(reader ports.RecordReader, writer ports.RecordWriter) *FilterService {
	return &FilterService{reader: reader, writer: writer}
}

// Run evaluates every record in the stream against the rule set.
//
// Rule-set problems (a malformed criterion was already rejected at load
// time; here, a criterion naming an undeclared metric) abort before the
// first record. Per-record problems never stop the stream: they are
// contained in that record's verdict.
func (s *FilterService) Run(rules criteria.RuleSet) (*FilterResult, error) {
	eng, err := engine.New(rules, s.reader.Schema())
	if err != nil {
		return nil, err
	}

	runStats := engine.NewRunStatistics()
	log.Printf("[FilterService] Run %s started with %d criteria", runStats.RunID, rules.Len())

	for {
		rec, err := s.reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record stream failed: %w", err)
		}

		verdict := eng.Judge(rec)
		runStats.Observe(verdict)

		if verdict.Status != engine.StatusPass {
			log.Printf("[FilterService] %s -> %s (failing: %v, missing: %v)",
				rec.Locus(), verdict.Status, verdict.FailingCriteria, verdict.MissingCriteria)
		}

		if err := s.writer.Write(rec, verdict); err != nil {
			return nil, fmt.Errorf("record write failed: %w", err)
		}
	}

	logRunSummary(runStats, rules)
	return &FilterResult{Stats: runStats}, nil
}

// logRunSummary reports the run counts and the per-criterion failure
// tally in rule-declaration order
func logRunSummary(runStats *engine.RunStatistics, rules criteria.RuleSet) {
	log.Printf("[FilterService] Run %s complete: %d records seen, %d passed, %d flagged for review",
		runStats.RunID, runStats.TotalSeen, runStats.TotalPassed, runStats.Flagged)

	failed := runStats.TotalSeen - runStats.TotalPassed
	if failed == 0 {
		return
	}
	type tally struct {
		metric string
		count  int
	}
	var tallies []tally
	for _, spec := range rules.Specs() {
		if n := runStats.FailuresByCriterion[spec.Metric]; n > 0 {
			tallies = append(tallies, tally{spec.Metric, n})
		}
	}
	sort.SliceStable(tallies, func(i, j int) bool { return tallies[i].count > tallies[j].count })
	for _, t := range tallies {
		log.Printf("[FilterService]   %s limited %d record(s) (%.0f%% of non-passing)",
			t.metric, t.count, float64(t.count)/float64(failed)*100)
	}
}
