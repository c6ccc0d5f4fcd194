package engine

import (
	"somaticfilter/domain/criteria"
	"somaticfilter/domain/vcf"
)

// Status is the per-record outcome of applying all criteria
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	// StatusReview marks records that are technically below evaluable:
	// at least one required annotation was missing or unreadable, as
	// opposed to a real threshold breach. Review is terminal for the
	// engine; re-adjudication happens downstream, by a human.
	StatusReview Status = "FLAG_FOR_REVIEW"
)

// RecordVerdict aggregates every RuleResult for one record
type RecordVerdict struct {
	Status Status
	// FailingCriteria lists metrics unsatisfied for a reason other than a
	// missing/unreadable annotation, in rule-declaration order.
	FailingCriteria []string
	// MissingCriteria lists metrics whose annotation was absent or
	// unparseable, in rule-declaration order.
	MissingCriteria []string
	// Results carries the full per-criterion audit trail, in rule-declaration order.
	Results []RuleResult
}

// Engine evaluates records against an immutable rule set. It is
// single-threaded and synchronous: records are judged one at a time in
// stream order, and the engine itself performs no I/O.
type Engine struct {
	rules  criteria.RuleSet
	schema vcf.Schema
}

// New builds an Engine, failing fast if any criterion names a metric the
// schema does not declare.
func New(rules criteria.RuleSet, schema vcf.Schema) (*Engine, error) {
	if err := rules.Validate(schema); err != nil {
		return nil, err
	}
	return &Engine{rules: rules, schema: schema}, nil
}

// Rules returns the engine's rule set
func (e *Engine) Rules() criteria.RuleSet {
	return e.rules
}

// Judge evaluates every criterion against the record and folds the rule
// results into a single verdict.
//
// Status is PASS iff every rule is satisfied. A record with at least one
// missing or malformed annotation is flagged for review rather than failed:
// "below evaluable" is kept distinct from "breached a real threshold".
// Everything else is FAIL. Cardinality mismatches count as real failures,
// never as silently truncated or padded value lists.
func (e *Engine) Judge(rec *vcf.VariantRecord) RecordVerdict {
	verdict := RecordVerdict{Status: StatusPass}

	for _, spec := range e.rules.Specs() {
		def, _ := e.schema.Lookup(spec.Metric)
		result := EvaluateRule(rec, spec, def)
		verdict.Results = append(verdict.Results, result)

		if result.Satisfied {
			continue
		}
		switch result.Failure {
		case FailureMissing, FailureMalformed:
			verdict.MissingCriteria = append(verdict.MissingCriteria, spec.Metric)
		default:
			verdict.FailingCriteria = append(verdict.FailingCriteria, spec.Metric)
		}
	}

	switch {
	case len(verdict.MissingCriteria) > 0:
		verdict.Status = StatusReview
	case len(verdict.FailingCriteria) > 0:
		verdict.Status = StatusFail
	}
	return verdict
}
