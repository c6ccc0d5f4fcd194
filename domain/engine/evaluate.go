package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"somaticfilter/domain/core"
	"somaticfilter/domain/criteria"
	"somaticfilter/domain/vcf"
)

// FailureTag distinguishes why an unsatisfied rule failed
type FailureTag string

const (
	// FailureNone marks a satisfied rule
	FailureNone FailureTag = ""
	// FailureThreshold marks a real threshold breach
	FailureThreshold FailureTag = "THRESHOLD"
	// FailureMissing marks an absent annotation
	FailureMissing FailureTag = "MISSING"
	// FailureMalformed marks an annotation that did not parse as numeric
	FailureMalformed FailureTag = "MALFORMED"
	// FailureCardinality marks a per-allele value count disagreeing with the allele count
	FailureCardinality FailureTag = "CARDINALITY_MISMATCH"
)

// RuleResult is the outcome of evaluating one criterion against one record:
// a boolean, the observed value(s), and a human-readable explanation kept
// for the audit trail.
type RuleResult struct {
	Metric    string
	Satisfied bool
	Observed  []float64
	Failure   FailureTag
	Reason    string
}

// EvaluateRule applies one criterion to one record.
//
// A scalar resolution is compared directly. A per-allele resolution from a
// multiallelic record satisfies the criterion only if every allele's value
// individually satisfies the comparison: one low-confidence allele is never
// masked by a high-confidence allele at the same locus.
//
// Resolution failures never abort the record's evaluation; they surface as
// an unsatisfied RuleResult carrying a distinguishing failure tag so the
// aggregator can route the record to review instead of silently dropping it.
func EvaluateRule(rec *vcf.VariantRecord, spec criteria.CriterionSpec, def vcf.MetricDef) RuleResult {
	res, err := Resolve(rec, def)
	if err != nil {
		tag := classifyResolutionFailure(err)
		return RuleResult{
			Metric:  spec.Metric,
			Failure: tag,
			Reason:  fmt.Sprintf("%s: %s (%s)", spec.Metric, tag, rec.Locus()),
		}
	}

	satisfied := true
	for _, v := range res.Values {
		if !spec.Op.Compare(v, spec.Threshold) {
			satisfied = false
			break
		}
	}

	result := RuleResult{
		Metric:    spec.Metric,
		Satisfied: satisfied,
		Observed:  res.Values,
		Reason:    fmt.Sprintf("%s: observed %s", spec, formatObserved(res.Values)),
	}
	if !satisfied {
		result.Failure = FailureThreshold
	}
	return result
}

func classifyResolutionFailure(err error) FailureTag {
	switch {
	case errors.Is(err, core.ErrMissingAnnotation):
		return FailureMissing
	case errors.Is(err, core.ErrMalformedValue):
		return FailureMalformed
	case errors.Is(err, core.ErrCardinalityMismatch):
		return FailureCardinality
	}
	return FailureMalformed
}

func formatObserved(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
