package criteria

import (
	"fmt"

	"somaticfilter/domain/core"
	"somaticfilter/domain/vcf"
)

// Operator is one of the six recognized comparison operators
type Operator string

const (
	OpGE Operator = ">="
	OpLE Operator = "<="
	OpGT Operator = ">"
	OpLT Operator = "<"
	OpEQ Operator = "=="
	OpNE Operator = "!="
)

// operators is ordered longest-first so that ">=" never half-matches as ">"
var operators = []Operator{OpGE, OpLE, OpEQ, OpNE, OpGT, OpLT}

// Compare applies the operator to an observed value and a threshold.
// Comparisons are direct, with no tolerance: a value exactly equal to the
// threshold satisfies >= and <= but not the strict forms.
func (op Operator) Compare(value, threshold float64) bool {
	switch op {
	case OpGE:
		return value >= threshold
	case OpLE:
		return value <= threshold
	case OpGT:
		return value > threshold
	case OpLT:
		return value < threshold
	case OpEQ:
		return value == threshold
	case OpNE:
		return value != threshold
	}
	return false
}

// CriterionSpec is one loaded rule: a metric judged against a threshold.
// Constructed once at load time and immutable for the lifetime of a run.
type CriterionSpec struct {
	Metric    string
	Op        Operator
	Threshold float64
}

// String renders the rule the way it appears in audit reasons
func (c CriterionSpec) String() string {
	return fmt.Sprintf("%s %s %g", c.Metric, c.Op, c.Threshold)
}

// RuleSet is the ordered, immutable set of criteria for a run.
// Declaration order is preserved: failing criteria are always reported
// first-declared-first, not in evaluation or severity order.
type RuleSet struct {
	specs []CriterionSpec
}

// Specs returns the criteria in declaration order
func (rs RuleSet) Specs() []CriterionSpec {
	out := make([]CriterionSpec, len(rs.specs))
	copy(out, rs.specs)
	return out
}

// Len returns the number of criteria
func (rs RuleSet) Len() int {
	return len(rs.specs)
}

// Validate fails fast when a criterion names a metric the record schema
// does not declare. A run never starts with an unevaluable rule set.
func (rs RuleSet) Validate(schema vcf.Schema) error {
	for _, spec := range rs.specs {
		if _, ok := schema.Lookup(spec.Metric); !ok {
			return core.NewConfigurationError(spec.Metric)
		}
	}
	return nil
}
