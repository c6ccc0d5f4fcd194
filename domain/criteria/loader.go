package criteria

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"somaticfilter/domain/core"
)

// commentPrefix marks entries that carry documentation rather than rules
const commentPrefix = "_"

// Load parses a declarative criteria source into a RuleSet.
//
// The source is a JSON object mapping metric name to a comparison expression
// of the form "<operator><number>" (surrounding whitespace tolerated).
// Keys with a leading underscore are commentary and ignored. Declaration
// order is preserved, which is why the object is walked token by token
// instead of decoded into a map.
func Load(r io.Reader) (RuleSet, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return RuleSet{}, fmt.Errorf("%w: criteria source is not valid JSON: %v", core.ErrMalformedCriterion, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return RuleSet{}, fmt.Errorf("%w: criteria source must be a JSON object", core.ErrMalformedCriterion)
	}

	var specs []CriterionSpec
	seen := make(map[string]bool)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return RuleSet{}, fmt.Errorf("%w: %v", core.ErrMalformedCriterion, err)
		}
		metric := keyTok.(string)

		if strings.HasPrefix(metric, commentPrefix) {
			// Commentary entry; consume and discard its value
			var ignored json.RawMessage
			if err := dec.Decode(&ignored); err != nil {
				return RuleSet{}, fmt.Errorf("%w: %v", core.ErrMalformedCriterion, err)
			}
			continue
		}

		var expr string
		if err := dec.Decode(&expr); err != nil {
			return RuleSet{}, core.NewMalformedCriterionError(metric, "non-string expression")
		}

		if seen[metric] {
			return RuleSet{}, core.NewMalformedCriterionError(metric, "duplicate criterion")
		}
		seen[metric] = true

		spec, err := ParseExpression(metric, expr)
		if err != nil {
			return RuleSet{}, err
		}
		specs = append(specs, spec)
	}

	return RuleSet{specs: specs}, nil
}

// ParseExpression parses one "<operator><number>" comparison expression
// into a CriterionSpec. A failed parse is fatal for the run: no partial
// rule sets are ever used.
func ParseExpression(metric, expr string) (CriterionSpec, error) {
	trimmed := strings.TrimSpace(expr)

	for _, op := range operators {
		if !strings.HasPrefix(trimmed, string(op)) {
			continue
		}
		rhs := strings.TrimSpace(strings.TrimPrefix(trimmed, string(op)))
		threshold, err := strconv.ParseFloat(rhs, 64)
		if err != nil {
			return CriterionSpec{}, core.NewMalformedCriterionError(metric, expr)
		}
		return CriterionSpec{Metric: metric, Op: op, Threshold: threshold}, nil
	}

	return CriterionSpec{}, core.NewMalformedCriterionError(metric, expr)
}
