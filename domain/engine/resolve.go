package engine

import (
	"fmt"
	"strconv"
	"strings"

	"somaticfilter/domain/core"
	"somaticfilter/domain/vcf"
)

// MetricResolution holds the value(s) extracted for one metric on one
// record after cardinality handling. A scalar metric resolves to exactly
// one value; a per-allele metric resolves to one value per alternate
// allele, in allele order.
type MetricResolution struct {
	Metric string
	Values []float64
}

// Resolve extracts a metric's value(s) from a record's annotation mapping,
// honoring the metric's declared cardinality and numeric type. It is a pure
// function of (record, definition): no side effects, no retained state.
//
// Failures use the core resolution sentinels: ErrMissingAnnotation when the
// annotation is absent, ErrCardinalityMismatch when a per-allele metric's
// value count disagrees with the record's allele count, and ErrMalformedValue
// when a value does not parse as the declared type.
func Resolve(rec *vcf.VariantRecord, def vcf.MetricDef) (MetricResolution, error) {
	raw, ok := rec.Info[def.Name]
	if !ok || raw == "" || raw == "." {
		return MetricResolution{}, fmt.Errorf("%w: %s", core.ErrMissingAnnotation, def.Name)
	}

	switch def.Cardinality {
	case vcf.CardinalityPerAllele:
		parts := strings.Split(raw, ",")
		if len(parts) != rec.AltCount() {
			return MetricResolution{}, fmt.Errorf("%w: %s has %d values for %d alternate alleles",
				core.ErrCardinalityMismatch, def.Name, len(parts), rec.AltCount())
		}
		values := make([]float64, len(parts))
		for i, part := range parts {
			v, err := parseValue(part, def.Type)
			if err != nil {
				return MetricResolution{}, fmt.Errorf("%w: %s[%d] = %q", core.ErrMalformedValue, def.Name, i, part)
			}
			values[i] = v
		}
		return MetricResolution{Metric: def.Name, Values: values}, nil

	default: // scalar
		v, err := parseValue(raw, def.Type)
		if err != nil {
			return MetricResolution{}, fmt.Errorf("%w: %s = %q", core.ErrMalformedValue, def.Name, raw)
		}
		return MetricResolution{Metric: def.Name, Values: []float64{v}}, nil
	}
}

// parseValue parses one raw textual value as the metric's declared type.
// Integer metrics reject fractional text; both representations compare
// as float64 downstream.
func parseValue(raw string, t vcf.ValueType) (float64, error) {
	raw = strings.TrimSpace(raw)
	if t == vcf.TypeInteger {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, err
		}
		return float64(n), nil
	}
	return strconv.ParseFloat(raw, 64)
}
