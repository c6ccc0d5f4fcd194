package engine

import (
	"errors"
	"testing"

	"somaticfilter/domain/core"
	"somaticfilter/domain/vcf"
)

func testRecord(alt []string, info map[string]string) *vcf.VariantRecord {
	return &vcf.VariantRecord{
		Chrom:  "chr7",
		Pos:    55242464,
		Ref:    "A",
		Alt:    alt,
		Filter: ".",
		Info:   info,
	}
}

func TestResolve_ScalarMetric(t *testing.T) {
	def := vcf.MetricDef{Name: "DP", Cardinality: vcf.CardinalityScalar, Type: vcf.TypeInteger}
	rec := testRecord([]string{"T"}, map[string]string{"DP": "120"})

	res, err := Resolve(rec, def)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Values) != 1 || res.Values[0] != 120 {
		t.Errorf("got %v, want [120]", res.Values)
	}
}

func TestResolve_PerAlleleMetric(t *testing.T) {
	def := vcf.MetricDef{Name: "TLOD", Cardinality: vcf.CardinalityPerAllele, Type: vcf.TypeFloat}
	rec := testRecord([]string{"T", "G"}, map[string]string{"TLOD": "45.8,7.2"})

	res, err := Resolve(rec, def)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Values) != 2 || res.Values[0] != 45.8 || res.Values[1] != 7.2 {
		t.Errorf("got %v, want [45.8 7.2]", res.Values)
	}
}

func TestResolve_PerAlleleSingleValueStaysPerAllele(t *testing.T) {
	// A per-allele metric carrying one value on a monoallelic record is
	// still resolved per-allele, not reinterpreted as scalar
	def := vcf.MetricDef{Name: "TLOD", Cardinality: vcf.CardinalityPerAllele, Type: vcf.TypeFloat}
	rec := testRecord([]string{"T"}, map[string]string{"TLOD": "45.8"})

	res, err := Resolve(rec, def)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Values) != 1 || res.Values[0] != 45.8 {
		t.Errorf("got %v, want [45.8]", res.Values)
	}
}

func TestResolve_Failures(t *testing.T) {
	tests := []struct {
		name    string
		def     vcf.MetricDef
		alt     []string
		info    map[string]string
		wantErr error
	}{
		{
			"absent annotation",
			vcf.MetricDef{Name: "GERMQ", Cardinality: vcf.CardinalityScalar, Type: vcf.TypeInteger},
			[]string{"T"},
			map[string]string{"DP": "120"},
			core.ErrMissingAnnotation,
		},
		{
			"dot placeholder is missing",
			vcf.MetricDef{Name: "GERMQ", Cardinality: vcf.CardinalityScalar, Type: vcf.TypeInteger},
			[]string{"T"},
			map[string]string{"GERMQ": "."},
			core.ErrMissingAnnotation,
		},
		{
			"too few per-allele values",
			vcf.MetricDef{Name: "TLOD", Cardinality: vcf.CardinalityPerAllele, Type: vcf.TypeFloat},
			[]string{"T", "G"},
			map[string]string{"TLOD": "45.8"},
			core.ErrCardinalityMismatch,
		},
		{
			"too many per-allele values",
			vcf.MetricDef{Name: "TLOD", Cardinality: vcf.CardinalityPerAllele, Type: vcf.TypeFloat},
			[]string{"T"},
			map[string]string{"TLOD": "45.8,7.2"},
			core.ErrCardinalityMismatch,
		},
		{
			"non-numeric scalar",
			vcf.MetricDef{Name: "DP", Cardinality: vcf.CardinalityScalar, Type: vcf.TypeInteger},
			[]string{"T"},
			map[string]string{"DP": "high"},
			core.ErrMalformedValue,
		},
		{
			"fractional text for integer metric",
			vcf.MetricDef{Name: "DP", Cardinality: vcf.CardinalityScalar, Type: vcf.TypeInteger},
			[]string{"T"},
			map[string]string{"DP": "120.5"},
			core.ErrMalformedValue,
		},
		{
			"non-numeric per-allele element",
			vcf.MetricDef{Name: "TLOD", Cardinality: vcf.CardinalityPerAllele, Type: vcf.TypeFloat},
			[]string{"T", "G"},
			map[string]string{"TLOD": "45.8,bad"},
			core.ErrMalformedValue,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(testRecord(tc.alt, tc.info), tc.def)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
			if !core.IsResolutionError(err) {
				t.Errorf("%v should classify as a per-record resolution error", err)
			}
			if core.IsRunFatal(err) {
				t.Errorf("%v must never classify as run-fatal", err)
			}
		})
	}
}
