package criteria

import (
	"errors"
	"strings"
	"testing"

	"somaticfilter/domain/core"
	"somaticfilter/domain/vcf"
)

func TestLoad_ParsesAllOperators(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		metric    string
		op        Operator
		threshold float64
	}{
		{"greater or equal", `{"TLOD": ">=20.0"}`, "TLOD", OpGE, 20.0},
		{"less or equal", `{"POPAF": "<=0.01"}`, "POPAF", OpLE, 0.01},
		{"strictly greater", `{"DP": ">50"}`, "DP", OpGT, 50},
		{"strictly less", `{"MPOS": "<10"}`, "MPOS", OpLT, 10},
		{"equal", `{"GERMQ": "==30"}`, "GERMQ", OpEQ, 30},
		{"not equal", `{"SEQQ": "!=0"}`, "SEQQ", OpNE, 0},
		{"whitespace tolerated", `{"TLOD": "  >=  20.0  "}`, "TLOD", OpGE, 20.0},
		{"negative threshold", `{"GERMQ": ">=-3.5"}`, "GERMQ", OpGE, -3.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rules, err := Load(strings.NewReader(tc.source))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			specs := rules.Specs()
			if len(specs) != 1 {
				t.Fatalf("expected 1 criterion, got %d", len(specs))
			}
			spec := specs[0]
			if spec.Metric != tc.metric || spec.Op != tc.op || spec.Threshold != tc.threshold {
				t.Errorf("got %s %s %g, want %s %s %g",
					spec.Metric, spec.Op, spec.Threshold, tc.metric, tc.op, tc.threshold)
			}
		})
	}
}

func TestLoad_MalformedCriteria(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"missing operator", `{"TLOD": "20.0"}`},
		{"unknown operator", `{"TLOD": "=>20.0"}`},
		{"non-numeric threshold", `{"TLOD": ">=twenty"}`},
		{"empty expression", `{"TLOD": ""}`},
		{"operator only", `{"TLOD": ">="}`},
		{"non-string expression", `{"TLOD": 20}`},
		{"duplicate metric", `{"TLOD": ">=20", "TLOD": ">=30"}`},
		{"not an object", `[">=20"]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.source))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, core.ErrMalformedCriterion) {
				t.Errorf("expected ErrMalformedCriterion, got %v", err)
			}
		})
	}
}

func TestLoad_MalformedErrorNamesMetric(t *testing.T) {
	_, err := Load(strings.NewReader(`{"TLOD": ">=20", "POPAF": "about 3"}`))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "POPAF") || !strings.Contains(err.Error(), "about 3") {
		t.Errorf("error should identify metric and raw text, got: %v", err)
	}
}

func TestLoad_IgnoresCommentaryEntries(t *testing.T) {
	source := `{
		"_comment": "thresholds for the tumor-only panel",
		"TLOD": ">=20.0",
		"_multiallelic_strategy": "all",
		"DP": ">=50"
	}`
	rules, err := Load(strings.NewReader(source))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rules.Len() != 2 {
		t.Fatalf("expected 2 criteria, got %d", rules.Len())
	}
}

func TestLoad_PreservesDeclarationOrder(t *testing.T) {
	source := `{"TLOD": ">=20.0", "DP": ">=50", "POPAF": ">=3.0", "GERMQ": ">=30"}`
	rules, err := Load(strings.NewReader(source))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []string{"TLOD", "DP", "POPAF", "GERMQ"}
	specs := rules.Specs()
	for i, metric := range want {
		if specs[i].Metric != metric {
			t.Errorf("position %d: got %s, want %s", i, specs[i].Metric, metric)
		}
	}
}

func TestRuleSet_Validate(t *testing.T) {
	schema := vcf.NewSchema(
		vcf.MetricDef{Name: "TLOD", Cardinality: vcf.CardinalityPerAllele, Type: vcf.TypeFloat},
		vcf.MetricDef{Name: "DP", Cardinality: vcf.CardinalityScalar, Type: vcf.TypeInteger},
	)

	rules, err := Load(strings.NewReader(`{"TLOD": ">=20.0", "DP": ">=50"}`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := rules.Validate(schema); err != nil {
		t.Errorf("expected valid rule set, got %v", err)
	}

	rules, err = Load(strings.NewReader(`{"TLOD": ">=20.0", "NOSUCH": ">=1"}`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	err = rules.Validate(schema)
	if !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "NOSUCH") {
		t.Errorf("error should name the unknown metric, got: %v", err)
	}
}

func TestOperator_Compare_Boundaries(t *testing.T) {
	tests := []struct {
		op        Operator
		value     float64
		threshold float64
		want      bool
	}{
		{OpGE, 20.0, 20.0, true},
		{OpLE, 20.0, 20.0, true},
		{OpGT, 20.0, 20.0, false},
		{OpLT, 20.0, 20.0, false},
		{OpEQ, 20.0, 20.0, true},
		{OpNE, 20.0, 20.0, false},
		{OpGE, 19.999999, 20.0, false},
		{OpGT, 20.000001, 20.0, true},
	}

	for _, tc := range tests {
		if got := tc.op.Compare(tc.value, tc.threshold); got != tc.want {
			t.Errorf("%g %s %g: got %t, want %t", tc.value, tc.op, tc.threshold, got, tc.want)
		}
	}
}
