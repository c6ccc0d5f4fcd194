package vcfio

import (
	"errors"
	"io"
	"strings"
	"testing"

	"somaticfilter/domain/vcf"
)

const sampleVCF = `##fileformat=VCFv4.2
##source=somatic-caller
##INFO=<ID=TLOD,Number=A,Type=Float,Description="Log odds of variant existing in tumor">
##INFO=<ID=DP,Number=1,Type=Integer,Description="Approximate read depth">
##INFO=<ID=GERMQ,Number=1,Type=Integer,Description="Phred-scaled quality that alts are not germline">
##INFO=<ID=STR,Number=0,Type=Flag,Description="Variant is a short tandem repeat">
##INFO=<ID=RPA,Number=R,Type=Integer,Description="Repeats per allele">
##FILTER=<ID=PASS,Description="All filters passed">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
chr7	55242464	rs121434568	AGGAATTAAGAGAAGC	A	.	.	TLOD=45.8;DP=120;GERMQ=42;STR
chr17	7577121	.	G	A,T	.	.	TLOD=12.1,8.3;DP=88;GERMQ=35
`

func newTestReader(t *testing.T) *Reader {
	t.Helper()
	r, err := NewReader(strings.NewReader(sampleVCF))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	return r
}

func TestReader_SchemaFromHeader(t *testing.T) {
	r := newTestReader(t)
	schema := r.Schema()

	tests := []struct {
		name        string
		cardinality vcf.Cardinality
		valueType   vcf.ValueType
	}{
		{"TLOD", vcf.CardinalityPerAllele, vcf.TypeFloat},
		{"DP", vcf.CardinalityScalar, vcf.TypeInteger},
		{"GERMQ", vcf.CardinalityScalar, vcf.TypeInteger},
	}
	for _, tc := range tests {
		def, ok := schema.Lookup(tc.name)
		if !ok {
			t.Errorf("schema missing %s", tc.name)
			continue
		}
		if def.Cardinality != tc.cardinality || def.Type != tc.valueType {
			t.Errorf("%s: got (%s, %s), want (%s, %s)",
				tc.name, def.Cardinality, def.Type, tc.cardinality, tc.valueType)
		}
	}

	// Flags and non-scalar/per-allele counts are not evaluable metrics
	if _, ok := schema.Lookup("STR"); ok {
		t.Error("Flag-typed INFO must not enter the metric schema")
	}
	if _, ok := schema.Lookup("RPA"); ok {
		t.Error("Number=R INFO must not enter the metric schema")
	}
}

func TestReader_Records(t *testing.T) {
	r := newTestReader(t)

	first, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if first.Chrom != "chr7" || first.Pos != 55242464 || first.ID != "rs121434568" {
		t.Errorf("unexpected first record: %+v", first)
	}
	if first.Info["TLOD"] != "45.8" || first.Info["DP"] != "120" {
		t.Errorf("unexpected INFO values: %v", first.Info)
	}
	if v, ok := first.Info["STR"]; !ok || v != "" {
		t.Error("flag annotation should be present with empty value")
	}

	second, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if second.AltCount() != 2 || second.Alt[0] != "A" || second.Alt[1] != "T" {
		t.Errorf("unexpected alternate alleles: %v", second.Alt)
	}
	if second.ID != "" {
		t.Errorf("dot ID should read as empty, got %q", second.ID)
	}

	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF at end of stream, got %v", err)
	}
}

func TestReader_HeaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"empty stream", ""},
		{"no column line", "##fileformat=VCFv4.2\n"},
		{"record before header", "chr1\t100\t.\tA\tT\t.\t.\tDP=5\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewReader(strings.NewReader(tc.source)); err == nil {
				t.Error("expected header error, got nil")
			}
		})
	}
}

func TestReader_ShortRecordLine(t *testing.T) {
	source := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\nchr1\t100\t.\tA\n"
	r, err := NewReader(strings.NewReader(source))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	_, err = r.Next()
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line-numbered record error, got %v", err)
	}
}

func TestParseInfoDefinition_QuotedCommas(t *testing.T) {
	line := `##INFO=<ID=POPAF,Number=A,Type=Float,Description="Negative log 10, population allele frequency">`
	def, ok := parseInfoDefinition(line)
	if !ok {
		t.Fatal("definition should parse")
	}
	if def.Name != "POPAF" || def.Cardinality != vcf.CardinalityPerAllele {
		t.Errorf("unexpected definition: %+v", def)
	}
	if def.Description != "Negative log 10, population allele frequency" {
		t.Errorf("comma inside quotes must survive: %q", def.Description)
	}
}
