package vcf

import (
	"fmt"
	"strings"
)

// Cardinality declares how many values a metric carries per record.
// It is an explicit tag on the schema entry, never inferred from the
// shape of an extracted value: a per-allele metric that happens to
// carry one value on a biallelic record is still per-allele.
type Cardinality string

const (
	// CardinalityScalar metrics carry one value per record regardless of allele count
	CardinalityScalar Cardinality = "scalar"
	// CardinalityPerAllele metrics carry one value per alternate allele
	CardinalityPerAllele Cardinality = "per_allele"
)

// ValueType declares the numeric representation of a metric's values
type ValueType string

const (
	TypeInteger ValueType = "integer"
	TypeFloat   ValueType = "float"
)

// MetricDef is one declared INFO-style metric: its name, cardinality and numeric type
type MetricDef struct {
	Name        string
	Cardinality Cardinality
	Type        ValueType
	Description string
}

// Schema is the declared set of numeric metrics a record stream carries.
// The reader builds it from the stream's header declarations.
type Schema struct {
	defs  map[string]MetricDef
	order []string
}

// NewSchema builds a schema from metric definitions in declaration order
func NewSchema(defs ...MetricDef) Schema {
	s := Schema{defs: make(map[string]MetricDef, len(defs))}
	for _, d := range defs {
		if _, seen := s.defs[d.Name]; seen {
			continue
		}
		s.defs[d.Name] = d
		s.order = append(s.order, d.Name)
	}
	return s
}

// Lookup returns the definition for a metric name
func (s Schema) Lookup(name string) (MetricDef, bool) {
	d, ok := s.defs[name]
	return d, ok
}

// Names returns the declared metric names in declaration order
func (s Schema) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of declared metrics
func (s Schema) Len() int {
	return len(s.order)
}

// VariantRecord is one row of the input stream: a genomic locus with its
// reference/alternate alleles and raw annotation values. Records are never
// mutated by the engine; the writer alone applies the verdict marker.
type VariantRecord struct {
	Chrom  string
	Pos    int
	ID     string
	Ref    string
	Alt    []string
	Qual   string
	Filter string
	// Info holds raw textual annotation values keyed by metric name.
	// Flag-style annotations carry an empty string.
	Info map[string]string
	// InfoText is the INFO column exactly as read, so records pass through
	// to the output byte-identical apart from the verdict marker.
	InfoText string
	// Extra holds every column after INFO exactly as read (FORMAT and
	// per-sample genotype columns); the engine never interprets them.
	Extra []string
}

// Locus renders the record's coordinates for logs and diagnostics
func (r *VariantRecord) Locus() string {
	return fmt.Sprintf("%s:%d %s>%s", r.Chrom, r.Pos, r.Ref, strings.Join(r.Alt, ","))
}

// AltCount returns the number of alternate alleles declared for the record
func (r *VariantRecord) AltCount() int {
	return len(r.Alt)
}

// HasRsID reports whether the record carries a dbSNP identifier
func (r *VariantRecord) HasRsID() bool {
	return strings.HasPrefix(r.ID, "rs")
}
