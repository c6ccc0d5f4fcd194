package annotation

import (
	"strings"
)

// GeneInfo is the gene overlapping a variant's position
type GeneInfo struct {
	GeneID      string
	Name        string
	Description string
	Biotype     string
}

// VariantDetail is what a variation lookup knows about a specific variant
type VariantDetail struct {
	ClinicalSignificance []string
	Phenotypes           []string
	MinorAlleleFreq      *float64
	Synonyms             []string
}

// AnnotatedVariant is one row of the final report: a passing variant
// enriched with gene and disease metadata. Lookup misses degrade to the
// sentinel strings below rather than aborting the run.
type AnnotatedVariant struct {
	Chromosome           string
	Position             int
	RsID                 string
	RefAllele            string
	AltAllele            string
	GeneName             string
	GeneID               string
	GeneDescription      string
	AlleleFrequency      string
	ClinicalSignificance string
	AssociatedDiseases   string
}

// Sentinel values for annotation fields no lookup could supply
const (
	UnknownField = "Unknown"
	NoFrequency  = "N/A"
	NoDiseases   = "No disease associations found"
)

// HasGene reports whether a gene lookup succeeded for this row
func (a AnnotatedVariant) HasGene() bool {
	return a.GeneName != "" && a.GeneName != UnknownField
}

// HasDiseases reports whether any disease association was found
func (a AnnotatedVariant) HasDiseases() bool {
	return a.AssociatedDiseases != "" && a.AssociatedDiseases != NoDiseases
}

// HasFrequency reports whether an allele frequency was resolved
func (a AnnotatedVariant) HasFrequency() bool {
	return a.AlleleFrequency != "" && a.AlleleFrequency != NoFrequency
}

// HasClinicalSignificance reports whether any significance was resolved
func (a AnnotatedVariant) HasClinicalSignificance() bool {
	return a.ClinicalSignificance != "" && a.ClinicalSignificance != UnknownField
}

// GeneDistribution counts annotated variants per gene name, skipping rows
// without a gene assignment
func GeneDistribution(rows []AnnotatedVariant) map[string]int {
	counts := make(map[string]int)
	for _, row := range rows {
		if row.HasGene() {
			counts[row.GeneName]++
		}
	}
	return counts
}

// NormalizeChrom strips the conventional "chr" prefix for lookup services
// that address chromosomes bare
func NormalizeChrom(chrom string) string {
	return strings.TrimPrefix(chrom, "chr")
}
