package ports

import (
	"context"

	"somaticfilter/domain/annotation"
)

// GeneLookup resolves the gene overlapping a genomic position
type GeneLookup interface {
	// GeneAtPosition returns nil with no error when no gene overlaps
	GeneAtPosition(ctx context.Context, chrom string, pos int) (*annotation.GeneInfo, error)
}

// VariantLookup resolves clinical detail for a known variant
type VariantLookup interface {
	// VariantByID looks a variant up by its dbSNP rs identifier
	VariantByID(ctx context.Context, rsID string) (*annotation.VariantDetail, error)

	// VariantByPosition looks a variant up by coordinates and reference allele
	VariantByPosition(ctx context.Context, chrom string, pos int, ref string) (*annotation.VariantDetail, error)
}

// DiseaseLookup resolves disease associations for a variant
type DiseaseLookup interface {
	DiseasesByRsID(ctx context.Context, rsID string) ([]string, error)
	DiseasesByPosition(ctx context.Context, chrom string, pos int) ([]string, error)
}

// AnnotationCache memoizes completed lookups across runs so repeated
// invocations do not hammer the external services. A nil-returning Get is
// a miss, never an error.
type AnnotationCache interface {
	Get(ctx context.Context, key string) (*annotation.AnnotatedVariant, error)
	Put(ctx context.Context, key string, row annotation.AnnotatedVariant) error
}
