package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"somaticfilter/domain/annotation"
	"somaticfilter/domain/vcf"
	"somaticfilter/ports"
)

// afFallbackKeys are the INFO keys tried, in order, when extracting an
// allele frequency from the record itself
var afFallbackKeys = []string{"AF", "MAF", "CAF", "GMAF", "ExAC_AF", "gnomAD_AF", "1000Gp3_AF"}

// AnnotateService enriches passing variant records with gene and disease
// metadata from external lookup services. Lookup failures degrade to
// unknown fields; they never abort the run.
type AnnotateService struct {
	genes    ports.GeneLookup
	variants ports.VariantLookup
	diseases ports.DiseaseLookup
	cache    ports.AnnotationCache // nil when no cache is configured
	delay    time.Duration
}

// NewAnnotateService creates an annotate service. cache may be nil; delay
// is the politeness pause between records' external lookups.
func NewAnnotateService(genes ports.GeneLookup, variants ports.VariantLookup, diseases ports.DiseaseLookup, cache ports.AnnotationCache, delay time.Duration) *AnnotateService {
	return &AnnotateService{
		genes:    genes,
		variants: variants,
		diseases: diseases,
		cache:    cache,
		delay:    delay,
	}
}

// AnnotateStream annotates every record in the stream whose FILTER column
// is PASS, in stream order.
func (s *AnnotateService) AnnotateStream(ctx context.Context, reader ports.RecordReader) ([]annotation.AnnotatedVariant, error) {
	var rows []annotation.AnnotatedVariant
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record stream failed: %w", err)
		}
		if rec.Filter != "PASS" {
			continue
		}

		row, err := s.Annotate(ctx, rec)
		if err != nil {
			// Context cancellation is the only non-degradable failure
			return rows, err
		}
		rows = append(rows, row)

		if s.delay > 0 {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return rows, ctx.Err()
			}
		}
	}
	log.Printf("[AnnotateService] %d PASS variants annotated", len(rows))
	return rows, nil
}

// Annotate enriches one record. The cache is consulted first; on a miss
// the gene, variation and disease services are queried and the completed
// row is memoized.
func (s *AnnotateService) Annotate(ctx context.Context, rec *vcf.VariantRecord) (annotation.AnnotatedVariant, error) {
	key := cacheKey(rec)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Printf("[AnnotateService] cache read failed for %s: %v", key, err)
		} else if cached != nil {
			return *cached, nil
		}
	}

	log.Printf("[AnnotateService] Annotating variant %s", rec.Locus())
	row := annotation.AnnotatedVariant{
		Chromosome:           rec.Chrom,
		Position:             rec.Pos,
		RsID:                 rec.ID,
		RefAllele:            rec.Ref,
		AltAllele:            strings.Join(rec.Alt, ","),
		GeneName:             annotation.UnknownField,
		GeneID:               annotation.UnknownField,
		GeneDescription:      annotation.UnknownField,
		ClinicalSignificance: annotation.UnknownField,
		AssociatedDiseases:   annotation.NoDiseases,
	}

	if gene, err := s.genes.GeneAtPosition(ctx, rec.Chrom, rec.Pos); err != nil {
		if ctx.Err() != nil {
			return row, ctx.Err()
		}
		log.Printf("[AnnotateService] gene lookup failed for %s: %v", rec.Locus(), err)
	} else if gene != nil {
		row.GeneName = gene.Name
		row.GeneID = gene.GeneID
		row.GeneDescription = gene.Description
	}

	detail := s.lookupDetail(ctx, rec)
	if ctx.Err() != nil {
		return row, ctx.Err()
	}

	row.AlleleFrequency = extractAlleleFrequency(rec.Info, detail)
	if detail != nil && len(detail.ClinicalSignificance) > 0 {
		row.ClinicalSignificance = strings.Join(detail.ClinicalSignificance, ", ")
	}

	if diseases := s.lookupDiseases(ctx, rec); len(diseases) > 0 {
		row.AssociatedDiseases = strings.Join(diseases, "; ")
	}
	if ctx.Err() != nil {
		return row, ctx.Err()
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, row); err != nil {
			log.Printf("[AnnotateService] cache write failed for %s: %v", key, err)
		}
	}
	return row, nil
}

// lookupDetail tries the rsID first, then position. Either may miss.
func (s *AnnotateService) lookupDetail(ctx context.Context, rec *vcf.VariantRecord) *annotation.VariantDetail {
	if rec.HasRsID() {
		detail, err := s.variants.VariantByID(ctx, rec.ID)
		if err != nil {
			log.Printf("[AnnotateService] variation lookup failed for %s: %v", rec.ID, err)
		} else if detail != nil {
			return detail
		}
	}
	detail, err := s.variants.VariantByPosition(ctx, rec.Chrom, rec.Pos, rec.Ref)
	if err != nil {
		log.Printf("[AnnotateService] variation lookup failed for %s: %v", rec.Locus(), err)
		return nil
	}
	return detail
}

func (s *AnnotateService) lookupDiseases(ctx context.Context, rec *vcf.VariantRecord) []string {
	if rec.HasRsID() {
		diseases, err := s.diseases.DiseasesByRsID(ctx, rec.ID)
		if err != nil {
			log.Printf("[AnnotateService] disease lookup failed for %s: %v", rec.ID, err)
		} else if len(diseases) > 0 {
			return diseases
		}
	}
	diseases, err := s.diseases.DiseasesByPosition(ctx, rec.Chrom, rec.Pos)
	if err != nil {
		log.Printf("[AnnotateService] disease lookup failed for %s: %v", rec.Locus(), err)
		return nil
	}
	return diseases
}

// extractAlleleFrequency resolves a display frequency: record INFO keys
// first (in fallback order, first value of comma lists), then the
// lookup's minor allele frequency.
func extractAlleleFrequency(info map[string]string, detail *annotation.VariantDetail) string {
	for _, key := range afFallbackKeys {
		raw, ok := info[key]
		if !ok || raw == "" {
			continue
		}
		first, _, _ := strings.Cut(raw, ",")
		if v, err := strconv.ParseFloat(first, 64); err == nil {
			return strconv.FormatFloat(v, 'f', 6, 64)
		}
	}
	if detail != nil && detail.MinorAlleleFreq != nil {
		return strconv.FormatFloat(*detail.MinorAlleleFreq, 'f', 6, 64)
	}
	return annotation.NoFrequency
}

// cacheKey identifies a variant for memoization. rsID when present,
// otherwise the full locus.
func cacheKey(rec *vcf.VariantRecord) string {
	if rec.HasRsID() {
		return rec.ID
	}
	return fmt.Sprintf("%s:%d:%s>%s", rec.Chrom, rec.Pos, rec.Ref, strings.Join(rec.Alt, ","))
}
