package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"somaticfilter/domain/annotation"
	"somaticfilter/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// AnnotationCacheImpl implements the AnnotationCache port on PostgreSQL.
// Gene and disease metadata changes slowly; caching completed lookups by
// locus lets repeated runs over the same cohort skip the external services.
type AnnotationCacheImpl struct {
	db *sqlx.DB
}

// cachedRow is the database shape of one memoized annotation
type cachedRow struct {
	CacheKey             string    `db:"cache_key"`
	Chromosome           string    `db:"chromosome"`
	Position             int       `db:"position"`
	RsID                 string    `db:"rs_id"`
	RefAllele            string    `db:"ref_allele"`
	AltAllele            string    `db:"alt_allele"`
	GeneName             string    `db:"gene_name"`
	GeneID               string    `db:"gene_id"`
	GeneDescription      string    `db:"gene_description"`
	AlleleFrequency      string    `db:"allele_frequency"`
	ClinicalSignificance string    `db:"clinical_significance"`
	AssociatedDiseases   string    `db:"associated_diseases"`
	CreatedAt            time.Time `db:"created_at"`
}

// NewAnnotationCache connects to PostgreSQL and ensures the cache table
// exists.
func NewAnnotationCache(databaseURL string) (ports.AnnotationCache, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to annotation cache database: %w", err)
	}

	cache := &AnnotationCacheImpl{db: db}
	if err := cache.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return cache, nil
}

func (c *AnnotationCacheImpl) ensureSchema(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS annotation_cache (
			cache_key             TEXT PRIMARY KEY,
			chromosome            TEXT NOT NULL,
			position              INTEGER NOT NULL,
			rs_id                 TEXT NOT NULL DEFAULT '',
			ref_allele            TEXT NOT NULL,
			alt_allele            TEXT NOT NULL,
			gene_name             TEXT NOT NULL DEFAULT '',
			gene_id               TEXT NOT NULL DEFAULT '',
			gene_description      TEXT NOT NULL DEFAULT '',
			allele_frequency      TEXT NOT NULL DEFAULT '',
			clinical_significance TEXT NOT NULL DEFAULT '',
			associated_diseases   TEXT NOT NULL DEFAULT '',
			created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create annotation_cache table: %w", err)
	}
	return nil
}

// Get returns the memoized annotation for a key, or nil on a miss
func (c *AnnotationCacheImpl) Get(ctx context.Context, key string) (*annotation.AnnotatedVariant, error) {
	var row cachedRow
	err := c.db.GetContext(ctx, &row, `
		SELECT cache_key, chromosome, position, rs_id, ref_allele, alt_allele,
		       gene_name, gene_id, gene_description, allele_frequency,
		       clinical_significance, associated_diseases, created_at
		FROM annotation_cache
		WHERE cache_key = $1
	`, key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("annotation cache lookup failed: %w", err)
	}

	return &annotation.AnnotatedVariant{
		Chromosome:           row.Chromosome,
		Position:             row.Position,
		RsID:                 row.RsID,
		RefAllele:            row.RefAllele,
		AltAllele:            row.AltAllele,
		GeneName:             row.GeneName,
		GeneID:               row.GeneID,
		GeneDescription:      row.GeneDescription,
		AlleleFrequency:      row.AlleleFrequency,
		ClinicalSignificance: row.ClinicalSignificance,
		AssociatedDiseases:   row.AssociatedDiseases,
	}, nil
}

// Put memoizes one completed annotation, replacing any stale entry
func (c *AnnotationCacheImpl) Put(ctx context.Context, key string, row annotation.AnnotatedVariant) error {
	_, err := c.db.NamedExecContext(ctx, `
		INSERT INTO annotation_cache (
			cache_key, chromosome, position, rs_id, ref_allele, alt_allele,
			gene_name, gene_id, gene_description, allele_frequency,
			clinical_significance, associated_diseases
		) VALUES (
			:cache_key, :chromosome, :position, :rs_id, :ref_allele, :alt_allele,
			:gene_name, :gene_id, :gene_description, :allele_frequency,
			:clinical_significance, :associated_diseases
		)
		ON CONFLICT (cache_key) DO UPDATE SET
			gene_name = EXCLUDED.gene_name,
			gene_id = EXCLUDED.gene_id,
			gene_description = EXCLUDED.gene_description,
			allele_frequency = EXCLUDED.allele_frequency,
			clinical_significance = EXCLUDED.clinical_significance,
			associated_diseases = EXCLUDED.associated_diseases,
			created_at = now()
	`, cachedRow{
		CacheKey:             key,
		Chromosome:           row.Chromosome,
		Position:             row.Position,
		RsID:                 row.RsID,
		RefAllele:            row.RefAllele,
		AltAllele:            row.AltAllele,
		GeneName:             row.GeneName,
		GeneID:               row.GeneID,
		GeneDescription:      row.GeneDescription,
		AlleleFrequency:      row.AlleleFrequency,
		ClinicalSignificance: row.ClinicalSignificance,
		AssociatedDiseases:   row.AssociatedDiseases,
	})
	if err != nil {
		return fmt.Errorf("annotation cache write failed: %w", err)
	}
	return nil
}

// Close releases the database connection
func (c *AnnotationCacheImpl) Close() error {
	return c.db.Close()
}
