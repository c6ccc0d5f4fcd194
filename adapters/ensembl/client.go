package ensembl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"somaticfilter/domain/annotation"
	apperrors "somaticfilter/internal/errors"
)

// errNoResult marks a lookup the service answered but does not know about
var errNoResult = errors.New("no result")

// DefaultBaseURL is the public Ensembl REST endpoint
const DefaultBaseURL = "https://rest.ensembl.org"

// Client queries the Ensembl REST API for gene and variation detail.
// A lookup miss returns (nil, nil); only transport and decode problems
// surface as errors, and callers treat those as degradable.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds the client's connection settings
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates an Ensembl REST client
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// overlapGene is the wire shape of one /overlap/region gene feature
type overlapGene struct {
	ID           string `json:"id"`
	ExternalName string `json:"external_name"`
	Description  string `json:"description"`
	Biotype      string `json:"biotype"`
}

// variationRecord is the wire shape of a /variation/human entry
type variationRecord struct {
	ClinicalSignificance []string `json:"clinical_significance"`
	Synonyms             []string `json:"synonyms"`
	MinorAlleleFreq      *float64 `json:"minor_allele_freq"`
	Phenotypes           []struct {
		Trait string `json:"trait"`
	} `json:"phenotypes"`
	Mappings []struct {
		Start        int    `json:"start"`
		AlleleString string `json:"allele_string"`
	} `json:"mappings"`
}

// GeneAtPosition returns the first gene overlapping a genomic position,
// or nil when none does.
func (c *Client) GeneAtPosition(ctx context.Context, chrom string, pos int) (*annotation.GeneInfo, error) {
	chromClean := annotation.NormalizeChrom(chrom)
	url := fmt.Sprintf("%s/overlap/region/human/%s:%d-%d?feature=gene&content-type=application/json",
		c.baseURL, chromClean, pos, pos)

	var genes []overlapGene
	if err := c.getJSON(ctx, url, &genes); err != nil {
		if errors.Is(err, errNoResult) {
			return nil, nil
		}
		return nil, fmt.Errorf("gene lookup for %s:%d failed: %w", chrom, pos, err)
	}
	if len(genes) == 0 {
		return nil, nil
	}
	g := genes[0]
	return &annotation.GeneInfo{
		GeneID:      g.ID,
		Name:        g.ExternalName,
		Description: g.Description,
		Biotype:     g.Biotype,
	}, nil
}

// VariantByID looks a variant up by dbSNP rs identifier. Identifiers
// without the rs prefix are not queryable and resolve to a miss.
func (c *Client) VariantByID(ctx context.Context, rsID string) (*annotation.VariantDetail, error) {
	if !strings.HasPrefix(rsID, "rs") {
		return nil, nil
	}
	url := fmt.Sprintf("%s/variation/human/%s?content-type=application/json", c.baseURL, rsID)

	var rec variationRecord
	if err := c.getJSON(ctx, url, &rec); err != nil {
		if errors.Is(err, errNoResult) {
			return nil, nil
		}
		return nil, fmt.Errorf("variation lookup for %s failed: %w", rsID, err)
	}
	return rec.toDetail(), nil
}

// VariantByPosition looks a variant up by coordinates, keeping only an
// entry whose mapping matches the position and reference allele.
func (c *Client) VariantByPosition(ctx context.Context, chrom string, pos int, ref string) (*annotation.VariantDetail, error) {
	chromClean := annotation.NormalizeChrom(chrom)
	url := fmt.Sprintf("%s/variation/human/%s:%d-%d:1?content-type=application/json",
		c.baseURL, chromClean, pos, pos)

	var recs []variationRecord
	if err := c.getJSON(ctx, url, &recs); err != nil {
		if errors.Is(err, errNoResult) {
			return nil, nil
		}
		return nil, fmt.Errorf("variation lookup for %s:%d failed: %w", chrom, pos, err)
	}
	for _, rec := range recs {
		for _, m := range rec.Mappings {
			alleles := strings.Split(m.AlleleString, "/")
			if m.Start == pos && len(alleles) > 0 && alleles[0] == ref {
				return rec.toDetail(), nil
			}
		}
	}
	return nil, nil
}

func (rec variationRecord) toDetail() *annotation.VariantDetail {
	detail := &annotation.VariantDetail{
		ClinicalSignificance: rec.ClinicalSignificance,
		Synonyms:             rec.Synonyms,
		MinorAlleleFreq:      rec.MinorAlleleFreq,
	}
	for _, p := range rec.Phenotypes {
		if p.Trait != "" {
			detail.Phenotypes = append(detail.Phenotypes, p.Trait)
		}
	}
	return detail
}

// getJSON performs one GET request and decodes the JSON body. A 404 or
// 400 from Ensembl means "not known" and comes back as errNoResult.
func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
		log.Printf("[EnsemblClient] %s returned %d, treating as no result", url, resp.StatusCode)
		return errNoResult
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return apperrors.ExternalServiceError("ensembl",
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse ensembl response: %w", err)
	}
	return nil
}
