package clinvar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"somaticfilter/domain/annotation"
	apperrors "somaticfilter/internal/errors"
)

// DefaultBaseURL is the NCBI eutils endpoint
const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// maxSummaries bounds how many ClinVar entries one variant pulls in
const maxSummaries = 5

// Client searches ClinVar for disease associations through the NCBI
// eutils esearch/esummary pair.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds the client's connection settings
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a ClinVar eutils client
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

// DiseasesByRsID searches ClinVar by dbSNP identifier and returns the
// titles of matching entries.
func (c *Client) DiseasesByRsID(ctx context.Context, rsID string) ([]string, error) {
	if !strings.HasPrefix(rsID, "rs") {
		return nil, nil
	}
	return c.search(ctx, rsID)
}

// DiseasesByPosition searches ClinVar by chromosome and position
func (c *Client) DiseasesByPosition(ctx context.Context, chrom string, pos int) ([]string, error) {
	chromClean := annotation.NormalizeChrom(chrom)
	term := fmt.Sprintf("%s[chr] AND %d[chrpos37]", chromClean, pos)
	return c.search(ctx, term)
}

// esearchResponse is the wire shape of an esearch result envelope
type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// esummaryResponse keys documents by UID under "result"
type esummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type summaryDocument struct {
	Title string `json:"title"`
}

// search runs esearch for the term, then esummary for the matched IDs,
// collecting entry titles as disease descriptions.
func (c *Client) search(ctx context.Context, term string) ([]string, error) {
	params := url.Values{}
	params.Set("db", "clinvar")
	params.Set("term", term)
	params.Set("retmode", "json")
	params.Set("retmax", "10")

	var searchResp esearchResponse
	if err := c.getJSON(ctx, c.baseURL+"/esearch.fcgi?"+params.Encode(), &searchResp); err != nil {
		return nil, fmt.Errorf("clinvar search for %q failed: %w", term, err)
	}

	idList := searchResp.ESearchResult.IDList
	if len(idList) == 0 {
		return nil, nil
	}
	if len(idList) > maxSummaries {
		idList = idList[:maxSummaries]
	}
	return c.fetchTitles(ctx, idList)
}

func (c *Client) fetchTitles(ctx context.Context, idList []string) ([]string, error) {
	params := url.Values{}
	params.Set("db", "clinvar")
	params.Set("id", strings.Join(idList, ","))
	params.Set("retmode", "json")

	var summaryResp esummaryResponse
	if err := c.getJSON(ctx, c.baseURL+"/esummary.fcgi?"+params.Encode(), &summaryResp); err != nil {
		return nil, fmt.Errorf("clinvar summary fetch failed: %w", err)
	}

	var diseases []string
	for _, uid := range idList {
		raw, ok := summaryResp.Result[uid]
		if !ok {
			continue
		}
		var doc summaryDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			log.Printf("[ClinVarClient] skipping unreadable summary for uid %s: %v", uid, err)
			continue
		}
		if doc.Title != "" {
			diseases = append(diseases, doc.Title)
		}
	}
	return diseases, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return apperrors.ExternalServiceError("eutils",
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse eutils response: %w", err)
	}
	return nil
}
