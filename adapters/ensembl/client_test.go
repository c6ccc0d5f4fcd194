package ensembl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneAtPosition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/overlap/region/human/7:55242464-55242464", r.URL.Path)
		assert.Equal(t, "gene", r.URL.Query().Get("feature"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"ENSG00000146648","external_name":"EGFR","description":"epidermal growth factor receptor","biotype":"protein_coding"}]`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	gene, err := client.GeneAtPosition(context.Background(), "chr7", 55242464)
	require.NoError(t, err)
	require.NotNil(t, gene)
	assert.Equal(t, "ENSG00000146648", gene.GeneID)
	assert.Equal(t, "EGFR", gene.Name)
	assert.Equal(t, "protein_coding", gene.Biotype)
}

func TestGeneAtPosition_NoOverlap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	gene, err := client.GeneAtPosition(context.Background(), "chr7", 1)
	require.NoError(t, err)
	assert.Nil(t, gene)
}

func TestVariantByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/variation/human/rs121434568", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"clinical_significance": ["pathogenic"],
			"minor_allele_freq": 0.0001,
			"synonyms": ["rs121434568"],
			"phenotypes": [{"trait": "Lung carcinoma"}]
		}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	detail, err := client.VariantByID(context.Background(), "rs121434568")
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, []string{"pathogenic"}, detail.ClinicalSignificance)
	require.NotNil(t, detail.MinorAlleleFreq)
	assert.InDelta(t, 0.0001, *detail.MinorAlleleFreq, 1e-9)
	assert.Equal(t, []string{"Lung carcinoma"}, detail.Phenotypes)
}

func TestVariantByID_NonRsIdentifier(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://unused.invalid"})
	detail, err := client.VariantByID(context.Background(), "COSM12345")
	require.NoError(t, err)
	assert.Nil(t, detail)
}

func TestVariantByPosition_MatchesRefAllele(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"clinical_significance": ["benign"], "mappings": [{"start": 7577121, "allele_string": "C/T"}]},
			{"clinical_significance": ["pathogenic"], "mappings": [{"start": 7577121, "allele_string": "G/A"}]}
		]`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	detail, err := client.VariantByPosition(context.Background(), "chr17", 7577121, "G")
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, []string{"pathogenic"}, detail.ClinicalSignificance)
}

func TestGetJSON_NotFoundIsMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	detail, err := client.VariantByID(context.Background(), "rs999999999")
	require.NoError(t, err)
	assert.Nil(t, detail, "an unknown identifier is a miss, not an error")
}

func TestGetJSON_ServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	_, err := client.GeneAtPosition(context.Background(), "chr7", 55242464)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
