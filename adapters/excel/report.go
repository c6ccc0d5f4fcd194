package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"somaticfilter/domain/annotation"
	"somaticfilter/domain/engine"

	"github.com/montanaflynn/stats"
	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet = "Variant Analysis Results"
	summarySheet = "Summary"
)

// reportHeaders are the result sheet columns, in output order
var reportHeaders = []string{
	"Chromosome", "Position", "RS_ID", "Reference", "Alternate",
	"Gene_Name", "Gene_ID", "Gene_Description", "Allele_Frequency",
	"Clinical_Significance", "Associated_Diseases",
}

// reportColumnWidths mirrors the header list one-to-one
var reportColumnWidths = []float64{12, 12, 15, 10, 10, 15, 20, 40, 12, 25, 50}

// ReportWriter renders annotated variants to an Excel workbook with a
// results sheet and a summary sheet, plus a CSV alongside as a backup
// readable without spreadsheet tooling.
type ReportWriter struct {
	excelPath string
	csvPath   string
}

// NewReportWriter creates a report writer. The CSV path is derived from
// the Excel path when left empty.
func NewReportWriter(excelPath, csvPath string) *ReportWriter {
	if csvPath == "" {
		csvPath = strings.TrimSuffix(excelPath, ".xlsx") + ".csv"
	}
	return &ReportWriter{excelPath: excelPath, csvPath: csvPath}
}

// WriteReport writes both output files
func (w *ReportWriter) WriteReport(rows []annotation.AnnotatedVariant, runStats *engine.RunStatistics) error {
	if err := w.writeExcel(rows, runStats); err != nil {
		return fmt.Errorf("failed to write Excel report: %w", err)
	}
	log.Printf("[ReportWriter] Excel report saved: %s", w.excelPath)

	if err := w.writeCSV(rows); err != nil {
		return fmt.Errorf("failed to write CSV backup: %w", err)
	}
	log.Printf("[ReportWriter] CSV backup saved: %s", w.csvPath)
	return nil
}

func (w *ReportWriter) writeExcel(rows []annotation.AnnotatedVariant, runStats *engine.RunStatistics) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return err
	}

	for i, h := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(resultsSheet, cell, h); err != nil {
			return err
		}
	}

	for r, row := range rows {
		values := []interface{}{
			row.Chromosome,
			row.Position,
			displayRsID(row.RsID),
			row.RefAllele,
			row.AltAllele,
			row.GeneName,
			row.GeneID,
			row.GeneDescription,
			row.AlleleFrequency,
			row.ClinicalSignificance,
			row.AssociatedDiseases,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(resultsSheet, cell, v); err != nil {
				return err
			}
		}
	}

	for i, width := range reportColumnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(resultsSheet, col, col, width); err != nil {
			return err
		}
	}

	if err := w.writeSummarySheet(f, rows, runStats); err != nil {
		return err
	}

	return f.SaveAs(w.excelPath)
}

func (w *ReportWriter) writeSummarySheet(f *excelize.File, rows []annotation.AnnotatedVariant, runStats *engine.RunStatistics) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	type summaryRow struct {
		label string
		value interface{}
	}
	lines := []summaryRow{
		{"Analysis Summary", ""},
		{"Total PASS variants analyzed", len(rows)},
		{"Variants with gene assignments", countRows(rows, annotation.AnnotatedVariant.HasGene)},
		{"Variants with disease associations", countRows(rows, annotation.AnnotatedVariant.HasDiseases)},
		{"Variants with allele frequency", countRows(rows, annotation.AnnotatedVariant.HasFrequency)},
		{"Variants with clinical significance", countRows(rows, annotation.AnnotatedVariant.HasClinicalSignificance)},
	}

	if runStats != nil {
		lines = append(lines,
			summaryRow{"", ""},
			summaryRow{"Filtering Run", ""},
			summaryRow{"Run ID", runStats.RunID.String()},
			summaryRow{"Records seen", runStats.TotalSeen},
			summaryRow{"Records passed", runStats.TotalPassed},
			summaryRow{"Records flagged for review", runStats.Flagged},
		)
	}

	if freqLines := frequencySummary(rows); len(freqLines) > 0 {
		lines = append(lines, summaryRow{"", ""}, summaryRow{"Allele Frequency (annotated variants)", ""})
		for _, fl := range freqLines {
			lines = append(lines, summaryRow{fl.label, fl.value})
		}
	}

	lines = append(lines, summaryRow{"", ""}, summaryRow{"Gene Distribution", ""})
	dist := annotation.GeneDistribution(rows)
	genes := make([]string, 0, len(dist))
	for gene := range dist {
		genes = append(genes, gene)
	}
	sort.Strings(genes)
	for _, gene := range genes {
		lines = append(lines, summaryRow{gene, dist[gene]})
	}

	for i, line := range lines {
		cellA, _ := excelize.CoordinatesToCellName(1, i+1)
		cellB, _ := excelize.CoordinatesToCellName(2, i+1)
		if err := f.SetCellValue(summarySheet, cellA, line.label); err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, cellB, line.value); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(summarySheet, "A", "A", 36); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "B", "B", 15)
}

type freqLine struct {
	label string
	value string
}

// frequencySummary computes descriptive statistics over the allele
// frequencies that resolved to numbers
func frequencySummary(rows []annotation.AnnotatedVariant) []freqLine {
	var freqs []float64
	for _, row := range rows {
		if !row.HasFrequency() {
			continue
		}
		if v, err := strconv.ParseFloat(row.AlleleFrequency, 64); err == nil {
			freqs = append(freqs, v)
		}
	}
	if len(freqs) == 0 {
		return nil
	}

	mean, err := stats.Mean(freqs)
	if err != nil {
		return nil
	}
	median, _ := stats.Median(freqs)
	minV, _ := stats.Min(freqs)
	maxV, _ := stats.Max(freqs)

	format := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	return []freqLine{
		{"Mean", format(mean)},
		{"Median", format(median)},
		{"Min", format(minV)},
		{"Max", format(maxV)},
	}
}

func countRows(rows []annotation.AnnotatedVariant, pred func(annotation.AnnotatedVariant) bool) int {
	n := 0
	for _, row := range rows {
		if pred(row) {
			n++
		}
	}
	return n
}

func displayRsID(rsID string) string {
	if rsID == "" {
		return "N/A"
	}
	return rsID
}

func (w *ReportWriter) writeCSV(rows []annotation.AnnotatedVariant) error {
	f, err := os.Create(w.csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if err := cw.Write(reportHeaders); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Chromosome,
			strconv.Itoa(row.Position),
			displayRsID(row.RsID),
			row.RefAllele,
			row.AltAllele,
			row.GeneName,
			row.GeneID,
			row.GeneDescription,
			row.AlleleFrequency,
			row.ClinicalSignificance,
			row.AssociatedDiseases,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
