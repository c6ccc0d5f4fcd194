package main

import (
	"fmt"
	"log"
	"os"
	"sort"

	"somaticfilter/adapters/clinvar"
	"somaticfilter/adapters/ensembl"
	"somaticfilter/adapters/excel"
	"somaticfilter/adapters/postgres"
	"somaticfilter/adapters/vcfio"
	"somaticfilter/app"
	"somaticfilter/domain/annotation"
	"somaticfilter/domain/core"
	"somaticfilter/domain/criteria"
	"somaticfilter/domain/engine"
	"somaticfilter/internal/config"
	"somaticfilter/ports"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "somaticfilter",
		Short: "Criteria-driven filtering and annotation of tumor-only variant calls",
	}

	rootCmd.AddCommand(
		newFilterCmd(),
		newAnnotateCmd(),
		newCriteriaCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newFilterCmd() *cobra.Command {
	var criteriaPath string
	var outputPath string
	var statsPath string
	var keepReview bool
	var keepFailed bool

	cmd := &cobra.Command{
		Use:   "filter [input-vcf]",
		Short: "Evaluate every record against the criteria file and rewrite FILTER verdicts",
		Long: `Filter a tumor-only VCF against a declarative criteria file.

The criteria file is a JSON object mapping INFO metric names to comparison
expressions ("<operator><number>", operators >=, <=, >, <, ==, !=). Keys
with a leading underscore are documentation and ignored.

Example: somaticfilter filter sample.vcf -c criteria.json -o filtered.vcf --keep-review`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(args[0], criteriaPath, outputPath, statsPath, vcfio.WritePolicy{
				KeepReview: keepReview,
				KeepFailed: keepFailed,
			})
		},
	}

	cmd.Flags().StringVarP(&criteriaPath, "criteria", "c", "", "Criteria JSON file (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output VCF path (required)")
	cmd.Flags().StringVar(&statsPath, "stats", "", "Persist run statistics as JSON for a later annotate run")
	cmd.Flags().BoolVar(&keepReview, "keep-review", true, "Preserve review-flagged records with a FILTER marker")
	cmd.Flags().BoolVar(&keepFailed, "keep-failed", false, "Preserve failing records with their failing criteria as FILTER values")
	cmd.MarkFlagRequired("criteria")
	cmd.MarkFlagRequired("output")

	return cmd
}

func runFilter(inputPath, criteriaPath, outputPath, statsPath string, policy vcfio.WritePolicy) error {
	rules, err := loadCriteria(criteriaPath)
	if err != nil {
		return err
	}

	reader, err := vcfio.Open(inputPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	writer, err := vcfio.Create(outputPath, reader.Header(), policy)
	if err != nil {
		return err
	}

	svc := app.NewFilterService(reader, writer)
	result, err := svc.Run(rules)
	if err != nil {
		writer.Close()
		if core.IsRunFatal(err) {
			return fmt.Errorf("run aborted before any record was processed: %w", err)
		}
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	if statsPath != "" {
		if err := app.SaveRunStatistics(statsPath, result.Stats); err != nil {
			return err
		}
	}

	fmt.Printf("Processed %d records, %d passed, %d flagged for review.\n",
		result.Stats.TotalSeen, result.Stats.TotalPassed, result.Stats.Flagged)
	return nil
}

func newAnnotateCmd() *cobra.Command {
	var outputPath string
	var csvPath string
	var statsPath string

	cmd := &cobra.Command{
		Use:   "annotate [filtered-vcf]",
		Short: "Enrich PASS variants with gene/disease metadata and write an Excel report",
		Long: `Annotate the PASS records of a filtered VCF using Ensembl and ClinVar,
writing an Excel workbook (results + summary sheets) and a CSV backup.

Service endpoints, timeouts, the inter-lookup delay and the optional
PostgreSQL annotation cache (DATABASE_URL) come from the environment.

Example: somaticfilter annotate filtered.vcf -o annotation_results.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(cmd, args[0], outputPath, csvPath, statsPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "annotation_results.xlsx", "Output Excel path")
	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV backup path (default: Excel path with .csv)")
	cmd.Flags().StringVar(&statsPath, "stats", "", "Run statistics JSON from the filter run, included in the summary sheet")

	return cmd
}

func runAnnotate(cmd *cobra.Command, inputPath, outputPath, csvPath, statsPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var runStats *engine.RunStatistics
	if statsPath != "" {
		runStats, err = app.LoadRunStatistics(statsPath)
		if err != nil {
			return err
		}
	}

	reader, err := vcfio.Open(inputPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	ensemblClient := ensembl.NewClient(ensembl.Config{
		BaseURL: cfg.Lookup.EnsemblBaseURL,
		Timeout: cfg.Lookup.Timeout,
	})
	clinvarClient := clinvar.NewClient(clinvar.Config{
		BaseURL: cfg.Lookup.EutilsBaseURL,
		Timeout: cfg.Lookup.Timeout,
	})

	var cache ports.AnnotationCache
	if cfg.Database.URL != "" {
		cache, err = postgres.NewAnnotationCache(cfg.Database.URL)
		if err != nil {
			log.Printf("[CLI] annotation cache unavailable, continuing without: %v", err)
			cache = nil
		}
	}

	svc := app.NewAnnotateService(ensemblClient, ensemblClient, clinvarClient, cache, cfg.Lookup.Delay)
	rows, err := svc.AnnotateStream(cmd.Context(), reader)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No PASS variants found; nothing to report.")
		return nil
	}

	report := excel.NewReportWriter(outputPath, csvPath)
	if err := report.WriteReport(rows, runStats); err != nil {
		return err
	}

	printAnnotationSummary(rows, outputPath)
	return nil
}

func printAnnotationSummary(rows []annotation.AnnotatedVariant, outputPath string) {
	significant := 0
	for _, row := range rows {
		if row.HasClinicalSignificance() {
			significant++
		}
	}

	fmt.Printf("Annotated %d PASS variants (%d with clinical significance). Report: %s\n",
		len(rows), significant, outputPath)

	dist := annotation.GeneDistribution(rows)
	if len(dist) == 0 {
		return
	}
	genes := make([]string, 0, len(dist))
	for gene := range dist {
		genes = append(genes, gene)
	}
	sort.Strings(genes)
	fmt.Println("Gene distribution:")
	for _, gene := range genes {
		fmt.Printf("  %-15s %d\n", gene, dist[gene])
	}
}

func newCriteriaCmd() *cobra.Command {
	var vcfPath string

	cmd := &cobra.Command{
		Use:   "criteria [criteria-json]",
		Short: "Validate a criteria file, optionally against a VCF's declared metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadCriteria(args[0])
			if err != nil {
				return err
			}

			if vcfPath != "" {
				reader, err := vcfio.Open(vcfPath)
				if err != nil {
					return err
				}
				defer reader.Close()
				if err := rules.Validate(reader.Schema()); err != nil {
					return err
				}
			}

			for _, spec := range rules.Specs() {
				fmt.Println(spec)
			}
			fmt.Printf("%d criteria OK.\n", rules.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&vcfPath, "vcf", "", "VCF whose header schema the criteria must match")

	return cmd
}

func loadCriteria(path string) (criteria.RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return criteria.RuleSet{}, fmt.Errorf("failed to open criteria file: %w", err)
	}
	defer f.Close()
	return criteria.Load(f)
}
