package vcfio

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"somaticfilter/domain/engine"
	"somaticfilter/domain/vcf"
)

// ReviewFilterID is the FILTER value applied to records flagged for review
const ReviewFilterID = "review_required"

// WritePolicy decides what happens to each verdict at the output boundary.
// PASS records are always written through; review and fail records are
// configurable. The engine never owns this policy.
type WritePolicy struct {
	// KeepReview preserves FLAG_FOR_REVIEW records with a FILTER marker
	KeepReview bool
	// KeepFailed preserves FAIL records with their failing criteria as FILTER values
	KeepFailed bool
}

// Writer serializes judged records back to line-oriented VCF, rewriting
// the FILTER column from the verdict.
type Writer struct {
	w       *bufio.Writer
	closer  io.Closer
	policy  WritePolicy
	written int
}

// Create creates an output VCF file and writes the header immediately.
// The header is the input header passed through, with a ##FILTER line for
// the review marker appended when review records are kept.
func Create(path string, header []string, policy WritePolicy) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output VCF: %w", err)
	}
	w, err := NewWriter(f, header, policy)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// NewWriter wraps an output stream and writes the header immediately
func NewWriter(dst io.Writer, header []string, policy WritePolicy) (*Writer, error) {
	w := &Writer{w: bufio.NewWriter(dst), policy: policy}
	if err := w.writeHeader(header); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) writeHeader(header []string) error {
	for _, line := range header {
		// Inject the marker definition ahead of the #CHROM column line
		if strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "##") &&
			w.policy.KeepReview && !headerDefinesFilter(header, ReviewFilterID) {
			filterLine := fmt.Sprintf("##FILTER=<ID=%s,Description=\"Required annotation missing; verdict needs manual review\">", ReviewFilterID)
			if _, err := fmt.Fprintln(w.w, filterLine); err != nil {
				return fmt.Errorf("failed to write header: %w", err)
			}
		}
		if _, err := fmt.Fprintln(w.w, line); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	return nil
}

func headerDefinesFilter(header []string, id string) bool {
	needle := fmt.Sprintf("##FILTER=<ID=%s,", id)
	for _, line := range header {
		if strings.HasPrefix(line, needle) {
			return true
		}
	}
	return false
}

// Write serializes one record according to the verdict and policy.
// Suppressed records are still counted upstream; suppression is purely an
// output decision.
func (w *Writer) Write(rec *vcf.VariantRecord, verdict engine.RecordVerdict) error {
	var filter string
	switch verdict.Status {
	case engine.StatusPass:
		filter = "PASS"
	case engine.StatusReview:
		if !w.policy.KeepReview {
			return nil
		}
		filter = ReviewFilterID
	default:
		if !w.policy.KeepFailed {
			return nil
		}
		filter = strings.Join(verdict.FailingCriteria, ";")
		if filter == "" {
			filter = "FAIL"
		}
	}

	if _, err := fmt.Fprintln(w.w, formatRecordLine(rec, filter)); err != nil {
		return fmt.Errorf("failed to write record %s: %w", rec.Locus(), err)
	}
	w.written++
	return nil
}

// Written returns how many records reached the output
func (w *Writer) Written() int {
	return w.written
}

// Close flushes buffered output and releases the underlying file, if any
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output VCF: %w", err)
	}
	log.Printf("[VCFWriter] %d records written", w.written)
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

// formatRecordLine renders a record with the FILTER column replaced and
// every other column, FORMAT and sample columns included, passed through
// as read
func formatRecordLine(rec *vcf.VariantRecord, filter string) string {
	id := rec.ID
	if id == "" {
		id = "."
	}
	info := rec.InfoText
	if info == "" {
		info = "."
	}
	fields := []string{
		rec.Chrom,
		fmt.Sprintf("%d", rec.Pos),
		id,
		rec.Ref,
		strings.Join(rec.Alt, ","),
		rec.Qual,
		filter,
		info,
	}
	fields = append(fields, rec.Extra...)
	return strings.Join(fields, "\t")
}
