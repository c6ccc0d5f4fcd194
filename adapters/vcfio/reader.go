package vcfio

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"somaticfilter/domain/vcf"
)

// Reader streams variant records from a line-oriented VCF source. Header
// meta lines are parsed up front so the declared INFO metric schema is
// available before the first record; records themselves are read lazily,
// one pass, in file order.
type Reader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	schema  vcf.Schema
	header  []string
	lineNo  int
}

// Open opens a VCF file and consumes its header
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open VCF file: %w", err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader wraps an already-open VCF stream and consumes its header
func NewReader(src io.Reader) (*Reader, error) {
	r := &Reader{scanner: bufio.NewScanner(src)}
	r.scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	if err := r.readHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

// readHeader consumes every line up to and including the #CHROM column line,
// collecting INFO definitions into the metric schema.
func (r *Reader) readHeader() error {
	var defs []vcf.MetricDef
	for r.scanner.Scan() {
		r.lineNo++
		line := r.scanner.Text()

		if strings.HasPrefix(line, "##") {
			r.header = append(r.header, line)
			if def, ok := parseInfoDefinition(line); ok {
				defs = append(defs, def)
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			// #CHROM column line ends the header
			r.header = append(r.header, line)
			r.schema = vcf.NewSchema(defs...)
			log.Printf("[VCFReader] Header parsed: %d meta lines, %d numeric INFO metrics", len(r.header), r.schema.Len())
			return nil
		}
		return fmt.Errorf("line %d: record before #CHROM header line", r.lineNo)
	}
	if err := r.scanner.Err(); err != nil {
		return fmt.Errorf("failed to read VCF header: %w", err)
	}
	return fmt.Errorf("VCF header missing #CHROM line")
}

// Schema returns the numeric INFO metrics declared by the header
func (r *Reader) Schema() vcf.Schema {
	return r.schema
}

// Header returns the raw header lines for pass-through writing
func (r *Reader) Header() []string {
	out := make([]string, len(r.header))
	copy(out, r.header)
	return out
}

// Next returns the next variant record, or io.EOF at end of stream.
// Blank lines are skipped; a structurally short line is an error carrying
// the line number.
func (r *Reader) Next() (*vcf.VariantRecord, error) {
	for r.scanner.Scan() {
		r.lineNo++
		line := strings.TrimRight(r.scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := parseRecordLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.lineNo, err)
		}
		return rec, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read VCF record: %w", err)
	}
	return nil, io.EOF
}

// Close releases the underlying file, if any
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// parseRecordLine splits one tab-separated data line into a VariantRecord
func parseRecordLine(line string) (*vcf.VariantRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, fmt.Errorf("record has %d fields, want at least 8", len(fields))
	}

	pos, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("invalid POS %q: %w", fields[1], err)
	}

	id := fields[2]
	if id == "." {
		id = ""
	}

	rec := &vcf.VariantRecord{
		Chrom:    fields[0],
		Pos:      pos,
		ID:       id,
		Ref:      fields[3],
		Alt:      strings.Split(fields[4], ","),
		Qual:     fields[5],
		Filter:   fields[6],
		Info:     parseInfoField(fields[7]),
		InfoText: fields[7],
		Extra:    fields[8:],
	}
	return rec, nil
}

// parseInfoField splits "K1=v1;K2;K3=v3" into a raw annotation map.
// Flag-style entries map to an empty string.
func parseInfoField(info string) map[string]string {
	out := make(map[string]string)
	if info == "." || info == "" {
		return out
	}
	for _, item := range strings.Split(info, ";") {
		if item == "" {
			continue
		}
		if key, value, found := strings.Cut(item, "="); found {
			out[key] = value
		} else {
			out[item] = ""
		}
	}
	return out
}

// parseInfoDefinition extracts a numeric metric definition from a
// ##INFO=<ID=...,Number=...,Type=...,Description="..."> header line.
// Number=1 declares scalar cardinality, Number=A per-allele; other
// counts and non-numeric types are not evaluable metrics and are skipped.
func parseInfoDefinition(line string) (vcf.MetricDef, bool) {
	const prefix = "##INFO=<"
	if !strings.HasPrefix(line, prefix) || !strings.HasSuffix(line, ">") {
		return vcf.MetricDef{}, false
	}
	body := strings.TrimSuffix(strings.TrimPrefix(line, prefix), ">")

	attrs := splitInfoAttributes(body)

	var def vcf.MetricDef
	switch attrs["Number"] {
	case "1":
		def.Cardinality = vcf.CardinalityScalar
	case "A":
		def.Cardinality = vcf.CardinalityPerAllele
	default:
		return vcf.MetricDef{}, false
	}
	switch attrs["Type"] {
	case "Integer":
		def.Type = vcf.TypeInteger
	case "Float":
		def.Type = vcf.TypeFloat
	default:
		return vcf.MetricDef{}, false
	}
	def.Name = attrs["ID"]
	if def.Name == "" {
		return vcf.MetricDef{}, false
	}
	def.Description = strings.Trim(attrs["Description"], `"`)
	return def, true
}

// splitInfoAttributes splits a header body on commas outside quoted strings
func splitInfoAttributes(body string) map[string]string {
	attrs := make(map[string]string)
	var current strings.Builder
	inQuotes := false
	flush := func() {
		if part := current.String(); part != "" {
			if key, value, found := strings.Cut(part, "="); found {
				attrs[key] = value
			}
		}
		current.Reset()
	}
	for _, ch := range body {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
			current.WriteRune(ch)
		case ch == ',' && !inQuotes:
			flush()
		default:
			current.WriteRune(ch)
		}
	}
	flush()
	return attrs
}
