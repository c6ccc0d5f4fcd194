package ports

import (
	"somaticfilter/domain/engine"
	"somaticfilter/domain/vcf"
)

// RecordReader provides an ordered, lazy, one-pass stream of variant
// records plus the metric schema declared by the stream's header. The
// stream is finite and not restartable without re-reading the source.
type RecordReader interface {
	// Schema returns the declared numeric metric definitions
	Schema() vcf.Schema

	// Next returns the next record, or io.EOF when the stream is exhausted
	Next() (*vcf.VariantRecord, error)

	Close() error
}

// RecordWriter receives every judged record together with its verdict.
// The writer alone decides serialization and whether review/fail records
// are preserved with a marker or suppressed; the engine never owns that
// policy.
type RecordWriter interface {
	Write(rec *vcf.VariantRecord, verdict engine.RecordVerdict) error
	Close() error
}
