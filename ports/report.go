package ports

import (
	"somaticfilter/domain/annotation"
	"somaticfilter/domain/engine"
)

// ReportWriter renders the annotated results of a run. Formatting is the
// writer's concern; callers hand it rows and the run's statistics.
type ReportWriter interface {
	WriteReport(rows []annotation.AnnotatedVariant, stats *engine.RunStatistics) error
}
