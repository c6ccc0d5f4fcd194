package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"somaticfilter/domain/engine"
)

// SaveRunStatistics persists a completed run's statistics as JSON so a
// later annotate invocation can carry them into its report.
func SaveRunStatistics(path string, stats *engine.RunStatistics) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run statistics: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run statistics: %w", err)
	}
	log.Printf("[FilterService] Run statistics saved: %s", path)
	return nil
}

// LoadRunStatistics reads statistics persisted by a previous filtering run
func LoadRunStatistics(path string) (*engine.RunStatistics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run statistics: %w", err)
	}
	var stats engine.RunStatistics
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to parse run statistics: %w", err)
	}
	return &stats, nil
}
