package engine

import (
	"encoding/json"
	"fmt"
)

// writeReport persists r as <reports>/<run-id>.json and returns the path.
func (e *Engine) writeReport(r *Report) (string, error) {
	path := e.configPaths.ReportPath(r.RunID)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run report: %w", err)
	}
	if err := e.fs.AtomicWrite(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write run report: %w", err)
	}

	return path, nil
}

// LoadReport reads a run report written by a previous run.
func (e *Engine) LoadReport(runID string) (*Report, error) {
	if err := e.fs.ValidateIdentifier(runID); err != nil {
		return nil, fmt.Errorf("invalid run ID: %w", err)
	}

	data, err := e.fs.ReadFile(e.configPaths.ReportPath(runID))
	if err != nil {
		return nil, fmt.Errorf("failed to read run report: %w", err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run report: %w", err)
	}
	return &r, nil
}
