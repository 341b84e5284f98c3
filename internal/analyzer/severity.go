package analyzer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSeverity is returned by ParseSeverity for an unrecognized name.
var ErrUnknownSeverity = errors.New("unknown severity")

// Severity is how likely a statement is to break a retried file.
type Severity int

const (
	// Safe indicates nothing was found.
	Safe Severity = iota
	// Low is informational.
	Low
	// Medium means a retry of the file fails or duplicates work.
	Medium
	// High means a retry fails and the first attempt could not roll back.
	High
)

var severityLabels = [...]string{"SAFE", "LOW", "MEDIUM", "HIGH"} //nolint:gochecknoglobals // lookup table

func (s Severity) String() string {
	if s < Safe || int(s) >= len(severityLabels) {
		return "UNKNOWN"
	}

	return severityLabels[s]
}

// ParseSeverity accepts a label in any case, as used by --fail-on.
func ParseSeverity(name string) (Severity, error) {
	for i, label := range severityLabels {
		if strings.EqualFold(name, label) {
			return Severity(i), nil
		}
	}

	return Safe, fmt.Errorf("%w: %q (want low, medium or high)", ErrUnknownSeverity, name)
}

// MaxSeverity returns the highest severity across results.
func MaxSeverity(results []AnalysisResult) Severity {
	top := Safe

	for i := range results {
		top = max(top, results[i].MaxSeverity)
	}

	return top
}
