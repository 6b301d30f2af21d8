package model

import "fmt"

// ValidationReport collects the outcome of a compliance check. Errors block
// submission, warnings do not. A report with no errors is valid.
type ValidationReport struct {
	Errors   []string
	Warnings []string
}

func (r *ValidationReport) Errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationReport) Warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *ValidationReport) IsValid() bool {
	return len(r.Errors) == 0
}

// Merge appends the other report's findings to this one.
func (r *ValidationReport) Merge(other ValidationReport) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}
