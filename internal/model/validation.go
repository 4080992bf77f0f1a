package model

// ValidationStatus classifies a validated candidate, ordered by severity.
type ValidationStatus string

const (
	StatusValid   ValidationStatus = "valid"
	StatusWarning ValidationStatus = "warning"
	StatusInvalid ValidationStatus = "invalid"
)

// Severity returns a numeric severity for ordering: valid < warning < invalid.
func (s ValidationStatus) Severity() int {
	switch s {
	case StatusInvalid:
		return 2
	case StatusWarning:
		return 1
	default:
		return 0
	}
}

// ValidationResult is the validator's verdict for one generated candidate.
// It lives on the ModelResult it describes and is never persisted alone.
type ValidationResult struct {
	Status       ValidationStatus   `json:"status"`
	Valid        bool               `json:"valid"`
	Errors       []string           `json:"errors,omitempty"`
	Warnings     []string           `json:"warnings,omitempty"`
	Suggestions  []string           `json:"suggestions,omitempty"`
	SyntaxChecks map[string]bool    `json:"syntax_checks,omitempty"`
	Performance  map[string]float64 `json:"performance_metrics,omitempty"`
}
