package validate

import "time"

// Kind classifies a validation finding. Warning kinds never fail a run.
type Kind string

const (
	FormatError         Kind = "FormatError"
	StructuralError     Kind = "StructuralError"
	SequenceError       Kind = "SequenceError"
	CalculationError    Kind = "CalculationError"
	MappingError        Kind = "MappingError"
	CategorizationError Kind = "CategorizationError"
	DataQualityWarning  Kind = "DataQualityWarning"
)

// IsWarning reports whether the kind is advisory only.
func (k Kind) IsWarning() bool {
	return k == DataQualityWarning
}

// Issue is one validation finding.
type Issue struct {
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
	Segment  string `json:"segment,omitempty"`
	Field    string `json:"field,omitempty"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Payer    string `json:"payer,omitempty"`
}

// Report aggregates every finding for one validation run.
type Report struct {
	File            string           `json:"file"`
	Status          string           `json:"status"`
	ErrorCount      int              `json:"error_count"`
	WarningCount    int              `json:"warning_count"`
	RowCount        int              `json:"row_count"`
	ClaimCount      int              `json:"claim_count"`
	ServiceCount    int              `json:"service_count"`
	Issues          []Issue          `json:"issues"`
	ByKind          map[Kind]int     `json:"issues_by_kind"`
	ByPayer         map[string]int   `json:"issues_by_payer"`
	MissingMappings []string         `json:"missing_mappings,omitempty"`
	Coverage        map[string][]string `json:"unmapped_elements,omitempty"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

func (r *Report) add(issue Issue) {
	r.Issues = append(r.Issues, issue)
	if r.ByKind == nil {
		r.ByKind = make(map[Kind]int)
	}
	r.ByKind[issue.Kind]++
	if issue.Payer != "" {
		if r.ByPayer == nil {
			r.ByPayer = make(map[string]int)
		}
		r.ByPayer[issue.Payer]++
	}
	if issue.Kind.IsWarning() {
		r.WarningCount++
	} else {
		r.ErrorCount++
	}
}

func (r *Report) finalize() {
	if r.ErrorCount == 0 {
		r.Status = "PASS"
	} else {
		r.Status = "FAIL"
	}
	r.GeneratedAt = time.Now()
}

// Errors returns only the failing issues.
func (r *Report) Errors() []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if !i.Kind.IsWarning() {
			out = append(out, i)
		}
	}
	return out
}

// Warnings returns only the advisory issues.
func (r *Report) Warnings() []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Kind.IsWarning() {
			out = append(out, i)
		}
	}
	return out
}
