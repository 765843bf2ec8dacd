package validation

import (
	"fmt"
	"strings"

	"github.com/jcristia/CGA/pkg/apperr"
)

// Level indicates which stage of a run produced the result.
type Level string

const (
	LevelConfig      Level = "config"
	LevelIntegrity   Level = "integrity"
	LevelPresence    Level = "presence"
	LevelInteraction Level = "interaction"
)

// Severity indicates how critical a validation result is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Result is a single diagnostic.
type Result struct {
	Level        Level    `json:"level"`
	Severity     Severity `json:"severity"`
	Message      string   `json:"message"`
	Path         string   `json:"path,omitempty"`
	Layer        string   `json:"layer,omitempty"`
	MPA          string   `json:"mpa,omitempty"`
	ActualValue  any      `json:"actual_value,omitempty"`
	Expected     string   `json:"expected,omitempty"`
	ConflictWith string   `json:"conflict_with,omitempty"`
	Suggestions  []string `json:"suggestions,omitempty"`
}

// Report is the complete diagnostics output of a run.
type Report struct {
	Valid    bool     `json:"valid"`
	Errors   []Result `json:"errors"`
	Warnings []Result `json:"warnings"`
	Info     []Result `json:"info"`
	Summary  string   `json:"summary"`
}

// NewReport creates an empty valid report.
func NewReport() *Report {
	return &Report{
		Valid:    true,
		Errors:   []Result{},
		Warnings: []Result{},
		Info:     []Result{},
		Summary:  "0 errors, 0 warnings, 0 info",
	}
}

// AddError adds an error result and marks the report invalid.
func (r *Report) AddError(result Result) {
	result.Severity = SeverityError
	r.Errors = append(r.Errors, result)
	r.Valid = false
	r.updateSummary()
}

// AddWarning adds a warning result.
func (r *Report) AddWarning(result Result) {
	result.Severity = SeverityWarning
	r.Warnings = append(r.Warnings, result)
	r.updateSummary()
}

// AddInfo adds an informational result.
func (r *Report) AddInfo(result Result) {
	result.Severity = SeverityInfo
	r.Info = append(r.Info, result)
	r.updateSummary()
}

// Merge combines another report into this one. A nil report is ignored.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Info = append(r.Info, other.Info...)
	if !other.Valid {
		r.Valid = false
	}
	r.updateSummary()
}

// FirstError returns the first error result, or nil.
func (r *Report) FirstError() *Result {
	if len(r.Errors) == 0 {
		return nil
	}
	return &r.Errors[0]
}

// Subject names what a result is about: the config key when set, else the
// layer and MPA it concerns.
func (r Result) Subject() string {
	if r.Path != "" {
		return r.Path
	}
	var parts []string
	if r.Layer != "" {
		parts = append(parts, "layer "+r.Layer)
	}
	if r.MPA != "" {
		parts = append(parts, "MPA "+r.MPA)
	}
	return strings.Join(parts, ", ")
}

// Err converts the first error result into a run-aborting error. Config
// results become configuration errors; every other level is a data
// integrity error. Err returns nil while the report is valid.
func (r *Report) Err() error {
	first := r.FirstError()
	if first == nil {
		if r.Valid {
			return nil
		}
		return apperr.Configf("invalid report: %s", r.Summary)
	}
	subject := first.Subject()
	if first.Level == LevelConfig {
		if subject == "" {
			return apperr.Configf("%s", first.Message)
		}
		return apperr.Configf("%s: %s", subject, first.Message)
	}
	return apperr.Integrityf(subject, "%s", first.Message)
}

// Filter returns the results about one layer and/or one MPA as a new
// report. An empty argument matches anything. Validity follows the kept
// errors.
func (r *Report) Filter(layer, mpa string) *Report {
	match := func(res Result) bool {
		return (layer == "" || res.Layer == layer) && (mpa == "" || res.MPA == mpa)
	}
	out := NewReport()
	for _, e := range r.Errors {
		if match(e) {
			out.AddError(e)
		}
	}
	for _, w := range r.Warnings {
		if match(w) {
			out.AddWarning(w)
		}
	}
	for _, i := range r.Info {
		if match(i) {
			out.AddInfo(i)
		}
	}
	return out
}

func (r *Report) updateSummary() {
	r.Summary = fmt.Sprintf("%d errors, %d warnings, %d info",
		len(r.Errors), len(r.Warnings), len(r.Info))
}
