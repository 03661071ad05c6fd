// Package completeness decides whether a sample's values satisfy the
// required fields of a project's ACTIVE RDMP version.
package completeness

import (
	"github.com/metafirst/supervisor/internal/domain/rdmp"
	"github.com/metafirst/supervisor/internal/domain/schema"
	"github.com/metafirst/supervisor/internal/failure"
)

// ErrNoActiveSchema indicates there is no ACTIVE version to evaluate against.
var ErrNoActiveSchema = failure.New(failure.NoActiveSchema, "no active rdmp version to evaluate against")

// Status is the three-way outcome of an assessment.
type Status string

const (
	StatusComplete     Status = "complete"
	StatusIncomplete   Status = "incomplete"
	StatusNotEvaluable Status = "not_evaluable"
)

// Result is the derived completeness of one sample.
type Result struct {
	IsComplete    bool     `json:"is_complete"`
	MissingFields []string `json:"missing_fields"`
	TotalRequired int      `json:"total_required"`
	TotalFilled   int      `json:"total_filled"`
	VersionID     string   `json:"rdmp_version_id"`
	VersionInt    int64    `json:"rdmp_version_int"`
}

// Report wraps a Result with its status. Result is nil when the sample
// could not be evaluated.
type Report struct {
	Status Status  `json:"status"`
	Result *Result `json:"result,omitempty"`
	Reason string  `json:"reason,omitempty"`
}

// Evaluate walks the active version's fields in schema order. Only required
// fields count; a value is filled unless it is null or an empty string.
func Evaluate(values map[string]schema.Value, active *rdmp.Version) (Result, error) {
	if active == nil {
		return Result{}, ErrNoActiveSchema
	}

	res := Result{
		MissingFields: []string{},
		VersionID:     active.ID,
		VersionInt:    active.VersionInt,
	}
	for _, def := range active.Fields {
		if !def.Required {
			continue
		}
		res.TotalRequired++
		if v, ok := values[def.Key]; ok && !v.IsEmpty() {
			res.TotalFilled++
			continue
		}
		res.MissingFields = append(res.MissingFields, def.Key)
	}
	res.IsComplete = len(res.MissingFields) == 0
	return res, nil
}

// Assess is Evaluate with the no-schema case folded into the report.
func Assess(values map[string]schema.Value, active *rdmp.Version) Report {
	res, err := Evaluate(values, active)
	if err != nil {
		return Report{Status: StatusNotEvaluable, Reason: err.Error()}
	}
	status := StatusIncomplete
	if res.IsComplete {
		status = StatusComplete
	}
	return Report{Status: status, Result: &res}
}
