// Package analysis infers the statistical role of each dataset column
// and derives everything the later stages need from it: data-quality
// issues, cross-column relations and a per-column chart plan.
//
// All detection is deterministic and read-only over the dataset. The
// thresholds live next to the rule that uses them; none are
// configurable, matching the behavior users see across runs.
package analysis

import "github.com/slidesmith/slidesmith/pkg/dataset"

// Result bundles the full analysis of one dataset.
type Result struct {
	ColumnTypes map[string]SemanticType `json:"column_types"`
	Candidates  map[string][]ChartKind  `json:"chart_candidates"`
	Relations   *Relations              `json:"relations"`
	Issues      map[Issue][]string      `json:"issues"`
}

// Analyze runs classification, issue detection, relation detection and
// chart planning over the dataset in one pass.
func Analyze(ds *dataset.Dataset, diag *dataset.DiagnosticSummary) *Result {
	types := ClassifyAll(ds)
	return &Result{
		ColumnTypes: types,
		Candidates:  PlanCharts(ds, types),
		Relations:   DetectRelations(ds, types),
		Issues:      DetectIssues(ds, types, diag),
	}
}
