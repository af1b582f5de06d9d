// Package charts renders the planned visualizations to PNG files.
//
// Rendering is best-effort: each chart is produced in isolation and a
// failure is recorded, never propagated, so one pathological column
// cannot sink the whole deck. Relation heatmaps render in a second pass
// after the per-column charts.
package charts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/slidesmith/slidesmith/pkg/analysis"
	"github.com/slidesmith/slidesmith/pkg/dataset"
)

// Artifact is one successfully rendered chart.
type Artifact struct {
	Column string             `json:"column"`
	Kind   analysis.ChartKind `json:"kind"`
	Path   string             `json:"path"`
}

// Failure records one chart that could not be rendered.
type Failure struct {
	Column string             `json:"column"`
	Kind   analysis.ChartKind `json:"kind"`
	Reason string             `json:"reason"`
}

// Output is the result of a rendering pass.
type Output struct {
	Artifacts []Artifact
	Failures  []Failure
}

// Renderer writes chart PNGs into OutDir.
type Renderer struct {
	OutDir string
	Logger *log.Logger
}

// RenderAll renders every planned (column, kind) pair, walking columns
// in dataset order and kinds in plan priority order, then the relation
// heatmaps. Failed charts are recorded and skipped.
func (r *Renderer) RenderAll(ds *dataset.Dataset, res *analysis.Result) (*Output, error) {
	if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}

	out := &Output{}
	for i := range ds.Columns {
		col := &ds.Columns[i]
		for _, kind := range res.Candidates[col.Name] {
			path := r.chartPath(col.Name, kind)
			if err := renderChart(col, kind, path); err != nil {
				out.fail(col.Name, kind, err, r.Logger)
				continue
			}
			out.Artifacts = append(out.Artifacts, Artifact{Column: col.Name, Kind: kind, Path: path})
		}
	}
	r.renderRelations(ds, res, out)

	if r.Logger != nil {
		r.Logger.Debug("rendering finished",
			"charts", len(out.Artifacts), "failed", len(out.Failures))
	}
	return out, nil
}

// renderRelations draws the correlation matrix and categorical crosstabs
// detected during analysis, with the same per-chart isolation.
func (r *Renderer) renderRelations(ds *dataset.Dataset, res *analysis.Result, out *Output) {
	rel := res.Relations
	if rel == nil {
		return
	}
	if len(rel.Correlations) > 0 {
		path := filepath.Join(r.OutDir, "correlation_heatmap.png")
		if err := renderCorrelationHeatmap(ds, rel.Correlations, path); err != nil {
			out.fail("correlations", analysis.ChartCorrelation, err, r.Logger)
		} else {
			out.Artifacts = append(out.Artifacts, Artifact{
				Column: "correlations", Kind: analysis.ChartCorrelation, Path: path,
			})
		}
	}
	for _, pair := range rel.CategoricalPairs {
		name := pair.Columns[0] + "_x_" + pair.Columns[1]
		path := filepath.Join(r.OutDir, slugify(name)+"_heatmap.png")
		if err := renderCategoricalHeatmap(ds, pair, path); err != nil {
			out.fail(name, analysis.ChartCategoricalMap, err, r.Logger)
			continue
		}
		out.Artifacts = append(out.Artifacts, Artifact{
			Column: name, Kind: analysis.ChartCategoricalMap, Path: path,
		})
	}
}

func (o *Output) fail(column string, kind analysis.ChartKind, err error, logger *log.Logger) {
	o.Failures = append(o.Failures, Failure{Column: column, Kind: kind, Reason: err.Error()})
	if logger != nil {
		logger.Warn("chart skipped", "column", column, "kind", kind, "reason", err)
	}
}

func (r *Renderer) chartPath(column string, kind analysis.ChartKind) string {
	return filepath.Join(r.OutDir, fmt.Sprintf("%s_%s.png", slugify(column), kind))
}

// slugify reduces a column name to a filesystem-safe token.
func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "chart"
	}
	return b.String()
}
