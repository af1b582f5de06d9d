package charts

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"

	"github.com/slidesmith/slidesmith/pkg/analysis"
	"github.com/slidesmith/slidesmith/pkg/dataset"
)

// heatmapMaxDim bounds either axis of a rendered matrix; larger ones are
// skipped rather than rendered unreadably.
const heatmapMaxDim = 30

// grid adapts a dense row-major matrix to plotter.GridXYZ.
type grid struct {
	rows, cols int
	data       []float64
}

func (g grid) Dims() (int, int)   { return g.cols, g.rows }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }
func (g grid) Z(c, r int) float64 { return g.data[r*g.cols+c] }

// renderCorrelationHeatmap draws the pairwise Pearson matrix over the
// columns named by the detected correlations.
func renderCorrelationHeatmap(ds *dataset.Dataset, correlations []analysis.Correlation, path string) error {
	names := correlatedColumns(ds, correlations)
	if len(names) < 2 {
		return errors.New("fewer than two correlated columns")
	}
	if len(names) > heatmapMaxDim {
		return fmt.Errorf("matrix dimension %d exceeds %d", len(names), heatmapMaxDim)
	}

	n := len(names)
	g := grid{rows: n, cols: n, data: make([]float64, n*n)}
	lookup := make(map[[2]string]float64, len(correlations))
	for _, c := range correlations {
		lookup[c.Columns] = c.Value
		lookup[[2]string{c.Columns[1], c.Columns[0]}] = c.Value
	}
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			switch {
			case r == c:
				g.data[r*n+c] = 1
			default:
				g.data[r*n+c] = lookup[[2]string{names[r], names[c]}]
			}
		}
	}

	p := plot.New()
	p.Title.Text = "Correlations"
	hm := plotter.NewHeatMap(g, palette.Heat(12, 1))
	hm.Min, hm.Max = -1, 1
	p.Add(hm)
	applyMatrixTicks(p, names, names)
	return p.Save(chartWidth, chartHeight, path)
}

// renderCategoricalHeatmap draws the crosstab count matrix of two
// low-cardinality columns.
func renderCategoricalHeatmap(ds *dataset.Dataset, pair analysis.Pair, path string) error {
	a, b := ds.Column(pair.Columns[0]), ds.Column(pair.Columns[1])
	if a == nil || b == nil {
		return errors.New("pair references unknown column")
	}

	rowLabels, _ := categoryCounts(a, heatmapMaxDim+1)
	colLabels, _ := categoryCounts(b, heatmapMaxDim+1)
	if len(rowLabels) > heatmapMaxDim || len(colLabels) > heatmapMaxDim {
		return fmt.Errorf("crosstab dimension exceeds %d", heatmapMaxDim)
	}
	if len(rowLabels) == 0 || len(colLabels) == 0 {
		return errors.New("no values to cross-tabulate")
	}

	rowIdx := indexOf(rowLabels)
	colIdx := indexOf(colLabels)
	g := grid{rows: len(rowLabels), cols: len(colLabels), data: make([]float64, len(rowLabels)*len(colLabels))}
	n := len(a.Values)
	if len(b.Values) < n {
		n = len(b.Values)
	}
	for k := 0; k < n; k++ {
		av, bv := a.Values[k], b.Values[k]
		if av.Missing() || bv.Missing() {
			continue
		}
		r, okR := rowIdx[av.String()]
		c, okC := colIdx[bv.String()]
		if okR && okC {
			g.data[r*g.cols+c]++
		}
	}

	p := plot.New()
	p.Title.Text = pair.Columns[0] + " by " + pair.Columns[1]
	p.Add(plotter.NewHeatMap(g, palette.Heat(12, 1)))
	applyMatrixTicks(p, colLabels, rowLabels)
	p.X.Label.Text = pair.Columns[1]
	p.Y.Label.Text = pair.Columns[0]
	return p.Save(chartWidth, chartHeight, path)
}

func applyMatrixTicks(p *plot.Plot, xLabels, yLabels []string) {
	xt := make([]plot.Tick, len(xLabels))
	for i, l := range xLabels {
		xt[i] = plot.Tick{Value: float64(i), Label: l}
	}
	yt := make([]plot.Tick, len(yLabels))
	for i, l := range yLabels {
		yt[i] = plot.Tick{Value: float64(i), Label: l}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xt)
	p.Y.Tick.Marker = plot.ConstantTicks(yt)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = -1
}

// correlatedColumns lists, in dataset order, every column named by at
// least one correlation.
func correlatedColumns(ds *dataset.Dataset, correlations []analysis.Correlation) []string {
	seen := make(map[string]bool)
	for _, c := range correlations {
		seen[c.Columns[0]] = true
		seen[c.Columns[1]] = true
	}
	var names []string
	for i := range ds.Columns {
		if seen[ds.Columns[i].Name] {
			names = append(names, ds.Columns[i].Name)
		}
	}
	return names
}

func indexOf(labels []string) map[string]int {
	idx := make(map[string]int, len(labels))
	for i, l := range labels {
		idx[l] = i
	}
	return idx
}
