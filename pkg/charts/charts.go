package charts

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/slidesmith/slidesmith/pkg/analysis"
	"github.com/slidesmith/slidesmith/pkg/dataset"
)

// Rendering constants shared by the chart builders.
const (
	histogramBins    = 15
	topCategoryLimit = 20
	horizontalLabel  = 12 // mean label length that flips bars horizontal

	chartWidth  = 6 * vg.Inch
	chartHeight = 4 * vg.Inch
)

// palette is the series color cycle applied across chart kinds.
var chartPalette = []color.RGBA{
	{R: 0x25, G: 0x63, B: 0xEB, A: 0xFF},
	{R: 0x16, G: 0xA3, B: 0x4A, A: 0xFF},
	{R: 0xF9, G: 0x73, B: 0x16, A: 0xFF},
	{R: 0x93, G: 0x33, B: 0xEA, A: 0xFF},
	{R: 0xF4, G: 0x3F, B: 0x5E, A: 0xFF},
}

func paletteColor(i int) color.RGBA { return chartPalette[i%len(chartPalette)] }

// renderChart dispatches one (column, kind) pair to its builder and
// saves the resulting plot as a PNG.
func renderChart(col *dataset.Column, kind analysis.ChartKind, path string) error {
	p := plot.New()
	p.Title.Text = chartTitle(col.Name, kind)

	var err error
	switch kind {
	case analysis.ChartHistogram:
		err = buildHistogram(p, col)
	case analysis.ChartBoxplot:
		err = buildBoxplot(p, col)
	case analysis.ChartDensity:
		err = buildDensity(p, col)
	case analysis.ChartBar, analysis.ChartTopCategories:
		err = buildBars(p, col, kind)
	case analysis.ChartLine:
		err = buildTimeline(p, col)
	default:
		err = fmt.Errorf("no builder for chart kind %q", kind)
	}
	if err != nil {
		return err
	}
	return p.Save(chartWidth, chartHeight, path)
}

func chartTitle(column string, kind analysis.ChartKind) string {
	switch kind {
	case analysis.ChartHistogram:
		return "Distribution of " + column
	case analysis.ChartBoxplot:
		return "Spread of " + column
	case analysis.ChartDensity:
		return "Density of " + column
	case analysis.ChartTopCategories:
		return "Top values of " + column
	case analysis.ChartLine:
		return column + " over time"
	default:
		return column
	}
}

func buildHistogram(p *plot.Plot, col *dataset.Column) error {
	xs := numericValues(col)
	if len(xs) == 0 {
		return errors.New("no numeric values")
	}
	h, err := plotter.NewHist(plotter.Values(xs), histogramBins)
	if err != nil {
		return err
	}
	h.FillColor = paletteColor(0)
	p.Add(h)
	p.X.Label.Text = col.Name
	p.Y.Label.Text = "count"
	return nil
}

func buildBoxplot(p *plot.Plot, col *dataset.Column) error {
	xs := numericValues(col)
	if len(xs) == 0 {
		return errors.New("no numeric values")
	}
	b, err := plotter.NewBoxPlot(vg.Points(40), 0, plotter.Values(xs))
	if err != nil {
		return err
	}
	p.Add(b)
	p.NominalX(col.Name)
	p.Y.Label.Text = col.Name
	return nil
}

// buildDensity draws a gaussian kernel density estimate with Silverman's
// bandwidth, sampled over 200 points across the padded value range.
func buildDensity(p *plot.Plot, col *dataset.Column) error {
	xs := numericValues(col)
	if len(xs) < 2 {
		return errors.New("need at least two numeric values")
	}
	bw := silvermanBandwidth(xs)
	if bw <= 0 {
		return errors.New("zero variance, density undefined")
	}

	min, max := xs[0], xs[0]
	for _, x := range xs[1:] {
		min = math.Min(min, x)
		max = math.Max(max, x)
	}
	pad := 3 * bw
	lo, hi := min-pad, max+pad

	const samples = 200
	pts := make(plotter.XYs, samples)
	step := (hi - lo) / float64(samples-1)
	norm := 1 / (float64(len(xs)) * bw * math.Sqrt(2*math.Pi))
	for i := range pts {
		x := lo + float64(i)*step
		density := 0.0
		for _, xi := range xs {
			z := (x - xi) / bw
			density += math.Exp(-0.5 * z * z)
		}
		pts[i] = plotter.XY{X: x, Y: density * norm}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = paletteColor(3)
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.X.Label.Text = col.Name
	p.Y.Label.Text = "density"
	return nil
}

func silvermanBandwidth(xs []float64) float64 {
	n := float64(len(xs))
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= n
	variance := 0.0
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	variance /= n
	return 1.06 * math.Sqrt(variance) * math.Pow(n, -1.0/5)
}

// buildBars draws frequency bars over the top categories. Bars flip
// horizontal when the mean label length exceeds the threshold, keeping
// long category names readable.
func buildBars(p *plot.Plot, col *dataset.Column, kind analysis.ChartKind) error {
	labels, counts := categoryCounts(col, topCategoryLimit)
	if len(labels) == 0 {
		return errors.New("no values to count")
	}

	bars, err := plotter.NewBarChart(plotter.Values(counts), vg.Points(20))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = 0
	idx := 1
	if kind == analysis.ChartTopCategories {
		idx = 2
	}
	bars.Color = paletteColor(idx)

	if meanLabelLength(labels) > horizontalLabel {
		bars.Horizontal = true
		p.Add(bars)
		p.NominalY(labels...)
		p.X.Label.Text = "count"
	} else {
		p.Add(bars)
		p.NominalX(labels...)
		p.Y.Label.Text = "count"
	}
	return nil
}

func buildTimeline(p *plot.Plot, col *dataset.Column) error {
	points, b, ok := bucketCounts(col)
	if !ok {
		return errors.New("not enough dates for a timeline")
	}

	pts := make(plotter.XYs, len(points))
	ticks := make([]plot.Tick, len(points))
	for i, pt := range points {
		pts[i] = plotter.XY{X: float64(i), Y: float64(pt.Count)}
		ticks[i] = plot.Tick{Value: float64(i), Label: b.label(pt.At)}
	}
	// Thin tick labels to keep the axis readable.
	if len(ticks) > 12 {
		keep := len(ticks) / 12
		for i := range ticks {
			if i%(keep+1) != 0 {
				ticks[i].Label = ""
			}
		}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = paletteColor(0)
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = -1
	p.Y.Label.Text = "count (" + string(b) + ")"
	return nil
}

// numericValues extracts every numeric coercion from the column.
func numericValues(col *dataset.Column) []float64 {
	out := make([]float64, 0, len(col.Values))
	for _, v := range col.Values {
		if f, ok := v.AsNumber(); ok {
			out = append(out, f)
		}
	}
	return out
}

// categoryCounts tallies trimmed display forms and returns the limit
// most frequent, ties broken alphabetically for stable output.
func categoryCounts(col *dataset.Column, limit int) ([]string, []float64) {
	tally := make(map[string]int)
	for _, v := range col.Values {
		if v.Missing() {
			continue
		}
		tally[v.String()]++
	}
	labels := make([]string, 0, len(tally))
	for label := range tally {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if tally[labels[i]] != tally[labels[j]] {
			return tally[labels[i]] > tally[labels[j]]
		}
		return labels[i] < labels[j]
	})
	if len(labels) > limit {
		labels = labels[:limit]
	}
	counts := make([]float64, len(labels))
	for i, label := range labels {
		counts[i] = float64(tally[label])
	}
	return labels, counts
}

func meanLabelLength(labels []string) float64 {
	if len(labels) == 0 {
		return 0
	}
	total := 0
	for _, l := range labels {
		total += len([]rune(l))
	}
	return float64(total) / float64(len(labels))
}
