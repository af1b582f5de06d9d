package deck

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/slidesmith/slidesmith/pkg/analysis"
	"github.com/slidesmith/slidesmith/pkg/charts"
	"github.com/slidesmith/slidesmith/pkg/dataset"
	"github.com/slidesmith/slidesmith/pkg/texts"
)

// slideTextLimit caps the characters of body text on one slide so copy
// never overflows the layout.
const slideTextLimit = 650

// Assembler builds a Deck from the pipeline's intermediate products.
type Assembler struct {
	Theme      Theme
	Watermark  bool
	FooterText string // used when Watermark is set
	Logger     *log.Logger
}

// Input carries everything the assembler consumes.
type Input struct {
	Title      string
	Diagnostic *dataset.DiagnosticSummary // nil skips the overview slide
	Charts     []charts.Artifact
	Texts      *texts.Result

	// Order optionally overrides chart slide ordering with a list of
	// column names; charts not named keep their insertion order after
	// the named ones.
	Order []string
}

// Assemble builds the deck: title slide, optional dataset overview, one
// slide per chart, conclusion. Slide-level problems produce warnings and
// degraded slides, never an error.
func (a *Assembler) Assemble(in Input) (*Deck, []string) {
	var warnings []string
	d := &Deck{Title: in.Title, Theme: a.Theme}

	d.Slides = append(d.Slides, Slide{
		Kind:  SlideTitle,
		Title: in.Title,
		Body:  paragraphs(in.Texts.Intro),
	})

	if in.Diagnostic != nil {
		d.Slides = append(d.Slides, a.overviewSlide(in.Diagnostic))
	}

	for _, art := range orderCharts(in.Charts, in.Order) {
		slide, warn := a.chartSlide(art, in.Texts)
		if warn != "" {
			warnings = append(warnings, warn)
		}
		if slide != nil {
			d.Slides = append(d.Slides, *slide)
		}
	}

	conclusion := in.Texts.Summary
	if strings.TrimSpace(conclusion) == "" {
		conclusion = in.Texts.Intro
	}
	d.Slides = append(d.Slides, Slide{
		Kind:  SlideConclusion,
		Title: "Conclusion",
		Body:  paragraphs(conclusion),
	})

	if a.Watermark {
		warnings = append(warnings, a.applyFooter(d)...)
	}
	return d, warnings
}

// overviewSlide summarizes dataset shape and the worst missing rates.
func (a *Assembler) overviewSlide(diag *dataset.DiagnosticSummary) Slide {
	body := []string{
		fmt.Sprintf("%d rows, %d columns.", diag.Rows, diag.Cols),
	}
	worstName, worstPct := "", 0.0
	for name, stats := range diag.Columns {
		if stats.MissingPercent > worstPct {
			worstName, worstPct = name, stats.MissingPercent
		}
	}
	if worstName != "" {
		body = append(body, fmt.Sprintf("Highest missing rate: %s (%.1f%%).", worstName, worstPct))
	}
	if diag.SourceFormat != "" {
		body = append(body, "Source: "+sourceLabel(diag))
	}
	return Slide{Kind: SlideOverview, Title: "Dataset overview", Body: body}
}

// chartSlide builds one chart slide. A missing or empty image file
// yields a placeholder slide and a warning; an unexpected problem drops
// the slide with a warning.
func (a *Assembler) chartSlide(art charts.Artifact, t *texts.Result) (*Slide, string) {
	slide := &Slide{
		Kind:      SlideChart,
		Title:     chartSlideTitle(art),
		ImagePath: art.Path,
		Body:      paragraphs(chartBody(art, t)),
	}
	info, err := os.Stat(art.Path)
	if err != nil || info.Size() == 0 {
		slide.Placeholder = true
		slide.ImagePath = ""
		warn := fmt.Sprintf("chart image for %s (%s) unavailable, using placeholder", art.Column, art.Kind)
		if a.Logger != nil {
			a.Logger.Warn("placeholder slide", "column", art.Column, "kind", art.Kind)
		}
		return slide, warn
	}
	return slide, ""
}

func chartSlideTitle(art charts.Artifact) string {
	switch art.Kind {
	case analysis.ChartCorrelation:
		return "Correlations"
	case analysis.ChartCategoricalMap:
		return strings.ReplaceAll(art.Column, "_x_", " by ")
	default:
		return art.Column
	}
}

// chartBody selects the composed copy for a chart slide: the merged
// analysis and insights for column charts, the correlation text for the
// heatmap.
func chartBody(art charts.Artifact, t *texts.Result) string {
	switch art.Kind {
	case analysis.ChartCorrelation:
		parts := make([]string, 0, len(t.Correlations))
		for _, c := range t.Correlations {
			parts = append(parts, c.Text)
		}
		return truncate(strings.Join(parts, " "), slideTextLimit)
	case analysis.ChartCategoricalMap:
		return ""
	default:
		ct, ok := t.PerColumn[art.Column]
		if !ok {
			return ""
		}
		merged := mergeSegments(ct.Analysis, ct.Insights)
		if ct.Anomalies != "" {
			merged = mergeSegments(merged, ct.Anomalies)
		}
		return truncate(merged, slideTextLimit)
	}
}

// mergeSegments joins two sentence groups with order-preserving
// deduplication, so copy repeated across analysis and insights appears
// once on the slide.
func mergeSegments(a, b string) string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range append(splitSentences(a), splitSentences(b)...) {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(s))
	}
	return strings.Join(out, " ")
}

func splitSentences(s string) []string {
	var out []string
	for _, part := range strings.SplitAfter(s, ". ") {
		if strings.TrimSpace(part) != "" {
			out = append(out, part)
		}
	}
	return out
}

// applyFooter stamps the footer text on every slide as a final pass.
// Per-slide footer failures are isolated, matching slide assembly.
func (a *Assembler) applyFooter(d *Deck) []string {
	var warnings []string
	for i := range d.Slides {
		if err := stampFooter(&d.Slides[i], a.FooterText); err != nil {
			warnings = append(warnings, fmt.Sprintf("footer skipped on slide %d: %v", i+1, err))
		}
	}
	return warnings
}

func stampFooter(s *Slide, text string) error {
	if text == "" {
		text = "Generated with Slidesmith Free"
	}
	s.Footer = text
	return nil
}

// truncate caps text at limit runes, cutting at a word boundary and
// appending an ellipsis.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := string(runes[:limit])
	if i := strings.LastIndex(cut, " "); i > limit/2 {
		cut = cut[:i]
	}
	return cut + "…"
}

func paragraphs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return []string{truncate(s, slideTextLimit)}
}

// orderCharts applies the caller's ordering override: named columns
// first in the given order, everything else in insertion order.
func orderCharts(arts []charts.Artifact, order []string) []charts.Artifact {
	if len(order) == 0 {
		return arts
	}
	rank := make(map[string]int, len(order))
	for i, name := range order {
		rank[name] = i
	}
	out := make([]charts.Artifact, 0, len(arts))
	for _, name := range order {
		for _, art := range arts {
			if art.Column == name {
				out = append(out, art)
			}
		}
	}
	for _, art := range arts {
		if _, named := rank[art.Column]; !named {
			out = append(out, art)
		}
	}
	return out
}

func sourceLabel(diag *dataset.DiagnosticSummary) string {
	switch diag.SourceFormat {
	case "xlsx":
		return fmt.Sprintf("spreadsheet, sheet %q", diag.SheetName)
	case "csv":
		return fmt.Sprintf("delimited text (%s)", diag.Encoding)
	default:
		return diag.SourceFormat
	}
}
