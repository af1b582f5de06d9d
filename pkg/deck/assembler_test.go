package deck

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/slidesmith/slidesmith/pkg/analysis"
	"github.com/slidesmith/slidesmith/pkg/charts"
	"github.com/slidesmith/slidesmith/pkg/dataset"
	"github.com/slidesmith/slidesmith/pkg/texts"
)

func minimalTheme() Theme {
	t, _ := ThemeByName("minimal")
	return t
}

// writeImage drops a tiny non-empty file standing in for a chart PNG.
func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func assemblerInput(t *testing.T, dir string) Input {
	return Input{
		Title: "Sales Report",
		Diagnostic: &dataset.DiagnosticSummary{
			Rows: 100,
			Cols: 2,
			Columns: map[string]dataset.ColumnStats{
				"revenue": {MissingPercent: 12.0},
				"region":  {},
			},
			SourceFormat: "csv",
			Encoding:     "utf-8",
		},
		Charts: []charts.Artifact{
			{Column: "revenue", Kind: analysis.ChartHistogram, Path: writeImage(t, dir, "revenue_histogram.png")},
			{Column: "region", Kind: analysis.ChartBar, Path: writeImage(t, dir, "region_barchart.png")},
		},
		Texts: &texts.Result{
			Intro:   "This report covers a dataset of 100 rows and 2 columns.",
			Summary: "The dataset spans 100 rows across 2 columns.",
			PerColumn: map[string]texts.ColumnText{
				"revenue": {Analysis: "Revenue varies widely.", Insights: "The histogram shows the spread."},
				"region":  {Analysis: "Four regions appear.", Insights: "North dominates."},
			},
		},
	}
}

func TestAssembleSlideOrder(t *testing.T) {
	a := &Assembler{Theme: minimalTheme()}
	d, warnings := a.Assemble(assemblerInput(t, t.TempDir()))

	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	kinds := make([]SlideKind, len(d.Slides))
	for i, s := range d.Slides {
		kinds[i] = s.Kind
	}
	want := []SlideKind{SlideTitle, SlideOverview, SlideChart, SlideChart, SlideConclusion}
	if len(kinds) != len(want) {
		t.Fatalf("slide kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("slide kinds = %v, want %v", kinds, want)
		}
	}
	if d.Slides[2].Title != "revenue" || d.Slides[3].Title != "region" {
		t.Errorf("chart slides = %q, %q, want revenue then region", d.Slides[2].Title, d.Slides[3].Title)
	}
}

func TestAssembleOrderOverride(t *testing.T) {
	in := assemblerInput(t, t.TempDir())
	in.Order = []string{"region"}

	a := &Assembler{Theme: minimalTheme()}
	d, _ := a.Assemble(in)
	// Named columns come first, unnamed keep insertion order after.
	if d.Slides[2].Title != "region" || d.Slides[3].Title != "revenue" {
		t.Errorf("chart slides = %q, %q, want region then revenue", d.Slides[2].Title, d.Slides[3].Title)
	}
}

func TestAssembleMissingImagePlaceholder(t *testing.T) {
	in := assemblerInput(t, t.TempDir())
	in.Charts[0].Path = filepath.Join(t.TempDir(), "never_written.png")

	a := &Assembler{Theme: minimalTheme()}
	d, warnings := a.Assemble(in)

	if len(warnings) != 1 || !strings.Contains(warnings[0], "placeholder") {
		t.Fatalf("warnings = %v, want one placeholder warning", warnings)
	}
	slide := d.Slides[2]
	if !slide.Placeholder || slide.ImagePath != "" {
		t.Errorf("slide = %+v, want a placeholder with no image path", slide)
	}
	// The slide keeps its composed text.
	if len(slide.Body) == 0 {
		t.Error("placeholder slide lost its body text")
	}
}

func TestAssembleWatermark(t *testing.T) {
	in := assemblerInput(t, t.TempDir())
	a := &Assembler{Theme: minimalTheme(), Watermark: true}
	d, _ := a.Assemble(in)

	for i, s := range d.Slides {
		if s.Footer != "Generated with Slidesmith Free" {
			t.Errorf("slide %d footer = %q, want the default watermark", i, s.Footer)
		}
	}

	a.FooterText = "ACME internal"
	d, _ = a.Assemble(assemblerInput(t, t.TempDir()))
	if d.Slides[0].Footer != "ACME internal" {
		t.Errorf("footer = %q, want the configured text", d.Slides[0].Footer)
	}
}

func TestAssembleNoWatermark(t *testing.T) {
	a := &Assembler{Theme: minimalTheme()}
	d, _ := a.Assemble(assemblerInput(t, t.TempDir()))
	for i, s := range d.Slides {
		if s.Footer != "" {
			t.Errorf("slide %d footer = %q, want empty without watermark", i, s.Footer)
		}
	}
}

func TestAssembleConclusionFallsBackToIntro(t *testing.T) {
	in := assemblerInput(t, t.TempDir())
	in.Texts.Summary = "   "

	a := &Assembler{Theme: minimalTheme()}
	d, _ := a.Assemble(in)
	last := d.Slides[len(d.Slides)-1]
	if last.Kind != SlideConclusion {
		t.Fatalf("last slide kind = %q, want conclusion", last.Kind)
	}
	if len(last.Body) == 0 || !strings.Contains(last.Body[0], "This report covers") {
		t.Errorf("conclusion body = %v, want the intro text", last.Body)
	}
}

func TestMergeSegments(t *testing.T) {
	a := "Revenue varies widely. The histogram shows the spread. "
	b := "The histogram shows the spread. Values cluster low. "
	got := mergeSegments(a, b)
	if strings.Count(got, "histogram") != 1 {
		t.Errorf("mergeSegments() = %q, want the repeated sentence once", got)
	}
	if !strings.Contains(got, "Revenue varies widely.") || !strings.Contains(got, "Values cluster low.") {
		t.Errorf("mergeSegments() = %q, lost a sentence", got)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("seven words of filler text again here ", 30)
	got := truncate(long, slideTextLimit)
	if len([]rune(got)) > slideTextLimit+1 {
		t.Errorf("truncate() kept %d runes, want <= %d plus ellipsis", len([]rune(got)), slideTextLimit)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncate() = %q, want ellipsis suffix", got)
	}
	short := "fits easily"
	if truncate(short, slideTextLimit) != short {
		t.Error("truncate() modified text under the limit")
	}
}

func TestThemeByName(t *testing.T) {
	tests := []struct {
		in       string
		wantName string
		known    bool
	}{
		{"corporate", "corporate", true},
		{"MINIMAL", "minimal", true},
		{"dark", "dark", true},
		{"vibrant", "vibrant", true},
		{"neon", "minimal", false},
		{"", "minimal", false},
	}
	for _, tt := range tests {
		got, ok := ThemeByName(tt.in)
		if got.Name != tt.wantName {
			t.Errorf("ThemeByName(%q).Name = %q, want %q", tt.in, got.Name, tt.wantName)
		}
		if ok != tt.known {
			t.Errorf("ThemeByName(%q) known = %v, want %v", tt.in, ok, tt.known)
		}
	}
}
