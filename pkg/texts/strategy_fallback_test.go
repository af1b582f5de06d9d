package texts

import (
	"context"
	"strings"
	"testing"

	"github.com/slidesmith/slidesmith/pkg/analysis"
	"github.com/slidesmith/slidesmith/pkg/dataset"
)

func sentenceCount(s string) int {
	return strings.Count(s, ".")
}

func TestFallbackComposeColumnStyles(t *testing.T) {
	col := ColumnPayload{
		Name:  "revenue",
		Type:  analysis.TypeNumericContinuous,
		Stats: dataset.ColumnStats{Unique: 80, MissingPercent: 12.5},
		ChartKinds: []analysis.ChartKind{
			analysis.ChartHistogram, analysis.ChartBoxplot, analysis.ChartDensity,
		},
	}

	short, err := FallbackStrategy{}.ComposeColumn(context.Background(), col, StyleShort)
	if err != nil {
		t.Fatalf("ComposeColumn(short) error: %v", err)
	}
	if got := sentenceCount(short.Analysis); got > 2 {
		t.Errorf("short analysis has %d sentences, want <= 2: %q", got, short.Analysis)
	}

	exec, err := FallbackStrategy{}.ComposeColumn(context.Background(), col, StyleExecutive)
	if err != nil {
		t.Fatalf("ComposeColumn(executive) error: %v", err)
	}
	if !strings.Contains(exec.Insights, "business decision") {
		t.Errorf("executive insights lack a recommendation: %q", exec.Insights)
	}
	if !strings.Contains(exec.Analysis, "revenue") {
		t.Errorf("analysis does not name the column: %q", exec.Analysis)
	}
}

func TestFallbackComposeColumnAnomalies(t *testing.T) {
	col := ColumnPayload{
		Name:   "notes",
		Type:   analysis.TypeText,
		Stats:  dataset.ColumnStats{Unique: 40},
		Issues: []string{"long_text_columns", "high_missing"},
	}
	text, err := FallbackStrategy{}.ComposeColumn(context.Background(), col, StyleNormal)
	if err != nil {
		t.Fatalf("ComposeColumn() error: %v", err)
	}
	if !strings.Contains(text.Anomalies, "long_text_columns") || !strings.Contains(text.Anomalies, "high_missing") {
		t.Errorf("anomalies = %q, want both issue names", text.Anomalies)
	}

	clean := ColumnPayload{Name: "units", Type: analysis.TypeNumericDiscrete}
	cleanText, _ := FallbackStrategy{}.ComposeColumn(context.Background(), clean, StyleNormal)
	if cleanText.Anomalies != "" {
		t.Errorf("anomalies = %q for a clean column, want empty", cleanText.Anomalies)
	}
}

func TestFallbackComposeCorrelation(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		wants []string
	}{
		{"strong positive", 0.91, []string{"rise together", "a strong"}},
		{"moderate negative", -0.6, []string{"opposite directions", "a moderate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := analysis.Correlation{Columns: [2]string{"units", "revenue"}, Value: tt.value}
			got, err := FallbackStrategy{}.ComposeCorrelation(context.Background(), c, StyleNormal)
			if err != nil {
				t.Fatalf("ComposeCorrelation() error: %v", err)
			}
			for _, w := range tt.wants {
				if !strings.Contains(got, w) {
					t.Errorf("text = %q, want substring %q", got, w)
				}
			}
		})
	}
}

func TestFallbackComposeIntroAndSummary(t *testing.T) {
	dc := DatasetContext{
		Rows: 250,
		Cols: 6,
		ColumnTypes: map[string]analysis.SemanticType{
			"a": analysis.TypeNumericContinuous,
			"b": analysis.TypeNumericContinuous,
			"c": analysis.TypeCategorical,
		},
		Issues: map[analysis.Issue][]string{
			analysis.IssueHighMissing: {"b"},
		},
	}

	intro, err := FallbackStrategy{}.ComposeIntro(context.Background(), dc, StyleNormal)
	if err != nil {
		t.Fatalf("ComposeIntro() error: %v", err)
	}
	if !strings.Contains(intro, "250 rows") || !strings.Contains(intro, "6 columns") {
		t.Errorf("intro = %q, want dataset shape", intro)
	}

	summary, err := FallbackStrategy{}.ComposeSummary(context.Background(), dc, StyleExecutive)
	if err != nil {
		t.Fatalf("ComposeSummary() error: %v", err)
	}
	if !strings.Contains(summary, "high missing") {
		t.Errorf("summary = %q, want the issue named", summary)
	}
	if !strings.Contains(summary, "Prioritize") {
		t.Errorf("executive summary lacks a recommendation: %q", summary)
	}
}

func TestNormalizeStyle(t *testing.T) {
	tests := []struct {
		in   string
		want Style
	}{
		{"short", StyleShort},
		{"light", StyleNormal},
		{"normal", StyleNormal},
		{"executive", StyleExecutive},
		{"EXECUTIVE", StyleExecutive},
		{"unknown", StyleNormal},
		{"", StyleNormal},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
