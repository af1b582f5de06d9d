package texts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/slidesmith/slidesmith/pkg/analysis"
	"github.com/slidesmith/slidesmith/pkg/dataset"
)

// flakyStrategy succeeds until the failAfter-th unit, then errors. A
// negative failAfter never fails.
type flakyStrategy struct {
	failAfter int
	calls     int
}

func (s *flakyStrategy) step() error {
	s.calls++
	if s.failAfter >= 0 && s.calls > s.failAfter {
		return errors.New("upstream unavailable")
	}
	return nil
}

func (s *flakyStrategy) ComposeColumn(context.Context, ColumnPayload, Style) (ColumnText, error) {
	if err := s.step(); err != nil {
		return ColumnText{}, err
	}
	return ColumnText{Analysis: "primary analysis", Insights: "primary insights"}, nil
}

func (s *flakyStrategy) ComposeCorrelation(context.Context, analysis.Correlation, Style) (string, error) {
	if err := s.step(); err != nil {
		return "", err
	}
	return "primary correlation", nil
}

func (s *flakyStrategy) ComposeIntro(context.Context, DatasetContext, Style) (string, error) {
	if err := s.step(); err != nil {
		return "", err
	}
	return "primary intro", nil
}

func (s *flakyStrategy) ComposeSummary(context.Context, DatasetContext, Style) (string, error) {
	if err := s.step(); err != nil {
		return "", err
	}
	return "primary summary", nil
}

func composerInput() Input {
	return Input{
		Dataset: DatasetContext{
			Title: "Sales",
			Rows:  100,
			Cols:  3,
			ColumnTypes: map[string]analysis.SemanticType{
				"revenue": analysis.TypeNumericContinuous,
				"region":  analysis.TypeCategorical,
			},
		},
		Columns: []ColumnPayload{
			{
				Name:       "revenue",
				Type:       analysis.TypeNumericContinuous,
				Stats:      dataset.ColumnStats{Unique: 80},
				ChartKinds: []analysis.ChartKind{analysis.ChartHistogram},
			},
			{
				Name:       "region",
				Type:       analysis.TypeCategorical,
				Stats:      dataset.ColumnStats{Unique: 4},
				ChartKinds: []analysis.ChartKind{analysis.ChartBar},
			},
		},
		Correlations: []analysis.Correlation{
			{Columns: [2]string{"units", "revenue"}, Value: 0.91},
		},
		Style: StyleNormal,
	}
}

func TestComposePrimarySucceeds(t *testing.T) {
	c := &Composer{Primary: &flakyStrategy{failAfter: -1}, Fallback: FallbackStrategy{}}
	res, usedPrimary := c.Compose(context.Background(), composerInput())

	if !usedPrimary {
		t.Fatal("usedPrimary = false, want true")
	}
	if res.Intro != "primary intro" || res.Summary != "primary summary" {
		t.Errorf("intro/summary = %q/%q, want primary texts", res.Intro, res.Summary)
	}
	if len(res.PerColumn) != 2 || len(res.Correlations) != 1 {
		t.Errorf("got %d columns, %d correlations, want 2 and 1", len(res.PerColumn), len(res.Correlations))
	}
}

func TestComposeFallsBackAsAWhole(t *testing.T) {
	// The primary fails on the third unit, after the intro and one
	// column succeeded. Nothing of the primary output may survive.
	c := &Composer{Primary: &flakyStrategy{failAfter: 2}, Fallback: FallbackStrategy{}}
	res, usedPrimary := c.Compose(context.Background(), composerInput())

	if usedPrimary {
		t.Fatal("usedPrimary = true, want false after a primary failure")
	}
	if strings.Contains(res.Intro, "primary") {
		t.Errorf("intro kept primary text: %q", res.Intro)
	}
	for name, text := range res.PerColumn {
		if strings.Contains(text.Analysis, "primary") || strings.Contains(text.Insights, "primary") {
			t.Errorf("column %s kept primary text: %+v", name, text)
		}
		if text.Analysis == "" {
			t.Errorf("column %s has empty fallback analysis", name)
		}
	}
	if len(res.Correlations) != 1 || strings.Contains(res.Correlations[0].Text, "primary") {
		t.Errorf("correlations = %+v, want one fallback text", res.Correlations)
	}
}

func TestComposeWithoutPrimary(t *testing.T) {
	c := &Composer{Fallback: FallbackStrategy{}}
	res, usedPrimary := c.Compose(context.Background(), composerInput())

	if usedPrimary {
		t.Fatal("usedPrimary = true with no primary strategy")
	}
	if res.Intro == "" || res.Summary == "" {
		t.Errorf("fallback produced empty intro or summary: %q / %q", res.Intro, res.Summary)
	}
}
