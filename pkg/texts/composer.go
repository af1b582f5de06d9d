// Package texts composes the narrative copy for each slide.
//
// Two strategies implement the same Strategy interface: an LLM-backed
// one with a strict JSON contract, and a deterministic fallback built
// from the column statistics. Composition is all-or-nothing per run:
// if the primary strategy fails on any unit, every primary result is
// discarded and the whole run is recomposed with the fallback, so a
// deck never mixes voices.
package texts

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/slidesmith/slidesmith/pkg/analysis"
	"github.com/slidesmith/slidesmith/pkg/dataset"
	"github.com/slidesmith/slidesmith/pkg/observability"
)

// ColumnPayload carries everything a strategy may mention about one
// column.
type ColumnPayload struct {
	Name       string
	Type       analysis.SemanticType
	Stats      dataset.ColumnStats
	ChartKinds []analysis.ChartKind
	Issues     []string // issue names affecting this column
	Samples    []string // a few representative values
}

// DatasetContext carries dataset-level facts for the intro and summary.
type DatasetContext struct {
	Title       string
	Rows, Cols  int
	ColumnTypes map[string]analysis.SemanticType
	Issues      map[analysis.Issue][]string
}

// ColumnText is the composed copy for one column slide.
type ColumnText struct {
	Analysis  string `json:"analysis"`
	Insights  string `json:"insights"`
	Anomalies string `json:"anomalies"`
}

// CorrelationText is the composed copy for one correlation.
type CorrelationText struct {
	Columns [2]string
	Text    string
}

// Result is the full set of composed texts for a deck.
type Result struct {
	Intro        string
	Summary      string
	PerColumn    map[string]ColumnText
	Correlations []CorrelationText
}

// Input is one composition run.
type Input struct {
	Dataset      DatasetContext
	Columns      []ColumnPayload
	Correlations []analysis.Correlation
	Style        Style
}

// Strategy produces narrative text for the deck's units. Implementations
// must be safe for sequential reuse across runs.
type Strategy interface {
	ComposeColumn(ctx context.Context, col ColumnPayload, style Style) (ColumnText, error)
	ComposeCorrelation(ctx context.Context, c analysis.Correlation, style Style) (string, error)
	ComposeIntro(ctx context.Context, dc DatasetContext, style Style) (string, error)
	ComposeSummary(ctx context.Context, dc DatasetContext, style Style) (string, error)
}

// Composer runs a primary strategy with a guaranteed fallback.
type Composer struct {
	Primary  Strategy // optional; nil means fallback-only
	Fallback Strategy
	Logger   *log.Logger
}

// Compose generates every text unit for the deck. The second return
// value reports whether the primary strategy produced the result; it is
// false when the primary was absent or failed and the fallback took
// over. Compose itself never fails: the fallback strategy is total.
func (c *Composer) Compose(ctx context.Context, in Input) (*Result, bool) {
	if c.Primary != nil {
		res, err := composeWith(ctx, c.Primary, in)
		if err == nil {
			return res, true
		}
		if c.Logger != nil {
			c.Logger.Warn("primary text strategy failed, recomposing with fallback", "reason", err)
		}
		observability.Composer().OnFallback(ctx, err)
	}
	res, err := composeWith(ctx, c.Fallback, in)
	if err != nil {
		// The fallback is deterministic and should not fail; produce an
		// empty result rather than propagate.
		if c.Logger != nil {
			c.Logger.Error("fallback text strategy failed", "reason", err)
		}
		return &Result{PerColumn: map[string]ColumnText{}}, false
	}
	return res, false
}

// composeWith runs one strategy over every unit, stopping at the first
// error so a partial result never leaks out.
func composeWith(ctx context.Context, s Strategy, in Input) (*Result, error) {
	res := &Result{PerColumn: make(map[string]ColumnText, len(in.Columns))}

	var err error
	if res.Intro, err = s.ComposeIntro(ctx, in.Dataset, in.Style); err != nil {
		return nil, err
	}
	for _, col := range in.Columns {
		text, err := s.ComposeColumn(ctx, col, in.Style)
		if err != nil {
			return nil, err
		}
		res.PerColumn[col.Name] = text
	}
	for _, corr := range in.Correlations {
		text, err := s.ComposeCorrelation(ctx, corr, in.Style)
		if err != nil {
			return nil, err
		}
		res.Correlations = append(res.Correlations, CorrelationText{Columns: corr.Columns, Text: text})
	}
	if res.Summary, err = s.ComposeSummary(ctx, in.Dataset, in.Style); err != nil {
		return nil, err
	}
	return res, nil
}
