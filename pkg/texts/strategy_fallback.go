package texts

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/slidesmith/slidesmith/pkg/analysis"
)

// FallbackStrategy writes deterministic English from the column
// statistics alone. It never errors and needs no network, making it the
// guaranteed floor under the LLM-backed strategy.
type FallbackStrategy struct{}

var _ Strategy = (*FallbackStrategy)(nil)

// typeIntros opens the analysis text per semantic type.
var typeIntros = map[analysis.SemanticType]string{
	analysis.TypeConstant:          "holds a single constant value",
	analysis.TypeBoolean:           "is a yes/no flag",
	analysis.TypeDate:              "contains dates",
	analysis.TypeIdentifier:        "acts as a unique identifier",
	analysis.TypeNumericDiscrete:   "contains a small set of numeric values",
	analysis.TypeNumericContinuous: "contains continuous numeric measurements",
	analysis.TypeCategorical:       "groups rows into categories",
	analysis.TypeText:              "contains free-form text",
}

// chartGuidance adds one sentence about what the chart shows.
var chartGuidance = map[analysis.ChartKind]string{
	analysis.ChartHistogram:     "The histogram shows how values spread across the range.",
	analysis.ChartBoxplot:       "The box plot highlights the median, quartiles and outliers.",
	analysis.ChartDensity:       "The density curve shows where values concentrate.",
	analysis.ChartBar:           "The bar chart compares how often each value occurs.",
	analysis.ChartTopCategories: "The chart ranks the most frequent values.",
	analysis.ChartLine:          "The line chart tracks how activity evolves over time.",
}

// ComposeColumn builds the per-column copy from diversity and missing
// rate bandings plus chart guidance and any detected issues.
func (FallbackStrategy) ComposeColumn(_ context.Context, col ColumnPayload, style Style) (ColumnText, error) {
	p := presetFor(style)

	var analysisParts []string
	intro := typeIntros[col.Type]
	if intro == "" {
		intro = "contains mixed values"
	}
	analysisParts = append(analysisParts, fmt.Sprintf("Column %q %s.", col.Name, intro))
	analysisParts = append(analysisParts, diversitySentence(col.Stats.Unique))
	analysisParts = append(analysisParts, missingSentence(col.Stats.MissingPercent))

	var insightParts []string
	for _, kind := range col.ChartKinds {
		if g, ok := chartGuidance[kind]; ok {
			insightParts = append(insightParts, g)
		}
	}
	if len(insightParts) == 0 {
		insightParts = append(insightParts, "No chart was planned for this column.")
	}
	if p.Recommendation {
		insightParts = append(insightParts, "Review whether this column should drive a business decision.")
	}

	anomalies := issueSentence(col.Issues)

	return ColumnText{
		Analysis:  joinCapped(analysisParts, p.MaxSentences),
		Insights:  joinCapped(insightParts, p.MaxSentences),
		Anomalies: anomalies,
	}, nil
}

// ComposeCorrelation renders the direction and strength of a relation.
func (FallbackStrategy) ComposeCorrelation(_ context.Context, c analysis.Correlation, style Style) (string, error) {
	direction := "rise together"
	if c.Value < 0 {
		direction = "move in opposite directions"
	}
	strength := "a moderate"
	if math.Abs(c.Value) >= 0.8 {
		strength = "a strong"
	}
	text := fmt.Sprintf("%s and %s %s, with %s correlation of %.3f.",
		c.Columns[0], c.Columns[1], direction, strength, c.Value)
	if presetFor(style).Recommendation {
		text += " Consider whether one of these drives the other before acting on it."
	}
	return text, nil
}

// ComposeIntro summarizes the dataset shape and column-type mix.
func (FallbackStrategy) ComposeIntro(_ context.Context, dc DatasetContext, style Style) (string, error) {
	parts := []string{
		fmt.Sprintf("This report covers a dataset of %d rows and %d columns.", dc.Rows, dc.Cols),
		typeMixSentence(dc.ColumnTypes),
	}
	if n := len(dc.Issues); n > 0 {
		parts = append(parts, fmt.Sprintf("%d data quality %s flagged during analysis.", n, pluralIssue(n)))
	}
	return joinCapped(parts, presetFor(style).MaxSentences), nil
}

// ComposeSummary closes the deck with shape, quality and a tone-matched
// send-off.
func (FallbackStrategy) ComposeSummary(_ context.Context, dc DatasetContext, style Style) (string, error) {
	p := presetFor(style)
	parts := []string{
		fmt.Sprintf("The dataset spans %d rows across %d columns.", dc.Rows, dc.Cols),
	}
	if len(dc.Issues) == 0 {
		parts = append(parts, "No structural data quality issues were detected.")
	} else {
		parts = append(parts, fmt.Sprintf("Attention is needed on %s.", issueList(dc.Issues)))
	}
	if p.Recommendation {
		parts = append(parts, "Prioritize the flagged columns before drawing conclusions from this data.")
	}
	return joinCapped(parts, p.MaxSentences), nil
}

func diversitySentence(unique int) string {
	switch {
	case unique <= 5:
		return fmt.Sprintf("It takes only %d distinct values.", unique)
	case unique <= 20:
		return fmt.Sprintf("It takes %d distinct values, a moderate diversity.", unique)
	default:
		return fmt.Sprintf("It is highly diverse with %d distinct values.", unique)
	}
}

func missingSentence(pct float64) string {
	switch {
	case pct == 0:
		return "No values are missing."
	case pct < 10:
		return fmt.Sprintf("Missing values are rare (%.1f%%).", pct)
	case pct < 30:
		return fmt.Sprintf("A notable share of values is missing (%.1f%%).", pct)
	default:
		return fmt.Sprintf("Most analyses should treat this column with care: %.1f%% of values are missing.", pct)
	}
}

func issueSentence(issues []string) string {
	if len(issues) == 0 {
		return ""
	}
	return "Detected issues: " + strings.Join(issues, ", ") + "."
}

func typeMixSentence(types map[string]analysis.SemanticType) string {
	counts := make(map[analysis.SemanticType]int)
	for _, t := range types {
		counts[t]++
	}
	kinds := make([]string, 0, len(counts))
	for t := range counts {
		kinds = append(kinds, string(t))
	}
	sort.Strings(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%d %s", counts[analysis.SemanticType(k)], strings.ReplaceAll(k, "_", " "))
	}
	return "Columns break down into " + strings.Join(parts, ", ") + "."
}

func issueList(issues map[analysis.Issue][]string) string {
	names := make([]string, 0, len(issues))
	for issue := range issues {
		names = append(names, strings.ReplaceAll(string(issue), "_", " "))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func pluralIssue(n int) string {
	if n == 1 {
		return "issue was"
	}
	return "issues were"
}

// joinCapped joins at most max sentences into a paragraph.
func joinCapped(sentences []string, max int) string {
	kept := sentences[:0:0]
	for _, s := range sentences {
		if s == "" {
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) > max {
		kept = kept[:max]
	}
	return strings.Join(kept, " ")
}
