package analysis

import "github.com/slidesmith/slidesmith/pkg/dataset"

// ChartKind names a renderable chart form.
type ChartKind string

// Chart kinds, ordered here roughly by how often they appear in plans.
const (
	ChartHistogram      ChartKind = "histogram"
	ChartBoxplot        ChartKind = "boxplot"
	ChartDensity        ChartKind = "density"
	ChartBar            ChartKind = "barchart"
	ChartTopCategories  ChartKind = "top_categories"
	ChartLine           ChartKind = "linechart"
	ChartCorrelation    ChartKind = "correlation_heatmap"
	ChartCategoricalMap ChartKind = "categorical_heatmap"
)

// PlanCharts proposes chart kinds per column, in rendering priority
// order. Identifier, constant and free-text columns get no charts.
// Continuous numeric columns additionally get a line chart when the
// dataset carries a time-like index.
func PlanCharts(ds *dataset.Dataset, types map[string]SemanticType) map[string][]ChartKind {
	timeIndexed := hasTimeIndex(ds)
	plan := make(map[string][]ChartKind, len(types))
	for i := range ds.Columns {
		name := ds.Columns[i].Name
		switch types[name] {
		case TypeNumericContinuous:
			kinds := []ChartKind{ChartHistogram, ChartBoxplot, ChartDensity}
			if timeIndexed {
				kinds = append(kinds, ChartLine)
			}
			plan[name] = kinds
		case TypeNumericDiscrete:
			plan[name] = []ChartKind{ChartBar}
		case TypeCategorical, TypeBoolean:
			plan[name] = []ChartKind{ChartBar, ChartTopCategories}
		case TypeDate:
			plan[name] = []ChartKind{ChartLine}
		}
	}
	return plan
}

// hasTimeIndex reports whether the dataset designates an index column
// whose values are mostly date-coercible.
func hasTimeIndex(ds *dataset.Dataset) bool {
	if ds.IndexName == "" {
		return false
	}
	col := ds.Column(ds.IndexName)
	if col == nil {
		return false
	}
	nonMissing := col.NonMissing()
	if len(nonMissing) == 0 {
		return false
	}
	return col.Storage() == dataset.KindTime ||
		coercionRatio(nonMissing, timeCoercible) >= dateCoercionRatio
}
