package analysis

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/slidesmith/slidesmith/pkg/dataset"
)

// Relation detection thresholds.
const (
	correlationMinPairs = 3
	correlationMinAbs   = 0.5
	categoricalPairMax  = 30
)

// Correlation is a strong linear relation between two numeric columns.
// Columns are ordered by dataset position, Value is rounded to three
// decimals and satisfies |Value| >= 0.5.
type Correlation struct {
	Columns [2]string `json:"columns"`
	Value   float64   `json:"value"`
}

// Pair is an unordered pair of low-cardinality columns eligible for a
// crosstab heatmap.
type Pair struct {
	Columns [2]string `json:"columns"`
}

// Relations holds every detected cross-column relationship.
type Relations struct {
	Correlations     []Correlation `json:"correlations"`
	CategoricalPairs []Pair        `json:"categorical_pairs"`
}

// DetectRelations scans column pairs for strong Pearson correlations and
// for categorical pairings worth a crosstab. Pairs are visited with the
// first column earlier in dataset order, so each unordered pair appears
// at most once.
func DetectRelations(ds *dataset.Dataset, types map[string]SemanticType) *Relations {
	rel := &Relations{}

	numeric := columnsOfType(ds, types, TypeNumericContinuous, TypeNumericDiscrete)
	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			a, b := ds.Column(numeric[i]), ds.Column(numeric[j])
			r, ok := pearson(a, b)
			if !ok || math.Abs(r) < correlationMinAbs {
				continue
			}
			rel.Correlations = append(rel.Correlations, Correlation{
				Columns: [2]string{numeric[i], numeric[j]},
				Value:   math.Round(r*1000) / 1000,
			})
		}
	}

	lowCard := lowCardinalityColumns(ds, types)
	for i := 0; i < len(lowCard); i++ {
		for j := i + 1; j < len(lowCard); j++ {
			rel.CategoricalPairs = append(rel.CategoricalPairs, Pair{
				Columns: [2]string{lowCard[i], lowCard[j]},
			})
		}
	}
	return rel
}

// pearson computes the correlation over pairwise-complete rows. It
// reports false when fewer than three complete pairs exist or the
// coefficient is undefined (zero variance).
func pearson(a, b *dataset.Column) (float64, bool) {
	n := len(a.Values)
	if len(b.Values) < n {
		n = len(b.Values)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for k := 0; k < n; k++ {
		x, okX := a.Values[k].AsNumber()
		y, okY := b.Values[k].AsNumber()
		if !okX || !okY {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) < correlationMinPairs {
		return 0, false
	}
	r, err := stats.Pearson(xs, ys)
	if err != nil || math.IsNaN(r) {
		return 0, false
	}
	return r, true
}

func columnsOfType(ds *dataset.Dataset, types map[string]SemanticType, wanted ...SemanticType) []string {
	var out []string
	for i := range ds.Columns {
		t := types[ds.Columns[i].Name]
		for _, w := range wanted {
			if t == w {
				out = append(out, ds.Columns[i].Name)
				break
			}
		}
	}
	return out
}

// lowCardinalityColumns returns categorical, boolean and discrete numeric
// columns whose distinct count stays within crosstab bounds.
func lowCardinalityColumns(ds *dataset.Dataset, types map[string]SemanticType) []string {
	var out []string
	for i := range ds.Columns {
		col := &ds.Columns[i]
		switch types[col.Name] {
		case TypeCategorical, TypeBoolean, TypeNumericDiscrete:
			if col.DistinctCount() <= categoricalPairMax {
				out = append(out, col.Name)
			}
		}
	}
	return out
}
