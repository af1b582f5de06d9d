package analysis

import (
	"math"
	"testing"

	"github.com/slidesmith/slidesmith/pkg/dataset"
)

func TestDetectRelationsPerfectCorrelation(t *testing.T) {
	xs := sequence(30)
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 2*x + 1
	}
	ds := &dataset.Dataset{Columns: []dataset.Column{
		numberColumn("x", xs...),
		numberColumn("y", ys...),
	}}
	rel := DetectRelations(ds, ClassifyAll(ds))

	if len(rel.Correlations) != 1 {
		t.Fatalf("correlations = %d, want 1", len(rel.Correlations))
	}
	c := rel.Correlations[0]
	if c.Columns != [2]string{"x", "y"} {
		t.Errorf("columns = %v, want [x y]", c.Columns)
	}
	if c.Value != 1 {
		t.Errorf("value = %v, want 1", c.Value)
	}
}

func TestDetectRelationsBelowThreshold(t *testing.T) {
	// Uncorrelated noise should stay below |r| >= 0.5.
	xs := sequence(40)
	ys := make([]float64, len(xs))
	for i := range ys {
		// Deterministic pseudo-noise, sign-alternating.
		ys[i] = float64((i*7919)%101) * float64(1-2*(i%2))
	}
	ds := &dataset.Dataset{Columns: []dataset.Column{
		numberColumn("x", xs...),
		numberColumn("noise", ys...),
	}}
	rel := DetectRelations(ds, ClassifyAll(ds))
	for _, c := range rel.Correlations {
		if math.Abs(c.Value) < 0.5 {
			t.Errorf("kept correlation below threshold: %+v", c)
		}
	}
}

func TestDetectRelationsPairwiseComplete(t *testing.T) {
	// Only two complete pairs exist: below the minimum of three.
	x := numberColumn("x", 1, 2, 3, 4)
	y := dataset.Column{Name: "y", Values: []dataset.Value{
		{Kind: dataset.KindNumber, Num: 2, Text: "2"},
		{Kind: dataset.KindMissing},
		{Kind: dataset.KindNumber, Num: 6, Text: "6"},
		{Kind: dataset.KindMissing},
	}}
	ds := &dataset.Dataset{Columns: []dataset.Column{x, y}}
	types := map[string]SemanticType{"x": TypeNumericDiscrete, "y": TypeNumericDiscrete}

	rel := DetectRelations(ds, types)
	if len(rel.Correlations) != 0 {
		t.Errorf("correlations = %v, want none with two complete pairs", rel.Correlations)
	}
}

func TestDetectRelationsRounding(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	ys := []float64{2.1, 3.9, 6.2, 7.8, 10.3, 11.7, 14.2, 15.8}
	ds := &dataset.Dataset{Columns: []dataset.Column{
		numberColumn("x", xs...),
		numberColumn("y", ys...),
	}}
	rel := DetectRelations(ds, ClassifyAll(ds))
	if len(rel.Correlations) != 1 {
		t.Fatalf("correlations = %d, want 1", len(rel.Correlations))
	}
	v := rel.Correlations[0].Value
	if v != math.Round(v*1000)/1000 {
		t.Errorf("value %v not rounded to three decimals", v)
	}
}

func TestDetectRelationsCategoricalPairs(t *testing.T) {
	region := textColumn("region", "North", "South", "North", "East", "South", "North", "West", "East", "North", "South")
	flag := textColumn("flag", "yes", "no", "yes", "yes", "no", "no", "yes", "no", "yes", "no")
	ids := textColumn("id", "a1", "b2", "c3", "d4", "e5", "f6", "g7", "h8", "i9", "j10")
	ds := &dataset.Dataset{Columns: []dataset.Column{region, flag, ids}}

	rel := DetectRelations(ds, ClassifyAll(ds))
	if len(rel.CategoricalPairs) != 1 {
		t.Fatalf("categorical pairs = %v, want exactly one", rel.CategoricalPairs)
	}
	if rel.CategoricalPairs[0].Columns != [2]string{"region", "flag"} {
		t.Errorf("pair = %v, want [region flag]", rel.CategoricalPairs[0].Columns)
	}
}
