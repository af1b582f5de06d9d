package analysis

import (
	"reflect"
	"testing"

	"github.com/slidesmith/slidesmith/pkg/dataset"
)

func TestPlanChartsContinuous(t *testing.T) {
	ds := &dataset.Dataset{Columns: []dataset.Column{
		numberColumn("revenue", sequence(40)...),
	}}
	plan := PlanCharts(ds, ClassifyAll(ds))

	want := []ChartKind{ChartHistogram, ChartBoxplot, ChartDensity}
	if !reflect.DeepEqual(plan["revenue"], want) {
		t.Errorf("revenue plan = %v, want %v", plan["revenue"], want)
	}
}

func TestPlanChartsContinuousWithTimeIndex(t *testing.T) {
	ds := &dataset.Dataset{
		IndexName: "date",
		Columns: []dataset.Column{
			textColumn("date", "2024-01-01", "2024-02-01", "2024-03-01", "2024-04-01"),
			numberColumn("revenue", sequence(40)[:4]...),
		},
	}
	types := map[string]SemanticType{
		"date":    TypeDate,
		"revenue": TypeNumericContinuous,
	}
	plan := PlanCharts(ds, types)

	want := []ChartKind{ChartHistogram, ChartBoxplot, ChartDensity, ChartLine}
	if !reflect.DeepEqual(plan["revenue"], want) {
		t.Errorf("revenue plan = %v, want %v", plan["revenue"], want)
	}
	if !reflect.DeepEqual(plan["date"], []ChartKind{ChartLine}) {
		t.Errorf("date plan = %v, want [linechart]", plan["date"])
	}
}

func TestPlanChartsByType(t *testing.T) {
	tests := []struct {
		name string
		typ  SemanticType
		want []ChartKind
	}{
		{"discrete", TypeNumericDiscrete, []ChartKind{ChartBar}},
		{"categorical", TypeCategorical, []ChartKind{ChartBar, ChartTopCategories}},
		{"boolean", TypeBoolean, []ChartKind{ChartBar, ChartTopCategories}},
		{"date", TypeDate, []ChartKind{ChartLine}},
		{"identifier", TypeIdentifier, nil},
		{"constant", TypeConstant, nil},
		{"text", TypeText, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := &dataset.Dataset{Columns: []dataset.Column{textColumn("c", "a", "b")}}
			plan := PlanCharts(ds, map[string]SemanticType{"c": tt.typ})
			if !reflect.DeepEqual(plan["c"], tt.want) {
				t.Errorf("plan = %v, want %v", plan["c"], tt.want)
			}
		})
	}
}
