package analysis

import (
	"strings"

	"github.com/slidesmith/slidesmith/pkg/dataset"
)

// SemanticType is the inferred statistical role of a column, independent
// of its raw storage representation.
type SemanticType string

// Semantic column types, from most to least specific.
const (
	TypeConstant          SemanticType = "constant"
	TypeBoolean           SemanticType = "boolean"
	TypeDate              SemanticType = "date"
	TypeIdentifier        SemanticType = "identifier"
	TypeNumericDiscrete   SemanticType = "numeric_discrete"
	TypeNumericContinuous SemanticType = "numeric_continuous"
	TypeCategorical       SemanticType = "categorical"
	TypeText              SemanticType = "text"
)

// Classification thresholds.
const (
	dateCoercionRatio     = 0.80
	identifierUniqueRatio = 0.95
	numericCoercionRatio  = 0.90
	numericDiscreteMax    = 20
	categoryMaxUnique     = 30
	categoryMaxRatio      = 0.3
)

// booleanVocabulary is the canonical set of lowercased string forms a
// column may take and still count as boolean.
var booleanVocabulary = map[string]bool{
	"0": true, "1": true, "true": true, "false": true,
	"yes": true, "no": true, "oui": true, "non": true,
}

// Classify assigns a semantic type to a column. It is deterministic,
// pure, and independent of row order: running it twice on the same
// column always yields the same type.
//
// Rules are evaluated in priority order; the first match wins:
// constant, boolean, date, identifier, numeric (discrete/continuous),
// categorical, text.
func Classify(col *dataset.Column) SemanticType {
	nonMissing := col.NonMissing()
	if len(nonMissing) == 0 {
		return TypeConstant
	}
	distinct := col.DistinctCount()
	if distinct <= 1 {
		return TypeConstant
	}

	if isBooleanColumn(col, nonMissing) {
		return TypeBoolean
	}
	if col.Storage() == dataset.KindTime || coercionRatio(nonMissing, timeCoercible) >= dateCoercionRatio {
		return TypeDate
	}

	uniqueRatio := float64(distinct) / float64(len(nonMissing))
	textual := col.Storage() == dataset.KindText
	if uniqueRatio >= identifierUniqueRatio && textual {
		return TypeIdentifier
	}

	if col.Storage() == dataset.KindNumber || coercionRatio(nonMissing, numberCoercible) >= numericCoercionRatio {
		if distinct <= numericDiscreteMax {
			return TypeNumericDiscrete
		}
		return TypeNumericContinuous
	}

	if textual && (distinct <= categoryMaxUnique || uniqueRatio <= categoryMaxRatio) {
		return TypeCategorical
	}
	return TypeText
}

// ClassifyAll classifies every column, keyed by column name.
func ClassifyAll(ds *dataset.Dataset) map[string]SemanticType {
	types := make(map[string]SemanticType, ds.ColCount())
	for i := range ds.Columns {
		types[ds.Columns[i].Name] = Classify(&ds.Columns[i])
	}
	return types
}

// isBooleanColumn reports whether the column stores booleans or whether
// its distinct lowercased string forms fit the boolean vocabulary.
func isBooleanColumn(col *dataset.Column, nonMissing []dataset.Value) bool {
	if col.Storage() == dataset.KindBool {
		return true
	}
	for form := range col.DistinctStrings() {
		if !booleanVocabulary[strings.ToLower(form)] {
			return false
		}
	}
	return len(nonMissing) > 0
}

// coercionRatio returns the fraction of non-missing values accepted by
// the given coercion predicate.
func coercionRatio(values []dataset.Value, coercible func(dataset.Value) bool) float64 {
	if len(values) == 0 {
		return 0
	}
	ok := 0
	for _, v := range values {
		if coercible(v) {
			ok++
		}
	}
	return float64(ok) / float64(len(values))
}

func numberCoercible(v dataset.Value) bool {
	_, ok := v.AsNumber()
	return ok
}

func timeCoercible(v dataset.Value) bool {
	_, ok := v.AsTime()
	return ok
}
