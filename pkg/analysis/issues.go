package analysis

import (
	"strings"

	"github.com/slidesmith/slidesmith/pkg/dataset"
)

// Issue names a data-quality problem detected across the dataset.
type Issue string

// Known issue kinds. Each maps to the list of offending column names.
const (
	IssueEmptyColumns      Issue = "empty_columns"
	IssueHighMissing       Issue = "high_missing"
	IssueBadFormat         Issue = "bad_format"
	IssueDuplicatedColumns Issue = "duplicated_columns"
	IssueLongText          Issue = "long_text_columns"
)

// IssueKinds lists every issue in detection order, for callers that need
// a stable iteration over the detection map.
var IssueKinds = []Issue{
	IssueEmptyColumns,
	IssueHighMissing,
	IssueBadFormat,
	IssueDuplicatedColumns,
	IssueLongText,
}

// Issue detection thresholds.
const (
	highMissingPercent   = 40.0
	badFormatNumericMin  = 0.90
	badFormatDateMin     = 0.80
	badFormatSpaceMin    = 0.30
	longTextMeanMin      = 80.0
	longTextMaxMin       = 200
)

// DetectIssues scans the dataset for quality problems. Keys are present
// only when at least one column exhibits the issue; values list the
// affected columns in dataset order.
func DetectIssues(ds *dataset.Dataset, types map[string]SemanticType, diag *dataset.DiagnosticSummary) map[Issue][]string {
	issues := make(map[Issue][]string)
	add := func(issue Issue, col string) {
		issues[issue] = append(issues[issue], col)
	}

	for i := range ds.Columns {
		col := &ds.Columns[i]
		nonMissing := col.NonMissing()

		if len(nonMissing) == 0 {
			add(IssueEmptyColumns, col.Name)
			continue
		}
		if stats, ok := diag.Columns[col.Name]; ok && stats.MissingPercent >= highMissingPercent {
			add(IssueHighMissing, col.Name)
		}
		if hasBadFormat(col, nonMissing) {
			add(IssueBadFormat, col.Name)
		}
		if types[col.Name] == TypeText && hasLongText(nonMissing) {
			add(IssueLongText, col.Name)
		}
		if duplicatesEarlier(ds, i) {
			add(IssueDuplicatedColumns, col.Name)
		}
	}
	return issues
}

// hasBadFormat reports whether a textually stored column hides a typed
// payload (mostly numbers or dates) or carries untrimmed whitespace.
func hasBadFormat(col *dataset.Column, nonMissing []dataset.Value) bool {
	if col.Storage() != dataset.KindText {
		return false
	}
	numeric, dates, padded := 0, 0, 0
	for _, v := range nonMissing {
		if _, ok := v.AsNumber(); ok {
			numeric++
		}
		if _, ok := v.AsTime(); ok {
			dates++
		}
		if v.Text != strings.TrimSpace(v.Text) {
			padded++
		}
	}
	n := float64(len(nonMissing))
	return float64(numeric)/n >= badFormatNumericMin ||
		float64(dates)/n >= badFormatDateMin ||
		float64(padded)/n >= badFormatSpaceMin
}

// hasLongText reports whether trimmed value lengths average >= 80 runes
// or peak >= 200 runes.
func hasLongText(nonMissing []dataset.Value) bool {
	total, longest := 0, 0
	for _, v := range nonMissing {
		n := len([]rune(strings.TrimSpace(v.String())))
		total += n
		if n > longest {
			longest = n
		}
	}
	mean := float64(total) / float64(len(nonMissing))
	return mean >= longTextMeanMin || longest >= longTextMaxMin
}

// duplicatesEarlier reports whether column i is value-equal, row by row,
// to any column before it. Only the later column is flagged.
func duplicatesEarlier(ds *dataset.Dataset, i int) bool {
	col := &ds.Columns[i]
	for j := 0; j < i; j++ {
		if columnsEqual(&ds.Columns[j], col) {
			return true
		}
	}
	return false
}

func columnsEqual(a, b *dataset.Column) bool {
	if len(a.Values) != len(b.Values) {
		return false
	}
	for k := range a.Values {
		av, bv := a.Values[k], b.Values[k]
		if av.Missing() != bv.Missing() {
			return false
		}
		if av.Missing() {
			continue
		}
		if av.String() != bv.String() {
			return false
		}
	}
	return true
}
