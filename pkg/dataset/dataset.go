// Package dataset defines the tabular data model consumed by the
// analysis and rendering pipeline.
//
// A Dataset is an ordered collection of named columns, each an ordered
// sequence of scalar values aligned by row. Datasets are immutable once
// loaded: every later stage only reads them.
//
// # Values
//
// Each cell is a Value, a tagged scalar that records both the storage
// kind assigned at load time (number, bool, time, text, or missing) and
// the raw textual form when one exists. Keeping the raw form around lets
// the issue detector spot formatting problems (untrimmed whitespace,
// numbers stored as text) that a plain typed value would hide.
//
// # Diagnostics
//
// Describe computes a one-shot DiagnosticSummary (row/column counts,
// per-column missing rates, a coarse dtype guess) that is treated as
// read-only input by every downstream stage.
package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the storage representation of a Value.
type Kind uint8

// Storage kinds assigned by the loader.
const (
	KindMissing Kind = iota
	KindNumber
	KindBool
	KindTime
	KindText
)

// Value is a single cell. Exactly one of the typed fields is meaningful,
// selected by Kind. Text holds the raw cell content for every kind that
// originated from a textual source.
type Value struct {
	Kind Kind
	Num  float64
	Bool bool
	Time time.Time
	Text string
}

// Missing reports whether the value is a missing marker.
func (v Value) Missing() bool { return v.Kind == KindMissing }

// String returns the display form of the value.
func (v Value) String() string {
	switch v.Kind {
	case KindMissing:
		return ""
	case KindNumber:
		if v.Text != "" {
			return v.Text
		}
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindBool:
		if v.Text != "" {
			return v.Text
		}
		return strconv.FormatBool(v.Bool)
	case KindTime:
		if v.Text != "" {
			return v.Text
		}
		return v.Time.Format("2006-01-02")
	default:
		return v.Text
	}
}

// timeLayouts are the date formats attempted by AsTime, most common first.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"2006-01",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// AsNumber coerces the value to a float64.
// Text values are parsed after trimming; comma decimal separators are
// accepted. Returns false for missing values and unparseable text.
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case KindText:
		s := strings.TrimSpace(v.Text)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// European decimal notation ("3,14").
			if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
				f, err = strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
			}
			if err != nil {
				return 0, false
			}
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsTime coerces the value to a timestamp, trying a fixed set of layouts
// for textual values. Returns false for missing or unparseable values.
func (v Value) AsTime() (time.Time, bool) {
	switch v.Kind {
	case KindTime:
		return v.Time, true
	case KindText:
		s := strings.TrimSpace(v.Text)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// Column is a named, ordered sequence of values.
type Column struct {
	Name   string
	Values []Value
}

// NonMissing returns the values that are not missing markers, in order.
func (c *Column) NonMissing() []Value {
	out := make([]Value, 0, len(c.Values))
	for _, v := range c.Values {
		if !v.Missing() {
			out = append(out, v)
		}
	}
	return out
}

// DistinctStrings returns the set of distinct display forms of the
// non-missing values. Forms are trimmed but case is preserved.
func (c *Column) DistinctStrings() map[string]struct{} {
	set := make(map[string]struct{})
	for _, v := range c.Values {
		if v.Missing() {
			continue
		}
		set[strings.TrimSpace(v.String())] = struct{}{}
	}
	return set
}

// DistinctCount returns the number of distinct non-missing values,
// compared by trimmed display form.
func (c *Column) DistinctCount() int {
	return len(c.DistinctStrings())
}

// Storage returns the dominant storage kind of the column: KindNumber,
// KindBool, or KindTime when every non-missing value has that kind,
// otherwise KindText. An all-missing column reports KindText.
func (c *Column) Storage() Kind {
	kind := Kind(0)
	seen := false
	for _, v := range c.Values {
		if v.Missing() {
			continue
		}
		if !seen {
			kind = v.Kind
			seen = true
			continue
		}
		if v.Kind != kind {
			return KindText
		}
	}
	if !seen || kind == KindText {
		return KindText
	}
	return kind
}

// Dataset is an ordered collection of aligned columns.
type Dataset struct {
	Columns []Column

	// IndexName optionally designates a column acting as the row index.
	// Loaders leave it empty; callers may set it before analysis to
	// enable time-series chart candidates.
	IndexName string
}

// RowCount returns the number of rows (the length of the longest column).
func (d *Dataset) RowCount() int {
	rows := 0
	for i := range d.Columns {
		if n := len(d.Columns[i].Values); n > rows {
			rows = n
		}
	}
	return rows
}

// ColCount returns the number of columns.
func (d *Dataset) ColCount() int { return len(d.Columns) }

// Column returns the column with the given name, or nil.
func (d *Dataset) Column(name string) *Column {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns the column names in dataset order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i := range d.Columns {
		names[i] = d.Columns[i].Name
	}
	return names
}

// ColumnStats summarizes one column inside a DiagnosticSummary.
type ColumnStats struct {
	DType          string  `json:"dtype"`
	Missing        int     `json:"missing"`
	MissingPercent float64 `json:"missing_percent"`
	Unique         int     `json:"unique_values"`
}

// DiagnosticSummary captures dataset shape and per-column statistics.
// It is computed once at load time and read-only afterwards.
type DiagnosticSummary struct {
	Rows    int                    `json:"num_rows"`
	Cols    int                    `json:"num_cols"`
	Columns map[string]ColumnStats `json:"columns"`

	// Source metadata recorded by the loader.
	SourceFormat string `json:"source_format,omitempty"`
	Encoding     string `json:"encoding_used,omitempty"`
	SheetName    string `json:"sheet_name,omitempty"`
}

// Coarse dtype guesses used in diagnostics. These are intentionally
// rougher than semantic classification: they describe storage, not role.
const (
	DTypeNumeric  = "numeric"
	DTypeDate     = "date"
	DTypeCategory = "category"
	DTypeText     = "text"
)

// Describe computes the diagnostic summary for a dataset.
func Describe(d *Dataset) *DiagnosticSummary {
	rows := d.RowCount()
	diag := &DiagnosticSummary{
		Rows:    rows,
		Cols:    d.ColCount(),
		Columns: make(map[string]ColumnStats, d.ColCount()),
	}
	for i := range d.Columns {
		col := &d.Columns[i]
		missing := 0
		for _, v := range col.Values {
			if v.Missing() {
				missing++
			}
		}
		diag.Columns[col.Name] = ColumnStats{
			DType:          guessDType(col),
			Missing:        missing,
			MissingPercent: safePercent(missing, rows),
			Unique:         col.DistinctCount(),
		}
	}
	return diag
}

// guessDType makes a coarse storage-level dtype guess for diagnostics.
func guessDType(col *Column) string {
	nonMissing := col.NonMissing()
	if len(nonMissing) == 0 {
		return DTypeText
	}
	numeric, dates := 0, 0
	for _, v := range nonMissing {
		if _, ok := v.AsNumber(); ok {
			numeric++
		}
		if _, ok := v.AsTime(); ok {
			dates++
		}
	}
	n := float64(len(nonMissing))
	switch {
	case float64(numeric)/n >= 0.9:
		return DTypeNumeric
	case float64(dates)/n >= 0.85:
		return DTypeDate
	}
	distinct := col.DistinctCount()
	if distinct <= 20 || float64(distinct)/n <= 0.05 {
		return DTypeCategory
	}
	return DTypeText
}

func safePercent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}
