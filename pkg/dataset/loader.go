package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// LoadError is the structured failure returned by Load. It is the only
// error type the loader produces: unreadable files, unsupported formats
// and empty datasets all surface through it so callers can react without
// inspecting wrapped causes.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

// Error returns the user-facing description of the load failure.
func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying cause, if any.
func (e *LoadError) Unwrap() error { return e.Err }

// IsLoadError reports whether err is (or wraps) a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// Supported file extensions by format.
var (
	csvExtensions   = map[string]bool{".csv": true, ".tsv": true, ".txt": true}
	excelExtensions = map[string]bool{".xlsx": true, ".xls": true}
)

// csvEncodings is the decode order attempted for delimited text files.
var csvEncodings = []string{"utf-8", "latin-1", "cp1252"}

// separatorCandidates are the delimiters considered during sniffing,
// in tie-break priority order.
var separatorCandidates = []rune{',', ';', '\t', '|'}

// missingMarkers are cell contents treated as missing after trimming
// and lowercasing.
var missingMarkers = map[string]bool{
	"": true, "na": true, "n/a": true, "nan": true, "null": true, "none": true,
}

// Load parses a CSV/TSV/TXT or XLSX file into a Dataset plus its
// diagnostic summary. Failures are returned as *LoadError; Load never
// panics on malformed input.
//
// Delimited files are decoded trying utf-8, latin-1 and cp1252 in order,
// with the separator auto-detected from the first lines. Spreadsheets
// use the first sheet only.
func Load(path string) (*Dataset, *DiagnosticSummary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, &LoadError{Path: path, Reason: "file not found", Err: err}
	}
	if info.IsDir() {
		return nil, nil, &LoadError{Path: path, Reason: "path is not a regular file"}
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case csvExtensions[ext]:
		return loadCSV(path)
	case excelExtensions[ext]:
		return loadExcel(path)
	default:
		return nil, nil, &LoadError{Path: path, Reason: "unsupported format, expected CSV or XLSX (first sheet used)"}
	}
}

func loadCSV(path string) (*Dataset, *DiagnosticSummary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &LoadError{Path: path, Reason: "unreadable file", Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil, &LoadError{Path: path, Reason: "file is empty"}
	}

	var attempts []string
	for _, enc := range csvEncodings {
		text, ok := decode(raw, enc)
		if !ok {
			attempts = append(attempts, enc+": invalid byte sequence")
			continue
		}
		ds, err := parseDelimited(text)
		if err != nil {
			attempts = append(attempts, enc+": "+err.Error())
			continue
		}
		diag := Describe(ds)
		diag.SourceFormat = "csv"
		diag.Encoding = enc
		return ds, diag, nil
	}
	return nil, nil, &LoadError{
		Path:   path,
		Reason: "could not read delimited file with supported encodings (" + strings.Join(attempts, "; ") + ")",
	}
}

// decode converts raw bytes to a string using the named encoding.
// latin-1 and cp1252 decode any byte sequence, so they act as fallbacks
// when the content is not valid utf-8.
func decode(raw []byte, encoding string) (string, bool) {
	switch encoding {
	case "utf-8":
		if !utf8.Valid(raw) {
			return "", false
		}
		return string(raw), true
	case "latin-1":
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return "", false
		}
		return string(out), true
	case "cp1252":
		out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return "", false
		}
		return string(out), true
	default:
		return "", false
	}
}

// parseDelimited parses decoded text into a dataset. Rows whose field
// count does not match the header are skipped, mirroring tolerant CSV
// readers, rather than failing the whole file.
func parseDelimited(text string) (*Dataset, error) {
	sep := detectSeparator(text)

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.New("no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}
	names := headerNames(header)

	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name}
	}

	rows := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Bad line: skip it, keep going.
			continue
		}
		if len(record) != len(names) {
			continue
		}
		for i, cell := range record {
			cols[i].Values = append(cols[i].Values, parseCell(cell))
		}
		rows++
	}
	if rows == 0 {
		return nil, errors.New("no usable data rows")
	}

	ds := &Dataset{Columns: cols}
	promoteColumnKinds(ds)
	return ds, nil
}

// detectSeparator counts candidate delimiters over the first lines and
// picks the most frequent one; ties favor the candidate order.
func detectSeparator(text string) rune {
	lines := strings.SplitN(text, "\n", 11)
	if len(lines) > 10 {
		lines = lines[:10]
	}
	best, bestCount := ',', 0
	for _, cand := range separatorCandidates {
		count := 0
		for _, line := range lines {
			count += strings.Count(line, string(cand))
		}
		if count > bestCount {
			best, bestCount = cand, count
		}
	}
	return best
}

// headerNames trims header cells and substitutes positional names for
// blanks or duplicates.
func headerNames(header []string) []string {
	seen := make(map[string]bool, len(header))
	names := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		for seen[name] {
			name += "_"
		}
		seen[name] = true
		names[i] = name
	}
	return names
}

// parseCell classifies a raw cell as missing or text. Typed promotion
// happens per column afterwards, once the full column is known.
func parseCell(cell string) Value {
	if missingMarkers[strings.ToLower(strings.TrimSpace(cell))] {
		return Value{Kind: KindMissing}
	}
	return Value{Kind: KindText, Text: cell}
}

// promoteColumnKinds upgrades whole columns to typed storage when every
// non-missing cell parses cleanly, the way dataframe readers assign a
// numeric or boolean dtype to homogeneous columns. The raw text form is
// preserved on each value.
func promoteColumnKinds(ds *Dataset) {
	for i := range ds.Columns {
		col := &ds.Columns[i]
		allNumber, allBool := true, true
		any := false
		for _, v := range col.Values {
			if v.Missing() {
				continue
			}
			any = true
			if _, ok := v.AsNumber(); !ok {
				allNumber = false
			}
			if !isBoolLiteral(v.Text) {
				allBool = false
			}
			if !allNumber && !allBool {
				break
			}
		}
		if !any {
			continue
		}
		switch {
		case allBool:
			for j, v := range col.Values {
				if v.Missing() {
					continue
				}
				col.Values[j] = Value{Kind: KindBool, Bool: strings.EqualFold(strings.TrimSpace(v.Text), "true"), Text: v.Text}
			}
		case allNumber:
			for j, v := range col.Values {
				if v.Missing() {
					continue
				}
				n, _ := v.AsNumber()
				col.Values[j] = Value{Kind: KindNumber, Num: n, Text: v.Text}
			}
		}
	}
}

func isBoolLiteral(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "false":
		return true
	}
	return false
}

func loadExcel(path string) (*Dataset, *DiagnosticSummary, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, &LoadError{Path: path, Reason: "unreadable workbook", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, &LoadError{Path: path, Reason: "workbook has no sheets"}
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, &LoadError{Path: path, Reason: "could not read sheet " + sheet, Err: err}
	}
	if len(rows) < 2 {
		return nil, nil, &LoadError{Path: path, Reason: "no usable data rows in sheet " + sheet}
	}

	names := headerNames(rows[0])
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name}
	}
	kept := 0
	for _, record := range rows[1:] {
		if allBlank(record) {
			continue
		}
		for i := range cols {
			cell := ""
			if i < len(record) {
				cell = record[i]
			}
			cols[i].Values = append(cols[i].Values, parseCell(cell))
		}
		kept++
	}
	if kept == 0 {
		return nil, nil, &LoadError{Path: path, Reason: "no usable data rows in sheet " + sheet}
	}

	ds := &Dataset{Columns: cols}
	promoteColumnKinds(ds)
	diag := Describe(ds)
	diag.SourceFormat = "xlsx"
	diag.SheetName = sheet
	return ds, diag, nil
}

func allBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
