package analysis

import (
	"strings"
	"testing"

	"github.com/slidesmith/slidesmith/pkg/dataset"
)

func analyzeFixture(t *testing.T, ds *dataset.Dataset) map[Issue][]string {
	t.Helper()
	types := ClassifyAll(ds)
	return DetectIssues(ds, types, dataset.Describe(ds))
}

func TestDetectIssuesEmptyAndHighMissing(t *testing.T) {
	ds := &dataset.Dataset{Columns: []dataset.Column{
		textColumn("empty", "", "", "", "", ""),
		textColumn("gappy", "a", "", "b", "", ""),
		textColumn("full", "a", "b", "a", "b", "a"),
	}}
	issues := analyzeFixture(t, ds)

	if got := issues[IssueEmptyColumns]; len(got) != 1 || got[0] != "empty" {
		t.Errorf("empty_columns = %v, want [empty]", got)
	}
	// 3 of 5 missing = 60%, above the 40% threshold.
	if got := issues[IssueHighMissing]; len(got) != 1 || got[0] != "gappy" {
		t.Errorf("high_missing = %v, want [gappy]", got)
	}
	if _, ok := issues[IssueBadFormat]; ok {
		t.Errorf("unexpected bad_format: %v", issues[IssueBadFormat])
	}
}

func TestDetectIssuesBadFormatWhitespace(t *testing.T) {
	// Over 30% of cells carry untrimmed whitespace.
	ds := &dataset.Dataset{Columns: []dataset.Column{
		textColumn("padded", " North", "South ", "East", "West", " North"),
	}}
	issues := analyzeFixture(t, ds)
	if got := issues[IssueBadFormat]; len(got) != 1 || got[0] != "padded" {
		t.Errorf("bad_format = %v, want [padded]", got)
	}
}

func TestDetectIssuesBadFormatIgnoresTypedStorage(t *testing.T) {
	// Numeric storage never counts as bad format, whatever the values.
	ds := &dataset.Dataset{Columns: []dataset.Column{
		numberColumn("n", 1, 2, 3, 4, 5),
	}}
	issues := analyzeFixture(t, ds)
	if _, ok := issues[IssueBadFormat]; ok {
		t.Errorf("unexpected bad_format on numeric storage: %v", issues[IssueBadFormat])
	}
}

func TestDetectIssuesDuplicatedColumns(t *testing.T) {
	a := textColumn("first", "x", "y", "x", "z")
	b := textColumn("second", "x", "y", "x", "z")
	c := textColumn("third", "x", "y", "x", "w")
	ds := &dataset.Dataset{Columns: []dataset.Column{a, b, c}}

	issues := analyzeFixture(t, ds)
	got := issues[IssueDuplicatedColumns]
	// Only the later duplicate is flagged.
	if len(got) != 1 || got[0] != "second" {
		t.Errorf("duplicated_columns = %v, want [second]", got)
	}
}

func TestDetectIssuesLongText(t *testing.T) {
	long := strings.Repeat("a detailed account of the incident ", 8) // > 200 runes
	ds := &dataset.Dataset{Columns: []dataset.Column{
		proseColumn("notes", 40, 50),
	}}
	ds.Columns[0].Values[0] = dataset.Value{Kind: dataset.KindText, Text: long}

	issues := analyzeFixture(t, ds)
	if got := issues[IssueLongText]; len(got) != 1 || got[0] != "notes" {
		t.Errorf("long_text_columns = %v, want [notes]", got)
	}
}

func TestDetectIssuesCleanDataset(t *testing.T) {
	ds := &dataset.Dataset{Columns: []dataset.Column{
		numberColumn("units", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10),
		textColumn("region", "North", "South", "North", "East", "South", "North", "West", "East", "North", "South"),
	}}
	issues := analyzeFixture(t, ds)
	if len(issues) != 0 {
		t.Errorf("expected no issues, got %v", issues)
	}
}
