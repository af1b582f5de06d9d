package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/slidesmith/slidesmith/pkg/analysis"
	"github.com/slidesmith/slidesmith/pkg/charts"
	"github.com/slidesmith/slidesmith/pkg/dataset"
	"github.com/slidesmith/slidesmith/pkg/plan"
	"github.com/slidesmith/slidesmith/pkg/texts"
)

func quietLogger() *log.Logger {
	logger := log.New(os.Stderr)
	logger.SetLevel(log.FatalLevel)
	return logger
}

func writeSalesCSV(t *testing.T) string {
	t.Helper()
	rows := []string{"order_date,region,units,revenue"}
	regions := []string{"North", "South", "East", "West"}
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 24; i++ {
		rows = append(rows, fmt.Sprintf("%s,%s,%d,%.2f",
			start.AddDate(0, 0, i*3).Format("2006-01-02"),
			regions[i%len(regions)],
			1+i%5,
			float64(i)*3.7+10,
		))
	}
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(strings.Join(rows, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecuteEndToEnd(t *testing.T) {
	store := plan.NewMemoryStore()
	governor := &plan.Governor{Store: store}
	runner := NewRunner(governor, nil, quietLogger())

	outDir := t.TempDir()
	result, err := runner.Execute(context.Background(), Options{
		InputPath: writeSalesCSV(t),
		Title:     "Q1 Sales",
		Theme:     "corporate",
		OutputDir: outDir,
		UserID:    "u1",
		Tier:      plan.TierFree,
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	info, statErr := os.Stat(result.OutputPath)
	if statErr != nil || info.Size() == 0 {
		t.Fatalf("output document missing or empty: %v", statErr)
	}
	if filepath.Dir(result.OutputPath) != outDir {
		t.Errorf("output dir = %s, want %s", filepath.Dir(result.OutputPath), outDir)
	}
	if !strings.HasPrefix(filepath.Base(result.OutputPath), "q1-sales-") {
		t.Errorf("output name = %s, want q1-sales- prefix", filepath.Base(result.OutputPath))
	}
	if result.SlideCount < 3 {
		t.Errorf("slide count = %d, want at least title, overview, conclusion", result.SlideCount)
	}
	// A free-tier deck is capped at 8 slides.
	if result.SlideCount > plan.FreeMaxSlides {
		t.Errorf("slide count = %d, exceeds the free cap %d", result.SlideCount, plan.FreeMaxSlides)
	}

	usage, _ := store.Read(context.Background(), "u1")
	if usage.ConversionsThisMonth != 1 {
		t.Errorf("usage counter = %d, want 1", usage.ConversionsThisMonth)
	}
}

func TestExecuteExplicitOutputPath(t *testing.T) {
	runner := NewRunner(nil, nil, quietLogger())
	out := filepath.Join(t.TempDir(), "deck.html")

	result, err := runner.Execute(context.Background(), Options{
		InputPath:  writeSalesCSV(t),
		OutputPath: out,
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if result.OutputPath != out {
		t.Errorf("output path = %s, want %s", result.OutputPath, out)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("document not written: %v", err)
	}
}

func TestExecuteLoadFailure(t *testing.T) {
	runner := NewRunner(nil, nil, quietLogger())
	_, err := runner.Execute(context.Background(), Options{
		InputPath: filepath.Join(t.TempDir(), "missing.csv"),
	})
	if !dataset.IsLoadError(err) {
		t.Fatalf("error = %v (%T), want a load error", err, err)
	}
}

func TestExecuteDenialPassesThrough(t *testing.T) {
	store := plan.NewMemoryStore()
	now := time.Now().UTC()
	store.Write(context.Background(), "u1", plan.Usage{
		ConversionsThisMonth: plan.FreeMonthlyLimit,
		LastReset:            time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
	})
	runner := NewRunner(&plan.Governor{Store: store}, nil, quietLogger())

	_, err := runner.Execute(context.Background(), Options{
		InputPath: writeSalesCSV(t),
		UserID:    "u1",
		Tier:      plan.TierFree,
		OutputDir: t.TempDir(),
	})
	if !plan.IsDenial(err) {
		t.Fatalf("error = %v (%T), want a denial", err, err)
	}
	var fe *FatalError
	if errors.As(err, &fe) {
		t.Error("denial was wrapped in a fatal error")
	}
	// A denial consumes nothing.
	usage, _ := store.Read(context.Background(), "u1")
	if usage.ConversionsThisMonth != plan.FreeMonthlyLimit {
		t.Errorf("counter = %d, want unchanged %d", usage.ConversionsThisMonth, plan.FreeMonthlyLimit)
	}
}

func TestExecuteRollsBackOnFailure(t *testing.T) {
	store := plan.NewMemoryStore()
	runner := NewRunner(&plan.Governor{Store: store}, nil, quietLogger())

	// An output path whose parent is a file makes the final write fail
	// after the reservation was taken.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := runner.Execute(context.Background(), Options{
		InputPath:  writeSalesCSV(t),
		UserID:     "u1",
		Tier:       plan.TierFree,
		OutputPath: filepath.Join(blocker, "deck.html"),
	})
	var fe *FatalError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v (%T), want a fatal error", err, err)
	}
	if fe.Stage != StageAssembling {
		t.Errorf("failed stage = %q, want assembling", fe.Stage)
	}

	usage, _ := store.Read(context.Background(), "u1")
	if usage.ConversionsThisMonth != 0 {
		t.Errorf("counter = %d, want 0 after rollback", usage.ConversionsThisMonth)
	}
}

func TestExecuteSkipsQuotaWithoutUser(t *testing.T) {
	store := plan.NewMemoryStore()
	runner := NewRunner(&plan.Governor{Store: store}, nil, quietLogger())

	_, err := runner.Execute(context.Background(), Options{
		InputPath: writeSalesCSV(t),
		OutputDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	usage, _ := store.Read(context.Background(), "")
	if usage.ConversionsThisMonth != 0 {
		t.Error("quota consumed despite empty user id")
	}
}

func TestExecuteForceFallback(t *testing.T) {
	// A primary strategy that always fails must not break the run when
	// ForceFallback strips it anyway.
	composer := &texts.Composer{
		Primary:  failingStrategy{},
		Fallback: texts.FallbackStrategy{},
		Logger:   quietLogger(),
	}
	runner := NewRunner(nil, composer, quietLogger())

	result, err := runner.Execute(context.Background(), Options{
		InputPath:     writeSalesCSV(t),
		OutputDir:     t.TempDir(),
		ForceFallback: true,
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if result.SlideCount == 0 {
		t.Error("empty deck")
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"no input", Options{}, true},
		{"both inputs", Options{InputPath: "x.csv", Dataset: &dataset.Dataset{}}, true},
		{"negative slides", Options{InputPath: "x.csv", RequestedSlides: -1}, true},
		{"minimal valid", Options{InputPath: "x.csv"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if tt.opts.Title != DefaultTitle || tt.opts.Theme != DefaultTheme {
					t.Errorf("defaults not applied: %+v", tt.opts)
				}
				if tt.opts.Tier != plan.TierFree {
					t.Errorf("tier = %q, want free", tt.opts.Tier)
				}
			}
		})
	}
}

func TestTitleSlug(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Q1 Sales", "q1-sales"},
		{"  Revenue / Forecast 2024  ", "revenue-forecast-2024"},
		{"???", "report"},
		{"", "report"},
	}
	for _, tt := range tests {
		if got := titleSlug(tt.in); got != tt.want {
			t.Errorf("titleSlug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// failingStrategy errors on every unit.
type failingStrategy struct{}

func (failingStrategy) ComposeColumn(context.Context, texts.ColumnPayload, texts.Style) (texts.ColumnText, error) {
	return texts.ColumnText{}, errors.New("always fails")
}

func (failingStrategy) ComposeCorrelation(context.Context, analysis.Correlation, texts.Style) (string, error) {
	return "", errors.New("always fails")
}

func (failingStrategy) ComposeIntro(context.Context, texts.DatasetContext, texts.Style) (string, error) {
	return "", errors.New("always fails")
}

func (failingStrategy) ComposeSummary(context.Context, texts.DatasetContext, texts.Style) (string, error) {
	return "", errors.New("always fails")
}

func budgetArtifacts(n int) []charts.Artifact {
	arts := make([]charts.Artifact, n)
	for i := range arts {
		arts[i] = charts.Artifact{
			Column: fmt.Sprintf("col_%d", i),
			Kind:   analysis.ChartHistogram,
			Path:   fmt.Sprintf("col_%d.png", i),
		}
	}
	return arts
}

func TestApplySlideBudget(t *testing.T) {
	diag := &dataset.DiagnosticSummary{Rows: 10, Cols: 3}
	tests := []struct {
		name        string
		arts        int
		maxSlides   int
		diag        *dataset.DiagnosticSummary
		wantKept    int
		wantWarning string
	}{
		// Cap 8 with an overview slide reserves 3, leaving 5 for charts.
		{"cap with overview", 9, 8, diag, 5, "slide limit 8 reached, 4 charts dropped"},
		{"cap without overview", 9, 8, nil, 6, "slide limit 8 reached, 3 charts dropped"},
		{"under budget", 4, 8, diag, 4, ""},
		{"zero cap is uncapped", 40, 0, diag, 40, ""},
	}
	r := NewRunner(nil, nil, quietLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &Result{}
			kept := r.applySlideBudget(budgetArtifacts(tt.arts), plan.Parameters{MaxSlides: tt.maxSlides}, tt.diag, result)
			if len(kept) != tt.wantKept {
				t.Errorf("kept %d charts, want %d", len(kept), tt.wantKept)
			}
			if tt.wantWarning == "" {
				if len(result.Warnings) != 0 {
					t.Errorf("unexpected warnings: %v", result.Warnings)
				}
				return
			}
			if len(result.Warnings) != 1 || result.Warnings[0] != tt.wantWarning {
				t.Errorf("warnings = %v, want [%q]", result.Warnings, tt.wantWarning)
			}
		})
	}
}

func TestColumnPayloadIssueOrder(t *testing.T) {
	ds := &dataset.Dataset{Columns: []dataset.Column{{Name: "notes"}}}
	diag := &dataset.DiagnosticSummary{
		Rows:    10,
		Cols:    1,
		Columns: map[string]dataset.ColumnStats{"notes": {Unique: 8}},
	}
	res := &analysis.Result{
		ColumnTypes: map[string]analysis.SemanticType{"notes": analysis.TypeText},
		Candidates:  map[string][]analysis.ChartKind{"notes": {analysis.ChartBar}},
		Issues: map[analysis.Issue][]string{
			analysis.IssueLongText:    {"notes"},
			analysis.IssueHighMissing: {"notes"},
		},
	}
	arts := []charts.Artifact{{Column: "notes", Kind: analysis.ChartBar, Path: "notes.png"}}

	want := []string{string(analysis.IssueHighMissing), string(analysis.IssueLongText)}
	for i := 0; i < 10; i++ {
		payloads := columnPayloads(ds, diag, res, arts)
		if len(payloads) != 1 {
			t.Fatalf("got %d payloads, want 1", len(payloads))
		}
		got := payloads[0].Issues
		if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
			t.Fatalf("issue order = %v, want %v", got, want)
		}
	}
}
