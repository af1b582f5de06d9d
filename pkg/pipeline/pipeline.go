// Package pipeline provides the core conversion pipeline for Slidesmith.
//
// This package implements the complete load → analyze → render → govern →
// compose → assemble pipeline used by both the CLI and the HTTP service.
// Centralizing it here keeps behavior identical across entry points.
//
// # Architecture
//
// The pipeline runs six stages:
//
//  1. Loading: parse the CSV/XLSX input into a dataset plus diagnostics
//  2. Analyzing: infer column types, issues, relations and chart plans
//  3. Rendering: produce chart PNGs with per-chart failure isolation
//  4. Governing: filter broken artifacts and enforce the slide budget
//  5. Composing: generate slide copy, falling back when the primary
//     text strategy fails
//  6. Assembling: build the deck and write the output document
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(governor, composer, logger)
//	opts := pipeline.Options{
//	    InputPath: "sales.csv",
//	    Title:     "Q3 sales",
//	    Tier:      plan.TierFree,
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.OutputPath)
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/slidesmith/slidesmith/pkg/dataset"
	"github.com/slidesmith/slidesmith/pkg/plan"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Service
// =============================================================================

const (
	// DefaultTitle is used when the caller supplies no deck title.
	DefaultTitle = "Data report"

	// DefaultTheme is the theme preset applied when none is requested.
	DefaultTheme = "corporate"

	// DefaultOutputDir receives generated documents when no explicit
	// output path is given.
	DefaultOutputDir = "generated"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one conversion run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// InputPath is the CSV/TSV/TXT or XLSX file to convert. Exactly one
	// of InputPath or Dataset must be set.
	InputPath string `json:"input_path,omitempty"`

	// Dataset supplies pre-loaded data, bypassing the loading stage.
	// Diagnostic should accompany it; when nil it is recomputed.
	Dataset    *dataset.Dataset           `json:"-"`
	Diagnostic *dataset.DiagnosticSummary `json:"-"`

	Title string `json:"title,omitempty"`
	Theme string `json:"theme,omitempty"`

	// OutputPath is the exact document destination. When empty a file
	// named from the title, a timestamp and a short ID lands in OutputDir.
	OutputPath string `json:"output_path,omitempty"`
	OutputDir  string `json:"output_dir,omitempty"`

	// UserID and Tier drive usage governance. An empty UserID skips
	// quota enforcement entirely (local CLI runs); tier-derived
	// generation parameters still apply.
	UserID          string    `json:"user_id,omitempty"`
	Tier            plan.Tier `json:"tier,omitempty"`
	RequestedSlides int       `json:"requested_slides,omitempty"`

	// Params overrides the tier-derived generation parameters.
	Params *plan.Parameters `json:"-"`

	// ChartOrder reorders chart slides by column name; unnamed charts
	// keep insertion order after the named ones.
	ChartOrder []string `json:"chart_order,omitempty"`

	// ForceFallback disables the primary text strategy for this run.
	ForceFallback bool `json:"force_fallback,omitempty"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same
// effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.InputPath == "" && o.Dataset == nil {
		return fmt.Errorf("input path or dataset is required")
	}
	if o.InputPath != "" && o.Dataset != nil {
		return fmt.Errorf("input path and dataset are mutually exclusive")
	}
	if o.RequestedSlides < 0 {
		return fmt.Errorf("requested slides must be >= 0, got %d", o.RequestedSlides)
	}
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.Theme == "" {
		o.Theme = DefaultTheme
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if o.Tier == "" {
		o.Tier = plan.TierFree
	}
	o.validated = true
	return nil
}

// =============================================================================
// Result - Pipeline Output
// =============================================================================

// Result contains the outputs of a successful run.
type Result struct {
	// OutputPath is where the generated document was written.
	OutputPath string

	// SlideCount is the number of slides in the final deck.
	SlideCount int

	// Warnings lists every non-fatal degradation encountered.
	Warnings []string

	// Stats contains timing information per stage.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	LoadTime     time.Duration
	AnalyzeTime  time.Duration
	RenderTime   time.Duration
	ComposeTime  time.Duration
	AssembleTime time.Duration
}

// =============================================================================
// Output Naming
// =============================================================================

// outputFileName builds "<slug>-<timestamp>-<shortid>.html" from the
// deck title.
func outputFileName(title string, now time.Time) string {
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%s.html", titleSlug(title), now.Format("20060102T150405"), short)
}

func titleSlug(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}
	slug := b.String()
	if slug == "" {
		return "report"
	}
	if len(slug) > 48 {
		slug = strings.TrimSuffix(slug[:48], "-")
	}
	return slug
}
