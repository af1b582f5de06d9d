package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/slidesmith/slidesmith/pkg/analysis"
	"github.com/slidesmith/slidesmith/pkg/charts"
	"github.com/slidesmith/slidesmith/pkg/dataset"
	"github.com/slidesmith/slidesmith/pkg/deck"
	"github.com/slidesmith/slidesmith/pkg/observability"
	"github.com/slidesmith/slidesmith/pkg/plan"
	"github.com/slidesmith/slidesmith/pkg/texts"
)

// reservedSlides is the slide-budget headroom kept for the title and
// conclusion slides; the overview slide adds one more when present.
const reservedSlides = 2

// Runner executes the conversion pipeline.
//
// The Runner is stateless except for its collaborators - it stores no
// run results. Multiple goroutines can safely share one Runner with
// different options.
type Runner struct {
	// Governor enforces usage quotas. Nil disables quota checks
	// entirely (local CLI runs); tier parameters still apply.
	Governor *plan.Governor

	// Composer generates slide copy. Its fallback strategy guarantees
	// the composing stage cannot fail.
	Composer *texts.Composer

	Logger *log.Logger
}

// NewRunner creates a runner. A nil composer gets the deterministic
// fallback only; a nil logger gets the package default.
func NewRunner(governor *plan.Governor, composer *texts.Composer, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	if composer == nil {
		composer = &texts.Composer{Fallback: texts.FallbackStrategy{}, Logger: logger}
	}
	return &Runner{Governor: governor, Composer: composer, Logger: logger}
}

// Execute runs the complete pipeline. On success it returns the output
// document path plus accumulated warnings. On failure it returns
// exactly one error - a *dataset.LoadError, a *plan.DenialError, or a
// *FatalError - and rolls back any usage reservation.
func (r *Runner) Execute(ctx context.Context, opts Options) (result *Result, err error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, &FatalError{Stage: StageLoading, Err: err}
	}
	result = &Result{}
	runStart := time.Now()
	defer func() {
		slides, warns := 0, 0
		if result != nil {
			slides, warns = result.SlideCount, len(result.Warnings)
		}
		observability.Pipeline().OnRunComplete(ctx, slides, warns, time.Since(runStart), err)
	}()

	// Stage 1: Loading
	loadStart := time.Now()
	observability.Pipeline().OnStageStart(ctx, string(StageLoading))
	ds, diag, err := r.load(opts)
	observability.Pipeline().OnStageComplete(ctx, string(StageLoading), time.Since(loadStart), err)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = time.Since(loadStart)
	r.Logger.Info("loaded dataset",
		"rows", diag.Rows,
		"cols", diag.Cols,
		"duration", result.Stats.LoadTime)

	// Quota reservation needs the row count, so it happens right after
	// loading. Any later failure rolls the reservation back.
	var reservation *plan.Reservation
	if r.Governor != nil && opts.UserID != "" {
		reservation, err = r.Governor.CheckAndReserve(ctx, opts.UserID, opts.Tier, diag.Rows, opts.RequestedSlides)
		if err != nil {
			if plan.IsDenial(err) {
				return nil, err
			}
			return nil, &FatalError{Stage: StageGoverning, Err: err}
		}
		defer func() {
			if err == nil || reservation == nil {
				return
			}
			if rbErr := r.Governor.Rollback(context.WithoutCancel(ctx), reservation); rbErr != nil {
				r.Logger.Error("usage rollback failed", "user", opts.UserID, "reason", rbErr)
			}
		}()
	}

	params := r.parameters(opts)

	// Workspace for intermediate chart files. Cleanup is unconditional:
	// only the final document survives, outside the workspace.
	workspace, err := os.MkdirTemp("", "slidesmith-"+uuid.NewString()[:8]+"-")
	if err != nil {
		return nil, &FatalError{Stage: StageRendering, Err: fmt.Errorf("create workspace: %w", err)}
	}
	defer os.RemoveAll(workspace)

	// Stage 2: Analyzing
	analyzeStart := time.Now()
	res := analysis.Analyze(ds, diag)
	result.Stats.AnalyzeTime = time.Since(analyzeStart)
	r.Logger.Info("analyzed dataset",
		"charts_planned", plannedCount(res),
		"correlations", len(res.Relations.Correlations),
		"issues", len(res.Issues),
		"duration", result.Stats.AnalyzeTime)

	// Stage 3: Rendering
	renderStart := time.Now()
	observability.Pipeline().OnStageStart(ctx, string(StageRendering))
	renderer := &charts.Renderer{OutDir: filepath.Join(workspace, "charts"), Logger: r.Logger}
	rendered, err := renderer.RenderAll(ds, res)
	observability.Pipeline().OnStageComplete(ctx, string(StageRendering), time.Since(renderStart), err)
	if err != nil {
		return nil, &FatalError{Stage: StageRendering, Err: err}
	}
	for _, f := range rendered.Failures {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("chart skipped for %s (%s): %s", f.Column, f.Kind, f.Reason))
	}
	result.Stats.RenderTime = time.Since(renderStart)
	r.Logger.Info("rendered charts",
		"ok", len(rendered.Artifacts),
		"failed", len(rendered.Failures),
		"duration", result.Stats.RenderTime)

	// Stage 4: Governing - artifact filtering and the slide budget.
	artifacts := r.filterArtifacts(rendered.Artifacts, result)
	if len(artifacts) == 0 {
		result.Warnings = append(result.Warnings, "no charts could be rendered; the deck will contain text slides only")
	}
	artifacts = r.applySlideBudget(artifacts, params, diag, result)

	// Stage 5: Composing
	composeStart := time.Now()
	observability.Pipeline().OnStageStart(ctx, string(StageComposing))
	textResult := r.compose(ctx, opts, params, ds, diag, res, artifacts)
	result.Stats.ComposeTime = time.Since(composeStart)
	observability.Pipeline().OnStageComplete(ctx, string(StageComposing), result.Stats.ComposeTime, nil)
	r.Logger.Info("composed texts",
		"columns", len(textResult.PerColumn),
		"duration", result.Stats.ComposeTime)

	// Stage 6: Assembling
	assembleStart := time.Now()
	theme, known := deck.ThemeByName(opts.Theme)
	if !known {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("unknown theme %q, using %q", opts.Theme, theme.Name))
	}
	assembler := &deck.Assembler{Theme: theme, Watermark: params.Watermark, Logger: r.Logger}
	d, warnings := assembler.Assemble(deck.Input{
		Title:      opts.Title,
		Diagnostic: diag,
		Charts:     artifacts,
		Texts:      textResult,
		Order:      opts.ChartOrder,
	})
	result.Warnings = append(result.Warnings, warnings...)
	if d.SlideCount() == 0 {
		return nil, &FatalError{Stage: StageAssembling, Err: fmt.Errorf("no slides could be produced")}
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = filepath.Join(opts.OutputDir, outputFileName(opts.Title, time.Now()))
	}
	if err := deck.WriteHTML(d, outputPath); err != nil {
		return nil, &FatalError{Stage: StageAssembling, Err: err}
	}
	result.Stats.AssembleTime = time.Since(assembleStart)

	result.OutputPath = outputPath
	result.SlideCount = d.SlideCount()
	r.Logger.Info("wrote document",
		"path", outputPath,
		"slides", result.SlideCount,
		"warnings", len(result.Warnings),
		"duration", result.Stats.AssembleTime)
	return result, nil
}

// load resolves the dataset from the input path or the pre-loaded data.
func (r *Runner) load(opts Options) (*dataset.Dataset, *dataset.DiagnosticSummary, error) {
	if opts.InputPath != "" {
		return dataset.Load(opts.InputPath)
	}
	diag := opts.Diagnostic
	if diag == nil {
		diag = dataset.Describe(opts.Dataset)
	}
	return opts.Dataset, diag, nil
}

// parameters resolves the generation parameters: explicit override
// first, tier derivation otherwise.
func (r *Runner) parameters(opts Options) plan.Parameters {
	if opts.Params != nil {
		return *opts.Params
	}
	return plan.Derive(opts.Tier)
}

// filterArtifacts drops artifacts whose image file vanished or is empty,
// with a warning per dropped chart.
func (r *Runner) filterArtifacts(arts []charts.Artifact, result *Result) []charts.Artifact {
	kept := arts[:0:0]
	for _, art := range arts {
		info, err := os.Stat(art.Path)
		if err != nil || info.Size() == 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("chart file for %s (%s) missing, dropped", art.Column, art.Kind))
			continue
		}
		kept = append(kept, art)
	}
	return kept
}

// applySlideBudget truncates the chart list so the deck fits the plan's
// slide cap, keeping headroom for the title, conclusion and overview
// slides. A zero cap means uncapped.
func (r *Runner) applySlideBudget(arts []charts.Artifact, params plan.Parameters, diag *dataset.DiagnosticSummary, result *Result) []charts.Artifact {
	if params.MaxSlides <= 0 {
		return arts
	}
	reserved := reservedSlides
	if diag != nil {
		reserved++
	}
	budget := params.MaxSlides - reserved
	if budget < 0 {
		budget = 0
	}
	if len(arts) <= budget {
		return arts
	}
	dropped := len(arts) - budget
	result.Warnings = append(result.Warnings,
		fmt.Sprintf("slide limit %d reached, %d charts dropped", params.MaxSlides, dropped))
	return arts[:budget]
}

// compose runs the text composer over the surviving charts' columns.
func (r *Runner) compose(ctx context.Context, opts Options, params plan.Parameters, ds *dataset.Dataset, diag *dataset.DiagnosticSummary, res *analysis.Result, artifacts []charts.Artifact) *texts.Result {
	composer := r.Composer
	if opts.ForceFallback && composer.Primary != nil {
		composer = &texts.Composer{Fallback: composer.Fallback, Logger: composer.Logger}
	}

	in := texts.Input{
		Dataset: texts.DatasetContext{
			Title:       opts.Title,
			Rows:        diag.Rows,
			Cols:        diag.Cols,
			ColumnTypes: res.ColumnTypes,
			Issues:      res.Issues,
		},
		Columns:      columnPayloads(ds, diag, res, artifacts),
		Correlations: res.Relations.Correlations,
		Style:        texts.Normalize(params.TextStyle),
	}
	out, usedPrimary := composer.Compose(ctx, in)
	r.Logger.Debug("text composition finished", "primary", usedPrimary)
	return out
}

// columnPayloads builds composer inputs for every column that still has
// a chart in the deck, in dataset order.
func columnPayloads(ds *dataset.Dataset, diag *dataset.DiagnosticSummary, res *analysis.Result, artifacts []charts.Artifact) []texts.ColumnPayload {
	withCharts := make(map[string]bool, len(artifacts))
	for _, art := range artifacts {
		withCharts[art.Column] = true
	}
	// Fixed iteration order keeps the composed issue sentences stable
	// across runs.
	issuesByColumn := make(map[string][]string)
	for _, issue := range analysis.IssueKinds {
		for _, col := range res.Issues[issue] {
			issuesByColumn[col] = append(issuesByColumn[col], string(issue))
		}
	}

	var payloads []texts.ColumnPayload
	for i := range ds.Columns {
		col := &ds.Columns[i]
		if !withCharts[col.Name] {
			continue
		}
		payloads = append(payloads, texts.ColumnPayload{
			Name:       col.Name,
			Type:       res.ColumnTypes[col.Name],
			Stats:      diag.Columns[col.Name],
			ChartKinds: res.Candidates[col.Name],
			Issues:     issuesByColumn[col.Name],
			Samples:    sampleValues(col, 3),
		})
	}
	return payloads
}

func sampleValues(col *dataset.Column, n int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range col.Values {
		if v.Missing() {
			continue
		}
		s := v.String()
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == n {
			break
		}
	}
	return out
}

func plannedCount(res *analysis.Result) int {
	n := 0
	for _, kinds := range res.Candidates {
		n += len(kinds)
	}
	return n
}
