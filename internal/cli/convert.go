package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slidesmith/slidesmith/pkg/dataset"
	"github.com/slidesmith/slidesmith/pkg/deck"
	"github.com/slidesmith/slidesmith/pkg/pipeline"
	"github.com/slidesmith/slidesmith/pkg/plan"
)

// convertCommand creates the convert command, the main entry point for
// one-shot local conversions.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		title  string
		theme  string
		style  string
		output string
		tier   string
		slides int
		order  string
		noAI   bool
		model  string
	)

	cmd := &cobra.Command{
		Use:   "convert [data.csv|data.xlsx]",
		Short: "Turn a tabular file into a presentation document",
		Long: `Turn a tabular file into a presentation document.

The convert command loads a CSV, TSV or XLSX file, analyzes every column,
renders the charts worth showing, writes the narrative around them, and
assembles a themed deck.

Narrative text uses an AI model when OPENAI_API_KEY is set; otherwise (or
with --no-ai) a deterministic fallback writes the copy. A failed AI call
never fails the run: the whole deck falls back in one piece.

The --plan flag only selects generation parameters (slide cap, text style,
watermark); monthly quotas are enforced by the service, not the CLI.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedTier, err := plan.ParseTier(tier)
			if err != nil {
				return err
			}
			opts := pipeline.Options{
				InputPath:       args[0],
				Title:           title,
				Theme:           theme,
				OutputPath:      output,
				Tier:            parsedTier,
				RequestedSlides: slides,
				ForceFallback:   noAI,
			}
			if order != "" {
				opts.ChartOrder = strings.Split(order, ",")
			}
			if style != "" {
				params := plan.Derive(parsedTier)
				params.TextStyle = style
				opts.Params = &params
			}
			return c.runConvert(cmd.Context(), opts, model, noAI)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "deck title (default \"Data report\")")
	cmd.Flags().StringVar(&theme, "theme", "", "theme preset: corporate (default), minimal, dark, vibrant")
	cmd.Flags().StringVar(&style, "style", "", "text style: short, normal, executive (default per plan)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default generated/<title>-<timestamp>.html)")
	cmd.Flags().StringVar(&tier, "plan", "free", "plan tier for generation parameters: free, pro")
	cmd.Flags().IntVar(&slides, "slides", 0, "requested slide count (0 = plan default)")
	cmd.Flags().StringVar(&order, "order", "", "comma-separated column names to order chart slides")
	cmd.Flags().BoolVar(&noAI, "no-ai", false, "force the deterministic text fallback")
	cmd.Flags().StringVar(&model, "model", "", "chat model for AI text (default gpt-4o-mini)")

	return cmd
}

// runConvert executes the pipeline and reports the outcome.
func (c *CLI) runConvert(ctx context.Context, opts pipeline.Options, model string, noAI bool) error {
	runner := c.newRunner(os.Getenv("OPENAI_API_KEY"), model, noAI)

	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Converting %s...", opts.InputPath))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Conversion failed")
		return describeFailure(err)
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Generated %d slides", result.SlideCount))

	printSuccess("Deck written")
	printFile(result.OutputPath)
	for _, w := range result.Warnings {
		printWarning("%s", w)
	}
	printNextStep("Open it", "xdg-open "+result.OutputPath)
	return nil
}

// describeFailure keeps user-facing failures readable: load errors and
// plan denials surface their own message, internal failures keep the
// stage prefix.
func describeFailure(err error) error {
	var le *dataset.LoadError
	if errors.As(err, &le) {
		return fmt.Errorf("could not read the input: %s", le.Reason)
	}
	var de *plan.DenialError
	if errors.As(err, &de) {
		return errors.New(de.Reason)
	}
	return err
}

// themesCommand lists the theme presets with a swatch of their colors.
func (c *CLI) themesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List the available theme presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range deck.ThemeNames() {
				t, _ := deck.ThemeByName(name)
				printKeyValue(name, t.Accent+" on "+t.Surface)
			}
		},
	}
}
