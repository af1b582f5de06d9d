// Package cli implements the slidesmith command-line interface.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/slidesmith/slidesmith/pkg/buildinfo"
	"github.com/slidesmith/slidesmith/pkg/pipeline"
	"github.com/slidesmith/slidesmith/pkg/texts"
)

// appName is the application name used for display.
const appName = "slidesmith"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Slidesmith turns tabular data into slide decks",
		Long:         `Slidesmith analyzes a CSV or XLSX file, renders the charts worth showing, writes the narrative around them, and assembles everything into a presentation document.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.themesCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The AI strategy is
// enabled when an API key is available and not explicitly disabled.
func (c *CLI) newRunner(apiKey, model string, noAI bool) *pipeline.Runner {
	composer := &texts.Composer{Fallback: texts.FallbackStrategy{}, Logger: c.Logger}
	if apiKey != "" && !noAI {
		composer.Primary = texts.NewAIStrategy(apiKey, model)
	}
	// Local runs carry no usage governor: quotas apply to the service.
	return pipeline.NewRunner(nil, composer, c.Logger)
}
