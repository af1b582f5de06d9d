package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slidesmith/slidesmith/internal/server"
)

// serveCommand creates the serve command running the HTTP service.
func (c *CLI) serveCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion service",
		Long: `Run the HTTP conversion service.

The service exposes POST /v1/conversions (multipart upload, returns the
generated document metadata) and GET /healthz. Usage quotas are enforced
per user against the configured store backend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := server.LoadConfig(configPath)
			if err != nil {
				return err
			}
			store, err := cfg.BuildStore(cmd.Context())
			if err != nil {
				return fmt.Errorf("connect usage store: %w", err)
			}
			srv := server.New(cfg, store, c.Logger)
			return srv.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to the TOML configuration file")
	return cmd
}
