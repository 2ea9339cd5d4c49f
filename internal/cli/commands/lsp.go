package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/stencil/internal/lsp"
)

// NewLSPCommand creates the LSP command
func NewLSPCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the Stencil Language Server Protocol (LSP) server.

This command starts an LSP server that provides IDE integration features including:
  • Diagnostics on open, change and save
  • Document symbols (element outline)
  • Directive and built-in component completion

The LSP server communicates via JSON-RPC over stdin/stdout.
It is typically started automatically by your editor/IDE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := flags.logger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return lsp.NewServer(cfg.CompilerOptions(), logger).Run(ctx)
		},
	}
}
