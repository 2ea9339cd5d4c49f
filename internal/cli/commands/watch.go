package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/stencil/internal/cli/ui"
	"github.com/conduit-lang/stencil/internal/watch"
)

// NewWatchCommand creates the watch command
func NewWatchCommand(flags *globalFlags) *cobra.Command {
	var (
		notifyAddr string
		outDir     string
		debounce   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch [dir...]",
		Short: "Recompile templates when they change",
		Long: `Watch template directories and recompile changed templates.

The watch command builds every template once, then on each change:
  • Recompiles only the changed templates (through the compile cache)
  • Rewrites their handoff files and removes those of deleted templates
  • Prints the diagnostics
  • Pushes the result to WebSocket clients when --notify is set

Examples:
  # Watch the working directory
  stencil watch

  # Watch views/ and push results to editors on localhost:7879
  stencil watch views --notify 127.0.0.1:7879
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, coord, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer coord.Close()

			roots := args
			if len(roots) == 0 {
				roots = []string{"."}
			}
			if !cmd.Flags().Changed("out") {
				outDir = cfg.Output.Dir
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			incremental := watch.NewIncrementalCompiler(coord, outDir, cfg.Output.Compress, logger)

			result, err := incremental.FullBuild(ctx, roots, cfg.Watch.Patterns)
			if err != nil {
				return err
			}
			reportBuild(out, result, flags.noColor)

			var notifier *watch.Notifier
			if notifyAddr != "" {
				notifier = watch.NewNotifier(logger)
				defer notifier.Close()

				shutdown, addr, err := serveNotifier(notifyAddr, notifier, logger)
				if err != nil {
					return err
				}
				defer shutdown()
				notifyAddr = addr
			}

			onChange := func(files []string) error {
				if notifier != nil {
					notifier.NotifyBuilding(files)
				}
				result, err := incremental.IncrementalBuild(ctx, files)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						logger.Error("rebuild failed", zap.Error(err))
					}
					return err
				}
				reportBuild(out, result, flags.noColor)
				if notifier != nil {
					notifier.NotifyResult(result)
				}
				return nil
			}

			watcher, err := watch.NewFileWatcher(roots, cfg.Watch.Patterns, cfg.Watch.Ignored, onChange, logger)
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			if debounce > 0 {
				watcher.SetDebounce(debounce)
			}
			if err := watcher.Start(); err != nil {
				return fmt.Errorf("failed to start watcher: %w", err)
			}
			defer watcher.Stop()

			// Display banner
			fmt.Fprintln(out)
			ui.Header(out, "Stencil watch", flags.noColor)
			kv := ui.NewKeyValueTable(out, flags.noColor)
			kv.AddRow("Watching", fmt.Sprintf("%v (%d directories)", roots, len(watcher.WatchList())))
			kv.AddRow("Output", outDir)
			kv.AddRow("Cache", cfg.Cache.Backend)
			if notifier != nil {
				kv.AddRow("Notify", "ws://"+notifyAddr+"/ws")
			}
			kv.Render()
			fmt.Fprintln(out)
			yellow := color.New(color.FgYellow)
			if flags.noColor {
				yellow.DisableColor()
			}
			yellow.Fprintln(out, "⌨️  Press Ctrl+C to stop")

			<-ctx.Done()
			fmt.Fprintln(out, "\nShutting down...")
			return nil
		},
	}

	cmd.Flags().StringVar(&notifyAddr, "notify", "", "Serve build events over WebSocket on this address")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default: output.dir)")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before rebuilding")

	return cmd
}

// reportBuild prints one line per build plus its diagnostics
func reportBuild(w io.Writer, result *watch.CompileResult, noColor bool) {
	stamp := time.Now().Format("15:04:05")
	summary := fmt.Sprintf("[%s] %d compiled (%d cached), %d removed in %s",
		stamp, len(result.Compiled), result.Cached, len(result.Removed), result.Duration.Round(time.Millisecond))

	for _, path := range result.Fixed {
		fmt.Fprintln(w, ui.FormatSuccess("fixed "+path, noColor))
	}
	for path, err := range result.Failures {
		fmt.Fprintf(w, "%s: %v\n", path, err)
	}
	if diags := result.Diagnostics(); len(diags) > 0 {
		fmt.Fprint(w, ui.FormatDiagnostics(diags, noColor))
	}

	if result.Success {
		fmt.Fprintln(w, ui.FormatSuccess(summary, noColor))
		return
	}
	fmt.Fprint(w, ui.Warning(summary, noColor))
}

// serveNotifier serves the notifier's socket at /ws on addr
func serveNotifier(addr string, notifier *watch.Notifier, logger *zap.Logger) (func(), string, error) {
	router := chi.NewRouter()
	router.Get("/ws", notifier.HandleWebSocket)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("notify server failed", zap.Error(err))
		}
	}()

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return shutdown, listener.Addr().String(), nil
}
