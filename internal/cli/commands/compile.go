package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/stencil/internal/cli/ui"
	"github.com/conduit-lang/stencil/internal/compiler/cache"
	cerrors "github.com/conduit-lang/stencil/internal/compiler/errors"
	"github.com/conduit-lang/stencil/internal/compiler/metadata"
)

// NewCompileCommand creates the compile command
func NewCompileCommand(flags *globalFlags) *cobra.Command {
	var (
		jsonOut  bool
		outDir   string
		compress bool
	)

	cmd := &cobra.Command{
		Use:   "compile [path...]",
		Short: "Compile templates to codegen handoff files",
		Long: `Compile templates and write one handoff file per template.

Directories are searched for files matching watch.patterns. Each template
is written to <out>/<path>.json (or .json.gz with --compress). Templates
with errors are reported and not written.

Examples:
  # Compile every template under views/
  stencil compile views

  # Print the handoff instead of writing files
  stencil compile page.html --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, coord, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer coord.Close()

			if !cmd.Flags().Changed("out") {
				outDir = cfg.Output.Dir
			}
			if !cmd.Flags().Changed("compress") {
				compress = cfg.Output.Compress
			}

			paths, err := expandPaths(args, cfg.Watch.Patterns)
			if err != nil {
				return err
			}

			results, metrics := coord.CompileFiles(cmd.Context(), paths, true)

			if jsonOut {
				return printHandoffs(cmd, results)
			}
			return writeHandoffs(cmd, flags, results, metrics, outDir, compress, logger)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the handoff JSON to stdout instead of writing files")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default: output.dir)")
	cmd.Flags().BoolVar(&compress, "compress", false, "Gzip the handoff files")

	return cmd
}

// printHandoffs writes the metadata of every compiled template as a JSON array
func printHandoffs(cmd *cobra.Command, results []*cache.Result) error {
	handoffs := []*metadata.Metadata{}
	failed := false
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.Path, r.Err)
			failed = true
			continue
		}
		if r.Metadata.HasErrors() {
			failed = true
		}
		handoffs = append(handoffs, r.Metadata)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(handoffs); err != nil {
		return fmt.Errorf("failed to encode handoff: %w", err)
	}
	if failed {
		return errReported
	}
	return nil
}

func writeHandoffs(cmd *cobra.Command, flags *globalFlags, results []*cache.Result, metrics *cache.Metrics, outDir string, compress bool, logger *zap.Logger) error {
	out := cmd.OutOrStdout()
	table := ui.NewTable(out, flags.noColor, "TEMPLATE", "STATUS", "HOISTS", "OUTPUT")

	var diagnostics cerrors.ErrorList
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			table.AddRow(r.Path, "failed: "+r.Err.Error())
			continue
		}

		m := r.Metadata
		diagnostics = append(diagnostics, withSource(r.Path, m.Diagnostics)...)
		if m.HasErrors() {
			failed++
			errs, _ := m.Diagnostics.ErrorCount()
			table.AddRow(r.Path, fmt.Sprintf("%d error(s)", errs))
			continue
		}

		target := metadata.OutputPath(outDir, r.Path)
		write := metadata.WriteToFile
		if compress {
			target += ".gz"
			write = metadata.WriteCompressedToFile
		}
		if err := write(m, target); err != nil {
			failed++
			table.AddRow(r.Path, "failed: "+err.Error())
			continue
		}
		logger.Debug("wrote handoff", zap.String("template", r.Path), zap.String("output", target))

		status := "compiled"
		if r.Cached {
			status = "cached"
		}
		table.AddRow(r.Path, status, fmt.Sprint(m.Summary.Hoists), target)
	}

	if len(diagnostics) > 0 {
		fmt.Fprint(cmd.ErrOrStderr(), ui.FormatDiagnostics(diagnostics, flags.noColor))
	}

	table.Render()
	fmt.Fprintln(out)

	summary := fmt.Sprintf("%d template(s) in %s, %d cached (%.0f%% hit rate)",
		len(results), metrics.TotalDuration.Round(time.Millisecond), metrics.CacheHits, metrics.CacheHitRate())
	if failed > 0 {
		c := color.New(color.FgRed, color.Bold)
		if flags.noColor {
			c.DisableColor()
		}
		c.Fprintf(out, "✗ %d of %s failed\n", failed, summary)
		return errReported
	}
	ui.WriteSuccess(out, "Compiled "+summary, flags.noColor)
	return nil
}

// NewCheckCommand creates the check command
func NewCheckCommand(flags *globalFlags) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Report every diagnostic in templates",
		Long: `Compile templates in recovery mode and print every error and warning.

Exits with a non-zero status when any template has errors, which makes it
suitable for CI.

Examples:
  stencil check views
  stencil check page.html --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, coord, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer coord.Close()

			paths, err := expandPaths(args, cfg.Watch.Patterns)
			if err != nil {
				return err
			}

			results, _ := coord.CompileFiles(cmd.Context(), paths, true)

			type fileReport struct {
				File        string            `json:"file"`
				Diagnostics cerrors.ErrorList `json:"diagnostics"`
				Error       string            `json:"error,omitempty"`
			}

			var (
				reports []fileReport
				all     cerrors.ErrorList
				failed  bool
			)
			for _, r := range results {
				report := fileReport{File: r.Path, Diagnostics: cerrors.ErrorList{}}
				if r.Err != nil {
					report.Error = r.Err.Error()
					failed = true
				} else {
					if r.Metadata.HasErrors() {
						failed = true
					}
					if len(r.Metadata.Diagnostics) > 0 {
						report.Diagnostics = r.Metadata.Diagnostics
					}
					all = append(all, withSource(r.Path, r.Metadata.Diagnostics)...)
				}
				reports = append(reports, report)
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(reports); err != nil {
					return fmt.Errorf("failed to encode report: %w", err)
				}
			} else {
				for _, r := range reports {
					if r.Error != "" {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", r.File, r.Error)
					}
				}
				fmt.Fprint(cmd.OutOrStdout(), ui.FormatDiagnostics(all, flags.noColor))
			}

			if failed {
				return errReported
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print diagnostics as JSON")

	return cmd
}

// withSource attaches source excerpts from path to diags
func withSource(path string, diags cerrors.ErrorList) cerrors.ErrorList {
	if len(diags) == 0 {
		return diags
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return diags
	}
	for _, e := range diags {
		e.WithSource(string(content))
	}
	return diags
}
