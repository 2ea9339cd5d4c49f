package commands

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/stencil/internal/cli/config"
	"github.com/conduit-lang/stencil/internal/cli/ui"
	"github.com/conduit-lang/stencil/internal/compiler"
	"github.com/conduit-lang/stencil/internal/compiler/cache"
	"github.com/conduit-lang/stencil/internal/compiler/parser"
)

// NewInitCommand creates the init command
func NewInitCommand(flags *globalFlags) *cobra.Command {
	var (
		yes   bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a stencil.yml",
		Long: `Create a stencil.yml in the working directory.

The command asks for the compiler, cache and output settings. With --yes
it writes the defaults without prompting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file := flags.configFile
			if file == "" {
				file = config.FileName + ".yml"
			}

			if _, err := os.Stat(file); err == nil && !force {
				if yes {
					return fmt.Errorf("%s already exists (use --force to overwrite)", file)
				}
				overwrite := false
				prompt := &survey.Confirm{Message: file + " already exists. Overwrite?"}
				if err := survey.AskOne(prompt, &overwrite); err != nil {
					return err
				}
				if !overwrite {
					return nil
				}
			}

			cfg := config.Default()
			if !yes {
				if err := askConfig(cfg); err != nil {
					return err
				}
			}

			if err := cfg.Write(file); err != nil {
				return err
			}
			ui.WriteSuccess(cmd.OutOrStdout(), "Created "+file, flags.noColor)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Write the defaults without prompting")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")

	return cmd
}

// askConfig prompts for the common settings, starting from cfg's values
func askConfig(cfg *config.Config) error {
	answers := struct {
		Whitespace  string
		Mode        string
		HoistStatic bool `survey:"hoist"`
		Backend     string
		Output      string
	}{}

	questions := []*survey.Question{
		{
			Name: "whitespace",
			Prompt: &survey.Select{
				Message: "Whitespace handling:",
				Options: []string{parser.WhitespaceCondense, parser.WhitespacePreserve},
				Default: cfg.Compiler.Whitespace,
			},
		},
		{
			Name: "mode",
			Prompt: &survey.Select{
				Message: "Render module mode:",
				Options: []string{string(compiler.ModeModule), string(compiler.ModeFunction)},
				Default: cfg.Compiler.Mode,
			},
		},
		{
			Name:   "hoist",
			Prompt: &survey.Confirm{Message: "Hoist static content?", Default: cfg.Compiler.HoistStatic},
		},
		{
			Name: "backend",
			Prompt: &survey.Select{
				Message: "Compile cache:",
				Options: []string{cache.BackendMemory, cache.BackendSQLite, cache.BackendRedis},
				Default: cfg.Cache.Backend,
			},
		},
		{
			Name:     "output",
			Prompt:   &survey.Input{Message: "Output directory:", Default: cfg.Output.Dir},
			Validate: survey.Required,
		},
	}
	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}

	cfg.Compiler.Whitespace = answers.Whitespace
	cfg.Compiler.Mode = answers.Mode
	cfg.Compiler.HoistStatic = answers.HoistStatic
	cfg.Cache.Backend = answers.Backend
	cfg.Output.Dir = answers.Output

	switch cfg.Cache.Backend {
	case cache.BackendRedis:
		return survey.AskOne(&survey.Input{Message: "Redis address:", Default: cfg.Cache.Redis.Addr}, &cfg.Cache.Redis.Addr)
	case cache.BackendSQLite:
		return survey.AskOne(&survey.Input{Message: "SQLite database path:", Default: cfg.Cache.SQLite.Path}, &cfg.Cache.SQLite.Path)
	}
	return nil
}
