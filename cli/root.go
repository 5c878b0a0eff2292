// Package cli implements the tzst command-line surface: add/create,
// extract, extract-flat, list, and test subcommands plus an interactive
// conflict prompt and a colorized banner. The subcommand set, flag names,
// and help text are grounded on original_source/src/tzst/cli.py's argparse
// configuration, rebuilt on spf13/cobra the way nabbar-golib/cobra wires
// its own command tree (a PersistentPreRunE that prints the banner and
// applies config-file defaults, RunE returning errors rather than calling
// os.Exit directly).
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	liberr "github.com/xixu-me/tzst/errors"
)

// Version is the tzst release version, set by the build (see cmd/tzst).
var Version = "dev"

// NewRootCommand builds the top-level "tzst" command with every
// subcommand attached.
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "tzst",
		Short: "A modern command-line tool for .tzst/.tar.zst archives",
		Long: "tzst combines POSIX tar with Zstandard compression into a " +
			"single fast, portable archive format.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			printBanner()

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			applyConfigDefaults(cmd, cfg)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "",
		"path to a YAML/TOML/JSON file of default option values")

	root.SetVersionTemplate(fmt.Sprintf("tzst %s : Copyright (c) 2025 Xi Xu\n", Version))

	root.AddCommand(
		newAddCommand(),
		newExtractCommand(false),
		newExtractCommand(true),
		newListCommand(),
		newTestCommand(),
	)

	return root
}

// applyConfigDefaults overrides the running subcommand's flag values with
// whatever the loaded config file set, but only for flags the user did not
// pass explicitly on the command line.
func applyConfigDefaults(cmd *cobra.Command, cfg *config) {
	if cfg.CompressionLevel != 0 {
		alias := cmd.Flags().Lookup("compression-level")
		if f := cmd.Flags().Lookup("level"); f != nil && !f.Changed && (alias == nil || !alias.Changed) {
			_ = f.Value.Set(fmt.Sprintf("%d", cfg.CompressionLevel))
		}
	}
	if cfg.Filter != "" {
		if f := cmd.Flags().Lookup("filter"); f != nil && !f.Changed {
			_ = f.Value.Set(cfg.Filter)
		}
	}
	if cfg.ConflictResolution != "" {
		if f := cmd.Flags().Lookup("conflict-resolution"); f != nil && !f.Changed {
			_ = f.Value.Set(cfg.ConflictResolution)
		}
	}
}

func printBanner() {
	fmt.Println()
	fmt.Printf("%s : Copyright (c) 2025 Xi Xu\n", color.CyanString("tzst "+Version))
	fmt.Println()
}

// PrintError reports a command failure as "Error: <category> - <detail>",
// colorized in red, matching the diagnostic format original_source/src/
// tzst/cli.py's own error handler prints. Errors that never passed through
// the errors package (cobra's own argument/flag validation) fall through
// to a bare "Error: <message>" line instead of a fabricated category.
func PrintError(err error) {
	if cerr, ok := err.(liberr.Error); ok {
		fmt.Fprintln(os.Stderr, color.RedString("Error: ")+errorCategory(cerr.GetCode())+" - "+cerr.Error())
		return
	}
	fmt.Fprintln(os.Stderr, color.RedString("Error: ")+err.Error())
}
