package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xixu-me/tzst"
	"github.com/xixu-me/tzst/internal/cliutil"
)

func newListCommand() *cobra.Command {
	var verbose bool
	var streaming bool

	cmd := &cobra.Command{
		Use:     "l <archive>",
		Aliases: []string{"list"},
		Short:   "list contents of archive",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := tzst.List(args[0], verbose, streaming)
			if err != nil {
				return err
			}

			for _, r := range records {
				kind := "-"
				switch {
				case r.IsDir:
					kind = "d"
				case r.IsSymlink:
					kind = "l"
				case r.IsLink:
					kind = "h"
				}

				if verbose {
					fmt.Printf("%s %10s %s %s\n", kind, cliutil.FormatSize(r.Size),
						r.ModTime.Format("2006-01-02 15:04:05"), r.Name)
				} else {
					fmt.Printf("%s %10s %s\n", kind, cliutil.FormatSize(r.Size), r.Name)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed information")
	cmd.Flags().BoolVar(&streaming, "streaming", false, "use streaming mode for memory efficiency with large archives")

	return cmd
}
