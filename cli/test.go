package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xixu-me/tzst"
)

func newTestCommand() *cobra.Command {
	var streaming bool

	cmd := &cobra.Command{
		Use:     "t <archive>",
		Aliases: []string{"test"},
		Short:   "test integrity of archive",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tzst.Test(args[0], streaming) {
				fmt.Printf("Archive is valid: %s\n", args[0])
				return nil
			}

			return ErrorArchiveCorrupted.Error(fmt.Errorf("%s", args[0]))
		},
	}

	cmd.Flags().BoolVar(&streaming, "streaming", false, "use streaming mode for memory efficiency with large archives")

	return cmd
}
