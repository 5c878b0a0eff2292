package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/xixu-me/tzst"
	"github.com/xixu-me/tzst/internal/conflict"
	"github.com/xixu-me/tzst/internal/security"
)

func newExtractCommand(flatten bool) *cobra.Command {
	var output string
	var streaming bool
	var filterName string
	var conflictResolution string

	use, aliases, short := "x <archive> [files...]", []string{"extract"}, "eXtract files with full paths"
	if flatten {
		use, aliases, short = "e <archive> [files...]", []string{"extract-flat"},
			"extract files from archive (without using directory names)"
	}

	cmd := &cobra.Command{
		Use:     use,
		Aliases: aliases,
		Short:   short,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, members := args[0], args[1:]

			if output == "" {
				output = "."
			}

			resolution := conflict.Resolution(conflictResolution)
			if !conflict.Valid(resolution) {
				return ErrorInvalidConflictResolution.Error(fmt.Errorf("%q", conflictResolution))
			}

			total := len(members)
			if total == 0 {
				if records, lerr := tzst.List(archive, false, streaming); lerr == nil {
					total = len(records)
				}
			}

			progress := mpb.New(mpb.WithWidth(40))
			bar := progress.AddBar(int64(total),
				mpb.PrependDecorators(decor.Name("Extracting", decor.WC{W: 10})),
				mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
			)

			opts := tzst.ExtractOptions{
				Filter:        security.Name(filterName),
				Flatten:       flatten,
				InitialPolicy: resolution,
				Prompt:        interactivePrompt,
				OnMemberExtracted: func(memberName string) {
					bar.Increment()
				},
			}

			if err := tzst.Extract(archive, output, members, streaming, opts); err != nil {
				progress.Wait()
				return err
			}
			progress.Wait()

			fmt.Printf("Extracted to: %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory (default: current directory)")
	cmd.Flags().BoolVar(&streaming, "streaming", false, "use streaming mode for memory efficiency with large archives")
	cmd.Flags().StringVar(&filterName, "filter", string(security.Data), "extraction filter: data, tar, fully_trusted")
	cmd.Flags().StringVar(&conflictResolution, "conflict-resolution", string(conflict.Ask),
		"how to handle file conflicts: replace, skip, replace_all, skip_all, auto_rename, auto_rename_all, ask")

	return cmd
}

// interactivePrompt reads a conflict decision from standard input, matching
// original_source/src/tzst/cli.py's _interactive_conflict_callback menu.
func interactivePrompt(targetPath string) conflict.Resolution {
	fmt.Printf("\nFile already exists: %s\n", targetPath)
	fmt.Println("Choose an action:")
	fmt.Println("  [R] Replace")
	fmt.Println("  [N] Do not replace (skip)")
	fmt.Println("  [A] Replace all")
	fmt.Println("  [S] Skip all")
	fmt.Println("  [U] Auto-rename all")
	fmt.Println("  [X] Exit")

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("Enter choice [R/N/A/S/U/X]: ")

		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nOperation cancelled by user")
			return conflict.Exit
		}

		switch strings.ToUpper(strings.TrimSpace(line)) {
		case "R":
			return conflict.Replace
		case "N":
			return conflict.Skip
		case "A":
			return conflict.ReplaceAll
		case "S":
			return conflict.SkipAll
		case "U":
			return conflict.AutoRenameAll
		case "X":
			return conflict.Exit
		default:
			fmt.Println("Invalid choice. Please enter R, N, A, S, U, or X.")
		}
	}
}
