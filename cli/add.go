package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/xixu-me/tzst"
	"github.com/xixu-me/tzst/internal/pathplan"
)

func newAddCommand() *cobra.Command {
	var level int
	var noAtomic bool

	cmd := &cobra.Command{
		Use:     "a <archive> <files...>",
		Aliases: []string{"add", "create"},
		Short:   "add files to archive",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if level < tzst.MinLevel || level > tzst.MaxLevel {
				return ErrorInvalidLevel.Error(fmt.Errorf("%d", level))
			}

			archive, files := args[0], args[1:]

			var missing []string
			for _, f := range files {
				if _, err := os.Stat(f); err != nil {
					missing = append(missing, f)
				}
			}
			if len(missing) > 0 {
				return ErrorFilesNotFound.Error(fmt.Errorf("%v", missing))
			}

			normalized := pathplan.NormalizeArchivePath(archive)
			fmt.Printf("Creating archive: %s\n", normalized)

			progress := mpb.New(mpb.WithWidth(40))
			bar := progress.AddBar(int64(len(files)),
				mpb.PrependDecorators(decor.Name("Adding", decor.WC{W: 8})),
				mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
			)

			if err := tzst.Create(archive, files, tzst.CreateOptions{
				CompressionLevel: level,
				NonAtomic:        noAtomic,
				OnFileAdded: func(memberName string) {
					bar.Increment()
				},
			}); err != nil {
				progress.Wait()
				return err
			}
			progress.Wait()

			fmt.Printf("Archive created successfully - %s\n", normalized)
			return nil
		},
	}

	cmd.Flags().IntVarP(&level, "level", "c", tzst.DefaultLevel, "compression level (1-22)")
	cmd.Flags().IntVarP(&level, "compression-level", "l", tzst.DefaultLevel, "compression level (1-22)")
	cmd.Flags().BoolVar(&noAtomic, "no-atomic", false,
		"disable atomic file operations (not recommended)")

	return cmd
}
