package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tilekit/pkg/pipeline"
	"github.com/matzehuels/tilekit/pkg/slicer"
)

// sliceCommand creates the slice command for cutting a sheet into tiles.
func (c *CLI) sliceCommand() *cobra.Command {
	opts := pipeline.Options{
		TileSize: [2]int{slicer.DefaultTileSize, slicer.DefaultTileSize},
	}

	cmd := &cobra.Command{
		Use:   "slice [sheet.png]",
		Short: "Slice a sprite sheet into individual tiles",
		Long: `Slice a sprite sheet into individual tiles.

The sheet is cut into a grid of tile-w x tile-h cells, honouring an outer
margin and the spacing between cells. Each cell is written as
tile_<index>_x<col>_y<row>.png next to a manifest.json that records the
grid geometry and every tile's rectangle. Tile indices are row-major
(row*cols+col) and are kept stable when --trim-empty drops blank cells.

The output directory defaults to $TILEKIT_SLICED_DIR (or sliced_tilesets)
joined with <sheet>_<w>x<h>.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Image = args[0]
			opts.Root = c.Env.SlicedDir
			return c.runSlice(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output directory (default: <sliced dir>/<sheet>_<w>x<h>)")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "replace an existing output directory")

	cmd.Flags().IntVar(&opts.TileSize[0], "tile-w", opts.TileSize[0], "tile width in pixels")
	cmd.Flags().IntVar(&opts.TileSize[1], "tile-h", opts.TileSize[1], "tile height in pixels")
	cmd.Flags().IntVar(&opts.Margin[0], "margin-x", 0, "horizontal margin around the grid")
	cmd.Flags().IntVar(&opts.Margin[1], "margin-y", 0, "vertical margin around the grid")
	cmd.Flags().IntVar(&opts.Spacing[0], "spacing-x", 0, "horizontal gap between tiles")
	cmd.Flags().IntVar(&opts.Spacing[1], "spacing-y", 0, "vertical gap between tiles")
	cmd.Flags().BoolVar(&opts.TrimEmpty, "trim-empty", false, "skip tiles without content")
	cmd.Flags().BoolVar(&opts.TransparentWhite, "transparent-white", false, "treat pure white as transparent")

	return cmd
}

// runSlice slices the sheet and reports the written directory.
func (c *CLI) runSlice(ctx context.Context, opts pipeline.Options) error {
	logger := loggerFromContext(ctx)
	runner, err := c.newRunner()
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	opts.Logger = logger

	prog := newProgress(logger)
	spinner := newSpinner(ctx, "Slicing "+opts.Image+"...")
	spinner.Start()

	res, err := runner.Slice(ctx, opts)
	if err != nil {
		spinner.StopWithError("Slicing failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Sliced %d tiles", res.Manifest.Len()))

	grid := res.Manifest.Grid
	printSuccess("Sliced %s", opts.Image)
	printFile(res.OutDir)
	printStats(
		fmt.Sprintf("%dx%d grid", grid.X, grid.Y),
		count(res.Manifest.Len(), "tile"),
		trimmed(res.Trimmed),
	)
	printNewline()
	printNextStep("Preview", "tilekit overview "+res.OutDir)
	printNextStep("Organize", "tilekit organize "+res.OutDir+" -c groups.toml")
	return nil
}

func trimmed(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%d trimmed", n)
}
