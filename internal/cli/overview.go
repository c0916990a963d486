package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tilekit/pkg/pipeline"
	"github.com/matzehuels/tilekit/pkg/render/overview"
)

// overviewCommand creates the overview command for rendering a contact sheet.
func (c *CLI) overviewCommand() *cobra.Command {
	opts := pipeline.Options{
		Scale: overview.DefaultScale,
		Pad:   overview.DefaultPad,
		Label: string(overview.LabelIndexXY),
	}

	cmd := &cobra.Command{
		Use:   "overview [manifest.json | sliced-dir]",
		Short: "Render a labelled contact sheet of a sliced tileset",
		Long: `Render a labelled contact sheet of a sliced tileset.

Every tile is drawn at its sheet cell, scaled up with nearest-neighbour
sampling and framed. Labels show the tile index, its sheet cell, or both,
which are the values a grouping config refers to.

With --config, frames are coloured per group and tiles outside every group
are framed in grey, which makes unassigned tiles easy to spot.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Manifest = args[0]
			return c.runOverview(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file (default: <manifest dir>/overview.png)")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "replace an existing file")
	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "grouping config used to colour frames by group")

	cmd.Flags().IntVar(&opts.Scale, "scale", opts.Scale, "integer upscale factor")
	cmd.Flags().IntVar(&opts.Pad, "pad", opts.Pad, "padding between cells in pixels")
	cmd.Flags().StringVar(&opts.Label, "label", opts.Label, "cell label: "+strings.Join(labelNames(), ", "))
	cmd.Flags().BoolVar(&opts.Swatch, "swatch", false, "draw each tile's dominant colour under its cell")

	_ = cmd.RegisterFlagCompletionFunc("label", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return labelNames(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// runOverview renders the contact sheet and reports where it was written.
func (c *CLI) runOverview(ctx context.Context, opts pipeline.Options) error {
	runner, err := c.newRunner()
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	opts.Logger = loggerFromContext(ctx)

	res, err := runner.Overview(ctx, opts)
	if err != nil {
		return err
	}

	printSuccess("Overview rendered")
	printFile(res.Path)
	printKeyValue("size", fmt.Sprintf("%dx%d", res.Width, res.Height))
	return nil
}

func labelNames() []string {
	names := make([]string, len(overview.Labels))
	for i, l := range overview.Labels {
		names[i] = string(l)
	}
	return names
}
