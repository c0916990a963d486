package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tilekit/pkg/metadata"
	"github.com/matzehuels/tilekit/pkg/pipeline"
)

// organizeCommand creates the organize command for materializing groups.
func (c *CLI) organizeCommand() *cobra.Command {
	opts := pipeline.Options{Graph: pipeline.GraphNone}

	cmd := &cobra.Command{
		Use:   "organize [manifest.json | sliced-dir]",
		Short: "Organize sliced tiles into named groups",
		Long: `Organize sliced tiles into named groups.

The grouping config (JSON or TOML) maps group paths such as "terrain/grass"
to a list of tiles, each addressed by manifest index or by sheet cell, and
an optional connect mode:

  layout       tiles carry a grid position and are assembled into
               assembled.png
  edge_match   every tile's edges are compared with every other tile and
               the top-k neighbours per direction are suggested

Each tile is copied to <group>/<base>_<xx>_<yy>.png and everything is
indexed in tileset.json. The tree is written to a staging directory and
moved into place only when complete; an existing output directory is
replaced only with --overwrite.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Manifest = args[0]
			opts.Root = c.Env.OrganizedDir
			if !cmd.Flags().Changed("jobs") {
				opts.Jobs = c.Env.Jobs
			}
			return c.runOrganize(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "grouping config (.json or .toml)")
	_ = cmd.MarkFlagRequired("config")
	cmd.Flags().StringVar(&opts.TilesetID, "id", "", "tileset id (default: name of the manifest directory)")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output directory (default: <organized dir>/<id>)")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "replace an existing output directory")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "groups processed in parallel (default: $TILEKIT_JOBS or GOMAXPROCS)")
	cmd.Flags().StringVar(&opts.Graph, "graph", opts.Graph, "adjacency graph for edge_match groups: none, dot, svg")
	cmd.Flags().BoolVar(&opts.GraphAll, "graph-all", false, "draw every suggested neighbour, not just the best")

	_ = cmd.RegisterFlagCompletionFunc("graph", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{pipeline.GraphNone, pipeline.GraphDOT, pipeline.GraphSVG}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// runOrganize organizes the tileset and summarizes the committed tree.
func (c *CLI) runOrganize(ctx context.Context, opts pipeline.Options) error {
	logger := loggerFromContext(ctx)
	runner, err := c.newRunner()
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	opts.Logger = logger

	prog := newProgress(logger)
	spinner := newSpinner(ctx, "Organizing tiles...")
	spinner.Start()

	res, err := runner.Organize(ctx, opts)
	if err != nil {
		spinner.StopWithError("Organize failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Organized %s", count(res.Stats.Groups, "group")))

	md := res.Organized.Metadata
	printSuccess("Organized %s", md.TilesetID)
	printFile(res.OutDir)
	printStats(
		count(res.Stats.Groups, "group"),
		count(res.Stats.Tiles, "tile"),
		count(res.Stats.Files, "file"),
	)
	for _, path := range md.GroupOrder {
		printDetail("%s", groupSummary(path, md.Groups[path]))
	}
	if n := len(md.Unassigned); n > 0 {
		printWarning("%s not in any group: %s", count(n, "tile"), formatIDs(md.Unassigned, 12))
	}
	return nil
}

// groupSummary renders one line per group, e.g.
// "terrain/grass  layout  4 tiles".
func groupSummary(path string, g *metadata.Group) string {
	line := fmt.Sprintf("%-24s %-10s %s", path, g.Connect, count(len(g.Tiles), "tile"))
	if g.EdgeMatches != nil {
		line += fmt.Sprintf("  best %.2f ± %.2f", g.EdgeMatches.BestMean, g.EdgeMatches.BestStdDev)
	}
	return line
}

// formatIDs joins up to limit ids and notes how many were left out.
func formatIDs(ids []int, limit int) string {
	var b strings.Builder
	for i, id := range ids {
		if i == limit {
			fmt.Fprintf(&b, " … (+%d)", len(ids)-limit)
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d", id)
	}
	return b.String()
}
