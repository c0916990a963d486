package pipeline

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/tilekit/pkg/config"
	"github.com/matzehuels/tilekit/pkg/errors"
	"github.com/matzehuels/tilekit/pkg/imageio"
	"github.com/matzehuels/tilekit/pkg/manifest"
	"github.com/matzehuels/tilekit/pkg/metadata"
	"github.com/matzehuels/tilekit/pkg/organizer"
	"github.com/matzehuels/tilekit/pkg/pixel"
	"github.com/matzehuels/tilekit/pkg/render/adjacency"
	"github.com/matzehuels/tilekit/pkg/render/overview"
	"github.com/matzehuels/tilekit/pkg/slicer"
)

// Runner executes pipeline workflows.
//
// The Runner holds only the logger and a decoded-sheet cache shared across
// runs. Multiple goroutines can use the same Runner with different options.
type Runner struct {
	Sheets *imageio.SheetStore
	Logger *log.Logger
}

// NewRunner creates a runner. If logger is nil, log.Default() is used.
func NewRunner(logger *log.Logger) (*Runner, error) {
	if logger == nil {
		logger = log.Default()
	}
	sheets, err := imageio.NewSheetStore(DefaultSheetCache)
	if err != nil {
		return nil, err
	}
	return &Runner{Sheets: sheets, Logger: logger}, nil
}

// ResolveManifestPath accepts either a manifest file or the sliced
// directory that contains one.
func ResolveManifestPath(p string) string {
	if fi, err := os.Stat(p); err == nil && fi.IsDir() {
		return filepath.Join(p, manifest.Filename)
	}
	return p
}

// Organize loads the manifest and grouping config, organizes every group
// and commits the organized tree to opts.Out.
func (r *Runner) Organize(ctx context.Context, opts Options) (*OrganizeResult, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	opts.Manifest = ResolveManifestPath(opts.Manifest)
	if err := opts.ValidateForOrganize(); err != nil {
		return nil, err
	}
	// Fail before doing any work when the destination is taken.
	if err := checkOutput(opts.Out, opts.Overwrite); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := opts.Logger.With("run", runID[:8])
	result := &OrganizeResult{RunID: runID, OutDir: opts.Out}

	loadStart := time.Now()
	m, err := manifest.ReadFile(opts.Manifest)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadResolved(opts.Config, m)
	if err != nil {
		return nil, err
	}
	idx, err := pixel.NewIndex(m, r.Sheets)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = time.Since(loadStart)
	logger.Info("loaded inputs",
		"manifest", opts.Manifest,
		"tiles", m.Len(),
		"groups", len(cfg.Groups),
		"duration", result.Stats.LoadTime)

	runStart := time.Now()
	org, err := organizer.Organize(ctx, cfg, m, idx, organizer.Options{
		TilesetID:    opts.TilesetID,
		ManifestPath: opts.Manifest,
		Jobs:         opts.Jobs,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	result.Organized = org
	result.Stats.RunTime = time.Since(runStart)
	result.Stats.Groups = len(org.Metadata.GroupOrder)
	result.Stats.Tiles = len(org.Tiles)
	result.Stats.Unassigned = len(org.Metadata.Unassigned)

	writeStart := time.Now()
	files, err := stageAndCommit(ctx, logger, opts.Out, opts.Overwrite, func(dir string) ([]string, error) {
		return writeTree(ctx, dir, org, opts)
	})
	if err != nil {
		return nil, err
	}
	result.Files = files
	result.Stats.Files = len(files)
	result.Stats.WriteTime = time.Since(writeStart)
	logger.Info("committed organized tree",
		"out", opts.Out,
		"files", len(files),
		"duration", result.Stats.WriteTime)
	return result, nil
}

// writeTree materializes an organize result under dir. tileset.json is
// written last.
func writeTree(ctx context.Context, dir string, org *organizer.Result, opts Options) ([]string, error) {
	var files []string
	write := func(rel string, img image.Image) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := imageio.WritePNG(filepath.Join(dir, filepath.FromSlash(rel)), img); err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	}

	for _, t := range org.Tiles {
		if err := write(t.Path, t.Buffer.Image()); err != nil {
			return nil, err
		}
	}
	for _, c := range org.Composites {
		if err := write(c.Path, c.Layout.Image.Image()); err != nil {
			return nil, err
		}
	}

	if opts.Graph != GraphNone {
		for _, mt := range org.Matches {
			adj, graphFiles, err := writeGraph(ctx, dir, mt, opts)
			if err != nil {
				return nil, errors.InGroup(err, mt.Group)
			}
			org.Metadata.Groups[mt.Group].Adjacency = adj
			files = append(files, graphFiles...)
		}
	}

	if err := metadata.WriteFile(org.Metadata, filepath.Join(dir, metadata.Filename)); err != nil {
		return nil, err
	}
	return append(files, metadata.Filename), nil
}

func writeGraph(ctx context.Context, dir string, mt organizer.Match, opts Options) (*metadata.Adjacency, []string, error) {
	dot := adjacency.ToDOT(mt, adjacency.Options{All: opts.GraphAll})
	adj := &metadata.Adjacency{DOT: mt.Group + "/adjacency.dot"}
	if err := writeFile(filepath.Join(dir, filepath.FromSlash(adj.DOT)), []byte(dot)); err != nil {
		return nil, nil, err
	}
	files := []string{adj.DOT}

	if opts.Graph == GraphSVG {
		svg, err := adjacency.RenderSVG(ctx, dot)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "render adjacency graph")
		}
		adj.SVG = mt.Group + "/adjacency.svg"
		if err := writeFile(filepath.Join(dir, filepath.FromSlash(adj.SVG)), svg); err != nil {
			return nil, nil, err
		}
		files = append(files, adj.SVG)
	}
	return adj, files, nil
}

// Slice cuts opts.Image into tiles and commits them with a manifest to
// opts.Out.
func (r *Runner) Slice(ctx context.Context, opts Options) (*SliceResult, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateForSlice(); err != nil {
		return nil, err
	}
	if err := checkOutput(opts.Out, opts.Overwrite); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := opts.Logger.With("run", runID[:8])
	result := &SliceResult{RunID: runID, OutDir: opts.Out}

	loadStart := time.Now()
	sheet, err := imageio.ReadPNG(opts.Image)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = time.Since(loadStart)

	source, err := relativeTo(opts.Out, opts.Image)
	if err != nil {
		return nil, err
	}

	runStart := time.Now()
	res, err := slicer.Slice(sheet, opts.SliceSpec(), slicer.Options{
		Source:           source,
		TransparentWhite: opts.TransparentWhite,
		TrimEmpty:        opts.TrimEmpty,
	})
	if err != nil {
		return nil, err
	}
	result.Manifest = res.Manifest
	result.Trimmed = res.Trimmed
	result.Stats.RunTime = time.Since(runStart)
	result.Stats.Tiles = res.Manifest.Len()
	logger.Info("sliced sheet",
		"image", opts.Image,
		"grid", res.Manifest.Grid,
		"tiles", res.Manifest.Len(),
		"trimmed", res.Trimmed)

	writeStart := time.Now()
	files, err := stageAndCommit(ctx, logger, opts.Out, opts.Overwrite, func(dir string) ([]string, error) {
		if err := slicer.WriteDir(res, dir); err != nil {
			return nil, err
		}
		return []string{manifest.Filename}, nil
	})
	if err != nil {
		return nil, err
	}
	result.Stats.Files = len(res.Tiles) + len(files)
	result.Stats.WriteTime = time.Since(writeStart)
	return result, nil
}

// Overview renders a contact sheet of the manifest's tiles to opts.Out.
// When opts.Config is set, frames are coloured by group.
func (r *Runner) Overview(ctx context.Context, opts Options) (*OverviewResult, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	opts.Manifest = ResolveManifestPath(opts.Manifest)
	if err := opts.ValidateForOverview(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(opts.Out); err == nil && !opts.Overwrite {
		return nil, errors.New(errors.ErrCodeOutputExists, "%s already exists (use --overwrite to replace it)", opts.Out)
	}

	m, err := manifest.ReadFile(opts.Manifest)
	if err != nil {
		return nil, err
	}
	idx, err := pixel.NewIndex(m, r.Sheets)
	if err != nil {
		return nil, err
	}

	var groups []overview.Group
	if opts.Config != "" {
		cfg, err := config.LoadResolved(opts.Config, m)
		if err != nil {
			return nil, err
		}
		for _, g := range cfg.Groups {
			groups = append(groups, overview.Group{Path: g.Path, TileIDs: g.TileIDs()})
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := overview.Render(m, idx, overview.Options{
		Scale:  opts.Scale,
		Pad:    opts.Pad,
		Label:  overview.Label(opts.Label),
		Groups: groups,
		Swatch: opts.Swatch,
	})
	if err != nil {
		return nil, err
	}
	if err := imageio.WritePNG(opts.Out, img); err != nil {
		return nil, err
	}
	opts.Logger.Info("wrote overview", "out", opts.Out, "tiles", m.Len(), "groups", len(groups))
	return &OverviewResult{Path: opts.Out, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// relativeTo expresses target relative to dir, so a manifest in dir can
// find its sheet after the tree is moved together.
func relativeTo(dir, target string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absDir, absTarget)
	if err != nil {
		return absTarget, nil
	}
	return filepath.ToSlash(rel), nil
}

func pt(a [2]int) image.Point { return image.Pt(a[0], a[1]) }
