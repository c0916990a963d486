// Package organizer turns a slice manifest and a grouping config into an
// organized tileset held entirely in memory.
//
// Organize never touches the file system. It resolves tile buffers through
// a [pixel.Source], names every tile, assembles layout groups and ranks
// edge-match neighbours, then returns one [Result] describing the whole
// tree. Writing that tree is the pipeline's job.
//
// Groups are independent and run concurrently. Their results are slotted
// by config index, so the output does not depend on scheduling. Any group
// failure cancels the run and no partial result is returned.
package organizer

import (
	"context"
	"fmt"
	"image"
	"io"
	"path"
	"runtime"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/tilekit/pkg/config"
	"github.com/matzehuels/tilekit/pkg/edgematch"
	"github.com/matzehuels/tilekit/pkg/errors"
	"github.com/matzehuels/tilekit/pkg/layout"
	"github.com/matzehuels/tilekit/pkg/manifest"
	"github.com/matzehuels/tilekit/pkg/metadata"
	"github.com/matzehuels/tilekit/pkg/observability"
	"github.com/matzehuels/tilekit/pkg/pixel"
)

// AssembledFilename is the composite image name inside a layout group.
const AssembledFilename = "assembled.png"

// TileFilename returns the output name of the tile at pos.
func TileFilename(baseName string, pos image.Point) string {
	return fmt.Sprintf("%s_%02d_%02d.png", baseName, pos.X, pos.Y)
}

// Options configures a run.
type Options struct {
	TilesetID    string
	ManifestPath string // Recorded in metadata only
	Jobs         int    // Concurrent groups; <= 0 means GOMAXPROCS
	Logger       *log.Logger
}

// Tile is one organized tile.
type Tile struct {
	Group    string
	TileID   int
	Filename string
	Path     string // Group path joined with Filename
	Pos      image.Point
	Buffer   *pixel.Buffer
}

// Composite is the assembled image of a layout group.
type Composite struct {
	Group  string
	Path   string
	Layout *layout.Composite
}

// Match holds the edge-match result of one group.
type Match struct {
	Group  string
	Result *edgematch.Result
	Names  map[int]string // Tile id to organized path
}

// Result is everything an organize run produced, in config order.
type Result struct {
	Metadata   *metadata.Tileset
	Tiles      []Tile
	Composites []Composite
	Matches    []Match
}

type groupResult struct {
	meta      *metadata.Group
	tiles     []Tile
	composite *Composite
	match     *Match
}

// Organize runs every group of cfg against m, reading pixels from src.
// An unresolved cfg is resolved against m first.
func Organize(ctx context.Context, cfg *config.Config, m *manifest.Manifest, src pixel.Source, opts Options) (_ *Result, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	hooks := observability.Organizer()
	start := time.Now()
	hooks.OnOrganizeStart(ctx, opts.TilesetID, len(cfg.Groups))
	defer func() {
		hooks.OnOrganizeComplete(ctx, opts.TilesetID, time.Since(start), err)
	}()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Resolved() {
		if cfg, err = cfg.Resolve(m); err != nil {
			return nil, err
		}
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]*groupResult, len(cfg.Groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(cfg.Groups))))
	for i, group := range cfg.Groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			groupStart := time.Now()
			hooks.OnGroupStart(gctx, group.Path, group.Connect.Kind.String(), len(group.Tiles))
			res, err := organizeGroup(group, m, src)
			hooks.OnGroupComplete(gctx, group.Path, time.Since(groupStart), err)
			if err != nil {
				return errors.InGroup(err, group.Path)
			}
			logger.Debug("organized group",
				"group", group.Path,
				"connect", group.Connect.Kind,
				"tiles", len(res.tiles))
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Result{Metadata: metadata.New(opts.TilesetID)}
	md := out.Metadata
	md.SourceConfig = cfg.Source
	md.Manifest = opts.ManifestPath
	md.Source = m.Source
	md.TileSize = [2]int{m.TileSize.X, m.TileSize.Y}

	used := make(map[int]bool)
	for i, group := range cfg.Groups {
		res := results[i]
		md.AddGroup(group.Path, res.meta)
		out.Tiles = append(out.Tiles, res.tiles...)
		if res.composite != nil {
			out.Composites = append(out.Composites, *res.composite)
		}
		if res.match != nil {
			out.Matches = append(out.Matches, *res.match)
		}
		for _, p := range group.Tiles {
			used[p.TileID] = true
		}
	}
	for _, id := range m.IDs() {
		if !used[id] {
			md.Unassigned = append(md.Unassigned, id)
		}
	}

	if err := checkCollisions(out); err != nil {
		return nil, err
	}

	logger.Info("organized tileset",
		"groups", len(cfg.Groups),
		"tiles", len(out.Tiles),
		"unassigned", len(md.Unassigned),
		"duration", time.Since(start))
	return out, nil
}

func organizeGroup(group config.Group, m *manifest.Manifest, src pixel.Source) (*groupResult, error) {
	res := &groupResult{
		meta: &metadata.Group{
			BaseName: group.BaseName,
			Connect:  group.Connect.Kind.String(),
			Tiles:    make([]metadata.Tile, 0, len(group.Tiles)),
		},
	}

	names := make(map[int]string, len(group.Tiles))
	for _, p := range group.Tiles {
		rec, ok := m.Lookup(p.TileID)
		if !ok {
			return nil, errors.New(errors.ErrCodeManifestLookup, "tile %d is not in the manifest", p.TileID).Tiles(p.TileID)
		}
		buf, err := src.Tile(p.TileID)
		if err != nil {
			return nil, err
		}
		name := TileFilename(group.BaseName, p.Pos)
		rel := path.Join(group.Path, name)
		names[p.TileID] = rel

		res.tiles = append(res.tiles, Tile{
			Group:    group.Path,
			TileID:   p.TileID,
			Filename: name,
			Path:     rel,
			Pos:      p.Pos,
			Buffer:   buf,
		})
		res.meta.Tiles = append(res.meta.Tiles, metadata.Tile{
			Index:  p.TileID,
			File:   rel,
			X:      p.Pos.X,
			Y:      p.Pos.Y,
			SheetX: rec.Cell.X,
			SheetY: rec.Cell.Y,
			Rect:   [4]int{rec.Rect.Min.X, rec.Rect.Min.Y, rec.Rect.Dx(), rec.Rect.Dy()},
		})
	}

	switch group.Connect.Kind {
	case config.ConnectLayout:
		if err := assemble(group, res, names); err != nil {
			return nil, err
		}
	case config.ConnectEdgeMatch:
		if err := match(group, res, names); err != nil {
			return nil, err
		}
	}

	slices.SortStableFunc(res.meta.Tiles, func(a, b metadata.Tile) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		if a.X != b.X {
			return a.X - b.X
		}
		return a.Index - b.Index
	})
	slices.SortStableFunc(res.tiles, func(a, b Tile) int {
		if a.Pos.Y != b.Pos.Y {
			return a.Pos.Y - b.Pos.Y
		}
		if a.Pos.X != b.Pos.X {
			return a.Pos.X - b.Pos.X
		}
		return a.TileID - b.TileID
	})
	return res, nil
}

func assemble(group config.Group, res *groupResult, names map[int]string) error {
	cells := make([]layout.Cell, len(res.tiles))
	for i, t := range res.tiles {
		cells[i] = layout.Cell{TileID: t.TileID, Pos: t.Pos, Buffer: t.Buffer}
	}
	comp, err := layout.Assemble(cells)
	if err != nil {
		return err
	}

	file := path.Join(group.Path, AssembledFilename)
	res.composite = &Composite{Group: group.Path, Path: file, Layout: comp}

	lm := &metadata.Layout{
		File:   file,
		Grid:   [2]int{comp.Grid.X, comp.Grid.Y},
		Origin: [2]int{comp.Origin.X, comp.Origin.Y},
		Size:   [2]int{comp.Image.Width(), comp.Image.Height()},
		Placed: make([]metadata.Placed, len(comp.Placed)),
	}
	for i, p := range comp.Placed {
		rel := p.Pos.Sub(comp.Origin)
		lm.Placed[i] = metadata.Placed{
			Index:     p.TileID,
			File:      names[p.TileID],
			Pos:       [2]int{rel.X, rel.Y},
			SourcePos: [2]int{p.Pos.X, p.Pos.Y},
			Offset:    [2]int{p.Offset.X, p.Offset.Y},
		}
	}
	res.meta.Layout = lm
	return nil
}

func match(group config.Group, res *groupResult, names map[int]string) error {
	tiles := make([]edgematch.Tile, len(res.tiles))
	for i, t := range res.tiles {
		tiles[i] = edgematch.Tile{ID: t.TileID, Buffer: t.Buffer}
	}
	mr, err := edgematch.Match(tiles, group.Connect.TopK)
	if err != nil {
		return err
	}

	res.match = &Match{Group: group.Path, Result: mr, Names: names}
	em := &metadata.EdgeMatches{
		Suggestions: true,
		TopK:        mr.TopK,
		BestMean:    mr.BestMean,
		BestStdDev:  mr.BestStdDev,
		Entries:     make([]metadata.EdgeMatchEntry, len(mr.Entries)),
	}
	for i, e := range mr.Entries {
		entry := metadata.EdgeMatchEntry{
			Tile:       names[e.TileID],
			Index:      e.TileID,
			Direction:  e.Direction.String(),
			Candidates: make([]metadata.Candidate, len(e.Candidates)),
		}
		for j, c := range e.Candidates {
			entry.Candidates[j] = metadata.Candidate{
				Tile:    names[c.TileID],
				Index:   c.TileID,
				Score:   c.Score,
				Matches: c.Matches,
			}
		}
		em.Entries[i] = entry
	}
	res.meta.EdgeMatches = em
	return nil
}

// checkCollisions rejects trees where a group directory would need the same
// path as a file written by another group.
func checkCollisions(r *Result) error {
	files := map[string]string{metadata.Filename: ""}
	for _, t := range r.Tiles {
		files[t.Path] = t.Group
	}
	for _, c := range r.Composites {
		files[c.Path] = c.Group
	}
	for _, group := range r.Metadata.GroupOrder {
		for dir := group; dir != "." && dir != "/"; dir = path.Dir(dir) {
			if owner, ok := files[dir]; ok {
				return errors.New(errors.ErrCodeConfig, "group directory %q collides with a file of group %q", dir, owner).In(group)
			}
		}
	}
	return nil
}
