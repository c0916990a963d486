// Package slicer cuts a tileset sheet into a uniform grid of tiles and
// describes the cut in a manifest.
package slicer

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/matzehuels/tilekit/pkg/errors"
	"github.com/matzehuels/tilekit/pkg/imageio"
	"github.com/matzehuels/tilekit/pkg/manifest"
	"github.com/matzehuels/tilekit/pkg/pixel"
)

// DefaultTileSize is the tile edge length used when none is given.
const DefaultTileSize = 16

// Spec is the grid geometry of a sheet.
type Spec struct {
	TileSize image.Point
	Margin   image.Point // Offset of the first tile from the top-left corner
	Spacing  image.Point // Gap between neighbouring tiles
}

// Validate checks that the geometry is usable.
func (s Spec) Validate() error {
	if s.TileSize.X <= 0 || s.TileSize.Y <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "tile size must be positive, got %dx%d", s.TileSize.X, s.TileSize.Y)
	}
	if s.Margin.X < 0 || s.Margin.Y < 0 || s.Spacing.X < 0 || s.Spacing.Y < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "margin and spacing must not be negative")
	}
	return nil
}

// Grid returns the number of whole tiles that fit on a sheet of the given
// size. A trailing spacing gap is not required after the last column or row.
func (s Spec) Grid(sheet image.Point) image.Point {
	step := s.TileSize.Add(s.Spacing)
	return image.Pt(
		max(0, (sheet.X-s.Margin.X+s.Spacing.X)/step.X),
		max(0, (sheet.Y-s.Margin.Y+s.Spacing.Y)/step.Y),
	)
}

// Rect returns the pixel rectangle of grid cell c.
func (s Spec) Rect(c image.Point) image.Rectangle {
	step := s.TileSize.Add(s.Spacing)
	origin := s.Margin.Add(image.Pt(c.X*step.X, c.Y*step.Y))
	return image.Rectangle{Min: origin, Max: origin.Add(s.TileSize)}
}

// Options controls post-processing of each cut tile.
type Options struct {
	Source           string // Sheet path recorded in the manifest
	TransparentWhite bool   // Turn pure white into transparent white
	TrimEmpty        bool   // Drop tiles without content
}

// Tile is one cut tile.
type Tile struct {
	Record manifest.Tile
	Buffer *pixel.Buffer
}

// Result is the outcome of slicing one sheet.
type Result struct {
	Manifest *manifest.Manifest
	Tiles    []Tile // Row-major
	Trimmed  int
}

// TileFilename returns the sliced file name of tile id at cell c.
func TileFilename(id int, c image.Point) string {
	return fmt.Sprintf("tile_%03d_x%02d_y%02d.png", id, c.X, c.Y)
}

// Slice cuts sheet according to spec. Tile ids are row*cols+col; trimmed
// tiles leave gaps in the id sequence rather than renumbering.
func Slice(sheet image.Image, spec Spec, opts Options) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	full := pixel.FromImage(sheet)
	grid := spec.Grid(full.Size())
	if grid.X == 0 || grid.Y == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"sheet %dx%d holds no %dx%d tile", full.Width(), full.Height(), spec.TileSize.X, spec.TileSize.Y)
	}

	src := full.Image().(*image.NRGBA)
	res := &Result{}
	records := make([]manifest.Tile, 0, grid.X*grid.Y)
	for y := range grid.Y {
		for x := range grid.X {
			cell := image.Pt(x, y)
			rect := spec.Rect(cell)
			buf := pixel.FromImage(src.SubImage(rect))
			if opts.TransparentWhite {
				buf = pixel.TransparentWhite(buf)
			}
			if opts.TrimEmpty && pixel.IsEmpty(buf, opts.TransparentWhite) {
				res.Trimmed++
				continue
			}
			id := y*grid.X + x
			rec := manifest.Tile{
				ID:         id,
				Cell:       cell,
				Rect:       rect,
				File:       TileFilename(id, cell),
				SourcePath: opts.Source,
			}
			records = append(records, rec)
			res.Tiles = append(res.Tiles, Tile{Record: rec, Buffer: buf})
		}
	}

	m, err := manifest.New(records)
	if err != nil {
		return nil, err
	}
	m.Source = opts.Source
	m.SheetSize = full.Size()
	m.TileSize = spec.TileSize
	m.Margin = spec.Margin
	m.Spacing = spec.Spacing
	m.Grid = grid
	m.TransparentWhite = opts.TransparentWhite
	res.Manifest = m
	return res, nil
}

// WriteDir writes every tile image and the manifest into dir.
func WriteDir(res *Result, dir string) error {
	for _, t := range res.Tiles {
		if err := imageio.WritePNG(filepath.Join(dir, t.Record.File), t.Buffer.Image()); err != nil {
			return err
		}
	}
	return manifest.WriteFile(res.Manifest, filepath.Join(dir, manifest.Filename))
}
