// Package layout assembles positioned tiles into one composite image.
//
// The canvas covers the bounding box of the declared positions, so a layout
// whose positions start at (2,3) is not padded out to the origin. Cells with
// no tile stay fully transparent.
package layout

import (
	"image"
	"image/draw"
	"slices"

	"github.com/matzehuels/tilekit/pkg/errors"
	"github.com/matzehuels/tilekit/pkg/pixel"
)

const (
	// MaxPos bounds the absolute value of a cell coordinate.
	MaxPos = 1 << 20

	// MaxCanvasPixels bounds the area of a composite.
	MaxCanvasPixels = 1 << 28
)

// Cell is one tile at a local grid position.
type Cell struct {
	TileID int
	Pos    image.Point
	Buffer *pixel.Buffer
}

// Placed records where a cell landed on the composite.
type Placed struct {
	TileID int
	Pos    image.Point // Local grid position
	Offset image.Point // Top-left pixel on the composite
}

// Composite is the assembled image plus its grid geometry.
type Composite struct {
	Image    *pixel.Buffer
	Grid     image.Point // Columns and rows of the bounding box
	Origin   image.Point // Minimum declared position
	TileSize image.Point
	Placed   []Placed // In input order
}

// Assemble composites cells onto a transparent canvas. All buffers must
// share one size; otherwise it fails with LAYOUT_ERROR naming the tiles whose
// size differs from the first cell.
func Assemble(cells []Cell) (*Composite, error) {
	if len(cells) == 0 {
		return nil, errors.New(errors.ErrCodeLayout, "layout has no tiles")
	}

	size := cells[0].Buffer.Size()
	var mismatched []int
	for _, c := range cells[1:] {
		if c.Buffer.Size() != size {
			mismatched = append(mismatched, c.TileID)
		}
	}
	if len(mismatched) > 0 {
		return nil, errors.New(errors.ErrCodeLayout,
			"tile sizes differ from %dx%d of tile %d", size.X, size.Y, cells[0].TileID).Tiles(mismatched...)
	}

	if size.X <= 0 || size.Y <= 0 {
		return nil, errors.New(errors.ErrCodeLayout, "tiles are empty (%dx%d)", size.X, size.Y).Tiles(cells[0].TileID)
	}
	var outOfRange []int
	for _, c := range cells {
		if abs(c.Pos.X) > MaxPos || abs(c.Pos.Y) > MaxPos {
			outOfRange = append(outOfRange, c.TileID)
		}
	}
	if len(outOfRange) > 0 {
		return nil, errors.New(errors.ErrCodeLayout, "pos is beyond the %d cell limit", MaxPos).Tiles(outOfRange...)
	}

	bounds := image.Rectangle{Min: cells[0].Pos, Max: cells[0].Pos.Add(image.Pt(1, 1))}
	seen := make(map[image.Point]int, len(cells))
	for _, c := range cells {
		if prev, dup := seen[c.Pos]; dup {
			return nil, errors.New(errors.ErrCodeLayout, "pos (%d,%d) is occupied twice", c.Pos.X, c.Pos.Y).Tiles(prev, c.TileID)
		}
		seen[c.Pos] = c.TileID
		bounds = bounds.Union(image.Rectangle{Min: c.Pos, Max: c.Pos.Add(image.Pt(1, 1))})
	}

	grid := bounds.Size()
	if grid.X > MaxCanvasPixels/size.X || grid.Y > MaxCanvasPixels/size.Y ||
		grid.X*size.X > MaxCanvasPixels/(grid.Y*size.Y) {
		return nil, errors.New(errors.ErrCodeLayout,
			"composite of %dx%d tiles of %dx%d exceeds %d pixels", grid.X, grid.Y, size.X, size.Y, MaxCanvasPixels).
			Tiles(edgeTiles(cells, bounds)...)
	}
	canvas := image.NewNRGBA(image.Rect(0, 0, grid.X*size.X, grid.Y*size.Y))
	placed := make([]Placed, 0, len(cells))
	for _, c := range cells {
		rel := c.Pos.Sub(bounds.Min)
		off := image.Pt(rel.X*size.X, rel.Y*size.Y)
		draw.Draw(canvas, image.Rectangle{Min: off, Max: off.Add(size)}, c.Buffer.Image(), image.Point{}, draw.Src)
		placed = append(placed, Placed{TileID: c.TileID, Pos: c.Pos, Offset: off})
	}

	return &Composite{
		Image:    pixel.FromImage(canvas),
		Grid:     grid,
		Origin:   bounds.Min,
		TileSize: size,
		Placed:   slices.Clip(placed),
	}, nil
}

// edgeTiles returns the ids of cells on the bounding box, the ones that
// stretch the canvas.
func edgeTiles(cells []Cell, bounds image.Rectangle) []int {
	var ids []int
	for _, c := range cells {
		if c.Pos.X == bounds.Min.X || c.Pos.Y == bounds.Min.Y ||
			c.Pos.X == bounds.Max.X-1 || c.Pos.Y == bounds.Max.Y-1 {
			ids = append(ids, c.TileID)
		}
	}
	return ids
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
