// Package manifest reads and writes the slice manifest produced by the slicer.
//
// A manifest records, for every tile cut from a sheet, its id, grid cell,
// pixel rectangle and sliced filename. The organizer treats a loaded
// [Manifest] as an immutable lookup table.
//
// # Format
//
//	{
//	  "source": "../sheets/dungeon.png",
//	  "tileset_size": [256, 128],
//	  "tile_size": [16, 16],
//	  "margin": [0, 0],
//	  "spacing": [0, 0],
//	  "grid": [16, 8],
//	  "transparent_white": true,
//	  "tiles": [
//	    {"index": 0, "x": 0, "y": 0, "rect": [0, 0, 16, 16], "file": "tile_000_x00_y00.png"}
//	  ]
//	}
//
// "source" is stored relative to the manifest's directory; [ReadFile]
// resolves it so [Tile.SourcePath] is usable from the working directory.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/matzehuels/tilekit/pkg/errors"
)

// Filename is the conventional manifest name inside a sliced directory.
const Filename = "manifest.json"

// Tile is one record of the manifest.
type Tile struct {
	ID         int             // Tile index, row*cols+col on the slicing grid
	Cell       image.Point     // Grid cell on the sheet
	Rect       image.Rectangle // Pixel rectangle on the sheet
	File       string          // Sliced tile filename
	SourcePath string          // Sheet the rectangle refers to
}

// Manifest is an immutable, indexed list of tile records.
type Manifest struct {
	Source           string
	SheetSize        image.Point
	TileSize         image.Point
	Margin           image.Point
	Spacing          image.Point
	Grid             image.Point
	TransparentWhite bool

	tiles  []Tile
	byID   map[int]int
	byCell map[image.Point]int
}

// New builds an indexed manifest from tiles.
// Tile ids and grid cells must be unique.
func New(tiles []Tile) (*Manifest, error) {
	m := &Manifest{
		tiles:  slices.Clone(tiles),
		byID:   make(map[int]int, len(tiles)),
		byCell: make(map[image.Point]int, len(tiles)),
	}
	for i, t := range m.tiles {
		if t.Rect.Empty() {
			return nil, errors.New(errors.ErrCodeInvalidManifest, "tile %d has an empty rect", t.ID).Tiles(t.ID)
		}
		if prev, dup := m.byID[t.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidManifest, "duplicate tile index %d", t.ID).Tiles(m.tiles[prev].ID, t.ID)
		}
		if prev, dup := m.byCell[t.Cell]; dup {
			return nil, errors.New(errors.ErrCodeInvalidManifest, "duplicate grid cell (%d,%d)", t.Cell.X, t.Cell.Y).Tiles(m.tiles[prev].ID, t.ID)
		}
		m.byID[t.ID] = i
		m.byCell[t.Cell] = i
	}
	return m, nil
}

// Len returns the number of tiles.
func (m *Manifest) Len() int { return len(m.tiles) }

// Tiles returns a copy of the tile records in manifest order.
func (m *Manifest) Tiles() []Tile { return slices.Clone(m.tiles) }

// Lookup returns the tile with the given id.
func (m *Manifest) Lookup(id int) (Tile, bool) {
	i, ok := m.byID[id]
	if !ok {
		return Tile{}, false
	}
	return m.tiles[i], true
}

// LookupCell returns the tile sliced from grid cell p.
func (m *Manifest) LookupCell(p image.Point) (Tile, bool) {
	i, ok := m.byCell[p]
	if !ok {
		return Tile{}, false
	}
	return m.tiles[i], true
}

// IDs returns all tile ids in ascending order.
func (m *Manifest) IDs() []int {
	ids := make([]int, 0, len(m.tiles))
	for _, t := range m.tiles {
		ids = append(ids, t.ID)
	}
	slices.Sort(ids)
	return ids
}

// =============================================================================
// Serialization
// =============================================================================

type wireManifest struct {
	Source           string     `json:"source"`
	TilesetSize      [2]int     `json:"tileset_size"`
	TileSize         [2]int     `json:"tile_size"`
	Margin           [2]int     `json:"margin"`
	Spacing          [2]int     `json:"spacing"`
	Grid             [2]int     `json:"grid"`
	TransparentWhite bool       `json:"transparent_white,omitempty"`
	Tiles            []wireTile `json:"tiles"`
}

type wireTile struct {
	Index  int    `json:"index"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Rect   [4]int `json:"rect"`
	File   string `json:"file"`
	Source string `json:"source,omitempty"`
}

func pt(p image.Point) [2]int { return [2]int{p.X, p.Y} }

func fromPt(a [2]int) image.Point { return image.Pt(a[0], a[1]) }

// Marshal converts a manifest to indented JSON bytes.
func Marshal(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(m, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes m as indented JSON to w.
func Write(m *Manifest, w io.Writer) error {
	out := wireManifest{
		Source:           m.Source,
		TilesetSize:      pt(m.SheetSize),
		TileSize:         pt(m.TileSize),
		Margin:           pt(m.Margin),
		Spacing:          pt(m.Spacing),
		Grid:             pt(m.Grid),
		TransparentWhite: m.TransparentWhite,
		Tiles:            make([]wireTile, len(m.tiles)),
	}
	for i, t := range m.tiles {
		wt := wireTile{
			Index: t.ID,
			X:     t.Cell.X,
			Y:     t.Cell.Y,
			Rect:  [4]int{t.Rect.Min.X, t.Rect.Min.Y, t.Rect.Dx(), t.Rect.Dy()},
			File:  t.File,
		}
		if t.SourcePath != "" && t.SourcePath != m.Source {
			wt.Source = t.SourcePath
		}
		out.Tiles[i] = wt
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes m to path, creating parent directories.
func WriteFile(m *Manifest, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Read decodes a manifest from r. Source paths are returned as stored.
func Read(r io.Reader) (*Manifest, error) {
	var data wireManifest
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode manifest")
	}

	tiles := make([]Tile, len(data.Tiles))
	for i, wt := range data.Tiles {
		src := wt.Source
		if src == "" {
			src = data.Source
		}
		tiles[i] = Tile{
			ID:         wt.Index,
			Cell:       image.Pt(wt.X, wt.Y),
			Rect:       image.Rect(wt.Rect[0], wt.Rect[1], wt.Rect[0]+wt.Rect[2], wt.Rect[1]+wt.Rect[3]),
			File:       wt.File,
			SourcePath: src,
		}
	}

	m, err := New(tiles)
	if err != nil {
		return nil, err
	}
	m.Source = data.Source
	m.SheetSize = fromPt(data.TilesetSize)
	m.TileSize = fromPt(data.TileSize)
	m.Margin = fromPt(data.Margin)
	m.Spacing = fromPt(data.Spacing)
	m.Grid = fromPt(data.Grid)
	m.TransparentWhite = data.TransparentWhite
	return m, nil
}

// ReadFile reads the manifest at path and resolves relative source paths
// against the manifest's directory.
func ReadFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open manifest %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	m.Source = resolve(m.Source)
	for i := range m.tiles {
		m.tiles[i].SourcePath = resolve(m.tiles[i].SourcePath)
	}
	return m, nil
}
