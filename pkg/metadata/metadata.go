// Package metadata defines tileset.json, the document that describes an
// organized tileset.
//
// The document is written once per successful organize run. Map-valued
// fields are encoded with sorted keys and slices keep a defined order, so
// identical inputs always yield byte-identical output. Document order of the
// groups is kept separately in GroupOrder.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/matzehuels/tilekit/pkg/errors"
)

// Filename is the metadata file name at the root of an organized tree.
const Filename = "tileset.json"

// Tileset is the root document.
type Tileset struct {
	TilesetID    string               `json:"tileset_id"`
	SourceConfig string               `json:"source_config"`
	Manifest     string               `json:"manifest"`
	Source       string               `json:"source"`
	TileSize     [2]int               `json:"tile_size"`
	GroupOrder   []string             `json:"group_order"`
	Groups       map[string]*Group    `json:"groups"`
	Unassigned   []int                `json:"unassigned"`
	Tiles        map[string][]TileRef `json:"tiles"`
}

// TileRef locates one emission of a manifest tile. The Tiles index of a
// [Tileset] is keyed by decimal tile id and lists refs in group order.
type TileRef struct {
	Group  string `json:"directory"`
	File   string `json:"file"`
	SheetX int    `json:"sheet_x"`
	SheetY int    `json:"sheet_y"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// Group describes one output directory.
type Group struct {
	BaseName    string       `json:"base_name"`
	Connect     string       `json:"connect"`
	Tiles       []Tile       `json:"tiles"`
	Layout      *Layout      `json:"layout,omitempty"`
	EdgeMatches *EdgeMatches `json:"edge_matches,omitempty"`
	Adjacency   *Adjacency   `json:"adjacency,omitempty"`
}

// Tile is one emitted tile file. File is relative to the tree root.
type Tile struct {
	Index  int    `json:"index"`
	File   string `json:"file"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	SheetX int    `json:"sheet_x"`
	SheetY int    `json:"sheet_y"`
	Rect   [4]int `json:"rect"`
}

// Layout describes the assembled composite of a layout group.
type Layout struct {
	File   string   `json:"file"`
	Grid   [2]int   `json:"grid"`
	Origin [2]int   `json:"origin"`
	Size   [2]int   `json:"size"`
	Placed []Placed `json:"placed"`
}

// Placed locates one tile on the composite. Pos is relative to the
// composite origin; SourcePos is the configured position.
type Placed struct {
	Index     int    `json:"index"`
	File      string `json:"file"`
	Pos       [2]int `json:"pos"`
	SourcePos [2]int `json:"source_pos"`
	Offset    [2]int `json:"offset"`
}

// EdgeMatches holds neighbour suggestions for an edge-match group.
// Suggestions is always true: scores are heuristic.
type EdgeMatches struct {
	Suggestions bool             `json:"suggestions"`
	TopK        int              `json:"top_k"`
	BestMean    float64          `json:"best_score_mean"`
	BestStdDev  float64          `json:"best_score_stddev"`
	Entries     []EdgeMatchEntry `json:"entries"`
}

// EdgeMatchEntry ranks candidates for one tile in one direction.
type EdgeMatchEntry struct {
	Tile       string      `json:"tile"`
	Index      int         `json:"index"`
	Direction  string      `json:"direction"`
	Candidates []Candidate `json:"candidates"`
}

// Candidate is one suggested neighbour.
type Candidate struct {
	Tile    string  `json:"tile"`
	Index   int     `json:"index"`
	Score   float64 `json:"score"`
	Matches int     `json:"matches"`
}

// Adjacency names the exported suggestion graph files of a group.
type Adjacency struct {
	DOT string `json:"dot"`
	SVG string `json:"svg,omitempty"`
}

// New returns an empty document.
func New(tilesetID string) *Tileset {
	return &Tileset{
		TilesetID:  tilesetID,
		GroupOrder: []string{},
		Groups:     map[string]*Group{},
		Unassigned: []int{},
		Tiles:      map[string][]TileRef{},
	}
}

// AddGroup appends g under path and indexes its tiles.
func (t *Tileset) AddGroup(path string, g *Group) {
	t.GroupOrder = append(t.GroupOrder, path)
	t.Groups[path] = g
	for _, tile := range g.Tiles {
		key := strconv.Itoa(tile.Index)
		t.Tiles[key] = append(t.Tiles[key], TileRef{
			Group:  path,
			File:   tile.File,
			SheetX: tile.SheetX,
			SheetY: tile.SheetY,
			X:      tile.X,
			Y:      tile.Y,
		})
	}
}

// Lookup returns every emission of tile id.
func (t *Tileset) Lookup(id int) []TileRef { return t.Tiles[strconv.Itoa(id)] }

// Group returns the group at path, or nil.
func (t *Tileset) Group(path string) *Group { return t.Groups[path] }

// Marshal encodes t as indented JSON followed by a newline.
func Marshal(t *Tileset) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(t, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes t to w.
func Write(t *Tileset, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode %s: %w", Filename, err)
	}
	return nil
}

// WriteFile writes t to path, creating parent directories.
func WriteFile(t *Tileset, path string) error {
	data, err := Marshal(t)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Read decodes a document from r.
func Read(r io.Reader) (*Tileset, error) {
	var t Tileset
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", Filename)
	}
	if t.Groups == nil {
		t.Groups = map[string]*Group{}
	}
	if t.Tiles == nil {
		t.Tiles = map[string][]TileRef{}
	}
	return &t, nil
}

// ReadFile reads the document at path.
func ReadFile(path string) (*Tileset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
