package organizer

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tilekit/pkg/config"
	"github.com/matzehuels/tilekit/pkg/errors"
	"github.com/matzehuels/tilekit/pkg/manifest"
	"github.com/matzehuels/tilekit/pkg/metadata"
	"github.com/matzehuels/tilekit/pkg/pixel"
)

// fixture returns a 4x2 manifest of 8x8 tiles (ids 0..7) and their buffers.
func fixture(t *testing.T) (*manifest.Manifest, *pixel.Index) {
	t.Helper()
	var records []manifest.Tile
	bufs := make(map[int]*pixel.Buffer)
	for id := range 8 {
		cell := image.Pt(id%4, id/4)
		records = append(records, manifest.Tile{
			ID:         id,
			Cell:       cell,
			Rect:       image.Rect(cell.X*8, cell.Y*8, cell.X*8+8, cell.Y*8+8),
			SourcePath: "sheet.png",
		})
		bufs[id] = pixel.Filled(8, 8, color.NRGBA{R: uint8(id * 30), G: 40, B: 90, A: 255})
	}
	m, err := manifest.New(records)
	require.NoError(t, err)
	m.Source = "sheet.png"
	m.TileSize = image.Pt(8, 8)
	return m, pixel.NewMapIndex(bufs)
}

func twoGroups(t *testing.T, extra ...config.Group) *config.Config {
	t.Helper()
	groups := append([]config.Group{
		{
			Path:     "terrain/grass",
			BaseName: "grass",
			Connect:  config.Layout(),
			Tiles: []config.Placement{
				{TileID: 0, Pos: image.Pt(0, 0)},
				{TileID: 1, Pos: image.Pt(1, 0)},
				{TileID: 4, Pos: image.Pt(0, 1)},
				{BySheet: true, Sheet: image.Pt(1, 1), Pos: image.Pt(1, 1)},
			},
		},
		{
			Path:    "walls",
			Connect: config.EdgeMatch(4),
			Tiles: []config.Placement{
				{TileID: 2, Pos: image.Pt(0, 0)},
				{TileID: 3, Pos: image.Pt(1, 0)},
			},
		},
	}, extra...)
	cfg, err := config.New(groups...)
	require.NoError(t, err)
	return cfg
}

func TestOrganizeTwoGroups(t *testing.T) {
	m, idx := fixture(t)
	res, err := Organize(context.Background(), twoGroups(t), m, idx, Options{TilesetID: "demo"})
	require.NoError(t, err)

	md := res.Metadata
	assert.Equal(t, "demo", md.TilesetID)
	assert.Equal(t, []string{"terrain/grass", "walls"}, md.GroupOrder)
	require.Len(t, md.Groups, 2)

	grass := md.Groups["terrain/grass"]
	require.NotNil(t, grass.Layout)
	assert.Nil(t, grass.EdgeMatches)
	assert.Equal(t, "terrain/grass/assembled.png", grass.Layout.File)
	assert.Equal(t, [2]int{2, 2}, grass.Layout.Grid)
	assert.Equal(t, [2]int{16, 16}, grass.Layout.Size)
	assert.Equal(t, "terrain/grass/grass_01_01.png", grass.Tiles[3].File)
	assert.Equal(t, 5, grass.Tiles[3].Index, "sheet ref (1,1) resolves to tile 5")
	assert.Equal(t, [4]int{8, 8, 8, 8}, grass.Tiles[3].Rect)

	walls := md.Groups["walls"]
	assert.Nil(t, walls.Layout)
	require.NotNil(t, walls.EdgeMatches)
	assert.True(t, walls.EdgeMatches.Suggestions)
	assert.Equal(t, "walls", walls.BaseName)
	assert.Len(t, walls.EdgeMatches.Entries, 8)
	assert.Equal(t, "walls/walls_01_00.png", walls.EdgeMatches.Entries[0].Candidates[0].Tile)

	assert.Equal(t, []int{6, 7}, md.Unassigned)
	assert.Len(t, md.Tiles, 6)
	assert.Equal(t, []metadata.TileRef{{
		Group:  "terrain/grass",
		File:   "terrain/grass/grass_01_01.png",
		SheetX: 1,
		SheetY: 1,
		X:      1,
		Y:      1,
	}}, md.Lookup(5))
	assert.Equal(t, "walls/walls_00_00.png", md.Tiles["2"][0].File)
	assert.Empty(t, md.Lookup(6))
	assert.Len(t, res.Tiles, 6)
	require.Len(t, res.Composites, 1)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "walls/walls_00_00.png", res.Matches[0].Names[2])
}

func TestOrganizeDeterministic(t *testing.T) {
	m, idx := fixture(t)
	cfg := twoGroups(t)

	var outputs []string
	for _, jobs := range []int{1, 1, 8} {
		res, err := Organize(context.Background(), cfg, m, idx, Options{TilesetID: "demo", Jobs: jobs})
		require.NoError(t, err)
		data, err := metadata.Marshal(res.Metadata)
		require.NoError(t, err)
		outputs = append(outputs, string(data))
	}
	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, outputs[0], outputs[2])
}

func TestOrganizeTileOrder(t *testing.T) {
	m, idx := fixture(t)
	cfg, err := config.New(config.Group{Path: "props", Tiles: []config.Placement{
		{TileID: 3, Pos: image.Pt(1, 1)},
		{TileID: 1, Pos: image.Pt(0, 1)},
		{TileID: 2, Pos: image.Pt(1, 0)},
	}})
	require.NoError(t, err)

	res, err := Organize(context.Background(), cfg, m, idx, Options{})
	require.NoError(t, err)

	var got []int
	for _, tile := range res.Metadata.Groups["props"].Tiles {
		got = append(got, tile.Index)
	}
	assert.Equal(t, []int{2, 1, 3}, got)
	assert.Empty(t, res.Composites)
	assert.Empty(t, res.Matches)
}

func TestOrganizeBadThirdGroupFailsWholeRun(t *testing.T) {
	m, idx := fixture(t)
	bad := config.Group{Path: "broken", Tiles: []config.Placement{{TileID: 99}}}

	res, err := Organize(context.Background(), twoGroups(t, bad), m, idx, Options{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, errors.ErrCodeManifestLookup))
	assert.Contains(t, err.Error(), "broken")
}

func TestOrganizeLayoutSizeMismatch(t *testing.T) {
	m, idx := fixture(t)
	bufs := map[int]*pixel.Buffer{}
	for id := range 8 {
		b, _ := idx.Tile(id)
		bufs[id] = b
	}
	bufs[1] = pixel.New(16, 8)

	res, err := Organize(context.Background(), twoGroups(t), m, pixel.NewMapIndex(bufs), Options{Jobs: 2})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, errors.ErrCodeLayout))
	assert.Equal(t, "terrain/grass", errors.GetGroup(err))
}

func TestOrganizeEdgeMatchSizeMismatch(t *testing.T) {
	m, idx := fixture(t)
	bufs := map[int]*pixel.Buffer{}
	for id := range 8 {
		b, _ := idx.Tile(id)
		bufs[id] = b
	}
	bufs[3] = pixel.New(8, 4)

	_, err := Organize(context.Background(), twoGroups(t), m, pixel.NewMapIndex(bufs), Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeEdgeMatch))
}

func TestOrganizeCancelled(t *testing.T) {
	m, idx := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Organize(ctx, twoGroups(t), m, idx, Options{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOrganizeDirectoryCollision(t *testing.T) {
	m, idx := fixture(t)
	cfg, err := config.New(
		config.Group{Path: "a", BaseName: "x", Tiles: []config.Placement{{TileID: 0}}},
		config.Group{Path: "a/x_00_00.png", Tiles: []config.Placement{{TileID: 1}}},
	)
	require.NoError(t, err)

	_, err = Organize(context.Background(), cfg, m, idx, Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeConfig))
}

func TestTileFilename(t *testing.T) {
	tests := []struct {
		base string
		pos  image.Point
		want string
	}{
		{"grass", image.Pt(0, 0), "grass_00_00.png"},
		{"wall", image.Pt(3, 12), "wall_03_12.png"},
		{"big", image.Pt(120, 7), "big_120_07.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TileFilename(tt.base, tt.pos))
	}
}
